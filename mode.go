package xrootd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jmgilman/go/fs/xrootd/xrd"
)

// ParseMode translates a mode string (r, r+, w, w+, a, a+, x, x+, each with
// an optional b) into os open flags.
func ParseMode(mode string) (int, error) {
	m := strings.Replace(mode, "b", "", 1)
	switch m {
	case "r":
		return os.O_RDONLY, nil
	case "r+":
		return os.O_RDWR, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case "a+":
		return os.O_RDWR | os.O_CREATE | os.O_APPEND, nil
	case "x":
		return os.O_WRONLY | os.O_CREATE | os.O_EXCL, nil
	case "x+":
		return os.O_RDWR | os.O_CREATE | os.O_EXCL, nil
	default:
		return 0, fmt.Errorf("unsupported mode %q", mode)
	}
}

// openPlan is how a set of os flags is carried out remotely.
type openPlan struct {
	flags xrd.OpenFlags
	// fallback is tried when flags fails with not-found (create if missing).
	fallback xrd.OpenFlags
	// truncate empties the file after opening.
	truncate bool
}

func planOpen(flag int) openPlan {
	access := flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR)
	create := flag&os.O_CREATE != 0

	if access == os.O_RDONLY {
		if create {
			return openPlan{flags: xrd.OpenRead, fallback: xrd.OpenNew}
		}
		return openPlan{flags: xrd.OpenRead}
	}

	switch {
	case create && flag&os.O_EXCL != 0:
		return openPlan{flags: xrd.OpenNew}
	case create && flag&os.O_TRUNC != 0:
		return openPlan{flags: xrd.OpenDelete}
	case create:
		return openPlan{flags: xrd.OpenUpdate, fallback: xrd.OpenNew}
	case flag&os.O_TRUNC != 0:
		return openPlan{flags: xrd.OpenUpdate, truncate: true}
	default:
		return openPlan{flags: xrd.OpenUpdate}
	}
}

func readable(flag int) bool {
	return flag&(os.O_WRONLY|os.O_RDWR) != os.O_WRONLY
}

func writable(flag int) bool {
	return flag&(os.O_WRONLY|os.O_RDWR) != 0
}
