// Package fstest provides a conformance test suite for core.FS providers.
//
// The suite checks interface contracts rather than backend behavior: error
// sentinels, ordering guarantees, handle semantics and the aggregate errors
// of bulk operations. Providers call it from their own tests:
//
//	func TestConformance(t *testing.T) {
//	    fstest.TestSuite(t, func() core.FS {
//	        return newEmptyFS(t)
//	    })
//	}
package fstest

import (
	"testing"

	"github.com/jmgilman/go/fs/xrootd/core"
)

// FSTestConfig adjusts the suite to a provider.
type FSTestConfig struct {
	// SkipTests lists test names to skip, e.g. "WriteFS/AppendMode".
	SkipTests []string
}

func (c FSTestConfig) skip(name string) bool {
	for _, s := range c.SkipTests {
		if s == name {
			return true
		}
	}
	return false
}

// TestSuite runs every conformance test. newFS must return a fresh, empty
// filesystem on each call.
func TestSuite(t *testing.T, newFS func() core.FS) {
	TestSuiteWithConfig(t, newFS, FSTestConfig{})
}

// TestSuiteWithConfig runs every conformance test not skipped by config.
func TestSuiteWithConfig(t *testing.T, newFS func() core.FS, config FSTestConfig) {
	groups := []struct {
		name string
		run  func(*testing.T, core.FS, FSTestConfig)
	}{
		{"ReadFS", TestReadFSWithConfig},
		{"WriteFS", TestWriteFSWithConfig},
		{"ManageFS", TestManageFSWithConfig},
		{"BulkFS", TestBulkFSWithConfig},
		{"WalkFS", TestWalkFSWithConfig},
		{"ChrootFS", TestChrootFSWithConfig},
		{"FileCapabilities", TestFileCapabilitiesWithConfig},
	}
	for _, g := range groups {
		t.Run(g.name, func(t *testing.T) {
			if config.skip(g.name) {
				t.Skip("Skipped by provider configuration")
			}
			g.run(t, newFS(), config)
		})
	}
}

// run runs a subtest of group unless config skips it.
func run(t *testing.T, config FSTestConfig, group, name string, fn func(t *testing.T)) {
	t.Run(name, func(t *testing.T) {
		if config.skip(group + "/" + name) {
			t.Skip("Skipped by provider configuration")
		}
		fn(t)
	})
}
