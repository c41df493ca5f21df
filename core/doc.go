// Package core defines the capability interfaces the XRootD filesystem
// satisfies.
//
// Callers depend on these interfaces rather than on the concrete provider,
// which keeps application code testable against the in-memory server and
// portable to other providers.
//
// # Interface Hierarchy
//
// The main FS interface is composed of six sub-interfaces:
//
//   - ReadFS: Open, Stat, ReadDir, ReadFile, Exists
//   - WriteFS: Create, OpenFile, WriteFile, Mkdir, MkdirAll
//   - ManageFS: Remove, RemoveDir, RemoveAll, Rename
//   - BulkFS: Copy, Move, RemoveTree
//   - WalkFS: Walk
//   - ChrootFS: Chroot
//
// Optional file capabilities are discovered with type assertions:
// io.Seeker, io.ReaderAt, Truncater, Syncer and Sizer.
//
// # Stdlib Compatibility
//
// FS embeds fs.FS and File embeds fs.File, so standard library helpers work
// unchanged:
//
//	err := fs.WalkDir(filesystem, ".", func(p string, d fs.DirEntry, err error) error {
//	    fmt.Println(p)
//	    return nil
//	})
//
// Errors match the io/fs sentinels re-exported here:
//
//	if errors.Is(err, core.ErrNotExist) {
//	    // ...
//	}
package core
