// Package xrootd provides a core.FS implementation backed by an XRootD
// server.
//
// A filesystem is opened from a root URL. The URL names the endpoint, an
// optional base path and connection-level query parameters such as the
// authentication protocol:
//
//	fsys, err := xrootd.Open(ctx, "root://eos.example.org//eos/user/j/jdoe?xrd.wantprot=krb5")
//	if err != nil {
//		return err
//	}
//	defer fsys.Close()
//
//	data, err := fsys.ReadFile("runs/1234/summary.json")
//
// Every name passed to the filesystem is resolved below the base path; ".."
// never climbs above it, and the query is carried by the session rather
// than by individual paths.
//
// # Files
//
// Files opened for writing buffer small writes and split large reads and
// writes into calls no larger than the configured chunk size, so a single
// Read or Write may span many remote calls. Closing a written file checks
// that the server still holds it at the expected size; a silent loss fails
// Close with errors.CodeDataLoss.
//
//	f, err := fsys.OpenMode("out.bin", "w")
//	if err != nil {
//		return err
//	}
//	if _, err := f.Write(payload); err != nil {
//		f.Close()
//		return err
//	}
//	return f.Close()
//
// # Errors
//
// Failures are returned as *fs.PathError values wrapping an
// errors.PlatformError, which carries the XRootD errno and server message
// in its context and matches the io/fs sentinels:
//
//	if errors.Is(err, fs.ErrNotExist) { ... }
//
// Copy, Move and RemoveTree run their leaf operations in parallel and
// report every failed leaf in a single *errors.TreeError.
package xrootd
