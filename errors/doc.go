// Package errors provides structured error handling for the XRootD filesystem.
//
// Every failure surfaced by the filesystem carries an error code, a retry
// classification, a human-readable message and optional context metadata
// (operation, path, remote errno, remote message). Errors remain fully
// compatible with the standard library: errors.Is, errors.As and errors.Unwrap
// work across the chain, and a PlatformError additionally matches the io/fs
// sentinel that corresponds to its code:
//
//	CodeNotFound                          -> fs.ErrNotExist
//	CodeAlreadyExists                     -> fs.ErrExist
//	CodeForbidden, CodeUnauthorized       -> fs.ErrPermission
//	CodeInvalidInput, CodeNotADirectory,
//	CodeIsADirectory                      -> fs.ErrInvalid
//	CodeInvalidState                      -> fs.ErrClosed
//	CodeDirectoryNotEmpty                 -> ErrNotEmpty
//	CodeNotImplemented                    -> errors.ErrUnsupported
//
// # Quick Start
//
// Creating errors:
//
//	err := errors.New(errors.CodeNotFound, "no such file")
//	err := errors.Newf(errors.CodeInvalidInput, "seek target %d is negative", off)
//
// Wrapping a remote status:
//
//	if _, err := client.Stat(ctx, p); err != nil {
//	    return errors.Wrap(err, errors.CodeRemoteIO, "stat failed")
//	}
//
// Adding context:
//
//	err = errors.WithContext(err, "path", "/data/run1.root")
//	err = errors.WithContext(err, "errno", 3011)
//
// Aggregating leaf failures of a bulk operation:
//
//	tree := errors.NewTreeError("removetree", "/data/run1")
//	tree.Add("remove", "/data/run1/a.root", err)
//	return tree.ErrOrNil()
//
// Retry decisions:
//
//	if errors.IsRetryable(err) {
//	    // The filesystem never retries on its own; callers may.
//	}
package errors
