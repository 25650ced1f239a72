package vfs

import "errors"

// Sentinel errors returned by VFS operations. Utilities map these to their
// own idiomatic stderr wording (see spec.md §7).
var (
	ErrNotFound      = errors.New("no such file or directory")
	ErrNotADirectory = errors.New("not a directory")
	ErrIsADirectory  = errors.New("is a directory")
	ErrExists        = errors.New("file exists")
	ErrReadOnly      = errors.New("read-only file system")
	ErrTooManyLinks  = errors.New("too many levels of symbolic links")
	ErrInvalidPath   = errors.New("invalid path")
	ErrNotEmpty      = errors.New("directory not empty")
)

// PathError wraps a failing operation with the path it failed on, mirroring
// the shape of os.PathError so callers can unwrap with errors.Is.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }

func newErr(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Err: err}
}
