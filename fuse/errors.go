package fuse

import (
	"errors"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/nifs"
)

// ToStatus maps engine errors onto FUSE errno values; unknown errors are EIO
func ToStatus(err error) fuse.Status {
	switch {
	case err == nil:
		return fuse.OK
	case errors.Is(err, nifs.ErrNotFound):
		return fuse.ENOENT
	case errors.Is(err, nifs.ErrAlreadyExists):
		return fuse.Status(syscall.EEXIST)
	case errors.Is(err, nifs.ErrNotEmpty):
		return fuse.Status(syscall.ENOTEMPTY)
	case errors.Is(err, nifs.ErrOutOfMemory):
		return fuse.Status(syscall.ENOMEM)
	case errors.Is(err, nifs.ErrPermissionDenied):
		return fuse.EACCES
	case errors.Is(err, nifs.ErrInvalid):
		return fuse.EINVAL
	case errors.Is(err, ErrNoHandles):
		return fuse.Status(syscall.EMFILE)
	default:
		return fuse.EIO
	}
}
