package filesystem

import (
	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/internal/util"
)

// Read returns at most length bytes of the file starting at offset.
// Reading at or past the end returns no bytes and no error.
func (fs *FileSystem) Read(fileID uint64, offset int64, length int) ([]byte, error) {
	logger := util.GetLogger("FS.Read")
	logger.Trace().Uint64("fileID", fileID).Int64("offset", offset).Int("length", length).Msg("Read called")

	if offset < 0 || length < 0 {
		return nil, nifs.NewOpError("read", fileID, "", nifs.ErrInvalid)
	}
	ctx := fs.lockFile(fileID, false)
	if ctx == nil {
		return nil, nifs.NewOpError("read", fileID, "", nifs.ErrNotFound)
	}
	defer ctx.Close()

	return ctx.File().content.Read(offset, length), nil
}

// ReadAt copies file content at offset into buf and returns the count copied.
// It spares the FUSE read path an intermediate allocation.
func (fs *FileSystem) ReadAt(fileID uint64, buf []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, nifs.NewOpError("read", fileID, "", nifs.ErrInvalid)
	}
	ctx := fs.lockFile(fileID, false)
	if ctx == nil {
		return 0, nifs.NewOpError("read", fileID, "", nifs.ErrNotFound)
	}
	defer ctx.Close()

	return ctx.File().content.ReadAt(buf, offset), nil
}

// Write copies data into the file at offset (or at the end in append mode),
// growing and zero filling the file as needed. A failed write leaves the
// file's size and bytes unchanged.
func (fs *FileSystem) Write(fileID uint64, offset int64, data []byte, appendMode bool) (int, error) {
	logger := util.GetLogger("FS.Write")
	logger.Trace().Uint64("fileID", fileID).Int64("offset", offset).Int("len", len(data)).
		Bool("append", appendMode).Msg("Write called")

	ctx := fs.lockFile(fileID, true)
	if ctx == nil {
		return 0, nifs.NewOpError("write", fileID, "", nifs.ErrNotFound)
	}
	defer ctx.Close()
	content := ctx.File().content

	n, err := content.Write(offset, data, appendMode)
	if err != nil {
		logger.Warn().Err(err).Uint64("fileID", fileID).Int64("offset", offset).Int("len", len(data)).
			Msg("Write failed")
		return 0, nifs.NewOpError("write", fileID, "", err)
	}
	return n, nil
}

// Truncate sets the file's size, zero filling on growth
func (fs *FileSystem) Truncate(fileID uint64, size int64) error {
	logger := util.GetLogger("FS.Truncate")
	logger.Trace().Uint64("fileID", fileID).Int64("size", size).Msg("Truncate called")

	ctx := fs.lockFile(fileID, true)
	if ctx == nil {
		return nifs.NewOpError("truncate", fileID, "", nifs.ErrNotFound)
	}
	defer ctx.Close()

	if err := ctx.File().content.Truncate(size); err != nil {
		return nifs.NewOpError("truncate", fileID, "", err)
	}
	return nil
}
