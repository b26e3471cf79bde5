package fuse

import (
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/internal/util"
)

// readerAt is implemented by providers that can read straight into the
// kernel's buffer
type readerAt interface {
	ReadAt(fileID uint64, buf []byte, offset int64) (int, error)
}

// Open honours O_TRUNC and remembers O_APPEND for later writes
func (r *FuseRaw) Open(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	logger := util.GetLogger("Fuse.Open")
	logger.Trace().Uint64("nodeID", input.NodeId).Uint32("flags", input.Flags).Msg("Open called")

	id := r.toEngine(input.NodeId)
	info, err := r.fs.Stat(id)
	if err != nil {
		return ToStatus(err)
	}
	if info.Kind == nifs.DirKind {
		return fuse.Status(syscall.EISDIR)
	}

	writable := input.Flags&syscall.O_ACCMODE != syscall.O_RDONLY
	truncate := input.Flags&syscall.O_TRUNC != 0
	if writable || truncate {
		if st := r.checkWritable(); !st.Ok() {
			return st
		}
	}
	if truncate && writable {
		if err := r.fs.Truncate(id, 0); err != nil {
			return ToStatus(err)
		}
	}

	fh, err := r.handles.Open(Handle{NodeID: id, Flags: input.Flags})
	if err != nil {
		return ToStatus(err)
	}
	out.Fh = fh
	out.OpenFlags = r.openFlags()
	return fuse.OK
}

// Read returns at most input.Size bytes; reads past the end return no data
func (r *FuseRaw) Read(cancel <-chan struct{}, input *fuse.ReadIn, buf []byte) (fuse.ReadResult, fuse.Status) {
	logger := util.GetLogger("Fuse.Read")
	logger.Trace().Uint64("nodeID", input.NodeId).Uint64("offset", input.Offset).Uint32("size", input.Size).
		Msg("Read called")

	id := r.toEngine(input.NodeId)
	length := min(int(input.Size), len(buf))
	if ra, ok := r.fs.(readerAt); ok {
		n, err := ra.ReadAt(id, buf[:length], int64(input.Offset))
		if err != nil {
			return nil, ToStatus(err)
		}
		return fuse.ReadResultData(buf[:n]), fuse.OK
	}

	data, err := r.fs.Read(id, int64(input.Offset), length)
	if err != nil {
		return nil, ToStatus(err)
	}
	return fuse.ReadResultData(data), fuse.OK
}

// Write appends instead of writing at input.Offset when the handle was
// opened with O_APPEND
func (r *FuseRaw) Write(cancel <-chan struct{}, input *fuse.WriteIn, data []byte) (uint32, fuse.Status) {
	logger := util.GetLogger("Fuse.Write")
	logger.Trace().Uint64("nodeID", input.NodeId).Uint64("fh", input.Fh).Uint64("offset", input.Offset).
		Int("len", len(data)).Msg("Write called")

	if st := r.checkWritable(); !st.Ok() {
		return 0, st
	}

	appendMode := false
	if h, ok := r.handles.Lookup(input.Fh); ok {
		appendMode = h.Flags&syscall.O_APPEND != 0
	}

	n, err := r.fs.Write(r.toEngine(input.NodeId), int64(input.Offset), data, appendMode)
	if err != nil {
		return 0, ToStatus(err)
	}
	return uint32(n), fuse.OK
}

func (r *FuseRaw) Release(cancel <-chan struct{}, input *fuse.ReleaseIn) {
	logger := util.GetLogger("Fuse.Release")
	logger.Trace().Uint64("nodeID", input.NodeId).Uint64("fh", input.Fh).Msg("Release called")

	r.handles.Release(input.Fh)
}

// Flush has nothing to persist
func (r *FuseRaw) Flush(cancel <-chan struct{}, input *fuse.FlushIn) fuse.Status {
	return fuse.OK
}

func (r *FuseRaw) Fsync(cancel <-chan struct{}, input *fuse.FsyncIn) fuse.Status {
	return fuse.OK
}
