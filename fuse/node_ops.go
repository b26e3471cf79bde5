package fuse

import (
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/internal/util"
)

// Lookup is called by the kernel when the VFS wants to know
// about a file inside a directory. Many lookup calls can
// occur in parallel, but only one call happens for each (dir,
// name) pair.
func (r *FuseRaw) Lookup(cancel <-chan struct{}, header *fuse.InHeader, name string, out *fuse.EntryOut) fuse.Status {
	logger := util.GetLogger("Fuse.Lookup")
	logger.Trace().Uint64("nodeID", header.NodeId).Str("name", name).Msg("Lookup called")

	res := r.fs.Resolve(r.toEngine(header.NodeId), name)
	if !res.Found() {
		return fuse.ENOENT
	}
	info, err := r.fs.Stat(res.ID)
	if err != nil {
		return ToStatus(err)
	}
	r.fillEntry(info, out)
	return fuse.OK
}

// Forget is called when the kernel discards entries from its
// dentry cache. Engine ids stay valid until their node is
// removed so there is nothing to release here.
func (r *FuseRaw) Forget(nodeID, nlookup uint64) {
	logger := util.GetLogger("Fuse.Forget")
	logger.Trace().Uint64("nodeID", nodeID).Uint64("nlookup", nlookup).Msg("Forget called")
}

func (r *FuseRaw) GetAttr(cancel <-chan struct{}, input *fuse.GetAttrIn, out *fuse.AttrOut) fuse.Status {
	logger := util.GetLogger("Fuse.GetAttr")
	logger.Trace().Uint64("nodeID", input.NodeId).Msg("GetAttr called")

	info, err := r.fs.Stat(r.toEngine(input.NodeId))
	if err != nil {
		return ToStatus(err)
	}
	r.fillAttr(info, &out.Attr)
	out.SetTimeout(r.attrTimeout)
	return fuse.OK
}

// SetAttr only honours size changes; mode, owner and times are fixed
func (r *FuseRaw) SetAttr(cancel <-chan struct{}, input *fuse.SetAttrIn, out *fuse.AttrOut) fuse.Status {
	logger := util.GetLogger("Fuse.SetAttr")
	logger.Trace().Uint64("nodeID", input.NodeId).Uint32("valid", input.Valid).Msg("SetAttr called")

	id := r.toEngine(input.NodeId)
	if input.Valid&fuse.FATTR_SIZE != 0 {
		if st := r.checkWritable(); !st.Ok() {
			return st
		}
		if err := r.fs.Truncate(id, int64(input.Size)); err != nil {
			logger.Debug().Err(err).Uint64("id", id).Uint64("size", input.Size).Msg("Truncate failed")
			return ToStatus(err)
		}
	}

	info, err := r.fs.Stat(id)
	if err != nil {
		return ToStatus(err)
	}
	r.fillAttr(info, &out.Attr)
	out.SetTimeout(r.attrTimeout)
	return fuse.OK
}

func (r *FuseRaw) Mkdir(cancel <-chan struct{}, input *fuse.MkdirIn, name string, out *fuse.EntryOut) fuse.Status {
	logger := util.GetLogger("Fuse.Mkdir")
	logger.Trace().Uint64("parent", input.NodeId).Str("name", name).Msg("Mkdir called")

	if st := r.checkWritable(); !st.Ok() {
		return st
	}
	id, err := r.fs.MakeDirectory(r.toEngine(input.NodeId), name)
	if err != nil {
		return ToStatus(err)
	}
	return r.entryFor(id, out)
}

// Create makes a new file and opens it in one step
func (r *FuseRaw) Create(cancel <-chan struct{}, input *fuse.CreateIn, name string, out *fuse.CreateOut) fuse.Status {
	logger := util.GetLogger("Fuse.Create")
	logger.Trace().Uint64("parent", input.NodeId).Str("name", name).Uint32("flags", input.Flags).Msg("Create called")

	if st := r.checkWritable(); !st.Ok() {
		return st
	}
	parent := r.toEngine(input.NodeId)
	id, err := r.fs.CreateFile(parent, name)
	if err != nil {
		return ToStatus(err)
	}
	if st := r.entryFor(id, &out.EntryOut); !st.Ok() {
		return st
	}

	fh, err := r.handles.Open(Handle{NodeID: id, Flags: input.Flags})
	if err != nil {
		logger.Error().Err(err).Uint64("id", id).Msg("Failed to open handle for new file")
		return ToStatus(err)
	}
	out.Fh = fh
	out.OpenFlags = r.openFlags()
	return fuse.OK
}

func (r *FuseRaw) Unlink(cancel <-chan struct{}, header *fuse.InHeader, name string) fuse.Status {
	logger := util.GetLogger("Fuse.Unlink")
	logger.Trace().Uint64("parent", header.NodeId).Str("name", name).Msg("Unlink called")

	if st := r.checkWritable(); !st.Ok() {
		return st
	}
	parent := r.toEngine(header.NodeId)
	if res := r.fs.Resolve(parent, name); res.IsDir() {
		return fuse.Status(syscall.EISDIR)
	}
	return ToStatus(r.fs.RemoveFile(parent, name))
}

func (r *FuseRaw) Rmdir(cancel <-chan struct{}, header *fuse.InHeader, name string) fuse.Status {
	logger := util.GetLogger("Fuse.Rmdir")
	logger.Trace().Uint64("parent", header.NodeId).Str("name", name).Msg("Rmdir called")

	if st := r.checkWritable(); !st.Ok() {
		return st
	}
	parent := r.toEngine(header.NodeId)
	if res := r.fs.Resolve(parent, name); res.Kind == nifs.File {
		return fuse.Status(syscall.ENOTDIR)
	}
	return ToStatus(r.fs.RemoveDirectory(parent, name))
}

// StatFs reports block and inode counts. Content lives in memory so the free
// counts are nominal.
func (r *FuseRaw) StatFs(cancel <-chan struct{}, header *fuse.InHeader, out *fuse.StatfsOut) fuse.Status {
	var used uint64
	if counter, ok := r.fs.(interface{ NodeCount() (int, int) }); ok {
		dirs, files := counter.NodeCount()
		used = uint64(dirs + files)
	}

	*out = fuse.StatfsOut{
		Blocks:  reportedFree,
		Bfree:   reportedFree,
		Bavail:  reportedFree,
		Files:   used + reportedFree,
		Ffree:   reportedFree,
		Bsize:   blockSize,
		NameLen: maxNameLen,
		Frsize:  blockSize,
	}
	return fuse.OK
}

// entryFor fills out with the entry of engine node id
func (r *FuseRaw) entryFor(id uint64, out *fuse.EntryOut) fuse.Status {
	info, err := r.fs.Stat(id)
	if err != nil {
		return ToStatus(err)
	}
	r.fillEntry(info, out)
	return fuse.OK
}
