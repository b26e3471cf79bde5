package fuse

import (
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/internal/util"
)

func (r *FuseRaw) OpenDir(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	logger := util.GetLogger("Fuse.OpenDir")
	logger.Trace().Uint64("nodeID", input.NodeId).Msg("OpenDir called")

	id := r.toEngine(input.NodeId)
	if st := r.checkDir(id); !st.Ok() {
		return st
	}
	fh, err := r.handles.Open(Handle{NodeID: id, Flags: input.Flags, Dir: true})
	if err != nil {
		return ToStatus(err)
	}
	out.Fh = fh
	return fuse.OK
}

// ReadDir streams entries starting at the kernel's offset, which is the
// engine's listing cursor. Every entry carries the cursor of its successor so
// the kernel can resume after a full buffer.
func (r *FuseRaw) ReadDir(cancel <-chan struct{}, input *fuse.ReadIn, out *fuse.DirEntryList) fuse.Status {
	logger := util.GetLogger("Fuse.ReadDir")
	logger.Trace().Uint64("nodeID", input.NodeId).Uint64("offset", input.Offset).Msg("ReadDir called")

	id := r.toEngine(input.NodeId)
	if st := r.checkDir(id); !st.Ok() {
		return st
	}
	r.readDir(id, input.Offset, func(_ nifs.DirEntry, de fuse.DirEntry) bool {
		return out.AddDirEntry(de)
	})
	return fuse.OK
}

// ReadDirPlus is ReadDir plus an entry lookup for every child. "." and ".."
// get zeroed entries so the kernel does not count them as lookups.
func (r *FuseRaw) ReadDirPlus(cancel <-chan struct{}, input *fuse.ReadIn, out *fuse.DirEntryList) fuse.Status {
	logger := util.GetLogger("Fuse.ReadDirPlus")
	logger.Trace().Uint64("nodeID", input.NodeId).Uint64("offset", input.Offset).Msg("ReadDirPlus called")

	id := r.toEngine(input.NodeId)
	if st := r.checkDir(id); !st.Ok() {
		return st
	}
	r.readDir(id, input.Offset, func(e nifs.DirEntry, de fuse.DirEntry) bool {
		entryOut := out.AddDirLookupEntry(de)
		if entryOut == nil {
			return false
		}
		if e.Name == "." || e.Name == ".." {
			*entryOut = fuse.EntryOut{}
			return true
		}
		if info, err := r.fs.Stat(e.ID); err == nil {
			r.fillEntry(info, entryOut)
		} else {
			// removed since it was listed
			*entryOut = fuse.EntryOut{}
		}
		return true
	})
	return fuse.OK
}

func (r *FuseRaw) ReleaseDir(input *fuse.ReleaseIn) {
	logger := util.GetLogger("Fuse.ReleaseDir")
	logger.Trace().Uint64("nodeID", input.NodeId).Uint64("fh", input.Fh).Msg("ReleaseDir called")

	r.handles.Release(input.Fh)
}

func (r *FuseRaw) FsyncDir(cancel <-chan struct{}, input *fuse.FsyncIn) fuse.Status {
	return fuse.OK
}

// readDir walks the listing of dirID from cursor, handing each entry to add
// until the listing ends or add reports a full buffer
func (r *FuseRaw) readDir(dirID uint64, cursor uint64, add func(nifs.DirEntry, fuse.DirEntry) bool) {
	for {
		entry, next := r.fs.List(dirID, cursor)
		if entry == nil {
			return
		}
		de := fuse.DirEntry{
			Name: entry.Name,
			Ino:  r.toKernel(entry.ID),
			Mode: r.modeFor(entry.Kind),
			Off:  next,
		}
		if !add(*entry, de) {
			return
		}
		cursor = next
	}
}

// checkDir reports ENOENT for unknown ids and ENOTDIR for files
func (r *FuseRaw) checkDir(id uint64) fuse.Status {
	info, err := r.fs.Stat(id)
	if err != nil {
		return ToStatus(err)
	}
	if info.Kind != nifs.DirKind {
		return fuse.Status(syscall.ENOTDIR)
	}
	return fuse.OK
}
