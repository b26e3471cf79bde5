package fuse

import (
	"os"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/nifs"
)

const (
	dirPerm      = 0o755
	filePerm     = 0o644
	writeBits    = 0o222
	blockSize    = 4096
	maxNameLen   = 255
	sectorSize   = 512
	reportedFree = 1 << 30 // free blocks and inodes reported by statfs; memory is the real limit
)

// newDefaultAttr returns the attributes shared by every node
// NOTE: Make sure to set the Mode field appropriately
func newDefaultAttr(ino uint64, ts time.Time) fuse.Attr {
	return fuse.Attr{
		Ino:   ino,
		Nlink: 1,
		Owner: fuse.Owner{
			Uid: uint32(os.Getuid()),
			Gid: uint32(os.Getgid()),
		},
		Atime:     uint64(ts.Unix()),
		Mtime:     uint64(ts.Unix()),
		Ctime:     uint64(ts.Unix()),
		Atimensec: uint32(ts.Nanosecond()),
		Mtimensec: uint32(ts.Nanosecond()),
		Ctimensec: uint32(ts.Nanosecond()),
		Blksize:   blockSize, // preferred size for fs ops
	}
}

// modeFor returns the file type and permission bits for a node kind
func (r *FuseRaw) modeFor(kind nifs.NodeKind) uint32 {
	var mode uint32
	switch kind {
	case nifs.DirKind:
		mode = syscall.S_IFDIR | dirPerm
	default:
		mode = syscall.S_IFREG | filePerm
	}
	if r.cfg.ReadOnly {
		mode &^= writeBits
	}
	return mode
}

func (r *FuseRaw) fillAttr(info nifs.NodeInfo, out *fuse.Attr) {
	*out = newDefaultAttr(r.toKernel(info.ID), r.mountTime)
	out.Mode = r.modeFor(info.Kind)
	if info.Kind == nifs.DirKind {
		out.Nlink = 2
		return
	}
	out.Size = uint64(info.Size)
	out.Blocks = (out.Size + sectorSize - 1) / sectorSize
}

func (r *FuseRaw) fillEntry(info nifs.NodeInfo, out *fuse.EntryOut) {
	out.NodeId = r.toKernel(info.ID)
	out.Generation = 0
	r.fillAttr(info, &out.Attr)
	out.SetEntryTimeout(r.entryTimeout)
	out.SetAttrTimeout(r.attrTimeout)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
