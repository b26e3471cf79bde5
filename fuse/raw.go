package fuse

import (
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/config"
	"github.com/brettbedarf/nifs/internal/util"
)

// FuseRaw implements the low-level FUSE wire protocol
// It serves as protocol adapter between the FUSE and core filesystem
// See https://www.man7.org/linux//man-pages/man4/fuse.4.html
//
// Kernel node ids equal engine ids except for the root: the kernel always
// addresses it as FUSE_ROOT_ID while the engine uses its configured root id.
type FuseRaw struct {
	fuse.RawFileSystem
	fs      nifs.Provider
	cfg     *config.Config
	rootID  uint64
	handles *HandleTable
	server  *fuse.Server

	mountTime    time.Time
	attrTimeout  time.Duration
	entryTimeout time.Duration
}

// NewFuseRaw wraps a mounted provider whose root directory is rootID
func NewFuseRaw(fs nifs.Provider, rootID uint64, cfg *config.Config) *FuseRaw {
	return &FuseRaw{
		RawFileSystem: fuse.NewDefaultRawFileSystem(),
		fs:            fs,
		cfg:           cfg,
		rootID:        rootID,
		handles:       NewHandleTable(cfg.MaxFH),
		mountTime:     time.Now(),
		attrTimeout:   seconds(cfg.AttrTimeout),
		entryTimeout:  seconds(cfg.EntryTimeout),
	}
}

func (r *FuseRaw) Init(s *fuse.Server) {
	logger := util.GetLogger("Fuse.Init")
	logger.Debug().Uint64("rootID", r.rootID).Msg("FUSE initialized")
	r.server = s
}

func (r *FuseRaw) OnUnmount() {
	logger := util.GetLogger("Fuse.OnUnmount")
	logger.Info().Int("openHandles", r.handles.Len()).Msg("FUSE unmounted")
}

func (r *FuseRaw) String() string {
	return "FuseRaw"
}

// Handles exposes the open handle table
func (r *FuseRaw) Handles() *HandleTable {
	return r.handles
}

// toEngine converts a kernel node id to an engine id
func (r *FuseRaw) toEngine(nodeID uint64) uint64 {
	if nodeID == fuse.FUSE_ROOT_ID {
		return r.rootID
	}
	return nodeID
}

// toKernel converts an engine id to a kernel node id
func (r *FuseRaw) toKernel(id uint64) uint64 {
	if id == r.rootID {
		return fuse.FUSE_ROOT_ID
	}
	return id
}

// checkWritable enforces the read-only mount policy
func (r *FuseRaw) checkWritable() fuse.Status {
	if r.cfg.ReadOnly {
		return ToStatus(nifs.ErrPermissionDenied)
	}
	return fuse.OK
}

// openFlags returns the FOPEN_* flags for new file handles
func (r *FuseRaw) openFlags() uint32 {
	if r.cfg.DirectIO {
		return fuse.FOPEN_DIRECT_IO
	}
	return 0
}
