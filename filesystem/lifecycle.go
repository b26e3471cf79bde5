package filesystem

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/brettbedarf/nifs/internal/util"
)

// Mount resets id allocation, registers a fresh root directory at the
// configured root id and returns it. Mounting an already mounted tree keeps
// the existing tree and returns its root id.
func (fs *FileSystem) Mount() uint64 {
	logger := util.GetLogger("FS.Mount")

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.mounted {
		logger.Warn().Str("session", fs.session).Msg("Already mounted")
		return fs.root.id
	}

	fs.alloc.Reset()
	rootID := fs.alloc.Seed()
	fs.root = newDirNode(rootID, "", rootID)
	fs.dirs.Store(rootID, fs.root)
	fs.session = uuid.NewString()
	fs.mountTime = time.Now()
	fs.mounted = true

	logger.Info().Str("session", fs.session).Uint64("rootID", rootID).Msg("Mounted")
	return rootID
}

// Unmount frees every file, content buffer and directory reachable from the
// root and resets id allocation. Safe to call when nothing is mounted.
func (fs *FileSystem) Unmount() {
	logger := util.GetLogger("FS.Unmount")

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.mounted {
		fs.alloc.Reset()
		logger.Debug().Msg("Nothing mounted")
		return
	}

	var stats teardownStats
	fs.teardown(fs.root, &stats)
	// anything left is unreachable from the root; drop it anyway
	fs.dirs.Clear()
	fs.files.Clear()
	fs.alloc.Reset()

	logger.Info().
		Str("session", fs.session).
		Int("dirs", stats.dirs).
		Int("files", stats.files).
		Str("freed", humanize.IBytes(uint64(stats.freed))).
		Msg("Unmounted")

	fs.root = nil
	fs.session = ""
	fs.mounted = false
}

type teardownStats struct {
	dirs  int
	files int
	freed int64
}

// teardown frees dir's subtree depth first and then dir itself. Node locks
// are taken parent before child so holders of a *DirNode or *FileNode from
// FindDirectory or FindFile never observe a half freed node.
// Caller must hold fs.mu.Lock().
func (fs *FileSystem) teardown(dir *DirNode, stats *teardownStats) {
	dir.mu.Lock()
	defer dir.mu.Unlock()

	for _, sub := range dir.subdirs {
		fs.teardown(sub, stats)
	}
	for _, f := range dir.files {
		f.mu.Lock()
		stats.freed += f.releaseLocked()
		f.mu.Unlock()
		stats.files++
		fs.files.Delete(f.id)
	}
	dir.subdirs = nil
	dir.files = nil
	clear(dir.byName)
	dir.removed.Store(true)
	fs.dirs.Delete(dir.id)
	stats.dirs++
}

// Mounted reports whether a tree is currently mounted
func (fs *FileSystem) Mounted() bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.mounted
}

// RootID returns the configured root id, valid while mounted
func (fs *FileSystem) RootID() uint64 {
	return fs.alloc.Seed()
}

// Session returns the current mount's id; empty when unmounted
func (fs *FileSystem) Session() string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.session
}

// MountTime returns when the current tree was mounted
func (fs *FileSystem) MountTime() time.Time {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.mountTime
}
