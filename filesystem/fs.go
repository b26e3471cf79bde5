package filesystem

import (
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/config"
	"github.com/brettbedarf/nifs/internal/util"
)

var _ nifs.Provider = (*FileSystem)(nil)

// FileSystem is the in-memory node registry. It is the single owner of every
// directory, file, and content buffer reachable from the root.
//
// Locking: mu is held exclusively by Mount/Unmount and shared by every other
// operation. Directory and file locks are always taken parent before child.
type FileSystem struct {
	cfg   *config.Config
	alloc *InodeAllocator

	mu        sync.RWMutex // Lifecycle lock; protects the fields below
	mounted   bool
	root      *DirNode
	session   string    // Id of the current mount used to tag logs
	mountTime time.Time // Reported as every node's timestamps

	dirs  *xsync.Map[uint64, *DirNode]  // id -> directory; back references only
	files *xsync.Map[uint64, *FileNode] // id -> file; back references only
}

// NewFS returns an unmounted FileSystem. Call Mount before any other operation.
func NewFS(cfg *config.Config) *FileSystem {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &FileSystem{
		cfg:   cfg,
		alloc: NewInodeAllocator(cfg.RootID),
		dirs:  xsync.NewMap[uint64, *DirNode](),
		files: xsync.NewMap[uint64, *FileNode](),
	}
}

// FindDirectory returns the registered directory with the given id
func (fs *FileSystem) FindDirectory(id uint64) (*DirNode, bool) {
	ctx, ok := fs.lockShared()
	if !ok {
		return nil, false
	}
	defer ctx.Close()

	dir, ok := fs.dirs.Load(id)
	if !ok || dir.IsRemoved() {
		return nil, false
	}
	return dir, true
}

// FindFile returns the registered file with the given id
func (fs *FileSystem) FindFile(id uint64) (*FileNode, bool) {
	ctx, ok := fs.lockShared()
	if !ok {
		return nil, false
	}
	defer ctx.Close()

	file, ok := fs.files.Load(id)
	if !ok || file.IsRemoved() {
		return nil, false
	}
	return file, true
}

// CreateFile adds an empty file named name under parentID and returns its id
func (fs *FileSystem) CreateFile(parentID uint64, name string) (uint64, error) {
	logger := util.GetLogger("FS.CreateFile")
	logger.Trace().Uint64("parentID", parentID).Str("name", name).Msg("CreateFile called")

	ctx := fs.lockDir(parentID, true)
	if ctx == nil {
		return 0, nifs.NewOpError("create", parentID, name, nifs.ErrNotFound)
	}
	defer ctx.Close()
	parent := ctx.Dir()

	if err := checkNewName(parent, name); err != nil {
		return 0, nifs.NewOpError("create", parentID, name, err)
	}

	id := fs.alloc.Allocate()
	file := newFileNode(id, name, parentID, NewContentBuffer(fs.cfg.GrowthPolicy, fs.cfg.MaxFileSize))
	parent.addFileLocked(file)
	fs.files.Store(id, file)

	logger.Debug().Uint64("parentID", parentID).Str("name", name).Uint64("id", id).Msg("Created file")
	return id, nil
}

// MakeDirectory adds an empty directory named name under parentID and returns its id
func (fs *FileSystem) MakeDirectory(parentID uint64, name string) (uint64, error) {
	logger := util.GetLogger("FS.MakeDirectory")
	logger.Trace().Uint64("parentID", parentID).Str("name", name).Msg("MakeDirectory called")

	ctx := fs.lockDir(parentID, true)
	if ctx == nil {
		return 0, nifs.NewOpError("mkdir", parentID, name, nifs.ErrNotFound)
	}
	defer ctx.Close()
	parent := ctx.Dir()

	if err := checkNewName(parent, name); err != nil {
		return 0, nifs.NewOpError("mkdir", parentID, name, err)
	}

	id := fs.alloc.Allocate()
	dir := newDirNode(id, name, parentID)
	parent.addDirLocked(dir)
	fs.dirs.Store(id, dir)

	logger.Debug().Uint64("parentID", parentID).Str("name", name).Uint64("id", id).Msg("Created directory")
	return id, nil
}

// RemoveFile unlinks the named file and frees its content
func (fs *FileSystem) RemoveFile(parentID uint64, name string) error {
	logger := util.GetLogger("FS.RemoveFile")
	logger.Trace().Uint64("parentID", parentID).Str("name", name).Msg("RemoveFile called")

	ctx := fs.lockDir(parentID, true)
	if ctx == nil {
		return nifs.NewOpError("unlink", parentID, name, nifs.ErrNotFound)
	}
	defer ctx.Close()
	parent := ctx.Dir()

	if err := checkExistingName(name); err != nil {
		return nifs.NewOpError("unlink", parentID, name, err)
	}
	ref, ok := parent.lookupLocked(name)
	if !ok || ref.file == nil {
		return nifs.NewOpError("unlink", parentID, name, nifs.ErrNotFound)
	}

	file := ref.file
	file.mu.Lock()
	freed := file.releaseLocked()
	file.mu.Unlock()

	parent.removeFileLocked(file)
	fs.files.Delete(file.id)

	logger.Debug().Uint64("parentID", parentID).Str("name", name).Uint64("id", file.id).
		Str("freed", humanize.IBytes(uint64(freed))).Msg("Removed file")
	return nil
}

// RemoveDirectory unlinks the named directory; it must have no children
func (fs *FileSystem) RemoveDirectory(parentID uint64, name string) error {
	logger := util.GetLogger("FS.RemoveDirectory")
	logger.Trace().Uint64("parentID", parentID).Str("name", name).Msg("RemoveDirectory called")

	ctx := fs.lockDir(parentID, true)
	if ctx == nil {
		return nifs.NewOpError("rmdir", parentID, name, nifs.ErrNotFound)
	}
	defer ctx.Close()
	parent := ctx.Dir()

	if err := checkExistingName(name); err != nil {
		return nifs.NewOpError("rmdir", parentID, name, err)
	}
	ref, ok := parent.lookupLocked(name)
	if !ok || ref.dir == nil {
		return nifs.NewOpError("rmdir", parentID, name, nifs.ErrNotFound)
	}

	dir := ref.dir
	dir.mu.Lock()
	defer dir.mu.Unlock()
	if !dir.isEmptyLocked() {
		logger.Debug().Uint64("parentID", parentID).Str("name", name).Msg("Directory not empty")
		return nifs.NewOpError("rmdir", parentID, name, nifs.ErrNotEmpty)
	}
	dir.removed.Store(true)

	parent.removeDirLocked(dir)
	fs.dirs.Delete(dir.id)

	logger.Debug().Uint64("parentID", parentID).Str("name", name).Uint64("id", dir.id).Msg("Removed directory")
	return nil
}

// Stat returns a snapshot of the file or directory with the given id
func (fs *FileSystem) Stat(id uint64) (nifs.NodeInfo, error) {
	if ctx := fs.lockDir(id, false); ctx != nil {
		defer ctx.Close()
		return ctx.Info(), nil
	}
	if ctx := fs.lockFile(id, false); ctx != nil {
		defer ctx.Close()
		return ctx.Info(), nil
	}
	return nifs.NodeInfo{}, nifs.NewOpError("stat", id, "", nifs.ErrNotFound)
}

// NodeCount returns the number of registered directories (root included) and files
func (fs *FileSystem) NodeCount() (dirs int, files int) {
	return fs.dirs.Size(), fs.files.Size()
}

// checkNewName validates a name for creation under parent.
// Caller must hold parent.mu
func checkNewName(parent *DirNode, name string) error {
	if name == "." || name == ".." {
		return nifs.ErrAlreadyExists
	}
	if err := checkName(name); err != nil {
		return err
	}
	if _, exists := parent.lookupLocked(name); exists {
		return nifs.ErrAlreadyExists
	}
	return nil
}

// checkExistingName rejects names that can never be removed
func checkExistingName(name string) error {
	if name == "." || name == ".." {
		return nifs.ErrInvalid
	}
	return checkName(name)
}

// checkName rejects names that cannot be a single path component
func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\x00") {
		return nifs.ErrInvalid
	}
	return nil
}
