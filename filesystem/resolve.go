package filesystem

import (
	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/internal/util"
)

// Resolve looks up a single path component under parentID.
//
// "." resolves to the parent itself and ".." to the parent's parent. The root
// is its own parent so ".." at the root resolves to Self. Any other name is
// matched byte for byte against the parent's children. A missing parent is a
// NotFound resolution rather than an error.
func (fs *FileSystem) Resolve(parentID uint64, name string) nifs.Resolution {
	logger := util.GetLogger("FS.Resolve")
	logger.Trace().Uint64("parentID", parentID).Str("name", name).Msg("Resolve called")

	ctx := fs.lockDir(parentID, false)
	if ctx == nil {
		logger.Debug().Uint64("parentID", parentID).Msg("No parent directory found")
		return nifs.Resolution{Kind: nifs.NotFound}
	}
	defer ctx.Close()
	parent := ctx.Dir()

	switch name {
	case ".":
		return nifs.Resolution{Kind: nifs.Self, ID: parent.id}
	case "..":
		if pid, ok := fs.parentOf(parent); ok {
			return nifs.Resolution{Kind: nifs.Parent, ID: pid}
		}
		return nifs.Resolution{Kind: nifs.Self, ID: parent.id}
	}

	ref, ok := parent.lookupLocked(name)
	switch {
	case !ok:
		return nifs.Resolution{Kind: nifs.NotFound}
	case ref.dir != nil:
		return nifs.Resolution{Kind: nifs.Directory, ID: ref.dir.id}
	default:
		return nifs.Resolution{Kind: nifs.File, ID: ref.file.id}
	}
}

// parentOf returns the id of dir's parent if one is registered; false for the root
func (fs *FileSystem) parentOf(dir *DirNode) (uint64, bool) {
	if dir.IsRoot() {
		return 0, false
	}
	if _, ok := fs.dirs.Load(dir.parentID); !ok {
		return 0, false
	}
	return dir.parentID, true
}
