package filesystem

import (
	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/internal/util"
)

// Listing cursor layout for a directory with S subdirectories and F files:
//
//	0            "."
//	1            ".."
//	2 .. 2+S-1   subdirectories in creation order
//	2+S .. 2+S+F-1 files in creation order
//	>= 2+S+F     end
const (
	cursorSelf   uint64 = 0
	cursorParent uint64 = 1
	cursorFirst  uint64 = 2
)

// List returns the entry at cursor and the cursor of the next entry.
// A nil entry marks the end of the listing, as does an unknown directory.
//
// Listings are a live view: each call reads the directory as it is at that
// moment, so children added or removed between calls may shift later entries.
func (fs *FileSystem) List(dirID uint64, cursor uint64) (*nifs.DirEntry, uint64) {
	logger := util.GetLogger("FS.List")
	logger.Trace().Uint64("dirID", dirID).Uint64("cursor", cursor).Msg("List called")

	ctx := fs.lockDir(dirID, false)
	if ctx == nil {
		logger.Debug().Uint64("dirID", dirID).Msg("No directory found")
		return nil, cursor
	}
	defer ctx.Close()
	dir := ctx.Dir()

	switch cursor {
	case cursorSelf:
		return &nifs.DirEntry{Name: ".", ID: dir.id, Kind: nifs.DirKind}, cursor + 1
	case cursorParent:
		id := dir.id
		if pid, ok := fs.parentOf(dir); ok {
			id = pid
		}
		return &nifs.DirEntry{Name: "..", ID: id, Kind: nifs.DirKind}, cursor + 1
	}

	i := cursor - cursorFirst
	if i < uint64(len(dir.subdirs)) {
		sub := dir.subdirs[i]
		return &nifs.DirEntry{Name: sub.name, ID: sub.id, Kind: nifs.DirKind}, cursor + 1
	}
	i -= uint64(len(dir.subdirs))
	if i < uint64(len(dir.files)) {
		f := dir.files[i]
		return &nifs.DirEntry{Name: f.name, ID: f.id, Kind: nifs.FileKind}, cursor + 1
	}
	return nil, cursor
}

// ListAll drains a listing of dirID starting at cursor 0
func (fs *FileSystem) ListAll(dirID uint64) []nifs.DirEntry {
	var entries []nifs.DirEntry
	for cursor := uint64(0); ; {
		entry, next := fs.List(dirID, cursor)
		if entry == nil {
			return entries
		}
		entries = append(entries, *entry)
		cursor = next
	}
}
