package filesystem

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/brettbedarf/nifs"
)

// nodeRef is a name table entry; exactly one field is set
type nodeRef struct {
	dir  *DirNode
	file *FileNode
}

// DirNode is a directory in the tree. Subdirectories and files are kept in
// insertion order for enumeration, with byName indexing both for resolution.
//
// INVARIANT: every name in byName appears exactly once in subdirs or files and vice versa.
// INVARIANT: parentID is a lookup reference only; the parent's slices own this node.
type DirNode struct {
	id       uint64 // Immutable
	name     string // Immutable; empty only for the root
	parentID uint64 // Immutable; equal to id for the root

	mu      sync.RWMutex // Protects the fields below
	subdirs []*DirNode
	files   []*FileNode
	byName  map[string]nodeRef
	removed atomic.Bool
}

func newDirNode(id uint64, name string, parentID uint64) *DirNode {
	return &DirNode{
		id:       id,
		name:     name,
		parentID: parentID,
		byName:   make(map[string]nodeRef),
	}
}

func (d *DirNode) ID() uint64 {
	return d.id
}

func (d *DirNode) Name() string {
	return d.name
}

func (d *DirNode) ParentID() uint64 {
	return d.parentID
}

func (d *DirNode) IsRoot() bool {
	return d.parentID == d.id
}

// IsRemoved reports whether the directory has been unlinked from the tree
func (d *DirNode) IsRemoved() bool {
	return d.removed.Load()
}

// Len returns the number of subdirectories and files
func (d *DirNode) Len() (subdirs int, files int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subdirs), len(d.files)
}

// Caller must hold d.mu
func (d *DirNode) lookupLocked(name string) (nodeRef, bool) {
	ref, ok := d.byName[name]
	return ref, ok
}

// Caller must hold d.mu
func (d *DirNode) isEmptyLocked() bool {
	return len(d.subdirs) == 0 && len(d.files) == 0
}

// Caller must hold d.mu.Lock()
func (d *DirNode) addDirLocked(child *DirNode) {
	d.subdirs = append(d.subdirs, child)
	d.byName[child.name] = nodeRef{dir: child}
}

// Caller must hold d.mu.Lock()
func (d *DirNode) addFileLocked(child *FileNode) {
	d.files = append(d.files, child)
	d.byName[child.name] = nodeRef{file: child}
}

// Caller must hold d.mu.Lock()
func (d *DirNode) removeDirLocked(child *DirNode) {
	if i := slices.Index(d.subdirs, child); i >= 0 {
		d.subdirs = slices.Delete(d.subdirs, i, i+1)
	}
	delete(d.byName, child.name)
}

// Caller must hold d.mu.Lock()
func (d *DirNode) removeFileLocked(child *FileNode) {
	if i := slices.Index(d.files, child); i >= 0 {
		d.files = slices.Delete(d.files, i, i+1)
	}
	delete(d.byName, child.name)
}

// Caller must hold d.mu
func (d *DirNode) infoLocked() nifs.NodeInfo {
	return nifs.NodeInfo{ID: d.id, ParentID: d.parentID, Name: d.name, Kind: nifs.DirKind}
}

// FileNode is a regular file owning exactly one ContentBuffer
type FileNode struct {
	id       uint64
	name     string
	parentID uint64

	mu      sync.RWMutex // Protects content
	content *ContentBuffer
	removed atomic.Bool
}

func newFileNode(id uint64, name string, parentID uint64, content *ContentBuffer) *FileNode {
	return &FileNode{
		id:       id,
		name:     name,
		parentID: parentID,
		content:  content,
	}
}

func (f *FileNode) ID() uint64 {
	return f.id
}

func (f *FileNode) Name() string {
	return f.name
}

func (f *FileNode) ParentID() uint64 {
	return f.parentID
}

func (f *FileNode) IsRemoved() bool {
	return f.removed.Load()
}

// Size returns the file's current logical length (thread-safe)
func (f *FileNode) Size() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.content.Size()
}

// Caller must hold f.mu
func (f *FileNode) infoLocked() nifs.NodeInfo {
	return nifs.NodeInfo{
		ID:       f.id,
		ParentID: f.parentID,
		Name:     f.name,
		Kind:     nifs.FileKind,
		Size:     f.content.Size(),
	}
}

// release marks the file removed and frees its content.
// Caller must hold f.mu.Lock(); returns freed bytes
func (f *FileNode) releaseLocked() int64 {
	f.removed.Store(true)
	return f.content.Release()
}
