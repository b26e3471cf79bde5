// Package nifs contains core domain types and interfaces for the NIFS in-memory filesystem
package nifs

// NodeKind distinguishes directories from regular files
type NodeKind uint8

const (
	DirKind NodeKind = iota + 1
	FileKind
)

func (k NodeKind) String() string {
	switch k {
	case DirKind:
		return "dir"
	case FileKind:
		return "file"
	default:
		return "unknown"
	}
}

// NodeInfo is a point-in-time snapshot of a registered node
type NodeInfo struct {
	ID       uint64
	ParentID uint64 // Equal to ID for the root
	Name     string // Empty only for the root
	Kind     NodeKind
	Size     int64 // Logical content length; always 0 for directories
}

// ResolutionKind is the outcome of resolving a single path component
type ResolutionKind uint8

const (
	NotFound ResolutionKind = iota
	Self
	Parent
	Directory
	File
)

func (k ResolutionKind) String() string {
	switch k {
	case Self:
		return "self"
	case Parent:
		return "parent"
	case Directory:
		return "directory"
	case File:
		return "file"
	default:
		return "not_found"
	}
}

// Resolution is returned by [Provider.Resolve]. ID is the resolved node for every
// kind except NotFound; Self and Parent always resolve to directories.
type Resolution struct {
	Kind ResolutionKind
	ID   uint64
}

// Found reports whether the resolution names an existing node
func (r Resolution) Found() bool {
	return r.Kind != NotFound
}

// IsDir reports whether the resolved node is a directory
func (r Resolution) IsDir() bool {
	return r.Kind == Self || r.Kind == Parent || r.Kind == Directory
}

// DirEntry is a single step of a directory listing
type DirEntry struct {
	Name string
	ID   uint64
	Kind NodeKind
}

// Provider is the engine surface consumed by the host integration layer.
// Identifiers are only meaningful within one mount's lifetime.
type Provider interface {
	// Mount creates the root directory and returns its id
	Mount() uint64
	// Unmount discards every node and content buffer and resets id allocation
	Unmount()

	// Resolve looks up a single path component under parentID.
	// "." and ".." are handled synthetically.
	Resolve(parentID uint64, name string) Resolution

	// List returns the entry at cursor and the cursor of the next entry.
	// A nil entry marks the end of the listing.
	List(dirID uint64, cursor uint64) (*DirEntry, uint64)

	CreateFile(parentID uint64, name string) (uint64, error)
	RemoveFile(parentID uint64, name string) error
	MakeDirectory(parentID uint64, name string) (uint64, error)
	RemoveDirectory(parentID uint64, name string) error

	// Read returns at most length bytes starting at offset; reading at or
	// past the end returns no bytes and no error
	Read(fileID uint64, offset int64, length int) ([]byte, error)

	// Write copies data at offset, growing and zero-filling the file as needed.
	// When appendMode is set the offset argument is ignored and data lands at the end.
	Write(fileID uint64, offset int64, data []byte, appendMode bool) (int, error)

	// Stat returns a snapshot of a file or directory
	Stat(id uint64) (NodeInfo, error)

	// Truncate sets a file's logical size, zero-filling on growth
	Truncate(fileID uint64, size int64) error
}
