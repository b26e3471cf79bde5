package nifs

// NodeRequest has common fields embedded in concrete request types
type NodeRequest struct {
	Path string // Slash separated and relative to the root; a leading "/" is ignored
	Type NodeCreateRequestType
	UUID string // Identifies the request in logs
}

// NodeCreateRequestType valid types are FileNodeType "file", DirNodeType "dir"
type NodeCreateRequestType string

const (
	FileNodeType NodeCreateRequestType = "file"
	DirNodeType  NodeCreateRequestType = "dir"
)

// FileCreateRequest seeds a file. Sources are tried in priority order until one
// delivers the content; a request without sources creates an empty file.
type FileCreateRequest struct {
	NodeRequest
	Sources []FileSource `json:"sources"`
}

// DirCreateRequest seeds a directory and any missing ancestors
type DirCreateRequest struct {
	NodeRequest
}
