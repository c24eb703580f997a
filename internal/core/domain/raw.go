package domain

// RawDocument represents opaque bytes read by a repository source.
// It is the source's output before classification and normalisation.
type RawDocument struct {
	// Path is the slash-separated path relative to the repository root.
	Path string

	// Kind is the classification assigned by the loader. Empty until classified.
	Kind DocumentKind

	// MIMEType is the sniffed or extension-derived content type.
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Size is the file size reported by the source.
	Size int64
}

// ChangeType represents the type of file change seen by a watcher.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed file.
	ChangeDeleted
)

// String returns the string representation.
func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RawDocumentChange is a change event emitted by a watching source.
type RawDocumentChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the affected path relative to the repository root.
	Path string
}
