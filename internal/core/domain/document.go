package domain

// DocumentKind tags the kind of repository file a Document was loaded from.
type DocumentKind string

// Supported document kinds.
const (
	// KindCode is a source code file.
	KindCode DocumentKind = "code"

	// KindText is prose or configuration (markdown, yaml, ini...).
	KindText DocumentKind = "text"

	// KindNotebook is a Jupyter notebook.
	KindNotebook DocumentKind = "notebook"
)

// IsValid returns true if the kind is recognised.
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindCode, KindText, KindNotebook:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k DocumentKind) String() string {
	return string(k)
}

// AllDocumentKinds returns every kind in display order.
func AllDocumentKinds() []DocumentKind {
	return []DocumentKind{KindCode, KindText, KindNotebook}
}

// CellType identifies a notebook cell type.
type CellType string

// Notebook cell types kept by the loader. Raw cells and outputs are dropped.
const (
	CellCode     CellType = "code"
	CellMarkdown CellType = "markdown"
)

// NotebookCell is the textual content of one notebook cell.
type NotebookCell struct {
	Type   CellType
	Source string
}

// Document is one ingested repository file.
// It is the canonical representation after normalisation and is never
// modified once created.
type Document struct {
	// ID is derived from Path, so reloading the same repository yields the same IDs.
	ID string

	// Path is the slash-separated path relative to the repository root.
	Path string

	// Kind is the file-type tag.
	Kind DocumentKind

	// Text is the full text handed to the chunker.
	// For notebooks it is the cell sources joined with boundary markers.
	Text string

	// Cells holds the structured notebook cells. Nil for other kinds.
	Cells []NotebookCell

	// Size is the size of the raw file in bytes.
	Size int64
}

// Chunk is a bounded slice of a Document's text and the unit of indexing.
type Chunk struct {
	// ID is derived from DocumentID and Position.
	ID string

	// DocumentID links back to the parent Document.
	DocumentID string

	// Path is the parent document path, kept for display and citation.
	Path string

	// Position is the ordinal position within the document.
	Position int

	// Ordinal is the position across the whole corpus and the tie-break key
	// for every ranking.
	Ordinal int

	// Start and End are byte offsets into the document text.
	Start int
	End   int

	// Content is Text[Start:End].
	Content string
}

// Len returns the chunk length in bytes.
func (c Chunk) Len() int {
	return c.End - c.Start
}
