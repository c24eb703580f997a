// Package domain defines the core entities of the repository Q&A engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Bytes read from a repository source
//   - Document: A classified, normalised repository file
//   - Chunk: A bounded slice of a document, the unit of indexing
//   - RetrievalResult: Ranked chunks for one query
//   - Conversation: The append-only log of a chat session
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
