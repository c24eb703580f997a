// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RepositorySource: Streams repository files
//   - Normaliser / NormaliserRegistry: Turn classified files into documents
//   - PostProcessorPipeline: Splits documents into chunks
//   - LexicalIndex: BM25 keyword ranking. Always required.
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SemanticIndex / EmbeddingService: Without them retrieval is lexical only.
//   - EmbeddingStore: Persistent embedding cache.
//   - LLMService: The answering model. Without it, questions cannot be answered
//     but search still works.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
