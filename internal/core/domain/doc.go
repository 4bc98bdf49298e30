// Package domain defines the core business entities for the context engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Uploaded text and the chunks derived from it
//   - Chunk: The unit of retrieval
//   - VectorIndex: Chunk embeddings for one document
//   - CacheEntry: The durable record of a built index
//   - VerifiedAnswer: A checked answer and the evidence behind it
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
