// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Document and chunk persistence
//   - CacheStore: Durable, content-addressed cache of built indexes
//   - IndexCache: In-process LRU of hot indexes
//   - EmbeddingService: Generates vector embeddings
//   - ConfigStore: Application configuration
//   - PostProcessor: One stage of the chunking pipeline
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Without it, documents can be ingested but questions are refused.
//   - EvidenceSource: Without any, questions without a document return not found.
//   - PromptStore: Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
