// Package ingestion implements the document processing pipeline.
//
// Processing runs in four stages: Normalize collapses whitespace and stamps
// content-derived identity, Chunker splits documents into overlapping
// sentence-aligned nodes, the embedder turns each node's metadata-inclusive
// text into a vector, and the NodeIndexer persists the finished nodes.
//
// The Pipeline ties the stages together over an ants worker pool so a batch
// of documents is processed concurrently, with per-document failure
// isolation: embedding exhaustion or an indexing error fails only the
// document it occurred in.
package ingestion
