// Package index maintains the paired document and vector stores behind a
// single Manager.
//
// The pairing invariant: every indexed node has exactly one record in the
// document store and one entry in the vector store, both under the node's
// content-derived ID. The Manager is the only writer, orders paired writes
// so crashes leave only recoverable asymmetry, and reconciles the stores on
// startup.
package index
