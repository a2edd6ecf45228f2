// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for corpus.
//
// The index is spread across three independently addressable stores, each
// behind its own interface:
//
//   - DocumentStore: indexed nodes keyed by node ID, with source lookups
//   - VectorStore: embeddings keyed by node ID, with top-k similarity search
//   - IndexStore: the single manifest record identifying the active index
//
// The pairing invariant between DocumentStore and VectorStore (every node ID
// present in one must be present in the other) is NOT enforced here; the
// index.Manager is the sole writer and owns that invariant, including the
// reconciliation pass at bootstrap.
//
// # Implementations
//
//   - storage/badger: all three stores on a shared BadgerDB backend
//   - storage/qdrant: VectorStore backed by a remote Qdrant collection
//
// Public constructors return interface types so backends can be swapped
// without touching consumers; in-memory variants for tests come from
// badger.NewMemoryStores.
//
// # Thread Safety
//
// All store implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All store methods accept context.Context for cancellation and timeout
// support.
package storage
