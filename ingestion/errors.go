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


package ingestion

import "errors"

var (
	// ErrIndexerRequired indicates a Pipeline was constructed without an indexer.
	ErrIndexerRequired = errors.New("indexer is required")

	// ErrEmbedderRequired indicates a Pipeline was constructed without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidChunking indicates chunk size or overlap is out of range.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidMaxAttempts indicates a retry was requested with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrDocumentFailed wraps the per-document error when one document in a
	// batch cannot be fully processed.
	ErrDocumentFailed = errors.New("document processing failed")
)
