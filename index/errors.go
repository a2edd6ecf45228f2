package index

import "errors"

var (
	// ErrDocumentStoreRequired indicates a Manager was constructed without a
	// document store.
	ErrDocumentStoreRequired = errors.New("document store is required")

	// ErrVectorStoreRequired indicates a Manager was constructed without a
	// vector store.
	ErrVectorStoreRequired = errors.New("vector store is required")

	// ErrIndexStoreRequired indicates a Manager was constructed without an
	// index store.
	ErrIndexStoreRequired = errors.New("index store is required")

	// ErrMissingVector indicates a node reached the manager without an
	// embedding attached.
	ErrMissingVector = errors.New("node is missing its embedding vector")

	// ErrUnknownSource indicates the source is not present in the index.
	ErrUnknownSource = errors.New("unknown source")
)
