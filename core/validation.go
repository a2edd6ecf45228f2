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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Source must not be empty
//
// NOT validated (populated by later stages):
//   - Metadata (stamped by the normalizer)
//   - ID (derived from content after normalization)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyText)
	}

	if doc.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySource)
	}

	return nil
}

// ValidateNode validates a Node according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - DocId must be set
//   - Seq must be non-negative
//   - End must be greater than Start
//
// NOT validated:
//   - Vector (empty until the embedding stage runs)
func ValidateNode(node *Node) error {
	if node == nil {
		return fmt.Errorf("%w: node is nil", ErrInvalidNode)
	}

	if node.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNode, ErrEmptyText)
	}

	if node.DocId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidNode, ErrMissingParent)
	}

	if node.Seq < 0 || node.Start < 0 || node.End <= node.Start {
		return fmt.Errorf("%w: %w", ErrInvalidNode, ErrInvalidSpan)
	}

	return nil
}
