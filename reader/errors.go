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


package reader

import "errors"

var (
	// ErrUnsupportedInput indicates the input's type or extension is not in
	// the allow-list of ingestible formats.
	ErrUnsupportedInput = errors.New("unsupported input")

	// ErrInputTooLarge indicates the input exceeds the configured size limit.
	ErrInputTooLarge = errors.New("input too large")

	// ErrDuplicateInput indicates an artifact with the same name has already
	// been ingested.
	ErrDuplicateInput = errors.New("duplicate input")

	// ErrExtractionFailed indicates content extraction produced no usable text.
	ErrExtractionFailed = errors.New("extraction failed")
)
