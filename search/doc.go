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


// Package search provides semantic retrieval over the indexed corpus.
//
// The Searcher embeds the query with the same model as the indexed nodes,
// runs a top-k similarity search against the vector store, and hydrates the
// hits into full nodes from the document store, ranked by descending score.
//
// The ContextBuilder assembles retrieved nodes into a prompt context bounded
// by a token budget, and trims conversation history the same way, counting
// tokens with the cl100k_base tiktoken encoding.
package search
