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


// Package search provides embedding-based similarity search over transaction
// descriptions.
//
// The Engine embeds a query and every described transaction, scores them by
// cosine similarity and returns those at or above a threshold, best first.
// Descriptions may first be condensed by Preprocess, which keeps the finance
// terms, counterparties and action verbs an embedding model responds to.
//
// Embeddings are cached in a bounded LRUCache keyed by content hash and
// preprocessing flag. Concurrent requests for the same key share a single
// model call.
package search
