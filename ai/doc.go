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


// Package ai provides abstractions for the AI services used by payermatch.
//
// The package defines the interfaces the search engine depends on:
//
//   - Embedder: Generates vector embeddings from text
//   - Tokenizer: Counts the model tokens a text consumes
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return interface
// types. Mock constructors return concrete types so tests can inspect call
// counts and inject behavior.
//
// # Usage Example
//
//	provider, err := openai.NewProvider(ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "payment from john smith")
//	tokens := provider.Tokenizer().CountTokens("payment from john smith")
package ai
