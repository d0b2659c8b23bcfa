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


// Package matching links free-text transaction descriptions to known users.
//
// Matching runs in two stages. An Extractor applies an ordered list of
// declarative Rules to a description and proposes candidate name strings,
// including comma inverted forms and splits of run-together names. A
// Scorer then compares each candidate against every user name and produces
// a score in [0, 100] from three parts:
//
//   - overall token-set and token-sort similarity of the whole strings
//   - per name part similarity, weighted for first, middle and last names
//   - coverage, the share of the user's name parts that matched
//
// The tuned constants live in Weights and can be replaced with WithWeights.
//
// UserMatcher ties the two together. It precomputes normalized names once
// and afterwards holds no mutable state, so a single instance can serve
// concurrent requests.
package matching
