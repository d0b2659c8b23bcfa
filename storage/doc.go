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


// Package storage provides the storage abstraction layer for payermatch.
//
// This package defines repository interfaces that decouple the user and
// transaction tables from the matching and search engines. The badger
// subpackage implements them on BadgerDB, in memory by default.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return the concrete
// repository types, which satisfy the interfaces declared here. Consumers
// should depend on the interfaces:
//
//	users, txns, backend, err := badger.NewMemoryRepositories()
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	users := badger.NewUserRepository(backend)
//	u, err := users.GetUser(ctx, "user1")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // unknown user
//	}
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context. Long scans stop when the
// context is cancelled.
package storage
