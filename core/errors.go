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

import "errors"

// Domain validation errors
var (
	// ErrInvalidUser indicates a User failed validation.
	ErrInvalidUser = errors.New("invalid user")

	// ErrInvalidTransaction indicates a Transaction failed validation.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrEmptyID indicates the ID field is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrInvalidThreshold indicates a threshold outside its allowed range.
	ErrInvalidThreshold = errors.New("threshold out of range")
)
