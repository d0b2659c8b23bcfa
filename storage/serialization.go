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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/poiesic/payermatch/core"
	"github.com/shopspring/decimal"
)

// MarshalUser serializes a User to bytes.
func MarshalUser(user *core.User) []byte {
	buf := make([]byte, ord.String.Size(user.ID)+ord.String.Size(user.Name))
	n := ord.String.Marshal(user.ID, buf)
	ord.String.Marshal(user.Name, buf[n:])
	return buf
}

// UnmarshalUser deserializes a User from bytes.
func UnmarshalUser(data []byte) (*core.User, error) {
	id, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: user id: %w", ErrSerializationFailed, err)
	}
	name, _, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: user name: %w", ErrSerializationFailed, err)
	}
	return &core.User{ID: id, Name: name}, nil
}

// MarshalTransaction serializes a Transaction to bytes. The amount is
// stored as its exact decimal string.
func MarshalTransaction(txn *core.Transaction) []byte {
	var amount string
	if txn.Amount.Valid {
		amount = txn.Amount.Decimal.String()
	}

	size := ord.String.Size(txn.ID) +
		ord.String.Size(txn.Description) +
		ord.Bool.Size(txn.Amount.Valid) +
		ord.String.Size(amount)
	buf := make([]byte, size)

	n := ord.String.Marshal(txn.ID, buf)
	n += ord.String.Marshal(txn.Description, buf[n:])
	n += ord.Bool.Marshal(txn.Amount.Valid, buf[n:])
	ord.String.Marshal(amount, buf[n:])
	return buf
}

// UnmarshalTransaction deserializes a Transaction from bytes.
func UnmarshalTransaction(data []byte) (*core.Transaction, error) {
	var (
		txn core.Transaction
		off int
	)

	id, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction id: %w", ErrSerializationFailed, err)
	}
	txn.ID = id
	off += n

	desc, n, err := ord.String.Unmarshal(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%w: transaction description: %w", ErrSerializationFailed, err)
	}
	txn.Description = desc
	off += n

	valid, n, err := ord.Bool.Unmarshal(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%w: transaction amount flag: %w", ErrSerializationFailed, err)
	}
	off += n

	amount, _, err := ord.String.Unmarshal(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%w: transaction amount: %w", ErrSerializationFailed, err)
	}
	if valid {
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction amount %q: %w", ErrSerializationFailed, amount, err)
		}
		txn.Amount = decimal.NewNullDecimal(d)
	}

	return &txn, nil
}
