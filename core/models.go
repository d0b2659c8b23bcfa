package core

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
	"github.com/shopspring/decimal"
)

// preprocessedSuffix distinguishes cache keys for preprocessed text from raw text.
const preprocessedSuffix = "__preprocess"

// ContentKey returns the embedding cache key for text. Keys for the same text
// differ depending on whether the text is preprocessed before embedding.
func ContentKey(text string, preprocessed bool) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(text))
	if preprocessed {
		h.Write([]byte(preprocessedSuffix))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// User is a known account holder that transactions may originate from.
type User struct {
	ID   string
	Name string // May be empty when the source data had no usable name
}

// Transaction is a single financial transaction loaded from source data.
type Transaction struct {
	ID          string
	Description string
	Amount      decimal.NullDecimal // Invalid when the source amount was missing or malformed
}

// AmountFloat returns the transaction amount as a float64 and whether it is present.
func (t *Transaction) AmountFloat() (float64, bool) {
	if !t.Amount.Valid {
		return 0, false
	}
	f, _ := t.Amount.Decimal.Float64()
	return f, true
}

// UserMatch is a user that plausibly originated a transaction.
type UserMatch struct {
	ID    string
	Score float64 // 0-100, rounded to one decimal place
	Name  string
}

// SimilarTransaction is a transaction returned by semantic search.
type SimilarTransaction struct {
	ID         string
	Similarity float64 // Cosine similarity rounded to four decimal places

	// Description and Amount are only populated when HasDetails is true.
	HasDetails  bool
	Description string
	Amount      decimal.NullDecimal
}
