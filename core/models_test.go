package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestContentKey(t *testing.T) {
	raw := ContentKey("Payment from Emma Brown", false)
	pre := ContentKey("Payment from Emma Brown", true)

	if raw == pre {
		t.Errorf("ContentKey() should differ by preprocessing flag")
	}
	if raw != ContentKey("Payment from Emma Brown", false) {
		t.Errorf("ContentKey() is not deterministic")
	}
	if len(raw) != 32 {
		t.Errorf("ContentKey() length = %d, want 32 hex chars", len(raw))
	}
	if ContentKey("a", false) == ContentKey("b", false) {
		t.Errorf("ContentKey() collided for different text")
	}
}

func TestTransaction_AmountFloat(t *testing.T) {
	tests := []struct {
		name    string
		amount  decimal.NullDecimal
		want    float64
		wantSet bool
	}{
		{
			name:    "present",
			amount:  decimal.NewNullDecimal(decimal.RequireFromString("125.50")),
			want:    125.5,
			wantSet: true,
		},
		{
			name:    "missing",
			amount:  decimal.NullDecimal{},
			want:    0,
			wantSet: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := Transaction{ID: "tx1", Amount: tt.amount}
			got, ok := txn.AmountFloat()
			if ok != tt.wantSet || got != tt.want {
				t.Errorf("AmountFloat() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantSet)
			}
		})
	}
}
