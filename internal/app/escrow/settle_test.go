package escrow

import "testing"

// ─── Split Arithmetic ───────────────────────────────────────────────────────

func TestSplit(t *testing.T) {
	tests := []struct {
		amount     int64
		score      int
		wantPayee  int64
		wantRefund int64
	}{
		{1000, 100, 1000, 0},
		{1000, 85, 850, 150},
		{1000, 70, 700, 300},
		{1000, 1, 10, 990},
		{1000, 0, 0, 1000},
		{999, 50, 499, 500}, // Truncation favors the payer
		{1, 99, 0, 1},
		{1, 100, 1, 0},
		{333, 33, 109, 224},
		{7, 43, 3, 4},
	}
	for _, tt := range tests {
		payee, refund := Split(tt.amount, tt.score)
		if payee != tt.wantPayee || refund != tt.wantRefund {
			t.Errorf("Split(%d, %d) = %d/%d, want %d/%d",
				tt.amount, tt.score, payee, refund, tt.wantPayee, tt.wantRefund)
		}
	}
}

func TestSplit_Conservation(t *testing.T) {
	// payee+refund must equal amount for every score, and both legs
	// must stay non-negative.
	amounts := []int64{1, 2, 7, 99, 100, 101, 999, 1000, 123456789}
	for _, amount := range amounts {
		for score := 0; score <= 100; score++ {
			payee, refund := Split(amount, score)
			if payee+refund != amount {
				t.Fatalf("Split(%d, %d): %d+%d != %d", amount, score, payee, refund, amount)
			}
			if payee < 0 || refund < 0 {
				t.Fatalf("Split(%d, %d): negative leg %d/%d", amount, score, payee, refund)
			}
		}
	}
}

func TestSplit_Monotonic(t *testing.T) {
	// A higher score never pays the payee less.
	const amount = 12345
	prev := int64(-1)
	for score := 0; score <= 100; score++ {
		payee, _ := Split(amount, score)
		if payee < prev {
			t.Fatalf("Split(%d, %d) = %d, less than score %d's %d", amount, score, payee, score-1, prev)
		}
		prev = payee
	}
}
