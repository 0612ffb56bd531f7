package escrow

// ─── Settlement Arithmetic ──────────────────────────────────────────────────

// Split divides a locked amount by quality score. The payee share is
// amount*score/100 in integer arithmetic, truncated toward zero; the
// refund is the exact remainder, so payee+refund == amount for every
// input. Task amounts are capped below MaxInt64/100, so the multiply
// cannot overflow int64.
//
// Examples on amount 1000: score 100 → 1000/0, score 85 → 850/150,
// score 0 → 0/1000. On amount 999, score 50 → 499/500 (remainder
// favors the payer).
func Split(amount int64, score int) (payee, refund int64) {
	payee = amount * int64(score) / 100
	refund = amount - payee
	return payee, refund
}
