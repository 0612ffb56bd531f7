package domain

import "time"

// TxType classifies a funds movement.
type TxType string

const (
	TxFund   TxType = "FUND"   // External top-up into an agent account
	TxLock   TxType = "LOCK"   // Task creation: payer balance into escrow
	TxPayout TxType = "PAYOUT" // Settlement: escrow to payee
	TxRefund TxType = "REFUND" // Settlement/cancel/timeout: escrow back to payer
)

// EntryType marks one side of a double-entry pair.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// FundsEntry is one row of the double-entry funds ledger. Every
// movement writes a matched DEBIT/CREDIT pair; Balance is the account
// balance after this entry applied.
type FundsEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      TxType    `json:"type"`
	EntryType EntryType `json:"entry_type"`
	Account   string    `json:"account"`
	Amount    int64     `json:"amount"`
	TaskID    uint64    `json:"task_id,omitempty"` // 0 when not tied to a task
	Memo      string    `json:"memo,omitempty"`
	Balance   int64     `json:"balance"`
}
