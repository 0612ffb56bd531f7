// Package treasury implements the double-entry funds ledger behind escrow.
// Every movement creates matched DEBIT/CREDIT entries. SUM(debits) ==
// SUM(credits) is an invariant, so the escrow pool always holds exactly
// the sum of open task amounts.
package treasury

import (
	"fmt"
	"sync"
	"time"

	"github.com/wildhash/agentpay/internal/domain"
	"github.com/wildhash/agentpay/internal/infra/sqlite"
)

// Well-known accounts. Agent accounts use the agent's own ID.
const (
	// AccountEscrow holds funds locked for open tasks.
	AccountEscrow = "escrow"

	// AccountReserve is the external source that top-ups draw from.
	// Its balance goes negative as funds enter circulation.
	AccountReserve = "reserve"
)

// Service manages agent balances, allowances, and escrow locks.
type Service struct {
	mu sync.Mutex // serializes read-compute-write balance updates
	db *sqlite.DB
}

// NewService creates a treasury service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// Balance returns the current balance of an account.
// Unknown accounts have balance 0.
func (s *Service) Balance(account string) (int64, error) {
	return s.db.FundsBalance(account)
}

// History returns recent ledger entries for an account.
func (s *Service) History(account string, limit int) ([]domain.FundsEntry, error) {
	return s.db.FundsEntries(account, limit)
}

// Fund credits an agent account from the reserve.
// Creates matched DEBIT (reserve) and CREDIT (account) entries.
func (s *Service) Fund(account string, amount int64, memo string) error {
	if account == "" {
		return fmt.Errorf("fund: account is required")
	}
	if amount <= 0 {
		return fmt.Errorf("fund amount must be positive, got %d", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reserveBal, err := s.db.FundsBalance(AccountReserve)
	if err != nil {
		return fmt.Errorf("get reserve balance: %w", err)
	}
	acctBal, err := s.db.FundsBalance(account)
	if err != nil {
		return fmt.Errorf("get account balance: %w", err)
	}

	now := time.Now()
	return s.db.ApplyFundsEntries([]domain.FundsEntry{
		{
			Timestamp: now, Type: domain.TxFund, EntryType: domain.EntryDebit,
			Account: AccountReserve, Amount: amount, Memo: memo,
			Balance: reserveBal - amount,
		},
		{
			Timestamp: now, Type: domain.TxFund, EntryType: domain.EntryCredit,
			Account: account, Amount: amount, Memo: memo,
			Balance: acctBal + amount,
		},
	})
}

// Approve sets the owner's remaining escrow allowance to amount.
// Each task lock consumes allowance; setting 0 revokes it. This is an
// absolute set, not an increment, so re-approving is idempotent.
func (s *Service) Approve(owner string, amount int64) error {
	if owner == "" {
		return fmt.Errorf("approve: owner is required")
	}
	if amount < 0 {
		return fmt.Errorf("approve amount must be non-negative, got %d", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.SetAllowance(owner, amount)
}

// Allowance returns the owner's remaining escrow allowance.
func (s *Service) Allowance(owner string) (int64, error) {
	return s.db.Allowance(owner)
}

// Lock moves amount from the owner's balance into escrow for a task.
// The owner must have approved at least amount of allowance and hold at
// least amount of balance. Consumes allowance on success.
func (s *Service) Lock(owner string, taskID uint64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("lock amount must be positive, got %d", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	allowance, err := s.db.Allowance(owner)
	if err != nil {
		return fmt.Errorf("get allowance: %w", err)
	}
	if allowance < amount {
		return fmt.Errorf("%w: approved %d, need %d", domain.ErrInsufficientAllowance, allowance, amount)
	}

	ownerBal, err := s.db.FundsBalance(owner)
	if err != nil {
		return fmt.Errorf("get owner balance: %w", err)
	}
	if ownerBal < amount {
		return fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientFunds, ownerBal, amount)
	}

	escrowBal, err := s.db.FundsBalance(AccountEscrow)
	if err != nil {
		return fmt.Errorf("get escrow balance: %w", err)
	}

	// Allowance is consumed first. If the process dies between the two
	// writes the owner re-approves; funds never move twice.
	if err := s.db.SetAllowance(owner, allowance-amount); err != nil {
		return fmt.Errorf("consume allowance: %w", err)
	}

	now := time.Now()
	memo := fmt.Sprintf("lock for task %d", taskID)
	err = s.db.ApplyFundsEntries([]domain.FundsEntry{
		{
			Timestamp: now, Type: domain.TxLock, EntryType: domain.EntryDebit,
			Account: owner, Amount: amount, TaskID: taskID, Memo: memo,
			Balance: ownerBal - amount,
		},
		{
			Timestamp: now, Type: domain.TxLock, EntryType: domain.EntryCredit,
			Account: AccountEscrow, Amount: amount, TaskID: taskID, Memo: memo,
			Balance: escrowBal + amount,
		},
	})
	if err != nil {
		return fmt.Errorf("apply lock: %w", err)
	}
	return nil
}

// Release settles a task's locked funds: payeeAmount to the payee,
// refundAmount back to the payer. Zero legs are skipped, so a full
// refund writes no payout pair and a perfect score writes no refund
// pair. The caller guarantees payeeAmount+refundAmount equals the
// amount locked for the task.
func (s *Service) Release(taskID uint64, payee string, payeeAmount int64, payer string, refundAmount int64, memo string) error {
	if payeeAmount < 0 || refundAmount < 0 {
		return fmt.Errorf("release amounts must be non-negative, got %d/%d", payeeAmount, refundAmount)
	}
	if payeeAmount == 0 && refundAmount == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	escrowBal, err := s.db.FundsBalance(AccountEscrow)
	if err != nil {
		return fmt.Errorf("get escrow balance: %w", err)
	}

	now := time.Now()
	var entries []domain.FundsEntry

	if payeeAmount > 0 {
		payeeBal, err := s.db.FundsBalance(payee)
		if err != nil {
			return fmt.Errorf("get payee balance: %w", err)
		}
		escrowBal -= payeeAmount
		entries = append(entries,
			domain.FundsEntry{
				Timestamp: now, Type: domain.TxPayout, EntryType: domain.EntryDebit,
				Account: AccountEscrow, Amount: payeeAmount, TaskID: taskID, Memo: memo,
				Balance: escrowBal,
			},
			domain.FundsEntry{
				Timestamp: now, Type: domain.TxPayout, EntryType: domain.EntryCredit,
				Account: payee, Amount: payeeAmount, TaskID: taskID, Memo: memo,
				Balance: payeeBal + payeeAmount,
			},
		)
	}

	if refundAmount > 0 {
		payerBal, err := s.db.FundsBalance(payer)
		if err != nil {
			return fmt.Errorf("get payer balance: %w", err)
		}
		escrowBal -= refundAmount
		entries = append(entries,
			domain.FundsEntry{
				Timestamp: now, Type: domain.TxRefund, EntryType: domain.EntryDebit,
				Account: AccountEscrow, Amount: refundAmount, TaskID: taskID, Memo: memo,
				Balance: escrowBal,
			},
			domain.FundsEntry{
				Timestamp: now, Type: domain.TxRefund, EntryType: domain.EntryCredit,
				Account: payer, Amount: refundAmount, TaskID: taskID, Memo: memo,
				Balance: payerBal + refundAmount,
			},
		)
	}

	if err := s.db.ApplyFundsEntries(entries); err != nil {
		return fmt.Errorf("apply release: %w", err)
	}
	return nil
}
