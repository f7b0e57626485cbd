// Package session composes the risk guard and the ledger into the single
// surface a caller (CLI, dashboard, trading loop) talks to. It holds no
// state of its own; every session can be constructed independently, so tests
// and multiple users never share globals.
package session

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeguard/guard"
	"github.com/rustyeddy/tradeguard/ledger"
)

type Session struct {
	userID string
	guard  *guard.Guard
	ledger *ledger.Ledger
}

func New(userID string, g *guard.Guard, l *ledger.Ledger) *Session {
	return &Session{userID: userID, guard: g, ledger: l}
}

func (s *Session) UserID() string { return s.userID }

// Risk guard surface.

func (s *Session) SetLiveMode(ctx context.Context, on bool) error {
	return s.guard.SetLiveMode(ctx, on)
}

func (s *Session) RecaptureStartingBalance(ctx context.Context) error {
	return s.guard.RecaptureStartingBalance(ctx)
}

func (s *Session) CanExecuteRealBuy(ctx context.Context, amount decimal.Decimal) (bool, error) {
	return s.guard.CanExecuteRealBuy(ctx, amount)
}

func (s *Session) LockRealizedProfit(profitETH, ethUSDPrice decimal.Decimal) {
	s.guard.LockRealizedProfit(profitETH, ethUSDPrice)
}

func (s *Session) GuardStatus() guard.Status {
	return s.guard.Status()
}

// Ledger surface.

func (s *Session) SaveTransaction(tx ledger.Transaction) error {
	return s.ledger.SaveTransaction(s.userID, tx)
}

func (s *Session) DashboardTransactions() ([]ledger.Transaction, error) {
	return s.ledger.DashboardTransactions(s.userID)
}

func (s *Session) TransactionHistory(page uint32) (ledger.HistoryPage, error) {
	return s.ledger.TransactionHistory(s.userID, page)
}

func (s *Session) TransactionStats() (ledger.Stats, error) {
	return s.ledger.TransactionStats(s.userID)
}

func (s *Session) CleanupOldTransactions(cap uint64) error {
	return s.ledger.CleanupOldTransactions(s.userID, cap)
}

func (s *Session) ExportTransactionHistory() (ledger.Export, error) {
	return s.ledger.ExportTransactionHistory(s.userID)
}

// RecordTrade persists a finished trade and, when it closed a position with
// a known profit, folds that profit into the guard's accumulator. The record
// is written first: a profit lock without its trade in the ledger would be
// unexplainable, the reverse is just lag.
func (s *Session) RecordTrade(tx ledger.Transaction, ethUSDPrice decimal.Decimal) error {
	if err := s.ledger.SaveTransaction(s.userID, tx); err != nil {
		return fmt.Errorf("record trade: %w", err)
	}

	if tx.Kind == ledger.Sell && tx.Status == ledger.Success && tx.Profit != nil {
		s.guard.LockRealizedProfit(*tx.Profit, ethUSDPrice)
	}
	return nil
}
