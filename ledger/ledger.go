// Package ledger keeps the append-only trade history, chunked into
// fixed-size pages so a dashboard can read recent activity without loading
// the whole history. Page 0 always holds the newest records.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeguard/notify"
	"github.com/rustyeddy/tradeguard/pkg/id"
	"github.com/rustyeddy/tradeguard/store"
)

const (
	// PageSize is the record capacity of one stored page.
	PageSize = 25

	// DashboardLimit is how many of the newest records the dashboard and
	// stats paths look at. Always within page 0, so the hot path reads a
	// single key.
	DashboardLimit = 10

	// DefaultRetentionCap is the record cap applied by cleanup when the
	// caller does not pick one.
	DefaultRetentionCap = 100
)

// Kind is the trade direction.
type Kind string

const (
	Buy  Kind = "buy"
	Sell Kind = "sell"
)

// Status is the trade lifecycle state. Pending transitions to Success or
// Failed exactly once; terminal records are never mutated.
type Status string

const (
	Pending Status = "pending"
	Success Status = "success"
	Failed  Status = "failed"
)

var errNotPending = errors.New("transaction already finalized")

// Transaction is one recorded trade attempt.
type Transaction struct {
	ID           string           `json:"id"`
	TokenAddress string           `json:"token_address"`
	Symbol       string           `json:"symbol"`
	Kind         Kind             `json:"kind"`
	Amount       decimal.Decimal  `json:"amount"`
	TxHash       string           `json:"tx_hash,omitempty"`
	Status       Status           `json:"status"`
	Profit       *decimal.Decimal `json:"profit,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NewTransaction creates a pending record with a fresh time-sortable ID.
func NewTransaction(tokenAddress, symbol string, kind Kind, amount decimal.Decimal) Transaction {
	return Transaction{
		ID:           id.New(),
		TokenAddress: tokenAddress,
		Symbol:       symbol,
		Kind:         kind,
		Amount:       amount,
		Status:       Pending,
		CreatedAt:    time.Now().UTC(),
	}
}

// MarkSuccess finalizes a pending record with its on-chain hash.
func (t *Transaction) MarkSuccess(txHash string) error {
	if t.Status != Pending {
		return fmt.Errorf("mark success: %w", errNotPending)
	}
	t.Status = Success
	t.TxHash = txHash
	return nil
}

// MarkFailed finalizes a pending record as failed.
func (t *Transaction) MarkFailed() error {
	if t.Status != Pending {
		return fmt.Errorf("mark failed: %w", errNotPending)
	}
	t.Status = Failed
	return nil
}

// Meta is the per-user ledger bookkeeping record.
type Meta struct {
	TotalCount  uint64    `json:"total_count"`
	PageCount   uint32    `json:"page_count"`
	LastUpdated time.Time `json:"last_updated"`
}

func pageCountFor(total uint64) uint32 {
	return uint32((total + PageSize - 1) / PageSize)
}

// Ledger owns all pages and meta records, keyed by user. Writes for one user
// are serialized by a per-user mutex; the page/overflow split is a
// read-modify-write and two unserialized writers would lose records.
type Ledger struct {
	store    store.Store
	notifier notify.Notifier
	log      zerolog.Logger

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

func New(st store.Store, n notify.Notifier, log zerolog.Logger) *Ledger {
	return &Ledger{
		store:    st,
		notifier: n,
		log:      log.With().Str("component", "ledger").Logger(),
		users:    make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) userLock(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	mu, ok := l.users[userID]
	if !ok {
		mu = &sync.Mutex{}
		l.users[userID] = mu
	}
	return mu
}

func metaKey(userID string) string { return "ledger:meta:" + userID }

func pageKey(userID string, p uint32) string {
	return fmt.Sprintf("ledger:page:%s:%d", userID, p)
}

// loadMeta returns the bookkeeping record. A missing or corrupt value is a
// zero Meta, not an error; only store I/O failures propagate.
func (l *Ledger) loadMeta(userID string) (Meta, error) {
	raw, ok, err := l.store.Get(metaKey(userID))
	if err != nil {
		return Meta{}, fmt.Errorf("load meta: %w", err)
	}
	if !ok {
		return Meta{}, nil
	}

	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil {
		l.log.Warn().Err(err).Str("user", userID).Msg("corrupt meta, starting from zero")
		return Meta{}, nil
	}
	return m, nil
}

func (l *Ledger) saveMeta(userID string, m Meta) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := l.store.Set(metaKey(userID), raw); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

// loadPage returns one page, newest record first. Missing or corrupt pages
// come back empty; only store I/O failures propagate.
func (l *Ledger) loadPage(userID string, p uint32) ([]Transaction, error) {
	raw, ok, err := l.store.Get(pageKey(userID, p))
	if err != nil {
		return nil, fmt.Errorf("load page %d: %w", p, err)
	}
	if !ok {
		return nil, nil
	}

	var page []Transaction
	if err := json.Unmarshal(raw, &page); err != nil {
		l.log.Warn().Err(err).Str("user", userID).Uint32("page", p).Msg("corrupt page, treating as empty")
		return nil, nil
	}
	return page, nil
}

func (l *Ledger) savePage(userID string, p uint32, page []Transaction) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal page %d: %w", p, err)
	}
	if err := l.store.Set(pageKey(userID, p), raw); err != nil {
		return fmt.Errorf("save page %d: %w", p, err)
	}
	return nil
}

// SaveTransaction prepends tx to page 0 and cascades the displaced oldest
// record page by page toward the tail, so every page but the last stays
// exactly full. Pages are written before meta; if the meta write is lost the
// divergence is caught by the integrity check rather than silently trusted.
func (l *Ledger) SaveTransaction(userID string, tx Transaction) error {
	mu := l.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	meta, err := l.loadMeta(userID)
	if err != nil {
		return err
	}

	page, err := l.loadPage(userID, 0)
	if err != nil {
		return err
	}
	page = append([]Transaction{tx}, page...)

	var p uint32
	for len(page) > PageSize {
		overflow := page[PageSize]
		if err := l.savePage(userID, p, page[:PageSize]); err != nil {
			return err
		}

		p++
		next, err := l.loadPage(userID, p)
		if err != nil {
			return err
		}
		page = append([]Transaction{overflow}, next...)
	}
	if err := l.savePage(userID, p, page); err != nil {
		return err
	}

	meta.TotalCount++
	meta.PageCount = pageCountFor(meta.TotalCount)
	meta.LastUpdated = time.Now().UTC()
	return l.saveMeta(userID, meta)
}
