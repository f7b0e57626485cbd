package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeguard/notify"
)

// HistoryPage is one page of history plus the paging metadata a caller
// needs to iterate.
type HistoryPage struct {
	Transactions      []Transaction `json:"transactions"`
	Page              uint32        `json:"page"`
	TotalPages        uint32        `json:"total_pages"`
	TotalTransactions uint64        `json:"total_transactions"`
}

// Stats summarizes the dashboard window. Total is the full ledger count and
// is on a different scale than the window-derived counters.
type Stats struct {
	Total       uint64          `json:"total"`
	Successful  int             `json:"successful"`
	Failed      int             `json:"failed"`
	Pending     int             `json:"pending"`
	TotalProfit decimal.Decimal `json:"total_profit"`
	SuccessRate float64         `json:"success_rate"`
}

// DashboardTransactions returns the newest records, at most DashboardLimit,
// from page 0 only.
func (l *Ledger) DashboardTransactions(userID string) ([]Transaction, error) {
	page, err := l.loadPage(userID, 0)
	if err != nil {
		return nil, err
	}
	if len(page) > DashboardLimit {
		page = page[:DashboardLimit]
	}
	return page, nil
}

// TransactionHistory returns one page verbatim. Pages past the end are an
// empty page, not an error; the metadata still describes the real ledger.
func (l *Ledger) TransactionHistory(userID string, page uint32) (HistoryPage, error) {
	meta, err := l.loadMeta(userID)
	if err != nil {
		return HistoryPage{}, err
	}

	hp := HistoryPage{
		Page:              page,
		TotalPages:        meta.PageCount,
		TotalTransactions: meta.TotalCount,
	}
	if page >= meta.PageCount {
		return hp, nil
	}

	txs, err := l.loadPage(userID, page)
	if err != nil {
		return HistoryPage{}, err
	}
	hp.Transactions = txs
	return hp, nil
}

// TransactionStats computes counts and profit over the dashboard window.
// Total comes from meta and covers the whole ledger.
func (l *Ledger) TransactionStats(userID string) (Stats, error) {
	meta, err := l.loadMeta(userID)
	if err != nil {
		return Stats{}, err
	}
	page, err := l.loadPage(userID, 0)
	if err != nil {
		return Stats{}, err
	}

	l.checkIntegrity(userID, meta, page)

	window := page
	if len(window) > DashboardLimit {
		window = window[:DashboardLimit]
	}

	s := Stats{Total: meta.TotalCount, TotalProfit: decimal.Zero}
	for _, tx := range window {
		switch tx.Status {
		case Success:
			s.Successful++
		case Failed:
			s.Failed++
		case Pending:
			s.Pending++
		}
		if tx.Profit != nil {
			s.TotalProfit = s.TotalProfit.Add(*tx.Profit)
		}
	}

	if completed := s.Successful + s.Failed; completed > 0 {
		s.SuccessRate = float64(s.Successful) / float64(completed) * 100
	}
	return s, nil
}

// checkIntegrity cross-checks meta against what page 0 actually holds. A
// mismatch means a meta and page write got separated (crash between the two,
// or an unserialized concurrent writer) and the counts cannot be trusted.
func (l *Ledger) checkIntegrity(userID string, meta Meta, page0 []Transaction) {
	expected := int(meta.TotalCount)
	if expected > PageSize {
		expected = PageSize
	}
	if len(page0) == expected {
		return
	}

	detail := fmt.Sprintf("ledger meta says %d records but page 0 holds %d; history counts may be stale",
		meta.TotalCount, len(page0))
	l.log.Warn().
		Str("user", userID).
		Uint64("total_count", meta.TotalCount).
		Int("page0_len", len(page0)).
		Msg("ledger integrity mismatch")
	l.notifier.Notify(notify.Warning, "Ledger integrity warning", detail)
}

// CleanupOldTransactions drops the oldest pages until at most cap records
// remain. Destructive and deliberate: it only ever runs when a caller asks,
// never as a side effect of a save.
func (l *Ledger) CleanupOldTransactions(userID string, cap uint64) error {
	if cap == 0 {
		cap = DefaultRetentionCap
	}

	mu := l.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	meta, err := l.loadMeta(userID)
	if err != nil {
		return err
	}
	if meta.TotalCount <= cap {
		return nil
	}

	pagesToKeep := pageCountFor(cap)
	for p := pagesToKeep; p < meta.PageCount; p++ {
		if err := l.store.Delete(pageKey(userID, p)); err != nil {
			return fmt.Errorf("delete page %d: %w", p, err)
		}
	}

	dropped := meta.TotalCount - cap
	meta.TotalCount = cap
	meta.PageCount = pagesToKeep
	if err := l.saveMeta(userID, meta); err != nil {
		return err
	}

	l.log.Info().
		Str("user", userID).
		Uint64("dropped", dropped).
		Uint64("cap", cap).
		Msg("retention cleanup done")
	return nil
}
