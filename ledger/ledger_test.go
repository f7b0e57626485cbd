package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradeguard/notify"
	"github.com/rustyeddy/tradeguard/store"
)

const user = "u1"

type captureNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (c *captureNotifier) Notify(kind notify.Kind, title, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titles = append(c.titles, title)
}

func (c *captureNotifier) seen(title string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.titles {
		if t == title {
			return true
		}
	}
	return false
}

func newTestLedger(t *testing.T) (*Ledger, *store.Memory, *captureNotifier) {
	t.Helper()

	st := store.NewMemory()
	n := &captureNotifier{}
	return New(st, n, zerolog.Nop()), st, n
}

func txn(id string) Transaction {
	return Transaction{
		ID:        id,
		Symbol:    "PEPE",
		Kind:      Buy,
		Amount:    decimal.RequireFromString("0.01"),
		Status:    Pending,
		CreatedAt: time.Now().UTC(),
	}
}

func saveN(t *testing.T, l *Ledger, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		require.NoError(t, l.SaveTransaction(user, txn(fmt.Sprintf("t%d", i))))
	}
}

func TestSaveFirstTransaction(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)
	saveN(t, l, 1)

	hp, err := l.TransactionHistory(user, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), hp.TotalTransactions)
	assert.Equal(t, uint32(1), hp.TotalPages)
	require.Len(t, hp.Transactions, 1)
	assert.Equal(t, "t1", hp.Transactions[0].ID)
}

func TestOverflowSplitsExactlyOneRecord(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)
	saveN(t, l, PageSize+1) // 26 records

	hp0, err := l.TransactionHistory(user, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(26), hp0.TotalTransactions)
	assert.Equal(t, uint32(2), hp0.TotalPages)
	require.Len(t, hp0.Transactions, PageSize)
	assert.Equal(t, "t26", hp0.Transactions[0].ID)
	assert.Equal(t, "t2", hp0.Transactions[PageSize-1].ID)

	hp1, err := l.TransactionHistory(user, 1)
	require.NoError(t, err)
	require.Len(t, hp1.Transactions, 1)
	assert.Equal(t, "t1", hp1.Transactions[0].ID)
}

func TestPagesStayFullExceptLast(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)
	saveN(t, l, 60)

	for p := uint32(0); p < 2; p++ {
		hp, err := l.TransactionHistory(user, p)
		require.NoError(t, err)
		assert.Len(t, hp.Transactions, PageSize, "page %d", p)
	}

	hp, err := l.TransactionHistory(user, 2)
	require.NoError(t, err)
	assert.Len(t, hp.Transactions, 10)
	assert.Equal(t, uint32(3), hp.TotalPages)
}

func TestPaginationRoundTripMatchesExport(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)
	const n = 57
	saveN(t, l, n)

	var paged []Transaction
	hp, err := l.TransactionHistory(user, 0)
	require.NoError(t, err)
	for p := uint32(0); p < hp.TotalPages; p++ {
		page, err := l.TransactionHistory(user, p)
		require.NoError(t, err)
		paged = append(paged, page.Transactions...)
	}

	exp, err := l.ExportTransactionHistory(user)
	require.NoError(t, err)

	require.Len(t, paged, n)
	require.Equal(t, n, exp.Count)
	for i := range paged {
		assert.Equal(t, paged[i].ID, exp.Transactions[i].ID)
	}

	// Newest first throughout.
	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("t%d", n-i), paged[i].ID)
	}
}

func TestHistoryPageBeyondEnd(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)
	saveN(t, l, 3)

	hp, err := l.TransactionHistory(user, 7)
	require.NoError(t, err)
	assert.Empty(t, hp.Transactions)
	assert.Equal(t, uint32(7), hp.Page)
	assert.Equal(t, uint64(3), hp.TotalTransactions)
	assert.Equal(t, uint32(1), hp.TotalPages)
}

func TestHistoryEmptyLedger(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)

	hp, err := l.TransactionHistory(user, 0)
	require.NoError(t, err)
	assert.Empty(t, hp.Transactions)
	assert.Zero(t, hp.TotalTransactions)
	assert.Zero(t, hp.TotalPages)
}

func TestDashboardTruncatesToLimit(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)
	saveN(t, l, 30)

	txs, err := l.DashboardTransactions(user)
	require.NoError(t, err)
	require.Len(t, txs, DashboardLimit)
	assert.Equal(t, "t30", txs[0].ID)
	assert.Equal(t, "t21", txs[DashboardLimit-1].ID)
}

func TestDashboardSmallLedger(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)
	saveN(t, l, 4)

	txs, err := l.DashboardTransactions(user)
	require.NoError(t, err)
	assert.Len(t, txs, 4)
}

func TestStatsWindowOnly(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)

	profit := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	// 15 old failures that must fall outside the window.
	for i := 1; i <= 15; i++ {
		tx := txn(fmt.Sprintf("old%d", i))
		tx.Status = Failed
		require.NoError(t, l.SaveTransaction(user, tx))
	}

	// Window: 6 success (two with profit), 2 failed, 2 pending.
	for i := 1; i <= 6; i++ {
		tx := txn(fmt.Sprintf("s%d", i))
		tx.Status = Success
		if i <= 2 {
			tx.Profit = profit("0.05")
		}
		require.NoError(t, l.SaveTransaction(user, tx))
	}
	for i := 1; i <= 2; i++ {
		tx := txn(fmt.Sprintf("f%d", i))
		tx.Status = Failed
		require.NoError(t, l.SaveTransaction(user, tx))
	}
	for i := 1; i <= 2; i++ {
		require.NoError(t, l.SaveTransaction(user, txn(fmt.Sprintf("p%d", i))))
	}

	s, err := l.TransactionStats(user)
	require.NoError(t, err)

	assert.Equal(t, uint64(25), s.Total) // full ledger, not the window
	assert.Equal(t, 6, s.Successful)
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, 2, s.Pending)
	assert.True(t, s.TotalProfit.Equal(decimal.RequireFromString("0.1")))
	assert.InDelta(t, 75.0, s.SuccessRate, 1e-9)
}

func TestStatsEmptyLedger(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)

	s, err := l.TransactionStats(user)
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.SuccessRate)
}

func TestCleanupDropsOldPages(t *testing.T) {
	t.Parallel()

	l, st, _ := newTestLedger(t)
	saveN(t, l, 130)

	require.NoError(t, l.CleanupOldTransactions(user, 100))

	meta, err := l.loadMeta(user)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), meta.TotalCount)
	assert.Equal(t, uint32(4), meta.PageCount)

	// Dropped pages are really gone from storage.
	for p := uint32(4); p < 6; p++ {
		_, ok, err := st.Get(pageKey(user, p))
		require.NoError(t, err)
		assert.False(t, ok, "page %d should be deleted", p)
	}

	// Newest records survive.
	hp, err := l.TransactionHistory(user, 0)
	require.NoError(t, err)
	assert.Equal(t, "t130", hp.Transactions[0].ID)
}

func TestCleanupUnderCapIsNoop(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)
	saveN(t, l, 50)

	require.NoError(t, l.CleanupOldTransactions(user, 100))

	hp, err := l.TransactionHistory(user, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), hp.TotalTransactions)
	assert.Equal(t, uint32(2), hp.TotalPages)
}

func TestCleanupDefaultCap(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)
	saveN(t, l, 110)

	require.NoError(t, l.CleanupOldTransactions(user, 0))

	meta, err := l.loadMeta(user)
	require.NoError(t, err)
	assert.Equal(t, uint64(DefaultRetentionCap), meta.TotalCount)
}

func TestIntegrityMismatchWarns(t *testing.T) {
	t.Parallel()

	l, _, n := newTestLedger(t)
	saveN(t, l, 5)

	// Simulate a lost page write: meta says 5, page 0 says 4.
	page, err := l.loadPage(user, 0)
	require.NoError(t, err)
	require.NoError(t, l.savePage(user, 0, page[1:]))

	_, err = l.TransactionStats(user)
	require.NoError(t, err)
	assert.True(t, n.seen("Ledger integrity warning"))
}

func TestConcurrentSavesSerialized(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger(t)

	const n = 40
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.SaveTransaction(user, txn(fmt.Sprintf("c%d", i))))
		}(i)
	}
	wg.Wait()

	exp, err := l.ExportTransactionHistory(user)
	require.NoError(t, err)
	assert.Equal(t, n, exp.Count)

	meta, err := l.loadMeta(user)
	require.NoError(t, err)
	assert.Equal(t, uint64(n), meta.TotalCount)
	assert.Equal(t, uint32(2), meta.PageCount)
}

func TestMarkSuccessOnce(t *testing.T) {
	t.Parallel()

	tx := NewTransaction("0xabc", "PEPE", Buy, decimal.RequireFromString("0.02"))
	assert.Equal(t, Pending, tx.Status)
	assert.NotEmpty(t, tx.ID)

	require.NoError(t, tx.MarkSuccess("0xhash"))
	assert.Equal(t, Success, tx.Status)
	assert.Equal(t, "0xhash", tx.TxHash)

	assert.Error(t, tx.MarkSuccess("0xother"))
	assert.Error(t, tx.MarkFailed())
}

func TestMarkFailedOnce(t *testing.T) {
	t.Parallel()

	tx := NewTransaction("0xabc", "PEPE", Sell, decimal.RequireFromString("0.02"))
	require.NoError(t, tx.MarkFailed())
	assert.Equal(t, Failed, tx.Status)
	assert.Error(t, tx.MarkSuccess("0xhash"))
}
