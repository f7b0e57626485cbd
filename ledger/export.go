package ledger

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Export is the full history rolled into one document, newest record first.
type Export struct {
	UserID       string        `json:"user_id"`
	ExportedAt   time.Time     `json:"exported_at"`
	Count        int           `json:"count"`
	Transactions []Transaction `json:"transactions"`
}

// ExportTransactionHistory concatenates every page, page 0 first. A page
// that fails to load is skipped with a warning so one corrupt key cannot
// poison the whole export.
func (l *Ledger) ExportTransactionHistory(userID string) (Export, error) {
	meta, err := l.loadMeta(userID)
	if err != nil {
		return Export{}, err
	}

	var all []Transaction
	for p := uint32(0); p < meta.PageCount; p++ {
		page, err := l.loadPage(userID, p)
		if err != nil {
			l.log.Warn().Err(err).Str("user", userID).Uint32("page", p).Msg("skipping unreadable page in export")
			continue
		}
		all = append(all, page...)
	}

	return Export{
		UserID:       userID,
		ExportedAt:   time.Now().UTC(),
		Count:        len(all),
		Transactions: all,
	}, nil
}

// WriteJSON writes the export document as indented JSON.
func (e Export) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// WriteCSV writes the transactions as CSV, one row per record.
func (e Export) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"id", "token_address", "symbol", "kind", "amount", "tx_hash", "status", "profit", "created_at"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, tx := range e.Transactions {
		profit := ""
		if tx.Profit != nil {
			profit = tx.Profit.String()
		}
		row := []string{
			tx.ID,
			tx.TokenAddress,
			tx.Symbol,
			string(tx.Kind),
			tx.Amount.String(),
			tx.TxHash,
			string(tx.Status),
			profit,
			tx.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
