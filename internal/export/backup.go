package export

import (
	"encoding/json"
	"fmt"
	"time"

	"gestaosocial/internal/core"
)

// Backup is the full JSON snapshot offered from the settings page.
type Backup struct {
	ExportedAt   time.Time          `json:"exportedAt"`
	Families     []core.Family      `json:"families"`
	Transactions []core.Transaction `json:"transactions"`
}

func BackupJSON(families []core.Family, txs []core.Transaction, now time.Time) ([]byte, error) {
	b := Backup{ExportedAt: now.UTC(), Families: families, Transactions: txs}
	if b.Families == nil {
		b.Families = []core.Family{}
	}
	if b.Transactions == nil {
		b.Transactions = []core.Transaction{}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return data, nil
}

func BackupFilename(now time.Time) string {
	return fmt.Sprintf("backup_gestao_social_%s.json", now.Format("2006-01-02"))
}
