package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"go-crash/internal/crash"
	"go-crash/internal/http-server/handlers/mysql"
)

// LedgerRepository is the append-only audit trail behind crash.Ledger.
type LedgerRepository struct {
	dbhandler mysql.Handler
}

func NewLedgerRepository(dbhandler mysql.Handler) *LedgerRepository {
	return &LedgerRepository{dbhandler: dbhandler}
}

func (repo *LedgerRepository) Record(identity string, kind crash.EntryKind, amount int64, meta map[string]interface{}) error {
	const op = "repository.ledger.Record"

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()

	const query = "INSERT INTO crash_ledger(identity, kind, amount, meta, created_at) " +
		"VALUES(?, ?, ?, ?, ?)"

	_, err = repo.dbhandler.PrepareAndExecute(query, identity, string(kind), amount, string(metaJSON), now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
