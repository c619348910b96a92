package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go-crash/internal/crash"
	"go-crash/internal/http-server/handlers/mysql"
	"go-crash/internal/http-server/model"
)

// CrashRoundRepository archives finished rounds; it backs crash.Archive.
// Rows are keyed uniquely by the round uuid.
type CrashRoundRepository struct {
	dbhandler mysql.Handler
}

func NewCrashRoundRepository(dbhandler mysql.Handler) *CrashRoundRepository {
	return &CrashRoundRepository{dbhandler: dbhandler}
}

func (repo *CrashRoundRepository) Save(record crash.RoundRecord) error {
	const op = "repository.crash_round.Save"

	now := time.Now()

	const query = "INSERT INTO crash_rounds(uuid, seed_hash, server_seed, client_seed, nonce, " +
		"multiplier, bet_count, volume, crashed_at, created_at) " +
		"VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	_, err := repo.dbhandler.PrepareAndExecute(query,
		record.RoundID.String(),
		record.SeedHash,
		record.ServerSeed,
		record.ClientSeed,
		record.Nonce,
		record.Target,
		record.BetCount,
		record.Volume,
		record.CrashedAt,
		now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (repo *CrashRoundRepository) FindByUUID(uuid string) (*model.CrashRound, error) {
	const op = "repository.crash_round.FindByUUID"

	const query = "SELECT id, uuid, seed_hash, server_seed, client_seed, nonce, " +
		"multiplier, bet_count, volume, crashed_at FROM crash_rounds WHERE uuid = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, uuid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	round := &model.CrashRound{}

	err = row.Scan(&round.ID, &round.UUID, &round.SeedHash, &round.ServerSeed,
		&round.ClientSeed, &round.Nonce, &round.Multiplier, &round.BetCount,
		&round.Volume, &round.CrashedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return round, nil
}
