package model

import (
	"time"

	"github.com/google/uuid"
)

// CrashRound is the archived form of a finished round, revealed seed
// included.
type CrashRound struct {
	ID         int64     `json:"id"`
	UUID       uuid.UUID `json:"uuid"`
	SeedHash   string    `json:"seed_hash"`
	ServerSeed string    `json:"server_seed"`
	ClientSeed string    `json:"client_seed"`
	Nonce      int       `json:"nonce"`
	Multiplier float64   `json:"multiplier"`
	BetCount   int       `json:"bet_count"`
	Volume     int64     `json:"volume"`
	CrashedAt  time.Time `json:"crashed_at"`
	CreatedAt  time.Time `json:"created_at"`
}
