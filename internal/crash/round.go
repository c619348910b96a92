package crash

import (
	"time"

	"github.com/google/uuid"
)

type Phase string

const (
	PhaseBetting Phase = "betting"
	PhaseFlight  Phase = "flight"
	PhaseCrashed Phase = "crashed"
)

// Round is one crash round. The server seed and target are fixed the instant
// the round is created and never mutated; the seed stays secret until the
// crashed event reveals it. The live phase is owned by the Registry so that
// phase checks and bet mutations share one lock.
type Round struct {
	ID         uuid.UUID
	ServerSeed string
	SeedHash   string
	ClientSeed string
	Nonce      int

	Target         float64
	FlightDuration time.Duration

	BettingStartedAt time.Time
	FlightStartedAt  time.Time
	CrashedAt        time.Time
}

// Bet is one identity's wager in the active round. Owned by the Registry;
// handed out by value only.
type Bet struct {
	Identity   string
	Amount     int64
	ClientSeed string
	PlacedAt   time.Time

	CashedOut        bool
	PayoutMultiplier float64
	Payout           int64
	CashedOutAt      time.Time

	// funded flips true once the stake debit committed; only funded bets
	// can cash out or settle.
	funded bool
}

func (b Bet) Funded() bool {
	return b.funded
}
