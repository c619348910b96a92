package crash

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"go-crash/internal/lib/logger/sl"
)

type EntryKind string

const (
	EntryBet  EntryKind = "bet"
	EntryWin  EntryKind = "win"
	EntryLoss EntryKind = "loss"
)

// Ledger is the append-only audit trail for wagers and their outcomes.
type Ledger interface {
	Record(identity string, kind EntryKind, amount int64, meta map[string]interface{}) error
}

// RoundRecord is the archived, revealed form of a finished round.
type RoundRecord struct {
	RoundID    uuid.UUID
	SeedHash   string
	ServerSeed string
	ClientSeed string
	Nonce      int
	Target     float64
	CrashedAt  time.Time
	BetCount   int
	Volume     int64
}

// Archive persists finished rounds, keyed uniquely by round id.
type Archive interface {
	Save(record RoundRecord) error
}

// RetryFunc re-dispatches a failed persistence write out-of-band. May be nil.
type RetryFunc func(name string, fn func() error)

// Settler reconciles every bet of a crashed round exactly once: a win entry
// for each cashed-out bet, a loss entry for the rest, then the archive
// record. Balance credits already happened at cashout time; settlement only
// writes the audit trail. Failures are logged and retried out-of-band and
// never abort the remaining bets or delay the next round.
type Settler struct {
	log     *slog.Logger
	ledger  Ledger
	archive Archive
	retry   RetryFunc
}

func NewSettler(log *slog.Logger, ledger Ledger, archive Archive, retry RetryFunc) *Settler {
	return &Settler{
		log:     log,
		ledger:  ledger,
		archive: archive,
		retry:   retry,
	}
}

func (s *Settler) Settle(round Round, bets []Bet) {
	const op = "crash.Settler.Settle"

	log := s.log.With(
		slog.String("op", op),
		slog.String("round_id", round.ID.String()),
	)

	var volume int64

	for _, bet := range bets {
		bet := bet
		volume += bet.Amount

		kind := EntryLoss
		amount := bet.Amount

		if bet.CashedOut {
			kind = EntryWin
			amount = bet.Payout
		}

		meta := map[string]interface{}{
			"round_id":   round.ID.String(),
			"stake":      bet.Amount,
			"cashed_out": bet.CashedOut,
		}
		if bet.CashedOut {
			meta["multiplier"] = bet.PayoutMultiplier
		}

		if err := s.ledger.Record(bet.Identity, kind, amount, meta); err != nil {
			log.Error("failed to record ledger entry",
				sl.String("identity", bet.Identity),
				sl.String("kind", string(kind)),
				sl.Err(err))

			s.dispatchRetry("ledger-entry", func() error {
				return s.ledger.Record(bet.Identity, kind, amount, meta)
			})
		}
	}

	record := RoundRecord{
		RoundID:    round.ID,
		SeedHash:   round.SeedHash,
		ServerSeed: round.ServerSeed,
		ClientSeed: round.ClientSeed,
		Nonce:      round.Nonce,
		Target:     round.Target,
		CrashedAt:  round.CrashedAt,
		BetCount:   len(bets),
		Volume:     volume,
	}

	if err := s.archive.Save(record); err != nil {
		log.Error("failed to save round archive record", sl.Err(err))

		s.dispatchRetry("round-archive", func() error {
			return s.archive.Save(record)
		})

		return
	}

	log.Info("round settled",
		slog.Int("bets", record.BetCount),
		slog.Int64("volume", record.Volume),
		slog.Float64("target", record.Target))
}

func (s *Settler) dispatchRetry(name string, fn func() error) {
	if s.retry == nil {
		return
	}

	s.retry(name, fn)
}
