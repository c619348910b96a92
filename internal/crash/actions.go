package crash

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"go-crash/internal/lib/logger/sl"
)

type PlaceBetResult struct {
	RoundID uuid.UUID
	Bet     Bet
	Balance int64
}

type CashOutResult struct {
	RoundID uuid.UUID
	Bet     Bet
	Balance int64
}

// Snapshot is the current-state view handed to late joiners and pollers.
type Snapshot struct {
	RoundID           uuid.UUID `json:"round_id"`
	SeedHash          string    `json:"seed_hash"`
	Phase             Phase     `json:"phase"`
	CurrentMultiplier float64   `json:"current_multiplier"`
	BetCount          int       `json:"bet_count"`
}

// PlaceBet validates and inserts a wager for the active round. The registry
// slot is reserved atomically first, then the stake is debited without any
// engine lock held; a failed debit rolls the slot back, so a bet is never
// visible as funded without its stake taken.
func (e *Engine) PlaceBet(identity string, amount int64, clientSeed string) (*PlaceBetResult, error) {
	const op = "crash.Engine.PlaceBet"

	log := e.log.With(
		slog.String("op", op),
		slog.String("identity", identity),
	)

	bet, err := e.reg.Reserve(identity, amount, clientSeed, time.Now())
	if err != nil {
		return nil, err
	}

	// Registry phase was betting, so the round pointer is the live one.
	e.mu.RLock()
	round := e.round
	e.mu.RUnlock()

	if err = e.balance.Debit(identity, amount); err != nil {
		e.reg.Rollback(identity)

		log.Error("failed to debit stake", sl.Err(err))

		return nil, mapBalanceErr(err)
	}

	if !e.reg.Confirm(identity) {
		// The round sealed for settlement before the debit landed; the
		// wager never existed, so the stake goes straight back.
		if err = e.balance.Credit(identity, amount); err != nil {
			log.Error("failed to refund stake after sealed round", sl.Err(err))

			e.dispatchRetry("stake-refund", func() error {
				return e.balance.Credit(identity, amount)
			})
		}

		return nil, ErrWrongPhase
	}

	if err = e.ledger.Record(identity, EntryBet, amount, map[string]interface{}{
		"round_id": round.ID.String(),
	}); err != nil {
		log.Error("failed to record bet ledger entry", sl.Err(err))

		e.dispatchRetry("bet-ledger-entry", func() error {
			return e.ledger.Record(identity, EntryBet, amount, map[string]interface{}{
				"round_id": round.ID.String(),
			})
		})
	}

	e.disp.enqueue(Event{
		Name: EventBetPlaced,
		Data: map[string]interface{}{
			"round_id": round.ID.String(),
			"identity": identity,
			"amount":   amount,
		},
	})

	balance, err := e.balance.Balance(identity)
	if err != nil {
		log.Error("failed to read balance", sl.Err(err))
	}

	bet.funded = true

	return &PlaceBetResult{
		RoundID: round.ID,
		Bet:     bet,
		Balance: balance,
	}, nil
}

// CashOut settles an active bet at the multiplier current right now. The
// flip is atomic and at-most-once; the credit happens synchronously after
// it, and settlement later records only the audit entry, never a second
// credit.
func (e *Engine) CashOut(identity string) (*CashOutResult, error) {
	const op = "crash.Engine.CashOut"

	log := e.log.With(
		slog.String("op", op),
		slog.String("identity", identity),
	)

	e.mu.RLock()
	round := e.round
	current := e.current
	e.mu.RUnlock()

	if round == nil {
		return nil, ErrWrongPhase
	}

	bet, err := e.reg.CashOut(identity, current, time.Now())
	if err != nil {
		return nil, err
	}

	if err = e.balance.Credit(identity, bet.Payout); err != nil {
		// The cashout stands; the credit is retried out-of-band rather
		// than un-winning the bet.
		log.Error("failed to credit payout", sl.Err(err))

		payout := bet.Payout
		e.dispatchRetry("payout-credit", func() error {
			return e.balance.Credit(identity, payout)
		})
	}

	e.disp.enqueue(Event{
		Name: EventCashedOut,
		Data: map[string]interface{}{
			"round_id":   round.ID.String(),
			"identity":   identity,
			"multiplier": bet.PayoutMultiplier,
			"payout":     bet.Payout,
		},
	})

	balance, err := e.balance.Balance(identity)
	if err != nil {
		log.Error("failed to read balance", sl.Err(err))
	}

	return &CashOutResult{
		RoundID: round.ID,
		Bet:     bet,
		Balance: balance,
	}, nil
}

// Snapshot returns the live round view: phase, current multiplier, round id.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	round := e.round
	current := e.current
	e.mu.RUnlock()

	if round == nil {
		return Snapshot{Phase: PhaseCrashed, CurrentMultiplier: 1.0}
	}

	return Snapshot{
		RoundID:           round.ID,
		SeedHash:          round.SeedHash,
		Phase:             e.reg.Phase(),
		CurrentMultiplier: current,
		BetCount:          e.reg.Len(),
	}
}

// VerifyOutcome lets callers check a revealed round independently.
func (e *Engine) VerifyOutcome(seed string, clientSeed string, nonce int, claimed float64) bool {
	return e.fair.Verify(seed, clientSeed, nonce, claimed)
}

func (e *Engine) dispatchRetry(name string, fn func() error) {
	if e.retry == nil {
		return
	}

	e.retry(name, fn)
}

// mapBalanceErr folds storage failures into the player-facing taxonomy while
// letting already-coded rejections pass through.
func mapBalanceErr(err error) error {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr
	}

	return ErrDependencyUnavailable
}
