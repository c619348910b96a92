package crash

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Registry is the concurrent-safe store of the active round's wagers. One
// mutex guards both the phase and the bet map, which makes placeBet/cashOut
// mutually exclusive with phase transitions: a bet can never slip in after
// betting closed, and a cashout can never land after the crash.
type Registry struct {
	mu     sync.Mutex
	phase  Phase
	bets   map[string]*Bet
	sealed bool

	minBet int64
	maxBet int64
}

func NewRegistry(minBet int64, maxBet int64) *Registry {
	return &Registry{
		phase:  PhaseCrashed,
		bets:   make(map[string]*Bet),
		minBet: minBet,
		maxBet: maxBet,
	}
}

// Reset clears the registry for a new round and opens the betting phase.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.phase = PhaseBetting
	r.bets = make(map[string]*Bet)
	r.sealed = false
}

func (r *Registry) SetPhase(phase Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.phase = phase
}

func (r *Registry) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.phase
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.bets)
}

// Reserve validates the wager and inserts it in one atomic step. Two callers
// racing on the same identity see exactly one success and one duplicate_bet.
// The returned bet is unfunded until Confirm.
func (r *Registry) Reserve(identity string, amount int64, clientSeed string, now time.Time) (Bet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseBetting {
		return Bet{}, ErrWrongPhase
	}

	if amount <= 0 || amount < r.minBet || amount > r.maxBet {
		return Bet{}, ErrInvalidAmount
	}

	if _, exists := r.bets[identity]; exists {
		return Bet{}, ErrDuplicateBet
	}

	bet := &Bet{
		Identity:   identity,
		Amount:     amount,
		ClientSeed: clientSeed,
		PlacedAt:   now,
	}

	r.bets[identity] = bet

	return *bet, nil
}

// Confirm marks a reserved bet as funded once the stake debit committed.
// It reports false if the round was already sealed for settlement, in which
// case the caller must refund the debit.
func (r *Registry) Confirm(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	bet, exists := r.bets[identity]
	if !exists || r.sealed {
		return false
	}

	bet.funded = true

	return true
}

// Rollback removes a reserved bet after a failed debit.
func (r *Registry) Rollback(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bet, exists := r.bets[identity]; exists && !bet.funded {
		delete(r.bets, identity)
	}
}

// CashOut flips a bet to cashed-out exactly once at the given multiplier.
// Concurrent calls for the same identity yield one success and
// already_cashed_out for the rest.
func (r *Registry) CashOut(identity string, multiplier float64, now time.Time) (Bet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseFlight {
		return Bet{}, ErrWrongPhase
	}

	bet, exists := r.bets[identity]
	if !exists || !bet.funded {
		return Bet{}, ErrNoActiveBet
	}

	if bet.CashedOut {
		return Bet{}, ErrAlreadyCashedOut
	}

	bet.CashedOut = true
	bet.PayoutMultiplier = multiplier
	bet.Payout = int64(math.Round(float64(bet.Amount) * multiplier))
	bet.CashedOutAt = now

	return *bet, nil
}

// Snapshot seals the registry and returns the funded bets ordered by
// placement time. Called only after the phase moved to crashed, so no
// further mutation is possible.
func (r *Registry) Snapshot() []Bet {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sealed = true

	bets := make([]Bet, 0, len(r.bets))
	for _, bet := range r.bets {
		if !bet.funded {
			continue
		}

		bets = append(bets, *bet)
	}

	sort.Slice(bets, func(i, j int) bool {
		return bets[i].PlacedAt.Before(bets[j].PlacedAt)
	})

	return bets
}
