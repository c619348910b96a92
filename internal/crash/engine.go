package crash

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"go-crash/internal/config"
)

// BalanceStore is the per-identity wallet boundary. It must be strongly
// consistent per identity; the engine never holds its own lock across a call
// into it.
type BalanceStore interface {
	Balance(identity string) (int64, error)
	Debit(identity string, amount int64) error
	Credit(identity string, amount int64) error
}

// Engine owns the round lifecycle: betting -> flight -> crashed -> betting.
// One goroutine (the run loop) drives all phase transitions and multiplier
// ticks; inbound player actions synchronize with it through the Registry
// lock. Round metadata is guarded by mu for external snapshots.
type Engine struct {
	log     *slog.Logger
	cfg     config.Crash
	fair    *Fair
	reg     *Registry
	balance BalanceStore
	ledger  Ledger
	settler *Settler
	disp    *dispatcher
	retry   RetryFunc

	mu      sync.RWMutex
	round   *Round
	current float64
	nonce   int

	stop chan struct{}
	done chan struct{}
}

func NewEngine(
	log *slog.Logger,
	cfg config.Crash,
	balance BalanceStore,
	ledger Ledger,
	archive Archive,
	pub Publisher,
	retry RetryFunc,
) *Engine {
	fair := NewFair(cfg.HouseEdge)

	return &Engine{
		log:     log,
		cfg:     cfg,
		fair:    fair,
		reg:     NewRegistry(cfg.MinBet, cfg.MaxBet),
		balance: balance,
		ledger:  ledger,
		settler: NewSettler(log, ledger, archive, retry),
		disp:    newDispatcher(log, pub),
		retry:   retry,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the round loop. Rounds run back to back until Stop.
func (e *Engine) Start() {
	e.disp.start()

	go e.loop()
}

// Stop cancels all timers and halts the loop after the current step. A round
// torn down mid-flight never reaches crashed and is never archived.
func (e *Engine) Stop() {
	close(e.stop)
	<-e.done

	// no further player actions can mutate the registry once stopped
	e.reg.SetPhase(PhaseCrashed)

	e.disp.stop()
}

func (e *Engine) loop() {
	defer close(e.done)

	for {
		e.startRound()

		if !e.wait(e.cfg.BettingDuration) {
			return
		}

		e.startFlight()

		if !e.fly() {
			return
		}

		e.crash()

		if !e.wait(e.cfg.Cooldown) {
			return
		}
	}
}

func (e *Engine) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-e.stop:
		return false
	}
}

// startRound creates a brand-new round: fresh seed, published commitment,
// and a target that is fixed right now even though it stays hidden until
// the crash reveals it.
func (e *Engine) startRound() {
	const op = "crash.Engine.startRound"

	seed := e.fair.GenerateSeed()
	clientSeed := uuid.New().String()

	e.mu.Lock()

	e.nonce++
	nonce := e.nonce
	target := e.fair.DeriveOutcome(seed, clientSeed, nonce)
	jitter := e.fair.DeriveJitter(seed, clientSeed, nonce)

	round := &Round{
		ID:               uuid.New(),
		ServerSeed:       seed,
		SeedHash:         e.fair.Commit(seed),
		ClientSeed:       clientSeed,
		Nonce:            nonce,
		Target:           target,
		FlightDuration:   e.flightDuration(target, jitter),
		BettingStartedAt: time.Now(),
	}

	e.round = round
	e.current = 1.0

	e.mu.Unlock()

	e.reg.Reset()

	e.log.Info("betting open",
		slog.String("op", op),
		slog.String("round_id", round.ID.String()),
		slog.String("seed_hash", round.SeedHash))

	e.disp.enqueue(Event{
		Name: EventBettingOpen,
		Data: map[string]interface{}{
			"round_id":         round.ID.String(),
			"seed_hash":        round.SeedHash,
			"client_seed":      round.ClientSeed,
			"nonce":            round.Nonce,
			"betting_duration": e.cfg.BettingDuration.String(),
		},
	})
}

func (e *Engine) startFlight() {
	e.mu.Lock()
	e.round.FlightStartedAt = time.Now()
	round := *e.round
	e.mu.Unlock()

	e.reg.SetPhase(PhaseFlight)

	e.disp.enqueue(Event{
		Name: EventFlightStarted,
		Data: map[string]interface{}{
			"round_id": round.ID.String(),
		},
	})
}

// fly ticks the multiplier until the target or the flight-duration bound is
// reached. Reports false if the engine was stopped mid-flight.
func (e *Engine) fly() bool {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return false
		case <-ticker.C:
			if e.tick() {
				return true
			}
		}
	}
}

// tick advances the current multiplier along the easing curve and reports
// whether the round is done. The multiplier is non-decreasing and never
// exceeds the target.
func (e *Engine) tick() bool {
	e.mu.Lock()

	round := e.round
	elapsed := time.Since(round.FlightStartedAt)

	progress := float64(elapsed) / float64(round.FlightDuration)
	if progress > 1 {
		progress = 1
	}

	// Quadratic ease-in: slow start, fast finish, the usual crash feel.
	current := 1 + (round.Target-1)*progress*progress
	current = math.Round(current*100) / 100

	if current > round.Target {
		current = round.Target
	}

	if current < e.current {
		current = e.current
	}

	e.current = current

	done := progress >= 1 || elapsed >= e.cfg.MaxFlightDuration
	roundID := round.ID

	e.mu.Unlock()

	if done {
		return true
	}

	e.disp.enqueue(Event{
		Name: EventMultiplierUpdate,
		Data: map[string]interface{}{
			"round_id":   roundID.String(),
			"multiplier": current,
		},
	})

	return false
}

// crash closes the round: the phase flips before anything else so no cashout
// can land afterwards, the seed is revealed, and settlement runs to
// completion before the cooldown.
func (e *Engine) crash() {
	e.reg.SetPhase(PhaseCrashed)

	e.mu.Lock()
	e.round.CrashedAt = time.Now()
	e.current = e.round.Target
	round := *e.round
	e.mu.Unlock()

	e.disp.enqueue(Event{
		Name: EventCrashed,
		Data: map[string]interface{}{
			"round_id":    round.ID.String(),
			"server_seed": round.ServerSeed,
			"client_seed": round.ClientSeed,
			"nonce":       round.Nonce,
			"multiplier":  round.Target,
			"crashed_at":  round.CrashedAt,
		},
	})

	e.settler.Settle(round, e.reg.Snapshot())
}

// flightDuration stretches with log(target) and carries seed-derived jitter
// so the target cannot be inferred from timing alone.
func (e *Engine) flightDuration(target float64, jitter float64) time.Duration {
	span := e.cfg.MaxFlightDuration - e.cfg.MinFlightDuration

	frac := math.Log(target) / math.Log(MaxMultiplier)
	frac *= 1 + (jitter-0.5)*0.2

	if frac < 0 {
		frac = 0
	}

	if frac > 1 {
		frac = 1
	}

	return e.cfg.MinFlightDuration + time.Duration(float64(span)*frac)
}
