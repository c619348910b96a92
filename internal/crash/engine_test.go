package crash

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"go-crash/internal/config"
)

type fakeBalance struct {
	mu        sync.Mutex
	balances  map[string]int64
	debitErr  error
	creditErr error
}

func newFakeBalance() *fakeBalance {
	return &fakeBalance{balances: make(map[string]int64)}
}

func (f *fakeBalance) set(identity string, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.balances[identity] = amount
}

func (f *fakeBalance) Balance(identity string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	balance, ok := f.balances[identity]
	if !ok {
		return 0, ErrAccountNotFound
	}

	return balance, nil
}

func (f *fakeBalance) Debit(identity string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.debitErr != nil {
		return f.debitErr
	}

	balance, ok := f.balances[identity]
	if !ok {
		return ErrAccountNotFound
	}

	if balance < amount {
		return ErrInsufficientFunds
	}

	f.balances[identity] = balance - amount

	return nil
}

func (f *fakeBalance) Credit(identity string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.creditErr != nil {
		return f.creditErr
	}

	f.balances[identity] += amount

	return nil
}

type ledgerEntry struct {
	identity string
	kind     EntryKind
	amount   int64
	meta     map[string]interface{}
}

type fakeLedger struct {
	mu      sync.Mutex
	entries []ledgerEntry
	err     error
}

func (f *fakeLedger) Record(identity string, kind EntryKind, amount int64, meta map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.entries = append(f.entries, ledgerEntry{identity: identity, kind: kind, amount: amount, meta: meta})

	return nil
}

func (f *fakeLedger) byKind(kind EntryKind) []ledgerEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []ledgerEntry
	for _, e := range f.entries {
		if e.kind == kind {
			out = append(out, e)
		}
	}

	return out
}

type fakeArchive struct {
	mu      sync.Mutex
	records []RoundRecord
	err     error
}

func (f *fakeArchive) Save(record RoundRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.records = append(f.records, record)

	return nil
}

func (f *fakeArchive) all() []RoundRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]RoundRecord(nil), f.records...)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *capturePublisher) Publish(ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, ev)

	return nil
}

func (p *capturePublisher) all() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]Event(nil), p.events...)
}

func testCrashConfig() config.Crash {
	return config.Crash{
		BettingDuration:   150 * time.Millisecond,
		TickInterval:      10 * time.Millisecond,
		MinFlightDuration: 100 * time.Millisecond,
		MaxFlightDuration: 400 * time.Millisecond,
		Cooldown:          100 * time.Millisecond,
		HouseEdge:         0.04,
		MinBet:            100,
		MaxBet:            100000,
	}
}

type engineFixture struct {
	engine  *Engine
	balance *fakeBalance
	ledger  *fakeLedger
	archive *fakeArchive
	pub     *capturePublisher
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	f := &engineFixture{
		balance: newFakeBalance(),
		ledger:  &fakeLedger{},
		archive: &fakeArchive{},
		pub:     &capturePublisher{},
	}

	f.engine = NewEngine(
		slog.New(slog.NewTextHandler(testWriter{t}, nil)),
		testCrashConfig(),
		f.balance,
		f.ledger,
		f.archive,
		f.pub,
		nil,
	)

	return f
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))

	return len(p), nil
}

func (f *engineFixture) waitPhase(t *testing.T, phase Phase) {
	t.Helper()

	require.Eventually(t, func() bool {
		return f.engine.Snapshot().Phase == phase
	}, 2*time.Second, 2*time.Millisecond, "phase %s never reached", phase)
}

func TestEnginePlaceBetBeforeStart(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.PlaceBet("alice", 500, "")
	require.ErrorIs(t, err, ErrWrongPhase)
}

func TestEngineRoundLifecycle(t *testing.T) {
	f := newEngineFixture(t)
	f.balance.set("alice", 20000)
	f.balance.set("bob", 20000)

	f.engine.Start()
	defer f.engine.Stop()

	f.waitPhase(t, PhaseBetting)

	placed, err := f.engine.PlaceBet("alice", 10000, "lucky")
	require.NoError(t, err)
	require.Equal(t, int64(10000), f.mustBalance("alice"))

	_, err = f.engine.PlaceBet("bob", 5000, "")
	require.NoError(t, err)

	f.waitPhase(t, PhaseFlight)

	cashed, err := f.engine.CashOut("alice")
	require.NoError(t, err)
	require.Equal(t, placed.RoundID, cashed.RoundID)
	require.True(t, cashed.Bet.CashedOut)
	require.GreaterOrEqual(t, cashed.Bet.PayoutMultiplier, 1.0)
	require.Equal(t, f.mustBalance("alice"), int64(10000)+cashed.Bet.Payout)

	f.waitPhase(t, PhaseCrashed)

	require.Eventually(t, func() bool {
		return len(f.archive.all()) == 1
	}, 2*time.Second, 2*time.Millisecond)

	record := f.archive.all()[0]
	require.Equal(t, placed.RoundID, record.RoundID)
	require.Equal(t, 2, record.BetCount)
	require.Equal(t, int64(15000), record.Volume)
	require.NotEmpty(t, record.ServerSeed)

	// the revealed seed must match the published commitment
	fair := NewFair(0.04)
	require.Equal(t, record.SeedHash, fair.Commit(record.ServerSeed))
	require.True(t, fair.Verify(record.ServerSeed, record.ClientSeed, record.Nonce, record.Target))

	// exactly one settlement entry per bet
	wins := f.ledger.byKind(EntryWin)
	losses := f.ledger.byKind(EntryLoss)
	require.Len(t, wins, 1)
	require.Len(t, losses, 1)
	require.Equal(t, "alice", wins[0].identity)
	require.Equal(t, cashed.Bet.Payout, wins[0].amount)
	require.Equal(t, "bob", losses[0].identity)
	require.Equal(t, int64(5000), losses[0].amount)

	// and one placement entry per bet
	require.Len(t, f.ledger.byKind(EntryBet), 2)
}

func TestEngineZeroBetRoundStillArchives(t *testing.T) {
	f := newEngineFixture(t)

	f.engine.Start()
	defer f.engine.Stop()

	require.Eventually(t, func() bool {
		return len(f.archive.all()) >= 1
	}, 3*time.Second, 5*time.Millisecond)

	record := f.archive.all()[0]
	require.Equal(t, 0, record.BetCount)
	require.Equal(t, int64(0), record.Volume)
	require.Empty(t, f.ledger.byKind(EntryWin))
	require.Empty(t, f.ledger.byKind(EntryLoss))
}

func TestEngineRoundsKeepCycling(t *testing.T) {
	f := newEngineFixture(t)

	f.engine.Start()
	defer f.engine.Stop()

	require.Eventually(t, func() bool {
		return len(f.archive.all()) >= 2
	}, 5*time.Second, 5*time.Millisecond)

	records := f.archive.all()
	require.NotEqual(t, records[0].RoundID, records[1].RoundID)
	require.NotEqual(t, records[0].ServerSeed, records[1].ServerSeed)
}

func TestEnginePlaceBetDuringFlight(t *testing.T) {
	f := newEngineFixture(t)
	f.balance.set("alice", 20000)

	f.engine.Start()
	defer f.engine.Stop()

	f.waitPhase(t, PhaseFlight)

	_, err := f.engine.PlaceBet("alice", 500, "")
	require.ErrorIs(t, err, ErrWrongPhase)
	require.Equal(t, int64(20000), f.mustBalance("alice"), "rejected bet must not touch the balance")
}

func TestEngineCashOutDuringBetting(t *testing.T) {
	f := newEngineFixture(t)
	f.balance.set("alice", 20000)

	f.engine.Start()
	defer f.engine.Stop()

	f.waitPhase(t, PhaseBetting)

	_, err := f.engine.PlaceBet("alice", 500, "")
	require.NoError(t, err)

	_, err = f.engine.CashOut("alice")
	require.ErrorIs(t, err, ErrWrongPhase)
}

func TestEngineDebitFailureRollsBackBet(t *testing.T) {
	f := newEngineFixture(t)
	f.balance.set("alice", 100)

	f.engine.Start()
	defer f.engine.Stop()

	f.waitPhase(t, PhaseBetting)

	_, err := f.engine.PlaceBet("alice", 5000, "")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// the slot is free again, not leaked
	f.balance.set("alice", 20000)
	_, err = f.engine.PlaceBet("alice", 5000, "")
	require.NoError(t, err)
}

func TestEngineDependencyUnavailable(t *testing.T) {
	f := newEngineFixture(t)
	f.balance.set("alice", 20000)
	f.balance.debitErr = errTestStorageDown

	f.engine.Start()
	defer f.engine.Stop()

	f.waitPhase(t, PhaseBetting)

	_, err := f.engine.PlaceBet("alice", 500, "")
	require.ErrorIs(t, err, ErrDependencyUnavailable)
}

func TestEngineMultiplierMonotonicAndOrdered(t *testing.T) {
	f := newEngineFixture(t)

	f.engine.Start()
	defer f.engine.Stop()

	require.Eventually(t, func() bool {
		return len(f.archive.all()) >= 1
	}, 3*time.Second, 5*time.Millisecond)

	record := f.archive.all()[0]
	roundID := record.RoundID.String()

	var (
		last       float64 = 1.0
		crashedAt          = -1
		lastUpdate         = -1
	)

	for i, ev := range f.pub.all() {
		if ev.Data["round_id"] != roundID {
			continue
		}

		switch ev.Name {
		case EventMultiplierUpdate:
			m := ev.Data["multiplier"].(float64)

			require.GreaterOrEqual(t, m, last, "multiplier must be non-decreasing")
			require.LessOrEqual(t, m, record.Target, "multiplier must never exceed the target")

			last = m
			lastUpdate = i
		case EventCrashed:
			crashedAt = i
		}
	}

	require.NotEqual(t, -1, crashedAt, "crashed event must be published")
	require.Less(t, lastUpdate, crashedAt, "no multiplier update may follow the crash")
}

func TestEngineStopMidFlightNeverArchives(t *testing.T) {
	f := newEngineFixture(t)

	f.engine.Start()

	f.waitPhase(t, PhaseFlight)

	f.engine.Stop()

	require.Empty(t, f.archive.all(), "a round torn down mid-flight is never persisted as crashed")
}

func TestFlightDurationBounds(t *testing.T) {
	f := newEngineFixture(t)
	cfg := testCrashConfig()

	for _, target := range []float64{1.00, 1.01, 1.92, 10, 420.69, 1000} {
		for _, jitter := range []float64{0, 0.25, 0.5, 0.999} {
			d := f.engine.flightDuration(target, jitter)

			require.GreaterOrEqual(t, d, cfg.MinFlightDuration)
			require.LessOrEqual(t, d, cfg.MaxFlightDuration)
		}
	}
}

func (f *engineFixture) mustBalance(identity string) int64 {
	balance, err := f.balance.Balance(identity)
	if err != nil {
		panic(err)
	}

	return balance
}

var errTestStorageDown = &testStorageErr{}

type testStorageErr struct{}

func (*testStorageErr) Error() string { return "storage down" }
