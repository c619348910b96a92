package crash

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func testRound() Round {
	return Round{
		ID:         uuid.New(),
		ServerSeed: "seed",
		SeedHash:   "hash",
		ClientSeed: "client",
		Nonce:      7,
		Target:     1.92,
		CrashedAt:  time.Now(),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSettleMixedBets(t *testing.T) {
	ledger := &fakeLedger{}
	archive := &fakeArchive{}

	settler := NewSettler(quietLogger(), ledger, archive, nil)

	round := testRound()
	bets := []Bet{
		{
			Identity:         "alice",
			Amount:           10000,
			CashedOut:        true,
			PayoutMultiplier: 1.5,
			Payout:           15000,
			PlacedAt:         time.Now(),
		},
		{
			Identity: "bob",
			Amount:   5000,
			PlacedAt: time.Now(),
		},
	}

	settler.Settle(round, bets)

	wins := ledger.byKind(EntryWin)
	require.Len(t, wins, 1)
	require.Equal(t, "alice", wins[0].identity)
	require.Equal(t, int64(15000), wins[0].amount)
	require.Equal(t, round.ID.String(), wins[0].meta["round_id"])
	require.Equal(t, 1.5, wins[0].meta["multiplier"])

	losses := ledger.byKind(EntryLoss)
	require.Len(t, losses, 1)
	require.Equal(t, "bob", losses[0].identity)
	require.Equal(t, int64(5000), losses[0].amount)

	records := archive.all()
	require.Len(t, records, 1)
	require.Equal(t, round.ID, records[0].RoundID)
	require.Equal(t, "seed", records[0].ServerSeed)
	require.Equal(t, 2, records[0].BetCount)
	require.Equal(t, int64(15000), records[0].Volume)
}

func TestSettleZeroBets(t *testing.T) {
	ledger := &fakeLedger{}
	archive := &fakeArchive{}

	settler := NewSettler(quietLogger(), ledger, archive, nil)

	settler.Settle(testRound(), nil)

	require.Empty(t, ledger.entries)

	records := archive.all()
	require.Len(t, records, 1)
	require.Equal(t, 0, records[0].BetCount)
}

func TestSettleLedgerFailureDoesNotAbort(t *testing.T) {
	ledger := &fakeLedger{err: errTestStorageDown}
	archive := &fakeArchive{}

	var retried []string
	retry := func(name string, fn func() error) {
		retried = append(retried, name)
	}

	settler := NewSettler(quietLogger(), ledger, archive, retry)

	settler.Settle(testRound(), []Bet{
		{Identity: "alice", Amount: 1000, PlacedAt: time.Now()},
		{Identity: "bob", Amount: 2000, PlacedAt: time.Now()},
	})

	// both failed entries were handed to the retry queue, and the archive
	// write still happened
	require.Equal(t, []string{"ledger-entry", "ledger-entry"}, retried)
	require.Len(t, archive.all(), 1)
}

func TestSettleArchiveFailureIsRetried(t *testing.T) {
	ledger := &fakeLedger{}
	archive := &fakeArchive{err: errTestStorageDown}

	var retried []string
	retry := func(name string, fn func() error) {
		retried = append(retried, name)
	}

	settler := NewSettler(quietLogger(), ledger, archive, retry)

	settler.Settle(testRound(), []Bet{
		{Identity: "alice", Amount: 1000, PlacedAt: time.Now()},
	})

	require.Equal(t, []string{"round-archive"}, retried)
	require.Len(t, ledger.byKind(EntryLoss), 1)
}
