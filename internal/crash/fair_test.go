package crash

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplierFromUnit(t *testing.T) {
	cases := []struct {
		name string
		e    float64
		edge float64
		want float64
	}{
		{
			name: "MidDraw",
			e:    0.5,
			edge: 0.04,
			want: 1.92,
		},
		{
			name: "QuarterDraw",
			e:    0.25,
			edge: 0.04,
			want: 3.84,
		},
		{
			name: "DegenerateZero",
			e:    0,
			edge: 0.04,
			want: 1.00,
		},
		{
			name: "ClampedToMinimum",
			e:    0.99,
			edge: 0.04,
			want: 1.01,
		},
		{
			name: "ClampedToMaximum",
			e:    0.0000001,
			edge: 0.04,
			want: 1000,
		},
		{
			name: "NoEdge",
			e:    0.5,
			edge: 0,
			want: 2.00,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := multiplierFromUnit(tc.e, tc.edge)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestDeriveOutcomeDeterministic(t *testing.T) {
	fair := NewFair(0.04)

	for i := 0; i < 50; i++ {
		seed := fair.GenerateSeed()

		first := fair.DeriveOutcome(seed, "client", i)
		second := fair.DeriveOutcome(seed, "client", i)

		require.Equal(t, first, second)
		require.True(t, fair.Verify(seed, "client", i, first))
	}
}

func TestDeriveOutcomeRange(t *testing.T) {
	fair := NewFair(0.04)

	for i := 0; i < 500; i++ {
		seed := fair.GenerateSeed()
		m := fair.DeriveOutcome(seed, "client", 1)

		require.GreaterOrEqual(t, m, MinMultiplier)
		require.LessOrEqual(t, m, MaxMultiplier)

		// rounded to exactly two decimals
		require.InDelta(t, m, math.Round(m*100)/100, 1e-12)
	}
}

func TestDeriveOutcomeSensitivity(t *testing.T) {
	fair := NewFair(0.04)
	seed := fair.GenerateSeed()

	base := fair.drawUnit(seed, "client", 1)

	assert.NotEqual(t, base, fair.drawUnit(seed, "client", 2),
		"nonce must change the draw")
	assert.NotEqual(t, base, fair.drawUnit(seed, "other", 1),
		"client seed must change the draw")
}

func TestCommit(t *testing.T) {
	fair := NewFair(0.04)

	seed := fair.GenerateSeed()
	other := fair.GenerateSeed()

	require.Len(t, fair.Commit(seed), 64)
	require.Equal(t, fair.Commit(seed), fair.Commit(seed))
	require.NotEqual(t, fair.Commit(seed), fair.Commit(other))
}

func TestGenerateSeedNeverRepeats(t *testing.T) {
	fair := NewFair(0.04)

	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		seed := fair.GenerateSeed()

		require.Len(t, seed, 64)
		require.False(t, seen[seed])

		seen[seed] = true
	}
}

func TestVerifyRejectsWrongMultiplier(t *testing.T) {
	fair := NewFair(0.04)
	seed := fair.GenerateSeed()

	m := fair.DeriveOutcome(seed, "client", 1)

	require.True(t, fair.Verify(seed, "client", 1, m))
	require.False(t, fair.Verify(seed, "client", 1, m+0.01))
	require.False(t, fair.Verify(seed, "wrong", 1, m))
}

func TestDeriveJitterBounded(t *testing.T) {
	fair := NewFair(0.04)

	for i := 0; i < 100; i++ {
		seed := fair.GenerateSeed()
		j := fair.DeriveJitter(seed, "client", 1)

		require.GreaterOrEqual(t, j, 0.0)
		require.Less(t, j, 1.0)
		require.Equal(t, j, fair.DeriveJitter(seed, "client", 1))
	}
}
