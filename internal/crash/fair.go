package crash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"

	"go-crash/internal/lib/random"
)

const (
	seedBytes = 32

	// hexPrefixLen hex characters of the digest form the uniform draw.
	hexPrefixLen = 13

	MinMultiplier = 1.01
	MaxMultiplier = 1000.0
)

// Fair implements the commit-reveal outcome scheme: a fresh server seed is
// committed via its SHA-256 digest before any bet is accepted, and the crash
// multiplier is a pure function of the seed, so the operator cannot steer the
// outcome after seeing the wagers.
type Fair struct {
	houseEdge float64
}

func NewFair(houseEdge float64) *Fair {
	return &Fair{houseEdge: houseEdge}
}

// GenerateSeed returns a fresh hex-encoded server seed with seedBytes bytes
// of CSPRNG entropy. Seeds are never reused across rounds.
func (f *Fair) GenerateSeed() string {
	return random.NewRandomString(seedBytes)
}

// Commit returns the published commitment for a seed.
func (f *Fair) Commit(seed string) string {
	sum := sha256.Sum256([]byte(seed))

	return hex.EncodeToString(sum[:])
}

// DeriveOutcome deterministically maps (seed, clientSeed, nonce) to the crash
// multiplier. Same inputs always yield the same multiplier.
func (f *Fair) DeriveOutcome(seed string, clientSeed string, nonce int) float64 {
	return multiplierFromUnit(f.drawUnit(seed, clientSeed, nonce), f.houseEdge)
}

// DeriveJitter returns a deterministic value in [0, 1) from the tail of the
// same digest, used to perturb the flight duration so the early tick rate
// alone does not reveal the target.
func (f *Fair) DeriveJitter(seed string, clientSeed string, nonce int) float64 {
	digest := digestHex(seed, clientSeed, nonce)

	num, _ := strconv.ParseUint(digest[len(digest)-hexPrefixLen:], 16, 64)

	return float64(num) / math.Pow(16, hexPrefixLen)
}

// Verify recomputes the outcome from a revealed seed and checks the claimed
// multiplier against it. Anyone can run this once the seed is revealed.
func (f *Fair) Verify(seed string, clientSeed string, nonce int, claimed float64) bool {
	return math.Abs(f.DeriveOutcome(seed, clientSeed, nonce)-claimed) < 1e-9
}

func (f *Fair) drawUnit(seed string, clientSeed string, nonce int) float64 {
	digest := digestHex(seed, clientSeed, nonce)

	num, _ := strconv.ParseUint(digest[:hexPrefixLen], 16, 64)

	return float64(num) / math.Pow(16, hexPrefixLen)
}

func digestHex(seed string, clientSeed string, nonce int) string {
	h := hmac.New(sha256.New, []byte(seed))
	h.Write([]byte(clientSeed + "-" + strconv.Itoa(nonce)))

	return hex.EncodeToString(h.Sum(nil))
}

// multiplierFromUnit applies the crash-curve transform to a uniform draw
// e in [0, 1). The degenerate e == 0 yields 1.00 rather than dividing by
// zero; everything else is clamped to [MinMultiplier, MaxMultiplier] and
// rounded to two decimals.
func multiplierFromUnit(e float64, houseEdge float64) float64 {
	if e == 0 {
		return 1.00
	}

	raw := (1 - houseEdge) / e

	if raw < MinMultiplier {
		raw = MinMultiplier
	}

	if raw > MaxMultiplier {
		raw = MaxMultiplier
	}

	return math.Round(raw*100) / 100
}
