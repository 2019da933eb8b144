// Package lifecycle is the complaint lifecycle and access-control engine:
// ticket identifiers, the status state machine, visibility and mutation
// rules, notification derivation, dashboard aggregation and search.
//
// Everything here is a pure function of its inputs. Persistence and
// delivery live behind the interfaces in internal/store and internal/notify.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketPrefix starts every ticket identifier
const TicketPrefix = "CPLM-"

// MaxTicketAttempts bounds how many candidates are tried before giving up
const MaxTicketAttempts = 5

// TicketGenerator produces human-readable ticket identifiers.
// The first candidate is derived from the clock; retries add a random suffix.
type TicketGenerator struct {
	// Suffix returns the random part appended on retries
	Suffix      func() string
	MaxAttempts int
}

// NewTicketGenerator returns a generator using UUIDv4 randomness for retries
func NewTicketGenerator() *TicketGenerator {
	return &TicketGenerator{Suffix: randomSuffix, MaxAttempts: MaxTicketAttempts}
}

var defaultGenerator = NewTicketGenerator()

// GenerateTicketID returns a ticket id not present in existing
func GenerateTicketID(existing map[string]struct{}, now time.Time) (string, error) {
	return defaultGenerator.Generate(existing, now)
}

// Generate returns a ticket id not present in existing, or a
// DuplicateTicketError once MaxAttempts candidates were all taken.
func (g *TicketGenerator) Generate(existing map[string]struct{}, now time.Time) (string, error) {
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = MaxTicketAttempts
	}

	base := fmt.Sprintf("%s%06d", TicketPrefix, now.UnixMilli()%1_000_000)
	var candidate string
	for attempt := 0; attempt < attempts; attempt++ {
		candidate = base
		if attempt > 0 {
			candidate = base + "-" + g.suffix()
		}
		if _, taken := existing[candidate]; !taken {
			return candidate, nil
		}
	}
	return "", &DuplicateTicketError{Attempts: attempts, Last: candidate}
}

func (g *TicketGenerator) suffix() string {
	if g.Suffix == nil {
		return randomSuffix()
	}
	return g.Suffix()
}

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}
