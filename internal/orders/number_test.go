package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	number := NewOrderNumber(now)

	// préfixe daté + suffixe lisible, dictable au support
	assert.Regexp(t, regexp.MustCompile(`^MH-20260831-[23456789ABCDEFGHJKMNPQRSTUVWXYZ]{6}$`), number)
}

func TestOrderNumberVariesBetweenCalls(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[NewOrderNumber(now)] = true
	}
	// pas une garantie d'unicité (c'est le rôle de la réservation en base),
	// mais 100 tirages identiques trahiraient un générateur cassé
	require.Greater(t, len(seen), 90)
}

func TestOrderNumberNoAmbiguousCharacters(t *testing.T) {
	now := time.Now()
	for i := 0; i < 50; i++ {
		number := NewOrderNumber(now)
		suffix := number[len(number)-6:]
		for _, c := range suffix {
			assert.NotContains(t, "01OIL", string(c))
		}
	}
}
