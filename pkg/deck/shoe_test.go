package deck

import (
	"testing"

	"blackjack-server/internal/rng"

	"github.com/stretchr/testify/assert"
)

func TestNewShoe(t *testing.T) {
	a := assert.New(t)

	s := NewShoe(6, rng.Seeded(1))
	a.Equal(312, s.Size())
	a.Equal(312, s.Remaining())

	counts := make(map[Card]int)
	for _, card := range s.Cards {
		counts[*card]++
	}

	a.Equal(52, len(counts))
	for card, count := range counts {
		a.Equal(6, count, "expected six copies of %s", card.String())
	}

	a.Equal(52, NewShoe(0, rng.Seeded(1)).Size(), "zero decks falls back to one")
}

func TestShoe_ShuffleIsDeterministicPerSeed(t *testing.T) {
	a := assert.New(t)

	s1 := NewShoe(2, rng.Seeded(42))
	s2 := NewShoe(2, rng.Seeded(42))
	s3 := NewShoe(2, rng.Seeded(43))

	a.Equal(s1.HashCode(), s2.HashCode())
	a.NotEqual(s1.HashCode(), s3.HashCode())
}

func TestShoe_Draw(t *testing.T) {
	a := assert.New(t)

	s := NewShoe(1, rng.Seeded(1))
	s.Cards = CardsFromString("14s,13h,2c")

	a.Equal("14s", CardToString(s.Draw()))
	a.Equal("13h", CardToString(s.Draw()))
	a.Equal(1, s.Remaining())
}

func TestShoe_BeginRound(t *testing.T) {
	a := assert.New(t)

	s := NewShoe(1, rng.Seeded(1))
	s.Cards = CardsFromString("14s,13h,2c")

	a.False(s.BeginRound(3))
	a.Equal(3, s.Remaining())

	a.True(s.BeginRound(4))
	a.Equal(52, s.Remaining())
}

func TestShoe_DrawRefillsWithoutCardsInPlay(t *testing.T) {
	a := assert.New(t)

	s := NewShoe(1, rng.Seeded(1))
	s.BeginRound(0)
	s.Cards = CardsFromString("14s,13h")

	first := s.Draw()
	second := s.Draw()
	a.Equal(0, s.Remaining())

	third := s.Draw()
	a.NotNil(third)
	a.False(third.Equal(first))
	a.False(third.Equal(second))

	// 52 cards minus the two dealt before the refill, minus the third card
	a.Equal(49, s.Remaining())
	for _, card := range s.Cards {
		a.False(card.Equal(first))
		a.False(card.Equal(second))
	}
}

func TestShoe_Clone(t *testing.T) {
	a := assert.New(t)

	s := NewShoe(1, rng.Seeded(1))
	cp := s.Clone()
	s.Draw()

	a.Equal(51, s.Remaining())
	a.Equal(52, cp.Remaining())
}
