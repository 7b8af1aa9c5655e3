package deck

import (
	"crypto/sha1" // nolint:gosec
	"encoding/hex"

	"blackjack-server/internal/rng"

	"github.com/sirupsen/logrus"
)

// CardsPerDeck is the number of cards in a single deck
const CardsPerDeck = 52

// Shoe is a multi-deck pool of cards
// Cards are drawn from the front of the slice
type Shoe struct {
	Cards []*Card `json:"cards"`

	decks int
	rng   rng.Generator
	// dealt contains the cards drawn since the round began
	dealt []*Card
}

// NewShoe returns a shuffled shoe made of the specified number of decks
func NewShoe(decks int, gen rng.Generator) *Shoe {
	if decks <= 0 {
		decks = 1
	}

	if gen == nil {
		gen = rng.Crypto{}
	}

	s := &Shoe{
		decks: decks,
		rng:   gen,
	}

	s.Shuffle()
	return s
}

// Size returns the number of cards in a full shoe
func (s *Shoe) Size() int {
	return s.decks * CardsPerDeck
}

func (s *Shoe) buildShoe() []*Card {
	cards := make([]*Card, 0, s.Size())
	for i := 0; i < s.decks; i++ {
		for _, suit := range Suits {
			for rank := 2; rank <= Ace; rank++ {
				cards = append(cards, &Card{
					Rank: rank,
					Suit: suit,
				})
			}
		}
	}

	return cards
}

// Shuffle replaces the contents of the shoe with a freshly shuffled full shoe
func (s *Shoe) Shuffle() {
	s.Cards = s.buildShoe()
	s.dealt = nil
	s.shuffleCards()
}

func (s *Shoe) shuffleCards() {
	rng.Shuffle(s.rng, len(s.Cards), func(i, j int) {
		s.Cards[i], s.Cards[j] = s.Cards[j], s.Cards[i]
	})
}

// BeginRound must be called before the first card of a round is dealt
// If fewer than minCards remain, the shoe is reshuffled and true is returned
func (s *Shoe) BeginRound(minCards int) bool {
	s.dealt = nil
	if s.Remaining() < minCards {
		s.Shuffle()
		return true
	}

	return false
}

// Draw will draw the next card
// The shoe never runs dry. If it does mid-round, it is rebuilt without the cards already on the table.
func (s *Shoe) Draw() *Card {
	if len(s.Cards) == 0 {
		logrus.WithField("dealt", len(s.dealt)).Warn("shoe ran out mid-round, rebuilding without cards in play")
		s.refill()
	}

	card := s.Cards[0]
	s.Cards = s.Cards[1:]
	s.dealt = append(s.dealt, card)

	return card
}

// refill rebuilds the shoe minus one copy of every card dealt this round
func (s *Shoe) refill() {
	inPlay := make(map[Card]int, len(s.dealt))
	for _, card := range s.dealt {
		inPlay[*card]++
	}

	full := s.buildShoe()
	cards := make([]*Card, 0, len(full))
	for _, card := range full {
		if inPlay[*card] > 0 {
			inPlay[*card]--
			continue
		}

		cards = append(cards, card)
	}

	s.Cards = cards
	s.shuffleCards()
}

// Remaining returns the number of cards left in the shoe
func (s *Shoe) Remaining() int {
	return len(s.Cards)
}

// Clone returns a copy of the shoe that shares the (immutable) cards
func (s *Shoe) Clone() *Shoe {
	cp := *s
	cp.Cards = append([]*Card(nil), s.Cards...)
	cp.dealt = append([]*Card(nil), s.dealt...)

	return &cp
}

// HashCode returns a SHA1 hash code of the remaining cards.
func (s *Shoe) HashCode() string {
	hash := sha1.New() // nolint:gosec
	for _, card := range s.Cards {
		_, _ = hash.Write([]byte(card.String()))
	}

	return hex.EncodeToString(hash.Sum(nil))
}
