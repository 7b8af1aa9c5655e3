package blackjack

import "blackjack-server/pkg/deck"

// Outcome is how a hand finished against the dealer
type Outcome string

// Outcome constants
const (
	OutcomePending   Outcome = ""
	OutcomeBlackjack Outcome = "blackjack"
	OutcomeWin       Outcome = "win"
	OutcomePush      Outcome = "push"
	OutcomeLose      Outcome = "lose"
	OutcomeBust      Outcome = "bust"
)

// Hand is an ordered set of cards owned by a seat or the dealer
// Value, soft, busted and blackjack are always derived from the cards
type Hand struct {
	Cards []*deck.Card

	// Bet is the total stake on the hand, including a double
	Bet     int
	Doubled bool
	Stood   bool

	// Split is true for both hands created by a split
	Split bool

	Outcome Outcome
	// Payout is what was credited back at settlement (stake included)
	Payout int

	actions int
}

func (h *Hand) add(card *deck.Card) {
	h.Cards = append(h.Cards, card)
}

// Value returns the best total of the hand
func (h *Hand) Value() int {
	best, _ := Value(h.Cards)
	return best
}

// Soft returns true if an ace is counted as 11
func (h *Hand) Soft() bool {
	_, soft := Value(h.Cards)
	return soft
}

// Busted returns true if the hand is over 21
func (h *Hand) Busted() bool {
	return IsBust(h.Cards)
}

// Blackjack returns true for a natural: two cards totaling 21 that did not come from a split
func (h *Hand) Blackjack() bool {
	return !h.Split && IsBlackjack(h.Cards)
}

// Closed returns true if no more actions can be taken on the hand
func (h *Hand) Closed() bool {
	return h.Stood || h.Doubled || h.Busted() || h.Blackjack()
}

// CanDouble returns true when doubling would be the first action on a two-card hand
func (h *Hand) CanDouble() bool {
	return h.actions == 0 && len(h.Cards) == 2 && !h.Closed()
}

// CanSplit returns true when the hand is an untouched pair
func (h *Hand) CanSplit() bool {
	return h.CanDouble() && h.Cards[0].Rank == h.Cards[1].Rank
}

func (h *Hand) clone() *Hand {
	cp := *h
	cp.Cards = append([]*deck.Card(nil), h.Cards...)
	return &cp
}
