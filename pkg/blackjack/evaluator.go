package blackjack

import "blackjack-server/pkg/deck"

// Value returns the best total for the cards and whether an ace is still counted as 11
func Value(cards []*deck.Card) (best int, soft bool) {
	aces := 0
	for _, card := range cards {
		best += card.Points()
		if card.IsAce() {
			aces++
		}
	}

	for best > 21 && aces > 0 {
		best -= 10
		aces--
	}

	return best, aces > 0
}

// IsBlackjack returns true for exactly two cards totaling 21
func IsBlackjack(cards []*deck.Card) bool {
	if len(cards) != 2 {
		return false
	}

	best, _ := Value(cards)
	return best == 21
}

// IsBust returns true if the best total is over 21
func IsBust(cards []*deck.Card) bool {
	best, _ := Value(cards)
	return best > 21
}
