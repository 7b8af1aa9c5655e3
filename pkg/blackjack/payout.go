package blackjack

// HandResult is the settlement of a single player hand
type HandResult struct {
	SeatID    string  `json:"seatId"`
	Identity  string  `json:"identity"`
	HandIndex int     `json:"handIndex"`
	Outcome   Outcome `json:"outcome"`
	Stake     int     `json:"stake"`
	// Credit is what is returned to the player, stake included
	Credit int `json:"credit"`
}

// InsuranceResult is the settlement of an insurance side bet
type InsuranceResult struct {
	SeatID   string `json:"seatId"`
	Identity string `json:"identity"`
	Stake    int    `json:"stake"`
	Credit   int    `json:"credit"`
}

// Settlement is the outcome of a round
type Settlement struct {
	Round     int               `json:"round"`
	Hands     []HandResult      `json:"hands"`
	Insurance []InsuranceResult `json:"insurance"`
	// Deltas is the net chip change per identity (credits minus stakes)
	Deltas map[string]int `json:"deltas"`
}

// Resolve computes the settlement of every seat in the round against the dealer
// It does not modify the dealer or the seats.
func Resolve(dealer *Hand, seats []*Seat) *Settlement {
	s := &Settlement{
		Deltas: make(map[string]int),
	}

	dealerBlackjack := dealer.Blackjack()
	for _, seat := range seats {
		if !seat.inRound {
			continue
		}

		if seat.Insurance > 0 {
			credit := 0
			if dealerBlackjack {
				credit = seat.Insurance * 3
			}

			s.Insurance = append(s.Insurance, InsuranceResult{
				SeatID:   seat.ID,
				Identity: seat.Identity,
				Stake:    seat.Insurance,
				Credit:   credit,
			})

			s.Deltas[seat.Identity] += credit - seat.Insurance
		}

		for i, hand := range seat.Hands {
			outcome, credit := resolveHand(dealer, hand)
			s.Hands = append(s.Hands, HandResult{
				SeatID:    seat.ID,
				Identity:  seat.Identity,
				HandIndex: i,
				Outcome:   outcome,
				Stake:     hand.Bet,
				Credit:    credit,
			})

			s.Deltas[seat.Identity] += credit - hand.Bet
		}
	}

	return s
}

// resolveHand returns the outcome of the hand and the amount credited back
func resolveHand(dealer, hand *Hand) (Outcome, int) {
	stake := hand.Bet
	switch {
	case hand.Busted():
		return OutcomeBust, 0
	case hand.Blackjack() && dealer.Blackjack():
		return OutcomePush, stake
	case hand.Blackjack():
		return OutcomeBlackjack, stake + stake*3/2
	case dealer.Blackjack():
		return OutcomeLose, 0
	case dealer.Busted():
		return OutcomeWin, stake * 2
	}

	player, house := hand.Value(), dealer.Value()
	switch {
	case player > house:
		return OutcomeWin, stake * 2
	case player == house:
		return OutcomePush, stake
	}

	return OutcomeLose, 0
}

// apply credits the settlement to the in-memory seats
// Every value is taken from the settlement, so no seat state is read while applying.
func (s *Settlement) apply(seats []*Seat) {
	byID := make(map[string]*Seat, len(seats))
	for _, seat := range seats {
		byID[seat.ID] = seat
	}

	for _, ins := range s.Insurance {
		seat := byID[ins.SeatID]
		seat.InsurancePayout = ins.Credit
		seat.Balance += ins.Credit
	}

	for _, res := range s.Hands {
		seat := byID[res.SeatID]
		hand := seat.Hands[res.HandIndex]
		hand.Outcome = res.Outcome
		hand.Payout = res.Credit
		seat.Balance += res.Credit
	}
}

// Delta returns the net change for an identity
func (s *Settlement) Delta(identity string) int {
	if s == nil {
		return 0
	}

	return s.Deltas[identity]
}
