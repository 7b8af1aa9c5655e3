package blackjack

// PlayerInfo identifies a player joining a table
type PlayerInfo struct {
	// ID is the unique connection ID
	ID string
	// Identity is the authenticated account the chip balance belongs to
	Identity string
	Name     string
	Balance  int
}

// Seat is a player sitting at the table
type Seat struct {
	ID       string
	Identity string
	Name     string

	// Balance is the in-memory chip balance; the ledger owns the durable one
	Balance int
	Ready   bool
	// Bet is the chosen bet, kept between rounds as the default
	Bet   int
	Hands []*Hand

	Insurance       int
	InsurancePayout int

	// Connected is false once the player left mid-round
	Connected bool

	inRound bool
}

func (s *Seat) handIndex(hand *Hand) int {
	for i, h := range s.Hands {
		if h == hand {
			return i
		}
	}

	return -1
}

// insertHandAfter places newHand directly after hand
func (s *Seat) insertHandAfter(hand, newHand *Hand) {
	i := s.handIndex(hand)
	hands := make([]*Hand, 0, len(s.Hands)+1)
	hands = append(hands, s.Hands[:i+1]...)
	hands = append(hands, newHand)
	hands = append(hands, s.Hands[i+1:]...)
	s.Hands = hands
}

// Staked returns the total chips at risk this round
func (s *Seat) Staked() int {
	total := s.Insurance
	for _, h := range s.Hands {
		total += h.Bet
	}

	return total
}

func (s *Seat) resetRound() {
	s.Ready = false
	s.Hands = nil
	s.Insurance = 0
	s.InsurancePayout = 0
	s.inRound = false
}
