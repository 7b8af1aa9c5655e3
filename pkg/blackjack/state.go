package blackjack

import "blackjack-server/pkg/deck"

// hiddenCardCode is shown in place of the dealer's hole card
const hiddenCardCode = "??"

// CardState is a card as it is shown to players
type CardState struct {
	Code   string    `json:"code"`
	Rank   int       `json:"rank,omitempty"`
	Suit   deck.Suit `json:"suit,omitempty"`
	Hidden bool      `json:"hidden,omitempty"`
}

// HandState is a player hand as it is shown to players
type HandState struct {
	Index     int         `json:"index"`
	Cards     []CardState `json:"cards"`
	Bet       int         `json:"bet"`
	Value     int         `json:"value"`
	Soft      bool        `json:"soft"`
	Blackjack bool        `json:"blackjack"`
	Doubled   bool        `json:"doubled"`
	Busted    bool        `json:"busted"`
	Stood     bool        `json:"stood"`
	Split     bool        `json:"split"`
	Outcome   Outcome     `json:"outcome,omitempty"`
	Payout    int         `json:"payout"`
}

// PlayerState is a seat as it is shown to players
type PlayerState struct {
	Sid             string      `json:"sid"`
	Username        string      `json:"username"`
	Chips           int         `json:"chips"`
	Ready           bool        `json:"ready"`
	Bet             int         `json:"bet"`
	InsuranceBet    int         `json:"insurance_bet"`
	InsurancePayout int         `json:"insurance_payout"`
	ActiveHand      int         `json:"active_hand"`
	Playing         bool        `json:"playing"`
	Connected       bool        `json:"connected"`
	Hands           []HandState `json:"hands"`
}

// RoomState is the full snapshot of a room
// A client can render the table from a single RoomState.
type RoomState struct {
	Room          string        `json:"room"`
	Phase         Phase         `json:"phase"`
	Round         int           `json:"round"`
	HostSid       string        `json:"hostSid"`
	TurnSid       string        `json:"turnSid"`
	TurnHand      int           `json:"turnHand"`
	DealerHand    []CardState   `json:"dealerHand"`
	DealerValue   int           `json:"dealerValue"`
	DealerHidden  bool          `json:"dealerHidden"`
	ShoeRemaining int           `json:"shoeRemaining"`
	Players       []PlayerState `json:"players"`
}

// Summary is the public listing of a room
// It carries no hand or bet data.
type Summary struct {
	Room    string `json:"room"`
	Players int    `json:"players"`
	Phase   Phase  `json:"phase"`
}

func newCardState(card *deck.Card) CardState {
	return CardState{
		Code: card.Code(),
		Rank: card.Rank,
		Suit: card.Suit,
	}
}

func newCardStates(cards []*deck.Card) []CardState {
	states := make([]CardState, len(cards))
	for i, card := range cards {
		states[i] = newCardState(card)
	}

	return states
}

func newHandState(index int, hand *Hand) HandState {
	return HandState{
		Index:     index,
		Cards:     newCardStates(hand.Cards),
		Bet:       hand.Bet,
		Value:     hand.Value(),
		Soft:      hand.Soft(),
		Blackjack: hand.Blackjack(),
		Doubled:   hand.Doubled,
		Busted:    hand.Busted(),
		Stood:     hand.Stood,
		Split:     hand.Split,
		Outcome:   hand.Outcome,
		Payout:    hand.Payout,
	}
}

// State returns the current snapshot of the room
func (s *Session) State() *RoomState {
	state := &RoomState{
		Room:          s.Code,
		Phase:         s.phase,
		Round:         s.round,
		HostSid:       s.hostID,
		TurnHand:      -1,
		DealerHand:    []CardState{},
		ShoeRemaining: s.shoe.Remaining(),
		Players:       make([]PlayerState, 0, len(s.seats)),
	}

	var turnSeat *Seat
	var turnHand *Hand
	if s.phase == PhasePlaying {
		if seat, hand, ok := s.turns.Current(); ok {
			turnSeat, turnHand = seat, hand
			state.TurnSid = seat.ID
			state.TurnHand = seat.handIndex(hand)
		}
	}

	if s.dealer != nil {
		if s.revealed {
			state.DealerHand = newCardStates(s.dealer.Cards)
			state.DealerValue = s.dealer.Value()
		} else {
			for i, card := range s.dealer.Cards {
				if i == 1 {
					state.DealerHand = append(state.DealerHand, CardState{Code: hiddenCardCode, Hidden: true})
					state.DealerHidden = true
					continue
				}

				state.DealerHand = append(state.DealerHand, newCardState(card))
			}

			if len(s.dealer.Cards) > 0 {
				state.DealerValue, _ = Value(s.dealer.Cards[:1])
			}
		}
	}

	for _, seat := range s.seats {
		ps := PlayerState{
			Sid:             seat.ID,
			Username:        seat.Name,
			Chips:           seat.Balance,
			Ready:           seat.Ready,
			Bet:             seat.Bet,
			InsuranceBet:    seat.Insurance,
			InsurancePayout: seat.InsurancePayout,
			Playing:         seat.inRound,
			Connected:       seat.Connected,
			Hands:           make([]HandState, len(seat.Hands)),
		}

		if seat == turnSeat {
			ps.ActiveHand = seat.handIndex(turnHand)
		}

		for i, hand := range seat.Hands {
			ps.Hands[i] = newHandState(i, hand)
		}

		state.Players = append(state.Players, ps)
	}

	return state
}

// Summary returns the public listing of the room
func (s *Session) Summary() Summary {
	return Summary{
		Room:    s.Code,
		Players: s.PlayerCount(),
		Phase:   s.phase,
	}
}
