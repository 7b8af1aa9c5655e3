package blackjack

// Phase is the stage of a round the table is in
type Phase string

// Phase constants
const (
	PhaseBetting         Phase = "betting"
	PhasePlaying         Phase = "playing"
	PhaseDealerResolving Phase = "dealer_resolving"
	PhasePayout          Phase = "payout"
)

func (p Phase) String() string {
	return string(p)
}
