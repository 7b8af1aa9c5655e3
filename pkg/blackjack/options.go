package blackjack

// Options contains the house rules for a table
type Options struct {
	// Decks is the number of decks in the shoe
	Decks int `yaml:"decks"`

	// CutCard is the minimum number of cards left in the shoe at the start of a round
	// The shoe is reshuffled between rounds when fewer remain
	CutCard int `yaml:"cutCard"`

	// MaxHands limits how many hands a player can hold after splitting
	MaxHands int `yaml:"maxHands"`

	// SeatCap is the maximum number of players in a room
	SeatCap int `yaml:"seatCap"`

	// StandsOnSoft17 controls whether the dealer stands (true) or hits (false) on a soft 17
	StandsOnSoft17 bool `yaml:"standsOnSoft17"`

	// LogLimit is how many round log entries are retained
	LogLimit int `yaml:"logLimit"`

	// MaxChatLength is the longest chat message accepted
	MaxChatLength int `yaml:"maxChatLength"`
}

// DefaultOptions returns the default set of options
func DefaultOptions() Options {
	return Options{
		Decks:          6,
		CutCard:        78,
		MaxHands:       4,
		SeatCap:        7,
		StandsOnSoft17: true,
		LogLimit:       60,
		MaxChatLength:  300,
	}
}

// withDefaults fills in zero values
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Decks <= 0 {
		o.Decks = d.Decks
	}

	if o.MaxHands < 2 {
		o.MaxHands = d.MaxHands
	}

	if o.SeatCap <= 0 {
		o.SeatCap = d.SeatCap
	}

	if o.LogLimit <= 0 {
		o.LogLimit = d.LogLimit
	}

	if o.MaxChatLength <= 0 {
		o.MaxChatLength = d.MaxChatLength
	}

	return o
}
