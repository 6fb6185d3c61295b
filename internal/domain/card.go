package domain

import "fmt"

// Suit identifies one of the four French suits. Wild cards carry SuitWild.
type Suit string

const (
	SuitSpades   Suit = "S"
	SuitHearts   Suit = "H"
	SuitDiamonds Suit = "D"
	SuitClubs    Suit = "C"
	// SuitWild marks a card of wild origin; it never matches a natural suit.
	SuitWild Suit = "*"
)

// Suits lists the natural suits in deck-building order.
var Suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// Rank runs A,2..10,J,Q,K as 1..13. RankWild is the only wild rank;
// no natural rank is ever treated as wild.
type Rank int

const (
	RankWild Rank = 0
	RankAce  Rank = 1
	RankJack Rank = 11
	RankQueen Rank = 12
	RankKing Rank = 13
)

var rankLabels = map[Rank]string{
	RankWild: "W", RankAce: "A", 2: "2", 3: "3", 4: "4", 5: "5", 6: "6",
	7: "7", 8: "8", 9: "9", 10: "10", RankJack: "J", RankQueen: "Q", RankKing: "K",
}

// Label returns the short display label for the rank ("A", "10", "W", ...).
func (r Rank) Label() string {
	return rankLabels[r]
}

// Card is a single card from the multi-deck pack. ID distinguishes
// physically identical cards across decks and is stable for the whole round.
type Card struct {
	ID   string `json:"id"`
	Rank Rank   `json:"rank"`
	Suit Suit   `json:"suit"`
}

// IsWild reports whether the card is the designated wild (joker) rank.
func (c Card) IsWild() bool {
	return c.Rank == RankWild
}

func (c Card) String() string {
	if c.IsWild() {
		return "W"
	}
	return fmt.Sprintf("%s%s", c.Rank.Label(), c.Suit)
}

// cardID builds the stable identity for the copyIdx-th copy of a card.
func cardID(rank Rank, suit Suit, copyIdx int) string {
	if rank == RankWild {
		return fmt.Sprintf("W-%d", copyIdx)
	}
	return fmt.Sprintf("%s%s-%d", rank.Label(), suit, copyIdx)
}
