package domain

import (
	"fmt"
	"math/rand"
)

// DeckConfig controls pack composition and deal sizes.
type DeckConfig struct {
	DeckCount     int
	JokersPerDeck int
	HandSize      int
	ReserveSize   int
}

// DefaultDeckConfig returns the standard Buraco setup: three 52-card decks
// with two jokers each, 11-card hands and two 11-card reserve piles.
func DefaultDeckConfig() DeckConfig {
	return DeckConfig{
		DeckCount:     3,
		JokersPerDeck: 2,
		HandSize:      11,
		ReserveSize:   11,
	}
}

// TotalCards returns the full pack size for this configuration.
func (c DeckConfig) TotalCards() int {
	return c.DeckCount * (52 + c.JokersPerDeck)
}

// NewPack builds the unshuffled multi-deck pack. Every card gets a stable
// identity so duplicates across decks stay distinguishable.
func NewPack(cfg DeckConfig) []Card {
	pack := make([]Card, 0, cfg.TotalCards())
	for copyIdx := 0; copyIdx < cfg.DeckCount; copyIdx++ {
		for _, suit := range Suits {
			for r := RankAce; r <= RankKing; r++ {
				pack = append(pack, Card{ID: cardID(r, suit, copyIdx), Rank: r, Suit: suit})
			}
		}
	}
	jokers := cfg.DeckCount * cfg.JokersPerDeck
	for j := 0; j < jokers; j++ {
		pack = append(pack, Card{ID: cardID(RankWild, SuitWild, j), Rank: RankWild, Suit: SuitWild})
	}
	return pack
}

// ShufflePack returns a shuffled copy of the given pack.
func ShufflePack(rng *rand.Rand, pack []Card) []Card {
	out := make([]Card, len(pack))
	copy(out, pack)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Deal is the output of dealing a shuffled pack.
type Deal struct {
	Hands      [][]Card
	Reserves   [2][]Card
	DiscardTop Card
	DrawPile   []Card
}

// DealCards splits the pack into per-player hands, two face-down reserve
// piles, the discard starter and the draw pile. It fails only when the
// configuration cannot cover the deal; that is a setup error, not a runtime
// failure mode.
func DealCards(pack []Card, players int, cfg DeckConfig) (*Deal, error) {
	needed := players*cfg.HandSize + 2*cfg.ReserveSize + 1
	if needed > len(pack) {
		return nil, fmt.Errorf("deck of %d cards cannot deal %d players (%d needed)", len(pack), players, needed)
	}

	d := &Deal{Hands: make([][]Card, players)}
	idx := 0
	for p := 0; p < players; p++ {
		d.Hands[p] = append([]Card{}, pack[idx:idx+cfg.HandSize]...)
		idx += cfg.HandSize
	}
	for r := 0; r < 2; r++ {
		d.Reserves[r] = append([]Card{}, pack[idx:idx+cfg.ReserveSize]...)
		idx += cfg.ReserveSize
	}
	d.DiscardTop = pack[idx]
	idx++
	d.DrawPile = append([]Card{}, pack[idx:]...)
	return d, nil
}
