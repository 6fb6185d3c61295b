package domain

import (
	"math/rand"
	"testing"
)

func TestNewPackComposition(t *testing.T) {
	cfg := DefaultDeckConfig()
	pack := NewPack(cfg)

	if len(pack) != 162 {
		t.Fatalf("pack size = %d, want 162", len(pack))
	}
	if cfg.TotalCards() != 162 {
		t.Fatalf("TotalCards = %d, want 162", cfg.TotalCards())
	}

	ids := make(map[string]bool, len(pack))
	type rs struct {
		r Rank
		s Suit
	}
	counts := make(map[rs]int)
	wilds := 0
	for _, c := range pack {
		if ids[c.ID] {
			t.Fatalf("duplicate card id %s", c.ID)
		}
		ids[c.ID] = true
		if c.IsWild() {
			wilds++
			continue
		}
		counts[rs{c.Rank, c.Suit}]++
	}
	if wilds != 6 {
		t.Fatalf("wilds = %d, want 6", wilds)
	}
	for _, suit := range Suits {
		for r := RankAce; r <= RankKing; r++ {
			if counts[rs{r, suit}] != cfg.DeckCount {
				t.Fatalf("%s%s appears %d times, want %d", r.Label(), suit, counts[rs{r, suit}], cfg.DeckCount)
			}
		}
	}
}

func TestShufflePackLeavesInputAlone(t *testing.T) {
	cfg := DefaultDeckConfig()
	pack := NewPack(cfg)
	first := pack[0]

	a := ShufflePack(rand.New(rand.NewSource(7)), pack)
	b := ShufflePack(rand.New(rand.NewSource(7)), pack)

	if pack[0] != first {
		t.Fatalf("ShufflePack mutated its input")
	}
	if len(a) != len(pack) {
		t.Fatalf("shuffled size = %d, want %d", len(a), len(pack))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different orders at %d", i)
		}
	}
}

func TestDealCardsRoundTrip(t *testing.T) {
	cfg := DefaultDeckConfig()
	pack := ShufflePack(rand.New(rand.NewSource(42)), NewPack(cfg))

	deal, err := DealCards(pack, 4, cfg)
	if err != nil {
		t.Fatalf("deal error: %v", err)
	}

	for i, hand := range deal.Hands {
		if len(hand) != cfg.HandSize {
			t.Fatalf("hand %d has %d cards, want %d", i, len(hand), cfg.HandSize)
		}
	}
	for i, res := range deal.Reserves {
		if len(res) != cfg.ReserveSize {
			t.Fatalf("reserve %d has %d cards, want %d", i, len(res), cfg.ReserveSize)
		}
	}
	if want := 162 - 4*11 - 2*11 - 1; len(deal.DrawPile) != want {
		t.Fatalf("draw pile = %d cards, want %d", len(deal.DrawPile), want)
	}

	// Every pack card lands in exactly one place.
	seen := make(map[string]bool, len(pack))
	track := func(cards []Card) {
		for _, c := range cards {
			if seen[c.ID] {
				t.Fatalf("card %s dealt twice", c.ID)
			}
			seen[c.ID] = true
		}
	}
	for _, hand := range deal.Hands {
		track(hand)
	}
	for _, res := range deal.Reserves {
		track(res)
	}
	track([]Card{deal.DiscardTop})
	track(deal.DrawPile)
	if len(seen) != len(pack) {
		t.Fatalf("dealt %d distinct cards, want %d", len(seen), len(pack))
	}
}

func TestDealCardsRejectsShortPack(t *testing.T) {
	cfg := DeckConfig{DeckCount: 1, JokersPerDeck: 2, HandSize: 11, ReserveSize: 11}
	pack := NewPack(cfg)

	if _, err := DealCards(pack, 6, cfg); err == nil {
		t.Fatalf("one deck cannot serve six players, want error")
	}
}
