package domain

import (
	"errors"
	"fmt"
	"testing"
)

// hand assigns positional ids so cards from the same template stay unique.
func hand(cards ...Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		c.ID = fmt.Sprintf("c%d", i)
		out[i] = c
	}
	return out
}

func nat(r Rank, s Suit) Card {
	return Card{Rank: r, Suit: s}
}

func wild() Card {
	return Card{Rank: RankWild, Suit: SuitWild}
}

func ids(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestValidateSet(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		valid bool
		clean bool
	}{
		{
			name:  "three sevens",
			cards: hand(nat(7, SuitHearts), nat(7, SuitSpades), nat(7, SuitClubs)),
			valid: true,
			clean: true,
		},
		{
			name:  "three sevens plus wild",
			cards: hand(nat(7, SuitHearts), nat(7, SuitSpades), nat(7, SuitClubs), wild()),
			valid: true,
		},
		{
			name:  "too few cards",
			cards: hand(nat(7, SuitHearts), nat(7, SuitSpades)),
		},
		{
			name: "too many cards",
			cards: hand(nat(7, SuitHearts), nat(7, SuitSpades), nat(7, SuitClubs), nat(7, SuitDiamonds),
				nat(7, SuitHearts), nat(7, SuitSpades), nat(7, SuitClubs), nat(7, SuitDiamonds)),
		},
		{
			name:  "two wilds",
			cards: hand(nat(7, SuitHearts), nat(7, SuitSpades), wild(), wild()),
		},
		{
			name:  "all wilds",
			cards: hand(wild(), wild(), wild()),
		},
		{
			name:  "mixed ranks",
			cards: hand(nat(7, SuitHearts), nat(8, SuitSpades), nat(7, SuitClubs)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ValidateSet(tt.cards)
			if tt.valid && err != nil {
				t.Fatalf("ValidateSet() error = %v, want valid", err)
			}
			if !tt.valid {
				if !errors.Is(err, ErrInvalidMeld) {
					t.Fatalf("ValidateSet() error = %v, want ErrInvalidMeld", err)
				}
				return
			}
			if info.Kind != MeldSet {
				t.Errorf("kind = %v, want set", info.Kind)
			}
			if info.Rank != 7 {
				t.Errorf("rank = %v, want 7", info.Rank)
			}
			if info.Clean != tt.clean {
				t.Errorf("clean = %t, want %t", info.Clean, tt.clean)
			}
		})
	}
}

func TestValidateSequence(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		valid bool
		clean bool
	}{
		{
			name:  "three four five of hearts",
			cards: hand(nat(3, SuitHearts), nat(4, SuitHearts), nat(5, SuitHearts)),
			valid: true,
			clean: true,
		},
		{
			name:  "wild fills the six",
			cards: hand(nat(3, SuitHearts), nat(4, SuitHearts), nat(5, SuitHearts), wild(), nat(7, SuitHearts)),
			valid: true,
		},
		{
			name:  "ace low",
			cards: hand(nat(RankAce, SuitClubs), nat(2, SuitClubs), nat(3, SuitClubs)),
			valid: true,
			clean: true,
		},
		{
			name:  "ace high behind natural king",
			cards: hand(nat(RankQueen, SuitSpades), nat(RankKing, SuitSpades), nat(RankAce, SuitSpades)),
			valid: true,
			clean: true,
		},
		{
			name:  "wild stands in for the king",
			cards: hand(nat(RankAce, SuitHearts), nat(RankQueen, SuitHearts), wild()),
			valid: true,
		},
		{
			name:  "jack and wild cannot bridge to the ace",
			cards: hand(nat(RankAce, SuitHearts), nat(RankJack, SuitHearts), wild()),
		},
		{
			name:  "natural two keeps the ace low",
			cards: hand(nat(RankAce, SuitHearts), nat(2, SuitHearts), wild()),
			valid: true,
		},
		{
			name:  "duplicate rank in suit",
			cards: hand(nat(3, SuitHearts), nat(3, SuitHearts), nat(4, SuitHearts)),
		},
		{
			name:  "mixed suits",
			cards: hand(nat(3, SuitHearts), nat(4, SuitSpades), nat(5, SuitHearts)),
		},
		{
			name:  "two gaps for one wild",
			cards: hand(nat(3, SuitHearts), nat(5, SuitHearts), nat(7, SuitHearts), wild()),
		},
		{
			name:  "two wilds",
			cards: hand(nat(3, SuitHearts), nat(4, SuitHearts), wild(), wild()),
		},
		{
			name:  "all wilds",
			cards: hand(wild(), wild(), wild()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ValidateSequence(tt.cards)
			if tt.valid && err != nil {
				t.Fatalf("ValidateSequence() error = %v, want valid", err)
			}
			if !tt.valid {
				if !errors.Is(err, ErrInvalidMeld) {
					t.Fatalf("ValidateSequence() error = %v, want ErrInvalidMeld", err)
				}
				return
			}
			if info.Kind != MeldSequence {
				t.Errorf("kind = %v, want sequence", info.Kind)
			}
			if info.Clean != tt.clean {
				t.Errorf("clean = %t, want %t", info.Clean, tt.clean)
			}
		})
	}
}

func TestSortSequencePlacesWild(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		want  []Rank // expected rank order after sorting
	}{
		{
			name:  "wild into the internal gap",
			cards: hand(nat(3, SuitHearts), nat(5, SuitHearts), wild(), nat(4, SuitHearts), nat(7, SuitHearts)),
			want:  []Rank{3, 4, 5, RankWild, 7},
		},
		{
			name:  "no gap puts the wild at the high end",
			cards: hand(wild(), nat(2, SuitClubs), nat(3, SuitClubs), nat(4, SuitClubs)),
			want:  []Rank{2, 3, 4, RankWild},
		},
		{
			name:  "ace high run puts the wild at the low end",
			cards: hand(nat(RankAce, SuitSpades), nat(RankKing, SuitSpades), nat(RankQueen, SuitSpades), wild()),
			want:  []Rank{RankWild, RankQueen, RankKing, RankAce},
		},
		{
			name:  "wild as the missing king",
			cards: hand(nat(RankAce, SuitHearts), wild(), nat(RankQueen, SuitHearts)),
			want:  []Rank{RankQueen, RankWild, RankAce},
		},
		{
			name:  "ace low stays in front",
			cards: hand(nat(3, SuitClubs), nat(RankAce, SuitClubs), nat(2, SuitClubs), wild()),
			want:  []Rank{RankAce, 2, 3, RankWild},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sorted := SortSequence(tt.cards)
			if len(sorted) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(sorted), len(tt.want))
			}
			for i, r := range tt.want {
				if sorted[i].Rank != r {
					t.Fatalf("position %d = %v, want %v (order %v)", i, sorted[i].Rank, r, sorted)
				}
			}

			// Sorting an already-sorted meld must return the same order.
			again := SortSequence(sorted)
			for i := range sorted {
				if again[i].ID != sorted[i].ID {
					t.Fatalf("sort not idempotent at position %d", i)
				}
			}
		})
	}
}

func TestSequenceGrowsIntoDirtyBurraco(t *testing.T) {
	meld, err := NewMeld(hand(nat(3, SuitHearts), nat(4, SuitHearts), nat(5, SuitHearts)))
	if err != nil {
		t.Fatalf("NewMeld error: %v", err)
	}
	if !meld.IsClean() || meld.IsBurraco() {
		t.Fatalf("3-4-5 should be clean and not a burraco")
	}

	w := wild()
	w.ID = "w0"
	seven := nat(7, SuitHearts)
	seven.ID = "x7"
	if err := meld.Extend([]Card{w, seven}); err != nil {
		t.Fatalf("extend with wild and seven: %v", err)
	}
	if meld.IsClean() {
		t.Fatalf("meld with wild should be dirty")
	}

	eight := nat(8, SuitHearts)
	eight.ID = "x8"
	if err := meld.Extend([]Card{eight}); err != nil {
		t.Fatalf("extend with eight: %v", err)
	}
	if meld.IsBurraco() {
		t.Fatalf("six cards is not a burraco")
	}

	nine := nat(9, SuitHearts)
	nine.ID = "x9"
	if err := meld.Extend([]Card{nine}); err != nil {
		t.Fatalf("extend with nine: %v", err)
	}
	if !meld.IsBurraco() {
		t.Fatalf("seven cards should be a burraco")
	}
	if ClassifyBurraco(meld) != BurracoDirty {
		t.Fatalf("burraco class = %v, want dirty", ClassifyBurraco(meld))
	}
}

func TestExtendRejectsSecondWild(t *testing.T) {
	seq, err := NewMeld(hand(nat(3, SuitHearts), nat(4, SuitHearts), wild()))
	if err != nil {
		t.Fatalf("NewMeld sequence error: %v", err)
	}
	set, err := NewMeld(hand(nat(9, SuitHearts), nat(9, SuitSpades), wild()))
	if err != nil {
		t.Fatalf("NewMeld set error: %v", err)
	}

	w := wild()
	w.ID = "w-extra"
	for _, meld := range []*Meld{seq, set} {
		if _, err := CanExtend(meld, []Card{w}); !errors.Is(err, ErrInvalidExtension) {
			t.Fatalf("CanExtend(%v, wild) error = %v, want ErrInvalidExtension", meld.Kind, err)
		}
	}
}

func TestExtendRepositionsWild(t *testing.T) {
	// Wild sits at the high end as a stand-in six; the natural six arrives
	// and the wild must conceptually move to the new top.
	meld, err := NewMeld(hand(nat(4, SuitClubs), nat(5, SuitClubs), wild()))
	if err != nil {
		t.Fatalf("NewMeld error: %v", err)
	}
	six := nat(6, SuitClubs)
	six.ID = "x6"
	seven := nat(7, SuitClubs)
	seven.ID = "x7"
	if err := meld.Extend([]Card{six, seven}); err != nil {
		t.Fatalf("extend error: %v", err)
	}
	want := []Rank{4, 5, 6, 7, RankWild}
	for i, r := range want {
		if meld.Cards[i].Rank != r {
			t.Fatalf("position %d = %v, want %v", i, meld.Cards[i].Rank, r)
		}
	}
}

func TestExtendRejectsWrongSuitAndRank(t *testing.T) {
	seq, _ := NewMeld(hand(nat(3, SuitHearts), nat(4, SuitHearts), nat(5, SuitHearts)))
	off := nat(6, SuitSpades)
	off.ID = "x"
	if _, err := CanExtend(seq, []Card{off}); !errors.Is(err, ErrInvalidExtension) {
		t.Fatalf("wrong suit extension error = %v, want ErrInvalidExtension", err)
	}

	set, _ := NewMeld(hand(nat(9, SuitHearts), nat(9, SuitSpades), nat(9, SuitClubs)))
	ten := nat(10, SuitHearts)
	ten.ID = "y"
	if _, err := CanExtend(set, []Card{ten}); !errors.Is(err, ErrInvalidExtension) {
		t.Fatalf("wrong rank extension error = %v, want ErrInvalidExtension", err)
	}
}

func TestReplaceWild(t *testing.T) {
	meld, err := NewMeld(hand(nat(3, SuitHearts), nat(4, SuitHearts), wild(), nat(6, SuitHearts)))
	if err != nil {
		t.Fatalf("NewMeld error: %v", err)
	}

	five := nat(5, SuitHearts)
	five.ID = "x5"
	w, err := meld.ReplaceWild(five)
	if err != nil {
		t.Fatalf("ReplaceWild error: %v", err)
	}
	if !w.IsWild() {
		t.Fatalf("returned card should be the wild")
	}
	if !meld.IsClean() {
		t.Fatalf("meld should be clean after the swap")
	}
	want := []Rank{3, 4, 5, 6}
	for i, r := range want {
		if meld.Cards[i].Rank != r {
			t.Fatalf("position %d = %v, want %v", i, meld.Cards[i].Rank, r)
		}
	}
}

func TestReplaceWildRejections(t *testing.T) {
	set, _ := NewMeld(hand(nat(9, SuitHearts), nat(9, SuitSpades), wild()))
	if _, err := set.ReplaceWild(nat(9, SuitClubs)); !errors.Is(err, ErrNotWildReplaceable) {
		t.Fatalf("set replace error = %v, want ErrNotWildReplaceable", err)
	}

	seq, _ := NewMeld(hand(nat(3, SuitHearts), nat(4, SuitHearts), wild(), nat(6, SuitHearts)))
	if _, err := seq.ReplaceWild(nat(5, SuitSpades)); !errors.Is(err, ErrNotWildReplaceable) {
		t.Fatalf("wrong suit replace error = %v, want ErrNotWildReplaceable", err)
	}
	if _, err := seq.ReplaceWild(nat(9, SuitHearts)); !errors.Is(err, ErrNotWildReplaceable) {
		t.Fatalf("non-fitting replace error = %v, want ErrNotWildReplaceable", err)
	}

	clean, _ := NewMeld(hand(nat(3, SuitClubs), nat(4, SuitClubs), nat(5, SuitClubs)))
	if _, err := clean.ReplaceWild(nat(6, SuitClubs)); !errors.Is(err, ErrNotWildReplaceable) {
		t.Fatalf("no-wild replace error = %v, want ErrNotWildReplaceable", err)
	}
}

func TestValidateMeldPicksShape(t *testing.T) {
	if info, err := ValidateMeld(hand(nat(7, SuitHearts), nat(7, SuitSpades), nat(7, SuitClubs))); err != nil || info.Kind != MeldSet {
		t.Fatalf("same ranks should validate as a set (info=%+v err=%v)", info, err)
	}
	if info, err := ValidateMeld(hand(nat(3, SuitHearts), nat(4, SuitHearts), nat(5, SuitHearts))); err != nil || info.Kind != MeldSequence {
		t.Fatalf("a run should validate as a sequence (info=%+v err=%v)", info, err)
	}
	if _, err := ValidateMeld(hand(nat(3, SuitHearts), nat(9, SuitSpades), nat(5, SuitClubs))); !errors.Is(err, ErrInvalidMeld) {
		t.Fatalf("garbage should fail with ErrInvalidMeld, got %v", err)
	}
}
