package domain

import (
	"errors"
	"sort"

	"github.com/google/uuid"
)

// Meld size limits. A meld of BurracoSize or more cards is a burraco.
const (
	MinMeldSize = 3
	MaxMeldSize = 7
	BurracoSize = 7
)

var (
	ErrInvalidMeld        = errors.New("cards do not form a legal meld")
	ErrInvalidExtension   = errors.New("cards cannot extend this meld")
	ErrNotWildReplaceable = errors.New("wild replacement not allowed for this meld")
)

// MeldKind is the closed variant tag for melds.
type MeldKind string

const (
	MeldSet      MeldKind = "set"
	MeldSequence MeldKind = "sequence"
)

// Meld is a played, team-owned group of cards. Rank is set for sets only,
// Suit for sequences only. Melds only ever grow or have their wild replaced.
type Meld struct {
	ID    string   `json:"id"`
	Kind  MeldKind `json:"kind"`
	Rank  Rank     `json:"rank,omitempty"`
	Suit  Suit     `json:"suit,omitempty"`
	Cards []Card   `json:"cards"`
}

// IsClean reports whether the meld contains no wild card.
func (m *Meld) IsClean() bool {
	for _, c := range m.Cards {
		if c.IsWild() {
			return false
		}
	}
	return true
}

// IsBurraco reports whether the meld reached burraco size.
func (m *Meld) IsBurraco() bool {
	return len(m.Cards) >= BurracoSize
}

// MeldInfo is the validator's verdict on a candidate card group.
type MeldInfo struct {
	Kind    MeldKind
	Rank    Rank // sets
	Suit    Suit // sequences
	Clean   bool
	Burraco bool
}

func splitWilds(cards []Card) (naturals, wilds []Card) {
	for _, c := range cards {
		if c.IsWild() {
			wilds = append(wilds, c)
		} else {
			naturals = append(naturals, c)
		}
	}
	return naturals, wilds
}

// checkMeldShape enforces the rules shared by sets and sequences: size
// bounds, at most one wild, never all-wild.
func checkMeldShape(cards []Card) (naturals, wilds []Card, err error) {
	if len(cards) < MinMeldSize || len(cards) > MaxMeldSize {
		return nil, nil, ErrInvalidMeld
	}
	naturals, wilds = splitWilds(cards)
	if len(wilds) > 1 || len(naturals) == 0 {
		return nil, nil, ErrInvalidMeld
	}
	return naturals, wilds, nil
}

// ValidateSet checks a same-rank meld: 3-7 cards, at most one wild, all
// non-wild cards sharing one rank.
func ValidateSet(cards []Card) (MeldInfo, error) {
	naturals, wilds, err := checkMeldShape(cards)
	if err != nil {
		return MeldInfo{}, err
	}
	rank := naturals[0].Rank
	for _, c := range naturals {
		if c.Rank != rank {
			return MeldInfo{}, ErrInvalidMeld
		}
	}
	return MeldInfo{
		Kind:    MeldSet,
		Rank:    rank,
		Clean:   len(wilds) == 0,
		Burraco: len(cards) >= BurracoSize,
	}, nil
}

// aceIsHigh decides whether an ace in the candidate run plays above the king.
// The ace is high iff a natural king is present, or a natural queen or jack
// is present together with the wild card and no natural two or three;
// otherwise the ace is low. An ace is never both in the same meld.
func aceIsHigh(naturals []Card, wildCount int) bool {
	var hasAce, hasKing, hasQJ, hasLow bool
	for _, c := range naturals {
		switch c.Rank {
		case RankAce:
			hasAce = true
		case RankKing:
			hasKing = true
		case RankQueen, RankJack:
			hasQJ = true
		case 2, 3:
			hasLow = true
		}
	}
	if !hasAce {
		return false
	}
	if hasKing {
		return true
	}
	return hasQJ && wildCount > 0 && !hasLow
}

// rankPosition maps a natural card onto the 1..14 run axis.
func rankPosition(c Card, aceHigh bool) int {
	if c.Rank == RankAce && aceHigh {
		return 14
	}
	return int(c.Rank)
}

// sequencePositions returns the sorted run positions of the naturals, or an
// error on duplicate ranks within the suit.
func sequencePositions(naturals []Card, aceHigh bool) ([]int, error) {
	positions := make([]int, len(naturals))
	seen := make(map[int]bool, len(naturals))
	for i, c := range naturals {
		p := rankPosition(c, aceHigh)
		if seen[p] {
			return nil, ErrInvalidMeld
		}
		seen[p] = true
		positions[i] = p
	}
	sort.Ints(positions)
	return positions, nil
}

// ValidateSequence checks a same-suit run: 3-7 cards, at most one wild, all
// non-wild cards in one suit occupying consecutive run positions once at
// most one gap-filling wild is accounted for.
func ValidateSequence(cards []Card) (MeldInfo, error) {
	naturals, wilds, err := checkMeldShape(cards)
	if err != nil {
		return MeldInfo{}, err
	}
	suit := naturals[0].Suit
	for _, c := range naturals {
		if c.Suit != suit {
			return MeldInfo{}, ErrInvalidMeld
		}
	}
	positions, err := sequencePositions(naturals, aceIsHigh(naturals, len(wilds)))
	if err != nil {
		return MeldInfo{}, err
	}
	gaps := 0
	for i := 1; i < len(positions); i++ {
		gaps += positions[i] - positions[i-1] - 1
	}
	if gaps > len(wilds) {
		return MeldInfo{}, ErrInvalidMeld
	}
	return MeldInfo{
		Kind:    MeldSequence,
		Suit:    suit,
		Clean:   len(wilds) == 0,
		Burraco: len(cards) >= BurracoSize,
	}, nil
}

// ValidateMeld decides whether cards form a legal set or sequence. The two
// shapes are mutually exclusive: a set needs equal non-wild ranks, a
// sequence forbids duplicates.
func ValidateMeld(cards []Card) (MeldInfo, error) {
	if info, err := ValidateSet(cards); err == nil {
		return info, nil
	}
	return ValidateSequence(cards)
}

// SortSequence arranges a valid sequence into display order, placing the
// wild into the single internal gap, or at the high end when there is none
// (low end when the run already tops out at ace-high). The wild is a
// position-free token during validation; only display fixes its slot.
// Sorting an already-sorted sequence returns the same order.
func SortSequence(cards []Card) []Card {
	naturals, wilds := splitWilds(cards)
	aceHigh := aceIsHigh(naturals, len(wilds))
	ordered := append([]Card{}, naturals...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rankPosition(ordered[i], aceHigh) < rankPosition(ordered[j], aceHigh)
	})
	if len(wilds) == 0 {
		return ordered
	}
	wild := wilds[0]
	for i := 1; i < len(ordered); i++ {
		if rankPosition(ordered[i], aceHigh)-rankPosition(ordered[i-1], aceHigh) == 2 {
			out := append([]Card{}, ordered[:i]...)
			out = append(out, wild)
			return append(out, ordered[i:]...)
		}
	}
	if rankPosition(ordered[len(ordered)-1], aceHigh) >= 14 {
		return append([]Card{wild}, ordered...)
	}
	return append(ordered, wild)
}

// NewMeld validates the cards and builds the meld, sequences in canonical
// display order.
func NewMeld(cards []Card) (*Meld, error) {
	info, err := ValidateMeld(cards)
	if err != nil {
		return nil, err
	}
	m := &Meld{
		ID:    uuid.NewString(),
		Kind:  info.Kind,
		Rank:  info.Rank,
		Suit:  info.Suit,
		Cards: cards,
	}
	if m.Kind == MeldSequence {
		m.Cards = SortSequence(cards)
	}
	return m, nil
}

// CanExtend validates adding cards to an existing meld. The union is
// re-validated against the meld's established kind; for sequences the
// existing wild may conceptually move to a different gap, which falls out of
// re-validating with the wild treated as position-free.
func CanExtend(m *Meld, added []Card) (MeldInfo, error) {
	if len(added) == 0 {
		return MeldInfo{}, ErrInvalidExtension
	}
	combined := append(append([]Card{}, m.Cards...), added...)
	var (
		info MeldInfo
		err  error
	)
	switch m.Kind {
	case MeldSet:
		info, err = ValidateSet(combined)
		if err == nil && info.Rank != m.Rank {
			err = ErrInvalidExtension
		}
	case MeldSequence:
		info, err = ValidateSequence(combined)
		if err == nil && info.Suit != m.Suit {
			err = ErrInvalidExtension
		}
	default:
		err = ErrInvalidExtension
	}
	if err != nil {
		return MeldInfo{}, ErrInvalidExtension
	}
	return info, nil
}

// Extend merges the cards into the meld after CanExtend approval.
func (m *Meld) Extend(added []Card) error {
	if _, err := CanExtend(m, added); err != nil {
		return err
	}
	m.Cards = append(m.Cards, added...)
	if m.Kind == MeldSequence {
		m.Cards = SortSequence(m.Cards)
	}
	return nil
}

// ReplaceWild swaps the meld's wild for a same-suit natural card. Only
// sequences support the swap, and the meld minus wild plus natural must
// re-validate as a legal sequence unaided. The removed wild is returned.
func (m *Meld) ReplaceWild(natural Card) (Card, error) {
	if m.Kind != MeldSequence {
		return Card{}, ErrNotWildReplaceable
	}
	if natural.IsWild() || natural.Suit != m.Suit {
		return Card{}, ErrNotWildReplaceable
	}
	naturals, wilds := splitWilds(m.Cards)
	if len(wilds) == 0 {
		return Card{}, ErrNotWildReplaceable
	}
	candidate := append(append([]Card{}, naturals...), natural)
	if _, err := ValidateSequence(candidate); err != nil {
		return Card{}, ErrNotWildReplaceable
	}
	m.Cards = SortSequence(candidate)
	return wilds[0], nil
}
