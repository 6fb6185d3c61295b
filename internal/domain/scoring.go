package domain

// ScoreRules is the scoring configuration: a per-rank card value table and
// the fixed bonus constants. Values are a table, not a formula.
type ScoreRules struct {
	CardValues map[Rank]int

	SameRankBonus    int
	CleanBonus       int
	DirtyBonus       int
	GoingOutBonus    int
	ReservePileBonus int

	// WinThreshold is the cumulative match target evaluated by the Room
	// between rounds, not inside a single Round.
	WinThreshold int
}

// DefaultScoreRules returns the standard Buraco score table: wilds highest,
// then ace, then eight through king, then the low ranks.
func DefaultScoreRules() ScoreRules {
	values := map[Rank]int{RankWild: 30, RankAce: 15}
	for r := Rank(2); r <= 7; r++ {
		values[r] = 5
	}
	for r := Rank(8); r <= RankKing; r++ {
		values[r] = 10
	}
	return ScoreRules{
		CardValues:       values,
		SameRankBonus:    300,
		CleanBonus:       200,
		DirtyBonus:       100,
		GoingOutBonus:    100,
		ReservePileBonus: 50,
		WinThreshold:     2000,
	}
}

// CardValue looks up the point value for one card.
func (s ScoreRules) CardValue(c Card) int {
	return s.CardValues[c.Rank]
}

// BurracoClass is the three-way exclusive burraco category, computed at
// scoring time and never stored on the meld.
type BurracoClass int

const (
	BurracoNone BurracoClass = iota
	BurracoSameRank
	BurracoClean
	BurracoDirty
)

// ClassifyBurraco tags a burraco-sized meld into exactly one category:
// same-rank (all non-wild cards share one rank, i.e. a set), clean (a full
// natural run) or dirty (a run with its one allowed wild).
func ClassifyBurraco(m *Meld) BurracoClass {
	if !m.IsBurraco() {
		return BurracoNone
	}
	if m.Kind == MeldSet {
		return BurracoSameRank
	}
	if m.IsClean() {
		return BurracoClean
	}
	return BurracoDirty
}

// BurracoCounts tallies a team's burracos per category.
type BurracoCounts struct {
	SameRank int
	Clean    int
	Dirty    int
}

// MeldScore sums card values across the melds and the burraco bonuses.
func MeldScore(rules ScoreRules, melds []*Meld) (points, bonus int, counts BurracoCounts) {
	for _, m := range melds {
		for _, c := range m.Cards {
			points += rules.CardValue(c)
		}
		switch ClassifyBurraco(m) {
		case BurracoSameRank:
			counts.SameRank++
			bonus += rules.SameRankBonus
		case BurracoClean:
			counts.Clean++
			bonus += rules.CleanBonus
		case BurracoDirty:
			counts.Dirty++
			bonus += rules.DirtyBonus
		}
	}
	return points, bonus, counts
}

// HandPenalty is the negative sum of card values still held across the
// team's hands at round end.
func HandPenalty(rules ScoreRules, hands [][]Card) int {
	penalty := 0
	for _, hand := range hands {
		for _, c := range hand {
			penalty -= rules.CardValue(c)
		}
	}
	return penalty
}

// TeamScore is the per-team scoring breakdown.
type TeamScore struct {
	Team          int           `json:"team"`
	MeldPoints    int           `json:"meld_points"`
	BurracoBonus  int           `json:"burraco_bonus"`
	Burracos      BurracoCounts `json:"burracos"`
	HandPenalty   int           `json:"hand_penalty"`
	GoingOutBonus int           `json:"going_out_bonus"`
	ReserveBonus  int           `json:"reserve_bonus"`
	Total         int           `json:"total"`
}

// ScoreTeam computes one team's final round score from its melds, the cards
// left in its members' hands, its reserve-pile claims and its wentOut flag.
func ScoreTeam(rules ScoreRules, team *Team, hands [][]Card) TeamScore {
	points, bonus, counts := MeldScore(rules, team.Melds)
	score := TeamScore{
		Team:         team.Index,
		MeldPoints:   points,
		BurracoBonus: bonus,
		Burracos:     counts,
		HandPenalty:  HandPenalty(rules, hands),
		ReserveBonus: rules.ReservePileBonus * team.ReservesClaimed,
	}
	if team.WentOut {
		score.GoingOutBonus = rules.GoingOutBonus
	}
	score.Total = score.MeldPoints + score.BurracoBonus + score.HandPenalty + score.GoingOutBonus + score.ReserveBonus
	return score
}

// Result is the final round outcome. Winner is -1 on a tie.
type Result struct {
	Winner int          `json:"winner"`
	Tie    bool         `json:"tie"`
	Teams  [2]TeamScore `json:"teams"`
}
