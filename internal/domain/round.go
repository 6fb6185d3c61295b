package domain

import (
	"errors"
	"fmt"
)

// TurnPhase is the per-player turn stage. Phases cycle DRAW -> MELD ->
// DISCARD; discarding is legal from MELD as well, since melding is optional.
type TurnPhase string

const (
	PhaseDraw    TurnPhase = "draw"
	PhaseMeld    TurnPhase = "meld"
	PhaseDiscard TurnPhase = "discard"
)

var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrWrongPhase    = errors.New("action not allowed in current phase")
	ErrEmptyPile     = errors.New("pile is empty")
	ErrCardNotInHand = errors.New("card not in hand")
	ErrMeldNotFound  = errors.New("meld not found")
	ErrUnknownPlayer = errors.New("player not found")
	ErrRoundOver     = errors.New("round is over")
	ErrRoundRunning  = errors.New("round still in progress")
)

// Seat is one roster entry supplied by the Room at construction time.
type Seat struct {
	PlayerID string
	Nickname string
	Team     int // 0 or 1
}

// Player holds per-player round state. Newly acquired cards are prepended to
// the hand, keeping a stable ordering contract for display.
type Player struct {
	ID       string
	Nickname string
	Team     int
	Seat     int
	Hand     []Card
}

// Team owns melds and reserve-pile bookkeeping. Exactly two exist per round.
type Team struct {
	Index           int
	Melds           []*Meld
	WentOut         bool
	ReservesClaimed int
	PlayerIDs       []string
}

// ReservePile is one of the two face-down pozzetti, claimable once.
type ReservePile struct {
	Cards   []Card
	Claimed bool
}

// Round is the authoritative per-round state machine. It is exclusively
// owned by its Room; the caller serializes actions, the Round never blocks
// and performs no I/O.
type Round struct {
	Players     []*Player // seat order
	Teams       [2]*Team
	DrawPile    []Card
	DiscardPile []Card
	Reserves    [2]*ReservePile

	Current int // index into Players
	Phase   TurnPhase
	Turn    int
	Over    bool

	rules  ScoreRules
	result *Result
}

// NewRound assembles a round from the roster and the Deck Manager's deal.
// The roster must hold 2, 4 or 6 players split evenly across both teams,
// listed in seat order.
func NewRound(roster []Seat, deal *Deal, rules ScoreRules) (*Round, error) {
	n := len(roster)
	if n != 2 && n != 4 && n != 6 {
		return nil, fmt.Errorf("invalid player count %d, want 2, 4 or 6", n)
	}
	if len(deal.Hands) != n {
		return nil, fmt.Errorf("deal has %d hands for %d players", len(deal.Hands), n)
	}

	r := &Round{
		DrawPile:    append([]Card{}, deal.DrawPile...),
		DiscardPile: []Card{deal.DiscardTop},
		Phase:       PhaseDraw,
		rules:       rules,
	}
	r.Teams[0] = &Team{Index: 0}
	r.Teams[1] = &Team{Index: 1}
	for i := 0; i < 2; i++ {
		r.Reserves[i] = &ReservePile{Cards: append([]Card{}, deal.Reserves[i]...)}
	}

	for i, seat := range roster {
		if seat.Team != 0 && seat.Team != 1 {
			return nil, fmt.Errorf("seat %d has invalid team %d", i, seat.Team)
		}
		p := &Player{
			ID:       seat.PlayerID,
			Nickname: seat.Nickname,
			Team:     seat.Team,
			Seat:     i,
			Hand:     append([]Card{}, deal.Hands[i]...),
		}
		r.Players = append(r.Players, p)
		r.Teams[seat.Team].PlayerIDs = append(r.Teams[seat.Team].PlayerIDs, p.ID)
	}
	if len(r.Teams[0].PlayerIDs) != len(r.Teams[1].PlayerIDs) {
		return nil, fmt.Errorf("uneven teams: %d vs %d players", len(r.Teams[0].PlayerIDs), len(r.Teams[1].PlayerIDs))
	}
	return r, nil
}

func (r *Round) playerByID(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is.
func (r *Round) CurrentPlayer() *Player {
	return r.Players[r.Current]
}

// requireTurn checks the acting player and phase without mutating anything.
func (r *Round) requireTurn(playerID string, phases ...TurnPhase) (*Player, error) {
	if r.Over {
		return nil, ErrRoundOver
	}
	p := r.playerByID(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if r.Players[r.Current].ID != playerID {
		return nil, ErrNotYourTurn
	}
	for _, ph := range phases {
		if r.Phase == ph {
			return p, nil
		}
	}
	return nil, ErrWrongPhase
}

// takeFromHand removes the identified cards, preserving hand order for the
// remainder. It fails without mutating when any id is absent.
func takeFromHand(hand []Card, cardIDs []string) (taken, rest []Card, err error) {
	if len(cardIDs) == 0 {
		return nil, nil, ErrCardNotInHand
	}
	want := make(map[string]bool, len(cardIDs))
	for _, id := range cardIDs {
		if want[id] {
			return nil, nil, ErrCardNotInHand
		}
		want[id] = true
	}
	rest = make([]Card, 0, len(hand))
	byID := make(map[string]Card, len(cardIDs))
	for _, c := range hand {
		if want[c.ID] {
			byID[c.ID] = c
			delete(want, c.ID)
			continue
		}
		rest = append(rest, c)
	}
	if len(want) > 0 {
		return nil, nil, ErrCardNotInHand
	}
	// Keep the caller's card order, not the hand's.
	taken = make([]Card, 0, len(cardIDs))
	for _, id := range cardIDs {
		taken = append(taken, byID[id])
	}
	return taken, rest, nil
}

func prepend(hand []Card, cards ...[]Card) []Card {
	var incoming []Card
	for _, cs := range cards {
		incoming = append(incoming, cs...)
	}
	return append(incoming, hand...)
}

// DrawFromPile moves the top draw-pile card into the acting player's hand
// and advances to the meld phase.
func (r *Round) DrawFromPile(playerID string) (Card, error) {
	p, err := r.requireTurn(playerID, PhaseDraw)
	if err != nil {
		return Card{}, err
	}
	if len(r.DrawPile) == 0 {
		return Card{}, ErrEmptyPile
	}
	card := r.DrawPile[len(r.DrawPile)-1]
	r.DrawPile = r.DrawPile[:len(r.DrawPile)-1]
	p.Hand = prepend(p.Hand, []Card{card})
	r.Phase = PhaseMeld
	return card, nil
}

// TakeDiscardPile moves the entire discard pile into the acting player's
// hand and advances to the meld phase.
func (r *Round) TakeDiscardPile(playerID string) ([]Card, error) {
	p, err := r.requireTurn(playerID, PhaseDraw)
	if err != nil {
		return nil, err
	}
	if len(r.DiscardPile) == 0 {
		return nil, ErrEmptyPile
	}
	taken := append([]Card{}, r.DiscardPile...)
	p.Hand = prepend(p.Hand, taken)
	r.DiscardPile = r.DiscardPile[:0]
	r.Phase = PhaseMeld
	return taken, nil
}

// PlayResult reports what a meld action did beyond the meld itself.
type PlayResult struct {
	Meld           *Meld
	ReserveClaimed bool
	RoundOver      bool
}

// PlayMeld validates and plays a new meld for the acting player's team. An
// emptied hand triggers the reserve-pile pickup procedure, or closes the
// round when no pile is available to the team.
func (r *Round) PlayMeld(playerID string, cardIDs []string) (*PlayResult, error) {
	p, err := r.requireTurn(playerID, PhaseMeld)
	if err != nil {
		return nil, err
	}
	cards, rest, err := takeFromHand(p.Hand, cardIDs)
	if err != nil {
		return nil, err
	}
	meld, err := NewMeld(cards)
	if err != nil {
		return nil, err
	}
	p.Hand = rest
	team := r.Teams[p.Team]
	team.Melds = append(team.Melds, meld)

	res := &PlayResult{Meld: meld}
	r.afterMeldAction(p, res)
	return res, nil
}

// ExtendMeld merges cards from the acting player's hand into one of the
// team's existing melds.
func (r *Round) ExtendMeld(playerID, meldID string, cardIDs []string) (*PlayResult, error) {
	p, err := r.requireTurn(playerID, PhaseMeld)
	if err != nil {
		return nil, err
	}
	meld := r.teamMeld(p.Team, meldID)
	if meld == nil {
		return nil, ErrMeldNotFound
	}
	cards, rest, err := takeFromHand(p.Hand, cardIDs)
	if err != nil {
		return nil, err
	}
	if err := meld.Extend(cards); err != nil {
		return nil, err
	}
	p.Hand = rest

	res := &PlayResult{Meld: meld}
	r.afterMeldAction(p, res)
	return res, nil
}

// ReplaceWildInMeld swaps a sequence meld's wild for a same-suit natural
// from the acting player's hand; the wild returns to the hand.
func (r *Round) ReplaceWildInMeld(playerID, meldID, wildCardID, naturalCardID string) (*Meld, error) {
	p, err := r.requireTurn(playerID, PhaseMeld)
	if err != nil {
		return nil, err
	}
	meld := r.teamMeld(p.Team, meldID)
	if meld == nil {
		return nil, ErrMeldNotFound
	}
	var referenced *Card
	for i := range meld.Cards {
		if meld.Cards[i].ID == wildCardID {
			referenced = &meld.Cards[i]
			break
		}
	}
	if referenced == nil || !referenced.IsWild() {
		return nil, ErrNotWildReplaceable
	}
	naturals, rest, err := takeFromHand(p.Hand, []string{naturalCardID})
	if err != nil {
		return nil, err
	}
	wild, err := meld.ReplaceWild(naturals[0])
	if err != nil {
		return nil, err
	}
	p.Hand = prepend(rest, []Card{wild})
	return meld, nil
}

// DiscardResult reports the outcome of a discard.
type DiscardResult struct {
	Card           Card
	ReserveClaimed bool
	RoundOver      bool
	NextPlayerID   string
}

// Discard moves one card from hand to the discard pile, ending the turn. An
// emptied hand either refills from an unclaimed reserve pile (once per team)
// or closes the round with the acting team as winner.
func (r *Round) Discard(playerID, cardID string) (*DiscardResult, error) {
	p, err := r.requireTurn(playerID, PhaseMeld, PhaseDiscard)
	if err != nil {
		return nil, err
	}
	cards, rest, err := takeFromHand(p.Hand, []string{cardID})
	if err != nil {
		return nil, err
	}
	p.Hand = rest
	r.DiscardPile = append(r.DiscardPile, cards[0])

	res := &DiscardResult{Card: cards[0]}
	if len(p.Hand) == 0 {
		team := r.Teams[p.Team]
		if pile := r.unclaimedReserve(); pile != nil && team.ReservesClaimed == 0 {
			r.claimReserve(p, pile)
			res.ReserveClaimed = true
		} else {
			r.closeRound(team)
			res.RoundOver = true
			return res, nil
		}
	}
	r.nextTurn()
	res.NextPlayerID = r.CurrentPlayer().ID
	return res, nil
}

// afterMeldAction applies the reserve-pile pickup procedure when a meld
// action emptied the hand. With a pile still unclaimed but the team already
// served, nothing happens here; the player keeps the turn.
func (r *Round) afterMeldAction(p *Player, res *PlayResult) {
	if len(p.Hand) != 0 {
		return
	}
	team := r.Teams[p.Team]
	pile := r.unclaimedReserve()
	switch {
	case pile != nil && team.ReservesClaimed == 0:
		r.claimReserve(p, pile)
		res.ReserveClaimed = true
	case pile == nil:
		r.closeRound(team)
		res.RoundOver = true
	}
}

func (r *Round) unclaimedReserve() *ReservePile {
	for _, pile := range r.Reserves {
		if !pile.Claimed {
			return pile
		}
	}
	return nil
}

func (r *Round) claimReserve(p *Player, pile *ReservePile) {
	p.Hand = append([]Card{}, pile.Cards...)
	pile.Claimed = true
	r.Teams[p.Team].ReservesClaimed++
}

func (r *Round) teamMeld(team int, meldID string) *Meld {
	for _, m := range r.Teams[team].Melds {
		if m.ID == meldID {
			return m
		}
	}
	return nil
}

func (r *Round) nextTurn() {
	r.Current = (r.Current + 1) % len(r.Players)
	r.Phase = PhaseDraw
	r.Turn++
}

// closeRound ends the round with the given team going out and runs the
// Scoring Engine once per team.
func (r *Round) closeRound(wentOut *Team) {
	wentOut.WentOut = true
	r.finish()
}

// EndRound force-finishes the round without a closing team, e.g. when the
// Room tears the match down. Scores still settle from the table as it stands.
func (r *Round) EndRound() (*Result, error) {
	if r.Over {
		return nil, ErrRoundOver
	}
	r.finish()
	return r.result, nil
}

func (r *Round) finish() {
	r.Over = true
	var scores [2]TeamScore
	for i, team := range r.Teams {
		scores[i] = ScoreTeam(r.rules, team, r.teamHands(team))
	}
	result := &Result{Teams: scores, Winner: -1}
	switch {
	case scores[0].Total > scores[1].Total:
		result.Winner = 0
	case scores[1].Total > scores[0].Total:
		result.Winner = 1
	default:
		result.Tie = true
	}
	r.result = result
}

func (r *Round) teamHands(team *Team) [][]Card {
	hands := make([][]Card, 0, len(team.PlayerIDs))
	for _, id := range team.PlayerIDs {
		hands = append(hands, r.playerByID(id).Hand)
	}
	return hands
}

// GameResult returns the final result; it fails while the round is running.
func (r *Round) GameResult() (*Result, error) {
	if !r.Over || r.result == nil {
		return nil, ErrRoundRunning
	}
	return r.result, nil
}

// PlayerPublic is the opponent-safe slice of player state.
type PlayerPublic struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Team      int    `json:"team"`
	Seat      int    `json:"seat"`
	CardCount int    `json:"card_count"`
}

// ReserveView is the visible state of one reserve pile.
type ReserveView struct {
	Count   int  `json:"count"`
	Claimed bool `json:"claimed"`
}

// PlayerView is the per-player filtered snapshot the Room broadcasts after
// every mutation: own hand in full, card counts for everyone else.
type PlayerView struct {
	PlayerID      string         `json:"player_id"`
	Hand          []Card         `json:"hand"`
	Players       []PlayerPublic `json:"players"`
	DrawCount     int            `json:"draw_count"`
	DiscardPile   []Card         `json:"discard_pile"`
	Reserves      [2]ReserveView `json:"reserves"`
	TeamMelds     [2][]*Meld     `json:"team_melds"`
	CurrentPlayer string         `json:"current_player"`
	Phase         TurnPhase      `json:"phase"`
	Turn          int            `json:"turn"`
	Over          bool           `json:"over"`
	LiveScores    [2]int         `json:"live_scores"`
}

// PlayerView builds the filtered view for one player.
func (r *Round) PlayerView(playerID string) (*PlayerView, error) {
	p := r.playerByID(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	view := &PlayerView{
		PlayerID:      playerID,
		Hand:          append([]Card{}, p.Hand...),
		DrawCount:     len(r.DrawPile),
		DiscardPile:   append([]Card{}, r.DiscardPile...),
		CurrentPlayer: r.CurrentPlayer().ID,
		Phase:         r.Phase,
		Turn:          r.Turn,
		Over:          r.Over,
	}
	for _, other := range r.Players {
		view.Players = append(view.Players, PlayerPublic{
			ID:        other.ID,
			Nickname:  other.Nickname,
			Team:      other.Team,
			Seat:      other.Seat,
			CardCount: len(other.Hand),
		})
	}
	for i, pile := range r.Reserves {
		count := len(pile.Cards)
		if pile.Claimed {
			count = 0
		}
		view.Reserves[i] = ReserveView{Count: count, Claimed: pile.Claimed}
	}
	for i, team := range r.Teams {
		view.TeamMelds[i] = append([]*Meld{}, team.Melds...)
		points, bonus, _ := MeldScore(r.rules, team.Melds)
		view.LiveScores[i] = points + bonus
	}
	return view, nil
}
