package app

import (
	"fmt"
	"math/rand"
	"time"

	"burraco/internal/domain"
)

// MinPlayersToStartRound is the smallest legal table.
const MinPlayersToStartRound = 2

// Service contains Buraco use-cases operating on round state. It owns the
// RNG used for shuffling; everything else lives on the Round itself.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded
// default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// StartRound builds and shuffles the pack, deals, and assembles the Round
// from the Room's roster. Hands are delivered as private events.
func (s *Service) StartRound(roster []domain.Seat, deckCfg domain.DeckConfig, rules domain.ScoreRules) (*domain.Round, []Event, error) {
	pack := domain.ShufflePack(s.rng, domain.NewPack(deckCfg))
	deal, err := domain.DealCards(pack, len(roster), deckCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("deal: %w", err)
	}
	round, err := domain.NewRound(roster, deal, rules)
	if err != nil {
		return nil, nil, fmt.Errorf("assemble round: %w", err)
	}

	events := make([]Event, 0, len(roster)+1)
	for _, p := range round.Players {
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{PlayerID: p.ID, Hand: p.Hand},
			Recipients: []string{p.ID},
		})
	}
	var public []domain.PlayerPublic
	for _, p := range round.Players {
		public = append(public, domain.PlayerPublic{
			ID: p.ID, Nickname: p.Nickname, Team: p.Team, Seat: p.Seat, CardCount: len(p.Hand),
		})
	}
	events = append(events, Event{
		Kind: EventRoundStarted,
		Payload: RoundStartedPayload{
			Players:       public,
			FirstPlayerID: round.CurrentPlayer().ID,
			DiscardTop:    deal.DiscardTop,
			DrawCount:     len(round.DrawPile),
		},
	})
	return round, events, nil
}

// DrawFromPile draws the top card for the acting player.
func (s *Service) DrawFromPile(round *domain.Round, playerID string) ([]Event, error) {
	card, err := round.DrawFromPile(playerID)
	if err != nil {
		return nil, err
	}
	return []Event{
		{
			Kind:       EventPileDrawn,
			Payload:    PileDrawnPayload{PlayerID: playerID, Card: &card, DrawCount: len(round.DrawPile)},
			Recipients: []string{playerID},
		},
		{
			Kind:    EventPileDrawn,
			Payload: PileDrawnPayload{PlayerID: playerID, DrawCount: len(round.DrawPile)},
		},
	}, nil
}

// TakeDiscardPile hands the whole discard pile to the acting player. The
// pile is public, so the broadcast carries the cards.
func (s *Service) TakeDiscardPile(round *domain.Round, playerID string) ([]Event, error) {
	cards, err := round.TakeDiscardPile(playerID)
	if err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventDiscardTaken,
		Payload: DiscardTakenPayload{PlayerID: playerID, Cards: cards},
	}}, nil
}

// PlayMeld plays a new meld for the acting player's team.
func (s *Service) PlayMeld(round *domain.Round, playerID string, cardIDs []string) ([]Event, error) {
	res, err := round.PlayMeld(playerID, cardIDs)
	if err != nil {
		return nil, err
	}
	p := round.CurrentPlayer()
	events := []Event{{
		Kind:    EventMeldPlayed,
		Payload: MeldPlayedPayload{PlayerID: playerID, Team: p.Team, Meld: res.Meld},
	}}
	return append(events, s.meldAftermath(round, playerID, res)...), nil
}

// ExtendMeld merges cards into an existing team meld.
func (s *Service) ExtendMeld(round *domain.Round, playerID, meldID string, cardIDs []string) ([]Event, error) {
	res, err := round.ExtendMeld(playerID, meldID, cardIDs)
	if err != nil {
		return nil, err
	}
	p := round.CurrentPlayer()
	events := []Event{{
		Kind:    EventMeldExtended,
		Payload: MeldPlayedPayload{PlayerID: playerID, Team: p.Team, Meld: res.Meld},
	}}
	return append(events, s.meldAftermath(round, playerID, res)...), nil
}

// ReplaceWildInMeld performs the wild-for-natural swap on a sequence meld.
func (s *Service) ReplaceWildInMeld(round *domain.Round, playerID, meldID, wildCardID, naturalCardID string) ([]Event, error) {
	meld, err := round.ReplaceWildInMeld(playerID, meldID, wildCardID, naturalCardID)
	if err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventWildReplaced,
		Payload: WildReplacedPayload{PlayerID: playerID, Meld: meld},
	}}, nil
}

// Discard discards one card and ends the turn (or the round).
func (s *Service) Discard(round *domain.Round, playerID, cardID string) ([]Event, error) {
	res, err := round.Discard(playerID, cardID)
	if err != nil {
		return nil, err
	}
	events := []Event{{
		Kind:    EventCardDiscarded,
		Payload: CardDiscardedPayload{PlayerID: playerID, Card: res.Card, NextPlayerID: res.NextPlayerID},
	}}
	if res.ReserveClaimed {
		events = append(events, s.reserveEvents(round, playerID)...)
	}
	if res.RoundOver {
		events = append(events, s.roundEndedEvent(round))
	}
	return events, nil
}

// EndRound force-finishes the round, e.g. on room teardown.
func (s *Service) EndRound(round *domain.Round) ([]Event, error) {
	if _, err := round.EndRound(); err != nil {
		return nil, err
	}
	return []Event{s.roundEndedEvent(round)}, nil
}

func (s *Service) meldAftermath(round *domain.Round, playerID string, res *domain.PlayResult) []Event {
	var events []Event
	if res.ReserveClaimed {
		events = append(events, s.reserveEvents(round, playerID)...)
	}
	if res.RoundOver {
		events = append(events, s.roundEndedEvent(round))
	}
	return events
}

// reserveEvents announces the claim publicly and deals the refilled hand
// privately.
func (s *Service) reserveEvents(round *domain.Round, playerID string) []Event {
	var p *domain.Player
	for _, pl := range round.Players {
		if pl.ID == playerID {
			p = pl
			break
		}
	}
	return []Event{
		{
			Kind:    EventReserveClaimed,
			Payload: ReserveClaimedPayload{PlayerID: playerID, Team: p.Team, CardCount: len(p.Hand)},
		},
		{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{PlayerID: playerID, Hand: p.Hand},
			Recipients: []string{playerID},
		},
	}
}

func (s *Service) roundEndedEvent(round *domain.Round) Event {
	result, _ := round.GameResult()
	return Event{
		Kind:    EventRoundEnded,
		Payload: RoundEndedPayload{Result: result},
	}
}
