package app

import "burraco/internal/domain"

// EventKind identifies emitted engine events for Room dispatch.
type EventKind string

const (
	EventRoundStarted   EventKind = "round_started"
	EventHandDealt      EventKind = "hand_dealt"
	EventPileDrawn      EventKind = "pile_drawn"
	EventDiscardTaken   EventKind = "discard_taken"
	EventMeldPlayed     EventKind = "meld_played"
	EventMeldExtended   EventKind = "meld_extended"
	EventWildReplaced   EventKind = "wild_replaced"
	EventCardDiscarded  EventKind = "card_discarded"
	EventReserveClaimed EventKind = "reserve_claimed"
	EventRoundEnded     EventKind = "round_ended"
)

// Event is an engine event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // player IDs; empty means broadcast
}

type RoundStartedPayload struct {
	Players       []domain.PlayerPublic `json:"players"`
	FirstPlayerID string                `json:"first_player_id"`
	DiscardTop    domain.Card           `json:"discard_top"`
	DrawCount     int                   `json:"draw_count"`
}

type HandDealtPayload struct {
	PlayerID string        `json:"player_id"`
	Hand     []domain.Card `json:"hand"`
}

// PileDrawnPayload is split: the card goes to the drawer only, the public
// broadcast carries the remaining pile size.
type PileDrawnPayload struct {
	PlayerID  string       `json:"player_id"`
	Card      *domain.Card `json:"card,omitempty"`
	DrawCount int          `json:"draw_count"`
}

type DiscardTakenPayload struct {
	PlayerID string        `json:"player_id"`
	Cards    []domain.Card `json:"cards"`
}

type MeldPlayedPayload struct {
	PlayerID string       `json:"player_id"`
	Team     int          `json:"team"`
	Meld     *domain.Meld `json:"meld"`
}

type WildReplacedPayload struct {
	PlayerID string       `json:"player_id"`
	Meld     *domain.Meld `json:"meld"`
}

type CardDiscardedPayload struct {
	PlayerID     string      `json:"player_id"`
	Card         domain.Card `json:"card"`
	NextPlayerID string      `json:"next_player_id,omitempty"`
}

type ReserveClaimedPayload struct {
	PlayerID  string `json:"player_id"`
	Team      int    `json:"team"`
	CardCount int    `json:"card_count"`
}

type RoundEndedPayload struct {
	Result *domain.Result `json:"result"`
}
