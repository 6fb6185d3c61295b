package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"burraco/internal/app"
	"burraco/internal/config"
	"burraco/internal/domain"
	"burraco/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// GameConfigPath is where the deployment drops the game configuration file.
const GameConfigPath = "data/game_config.json"

// MatchLabel is the match label advertised for quick-match queries.
type MatchLabel struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	State string `json:"state"`
}

// MatchState holds the authoritative runtime state for the Nakama match
// handler: the Room around the Round engine. Seat parity decides the team
// split (even seats team 0, odd seats team 1).
type MatchState struct {
	Seats     [MaxSeats]string            // user IDs, empty string means open seat
	OwnerSeat int                         // seat index of the match owner
	Tick      int64                       // current match tick
	Presences map[string]runtime.Presence `json:"-"`

	App   *app.Service  `json:"-"`
	Round *domain.Round `json:"-"` // nil before the first round

	CumulativeScores [2]int // running match totals across rounds
	RoundsPlayed     int
	MatchOver        bool

	TurnDeadline int64 // tick at which the current turn is force-played
	LastTurn     int   // round turn counter the deadline was armed for

	Economy ports.EconomyPort `json:"-"`
	Rng     *rand.Rand        `json:"-"`
}

// GetOpenSeatsCount returns the number of unoccupied seats.
func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

// GetOccupiedSeatCount returns the number of occupied seats.
func (ms *MatchState) GetOccupiedSeatCount() int {
	return MaxSeats - ms.GetOpenSeatsCount()
}

// seatOf returns the seat index for a user id, or -1.
func seatOf(seats []string, userID string) int {
	for i, id := range seats {
		if id == userID {
			return i
		}
	}
	return -1
}

// teamForSeat splits the table into the two teams by seat parity.
func teamForSeat(seat int) int {
	return seat % 2
}

// canStartWith reports whether a round may start with this player count.
func canStartWith(players int) bool {
	return players == 2 || players == 4 || players == 6
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	if err := config.LoadGameConfig(GameConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load game config, using defaults: %v", err)
	}

	state := &MatchState{
		Tick:      time.Now().Unix(),
		Presences: make(map[string]runtime.Presence),
		App:       app.NewService(nil),
		OwnerSeat: -1,
		Economy:   NewNakamaEconomyAdapter(nk),
		Rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	labelBytes, err := json.Marshal(MatchLabel{Open: MaxSeats, Game: "burraco", State: "lobby"})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Rejoin is always allowed while the seat is still held.
	if seatOf(matchState.Seats[:], presence.GetUserId()) >= 0 {
		return state, true, ""
	}
	if matchState.MatchOver {
		return state, false, "match over"
	}
	if matchState.Round != nil && !matchState.Round.Over {
		return state, false, "round in progress"
	}
	if matchState.GetOpenSeatsCount() <= 0 {
		return state, false, "match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		matchState.Presences[uid] = p

		seat := seatOf(matchState.Seats[:], uid)
		if seat < 0 {
			for i, id := range matchState.Seats {
				if id == "" {
					matchState.Seats[i] = uid
					seat = i
					break
				}
			}
		}
		if seat < 0 {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", uid)
			continue
		}

		if matchState.OwnerSeat < 0 {
			matchState.OwnerSeat = seat
		}

		payload, _ := json.Marshal(map[string]any{
			"user_id":  uid,
			"nickname": p.GetUsername(),
			"seat":     seat,
			"team":     teamForSeat(seat),
			"owner":    seat == matchState.OwnerSeat,
		})
		dispatcher.BroadcastMessage(OpPlayerJoined, payload, nil, nil, true)

		// Late rejoin during a round gets the current filtered view.
		if matchState.Round != nil {
			mh.sendView(matchState, dispatcher, logger, uid)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave frees seats. A departure mid-round force-finishes the round so
// the table settles from its current state.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		delete(matchState.Presences, uid)

		seat := seatOf(matchState.Seats[:], uid)
		if seat < 0 {
			continue
		}
		matchState.Seats[seat] = ""

		payload, _ := json.Marshal(map[string]any{"user_id": uid, "seat": seat})
		dispatcher.BroadcastMessage(OpPlayerLeft, payload, nil, nil, true)

		if matchState.Round != nil && !matchState.Round.Over {
			logger.Info("MatchLeave: Player %s left mid-round, finishing round.", uid)
			events, err := matchState.App.EndRound(matchState.Round)
			if err == nil {
				for _, ev := range events {
					mh.broadcastEvent(ctx, matchState, dispatcher, logger, ev)
				}
			}
		}
	}

	if matchState.GetOccupiedSeatCount() == 0 {
		logger.Info("MatchLeave: Terminating empty match.")
		return nil
	}

	if matchState.OwnerSeat < 0 || matchState.Seats[matchState.OwnerSeat] == "" {
		matchState.OwnerSeat = -1
		for i, id := range matchState.Seats {
			if id != "" {
				matchState.OwnerSeat = i
				break
			}
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartRound:
			mh.handleStartRound(ctx, matchState, dispatcher, logger, msg)
		case OpDrawPile:
			mh.handleAction(ctx, matchState, dispatcher, logger, msg, func(uid string) ([]app.Event, error) {
				return matchState.App.DrawFromPile(matchState.Round, uid)
			})
		case OpTakeDiscard:
			mh.handleAction(ctx, matchState, dispatcher, logger, msg, func(uid string) ([]app.Event, error) {
				return matchState.App.TakeDiscardPile(matchState.Round, uid)
			})
		case OpPlayMeld:
			var req struct {
				CardIDs []string `json:"card_ids"`
			}
			if !mh.decode(matchState, dispatcher, logger, msg, &req) {
				continue
			}
			mh.handleAction(ctx, matchState, dispatcher, logger, msg, func(uid string) ([]app.Event, error) {
				return matchState.App.PlayMeld(matchState.Round, uid, req.CardIDs)
			})
		case OpExtendMeld:
			var req struct {
				MeldID  string   `json:"meld_id"`
				CardIDs []string `json:"card_ids"`
			}
			if !mh.decode(matchState, dispatcher, logger, msg, &req) {
				continue
			}
			mh.handleAction(ctx, matchState, dispatcher, logger, msg, func(uid string) ([]app.Event, error) {
				return matchState.App.ExtendMeld(matchState.Round, uid, req.MeldID, req.CardIDs)
			})
		case OpReplaceWild:
			var req struct {
				MeldID        string `json:"meld_id"`
				WildCardID    string `json:"wild_card_id"`
				NaturalCardID string `json:"natural_card_id"`
			}
			if !mh.decode(matchState, dispatcher, logger, msg, &req) {
				continue
			}
			mh.handleAction(ctx, matchState, dispatcher, logger, msg, func(uid string) ([]app.Event, error) {
				return matchState.App.ReplaceWildInMeld(matchState.Round, uid, req.MeldID, req.WildCardID, req.NaturalCardID)
			})
		case OpDiscard:
			var req struct {
				CardID string `json:"card_id"`
			}
			if !mh.decode(matchState, dispatcher, logger, msg, &req) {
				continue
			}
			mh.handleAction(ctx, matchState, dispatcher, logger, msg, func(uid string) ([]app.Event, error) {
				return matchState.App.Discard(matchState.Round, uid, req.CardID)
			})
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.processTurnTimer(ctx, matchState, dispatcher, logger)

	return matchState
}

// processTurnTimer is the sole source of forced-default actions: the engine
// has no awareness of wall-clock time, so the handler tracks a per-turn tick
// deadline and auto-draws and auto-discards a random card on expiry.
func (mh *matchHandler) processTurnTimer(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	round := state.Round
	if round == nil || round.Over || state.MatchOver {
		state.TurnDeadline = 0
		return
	}

	timer := int64(config.GetGameConfig().TurnTimerSeconds)
	if timer <= 0 {
		return
	}
	if state.TurnDeadline == 0 || state.LastTurn != round.Turn {
		state.LastTurn = round.Turn
		state.TurnDeadline = state.Tick + timer
		return
	}
	if state.Tick < state.TurnDeadline {
		return
	}

	uid := round.CurrentPlayer().ID
	logger.Info("processTurnTimer: Forcing default actions for %s on turn %d.", uid, round.Turn)

	if round.Phase == domain.PhaseDraw {
		events, err := state.App.DrawFromPile(round, uid)
		if errors.Is(err, domain.ErrEmptyPile) {
			events, err = state.App.TakeDiscardPile(round, uid)
		}
		if err != nil {
			// Both piles gone: nothing left to play for, settle the table.
			endEvents, endErr := state.App.EndRound(round)
			if endErr == nil {
				for _, ev := range endEvents {
					mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
				}
				mh.broadcastViews(state, dispatcher, logger)
			}
			state.TurnDeadline = 0
			return
		}
		for _, ev := range events {
			mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
		}
	}

	hand := round.CurrentPlayer().Hand
	if len(hand) > 0 && !round.Over {
		card := hand[state.Rng.Intn(len(hand))]
		events, err := state.App.Discard(round, uid, card.ID)
		if err != nil {
			logger.Error("processTurnTimer: Forced discard failed: %v", err)
		} else {
			for _, ev := range events {
				mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
			}
		}
	}

	mh.broadcastViews(state, dispatcher, logger)
	state.TurnDeadline = 0
}

func (mh *matchHandler) handleStartRound(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderSeat := seatOf(state.Seats[:], msg.GetUserId())
	if senderSeat != state.OwnerSeat {
		logger.Warn("StartRound: User %s is not the owner (owner_seat=%d).", msg.GetUserId(), state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), "only the owner can start a round")
		return
	}
	if state.MatchOver {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), "match is over")
		return
	}
	if state.Round != nil && !state.Round.Over {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), "round already in progress")
		return
	}

	occupied := state.GetOccupiedSeatCount()
	if !canStartWith(occupied) {
		logger.Warn("StartRound: Cannot start with %d players.", occupied)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), "need 2, 4 or 6 players")
		return
	}

	roster := make([]domain.Seat, 0, occupied)
	for seat, uid := range state.Seats {
		if uid == "" {
			continue
		}
		nickname := uid
		if p, ok := state.Presences[uid]; ok {
			nickname = p.GetUsername()
		}
		roster = append(roster, domain.Seat{PlayerID: uid, Nickname: nickname, Team: teamForSeat(seat)})
	}

	cfg := config.GetGameConfig()
	round, events, err := state.App.StartRound(roster, cfg.DeckConfig(), cfg.ScoreRules())
	if err != nil {
		logger.Error("StartRound: Failed to start round: %v", err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), err.Error())
		return
	}

	state.Round = round
	state.TurnDeadline = 0
	state.LastTurn = -1

	mh.updateLabel(state, dispatcher, logger)
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
	mh.broadcastViews(state, dispatcher, logger)

	logger.Info("StartRound: Round %d started with %d players.", state.RoundsPlayed+1, occupied)
}

// handleAction runs one engine action for the sender and broadcasts the
// resulting events plus refreshed per-player views.
func (mh *matchHandler) handleAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData, act func(uid string) ([]app.Event, error)) {
	uid := msg.GetUserId()
	if state.Round == nil {
		mh.sendError(state, dispatcher, logger, uid, "round not started")
		return
	}

	events, err := act(uid)
	if err != nil {
		logger.Warn("handleAction: User %s action rejected: %v", uid, err)
		mh.sendError(state, dispatcher, logger, uid, err.Error())
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
	mh.broadcastViews(state, dispatcher, logger)
}

func (mh *matchHandler) decode(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData, out any) bool {
	if err := json.Unmarshal(msg.GetData(), out); err != nil {
		logger.Warn("decode: Invalid payload from %s: %v", msg.GetUserId(), err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), "malformed request payload")
		return false
	}
	return true
}

// broadcastEvent converts an app event to its opcode and dispatches it.
// Round-end events also roll the totals into the match score and settle the
// match when a team reaches the win threshold.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	switch ev.Kind {
	case app.EventRoundStarted:
		opCode = OpRoundStarted
	case app.EventHandDealt:
		opCode = OpHandDealt
	case app.EventPileDrawn:
		opCode = OpPileDrawn
	case app.EventDiscardTaken:
		opCode = OpDiscardTaken
	case app.EventMeldPlayed:
		opCode = OpMeldPlayed
	case app.EventMeldExtended:
		opCode = OpMeldExtended
	case app.EventWildReplaced:
		opCode = OpWildReplaced
	case app.EventCardDiscarded:
		opCode = OpCardDiscarded
	case app.EventReserveClaimed:
		opCode = OpReserveClaimed
	case app.EventRoundEnded:
		opCode = OpRoundEnded
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Targeted events must never leak to the rest of the table.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, payload, recipients, nil, true)

	if ev.Kind == app.EventRoundEnded {
		mh.onRoundEnded(ctx, state, dispatcher, logger, ev.Payload.(app.RoundEndedPayload))
	}
}

func (mh *matchHandler) onRoundEnded(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, payload app.RoundEndedPayload) {
	state.RoundsPlayed++
	for i, team := range payload.Result.Teams {
		state.CumulativeScores[i] += team.Total
	}

	threshold := config.GetGameConfig().WinThreshold
	winner := -1
	switch {
	case state.CumulativeScores[0] >= threshold && state.CumulativeScores[0] >= state.CumulativeScores[1]:
		winner = 0
	case state.CumulativeScores[1] >= threshold && state.CumulativeScores[1] > state.CumulativeScores[0]:
		winner = 1
	}

	if winner >= 0 {
		state.MatchOver = true
		mh.settleStakes(ctx, state, logger, winner)

		endPayload, _ := json.Marshal(map[string]any{
			"winner_team":       winner,
			"cumulative_scores": state.CumulativeScores,
			"rounds_played":     state.RoundsPlayed,
		})
		dispatcher.BroadcastMessage(OpMatchEnded, endPayload, nil, nil, true)
	}

	mh.updateLabel(state, dispatcher, logger)
}

// settleStakes credits the winning team's wallets and debits the losers.
func (mh *matchHandler) settleStakes(ctx context.Context, state *MatchState, logger runtime.Logger, winner int) {
	if state.Economy == nil || state.Round == nil {
		return
	}
	stake := config.GetGameConfig().MatchStake
	if stake == 0 {
		return
	}

	updates := make([]ports.WalletUpdate, 0, len(state.Round.Players))
	for _, p := range state.Round.Players {
		amount := stake
		if p.Team != winner {
			amount = -stake
		}
		updates = append(updates, ports.WalletUpdate{
			UserID: p.ID,
			Amount: amount,
			Metadata: map[string]interface{}{
				"match_id": ctx.Value(runtime.RUNTIME_CTX_MATCH_ID),
				"reason":   "match_settlement",
			},
		})
	}
	if err := state.Economy.UpdateBalances(ctx, updates); err != nil {
		logger.Error("Failed to settle stakes: %v", err)
	}
}

// broadcastViews sends every connected player their own filtered view.
func (mh *matchHandler) broadcastViews(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Round == nil {
		return
	}
	for uid := range state.Presences {
		mh.sendView(state, dispatcher, logger, uid)
	}
}

func (mh *matchHandler) sendView(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	view, err := state.Round.PlayerView(userID)
	if err != nil {
		return // spectator or stale presence, nothing to send
	}
	payload, err := json.Marshal(view)
	if err != nil {
		logger.Error("Failed to marshal view for %s: %v", userID, err)
		return
	}
	p, ok := state.Presences[userID]
	if !ok {
		return
	}
	dispatcher.BroadcastMessage(OpViewUpdate, payload, []runtime.Presence{p}, nil, true)
}

// sendError sends a rejection reason to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID, message string) {
	payload, err := json.Marshal(map[string]any{"message": message})
	if err != nil {
		logger.Error("Failed to marshal error event: %v", err)
		return
	}
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	dispatcher.BroadcastMessage(OpGameError, payload, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	matchPhase := "lobby"
	if state.MatchOver {
		matchPhase = "ended"
	} else if state.Round != nil && !state.Round.Over {
		matchPhase = "playing"
	}

	labelBytes, err := json.Marshal(MatchLabel{
		Open:  state.GetOpenSeatsCount(),
		Game:  "burraco",
		State: matchPhase,
	})
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
