package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"burraco/internal/domain"
)

// GameConfig is the per-deployment game configuration. Every field has a
// safe default so a missing file never blocks a match.
type GameConfig struct {
	TurnTimerSeconds int `json:"turn_timer_seconds"`
	DeckCount        int `json:"deck_count"`
	JokersPerDeck    int `json:"jokers_per_deck"`
	HandSize         int `json:"hand_size"`
	ReserveSize      int `json:"reserve_size"`

	// CardValues maps rank labels ("A", "2".."10", "J", "Q", "K", "W") to
	// point values; unset ranks keep their defaults.
	CardValues map[string]int `json:"card_values"`

	SameRankBonus    int `json:"same_rank_bonus"`
	CleanBonus       int `json:"clean_bonus"`
	DirtyBonus       int `json:"dirty_bonus"`
	GoingOutBonus    int `json:"going_out_bonus"`
	ReservePileBonus int `json:"reserve_pile_bonus"`

	WinThreshold int   `json:"win_threshold"`
	MatchStake   int64 `json:"match_stake"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// DefaultGameConfig returns the built-in defaults.
func DefaultGameConfig() *GameConfig {
	deck := domain.DefaultDeckConfig()
	rules := domain.DefaultScoreRules()
	return &GameConfig{
		TurnTimerSeconds: 45,
		DeckCount:        deck.DeckCount,
		JokersPerDeck:    deck.JokersPerDeck,
		HandSize:         deck.HandSize,
		ReserveSize:      deck.ReserveSize,
		SameRankBonus:    rules.SameRankBonus,
		CleanBonus:       rules.CleanBonus,
		DirtyBonus:       rules.DirtyBonus,
		GoingOutBonus:    rules.GoingOutBonus,
		ReservePileBonus: rules.ReservePileBonus,
		WinThreshold:     rules.WinThreshold,
		MatchStake:       100,
	}
}

// LoadGameConfig loads the game configuration from the given path once.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}
		c := DefaultGameConfig()
		if err := json.Unmarshal(data, c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = c
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration, or defaults when no file
// was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		return DefaultGameConfig()
	}
	return cfg
}

// DeckConfig converts to the domain deck configuration.
func (c *GameConfig) DeckConfig() domain.DeckConfig {
	return domain.DeckConfig{
		DeckCount:     c.DeckCount,
		JokersPerDeck: c.JokersPerDeck,
		HandSize:      c.HandSize,
		ReserveSize:   c.ReserveSize,
	}
}

// ScoreRules converts to the domain score rules, overlaying any configured
// card values on the default table.
func (c *GameConfig) ScoreRules() domain.ScoreRules {
	rules := domain.DefaultScoreRules()
	rules.SameRankBonus = c.SameRankBonus
	rules.CleanBonus = c.CleanBonus
	rules.DirtyBonus = c.DirtyBonus
	rules.GoingOutBonus = c.GoingOutBonus
	rules.ReservePileBonus = c.ReservePileBonus
	rules.WinThreshold = c.WinThreshold
	for rank, value := range c.CardValues {
		for r := domain.RankWild; r <= domain.RankKing; r++ {
			if r.Label() == rank {
				rules.CardValues[r] = value
			}
		}
	}
	return rules
}
