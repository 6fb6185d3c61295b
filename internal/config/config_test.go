package config

import (
	"os"
	"path/filepath"
	"testing"

	"burraco/internal/domain"
)

func TestDefaultGameConfig(t *testing.T) {
	c := DefaultGameConfig()

	if c.TurnTimerSeconds != 45 {
		t.Errorf("turn timer = %d, want 45", c.TurnTimerSeconds)
	}
	if c.DeckCount != 3 || c.JokersPerDeck != 2 || c.HandSize != 11 || c.ReserveSize != 11 {
		t.Errorf("deck defaults wrong: %+v", c)
	}
	if c.WinThreshold != 2000 || c.MatchStake != 100 {
		t.Errorf("match defaults wrong: %+v", c)
	}
	if c.DeckConfig().TotalCards() != 162 {
		t.Errorf("total cards = %d, want 162", c.DeckConfig().TotalCards())
	}
}

func TestScoreRulesOverlay(t *testing.T) {
	c := DefaultGameConfig()
	c.CleanBonus = 250
	c.CardValues = map[string]int{"A": 20, "W": 25}

	rules := c.ScoreRules()

	if rules.CleanBonus != 250 {
		t.Errorf("clean bonus = %d, want 250", rules.CleanBonus)
	}
	if rules.CardValues[domain.RankAce] != 20 {
		t.Errorf("ace value = %d, want 20", rules.CardValues[domain.RankAce])
	}
	if rules.CardValues[domain.RankWild] != 25 {
		t.Errorf("wild value = %d, want 25", rules.CardValues[domain.RankWild])
	}
	// Unconfigured ranks keep their defaults.
	if rules.CardValues[domain.RankKing] != 10 {
		t.Errorf("king value = %d, want 10", rules.CardValues[domain.RankKing])
	}
}

func TestLoadGameConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game_config.json")
	body := `{"turn_timer_seconds": 30, "win_threshold": 1500, "card_values": {"A": 20}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := LoadGameConfig(path); err != nil {
		t.Fatalf("load config: %v", err)
	}

	c := GetGameConfig()
	if c.TurnTimerSeconds != 30 {
		t.Errorf("turn timer = %d, want 30", c.TurnTimerSeconds)
	}
	if c.WinThreshold != 1500 {
		t.Errorf("win threshold = %d, want 1500", c.WinThreshold)
	}
	// Fields absent from the file keep their defaults.
	if c.HandSize != 11 || c.MatchStake != 100 {
		t.Errorf("defaults lost: %+v", c)
	}
	if got := c.ScoreRules().CardValues[domain.RankAce]; got != 20 {
		t.Errorf("ace value = %d, want 20", got)
	}
}
