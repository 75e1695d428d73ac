package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fadedpez/blackjack/pkg/entities"
	"github.com/fadedpez/blackjack/pkg/services/blackjack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv clears keys for the duration of the test; .env values never
// override variables that are already set, even to ""
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_TYPE", "SQLite")
	t.Setenv("DATA_DIR", "/var/lib/blackjack")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ELASTICSEARCH_URL", "http://es:9200")
	t.Setenv("RULES_FILE", "rules.hcl")
	t.Setenv("ELASTICSEARCH_REINDEX_INTERVAL", "90s")
	unsetenv(t, "ENVIRONMENT", "ELASTICSEARCH_INDEX_PREFIX")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.StorageType)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://es:9200", cfg.ElasticsearchURL)
	assert.Equal(t, "blackjack", cfg.ElasticsearchIndexPrefix)
	assert.Equal(t, "rules.hcl", cfg.RulesFile)
	assert.Equal(t, 90*time.Second, cfg.ReindexInterval)
	assert.Equal(t, "/var/lib/blackjack/wallet.db", cfg.WalletDBPath())
	assert.Equal(t, "/var/lib/blackjack/rounds.db", cfg.GameDBPath())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ENVIRONMENT=production\nSTORAGE_TYPE=memory\n"), 0644))
	t.Chdir(dir)
	unsetenv(t, "ENVIRONMENT", "STORAGE_TYPE", "LOG_LEVEL", "ELASTICSEARCH_REINDEX_INTERVAL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 5*time.Minute, cfg.ReindexInterval)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ELASTICSEARCH_REINDEX_INTERVAL", "often")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{StorageType: StorageMemory, LogLevel: "info"}, false},
		{"sqlite", Config{StorageType: StorageSQLite, LogLevel: "warn", DataDir: "data"}, false},
		{"unknown storage", Config{StorageType: "postgres", LogLevel: "info"}, true},
		{"bad log level", Config{StorageType: StorageMemory, LogLevel: "loud"}, true},
		{"sqlite without data dir", Config{StorageType: StorageSQLite, LogLevel: "info"}, true},
		{"negative reindex interval", Config{StorageType: StorageMemory, LogLevel: "info", ReindexInterval: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRulesDefaults(t *testing.T) {
	cfg, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, blackjack.DefaultConfig(), cfg)

	cfg, err = LoadRules(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, blackjack.DefaultConfig(), cfg)
}

func TestLoadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.hcl")
	src := `
table {
  decks                      = 2
  penetration                = 0.4
  auto_reshuffle             = false
  blackjack_payout           = 1.2
  max_split_hands            = 2
  allow_surrender            = true
  dealer_hits_soft_17        = true
  dealer_plays_when_all_bust = false
}

betting {
  currency         = "EUR"
  min_bet          = 10
  max_bet          = 250.50
  default_bankroll = 500
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	cfg, err := LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.DeckCount)
	assert.Equal(t, 0.4, cfg.PenetrationThreshold)
	assert.False(t, cfg.AutoReshuffle)
	assert.Equal(t, 1.2, cfg.BlackjackPayout)
	assert.Equal(t, 1, cfg.MaxSplits)
	assert.True(t, cfg.AllowSurrender)
	assert.True(t, cfg.DealerHitsSoft17)
	assert.False(t, cfg.DealerPlaysWhenAllBust)
	assert.True(t, cfg.AllowSplit, "Unset flags keep their defaults")
	assert.True(t, cfg.DoubleAfterSplit)

	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, entities.NewMoney(1000, "EUR"), cfg.MinBet)
	assert.Equal(t, entities.NewMoney(25050, "EUR"), cfg.MaxBet)
	assert.Equal(t, entities.NewMoney(50000, "EUR"), cfg.DefaultBankroll)
	assert.Equal(t, entities.NewMoney(0, "EUR"), cfg.MinBankroll)
	assert.Equal(t, entities.NewMoney(10000000, "EUR"), cfg.MaxBankroll)

	bettingCfg := BettingConfig(cfg)
	assert.Equal(t, cfg.MinBet, bettingCfg.MinBet)
	assert.Equal(t, "EUR", bettingCfg.Currency)
	assert.Equal(t, 1.2, bettingCfg.BlackjackPayout)
}

func TestParseRulesRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"too many decks", `table { decks = 9 }`},
		{"penetration too low", `table { penetration = 0.05 }`},
		{"penetration too high", `table { penetration = 0.95 }`},
		{"payout too high", `table { blackjack_payout = 2.5 }`},
		{"one split hand", `table { max_split_hands = 1 }`},
		{"five split hands", `table { max_split_hands = 5 }`},
		{"min above max bet", `betting {
  min_bet = 100
  max_bet = 50
}`},
		{"negative bet", `betting { min_bet = -5 }`},
		{"default bankroll out of range", `betting { default_bankroll = 200000 }`},
		{"unknown attribute", `table { shoes = 2 }`},
		{"wrong type", `table { decks = "six" }`},
		{"syntax error", `table {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.src), "rules.hcl")
			assert.Error(t, err)
		})
	}
}
