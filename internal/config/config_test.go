package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{Mode: "standalone"},
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		GRPC: GRPCConfig{
			Host: "127.0.0.1",
			Port: 50051,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Dice: DiceConfig{
			Source:            "crypto",
			MaxDice:           1000,
			MaxLength:         256,
			DefaultExpression: "1d20",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestHTTPAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestGRPCAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "127.0.0.1:50051", cfg.GRPC.Addr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
server:
  mode: http
http:
  host: 127.0.0.1
  port: 9090
  read_timeout: 1m
logging:
  level: debug
  format: console
dice:
  source: seeded
  seed: 7
  max_dice: 50
  default_expression: 2d6
scripting:
  macro_dir: macros
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Server.Mode)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, time.Minute, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.WriteTimeout, "unset keys fall back to defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "seeded", cfg.Dice.Source)
	assert.Equal(t, uint64(7), cfg.Dice.Seed)
	assert.Equal(t, 50, cfg.Dice.MaxDice)
	assert.Equal(t, 256, cfg.Dice.MaxLength)
	assert.Equal(t, "2d6", cfg.Dice.DefaultExpression)
	assert.Equal(t, "macros", cfg.Scripting.MacroDir)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0644))
	t.Setenv("DICE_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadFromViperDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "standalone", cfg.Server.Mode)
	assert.Equal(t, "1d20", cfg.Dice.DefaultExpression)
	assert.Equal(t, "crypto", cfg.Dice.Source)
}

func TestValidateServerMode(t *testing.T) {
	for _, mode := range []string{"standalone", "http", "grpc"} {
		cfg := validConfig()
		cfg.Server.Mode = mode
		assert.NoError(t, cfg.Validate(), "mode %q should be valid", mode)
	}
	cfg := validConfig()
	cfg.Server.Mode = "invalid"
	assert.Error(t, cfg.Validate())
}

func TestServerModeAdapters(t *testing.T) {
	assert.True(t, ServerConfig{Mode: "standalone"}.RunsHTTP())
	assert.True(t, ServerConfig{Mode: "standalone"}.RunsGRPC())
	assert.True(t, ServerConfig{Mode: "http"}.RunsHTTP())
	assert.False(t, ServerConfig{Mode: "http"}.RunsGRPC())
	assert.False(t, ServerConfig{Mode: "grpc"}.RunsHTTP())
	assert.True(t, ServerConfig{Mode: "grpc"}.RunsGRPC())
}

func TestValidateSkipsDisabledAdapters(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Mode = "grpc"
	cfg.HTTP.Port = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateGRPCHostEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.GRPC.Host = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateDiceSource(t *testing.T) {
	cfg := validConfig()
	cfg.Dice.Source = "dev/urandom"
	assert.Error(t, cfg.Validate())
}

func TestValidateDiceLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Dice.MaxDice = -1
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Dice.MaxLength = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateDefaultExpression(t *testing.T) {
	for _, expr := range []string{"", "d", "-5", "1d20/0", "2000d6"} {
		cfg := validConfig()
		cfg.Dice.DefaultExpression = expr
		assert.Error(t, cfg.Validate(), "default expression %q should be rejected", expr)
	}
}

func TestValidateAggregatesViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	cfg.Dice.Source = "nope"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "dice.source")
}

func TestDiceConfigNewSource(t *testing.T) {
	a := DiceConfig{Source: "seeded", Seed: 3}.NewSource()
	b := DiceConfig{Source: "seeded", Seed: 3}.NewSource()
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Intn(100), b.Intn(100))
	}
	assert.NotNil(t, DiceConfig{Source: "crypto"}.NewSource())
}

// Property-based tests

func TestPropertyValidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.IntRange(1, 65535).Draw(t, "port")
		cfg := validConfig()
		cfg.HTTP.Port = port
		err := cfg.Validate()
		if err != nil {
			t.Fatalf("valid port %d rejected: %v", port, err)
		}
	})
}

func TestPropertyInvalidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Generate ports outside valid range
		port := rapid.OneOf(
			rapid.IntRange(-1000, 0),
			rapid.IntRange(65536, 100000),
		).Draw(t, "port")
		cfg := validConfig()
		cfg.GRPC.Port = port
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("invalid port %d accepted", port)
		}
	})
}
