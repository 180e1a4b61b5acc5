// Package config provides Viper-based configuration loading for the dice roller service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/diceroller/internal/dice"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Mode selects which adapters run: "standalone" (HTTP and gRPC), "http", or "grpc".
	Mode string `mapstructure:"mode"`
}

// RunsHTTP reports whether the HTTP adapter is enabled for this mode.
func (s ServerConfig) RunsHTTP() bool { return s.Mode == "standalone" || s.Mode == "http" }

// RunsGRPC reports whether the gRPC adapter is enabled for this mode.
func (s ServerConfig) RunsGRPC() bool { return s.Mode == "standalone" || s.Mode == "grpc" }

// HTTPConfig holds HTTP adapter settings.
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// GRPCConfig holds gRPC adapter settings.
type GRPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DiceConfig holds evaluator settings.
type DiceConfig struct {
	// Source is the randomness provider: "crypto" or "seeded".
	Source string `mapstructure:"source"`
	// Seed seeds the "seeded" source; ignored for "crypto".
	Seed uint64 `mapstructure:"seed"`
	// MaxDice caps the die count of any single roll token; 0 disables the cap.
	MaxDice int `mapstructure:"max_dice"`
	// MaxLength caps the byte length of a roll string; 0 disables the cap.
	MaxLength int `mapstructure:"max_length"`
	// DefaultExpression is evaluated when a request carries no roll string.
	DefaultExpression string `mapstructure:"default_expression"`
}

// NewSource builds the configured dice.Source.
//
// Precondition: d.Source must be "crypto" or "seeded".
func (d DiceConfig) NewSource() dice.Source {
	if d.Source == "seeded" {
		return dice.NewSeededSource(d.Seed)
	}
	return dice.NewCryptoSource()
}

// EvaluatorOptions returns the evaluator guards described by d.
func (d DiceConfig) EvaluatorOptions() []dice.Option {
	return []dice.Option{dice.WithMaxDice(d.MaxDice), dice.WithMaxLength(d.MaxLength)}
}

// ScriptingConfig holds Lua roll-macro settings.
type ScriptingConfig struct {
	// MacroDir is the directory of *.lua macro files; empty disables macros.
	MacroDir string `mapstructure:"macro_dir"`
	// InstructionLimit caps Lua opcodes per macro call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Dice      DiceConfig      `mapstructure:"dice"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Server.RunsHTTP() {
		if err := validateHTTP(c.HTTP); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Server.RunsGRPC() {
		if err := validateGRPC(c.GRPC); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDice(c.Dice); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	validModes := map[string]bool{"standalone": true, "http": true, "grpc": true}
	if !validModes[s.Mode] {
		return fmt.Errorf("server.mode must be one of [standalone, http, grpc], got %q", s.Mode)
	}
	return nil
}

func validateHTTP(h HTTPConfig) error {
	var errs []string
	if h.Port < 1 || h.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be 1-65535, got %d", h.Port))
	}
	if h.ReadTimeout < 0 {
		errs = append(errs, "http.read_timeout must not be negative")
	}
	if h.WriteTimeout < 0 {
		errs = append(errs, "http.write_timeout must not be negative")
	}
	if h.ShutdownTimeout < 0 {
		errs = append(errs, "http.shutdown_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGRPC(g GRPCConfig) error {
	var errs []string
	if g.Host == "" {
		errs = append(errs, "grpc.host must not be empty")
	}
	if g.Port < 1 || g.Port > 65535 {
		errs = append(errs, fmt.Sprintf("grpc.port must be 1-65535, got %d", g.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateDice(d DiceConfig) error {
	var errs []string
	if d.Source != "crypto" && d.Source != "seeded" {
		errs = append(errs, fmt.Sprintf("dice.source must be one of [crypto, seeded], got %q", d.Source))
	}
	if d.MaxDice < 0 {
		errs = append(errs, fmt.Sprintf("dice.max_dice must be >= 0, got %d", d.MaxDice))
	}
	if d.MaxLength < 0 {
		errs = append(errs, fmt.Sprintf("dice.max_length must be >= 0, got %d", d.MaxLength))
	}
	if d.DefaultExpression == "" {
		errs = append(errs, "dice.default_expression must not be empty")
	} else if _, err := dice.NewEvaluator(maxFaces{}, d.EvaluatorOptions()...).Evaluate(d.DefaultExpression); err != nil {
		errs = append(errs, fmt.Sprintf("dice.default_expression: %v", err))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// maxFaces lets validation dry-run the default expression without consuming entropy.
type maxFaces struct{}

func (maxFaces) Intn(n int) int { return n - 1 }

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DICE_ prefix
	v.SetEnvPrefix("DICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "standalone")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.shutdown_timeout", "5s")

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("dice.source", "crypto")
	v.SetDefault("dice.seed", 0)
	v.SetDefault("dice.max_dice", 1000)
	v.SetDefault("dice.max_length", 256)
	v.SetDefault("dice.default_expression", dice.DefaultRollString)

	v.SetDefault("scripting.macro_dir", "")
	v.SetDefault("scripting.instruction_limit", 0)
}
