// Package config loads the engine configuration from TOML files and
// environment variables via Viper, with hot reload through fsnotify.
package config

import "time"

// Config represents the core jigsaw engine configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Hints    HintsConfig    `mapstructure:"hints"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Session  SessionConfig  `mapstructure:"session"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the HTTP/WebSocket server
type ServerConfig struct {
	Port              *int     `mapstructure:"port"` // nil = default 8484, 0 is invalid (omit for default)
	AllowedOrigins    []string `mapstructure:"allowed_origins"`
	RequestsPerMinute int      `mapstructure:"requests_per_minute"` // per-client request limit
}

// DefaultServerPort is used when server.port is omitted.
const DefaultServerPort = 8484

// HintsConfig configures the hint manager
type HintsConfig struct {
	CooldownSeconds int `mapstructure:"cooldown_seconds"` // minimum interval between hints
	CacheCapacity   int `mapstructure:"cache_capacity"`   // composition snapshots kept in memory
	RegionRows      int `mapstructure:"region_rows"`      // progress partition rows
	RegionCols      int `mapstructure:"region_cols"`      // progress partition cols
}

// Cooldown returns the hint cooldown as a duration.
func (h HintsConfig) Cooldown() time.Duration {
	return time.Duration(h.CooldownSeconds) * time.Second
}

// AnalyzerConfig tunes image analysis thresholds. Zero values fall back to
// the analyzer's built-in defaults.
type AnalyzerConfig struct {
	MaxFocalPoints   int     `mapstructure:"max_focal_points"`
	FocalThreshold   float64 `mapstructure:"focal_threshold"`
	ColorThreshold   float64 `mapstructure:"color_threshold"`
	MinRegionCells   int     `mapstructure:"min_region_cells"`
	MaxColorRegions  int     `mapstructure:"max_color_regions"`
	TextureThreshold float64 `mapstructure:"texture_threshold"`
	MaxPatterns      int     `mapstructure:"max_patterns"`
}

// SessionConfig configures session scoring
type SessionConfig struct {
	BaseScore              int `mapstructure:"base_score"`                // score before bonuses and penalties
	HintPenalty            int `mapstructure:"hint_penalty"`              // deducted per hint used
	MinScore               int `mapstructure:"min_score"`                 // completed sessions never score below this
	TimeBonusMax           int `mapstructure:"time_bonus_max"`            // bonus for an instant solve
	TimeBonusWindowSeconds int `mapstructure:"time_bonus_window_seconds"` // bonus decays to zero over this window
}
