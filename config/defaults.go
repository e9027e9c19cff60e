package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "jigsaw.db")

	// Server configuration defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.requests_per_minute", 60)

	// Hint manager defaults
	v.SetDefault("hints.cooldown_seconds", 7200) // 2 hours between hints
	v.SetDefault("hints.cache_capacity", 16)
	v.SetDefault("hints.region_rows", 3)
	v.SetDefault("hints.region_cols", 3)

	// Analyzer defaults mirror the analysis package's built-ins
	v.SetDefault("analyzer.max_focal_points", 5)
	v.SetDefault("analyzer.focal_threshold", 0.15)
	v.SetDefault("analyzer.color_threshold", 0.12)
	v.SetDefault("analyzer.min_region_cells", 2)
	v.SetDefault("analyzer.max_color_regions", 12)
	v.SetDefault("analyzer.texture_threshold", 0.85)
	v.SetDefault("analyzer.max_patterns", 4)

	// Scoring defaults
	v.SetDefault("session.base_score", 1000)
	v.SetDefault("session.hint_penalty", 20)
	v.SetDefault("session.min_score", 50)
	v.SetDefault("session.time_bonus_max", 500)
	v.SetDefault("session.time_bonus_window_seconds", 600)
}
