package config

import "github.com/lyz-njeri/Jigsaw-game/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && *c.Server.Port < 0 {
		return errors.Newf("server.port must be positive, got %d", *c.Server.Port)
	}

	if c.Server.RequestsPerMinute < 0 {
		return errors.Newf("server.requests_per_minute must be >= 0, got %d", c.Server.RequestsPerMinute)
	}

	// Cooldown 0 disables the gate entirely, which is valid for local play
	if c.Hints.CooldownSeconds < 0 {
		return errors.Newf("hints.cooldown_seconds must be >= 0, got %d", c.Hints.CooldownSeconds)
	}
	if c.Hints.CacheCapacity < 0 {
		return errors.Newf("hints.cache_capacity must be >= 0, got %d", c.Hints.CacheCapacity)
	}
	if c.Hints.RegionRows < 0 || c.Hints.RegionCols < 0 {
		return errors.Newf("hints.region_rows and hints.region_cols must be >= 0, got %dx%d",
			c.Hints.RegionRows, c.Hints.RegionCols)
	}

	// Analyzer thresholds are fractions of normalized scores
	for name, v := range map[string]float64{
		"analyzer.focal_threshold":   c.Analyzer.FocalThreshold,
		"analyzer.color_threshold":   c.Analyzer.ColorThreshold,
		"analyzer.texture_threshold": c.Analyzer.TextureThreshold,
	} {
		if v < 0 || v > 1 {
			return errors.Newf("%s must be within [0,1], got %f", name, v)
		}
	}

	if c.Session.MinScore > c.Session.BaseScore {
		return errors.Newf("session.min_score (%d) cannot exceed session.base_score (%d)",
			c.Session.MinScore, c.Session.BaseScore)
	}
	if c.Session.HintPenalty < 0 {
		return errors.Newf("session.hint_penalty must be >= 0, got %d", c.Session.HintPenalty)
	}

	return nil
}
