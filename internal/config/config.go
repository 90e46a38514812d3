package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Leaderboard Leaderboard `yaml:"leaderboard"`
}

// Leaderboard holds ranking caps and the tie-break policy. Zero values fall
// back to the defaults.
type Leaderboard struct {
	GlobalLimit        int    `yaml:"global_limit"`
	QuizLimit          int    `yaml:"quiz_limit"`
	WindowLimit        int    `yaml:"window_limit"`
	TopPerformersLimit int    `yaml:"top_performers_limit"`
	RankingScanLimit   int    `yaml:"ranking_scan_limit"`
	RecentDays         int    `yaml:"recent_days"`
	TieBreak           string `yaml:"tie_break"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LeaderboardDefaults returns the leaderboard section with unset values filled in.
func (c Config) LeaderboardDefaults() Leaderboard {
	lb := c.Leaderboard
	lb.GlobalLimit = positiveOr(lb.GlobalLimit, 50)
	lb.QuizLimit = positiveOr(lb.QuizLimit, 20)
	lb.WindowLimit = positiveOr(lb.WindowLimit, 20)
	lb.TopPerformersLimit = positiveOr(lb.TopPerformersLimit, 10)
	lb.RankingScanLimit = positiveOr(lb.RankingScanLimit, 1000)
	lb.RecentDays = positiveOr(lb.RecentDays, 7)
	if lb.TieBreak == "" {
		lb.TieBreak = "none"
	}
	return lb
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
