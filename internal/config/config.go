package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/mmcdole/strix/internal/domain"
)

// Config holds all application configuration, profiles included.
type Config struct {
	Profiles       []domain.Profile  `mapstructure:"profiles"`
	CurrentProfile string            `mapstructure:"current_profile"` // profile id
	Favorites      []domain.Favorite `mapstructure:"favorites"`
	Player         PlayerConfig      `mapstructure:"player"`
	UI             UIConfig          `mapstructure:"ui"`
	Cache          CacheConfig       `mapstructure:"cache"`
	Logging        LoggingConfig     `mapstructure:"logging"`
}

// PlayerConfig holds external media player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	WindowSize int `mapstructure:"window_size"` // rendered window width in items
	PageSize   int `mapstructure:"page_size"`   // items added per pagination step
}

// CacheConfig holds catalog cache configuration
type CacheConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"` // durable tier budget, 0 = unlimited
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Player: PlayerConfig{
			Command: "mpv",
			Args:    []string{},
		},
		UI: UIConfig{
			WindowSize: 100,
			PageSize:   24,
		},
		Cache: CacheConfig{
			Dir:      defaultCachePath(),
			MaxBytes: 64 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "strix", "strix.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "strix", "strix.log")
	}
}

func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "strix")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "strix")
	}
}

func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "strix", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "strix", "cache")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("STRIX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("profiles", profilesForSave(cfg.Profiles))
	viper.Set("current_profile", cfg.CurrentProfile)
	viper.Set("favorites", favoritesForSave(cfg.Favorites))
	viper.Set("player.command", cfg.Player.Command)
	viper.Set("player.args", cfg.Player.Args)
	viper.Set("ui.window_size", cfg.UI.WindowSize)
	viper.Set("ui.page_size", cfg.UI.PageSize)
	viper.Set("cache.dir", cfg.Cache.Dir)
	viper.Set("cache.max_bytes", cfg.Cache.MaxBytes)
	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// profilesForSave flattens profiles to plain maps so viper writes snake_case
// keys consistently.
func profilesForSave(profiles []domain.Profile) []map[string]any {
	out := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, map[string]any{
			"id":         p.ID,
			"name":       p.Name,
			"url":        p.URL,
			"username":   p.Username,
			"password":   p.Password,
			"created_at": p.CreatedAt,
			"updated_at": p.UpdatedAt,
		})
	}
	return out
}

func favoritesForSave(favorites []domain.Favorite) []map[string]any {
	out := make([]map[string]any, 0, len(favorites))
	for _, f := range favorites {
		out = append(out, map[string]any{
			"profile_id":  f.ProfileID,
			"entry_id":    f.EntryID,
			"stream_id":   f.StreamID,
			"name":        f.Name,
			"thumbnail":   f.Thumbnail,
			"stream_type": string(f.StreamType),
			"category_id": f.CategoryID,
			"added_at":    f.AddedAt,
		})
	}
	return out
}

// ToggleFavorite adds the bookmark, or removes it if the same entry is
// already bookmarked for the same profile. Returns true when the entry is
// now a favorite.
func (c *Config) ToggleFavorite(f domain.Favorite) bool {
	for i, have := range c.Favorites {
		if have.ProfileID == f.ProfileID && have.EntryID == f.EntryID {
			c.Favorites = append(c.Favorites[:i], c.Favorites[i+1:]...)
			return false
		}
	}
	c.Favorites = append(c.Favorites, f)
	return true
}

// IsFavorite reports whether an entry is bookmarked for a profile.
func (c *Config) IsFavorite(profileID, entryID string) bool {
	for _, f := range c.Favorites {
		if f.ProfileID == profileID && f.EntryID == entryID {
			return true
		}
	}
	return false
}

// FavoritesFor returns the bookmarks belonging to one profile, in the order
// they were added.
func (c *Config) FavoritesFor(profileID string) []domain.Favorite {
	var out []domain.Favorite
	for _, f := range c.Favorites {
		if f.ProfileID == profileID {
			out = append(out, f)
		}
	}
	return out
}

// AddProfile appends a new backend profile and returns it. The caller is
// responsible for saving.
func (c *Config) AddProfile(name, url, username, password string) domain.Profile {
	now := time.Now()
	p := domain.Profile{
		ID:        uuid.NewString(),
		Name:      name,
		URL:       url,
		Username:  username,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Profiles = append(c.Profiles, p)
	if c.CurrentProfile == "" {
		c.CurrentProfile = p.ID
	}
	return p
}

// DeleteProfile removes a profile by id together with its favorites,
// reporting whether it existed. Cache invalidation for the removed partition
// is the caller's concern.
func (c *Config) DeleteProfile(id string) bool {
	for i, p := range c.Profiles {
		if p.ID == id {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			kept := c.Favorites[:0]
			for _, f := range c.Favorites {
				if f.ProfileID != id {
					kept = append(kept, f)
				}
			}
			c.Favorites = kept
			if c.CurrentProfile == id {
				c.CurrentProfile = ""
				if len(c.Profiles) > 0 {
					c.CurrentProfile = c.Profiles[0].ID
				}
			}
			return true
		}
	}
	return false
}

// Profile looks up a profile by id.
func (c *Config) Profile(id string) (domain.Profile, bool) {
	for _, p := range c.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Profile{}, false
}

// Current returns the selected profile, if any.
func (c *Config) Current() (domain.Profile, bool) {
	return c.Profile(c.CurrentProfile)
}

// IsConfigured returns true if at least one complete profile exists
func (c *Config) IsConfigured() bool {
	for _, p := range c.Profiles {
		if p.IsComplete() {
			return true
		}
	}
	return false
}
