// ABOUTME: Process configuration, loaded via viper from YAML file + env overrides
// ABOUTME: Shape-only: this is the knob surface, not where any of it is enforced
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the full process configuration for a voicenode node.
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	Password string `mapstructure:"password"`
	LogLevel string `mapstructure:"log_level"`

	ResumeTimeout        time.Duration `mapstructure:"resume_timeout"`
	PlayerUpdateInterval time.Duration `mapstructure:"player_update_interval"`
	StatsInterval        time.Duration `mapstructure:"stats_interval"`

	Sources   SourcesConfig `mapstructure:"sources"`
	LocalRoot string        `mapstructure:"local_root"`
	Filters   []string      `mapstructure:"filters"`

	TrackCacheSize int     `mapstructure:"track_cache_size"`
	LoadTracksRPS  float64 `mapstructure:"loadtracks_rps"`
}

// SourcesConfig toggles which source adapters are enabled.
type SourcesConfig struct {
	HTTP       bool `mapstructure:"http"`
	Local      bool `mapstructure:"local"`
	YouTube    bool `mapstructure:"youtube"`
	SoundCloud bool `mapstructure:"soundcloud"`
	Bandcamp   bool `mapstructure:"bandcamp"`
	Vimeo      bool `mapstructure:"vimeo"`
	Twitch     bool `mapstructure:"twitch"`
}

// Load reads configuration from path (if it exists) layered under
// defaults, then applies VOICENODE_-prefixed environment overrides.
func Load(path string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("."))
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix("VOICENODE")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 2333)
	v.SetDefault("password", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("resume_timeout", 60*time.Second)
	v.SetDefault("player_update_interval", 5*time.Second)
	v.SetDefault("stats_interval", 60*time.Second)

	v.SetDefault("sources.http", true)
	v.SetDefault("sources.local", true)
	v.SetDefault("sources.youtube", true)
	v.SetDefault("sources.soundcloud", true)
	v.SetDefault("sources.bandcamp", true)
	v.SetDefault("sources.vimeo", true)
	v.SetDefault("sources.twitch", true)

	v.SetDefault("local_root", ".")

	v.SetDefault("filters", []string{
		"volume", "equalizer", "karaoke", "timescale", "tremolo",
		"vibrato", "rotation", "distortion", "channelMix", "lowPass",
	})

	v.SetDefault("track_cache_size", 512)
	v.SetDefault("loadtracks_rps", 20.0)
}
