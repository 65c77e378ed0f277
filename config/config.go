// Package config resolves rentdesk settings from a config file, the
// environment and built-in defaults, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/habedi/rentdesk/pkg/validation"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. RENTDESK_API_URL.
const EnvPrefix = "RENTDESK"

const (
	DefaultAPIURL        = "http://127.0.0.1:8000/api/"
	DefaultTimeout       = 30 * time.Second
	DefaultWatchInterval = time.Minute
	DefaultWorkers       = 4
)

// Config holds the resolved settings.
type Config struct {
	APIURL        url.URL       `mapstructure:"api_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	DownloadRate  int64         `mapstructure:"download_rate"` // bytes per second, 0 = unlimited
	WatchInterval time.Duration `mapstructure:"watch_interval"`
	Workers       int           `mapstructure:"workers"`
}

// Load reads config.yaml from dataDir (or the explicit file path when set),
// then applies RENTDESK_* environment variables on top.
func Load(dataDir, file string) (Config, error) {
	v := viper.New()
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("download_rate", 0)
	v.SetDefault("watch_interval", DefaultWatchInterval)
	v.SetDefault("workers", DefaultWorkers)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName("config")
		v.AddConfigPath(dataDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		log.Debug().Str("dir", dataDir).Msg("No config file found, using environment and defaults")
	} else {
		log.Debug().Str("file", filepath.Clean(v.ConfigFileUsed())).Msg("Loaded config file")
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			parseStringAsURL(),
		),
	))
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges that decoding cannot.
func (c Config) Validate() error {
	if c.APIURL.Scheme != "http" && c.APIURL.Scheme != "https" {
		return fmt.Errorf("api_url must be an http or https URL, got %q", c.APIURL.String())
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.DownloadRate < 0 {
		return fmt.Errorf("download_rate cannot be negative, got %d", c.DownloadRate)
	}
	if c.WatchInterval < time.Second {
		return fmt.Errorf("watch_interval must be at least 1s, got %s", c.WatchInterval)
	}
	if err := validation.ValidateWorkerCount(c.Workers); err != nil {
		return fmt.Errorf("workers: %w", err)
	}
	return nil
}

func parseStringAsURL() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(url.URL{}) {
			return data, nil
		}
		s, ok := data.(string)
		if !ok {
			return nil, fmt.Errorf("cannot cast URL value to string")
		}
		if s == "" {
			return nil, fmt.Errorf("empty values are not allowed for URLs")
		}
		u, err := url.Parse(s)
		if err != nil {
			return nil, err
		}
		return u, nil
	}
}
