// Package config loads dfplayer settings from a file, DFPLAYER_ environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/moffa90/go-dfplayer/internal/serialport"
	"github.com/moffa90/go-dfplayer/player"
)

// EnvPrefix prefixes every environment override, e.g. DFPLAYER_SERIAL_PORT.
const EnvPrefix = "DFPLAYER"

// SerialConfig selects the UART.
type SerialConfig struct {
	Port        string        `mapstructure:"port"`
	BaudRate    int           `mapstructure:"baudRate"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}

// PlayerConfig tunes the driver.
type PlayerConfig struct {
	RequestAck      bool          `mapstructure:"requestAck"`
	AckTimeout      time.Duration `mapstructure:"ackTimeout"`
	Retries         int           `mapstructure:"retries"`
	CommandInterval time.Duration `mapstructure:"commandInterval"`
	EventBuffer     int           `mapstructure:"eventBuffer"`
}

// LumberjackConfig configures log file rotation. An empty Filename
// disables file output.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig sets log level, format and outputs.
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
	Path   string `mapstructure:"path"`
}

// Config is the top-level configuration.
type Config struct {
	Serial  SerialConfig  `mapstructure:"serial"`
	Player  PlayerConfig  `mapstructure:"player"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// Load reads configuration from a YAML/TOML/JSON file and the environment.
// With an empty path it looks for dfplayer.{yaml,toml,json} in the working
// directory and ./configs, and falls back to defaults when none exists.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("dfplayer")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baudRate", 9600)
	v.SetDefault("serial.readTimeout", "100ms")

	v.SetDefault("player.requestAck", true)
	v.SetDefault("player.ackTimeout", "500ms")
	v.SetDefault("player.retries", 2)
	v.SetDefault("player.commandInterval", "100ms")
	v.SetDefault("player.eventBuffer", 16)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.path", "/metrics")
}

// SerialPort returns the serialport settings.
func (c SerialConfig) SerialPort() serialport.Config {
	return serialport.Config{
		Port:        c.Port,
		BaudRate:    c.BaudRate,
		ReadTimeout: c.ReadTimeout,
	}
}

// Options returns the player options for these settings.
func (c PlayerConfig) Options() []player.Option {
	return []player.Option{
		player.WithRequestAck(c.RequestAck),
		player.WithAckTimeout(c.AckTimeout),
		player.WithRetries(c.Retries),
		player.WithCommandInterval(c.CommandInterval),
		player.WithEventBuffer(c.EventBuffer),
	}
}
