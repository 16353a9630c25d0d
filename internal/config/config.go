package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ardnew/usbmic/capture"
	"github.com/ardnew/usbmic/uac"
)

// EnvPrefix prefixes environment overrides, e.g. USBMIC_LOG_LEVEL.
const EnvPrefix = "USBMIC"

type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Device    DeviceConfig    `mapstructure:"device" yaml:"device"`
	Source    SourceConfig    `mapstructure:"source" yaml:"source"`
	Transport TransportConfig `mapstructure:"transport" yaml:"transport"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"` // text, json
	File       string `mapstructure:"file" yaml:"file"`     // Empty logs to stderr
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

type DeviceConfig struct {
	ControlInterface   uint8        `mapstructure:"control_interface" yaml:"control_interface"`
	StreamingInterface uint8        `mapstructure:"streaming_interface" yaml:"streaming_interface"`
	FeatureUnit        uint8        `mapstructure:"feature_unit" yaml:"feature_unit"`
	Endpoint           uint8        `mapstructure:"endpoint" yaml:"endpoint"`
	Formats            []uint32     `mapstructure:"formats" yaml:"formats"`
	Volume             VolumeConfig `mapstructure:"volume" yaml:"volume"`
}

// VolumeConfig is in 1/256 dB steps.
type VolumeConfig struct {
	Min int16 `mapstructure:"min" yaml:"min"`
	Max int16 `mapstructure:"max" yaml:"max"`
	Res int16 `mapstructure:"res" yaml:"res"`
}

type SourceConfig struct {
	LeftHz    float64 `mapstructure:"left_hz" yaml:"left_hz"`
	RightHz   float64 `mapstructure:"right_hz" yaml:"right_hz"`
	Amplitude float64 `mapstructure:"amplitude" yaml:"amplitude"`
}

type TransportConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Budget   time.Duration `mapstructure:"budget" yaml:"budget"`
}

// Default returns the built-in configuration: a stereo microphone at 16, 32
// and 48 kHz on a full-speed 1 ms interval.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "warn",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Device: DeviceConfig{
			ControlInterface:   0,
			StreamingInterface: 1,
			FeatureUnit:        2,
			Endpoint:           0x81,
			Formats:            []uint32{16000, 32000, 48000},
			Volume: VolumeConfig{
				Min: capture.DefaultVolumeRange.Min,
				Max: capture.DefaultVolumeRange.Max,
				Res: capture.DefaultVolumeRange.Res,
			},
		},
		Source: SourceConfig{
			LeftHz:    440,
			RightHz:   660,
			Amplitude: 0.5,
		},
		Transport: TransportConfig{
			Interval: capture.DefaultInterval,
			Budget:   capture.DefaultInterval,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// USBMIC_* environment variables, in increasing precedence. A non-empty
// envFile is loaded into the environment first; variables already set are
// not overwritten.
func Load(configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so environment overrides resolve even
// when no config file mentions them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)

	v.SetDefault("device.control_interface", d.Device.ControlInterface)
	v.SetDefault("device.streaming_interface", d.Device.StreamingInterface)
	v.SetDefault("device.feature_unit", d.Device.FeatureUnit)
	v.SetDefault("device.endpoint", d.Device.Endpoint)
	v.SetDefault("device.formats", d.Device.Formats)
	v.SetDefault("device.volume.min", d.Device.Volume.Min)
	v.SetDefault("device.volume.max", d.Device.Volume.Max)
	v.SetDefault("device.volume.res", d.Device.Volume.Res)

	v.SetDefault("source.left_hz", d.Source.LeftHz)
	v.SetDefault("source.right_hz", d.Source.RightHz)
	v.SetDefault("source.amplitude", d.Source.Amplitude)

	v.SetDefault("transport.interval", d.Transport.Interval)
	v.SetDefault("transport.budget", d.Transport.Budget)
}

// Validate checks the configuration for values the device cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		errs = append(errs, errors.New("log: rotation limits must not be negative"))
	}

	d := c.Device
	if d.ControlInterface == d.StreamingInterface {
		errs = append(errs, errors.New("device: control and streaming interfaces must differ"))
	}
	if d.FeatureUnit == 0 {
		errs = append(errs, errors.New("device.feature_unit: must be non-zero"))
	}
	if d.Endpoint&uac.EndpointDirectionIn == 0 || d.Endpoint&0x0F == 0 {
		errs = append(errs, fmt.Errorf("device.endpoint: 0x%02X is not a non-control IN endpoint", d.Endpoint))
	}
	if formats, err := capture.NewFormatTable(d.Formats...); err != nil {
		errs = append(errs, fmt.Errorf("device.formats: %w", err))
	} else if c.Transport.Interval > 0 {
		if err := formats.CheckInterval(c.Transport.Interval); err != nil {
			errs = append(errs, fmt.Errorf("device.formats: %w", err))
		}
	}
	if d.Volume.Min > d.Volume.Max || d.Volume.Res <= 0 {
		errs = append(errs, errors.New("device.volume: need min <= max and res > 0"))
	}

	if c.Source.Amplitude < 0 || c.Source.Amplitude > 1 {
		errs = append(errs, errors.New("source.amplitude: must be within [0, 1]"))
	}
	if c.Source.LeftHz < 0 || c.Source.RightHz < 0 {
		errs = append(errs, errors.New("source: frequencies must not be negative"))
	}

	if c.Transport.Interval <= 0 {
		errs = append(errs, errors.New("transport.interval: must be positive"))
	}
	if c.Transport.Budget < 0 {
		errs = append(errs, errors.New("transport.budget: must not be negative"))
	}

	return errors.Join(errs...)
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// FormatTable returns the configured format table.
func (c *Config) FormatTable() (capture.FormatTable, error) {
	return capture.NewFormatTable(c.Device.Formats...)
}

// Function returns the audio function placement.
func (c *Config) Function() uac.FunctionConfig {
	return uac.FunctionConfig{
		ControlInterface:   c.Device.ControlInterface,
		StreamingInterface: c.Device.StreamingInterface,
		FeatureUnit:        c.Device.FeatureUnit,
		Endpoint:           c.Device.Endpoint,
	}
}

// Session returns the capture session configuration.
func (c *Config) Session() (capture.Config, error) {
	formats, err := c.FormatTable()
	if err != nil {
		return capture.Config{}, err
	}
	return capture.Config{
		Formats:     formats,
		FeatureUnit: c.Device.FeatureUnit,
		Interval:    c.Transport.Interval,
		Volume: capture.VolumeRange{
			Min: c.Device.Volume.Min,
			Max: c.Device.Volume.Max,
			Res: c.Device.Volume.Res,
		},
	}, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
