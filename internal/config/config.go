package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gnssrx/internal/gnss"
)

type Config struct {
	Source    SourceConfig   `yaml:"source"`
	Protocols []string       `yaml:"protocols"`
	Record    RecordConfig   `yaml:"record"`
	Forward   ForwardConfig  `yaml:"forward"`
	Web       WebConfig      `yaml:"web"`
	Log       LogConfig      `yaml:"log"`
	Receiver  ReceiverConfig `yaml:"receiver"`
}

// SourceConfig selects where receiver bytes come from.
type SourceConfig struct {
	Kind string `yaml:"kind"` // serial, tcp or replay

	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	Addr string `yaml:"addr"`

	Path  string  `yaml:"path"`
	Speed float64 `yaml:"speed"`
	Loop  bool    `yaml:"loop"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

// ForwardConfig relays validated frames of the listed protocols over UDP.
type ForwardConfig struct {
	Enable    bool     `yaml:"enable"`
	Dest      string   `yaml:"dest"`
	Protocols []string `yaml:"protocols"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type ReceiverConfig struct {
	Reset        ResetConfig         `yaml:"reset"`
	SurveyIn     SurveyInConfig      `yaml:"survey_in"`
	MessageRates []MessageRateConfig `yaml:"message_rates"`
}

// ResetConfig pulses a GPIO line wired to the receiver's reset pin.
type ResetConfig struct {
	Enable bool          `yaml:"enable"`
	Chip   string        `yaml:"chip"`
	Line   int           `yaml:"line"`
	Pulse  time.Duration `yaml:"pulse"`
}

type SurveyInConfig struct {
	Enable         bool          `yaml:"enable"`
	MinDuration    time.Duration `yaml:"min_duration"`
	AccuracyLimitM float64       `yaml:"accuracy_limit_m"`
}

// MessageRateConfig enables a UBX message at rate navigation solutions.
type MessageRateConfig struct {
	Class uint8 `yaml:"class"`
	ID    uint8 `yaml:"id"`
	Rate  uint8 `yaml:"rate"`
}

const (
	SourceSerial = "serial"
	SourceTCP    = "tcp"
	SourceReplay = "replay"
)

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return Config{}, fmt.Errorf("config contains unknown fields: %s", strings.Join(te.Errors, "; "))
		}
		return Config{}, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() error {
	src := &cfg.Source
	src.Kind = strings.ToLower(strings.TrimSpace(src.Kind))
	if src.Kind == "" {
		src.Kind = SourceSerial
	}
	switch src.Kind {
	case SourceSerial:
		// An empty device is auto-detected.
		if src.Baud == 0 {
			src.Baud = 115200
		}
		if src.Baud < 0 {
			return fmt.Errorf("source.baud must be > 0")
		}
	case SourceTCP:
		if src.Addr == "" {
			return fmt.Errorf("source.addr is required when source.kind is 'tcp'")
		}
	case SourceReplay:
		if src.Path == "" {
			return fmt.Errorf("source.path is required when source.kind is 'replay'")
		}
		if src.Speed == 0 {
			src.Speed = 1
		}
		if src.Speed < 0 {
			return fmt.Errorf("source.speed must be > 0")
		}
	default:
		return fmt.Errorf("source.kind must be one of serial, tcp, replay")
	}

	if err := checkProtocols("protocols", cfg.Protocols); err != nil {
		return err
	}

	if cfg.Record.Enable {
		if cfg.Record.Path == "" {
			return fmt.Errorf("record.path is required when record.enable is true")
		}
		if src.Kind == SourceReplay {
			return fmt.Errorf("record cannot be used with source.kind 'replay'")
		}
	}

	if cfg.Forward.Enable {
		if cfg.Forward.Dest == "" {
			return fmt.Errorf("forward.dest is required when forward.enable is true")
		}
		if len(cfg.Forward.Protocols) == 0 {
			cfg.Forward.Protocols = []string{gnss.ProtocolRTCM3.String()}
		}
		if err := checkProtocols("forward.protocols", cfg.Forward.Protocols); err != nil {
			return err
		}
	}

	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	switch cfg.Log.Level {
	case "":
		cfg.Log.Level = "info"
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error")
	}
	switch cfg.Log.Format {
	case "":
		cfg.Log.Format = "console"
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}

	rst := &cfg.Receiver.Reset
	if rst.Chip == "" {
		rst.Chip = "gpiochip0"
	}
	if rst.Pulse <= 0 {
		rst.Pulse = 100 * time.Millisecond
	}
	if rst.Enable && rst.Line < 0 {
		return fmt.Errorf("receiver.reset.line must be >= 0")
	}

	svin := &cfg.Receiver.SurveyIn
	if svin.MinDuration <= 0 {
		svin.MinDuration = 60 * time.Second
	}
	if svin.AccuracyLimitM == 0 {
		svin.AccuracyLimitM = 2.0
	}
	if svin.AccuracyLimitM < 0 {
		return fmt.Errorf("receiver.survey_in.accuracy_limit_m must be > 0")
	}
	return nil
}

func checkProtocols(field string, names []string) error {
	seen := make(map[gnss.Protocol]bool)
	for _, name := range names {
		p, err := gnss.ParseProtocol(name)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if seen[p] {
			return fmt.Errorf("%s: duplicate %q", field, name)
		}
		seen[p] = true
	}
	return nil
}
