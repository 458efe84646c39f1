// Package config loads the YAML file that describes a hub: global settings,
// the channel list, report storage, telemetry and the HTTP listener.
package config

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/errors"
	"github.com/kart-io/alerthub/pkg/observability"
)

// Environment variables that override the file.
const (
	EnvService      = "ALERTHUB_SERVICE"
	EnvEnvironment  = "ALERTHUB_ENVIRONMENT"
	EnvLogLevel     = "ALERTHUB_LOG_LEVEL"
	EnvStrictMode   = "ALERTHUB_STRICT_MODE"
	EnvFailSilently = "ALERTHUB_FAIL_SILENTLY"
)

// Receipt store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// File is the on-disk hub configuration.
type File struct {
	Service            string               `yaml:"service" json:"service"`
	Environment        string               `yaml:"environment" json:"environment"`
	FailSilently       *bool                `yaml:"fail_silently" json:"fail_silently,omitempty"`
	Beauty             *bool                `yaml:"beauty" json:"beauty,omitempty"`
	Specific           []alert.FieldSpec    `yaml:"specific" json:"specific,omitempty"`
	StrictMode         bool                 `yaml:"strict_mode" json:"strict_mode"`
	HealthCheck        bool                 `yaml:"health_check" json:"health_check"`
	HealthCheckMessage string               `yaml:"health_check_message" json:"health_check_message,omitempty"`
	LogLevel           string               `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=silent off none error warn warning info debug trace"`
	Channels           []channel.Descriptor `yaml:"channels" json:"channels"`

	Telemetry observability.Config `yaml:"telemetry" json:"telemetry"`
	Receipts  Receipts             `yaml:"receipts" json:"receipts"`
	HTTP      HTTP                 `yaml:"http" json:"http"`
}

// Receipts configures report history.
type Receipts struct {
	Backend    string        `yaml:"backend" json:"backend" validate:"omitempty,oneof=memory redis none"`
	RedisURL   string        `yaml:"redis_url" json:"redis_url" validate:"required_if=Backend redis"`
	KeyPrefix  string        `yaml:"key_prefix" json:"key_prefix"`
	MaxEntries int           `yaml:"max_entries" json:"max_entries" validate:"gte=0"`
	TTL        time.Duration `yaml:"ttl" json:"ttl" validate:"gte=0"`
}

// HTTP configures the API listener.
type HTTP struct {
	Addr         string        `yaml:"addr" json:"addr" validate:"omitempty,hostname_port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" validate:"gte=0"`
	RateLimit    float64       `yaml:"rate_limit" json:"rate_limit" validate:"gte=0"`
	RateBurst    int           `yaml:"rate_burst" json:"rate_burst" validate:"gte=0"`
}

// Default returns a configuration with every default filled in and no channels.
func Default() *File {
	silent, beauty := true, true
	return &File{
		Service:      channel.DefaultService,
		Environment:  channel.DefaultEnvironment,
		FailSilently: &silent,
		Beauty:       &beauty,
		LogLevel:     "info",
		Telemetry:    observability.DefaultConfig(),
		Receipts: Receipts{
			Backend:    BackendMemory,
			KeyPrefix:  "alerthub:",
			MaxEntries: 1000,
		},
		HTTP: HTTP{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// IsFailSilently reports the effective fail-silently flag.
func (f *File) IsFailSilently() bool { return f.FailSilently == nil || *f.FailSilently }

// IsBeauty reports the effective beauty flag.
func (f *File) IsBeauty() bool { return f.Beauty == nil || *f.Beauty }

// Load reads, expands, overrides and validates the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoadFailed, "failed to read configuration").
			WithDetails(err.Error()).
			WithContext("path", path)
	}
	return Parse(data, os.LookupEnv)
}

// Parse decodes data on top of Default. ${VAR} and ${VAR:-default}
// references are expanded with lookup before decoding, and the ALERTHUB_*
// variables override the decoded values.
func Parse(data []byte, lookup func(string) (string, bool)) (*File, error) {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	f := Default()
	dec := yaml.NewDecoder(bytes.NewReader(ExpandEnv(data, lookup)))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.ErrConfigLoadFailed, "failed to parse configuration").
			WithDetails(err.Error())
	}

	if err := f.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvService); ok && v != "" {
		f.Service = v
	}
	if v, ok := lookup(EnvEnvironment); ok && v != "" {
		f.Environment = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		f.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvStrictMode); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New(errors.ErrInvalidConfig, "invalid boolean in environment").
				WithDetails(EnvStrictMode + "=" + v)
		}
		f.StrictMode = b
	}
	if v, ok := lookup(EnvFailSilently); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New(errors.ErrInvalidConfig, "invalid boolean in environment").
				WithDetails(EnvFailSilently + "=" + v)
		}
		f.FailSilently = &b
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} in data. Bare $VAR is left
// alone so secrets containing '$' survive.
func ExpandEnv(data []byte, lookup func(string) (string, bool)) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		sub := envRef.FindSubmatch(m)
		if v, ok := lookup(string(sub[1])); ok {
			return []byte(v)
		}
		return sub[2]
	})
}
