// Package config carries the tuning constants that govern an STCP
// connection: segment sizing, window ceilings, and retransmission timing.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// HeaderLength is the fixed STCP segment header size in bytes (no options).
const HeaderLength = 20

// Config holds the values spec'd in the wire-format/tuning-constants
// section: segment sizing, window ceilings, retransmission timing, and
// the ISS generation mode.
type Config struct {
	// MSS is the maximum segment size (header + payload) in bytes.
	MSS int `yaml:"mss"`

	// LocalRecvWindow is the initial advertised receive window and the
	// capacity of the application staging buffers.
	LocalRecvWindow int `yaml:"localRecvWindow"`

	// CongestionCeiling clamps the peer-advertised window we will ever
	// honor, standing in for real congestion control.
	CongestionCeiling int `yaml:"congestionCeiling"`

	// RTOMillis is the fixed retransmission timeout, in milliseconds.
	RTOMillis int `yaml:"rtoMillis"`

	// MaxRetries is the retransmit attempt cap before a connection is
	// abandoned.
	MaxRetries int `yaml:"maxRetries"`

	// DeterministicISS forces iss=1 instead of a random value in
	// [0,255], for reproducible tests.
	DeterministicISS bool `yaml:"deterministicIss"`
}

// DefaultConfig returns the tuning constants named in the wire format
// section: MSS=536, LocalRecvWindow=3072, CongestionCeiling=3072, RTO=1s,
// MaxRetries=6, randomized ISS.
func DefaultConfig() *Config {
	return &Config{
		MSS:               536,
		LocalRecvWindow:   3072,
		CongestionCeiling: 3072,
		RTOMillis:         1000,
		MaxRetries:        6,
		DeterministicISS:  false,
	}
}

// LoadConfig reads a YAML file at path and overlays it onto DefaultConfig.
// Missing fields keep their default value.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}

	return cfg, nil
}

// PayloadCeiling is the maximum data bytes a single segment may carry
// given the fixed 20-byte header.
func (c *Config) PayloadCeiling() int {
	return c.MSS - HeaderLength
}
