package tetherdiscovery

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/network"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/power"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/probe"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/tether"
)

// Exhaustion policy names accepted in [probe] exhaustion.
const (
	ExhaustionJoinAll    = "join-all"
	ExhaustionLastListed = "last-listed"
)

var (
	ErrInvalidRange = errors.New("invalid candidate range")
	ErrInvalidPort  = errors.New("port out of range")
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Duration is a time.Duration written as a string ("5s") in config files.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the on-disk configuration.
//
//	[range]
//	prefix = "172.20.10."
//	start = 2
//	end = 15
//	cidr = ""
//	derive_from_bridge = false
//
//	[probe]
//	server = "Acme-Device"
//	port = 8080
//	path = "/status"
//	timeout = "5s"
//	exhaustion = "join-all"
type Config struct {
	Range    RangeConfig    `toml:"range"`
	Probe    ProbeConfig    `toml:"probe"`
	Tether   TetherConfig   `toml:"tether"`
	Identify IdentifyConfig `toml:"identify"`
}

type RangeConfig struct {
	Prefix           string `toml:"prefix"`
	Start            int    `toml:"start"`
	End              int    `toml:"end"`
	CIDR             string `toml:"cidr"`
	DeriveFromBridge bool   `toml:"derive_from_bridge"`
}

// ProbeConfig holds defaults for HTTPAddressGuessing arguments and the
// prober itself.
type ProbeConfig struct {
	Server      string   `toml:"server"`
	Port        int      `toml:"port"`
	Path        string   `toml:"path"`
	Timeout     Duration `toml:"timeout"`
	Scheme      string   `toml:"scheme"`
	InsecureTLS bool     `toml:"insecure_tls"`
	Workers     int      `toml:"workers"`
	Exhaustion  string   `toml:"exhaustion"`
}

type TetherConfig struct {
	BridgePrefix string   `toml:"bridge_prefix"`
	Power        string   `toml:"power"`
	SysfsRoot    string   `toml:"sysfs_root"`
	PollInterval Duration `toml:"poll_interval"`
}

type IdentifyConfig struct {
	Enabled     bool     `toml:"enabled"`
	OUIDatabase string   `toml:"oui_database"`
	Timeout     Duration `toml:"timeout"`
}

// DefaultConfig mirrors DefaultOptions.
func DefaultConfig() Config {
	opts := DefaultOptions()
	return Config{
		Range: RangeConfig{
			Prefix: opts.Range.Prefix,
			Start:  opts.Range.Start,
			End:    opts.Range.End,
		},
		Probe: ProbeConfig{
			Port:       80,
			Path:       "/",
			Timeout:    Duration{opts.ProbeTimeout},
			Scheme:     opts.Scheme,
			Exhaustion: ExhaustionJoinAll,
		},
		Tether: TetherConfig{
			BridgePrefix: opts.BridgePrefix,
			Power:        opts.Power,
			SysfsRoot:    opts.SysfsRoot,
			PollInterval: Duration{opts.PollInterval},
		},
		Identify: IdentifyConfig{
			Timeout: Duration{opts.IdentifyTimeout},
		},
	}
}

// LoadConfig reads a TOML file over DefaultConfig. Keys absent from the file
// keep their defaults; unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: %w: unknown key %q", path, ErrInvalidValue, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail silently at run time.
func (c Config) Validate() error {
	if c.Range.Start < 0 || c.Range.End > 256 || c.Range.End <= c.Range.Start {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, c.Range.Start, c.Range.End)
	}
	if c.Range.CIDR != "" {
		if _, err := network.EnumerateIPs(c.Range.CIDR); err != nil {
			return fmt.Errorf("%w: cidr %q: %v", ErrInvalidRange, c.Range.CIDR, err)
		}
	}
	if c.Probe.Port < 1 || c.Probe.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Probe.Port)
	}
	if c.Probe.Timeout.Duration <= 0 {
		return fmt.Errorf("%w: probe timeout %v", ErrInvalidValue, c.Probe.Timeout)
	}
	if c.Probe.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidValue, c.Probe.Workers)
	}
	switch c.Probe.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("%w: scheme %q", ErrInvalidValue, c.Probe.Scheme)
	}
	if _, err := policyFromName(c.Probe.Exhaustion); err != nil {
		return err
	}
	switch c.Tether.Power {
	case PowerAuto, PowerUPower, PowerSysfs:
	default:
		return fmt.Errorf("%w: power source %q", ErrInvalidValue, c.Tether.Power)
	}
	return nil
}

// Options converts the configuration into library options.
func (c Config) Options() (Options, error) {
	if err := c.Validate(); err != nil {
		return Options{}, err
	}
	policy, _ := policyFromName(c.Probe.Exhaustion)

	opts := DefaultOptions()
	opts.Range = network.Range{Prefix: c.Range.Prefix, Start: c.Range.Start, End: c.Range.End}
	opts.CIDR = c.Range.CIDR
	opts.DeriveRangeFromBridge = c.Range.DeriveFromBridge
	opts.BridgePrefix = c.Tether.BridgePrefix
	if opts.BridgePrefix == "" {
		opts.BridgePrefix = tether.BridgePrefix
	}
	opts.Power = c.Tether.Power
	opts.SysfsRoot = c.Tether.SysfsRoot
	if opts.SysfsRoot == "" {
		opts.SysfsRoot = power.DefaultSysfsRoot
	}
	if c.Tether.PollInterval.Duration > 0 {
		opts.PollInterval = c.Tether.PollInterval.Duration
	}
	opts.ProbeTimeout = c.Probe.Timeout.Duration
	opts.Scheme = c.Probe.Scheme
	opts.InsecureTLS = c.Probe.InsecureTLS
	opts.Workers = c.Probe.Workers
	opts.Policy = policy
	opts.IdentifyDevice = c.Identify.Enabled
	if c.Identify.Timeout.Duration > 0 {
		opts.IdentifyTimeout = c.Identify.Timeout.Duration
	}
	return opts, nil
}

func policyFromName(name string) (probe.Policy, error) {
	switch name {
	case "", ExhaustionJoinAll:
		return probe.JoinAll, nil
	case ExhaustionLastListed:
		return probe.LastListed, nil
	default:
		return probe.JoinAll, fmt.Errorf("%w: exhaustion %q", ErrInvalidValue, name)
	}
}
