package sched

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrMalformedConfiguration is returned when a hardware configuration
// cannot be parsed as seven category rows.
type ErrMalformedConfiguration struct {
	Reason string
}

func (e *ErrMalformedConfiguration) Error() string {
	return fmt.Sprintf("malformed hardware configuration: %s", e.Reason)
}

// CategoryConfig is one station-bank category's layout: how many
// stations it has and their latencies.
type CategoryConfig struct {
	NumStations int `json:"num_stations" yaml:"num_stations" toml:"num_stations"`
	CyclesExec  int `json:"cycles_for_exec" yaml:"cycles_for_exec" toml:"cycles_for_exec"`

	// CyclesAddr is the address-resolution latency. Only meaningful for
	// Load and Store; 0 for every other category.
	CyclesAddr int `json:"cycles_for_addr,omitempty" yaml:"cycles_for_addr,omitempty" toml:"cycles_for_addr,omitempty"`
}

// Config is the hardware configuration: one CategoryConfig per station
// category, in insts.Category ordinal order.
type Config struct {
	Categories [7]CategoryConfig `json:"categories" yaml:"categories" toml:"categories"`
}

// categoryOrder mirrors original_source/tomasulo.py's station_types list.
var categoryOrder = [7]string{"LOAD", "STORE", "BEQ", "JUMP", "ADD", "MUL", "NOR"}

// DefaultConfig returns the built-in default hardware layout from
// original_source/tomasulo.py's _initialize_hardware.
func DefaultConfig() *Config {
	return &Config{
		Categories: [7]CategoryConfig{
			{NumStations: 2, CyclesExec: 2, CyclesAddr: 4}, // LOAD
			{NumStations: 2, CyclesExec: 2, CyclesAddr: 4}, // STORE
			{NumStations: 2, CyclesExec: 1},                // BEQ
			{NumStations: 1, CyclesExec: 1},                // JUMP
			{NumStations: 4, CyclesExec: 2},                // ADD
			{NumStations: 2, CyclesExec: 10},               // MUL
			{NumStations: 2, CyclesExec: 1},                // NOR
		},
	}
}

// LoadConfig reads the plain-text hardware configuration format
// original_source/tomasulo.py's input file uses: seven lines, one per
// category in LOAD, STORE, BEQ, JUMP, ADD, MUL, NOR order, each
// "num_stations cycles_for_exec [cycles_for_addr]".
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hardware config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := parseConfigText(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hardware config file %s: %w", path, err)
	}
	return cfg, nil
}

func parseConfigText(r io.Reader) (*Config, error) {
	var cfg Config
	scanner := bufio.NewScanner(r)
	row := 0
	for scanner.Scan() && row < len(cfg.Categories) {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, &ErrMalformedConfiguration{Reason: fmt.Sprintf("row %d (%s): expected at least 2 fields, got %q", row, categoryOrder[row], line)}
		}
		numStations, err1 := strconv.Atoi(fields[0])
		cyclesExec, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			return nil, &ErrMalformedConfiguration{Reason: fmt.Sprintf("row %d (%s): non-integer field in %q", row, categoryOrder[row], line)}
		}
		cc := CategoryConfig{NumStations: numStations, CyclesExec: cyclesExec}
		if row == 0 || row == 1 { // LOAD, STORE
			if len(fields) < 3 {
				return nil, &ErrMalformedConfiguration{Reason: fmt.Sprintf("row %d (%s): missing cycles_for_addr", row, categoryOrder[row])}
			}
			cyclesAddr, err3 := strconv.Atoi(fields[2])
			if err3 != nil {
				return nil, &ErrMalformedConfiguration{Reason: fmt.Sprintf("row %d (%s): non-integer cycles_for_addr in %q", row, categoryOrder[row], line)}
			}
			cc.CyclesAddr = cyclesAddr
		}
		cfg.Categories[row] = cc
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if row != len(cfg.Categories) {
		return nil, &ErrMalformedConfiguration{Reason: fmt.Sprintf("expected 7 category rows, got %d", row)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigYAML reads a hardware configuration serialized as YAML,
// alongside the plain-text format LoadConfig reads. Ambient persistence
// plumbing, grounded in the jasonKoogler/cpu-sim sibling project's YAML
// machine configuration.
func LoadConfigYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML hardware config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML hardware config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfigYAML writes cfg as YAML to path.
func (c *Config) SaveConfigYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize YAML hardware config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write YAML hardware config: %w", err)
	}
	return nil
}

// LoadConfigTOML reads a hardware configuration serialized as TOML,
// grounded in the lookbusy1344/arm-emulator sibling project's TOML
// configuration.
func LoadConfigTOML(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML hardware config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfigTOML writes cfg as TOML to path.
func (c *Config) SaveConfigTOML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create TOML hardware config: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to serialize TOML hardware config: %w", err)
	}
	return nil
}

// SaveConfig writes cfg as JSON to path, matching the teacher's
// timing/latency.TimingConfig.SaveConfig.
func (c *Config) SaveConfig(path string) error {
	return saveConfigJSON(c, path)
}

// Validate checks that every category has at least one station and a
// positive execution latency, and that only LOAD/STORE carry an
// address-resolution latency.
func (c *Config) Validate() error {
	for i, cc := range c.Categories {
		if cc.NumStations <= 0 {
			return &ErrMalformedConfiguration{Reason: fmt.Sprintf("%s: num_stations must be > 0", categoryOrder[i])}
		}
		if cc.CyclesExec <= 0 {
			return &ErrMalformedConfiguration{Reason: fmt.Sprintf("%s: cycles_for_exec must be > 0", categoryOrder[i])}
		}
		if i != 0 && i != 1 && cc.CyclesAddr != 0 {
			return &ErrMalformedConfiguration{Reason: fmt.Sprintf("%s: cycles_for_addr must be 0", categoryOrder[i])}
		}
	}
	return nil
}

// Clone returns a deep copy of cfg (the array is copied by value, so
// this is just a value copy wrapped for symmetry with the teacher's
// TimingConfig.Clone).
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
