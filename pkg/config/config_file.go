package config

import (
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// FileConfig mirrors Config for TOML. Pointers tell unset from zero.
type FileConfig struct {
	Listen        string       `toml:"listen"`
	ImageDir      string       `toml:"image_dir"`
	FontPath      string       `toml:"font_path"`
	LogFile       string       `toml:"log_file"`
	Debug         *bool        `toml:"debug"`
	Device        string       `toml:"device"`
	SerialPort    string       `toml:"serial_port"`
	SerialBaud    int          `toml:"serial_baud"`
	VirtualOnline *bool        `toml:"virtual_online"`
	IDCode        string       `toml:"id_code"`
	Timeout       int          `toml:"timeout"`
	BindIP        string       `toml:"bind_ip"`
	BindPort      *int         `toml:"bind_port"`
	CleanupUnsent *bool        `toml:"cleanup_unsent"`
	Defaults      FileDefaults `toml:"defaults"`
}

type FileDefaults struct {
	LEDIP     string `toml:"led_ip"`
	LEDPort   int    `toml:"led_port"`
	LEDWidth  int    `toml:"led_width"`
	LEDHeight int    `toml:"led_height"`
	FontSize  int    `toml:"font_size"`
	Alignment string `toml:"alignment"`
}

func LoadFile(fs afero.Fs, path string) (FileConfig, error) {
	var fc FileConfig
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// ApplyFile copies file values into cfg, skipping every key whose flag was
// set on the command line.
func ApplyFile(cfg *Config, fc FileConfig, changed map[string]bool) {
	s := setter{changed: changed}

	s.str("listen", fc.Listen, &cfg.Listen)
	s.str("image-dir", fc.ImageDir, &cfg.ImageDir)
	s.str("font-path", fc.FontPath, &cfg.FontPath)
	s.str("log-file", fc.LogFile, &cfg.LogFile)
	s.boolean("debug", fc.Debug, &cfg.Debug)
	s.str("device", fc.Device, &cfg.Device)
	s.str("serial-port", fc.SerialPort, &cfg.SerialPort)
	s.num("serial-baud", fc.SerialBaud, &cfg.SerialBaud)
	s.boolean("virtual-online", fc.VirtualOnline, &cfg.VirtualOnline)
	s.str("id-code", fc.IDCode, &cfg.IDCode)
	s.num("timeout", fc.Timeout, &cfg.Timeout)
	s.str("bind-ip", fc.BindIP, &cfg.BindIP)
	if fc.BindPort != nil && !changed["bind-port"] {
		cfg.BindPort = *fc.BindPort
	}
	s.boolean("cleanup-unsent", fc.CleanupUnsent, &cfg.CleanupUnsent)

	d := fc.Defaults
	s.str("led-ip", d.LEDIP, &cfg.Defaults.LEDIP)
	s.num("led-port", d.LEDPort, &cfg.Defaults.LEDPort)
	s.num("led-width", d.LEDWidth, &cfg.Defaults.LEDWidth)
	s.num("led-height", d.LEDHeight, &cfg.Defaults.LEDHeight)
	s.num("font-size", d.FontSize, &cfg.Defaults.FontSize)
	s.str("alignment", d.Alignment, &cfg.Defaults.Alignment)
}

type setter struct {
	changed map[string]bool
}

func (s setter) str(flag, v string, dst *string) {
	if v != "" && !s.changed[flag] {
		*dst = v
	}
}

func (s setter) num(flag string, v int, dst *int) {
	if v != 0 && !s.changed[flag] {
		*dst = v
	}
}

func (s setter) boolean(flag string, v *bool, dst *bool) {
	if v != nil && !s.changed[flag] {
		*dst = *v
	}
}
