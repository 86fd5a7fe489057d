package config

import (
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
)

// Bind registers every option on fs with cfg's current values as defaults.
func Bind(fs *flag.FlagSet, cfg *Config) *string {
	path := fs.String("config", "", "TOML config file")

	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "http listen addr")
	fs.StringVar(&cfg.ImageDir, "image-dir", cfg.ImageDir, "directory for rendered images")
	fs.StringVar(&cfg.FontPath, "font-path", cfg.FontPath, "TTF/OTF font, built-in font when empty")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file, stdout only when empty")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "set debug")
	fs.StringVar(&cfg.Device, "device", cfg.Device, "cp5200, serial, virtual or proxy host:port")
	fs.StringVar(&cfg.SerialPort, "serial-port", cfg.SerialPort, "serial port name")
	fs.IntVar(&cfg.SerialBaud, "serial-baud", cfg.SerialBaud, "serial baud rate")
	fs.BoolVar(&cfg.VirtualOnline, "virtual-online", cfg.VirtualOnline, "virtual device reports connected")
	fs.StringVar(&cfg.IDCode, "id-code", cfg.IDCode, "controller id code")
	fs.IntVar(&cfg.Timeout, "timeout", cfg.Timeout, "controller timeout in seconds")
	fs.StringVar(&cfg.BindIP, "bind-ip", cfg.BindIP, "local bind address")
	fs.IntVar(&cfg.BindPort, "bind-port", cfg.BindPort, "local bind port")
	fs.BoolVar(&cfg.CleanupUnsent, "cleanup-unsent", cfg.CleanupUnsent, "delete images that never reached the controller")

	fs.StringVar(&cfg.Defaults.LEDIP, "led-ip", cfg.Defaults.LEDIP, "default display address")
	fs.IntVar(&cfg.Defaults.LEDPort, "led-port", cfg.Defaults.LEDPort, "default display port")
	fs.IntVar(&cfg.Defaults.LEDWidth, "led-width", cfg.Defaults.LEDWidth, "default display width")
	fs.IntVar(&cfg.Defaults.LEDHeight, "led-height", cfg.Defaults.LEDHeight, "default display height")
	fs.IntVar(&cfg.Defaults.FontSize, "font-size", cfg.Defaults.FontSize, "default font size")
	fs.StringVar(&cfg.Defaults.Alignment, "alignment", cfg.Defaults.Alignment, "default alignment")

	return path
}

// Load parses args for the binary name on top of base, applies the config file
// when one is given and validates.
func Load(fs afero.Fs, name string, base Config, args []string) (Config, error) {
	cfg := base

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	path := Bind(flags, &cfg)
	if err := flags.Parse(args); err != nil {
		return cfg, err
	}

	if *path != "" {
		fc, err := LoadFile(fs, *path)
		if err != nil {
			return cfg, err
		}

		changed := map[string]bool{}
		flags.Visit(func(f *flag.Flag) {
			changed[f.Name] = true
		})
		ApplyFile(&cfg, fc, changed)
	}

	return cfg, cfg.Validate()
}
