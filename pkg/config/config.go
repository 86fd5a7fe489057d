package config

import (
	"strings"

	"github.com/pkg/errors"

	"ledsign/pkg/proto"
	"ledsign/pkg/render"
)

const (
	DeviceCP5200  = "cp5200"
	DeviceSerial  = "serial"
	DeviceVirtual = "virtual"
)

// Defaults fill fields missing from a /generate-image request.
type Defaults struct {
	LEDIP     string
	LEDPort   int
	LEDWidth  int
	LEDHeight int
	FontSize  int
	Alignment string
}

type Config struct {
	Listen   string
	ImageDir string
	FontPath string
	LogFile  string
	Debug    bool

	// Device is cp5200, serial, virtual or host:port of a proxy.
	Device        string
	SerialPort    string
	SerialBaud    int
	VirtualOnline bool

	IDCode   string
	Timeout  int
	BindIP   string
	BindPort int

	CleanupUnsent bool

	Defaults Defaults
}

func Default() Config {
	return Config{
		Listen:        ":5000",
		ImageDir:      "generated_images",
		LogFile:       "app.log",
		Device:        DeviceCP5200,
		SerialBaud:    115200,
		VirtualOnline: true,
		IDCode:        proto.BroadcastAddress,
		Timeout:       10,
		BindIP:        proto.AnyAddress,
		BindPort:      0,
		Defaults: Defaults{
			LEDIP:     "192.168.156.68",
			LEDPort:   5200,
			LEDWidth:  128,
			LEDHeight: 64,
			FontSize:  14,
			Alignment: render.AlignCenter,
		},
	}
}

// IsRemote reports whether Device names a proxy address.
func (c Config) IsRemote() bool {
	return strings.Contains(c.Device, ":")
}

func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.ImageDir == "" {
		return errors.New("image dir is required")
	}

	switch {
	case c.Device == DeviceCP5200, c.Device == DeviceVirtual, c.IsRemote():
	case c.Device == DeviceSerial:
		if c.SerialPort == "" {
			return errors.New("serial device needs a serial port")
		}
		if c.SerialBaud <= 0 {
			return errors.Errorf("bad serial baud %d", c.SerialBaud)
		}
	default:
		return errors.Errorf("unknown device %q", c.Device)
	}

	if _, err := proto.Encode(c.IDCode); err != nil {
		return errors.Wrap(err, "id code")
	}
	if _, err := proto.Encode(c.BindIP); err != nil {
		return errors.Wrap(err, "bind ip")
	}
	if c.BindPort < 0 || c.BindPort > 0xFFFF {
		return errors.Errorf("bind port %d out of range", c.BindPort)
	}
	if c.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %d", c.Timeout)
	}

	d := c.Defaults
	if _, err := proto.NewTarget(d.LEDIP, d.LEDPort, d.LEDWidth, d.LEDHeight); err != nil {
		return errors.Wrap(err, "defaults")
	}
	if d.FontSize <= 0 {
		return errors.Errorf("default font size must be positive, got %d", d.FontSize)
	}
	if !render.ValidAlignment(d.Alignment) {
		return errors.Errorf("unknown default alignment %q", d.Alignment)
	}

	return nil
}
