package proto

import (
	"fmt"
	"sync"
)

// Controller is one native handle to an LED controller board. Every call
// returns the board's integer status code; 0 means success.
//
// A Controller holds a single connection at a time, so a caller must hold its
// lock from Init through Disconnect.
type Controller interface {
	sync.Locker

	Init(ip uint32, port int, idCode uint32, timeout int) int
	SetBindParam(ip uint32, port int) int
	Connect() int
	IsConnected() bool
	SendPicture(group, x, y, frame, width, height int, path string, mode, r1, r2, r3 int) int
	Disconnect() int
}

// MaxPlaneBytes is the largest packed 1bpp picture a controller accepts.
const MaxPlaneBytes = 256 * 1024

// Target describes the display a bitmap is pushed to.
type Target struct {
	Address Address
	Port    uint16
	Width   uint16
	Height  uint16
}

func NewTarget(ip string, port, width, height int) (Target, error) {
	addr, err := ParseAddress(ip)
	if err != nil {
		return Target{}, err
	}

	if port <= 0 || port > 0xFFFF {
		return Target{}, fmt.Errorf("port %d out of range", port)
	}
	if width <= 0 || width > 0xFFFF {
		return Target{}, fmt.Errorf("width %d out of range", width)
	}
	if height <= 0 || height > 0xFFFF {
		return Target{}, fmt.Errorf("height %d out of range", height)
	}
	if size := (width + 7) / 8 * height; size > MaxPlaneBytes {
		return Target{}, fmt.Errorf("%dx%d needs %d bytes, max %d", width, height, size, MaxPlaneBytes)
	}

	return Target{
		Address: addr,
		Port:    uint16(port),
		Width:   uint16(width),
		Height:  uint16(height),
	}, nil
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d (%dx%d)", t.Address, t.Port, t.Width, t.Height)
}
