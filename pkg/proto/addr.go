package proto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// AnyAddress lets the OS pick the local interface.
	AnyAddress = "0.0.0.0"
	// BroadcastAddress is the id code every controller answers to.
	BroadcastAddress = "255.255.255.255"
)

var ErrInvalidAddressFormat = errors.New("invalid address format")

// Address is a dotted quad together with the big-endian dword the controller expects.
type Address struct {
	text  string
	dword uint32
}

func ParseAddress(s string) (Address, error) {
	v, err := Encode(s)
	if err != nil {
		return Address{}, err
	}
	return Address{text: s, dword: v}, nil
}

func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return a.text
}

func (a Address) Uint32() uint32 {
	return a.dword
}

// Encode converts "a.b.c.d" into a<<24 | b<<16 | c<<8 | d.
func Encode(s string) (uint32, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return 0, fmt.Errorf("%w: %q has %d octets", ErrInvalidAddressFormat, s, len(parts))
	}

	var v uint32
	for _, p := range parts {
		if p == "" || len(p) > 3 || strings.TrimLeft(p, "0123456789") != "" {
			return 0, fmt.Errorf("%w: %q has non-numeric octet %q", ErrInvalidAddressFormat, s, p)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return 0, fmt.Errorf("%w: %q octet %q out of range", ErrInvalidAddressFormat, s, p)
		}
		v = v<<8 | uint32(n)
	}

	return v, nil
}
