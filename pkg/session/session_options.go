package session

import (
	"ledsign/pkg/proto"
)

type Option func(s *Session)

// WithIDCode sets the identification address the controller must answer to.
func WithIDCode(addr proto.Address) Option {
	return func(s *Session) {
		s.idCode = addr
	}
}

// WithTimeout sets the controller handshake timeout in seconds.
func WithTimeout(seconds int) Option {
	return func(s *Session) {
		s.timeout = seconds
	}
}

// WithBind sets the local address and port. 0.0.0.0 and 0 let the OS choose.
func WithBind(addr proto.Address, port uint16) Option {
	return func(s *Session) {
		s.bindAddr = addr
		s.bindPort = port
	}
}
