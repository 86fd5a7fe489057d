package session

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ledsign/pkg/bitmap"
	"ledsign/pkg/proto"
)

// Picture framing. The controller expects these exact values for a full
// screen still image.
const (
	GroupBroadcast = 0xFF // every display unit on the board
	OffsetX        = 0
	OffsetY        = 0
	FrameIndex     = 0
	DisplayMode    = 1 // show immediately
	reserved       = 0
)

const (
	DefaultTimeout = 10
)

type State int

const (
	Uninitialized State = iota
	Initialized
	Bound
	ConnectAttempted
	Connected
	Sent
	Disconnected
	Failed
)

var stateNames = [...]string{
	"uninitialized",
	"initialized",
	"bound",
	"connect-attempted",
	"connected",
	"sent",
	"disconnected",
	"failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func New(ctrl proto.Controller, logger *zap.Logger, opts ...Option) *Session {
	s := &Session{
		ctrl:     ctrl,
		logger:   logger,
		idCode:   proto.MustParseAddress(proto.BroadcastAddress),
		timeout:  DefaultTimeout,
		bindAddr: proto.MustParseAddress(proto.AnyAddress),
		bindPort: 0,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Session runs exactly one init..disconnect lifecycle against a controller.
// It is single use.
type Session struct {
	ctrl   proto.Controller
	logger *zap.Logger

	bindAddr  proto.Address
	bindPort  uint16
	idCode    proto.Address
	timeout   int
	connected bool

	state     State
	attempted bool
}

func (s *Session) State() State {
	return s.state
}

// SendAttempted reports whether the picture step was reached.
func (s *Session) SendAttempted() bool {
	return s.attempted
}

// Send pushes one picture to target. The controller lock is held for the whole
// lifecycle and Disconnect runs on every path.
//
// Init, bind and connect failures are logged and the lifecycle carries on;
// IsConnected is the only gate. Only ErrNotConnected and a send failure make
// Send return an error.
func (s *Session) Send(bmp *bitmap.Bitmap, target proto.Target, path string) error {
	if s.state != Uninitialized {
		return errors.Wrapf(ErrOutOfOrder, "send in state %s", s.state)
	}

	s.ctrl.Lock()
	defer s.ctrl.Unlock()
	defer s.Disconnect()

	log := s.logger.With(zap.Stringer("target", target))

	if err := s.Initialize(target, s.idCode, s.timeout); err != nil {
		log.With(zap.Error(err)).Warn("init failed, continuing")
	}

	if err := s.Bind(s.bindAddr, s.bindPort); err != nil {
		log.With(zap.Error(err)).Warn("bind failed, continuing")
	}

	if err := s.Connect(); err != nil {
		log.With(zap.Error(err)).Warn("connect failed, continuing")
	}

	if !s.IsConnected() {
		log.Warn("not connected, picture skipped")
		return ErrNotConnected
	}

	return s.SendPicture(bmp, target, path)
}

func (s *Session) Initialize(target proto.Target, idCode proto.Address, timeout int) error {
	if err := s.expect(Uninitialized); err != nil {
		return err
	}

	s.idCode = idCode
	s.timeout = timeout

	code := s.ctrl.Init(target.Address.Uint32(), int(target.Port), idCode.Uint32(), timeout)
	s.logger.With(
		zap.String("ip", target.Address.String()),
		zap.Uint16("port", target.Port),
		zap.String("id-code", idCode.String()),
		zap.Int("timeout", timeout),
		zap.Int("code", code),
	).Info("init")

	s.state = Initialized
	if code != 0 {
		return &StepError{Step: StepInit, Code: code}
	}
	return nil
}

func (s *Session) Bind(addr proto.Address, port uint16) error {
	if err := s.expect(Initialized); err != nil {
		return err
	}

	s.bindAddr = addr
	s.bindPort = port

	code := s.ctrl.SetBindParam(addr.Uint32(), int(port))
	s.logger.With(
		zap.String("ip", addr.String()),
		zap.Uint16("port", port),
		zap.Int("code", code),
	).Debug("bind")

	s.state = Bound
	if code != 0 {
		return &StepError{Step: StepBind, Code: code}
	}
	return nil
}

func (s *Session) Connect() error {
	if err := s.expect(Bound); err != nil {
		return err
	}

	code := s.ctrl.Connect()
	s.logger.With(zap.Int("code", code)).Debug("connect")

	s.state = ConnectAttempted
	if code != 0 {
		return &StepError{Step: StepConnect, Code: code}
	}
	return nil
}

func (s *Session) IsConnected() bool {
	if s.state != ConnectAttempted && s.state != Connected {
		s.logger.With(zap.Stringer("state", s.state)).Warn("connectivity check out of order")
		return false
	}

	s.connected = s.ctrl.IsConnected()
	s.logger.With(zap.Bool("connected", s.connected)).Debug("is-connected")

	if s.connected {
		s.state = Connected
	} else {
		s.state = Failed
	}
	return s.connected
}

func (s *Session) SendPicture(bmp *bitmap.Bitmap, target proto.Target, path string) error {
	if err := s.expect(Connected); err != nil {
		return err
	}

	s.attempted = true

	if bmp == nil {
		s.state = Failed
		return errors.Wrap(ErrSend, "no bitmap")
	}
	if bmp.Width != int(target.Width) || bmp.Height != int(target.Height) {
		s.logger.With(
			zap.Int("bitmap-w", bmp.Width),
			zap.Int("bitmap-h", bmp.Height),
		).Warn("bitmap size differs from target")
	}

	code := s.ctrl.SendPicture(
		GroupBroadcast,
		OffsetX,
		OffsetY,
		FrameIndex,
		int(target.Width),
		int(target.Height),
		path,
		DisplayMode,
		reserved,
		reserved,
		reserved,
	)
	s.logger.With(zap.String("path", path), zap.Int("code", code)).Info("send-picture")

	if code != 0 {
		s.state = Failed
		return &StepError{Step: StepSend, Code: code}
	}

	s.state = Sent
	return nil
}

// Disconnect releases the controller. Only the first call reaches it.
func (s *Session) Disconnect() {
	if s.state == Disconnected {
		return
	}

	code := s.ctrl.Disconnect()
	s.logger.With(zap.Int("code", code)).Debug("disconnect")

	s.connected = false
	s.state = Disconnected
}

func (s *Session) expect(want State) error {
	if s.state != want {
		return errors.Wrapf(ErrOutOfOrder, "want %s, in %s", want, s.state)
	}
	return nil
}
