package virtual

import (
	"sync"

	"go.uber.org/zap"

	"ledsign/pkg/proto"
)

func Mock(logger *zap.Logger, online bool) *Mocker {
	return &Mocker{l: logger, Online: online}
}

// Mocker is a controller that only logs. Online decides what IsConnected
// reports and Result is returned from SendPicture.
type Mocker struct {
	sync.Mutex
	l *zap.Logger

	Online bool
	Result int

	calls []string
	mu    sync.Mutex
}

var _ proto.Controller = (*Mocker)(nil)

func (m *Mocker) Init(ip uint32, port int, idCode uint32, timeout int) int {
	m.record("init")
	m.l.With(
		zap.Uint32("ip", ip),
		zap.Int("port", port),
		zap.Uint32("id-code", idCode),
		zap.Int("timeout", timeout),
	).Info("init")
	return 0
}

func (m *Mocker) SetBindParam(ip uint32, port int) int {
	m.record("bind")
	m.l.With(zap.Uint32("ip", ip), zap.Int("port", port)).Info("set-bind-param")
	return 0
}

func (m *Mocker) Connect() int {
	m.record("connect")
	m.l.Info("connect")
	return 0
}

func (m *Mocker) IsConnected() bool {
	m.record("is-connected")
	m.l.With(zap.Bool("online", m.Online)).Info("is-connected")
	return m.Online
}

func (m *Mocker) SendPicture(group, x, y, frame, width, height int, path string, mode, r1, r2, r3 int) int {
	m.record("send-picture")
	m.l.With(
		zap.Int("group", group),
		zap.Int("x", x),
		zap.Int("y", y),
		zap.Int("frame", frame),
		zap.Int("w", width),
		zap.Int("h", height),
		zap.String("path", path),
		zap.Int("mode", mode),
	).Info("send-picture")
	return m.Result
}

func (m *Mocker) Disconnect() int {
	m.record("disconnect")
	m.l.Info("disconnect")
	return 0
}

// Calls returns the operations seen so far, in order.
func (m *Mocker) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Mocker) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
}
