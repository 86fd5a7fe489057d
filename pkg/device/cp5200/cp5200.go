package cp5200

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"ledsign/pkg/proto"
)

// Commands.
const (
	SendPicture = 0x03
)

// Status codes. Positive values are return bytes reported by the board.
const (
	CodeOK             = 0
	CodeNotInitialized = -1
	CodeInvalidParam   = -2
	CodeConnectFailed  = -3
	CodeNotConnected   = -4
	CodeIO             = -5
	CodeTimeout        = -6
	CodeFile           = -7
	CodeBadReply       = -8
)

const (
	maxChunk   = 1024
	maxPackets = 256
)

// NewNet returns a controller speaking the network protocol over TCP.
func NewNet(fs afero.Fs, logger *zap.Logger) *Controller {
	return &Controller{
		link:   tcpLink{},
		fs:     fs,
		logger: logger,
	}
}

// NewSerial returns a controller speaking the RS232 protocol on serial.
func NewSerial(serial *proto.Serial, baud int, fs afero.Fs, logger *zap.Logger) *Controller {
	return &Controller{
		link:   &serialLink{serial: serial, baud: baud},
		fs:     fs,
		logger: logger,
	}
}

// Controller is one handle to a CP5200 board. It holds at most one connection
// and none of its methods lock: callers hold the embedded mutex from Init
// through Disconnect.
type Controller struct {
	sync.Mutex
	link   Link
	fs     afero.Fs
	logger *zap.Logger

	initialized bool
	remote      *net.TCPAddr
	local       *net.TCPAddr
	idCode      uint32
	timeout     time.Duration
	conn        io.ReadWriteCloser
}

var _ proto.Controller = (*Controller)(nil)

func (c *Controller) Init(ip uint32, port int, idCode uint32, timeout int) int {
	if port <= 0 || port > 0xFFFF || timeout <= 0 {
		return CodeInvalidParam
	}

	c.closeConn()

	c.remote = &net.TCPAddr{IP: dwordIP(ip), Port: port}
	c.local = nil
	c.idCode = idCode
	c.timeout = time.Duration(timeout) * time.Second
	c.initialized = true

	c.logger.With(
		zap.String("link", c.link.Name()),
		zap.Stringer("remote", c.remote),
		zap.Duration("timeout", c.timeout),
	).Debug("initialized")
	return CodeOK
}

func (c *Controller) SetBindParam(ip uint32, port int) int {
	if !c.initialized {
		return CodeNotInitialized
	}
	if port < 0 || port > 0xFFFF {
		return CodeInvalidParam
	}

	if ip == 0 && port == 0 {
		c.local = nil
	} else {
		c.local = &net.TCPAddr{IP: dwordIP(ip), Port: port}
	}
	return CodeOK
}

func (c *Controller) Connect() int {
	if !c.initialized {
		return CodeNotInitialized
	}

	c.closeConn()

	conn, err := c.link.Open(c.remote, c.local, c.timeout)
	if err != nil {
		c.logger.With(zap.Stringer("remote", c.remote), zap.Error(err)).Info("connect failed")
		if isTimeout(err) {
			return CodeTimeout
		}
		return CodeConnectFailed
	}

	c.conn = conn
	return CodeOK
}

func (c *Controller) IsConnected() bool {
	return c.conn != nil
}

func (c *Controller) SendPicture(group, x, y, frame, width, height int, path string, mode, r1, r2, r3 int) int {
	if c.conn == nil {
		return CodeNotConnected
	}
	if !fitsByte(group, frame, mode, r1, r2, r3) || !fitsWord(x, y, width, height) || width == 0 || height == 0 {
		return CodeInvalidParam
	}

	plane, err := loadPicture(c.fs, path, width, height)
	if err != nil {
		c.logger.With(zap.String("path", path), zap.Error(err)).Info("load picture failed")
		return CodeFile
	}

	chunks := lo.Chunk(plane, maxChunk)
	if len(chunks) > maxPackets {
		return CodeInvalidParam
	}

	head := make([]byte, 14)
	head[0] = byte(group)
	head[1] = byte(mode)
	binary.BigEndian.PutUint16(head[2:4], uint16(x))
	binary.BigEndian.PutUint16(head[4:6], uint16(y))
	binary.BigEndian.PutUint16(head[6:8], uint16(width))
	binary.BigEndian.PutUint16(head[8:10], uint16(height))
	head[10] = byte(frame)
	head[11] = byte(r1)
	head[12] = byte(r2)
	head[13] = byte(r3)

	last := byte(len(chunks) - 1)
	for i, chunk := range chunks {
		payload := make([]byte, 0, len(head)+2+len(chunk))
		payload = append(payload, head...)
		payload = append(payload, byte(i), last)
		payload = append(payload, chunk...)

		if code := c.exchange(SendPicture, payload); code != CodeOK {
			return code
		}
	}

	c.logger.With(
		zap.String("path", path),
		zap.Int("packets", len(chunks)),
		zap.String("size", bytesize.New(float64(len(plane))).String()),
	).Info("picture sent")
	return CodeOK
}

func (c *Controller) Disconnect() int {
	c.closeConn()
	c.initialized = false
	c.remote = nil
	c.local = nil
	return CodeOK
}

func (c *Controller) closeConn() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		c.logger.With(zap.Error(err)).Debug("close failed")
	}
	c.conn = nil
}

func dwordIP(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func fitsByte(vs ...int) bool {
	for _, v := range vs {
		if v < 0 || v > 0xFF {
			return false
		}
	}
	return true
}

func fitsWord(vs ...int) bool {
	for _, v := range vs {
		if v < 0 || v > 0xFFFF {
			return false
		}
	}
	return true
}
