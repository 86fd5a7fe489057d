package cp5200

import (
	"io"
	"net"
	"time"

	"ledsign/pkg/proto"
)

// Link is the transport a controller talks over.
type Link interface {
	Name() string
	Open(remote, local *net.TCPAddr, timeout time.Duration) (io.ReadWriteCloser, error)
	Frame(idCode uint32, block []byte) []byte
	ReadBlock(r io.Reader) ([]byte, error)
}

type tcpLink struct{}

func (tcpLink) Name() string {
	return "tcp"
}

func (tcpLink) Open(remote, local *net.TCPAddr, timeout time.Duration) (io.ReadWriteCloser, error) {
	d := net.Dialer{Timeout: timeout}
	if local != nil {
		d.LocalAddr = local
	}
	return d.Dial("tcp", remote.String())
}

func (tcpLink) Frame(idCode uint32, block []byte) []byte {
	return netFrame(idCode, block)
}

func (tcpLink) ReadBlock(r io.Reader) ([]byte, error) {
	return readNetBlock(r)
}

// serialLink ignores the network addresses; the port name picks the board.
type serialLink struct {
	serial *proto.Serial
	baud   int
}

func (l *serialLink) Name() string {
	return "serial"
}

func (l *serialLink) Open(_, _ *net.TCPAddr, timeout time.Duration) (io.ReadWriteCloser, error) {
	if err := l.serial.Open(&proto.Options{
		DTR:         true,
		RTS:         true,
		BaudRate:    l.baud,
		ReadTimeout: timeout,
	}); err != nil {
		return nil, err
	}
	return l.serial, nil
}

func (l *serialLink) Frame(_ uint32, block []byte) []byte {
	return serialFrame(block)
}

func (l *serialLink) ReadBlock(r io.Reader) ([]byte, error) {
	return readSerialBlock(r)
}
