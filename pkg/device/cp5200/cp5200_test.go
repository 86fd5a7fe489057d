package cp5200

import (
	"bytes"
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"ledsign/pkg/bitmap"
	"ledsign/pkg/proto"
)

// board accepts one connection at a time and acknowledges every block with
// code.
type board struct {
	ln   net.Listener
	code byte

	mu     sync.Mutex
	ids    []uint32
	blocks [][]byte
}

func newBoard(t *testing.T, code byte) *board {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	b := &board{ln: ln, code: code}
	go b.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return b
}

func (b *board) serve() {
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			return
		}
		go b.handle(conn)
	}
}

func (b *board) handle(conn net.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	for {
		hdr := make([]byte, netHeader)
		if _, err := readFull(conn, hdr); err != nil {
			return
		}
		block := make([]byte, binary.LittleEndian.Uint16(hdr[4:6]))
		if _, err := readFull(conn, block); err != nil {
			return
		}

		b.mu.Lock()
		b.ids = append(b.ids, binary.BigEndian.Uint32(hdr[0:4]))
		b.blocks = append(b.blocks, block)
		b.mu.Unlock()

		rep := replyBlock(block[3], b.code)
		if _, err := conn.Write(netFrame(0, rep)); err != nil {
			return
		}
	}
}

func readFull(conn net.Conn, p []byte) (int, error) {
	var n int
	for n < len(p) {
		m, err := conn.Read(p[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (b *board) port() int {
	return b.ln.Addr().(*net.TCPAddr).Port
}

func (b *board) received() ([]uint32, [][]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uint32(nil), b.ids...), append([][]byte(nil), b.blocks...)
}

func writePicture(t *testing.T, fs afero.Fs, path string, bmp *bitmap.Bitmap) {
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, bmp, imaging.PNG))
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0644))
}

var loopback = proto.MustParseAddress("127.0.0.1").Uint32()

func TestSendPictureOverTCP(t *testing.T) {
	b := newBoard(t, 0)
	fs := afero.NewMemMapFs()

	bmp := bitmap.New(200, 64)
	bmp.SetBit(0, 0, true)
	bmp.SetBit(199, 63, true)
	writePicture(t, fs, "pic.png", bmp)

	c := NewNet(fs, zap.NewNop())
	c.Lock()
	defer c.Unlock()

	require.Equal(t, CodeOK, c.Init(loopback, b.port(), 0xFFFFFFFF, 2))
	require.Equal(t, CodeOK, c.SetBindParam(0, 0))
	require.Equal(t, CodeOK, c.Connect())
	require.True(t, c.IsConnected())

	code := c.SendPicture(0xFF, 0, 0, 0, 200, 64, "pic.png", 1, 0, 0, 0)
	require.Equal(t, CodeOK, code)
	require.Equal(t, CodeOK, c.Disconnect())
	assert.False(t, c.IsConnected())

	ids, blocks := b.received()
	require.Len(t, blocks, 2, "1600 bytes split into two packets")
	assert.Equal(t, []uint32{0xFFFFFFFF, 0xFFFFFFFF}, ids)

	var plane []byte
	for i, blk := range blocks {
		assert.Equal(t, byte(packetType), blk[0])
		assert.Equal(t, byte(SendPicture), blk[3])
		p := blk[blockHeader : len(blk)-blockTrailer]
		assert.Equal(t, byte(0xFF), p[0], "group")
		assert.Equal(t, byte(1), p[1], "mode")
		assert.Equal(t, uint16(200), binary.BigEndian.Uint16(p[6:8]))
		assert.Equal(t, uint16(64), binary.BigEndian.Uint16(p[8:10]))
		assert.Equal(t, byte(i), p[14])
		assert.Equal(t, byte(1), p[15])
		plane = append(plane, p[16:]...)
	}
	assert.Equal(t, bmp.Pix, plane)
}

func TestExchangeOnDeadConnection(t *testing.T) {
	b := newBoard(t, 0)
	core, logs := observer.New(zap.DebugLevel)

	c := NewNet(afero.NewMemMapFs(), zap.New(core))
	c.Lock()
	defer c.Unlock()

	require.Equal(t, CodeOK, c.Init(loopback, b.port(), 0xFFFFFFFF, 2))
	require.Equal(t, CodeOK, c.Connect())
	require.NoError(t, c.conn.Close())

	assert.Equal(t, CodeIO, c.exchange(SendPicture, []byte{0}))
	assert.Equal(t, 1, logs.FilterMessage("set deadline failed").Len())
	assert.False(t, c.IsConnected())
}

func TestPlaneLimit(t *testing.T) {
	assert.Equal(t, proto.MaxPlaneBytes, maxChunk*maxPackets)
}

func TestControllerRejectsPicture(t *testing.T) {
	b := newBoard(t, 0x05)
	fs := afero.NewMemMapFs()
	writePicture(t, fs, "pic.png", bitmap.New(128, 64))

	c := NewNet(fs, zap.NewNop())
	require.Equal(t, CodeOK, c.Init(loopback, b.port(), 0xFFFFFFFF, 2))
	require.Equal(t, CodeOK, c.Connect())

	assert.Equal(t, 5, c.SendPicture(0xFF, 0, 0, 0, 128, 64, "pic.png", 1, 0, 0, 0))
	c.Disconnect()
}

func TestMissingPicture(t *testing.T) {
	b := newBoard(t, 0)
	c := NewNet(afero.NewMemMapFs(), zap.NewNop())
	require.Equal(t, CodeOK, c.Init(loopback, b.port(), 0xFFFFFFFF, 2))
	require.Equal(t, CodeOK, c.Connect())

	assert.Equal(t, CodeFile, c.SendPicture(0xFF, 0, 0, 0, 128, 64, "nope.png", 1, 0, 0, 0))
	c.Disconnect()
}

func TestConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	c := NewNet(afero.NewMemMapFs(), zap.NewNop())
	require.Equal(t, CodeOK, c.Init(loopback, port, 0xFFFFFFFF, 1))
	assert.Equal(t, CodeConnectFailed, c.Connect())
	assert.False(t, c.IsConnected())
	assert.Equal(t, CodeNotConnected, c.SendPicture(0xFF, 0, 0, 0, 128, 64, "x", 1, 0, 0, 0))
}

func TestStepsBeforeInit(t *testing.T) {
	c := NewNet(afero.NewMemMapFs(), zap.NewNop())
	assert.Equal(t, CodeNotInitialized, c.SetBindParam(0, 0))
	assert.Equal(t, CodeNotInitialized, c.Connect())
	assert.Equal(t, CodeInvalidParam, c.Init(loopback, 0, 0, 10))
	assert.Equal(t, CodeInvalidParam, c.Init(loopback, 5200, 0, 0))
	assert.Equal(t, CodeOK, c.Disconnect())
}

func TestInvalidPictureParams(t *testing.T) {
	b := newBoard(t, 0)
	c := NewNet(afero.NewMemMapFs(), zap.NewNop())
	require.Equal(t, CodeOK, c.Init(loopback, b.port(), 0xFFFFFFFF, 2))
	require.Equal(t, CodeOK, c.Connect())
	defer c.Disconnect()

	assert.Equal(t, CodeInvalidParam, c.SendPicture(0x100, 0, 0, 0, 128, 64, "x", 1, 0, 0, 0))
	assert.Equal(t, CodeInvalidParam, c.SendPicture(0xFF, 0, 0, 0, 0, 64, "x", 1, 0, 0, 0))
	assert.Equal(t, CodeInvalidParam, c.SendPicture(0xFF, -1, 0, 0, 128, 64, "x", 1, 0, 0, 0))
}

func TestReplyTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// accept and never answer
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		time.Sleep(3 * time.Second)
		_ = conn.Close()
	}()

	fs := afero.NewMemMapFs()
	writePicture(t, fs, "pic.png", bitmap.New(8, 8))

	c := NewNet(fs, zap.NewNop())
	require.Equal(t, CodeOK, c.Init(loopback, ln.Addr().(*net.TCPAddr).Port, 0xFFFFFFFF, 1))
	require.Equal(t, CodeOK, c.Connect())

	assert.Equal(t, CodeTimeout, c.SendPicture(0xFF, 0, 0, 0, 8, 8, "pic.png", 1, 0, 0, 0))
	assert.False(t, c.IsConnected(), "a broken transfer drops the connection")
}
