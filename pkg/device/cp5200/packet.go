package cp5200

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Data block layout shared by the network and RS232 transports:
//
//	type | card type | card id | command | mark/return | payload | checksum (u16 LE)
//
// The checksum is the byte sum of everything before it.
const (
	packetType   = 0x68
	replyType    = 0xE8
	cardType     = 0x32
	cardAny      = 0xFF
	confirmReply = 0x01

	blockHeader  = 5
	blockTrailer = 2
	netHeader    = 8
)

// RS232 framing.
const (
	serialStart  = 0xA5
	serialEnd    = 0xAE
	serialEscape = 0xAA
)

var (
	errShortBlock = errors.New("short data block")
	errChecksum   = errors.New("checksum mismatch")
)

func checksum(b []byte) uint16 {
	var sum uint16
	for _, v := range b {
		sum += uint16(v)
	}
	return sum
}

func buildBlock(card, cmd byte, payload []byte) []byte {
	b := make([]byte, 0, blockHeader+len(payload)+blockTrailer)
	b = append(b, packetType, cardType, card, cmd, confirmReply)
	b = append(b, payload...)
	sum := checksum(b)
	return append(b, byte(sum), byte(sum>>8))
}

type reply struct {
	card byte
	cmd  byte
	code byte
	data []byte
}

func parseReply(block []byte) (*reply, error) {
	if len(block) < blockHeader+blockTrailer {
		return nil, errShortBlock
	}

	body := block[:len(block)-blockTrailer]
	want := binary.LittleEndian.Uint16(block[len(block)-blockTrailer:])
	if checksum(body) != want {
		return nil, errChecksum
	}
	if body[0] != replyType {
		return nil, fmt.Errorf("unexpected packet type 0x%02x", body[0])
	}

	return &reply{
		card: body[2],
		cmd:  body[3],
		code: body[4],
		data: body[blockHeader:],
	}, nil
}

// Network frame: id code (u32 BE) | block length (u16 LE) | reserved (u16) | block.
func netFrame(idCode uint32, block []byte) []byte {
	b := make([]byte, netHeader+len(block))
	binary.BigEndian.PutUint32(b[0:4], idCode)
	binary.LittleEndian.PutUint16(b[4:6], uint16(len(block)))
	copy(b[netHeader:], block)
	return b
}

func readNetBlock(r io.Reader) ([]byte, error) {
	hdr := make([]byte, netHeader)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}

	n := int(binary.LittleEndian.Uint16(hdr[4:6]))
	if n < blockHeader+blockTrailer {
		return nil, errShortBlock
	}

	block := make([]byte, n)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, err
	}
	return block, nil
}

func serialFrame(block []byte) []byte {
	b := make([]byte, 0, len(block)+len(block)/8+2)
	b = append(b, serialStart)
	for _, v := range block {
		switch v {
		case serialStart, serialEscape, serialEnd:
			b = append(b, serialEscape, v&0x0F)
		default:
			b = append(b, v)
		}
	}
	return append(b, serialEnd)
}

func readSerialBlock(r io.Reader) ([]byte, error) {
	for {
		v, err := readByte(r)
		if err != nil {
			return nil, err
		}
		if v == serialStart {
			break
		}
	}

	var block []byte
	for {
		v, err := readByte(r)
		if err != nil {
			return nil, err
		}

		switch v {
		case serialEnd:
			return block, nil
		case serialStart:
			// a new frame started before the last one ended
			block = block[:0]
		case serialEscape:
			e, err := readByte(r)
			if err != nil {
				return nil, err
			}
			switch e {
			case 0x05, 0x0A, 0x0E:
				block = append(block, 0xA0|e)
			default:
				return nil, fmt.Errorf("bad escape 0x%02x", e)
			}
		default:
			block = append(block, v)
		}
	}
}

var errReadTimeout = errors.New("read timeout")

// Serial ports report a read timeout as (0, nil).
func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	n, err := r.Read(b[:])
	if n == 1 {
		return b[0], nil
	}
	if err == nil {
		err = errReadTimeout
	}
	return 0, err
}
