package cp5200

import (
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type deadliner interface {
	SetDeadline(t time.Time) error
}

// exchange sends one command block and waits for its reply. An I/O failure
// drops the connection.
func (c *Controller) exchange(cmd byte, payload []byte) int {
	if c.conn == nil {
		return CodeNotConnected
	}

	if d, ok := c.conn.(deadliner); ok {
		if err := d.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			c.logger.With(zap.Error(err)).Debug("set deadline failed")
		}
	}

	frame := c.link.Frame(c.idCode, buildBlock(cardAny, cmd, payload))

	start := time.Now()
	sent, err := c.conn.Write(frame)
	if err != nil {
		return c.broken(err)
	}

	block, err := c.link.ReadBlock(c.conn)
	if err != nil {
		return c.broken(err)
	}
	cost := time.Since(start)

	rep, err := parseReply(block)
	if err != nil {
		c.logger.With(zap.Error(err)).Info("bad reply")
		return CodeBadReply
	}
	if rep.cmd != cmd {
		c.logger.With(zap.String("want", fmt.Sprintf("0x%02x", cmd)), zap.String("got", fmt.Sprintf("0x%02x", rep.cmd))).Info("reply for another command")
		return CodeBadReply
	}

	ext := ""
	if len(frame) <= 32 {
		ext = fmt.Sprintf("%x", frame)
	}

	c.logger.With(
		zap.Int("sent", sent),
		zap.String("cost", cost.String()),
		zap.Uint8("code", rep.code),
		zap.String("data", ext),
	).Debug("transfer")

	return int(rep.code)
}

func (c *Controller) broken(err error) int {
	c.logger.With(zap.Error(err)).Info("transfer failed")
	c.closeConn()
	if isTimeout(err) {
		return CodeTimeout
	}
	return CodeIO
}

func isTimeout(err error) bool {
	if errors.Is(err, errReadTimeout) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
