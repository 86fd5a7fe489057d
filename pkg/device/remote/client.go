package remote

import (
	"net/rpc"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"ledsign/pkg/bitmap"
	"ledsign/pkg/proto"
	"ledsign/pkg/transmit"
)

var ErrRemoteFailed = errors.New("remote transmission failed")

// New dials a proxy. Images are read from fs, where the local store put them.
func New(addr string, fs afero.Fs, logger *zap.Logger) (*Client, error) {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, err
	}

	return &Client{rpc: client, fs: fs, logger: logger}, nil
}

type Client struct {
	rpc    *rpc.Client
	fs     afero.Fs
	logger *zap.Logger
}

func (c *Client) Close() error {
	return c.rpc.Close()
}

// Factory hands out one call per transmission.
func (c *Client) Factory() transmit.Factory {
	return func() transmit.Runner {
		return &call{c: c}
	}
}

type call struct {
	c     *Client
	reply TransmitReply
}

func (r *call) Send(_ *bitmap.Bitmap, target proto.Target, path string) error {
	bs, err := afero.ReadFile(r.c.fs, path)
	if err != nil {
		return errors.Wrap(err, "read image")
	}

	if err := r.c.rpc.Call("Service.Transmit", &TransmitRequest{
		Address: target.Address.String(),
		Port:    target.Port,
		Width:   target.Width,
		Height:  target.Height,
		Image:   bs,
	}, &r.reply); err != nil {
		r.c.logger.With(zap.Error(err)).Warn("proxy call failed")
		return err
	}

	if !r.reply.Success {
		return ErrRemoteFailed
	}
	return nil
}

func (r *call) SendAttempted() bool {
	return r.reply.Attempted
}
