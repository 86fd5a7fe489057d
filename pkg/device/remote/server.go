package remote

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/rpc"

	"github.com/disintegration/imaging"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"ledsign/pkg/bitmap"
	"ledsign/pkg/proto"
	"ledsign/pkg/transmit"
)

type Transmitter interface {
	Send(bmp *bitmap.Bitmap, target proto.Target) transmit.Outcome
}

// Proxy serves tx over net/rpc on srv for the lifetime of the app.
func Proxy(tx Transmitter, srv *http.Server, lifecycle fx.Lifecycle, logger *zap.Logger) error {
	rs, err := NewRPCServer(tx, logger)
	if err != nil {
		return err
	}
	srv.Handler = rs

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.With(zap.String("addr", ln.Addr().String())).Info("proxy listening")
			go func() {
				if err := srv.Serve(ln); err != http.ErrServerClosed {
					logger.With(zap.Error(err)).Fatal("proxy stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return nil
}

// NewRPCServer returns an rpc server answering HTTP CONNECT on any path.
func NewRPCServer(tx Transmitter, logger *zap.Logger) (*rpc.Server, error) {
	rs := rpc.NewServer()
	if err := rs.Register(&Service{tx: tx, logger: logger}); err != nil {
		return nil, err
	}
	return rs, nil
}

type Service struct {
	tx     Transmitter
	logger *zap.Logger
}

func (s *Service) Transmit(req *TransmitRequest, reply *TransmitReply) error {
	target, err := proto.NewTarget(req.Address, int(req.Port), int(req.Width), int(req.Height))
	if err != nil {
		return err
	}

	img, err := imaging.Decode(bytes.NewReader(req.Image))
	if err != nil {
		return err
	}

	s.logger.With(zap.Stringer("target", target), zap.Int("bytes", len(req.Image))).Info("transmit")

	out := s.tx.Send(bitmap.Encode(img), target)
	reply.Success = out.Success
	reply.Attempted = out.Attempted
	return nil
}
