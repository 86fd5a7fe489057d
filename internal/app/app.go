// Package app holds the fx constructors shared by the ledsign binaries.
package app

import (
	"context"
	"net/http"

	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"ledsign/pkg/config"
	"ledsign/pkg/device/cp5200"
	"ledsign/pkg/device/remote"
	"ledsign/pkg/device/virtual"
	"ledsign/pkg/proto"
	"ledsign/pkg/render"
	"ledsign/pkg/session"
	"ledsign/pkg/store"
	"ledsign/pkg/transmit"
)

// Options wires everything up to a *transmit.Service.
func Options(cfg config.Config, fs afero.Fs) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			func() afero.Fs { return fs },
			NewLogger,
			NewHTTPServer,
			NewStore,
			NewFactory,
			NewTransmitter,
		),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
	)
}

// NewLogger writes to stdout and, when set, to the log file.
func NewLogger(cfg config.Config, lifecycle fx.Lifecycle) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Debug {
		zc = zap.NewDevelopmentConfig()
	}

	zc.OutputPaths = []string{"stdout"}
	if cfg.LogFile != "" {
		zc.OutputPaths = append(zc.OutputPaths, cfg.LogFile)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})

	return logger, nil
}

func NewHTTPServer(cfg config.Config) *http.Server {
	return &http.Server{Addr: cfg.Listen}
}

func NewStore(cfg config.Config, fs afero.Fs, logger *zap.Logger) (*store.Store, error) {
	return store.New(fs, cfg.ImageDir, logger)
}

func NewRasterizer(cfg config.Config, fs afero.Fs, logger *zap.Logger) (*render.Rasterizer, error) {
	return render.New(fs, cfg.FontPath, logger)
}

// NewController picks the local controller named by cfg.Device.
func NewController(cfg config.Config, fs afero.Fs, logger *zap.Logger) proto.Controller {
	log := logger.With(zap.String("device", cfg.Device))

	switch cfg.Device {
	case config.DeviceSerial:
		return cp5200.NewSerial(proto.NewSerial(cfg.SerialPort), cfg.SerialBaud, fs, log)
	case config.DeviceVirtual:
		return virtual.Mock(log, cfg.VirtualOnline)
	default:
		return cp5200.NewNet(fs, log)
	}
}

// NewFactory returns local sessions, or proxy calls when cfg.Device is an
// address.
func NewFactory(cfg config.Config, fs afero.Fs, logger *zap.Logger, lifecycle fx.Lifecycle) (transmit.Factory, error) {
	if cfg.IsRemote() {
		client, err := remote.New(cfg.Device, fs, logger.With(zap.String("proxy", cfg.Device)))
		if err != nil {
			return nil, err
		}
		lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		return client.Factory(), nil
	}

	idCode, err := proto.ParseAddress(cfg.IDCode)
	if err != nil {
		return nil, err
	}
	bindIP, err := proto.ParseAddress(cfg.BindIP)
	if err != nil {
		return nil, err
	}

	return transmit.Local(
		NewController(cfg, fs, logger),
		logger,
		session.WithIDCode(idCode),
		session.WithTimeout(cfg.Timeout),
		session.WithBind(bindIP, uint16(cfg.BindPort)),
	), nil
}

func NewTransmitter(cfg config.Config, st *store.Store, factory transmit.Factory, logger *zap.Logger) *transmit.Service {
	var opts []transmit.Option
	if cfg.CleanupUnsent {
		opts = append(opts, transmit.WithCleanupUnsent())
	}
	return transmit.New(st, factory, logger, opts...)
}
