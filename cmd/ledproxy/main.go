package main

import (
	"log"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"ledsign/internal/app"
	"ledsign/pkg/config"
	"ledsign/pkg/device/remote"
	"ledsign/pkg/transmit"
)

func main() {
	fs := afero.NewOsFs()

	base := config.Default()
	base.Listen = ":9123"

	cfg, err := config.Load(fs, "ledproxy", base, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
	if cfg.IsRemote() {
		log.Fatal("proxy needs a local device")
	}

	fx.New(
		app.Options(cfg, fs),
		fx.Invoke(
			func(tx *transmit.Service, srv *http.Server, lifecycle fx.Lifecycle, logger *zap.Logger) error {
				return remote.Proxy(tx, srv, lifecycle, logger)
			},
		),
	).Run()
}
