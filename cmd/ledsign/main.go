package main

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"ledsign/internal/app"
	"ledsign/pkg/config"
	"ledsign/pkg/render"
	"ledsign/pkg/server"
	"ledsign/pkg/transmit"
)

func main() {
	fs := afero.NewOsFs()

	cfg, err := config.Load(fs, "ledsign", config.Default(), os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}

	fx.New(
		app.Options(cfg, fs),
		fx.Provide(
			app.NewRasterizer,
			func(r *render.Rasterizer, tx *transmit.Service, cfg config.Config, logger *zap.Logger) *server.Handler {
				return server.New(r, tx, cfg.Defaults, logger)
			},
		),
		fx.Invoke(
			server.Serve,
		),
	).Run()
}
