package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"ledsign/pkg/bitmap"
	"ledsign/pkg/config"
	"ledsign/pkg/proto"
	"ledsign/pkg/render"
	"ledsign/pkg/transmit"
)

const GeneratePath = "/generate-image"

type Renderer interface {
	Render(text string, width, height int, opts render.Options) (*bitmap.Bitmap, error)
}

type Transmitter interface {
	Send(bmp *bitmap.Bitmap, target proto.Target) transmit.Outcome
}

func New(r Renderer, tx Transmitter, defaults config.Defaults, logger *zap.Logger) *Handler {
	return &Handler{
		r:        r,
		tx:       tx,
		defaults: defaults,
		logger:   logger,
	}
}

type Handler struct {
	r        Renderer
	tx       Transmitter
	defaults config.Defaults
	logger   *zap.Logger
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(GeneratePath, h)
	return mux
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.reply(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.With(zap.Error(err)).Info("bad request body")
		h.reply(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return
	}

	d := h.defaults
	alignment := lo.Ternary(req.Alignment == "", d.Alignment, req.Alignment)
	opts := render.Options{
		Alignment:         alignment,
		FontSize:          float64(req.FontSize.Or(d.FontSize)),
		VerticalPadding:   req.VerticalPadding.Or(0),
		HorizontalPadding: req.HorizontalPadding.Or(0),
	}

	target, err := proto.NewTarget(
		lo.Ternary(req.LEDIP == "", d.LEDIP, req.LEDIP),
		req.LEDPort.Or(d.LEDPort),
		req.LEDWidth.Or(d.LEDWidth),
		req.LEDHeight.Or(d.LEDHeight),
	)
	if err != nil {
		h.logger.With(zap.Error(err)).Info("bad target")
		h.reply(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	log := h.logger.With(
		zap.String("text", req.Text),
		zap.String("align", alignment),
		zap.Float64("font-size", opts.FontSize),
		zap.Stringer("target", target),
	)
	log.Info("received")

	bmp, err := h.r.Render(req.Text, int(target.Width), int(target.Height), opts)
	if err != nil {
		log.With(zap.Error(err)).Info("render failed")
		h.reply(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	out := h.tx.Send(bmp, target)
	h.reply(w, http.StatusOK, GenerateResponse{SendImage: lo.Ternary(out.Success, StatusOK, StatusFailed)})
}

func (h *Handler) reply(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.With(zap.Error(err)).Debug("write response failed")
	}
}

// Serve runs srv with h's routes for the lifetime of the app.
func Serve(h *Handler, srv *http.Server, lifecycle fx.Lifecycle, logger *zap.Logger) {
	srv.Handler = h.Routes()

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.With(zap.String("addr", ln.Addr().String())).Info("http listening")
			go func() {
				if err := srv.Serve(ln); err != http.ErrServerClosed {
					logger.With(zap.Error(err)).Fatal("http server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
