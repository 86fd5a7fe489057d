package transmit

import (
	"go.uber.org/zap"

	"ledsign/pkg/bitmap"
	"ledsign/pkg/proto"
)

// Runner drives one controller lifecycle. session.Session is the local one.
type Runner interface {
	Send(bmp *bitmap.Bitmap, target proto.Target, path string) error
	SendAttempted() bool
}

// Factory returns a fresh Runner for every transmission.
type Factory func() Runner

type Store interface {
	Save(bmp *bitmap.Bitmap) (string, error)
	Remove(path string) error
}

// Outcome is what a caller learns about a transmission. Attempted tells
// whether the picture step was reached.
type Outcome struct {
	Success   bool
	Attempted bool
}

func New(store Store, factory Factory, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		factory: factory,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Service pushes one bitmap per call and keeps nothing between calls.
type Service struct {
	store   Store
	factory Factory
	logger  *zap.Logger
	// options
	cleanupUnsent bool
}

func (s *Service) Send(bmp *bitmap.Bitmap, target proto.Target) Outcome {
	log := s.logger.With(zap.Stringer("target", target))

	path, err := s.store.Save(bmp)
	if err != nil {
		log.With(zap.Error(err)).Error("store image failed")
		return Outcome{}
	}

	r := s.factory()
	err = r.Send(bmp, target, path)
	out := Outcome{Success: err == nil, Attempted: r.SendAttempted()}

	// The artifact only goes away once the picture step ran, unless
	// cleanupUnsent is set.
	if out.Attempted || s.cleanupUnsent {
		if err := s.store.Remove(path); err != nil {
			log.With(zap.String("path", path), zap.Error(err)).Warn("delete image failed")
		}
	} else {
		log.With(zap.String("path", path)).Info("image kept, picture step not reached")
	}

	if err != nil {
		log.With(zap.Error(err)).Warn("transmission failed")
	} else {
		log.Info("transmission done")
	}

	return out
}
