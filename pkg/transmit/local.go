package transmit

import (
	"go.uber.org/zap"

	"ledsign/pkg/proto"
	"ledsign/pkg/session"
)

// Local opens a new session against ctrl for every transmission.
func Local(ctrl proto.Controller, logger *zap.Logger, opts ...session.Option) Factory {
	return func() Runner {
		return session.New(ctrl, logger, opts...)
	}
}
