package session

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	StepInit    = "init"
	StepBind    = "bind"
	StepConnect = "connect"
	StepSend    = "send-picture"
)

var (
	ErrInit         = errors.New("init failed")
	ErrBind         = errors.New("bind failed")
	ErrConnect      = errors.New("connect failed")
	ErrSend         = errors.New("send picture failed")
	ErrNotConnected = errors.New("controller not connected")
	ErrOutOfOrder   = errors.New("session step out of order")
)

// StepError carries the native status code of a failed controller call.
type StepError struct {
	Step string
	Code int
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: code %d", e.Step, e.Code)
}

func (e *StepError) Is(target error) bool {
	switch e.Step {
	case StepInit:
		return target == ErrInit
	case StepBind:
		return target == ErrBind
	case StepConnect:
		return target == ErrConnect
	case StepSend:
		return target == ErrSend
	}
	return false
}
