package resolver

import (
	"context"
	"errors"

	"github.com/cinegate/cinegate/fetch"
)

var (
	// ErrNoManifest means the page was reached but exposed no manifest URL.
	// It is authoritative no matter how much else the page revealed.
	ErrNoManifest = errors.New("no manifest found")
	// ErrCaptcha means the host answered with a challenge page. Nothing tries to solve it.
	ErrCaptcha = errors.New("captcha wall")
)

// Class groups resolution errors for logging and HTTP status mapping.
// Retry decisions never depend on it.
type Class string

const (
	ClassNone      Class = ""
	ClassExtract   Class = "extract"
	ClassCaptcha   Class = "captcha"
	ClassTimeout   Class = "timeout"
	ClassTransport Class = "transport"
)

// Classifier is implemented by errors that already know their class.
type Classifier interface {
	Class() Class
}

// ClassOf classifies err. A page that was reached and held no manifest outranks
// transport trouble seen by other strategies.
func ClassOf(err error) Class {
	if err == nil {
		return ClassNone
	}

	var c Classifier
	switch {
	case errors.As(err, &c):
		return c.Class()
	case errors.Is(err, ErrCaptcha):
		return ClassCaptcha
	case errors.Is(err, ErrNoManifest):
		return ClassExtract
	case errors.Is(err, context.DeadlineExceeded), fetch.IsKind(err, fetch.KindTimeout):
		return ClassTimeout
	default:
		return ClassTransport
	}
}
