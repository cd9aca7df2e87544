package ont

import (
	"context"
	"errors"
	"fmt"
	"net"

	models "github.com/RoGogDBD/huawei-ont-exporter/internal/model"
)

// Step names the protocol step a ScrapeError happened in.
type Step string

const (
	StepToken     Step = "token"
	StepLogin     Step = "login"
	StepTelemetry Step = "telemetry"
	StepLogout    Step = "logout"
)

var (
	ErrEmptyToken          = errors.New("device returned an empty token")
	ErrLoginRejected       = errors.New("device rejected credentials")
	ErrConstructorNotFound = errors.New("telemetry constructor not found")
	ErrFieldMissing        = errors.New("field missing")
	ErrNotNumeric          = errors.New("value is not numeric")
	ErrNegative            = errors.New("value must not be negative")
)

// ScrapeError is the typed failure of one scrape cycle.
type ScrapeError struct {
	Kind models.ScrapeErrorKind
	Step Step
	Err  error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("%s step failed (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// stepError builds a ScrapeError, promoting timeouts to KindTimeout.
func stepError(kind models.ScrapeErrorKind, step Step, err error) *ScrapeError {
	if isTimeout(err) {
		kind = models.KindTimeout
	}
	return &ScrapeError{Kind: kind, Step: step, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// KindOf classifies any error returned by Client.Scrape.
func KindOf(err error) models.ScrapeErrorKind {
	var se *ScrapeError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		return se.Kind
	case isTimeout(err):
		return models.KindTimeout
	default:
		return models.KindUnknown
	}
}

// ParseError names the telemetry field that could not be decoded.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("parse %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parse %s: %v: %q", e.Field, e.Err, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
