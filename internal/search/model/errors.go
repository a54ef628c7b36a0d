package model

import (
	"errors"
	"fmt"
)

// BanError is an explicit service-level rejection: the request reached
// the service and was refused by its abuse mitigation (IP ban or captcha
// challenge). It is never retried on the same proxy/mode; the caller
// rotates instead.
type BanError struct {
	Code    int // service status code, 0 for web-mode detections
	Message string
}

func (e *BanError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("banned by service (code %d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("banned by service: %s", e.Message)
}

// ParseError reports a response body whose shape was unexpected. It is
// distinct from "zero results": a page that parses to nothing is empty,
// a page that cannot be parsed is a ParseError.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse failed: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrPoolExhausted is returned when no usable proxy remains.
var ErrPoolExhausted = errors.New("proxy pool exhausted")

// IsBan reports whether err carries a ban signal.
func IsBan(err error) bool {
	var be *BanError
	return errors.As(err, &be)
}

// IsParse reports whether err is a parse failure.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
