package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a navigation failed.
type ErrorKind string

const (
	KindTimeout           ErrorKind = "timeout"
	KindConnectionRefused ErrorKind = "connection_refused"
	KindDNS               ErrorKind = "dns"
	KindAborted           ErrorKind = "aborted"
	KindTLS               ErrorKind = "tls"
	KindNavigation        ErrorKind = "navigation"
)

// ErrHardTimeout is returned when a navigation outlives its hard timer.
var ErrHardTimeout = errors.New("navigation hard timeout")

// NavigationError is returned once every navigation attempt for a URL failed.
type NavigationError struct {
	URL      string
	Kind     ErrorKind
	Attempts int
	Err      error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %s after %d attempt(s): %v", e.URL, e.Kind, e.Attempts, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// ClassifyError maps a navigation error onto an ErrorKind using the Chromium
// net error names carried in the message.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var navErr *NavigationError
	if errors.As(err, &navErr) && navErr.Kind != "" {
		return navErr.Kind
	}
	if errors.Is(err, ErrHardTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timed_out"), strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(msg, "err_connection_refused"), strings.Contains(msg, "err_connection_reset"), strings.Contains(msg, "err_connection_closed"):
		return KindConnectionRefused
	case strings.Contains(msg, "err_name_not_resolved"), strings.Contains(msg, "err_name_resolution_failed"), strings.Contains(msg, "no such host"):
		return KindDNS
	case strings.Contains(msg, "err_aborted"), strings.Contains(msg, "context canceled"):
		return KindAborted
	case strings.Contains(msg, "err_cert_"), strings.Contains(msg, "err_ssl_"), strings.Contains(msg, "x509"), strings.Contains(msg, "tls"):
		return KindTLS
	default:
		return KindNavigation
	}
}
