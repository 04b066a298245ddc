package upstream

import (
	"fmt"
	"net/http"
)

// Kind classifies an upstream failure.
type Kind string

const (
	// KindTimeout indicates the request exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindNetwork indicates the request could not be sent or read.
	KindNetwork Kind = "network"
	// KindStatus indicates a non-2xx response.
	KindStatus Kind = "status"
	// KindDecode indicates the body was not a results document.
	KindDecode Kind = "decode"
	// KindCanceled indicates the caller gave up before a response arrived.
	KindCanceled Kind = "canceled"
)

// Error is the only error type returned by Client.
type Error struct {
	Kind       Kind
	StatusCode int
	URL        string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%d %s for url: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	case KindTimeout:
		return fmt.Sprintf("timeout requesting %s", e.URL)
	default:
		if e.Err == nil {
			return fmt.Sprintf("%s error requesting %s", e.Kind, e.URL)
		}
		return fmt.Sprintf("%s error requesting %s: %v", e.Kind, e.URL, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could plausibly succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNetwork:
		return true
	case KindStatus:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	default:
		return false
	}
}
