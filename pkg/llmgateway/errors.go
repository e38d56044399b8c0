package llmgateway

import (
	"context"
	"errors"
	"fmt"
	"net"

	goopenai "github.com/sashabaranov/go-openai"
)

// ErrorClass is the classification of gateway errors named in spec §4.3.
// Only RateLimited and HTTP5xx are retried by callers; everything else
// surfaces.
type ErrorClass string

const (
	ClassTimeout          ErrorClass = "Timeout"
	ClassRateLimited      ErrorClass = "RateLimited"
	ClassConnectionFailed ErrorClass = "ConnectionFailed"
	ClassHTTP4xx          ErrorClass = "HTTP4xx"
	ClassHTTP5xx          ErrorClass = "HTTP5xx"
	ClassInvalidResponse  ErrorClass = "InvalidResponse"
)

// GatewayError wraps an upstream error with its classification.
type GatewayError struct {
	Class ErrorClass
	Err   error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("llmgateway: %s: %v", e.Class, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Retryable reports whether callers should retry per spec §4.3: only
// RateLimited and 5xx responses are retryable.
func (e *GatewayError) Retryable() bool {
	return e.Class == ClassRateLimited || e.Class == ClassHTTP5xx
}

// classify turns an error from the go-openai client (or context) into a
// GatewayError, mirroring the HTTP-status dispatch convention used for
// OpenAI-compatible providers across the example pack.
func classify(err error) *GatewayError {
	if err == nil {
		return nil
	}

	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &GatewayError{Class: ClassTimeout, Err: err}
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return &GatewayError{Class: ClassRateLimited, Err: err}
		case apiErr.HTTPStatusCode >= 500:
			return &GatewayError{Class: ClassHTTP5xx, Err: err}
		case apiErr.HTTPStatusCode >= 400:
			return &GatewayError{Class: ClassHTTP4xx, Err: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &GatewayError{Class: ClassTimeout, Err: err}
		}
		return &GatewayError{Class: ClassConnectionFailed, Err: err}
	}

	return &GatewayError{Class: ClassConnectionFailed, Err: err}
}
