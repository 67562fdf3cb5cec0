package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindRateLimited
	ErrorKindCircuitOpen
	ErrorKindTimeout
	ErrorKindEmptyResponse
	ErrorKindProvider
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindRateLimited:
		return "rate_limited"
	case ErrorKindCircuitOpen:
		return "circuit_open"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindEmptyResponse:
		return "empty_response"
	case ErrorKindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// UpstreamError ошибка обращения к модели. Повторов нет, ошибка отдаётся вызывающему как есть.
type UpstreamError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ошибка модели (%s): %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("ошибка модели (%s): %s", e.Kind, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream сообщает, что err пришла от модели.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

func classifyError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return ErrorKindTimeout
	case strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit"):
		return ErrorKindRateLimited
	default:
		return ErrorKindProvider
	}
}
