package binance

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
)

// Numeric error codes returned by the exchange alongside a message.
// Matching prefers these over message text since messages occasionally
// get rewritten between API versions.
const (
	codeTooManyRequests      = -1003
	codeTimestampOutOfWindow = -1021
	codeOrderWouldTrigger    = -2021
	codeReduceOnlyRejected   = -2022
	codeNoNeedToChangeSide   = -4059
)

// apiError is the JSON error envelope: {"code":-2021,"msg":"..."}.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// classify maps a non-2xx response to an ExchangeError. Total: every
// (status, body) pair yields a classified error, malformed and empty
// bodies included. Those fall through to KindUnmapped with the raw body
// preserved so unknown conditions are never silently lost.
//
// Checks are ordered: gateway failures first (the body is HTML, not the
// JSON envelope), then request-semantic rejections, then rate limiting,
// then the re-signable timestamp rejection.
func classify(statusCode int, body []byte) *interfaces.ExchangeError {
	var envelope apiError
	// A decode failure leaves the zero envelope and falls to KindUnmapped.
	_ = json.Unmarshal(body, &envelope)

	e := &interfaces.ExchangeError{
		StatusCode: statusCode,
		Code:       envelope.Code,
		Message:    envelope.Msg,
	}
	if e.Message == "" {
		e.Message = string(body)
	}

	switch {
	case statusCode == http.StatusBadGateway || statusCode == http.StatusGatewayTimeout ||
		strings.Contains(e.Message, "502 Bad Gateway"):
		e.Kind = interfaces.KindBadGateway
	case envelope.Code == codeOrderWouldTrigger ||
		strings.Contains(envelope.Msg, "would immediately trigger"):
		e.Kind = interfaces.KindOrderWouldTrigger
	case envelope.Code == codeReduceOnlyRejected ||
		strings.Contains(envelope.Msg, "ReduceOnly Order is rejected"):
		e.Kind = interfaces.KindReduceOnlyRejected
	case statusCode == http.StatusTooManyRequests || envelope.Code == codeTooManyRequests:
		e.Kind = interfaces.KindRateLimited
	case envelope.Code == codeNoNeedToChangeSide ||
		strings.Contains(envelope.Msg, "No need to change position side"):
		e.Kind = interfaces.KindPositionSideUnchanged
	case envelope.Code == codeTimestampOutOfWindow ||
		strings.Contains(envelope.Msg, "outside of the recvWindow"):
		e.Kind = interfaces.KindTimestampOutOfWindow
	default:
		e.Kind = interfaces.KindUnmapped
	}
	return e
}

// networkError wraps a transport failure (refused connection, timeout
// before any response) as a transient ExchangeError.
func networkError(err error) *interfaces.ExchangeError {
	return &interfaces.ExchangeError{
		Kind:    interfaces.KindNetwork,
		Message: err.Error(),
		Err:     err,
	}
}
