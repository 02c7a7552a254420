// Package apierr defines the error taxonomy of the O2 Exchange API.
//
// The gateway reports three distinct failure shapes:
//   - coded pre-flight errors: {"code": 7004, "message": "..."}
//   - on-chain reverts: {"message": "...", "reason": "..."} with no code
//   - plain transport/HTTP failures
//
// Coded errors map 1:1 to the venue's published error table. Client-local
// validation failures reuse the matching venue codes so callers can test
// with a single errors.Is regardless of where the check tripped.
package apierr

import (
	"errors"
	"fmt"
)

// Code is a numeric error code from the O2 API error table.
type Code uint32

const (
	CodeInternalError          Code = 1000
	CodeInvalidRequest         Code = 1001
	CodeParseError             Code = 1002
	CodeRateLimitExceeded      Code = 1003
	CodeGeoRestricted          Code = 1004
	CodeMarketNotFound         Code = 2000
	CodeMarketPaused           Code = 2001
	CodeMarketAlreadyExists    Code = 2002
	CodeOrderNotFound          Code = 3000
	CodeOrderNotActive         Code = 3001
	CodeInvalidOrderParams     Code = 3002
	CodeInvalidSignature       Code = 4000
	CodeInvalidSession         Code = 4001
	CodeAccountNotFound        Code = 4002
	CodeWhitelistNotConfigured Code = 4003
	CodeTradeNotFound          Code = 5000
	CodeInvalidTradeCount      Code = 5001
	CodeAlreadySubscribed      Code = 6000
	CodeTooManySubscriptions   Code = 6001
	CodeSubscriptionError      Code = 6002
	CodeInvalidAmount          Code = 7000
	CodeInvalidTimeRange       Code = 7001
	CodeInvalidPagination      Code = 7002
	CodeNoActionsProvided      Code = 7003
	CodeTooManyActions         Code = 7004
	CodeBlockNotFound          Code = 8000
	CodeEventsNotFound         Code = 8001
)

var codeNames = map[Code]string{
	CodeInternalError:          "internal server error",
	CodeInvalidRequest:         "invalid request",
	CodeParseError:             "parse error",
	CodeRateLimitExceeded:      "rate limit exceeded",
	CodeGeoRestricted:          "geo restricted",
	CodeMarketNotFound:         "market not found",
	CodeMarketPaused:           "market paused",
	CodeMarketAlreadyExists:    "market already exists",
	CodeOrderNotFound:          "order not found",
	CodeOrderNotActive:         "order not active",
	CodeInvalidOrderParams:     "invalid order params",
	CodeInvalidSignature:       "invalid signature",
	CodeInvalidSession:         "invalid session",
	CodeAccountNotFound:        "account not found",
	CodeWhitelistNotConfigured: "whitelist not configured",
	CodeTradeNotFound:          "trade not found",
	CodeInvalidTradeCount:      "invalid trade count",
	CodeAlreadySubscribed:      "already subscribed",
	CodeTooManySubscriptions:   "too many subscriptions",
	CodeSubscriptionError:      "subscription error",
	CodeInvalidAmount:          "invalid amount",
	CodeInvalidTimeRange:       "invalid time range",
	CodeInvalidPagination:      "invalid pagination",
	CodeNoActionsProvided:      "no actions provided",
	CodeTooManyActions:         "too many actions",
	CodeBlockNotFound:          "block not found",
	CodeEventsNotFound:         "events not found",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown error code %d", uint32(c))
}

// APIError is a coded error from the venue (or a local check that mirrors one).
type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (%d)", e.Code, uint32(e.Code))
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, uint32(e.Code), e.Message)
}

// Is matches any *APIError with the same code, so sentinel values below
// work with errors.Is regardless of message text.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the error suggests retrying with backoff.
func (e *APIError) Retryable() bool {
	return e.Code == CodeInternalError || e.Code == CodeRateLimitExceeded
}

// FromCode builds the typed error for a code/message pair from the wire.
func FromCode(code uint32, message string) *APIError {
	return &APIError{Code: Code(code), Message: message}
}

// New builds a coded error with a formatted message.
func New(code Code, format string, args ...any) *APIError {
	return &APIError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is checks. Messages intentionally empty; real
// occurrences carry their own text.
var (
	ErrInvalidRequest     = &APIError{Code: CodeInvalidRequest}
	ErrRateLimitExceeded  = &APIError{Code: CodeRateLimitExceeded}
	ErrInvalidSession     = &APIError{Code: CodeInvalidSession}
	ErrAccountNotFound    = &APIError{Code: CodeAccountNotFound}
	ErrMarketNotFound     = &APIError{Code: CodeMarketNotFound}
	ErrInvalidOrderParams = &APIError{Code: CodeInvalidOrderParams}
	ErrInvalidAmount      = &APIError{Code: CodeInvalidAmount}
	ErrNoActionsProvided  = &APIError{Code: CodeNoActionsProvided}
	ErrTooManyActions     = &APIError{Code: CodeTooManyActions}
)

// ErrSessionExpired is the client-local expiry check failing before any
// network call. The caller must create a new session.
var ErrSessionExpired = errors.New("session expired")

// RevertError is an on-chain revert: the transaction executed and rolled
// back. It carries no numeric code; the authoritative nonce still advanced.
type RevertError struct {
	Message  string
	Reason   string
	Receipts []byte
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("on-chain revert: %s", e.Message)
	}
	return fmt.Sprintf("on-chain revert: %s, reason: %s", e.Message, e.Reason)
}

// TransportError is an HTTP-level failure with no parseable API body.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("http error %d: %s", e.Status, e.Body)
}

// DisconnectedError is the terminal stream failure surfaced once when the
// websocket connection is lost for good (reconnect attempts exhausted or an
// explicit disconnect). Reconnect cycling is not an error and is reported
// only via lifecycle events.
type DisconnectedError struct {
	Reason string
}

func (e *DisconnectedError) Error() string {
	return fmt.Sprintf("websocket disconnected: %s", e.Reason)
}
