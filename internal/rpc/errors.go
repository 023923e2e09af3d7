package rpc

import (
	"errors"
	"fmt"
)

// PolicyViolationError reports a write blocked by read-only mode.
type PolicyViolationError struct {
	Method  string
	Message string
}

func (e *PolicyViolationError) Error() string { return e.Message }

// Code returns the fixed policy violation code.
func (e *PolicyViolationError) Code() int { return CodePolicyViolation }

// RPCError is a structured error returned by the backend in the "error" key.
type RPCError struct {
	Code int
	// NoCode is set when the backend error carried no code.
	NoCode  bool
	Message string
	// Details holds the full error object as the backend sent it.
	Details map[string]any
}

func (e *RPCError) Error() string {
	if e.NoCode {
		return "rpc error: " + e.Message
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// TransportError covers everything between us and a parsed response:
// dial failures, timeouts, non-2xx statuses (redirects included) and bodies
// that are not JSON.
type TransportError struct {
	// StatusCode is zero when no HTTP response was received.
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string { return e.Message }

func (e *TransportError) Unwrap() error { return e.Err }

// IsPolicyViolation reports whether err is a read-only guard rejection.
func IsPolicyViolation(err error) bool {
	var pv *PolicyViolationError
	return errors.As(err, &pv)
}

// IsRPCError reports whether err came back from the backend as a JSON-RPC error.
func IsRPCError(err error) bool {
	var re *RPCError
	return errors.As(err, &re)
}

// IsTransportError reports whether err is an HTTP or network failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ErrorCode extracts the backend-style numeric code from err. Only policy
// violations and backend errors carry one.
func ErrorCode(err error) (int, bool) {
	var pv *PolicyViolationError
	if errors.As(err, &pv) {
		return pv.Code(), true
	}
	var re *RPCError
	if errors.As(err, &re) {
		return re.Code, !re.NoCode
	}
	return 0, false
}

// ErrorMessage returns the human-readable message for err, without the
// "rpc error <code>:" prefix that RPCError.Error adds.
func ErrorMessage(err error) string {
	var re *RPCError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
