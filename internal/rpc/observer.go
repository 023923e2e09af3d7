package rpc

import (
	"errors"
	"time"
)

// Outcome classifies how a call ended.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomePolicyViolation Outcome = "policy_violation"
	OutcomeRPCError        Outcome = "rpc_error"
	OutcomeTransportError  Outcome = "transport_error"
)

// CallRecord describes one finished Call. CallID is empty when the guard
// rejected the call, since no envelope was built.
type CallRecord struct {
	CallID     string
	Method     string
	Started    time.Time
	Duration   time.Duration
	Outcome    Outcome
	Code       int
	HasCode    bool
	StatusCode int
	Error      string
}

// Observer is notified after every Call, successful or not. Implementations
// must not block for long: they run on the caller's goroutine.
type Observer interface {
	ObserveCall(rec CallRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(rec CallRecord)

// ObserveCall calls f(rec).
func (f ObserverFunc) ObserveCall(rec CallRecord) { f(rec) }

// Observers fans a record out to several observers. Nil entries are skipped.
type Observers []Observer

// ObserveCall forwards rec to every observer in order.
func (obs Observers) ObserveCall(rec CallRecord) {
	for _, o := range obs {
		if o != nil {
			o.ObserveCall(rec)
		}
	}
}

// classify fills the outcome fields of rec from err.
func classify(rec *CallRecord, err error) {
	if err == nil {
		rec.Outcome = OutcomeOK
		return
	}
	rec.Error = ErrorMessage(err)
	rec.Code, rec.HasCode = ErrorCode(err)

	var te *TransportError
	switch {
	case IsPolicyViolation(err):
		rec.Outcome = OutcomePolicyViolation
	case IsRPCError(err):
		rec.Outcome = OutcomeRPCError
	case errors.As(err, &te):
		rec.Outcome = OutcomeTransportError
		rec.StatusCode = te.StatusCode
	default:
		rec.Outcome = OutcomeTransportError
	}
}
