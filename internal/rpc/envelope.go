// Package rpc implements the JSON-RPC client for the Eva backend.
//
// The client is intentionally narrow:
//   - NewRequest builds the versioned envelope with a fresh call id
//   - CheckWrite applies the read-only write guard before any I/O
//   - Client.Call posts the envelope and maps failures to typed errors
//
// There is no retry, batching or caching here. Callers that want a retry
// policy own it.
package rpc

import (
	"github.com/google/uuid"
)

// ProtocolVersion is the envelope tag the Eva backend expects.
const ProtocolVersion = "2.2"

// Params holds keyword-style call parameters. Values must be JSON-encodable.
type Params map[string]any

// Merge copies entries from extra into p without overwriting keys that are
// already present, so named parameters always win over pass-through ones.
// It returns p for chaining; a nil p is allocated.
func (p Params) Merge(extra Params) Params {
	if p == nil {
		p = Params{}
	}
	for k, v := range extra {
		if _, ok := p[k]; ok {
			continue
		}
		p[k] = v
	}
	return p
}

// Request is the JSON-RPC envelope sent to the backend.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	CallID  string `json:"callid"`
	Kwargs  Params `json:"kwargs"`
}

// NewRequest builds an envelope for method. A nil params map is sent as {}.
// The method name is not validated.
func NewRequest(method string, params Params) Request {
	if params == nil {
		params = Params{}
	}
	return Request{
		JSONRPC: ProtocolVersion,
		Method:  method,
		CallID:  newCallID(),
		Kwargs:  params,
	}
}

// newCallID returns a random (v4) UUID string.
var newCallID = uuid.NewString
