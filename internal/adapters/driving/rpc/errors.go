package rpc

import (
	"errors"

	"github.com/custodia-labs/corra/internal/core/domain"
)

// JSON-RPC error codes. The standard codes cover protocol failures; the
// -32000 block carries the domain taxonomy.
const (
	codeParse          = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602

	codeServerError  = -32000
	codeNotFound     = -32001
	codeExternalCall = -32002
	codePipeline     = -32003
)

// errorCode maps a tool error to its wire code. Pipeline outranks
// ExternalCall because pipeline stages wrap the external cause; NotFound
// outranks both so a missing reference never reports as a generic
// upstream failure.
func errorCode(err error) int {
	switch {
	case domain.IsValidation(err),
		errors.Is(err, domain.ErrEmptyQuery),
		errors.Is(err, domain.ErrEmptyDocument):
		return codeInvalidParams
	case domain.IsNotFound(err):
		return codeNotFound
	case domain.IsPipeline(err):
		return codePipeline
	case domain.IsExternalCall(err):
		return codeExternalCall
	default:
		return codeServerError
	}
}
