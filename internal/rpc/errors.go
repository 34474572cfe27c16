package rpc

import (
	"errors"

	"github.com/ghostpool/gopoold/internal/core/pool"
)

// RpcError is the wire form of a failed method call.
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Message     string `json:"error_message"`
}

// Error codes. Negative codes are transport-level, positive codes map
// engine failures.
const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603

	codeZeroAmount          = 100
	codeInsufficientInitial = 101
	codeSlippageExceeded    = 102
	codeInsufficientLp      = 103
	codeInsufficientLiq     = 104
	codeInsufficientBuffer  = 105
	codeWithdrawalNotFound  = 106
	codeNotOwner            = 107
	codeAlreadyClaimed      = 108
	codeStillUnbonding      = 109
	codeExternalCall        = 110
	codeOverflow            = 111
)

func rpcErrMethodNotFound(method string) *RpcError {
	return &RpcError{Code: codeMethodNotFound, ErrorString: "unknownMethod", Message: "Unknown method: " + method}
}

func rpcErrInvalidParams(message string) *RpcError {
	return &RpcError{Code: codeInvalidParams, ErrorString: "invalidParams", Message: message}
}

func rpcErrInternal(message string) *RpcError {
	return &RpcError{Code: codeInternal, ErrorString: "internal", Message: message}
}

// engineError translates pool sentinel errors into wire errors.
func engineError(err error) *RpcError {
	switch {
	case errors.Is(err, pool.ErrZeroAmount):
		return &RpcError{Code: codeZeroAmount, ErrorString: "zeroAmount", Message: err.Error()}
	case errors.Is(err, pool.ErrInsufficientInitialLiquidity):
		return &RpcError{Code: codeInsufficientInitial, ErrorString: "insufficientInitialLiquidity", Message: err.Error()}
	case errors.Is(err, pool.ErrSlippageExceeded):
		return &RpcError{Code: codeSlippageExceeded, ErrorString: "slippageExceeded", Message: err.Error()}
	case errors.Is(err, pool.ErrInsufficientLpBalance):
		return &RpcError{Code: codeInsufficientLp, ErrorString: "insufficientLpBalance", Message: err.Error()}
	case errors.Is(err, pool.ErrInsufficientLiquidity):
		return &RpcError{Code: codeInsufficientLiq, ErrorString: "insufficientLiquidity", Message: err.Error()}
	case errors.Is(err, pool.ErrInsufficientBuffer):
		return &RpcError{Code: codeInsufficientBuffer, ErrorString: "insufficientBuffer", Message: err.Error()}
	case errors.Is(err, pool.ErrWithdrawalNotFound):
		return &RpcError{Code: codeWithdrawalNotFound, ErrorString: "withdrawalNotFound", Message: err.Error()}
	case errors.Is(err, pool.ErrNotOwner):
		return &RpcError{Code: codeNotOwner, ErrorString: "notOwner", Message: err.Error()}
	case errors.Is(err, pool.ErrAlreadyClaimed):
		return &RpcError{Code: codeAlreadyClaimed, ErrorString: "alreadyClaimed", Message: err.Error()}
	case errors.Is(err, pool.ErrStillUnbonding):
		return &RpcError{Code: codeStillUnbonding, ErrorString: "stillUnbonding", Message: err.Error()}
	case errors.Is(err, pool.ErrExternalCall):
		return &RpcError{Code: codeExternalCall, ErrorString: "externalCallFailed", Message: err.Error()}
	case errors.Is(err, pool.ErrOverflow):
		return &RpcError{Code: codeOverflow, ErrorString: "overflow", Message: err.Error()}
	default:
		return rpcErrInternal(err.Error())
	}
}
