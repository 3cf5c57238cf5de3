package rpc

import "encoding/json"

// JSON-RPC 2.0 envelope types.

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeParse         = -32700
	codeInvalidReq    = -32600
	codeMethodMissing = -32601
	codeInvalidParams = -32602
	codeInternal      = -32603
	codeRejected      = -32000
)

func errParse(msg string) *Error { return &Error{Code: codeParse, Message: msg} }

func errInvalidReq(msg string) *Error { return &Error{Code: codeInvalidReq, Message: msg} }

func errMethodMissing(msg string) *Error { return &Error{Code: codeMethodMissing, Message: msg} }

func errInvalidParams(msg string) *Error { return &Error{Code: codeInvalidParams, Message: msg} }

func errInternal(msg string) *Error { return &Error{Code: codeInternal, Message: msg} }

func errRejected(msg string) *Error { return &Error{Code: codeRejected, Message: msg} }
