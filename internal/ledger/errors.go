package ledger

import "errors"

var (
	ErrUnknownContract   = errors.New("unknown contract")
	ErrUnknownFunction   = errors.New("unknown function")
	ErrBadArguments      = errors.New("bad arguments")
	ErrNotReadOnly       = errors.New("function is not read-only")
	ErrReadOnlyTx        = errors.New("read-only function submitted as transaction")
	ErrContractExists    = errors.New("contract already deployed")
	ErrUnknownAccount    = errors.New("unknown account")
	ErrInvalidReturnType = errors.New("public function must return a response")
)
