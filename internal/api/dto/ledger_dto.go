package dto

import (
	"time"

	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/events"
	"github.com/ticketledger/ticket-ledger/internal/value"
)

// LoginRequest payload.
type LoginRequest struct {
	Account    string `json:"account"`
	Passphrase string `json:"passphrase"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Account   string           `json:"account"`
	Address   domain.Principal `json:"address"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// TxRequest is one contract call of a submitted block.
type TxRequest struct {
	Contract string       `json:"contract"`
	Function string       `json:"function"`
	Args     []value.JSON `json:"args"`
}

// SubmitBlockRequest payload.
type SubmitBlockRequest struct {
	Transactions []TxRequest `json:"transactions"`
}

// ReadOnlyRequest payload.
type ReadOnlyRequest struct {
	Args []value.JSON `json:"args"`
}

// ValueResponse carries a typed value and its canonical rendering.
type ValueResponse struct {
	Value value.JSON `json:"value"`
	Repr  string     `json:"repr"`
}

// ReceiptResponse is one transaction outcome.
type ReceiptResponse struct {
	TxID        string           `json:"tx_id"`
	BlockHeight uint64           `json:"block_height"`
	Contract    string           `json:"contract"`
	Function    string           `json:"function"`
	Sender      domain.Principal `json:"sender"`
	Result      ValueResponse    `json:"result"`
	Events      []events.Event   `json:"events"`
}

// BlockResponse is a mined block.
type BlockResponse struct {
	Height     uint64            `json:"height"`
	Hash       string            `json:"hash"`
	ParentHash string            `json:"parent_hash"`
	Timestamp  time.Time         `json:"timestamp"`
	Receipts   []ReceiptResponse `json:"receipts"`
}
