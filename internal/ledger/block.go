package ledger

import (
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"

	"github.com/ticketledger/ticket-ledger/internal/codec"
	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/events"
	"github.com/ticketledger/ticket-ledger/internal/value"
)

// Tx is a contract call submitted in a block.
type Tx struct {
	Contract string
	Function string
	Args     []value.Value
	Sender   domain.Principal
}

// ContractCall builds a transaction.
func ContractCall(contract, function string, args []value.Value, sender domain.Principal) Tx {
	return Tx{Contract: contract, Function: function, Args: args, Sender: sender}
}

// Receipt is the outcome of one transaction.
type Receipt struct {
	TxID        string
	BlockHeight uint64
	Contract    string
	Function    string
	Sender      domain.Principal
	Result      value.Value
	Events      []events.Event
}

// Block is a mined batch of receipts.
type Block struct {
	Height     uint64
	Hash       string
	ParentHash string
	Timestamp  time.Time
	Receipts   []Receipt
}

type txPreimage struct {
	Contract string       `cbor:"contract"`
	Function string       `cbor:"function"`
	Sender   string       `cbor:"sender"`
	Args     []value.Wire `cbor:"args"`
	Height   uint64       `cbor:"height"`
	Index    int          `cbor:"index"`
}

type receiptPreimage struct {
	TxID   string     `cbor:"tx_id"`
	Result value.Wire `cbor:"result"`
}

type blockPreimage struct {
	ChainID    string            `cbor:"chain_id"`
	Height     uint64            `cbor:"height"`
	ParentHash string            `cbor:"parent_hash"`
	Timestamp  int64             `cbor:"timestamp"`
	Receipts   []receiptPreimage `cbor:"receipts"`
}

func txID(tx Tx, height uint64, index int) (string, error) {
	args := make([]value.Wire, len(tx.Args))
	for i, a := range tx.Args {
		args[i] = value.ToWire(a)
	}
	return hashOf(txPreimage{
		Contract: tx.Contract,
		Function: tx.Function,
		Sender:   string(tx.Sender),
		Args:     args,
		Height:   height,
		Index:    index,
	})
}

func blockHash(chainID string, b *Block) (string, error) {
	receipts := make([]receiptPreimage, len(b.Receipts))
	for i, r := range b.Receipts {
		receipts[i] = receiptPreimage{TxID: r.TxID, Result: value.ToWire(r.Result)}
	}
	return hashOf(blockPreimage{
		ChainID:    chainID,
		Height:     b.Height,
		ParentHash: b.ParentHash,
		Timestamp:  b.Timestamp.UnixNano(),
		Receipts:   receipts,
	})
}

func hashOf(v any) (string, error) {
	data, err := codec.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return "0x" + hex.EncodeToString(sum[:]), nil
}
