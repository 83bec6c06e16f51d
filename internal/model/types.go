// Package model defines the chain's data types: Transaction, Block, Header
// and Chain. It holds no behavior beyond simple accessors — hashing lives
// in codec, signing/verification in crypto, and rule enforcement in
// validate, so that each concern can be tested independently.
package model

// Input references an unspent output by the hash of the transaction that
// created it and its position within that transaction's Outputs. Order
// within a Transaction's Inputs is preserved (it reflects wire/serialize
// order) but carries no addressing meaning of its own — only the
// (TxHash, OutputIndex) pair does.
type Input struct {
	TxHash      string
	OutputIndex int
}

// Output pays Amount to Address. Its position within a Transaction's
// Outputs is the output_index inputs elsewhere reference, so Outputs must
// never be reordered after a transaction is hashed.
type Output struct {
	Address string
	Amount  uint64
}

// Transaction is the unit of value transfer. TxHash, Signature and
// VerifyingKey are absent (zero value) until the transaction is hashed and
// signed.
type Transaction struct {
	Inputs       []Input
	Outputs      []Output
	TxHash       string
	Signature    []byte
	VerifyingKey []byte
}

// IsCoinbase reports whether tx is a genesis-style issuance transaction:
// no inputs at all.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// Signed reports whether tx has been signed.
func (tx *Transaction) Signed() bool {
	return len(tx.Signature) > 0 && len(tx.VerifyingKey) > 0
}

// Header is the part of a Block that is hashed for chain linkage and
// proof-of-work. BlockContentHash commits to Contents; the block hash
// itself commits only to Header.
type Header struct {
	ID               int
	PrevBlockHash    string
	Nonce            uint64
	BlockContentHash string
}

// Block is an ordered list of transactions plus the header that commits to
// them and to its position in the chain.
type Block struct {
	Contents []Transaction
	Header   Header
}

// Chain is the ordered sequence of blocks, index 0 is genesis.
type Chain []Block

// Tip returns the last block of the chain. Callers must not call Tip on an
// empty chain; store.Read never returns one.
func (c Chain) Tip() Block {
	return c[len(c)-1]
}
