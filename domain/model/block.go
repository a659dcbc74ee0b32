package model

// DomainBlockHeader represents the header part of a block. Header values are
// treated as read-only once constructed: code that needs a changed header
// builds a new one rather than mutating in place.
type DomainBlockHeader struct {
	Version uint16

	// Index is the position of the block in the chain. The genesis block
	// has index 0.
	Index uint64

	// ParentHash is the identity hash of the preceding block. It is nil
	// for the genesis block only.
	ParentHash *DomainHash

	// HashAlgorithm names the hash function the header's identity and
	// proof-of-work value are computed with.
	HashAlgorithm HashAlgorithm

	// TransactionsRoot commits to the ordered list of transactions carried
	// by the block.
	TransactionsRoot DomainHash

	// StateRoot is the content address of the chain state after this
	// block's transactions are applied. It is all-zero while the block is
	// being mined and is filled in by the commit step.
	StateRoot DomainHash

	MinerPublicKey     DomainSignerID
	TimeInMilliseconds int64
	Bits               uint32
	Nonce              uint64
}

// Clone returns a clone of DomainBlockHeader
func (header *DomainBlockHeader) Clone() *DomainBlockHeader {
	var parentHashClone *DomainHash
	if header.ParentHash != nil {
		parentHashClone = NewDomainHashFromByteArray(header.ParentHash.ByteArray())
	}

	return &DomainBlockHeader{
		Version:            header.Version,
		Index:              header.Index,
		ParentHash:         parentHashClone,
		HashAlgorithm:      header.HashAlgorithm,
		TransactionsRoot:   header.TransactionsRoot,
		StateRoot:          header.StateRoot,
		MinerPublicKey:     header.MinerPublicKey,
		TimeInMilliseconds: header.TimeInMilliseconds,
		Bits:               header.Bits,
		Nonce:              header.Nonce,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DomainBlockHeader{0, 0, &DomainHash{}, 0, DomainHash{}, DomainHash{},
	DomainSignerID{}, 0, 0, 0}

// Equal returns whether header equals to other
func (header *DomainBlockHeader) Equal(other *DomainBlockHeader) bool {
	if header == nil || other == nil {
		return header == other
	}

	if header.Version != other.Version {
		return false
	}

	if header.Index != other.Index {
		return false
	}

	if !header.ParentHash.Equal(other.ParentHash) {
		return false
	}

	if header.HashAlgorithm != other.HashAlgorithm {
		return false
	}

	if !header.TransactionsRoot.Equal(&other.TransactionsRoot) {
		return false
	}

	if !header.StateRoot.Equal(&other.StateRoot) {
		return false
	}

	if !header.MinerPublicKey.Equal(&other.MinerPublicKey) {
		return false
	}

	if header.TimeInMilliseconds != other.TimeInMilliseconds {
		return false
	}

	if header.Bits != other.Bits {
		return false
	}

	if header.Nonce != other.Nonce {
		return false
	}

	return true
}

// DomainBlock represents a block in the chain
type DomainBlock struct {
	Header       *DomainBlockHeader
	Transactions []*DomainTransaction
}

// Clone returns a clone of DomainBlock
func (block *DomainBlock) Clone() *DomainBlock {
	return &DomainBlock{
		Header:       block.Header.Clone(),
		Transactions: CloneTransactions(block.Transactions),
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DomainBlock{&DomainBlockHeader{}, []*DomainTransaction{}}

// Equal returns whether block equals to other
func (block *DomainBlock) Equal(other *DomainBlock) bool {
	if block == nil || other == nil {
		return block == other
	}

	if len(block.Transactions) != len(other.Transactions) {
		return false
	}

	if !block.Header.Equal(other.Header) {
		return false
	}

	for i, tx := range block.Transactions {
		if !tx.Equal(other.Transactions[i]) {
			return false
		}
	}

	return true
}
