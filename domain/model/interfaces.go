package model

import "github.com/embernet/emberd/util/mstime"

// TipChangeNotification is sent to tip-change subscribers whenever the chain
// tip moves.
type TipChangeNotification struct {
	OldTip *DomainHash
	NewTip *DomainHash
}

// TipChangeSubscription is a registered subscriber to tip changes. The C
// channel carries at most the latest undelivered notification: senders never
// block on a slow subscriber.
type TipChangeSubscription struct {
	C chan *TipChangeNotification
}

// ChainStore maintains the canonical chain: ordered block storage, the tip,
// and the per-signer confirmed-nonce index derived from it.
type ChainStore interface {
	// ChainLength returns the number of blocks in the chain, including
	// the genesis block.
	ChainLength() (uint64, error)

	// BlockHashAtIndex returns the hash of the block at the given chain
	// index.
	BlockHashAtIndex(index uint64) (*DomainHash, error)

	// HeaderAtIndex returns the header of the block at the given chain
	// index.
	HeaderAtIndex(index uint64) (*DomainBlockHeader, error)

	// BlockByHash returns the full block with the given hash.
	BlockByHash(blockHash *DomainHash) (*DomainBlock, error)

	// LastConfirmedNonce returns the highest nonce of the given signer
	// that is confirmed in the chain. exists is false when the signer has
	// no confirmed transactions at all.
	LastConfirmedNonce(signer *DomainSignerID) (nonce uint64, exists bool, err error)

	// Tip returns the hash of the current chain tip.
	Tip() (*DomainHash, error)

	// SubscribeToTipChanges registers a new tip-change subscriber.
	SubscribeToTipChanges() *TipChangeSubscription

	// UnsubscribeFromTipChanges removes a subscriber registered with
	// SubscribeToTipChanges. Unsubscribing twice is a no-op.
	UnsubscribeFromTipChanges(subscription *TipChangeSubscription)

	// AppendBlock validates the given block against the current tip and,
	// atomically, stores it, advances the tip, updates the confirmed-nonce
	// index and promotes the block's state snapshot. When evaluations is
	// nil the block's transactions are re-evaluated; otherwise the given
	// evaluations are trusted to be the block's own.
	AppendBlock(block *DomainBlock, receivedTime mstime.Time, evaluations []*StateEvaluation) error
}

// StagedPool holds transactions waiting for inclusion in a block.
type StagedPool interface {
	// ListStaged returns a snapshot of the staged transactions. Signers
	// appear in the order their first transaction was staged, and each
	// signer's transactions appear in ascending nonce order.
	ListStaged() []*DomainTransaction

	// Evict removes a transaction from the pool, typically because it can
	// never be included (nonce already confirmed, or rejected by policy).
	Evict(transactionID *DomainHash)
}

// StateWriteSection is an exclusive write handle on the state store. At most
// one section is open at a time; Close releases it.
type StateWriteSection interface {
	// ApplyEvaluations applies the given evaluations on top of the current
	// state, persists the resulting snapshot under the given key and
	// returns the snapshot's state root. Applying the same evaluations
	// under a second key is cheap: the snapshot is shared.
	ApplyEvaluations(key *DomainHash, evaluations []*StateEvaluation) (*DomainHash, error)

	// Close releases the section. Close is idempotent.
	Close()
}

// StateStore tracks chain state snapshots addressed by block hash.
type StateStore interface {
	// SupportsContentAddressing reports whether the store can address
	// snapshots by state root. Stores that cannot skip the root-embedding
	// commit step.
	SupportsContentAddressing() bool

	// OpenWriteSection acquires the store's exclusive write section,
	// blocking until any currently open section is closed.
	OpenWriteSection() StateWriteSection

	// StateRoot returns the state root of the snapshot keyed by the given
	// block hash.
	StateRoot(blockHash *DomainHash) (*DomainHash, error)

	// Promote makes the snapshot keyed by the given block hash the
	// current state, on top of which future sections apply.
	Promote(blockHash *DomainHash) error
}

// Evaluator executes transactions against the current chain state and
// produces their state writes.
type Evaluator interface {
	// EvaluateTransactions evaluates the given transactions in order,
	// each on top of the writes of those before it. The returned slice
	// has exactly one evaluation per transaction, in the same order.
	EvaluateTransactions(transactions []*DomainTransaction) ([]*StateEvaluation, error)
}

// Policy answers the chain's consensus parameters and per-block ceilings.
type Policy interface {
	// NextRequiredDifficulty returns the difficulty bits a block created
	// at the given time must meet to extend the current tip.
	NextRequiredDifficulty(newBlockTime mstime.Time) (uint32, error)

	// HashAlgorithm returns the hash algorithm a block at the given chain
	// index must be tagged with.
	HashAlgorithm(index uint64) HashAlgorithm

	// MaxTransactionsPerBlock returns the transaction-count ceiling of a
	// single block.
	MaxTransactionsPerBlock() uint64

	// MaxTransactionsPerSigner returns the ceiling on how many
	// transactions of one signer a single block may carry, given the
	// current chain length.
	MaxTransactionsPerSigner(chainLength uint64) uint64

	// MaxBlockBytes returns the serialized-size ceiling of a block at the
	// given chain index.
	MaxBlockBytes(index uint64) uint64

	// CheckTransactionAllowed returns nil if the given transaction is
	// acceptable for inclusion under standalone policy rules, or an error
	// describing the violation.
	CheckTransactionAllowed(transaction *DomainTransaction) error
}
