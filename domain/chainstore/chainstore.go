package chainstore

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/chainparams"
	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/merkle"
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/domain/pow"
	"github.com/embernet/emberd/domain/serialization"
	"github.com/embernet/emberd/infrastructure/db/ldb"
	"github.com/embernet/emberd/util/mstime"
)

var (
	blockKeyPrefix = []byte("blk:")
	indexKeyPrefix = []byte("idx:")
	nonceKeyPrefix = []byte("non:")
	chainLengthKey = []byte("len:")
	tipKey         = []byte("tip:")
)

// ChainStore maintains the canonical chain on top of a leveldb instance:
// ordered block storage, the tip pointer, and the per-signer confirmed-nonce
// index derived from appended blocks.
type ChainStore struct {
	mtx sync.RWMutex

	db         *ldb.LevelDB
	params     *chainparams.Params
	stateStore model.StateStore
	evaluator  model.Evaluator

	chainLength uint64
	tip         *model.DomainHash

	subscribersMutex sync.Mutex
	subscribers      map[*model.TipChangeSubscription]struct{}
}

// New opens a ChainStore over the given database. A database that has never
// held a chain is initialized with the network's genesis block.
func New(db *ldb.LevelDB, params *chainparams.Params,
	stateStore model.StateStore, evaluator model.Evaluator) (*ChainStore, error) {

	store := &ChainStore{
		db:          db,
		params:      params,
		stateStore:  stateStore,
		evaluator:   evaluator,
		subscribers: make(map[*model.TipChangeSubscription]struct{}),
	}

	hasChain, err := db.Has(chainLengthKey)
	if err != nil {
		return nil, err
	}
	if !hasChain {
		err = store.initializeWithGenesis()
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	lengthBytes, err := db.Get(chainLengthKey)
	if err != nil {
		return nil, err
	}
	store.chainLength = binary.LittleEndian.Uint64(lengthBytes)

	tipBytes, err := db.Get(tipKey)
	if err != nil {
		return nil, err
	}
	store.tip, err = model.NewDomainHashFromByteSlice(tipBytes)
	if err != nil {
		return nil, err
	}

	log.Infof("Loaded chain %s at length %d, tip %s", params.Name, store.chainLength, store.tip)
	return store, nil
}

func (cs *ChainStore) initializeWithGenesis() error {
	genesisBlock := cs.params.GenesisBlock()
	genesisHash := consensushashing.BlockHash(genesisBlock)

	if cs.stateStore.SupportsContentAddressing() {
		section := cs.stateStore.OpenWriteSection()
		_, err := section.ApplyEvaluations(genesisHash, nil)
		section.Close()
		if err != nil {
			return err
		}
		err = cs.stateStore.Promote(genesisHash)
		if err != nil {
			return err
		}
	}

	batch := &ldb.Batch{}
	err := cs.stageBlock(batch, genesisBlock, genesisHash)
	if err != nil {
		return err
	}
	err = cs.db.Write(batch)
	if err != nil {
		return err
	}

	cs.chainLength = 1
	cs.tip = genesisHash
	log.Infof("Initialized chain %s with genesis block %s", cs.params.Name, genesisHash)
	return nil
}

// ChainLength returns the number of blocks in the chain, including genesis.
func (cs *ChainStore) ChainLength() (uint64, error) {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()

	return cs.chainLength, nil
}

// Tip returns the hash of the current chain tip.
func (cs *ChainStore) Tip() (*model.DomainHash, error) {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()

	return cs.tip, nil
}

// BlockHashAtIndex returns the hash of the block at the given chain index.
func (cs *ChainStore) BlockHashAtIndex(index uint64) (*model.DomainHash, error) {
	hashBytes, err := cs.db.Get(indexKey(index))
	if err != nil {
		if ldb.IsNotFoundError(err) {
			return nil, errors.Wrapf(err, "no block at chain index %d", index)
		}
		return nil, err
	}
	return model.NewDomainHashFromByteSlice(hashBytes)
}

// HeaderAtIndex returns the header of the block at the given chain index.
func (cs *ChainStore) HeaderAtIndex(index uint64) (*model.DomainBlockHeader, error) {
	blockHash, err := cs.BlockHashAtIndex(index)
	if err != nil {
		return nil, err
	}
	block, err := cs.BlockByHash(blockHash)
	if err != nil {
		return nil, err
	}
	return block.Header, nil
}

// BlockByHash returns the full block with the given hash.
func (cs *ChainStore) BlockByHash(blockHash *model.DomainHash) (*model.DomainBlock, error) {
	blockBytes, err := cs.db.Get(blockKey(blockHash))
	if err != nil {
		if ldb.IsNotFoundError(err) {
			return nil, errors.Wrapf(err, "block %s not found", blockHash)
		}
		return nil, err
	}
	return serialization.DeserializeBlock(bytes.NewReader(blockBytes))
}

// LastConfirmedNonce returns the highest nonce of the given signer confirmed
// in the chain. exists is false when the signer has no confirmed
// transactions at all.
func (cs *ChainStore) LastConfirmedNonce(signer *model.DomainSignerID) (uint64, bool, error) {
	nonceBytes, err := cs.db.Get(nonceKey(signer))
	if err != nil {
		if ldb.IsNotFoundError(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return binary.LittleEndian.Uint64(nonceBytes), true, nil
}

// AppendBlock validates the given block against the current tip and,
// atomically, stores it, advances the tip, updates the confirmed-nonce index
// and promotes the block's state snapshot. When evaluations is nil the
// block's transactions are re-evaluated; otherwise the given evaluations are
// trusted to be the block's own.
func (cs *ChainStore) AppendBlock(block *model.DomainBlock, receivedTime mstime.Time,
	evaluations []*model.StateEvaluation) error {

	cs.mtx.Lock()
	defer cs.mtx.Unlock()

	blockHash := consensushashing.BlockHash(block)
	err := cs.validateAgainstTip(block, blockHash)
	if err != nil {
		return err
	}

	if cs.stateStore.SupportsContentAddressing() {
		err := cs.ensureStateSnapshot(block, blockHash, evaluations)
		if err != nil {
			return err
		}
	}

	batch := &ldb.Batch{}
	err = cs.stageBlock(batch, block, blockHash)
	if err != nil {
		return err
	}
	err = cs.db.Write(batch)
	if err != nil {
		return err
	}

	if cs.stateStore.SupportsContentAddressing() {
		err = cs.stateStore.Promote(blockHash)
		if err != nil {
			return err
		}
	}

	oldTip := cs.tip
	cs.tip = blockHash
	cs.chainLength = block.Header.Index + 1

	log.Infof("Appended block %s at index %d with %d transactions (%dms after creation)",
		blockHash, block.Header.Index, len(block.Transactions),
		receivedTime.UnixMilliseconds()-block.Header.TimeInMilliseconds)

	cs.notifyTipChanged(oldTip, blockHash)
	return nil
}

// validateAgainstTip checks that the block extends the current tip and is
// internally consistent. The caller holds the write lock.
func (cs *ChainStore) validateAgainstTip(block *model.DomainBlock, blockHash *model.DomainHash) error {
	header := block.Header
	if header.Index != cs.chainLength {
		return errors.Errorf("block %s has index %d, while the chain expects "+
			"index %d", blockHash, header.Index, cs.chainLength)
	}
	if header.ParentHash == nil || !header.ParentHash.Equal(cs.tip) {
		return errors.Errorf("block %s does not extend the current tip %s",
			blockHash, cs.tip)
	}
	if expected := cs.params.HashAlgorithmAtIndex(header.Index); header.HashAlgorithm != expected {
		return errors.Errorf("block %s is tagged with hash algorithm %s, "+
			"while index %d requires %s", blockHash, header.HashAlgorithm, header.Index, expected)
	}
	if uint64(len(block.Transactions)) > cs.params.MaxTransactionsPerBlock {
		return errors.Errorf("block %s carries %d transactions, more than "+
			"the allowed maximum %d", blockHash, len(block.Transactions),
			cs.params.MaxTransactionsPerBlock)
	}
	if size := serialization.BlockSize(block); size > cs.params.MaxBlockBytes {
		return errors.Errorf("block %s is %d bytes, larger than the allowed "+
			"maximum %d", blockHash, size, cs.params.MaxBlockBytes)
	}

	transactionsRoot := merkle.CalculateMerkleRootOfTransactions(block.Transactions)
	if !transactionsRoot.Equal(&header.TransactionsRoot) {
		return errors.Errorf("block %s declares transactions root %s, while "+
			"its transactions hash to %s", blockHash, &header.TransactionsRoot, transactionsRoot)
	}

	if !pow.CheckProofOfWorkByBits(header) {
		return errors.Errorf("block %s does not satisfy its declared "+
			"difficulty", blockHash)
	}
	return nil
}

// ensureStateSnapshot makes sure a state snapshot keyed by the block's hash
// exists, evaluating the block's transactions if no precomputed evaluations
// were handed in, and checks the resulting root against the header.
func (cs *ChainStore) ensureStateSnapshot(block *model.DomainBlock,
	blockHash *model.DomainHash, evaluations []*model.StateEvaluation) error {

	stateRoot, err := cs.stateStore.StateRoot(blockHash)
	if err == nil {
		// The snapshot was already persisted, by the commit step of
		// mining. Only the root declared by the header is left to check.
		if !stateRoot.Equal(&block.Header.StateRoot) {
			return errors.Errorf("block %s declares state root %s, while its "+
				"persisted snapshot has root %s", blockHash, &block.Header.StateRoot, stateRoot)
		}
		return nil
	}
	if !ldb.IsNotFoundError(err) {
		return err
	}

	if evaluations == nil {
		evaluations, err = cs.evaluator.EvaluateTransactions(block.Transactions)
		if err != nil {
			return err
		}
	}

	section := cs.stateStore.OpenWriteSection()
	defer section.Close()
	appliedRoot, err := section.ApplyEvaluations(blockHash, evaluations)
	if err != nil {
		return err
	}
	if !appliedRoot.Equal(&block.Header.StateRoot) {
		return errors.Errorf("block %s declares state root %s, while its "+
			"transactions evaluate to root %s", blockHash, &block.Header.StateRoot, appliedRoot)
	}
	return nil
}

// stageBlock queues all of the writes of appending a block into the batch.
func (cs *ChainStore) stageBlock(batch *ldb.Batch, block *model.DomainBlock,
	blockHash *model.DomainHash) error {

	buffer := &bytes.Buffer{}
	err := serialization.SerializeBlock(buffer, block)
	if err != nil {
		return err
	}
	batch.Put(blockKey(blockHash), buffer.Bytes())
	batch.Put(indexKey(block.Header.Index), blockHash.ByteSlice())

	// The confirmed-nonce index keeps the highest nonce per signer. The
	// selector's contiguity guarantee makes the highest nonce in this
	// block the signer's new last confirmed nonce.
	highestNonces := make(map[model.DomainSignerID]uint64)
	for _, tx := range block.Transactions {
		if nonce, ok := highestNonces[tx.Signer]; !ok || tx.Nonce > nonce {
			highestNonces[tx.Signer] = tx.Nonce
		}
	}
	for signer, nonce := range highestNonces {
		signer := signer
		nonceBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(nonceBytes, nonce)
		batch.Put(nonceKey(&signer), nonceBytes)
	}

	lengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(lengthBytes, block.Header.Index+1)
	batch.Put(chainLengthKey, lengthBytes)
	batch.Put(tipKey, blockHash.ByteSlice())
	return nil
}

func blockKey(blockHash *model.DomainHash) []byte {
	return append(append([]byte{}, blockKeyPrefix...), blockHash.ByteSlice()...)
}

func indexKey(index uint64) []byte {
	key := append([]byte{}, indexKeyPrefix...)
	indexBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(indexBytes, index)
	return append(key, indexBytes...)
}

func nonceKey(signer *model.DomainSignerID) []byte {
	return append(append([]byte{}, nonceKeyPrefix...), signer.ByteSlice()...)
}
