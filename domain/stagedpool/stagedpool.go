package stagedpool

import (
	"bytes"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/domain/serialization"
	"github.com/embernet/emberd/infrastructure/db/ldb"
	"github.com/embernet/emberd/util/binaryserializer"
)

// stagedTransactionKeyPrefix is the database key prefix staged transactions
// are persisted under, keyed by transaction ID.
var stagedTransactionKeyPrefix = []byte("stp:")

type signerBucket struct {
	signer model.DomainSignerID

	// transactions are kept in ascending nonce order.
	transactions []*model.DomainTransaction
}

// Pool is the holding area of transactions awaiting inclusion in a block.
// Staged transactions survive restarts: each staging is persisted to the
// pool's database together with a sequence number that preserves the order
// signers first appeared in.
type Pool struct {
	mtx sync.RWMutex

	db           *ldb.LevelDB
	nextSequence uint64

	// signerOrder holds signers in the order their first transaction was
	// staged. ListStaged scans signers in this order.
	signerOrder []*signerBucket
	bySigner    map[model.DomainSignerID]*signerBucket
	byID        map[model.DomainHash]*model.DomainTransaction
	sequences   map[model.DomainHash]uint64
}

// New returns a new Pool persisted to the given database. A nil database
// yields a memory-only pool. Previously persisted transactions are restaged
// in their original staging order.
func New(db *ldb.LevelDB) (*Pool, error) {
	pool := &Pool{
		db:        db,
		bySigner:  make(map[model.DomainSignerID]*signerBucket),
		byID:      make(map[model.DomainHash]*model.DomainTransaction),
		sequences: make(map[model.DomainHash]uint64),
	}
	if db != nil {
		err := pool.loadPersisted()
		if err != nil {
			return nil, err
		}
	}
	return pool, nil
}

func (p *Pool) loadPersisted() error {
	type persistedTransaction struct {
		sequence    uint64
		transaction *model.DomainTransaction
	}

	cursor := p.db.Cursor(stagedTransactionKeyPrefix)
	defer cursor.Close()

	persisted := []*persistedTransaction{}
	for cursor.Next() {
		value, err := cursor.Value()
		if err != nil {
			return err
		}
		reader := bytes.NewReader(value)
		sequence, err := binaryserializer.Uint64(reader)
		if err != nil {
			return err
		}
		tx, err := serialization.DeserializeTransaction(reader)
		if err != nil {
			return err
		}
		persisted = append(persisted, &persistedTransaction{sequence, tx})
	}

	sort.Slice(persisted, func(i, j int) bool {
		return persisted[i].sequence < persisted[j].sequence
	})
	for _, entry := range persisted {
		p.stageInMemory(entry.transaction, entry.sequence)
		if entry.sequence >= p.nextSequence {
			p.nextSequence = entry.sequence + 1
		}
	}
	if len(persisted) > 0 {
		log.Infof("Restaged %d persisted transactions", len(persisted))
	}
	return nil
}

// Stage admits the given transaction into the pool and persists it. A
// transaction whose (signer, nonce) slot is already staged is rejected.
func (p *Pool) Stage(tx *model.DomainTransaction) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	txID := consensushashing.TransactionID(tx)
	if _, ok := p.byID[*txID]; ok {
		return errors.Errorf("transaction %s is already staged", txID)
	}
	if bucket, ok := p.bySigner[tx.Signer]; ok {
		position := sort.Search(len(bucket.transactions), func(i int) bool {
			return bucket.transactions[i].Nonce >= tx.Nonce
		})
		if position < len(bucket.transactions) && bucket.transactions[position].Nonce == tx.Nonce {
			return errors.Errorf("signer %s already has a staged transaction "+
				"at nonce %d", tx.Signer, tx.Nonce)
		}
	}

	sequence := p.nextSequence
	p.nextSequence++

	if p.db != nil {
		buffer := &bytes.Buffer{}
		err := binaryserializer.PutUint64(buffer, sequence)
		if err != nil {
			return err
		}
		err = serialization.SerializeTransaction(buffer, tx)
		if err != nil {
			return err
		}
		err = p.db.Put(stagedTransactionKey(txID), buffer.Bytes())
		if err != nil {
			return err
		}
	}

	p.stageInMemory(tx, sequence)
	log.Debugf("Staged transaction %s (signer %s, nonce %d)", txID, tx.Signer, tx.Nonce)
	return nil
}

func (p *Pool) stageInMemory(tx *model.DomainTransaction, sequence uint64) {
	txID := consensushashing.TransactionID(tx)

	bucket, ok := p.bySigner[tx.Signer]
	if !ok {
		bucket = &signerBucket{signer: tx.Signer}
		p.bySigner[tx.Signer] = bucket
		p.signerOrder = append(p.signerOrder, bucket)
	}
	position := sort.Search(len(bucket.transactions), func(i int) bool {
		return bucket.transactions[i].Nonce >= tx.Nonce
	})
	bucket.transactions = append(bucket.transactions, nil)
	copy(bucket.transactions[position+1:], bucket.transactions[position:])
	bucket.transactions[position] = tx

	p.byID[*txID] = tx
	p.sequences[*txID] = sequence
}

// ListStaged returns a snapshot of the staged transactions. Signers appear
// in the order their first transaction was staged, and each signer's
// transactions appear in ascending nonce order.
func (p *Pool) ListStaged() []*model.DomainTransaction {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	snapshot := make([]*model.DomainTransaction, 0, len(p.byID))
	for _, bucket := range p.signerOrder {
		snapshot = append(snapshot, bucket.transactions...)
	}
	return snapshot
}

// Evict removes the transaction with the given ID from the pool and from the
// pool's database. Evicting an unknown ID is a no-op.
func (p *Pool) Evict(transactionID *model.DomainHash) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	tx, ok := p.byID[*transactionID]
	if !ok {
		return
	}
	delete(p.byID, *transactionID)
	delete(p.sequences, *transactionID)

	bucket := p.bySigner[tx.Signer]
	for i, bucketTx := range bucket.transactions {
		if bucketTx.Nonce == tx.Nonce {
			bucket.transactions = append(bucket.transactions[:i], bucket.transactions[i+1:]...)
			break
		}
	}
	if len(bucket.transactions) == 0 {
		delete(p.bySigner, tx.Signer)
		for i, orderedBucket := range p.signerOrder {
			if orderedBucket == bucket {
				p.signerOrder = append(p.signerOrder[:i], p.signerOrder[i+1:]...)
				break
			}
		}
	}

	if p.db != nil {
		err := p.db.Delete(stagedTransactionKey(transactionID))
		if err != nil {
			log.Errorf("Failed to delete evicted transaction %s from the "+
				"pool database: %s", transactionID, err)
		}
	}
	log.Debugf("Evicted transaction %s (signer %s, nonce %d)", transactionID, tx.Signer, tx.Nonce)
}

// Count returns the number of staged transactions.
func (p *Pool) Count() int {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	return len(p.byID)
}

func stagedTransactionKey(transactionID *model.DomainHash) []byte {
	return append(stagedTransactionKeyPrefix[:len(stagedTransactionKeyPrefix):len(stagedTransactionKeyPrefix)],
		transactionID.ByteSlice()...)
}
