package mining

import (
	"bytes"
	"sync"

	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/util/mstime"
)

var errorsNotAllowed = errors.New("transaction rejected by test policy")

// testBits is a difficulty floor low enough to solve instantly.
const testBits = 0x207fffff

// unsolvableBits is a difficulty no test will ever meet, used to hold a
// search in flight.
const unsolvableBits = 0x01010000

func testSigner(seed byte) *model.DomainSignerID {
	signer, _ := model.NewDomainSignerIDFromByteSlice(bytes.Repeat([]byte{seed}, 32))
	return signer
}

func testTransaction(signer *model.DomainSignerID, nonce uint64) *model.DomainTransaction {
	return &model.DomainTransaction{
		Signer:  *signer,
		Nonce:   nonce,
		Payload: []byte{byte(nonce)},
	}
}

type fakeChainStore struct {
	model.ChainStore

	mtx sync.Mutex

	chainLength uint64
	tip         *model.DomainHash
	lastNonces  map[model.DomainSignerID]uint64
	appended    []*model.DomainBlock
	subscribers map[*model.TipChangeSubscription]struct{}
}

func newFakeChainStore() *fakeChainStore {
	return &fakeChainStore{
		chainLength: 1,
		tip:         model.NewZeroHash(),
		lastNonces:  make(map[model.DomainSignerID]uint64),
		subscribers: make(map[*model.TipChangeSubscription]struct{}),
	}
}

func (f *fakeChainStore) ChainLength() (uint64, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.chainLength, nil
}

func (f *fakeChainStore) Tip() (*model.DomainHash, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.tip, nil
}

func (f *fakeChainStore) LastConfirmedNonce(signer *model.DomainSignerID) (uint64, bool, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	nonce, ok := f.lastNonces[*signer]
	return nonce, ok, nil
}

func (f *fakeChainStore) SubscribeToTipChanges() *model.TipChangeSubscription {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	subscription := &model.TipChangeSubscription{
		C: make(chan *model.TipChangeNotification, 1),
	}
	f.subscribers[subscription] = struct{}{}
	return subscription
}

func (f *fakeChainStore) UnsubscribeFromTipChanges(subscription *model.TipChangeSubscription) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	delete(f.subscribers, subscription)
}

func (f *fakeChainStore) AppendBlock(block *model.DomainBlock, receivedTime mstime.Time,
	evaluations []*model.StateEvaluation) error {

	f.mtx.Lock()
	oldTip := f.tip
	f.tip = consensushashing.BlockHash(block)
	f.chainLength = block.Header.Index + 1
	f.appended = append(f.appended, block)
	newTip := f.tip
	f.mtx.Unlock()

	f.notify(oldTip, newTip)
	return nil
}

// moveTip simulates an external tip mutation.
func (f *fakeChainStore) moveTip(newTip *model.DomainHash) {
	f.mtx.Lock()
	oldTip := f.tip
	f.tip = newTip
	f.mtx.Unlock()

	f.notify(oldTip, newTip)
}

func (f *fakeChainStore) notify(oldTip, newTip *model.DomainHash) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	notification := &model.TipChangeNotification{OldTip: oldTip, NewTip: newTip}
	for subscription := range f.subscribers {
		select {
		case subscription.C <- notification:
		default:
		}
	}
}

type fakePool struct {
	mtx     sync.Mutex
	staged  []*model.DomainTransaction
	evicted []*model.DomainHash
}

func (f *fakePool) ListStaged() []*model.DomainTransaction {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	snapshot := make([]*model.DomainTransaction, len(f.staged))
	copy(snapshot, f.staged)
	return snapshot
}

func (f *fakePool) Evict(transactionID *model.DomainHash) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	for i, tx := range f.staged {
		if consensushashing.TransactionID(tx).Equal(transactionID) {
			f.staged = append(f.staged[:i], f.staged[i+1:]...)
			break
		}
	}
	f.evicted = append(f.evicted, transactionID)
}

func (f *fakePool) didEvict(transactionID *model.DomainHash) bool {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	for _, evicted := range f.evicted {
		if evicted.Equal(transactionID) {
			return true
		}
	}
	return false
}

// rejectedPayload marks transactions the fake policy rejects.
var rejectedPayload = []byte("rejected by policy")

type fakePolicy struct {
	bits          uint32
	maxPerBlock   uint64
	maxBlockBytes uint64
}

func newFakePolicy() *fakePolicy {
	return &fakePolicy{
		bits:          testBits,
		maxPerBlock:   1000,
		maxBlockBytes: 1 << 18,
	}
}

func (f *fakePolicy) NextRequiredDifficulty(newBlockTime mstime.Time) (uint32, error) {
	return f.bits, nil
}

func (f *fakePolicy) HashAlgorithm(index uint64) model.HashAlgorithm {
	return model.HashAlgorithmBlake2b
}

func (f *fakePolicy) MaxTransactionsPerBlock() uint64 {
	return f.maxPerBlock
}

func (f *fakePolicy) MaxTransactionsPerSigner(chainLength uint64) uint64 {
	return f.maxPerBlock
}

func (f *fakePolicy) MaxBlockBytes(index uint64) uint64 {
	return f.maxBlockBytes
}

func (f *fakePolicy) CheckTransactionAllowed(tx *model.DomainTransaction) error {
	if bytes.Equal(tx.Payload, rejectedPayload) {
		return errorsNotAllowed
	}
	return nil
}
