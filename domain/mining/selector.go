package mining

import (
	"time"

	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/domain/serialization"
)

// nonceState is the per-signer accounting of a single selection pass.
type nonceState struct {
	// storedNonce is the minimum nonce acceptable for the signer: its
	// last confirmed nonce plus one.
	storedNonce uint64

	// nextNonce is the next nonce this pass will accept for the signer.
	// It starts one above storedNonce on first encounter and advances on
	// every scanned transaction of the signer, admitted or not.
	nextNonce uint64
}

// nonceTracker lazily resolves and caches nonce states, one chain-store read
// per signer per pass.
type nonceTracker struct {
	chainStore model.ChainStore
	states     map[model.DomainSignerID]*nonceState
}

func newNonceTracker(chainStore model.ChainStore) *nonceTracker {
	return &nonceTracker{
		chainStore: chainStore,
		states:     make(map[model.DomainSignerID]*nonceState),
	}
}

// advance resolves the signer's nonce state, advancing nextNonce for the
// transaction being scanned. The advance is unconditional: it happens before
// admission is decided.
func (nt *nonceTracker) advance(signer *model.DomainSignerID) (*nonceState, error) {
	if state, ok := nt.states[*signer]; ok {
		state.nextNonce++
		return state, nil
	}

	lastConfirmed, exists, err := nt.chainStore.LastConfirmedNonce(signer)
	if err != nil {
		return nil, err
	}
	storedNonce := uint64(1)
	if exists {
		storedNonce = lastConfirmed + 1
	}
	state := &nonceState{
		storedNonce: storedNonce,
		nextNonce:   storedNonce + 1,
	}
	nt.states[*signer] = state
	return state, nil
}

// transactionSelector produces the candidate transaction batch of a block
// under policy, nonce, byte, count and time constraints.
type transactionSelector struct {
	stagedPool model.StagedPool
	policy     model.Policy

	// softDeadline bounds how long a single pass may scan the pool.
	// Transactions accepted before the deadline elapsed are kept.
	softDeadline time.Duration
}

// selectTransactions scans a snapshot of the staged pool in its given order
// and returns the batch of transactions to carry in the next block, in scan
// order. Stale and policy-invalid transactions are evicted from the pool as
// a side effect.
func (ts *transactionSelector) selectTransactions(tracker *nonceTracker,
	maxTransactions uint64, emptyBlockBytes uint64, maxBlockBytes uint64) ([]*model.DomainTransaction, error) {

	startTime := time.Now()
	staged := ts.stagedPool.ListStaged()

	batch := []*model.DomainTransaction{}
	bytesEstimate := emptyBlockBytes

	// byteConstrainedSigners records signers that had a transaction
	// skipped over the byte ceiling. The set does not feed back into
	// admission: each later transaction is re-checked against the budget
	// on its own.
	byteConstrainedSigners := make(map[model.DomainSignerID]struct{})

	for _, tx := range staged {
		state, err := tracker.advance(&tx.Signer)
		if err != nil {
			return nil, err
		}

		if uint64(len(batch)) >= maxTransactions {
			log.Debugf("Selection reached the %d-transaction ceiling, "+
				"stopping the scan", maxTransactions)
			break
		}

		if err := ts.policy.CheckTransactionAllowed(tx); err != nil {
			log.Debugf("Evicting transaction rejected by policy: %s", err)
			ts.stagedPool.Evict(consensushashing.TransactionID(tx))
			continue
		}

		switch {
		case state.storedNonce <= tx.Nonce && tx.Nonce < state.nextNonce:
			txBytes := serialization.TransactionSize(tx)
			if bytesEstimate+txBytes > maxBlockBytes {
				byteConstrainedSigners[tx.Signer] = struct{}{}
				log.Tracef("Transaction %s does not fit the byte budget "+
					"(%d + %d > %d), leaving it staged",
					consensushashing.TransactionID(tx), bytesEstimate, txBytes, maxBlockBytes)
				break
			}
			batch = append(batch, tx)
			bytesEstimate += txBytes

		case tx.Nonce < state.storedNonce:
			log.Debugf("Evicting stale transaction %s: nonce %d is below "+
				"the signer's minimum %d",
				consensushashing.TransactionID(tx), tx.Nonce, state.storedNonce)
			ts.stagedPool.Evict(consensushashing.TransactionID(tx))

		default:
			// A nonce gap. The transaction stays staged for a later
			// pass.
		}

		if time.Since(startTime) > ts.softDeadline {
			log.Infof("Selection hit its %s soft deadline after %d "+
				"transactions, stopping the scan", ts.softDeadline, len(batch))
			break
		}
	}

	if len(byteConstrainedSigners) > 0 {
		log.Debugf("%d signers were byte-constrained in this pass", len(byteConstrainedSigners))
	}
	return batch, nil
}
