package mining

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/merkle"
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/domain/pow"
	"github.com/embernet/emberd/domain/serialization"
	"github.com/embernet/emberd/util/mstime"
	"github.com/embernet/emberd/util/random"
)

// blockVersion is the header version the coordinator stamps on blocks it
// produces.
const blockVersion = 1

// Coordinator drives a single mining attempt end to end: transaction
// selection, the proof-of-work search, and the state commit. It does not
// append the finished block; that is the caller's move.
type Coordinator struct {
	chainStore model.ChainStore
	stagedPool model.StagedPool
	policy     model.Policy
	evaluator  model.Evaluator

	selector  *transactionSelector
	committer *stateCommitter
}

// NewCoordinator returns a new Coordinator over the given collaborators.
// selectionSoftDeadline bounds how long a single selection pass may scan the
// staged pool.
func NewCoordinator(chainStore model.ChainStore, stagedPool model.StagedPool,
	miningPolicy model.Policy, stateStore model.StateStore, miningEvaluator model.Evaluator,
	selectionSoftDeadline time.Duration) *Coordinator {

	return &Coordinator{
		chainStore: chainStore,
		stagedPool: stagedPool,
		policy:     miningPolicy,
		evaluator:  miningEvaluator,
		selector: &transactionSelector{
			stagedPool:   stagedPool,
			policy:       miningPolicy,
			softDeadline: selectionSoftDeadline,
		},
		committer: &stateCommitter{stateStore: stateStore},
	}
}

type searchResult struct {
	nonce uint64
	found bool
	err   error
}

// Mine produces the next block on top of the current tip: it selects a
// candidate batch from the staged pool, searches for a proof-of-work nonce,
// and commits the resulting state root into the block's header. The returned
// evaluations are the batch's own, ready to hand to AppendBlock.
//
// Mine fails with ErrStaleTip if the chain tip moves while the search is in
// flight, and with the context's own error if ctx is canceled. Either way no
// block is produced, though pool evictions applied during selection remain
// applied.
func (mc *Coordinator) Mine(ctx context.Context, miner *model.DomainSignerID,
	currentTime mstime.Time, maxTransactions uint64) (*model.DomainBlock, []*model.StateEvaluation, error) {

	sessionID, err := random.Uint64()
	if err != nil {
		return nil, nil, err
	}

	chainLength, err := mc.chainStore.ChainLength()
	if err != nil {
		return nil, nil, err
	}
	index := chainLength
	tipHash, err := mc.chainStore.Tip()
	if err != nil {
		return nil, nil, err
	}
	bits, err := mc.policy.NextRequiredDifficulty(currentTime)
	if err != nil {
		return nil, nil, err
	}

	header := &model.DomainBlockHeader{
		Version:            blockVersion,
		Index:              index,
		ParentHash:         tipHash,
		HashAlgorithm:      mc.policy.HashAlgorithm(index),
		TransactionsRoot:   *model.NewZeroHash(),
		StateRoot:          *model.NewZeroHash(),
		MinerPublicKey:     *miner,
		TimeInMilliseconds: currentTime.UnixMilliseconds(),
		Bits:               bits,
		Nonce:              0,
	}

	emptyBlockBytes := serialization.BlockSize(&model.DomainBlock{Header: header})
	if countCeiling := mc.policy.MaxTransactionsPerBlock(); maxTransactions > countCeiling {
		maxTransactions = countCeiling
	}

	log.Debugf("Mining session %x: selecting transactions for index %d on "+
		"tip %s", sessionID, index, tipHash)
	tracker := newNonceTracker(mc.chainStore)
	batch, err := mc.selector.selectTransactions(tracker, maxTransactions,
		emptyBlockBytes, mc.policy.MaxBlockBytes(index))
	if err != nil {
		return nil, nil, err
	}

	evaluations, err := mc.evaluator.EvaluateTransactions(batch)
	if err != nil {
		return nil, nil, err
	}

	minedHeader := header.Clone()
	minedHeader.TransactionsRoot = *merkle.CalculateMerkleRootOfTransactions(batch)

	// The subscription is registered before the search starts and removed
	// exactly once on every exit path. A tip move between reading the tip
	// above and subscribing here would go unnoticed, so the tip is
	// re-checked once the subscription is live.
	subscription := mc.chainStore.SubscribeToTipChanges()
	defer mc.chainStore.UnsubscribeFromTipChanges(subscription)

	currentTip, err := mc.chainStore.Tip()
	if err != nil {
		return nil, nil, err
	}
	if !currentTip.Equal(tipHash) {
		return nil, nil, errors.Wrapf(ErrStaleTip, "tip moved from %s to %s "+
			"before the search started", tipHash, currentTip)
	}

	quit := make(chan struct{})
	resultChan := make(chan searchResult, 1)
	spawn("proof-of-work-search", func() {
		searchState := pow.NewState(minedHeader)
		nonce, found, err := searchState.Search(quit)
		resultChan <- searchResult{nonce: nonce, found: found, err: err}
	})

	log.Debugf("Mining session %x: searching a nonce for index %d at bits %x "+
		"with %d transactions", sessionID, index, bits, len(batch))

	var result searchResult
	select {
	case <-ctx.Done():
		close(quit)
		<-resultChan
		return nil, nil, errors.Wrapf(ctx.Err(), "mining session %x canceled", sessionID)

	case notification := <-subscription.C:
		close(quit)
		<-resultChan
		return nil, nil, errors.Wrapf(ErrStaleTip, "tip moved from %s to %s "+
			"during the search", notification.OldTip, notification.NewTip)

	case result = <-resultChan:
	}
	if result.err != nil {
		return nil, nil, result.err
	}
	if !result.found {
		return nil, nil, errors.Errorf("mining session %x exhausted the nonce "+
			"space without a solution", sessionID)
	}

	solvedHeader := minedHeader.Clone()
	solvedHeader.Nonce = result.nonce
	minedBlock := &model.DomainBlock{
		Header:       solvedHeader,
		Transactions: batch,
	}

	finalBlock, err := mc.committer.commitState(minedBlock, evaluations)
	if err != nil {
		return nil, nil, err
	}

	log.Infof("Mining session %x: solved block %s at index %d with %d "+
		"transactions", sessionID, consensushashing.BlockHash(finalBlock), index,
		len(finalBlock.Transactions))
	return finalBlock, evaluations, nil
}
