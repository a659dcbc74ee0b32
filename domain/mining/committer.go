package mining

import (
	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/model"
)

// stateCommitter embeds the mined block's state root into its header under
// the state store's exclusive write section.
type stateCommitter struct {
	stateStore model.StateStore
}

// commitState applies the block's evaluations to derive its state root and
// returns a new block whose header carries that root. The mined header is
// never mutated in place.
//
// The header's identity hash covers the state root field, so embedding the
// root changes the block's hash. The snapshot persisted under the mined
// (pre-root) hash would then be unreachable by the block's final hash, which
// is why the evaluations are applied a second time, keyed by the final hash.
// Both applications run inside one exclusive section and therefore on top of
// the same promoted state, making the second a cheap re-keying of the first.
func (sc *stateCommitter) commitState(minedBlock *model.DomainBlock,
	evaluations []*model.StateEvaluation) (*model.DomainBlock, error) {

	if !sc.stateStore.SupportsContentAddressing() {
		// Without content addressing there is no root to embed. The
		// append pipeline re-evaluates the block's transactions instead.
		return minedBlock, nil
	}

	section := sc.stateStore.OpenWriteSection()
	defer section.Close()

	minedHash := consensushashing.BlockHash(minedBlock)
	stateRoot, err := section.ApplyEvaluations(minedHash, evaluations)
	if err != nil {
		return nil, err
	}

	finalHeader := minedBlock.Header.Clone()
	finalHeader.StateRoot = *stateRoot
	finalBlock := &model.DomainBlock{
		Header:       finalHeader,
		Transactions: minedBlock.Transactions,
	}

	finalHash := consensushashing.BlockHash(finalBlock)
	rekeyedRoot, err := section.ApplyEvaluations(finalHash, evaluations)
	if err != nil {
		return nil, err
	}
	if !rekeyedRoot.Equal(stateRoot) {
		return nil, errors.Errorf("state root changed between applications "+
			"inside one exclusive section: %s, then %s", stateRoot, rekeyedRoot)
	}
	// TODO: prune the snapshot keyed by the mined (pre-root) hash once the
	// block is appended. It is unreachable after this point.

	log.Debugf("Committed state root %s for block %s (mined as %s)",
		stateRoot, finalHash, minedHash)
	return finalBlock, nil
}
