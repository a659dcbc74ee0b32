package main

import (
	"context"
	"time"

	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/mining"
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/infrastructure/config"
	"github.com/embernet/emberd/util/address"
	"github.com/embernet/emberd/util/mstime"
)

// emptyPoolPollInterval is how often the mine loop re-checks the staged pool
// when it is idle because the pool is empty.
const emptyPoolPollInterval = time.Second

// mineLoop produces blocks on top of the current tip until ctx is canceled.
// A stale-tip failure is not an error: the loop simply starts over on top of
// the new tip.
func mineLoop(ctx context.Context, node *emberd, minerKey *secp256k1.SchnorrKeyPair, cfg *config.Config) error {
	miner, minerAddress, err := minerIdentity(minerKey, cfg)
	if err != nil {
		return err
	}
	log.Infof("Mining to address %s", minerAddress)

	for ctx.Err() == nil {
		if node.stagedPool.Count() == 0 && !cfg.MineWhenEmpty {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(emptyPoolPollInterval):
			}
			continue
		}

		block, evaluations, err := node.coordinator.Mine(ctx, miner, mstime.Now(),
			node.policy.MaxTransactionsPerBlock())
		if err != nil {
			if errors.Is(err, mining.ErrStaleTip) {
				log.Debugf("Tip changed mid-attempt, restarting on top of the new tip")
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = node.chainStore.AppendBlock(block, mstime.Now(), evaluations)
		if err != nil {
			return errors.Wrap(err, "error appending a block the node itself mined")
		}
		log.Infof("Appended block %s at index %d with %d transactions",
			consensushashing.BlockHash(block), block.Header.Index, len(block.Transactions))
	}
	return nil
}

// minerIdentity derives the signer ID and the human-readable address of the
// given key pair.
func minerIdentity(minerKey *secp256k1.SchnorrKeyPair, cfg *config.Config) (
	*model.DomainSignerID, string, error) {

	publicKey, err := minerKey.SchnorrPublicKey()
	if err != nil {
		return nil, "", err
	}
	serialized, err := publicKey.Serialize()
	if err != nil {
		return nil, "", err
	}
	minerAddress, err := address.Encode(serialized[:], cfg.NetParams.AddressPrefix)
	if err != nil {
		return nil, "", err
	}
	return model.NewDomainSignerIDFromByteArray((*[32]byte)(serialized)), minerAddress, nil
}
