package merkle

import (
	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/hashes"
	"github.com/embernet/emberd/domain/model"
)

// CalculateMerkleRootOfTransactions calculates the merkle root of a block's
// transactions. An empty transaction list yields the zero hash.
func CalculateMerkleRootOfTransactions(transactions []*model.DomainTransaction) *model.DomainHash {
	if len(transactions) == 0 {
		return model.NewZeroHash()
	}

	level := make([]*model.DomainHash, len(transactions))
	for i, tx := range transactions {
		level[i] = consensushashing.TransactionID(tx)
	}

	for len(level) > 1 {
		// An odd level is extended by pairing the last hash with itself.
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		nextLevel := make([]*model.DomainHash, len(level)/2)
		for i := 0; i < len(nextLevel); i++ {
			nextLevel[i] = hashMerkleBranch(level[i*2], level[i*2+1])
		}
		level = nextLevel
	}
	return level[0]
}

func hashMerkleBranch(left *model.DomainHash, right *model.DomainHash) *model.DomainHash {
	writer := hashes.NewMerkleBranchHashWriter()
	writer.InfallibleWrite(left.ByteSlice())
	writer.InfallibleWrite(right.ByteSlice())
	return writer.Finalize()
}
