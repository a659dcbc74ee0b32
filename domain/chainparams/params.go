package chainparams

import (
	"math/big"
	"time"

	"github.com/embernet/emberd/domain/model"
)

// These variables are the chain proof-of-work limit parameters for each
// default network.
var (
	bigOne = big.NewInt(1)

	// mainPowLimit is the highest proof of work value an ember block can
	// have for the main network. It is the value 2^239 - 1.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 239), bigOne)

	// simnetPowLimit is the highest proof of work value an ember block can
	// have for the simulation test network. It is the value 2^255 - 1.
	simnetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

// Params defines an ember network by its parameters. These parameters may be
// used by applications to differentiate networks as well as addresses and
// keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// AddressPrefix is the version byte address encoding prepends to a
	// serialized public key.
	AddressPrefix byte

	// DefaultPort defines the default port for the network.
	DefaultPort string

	// PowLimit defines the highest allowed proof of work value for a
	// block as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// DifficultyAdjustmentWindowSize is the size of the window of previous
	// blocks difficulty adjustment is calculated over.
	DifficultyAdjustmentWindowSize uint64

	// HashAlgorithmSwitchIndex is the chain index starting from which
	// block headers are hashed with blake2b. Headers below it use sha256.
	HashAlgorithmSwitchIndex uint64

	// MaxTransactionsPerBlock is the ceiling on the number of transactions
	// a single block may carry.
	MaxTransactionsPerBlock uint64

	// BaseTransactionsPerSigner is the base value of the ceiling on how
	// many transactions of a single signer one block may carry. The
	// effective ceiling shrinks as the chain grows.
	BaseTransactionsPerSigner uint64

	// MaxBlockBytes is the ceiling on a block's serialized size.
	MaxBlockBytes uint64

	// MaxPayloadBytes is the ceiling on a single transaction's payload
	// size under standalone policy rules.
	MaxPayloadBytes uint64

	// SelectionSoftDeadline bounds how long a single transaction
	// selection pass may scan the staged pool.
	SelectionSoftDeadline time.Duration

	// GenesisTimeInMilliseconds is the timestamp of the network's genesis
	// block.
	GenesisTimeInMilliseconds int64
}

// HashAlgorithmAtIndex returns the hash algorithm a header at the given chain
// index is tagged with on this network.
func (p *Params) HashAlgorithmAtIndex(index uint64) model.HashAlgorithm {
	if index < p.HashAlgorithmSwitchIndex {
		return model.HashAlgorithmSHA256
	}
	return model.HashAlgorithmBlake2b
}

// GenesisBlock builds this network's genesis block. The genesis block carries
// no transactions, no parent and an all-zero miner key, and its nonce is not
// required to satisfy its difficulty bits.
func (p *Params) GenesisBlock() *model.DomainBlock {
	return &model.DomainBlock{
		Header: &model.DomainBlockHeader{
			Version:            1,
			Index:              0,
			ParentHash:         nil,
			HashAlgorithm:      p.HashAlgorithmAtIndex(0),
			TransactionsRoot:   *model.NewZeroHash(),
			StateRoot:          *model.NewZeroHash(),
			MinerPublicKey:     model.DomainSignerID{},
			TimeInMilliseconds: p.GenesisTimeInMilliseconds,
			Bits:               p.PowLimitBits,
			Nonce:              0,
		},
		Transactions: nil,
	}
}

// MainnetParams defines the network parameters for the main ember network.
var MainnetParams = Params{
	Name:          "ember-mainnet",
	AddressPrefix: 0x21,
	DefaultPort:   "17111",

	PowLimit:                       mainPowLimit,
	PowLimitBits:                   0x1e7fffff,
	TargetTimePerBlock:             10 * time.Second,
	DifficultyAdjustmentWindowSize: 60,
	HashAlgorithmSwitchIndex:       0,

	MaxTransactionsPerBlock:   5000,
	BaseTransactionsPerSigner: 64,
	MaxBlockBytes:             1 << 20,
	MaxPayloadBytes:           1 << 14,
	SelectionSoftDeadline:     4 * time.Second,

	GenesisTimeInMilliseconds: 1735689600000,
}

// SimnetParams defines the network parameters for the simulation test
// network. This network is similar to the main network except its difficulty
// floor is low enough for blocks to be solved instantly on a single CPU,
// which is what simulation testing needs.
var SimnetParams = Params{
	Name:          "ember-simnet",
	AddressPrefix: 0x53,
	DefaultPort:   "17511",

	PowLimit:                       simnetPowLimit,
	PowLimitBits:                   0x207fffff,
	TargetTimePerBlock:             time.Second,
	DifficultyAdjustmentWindowSize: 8,
	HashAlgorithmSwitchIndex:       0,

	MaxTransactionsPerBlock:   1000,
	BaseTransactionsPerSigner: 16,
	MaxBlockBytes:             1 << 18,
	MaxPayloadBytes:           1 << 14,
	SelectionSoftDeadline:     4 * time.Second,

	GenesisTimeInMilliseconds: 1735689600000,
}
