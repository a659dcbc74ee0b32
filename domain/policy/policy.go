package policy

import (
	secp256k1 "github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/chainparams"
	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/model"
)

// signerCeilingHalvingInterval is the number of blocks over which the
// per-signer transaction ceiling is halved once.
const signerCeilingHalvingInterval = 1 << 20

// Policy answers the chain's consensus parameters and ceilings out of the
// network params and the chain itself.
type Policy struct {
	params     *chainparams.Params
	chainStore model.ChainStore
}

// New returns a Policy over the given network params and chain
func New(params *chainparams.Params, chainStore model.ChainStore) *Policy {
	return &Policy{
		params:     params,
		chainStore: chainStore,
	}
}

// HashAlgorithm returns the hash algorithm a block at the given chain index
// must be tagged with
func (p *Policy) HashAlgorithm(index uint64) model.HashAlgorithm {
	return p.params.HashAlgorithmAtIndex(index)
}

// MaxTransactionsPerBlock returns the transaction-count ceiling of a single
// block
func (p *Policy) MaxTransactionsPerBlock() uint64 {
	return p.params.MaxTransactionsPerBlock
}

// MaxTransactionsPerSigner returns the ceiling on how many transactions of
// one signer a single block may carry. The ceiling shrinks as the chain
// grows, halving every signerCeilingHalvingInterval blocks, and never drops
// below one.
func (p *Policy) MaxTransactionsPerSigner(chainLength uint64) uint64 {
	halvings := chainLength / signerCeilingHalvingInterval
	if halvings > 63 {
		return 1
	}
	ceiling := p.params.BaseTransactionsPerSigner >> halvings
	if ceiling < 1 {
		return 1
	}
	return ceiling
}

// MaxBlockBytes returns the serialized-size ceiling of a block at the given
// chain index
func (p *Policy) MaxBlockBytes(index uint64) uint64 {
	return p.params.MaxBlockBytes
}

// CheckTransactionAllowed returns nil if the given transaction is acceptable
// for inclusion under standalone rules: a payload within the size ceiling
// and a valid Schnorr signature by the declared signer.
func (p *Policy) CheckTransactionAllowed(tx *model.DomainTransaction) error {
	if uint64(len(tx.Payload)) > p.params.MaxPayloadBytes {
		return errors.Errorf("transaction %s carries a %d-byte payload, "+
			"larger than the allowed maximum %d",
			consensushashing.TransactionID(tx), len(tx.Payload), p.params.MaxPayloadBytes)
	}

	pubKey, err := secp256k1.DeserializeSchnorrPubKey(tx.Signer.ByteSlice())
	if err != nil {
		return errors.Wrapf(err, "transaction %s declares a malformed signer key",
			consensushashing.TransactionID(tx))
	}
	signature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(tx.Signature)
	if err != nil {
		return errors.Wrapf(err, "transaction %s carries a malformed signature",
			consensushashing.TransactionID(tx))
	}

	signingHash := secp256k1.Hash(*consensushashing.TransactionSigningHash(tx).ByteArray())
	if !pubKey.SchnorrVerify(&signingHash, signature) {
		return errors.Errorf("transaction %s is not signed by its declared signer",
			consensushashing.TransactionID(tx))
	}
	return nil
}
