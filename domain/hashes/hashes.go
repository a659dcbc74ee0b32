package hashes

import (
	"crypto/sha256"
	"hash"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/embernet/emberd/domain/model"
)

const (
	transactionIDDomain      = "TransactionID"
	transactionSigningDomain = "TransactionSigningHash"
	blockDomain              = "BlockHash"
	proofOfWorkDomain        = "ProofOfWorkHash"
	merkleBranchDomain       = "MerkleBranchHash"
)

// NewTransactionIDWriter returns a new HashWriter used for transaction IDs
func NewTransactionIDWriter() HashWriter {
	return newBlake2bWriter(transactionIDDomain)
}

// NewTransactionSigningHashWriter returns a new HashWriter used for the hash
// a transaction's signature is made over
func NewTransactionSigningHashWriter() HashWriter {
	return newBlake2bWriter(transactionSigningDomain)
}

// NewMerkleBranchHashWriter returns a new HashWriter used for a block's
// transactions root
func NewMerkleBranchHashWriter() HashWriter {
	return newBlake2bWriter(merkleBranchDomain)
}

// NewBlockHashWriter returns a new HashWriter used for block identity hashes,
// computed with the given algorithm
func NewBlockHashWriter(algorithm model.HashAlgorithm) HashWriter {
	return newAlgorithmWriter(algorithm, blockDomain)
}

// NewPoWHashWriter returns a new HashWriter used for proof-of-work values,
// computed with the given algorithm
func NewPoWHashWriter(algorithm model.HashAlgorithm) HashWriter {
	return newAlgorithmWriter(algorithm, proofOfWorkDomain)
}

func newAlgorithmWriter(algorithm model.HashAlgorithm, domain string) HashWriter {
	switch algorithm {
	case model.HashAlgorithmSHA256:
		return newSHA256Writer(domain)
	default:
		return newBlake2bWriter(domain)
	}
}

func newBlake2bWriter(domain string) HashWriter {
	blake, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}

// sha256 has no keyed mode, so the domain is separated by hashing it in as
// a fixed-size prefix.
func newSHA256Writer(domain string) HashWriter {
	prefix := sha256.Sum256([]byte(domain))
	writer := HashWriter{sha256.New()}
	writer.InfallibleWrite(prefix[:])
	return writer
}

// HashWriter is used to incrementally hash data without concatenating all of
// the data to a single buffer. It exposes an infallible Write, hash.Hash
// writes never returning an error.
type HashWriter struct {
	hash.Hash
}

// InfallibleWrite is just like write but doesn't return anything
func (h HashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash interface contract.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash
func (h HashWriter) Finalize() *model.DomainHash {
	var sum [model.DomainHashSize]byte
	// This should prevent `Sum` for allocating an output buffer, by using the DomainHash buffer. we still copy because we don't want to rely on that.
	copy(sum[:], h.Sum(sum[:0]))
	return model.NewDomainHashFromByteArray(&sum)
}
