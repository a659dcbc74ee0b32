package pow

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/hashes"
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/domain/serialization"
	"github.com/embernet/emberd/util/binaryserializer"
	"github.com/embernet/emberd/util/difficulty"
)

// State is an intermediate data structure with pre-computed values to speed
// up mining.
type State struct {
	prePowHash model.DomainHash
	algorithm  model.HashAlgorithm
	target     big.Int

	Timestamp int64
	Nonce     uint64
}

// NewState creates a new pow State from the given header. The header's nonce
// and state root do not participate in the pre-pow hash: the nonce is what
// the search iterates over, and the state root is embedded only after the
// search succeeds.
func NewState(header *model.DomainBlockHeader) *State {
	prePowHeader := header.Clone()
	prePowHeader.Nonce = 0
	prePowHeader.TimeInMilliseconds = 0
	prePowHeader.StateRoot = *model.NewZeroHash()

	return &State{
		prePowHash: *hashHeader(prePowHeader),
		algorithm:  header.HashAlgorithm,
		target:     *difficulty.CompactToBig(header.Bits),
		Timestamp:  header.TimeInMilliseconds,
		Nonce:      header.Nonce,
	}
}

// CalculateProofOfWorkValue hashes the current state's pre-pow hash,
// timestamp and nonce, and returns the resulting value as a big.Int.
func (state *State) CalculateProofOfWorkValue() *big.Int {
	writer := hashes.NewPoWHashWriter(state.algorithm)
	writer.InfallibleWrite(state.prePowHash.ByteSlice())
	err := binaryserializer.PutUint64(writer, uint64(state.Timestamp))
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. PutUint64 cannot fail writing to a hash writer"))
	}
	// 32 zero bytes of padding keep the hashed message at a fixed size.
	var padding [32]byte
	writer.InfallibleWrite(padding[:])
	err = binaryserializer.PutUint64(writer, state.Nonce)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. PutUint64 cannot fail writing to a hash writer"))
	}
	return toBig(writer.Finalize())
}

// CheckProofOfWork checks if the proof of work of the current state is
// smaller or equal to its target.
func (state *State) CheckProofOfWork() bool {
	powValue := state.CalculateProofOfWorkValue()
	return powValue.Cmp(&state.target) <= 0
}

// CheckProofOfWorkByBits checks if the given header's proof of work is valid
// for the difficulty bits it declares.
func CheckProofOfWorkByBits(header *model.DomainBlockHeader) bool {
	return NewState(header).CheckProofOfWork()
}

// toBig converts a hash into a big.Int treated as a little-endian value.
func toBig(hash *model.DomainHash) *big.Int {
	// We treat the hash as little-endian for big.Int conversion.
	buf := hash.ByteSlice()
	blen := len(buf)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = buf[blen-1-i], buf[i]
	}
	return new(big.Int).SetBytes(buf)
}

func hashHeader(header *model.DomainBlockHeader) *model.DomainHash {
	writer := hashes.NewBlockHashWriter(header.HashAlgorithm)
	err := serialization.SerializeHeader(writer, header)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. SerializeHeader cannot fail writing to a hash writer"))
	}
	return writer.Finalize()
}
