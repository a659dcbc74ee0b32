package serialization

import (
	"io"

	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/util/binaryserializer"
)

// SerializeHeader serializes the given header into w. The header's identity
// hash and proof-of-work value are both defined over this encoding.
func SerializeHeader(w io.Writer, header *model.DomainBlockHeader) error {
	err := binaryserializer.PutUint16(w, header.Version)
	if err != nil {
		return err
	}
	err = binaryserializer.PutUint64(w, header.Index)
	if err != nil {
		return err
	}

	// The genesis block is the only block without a parent. Its absence is
	// encoded as a zero parent count.
	numParents := uint8(0)
	if header.ParentHash != nil {
		numParents = 1
	}
	err = binaryserializer.PutUint8(w, numParents)
	if err != nil {
		return err
	}
	if header.ParentHash != nil {
		err = writeDomainHash(w, header.ParentHash)
		if err != nil {
			return err
		}
	}

	err = binaryserializer.PutUint8(w, uint8(header.HashAlgorithm))
	if err != nil {
		return err
	}
	err = writeDomainHash(w, &header.TransactionsRoot)
	if err != nil {
		return err
	}
	err = writeDomainHash(w, &header.StateRoot)
	if err != nil {
		return err
	}
	err = writeSignerID(w, &header.MinerPublicKey)
	if err != nil {
		return err
	}
	err = binaryserializer.PutUint64(w, uint64(header.TimeInMilliseconds))
	if err != nil {
		return err
	}
	err = binaryserializer.PutUint32(w, header.Bits)
	if err != nil {
		return err
	}
	return binaryserializer.PutUint64(w, header.Nonce)
}

// DeserializeHeader deserializes a header out of r
func DeserializeHeader(r io.Reader) (*model.DomainBlockHeader, error) {
	version, err := binaryserializer.Uint16(r)
	if err != nil {
		return nil, err
	}
	index, err := binaryserializer.Uint64(r)
	if err != nil {
		return nil, err
	}

	numParents, err := binaryserializer.Uint8(r)
	if err != nil {
		return nil, err
	}
	var parentHash *model.DomainHash
	switch numParents {
	case 0:
	case 1:
		parentHash, err = readDomainHash(r)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("invalid parent count %d", numParents)
	}

	hashAlgorithm, err := binaryserializer.Uint8(r)
	if err != nil {
		return nil, err
	}
	transactionsRoot, err := readDomainHash(r)
	if err != nil {
		return nil, err
	}
	stateRoot, err := readDomainHash(r)
	if err != nil {
		return nil, err
	}
	minerPublicKey, err := readSignerID(r)
	if err != nil {
		return nil, err
	}
	timeInMilliseconds, err := binaryserializer.Uint64(r)
	if err != nil {
		return nil, err
	}
	bits, err := binaryserializer.Uint32(r)
	if err != nil {
		return nil, err
	}
	nonce, err := binaryserializer.Uint64(r)
	if err != nil {
		return nil, err
	}

	return &model.DomainBlockHeader{
		Version:            version,
		Index:              index,
		ParentHash:         parentHash,
		HashAlgorithm:      model.HashAlgorithm(hashAlgorithm),
		TransactionsRoot:   *transactionsRoot,
		StateRoot:          *stateRoot,
		MinerPublicKey:     *minerPublicKey,
		TimeInMilliseconds: int64(timeInMilliseconds),
		Bits:               bits,
		Nonce:              nonce,
	}, nil
}

// HeaderSize returns the size, in bytes, of the header's serialized form
func HeaderSize(header *model.DomainBlockHeader) uint64 {
	// version + index + parent count
	size := uint64(2 + 8 + 1)
	if header.ParentHash != nil {
		size += model.DomainHashSize
	}
	// algorithm + transactions root + state root + miner key + time +
	// bits + nonce
	size += 1 + model.DomainHashSize + model.DomainHashSize +
		model.DomainSignerIDSize + 8 + 4 + 8
	return size
}
