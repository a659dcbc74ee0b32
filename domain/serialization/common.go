package serialization

import (
	"io"

	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/util/binaryserializer"
)

// maxVarBytesLength is the ceiling on the declared length of a
// length-prefixed byte string. It guards deserialization against absurd
// allocations on malformed input.
const maxVarBytesLength = 1 << 26 // 64MiB

func writeDomainHash(w io.Writer, hash *model.DomainHash) error {
	_, err := w.Write(hash.ByteSlice())
	return errors.WithStack(err)
}

func readDomainHash(r io.Reader) (*model.DomainHash, error) {
	var hashBytes [model.DomainHashSize]byte
	_, err := io.ReadFull(r, hashBytes[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return model.NewDomainHashFromByteArray(&hashBytes), nil
}

func writeSignerID(w io.Writer, signer *model.DomainSignerID) error {
	_, err := w.Write(signer.ByteSlice())
	return errors.WithStack(err)
}

func readSignerID(r io.Reader) (*model.DomainSignerID, error) {
	var signerBytes [model.DomainSignerIDSize]byte
	_, err := io.ReadFull(r, signerBytes[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return model.NewDomainSignerIDFromByteArray(&signerBytes), nil
}

func writeVarBytes(w io.Writer, data []byte) error {
	err := binaryserializer.PutUint64(w, uint64(len(data)))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.WithStack(err)
}

func readVarBytes(r io.Reader) ([]byte, error) {
	length, err := binaryserializer.Uint64(r)
	if err != nil {
		return nil, err
	}
	if length > maxVarBytesLength {
		return nil, errors.Errorf("declared byte string length %d is larger "+
			"than the allowed maximum %d", length, maxVarBytesLength)
	}
	data := make([]byte, length)
	_, err = io.ReadFull(r, data)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}
