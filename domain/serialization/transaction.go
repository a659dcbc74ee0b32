package serialization

import (
	"io"

	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/util/binaryserializer"
)

// SerializeTransaction serializes the given transaction into w
func SerializeTransaction(w io.Writer, tx *model.DomainTransaction) error {
	err := writeSignerID(w, &tx.Signer)
	if err != nil {
		return err
	}
	err = binaryserializer.PutUint64(w, tx.Nonce)
	if err != nil {
		return err
	}
	err = writeVarBytes(w, tx.Payload)
	if err != nil {
		return err
	}
	return writeVarBytes(w, tx.Signature)
}

// DeserializeTransaction deserializes a transaction out of r
func DeserializeTransaction(r io.Reader) (*model.DomainTransaction, error) {
	signer, err := readSignerID(r)
	if err != nil {
		return nil, err
	}
	nonce, err := binaryserializer.Uint64(r)
	if err != nil {
		return nil, err
	}
	payload, err := readVarBytes(r)
	if err != nil {
		return nil, err
	}
	signature, err := readVarBytes(r)
	if err != nil {
		return nil, err
	}
	return &model.DomainTransaction{
		Signer:    *signer,
		Nonce:     nonce,
		Payload:   payload,
		Signature: signature,
	}, nil
}

// TransactionSize returns the size, in bytes, of the transaction's serialized
// form. Transaction ceilings are defined over this size.
func TransactionSize(tx *model.DomainTransaction) uint64 {
	// signer + nonce + payload length prefix + payload +
	// signature length prefix + signature
	return model.DomainSignerIDSize + 8 +
		8 + uint64(len(tx.Payload)) +
		8 + uint64(len(tx.Signature))
}
