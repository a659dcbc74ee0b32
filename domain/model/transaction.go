package model

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"
)

// DomainSignerIDSize of array used to store a signer identity, which is a
// serialized Schnorr public key.
const DomainSignerIDSize = 32

// DomainSignerID is the public-key identity of a transaction signer (and of
// a block's miner).
type DomainSignerID struct {
	signerArray [DomainSignerIDSize]byte
}

// NewDomainSignerIDFromByteArray constructs a new DomainSignerID out of a byte array
func NewDomainSignerIDFromByteArray(signerBytes *[DomainSignerIDSize]byte) *DomainSignerID {
	return &DomainSignerID{
		signerArray: *signerBytes,
	}
}

// NewDomainSignerIDFromByteSlice constructs a new DomainSignerID out of a byte slice.
// Returns an error if the length of the byte slice is not exactly
// DomainSignerIDSize
func NewDomainSignerIDFromByteSlice(signerBytes []byte) (*DomainSignerID, error) {
	if len(signerBytes) != DomainSignerIDSize {
		return nil, errors.Errorf("invalid signer ID size. Want: %d, got: %d",
			DomainSignerIDSize, len(signerBytes))
	}
	signerID := DomainSignerID{}
	copy(signerID.signerArray[:], signerBytes)
	return &signerID, nil
}

// String returns the signer ID as a hexadecimal string.
func (id DomainSignerID) String() string {
	return hex.EncodeToString(id.signerArray[:])
}

// ByteArray returns the bytes in this signer ID represented as a bytes array.
// The bytes are cloned, therefore it is safe to modify the resulting array.
func (id *DomainSignerID) ByteArray() *[DomainSignerIDSize]byte {
	arrayClone := id.signerArray
	return &arrayClone
}

// ByteSlice returns the bytes in this signer ID represented as a bytes slice.
// The bytes are cloned, therefore it is safe to modify the resulting slice.
func (id *DomainSignerID) ByteSlice() []byte {
	return id.ByteArray()[:]
}

// Equal returns whether id equals to other
func (id *DomainSignerID) Equal(other *DomainSignerID) bool {
	if id == nil || other == nil {
		return id == other
	}

	return id.signerArray == other.signerArray
}

// DomainTransaction represents a transaction staged for inclusion in a block
type DomainTransaction struct {
	Signer    DomainSignerID
	Nonce     uint64
	Payload   []byte
	Signature []byte

	// ID is the memoized identity hash of the transaction. It is set on
	// first request and must be invalidated (set to nil) whenever one of
	// the fields above changes.
	ID *DomainHash
}

// Clone returns a clone of DomainTransaction
func (tx *DomainTransaction) Clone() *DomainTransaction {
	payloadClone := make([]byte, len(tx.Payload))
	copy(payloadClone, tx.Payload)
	signatureClone := make([]byte, len(tx.Signature))
	copy(signatureClone, tx.Signature)

	var idClone *DomainHash
	if tx.ID != nil {
		idClone = NewDomainHashFromByteArray(tx.ID.ByteArray())
	}

	return &DomainTransaction{
		Signer:    tx.Signer,
		Nonce:     tx.Nonce,
		Payload:   payloadClone,
		Signature: signatureClone,
		ID:        idClone,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DomainTransaction{DomainSignerID{}, 0, []byte{}, []byte{}, &DomainHash{}}

// Equal returns whether tx equals to other. The memoized ID is not compared,
// it being derived from the remaining fields.
func (tx *DomainTransaction) Equal(other *DomainTransaction) bool {
	if tx == nil || other == nil {
		return tx == other
	}

	if !tx.Signer.Equal(&other.Signer) {
		return false
	}

	if tx.Nonce != other.Nonce {
		return false
	}

	if !bytes.Equal(tx.Payload, other.Payload) {
		return false
	}

	if !bytes.Equal(tx.Signature, other.Signature) {
		return false
	}

	return true
}

// CloneTransactions returns a deep clone of the given transactions slice
func CloneTransactions(transactions []*DomainTransaction) []*DomainTransaction {
	clone := make([]*DomainTransaction, len(transactions))
	for i, tx := range transactions {
		clone[i] = tx.Clone()
	}
	return clone
}
