package consensushashing

import (
	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/hashes"
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/util/binaryserializer"
)

// TransactionID returns the identity hash of the given transaction,
// memoizing it in the transaction on first computation. The signature does
// not participate: the ID commits to what is signed, not to the signature.
func TransactionID(tx *model.DomainTransaction) *model.DomainHash {
	if tx.ID != nil {
		return tx.ID
	}
	writer := hashes.NewTransactionIDWriter()
	writeTransactionSignedData(writer, tx)
	tx.ID = writer.Finalize()
	return tx.ID
}

// TransactionSigningHash returns the hash a transaction's Schnorr signature
// is made over.
func TransactionSigningHash(tx *model.DomainTransaction) *model.DomainHash {
	writer := hashes.NewTransactionSigningHashWriter()
	writeTransactionSignedData(writer, tx)
	return writer.Finalize()
}

func writeTransactionSignedData(writer hashes.HashWriter, tx *model.DomainTransaction) {
	writer.InfallibleWrite(tx.Signer.ByteSlice())
	err := binaryserializer.PutUint64(writer, tx.Nonce)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. PutUint64 cannot fail writing to a hash writer"))
	}
	err = binaryserializer.PutUint64(writer, uint64(len(tx.Payload)))
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. PutUint64 cannot fail writing to a hash writer"))
	}
	writer.InfallibleWrite(tx.Payload)
}
