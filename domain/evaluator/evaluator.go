package evaluator

import (
	"encoding/binary"

	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/hashes"
	"github.com/embernet/emberd/domain/model"
)

// accountKeyPrefix is the state-space prefix of per-signer account records.
var accountKeyPrefix = []byte("acc:")

// Evaluator executes transactions into state writes. Each transaction
// produces its signer's updated account record: the confirmed nonce and a
// digest of the transaction's payload, so the state root commits to both.
type Evaluator struct {
}

// New returns a new Evaluator
func New() *Evaluator {
	return &Evaluator{}
}

// EvaluateTransactions evaluates the given transactions in order. The
// returned slice has exactly one evaluation per transaction, in the same
// order.
func (e *Evaluator) EvaluateTransactions(transactions []*model.DomainTransaction) ([]*model.StateEvaluation, error) {
	evaluations := make([]*model.StateEvaluation, len(transactions))
	for i, tx := range transactions {
		evaluations[i] = &model.StateEvaluation{
			TransactionID: consensushashing.TransactionID(tx),
			Writes: []*model.StateWrite{{
				Key:   accountKey(&tx.Signer),
				Value: accountRecord(tx),
			}},
		}
	}
	return evaluations, nil
}

func accountKey(signer *model.DomainSignerID) []byte {
	return append(append([]byte{}, accountKeyPrefix...), signer.ByteSlice()...)
}

// accountRecord encodes the signer's last confirmed nonce followed by a
// digest of the transaction's payload.
func accountRecord(tx *model.DomainTransaction) []byte {
	record := make([]byte, 8, 8+model.DomainHashSize)
	binary.LittleEndian.PutUint64(record, tx.Nonce)

	digestWriter := hashes.NewTransactionIDWriter()
	digestWriter.InfallibleWrite(tx.Payload)
	return append(record, digestWriter.Finalize().ByteSlice()...)
}
