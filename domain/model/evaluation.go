package model

import "bytes"

// StateWrite is a single key/value write produced by evaluating a
// transaction against the chain state.
type StateWrite struct {
	Key   []byte
	Value []byte
}

// Clone returns a clone of StateWrite
func (write *StateWrite) Clone() *StateWrite {
	keyClone := make([]byte, len(write.Key))
	copy(keyClone, write.Key)
	valueClone := make([]byte, len(write.Value))
	copy(valueClone, write.Value)

	return &StateWrite{
		Key:   keyClone,
		Value: valueClone,
	}
}

// Equal returns whether write equals to other
func (write *StateWrite) Equal(other *StateWrite) bool {
	if write == nil || other == nil {
		return write == other
	}

	return bytes.Equal(write.Key, other.Key) && bytes.Equal(write.Value, other.Value)
}

// StateEvaluation is the outcome of evaluating a single transaction: the
// state writes it produced, in the order they were produced.
type StateEvaluation struct {
	TransactionID *DomainHash
	Writes        []*StateWrite
}

// Clone returns a clone of StateEvaluation
func (evaluation *StateEvaluation) Clone() *StateEvaluation {
	writesClone := make([]*StateWrite, len(evaluation.Writes))
	for i, write := range evaluation.Writes {
		writesClone[i] = write.Clone()
	}

	var transactionIDClone *DomainHash
	if evaluation.TransactionID != nil {
		transactionIDClone = NewDomainHashFromByteArray(evaluation.TransactionID.ByteArray())
	}

	return &StateEvaluation{
		TransactionID: transactionIDClone,
		Writes:        writesClone,
	}
}

// Equal returns whether evaluation equals to other
func (evaluation *StateEvaluation) Equal(other *StateEvaluation) bool {
	if evaluation == nil || other == nil {
		return evaluation == other
	}

	if !evaluation.TransactionID.Equal(other.TransactionID) {
		return false
	}

	if len(evaluation.Writes) != len(other.Writes) {
		return false
	}

	for i, write := range evaluation.Writes {
		if !write.Equal(other.Writes[i]) {
			return false
		}
	}

	return true
}

// CloneStateEvaluations returns a deep clone of the given evaluations slice
func CloneStateEvaluations(evaluations []*StateEvaluation) []*StateEvaluation {
	clone := make([]*StateEvaluation, len(evaluations))
	for i, evaluation := range evaluations {
		clone[i] = evaluation.Clone()
	}
	return clone
}
