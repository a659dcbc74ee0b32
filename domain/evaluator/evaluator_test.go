package evaluator

import (
	"bytes"
	"testing"

	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/model"
)

func TestEvaluateTransactions(t *testing.T) {
	signer, _ := model.NewDomainSignerIDFromByteSlice(bytes.Repeat([]byte{0x01}, 32))
	transactions := []*model.DomainTransaction{
		{Signer: *signer, Nonce: 1, Payload: []byte("first")},
		{Signer: *signer, Nonce: 2, Payload: []byte("second")},
	}

	evaluations, err := New().EvaluateTransactions(transactions)
	if err != nil {
		t.Fatalf("EvaluateTransactions: %+v", err)
	}
	if len(evaluations) != len(transactions) {
		t.Fatalf("got %d evaluations for %d transactions", len(evaluations), len(transactions))
	}

	for i, evaluation := range evaluations {
		if !evaluation.TransactionID.Equal(consensushashing.TransactionID(transactions[i])) {
			t.Errorf("evaluation %d carries the wrong transaction ID", i)
		}
		if len(evaluation.Writes) != 1 {
			t.Fatalf("evaluation %d carries %d writes, want 1", i, len(evaluation.Writes))
		}
	}

	// Both transactions write the same account key, with different values.
	first, second := evaluations[0].Writes[0], evaluations[1].Writes[0]
	if !bytes.Equal(first.Key, second.Key) {
		t.Errorf("transactions of one signer wrote different account keys")
	}
	if bytes.Equal(first.Value, second.Value) {
		t.Errorf("different transactions produced identical account records")
	}
}

func TestEvaluationIsDeterministic(t *testing.T) {
	signer, _ := model.NewDomainSignerIDFromByteSlice(bytes.Repeat([]byte{0x01}, 32))
	tx := &model.DomainTransaction{Signer: *signer, Nonce: 7, Payload: []byte("payload")}

	firstRun, err := New().EvaluateTransactions([]*model.DomainTransaction{tx})
	if err != nil {
		t.Fatalf("EvaluateTransactions: %+v", err)
	}
	secondRun, err := New().EvaluateTransactions([]*model.DomainTransaction{tx.Clone()})
	if err != nil {
		t.Fatalf("EvaluateTransactions: %+v", err)
	}
	if !firstRun[0].Equal(secondRun[0]) {
		t.Errorf("evaluating the same transaction twice produced different writes")
	}
}
