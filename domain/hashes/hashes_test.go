package hashes

import (
	"testing"

	"github.com/embernet/emberd/domain/model"
)

func TestHashWriterDomainSeparation(t *testing.T) {
	payload := []byte("same payload")

	writers := []struct {
		name   string
		writer HashWriter
	}{
		{"TransactionID", NewTransactionIDWriter()},
		{"TransactionSigningHash", NewTransactionSigningHashWriter()},
		{"MerkleBranchHash", NewMerkleBranchHashWriter()},
		{"BlockHash/blake2b", NewBlockHashWriter(model.HashAlgorithmBlake2b)},
		{"BlockHash/sha256", NewBlockHashWriter(model.HashAlgorithmSHA256)},
		{"PoWHash/blake2b", NewPoWHashWriter(model.HashAlgorithmBlake2b)},
		{"PoWHash/sha256", NewPoWHashWriter(model.HashAlgorithmSHA256)},
	}

	seen := make(map[model.DomainHash]string)
	for _, test := range writers {
		test.writer.InfallibleWrite(payload)
		sum := *test.writer.Finalize()
		if previous, ok := seen[sum]; ok {
			t.Errorf("%s and %s produced the same hash over identical input", previous, test.name)
		}
		seen[sum] = test.name
	}
}

func TestHashWriterDeterminism(t *testing.T) {
	first := NewTransactionIDWriter()
	second := NewTransactionIDWriter()

	first.InfallibleWrite([]byte("abc"))
	second.InfallibleWrite([]byte("a"))
	second.InfallibleWrite([]byte("bc"))

	if !first.Finalize().Equal(second.Finalize()) {
		t.Errorf("incremental writes changed the resulting hash")
	}
}
