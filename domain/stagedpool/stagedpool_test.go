package stagedpool

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/infrastructure/db/ldb"
)

func testSigner(seed byte) *model.DomainSignerID {
	signer, _ := model.NewDomainSignerIDFromByteSlice(bytes.Repeat([]byte{seed}, 32))
	return signer
}

func testTransaction(signer *model.DomainSignerID, nonce uint64) *model.DomainTransaction {
	return &model.DomainTransaction{
		Signer:  *signer,
		Nonce:   nonce,
		Payload: []byte{byte(nonce)},
	}
}

func nonceRuns(transactions []*model.DomainTransaction) map[string][]uint64 {
	runs := make(map[string][]uint64)
	for _, tx := range transactions {
		runs[tx.Signer.String()] = append(runs[tx.Signer.String()], tx.Nonce)
	}
	return runs
}

func TestListStagedOrdering(t *testing.T) {
	pool, err := New(nil)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}

	alice := testSigner(0x0a)
	bob := testSigner(0x0b)

	// Stage out of nonce order and interleaved across signers.
	for _, tx := range []*model.DomainTransaction{
		testTransaction(alice, 7),
		testTransaction(bob, 1),
		testTransaction(alice, 5),
		testTransaction(alice, 6),
		testTransaction(bob, 2),
	} {
		if err := pool.Stage(tx); err != nil {
			t.Fatalf("Stage: %+v", err)
		}
	}

	staged := pool.ListStaged()
	if len(staged) != 5 {
		t.Fatalf("ListStaged returned %d transactions, want 5", len(staged))
	}

	// Alice staged first, so all of her transactions come first, in nonce
	// order.
	if !staged[0].Signer.Equal(alice) || !staged[2].Signer.Equal(alice) {
		t.Errorf("signers are not listed in first-staged order")
	}
	wantRuns := map[string][]uint64{
		alice.String(): {5, 6, 7},
		bob.String():   {1, 2},
	}
	if !reflect.DeepEqual(nonceRuns(staged), wantRuns) {
		t.Errorf("ListStaged nonce runs: got %v, want %v", nonceRuns(staged), wantRuns)
	}
}

func TestStageRejectsDuplicates(t *testing.T) {
	pool, err := New(nil)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}

	alice := testSigner(0x0a)
	tx := testTransaction(alice, 1)
	if err := pool.Stage(tx); err != nil {
		t.Fatalf("Stage: %+v", err)
	}
	if err := pool.Stage(tx.Clone()); err == nil {
		t.Errorf("staging the same transaction twice should fail")
	}

	sameNonce := testTransaction(alice, 1)
	sameNonce.Payload = []byte("different payload, same slot")
	if err := pool.Stage(sameNonce); err == nil {
		t.Errorf("staging a second transaction at an occupied nonce should fail")
	}
}

func TestEvict(t *testing.T) {
	pool, err := New(nil)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}

	alice := testSigner(0x0a)
	first := testTransaction(alice, 1)
	second := testTransaction(alice, 2)
	for _, tx := range []*model.DomainTransaction{first, second} {
		if err := pool.Stage(tx); err != nil {
			t.Fatalf("Stage: %+v", err)
		}
	}

	pool.Evict(consensushashing.TransactionID(first))
	// Evicting an unknown ID is a no-op.
	pool.Evict(model.NewZeroHash())

	if pool.Count() != 1 {
		t.Fatalf("pool holds %d transactions after eviction, want 1", pool.Count())
	}
	if staged := pool.ListStaged(); !staged[0].Equal(second) {
		t.Errorf("the wrong transaction was evicted")
	}
}

func TestPoolPersistsAcrossRestarts(t *testing.T) {
	databasePath := t.TempDir()
	db, err := ldb.NewLevelDB(databasePath)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}

	alice := testSigner(0x0a)
	bob := testSigner(0x0b)

	pool, err := New(db)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}
	staged := []*model.DomainTransaction{
		testTransaction(bob, 9),
		testTransaction(alice, 1),
		testTransaction(alice, 2),
	}
	for _, tx := range staged {
		if err := pool.Stage(tx); err != nil {
			t.Fatalf("Stage: %+v", err)
		}
	}
	pool.Evict(consensushashing.TransactionID(staged[2]))

	if err := db.Close(); err != nil {
		t.Fatalf("Close: %+v", err)
	}

	reopened, err := ldb.NewLevelDB(databasePath)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}
	defer reopened.Close()

	restored, err := New(reopened)
	if err != nil {
		t.Fatalf("New over a persisted pool: %+v", err)
	}
	restoredList := restored.ListStaged()
	if len(restoredList) != 2 {
		t.Fatalf("restored pool holds %d transactions, want 2", len(restoredList))
	}
	// Bob staged first, so he still lists first after the restart.
	if !restoredList[0].Equal(staged[0]) {
		t.Errorf("restored pool lost the original staging order")
	}
	if !restoredList[1].Equal(staged[1]) {
		t.Errorf("restored pool did not keep alice's remaining transaction")
	}
}
