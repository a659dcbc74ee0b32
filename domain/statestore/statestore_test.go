package statestore

import (
	"bytes"
	"testing"

	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/infrastructure/db/ldb"
)

func prepareStateStoreForTest(t *testing.T) (*StateStore, string) {
	databasePath := t.TempDir()
	db, err := ldb.NewLevelDB(databasePath)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := New(db)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}
	return store, databasePath
}

func evaluationWithWrites(writes ...*model.StateWrite) []*model.StateEvaluation {
	return []*model.StateEvaluation{{
		TransactionID: model.NewZeroHash(),
		Writes:        writes,
	}}
}

func blockHashForTest(seed byte) *model.DomainHash {
	hash, _ := model.NewDomainHashFromByteSlice(bytes.Repeat([]byte{seed}, 32))
	return hash
}

func TestApplyEvaluationsIsDeterministicWithinSection(t *testing.T) {
	store, _ := prepareStateStoreForTest(t)

	evaluations := evaluationWithWrites(
		&model.StateWrite{Key: []byte("alice"), Value: []byte{10}},
		&model.StateWrite{Key: []byte("bob"), Value: []byte{20}},
	)

	section := store.OpenWriteSection()
	firstRoot, err := section.ApplyEvaluations(blockHashForTest(1), evaluations)
	if err != nil {
		t.Fatalf("ApplyEvaluations: %+v", err)
	}
	secondRoot, err := section.ApplyEvaluations(blockHashForTest(2), evaluations)
	if err != nil {
		t.Fatalf("ApplyEvaluations: %+v", err)
	}
	section.Close()

	// Both applications ran on top of the same promoted state, so they
	// must agree: this is what lets a snapshot be re-keyed by the block's
	// final, root-bearing hash.
	if !firstRoot.Equal(secondRoot) {
		t.Errorf("the same evaluations produced roots %s and %s", firstRoot, secondRoot)
	}

	for _, key := range []*model.DomainHash{blockHashForTest(1), blockHashForTest(2)} {
		root, err := store.StateRoot(key)
		if err != nil {
			t.Fatalf("StateRoot: %+v", err)
		}
		if !root.Equal(firstRoot) {
			t.Errorf("snapshot under key %s reports root %s, want %s", key, root, firstRoot)
		}
	}
}

func TestPromoteAppliesWrites(t *testing.T) {
	store, _ := prepareStateStoreForTest(t)
	initialRoot := store.CurrentRoot()

	blockHash := blockHashForTest(1)
	section := store.OpenWriteSection()
	root, err := section.ApplyEvaluations(blockHash, evaluationWithWrites(
		&model.StateWrite{Key: []byte("alice"), Value: []byte{10}},
	))
	section.Close()
	if err != nil {
		t.Fatalf("ApplyEvaluations: %+v", err)
	}

	// Staged but not promoted: the current state is untouched.
	if !store.CurrentRoot().Equal(initialRoot) {
		t.Errorf("staging a snapshot changed the current root")
	}
	if _, err := store.Value([]byte("alice")); !ldb.IsNotFoundError(err) {
		t.Errorf("staging a snapshot wrote to the state space")
	}

	err = store.Promote(blockHash)
	if err != nil {
		t.Fatalf("Promote: %+v", err)
	}
	if !store.CurrentRoot().Equal(root) {
		t.Errorf("current root after promote is %s, want %s", store.CurrentRoot(), root)
	}
	value, err := store.Value([]byte("alice"))
	if err != nil {
		t.Fatalf("Value: %+v", err)
	}
	if !bytes.Equal(value, []byte{10}) {
		t.Errorf("state value after promote is %x, want 0a", value)
	}
}

func TestRootReflectsOverwrites(t *testing.T) {
	store, _ := prepareStateStoreForTest(t)

	firstBlock := blockHashForTest(1)
	section := store.OpenWriteSection()
	firstRoot, err := section.ApplyEvaluations(firstBlock, evaluationWithWrites(
		&model.StateWrite{Key: []byte("alice"), Value: []byte{10}},
	))
	section.Close()
	if err != nil {
		t.Fatalf("ApplyEvaluations: %+v", err)
	}
	if err := store.Promote(firstBlock); err != nil {
		t.Fatalf("Promote: %+v", err)
	}

	// Overwrite the key, then write it back to its original value: the
	// root must return to the first root.
	secondBlock := blockHashForTest(2)
	section = store.OpenWriteSection()
	secondRoot, err := section.ApplyEvaluations(secondBlock, evaluationWithWrites(
		&model.StateWrite{Key: []byte("alice"), Value: []byte{99}},
	))
	section.Close()
	if err != nil {
		t.Fatalf("ApplyEvaluations: %+v", err)
	}
	if secondRoot.Equal(firstRoot) {
		t.Fatalf("overwriting a value did not change the root")
	}
	if err := store.Promote(secondBlock); err != nil {
		t.Fatalf("Promote: %+v", err)
	}

	thirdBlock := blockHashForTest(3)
	section = store.OpenWriteSection()
	thirdRoot, err := section.ApplyEvaluations(thirdBlock, evaluationWithWrites(
		&model.StateWrite{Key: []byte("alice"), Value: []byte{10}},
	))
	section.Close()
	if err != nil {
		t.Fatalf("ApplyEvaluations: %+v", err)
	}
	if !thirdRoot.Equal(firstRoot) {
		t.Errorf("restoring a value did not restore the root: got %s, want %s",
			thirdRoot, firstRoot)
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	databasePath := t.TempDir()
	db, err := ldb.NewLevelDB(databasePath)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}

	store, err := New(db)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}
	blockHash := blockHashForTest(1)
	section := store.OpenWriteSection()
	root, err := section.ApplyEvaluations(blockHash, evaluationWithWrites(
		&model.StateWrite{Key: []byte("alice"), Value: []byte{10}},
	))
	section.Close()
	if err != nil {
		t.Fatalf("ApplyEvaluations: %+v", err)
	}
	if err := store.Promote(blockHash); err != nil {
		t.Fatalf("Promote: %+v", err)
	}
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
		t.Fatalf("New over persisted state: %+v", err)
	}
	if !restored.CurrentRoot().Equal(root) {
		t.Errorf("restored root is %s, want %s", restored.CurrentRoot(), root)
	}
}
