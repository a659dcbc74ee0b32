package statestore

import (
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/infrastructure/db/ldb"
)

// writeSection is the exclusive write handle on a StateStore. It holds the
// store's write lock from OpenWriteSection until Close, so concurrent readers
// block for the apply window only.
type writeSection struct {
	store *StateStore

	isClosed bool
}

// OpenWriteSection acquires the store's exclusive write section, blocking
// until any currently open section is closed.
func (s *StateStore) OpenWriteSection() model.StateWriteSection {
	s.mtx.Lock()
	return &writeSection{store: s}
}

// ApplyEvaluations applies the given evaluations on top of the current state,
// persists the resulting snapshot under the given key and returns the
// snapshot's state root. Applying identical evaluations under a second key
// within the same section yields the same root.
func (ws *writeSection) ApplyEvaluations(key *model.DomainHash,
	evaluations []*model.StateEvaluation) (*model.DomainHash, error) {

	if ws.isClosed {
		panic("cannot apply evaluations on a closed write section")
	}

	store := ws.store
	snapshotMuHash := store.currentMuHash.Clone()
	appliedValues := make(map[string][]byte)
	writes := []*model.StateWrite{}

	for _, evaluation := range evaluations {
		for _, write := range evaluation.Writes {
			oldValue, hadOldValue, err := ws.lookupBase(appliedValues, write.Key)
			if err != nil {
				return nil, err
			}
			if hadOldValue {
				snapshotMuHash.Remove(statePairData(write.Key, oldValue))
			}
			snapshotMuHash.Add(statePairData(write.Key, write.Value))

			appliedValues[string(write.Key)] = write.Value
			writes = append(writes, write)
		}
	}

	finalized := snapshotMuHash.Clone().Finalize()
	root := model.NewDomainHashFromByteArray(finalized.AsArray())
	snapshotBytes, err := serializeSnapshot(&persistedSnapshot{
		muHash: snapshotMuHash,
		root:   root,
		writes: writes,
	})
	if err != nil {
		return nil, err
	}
	err = store.db.Put(snapshotKey(key), snapshotBytes)
	if err != nil {
		return nil, err
	}

	log.Debugf("Staged state snapshot under key %s with root %s and %d writes",
		key, root, len(writes))
	return root, nil
}

// lookupBase resolves the value a state key held before the write being
// applied: first among this application's earlier writes, then the promoted
// state.
func (ws *writeSection) lookupBase(appliedValues map[string][]byte, key []byte) ([]byte, bool, error) {
	if value, ok := appliedValues[string(key)]; ok {
		return value, true, nil
	}
	value, err := ws.store.db.Get(stateValueKey(key))
	if err != nil {
		if ldb.IsNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// Close releases the section. Close is idempotent.
func (ws *writeSection) Close() {
	if ws.isClosed {
		return
	}
	ws.isClosed = true
	ws.store.mtx.Unlock()
}

// statePairData encodes a (key, value) pair as a single multiset element.
func statePairData(key []byte, value []byte) []byte {
	data := make([]byte, 0, 8+len(key)+len(value))
	data = appendVarBytes(data, key)
	data = appendVarBytes(data, value)
	return data
}

func appendVarBytes(data []byte, element []byte) []byte {
	length := uint64(len(element))
	data = append(data,
		byte(length), byte(length>>8), byte(length>>16), byte(length>>24),
		byte(length>>32), byte(length>>40), byte(length>>48), byte(length>>56))
	return append(data, element...)
}
