package statestore

import (
	"bytes"
	"io"
	"sync"

	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/infrastructure/db/ldb"
	"github.com/embernet/emberd/util/binaryserializer"
)

var (
	stateValueKeyPrefix = []byte("stv:")
	snapshotKeyPrefix   = []byte("sns:")
	currentSnapshotKey  = []byte("cur:")
)

// StateStore tracks chain state as a flat key/value space whose content
// address is an ECMH multiset hash over its (key, value) pairs. Snapshots are
// staged by ApplyEvaluations and become the current state only on Promote,
// so a snapshot of a block that is never appended costs nothing to discard.
type StateStore struct {
	mtx sync.RWMutex

	db *ldb.LevelDB

	// currentMuHash is the multiset of the current, promoted state.
	currentMuHash *muhash.MuHash
}

// New opens a StateStore over the given database.
func New(db *ldb.LevelDB) (*StateStore, error) {
	store := &StateStore{
		db:            db,
		currentMuHash: muhash.NewMuHash(),
	}

	currentBlockBytes, err := db.Get(currentSnapshotKey)
	if err != nil {
		if ldb.IsNotFoundError(err) {
			return store, nil
		}
		return nil, err
	}
	currentBlock, err := model.NewDomainHashFromByteSlice(currentBlockBytes)
	if err != nil {
		return nil, err
	}
	snapshot, err := store.snapshot(currentBlock)
	if err != nil {
		return nil, err
	}
	store.currentMuHash = snapshot.muHash
	log.Infof("Loaded state with root %s (current block %s)",
		store.currentRoot(), currentBlock)
	return store, nil
}

// SupportsContentAddressing reports that this store addresses snapshots by
// state root.
func (s *StateStore) SupportsContentAddressing() bool {
	return true
}

// CurrentRoot returns the root of the current, promoted state.
func (s *StateStore) CurrentRoot() *model.DomainHash {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.currentRoot()
}

func (s *StateStore) currentRoot() *model.DomainHash {
	finalized := s.currentMuHash.Clone().Finalize()
	return model.NewDomainHashFromByteArray(finalized.AsArray())
}

// Value returns the current value of the given state key. It returns a
// wrapped ldb.ErrNotFound if the key holds no value.
func (s *StateStore) Value(key []byte) ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.db.Get(stateValueKey(key))
}

// StateRoot returns the state root of the snapshot keyed by the given block
// hash. It returns a wrapped ldb.ErrNotFound if no snapshot was staged for
// that block.
func (s *StateStore) StateRoot(blockHash *model.DomainHash) (*model.DomainHash, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	snapshot, err := s.snapshot(blockHash)
	if err != nil {
		return nil, err
	}
	return snapshot.root, nil
}

// Promote makes the snapshot keyed by the given block hash the current
// state: its writes are applied to the state space and future write sections
// stack on top of it.
func (s *StateStore) Promote(blockHash *model.DomainHash) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	snapshot, err := s.snapshot(blockHash)
	if err != nil {
		return err
	}

	batch := &ldb.Batch{}
	for _, write := range snapshot.writes {
		batch.Put(stateValueKey(write.Key), write.Value)
	}
	batch.Put(currentSnapshotKey, blockHash.ByteSlice())
	err = s.db.Write(batch)
	if err != nil {
		return err
	}

	s.currentMuHash = snapshot.muHash
	log.Debugf("Promoted state snapshot of block %s, root %s", blockHash, snapshot.root)
	return nil
}

type persistedSnapshot struct {
	muHash *muhash.MuHash
	root   *model.DomainHash
	writes []*model.StateWrite
}

func (s *StateStore) snapshot(blockHash *model.DomainHash) (*persistedSnapshot, error) {
	snapshotBytes, err := s.db.Get(snapshotKey(blockHash))
	if err != nil {
		return nil, err
	}
	return deserializeSnapshot(snapshotBytes)
}

func serializeSnapshot(snapshot *persistedSnapshot) ([]byte, error) {
	buffer := &bytes.Buffer{}
	serializedMuHash := snapshot.muHash.Serialize()
	buffer.Write(serializedMuHash[:])
	buffer.Write(snapshot.root.ByteSlice())
	err := binaryserializer.PutUint64(buffer, uint64(len(snapshot.writes)))
	if err != nil {
		return nil, err
	}
	for _, write := range snapshot.writes {
		err = putVarBytes(buffer, write.Key)
		if err != nil {
			return nil, err
		}
		err = putVarBytes(buffer, write.Value)
		if err != nil {
			return nil, err
		}
	}
	return buffer.Bytes(), nil
}

func deserializeSnapshot(snapshotBytes []byte) (*persistedSnapshot, error) {
	reader := bytes.NewReader(snapshotBytes)

	var serializedMuHash muhash.SerializedMuHash
	_, err := io.ReadFull(reader, serializedMuHash[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	snapshotMuHash, err := muhash.DeserializeMuHash(&serializedMuHash)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var rootBytes [model.DomainHashSize]byte
	_, err = io.ReadFull(reader, rootBytes[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}

	numWrites, err := binaryserializer.Uint64(reader)
	if err != nil {
		return nil, err
	}
	writes := make([]*model.StateWrite, 0, numWrites)
	for i := uint64(0); i < numWrites; i++ {
		key, err := getVarBytes(reader)
		if err != nil {
			return nil, err
		}
		value, err := getVarBytes(reader)
		if err != nil {
			return nil, err
		}
		writes = append(writes, &model.StateWrite{Key: key, Value: value})
	}

	return &persistedSnapshot{
		muHash: snapshotMuHash,
		root:   model.NewDomainHashFromByteArray(&rootBytes),
		writes: writes,
	}, nil
}

func putVarBytes(buffer *bytes.Buffer, data []byte) error {
	err := binaryserializer.PutUint64(buffer, uint64(len(data)))
	if err != nil {
		return err
	}
	buffer.Write(data)
	return nil
}

func getVarBytes(reader *bytes.Reader) ([]byte, error) {
	length, err := binaryserializer.Uint64(reader)
	if err != nil {
		return nil, err
	}
	if length > uint64(reader.Len()) {
		return nil, errors.Errorf("declared byte string length %d is larger "+
			"than the remaining snapshot size %d", length, reader.Len())
	}
	data := make([]byte, length)
	_, err = io.ReadFull(reader, data)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func stateValueKey(key []byte) []byte {
	return append(append([]byte{}, stateValueKeyPrefix...), key...)
}

func snapshotKey(blockHash *model.DomainHash) []byte {
	return append(append([]byte{}, snapshotKeyPrefix...), blockHash.ByteSlice()...)
}
