package main

import (
	"path/filepath"

	"github.com/embernet/emberd/domain/chainstore"
	"github.com/embernet/emberd/domain/evaluator"
	"github.com/embernet/emberd/domain/mining"
	"github.com/embernet/emberd/domain/policy"
	"github.com/embernet/emberd/domain/stagedpool"
	"github.com/embernet/emberd/domain/statestore"
	"github.com/embernet/emberd/infrastructure/config"
	"github.com/embernet/emberd/infrastructure/db/ldb"
	"github.com/pkg/errors"
)

const (
	chainDBDirname = "chain"
	stateDBDirname = "state"
	poolDBDirname  = "pool"
)

// emberd wires the databases and the domain services of a running node.
type emberd struct {
	chainDB *ldb.LevelDB
	stateDB *ldb.LevelDB
	poolDB  *ldb.LevelDB

	chainStore  *chainstore.ChainStore
	stagedPool  *stagedpool.Pool
	policy      *policy.Policy
	coordinator *mining.Coordinator
}

// newEmberd opens the node's databases under the config's data directory and
// wires the domain services on top of them.
func newEmberd(cfg *config.Config) (*emberd, error) {
	dataDir := cfg.DataDir()
	log.Infof("Data directory: %s", dataDir)

	chainDB, err := ldb.NewLevelDB(filepath.Join(dataDir, chainDBDirname))
	if err != nil {
		return nil, errors.Wrap(err, "error opening the chain database")
	}
	stateDB, err := ldb.NewLevelDB(filepath.Join(dataDir, stateDBDirname))
	if err != nil {
		chainDB.Close()
		return nil, errors.Wrap(err, "error opening the state database")
	}
	poolDB, err := ldb.NewLevelDB(filepath.Join(dataDir, poolDBDirname))
	if err != nil {
		chainDB.Close()
		stateDB.Close()
		return nil, errors.Wrap(err, "error opening the staged pool database")
	}

	node := &emberd{
		chainDB: chainDB,
		stateDB: stateDB,
		poolDB:  poolDB,
	}

	stateStore, err := statestore.New(stateDB)
	if err != nil {
		node.close()
		return nil, err
	}
	stateEvaluator := evaluator.New()

	node.chainStore, err = chainstore.New(chainDB, cfg.NetParams, stateStore, stateEvaluator)
	if err != nil {
		node.close()
		return nil, err
	}
	node.stagedPool, err = stagedpool.New(poolDB)
	if err != nil {
		node.close()
		return nil, err
	}
	node.policy = policy.New(cfg.NetParams, node.chainStore)
	node.coordinator = mining.NewCoordinator(node.chainStore, node.stagedPool, node.policy,
		stateStore, stateEvaluator, cfg.NetParams.SelectionSoftDeadline)

	return node, nil
}

// close releases the node's databases. Errors are logged rather than
// returned since close runs on the shutdown path.
func (e *emberd) close() {
	for _, db := range []*ldb.LevelDB{e.chainDB, e.stateDB, e.poolDB} {
		if db == nil {
			continue
		}
		err := db.Close()
		if err != nil {
			log.Errorf("Error closing database: %s", err)
		}
	}
}
