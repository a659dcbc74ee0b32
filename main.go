package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"

	"github.com/embernet/emberd/infrastructure/config"
	"github.com/embernet/emberd/infrastructure/logger"
	"github.com/embernet/emberd/infrastructure/os/execenv"
	"github.com/embernet/emberd/infrastructure/os/signal"
	"github.com/embernet/emberd/util/panics"
	"github.com/embernet/emberd/util/profiling"
	"github.com/embernet/emberd/version"
)

func main() {
	defer panics.HandlePanic(log, "MAIN", nil)

	interrupt := signal.InterruptListener()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %s\n", err)
		os.Exit(1)
	}

	execenv.Initialize()

	logFile, errLogFile := cfg.LogFiles()
	err = logger.InitLog(logFile, errLogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %s\n", err)
		os.Exit(1)
	}
	logger.ParseAndSetLogLevels(cfg.LogLevel)
	defer logger.Close()

	log.Infof("Version %s", version.Version())
	log.Infof("Active network: %s", cfg.NetParams.Name)

	// Enable http profiling server if requested.
	if cfg.Profile != "" {
		profiling.Start(cfg.Profile, log)
	}

	minerKey, err := loadMinerKey(cfg.MinerKeyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading the miner key: %s\n", err)
		os.Exit(1)
	}

	node, err := newEmberd(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting emberd: %s\n", err)
		os.Exit(1)
	}
	defer node.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doneChan := make(chan struct{})
	spawn("mineLoop", func() {
		err := mineLoop(ctx, node, minerKey, cfg)
		if err != nil {
			panics.Exit(log, fmt.Sprintf("Error in mine loop: %+v", err))
		}
		doneChan <- struct{}{}
	})

	select {
	case <-doneChan:
	case <-interrupt:
		cancel()
	}
}

// loadMinerKey reads the hex-encoded Schnorr private key the node signs its
// blocks with. Use genminerkey to generate one.
func loadMinerKey(keyFile string) (*secp256k1.SchnorrKeyPair, error) {
	keyHex, err := ioutil.ReadFile(keyFile)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading the miner key file %s", keyFile)
	}
	keyBytes, err := hex.DecodeString(strings.TrimSpace(string(keyHex)))
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding the miner key file %s", keyFile)
	}
	return secp256k1.DeserializeSchnorrPrivateKeyFromSlice(keyBytes)
}
