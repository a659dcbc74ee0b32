package main

import (
	"path/filepath"

	"github.com/jessevdk/go-flags"

	"github.com/embernet/emberd/domain/chainparams"
	"github.com/embernet/emberd/infrastructure/config"
)

const defaultKeyFilename = "miner.key"

type configFlags struct {
	KeyFile  string `long:"keyfile" description:"File to write the hex-encoded miner private key to"`
	Mnemonic string `long:"mnemonic" description:"Recover the key of an existing mnemonic instead of generating a new one"`
	Force    bool   `short:"f" long:"force" description:"Overwrite the key file if it already exists"`
	Simnet   bool   `long:"simnet" description:"Encode the address for the simulation test network"`

	NetParams *chainparams.Params
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{
		KeyFile: filepath.Join(config.DefaultHomeDir, defaultKeyFilename),
	}
	parser := flags.NewParser(cfg, flags.HelpFlag|flags.PrintErrors)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	cfg.NetParams = &chainparams.MainnetParams
	if cfg.Simnet {
		cfg.NetParams = &chainparams.SimnetParams
	}
	return cfg, nil
}
