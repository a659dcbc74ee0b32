package main

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"

	"github.com/embernet/emberd/util/address"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		printErrorAndExit(err)
	}

	mnemonic := cfg.Mnemonic
	if mnemonic == "" {
		entropy, err := bip39.NewEntropy(256)
		if err != nil {
			printErrorAndExit(err)
		}
		mnemonic, err = bip39.NewMnemonic(entropy)
		if err != nil {
			printErrorAndExit(err)
		}
	} else if !bip39.IsMnemonicValid(mnemonic) {
		printErrorAndExit(errors.New("the given mnemonic is not valid"))
	}

	keyPair, err := keyPairFromMnemonic(mnemonic)
	if err != nil {
		printErrorAndExit(err)
	}

	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		printErrorAndExit(err)
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		printErrorAndExit(err)
	}
	minerAddress, err := address.Encode(serializedPublicKey[:], cfg.NetParams.AddressPrefix)
	if err != nil {
		printErrorAndExit(err)
	}

	err = writeKeyFile(cfg.KeyFile, keyPair, cfg.Force)
	if err != nil {
		printErrorAndExit(err)
	}

	fmt.Printf("Mnemonic:      %s\n", mnemonic)
	fmt.Printf("Miner address: %s (%s)\n", minerAddress, cfg.NetParams.Name)
	fmt.Printf("Key written to %s\n", cfg.KeyFile)
	fmt.Println("Keep the mnemonic somewhere safe. It recovers the key if the file is lost.")
}

// keyPairFromMnemonic derives a Schnorr key pair from the mnemonic's BIP-39
// seed. The seed is compressed to scalar size with blake2b.
func keyPairFromMnemonic(mnemonic string) (*secp256k1.SchnorrKeyPair, error) {
	seed := bip39.NewSeed(mnemonic, "")
	privateKeyBytes := blake2b.Sum256(seed)
	return secp256k1.DeserializeSchnorrPrivateKeyFromSlice(privateKeyBytes[:])
}

func writeKeyFile(keyFile string, keyPair *secp256k1.SchnorrKeyPair, force bool) error {
	if !force {
		if _, err := os.Stat(keyFile); err == nil {
			return errors.Errorf("%s already exists. Use --force to overwrite it", keyFile)
		}
	}
	err := os.MkdirAll(filepath.Dir(keyFile), 0700)
	if err != nil {
		return errors.Wrapf(err, "error creating the directory of %s", keyFile)
	}
	serializedPrivateKey := keyPair.SerializePrivateKey()
	keyHex := hex.EncodeToString(serializedPrivateKey[:])
	err = ioutil.WriteFile(keyFile, []byte(keyHex+"\n"), 0600)
	if err != nil {
		return errors.Wrapf(err, "error writing the key file %s", keyFile)
	}
	return nil
}

func printErrorAndExit(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}
