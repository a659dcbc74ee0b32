package address

import (
	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"
)

// PublicKeySize is the size in bytes of the serialized Schnorr public key
// an address encodes.
const PublicKeySize = 32

// Encode returns the Base58Check representation of the given serialized
// public key, versioned with the given network prefix.
func Encode(publicKey []byte, prefix byte) (string, error) {
	if len(publicKey) != PublicKeySize {
		return "", errors.Errorf("invalid public key size. Want: %d, got: %d",
			PublicKeySize, len(publicKey))
	}
	return base58.CheckEncode(publicKey, prefix), nil
}

// Decode parses the given Base58Check address and returns the serialized
// public key it encodes. An error is returned if the checksum fails or the
// address was encoded for a different network prefix.
func Decode(encoded string, prefix byte) ([]byte, error) {
	publicKey, version, err := base58.CheckDecode(encoded)
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding address %s", encoded)
	}
	if version != prefix {
		return nil, errors.Errorf("address %s was encoded for network prefix %x, want %x",
			encoded, version, prefix)
	}
	if len(publicKey) != PublicKeySize {
		return nil, errors.Errorf("address %s encodes a public key of size %d, want %d",
			encoded, len(publicKey), PublicKeySize)
	}
	return publicKey, nil
}
