package address

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	publicKey := make([]byte, PublicKeySize)
	for i := range publicKey {
		publicKey[i] = byte(i)
	}

	const prefix = 0x19
	encoded, err := Encode(publicKey, prefix)
	if err != nil {
		t.Fatalf("Encode: %+v", err)
	}

	decoded, err := Decode(encoded, prefix)
	if err != nil {
		t.Fatalf("Decode: %+v", err)
	}
	if !bytes.Equal(decoded, publicKey) {
		t.Errorf("Decode returned %x, want %x", decoded, publicKey)
	}
}

func TestDecodeWrongPrefix(t *testing.T) {
	publicKey := make([]byte, PublicKeySize)
	encoded, err := Encode(publicKey, 0x19)
	if err != nil {
		t.Fatalf("Encode: %+v", err)
	}

	_, err = Decode(encoded, 0x2a)
	if err == nil {
		t.Errorf("Decode should fail for a mismatched network prefix")
	}
}

func TestEncodeInvalidSize(t *testing.T) {
	_, err := Encode(make([]byte, PublicKeySize-1), 0x19)
	if err == nil {
		t.Errorf("Encode should fail for a short public key")
	}
}
