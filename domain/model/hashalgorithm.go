package model

import "fmt"

// HashAlgorithm is the tag carried in a block header naming the hash
// function its identity and proof-of-work value are computed with.
type HashAlgorithm byte

// The hash algorithms a header may be tagged with.
const (
	HashAlgorithmBlake2b HashAlgorithm = iota
	HashAlgorithmSHA256
)

// String returns the HashAlgorithm in human-readable form.
func (algorithm HashAlgorithm) String() string {
	switch algorithm {
	case HashAlgorithmBlake2b:
		return "blake2b"
	case HashAlgorithmSHA256:
		return "sha256"
	}
	return fmt.Sprintf("Unknown HashAlgorithm (%d)", byte(algorithm))
}
