package random

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Uint64 returns a cryptographically random uint64 value.
func Uint64() (uint64, error) {
	var buf [8]byte
	_, err := io.ReadFull(rand.Reader, buf[:])
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
