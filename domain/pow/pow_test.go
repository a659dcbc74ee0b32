package pow

import (
	"testing"

	"github.com/embernet/emberd/domain/model"
)

// easyBits is a difficulty floor low enough for the search to succeed within
// a handful of attempts.
const easyBits = 0x207fffff

// hardBits is a difficulty no CPU will meet within a test's lifetime.
const hardBits = 0x01010000

func testHeader(bits uint32) *model.DomainBlockHeader {
	return &model.DomainBlockHeader{
		Version:            1,
		Index:              1,
		ParentHash:         model.NewZeroHash(),
		HashAlgorithm:      model.HashAlgorithmBlake2b,
		TimeInMilliseconds: 1000,
		Bits:               bits,
	}
}

func TestSearchFindsValidNonce(t *testing.T) {
	header := testHeader(easyBits)
	state := NewState(header)

	quit := make(chan struct{})
	nonce, found, err := state.Search(quit)
	if err != nil {
		t.Fatalf("Search: %+v", err)
	}
	if !found {
		t.Fatalf("Search did not find a nonce at the difficulty floor")
	}

	solved := header.Clone()
	solved.Nonce = nonce
	if !CheckProofOfWorkByBits(solved) {
		t.Errorf("solved nonce %d does not satisfy the header's own bits", nonce)
	}
}

func TestSearchStopsOnQuit(t *testing.T) {
	state := NewState(testHeader(hardBits))

	quit := make(chan struct{})
	close(quit)

	_, found, err := state.Search(quit)
	if err != nil {
		t.Fatalf("Search: %+v", err)
	}
	if found {
		t.Errorf("Search reported success after quit at an impossible difficulty")
	}
}

func TestProofOfWorkIgnoresStateRoot(t *testing.T) {
	header := testHeader(easyBits)
	state := NewState(header)

	quit := make(chan struct{})
	nonce, found, err := state.Search(quit)
	if err != nil {
		t.Fatalf("Search: %+v", err)
	}
	if !found {
		t.Fatalf("Search did not find a nonce at the difficulty floor")
	}

	solved := header.Clone()
	solved.Nonce = nonce
	rooted := solved.Clone()
	stateRoot, _ := model.NewDomainHashFromString(
		"00000000000000000000000000000000000000000000000000000000000000aa")
	rooted.StateRoot = *stateRoot

	if CheckProofOfWorkByBits(solved) != CheckProofOfWorkByBits(rooted) {
		t.Errorf("embedding a state root changed proof-of-work validity")
	}
}
