package serialization

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/embernet/emberd/domain/model"
)

func testBlock() *model.DomainBlock {
	parentHash, _ := model.NewDomainHashFromString(
		"1111111111111111111111111111111111111111111111111111111111111111")
	transactionsRoot, _ := model.NewDomainHashFromString(
		"2222222222222222222222222222222222222222222222222222222222222222")
	signer, _ := model.NewDomainSignerIDFromByteSlice(bytes.Repeat([]byte{0x33}, 32))
	miner, _ := model.NewDomainSignerIDFromByteSlice(bytes.Repeat([]byte{0x44}, 32))

	return &model.DomainBlock{
		Header: &model.DomainBlockHeader{
			Version:            1,
			Index:              7,
			ParentHash:         parentHash,
			HashAlgorithm:      model.HashAlgorithmSHA256,
			TransactionsRoot:   *transactionsRoot,
			MinerPublicKey:     *miner,
			TimeInMilliseconds: 1622560000123,
			Bits:               0x207fffff,
			Nonce:              42,
		},
		Transactions: []*model.DomainTransaction{
			{Signer: *signer, Nonce: 1, Payload: []byte("transfer"), Signature: bytes.Repeat([]byte{0x55}, 64)},
			{Signer: *signer, Nonce: 2, Payload: nil, Signature: bytes.Repeat([]byte{0x66}, 64)},
		},
	}
}

func TestBlockRoundTrip(t *testing.T) {
	block := testBlock()

	buffer := &bytes.Buffer{}
	err := SerializeBlock(buffer, block)
	if err != nil {
		t.Fatalf("SerializeBlock: %+v", err)
	}

	if got, want := uint64(buffer.Len()), BlockSize(block); got != want {
		t.Errorf("BlockSize reports %d bytes, serialized form is %d", want, got)
	}

	deserialized, err := DeserializeBlock(buffer)
	if err != nil {
		t.Fatalf("DeserializeBlock: %+v", err)
	}
	if !deserialized.Equal(block) {
		t.Errorf("block changed over a serialization round trip.\ngot: %s\nwant: %s",
			spew.Sdump(deserialized), spew.Sdump(block))
	}
}

func TestGenesisHeaderRoundTrip(t *testing.T) {
	header := testBlock().Header.Clone()
	header.Index = 0
	header.ParentHash = nil

	buffer := &bytes.Buffer{}
	err := SerializeHeader(buffer, header)
	if err != nil {
		t.Fatalf("SerializeHeader: %+v", err)
	}
	if got, want := uint64(buffer.Len()), HeaderSize(header); got != want {
		t.Errorf("HeaderSize reports %d bytes, serialized form is %d", want, got)
	}

	deserialized, err := DeserializeHeader(buffer)
	if err != nil {
		t.Fatalf("DeserializeHeader: %+v", err)
	}
	if !deserialized.Equal(header) {
		t.Errorf("header changed over a serialization round trip.\ngot: %s\nwant: %s",
			spew.Sdump(deserialized), spew.Sdump(header))
	}
	if deserialized.ParentHash != nil {
		t.Errorf("deserialized genesis header has a parent hash")
	}
}

func TestDeserializeBlockMalformedCounts(t *testing.T) {
	block := testBlock()
	buffer := &bytes.Buffer{}
	err := SerializeBlock(buffer, block)
	if err != nil {
		t.Fatalf("SerializeBlock: %+v", err)
	}

	// Corrupt the transaction count to an absurd value.
	serialized := buffer.Bytes()
	countOffset := HeaderSize(block.Header)
	for i := uint64(0); i < 8; i++ {
		serialized[countOffset+i] = 0xff
	}
	_, err = DeserializeBlock(bytes.NewReader(serialized))
	if err == nil {
		t.Errorf("DeserializeBlock accepted an absurd transaction count")
	}
}
