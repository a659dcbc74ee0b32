package policy

import (
	"testing"

	secp256k1 "github.com/kaspanet/go-secp256k1"

	"github.com/embernet/emberd/domain/chainparams"
	"github.com/embernet/emberd/domain/consensushashing"
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/util/difficulty"
	"github.com/embernet/emberd/util/mstime"
)

type fakeChainStore struct {
	model.ChainStore

	headers []*model.DomainBlockHeader
}

func (f *fakeChainStore) ChainLength() (uint64, error) {
	return uint64(len(f.headers)), nil
}

func (f *fakeChainStore) HeaderAtIndex(index uint64) (*model.DomainBlockHeader, error) {
	return f.headers[index], nil
}

func chainMinedAtRate(params *chainparams.Params, length uint64, msPerBlock int64) *fakeChainStore {
	headers := make([]*model.DomainBlockHeader, length)
	for i := uint64(0); i < length; i++ {
		headers[i] = &model.DomainBlockHeader{
			Index:              i,
			Bits:               params.PowLimitBits,
			TimeInMilliseconds: int64(i) * msPerBlock,
		}
	}
	return &fakeChainStore{headers: headers}
}

func TestNextRequiredDifficultyFloor(t *testing.T) {
	params := chainparams.SimnetParams
	store := chainMinedAtRate(&params, params.DifficultyAdjustmentWindowSize, 1000)
	testPolicy := New(&params, store)

	bits, err := testPolicy.NextRequiredDifficulty(mstime.Now())
	if err != nil {
		t.Fatalf("NextRequiredDifficulty: %+v", err)
	}
	if bits != params.PowLimitBits {
		t.Errorf("a chain shorter than the window should mine at the floor. "+
			"got bits %x, want %x", bits, params.PowLimitBits)
	}
}

func TestNextRequiredDifficultyAdjustsToBlockRate(t *testing.T) {
	params := chainparams.SimnetParams
	targetMs := params.TargetTimePerBlock.Milliseconds()

	// A window mined twice as fast as the target rate should raise the
	// difficulty, i.e. lower the target.
	fastStore := chainMinedAtRate(&params, params.DifficultyAdjustmentWindowSize+1, targetMs/2)
	fastBits, err := New(&params, fastStore).NextRequiredDifficulty(mstime.Now())
	if err != nil {
		t.Fatalf("NextRequiredDifficulty: %+v", err)
	}
	floorTarget := difficulty.CompactToBig(params.PowLimitBits)
	if difficulty.CompactToBig(fastBits).Cmp(floorTarget) >= 0 {
		t.Errorf("a fast window did not raise the difficulty: bits %x", fastBits)
	}

	// A window mined slower than the target rate cannot push the target
	// above the limit.
	slowStore := chainMinedAtRate(&params, params.DifficultyAdjustmentWindowSize+1, targetMs*4)
	slowBits, err := New(&params, slowStore).NextRequiredDifficulty(mstime.Now())
	if err != nil {
		t.Fatalf("NextRequiredDifficulty: %+v", err)
	}
	if difficulty.CompactToBig(slowBits).Cmp(params.PowLimit) > 0 {
		t.Errorf("a slow window pushed the target above the proof-of-work limit")
	}
}

func signedTransaction(t *testing.T, payload []byte) *model.DomainTransaction {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %+v", err)
	}
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		t.Fatalf("SchnorrPublicKey: %+v", err)
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %+v", err)
	}
	signer, err := model.NewDomainSignerIDFromByteSlice(serializedPublicKey[:])
	if err != nil {
		t.Fatalf("NewDomainSignerIDFromByteSlice: %+v", err)
	}

	tx := &model.DomainTransaction{
		Signer:  *signer,
		Nonce:   1,
		Payload: payload,
	}
	signingHash := secp256k1.Hash(*consensushashing.TransactionSigningHash(tx).ByteArray())
	signature, err := keyPair.SchnorrSign(&signingHash)
	if err != nil {
		t.Fatalf("SchnorrSign: %+v", err)
	}
	tx.Signature = signature.Serialize()[:]
	return tx
}

func TestCheckTransactionAllowed(t *testing.T) {
	params := chainparams.SimnetParams
	testPolicy := New(&params, &fakeChainStore{})

	validTx := signedTransaction(t, []byte("transfer"))
	if err := testPolicy.CheckTransactionAllowed(validTx); err != nil {
		t.Errorf("a well-formed signed transaction was rejected: %+v", err)
	}

	tamperedTx := validTx.Clone()
	tamperedTx.Payload = []byte("transfer more")
	tamperedTx.ID = nil
	if err := testPolicy.CheckTransactionAllowed(tamperedTx); err == nil {
		t.Errorf("a transaction with a tampered payload was accepted")
	}

	oversizedTx := signedTransaction(t, make([]byte, params.MaxPayloadBytes+1))
	if err := testPolicy.CheckTransactionAllowed(oversizedTx); err == nil {
		t.Errorf("a transaction with an oversized payload was accepted")
	}
}

func TestMaxTransactionsPerSignerShrinksWithChainLength(t *testing.T) {
	params := chainparams.SimnetParams
	testPolicy := New(&params, &fakeChainStore{})

	base := testPolicy.MaxTransactionsPerSigner(0)
	if base != params.BaseTransactionsPerSigner {
		t.Errorf("ceiling at genesis is %d, want %d", base, params.BaseTransactionsPerSigner)
	}
	halved := testPolicy.MaxTransactionsPerSigner(signerCeilingHalvingInterval)
	if halved != base/2 {
		t.Errorf("ceiling after one halving interval is %d, want %d", halved, base/2)
	}
	if floor := testPolicy.MaxTransactionsPerSigner(1 << 62); floor != 1 {
		t.Errorf("ceiling never drops below one, got %d", floor)
	}
}
