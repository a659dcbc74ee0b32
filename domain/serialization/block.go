package serialization

import (
	"io"

	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/util/binaryserializer"
)

// maxTransactionsAllocation caps the slice preallocated for a declared
// transaction count, protecting deserialization from malformed input.
const maxTransactionsAllocation = 1 << 20

// SerializeBlock serializes the given block into w
func SerializeBlock(w io.Writer, block *model.DomainBlock) error {
	err := SerializeHeader(w, block.Header)
	if err != nil {
		return err
	}
	err = binaryserializer.PutUint64(w, uint64(len(block.Transactions)))
	if err != nil {
		return err
	}
	for _, tx := range block.Transactions {
		err = SerializeTransaction(w, tx)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeserializeBlock deserializes a block out of r
func DeserializeBlock(r io.Reader) (*model.DomainBlock, error) {
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, err
	}
	numTransactions, err := binaryserializer.Uint64(r)
	if err != nil {
		return nil, err
	}
	if numTransactions > maxTransactionsAllocation {
		return nil, errors.Errorf("declared transaction count %d is larger "+
			"than the allowed maximum %d", numTransactions, maxTransactionsAllocation)
	}
	transactions := make([]*model.DomainTransaction, 0, numTransactions)
	for i := uint64(0); i < numTransactions; i++ {
		tx, err := DeserializeTransaction(r)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return &model.DomainBlock{
		Header:       header,
		Transactions: transactions,
	}, nil
}

// BlockSize returns the size, in bytes, of the block's serialized form. The
// per-block byte ceiling is defined over this size.
func BlockSize(block *model.DomainBlock) uint64 {
	size := HeaderSize(block.Header) + 8
	for _, tx := range block.Transactions {
		size += TransactionSize(tx)
	}
	return size
}
