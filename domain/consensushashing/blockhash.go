package consensushashing

import (
	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/hashes"
	"github.com/embernet/emberd/domain/model"
	"github.com/embernet/emberd/domain/serialization"
)

// HeaderHash returns the identity hash of the given header, computed with the
// hash algorithm the header is tagged with. Every header field participates,
// including the state root: embedding a state root after mining yields a new
// block identity.
func HeaderHash(header *model.DomainBlockHeader) *model.DomainHash {
	writer := hashes.NewBlockHashWriter(header.HashAlgorithm)
	err := serialization.SerializeHeader(writer, header)
	if err != nil {
		// It never returns an error when writing to a hash writer
		panic(errors.Wrap(err, "this should never happen. SerializeHeader cannot fail writing to a hash writer"))
	}
	return writer.Finalize()
}

// BlockHash returns the identity hash of the given block, which is the hash
// of its header.
func BlockHash(block *model.DomainBlock) *model.DomainHash {
	return HeaderHash(block.Header)
}
