package mining

import (
	"github.com/pkg/errors"
)

// ErrStaleTip is returned by Mine when the chain tip moved while the mining
// attempt was in flight. It is distinct from caller cancellation: the caller
// typically restarts mining on top of the new tip.
var ErrStaleTip = errors.New("chain tip changed while mining was in flight")
