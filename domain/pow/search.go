package pow

import (
	"math"

	"github.com/embernet/emberd/util/random"
)

// quitCheckInterval is the number of nonces tried between polls of the quit
// channel. Cancellation is cooperative: a batch already past its last poll
// runs to its end before the search notices the channel closed.
const quitCheckInterval = 512

// Search iterates nonces from a random starting point, wrapping around the
// nonce space, until it finds one whose proof-of-work value meets the
// state's target or the quit channel is closed. It returns the solved nonce
// and whether one was found. The state's Nonce field holds the last nonce
// tried either way.
func (state *State) Search(quit <-chan struct{}) (nonce uint64, found bool, err error) {
	initialNonce, err := random.Uint64()
	if err != nil {
		return 0, false, err
	}

	state.Nonce = initialNonce
	for i := uint64(0); i < math.MaxUint64; i++ {
		if i%quitCheckInterval == 0 {
			select {
			case <-quit:
				return 0, false, nil
			default:
			}
		}
		if state.CheckProofOfWork() {
			return state.Nonce, true, nil
		}
		state.Nonce++
	}
	return 0, false, nil
}
