package policy

import (
	"math/big"

	"github.com/embernet/emberd/util/difficulty"
	"github.com/embernet/emberd/util/mstime"
)

// NextRequiredDifficulty returns the difficulty bits a block created at the
// given time must meet to extend the current tip. The required target is the
// average target of a trailing window of blocks, scaled by how fast that
// window was actually mined relative to the target block rate.
func (p *Policy) NextRequiredDifficulty(newBlockTime mstime.Time) (uint32, error) {
	chainLength, err := p.chainStore.ChainLength()
	if err != nil {
		return 0, err
	}

	// Until a full adjustment window exists the chain mines at the
	// difficulty floor.
	windowSize := p.params.DifficultyAdjustmentWindowSize
	if chainLength < windowSize+1 {
		return p.params.PowLimitBits, nil
	}

	targetSum := new(big.Int)
	var windowMinTimestamp, windowMaxTimestamp int64
	for index := chainLength - windowSize; index < chainLength; index++ {
		header, err := p.chainStore.HeaderAtIndex(index)
		if err != nil {
			return 0, err
		}
		targetSum.Add(targetSum, difficulty.CompactToBig(header.Bits))
		if windowMinTimestamp == 0 || header.TimeInMilliseconds < windowMinTimestamp {
			windowMinTimestamp = header.TimeInMilliseconds
		}
		if header.TimeInMilliseconds > windowMaxTimestamp {
			windowMaxTimestamp = header.TimeInMilliseconds
		}
	}

	averageTarget := targetSum.Div(targetSum, new(big.Int).SetUint64(windowSize))

	windowDuration := windowMaxTimestamp - windowMinTimestamp
	if windowDuration < 1 {
		windowDuration = 1
	}
	expectedDuration := p.params.TargetTimePerBlock.Milliseconds() * int64(windowSize-1)

	newTarget := averageTarget.Mul(averageTarget, big.NewInt(windowDuration))
	newTarget.Div(newTarget, big.NewInt(expectedDuration))
	if newTarget.Cmp(p.params.PowLimit) > 0 {
		newTarget.Set(p.params.PowLimit)
	}
	return difficulty.BigToCompact(newTarget), nil
}
