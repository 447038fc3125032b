package match

import (
	"math"

	"github.com/linqiu/onebill/internal/model"
)

// Confidence weights and factors. The base score blends date
// proximity, text similarity, and direction agreement; the factors
// discount multipart, cross-channel, reused, and tolerance-stretched
// resolutions.
const (
	weightDate      = 0.45
	weightText      = 0.35
	weightDirection = 0.20

	directionPenaltyStep = 0.35
	multipartStep        = 0.12
	multipartFloor       = 0.55
	crossChannelFactor   = 0.9
	reuseFactor          = 0.6
)

// Confidence turns the score components of a resolution into a single
// value in [0,1], rounded to three decimal places. It is a pure
// function of its input.
func Confidence(p model.ScoreParts) float64 {
	dateScore := math.Max(0, 1-float64(p.DateGap)/float64(p.Window+1))
	textScore := float64(p.Similarity) / 100

	directionScore := 1.0
	if p.DirectionPenalty > 0 {
		directionScore = math.Max(0, 1-directionPenaltyStep*float64(p.DirectionPenalty))
	}

	c := clamp01(weightDate*dateScore + weightText*textScore + weightDirection*directionScore)

	if p.Parts > 1 {
		c *= math.Max(multipartFloor, 1-multipartStep*float64(p.Parts-1))
	}
	if p.CrossChannel {
		c *= crossChannelFactor
	}
	if p.Reused {
		c *= reuseFactor
	}
	c *= amountToleranceFactor(p)

	return math.Round(clamp01(c)*1000) / 1000
}

// amountToleranceFactor discounts fuzzy resolutions by the fraction of
// the tolerance budget the amount gap consumed. Exact amounts keep a
// factor of 1.
func amountToleranceFactor(p model.ScoreParts) float64 {
	if p.AmountGap.IsZero() || p.AmountTolerance.IsZero() {
		return 1
	}
	consumed, _ := p.AmountGap.Div(p.AmountTolerance).Float64()
	return math.Max(0, 1-consumed)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
