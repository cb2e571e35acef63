package cetd

import "math"

// Scorer computes the composite text density of a node. body is the root of
// the tree and carries the page-wide totals. Implementations may return
// non-finite values; the tree clamps them.
type Scorer interface {
	TextDensity(n, body DensityNode) float64
}

// LogDensityScorer is the default scorer:
//
//	(Ci / max(Ti,1)) * (1 - LCi/Ci) * ln(1 + Ci)
//
// It grows with the amount of text, shrinks with the link ratio and is 0
// when all text is link text.
type LogDensityScorer struct{}

func (LogDensityScorer) TextDensity(n, _ DensityNode) float64 {
	if n.CharCount == 0 {
		return 0
	}
	c := float64(n.CharCount)
	t := float64(max(n.TagCount, 1))
	linkRatio := float64(n.LinkCharCount) / c
	return (c / t) * (1 - linkRatio) * math.Log1p(c)
}

// PaperScorer is the composite text density of Sun, Song and Liao (2011):
//
//	(Ci/Ti) * log_{ln(Ci/nLCi*LCi + LCb/Cb*Ci + e)}((Ci/LCi) * (Ti/LTi))
//
// where nLCi is the non-link character count and b denotes the body. Zero
// denominators are taken as 1. The argument divides by the node's own link
// characters LCi as published, not by the body's LCb. When neither the node
// nor the body has link text the base degenerates to ln(e) = 1; the score is
// then (Ci/Ti) * ln(arg), the value the formula tends to as link text
// vanishes.
type PaperScorer struct{}

func (PaperScorer) TextDensity(n, body DensityNode) float64 {
	if n.CharCount == 0 {
		return 0
	}
	c := float64(n.CharCount)
	t := nonZero(n.TagCount)
	lc := float64(n.LinkCharCount)
	lt := nonZero(n.LinkTagCount)
	nlc := nonZero(n.CharCount - n.LinkCharCount)
	cb := nonZero(body.CharCount)
	lcb := float64(body.LinkCharCount)

	base := math.Log(c/nlc*lc + lcb/cb*c + math.E)
	arg := (c / nonZero(n.LinkCharCount)) * (t / lt)
	if d := math.Log(base); d != 0 {
		return (c / t) * (math.Log(arg) / d)
	}
	return (c / t) * math.Log(arg)
}

func nonZero(v int) float64 {
	if v == 0 {
		return 1
	}
	return float64(v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
