package simjoin

import (
	"math"
)

// boundEps keep float rounding from tightening a bound, eg: 0.3*10 give
// 3.0000000000000004 whose plain ceil is 4
const boundEps = 1e-9

func ceilEps(x float64) int {
	return clampInt(math.Ceil(x - boundEps))
}

func floorEps(x float64) int {
	return clampInt(math.Floor(x + boundEps))
}

// clampInt convert a integral float, saturating instead of wrapping when it's
// out of the int range, eg: n/t for a tiny t
func clampInt(v float64) int {
	switch {
	case v >= math.MaxInt:
		return math.MaxInt
	case v <= math.MinInt:
		return math.MinInt
	}
	return int(v)
}

// editBound the integer distance bound a edit distance join can use,
// -1 means nothing can satisfy it
func editBound(op Operator, t float64) int {
	switch op {
	case LE:
		return clampInt(math.Floor(t))
	case LT:
		return clampInt(math.Ceil(t) - 1)
	}
	return -1
}

// RequiredOverlap the minimal overlap any partner must share with a record of
// n tokens to reach threshold t
func RequiredOverlap(m Measure, n int, t float64) int {
	switch m {
	case Overlap:
		return ceilEps(t)
	case Jaccard:
		return ceilEps(t * float64(n))
	case Cosine:
		return ceilEps(t * t * float64(n))
	case Dice:
		return ceilEps(t / (2 - t) * float64(n))
	case OverlapCoefficient:
		return 1
	}
	return 1
}

// PrefixLength number of leading ordered tokens a record of size n post/probe,
// 0 means the record can not satisfy the threshold at all. for edit distance
// t is the integer distance bound and q the gram length
func PrefixLength(m Measure, n int, t float64, q int) int {
	if n <= 0 {
		return 0
	}
	if m == EditDistance {
		if t >= float64(n) {
			return n
		}
		return min(q*int(t)+1, n)
	}
	required := RequiredOverlap(m, n, t)
	if required < 1 {
		required = 1
	}
	if required > n {
		return 0
	}
	return n - required + 1
}

// SizeBounds the [lower, upper] token count range of a possible partner
func SizeBounds(m Measure, n int, t float64) (int, int) {
	fn := float64(n)
	switch m {
	case Jaccard:
		return ceilEps(t * fn), floorEps(fn / t)
	case Cosine:
		return ceilEps(t * t * fn), floorEps(fn / (t * t))
	case Dice:
		return ceilEps(t / (2 - t) * fn), floorEps((2 - t) / t * fn)
	case Overlap:
		return max(ceilEps(t), 1), math.MaxInt
	}
	return 1, math.MaxInt
}

// OverlapThreshold the minimal overlap a pair of sizes nl and nr need
func OverlapThreshold(m Measure, nl, nr int, t float64) int {
	l, r := float64(nl), float64(nr)
	switch m {
	case Overlap:
		return ceilEps(t)
	case Jaccard:
		return ceilEps(t / (1 + t) * (l + r))
	case Cosine:
		return ceilEps(t * math.Sqrt(l*r))
	case Dice:
		return ceilEps(t / 2 * (l + r))
	case OverlapCoefficient:
		return ceilEps(t * math.Min(l, r))
	}
	return 1
}
