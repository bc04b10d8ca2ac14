package simjoin

import (
	"math"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestCeilEps(t *testing.T) {
	convey.Convey("float noise never tighten a bound", t, func() {
		// constant expressions are exact, runtime ones are not
		x, y := 0.3, 4.35
		convey.So(x*10 > 3, convey.ShouldBeTrue)
		convey.So(ceilEps(x*10), convey.ShouldEqual, 3)
		convey.So(y*100 < 435, convey.ShouldBeTrue)
		convey.So(floorEps(y*100), convey.ShouldEqual, 435)
		convey.So(ceilEps(3.2), convey.ShouldEqual, 4)
		convey.So(floorEps(0.7*10), convey.ShouldEqual, 7)
		convey.So(floorEps(6.9), convey.ShouldEqual, 6)
	})

	convey.Convey("out of range bounds saturate", t, func() {
		convey.So(floorEps(1e30), convey.ShouldEqual, math.MaxInt)
		convey.So(ceilEps(-1e30), convey.ShouldEqual, math.MinInt)
		convey.So(floorEps(2/(1e-10*1e-10)), convey.ShouldEqual, math.MaxInt)
	})
}

func TestPrefixLength(t *testing.T) {
	convey.Convey("prefix length of measures", t, func() {
		convey.So(PrefixLength(Overlap, 5, 2, 0), convey.ShouldEqual, 4)
		convey.So(PrefixLength(Overlap, 1, 2, 0), convey.ShouldEqual, 0)
		convey.So(PrefixLength(Jaccard, 10, 0.8, 0), convey.ShouldEqual, 3)
		convey.So(PrefixLength(Jaccard, 10, 0.3, 0), convey.ShouldEqual, 8)
		convey.So(PrefixLength(Cosine, 10, 0.5, 0), convey.ShouldEqual, 8)
		convey.So(PrefixLength(Dice, 9, 0.5, 0), convey.ShouldEqual, 7)
		convey.So(PrefixLength(OverlapCoefficient, 6, 0.9, 0), convey.ShouldEqual, 6)
		convey.So(PrefixLength(EditDistance, 10, 2, 3), convey.ShouldEqual, 7)
		convey.So(PrefixLength(EditDistance, 4, 2, 3), convey.ShouldEqual, 4)
		convey.So(PrefixLength(Jaccard, 0, 0.5, 0), convey.ShouldEqual, 0)
	})

	convey.Convey("tiny thresholds index the whole record", t, func() {
		for _, m := range []Measure{Jaccard, Cosine, Dice, OverlapCoefficient} {
			for _, th := range []float64{1e-6, 1e-10, 1e-19} {
				convey.So(PrefixLength(m, 7, th, 0), convey.ShouldEqual, 7)
			}
		}
		convey.So(PrefixLength(EditDistance, 5, 4e18, 2), convey.ShouldEqual, 5)
		convey.So(PrefixLength(EditDistance, 5, float64(math.MaxInt), 2), convey.ShouldEqual, 5)
	})

	convey.Convey("prefix never grow with the threshold", t, func() {
		for _, m := range []Measure{Jaccard, Cosine, Dice, OverlapCoefficient} {
			for n := 1; n <= 40; n++ {
				last := math.MaxInt
				for th := 0.05; th <= 1.0+1e-12; th += 0.05 {
					p := PrefixLength(m, n, th, 0)
					convey.So(p, convey.ShouldBeLessThanOrEqualTo, last)
					convey.So(p, convey.ShouldBeGreaterThanOrEqualTo, 1)
					convey.So(p, convey.ShouldBeLessThanOrEqualTo, n)
					last = p
				}
			}
		}
		for n := 1; n <= 20; n++ {
			last := math.MaxInt
			for th := 1.0; th <= 25; th++ {
				p := PrefixLength(Overlap, n, th, 0)
				convey.So(p, convey.ShouldBeLessThanOrEqualTo, last)
				last = p
			}
		}
	})
}

func TestSizeBounds(t *testing.T) {
	convey.Convey("size bounds", t, func() {
		lo, hi := SizeBounds(Jaccard, 10, 0.5)
		convey.So(lo, convey.ShouldEqual, 5)
		convey.So(hi, convey.ShouldEqual, 20)

		lo, hi = SizeBounds(Cosine, 8, 0.5)
		convey.So(lo, convey.ShouldEqual, 2)
		convey.So(hi, convey.ShouldEqual, 32)

		lo, hi = SizeBounds(Dice, 6, 0.5)
		convey.So(lo, convey.ShouldEqual, 2)
		convey.So(hi, convey.ShouldEqual, 18)

		lo, hi = SizeBounds(Overlap, 3, 2)
		convey.So(lo, convey.ShouldEqual, 2)
		convey.So(hi, convey.ShouldEqual, math.MaxInt)

		lo, _ = SizeBounds(OverlapCoefficient, 3, 0.9)
		convey.So(lo, convey.ShouldEqual, 1)
	})

	convey.Convey("tiny thresholds keep every size", t, func() {
		for _, m := range []Measure{Jaccard, Cosine, Dice} {
			for _, th := range []float64{1e-6, 1e-10, 1e-19} {
				lo, hi := SizeBounds(m, 2, th)
				convey.So(lo, convey.ShouldBeBetweenOrEqual, 0, 1)
				convey.So(hi, convey.ShouldBeGreaterThanOrEqualTo, 1000)
			}
		}
		_, hi := SizeBounds(Cosine, 2, 1e-10)
		convey.So(hi, convey.ShouldEqual, math.MaxInt)
		_, hi = SizeBounds(Jaccard, 2, 1e-19)
		convey.So(hi, convey.ShouldEqual, math.MaxInt)
	})
}

func TestOverlapThreshold(t *testing.T) {
	convey.Convey("overlap threshold", t, func() {
		convey.So(OverlapThreshold(Jaccard, 2, 2, 0.5), convey.ShouldEqual, 2)
		convey.So(OverlapThreshold(Jaccard, 4, 6, 0.5), convey.ShouldEqual, 4)
		convey.So(OverlapThreshold(Cosine, 4, 9, 0.5), convey.ShouldEqual, 3)
		convey.So(OverlapThreshold(Dice, 4, 6, 0.5), convey.ShouldEqual, 3)
		convey.So(OverlapThreshold(Overlap, 4, 6, 2.5), convey.ShouldEqual, 3)
		convey.So(OverlapThreshold(OverlapCoefficient, 4, 6, 0.5), convey.ShouldEqual, 2)
	})
}

func TestEditBound(t *testing.T) {
	convey.Convey("edit distance integer bound", t, func() {
		convey.So(editBound(LE, 2.7), convey.ShouldEqual, 2)
		convey.So(editBound(LT, 2), convey.ShouldEqual, 1)
		convey.So(editBound(LT, 2.5), convey.ShouldEqual, 2)
		convey.So(editBound(LT, 0), convey.ShouldEqual, -1)
		convey.So(editBound(GE, 2), convey.ShouldEqual, -1)
	})

	convey.Convey("huge thresholds saturate instead of wrapping", t, func() {
		convey.So(editBound(LE, 1e19), convey.ShouldEqual, math.MaxInt)
		convey.So(editBound(LT, 1e19), convey.ShouldEqual, math.MaxInt)
		convey.So(editBound(LT, -1e19), convey.ShouldBeLessThan, 0)
		convey.So(validateThreshold(EditDistance, LE, 1e19), convey.ShouldBeNil)
		convey.So(validateThreshold(EditDistance, LT, -1e19), convey.ShouldNotBeNil)
	})
}
