package tokenizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/echoface/proximityhash"
	"github.com/mmcloughlin/geohash"
)

const defaultGeoPrecision = 6

// GeoHash turn a location into the geohash cells around it, so that two near
// locations share tokens. accepted value format:
// "lat:lon"         the cell of the point and its 8 neighbours
// "lat:lon:radius"  cells covering the circle, radius in meter
// geohash长度	误差距离（km）
//
//	4	            ±20
//	5	            ±2.4
//	6	            ±0.61
//	7	            ±0.076
type GeoHash struct {
	precision uint
}

func NewGeoHash(precision uint) *GeoHash {
	if precision == 0 {
		precision = defaultGeoPrecision
	}
	return &GeoHash{precision: precision}
}

func (t *GeoHash) Kind() Kind {
	return KindGeoHash
}

func (t *GeoHash) Precision() uint {
	return t.precision
}

func (t *GeoHash) Tokenize(value string) ([]string, error) {
	if IsBlank(value) {
		return []string{}, nil
	}
	lat, lon, r, err := parseLocation(value)
	if err != nil {
		return nil, fmt.Errorf("value:%s parse fail, err:%w", value, err)
	}
	if r > 0 {
		return proximityhash.CreateGeohash(lat, lon, r, t.precision), nil
	}
	cell := geohash.EncodeWithPrecision(lat, lon, t.precision)
	return append([]string{cell}, geohash.Neighbors(cell)...), nil
}

func parseLocation(s string) (lat, lon, r float64, err error) {
	ss := strings.Split(strings.TrimSpace(s), ":")
	if len(ss) != 2 && len(ss) != 3 {
		return 0, 0, 0, fmt.Errorf("fmt error, need lat:lon[:radius]")
	}
	if lat, err = strconv.ParseFloat(ss[0], 64); err != nil {
		return
	}
	if lon, err = strconv.ParseFloat(ss[1], 64); err != nil {
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, 0, fmt.Errorf("lat/lon out of range")
	}
	if len(ss) == 3 {
		if r, err = strconv.ParseFloat(ss[2], 64); err != nil {
			return
		}
		if r < 0 {
			return 0, 0, 0, fmt.Errorf("negative radius")
		}
	}
	return
}
