package weather

import (
	"fmt"
	"math"
)

// Heuristic UV constants. They approximate clear-sky UV without a measured
// source and are kept literal.
const (
	uvMaxBase         = 8.0
	uvLatitudeDamping = 0.5
	uvCloudDamping    = 0.8
	uvSolarNoonHour   = 12
	uvFalloffHours    = 6.0
	uvDaylightStart   = 6
	uvDaylightEnd     = 18
	uvCeiling         = 11.0
)

type uvTier struct {
	upper          float64
	risk           string
	color          string
	recommendation string
}

// uvTiers is ordered by upper bound; the last tier is open-ended.
var uvTiers = []uvTier{
	{2, "Low", "green", "No protection needed. Safe to be outside."},
	{5, "Moderate", "yellow", "Wear sunglasses and use SPF 30+ sunscreen."},
	{7, "High", "orange", "Reduce time in the sun between 10am-4pm. Wear sunscreen, hat, and sunglasses."},
	{10, "Very High", "red", "Minimize sun exposure during midday hours. Shirt, sunscreen, and hat are a must."},
	{math.Inf(1), "Extreme", "purple", "Avoid sun exposure. Stay indoors if possible."},
}

// EstimateUV approximates the UV index from latitude, cloud cover and the
// hour of day the caller supplies.
func EstimateUV(latitude, cloudPct float64, hour int) (UVEstimate, error) {
	if hour < 0 || hour > 23 {
		return UVEstimate{}, fmt.Errorf("%w: hour %d outside 0-23", ErrInvalidInput, hour)
	}
	if math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return UVEstimate{}, fmt.Errorf("%w: latitude %v outside -90..90", ErrInvalidInput, latitude)
	}
	if math.IsNaN(cloudPct) || cloudPct < 0 || cloudPct > 100 {
		return UVEstimate{}, fmt.Errorf("%w: cloud cover %v outside 0..100", ErrInvalidInput, cloudPct)
	}

	uv := 0.0
	if hour >= uvDaylightStart && hour <= uvDaylightEnd {
		latFactor := math.Abs(latitude) / 90
		base := uvMaxBase * (1 - latFactor*uvLatitudeDamping)
		timeFactor := 1 - math.Abs(float64(uvSolarNoonHour-hour))/uvFalloffHours
		cloudFactor := 1 - (cloudPct/100)*uvCloudDamping
		uv = base * timeFactor * cloudFactor
	}

	uv = math.Max(0, math.Min(uvCeiling, uv))
	uv = math.Round(uv*10) / 10

	tier := uvTierFor(uv)
	return UVEstimate{
		Value:          uv,
		Risk:           tier.risk,
		Color:          tier.color,
		Recommendation: tier.recommendation,
		Estimated:      true,
	}, nil
}

func uvTierFor(uv float64) uvTier {
	for _, t := range uvTiers {
		if uv <= t.upper {
			return t
		}
	}
	return uvTiers[len(uvTiers)-1]
}
