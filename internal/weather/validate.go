package weather

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput is returned when engine input violates its contract.
var ErrInvalidInput = errors.New("invalid input")

var validate = validator.New()

type numericField struct {
	name  string
	value float64
}

// checkFinite reports the first field, in declaration order, that is NaN or infinite.
func checkFinite(fields []numericField) error {
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: field %s is not a finite number", ErrInvalidInput, f.name)
		}
	}
	return nil
}

// ValidateEntry checks a single forecast entry.
func ValidateEntry(e ForecastEntry) error {
	if err := checkFinite([]numericField{
		{"Temperature", e.Temperature},
		{"FeelsLike", e.FeelsLike},
		{"TempMin", e.TempMin},
		{"TempMax", e.TempMax},
		{"Humidity", e.Humidity},
		{"Pressure", e.Pressure},
		{"WindSpeed", e.WindSpeed},
		{"CloudPct", e.CloudPct},
		{"PrecipProbability", e.PrecipProbability},
		{"RainMM3h", e.RainMM3h},
		{"SnowMM3h", e.SnowMM3h},
	}); err != nil {
		return err
	}
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}
	return nil
}

// ValidateEntries checks every entry and reports the first bad index.
func ValidateEntries(entries []ForecastEntry) error {
	for i, e := range entries {
		if err := ValidateEntry(e); err != nil {
			return fmt.Errorf("forecast entry %d: %w", i, err)
		}
	}
	return nil
}

// ValidateConditions checks a current-conditions snapshot.
func ValidateConditions(c CurrentConditions) error {
	if err := checkFinite([]numericField{
		{"Temperature", c.Temperature},
		{"Humidity", c.Humidity},
		{"Pressure", c.Pressure},
		{"WindSpeed", c.WindSpeed},
		{"CloudPct", c.CloudPct},
		{"Latitude", c.Latitude},
		{"Longitude", c.Longitude},
	}); err != nil {
		return fmt.Errorf("current conditions: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("current conditions: %w: %s", ErrInvalidInput, describeValidation(err))
	}
	return nil
}

// ValidateCoordinates checks that a location is finite and within range.
func ValidateCoordinates(c Coordinates) error {
	if err := checkFinite([]numericField{{"Lat", c.Lat}, {"Lon", c.Lon}}); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}
	return nil
}

// ParseUnits maps a query value to a unit system; empty means metric.
func ParseUnits(s string) (Units, error) {
	switch Units(s) {
	case "":
		return UnitsMetric, nil
	case UnitsMetric, UnitsImperial, UnitsStandard:
		return Units(s), nil
	default:
		return "", fmt.Errorf("%w: unknown units %q", ErrInvalidInput, s)
	}
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("field %s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag())
	}
	return err.Error()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
