package weather

// aqiLabels maps the provider's 1-5 air quality index to a label.
var aqiLabels = map[int]string{
	1: "Good",
	2: "Fair",
	3: "Moderate",
	4: "Poor",
	5: "Very Poor",
}

// AirQualityLabel returns the label for an AQI level, or "Unknown".
func AirQualityLabel(aqi int) string {
	if label, ok := aqiLabels[aqi]; ok {
		return label
	}
	return "Unknown"
}
