package domain

// CityProfile is the monthly climatology of one city, indexed by zero-based month.
type CityProfile struct {
	Name               string
	MonthlyTemperature [12]float64 // mean °C
	MonthlyRainfall    [12]float64 // mean mm
}

// Climate returns the mean temperature and rainfall for month.
func (c CityProfile) Climate(month int) (temperature, rainfall float64) {
	m := NormalizeMonth(month)
	return c.MonthlyTemperature[m], c.MonthlyRainfall[m]
}
