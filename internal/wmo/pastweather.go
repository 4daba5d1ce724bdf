package wmo

// PastWeatherBuckets is the number of past weather categories in WMO tables
// 4561 (W) and 4531 (Wa).
const PastWeatherBuckets = 10

// Histogram holds seconds spent in each past weather category.
type Histogram [PastWeatherBuckets]int64

// PastWeatherW maps ww to its W category (table 4561):
// 3 blowing phenomena, 4 fog, 5 drizzle, 6 rain, 7 snow or mixed,
// 8 showers, 9 thunderstorm. ok is false for ww that is not significant.
func PastWeatherW(ww Code) (w int, ok bool) {
	switch {
	case !ww.Valid():
		return 0, false
	case ww == WWThunderstorm || ww == 17 || ww >= 91:
		return 9, true
	case ww >= 80 || ww == WWRainShowers || ww == WWSnowShowers || ww == WWHail:
		return 8, true
	case ww >= 68 || ww == WWSnow || ww == WWRainAndSnow:
		return 7, true
	case ww >= 60 || ww == WWRain || ww == WWFreezing:
		return 6, true
	case ww >= 50 || ww == WWDrizzle:
		return 5, true
	case ww >= 40 || ww == WWFog:
		return 4, true
	case ww >= 30 || (ww >= 7 && ww <= 9):
		return 3, true
	}
	return 0, false
}

// PastWeatherWa maps wawa to its Wa category (table 4531):
// 1 reduced visibility, 2 blowing phenomena, 3 fog, 4 precipitation,
// 5 drizzle, 6 rain, 7 snow or ice pellets, 8 showers, 9 thunderstorm.
func PastWeatherWa(wawa Code) (wa int, ok bool) {
	switch {
	case !wawa.Valid():
		return 0, false
	case wawa >= 90 || wawa == WawaThunderstorm:
		return 9, true
	case wawa >= 80:
		return 8, true
	case wawa >= 70 || wawa == 45 || wawa == 46 || wawa == WawaSnow:
		return 7, true
	case wawa >= 60 || wawa == 43 || wawa == 44 || wawa == 47 || wawa == 48 || wawa == WawaRain || wawa == WawaFreezing:
		return 6, true
	case wawa >= 50 || wawa == WawaDrizzle:
		return 5, true
	case wawa >= 40 || wawa == WawaPrecipitation:
		return 4, true
	case wawa >= 30 || wawa == WawaFog:
		return 3, true
	case wawa >= 27 && wawa <= 29:
		return 2, true
	case wawa == 4 || wawa == 5 || wawa == 10:
		return 1, true
	}
	return 0, false
}

// Derive returns the two past weather codes from a duration histogram:
// the highest and second highest categories that were observed. When only
// one category occurred both codes carry it; with none both are zero.
func (h Histogram) Derive() (first, second int) {
	found := make([]int, 0, 2)
	for i := PastWeatherBuckets - 1; i > 0 && len(found) < 2; i-- {
		if h[i] > 0 {
			found = append(found, i)
		}
	}
	switch len(found) {
	case 0:
		return 0, 0
	case 1:
		return found[0], found[0]
	}
	return found[0], found[1]
}
