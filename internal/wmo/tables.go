package wmo

// State-after groups for ww (20..29). A ww code is mapped to the group
// reported once the phenomenon has ended within the last hour.
const (
	WWDrizzle      Code = 20
	WWRain         Code = 21
	WWSnow         Code = 22
	WWRainAndSnow  Code = 23
	WWFreezing     Code = 24
	WWRainShowers  Code = 25
	WWSnowShowers  Code = 26
	WWHail         Code = 27
	WWFog          Code = 28
	WWThunderstorm Code = 29
)

// State-after groups for wawa (20..26).
const (
	WawaFog           Code = 20
	WawaPrecipitation Code = 21
	WawaDrizzle       Code = 22
	WawaRain          Code = 23
	WawaSnow          Code = 24
	WawaFreezing      Code = 25
	WawaThunderstorm  Code = 26
)

var wwGroups = map[Code][]Code{
	WWDrizzle:      {50, 51, 52, 53, 54, 55, 77},
	WWRain:         {58, 59, 60, 61, 62, 63, 64, 65, 91, 92},
	WWSnow:         {70, 71, 72, 73, 74, 75, 76, 78, 93, 94},
	WWRainAndSnow:  {68, 69, 79},
	WWFreezing:     {56, 57, 66, 67},
	WWRainShowers:  {80, 81, 82},
	WWSnowShowers:  {83, 84, 85, 86},
	WWHail:         {87, 88, 89, 90},
	WWFog:          {41, 42, 43, 44, 45, 46, 47, 48, 49},
	WWThunderstorm: {17, 95, 96, 97, 98, 99},
}

var wawaGroups = map[Code][]Code{
	WawaFog:           {30, 31, 32, 33, 34, 35},
	WawaPrecipitation: {40, 41, 42, 89},
	WawaDrizzle:       {50, 51, 52, 53, 57, 58, 77},
	WawaRain:          {43, 44, 60, 61, 62, 63, 67, 68, 80, 81, 82, 83, 84},
	WawaSnow:          {45, 46, 70, 71, 72, 73, 74, 75, 76, 78, 85, 86, 87},
	WawaFreezing:      {47, 48, 54, 55, 56, 64, 65, 66},
	WawaThunderstorm:  {90, 91, 92, 93, 94, 95, 96},
}

var (
	wwGroupOf   = invert(wwGroups)
	wawaGroupOf = invert(wawaGroups)
)

func invert(groups map[Code][]Code) map[Code]Code {
	m := make(map[Code]Code)
	for group, codes := range groups {
		for _, c := range codes {
			m[c] = group
		}
	}
	return m
}

// WWGroup returns the state-after group (20..29) for ww. Codes that belong
// to no group, including None, are returned unchanged.
func WWGroup(ww Code) Code {
	if g, ok := wwGroupOf[ww]; ok {
		return g
	}
	return ww
}

// WawaGroup returns the state-after group (20..26) for wawa. Codes that
// belong to no group are returned unchanged.
func WawaGroup(wawa Code) Code {
	if g, ok := wawaGroupOf[wawa]; ok {
		return g
	}
	return wawa
}

// Intensity classes.
const (
	IntensityUnknown  = 0
	IntensityLight    = 1
	IntensityModerate = 2
	IntensityHeavy    = 3
)

var wwIntensity = map[Code]int{
	50: 1, 51: 1, 52: 2, 53: 2, 54: 3, 55: 3, 56: 1, 57: 2, 58: 1, 59: 2,
	60: 1, 61: 1, 62: 2, 63: 2, 64: 3, 65: 3, 66: 1, 67: 2, 68: 1, 69: 2,
	70: 1, 71: 1, 72: 2, 73: 2, 74: 3, 75: 3,
	80: 1, 81: 2, 82: 3, 83: 1, 84: 2, 85: 1, 86: 2, 87: 1, 88: 2, 89: 1, 90: 2,
	91: 1, 92: 2, 93: 1, 94: 2, 95: 2, 96: 2, 97: 3, 98: 2, 99: 3,
}

var wawaIntensity = map[Code]int{
	41: 1, 42: 3, 43: 1, 44: 3, 45: 1, 46: 3, 47: 1, 48: 3,
	51: 1, 52: 2, 53: 3, 54: 1, 55: 2, 56: 3, 57: 1, 58: 2,
	61: 1, 62: 2, 63: 3, 64: 1, 65: 2, 66: 3, 67: 1, 68: 2,
	71: 1, 72: 2, 73: 3, 74: 1, 75: 2, 76: 3,
	81: 1, 82: 2, 83: 3, 84: 3, 85: 1, 86: 2, 87: 3,
	92: 1, 93: 3, 94: 1, 95: 3, 96: 3,
}

// Intensity returns the precipitation intensity class for a ww/wawa pair.
// ww is consulted first; the result is IntensityUnknown for codes without
// an intensity qualifier.
func Intensity(ww, wawa Code) int {
	if ww.Valid() && ww >= 50 {
		return wwIntensity[ww]
	}
	if wawa.Valid() {
		return wawaIntensity[wawa]
	}
	return IntensityUnknown
}

var (
	wwLiquid   = codeSet(50, 51, 52, 53, 54, 55, 58, 59, 60, 61, 62, 63, 64, 65)
	wawaLiquid = codeSet(43, 44, 50, 51, 52, 53, 57, 58, 60, 61, 62, 63)
)

func codeSet(codes ...Code) map[Code]bool {
	m := make(map[Code]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}

// IsLiquid reports whether the pair belongs to the drizzle, rain or
// drizzle-and-rain group.
func IsLiquid(ww, wawa Code) bool {
	if ww.Valid() {
		return wwLiquid[ww]
	}
	return wawaLiquid[wawa]
}
