package wmo

// AWEKAS weather condition codes that can be derived from a disdrometer.
// Cloud cover states (1..6) need a sky sensor and are never produced here.
const (
	AwekasNotSet          = 0
	AwekasFog             = 7
	AwekasRainShowers     = 8
	AwekasHeavyShowers    = 9
	AwekasLightRain       = 10
	AwekasRain            = 11
	AwekasHeavyRain       = 12
	AwekasLightSnow       = 13
	AwekasSnow            = 14
	AwekasLightSnowShower = 15
	AwekasSnowShowers     = 16
	AwekasSleet           = 17
	AwekasHail            = 18
	AwekasThunderstorm    = 19
	AwekasStorm           = 20
	AwekasFreezingRain    = 21
	AwekasDrizzle         = 23
	AwekasHeavySnow       = 24
)

var awekasByWW = map[Code]int{
	17: AwekasThunderstorm, 18: AwekasStorm,
	WWDrizzle: AwekasDrizzle, WWRain: AwekasRain, WWSnow: AwekasSnow,
	WWRainAndSnow: AwekasSleet, WWFreezing: AwekasFreezingRain,
	WWRainShowers: AwekasRainShowers, WWSnowShowers: AwekasSnowShowers,
	WWHail: AwekasHail, WWFog: AwekasFog, WWThunderstorm: AwekasThunderstorm,
	50: AwekasDrizzle, 51: AwekasDrizzle, 52: AwekasDrizzle, 53: AwekasDrizzle, 54: AwekasDrizzle, 55: AwekasDrizzle,
	56: AwekasFreezingRain, 57: AwekasFreezingRain, 58: AwekasLightRain, 59: AwekasRain,
	60: AwekasLightRain, 61: AwekasLightRain, 62: AwekasRain, 63: AwekasRain, 64: AwekasHeavyRain, 65: AwekasHeavyRain,
	66: AwekasFreezingRain, 67: AwekasFreezingRain, 68: AwekasSleet, 69: AwekasSleet,
	70: AwekasLightSnow, 71: AwekasLightSnow, 72: AwekasSnow, 73: AwekasSnow, 74: AwekasHeavySnow, 75: AwekasHeavySnow,
	76: AwekasLightSnow, 77: AwekasLightSnow, 78: AwekasLightSnow, 79: AwekasSleet,
	80: AwekasRainShowers, 81: AwekasRainShowers, 82: AwekasHeavyShowers, 83: AwekasSleet, 84: AwekasSleet,
	85: AwekasLightSnowShower, 86: AwekasSnowShowers,
	87: AwekasHail, 88: AwekasHail, 89: AwekasHail, 90: AwekasHail,
	91: AwekasThunderstorm, 92: AwekasThunderstorm, 93: AwekasThunderstorm, 94: AwekasThunderstorm,
	95: AwekasThunderstorm, 96: AwekasThunderstorm, 97: AwekasThunderstorm, 98: AwekasThunderstorm, 99: AwekasThunderstorm,
}

var awekasByWawa = map[Code]int{
	18:      AwekasStorm,
	WawaFog: AwekasFog, WawaPrecipitation: AwekasRain, WawaDrizzle: AwekasDrizzle, WawaRain: AwekasRain,
	WawaSnow: AwekasSnow, WawaFreezing: AwekasFreezingRain, WawaThunderstorm: AwekasThunderstorm,
	30: AwekasFog, 31: AwekasFog, 32: AwekasFog, 33: AwekasFog, 34: AwekasFog, 35: AwekasFog,
	40: AwekasLightRain, 41: AwekasLightRain, 42: AwekasHeavyRain, 43: AwekasLightRain, 44: AwekasHeavyRain,
	45: AwekasLightSnow, 46: AwekasHeavySnow, 47: AwekasFreezingRain, 48: AwekasFreezingRain,
	50: AwekasDrizzle, 51: AwekasDrizzle, 52: AwekasDrizzle, 53: AwekasDrizzle,
	54: AwekasFreezingRain, 55: AwekasFreezingRain, 56: AwekasFreezingRain, 57: AwekasLightRain, 58: AwekasRain,
	60: AwekasRain, 61: AwekasLightRain, 62: AwekasRain, 63: AwekasHeavyRain,
	64: AwekasFreezingRain, 65: AwekasFreezingRain, 66: AwekasFreezingRain, 67: AwekasSleet, 68: AwekasSleet,
	70: AwekasSnow, 71: AwekasLightSnow, 72: AwekasSnow, 73: AwekasHeavySnow, 74: AwekasLightSnow,
	75: AwekasSnow, 76: AwekasHeavySnow, 77: AwekasLightSnow, 78: AwekasLightSnow,
	80: AwekasRainShowers, 81: AwekasRainShowers, 82: AwekasRainShowers, 83: AwekasHeavyShowers, 84: AwekasHeavyShowers,
	85: AwekasLightSnowShower, 86: AwekasSnowShowers, 87: AwekasSnowShowers, 89: AwekasHail,
	90: AwekasThunderstorm, 91: AwekasThunderstorm, 92: AwekasThunderstorm, 93: AwekasThunderstorm,
	94: AwekasThunderstorm, 95: AwekasThunderstorm, 96: AwekasThunderstorm,
}

// AWEKAS returns the AWEKAS condition code for a ww/wawa pair. ww takes
// precedence; wawa is used when ww is absent or has no mapping.
func AWEKAS(ww, wawa Code) int {
	if c, ok := awekasByWW[ww]; ok {
		return c
	}
	if c, ok := awekasByWawa[wawa]; ok {
		return c
	}
	return AwekasNotSet
}
