package telegram

import "fmt"

// ThiesRainRollover is where the LNM precipitation amount counter wraps.
const ThiesRainRollover = 10000.0

// thiesBase lists the fields common to every LNM telegram variant. Field 1
// is the STX that leads each telegram and is stripped before decoding.
var thiesBase = []Field{
	{ID: 2, Desc: "device address", Width: 2, Kind: KindString},
	{ID: 3, Desc: "serial number", Width: 4, Semantic: "SNR", Kind: KindString},
	{ID: 4, Desc: "software version", Width: 4, Kind: KindString},
	{ID: 5, Desc: "sensor date", Width: 8, Kind: KindString},
	{ID: 6, Desc: "sensor time", Width: 8, Kind: KindString},
	{ID: 7, Desc: "5 minute mean SYNOP ww table 4677", Width: 2, Semantic: "ww5", Unit: "byte", Group: GroupWW, Kind: KindInteger},
	{ID: 8, Desc: "5 minute mean SYNOP wawa table 4680", Width: 2, Semantic: "wawa5", Unit: "byte", Group: GroupWawa, Kind: KindInteger},
	{ID: 9, Desc: "5 minute mean METAR table 4678", Width: 5, Semantic: "METAR5", Kind: KindString},
	{ID: 10, Desc: "5 minute mean intensity", Width: 7, Semantic: "rainRate5", Unit: "mm_per_hour", Group: "group_rainrate"},
	{ID: 11, Desc: "1 minute SYNOP ww table 4677", Width: 2, Semantic: SemanticWW, Unit: "byte", Group: GroupWW, Kind: KindInteger},
	{ID: 12, Desc: "1 minute SYNOP wawa table 4680", Width: 2, Semantic: SemanticWawa, Unit: "byte", Group: GroupWawa, Kind: KindInteger},
	{ID: 13, Desc: "1 minute METAR table 4678", Width: 5, Semantic: SemanticMETAR, Kind: KindString},
	{ID: 14, Desc: "1 minute intensity total precipitation", Width: 7, Semantic: SemanticRainRate, Unit: "mm_per_hour", Group: "group_rainrate"},
	{ID: 15, Desc: "1 minute intensity liquid precipitation", Width: 7, Semantic: "liquidRate", Unit: "mm_per_hour", Group: "group_rainrate"},
	{ID: 16, Desc: "1 minute intensity solid precipitation", Width: 7, Semantic: "solidRate", Unit: "mm_per_hour", Group: "group_rainrate"},
	{ID: 17, Desc: "precipitation amount", Width: 7, Semantic: SemanticRainAccu, Unit: "mm", Group: "group_rain"},
	{ID: 18, Desc: "1 minute visibility in precipitation", Width: 5, Semantic: SemanticMOR, Unit: "meter", Group: "group_distance"},
	{ID: 19, Desc: "1 minute radar reflectivity", Width: 4, Semantic: "dBZ", Unit: "db", Group: "group_db"},
	{ID: 20, Desc: "1 minute measuring quality", Width: 3, Semantic: "quality", Unit: "percent", Group: "group_percent"},
	{ID: 21, Desc: "1 minute maximum hail diameter", Width: 3, Semantic: "hailDiameter", Unit: "mm", Group: "group_rain"},
	{ID: 22, Desc: "status laser", Width: 1, Semantic: SemanticSensorState, Kind: KindInteger},
	{ID: 23, Desc: "static signal", Width: 1, Kind: KindInteger},
	{ID: 24, Desc: "status laser temperature (analogue)", Width: 1, Kind: KindInteger},
	{ID: 25, Desc: "status laser temperature (digital)", Width: 1, Kind: KindInteger},
	{ID: 26, Desc: "status laser current (analogue)", Width: 1, Kind: KindInteger},
	{ID: 27, Desc: "status laser current (digital)", Width: 1, Kind: KindInteger},
	{ID: 28, Desc: "status sensor supply", Width: 1, Kind: KindInteger},
	{ID: 29, Desc: "status current pane heating laser head", Width: 1, Kind: KindInteger},
	{ID: 30, Desc: "status current pane heating receiver head", Width: 1, Kind: KindInteger},
	{ID: 31, Desc: "status temperature sensor", Width: 1, Kind: KindInteger},
	{ID: 32, Desc: "status heating supply", Width: 1, Kind: KindInteger},
	{ID: 33, Desc: "status current heating housing", Width: 1, Kind: KindInteger},
	{ID: 34, Desc: "status current heating heads", Width: 1, Kind: KindInteger},
	{ID: 35, Desc: "status current heating carriers", Width: 1, Kind: KindInteger},
	{ID: 36, Desc: "status control output laser power", Width: 1, Kind: KindInteger},
	{ID: 37, Desc: "reserve status", Width: 1, Kind: KindInteger},
	{ID: 38, Desc: "interior temperature", Width: 3, Semantic: "housingTemp", Unit: "degree_C", Group: "group_temperature"},
	{ID: 39, Desc: "temperature of laser driver", Width: 2, Semantic: "laserTemp", Unit: "degree_C", Group: "group_temperature"},
	{ID: 40, Desc: "mean value laser current", Width: 4, Semantic: "laserCurrent", Unit: "amp", Group: "group_amp", Scale: 1e-5},
	{ID: 41, Desc: "control voltage", Width: 4, Semantic: "controlVoltage", Unit: "volt", Group: "group_volt", Scale: 1e-3},
	{ID: 42, Desc: "optical control output", Width: 4, Semantic: "opticalControl", Unit: "volt", Group: "group_volt", Scale: 1e-3},
	{ID: 43, Desc: "voltage sensor supply", Width: 3, Semantic: "supplyVoltage", Unit: "volt", Group: "group_volt", Scale: 0.1},
	{ID: 44, Desc: "current pane heating laser head", Width: 3, Unit: "amp", Group: "group_amp", Scale: 1e-3},
	{ID: 45, Desc: "current pane heating receiver head", Width: 3, Unit: "amp", Group: "group_amp", Scale: 1e-3},
	{ID: 46, Desc: "ambient temperature", Width: 5, Semantic: "ambientTemp", Unit: "degree_C", Group: "group_temperature"},
	{ID: 47, Desc: "voltage heating supply", Width: 3, Semantic: "heatingVoltage", Unit: "volt", Group: "group_volt", Scale: 0.1},
	{ID: 48, Desc: "current heating housing", Width: 4, Unit: "amp", Group: "group_amp", Scale: 1e-3},
	{ID: 49, Desc: "current heating heads", Width: 4, Unit: "amp", Group: "group_amp", Scale: 1e-3},
	{ID: 50, Desc: "current heating carriers", Width: 4, Unit: "amp", Group: "group_amp", Scale: 1e-3},
	{ID: 51, Desc: "number of all measured particles", Width: 5, Semantic: "particleCount", Unit: "count", Group: GroupCount, Kind: KindInteger},
}

// thiesVariants holds the fields that follow the base fields, keyed by the
// telegram variant selected on the device.
var thiesVariants = map[int][]Field{
	4: nil,
	5: {
		{ID: 52, Desc: "precipitation spectrum", Width: 2205, Kind: KindString},
	},
}

// ThiesTable returns the LNM field table for a telegram variant.
func ThiesTable(variant int) (Table, error) {
	extra, ok := thiesVariants[variant]
	if !ok {
		return Table{}, fmt.Errorf("%w: thies telegram variant %d", ErrUnknownModel, variant)
	}

	fields := make([]Field, 0, len(thiesBase)+len(extra))
	fields = append(fields, thiesBase...)
	fields = append(fields, extra...)

	return Table{
		Model:        ModelThiesLNM,
		Separator:    ";",
		RainRollover: ThiesRainRollover,
		Fields:       fields,
	}, nil
}
