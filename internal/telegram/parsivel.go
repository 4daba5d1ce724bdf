package telegram

// DefaultParsivelTelegram is the factory telegram layout of a Parsivel2.
const DefaultParsivelTelegram = "%13;%01;%02;%03;%07;%08;%34;%12;%10;%11;%18;/r/n"

// ParsivelRainRollover is where the 32 bit accumulated rain counter wraps.
const ParsivelRainRollover = 300.0

// ParsivelFields is the catalog of Parsivel1/2 telegram fields. Fields 34,
// 35, 60 and 61 exist on the Parsivel2 only.
var ParsivelFields = []Field{
	{ID: 1, Desc: "rain intensity (32 bit)", Width: 8, Semantic: SemanticRainRate, Unit: "mm_per_hour", Group: "group_rainrate"},
	{ID: 2, Desc: "rain amount accumulated (32 bit)", Width: 7, Semantic: SemanticRainAccu, Unit: "mm", Group: "group_rain"},
	{ID: 3, Desc: "SYNOP wawa table 4680", Width: 2, Semantic: SemanticWawa, Unit: "byte", Group: GroupWawa, Kind: KindInteger},
	{ID: 4, Desc: "SYNOP ww table 4677", Width: 2, Semantic: SemanticWW, Unit: "byte", Group: GroupWW, Kind: KindInteger},
	{ID: 5, Desc: "METAR/SPECI w'w' table 4678", Width: 5, Semantic: SemanticMETAR, Kind: KindString},
	{ID: 6, Desc: "NWS code", Width: 4, Semantic: "NWS", Kind: KindString},
	{ID: 7, Desc: "radar reflectivity (32 bit)", Width: 6, Semantic: "dBZ", Unit: "db", Group: "group_db"},
	{ID: 8, Desc: "MOR visibility in precipitation", Width: 5, Semantic: SemanticMOR, Unit: "meter", Group: "group_distance"},
	{ID: 9, Desc: "sample interval", Width: 5, Semantic: "queryInterval", Unit: "second", Group: "group_interval", Kind: KindInteger},
	{ID: 10, Desc: "signal amplitude of laser strip", Width: 5, Semantic: "signal", Unit: "count", Group: GroupCount, Kind: KindInteger},
	{ID: 11, Desc: "number of detected particles", Width: 5, Semantic: "particle", Unit: "count", Group: GroupCount, Kind: KindInteger},
	{ID: 12, Desc: "temperature in sensor housing", Width: 3, Semantic: "housingTemp", Unit: "degree_C", Group: "group_temperature"},
	{ID: 13, Desc: "sensor serial number", Width: 6, Semantic: "SNR", Kind: KindString},
	{ID: 14, Desc: "firmware IOP", Width: 6, Kind: KindString},
	{ID: 15, Desc: "firmware DSP", Width: 6, Kind: KindString},
	{ID: 16, Desc: "sensor head heating current", Width: 4, Semantic: "heatingCurrent", Unit: "amp", Group: "group_amp"},
	{ID: 17, Desc: "power supply voltage", Width: 4, Semantic: "supplyVoltage", Unit: "volt", Group: "group_volt"},
	{ID: 18, Desc: "sensor status", Width: 1, Semantic: SemanticSensorState, Kind: KindInteger},
	{ID: 19, Desc: "date/time measuring start", Width: 19, Kind: KindString},
	{ID: 20, Desc: "sensor time", Width: 8, Kind: KindString},
	{ID: 21, Desc: "sensor date", Width: 10, Kind: KindString},
	{ID: 22, Desc: "station name", Width: 10, Kind: KindString},
	{ID: 23, Desc: "station number", Width: 4, Kind: KindString},
	{ID: 24, Desc: "rain amount absolute (32 bit)", Width: 7, Semantic: SemanticRainAbs, Unit: "mm", Group: "group_rain"},
	{ID: 25, Desc: "error code", Width: 3, Semantic: SemanticErrorCode, Kind: KindInteger},
	{ID: 26, Desc: "temperature PCB", Width: 3, Semantic: "circuitTemp", Unit: "degree_C", Group: "group_temperature"},
	{ID: 27, Desc: "temperature in right sensor head", Width: 3, Semantic: "rightSensorTemp", Unit: "degree_C", Group: "group_temperature"},
	{ID: 28, Desc: "temperature in left sensor head", Width: 3, Semantic: "leftSensorTemp", Unit: "degree_C", Group: "group_temperature"},
	{ID: 30, Desc: "rain intensity (16 bit) max 30 mm/h", Width: 6, Unit: "mm_per_hour", Group: "group_rainrate"},
	{ID: 31, Desc: "rain intensity (16 bit) max 1200 mm/h", Width: 6, Unit: "mm_per_hour", Group: "group_rainrate"},
	{ID: 32, Desc: "rain amount accumulated (16 bit)", Width: 7, Unit: "mm", Group: "group_rain"},
	{ID: 33, Desc: "radar reflectivity (16 bit)", Width: 5, Unit: "db", Group: "group_db"},
	// The device reports J/(m^2 h), which is a power density.
	{ID: 34, Desc: "kinetic energy", Width: 7, Semantic: "energy", Unit: "watt_per_meter_squared", Group: "group_rainpower", Scale: 1.0 / 3600.0},
	{ID: 35, Desc: "snow depth intensity (volume equivalent)", Width: 7, Semantic: "snowRate", Unit: "mm_per_hour", Group: "group_rainrate"},
	{ID: 60, Desc: "number of all particles detected", Width: 8, Semantic: "particleCount", Unit: "count", Group: GroupCount, Kind: KindInteger},
	{ID: 61, Desc: "list of all particles detected", Width: 13, Kind: KindString},
	{ID: 90, Desc: "field N(d)", Width: 223, Kind: KindString},
	{ID: 91, Desc: "field v(d)", Width: 223, Kind: KindString},
	{ID: 93, Desc: "raw data", Width: 4095, Kind: KindString},
}
