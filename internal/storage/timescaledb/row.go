package timescaledb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrissnell/precipmeter/internal/report"
)

// ReportRow is one report record in the precipitation_reports hypertable
type ReportRow struct {
	Time                  time.Time `gorm:"column:time"`
	IntervalStart         time.Time `gorm:"column:interval_start"`
	Station               string    `gorm:"column:station"`
	RunID                 string    `gorm:"column:run_id"`
	Telegrams             int       `gorm:"column:telegrams"`
	WW                    *int16    `gorm:"column:ww"`
	Wawa                  *int16    `gorm:"column:wawa"`
	WWRaw                 *int16    `gorm:"column:ww_raw"`
	WawaRaw               *int16    `gorm:"column:wawa_raw"`
	HeldOver              *bool     `gorm:"column:held_over"`
	Awekas                *int16    `gorm:"column:awekas"`
	PresentWeatherStart   *int64    `gorm:"column:present_weather_start"`
	PresentWeatherElapsed *int64    `gorm:"column:present_weather_elapsed"`
	PrecipitationStart    *int64    `gorm:"column:precipitation_start"`
	PrecipitationDuration *int64    `gorm:"column:precipitation_duration"`
	Rain                  *float64  `gorm:"column:rain"`
	RainRate              *float64  `gorm:"column:rain_rate"`
	Visibility            *float64  `gorm:"column:visibility"`
	W1                    *int16    `gorm:"column:w1"`
	W2                    *int16    `gorm:"column:w2"`
	Wa1                   *int16    `gorm:"column:wa1"`
	Wa2                   *int16    `gorm:"column:wa2"`
	Fields                string    `gorm:"column:fields;type:jsonb"`
	History               string    `gorm:"column:history;type:jsonb"`
}

// TableName implements the Tabler interface for the ReportRow struct
func (ReportRow) TableName() string {
	return "precipitation_reports"
}

// newReportRow flattens the derived fields of a record into columns. The
// complete field map and the episode history are kept as JSON.
func newReportRow(rec report.Record) (ReportRow, error) {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return ReportRow{}, fmt.Errorf("encoding fields: %w", err)
	}
	history, err := json.Marshal(rec.History)
	if err != nil {
		return ReportRow{}, fmt.Errorf("encoding history: %w", err)
	}

	v := func(name string) interface{} { return rec.Value(rec.Name(name)) }

	return ReportRow{
		Time:                  rec.End,
		IntervalStart:         rec.Start,
		Station:               rec.Station,
		RunID:                 rec.RunID,
		Telegrams:             rec.Count,
		WW:                    smallint(v(report.FieldWW)),
		Wawa:                  smallint(v(report.FieldWawa)),
		WWRaw:                 smallint(v(report.FieldWWRaw)),
		WawaRaw:               smallint(v(report.FieldWawaRaw)),
		HeldOver:              boolean(v(report.FieldHeldOver)),
		Awekas:                smallint(v(report.FieldAwekas)),
		PresentWeatherStart:   bigint(v(report.FieldPresentWeatherStart)),
		PresentWeatherElapsed: bigint(v(report.FieldPresentWeatherElapsed)),
		PrecipitationStart:    bigint(v(report.FieldPrecipitationStart)),
		PrecipitationDuration: bigint(v(report.FieldPrecipitationDuration)),
		Rain:                  float(v(report.FieldRain)),
		RainRate:              float(v(report.FieldRainRate)),
		Visibility:            float(v(report.FieldVisibility)),
		W1:                    smallint(v(report.FieldW1)),
		W2:                    smallint(v(report.FieldW2)),
		Wa1:                   smallint(v(report.FieldWa1)),
		Wa2:                   smallint(v(report.FieldWa2)),
		Fields:                string(fields),
		History:               string(history),
	}, nil
}

func bigint(v interface{}) *int64 {
	var x int64
	switch n := v.(type) {
	case int:
		x = int64(n)
	case int64:
		x = n
	case float64:
		x = int64(n)
	default:
		return nil
	}
	return &x
}

func smallint(v interface{}) *int16 {
	n := bigint(v)
	if n == nil {
		return nil
	}
	x := int16(*n)
	return &x
}

func float(v interface{}) *float64 {
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case int:
		x = float64(n)
	case int64:
		x = float64(n)
	default:
		return nil
	}
	return &x
}

func boolean(v interface{}) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}
