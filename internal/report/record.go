// Package report assembles the per-interval records a meter hands to the
// storage engines.
package report

import (
	"time"

	"github.com/chrissnell/precipmeter/internal/presentweather"
	"github.com/chrissnell/precipmeter/internal/telegram"
)

// Field is one reported value with the metadata needed to convert it.
type Field struct {
	Value interface{} `json:"value" msgpack:"value"`
	Unit  string      `json:"unit,omitempty" msgpack:"unit,omitempty"`
	Group string      `json:"group,omitempty" msgpack:"group,omitempty"`
}

// Record is the aggregate of one report interval of one station.
type Record struct {
	Station string `json:"station" msgpack:"station"`
	RunID   string `json:"runId" msgpack:"runId"`
	// Prefix is prepended to the field names, see Name.
	Prefix string    `json:"prefix,omitempty" msgpack:"prefix,omitempty"`
	Start  time.Time `json:"start" msgpack:"start"`
	End    time.Time `json:"end" msgpack:"end"`
	// Count is the number of telegrams that went into the record.
	Count  int              `json:"count" msgpack:"count"`
	Fields map[string]Field `json:"fields" msgpack:"fields"`
	// History is the episode window as of End.
	History []presentweather.Episode `json:"history" msgpack:"history"`
}

// Value returns the value of the named field, or nil.
func (r Record) Value(name string) interface{} {
	return r.Fields[name].Value
}

// Name returns the key of a derived field such as FieldWW in Fields.
func (r Record) Name(field string) string {
	return telegram.PrefixedName(r.Prefix, field)
}

// Names of the fields derived by the classifier, before the station
// prefix is applied.
const (
	FieldWW                    = "ww"
	FieldWawa                  = "wawa"
	FieldWWRaw                 = "wwRaw"
	FieldWawaRaw               = "wawaRaw"
	FieldHeldOver              = "heldOver"
	FieldPresentWeatherStart   = "presentWeatherStart"
	FieldPresentWeatherElapsed = "presentWeatherElapsed"
	FieldPrecipitationStart    = "precipitationStart"
	FieldPrecipitationDuration = "precipitationDuration"
	FieldRain                  = "rain"
	FieldRainRate              = "rainRate"
	FieldVisibility            = "visibility"
	FieldW1                    = "W1"
	FieldW2                    = "W2"
	FieldWa1                   = "Wa1"
	FieldWa2                   = "Wa2"
	FieldAwekas                = "awekas"
)
