// Package telegram decodes the ASCII telegrams sent by optical disdrometers
// into typed readings, driven by static per-model field tables.
package telegram

import (
	"fmt"
	"strings"
)

// Kind is the value type a field converts to.
type Kind int

const (
	KindFloat Kind = iota
	KindInteger
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	}
	return "float"
}

// UnmarshalYAML reads a kind name from a field table file.
func (k *Kind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "", "float", "real":
		*k = KindFloat
	case "integer", "int":
		*k = KindInteger
	case "string", "text", "varchar":
		*k = KindString
	default:
		return fmt.Errorf("unknown field kind %q", s)
	}
	return nil
}

// Unit groups with special handling.
const (
	GroupCount = "group_count"
	GroupWW    = "group_wmo_ww"
	GroupWawa  = "group_wmo_wawa"
)

// Semantic names the rest of the system looks for.
const (
	SemanticWW          = "ww"
	SemanticWawa        = "wawa"
	SemanticMETAR       = "METAR"
	SemanticRainRate    = "rainRate"
	SemanticRainAccu    = "rainAccu"
	SemanticRainAbs     = "rainAbs"
	SemanticMOR         = "MOR"
	SemanticSensorState = "sensorState"
	SemanticErrorCode   = "errorCode"
)

// Field describes one position of a telegram. A field with an empty
// Semantic occupies its slot but produces no value.
type Field struct {
	ID       int     `yaml:"id"`
	Desc     string  `yaml:"description"`
	Width    int     `yaml:"width"`
	Semantic string  `yaml:"name"`
	Unit     string  `yaml:"unit"`
	Group    string  `yaml:"group"`
	Kind     Kind    `yaml:"kind"`
	Scale    float64 `yaml:"scale"`
}

// SQLKind returns the column type used when archiving the field.
func (f Field) SQLKind() string {
	switch {
	case f.Group == GroupCount || f.Group == GroupWW || f.Group == GroupWawa:
		return "INTEGER"
	case f.Kind == KindString:
		return fmt.Sprintf("VARCHAR(%d)", f.Width)
	case f.Kind == KindInteger:
		return "INTEGER"
	}
	return "REAL"
}

// Table is the ordered field layout of one telegram.
type Table struct {
	Model        string  `yaml:"model"`
	Separator    string  `yaml:"separator"`
	RainRollover float64 `yaml:"rain-rollover"`
	Fields       []Field `yaml:"fields"`
}

// FieldByID looks up a field in a catalog.
func FieldByID(catalog []Field, id int) (Field, bool) {
	for _, f := range catalog {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}
