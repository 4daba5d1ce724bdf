package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/chrissnell/precipmeter/internal/wmo"
)

const (
	stx = "\x02"
	etx = "\x03"
)

// Value is one decoded reading together with the metadata needed to
// convert and archive it downstream.
type Value struct {
	Value interface{} `json:"value"`
	Unit  string      `json:"unit,omitempty"`
	Group string      `json:"group,omitempty"`
}

// Reading is the result of decoding one telegram.
type Reading struct {
	// Values holds every field with a semantic name, keyed by that name
	// (with the station prefix applied).
	Values map[string]Value

	WW       wmo.Code
	Wawa     wmo.Code
	METAR    string
	RainRate *float64
	RainAccu *float64
	RainAbs  *float64
	MOR      *float64

	SensorState *int64
	ErrorCode   *int64

	// FieldErrors collects per-field conversion failures keyed by field
	// name. The affected fields are absent from Values.
	FieldErrors map[string]error
}

// Empty reports whether the reading carries no values at all.
func (r Reading) Empty() bool {
	return len(r.Values) == 0
}

// Decoder converts raw telegrams of one field table into Readings.
type Decoder struct {
	table  Table
	prefix string
}

// NewDecoder returns a Decoder for table. A non-empty prefix is prepended
// to every value name, so that "rainRate" becomes "ottRainRate" with the
// prefix "ott".
func NewDecoder(table Table, prefix string) *Decoder {
	if table.Separator == "" {
		table.Separator = ";"
	}
	return &Decoder{table: table, prefix: prefix}
}

// Table returns the decoder's field table.
func (d *Decoder) Table() Table {
	return d.table
}

// Name returns the value name used for a semantic name.
func (d *Decoder) Name(semantic string) string {
	return PrefixedName(d.prefix, semantic)
}

// PrefixedName prepends prefix to semantic in camel case.
func PrefixedName(prefix, semantic string) string {
	if prefix == "" || semantic == "" {
		return semantic
	}
	r := []rune(semantic)
	r[0] = unicode.ToUpper(r[0])
	return prefix + string(r)
}

// Decode parses one telegram. A telegram that is short or malformed yields
// an error and an empty Reading; a field that fails to convert is left out
// and reported in Reading.FieldErrors.
func (d *Decoder) Decode(raw string) (Reading, error) {
	r := Reading{WW: wmo.None, Wawa: wmo.None}

	raw = strings.TrimLeft(raw, stx+"\r\n ")
	raw = strings.TrimRight(raw, etx+"\r\n ")
	if !strings.Contains(raw, d.table.Separator) {
		return r, ErrMalformedTelegram
	}

	parts := strings.Split(raw, d.table.Separator)
	if len(parts) < len(d.table.Fields) {
		return r, fmt.Errorf("%w: %d of %d fields", ErrShortTelegram, len(parts), len(d.table.Fields))
	}

	r.Values = make(map[string]Value, len(d.table.Fields))
	for i, f := range d.table.Fields {
		text := parts[i]
		if strings.ContainsAny(text, "\r\n"+etx+stx) {
			return Reading{WW: wmo.None, Wawa: wmo.None}, fmt.Errorf("%w: end of record inside field %d", ErrMalformedTelegram, f.ID)
		}
		if f.Semantic == "" {
			continue
		}

		name := d.Name(f.Semantic)
		v, err := convert(f, text)
		if err != nil {
			if r.FieldErrors == nil {
				r.FieldErrors = make(map[string]error)
			}
			r.FieldErrors[name] = err
			continue
		}
		r.Values[name] = Value{Value: v, Unit: f.Unit, Group: f.Group}
		r.assign(f, v)
	}

	return r, nil
}

func convert(f Field, text string) (interface{}, error) {
	text = strings.TrimSpace(text)

	switch f.Kind {
	case KindString:
		return text, nil
	case KindInteger:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	}

	x, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, err
	}
	if f.Scale != 0 {
		x *= f.Scale
	}
	return x, nil
}

// assign copies the values the classifier needs into named fields.
func (r *Reading) assign(f Field, v interface{}) {
	switch f.Semantic {
	case SemanticWW:
		if n, ok := v.(int64); ok {
			r.WW = wmo.CodeOf(int(n))
		}
	case SemanticWawa:
		if n, ok := v.(int64); ok {
			r.Wawa = wmo.CodeOf(int(n))
		}
	case SemanticMETAR:
		r.METAR, _ = v.(string)
	case SemanticRainRate:
		r.RainRate = floatPtr(v)
	case SemanticRainAccu:
		r.RainAccu = floatPtr(v)
	case SemanticRainAbs:
		r.RainAbs = floatPtr(v)
	case SemanticMOR:
		r.MOR = floatPtr(v)
	case SemanticSensorState:
		r.SensorState = intPtr(v)
	case SemanticErrorCode:
		r.ErrorCode = intPtr(v)
	}
}

func floatPtr(v interface{}) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case int64:
		f := float64(x)
		return &f
	}
	return nil
}

func intPtr(v interface{}) *int64 {
	switch x := v.(type) {
	case int64:
		return &x
	case float64:
		n := int64(x)
		return &n
	}
	return nil
}
