package telegram

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Supported sensor models.
const (
	ModelParsivel = "ott-parsivel"
	ModelThiesLNM = "thies-lnm"
	ModelCustom   = "custom"
)

// TableOptions selects the field table for a station.
type TableOptions struct {
	Model string
	// Telegram is the Parsivel telegram configuration string. Empty means
	// DefaultParsivelTelegram.
	Telegram string
	// Variant is the Thies telegram number.
	Variant int
	// FieldTable is a YAML field table file that overrides the built-in
	// tables.
	FieldTable string
}

// NormalizeModel maps the accepted spellings of a model name onto one of
// the Model constants.
func NormalizeModel(model string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(model)) {
	case "", "ott-parsivel", "ott-parsivel1", "ott-parsivel2", "parsivel", "parsivel2":
		return ModelParsivel, nil
	case "thies-lnm", "thies", "lnm":
		return ModelThiesLNM, nil
	case "custom":
		return ModelCustom, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, model)
}

// NewTable builds the field table described by opts.
func NewTable(opts TableOptions) (Table, error) {
	if opts.FieldTable != "" {
		return LoadTable(opts.FieldTable)
	}

	model, err := NormalizeModel(opts.Model)
	if err != nil {
		return Table{}, err
	}

	switch model {
	case ModelParsivel:
		format := opts.Telegram
		if format == "" {
			format = DefaultParsivelTelegram
		}
		fields, err := ParseFormat(format, ParsivelFields)
		if err != nil {
			return Table{}, err
		}
		return Table{
			Model:        ModelParsivel,
			Separator:    ";",
			RainRollover: ParsivelRainRollover,
			Fields:       fields,
		}, nil
	case ModelThiesLNM:
		variant := opts.Variant
		if variant == 0 {
			variant = 4
		}
		return ThiesTable(variant)
	}

	return Table{}, fmt.Errorf("%w: model %q needs a field table file", ErrUnknownModel, opts.Model)
}

// LoadTable reads a field table from a YAML file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("reading field table %s: %w", path, err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML field table.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.UnmarshalStrict(data, &t); err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if len(t.Fields) == 0 {
		return Table{}, fmt.Errorf("%w: field table has no fields", ErrBadFormat)
	}
	if t.Separator == "" {
		t.Separator = ";"
	}
	if t.Model == "" {
		t.Model = ModelCustom
	}
	return t, nil
}
