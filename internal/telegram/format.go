package telegram

import (
	"fmt"
	"strconv"
)

// ParseFormat converts a Parsivel telegram configuration string such as
// "%13;%01;%02;/r/n" into the ordered field list it describes. Every
// "%NN" reference must exist in catalog.
func ParseFormat(format string, catalog []Field) ([]Field, error) {
	var fields []Field

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		j := i + 1
		for j < len(format) && format[j] >= '0' && format[j] <= '9' {
			j++
		}
		if j == i+1 {
			return nil, fmt.Errorf("%w: '%%' without field number at offset %d", ErrBadFormat, i)
		}

		id, err := strconv.Atoi(format[i+1 : j])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
		}
		f, ok := FieldByID(catalog, id)
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %%%02d", ErrBadFormat, id)
		}
		fields = append(fields, f)
		i = j - 1
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields in %q", ErrBadFormat, format)
	}
	return fields, nil
}
