// Package wmo holds the static WMO code tables used to classify present and
// past weather: ww (table 4677), wawa (table 4680), W (4561) and Wa (4531).
package wmo

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Code is a ww or wawa value in the range 0..99. None marks a sample that
// carried no classification.
type Code int16

// None is the absent code.
const None Code = -1

// CodeOf converts an integer reading into a Code, mapping anything outside
// 0..99 to None.
func CodeOf(v int) Code {
	if v < 0 || v > 99 {
		return None
	}
	return Code(v)
}

// Valid reports whether c carries a value.
func (c Code) Valid() bool {
	return c >= 0
}

// Active reports whether c is present and nonzero.
func (c Code) Active() bool {
	return c > 0
}

func (c Code) String() string {
	if !c.Valid() {
		return "-"
	}
	return strconv.Itoa(int(c))
}

// MarshalJSON encodes None as null.
func (c Code) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(c))), nil
}

// UnmarshalJSON accepts a number or null.
func (c *Code) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*c = None
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = CodeOf(v)
	return nil
}

// IsPrecipitation reports whether a ww/wawa pair describes falling
// precipitation: ww from 50 up or wawa from 40 up.
func IsPrecipitation(ww, wawa Code) bool {
	return (ww.Valid() && ww >= 50) || (wawa.Valid() && wawa >= 40)
}
