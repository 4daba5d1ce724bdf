package telegram

import "errors"

var (
	// ErrMalformedTelegram is returned for telegrams that cannot be split
	// into fields or that carry an end-of-record marker inside a field.
	ErrMalformedTelegram = errors.New("malformed telegram")
	// ErrShortTelegram is returned when a telegram has fewer fields than
	// its table describes.
	ErrShortTelegram = errors.New("short telegram")
	// ErrUnknownModel is returned for sensor models without a field table.
	ErrUnknownModel = errors.New("unknown sensor model")
	// ErrBadFormat is returned for unparseable telegram configuration
	// strings and field table files.
	ErrBadFormat = errors.New("bad telegram format")
)
