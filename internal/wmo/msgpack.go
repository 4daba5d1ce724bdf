package wmo

import "github.com/vmihailenco/msgpack/v5"

var (
	_ msgpack.CustomEncoder = None
	_ msgpack.CustomDecoder = (*Code)(nil)
)

// EncodeMsgpack encodes None as nil, like MarshalJSON.
func (c Code) EncodeMsgpack(enc *msgpack.Encoder) error {
	if !c.Valid() {
		return enc.EncodeNil()
	}
	return enc.EncodeInt(int64(c))
}

// DecodeMsgpack accepts an integer or nil.
func (c *Code) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	switch n := v.(type) {
	case nil:
		*c = None
	case int8:
		*c = CodeOf(int(n))
	case int16:
		*c = CodeOf(int(n))
	case int32:
		*c = CodeOf(int(n))
	case int64:
		*c = CodeOf(int(n))
	case uint8:
		*c = CodeOf(int(n))
	case uint16:
		*c = CodeOf(int(n))
	case uint32:
		*c = CodeOf(int(n))
	case uint64:
		*c = CodeOf(int(n))
	default:
		*c = None
	}
	return nil
}
