package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec names accepted by NewCodec and Config.Codec.
const (
	CodecMsgpack = "msgpack"
	CodecCBOR    = "cbor"
	CodecJSON    = "json"
)

// Codec serializes composite cache values (records, row lists, groups) to bytes.
// Decoding into interface values must produce map[string]any for nested maps so
// that cached rows look like rows fresh from the database.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// NewCodec returns the codec registered under name. An empty name selects msgpack.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", CodecMsgpack:
		return MsgpackCodec{}, nil
	case CodecCBOR:
		return NewCBORCodec()
	case CodecJSON:
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("cache: unknown codec %q", name)
	}
}

// MsgpackCodec is the default codec. Integers decode as int64/uint64 and floats
// as float64 regardless of their compact wire width.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return CodecMsgpack }

func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgpackCodec) Unmarshal(data []byte, dest any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(dest)
}

// CBORCodec serializes values as CBOR. The zero value is NOT ready to use;
// construct with NewCBORCodec.
type CBORCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBORCodec builds a CBOR codec with preferred (compact) encoding and a decoder
// that yields map[string]any and signed integers.
func NewCBORCodec() (CBORCodec, error) {
	eo := cbor.PreferredUnsortedEncOptions()
	eo.Time = cbor.TimeRFC3339Nano
	em, err := eo.EncMode()
	if err != nil {
		return CBORCodec{}, err
	}

	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		return CBORCodec{}, err
	}
	return CBORCodec{enc: em, dec: dm}, nil
}

func (CBORCodec) Name() string { return CodecCBOR }

func (c CBORCodec) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c CBORCodec) Unmarshal(data []byte, dest any) error {
	return c.dec.Unmarshal(data, dest)
}

// JSONCodec trades compactness for readability; numbers decode as float64.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecJSON }

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, dest any) error { return json.Unmarshal(data, dest) }
