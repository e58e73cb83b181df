package json

import (
	"encoding/base64"
	"reflect"
	"time"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	bytesType    = reflect.TypeOf([]byte(nil))
)

// timeCodec writes time.Time as an RFC 3339 string with nanoseconds.
type timeCodec struct{}

func (timeCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	return w.WriteString(v.Interface().(time.Time).Format(time.RFC3339Nano))
}

func (timeCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	s, err := r.ReadString()
	if err != nil {
		return reflect.Value{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return reflect.Value{}, r.Errorf(ErrInvalidValue, "%v: %v", ErrInvalidValue, err)
	}
	return reflect.ValueOf(t), nil
}

// durationCodec writes time.Duration in the format of Duration.String.
type durationCodec struct{}

func (durationCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	return w.WriteString(time.Duration(v.Int()).String())
}

func (durationCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	s, err := r.ReadString()
	if err != nil {
		return reflect.Value{}, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return reflect.Value{}, r.Errorf(ErrInvalidValue, "%v: %v", ErrInvalidValue, err)
	}
	return reflect.ValueOf(d), nil
}

// bytesCodec writes []byte as standard base64.
type bytesCodec struct{}

func (bytesCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	return w.WriteString(base64.StdEncoding.EncodeToString(v.Bytes()))
}

func (bytesCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	s, err := r.ReadString()
	if err != nil {
		return reflect.Value{}, err
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return reflect.Value{}, r.Errorf(ErrInvalidValue, "%v: %v", ErrInvalidValue, err)
	}
	return reflect.ValueOf(b), nil
}

func fixedCodec(c Codec) CodecFactory {
	return func(reflect.Type, Resolver) (Codec, error) { return c, nil }
}

// defaultClassCodecs are registered by New before any option runs.
func defaultClassCodecs() map[reflect.Type]CodecFactory {
	return map[reflect.Type]CodecFactory{
		timeType:     fixedCodec(timeCodec{}),
		durationType: fixedCodec(durationCodec{}),
		bytesType:    fixedCodec(bytesCodec{}),
	}
}
