package json

import (
	"math"
	"reflect"
	"sort"
	"strconv"
)

// objectSource streams the tokens of an in-memory value tree. Trees are made
// of nil, booleans, strings, numbers, slices or arrays, and maps with string
// keys, such as the values produced by decoding into an interface{}.
type objectSource struct {
	tokens []Token
	pos    int
	err    error
}

// NewObjectReader creates a Reader over an in-memory value tree. Object
// members are produced in sorted key order. Positions report line 0 and the
// index of the current token.
func NewObjectReader(tree interface{}) *Reader {
	s := &objectSource{}
	s.err = s.flatten(reflect.ValueOf(tree), 0)
	return NewReader(s)
}

func (s *objectSource) Position() (line, col int) {
	return 0, s.pos
}

func (s *objectSource) Peek() (Token, error) {
	if s.err != nil {
		return Token{}, s.err
	}
	if s.pos >= len(s.tokens) {
		return TokenEOF, nil
	}
	return s.tokens[s.pos], nil
}

func (s *objectSource) Read() (Token, error) {
	tok, err := s.Peek()
	if err == nil && s.pos < len(s.tokens) {
		s.pos++
	}
	return tok, err
}

func (s *objectSource) flatten(v reflect.Value, depth int) error {
	if depth > DefaultMaxDepth {
		return readErrorf(0, len(s.tokens), ErrMaxDepthExceeded, "%v: depth %d", ErrMaxDepthExceeded, depth)
	}
	if !v.IsValid() {
		s.tokens = append(s.tokens, TokenNull)
		return nil
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			s.tokens = append(s.tokens, TokenNull)
			return nil
		}
		return s.flatten(v.Elem(), depth)
	case reflect.Bool:
		s.tokens = append(s.tokens, BoolToken(v.Bool()))
	case reflect.String:
		s.tokens = append(s.tokens, StringToken(v.String()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s.tokens = append(s.tokens, NumberToken(strconv.FormatInt(v.Int(), 10)))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		s.tokens = append(s.tokens, NumberToken(strconv.FormatUint(v.Uint(), 10)))
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return readErrorf(0, len(s.tokens), ErrUnsupportedValue, "%v: %v", ErrUnsupportedValue, f)
		}
		s.tokens = append(s.tokens, NumberToken(string(appendFloat(nil, f, v.Type().Bits()))))
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			s.tokens = append(s.tokens, TokenNull)
			return nil
		}
		s.tokens = append(s.tokens, TokenBeginArray)
		for i := 0; i < v.Len(); i++ {
			if err := s.flatten(v.Index(i), depth+1); err != nil {
				return err
			}
		}
		s.tokens = append(s.tokens, TokenEndArray)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return readErrorf(0, len(s.tokens), ErrUnsupportedType, "%v: map key %s", ErrUnsupportedType, v.Type().Key())
		}
		if v.IsNil() {
			s.tokens = append(s.tokens, TokenNull)
			return nil
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		s.tokens = append(s.tokens, TokenBeginObject)
		for _, k := range keys {
			s.tokens = append(s.tokens, NameToken(k.String()))
			if err := s.flatten(v.MapIndex(k), depth+1); err != nil {
				return err
			}
		}
		s.tokens = append(s.tokens, TokenEndObject)
	default:
		return readErrorf(0, len(s.tokens), ErrUnsupportedType, "%v: %s", ErrUnsupportedType, v.Type())
	}
	return nil
}
