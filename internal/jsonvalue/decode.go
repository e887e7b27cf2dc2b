package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed is returned when input bytes are not a JSON document.
var ErrMalformed = errors.New("malformed json")

// MaxNesting bounds how deeply arrays and objects may nest in decoded input.
const MaxNesting = 10000

// Decode parses a JSON document, keeping object member order and the literal
// text of numbers. An object with a string "$ref" member decodes to a
// Reference node that keeps its sibling members.
func Decode(data []byte) (*Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec, 0)
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after top-level value at offset %d", ErrMalformed, dec.InputOffset())
	}
	return v, nil
}

// MustDecode is Decode for fixed inputs; it panics on error.
func MustDecode(s string) *Value {
	v, err := Decode([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

func decodeValue(dec *json.Decoder, depth int) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case json.Number:
		return NewNumberLiteral(t.String()), nil
	case json.Delim:
		if depth >= MaxNesting {
			return nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, MaxNesting)
		}
		switch t {
		case '[':
			return decodeArray(dec, depth)
		case '{':
			return decodeObject(dec, depth)
		}
	}
	return nil, fmt.Errorf("%w: unexpected token %v at offset %d", ErrMalformed, tok, dec.InputOffset())
}

func decodeArray(dec *json.Decoder, depth int) (*Value, error) {
	arr := NewArray()
	for dec.More() {
		item, err := decodeValue(dec, depth+1)
		if err != nil {
			return nil, err
		}
		arr.Append(item)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func decodeObject(dec *json.Decoder, depth int) (*Value, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: object key is not a string at offset %d", ErrMalformed, dec.InputOffset())
		}
		member, err := decodeValue(dec, depth+1)
		if err != nil {
			return nil, err
		}
		obj.Set(key, member)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	if ref, ok := obj.Get("$ref"); ok && ref.Kind() == String {
		return &Value{kind: Reference, text: ref.Str(), fields: obj.fields}, nil
	}
	return obj, nil
}

// isJSONNumber reports whether s follows the JSON number grammar.
func isJSONNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i >= len(s) {
		return false
	}
	switch {
	case s[i] == '0':
		i++
	case s[i] >= '1' && s[i] <= '9':
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
