package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCycle is returned when encoding a cyclic value whose back-edge target
// carries no Origin.
var ErrCycle = errors.New("cyclic value without origin")

// ErrInvalidNumber is returned when encoding a number node whose literal is
// not a JSON number.
var ErrInvalidNumber = errors.New("invalid number literal")

// MarshalJSON encodes v with object members in document order. A back-edge
// to an ancestor is written as {"$ref": origin}.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	e := encoder{buf: &buf, stack: make(map[*Value]bool)}
	if err := e.encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes into v, replacing its contents.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*v = *decoded
	return nil
}

// Indent encodes v as indented JSON.
func Indent(v *Value) ([]byte, error) {
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

type encoder struct {
	buf   *bytes.Buffer
	stack map[*Value]bool
}

func (e *encoder) encode(v *Value) error {
	if v == nil {
		e.buf.WriteString("null")
		return nil
	}

	switch v.kind {
	case Null:
		e.buf.WriteString("null")
	case Bool:
		if v.boolean {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
	case Number:
		if !isJSONNumber(v.number) {
			return fmt.Errorf("%w: %q", ErrInvalidNumber, v.number)
		}
		e.buf.WriteString(v.number)
	case String:
		e.writeString(v.text)
	case Reference:
		if v.fields == nil {
			e.buf.WriteString(`{"$ref":`)
			e.writeString(v.text)
			e.buf.WriteByte('}')
			return nil
		}
		return e.encode(v.AsObject())
	case Array:
		if e.stack[v] {
			return e.backEdge(v)
		}
		e.stack[v] = true
		defer delete(e.stack, v)

		e.buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.encode(item); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
	case Object:
		if e.stack[v] {
			return e.backEdge(v)
		}
		e.stack[v] = true
		defer delete(e.stack, v)

		e.buf.WriteByte('{')
		first := true
		for k, member := range v.Fields() {
			if !first {
				e.buf.WriteByte(',')
			}
			first = false
			e.writeString(k)
			e.buf.WriteByte(':')
			if err := e.encode(member); err != nil {
				return err
			}
		}
		e.buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value kind %d", v.kind)
	}
	return nil
}

func (e *encoder) backEdge(v *Value) error {
	if v.Origin == "" {
		return ErrCycle
	}
	e.buf.WriteString(`{"$ref":`)
	e.writeString(v.Origin)
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) writeString(s string) {
	// json.Marshal on a string never fails.
	b, _ := json.Marshal(s)
	e.buf.Write(b)
}
