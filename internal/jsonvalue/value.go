// Package jsonvalue models untyped JSON documents as a closed set of tagged
// variants. Objects keep their members in document order.
package jsonvalue

import (
	"iter"
	"strconv"

	"github.com/pb33f/libopenapi/orderedmap"
)

type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
	// Reference is an object with a string "$ref" member. Sibling members
	// are kept and survive encoding, but Get and Fields do not see them.
	Reference
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

// Value is a single JSON node. The zero value is JSON null.
type Value struct {
	kind    Kind
	boolean bool
	number  string
	text    string
	items   []*Value
	fields  *orderedmap.Map[string, *Value]

	// Origin names the reference target a node was materialized from. It is
	// only set on nodes that are the target of a back-edge in a cyclic graph,
	// and is written as {"$ref": Origin} when the encoder meets the cycle.
	Origin string
}

func NewNull() *Value { return &Value{kind: Null} }

func NewBool(b bool) *Value { return &Value{kind: Bool, boolean: b} }

func NewString(s string) *Value { return &Value{kind: String, text: s} }

// NewNumber creates a number node from a float.
func NewNumber(f float64) *Value {
	return &Value{kind: Number, number: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NewInt creates an integral number node.
func NewInt(i int64) *Value {
	return &Value{kind: Number, number: strconv.FormatInt(i, 10)}
}

// NewNumberLiteral keeps the literal text of a number as it appeared in the
// source. The caller is responsible for passing a valid JSON number.
func NewNumberLiteral(lit string) *Value { return &Value{kind: Number, number: lit} }

func NewArray(items ...*Value) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{kind: Array, items: items}
}

func NewObject() *Value {
	return &Value{kind: Object, fields: orderedmap.New[string, *Value]()}
}

// NewRef creates a reference node pointing at target.
func NewRef(target string) *Value { return &Value{kind: Reference, text: target} }

func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

func (v *Value) IsNull() bool { return v.Kind() == Null }

// Bool returns the boolean payload; false for non-boolean nodes.
func (v *Value) Bool() bool { return v != nil && v.kind == Bool && v.boolean }

// Str returns the string payload; empty for non-string nodes.
func (v *Value) Str() string {
	if v == nil || v.kind != String {
		return ""
	}
	return v.text
}

// Float parses the number payload.
func (v *Value) Float() float64 {
	if v == nil || v.kind != Number {
		return 0
	}
	f, _ := strconv.ParseFloat(v.number, 64)
	return f
}

// Literal returns the number as written in the source document.
func (v *Value) Literal() string {
	if v == nil || v.kind != Number {
		return ""
	}
	return v.number
}

// Ref returns the target of a reference node.
func (v *Value) Ref() string {
	if v == nil || v.kind != Reference {
		return ""
	}
	return v.text
}

// Len returns the number of members of an object or elements of an array.
func (v *Value) Len() int {
	switch v.Kind() {
	case Array:
		return len(v.items)
	case Object:
		return v.fields.Len()
	default:
		return 0
	}
}

// Items returns the elements of an array. The returned slice must not be
// modified.
func (v *Value) Items() []*Value {
	if v.Kind() != Array {
		return nil
	}
	return v.items
}

// Index returns the i-th element of an array.
func (v *Value) Index(i int) (*Value, bool) {
	if v.Kind() != Array || i < 0 || i >= len(v.items) {
		return nil, false
	}
	return v.items[i], true
}

// Append adds elements to an array node.
func (v *Value) Append(items ...*Value) {
	if v.Kind() != Array {
		return
	}
	v.items = append(v.items, items...)
}

// Get returns an object member.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != Object {
		return nil, false
	}
	return v.fields.Get(key)
}

// Set assigns an object member. Setting an existing key replaces its value
// and keeps its original position.
func (v *Value) Set(key string, member *Value) {
	if v.Kind() != Object {
		return
	}
	v.fields.Set(key, member)
}

// Fields iterates object members in document order.
func (v *Value) Fields() iter.Seq2[string, *Value] {
	if v.Kind() != Object {
		return func(func(string, *Value) bool) {}
	}
	return v.fields.FromOldest()
}

// Keys returns the member names of an object in document order.
func (v *Value) Keys() []string {
	keys := make([]string, 0, v.Len())
	for k := range v.Fields() {
		keys = append(keys, k)
	}
	return keys
}

// Lookup walks nested object members by key.
func (v *Value) Lookup(keys ...string) (*Value, bool) {
	cur := v
	for _, k := range keys {
		next, ok := cur.Get(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// AsObject turns a reference node back into a plain object holding "$ref"
// and every sibling member in document order. Other kinds are returned
// unchanged.
func (v *Value) AsObject() *Value {
	if v.Kind() != Reference {
		return v
	}
	obj := NewObject()
	if v.fields == nil {
		obj.Set("$ref", NewString(v.text))
		return obj
	}
	for k, member := range v.fields.FromOldest() {
		obj.Set(k, member)
	}
	return obj
}

// Clone returns a deep copy of an acyclic value.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	switch v.kind {
	case Array:
		items := make([]*Value, len(v.items))
		for i, item := range v.items {
			items[i] = item.Clone()
		}
		return &Value{kind: Array, items: items, Origin: v.Origin}
	case Object:
		obj := NewObject()
		obj.Origin = v.Origin
		for k, member := range v.Fields() {
			obj.Set(k, member.Clone())
		}
		return obj
	case Reference:
		c := &Value{kind: Reference, text: v.text, Origin: v.Origin}
		if v.fields != nil {
			c.fields = v.AsObject().Clone().fields
		}
		return c
	default:
		c := *v
		return &c
	}
}

// Equal reports whether two acyclic values are structurally equal. Object
// member order is not significant; numbers compare by value.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case Null:
		return true
	case Bool:
		return a.boolean == b.boolean
	case Number:
		return a.number == b.number || a.Float() == b.Float()
	case String:
		return a.text == b.text
	case Reference:
		return a.text == b.text && Equal(a.AsObject(), b.AsObject())
	case Array:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case Object:
		if a.Len() != b.Len() {
			return false
		}
		for k, am := range a.Fields() {
			bm, ok := b.Get(k)
			if !ok || !Equal(am, bm) {
				return false
			}
		}
		return true
	}
	return false
}
