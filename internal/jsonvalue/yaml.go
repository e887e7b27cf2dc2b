package jsonvalue

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// DecodeYAML parses a YAML document into a Value, keeping mapping order.
// Only the JSON-compatible subset of YAML is meaningful: tags other than the
// core scalar tags decode as strings.
func DecodeYAML(data []byte) (*Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	return fromNode(root.Content[0], 0)
}

func fromNode(n *yaml.Node, depth int) (*Value, error) {
	if depth >= MaxNesting {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, MaxNesting)
	}

	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("%w: dangling alias at line %d", ErrMalformed, n.Line)
		}
		return fromNode(n.Alias, depth+1)
	case yaml.SequenceNode:
		arr := NewArray()
		for _, c := range n.Content {
			item, err := fromNode(c, depth+1)
			if err != nil {
				return nil, err
			}
			arr.Append(item)
		}
		return arr, nil
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			member, err := fromNode(n.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			obj.Set(n.Content[i].Value, member)
		}
		if ref, ok := obj.Get("$ref"); ok && ref.Kind() == String {
			return &Value{kind: Reference, text: ref.Str(), fields: obj.fields}, nil
		}
		return obj, nil
	case yaml.ScalarNode:
		return fromScalar(n)
	default:
		return nil, fmt.Errorf("%w: unexpected node at line %d", ErrMalformed, n.Line)
	}
}

func fromScalar(n *yaml.Node) (*Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return NewNull(), nil
	case "!!bool":
		b, err := strconv.ParseBool(strings.ToLower(n.Value))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid boolean %q at line %d", ErrMalformed, n.Value, n.Line)
		}
		return NewBool(b), nil
	case "!!int", "!!float":
		if isJSONNumber(n.Value) {
			return NewNumberLiteral(n.Value), nil
		}
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q at line %d", ErrMalformed, n.Value, n.Line)
		}
		return NewNumber(f), nil
	default:
		return NewString(n.Value), nil
	}
}

// EncodeYAML writes v as a YAML document with object members in document
// order. Back-edges are written as {$ref: origin} as in MarshalJSON.
func EncodeYAML(v *Value) ([]byte, error) {
	e := yamlEncoder{stack: make(map[*Value]bool)}
	node, err := e.node(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type yamlEncoder struct {
	stack map[*Value]bool
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func refNode(target string) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		scalar("!!str", "$ref"), scalar("!!str", target),
	}}
}

func (e yamlEncoder) node(v *Value) (*yaml.Node, error) {
	switch v.Kind() {
	case Null:
		return scalar("!!null", "null"), nil
	case Bool:
		return scalar("!!bool", strconv.FormatBool(v.boolean)), nil
	case Number:
		if !isJSONNumber(v.number) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, v.number)
		}
		if strings.ContainsAny(v.number, ".eE") {
			return scalar("!!float", v.number), nil
		}
		return scalar("!!int", v.number), nil
	case String:
		return scalar("!!str", v.text), nil
	case Reference:
		if v.fields == nil {
			return refNode(v.text), nil
		}
		return e.node(v.AsObject())
	case Array:
		if e.stack[v] {
			return e.backEdge(v)
		}
		e.stack[v] = true
		defer delete(e.stack, v)

		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v.items {
			n, err := e.node(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case Object:
		if e.stack[v] {
			return e.backEdge(v)
		}
		e.stack[v] = true
		defer delete(e.stack, v)

		m := &yaml.Node{Kind: yaml.MappingNode}
		for k, member := range v.Fields() {
			n, err := e.node(member)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalar("!!str", k), n)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

func (e yamlEncoder) backEdge(v *Value) (*yaml.Node, error) {
	if v.Origin == "" {
		return nil, ErrCycle
	}
	return refNode(v.Origin), nil
}
