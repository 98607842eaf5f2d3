package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"
)

// Kind identifies the JSON type held by a Value
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is a JSON value whose objects remember key order.
// The zero Value is JSON null.
type Value struct {
	kind  Kind
	b     bool
	s     string // string contents, or the literal text of a number
	items []Value
	keys  []string
	props map[string]Value
}

// ParseValue parses s as a single JSON document
func ParseValue(s string) (Value, bool) {
	if !gjson.Valid(s) {
		return Value{}, false
	}
	return fromResult(gjson.Parse(s)), true
}

// MustParseValue parses s and panics when it is not valid JSON
func MustParseValue(s string) Value {
	v, ok := ParseValue(s)
	if !ok {
		panic(fmt.Sprintf("invalid JSON: %q", s))
	}
	return v
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.True:
		return Value{kind: KindBool, b: true}
	case gjson.False:
		return Value{kind: KindBool}
	case gjson.Number:
		return Value{kind: KindNumber, s: strings.TrimSpace(r.Raw)}
	case gjson.String:
		return StringValue(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			v := Value{kind: KindArray, items: []Value{}}
			r.ForEach(func(_, item gjson.Result) bool {
				v.items = append(v.items, fromResult(item))
				return true
			})
			return v
		}
		v := Value{kind: KindObject, props: map[string]Value{}}
		r.ForEach(func(key, item gjson.Result) bool {
			v.set(key.Str, fromResult(item))
			return true
		})
		return v
	default:
		return Value{}
	}
}

// set stores key, keeping the position of the first occurrence
func (v *Value) set(key string, val Value) {
	key = validUTF8(key)
	if _, exists := v.props[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.props[key] = val
}

// StringValue returns a string Value. Invalid UTF-8 is replaced with
// U+FFFD, the same substitution JSON encoding would make.
func StringValue(s string) Value {
	return Value{kind: KindString, s: validUTF8(s)}
}

func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}

// ArrayValue returns an array Value holding items
func ArrayValue(items ...Value) Value {
	return Value{kind: KindArray, items: append([]Value{}, items...)}
}

// ObjectValue builds an object from alternating key, value arguments.
// Values are converted with ValueOf.
func ObjectValue(pairs ...any) Value {
	v := Value{kind: KindObject, props: map[string]Value{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		v.set(key, ValueOf(pairs[i+1]))
	}
	return v
}

// ValueOf converts a Go value into a Value. Maps without an inherent
// order are emitted with sorted keys.
func ValueOf(x any) Value {
	switch t := x.(type) {
	case nil:
		return Value{}
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return Value{kind: KindBool, b: t}
	case int:
		return Value{kind: KindNumber, s: strconv.Itoa(t)}
	case int64:
		return Value{kind: KindNumber, s: strconv.FormatInt(t, 10)}
	case float64:
		return Value{kind: KindNumber, s: strconv.FormatFloat(t, 'f', -1, 64)}
	case json.Number:
		return Value{kind: KindNumber, s: t.String()}
	case []string:
		items := make([]Value, 0, len(t))
		for _, s := range t {
			items = append(items, StringValue(s))
		}
		return Value{kind: KindArray, items: items}
	case []Value:
		return ArrayValue(t...)
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, ValueOf(item))
		}
		return Value{kind: KindArray, items: items}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		v := Value{kind: KindObject, props: map[string]Value{}}
		for _, k := range keys {
			v.set(k, ValueOf(t[k]))
		}
		return v
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return StringValue(fmt.Sprint(t))
		}
		parsed, _ := ParseValue(string(data))
		return parsed
	}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsArray() bool  { return v.kind == KindArray }
func (v Value) IsObject() bool { return v.kind == KindObject }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) Bool() bool     { return v.kind == KindBool && v.b }
func (v Value) Items() []Value { return v.items }
func (v Value) Keys() []string { return append([]string(nil), v.keys...) }

func (v Value) Str() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// Len returns the number of array items or object keys
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.keys)
	}
	return 0
}

// Get returns the value stored under key in an object
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	val, ok := v.props[key]
	return val, ok
}

// Has reports whether an object holds key, whatever its value
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// IsBlankString reports whether v is not a string or only whitespace
func (v Value) IsBlankString() bool {
	return v.kind != KindString || strings.TrimSpace(v.s) == ""
}

// Text returns the display form of v: strings verbatim, numbers and
// booleans as literals, null as "", and structured values as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber, KindString:
		return v.s
	default:
		data, _ := v.MarshalJSON()
		return string(data)
	}
}

// Float returns the numeric value of a number
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	return f, err == nil
}

// Pretty returns an indented JSON rendering of v
func (v Value) Pretty() string {
	data, _ := v.MarshalJSON()
	return strings.TrimRight(string(pretty.Pretty(data)), "\n")
}

// Equal reports whether two values serialize identically
func (v Value) Equal(other Value) bool {
	a, _ := v.MarshalJSON()
	b, _ := other.MarshalJSON()
	return bytes.Equal(a, b)
}

// MarshalJSON writes v with object keys in their original order
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(v.s)
	case KindString:
		return encodeString(buf, v.s)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, key := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := v.props[key].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// UnmarshalJSON parses data, preserving object key order
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, ok := ParseValue(string(data))
	if !ok {
		return fmt.Errorf("invalid JSON value")
	}
	*v = parsed
	return nil
}

// MarshalYAML exports v as a YAML node tree so mappings keep their key order
func (v Value) MarshalYAML() (interface{}, error) {
	return v.yamlNode(), nil
}

func (v Value) yamlNode() *yaml.Node {
	switch v.kind {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindNumber:
		tag := "!!int"
		if strings.ContainsAny(v.s, ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.s}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}
	case KindArray:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.items {
			node.Content = append(node.Content, item.yamlNode())
		}
		return node
	case KindObject:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range v.keys {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				v.props[key].yamlNode())
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
