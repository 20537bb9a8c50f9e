package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MetaKind discriminates the variants of a metadata value.
type MetaKind int

const (
	MetaNull MetaKind = iota
	MetaString
	MetaNumber
	MetaBool
	MetaList
	MetaMap
)

// MetaValue is a tagged union over the value shapes a metadata document may
// hold: scalar (string/number/bool), list, or nested map. Core logic works
// with this type rather than raw interface{} blobs.
type MetaValue struct {
	kind MetaKind
	str  string
	num  float64
	b    bool
	list []MetaValue
	obj  map[string]MetaValue
}

// Document is an open-ended string-keyed metadata document attached to a
// lead (industry, funding, tech stack, and so on). Keys are unordered.
type Document map[string]MetaValue

// Constructors.

func MetaStr(s string) MetaValue     { return MetaValue{kind: MetaString, str: s} }
func MetaNum(n float64) MetaValue    { return MetaValue{kind: MetaNumber, num: n} }
func MetaBoolVal(b bool) MetaValue   { return MetaValue{kind: MetaBool, b: b} }
func MetaListOf(vs ...MetaValue) MetaValue {
	return MetaValue{kind: MetaList, list: vs}
}
func MetaMapOf(m map[string]MetaValue) MetaValue {
	return MetaValue{kind: MetaMap, obj: m}
}

// Kind returns the variant tag.
func (v MetaValue) Kind() MetaKind { return v.kind }

// List returns the list elements, or nil for non-list values.
func (v MetaValue) List() []MetaValue {
	if v.kind != MetaList {
		return nil
	}
	return v.list
}

// Map returns the nested map, or nil for non-map values.
func (v MetaValue) Map() map[string]MetaValue {
	if v.kind != MetaMap {
		return nil
	}
	return v.obj
}

// Stringify renders the value as plain text for substring matching and
// display: scalars as their text, lists comma-joined, maps as JSON.
func (v MetaValue) Stringify() string {
	switch v.kind {
	case MetaString:
		return v.str
	case MetaNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case MetaBool:
		return strconv.FormatBool(v.b)
	case MetaList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.Stringify()
		}
		return strings.Join(parts, ", ")
	case MetaMap:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return ""
	}
}

// MarshalJSON emits the native JSON form of the value.
func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case MetaString:
		return json.Marshal(v.str)
	case MetaNumber:
		return json.Marshal(v.num)
	case MetaBool:
		return json.Marshal(v.b)
	case MetaList:
		return json.Marshal(v.list)
	case MetaMap:
		return json.Marshal(v.obj)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts any JSON value and tags it.
func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := fromRaw(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromRaw(raw interface{}) (MetaValue, error) {
	switch t := raw.(type) {
	case nil:
		return MetaValue{kind: MetaNull}, nil
	case string:
		return MetaStr(t), nil
	case float64:
		return MetaNum(t), nil
	case bool:
		return MetaBoolVal(t), nil
	case []interface{}:
		list := make([]MetaValue, len(t))
		for i, item := range t {
			parsed, err := fromRaw(item)
			if err != nil {
				return MetaValue{}, err
			}
			list[i] = parsed
		}
		return MetaValue{kind: MetaList, list: list}, nil
	case map[string]interface{}:
		obj := make(map[string]MetaValue, len(t))
		for k, item := range t {
			parsed, err := fromRaw(item)
			if err != nil {
				return MetaValue{}, err
			}
			obj[k] = parsed
		}
		return MetaValue{kind: MetaMap, obj: obj}, nil
	default:
		return MetaValue{}, fmt.Errorf("unsupported metadata value type %T", raw)
	}
}

// ParseDocument decodes a serialized metadata document. An empty input
// yields an empty document.
func ParseDocument(data []byte) (Document, error) {
	if len(data) == 0 {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Serialize renders the document to its storage text form.
func (d Document) Serialize() (string, error) {
	if d == nil {
		return "{}", nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Stringify renders the whole document as text for whole-document substring
// matching. Keys are sorted so the rendering is deterministic.
func (d Document) Stringify() string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(d[k].Stringify())
	}
	return sb.String()
}
