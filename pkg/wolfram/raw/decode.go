package raw

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// SchemaViolation reports a document that does not match any accepted shape.
// Path uses dotted keys and bracketed indexes, e.g. "queryresult.pods[2].subpods[0].img.width".
type SchemaViolation struct {
	Path   string
	Reason string
}

func (e *SchemaViolation) Error() string {
	if e.Path == "" {
		return "schema violation: " + e.Reason
	}
	return fmt.Sprintf("schema violation at %s: %s", e.Path, e.Reason)
}

// Violation builds a SchemaViolation at path.
func Violation(path, format string, args ...any) *SchemaViolation {
	return &SchemaViolation{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// JoinPath appends a key or an index segment ("[3]") to a parent path.
func JoinPath(parent, child string) string {
	switch {
	case child == "":
		return parent
	case parent == "":
		return child
	case strings.HasPrefix(child, "["):
		return parent + child
	default:
		return parent + "." + child
	}
}

// IndexPath returns the path of element i under parent.
func IndexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

// underPath re-roots a violation returned by a nested decode.
func underPath(prefix string, err error) error {
	if err == nil || prefix == "" {
		return err
	}
	var sv *SchemaViolation
	if errors.As(err, &sv) {
		return &SchemaViolation{Path: JoinPath(prefix, sv.Path), Reason: sv.Reason}
	}
	return &SchemaViolation{Path: prefix, Reason: err.Error()}
}

// Decode strictly decodes a JSON document into v, which must be a non-nil pointer.
//
// Every struct rejects keys it does not declare, every non-pointer field is required and
// scalar kinds must match exactly. All failures are returned as *SchemaViolation.
func Decode(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("raw: Decode requires a non-nil pointer, got %T", v)
	}
	if err := json.Unmarshal(data, new(json.RawMessage)); err != nil {
		return &SchemaViolation{Reason: "malformed JSON: " + err.Error()}
	}
	return decodeValue(bytes.TrimSpace(data), rv.Elem(), "")
}

// decodeNested decodes a fragment of a document that was already checked for syntax.
func decodeNested(data []byte, v any) error {
	return decodeValue(bytes.TrimSpace(data), reflect.ValueOf(v).Elem(), "")
}

type jsonKind string

const (
	kindObject jsonKind = "object"
	kindArray  jsonKind = "array"
	kindString jsonKind = "string"
	kindNumber jsonKind = "number"
	kindBool   jsonKind = "boolean"
	kindNull   jsonKind = "null"
)

func kindOf(data []byte) jsonKind {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return kindNull
	}
	switch data[0] {
	case '{':
		return kindObject
	case '[':
		return kindArray
	case '"':
		return kindString
	case 't', 'f':
		return kindBool
	case 'n':
		return kindNull
	default:
		return kindNumber
	}
}

var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

func decodeValue(data []byte, v reflect.Value, path string) error {
	kind := kindOf(data)
	if v.Kind() == reflect.Pointer {
		if kind == kindNull {
			v.SetZero()
			return nil
		}
		elem := reflect.New(v.Type().Elem())
		if err := decodeValue(data, elem.Elem(), path); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	}
	if v.CanAddr() && v.Addr().Type().Implements(unmarshalerType) {
		if err := v.Addr().Interface().(json.Unmarshaler).UnmarshalJSON(data); err != nil {
			return underPath(path, err)
		}
		return nil
	}
	switch v.Kind() {
	case reflect.Struct:
		return decodeStruct(data, kind, v, path)
	case reflect.Slice:
		return decodeSlice(data, kind, v, path)
	case reflect.String:
		if kind != kindString {
			return Violation(path, "expected string, got %s", kind)
		}
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Violation(path, "invalid string: %v", err)
		}
		v.SetString(s)
	case reflect.Bool:
		if kind != kindBool {
			return Violation(path, "expected boolean, got %s", kind)
		}
		v.SetBool(data[0] == 't')
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if kind != kindNumber {
			return Violation(path, "expected integer, got %s", kind)
		}
		n, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil || v.OverflowInt(n) {
			return Violation(path, "expected %s, got %s", v.Kind(), data)
		}
		v.SetInt(n)
	case reflect.Float32, reflect.Float64:
		if kind != kindNumber {
			return Violation(path, "expected number, got %s", kind)
		}
		f, err := strconv.ParseFloat(string(data), v.Type().Bits())
		if err != nil {
			return Violation(path, "invalid number %s", data)
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("raw: unsupported field type %s at %q", v.Type(), path)
	}
	return nil
}

func decodeSlice(data []byte, kind jsonKind, v reflect.Value, path string) error {
	if kind != kindArray {
		return Violation(path, "expected array, got %s", kind)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return Violation(path, "invalid array: %v", err)
	}
	out := reflect.MakeSlice(v.Type(), len(elems), len(elems))
	for i, elem := range elems {
		if err := decodeValue(bytes.TrimSpace(elem), out.Index(i), IndexPath(path, i)); err != nil {
			return err
		}
	}
	v.Set(out)
	return nil
}

func decodeStruct(data []byte, kind jsonKind, v reflect.Value, path string) error {
	if kind != kindObject {
		return Violation(path, "expected object, got %s", kind)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return Violation(path, "invalid object: %v", err)
	}
	fields := fieldsOf(v.Type())

	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if _, ok := fields.byName[key]; !ok {
			return Violation(JoinPath(path, key), "unknown field")
		}
	}

	for _, f := range fields.list {
		value, ok := obj[f.name]
		if !ok {
			if f.required {
				return Violation(JoinPath(path, f.name), "missing required field")
			}
			continue
		}
		if err := decodeValue(bytes.TrimSpace(value), v.Field(f.index), JoinPath(path, f.name)); err != nil {
			return err
		}
	}
	return nil
}

type structField struct {
	name     string
	index    int
	required bool
}

type structFields struct {
	list   []structField
	byName map[string]structField
}

var fieldCache sync.Map

func fieldsOf(t reflect.Type) *structFields {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(*structFields)
	}
	fields := &structFields{byName: make(map[string]structField)}
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		f := structField{name: name, index: i, required: sf.Type.Kind() != reflect.Pointer}
		fields.list = append(fields.list, f)
		fields.byName[name] = f
	}
	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.(*structFields)
}
