// Package canon implements the kernel's canonical JSON serialization: a
// pure, total function from any JSON-marshalable Go value to a deterministic
// byte sequence, used everywhere a value is hashed (activity log chain, DCL
// commits, checkpoints, config lock comparisons).
//
// Rules: object keys sorted lexicographically at every nesting level, no
// insignificant whitespace, UTF-8 output with no HTML or unicode escaping,
// integers and floats kept distinct, NaN/+-Infinity rejected, and timestamps
// expected to already be UTC ISO-8601 strings (the kernel never puts
// time.Time values directly into canonicalized structures — see
// internal/clock.NowUTC). Two semantically equal inputs always produce
// identical bytes.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

// Version pins the canonicalization rule set. Any change to these rules is
// a breaking change and must bump this value together with the config
// lock's canonicalization_version.
const Version = "1.0"

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// Marshal serializes v into canonical JSON bytes. v must be marshalable by
// encoding/json (structs, maps, slices, and scalars with standard or custom
// MarshalJSON methods).
//
// Unlike a plain json.Marshal + re-decode round trip, the intermediate form
// is built directly from v's reflected value rather than from stdlib's own
// JSON text: stdlib renders a whole-valued float64 (3.0) identically to an
// int (3), so decoding its output back would destroy the distinction before
// this package's encoder ever sees it.
func Marshal(v any) ([]byte, error) {
	generic, err := toIntermediate(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := encode(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sum returns the canonical JSON bytes for v, or an error if v cannot be
// canonicalized. Callers that need a hash should pass the result to
// HashBytes, or call Hash directly.
func Sum(v any) ([]byte, error) {
	return Marshal(v)
}

// toIntermediate walks rv and produces a tree of the types encode
// understands (nil, bool, json.Number, string, []any, map[string]any),
// preserving the int/float distinction that a stdlib json.Marshal pass
// alone would lose. Types that implement json.Marshaler, and a handful of
// shapes with no ambiguity risk (byte slices, non-string-keyed maps), are
// delegated to stdlib and decoded back with json.Decoder.UseNumber, which
// is safe because their own JSON text already fixes the representation.
func toIntermediate(rv reflect.Value) (any, error) {
	if !rv.IsValid() {
		return nil, nil
	}

	if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		return toIntermediate(rv.Elem())
	}

	if m, ok := asMarshaler(rv); ok {
		raw, err := m.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("canon: MarshalJSON: %w", err)
		}
		return decodeRaw(raw)
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return json.Number(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return json.Number(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.Float32:
		s, err := formatFloat(rv.Float(), 32)
		if err != nil {
			return nil, err
		}
		return json.Number(s), nil
	case reflect.Float64:
		s, err := formatFloat(rv.Float(), 64)
		if err != nil {
			return nil, err
		}
		return json.Number(s), nil
	case reflect.Slice, reflect.Array:
		return intermediateSlice(rv)
	case reflect.Map:
		return intermediateMap(rv)
	case reflect.Struct:
		return intermediateStruct(rv)
	default:
		return nil, fmt.Errorf("canon: unsupported type %s", rv.Type())
	}
}

// asMarshaler reports whether rv (or its address, if addressable) implements
// json.Marshaler, returning the interface to call through.
func asMarshaler(rv reflect.Value) (json.Marshaler, bool) {
	if rv.Type().Implements(marshalerType) {
		return rv.Interface().(json.Marshaler), true
	}
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(marshalerType) {
		return rv.Addr().Interface().(json.Marshaler), true
	}
	return nil, false
}

// formatFloat renders f so it is always textually distinguishable from an
// integer: strconv never emits a '.' or exponent marker for a whole value,
// so this appends ".0" when neither is present.
func formatFloat(f float64, bitSize int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("canon: %w", kernelerrors.ErrCanonNotFinite)
	}
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}

func intermediateSlice(rv reflect.Value) (any, error) {
	// A raw byte slice has no int/float ambiguity; let stdlib's base64
	// encoding (or a named type's own MarshalJSON, already handled above)
	// decide its representation.
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		raw, err := json.Marshal(rv.Interface())
		if err != nil {
			return nil, fmt.Errorf("canon: marshal byte slice: %w", err)
		}
		return decodeRaw(raw)
	}

	out := make([]any, rv.Len())
	for i := range out {
		elem, err := toIntermediate(rv.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = elem
	}
	return out, nil
}

func intermediateMap(rv reflect.Value) (any, error) {
	if rv.IsNil() {
		return nil, nil
	}
	if rv.Type().Key().Kind() != reflect.String {
		raw, err := json.Marshal(rv.Interface())
		if err != nil {
			return nil, fmt.Errorf("canon: marshal map: %w", err)
		}
		return decodeRaw(raw)
	}

	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		val, err := toIntermediate(iter.Value())
		if err != nil {
			return nil, err
		}
		out[iter.Key().String()] = val
	}
	return out, nil
}

func intermediateStruct(rv reflect.Value) (any, error) {
	out := map[string]any{}
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" && !field.Anonymous {
			continue // unexported
		}

		name, omitempty, skip := jsonFieldName(field)
		if skip {
			continue
		}

		fv := rv.Field(i)
		if omitempty && fv.IsZero() {
			continue
		}

		if field.Anonymous && name == "" {
			embedded, err := toIntermediate(fv)
			if err != nil {
				return nil, err
			}
			if em, ok := embedded.(map[string]any); ok {
				for k, v := range em {
					out[k] = v
				}
				continue
			}
		}

		if name == "" {
			name = field.Name
		}
		val, err := toIntermediate(fv)
		if err != nil {
			return nil, err
		}
		out[name] = val
	}
	return out, nil
}

// jsonFieldName replicates encoding/json's struct tag rules closely enough
// for this package's inputs: an explicit "-" tag skips the field, a name
// before the first comma overrides the field name, and "omitempty" is
// honored. The "string" option is not used anywhere in this codebase and is
// not implemented.
func jsonFieldName(field reflect.StructField) (name string, omitempty bool, skip bool) {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty, false
}

// decodeRaw decodes stdlib-produced JSON text into the intermediate form
// encode expects, preserving whatever int/float distinction that text
// already made explicit.
func decodeRaw(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canon: decode intermediate form: %w", err)
	}
	return generic, nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case json.Number:
		s := val.String()
		if s == "NaN" || s == "Infinity" || s == "-Infinity" {
			return fmt.Errorf("canon: %w", kernelerrors.ErrCanonNotFinite)
		}
		buf.WriteString(s)
		return nil
	case string:
		return encodeString(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encode(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("canon: unexpected intermediate type %T", v)
	}
}

// encodeString writes a JSON string literal with Go's standard escaping but
// without HTML escaping (<, >, & pass through raw) and without escaping
// non-ASCII runes, matching ensure_ascii=false.
func encodeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("canon: encode string: %w", err)
	}
	// json.Encoder.Encode appends a trailing newline; canonical output has none.
	buf.Truncate(buf.Len() - 1)
	return nil
}
