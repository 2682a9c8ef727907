package engine

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"
)

var (
	// ErrBinaryString means a byte string was not valid UTF-8 and cannot
	// be emitted as JSON.
	ErrBinaryString = errors.New("byte string is not valid UTF-8")

	// ErrNotAtom means a list or dictionary was given to the atom emitter.
	ErrNotAtom = errors.New("value is not a string or integer")
)

// EncodeJSON emits v as JSON. Dictionary keys are sorted ascending. Byte
// strings must be valid UTF-8; control characters and the JSON delimiters
// use the standard short escapes, printable ASCII is emitted literally and
// every other code point becomes \uXXXX.
func EncodeJSON(v Value) ([]byte, error) {
	return appendJSON(nil, v)
}

func appendJSON(dst []byte, v Value) ([]byte, error) {
	switch v := v.(type) {
	case String:
		return appendJSONString(dst, v)
	case Integer:
		return v.Append(dst, 10), nil
	case List:
		dst = append(dst, '[')
		for i, e := range v {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendJSON(dst, e); err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case Dict:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		dst = append(dst, '{')
		for i, k := range keys {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendJSONString(dst, String(k)); err != nil {
				return nil, err
			}
			dst = append(dst, ':')
			if dst, err = appendJSON(dst, v[k]); err != nil {
				return nil, err
			}
		}
		return append(dst, '}'), nil
	default:
		panic(fmt.Sprintf("bencode: unknown value type %T", v))
	}
}

func appendJSONString(dst []byte, s String) ([]byte, error) {
	if !utf8.Valid(s) {
		return nil, ErrBinaryString
	}
	dst = append(dst, '"')
	for _, r := range string(s) {
		switch {
		case r == '"':
			dst = append(dst, '\\', '"')
		case r == '\\':
			dst = append(dst, '\\', '\\')
		case r == '\b':
			dst = append(dst, '\\', 'b')
		case r == '\f':
			dst = append(dst, '\\', 'f')
		case r == '\n':
			dst = append(dst, '\\', 'n')
		case r == '\r':
			dst = append(dst, '\\', 'r')
		case r == '\t':
			dst = append(dst, '\\', 't')
		case r >= 0x20 && r < 0x7f:
			dst = append(dst, byte(r))
		case r > 0xffff:
			// Outside the BMP: encode as a surrogate pair.
			r -= 0x10000
			dst = fmt.Appendf(dst, `\u%04x\u%04x`, 0xd800+(r>>10), 0xdc00+(r&0x3ff))
		default:
			dst = fmt.Appendf(dst, `\u%04x`, r)
		}
	}
	return append(dst, '"'), nil
}

// Pretty renders v as an indented human-readable dump.
func Pretty(v Value) []byte {
	out := appendPretty(nil, v, 0)
	return append(out, '\n')
}

func appendPretty(dst []byte, v Value, depth int) []byte {
	switch v := v.(type) {
	case String:
		return appendQuoted(dst, v, 50)
	case Integer:
		return v.Append(dst, 10)
	case List:
		dst = append(dst, "list"...)
		for i, e := range v {
			dst = append(dst, '\n')
			dst = appendIndent(dst, depth+1)
			dst = strconv.AppendInt(dst, int64(i), 10)
			dst = append(dst, ": "...)
			dst = appendPretty(dst, e, depth+1)
		}
		return dst
	case Dict:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		dst = append(dst, "dict"...)
		for _, k := range keys {
			dst = append(dst, '\n')
			dst = appendIndent(dst, depth+1)
			dst = appendQuoted(dst, String(k), 0)
			dst = append(dst, ": "...)
			dst = appendPretty(dst, v[k], depth+1)
		}
		return dst
	default:
		panic(fmt.Sprintf("bencode: unknown value type %T", v))
	}
}

func appendIndent(dst []byte, depth int) []byte {
	for i := 0; i < depth; i++ {
		dst = append(dst, ' ', ' ')
	}
	return dst
}

// appendQuoted writes s in a printable-escape form, truncating with "..."
// past limit bytes (0 means no limit).
func appendQuoted(dst []byte, s String, limit int) []byte {
	truncated := false
	if limit > 0 && len(s) > limit {
		s = s[:limit]
		truncated = true
	}
	dst = append(dst, '"')
	for _, c := range s {
		switch {
		case c == '"' || c == '\\':
			dst = append(dst, '\\', c)
		case c >= 0x20 && c < 0x7f:
			dst = append(dst, c)
		default:
			dst = fmt.Appendf(dst, `\x%02x`, c)
		}
	}
	dst = append(dst, '"')
	if truncated {
		dst = append(dst, "..."...)
	}
	return dst
}

// Atom emits a scalar: raw bytes for a string (no trailing newline), and
// for an integer either plain decimal or, when timestamp is set, the value
// as an ISO-8601 UTC time from Unix seconds.
func Atom(v Value, timestamp bool) ([]byte, error) {
	switch v := v.(type) {
	case String:
		return []byte(v), nil
	case Integer:
		if timestamp {
			if !v.IsInt64() {
				return nil, fmt.Errorf("integer %s does not fit a timestamp", v.String())
			}
			return []byte(time.Unix(v.Int64(), 0).UTC().Format("2006-01-02T15:04:05")), nil
		}
		return v.Append(nil, 10), nil
	default:
		return nil, ErrNotAtom
	}
}
