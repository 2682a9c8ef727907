package engine

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
)

// Value is a decoded bencoded value: String, Integer, List or Dict.
type Value interface {
	value()
}

// String is a byte string. It carries raw bytes, not text.
type String []byte

// Integer is an arbitrary-precision integer.
type Integer struct {
	*big.Int
}

// List is an ordered sequence of values.
type List []Value

// Dict maps byte-string keys to values. Canonical key order is re-derived
// on encode by sorting; this reproduces the decoder's input ordering
// because the decoder only admits strictly ascending keys.
type Dict map[string]Value

func (String) value()  {}
func (Integer) value() {}
func (List) value()    {}
func (Dict) value()    {}

// NewInteger wraps an int64 as an Integer.
func NewInteger(v int64) Integer {
	return Integer{big.NewInt(v)}
}

// SyntaxError reports ill-formed bencoding with the byte offset at which
// decoding failed.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bencode: invalid data at offset %d: %s", e.Offset, e.Msg)
}

// Decoder walks a byte buffer and produces Values.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder creates a decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Decode decodes a complete buffer. Trailing bytes after the value are an
// error: a canonical encoding is exactly one value.
func Decode(data []byte) (Value, error) {
	d := NewDecoder(data)
	v, err := d.decodeValue()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, d.errorf("trailing data after value")
	}
	return v, nil
}

func (d *Decoder) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: d.pos, Msg: fmt.Sprintf(format, args...)}
}

func (d *Decoder) decodeValue() (Value, error) {
	if d.pos >= len(d.data) {
		return nil, d.errorf("unexpected end of data")
	}

	switch c := d.data[d.pos]; {
	case c == 'i':
		return d.decodeInteger()
	case c == 'l':
		return d.decodeList()
	case c == 'd':
		return d.decodeDict()
	case c >= '0' && c <= '9':
		return d.decodeString()
	default:
		return nil, d.errorf("unknown marker %q", c)
	}
}

// decodeString reads <length>:<bytes>. The length must have no leading
// zero unless it is exactly "0".
func (d *Decoder) decodeString() (String, error) {
	start := d.pos
	for d.pos < len(d.data) && d.data[d.pos] >= '0' && d.data[d.pos] <= '9' {
		d.pos++
	}
	digits := d.data[start:d.pos]
	if len(digits) > 1 && digits[0] == '0' {
		d.pos = start
		return nil, d.errorf("string length has a leading zero")
	}
	if d.pos >= len(d.data) || d.data[d.pos] != ':' {
		return nil, d.errorf("expected ':' after string length")
	}
	d.pos++

	length := 0
	for _, c := range digits {
		length = length*10 + int(c-'0')
		if length > len(d.data) {
			d.pos = start
			return nil, d.errorf("string length exceeds data")
		}
	}
	if d.pos+length > len(d.data) {
		d.pos = start
		return nil, d.errorf("string length exceeds data")
	}
	s := d.data[d.pos : d.pos+length]
	d.pos += length
	return String(s), nil
}

// decodeInteger reads i<n>e where n matches 0 | -?[1-9][0-9]*.
func (d *Decoder) decodeInteger() (Value, error) {
	open := d.pos
	d.pos++ // skip 'i'
	start := d.pos
	for d.pos < len(d.data) && d.data[d.pos] != 'e' {
		d.pos++
	}
	if d.pos >= len(d.data) {
		d.pos = open
		return nil, d.errorf("unterminated integer")
	}
	text := d.data[start:d.pos]
	d.pos++ // skip 'e'

	if !canonicalInteger(text) {
		return nil, &SyntaxError{Offset: open, Msg: fmt.Sprintf("non-canonical integer %q", text)}
	}
	n, _ := new(big.Int).SetString(string(text), 10)
	return Integer{n}, nil
}

// canonicalInteger accepts exactly 0 | -?[1-9][0-9]*.
func canonicalInteger(text []byte) bool {
	if len(text) == 0 {
		return false
	}
	if text[0] == '-' {
		text = text[1:]
		if len(text) == 0 || text[0] == '0' {
			return false // covers "-" and "-0"
		}
	} else if text[0] == '0' && len(text) > 1 {
		return false
	}
	for _, c := range text {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (d *Decoder) decodeList() (List, error) {
	d.pos++ // skip 'l'
	list := List{}
	for d.pos < len(d.data) && d.data[d.pos] != 'e' {
		v, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	if d.pos >= len(d.data) {
		return nil, d.errorf("unterminated list")
	}
	d.pos++ // skip 'e'
	return list, nil
}

// decodeDict reads d<pairs>e. Keys must be byte strings in strictly
// ascending order over raw bytes; a reversed or duplicate key is an error.
func (d *Decoder) decodeDict() (Dict, error) {
	d.pos++ // skip 'd'
	dict := make(Dict)
	var prev []byte
	first := true
	for d.pos < len(d.data) && d.data[d.pos] != 'e' {
		if c := d.data[d.pos]; c < '0' || c > '9' {
			return nil, d.errorf("dictionary key must be a string")
		}
		keyStart := d.pos
		key, err := d.decodeString()
		if err != nil {
			return nil, err
		}
		if !first && bytes.Compare(prev, key) >= 0 {
			return nil, &SyntaxError{Offset: keyStart, Msg: fmt.Sprintf("dictionary key %q out of order", key)}
		}
		v, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		dict[string(key)] = v
		prev = key
		first = false
	}
	if d.pos >= len(d.data) {
		return nil, d.errorf("unterminated dictionary")
	}
	d.pos++ // skip 'e'
	return dict, nil
}

// Encode produces the canonical encoding of v.
func Encode(v Value) []byte {
	return appendValue(nil, v)
}

func appendValue(dst []byte, v Value) []byte {
	switch v := v.(type) {
	case String:
		return appendString(dst, v)
	case Integer:
		dst = append(dst, 'i')
		dst = v.Append(dst, 10)
		return append(dst, 'e')
	case List:
		dst = append(dst, 'l')
		for _, e := range v {
			dst = appendValue(dst, e)
		}
		return append(dst, 'e')
	case Dict:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		dst = append(dst, 'd')
		for _, k := range keys {
			dst = appendString(dst, String(k))
			dst = appendValue(dst, v[k])
		}
		return append(dst, 'e')
	default:
		panic(fmt.Sprintf("bencode: unknown value type %T", v))
	}
}

func appendString(dst []byte, s String) []byte {
	dst = fmt.Appendf(dst, "%d:", len(s))
	return append(dst, s...)
}

// Equal reports structural equality of two values.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case String:
		b, ok := b.(String)
		return ok && bytes.Equal(a, b)
	case Integer:
		b, ok := b.(Integer)
		return ok && a.Cmp(b.Int) == 0
	case List:
		b, ok := b.(List)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case Dict:
		b, ok := b.(Dict)
		if !ok || len(a) != len(b) {
			return false
		}
		for k, av := range a {
			bv, ok := b[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
