package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodeIdentity(t *testing.T) {
	input := []byte("d3:cow3:moo4:spam4:eggse")

	v, err := Decode(input)
	require.NoError(t, err)

	d, ok := v.(Dict)
	require.True(t, ok)
	assert.Equal(t, String("moo"), d["cow"])
	assert.Equal(t, String("eggs"), d["spam"])

	assert.Equal(t, input, Encode(v))
}

func TestCanonicalRoundTrip(t *testing.T) {
	inputs := []string{
		"0:",
		"4:spam",
		"i0e",
		"i42e",
		"i-42e",
		"i238273467862384672346782346873e", // beyond int64
		"le",
		"de",
		"li1ei2ei3ee",
		"l4:spami42ee",
		"d3:bar4:spam3:fooi42ee",
		"d1:ad1:bl1:cee1:di-1ee",
		"d8:announce35:http://tracker.example.com/announce4:infod6:lengthi5e4:name1:f12:piece lengthi5e6:pieces20:aaaaaaaaaaaaaaaaaaaaee",
	}
	for _, input := range inputs {
		v, err := Decode([]byte(input))
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, input, string(Encode(v)), "input %q", input)
	}
}

func TestStructuralRoundTrip(t *testing.T) {
	values := []Value{
		String(""),
		String("hello"),
		String("\x00\xff\xfe"),
		NewInteger(0),
		NewInteger(-77),
		List{},
		List{NewInteger(1), String("two"), List{String("three")}},
		Dict{},
		Dict{
			"str":  String("v"),
			"int":  NewInteger(9),
			"list": List{NewInteger(1)},
			"dict": Dict{"k": String("v")},
		},
	}
	for _, v := range values {
		got, err := Decode(Encode(v))
		require.NoError(t, err)
		assert.True(t, Equal(v, got), "value %#v", v)
	}
}

func TestDecodeRejects(t *testing.T) {
	inputs := []string{
		"",
		"x",
		"i03e",
		"i00e",
		"i-0e",
		"i+1e",
		"ie",
		"i-e",
		"i12",
		"i1x2e",
		"5:spam",     // length overrun
		"01:a",       // leading zero in length
		"4spam",      // missing colon
		"l4:spam",    // unterminated list
		"d3:fooi1e",  // unterminated dict
		"di1ei2ee",   // integer key
		"dl1:aei1ee", // list key
		"d4:spam4:eggs3:cow3:mooe", // keys out of order
		"d3:cow3:moo3:cow4:eggse",  // duplicate key
		"i1ei2e",                   // trailing value
		"4:spamx",                  // trailing byte
		"de ",                      // trailing whitespace
	}
	for _, input := range inputs {
		_, err := Decode([]byte(input))
		require.Error(t, err, "input %q", input)

		var serr *SyntaxError
		require.True(t, errors.As(err, &serr), "input %q", input)
		assert.GreaterOrEqual(t, serr.Offset, 0)
		assert.LessOrEqual(t, serr.Offset, len(input))
	}
}

func TestDecodeErrorOffset(t *testing.T) {
	_, err := Decode([]byte("d3:fooi01ee"))
	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 6, serr.Offset)

	_, err = Decode([]byte("d4:spam4:eggs3:cow3:mooe"))
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 13, serr.Offset)
	assert.Contains(t, serr.Error(), "out of order")
}

func TestDecodeBinaryString(t *testing.T) {
	raw := append([]byte("3:"), 0x00, 0xff, 0x80)
	v, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, String([]byte{0x00, 0xff, 0x80}), v)
}

func TestDecodeLongString(t *testing.T) {
	payload := strings.Repeat("a", 1000)
	v, err := Decode([]byte("1000:" + payload))
	require.NoError(t, err)
	assert.Equal(t, String(payload), v)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(NewInteger(5), NewInteger(5)))
	assert.False(t, Equal(NewInteger(5), NewInteger(6)))
	assert.False(t, Equal(NewInteger(5), String("5")))
	assert.True(t, Equal(
		Dict{"a": List{String("x")}},
		Dict{"a": List{String("x")}},
	))
	assert.False(t, Equal(
		Dict{"a": List{String("x")}},
		Dict{"a": List{String("y")}},
	))
	assert.False(t, Equal(List{}, List{NewInteger(0)}))
}
