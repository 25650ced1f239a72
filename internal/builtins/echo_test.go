package builtins

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEchoPlain(t *testing.T) {
	var buf bytes.Buffer
	code := Echo(&buf, []string{"hello", "world"})
	require.Equal(t, 0, code)
	require.Equal(t, "hello world\n", buf.String())
}

func TestEchoNoNewline(t *testing.T) {
	var buf bytes.Buffer
	Echo(&buf, []string{"-n", "hello"})
	require.Equal(t, "hello", buf.String())
}

func TestEchoInterpretsEscapes(t *testing.T) {
	var buf bytes.Buffer
	Echo(&buf, []string{"-e", `a\tb\nc`})
	require.Equal(t, "a\tb\nc\n", buf.String())
}

func TestEchoDoesNotInterpretEscapesByDefault(t *testing.T) {
	var buf bytes.Buffer
	Echo(&buf, []string{`a\tb`})
	require.Equal(t, "a\\tb\n", buf.String())
}

func TestEchoOctalEscape(t *testing.T) {
	var buf bytes.Buffer
	Echo(&buf, []string{"-e", `\101`})
	require.Equal(t, "A\n", buf.String())
}

func TestEchoBackslashCStopsOutput(t *testing.T) {
	var buf bytes.Buffer
	Echo(&buf, []string{"-e", `abc\cdef`})
	require.Equal(t, "abc", buf.String())
}
