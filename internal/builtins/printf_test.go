package builtins

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrintfSimpleString(t *testing.T) {
	var buf bytes.Buffer
	code, err := Printf(&buf, []string{"%s\n", "hi"})
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "hi\n", buf.String())
}

func TestPrintfInteger(t *testing.T) {
	var buf bytes.Buffer
	_, err := Printf(&buf, []string{"%d-%d\n", "3", "4"})
	require.NoError(t, err)
	require.Equal(t, "3-4\n", buf.String())
}

func TestPrintfRecyclesFormatOverExtraArgs(t *testing.T) {
	var buf bytes.Buffer
	_, err := Printf(&buf, []string{"%s\n", "a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, "a\nb\nc\n", buf.String())
}

func TestPrintfMissingFormatIsError(t *testing.T) {
	var buf bytes.Buffer
	code, err := Printf(&buf, nil)
	require.Error(t, err)
	require.Equal(t, 2, code)
}

func TestPrintfLiteralPercent(t *testing.T) {
	var buf bytes.Buffer
	_, err := Printf(&buf, []string{"100%%\n"})
	require.NoError(t, err)
	require.Equal(t, "100%\n", buf.String())
}

func TestPrintfHex(t *testing.T) {
	var buf bytes.Buffer
	_, err := Printf(&buf, []string{"%x\n", "255"})
	require.NoError(t, err)
	require.Equal(t, "ff\n", buf.String())
}
