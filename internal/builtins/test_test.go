package builtins

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTestStringComparisons(t *testing.T) {
	require.Equal(t, 0, Test("test", []string{"foo", "=", "foo"}))
	require.Equal(t, 1, Test("test", []string{"foo", "=", "bar"}))
	require.Equal(t, 0, Test("test", []string{"foo", "!=", "bar"}))
}

func TestTestGlobEquality(t *testing.T) {
	require.Equal(t, 0, Test("test", []string{"file.txt", "=", "*.txt"}))
}

func TestTestNumericComparisons(t *testing.T) {
	require.Equal(t, 0, Test("test", []string{"3", "-lt", "5"}))
	require.Equal(t, 1, Test("test", []string{"5", "-lt", "3"}))
	require.Equal(t, 0, Test("test", []string{"5", "-eq", "5"}))
}

func TestTestUnaryStringChecks(t *testing.T) {
	require.Equal(t, 0, Test("test", []string{"-z", ""}))
	require.Equal(t, 1, Test("test", []string{"-z", "x"}))
	require.Equal(t, 0, Test("test", []string{"-n", "x"}))
}

func TestTestNegation(t *testing.T) {
	require.Equal(t, 0, Test("test", []string{"!", "-z", "x"}))
}

func TestBracketFormStripsTrailingBracket(t *testing.T) {
	require.Equal(t, 0, Test("[", []string{"1", "-eq", "1", "]"}))
}

func TestTestWithFSUsesInjectedFileCheck(t *testing.T) {
	calls := map[string]bool{"-e": true}
	ft := func(flag, path string) bool { return calls[flag] && path == "/exists" }
	require.Equal(t, 0, TestWithFS("test", []string{"-e", "/exists"}, ft))
	require.Equal(t, 1, TestWithFS("test", []string{"-e", "/missing"}, ft))
}
