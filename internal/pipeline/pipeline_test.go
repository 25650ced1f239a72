package pipeline

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// upperStage reads all of stdin, upper-cases it, and writes it to stdout.
func upperStage(index int, stdin io.Reader, stdout, stderr io.Writer) int {
	data, _ := io.ReadAll(stdin)
	stdout.Write(bytes.ToUpper(data))
	return 0
}

func exitCodeStage(code int) Stage {
	return func(index int, stdin io.Reader, stdout, stderr io.Writer) int {
		io.Copy(stdout, stdin)
		return code
	}
}

func TestRunSingleStage(t *testing.T) {
	var out bytes.Buffer
	codes := Run([]Stage{upperStage}, strings.NewReader("hi"), &out, io.Discard, []bool{false})
	require.Equal(t, []int{0}, codes)
	require.Equal(t, "HI", out.String())
}

func TestRunChainsStdoutToNextStdin(t *testing.T) {
	var out bytes.Buffer
	stages := []Stage{upperStage, upperStage}
	codes := Run(stages, strings.NewReader("abc"), &out, io.Discard, []bool{false, false})
	require.Equal(t, []int{0, 0}, codes)
	require.Equal(t, "ABC", out.String())
}

func TestPipeStatusPipefailPicksRightmostNonzero(t *testing.T) {
	codes := []int{0, 3, 0}
	require.Equal(t, 3, PipeStatus(codes, true))
}

func TestPipeStatusWithoutPipefailUsesLastStage(t *testing.T) {
	codes := []int{5, 0, 0}
	require.Equal(t, 0, PipeStatus(codes, false))
}

func TestRunPropagatesEachStageExitCode(t *testing.T) {
	var out bytes.Buffer
	stages := []Stage{exitCodeStage(1), exitCodeStage(2), exitCodeStage(0)}
	codes := Run(stages, strings.NewReader("x"), &out, io.Discard, []bool{false, false, false})
	require.Equal(t, []int{1, 2, 0}, codes)
}
