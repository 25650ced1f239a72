// Package scrub redacts registered secret values from anything written
// through it, and can lock down the process's real stdout/stderr so a
// running script can never bypass the scrubber by writing to the raw fds
// directly (spec.md's guest isolation requirements, §4.6/§6).
package scrub

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/vercel-labs/just-bash/internal/invariant"
)

// Scrubber wraps an io.Writer and redacts registered secrets before they
// reach it. Secrets are typically environment variables the host marked
// sensitive (e.g. credentials injected for a Postgres override).
type Scrubber struct {
	writer  io.Writer
	secrets map[string]string // secret value -> placeholder
	mu      sync.RWMutex
}

// New wraps w with secret redaction.
func New(w io.Writer) *Scrubber {
	invariant.NotNil(w, "writer")
	return &Scrubber{writer: w, secrets: make(map[string]string)}
}

// Register marks value for redaction, replacing it with placeholder in all
// future writes. Call it once per secret before any output is produced.
func (s *Scrubber) Register(value, placeholder string) {
	invariant.Precondition(value != "", "secret value cannot be empty")
	invariant.Precondition(placeholder != "", "placeholder cannot be empty")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[value] = placeholder
}

// Write implements io.Writer.
func (s *Scrubber) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := string(p)
	for secret, placeholder := range s.secrets {
		out = strings.ReplaceAll(out, secret, placeholder)
	}

	if _, err := s.writer.Write([]byte(out)); err != nil {
		return 0, err
	}
	// Report the original length so callers relying on io.Writer's
	// contract (n == len(p) on success) don't see a short write.
	return len(p), nil
}

// LockdownConfig configures stdout/stderr lockdown.
type LockdownConfig struct {
	Scrubber io.Writer // must not be nil
}

// LockDownStdStreams redirects the process's os.Stdout/os.Stderr through
// pipes that feed config.Scrubber, so no in-process code — including a
// guest script's utility implementations — can write raw, unscrubbed bytes
// to the real file descriptors. The returned restore func must be called
// exactly once to put the original streams back.
func LockDownStdStreams(config *LockdownConfig) (restore func()) {
	invariant.NotNil(config, "config")
	invariant.NotNil(config.Scrubber, "config.Scrubber")

	originalStdout := os.Stdout
	originalStderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	invariant.Invariant(err == nil, "failed to create stdout pipe: %v", err)
	rErr, wErr, err := os.Pipe()
	invariant.Invariant(err == nil, "failed to create stderr pipe: %v", err)

	os.Stdout = wOut
	os.Stderr = wErr

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(config.Scrubber, rOut)
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(config.Scrubber, rErr)
	}()

	return func() {
		_ = wOut.Close()
		_ = wErr.Close()
		wg.Wait()
		_ = rOut.Close()
		_ = rErr.Close()
		os.Stdout = originalStdout
		os.Stderr = originalStderr
	}
}
