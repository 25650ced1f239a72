// Command just-bash is the default command-line wrapper around the
// sandboxed shell engine (spec.md §6 "CLI surface"): it mounts an
// optional host directory into the VFS, builds the network/Postgres
// gates from an optional --config document, runs one script to
// completion, and reports its exit code.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cobra"

	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/config"
	"github.com/vercel-labs/just-bash/internal/hostmount"
	"github.com/vercel-labs/just-bash/internal/interp"
	"github.com/vercel-labs/just-bash/internal/netgate"
	"github.com/vercel-labs/just-bash/internal/snapshot"
	"github.com/vercel-labs/just-bash/internal/vfs"
)

// version is stamped at release time; "dev" covers local builds.
var version = "dev"

const jsonEnvelopeSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "required": ["stdout", "stderr", "exitCode"],
  "properties": {
    "stdout": {"type": "string"},
    "stderr": {"type": "string"},
    "exitCode": {"type": "integer"}
  }
}`

var jsonEnvelopeSchema = mustCompileEnvelopeSchema()

func mustCompileEnvelopeSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema://just-bash-json-envelope.json", strings.NewReader(jsonEnvelopeSchemaJSON)); err != nil {
		panic(fmt.Sprintf("main: bad embedded schema: %v", err))
	}
	s, err := compiler.Compile("schema://just-bash-json-envelope.json")
	if err != nil {
		panic(fmt.Sprintf("main: bad embedded schema: %v", err))
	}
	return s
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		script      string
		errexit     bool
		rootDir     string
		cwd         string
		allowWrite  bool
		jsonOutput  bool
		configPath  string
		snapshotIn  string
		snapshotOut string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:           "just-bash [script-file]",
		Short:         "Run a sandboxed, in-process POSIX-ish shell script",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.Flags().StringVarP(&script, "command", "c", "", "execute inline script")
	rootCmd.Flags().BoolVarP(&errexit, "errexit", "e", false, "set errexit")
	rootCmd.Flags().StringVar(&rootDir, "root", "", "mount DIR (host path) at /home/user/project")
	rootCmd.Flags().StringVar(&cwd, "cwd", "", "override initial cwd (default = mount point)")
	rootCmd.Flags().BoolVar(&allowWrite, "allow-write", false, "disable read-only mode on the VFS")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit {stdout, stderr, exitCode} as one JSON object")
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML document configuring the network/Postgres gates")
	rootCmd.Flags().StringVar(&snapshotIn, "snapshot-in", "", "restore VFS state from a CBOR snapshot file before running")
	rootCmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "write VFS state as a CBOR snapshot file after running")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version")
	rootCmd.SetArgs(args)

	var exitCode int
	rootCmd.RunE = func(cmd *cobra.Command, posArgs []string) error {
		if showVersion {
			fmt.Fprintf(cmd.OutOrStdout(), "just-bash %s\n", version)
			return nil
		}

		var scriptFile string
		if len(posArgs) == 1 {
			scriptFile = posArgs[0]
		}
		if script == "" && scriptFile == "" {
			return fmt.Errorf("no script given: use -c SCRIPT or pass a script-file")
		}

		var src []byte
		if script != "" {
			src = []byte(script)
		} else {
			var err error
			src, err = os.ReadFile(scriptFile)
			if err != nil {
				return fmt.Errorf("reading %s: %w", scriptFile, err)
			}
		}

		prog, err := ast.Parse(string(src))
		if err != nil {
			return err
		}

		v, err := buildVFS(snapshotIn, rootDir)
		if err != nil {
			return err
		}
		if rootDir != "" {
			w, err := hostmount.Start(v, rootDir)
			if err != nil {
				return fmt.Errorf("watching --root: %w", err)
			}
			defer w.Close()
		}
		if !allowWrite {
			v.SetReadOnly(true)
		}

		netGate, pgGate, err := buildGates(configPath)
		if err != nil {
			return err
		}

		var stdoutBuf, stderrBuf bytes.Buffer
		s := interp.New(v, os.Stdin, outputWriter(jsonOutput, &stdoutBuf, os.Stdout), outputWriter(jsonOutput, &stderrBuf, os.Stderr))
		s.NetGate = netGate
		s.PGGate = pgGate
		s.Options.Errexit = errexit
		if cwd != "" {
			s.Cwd = cwd
		} else if rootDir != "" {
			s.Cwd = hostmount.MountPoint
		}
		seedEnviron(s)

		exitCode = s.Run(prog)

		if snapshotOut != "" {
			data, err := snapshot.Encode(v)
			if err != nil {
				return fmt.Errorf("--snapshot-out: %w", err)
			}
			if err := os.WriteFile(snapshotOut, data, 0o644); err != nil {
				return fmt.Errorf("--snapshot-out: %w", err)
			}
		}

		if jsonOutput {
			return emitJSONEnvelope(stdoutBuf.String(), stderrBuf.String(), exitCode)
		}
		return nil
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "just-bash: %v\n", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}

	return ((exitCode % 256) + 256) % 256
}

// outputWriter picks the JSON-buffered sink or the real stream, matching
// spec.md §6: "under --json, embedded in the JSON envelope and no raw
// output is emitted."
func outputWriter(jsonOutput bool, buf *bytes.Buffer, real *os.File) interface{ Write([]byte) (int, error) } {
	if jsonOutput {
		return buf
	}
	return real
}

func buildVFS(snapshotIn, rootDir string) (*vfs.VFS, error) {
	if snapshotIn != "" {
		data, err := os.ReadFile(snapshotIn)
		if err != nil {
			return nil, fmt.Errorf("--snapshot-in: %w", err)
		}
		v, err := snapshot.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("--snapshot-in: %w", err)
		}
		if rootDir != "" {
			if err := hostmount.Load(v, rootDir); err != nil {
				return nil, fmt.Errorf("--root: %w", err)
			}
		}
		return v, nil
	}
	v := vfs.New(nil)
	if rootDir != "" {
		if err := hostmount.Load(v, rootDir); err != nil {
			return nil, fmt.Errorf("--root: %w", err)
		}
	}
	return v, nil
}

func buildGates(configPath string) (*netgate.Gate, *netgate.PostgresGate, error) {
	if configPath == "" {
		return nil, nil, nil
	}
	res, err := config.LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("--config: %w", err)
	}
	netGate, err := netgate.New(res.Network)
	if err != nil {
		return nil, nil, fmt.Errorf("--config: %w", err)
	}
	var pgGate *netgate.PostgresGate
	if len(res.PostgresEntries) > 0 {
		pgGate, err = netgate.NewPostgresGate(res.PostgresEntries)
		if err != nil {
			return nil, nil, fmt.Errorf("--config: %w", err)
		}
	}
	return netGate, pgGate, nil
}

// seedEnviron exposes the wrapper's own process environment to the
// sandboxed script, mirroring a real shell's inherited environment.
func seedEnviron(s *interp.State) {
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		s.Set(name, value)
		s.Export(name)
	}
}

func emitJSONEnvelope(stdout, stderr string, exitCode int) error {
	data, err := json.Marshal(map[string]interface{}{
		"stdout":   stdout,
		"stderr":   stderr,
		"exitCode": exitCode,
	})
	if err != nil {
		return err
	}

	// jsonschema expects the plain-JSON shape encoding/json decodes into
	// (float64 for numbers), not native Go ints; round-trip before
	// validating, the same normalization internal/config uses.
	var normalized interface{}
	if err := json.Unmarshal(data, &normalized); err != nil {
		return err
	}
	if err := jsonEnvelopeSchema.Validate(normalized); err != nil {
		return fmt.Errorf("internal error: malformed --json envelope: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
