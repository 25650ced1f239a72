package interp

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/builtins"
)

// runShellBuiltin implements the builtin table of spec.md §4.5: control
// flow (break/continue/return/exit), scope/environment (cd/export/unset/
// declare/local/shift/set), and the handful of no-op/trivial commands
// (true/false/:). handled is false when name isn't a shell builtin at all,
// letting the caller fall through to the utility bank.
func (s *State) runShellBuiltin(name string, args []string, stdin io.Reader, stdout, stderr io.Writer) (code int, handled bool, err error) {
	switch name {
	case "true", ":":
		return 0, true, nil
	case "false":
		return 1, true, nil
	case "break":
		levels := 1
		if len(args) > 0 {
			levels, _ = strconv.Atoi(args[0])
		}
		return 0, true, &ctrlSignal{kind: sigBreak, levels: levels}
	case "continue":
		levels := 1
		if len(args) > 0 {
			levels, _ = strconv.Atoi(args[0])
		}
		return 0, true, &ctrlSignal{kind: sigContinue, levels: levels}
	case "return":
		code := s.LastExit
		if len(args) > 0 {
			code, _ = strconv.Atoi(args[0])
		}
		return code, true, &ctrlSignal{kind: sigReturn, exitCode: code}
	case "exit":
		code := s.LastExit
		if len(args) > 0 {
			code, _ = strconv.Atoi(args[0])
		}
		return code, true, &ctrlSignal{kind: sigExit, exitCode: code}
	case "cd":
		return s.builtinCd(args, stderr), true, nil
	case "pwd":
		fmt.Fprintln(stdout, s.Cwd)
		return 0, true, nil
	case "export":
		return s.builtinExport(args), true, nil
	case "unset":
		return s.builtinUnset(args), true, nil
	case "declare", "local", "typeset", "readonly":
		return s.builtinDeclare(args, name == "readonly"), true, nil
	case "shift":
		return s.builtinShift(args), true, nil
	case "set":
		return s.builtinSet(args), true, nil
	case "read":
		return s.builtinRead(args, stdin), true, nil
	case "echo":
		return builtins.Echo(stdout, args), true, nil
	case "printf":
		code, err := builtins.Printf(stdout, args)
		return code, true, err
	case "eval":
		return s.builtinEval(args, stdout, stderr), true, nil
	case "test", "[":
		return builtins.TestWithFS(name, args, s.fileTest), true, nil
	case "trap":
		// Signal trapping has no meaning in this in-process sandbox beyond
		// EXIT, which nothing currently fires; accept and ignore.
		return 0, true, nil
	case "source", ".":
		return s.builtinSource(args, stdout, stderr), true, nil
	case "command":
		if len(args) == 0 {
			return 0, true, nil
		}
		if err := s.runCommand(args, nil); err != nil {
			return s.LastExit, true, err
		}
		return s.LastExit, true, nil
	default:
		return 0, false, nil
	}
}

func shellBuiltinNames() []string {
	return []string{
		"true", "false", ":", "break", "continue", "return", "exit", "cd", "pwd",
		"export", "unset", "declare", "local", "typeset", "readonly", "shift",
		"set", "read", "echo", "printf", "eval", "test", "[", "trap", "source", ".", "command",
	}
}

func (s *State) builtinCd(args []string, stderr io.Writer) int {
	target := "/"
	if home, ok := s.Get("HOME"); ok {
		target = home
	}
	if len(args) > 0 {
		target = args[0]
	}
	resolved := resolveAgainst(s.Cwd, target)
	st, err := s.VFS.Stat(resolved)
	if err != nil || !st.IsDirectory {
		fmt.Fprintf(stderr, "bash: cd: %s: No such file or directory\n", target)
		return 1
	}
	s.Set("OLDPWD", s.Cwd)
	s.Cwd = resolved
	s.Set("PWD", resolved)
	return 0
}

func (s *State) builtinExport(args []string) int {
	for _, a := range args {
		if eq := strings.IndexByte(a, '='); eq >= 0 {
			s.Set(a[:eq], a[eq+1:])
			s.Export(a[:eq])
		} else {
			s.Export(a)
		}
	}
	return 0
}

func (s *State) builtinUnset(args []string) int {
	for _, a := range args {
		s.Unset(a)
	}
	return 0
}

func (s *State) builtinDeclare(args []string, readOnly bool) int {
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		if eq := strings.IndexByte(a, '='); eq >= 0 {
			name, value := a[:eq], a[eq+1:]
			if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
				inner := strings.TrimSuffix(strings.TrimPrefix(value, "("), ")")
				s.SetArray(name, strings.Fields(inner))
			} else {
				s.Set(name, value)
			}
			if readOnly {
				s.Vars[name].ReadOnly = true
			}
			continue
		}
		if _, ok := s.Vars[a]; !ok {
			s.Set(a, "")
		}
		if readOnly {
			s.Vars[a].ReadOnly = true
		}
	}
	return 0
}

func (s *State) builtinShift(args []string) int {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	if n > len(s.Positional) {
		return 1
	}
	s.Positional = s.Positional[n:]
	return 0
}

func (s *State) builtinSet(args []string) int {
	for _, a := range args {
		enable := strings.HasPrefix(a, "-")
		if !enable && !strings.HasPrefix(a, "+") {
			continue
		}
		flag := a[1:]
		switch flag {
		case "e":
			s.Options.Errexit = enable
		case "u":
			s.Options.Nounset = enable
		case "x":
			s.Options.Xtrace = enable
		case "o":
			// `set -o pipefail` arrives as a separate argument; handled below.
		case "pipefail":
			s.Options.Pipefail = enable
		}
	}
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-o" && args[i+1] == "pipefail" {
			s.Options.Pipefail = true
		}
		if args[i] == "+o" && args[i+1] == "pipefail" {
			s.Options.Pipefail = false
		}
	}
	return 0
}

func (s *State) builtinRead(args []string, stdin io.Reader) int {
	names := args
	if len(names) == 0 {
		names = []string{"REPLY"}
	}
	var line strings.Builder
	buf := make([]byte, 1)
	read := false
	for {
		n, err := stdin.Read(buf)
		if n > 0 {
			read = true
			if buf[0] == '\n' {
				break
			}
			line.WriteByte(buf[0])
		}
		if err != nil {
			break
		}
	}
	if !read {
		return 1
	}
	fields := strings.Fields(line.String())
	for i, name := range names {
		if i == len(names)-1 {
			s.Set(name, strings.Join(fields[min(i, len(fields)):], " "))
			break
		}
		if i < len(fields) {
			s.Set(name, fields[i])
		} else {
			s.Set(name, "")
		}
	}
	return 0
}

func (s *State) builtinEval(args []string, stdout, stderr io.Writer) int {
	script := strings.Join(args, " ")
	prog, err := ast.Parse(script)
	if err != nil {
		fmt.Fprintf(stderr, "bash: eval: %v\n", err)
		return 2
	}
	return s.Run(prog)
}

func (s *State) builtinSource(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "bash: source: filename argument required")
		return 2
	}
	data, err := s.VFS.ReadFile(resolveAgainst(s.Cwd, args[0]))
	if err != nil {
		fmt.Fprintf(stderr, "bash: source: %s: No such file or directory\n", args[0])
		return 1
	}
	prog, err := ast.Parse(string(data))
	if err != nil {
		fmt.Fprintf(stderr, "bash: source: %v\n", err)
		return 2
	}
	return s.Run(prog)
}
