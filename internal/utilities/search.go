package utilities

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/vercel-labs/just-bash/internal/expand"
)

func init() {
	register("grep", cmdGrep)
	register("egrep", cmdGrep)
	register("fgrep", cmdGrep)
	register("rg", cmdGrep)
	register("find", cmdFind)
	register("sed", cmdSed)
	register("xargs", cmdXargs)
}

// compileGrep builds a regexp2 pattern, escaped as a literal string when
// name is "fgrep". cmdGrep serves grep, egrep, fgrep and rg alike and always
// passes "grep", so every variant compiles its pattern as a regexp2 regex.
func compileGrep(name, pattern string, ignoreCase bool) (*regexp2.Regexp, error) {
	if name == "fgrep" {
		pattern = regexp2.Escape(pattern)
	}
	opts := regexp2.None
	if ignoreCase {
		opts |= regexp2.IgnoreCase
	}
	return regexp2.Compile(pattern, opts)
}

func cmdGrep(ctx ExecContext) int {
	name := "grep"
	invert, ignoreCase, lineNum, countOnly, filesOnly := false, false, false, false, false
	var pattern string
	var files []string
	havePattern := false
	for i := 0; i < len(ctx.Args); i++ {
		a := ctx.Args[i]
		switch {
		case a == "-v":
			invert = true
		case a == "-i":
			ignoreCase = true
		case a == "-n":
			lineNum = true
		case a == "-c":
			countOnly = true
		case a == "-l":
			filesOnly = true
		case a == "-E" || a == "-P":
			// extended/Perl mode is regexp2's default posture here
		case !havePattern:
			pattern = a
			havePattern = true
		default:
			files = append(files, a)
		}
	}
	if !havePattern {
		fmt.Fprintln(ctx.Stderr, "grep: missing pattern")
		return 2
	}
	re, err := compileGrep(name, pattern, ignoreCase)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "grep: %v\n", err)
		return 2
	}
	matched := false
	status := 1
	printMatches := func(source string, lines []string) {
		count := 0
		for i, l := range lines {
			m, _ := re.MatchString(l)
			if m == invert {
				continue
			}
			count++
			matched = true
			if countOnly || filesOnly {
				continue
			}
			prefix := ""
			if len(files) > 1 {
				prefix = source + ":"
			}
			if lineNum {
				prefix += fmt.Sprintf("%d:", i+1)
			}
			fmt.Fprintln(ctx.Stdout, prefix+l)
		}
		if filesOnly && count > 0 {
			fmt.Fprintln(ctx.Stdout, source)
		}
		if countOnly {
			prefix := ""
			if len(files) > 1 {
				prefix = source + ":"
			}
			fmt.Fprintf(ctx.Stdout, "%s%d\n", prefix, count)
		}
	}
	if len(files) == 0 {
		lines, err := linesFromArgsOrStdin(ctx, nil)
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "grep: %v\n", err)
			return 2
		}
		printMatches("", lines)
	} else {
		for _, f := range files {
			lines, err := linesFromArgsOrStdin(ctx, []string{f})
			if err != nil {
				fmt.Fprintf(ctx.Stderr, "grep: %v\n", err)
				status = 2
				continue
			}
			printMatches(f, lines)
		}
	}
	if matched {
		return 0
	}
	return status
}

func cmdFind(ctx ExecContext) int {
	root := "."
	var namePattern string
	typeFilter := ""
	rest := ctx.Args
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		root = rest[0]
		rest = rest[1:]
	}
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "-name":
			if i+1 < len(rest) {
				namePattern = rest[i+1]
				i++
			}
		case "-type":
			if i+1 < len(rest) {
				typeFilter = rest[i+1]
				i++
			}
		}
	}
	full := resolve(ctx, root)
	var matches []string
	var walk func(p string) error
	walk = func(p string) error {
		st, err := ctx.VFS.Stat(p)
		if err != nil {
			return err
		}
		keep := true
		if namePattern != "" && !expand.MatchGlob(namePattern, vfsBase(p)) {
			keep = false
		}
		if typeFilter == "f" && !st.IsFile {
			keep = false
		}
		if typeFilter == "d" && !st.IsDirectory {
			keep = false
		}
		if keep {
			matches = append(matches, p)
		}
		if st.IsDirectory {
			names, err := ctx.VFS.Readdir(p)
			if err != nil {
				return nil
			}
			for _, n := range names {
				childPath := p
				if childPath != "/" {
					childPath += "/"
				}
				walk(childPath + n)
			}
		}
		return nil
	}
	if err := walk(full); err != nil {
		fmt.Fprintf(ctx.Stderr, "find: %s: %v\n", root, err)
		return 1
	}
	sort.Strings(matches)
	for _, m := range matches {
		display := root
		if m != full {
			display = root + strings.TrimPrefix(m, full)
		}
		fmt.Fprintln(ctx.Stdout, display)
	}
	return 0
}

// cmdSed supports the `s/pattern/replacement/flags` form, the bulk of real
// sed usage, plus -n with a `p` address to filter lines.
func cmdSed(ctx ExecContext) int {
	quiet := false
	var script string
	var files []string
	haveScript := false
	for i := 0; i < len(ctx.Args); i++ {
		a := ctx.Args[i]
		switch {
		case a == "-n":
			quiet = true
		case a == "-e" && i+1 < len(ctx.Args):
			script = ctx.Args[i+1]
			haveScript = true
			i++
		case !haveScript:
			script = a
			haveScript = true
		default:
			files = append(files, a)
		}
	}
	if !haveScript {
		fmt.Fprintln(ctx.Stderr, "sed: missing script")
		return 1
	}
	lines, err := linesFromArgsOrStdin(ctx, files)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "sed: %v\n", err)
		return 1
	}
	if strings.HasPrefix(script, "s") && len(script) > 1 {
		parts := splitSedCommand(script)
		if parts != ([3]string{}) {
			pattern, replacement, flags := parts[0], parts[1], parts[2]
			global := strings.Contains(flags, "g")
			ignoreCase := strings.Contains(flags, "i")
			opts := regexp2.None
			if ignoreCase {
				opts |= regexp2.IgnoreCase
			}
			re, err := regexp2.Compile(pattern, opts)
			if err != nil {
				fmt.Fprintf(ctx.Stderr, "sed: %v\n", err)
				return 1
			}
			goReplacement := convertSedBackrefs(replacement)
			for _, l := range lines {
				out, _ := sedReplace(re, l, goReplacement, global)
				fmt.Fprintln(ctx.Stdout, out)
			}
			return 0
		}
	}
	if quiet && script == "p" {
		for _, l := range lines {
			fmt.Fprintln(ctx.Stdout, l)
		}
		return 0
	}
	for _, l := range lines {
		fmt.Fprintln(ctx.Stdout, l)
	}
	return 0
}

func splitSedCommand(script string) [3]string {
	if len(script) < 2 || script[0] != 's' {
		return [3]string{}
	}
	sep := script[1]
	rest := script[2:]
	var fields []string
	var cur strings.Builder
	for i := 0; i < len(rest); i++ {
		if rest[i] == '\\' && i+1 < len(rest) && rest[i+1] == sep {
			cur.WriteByte(sep)
			i++
			continue
		}
		if rest[i] == sep {
			fields = append(fields, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(rest[i])
	}
	fields = append(fields, cur.String())
	if len(fields) < 2 {
		return [3]string{}
	}
	pattern, replacement := fields[0], fields[1]
	flags := ""
	if len(fields) > 2 {
		flags = fields[2]
	}
	return [3]string{pattern, replacement, flags}
}

func convertSedBackrefs(replacement string) string {
	var out strings.Builder
	for i := 0; i < len(replacement); i++ {
		if replacement[i] == '\\' && i+1 < len(replacement) && replacement[i+1] >= '0' && replacement[i+1] <= '9' {
			out.WriteString("${")
			out.WriteByte(replacement[i+1])
			out.WriteByte('}')
			i++
			continue
		}
		out.WriteByte(replacement[i])
	}
	return out.String()
}

// sedReplace operates on runes throughout: regexp2's Match.Index/Length are
// rune offsets, not byte offsets, since it matches over a rune array
// internally.
func sedReplace(re *regexp2.Regexp, input, replacement string, global bool) (string, error) {
	runes := []rune(input)
	var out strings.Builder
	pos := 0
	m, err := re.FindStringMatch(input)
	for m != nil && err == nil {
		out.WriteString(string(runes[pos:m.Index]))
		out.WriteString(expandSedGroups(m, replacement))
		pos = m.Index + m.Length
		if !global {
			break
		}
		if m.Length == 0 {
			if pos < len(runes) {
				out.WriteRune(runes[pos])
				pos++
			} else {
				break
			}
		}
		m, err = re.FindNextMatch(m)
	}
	out.WriteString(string(runes[pos:]))
	return out.String(), err
}

func expandSedGroups(m *regexp2.Match, replacement string) string {
	out := replacement
	for i := len(m.Groups()) - 1; i >= 0; i-- {
		g := m.Groups()[i]
		val := ""
		if len(g.Captures) > 0 {
			val = g.String()
		}
		out = strings.ReplaceAll(out, "${"+strconv.Itoa(i)+"}", val)
	}
	return out
}

func cmdXargs(ctx ExecContext) int {
	if len(ctx.Args) == 0 {
		fmt.Fprintln(ctx.Stderr, "xargs: missing command")
		return 1
	}
	lines, err := linesFromArgsOrStdin(ctx, nil)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "xargs: %v\n", err)
		return 1
	}
	var extra []string
	for _, l := range lines {
		extra = append(extra, strings.Fields(l)...)
	}
	name := ctx.Args[0]
	argv := append(append([]string{}, ctx.Args[1:]...), extra...)
	if !Has(name) {
		fmt.Fprintf(ctx.Stderr, "xargs: %s: command not found\n", name)
		return 127
	}
	code, err := Run(name, ExecContext{
		Args: argv, Stdin: ctx.Stdin, Stdout: ctx.Stdout, Stderr: ctx.Stderr,
		VFS: ctx.VFS, Cwd: ctx.Cwd, Env: ctx.Env, NetGate: ctx.NetGate,
	})
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "xargs: %v\n", err)
		return 1
	}
	return code
}
