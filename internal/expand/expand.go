// Package expand implements the word-expansion pipeline of spec.md §4.2:
// brace expansion, parameter expansion, command substitution, arithmetic
// expansion, process substitution, tilde expansion, field splitting,
// pathname expansion, and quote removal, in that order.
package expand

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vercel-labs/just-bash/internal/arith"
	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/invariant"
)

// Vars is the variable surface the expander reads and writes. The
// interpreter owns the real storage; this package only needs this view of
// it.
type Vars interface {
	Get(name string) (string, bool)
	GetArray(name string) ([]string, bool)
	Set(name, value string)
	IsArray(name string) bool
}

// Context bundles everything expansion needs beyond the AST itself: the
// callbacks that cross into other subsystems (running a nested script for
// command substitution, resolving a glob against the VFS, looking up a
// user's home directory) stay as functions so this package has no import
// cycle on the interpreter or VFS.
type Context struct {
	Vars Vars

	// IFS is the current field-separator string. IFSUnset distinguishes an
	// unset IFS (default " \t\n") from one explicitly set to "" (no
	// splitting at all).
	IFS      string
	IFSUnset bool

	// Nounset mirrors `set -u` (spec.md §4.4): when true, expanding an
	// unset parameter in the plain `$name`/`${name}` form is an error
	// instead of expanding to empty.
	Nounset bool

	// Special parameters spec.md §4.2 lists alongside named variables.
	Positional []string
	Special    map[string]string // "?", "$", "!", "0", "#", "RANDOM", "SECONDS", "LINENO", ...

	// RunCommandSubst executes script's statements against the current
	// shell state and returns captured stdout (trailing newlines trimmed).
	RunCommandSubst func(script string) (string, error)

	// OpenProcessSubst arranges for script to run with its stdin/stdout
	// connected to a path the caller can open, returning that path (e.g.
	// "/dev/fd/63") and a cleanup func to run once the command completes.
	OpenProcessSubst func(script string, input bool) (path string, cleanup func(), err error)

	// Glob lists VFS entries matching an absolute or relative pattern.
	// ok is false when nothing matched (caller then uses the literal
	// pattern text, per bash's default nullglob-off behavior).
	Glob func(pattern string) (matches []string, ok bool)

	// HomeDir resolves "" (current user) or a named user to a home
	// directory. ok is false if unknown, in which case tilde expansion
	// leaves the word unexpanded.
	HomeDir func(user string) (string, bool)
}

// arithVars adapts a Context to arith.Vars, routing well-known special
// names and falling back to the variable store.
type arithVars struct{ ctx *Context }

func (a arithVars) Get(name string) string {
	switch name {
	case "RANDOM", "SECONDS", "LINENO":
		if v, ok := a.ctx.Special[name]; ok {
			return v
		}
	}
	if v, ok := a.ctx.Vars.Get(name); ok {
		return v
	}
	return ""
}

func (a arithVars) Set(name, value string) { a.ctx.Vars.Set(name, value) }

// Words expands a full argv word list into the final, split, globbed,
// quote-removed strings a command sees as its arguments.
func Words(words []*ast.WordNode, ctx *Context) ([]string, error) {
	invariant.NotNil(ctx, "ctx")
	var out []string
	for _, w := range words {
		braceForms := braceExpand(w)
		for _, bf := range braceForms {
			fields, err := expandOneWord(bf, ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, fields...)
		}
	}
	return out, nil
}

// ---- Brace expansion -----------------------------------------------------

func braceExpand(w *ast.WordNode) []*ast.WordNode {
	for i, p := range w.Parts {
		be, ok := p.(ast.BraceExpansion)
		if !ok {
			continue
		}
		var alts []*ast.WordNode
		for _, item := range be.Items {
			if item.IsRange {
				alts = append(alts, rangeWords(item)...)
				continue
			}
			alts = append(alts, item.Word)
		}
		var results []*ast.WordNode
		for _, alt := range alts {
			parts := make([]ast.WordPart, 0, len(w.Parts))
			parts = append(parts, w.Parts[:i]...)
			if be.Prefix != nil {
				parts = append(parts, be.Prefix.Parts...)
			}
			parts = append(parts, alt.Parts...)
			if be.Suffix != nil {
				parts = append(parts, be.Suffix.Parts...)
			}
			parts = append(parts, w.Parts[i+1:]...)
			results = append(results, &ast.WordNode{Parts: parts})
		}
		// Recurse in case the alternative text itself contains another
		// brace group, then flatten.
		var flattened []*ast.WordNode
		for _, r := range results {
			flattened = append(flattened, braceExpand(r)...)
		}
		return flattened
	}
	return []*ast.WordNode{w}
}

func rangeWords(item ast.BraceItem) []*ast.WordNode {
	litWord := func(s string) *ast.WordNode {
		return &ast.WordNode{Parts: []ast.WordPart{ast.Literal{Value: s}}}
	}
	if n1, err1 := strconv.Atoi(item.Start); err1 == nil {
		n2, err2 := strconv.Atoi(item.End)
		if err2 != nil {
			return []*ast.WordNode{litWord(item.Start)}
		}
		step := 1
		if item.Step != "" {
			if s, err := strconv.Atoi(item.Step); err == nil && s != 0 {
				step = abs(s)
			}
		}
		width := 0
		if strings.HasPrefix(item.Start, "0") && len(item.Start) > 1 {
			width = len(item.Start)
		}
		var out []*ast.WordNode
		if n1 <= n2 {
			for n := n1; n <= n2; n += step {
				out = append(out, litWord(formatPadded(n, width)))
			}
		} else {
			for n := n1; n >= n2; n -= step {
				out = append(out, litWord(formatPadded(n, width)))
			}
		}
		return out
	}
	// Character range, e.g. {a..e}.
	if len(item.Start) == 1 && len(item.End) == 1 {
		a, b := rune(item.Start[0]), rune(item.End[0])
		var out []*ast.WordNode
		if a <= b {
			for c := a; c <= b; c++ {
				out = append(out, litWord(string(c)))
			}
		} else {
			for c := a; c >= b; c-- {
				out = append(out, litWord(string(c)))
			}
		}
		return out
	}
	return []*ast.WordNode{litWord(item.Start)}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func formatPadded(n, width int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for len(s) < width {
		s = "0" + s
	}
	if neg {
		s = "-" + s
	}
	return s
}

// ---- Per-word expansion: parts -> splitting -> globbing -----------------

// chunk is one run of expanded text carrying whether it came from a quoted
// context (protected from field splitting and globbing).
type chunk struct {
	text    string
	quoted  bool
	isArray bool     // true => fields holds one entry per array element ("$@" form)
	fields  []string // used only when isArray
}

func expandOneWord(w *ast.WordNode, ctx *Context) ([]string, error) {
	chunks, hadQuotes, err := expandParts(w.Parts, ctx, false)
	if err != nil {
		return nil, err
	}

	// "$@"-style chunks each already denote a final, separate field; splice
	// them in as-is, running the remaining chunks through normal splitting
	// only when there's more than the one array chunk.
	var preFields []string
	var plain []chunk
	for _, c := range chunks {
		if c.isArray {
			preFields = append(preFields, c.fields...)
			continue
		}
		plain = append(plain, c)
	}
	if len(preFields) > 0 && len(plain) == 0 {
		return preFields, nil
	}

	text, protected := flattenChunks(plain)
	fields := splitFields(text, protected, effectiveIFS(ctx))
	if len(fields) == 0 && hadQuotes {
		fields = []string{""}
	}

	var out []string
	out = append(out, preFields...)
	for _, f := range fields {
		out = append(out, globExpand(f, ctx)...)
	}
	return out, nil
}

func effectiveIFS(ctx *Context) string {
	if ctx.IFSUnset {
		return " \t\n"
	}
	return ctx.IFS
}

func flattenChunks(chunks []chunk) (string, []bool) {
	var sb strings.Builder
	var protected []bool
	for _, c := range chunks {
		for _, r := range c.text {
			sb.WriteRune(r)
			protected = append(protected, c.quoted)
		}
	}
	return sb.String(), protected
}

func splitFields(text string, protected []bool, ifs string) []string {
	if ifs == "" {
		if text == "" && len(protected) == 0 {
			return nil
		}
		return []string{text}
	}
	runes := []rune(text)
	if len(runes) != len(protected) {
		// Defensive: should not happen, but never index out of range.
		p := make([]bool, len(runes))
		copy(p, protected)
		protected = p
	}
	hasUnprotectedIFS := false
	for i, r := range runes {
		if !protected[i] && strings.ContainsRune(ifs, r) {
			hasUnprotectedIFS = true
			break
		}
	}
	if !hasUnprotectedIFS {
		return []string{text}
	}

	var ifsWS, ifsOther strings.Builder
	for _, r := range ifs {
		if r == ' ' || r == '\t' || r == '\n' {
			ifsWS.WriteRune(r)
		} else {
			ifsOther.WriteRune(r)
		}
	}
	ws, other := ifsWS.String(), ifsOther.String()

	var fields []string
	var buf strings.Builder
	started := false
	i := 0
	n := len(runes)
	for i < n {
		r := runes[i]
		prot := protected[i]
		if !prot && strings.ContainsRune(ws, r) {
			if started {
				fields = append(fields, buf.String())
				buf.Reset()
				started = false
			}
			for i < n && !protected[i] && strings.ContainsRune(ws, runes[i]) {
				i++
			}
			continue
		}
		if !prot && strings.ContainsRune(other, r) {
			fields = append(fields, buf.String())
			buf.Reset()
			started = false
			i++
			continue
		}
		buf.WriteRune(r)
		started = true
		i++
	}
	if started {
		fields = append(fields, buf.String())
	}
	return fields
}

func globExpand(field string, ctx *Context) []string {
	if ctx.Glob == nil || !strings.ContainsAny(field, "*?[") {
		return []string{field}
	}
	matches, ok := ctx.Glob(field)
	if !ok || len(matches) == 0 {
		return []string{field}
	}
	sorted := append([]string(nil), matches...)
	sort.Strings(sorted)
	return sorted
}

// ---- Part expansion -------------------------------------------------------

func expandParts(parts []ast.WordPart, ctx *Context, quoted bool) ([]chunk, bool, error) {
	var out []chunk
	hadQuotes := quoted
	for _, p := range parts {
		cs, hq, err := expandPart(p, ctx, quoted)
		if err != nil {
			return nil, false, err
		}
		hadQuotes = hadQuotes || hq
		out = append(out, cs...)
	}
	return out, hadQuotes, nil
}

func expandPart(p ast.WordPart, ctx *Context, quoted bool) ([]chunk, bool, error) {
	switch v := p.(type) {
	case ast.Literal:
		return []chunk{{text: v.Value, quoted: quoted}}, false, nil
	case ast.Glob:
		return []chunk{{text: v.Pattern, quoted: quoted}}, false, nil
	case ast.Escaped:
		return []chunk{{text: string(v.Char), quoted: true}}, true, nil
	case ast.SingleQuoted:
		return []chunk{{text: v.Value, quoted: true}}, true, nil
	case ast.DoubleQuoted:
		if len(v.Parts) == 1 {
			if pe, ok := v.Parts[0].(ast.ParameterExpansion); ok && pe.Subscript != nil && pe.Subscript.All && !pe.Subscript.Star {
				fields, err := expandArrayAtSign(pe, ctx)
				if err != nil {
					return nil, false, err
				}
				return []chunk{{isArray: true, fields: fields}}, true, nil
			}
		}
		cs, _, err := expandParts(v.Parts, ctx, true)
		return cs, true, err
	case ast.ParameterExpansion:
		s, err := expandParam(v, ctx)
		if err != nil {
			return nil, false, err
		}
		return []chunk{{text: s, quoted: quoted}}, false, nil
	case ast.CommandSubst:
		if ctx.RunCommandSubst == nil {
			return nil, false, fmt.Errorf("command substitution not available in this context")
		}
		out, err := ctx.RunCommandSubst(v.Script)
		if err != nil {
			return nil, false, err
		}
		return []chunk{{text: strings.TrimRight(out, "\n"), quoted: quoted}}, false, nil
	case ast.ArithmeticExpansion:
		n, err := arith.Eval(v.Expr, arithVars{ctx})
		if err != nil {
			return nil, false, err
		}
		return []chunk{{text: strconv.FormatInt(n, 10), quoted: quoted}}, false, nil
	case ast.ProcessSubst:
		if ctx.OpenProcessSubst == nil {
			return nil, false, fmt.Errorf("process substitution not available in this context")
		}
		path, _, err := ctx.OpenProcessSubst(v.Script, v.Input)
		if err != nil {
			return nil, false, err
		}
		return []chunk{{text: path, quoted: quoted}}, false, nil
	case ast.TildeExpansion:
		if ctx.HomeDir == nil {
			return []chunk{{text: "~" + v.User, quoted: quoted}}, false, nil
		}
		home, ok := ctx.HomeDir(v.User)
		if !ok {
			return []chunk{{text: "~" + v.User, quoted: quoted}}, false, nil
		}
		return []chunk{{text: home, quoted: quoted}}, false, nil
	case ast.BraceExpansion:
		// Reaching here means a brace group survived to part-expansion time
		// (nested inside quotes, where bash does not brace-expand); treat it
		// as literal text.
		return []chunk{{text: rawBraceText(v), quoted: quoted}}, false, nil
	default:
		return nil, false, fmt.Errorf("expand: unsupported word part %T", p)
	}
}

func rawBraceText(be ast.BraceExpansion) string {
	var sb strings.Builder
	if be.Prefix != nil {
		for _, p := range be.Prefix.Parts {
			if l, ok := p.(ast.Literal); ok {
				sb.WriteString(l.Value)
			}
		}
	}
	sb.WriteString("{")
	for i, item := range be.Items {
		if i > 0 {
			sb.WriteString(",")
		}
		if item.IsRange {
			sb.WriteString(item.Start + ".." + item.End)
		}
	}
	sb.WriteString("}")
	return sb.String()
}

func expandArrayAtSign(pe ast.ParameterExpansion, ctx *Context) ([]string, error) {
	if pe.Name == "@" {
		return ctx.Positional, nil
	}
	arr, ok := ctx.Vars.GetArray(pe.Name)
	if !ok {
		return nil, nil
	}
	return arr, nil
}
