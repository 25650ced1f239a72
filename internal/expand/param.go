package expand

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vercel-labs/just-bash/internal/arith"
	"github.com/vercel-labs/just-bash/internal/ast"
)

func evalArith(e *ast.ArithExpr, ctx *Context) (int64, error) {
	return arith.Eval(e, arithVars{ctx})
}

// expandParam implements the `${...}` operator table of spec.md §4.2.
func expandParam(pe ast.ParameterExpansion, ctx *Context) (string, error) {
	name := pe.Name

	if pe.Op != nil && pe.Op.Kind == ast.ParamOpLength {
		if pe.Subscript != nil && pe.Subscript.All {
			arr, _ := resolveArray(name, ctx)
			return strconv.Itoa(len(arr)), nil
		}
		v, _ := readScalar(name, pe, ctx)
		return strconv.Itoa(len([]rune(v))), nil
	}

	if pe.Op != nil && pe.Op.Kind == ast.ParamOpIndirect {
		target, _ := readScalarByName(name, ctx)
		v, _ := readScalarByName(target, ctx)
		return v, nil
	}

	value, isSet := readScalar(name, pe, ctx)

	if !isSet && ctx.Nounset && nounsetApplies(pe) {
		return "", fmt.Errorf("%s: unbound variable", paramDisplayName(pe))
	}

	if pe.Op == nil {
		return value, nil
	}

	switch pe.Op.Kind {
	case ast.ParamOpDefaultUnset:
		if !isSet || (pe.Op.ColonForm && value == "") {
			return expandWordOrEmpty(pe.Op.Word, ctx)
		}
		return value, nil

	case ast.ParamOpAssignUnset:
		if !isSet || (pe.Op.ColonForm && value == "") {
			def, err := expandWordOrEmpty(pe.Op.Word, ctx)
			if err != nil {
				return "", err
			}
			ctx.Vars.Set(name, def)
			return def, nil
		}
		return value, nil

	case ast.ParamOpErrorUnset:
		if !isSet || (pe.Op.ColonForm && value == "") {
			msg, _ := expandWordOrEmpty(pe.Op.Word, ctx)
			if msg == "" {
				msg = "parameter null or not set"
			}
			return "", fmt.Errorf("%s: %s", name, msg)
		}
		return value, nil

	case ast.ParamOpAltSet:
		if isSet && !(pe.Op.ColonForm && value == "") {
			return expandWordOrEmpty(pe.Op.Word, ctx)
		}
		return "", nil

	case ast.ParamOpSubstring:
		return substringOp(value, pe.Op, ctx)

	case ast.ParamOpRemovePrefixShort, ast.ParamOpRemovePrefixLong:
		pat, err := expandWordOrEmpty(pe.Op.Pattern, ctx)
		if err != nil {
			return "", err
		}
		return removeAffix(value, pat, true, pe.Op.Kind == ast.ParamOpRemovePrefixLong), nil

	case ast.ParamOpRemoveSuffixShort, ast.ParamOpRemoveSuffixLong:
		pat, err := expandWordOrEmpty(pe.Op.Pattern, ctx)
		if err != nil {
			return "", err
		}
		return removeAffix(value, pat, false, pe.Op.Kind == ast.ParamOpRemoveSuffixLong), nil

	case ast.ParamOpReplace:
		return replaceOp(value, pe.Op, ctx)

	case ast.ParamOpCase:
		return caseOp(value, pe.Op, ctx)

	default:
		return value, nil
	}
}

// nounsetApplies reports whether nounset should fire for an unset pe.
// The :-/- , :=/= , :?/? and :+/+ operators exist specifically to test
// or supply a value for an unset parameter, so they're exempt the same
// way real bash exempts them; every other form (plain expansion,
// substring, prefix/suffix removal, replace, case conversion) is not.
func nounsetApplies(pe ast.ParameterExpansion) bool {
	if pe.Op == nil {
		return true
	}
	switch pe.Op.Kind {
	case ast.ParamOpDefaultUnset, ast.ParamOpAssignUnset, ast.ParamOpErrorUnset, ast.ParamOpAltSet:
		return false
	default:
		return true
	}
}

// paramDisplayName renders the name used in an "unbound variable" message.
func paramDisplayName(pe ast.ParameterExpansion) string {
	if pe.Subscript != nil {
		if pe.Subscript.All {
			if pe.Subscript.Star {
				return pe.Name + "[*]"
			}
			return pe.Name + "[@]"
		}
	}
	return pe.Name
}

func expandWordOrEmpty(w *ast.WordNode, ctx *Context) (string, error) {
	if w == nil {
		return "", nil
	}
	fields, err := Words([]*ast.WordNode{w}, ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(fields, " "), nil
}

func readScalar(name string, pe ast.ParameterExpansion, ctx *Context) (string, bool) {
	return readScalarImpl(name, &pe, ctx)
}

func readScalarByName(name string, ctx *Context) (string, bool) {
	return readScalarImpl(name, nil, ctx)
}

func readScalarImpl(name string, pe *ast.ParameterExpansion, ctx *Context) (string, bool) {
	if pe != nil && pe.Subscript != nil {
		arr, ok := resolveArray(name, ctx)
		if !ok {
			return "", false
		}
		if pe.Subscript.All {
			sep := " "
			if !ctx.IFSUnset && len(ctx.IFS) > 0 {
				sep = ctx.IFS[:1]
			}
			return strings.Join(arr, sep), true
		}
		if pe.Subscript.Index != nil {
			// Any subscript other than @/* is evaluated arithmetically.
			idx, err := evalArith(pe.Subscript.Index, ctx)
			if err != nil || idx < 0 || idx >= int64(len(arr)) {
				return "", false
			}
			return arrayAt(arr, int(idx)), true
		}
	}

	switch name {
	case "@", "*":
		return strings.Join(ctx.Positional, " "), true
	case "#":
		return strconv.Itoa(len(ctx.Positional)), true
	}
	if n, err := strconv.Atoi(name); err == nil {
		if n == 0 {
			if v, ok := ctx.Special["0"]; ok {
				return v, true
			}
			return "", false
		}
		if n >= 1 && n <= len(ctx.Positional) {
			return ctx.Positional[n-1], true
		}
		return "", false
	}
	if v, ok := ctx.Special[name]; ok {
		return v, true
	}
	return ctx.Vars.Get(name)
}

func arrayAt(arr []string, i int) string {
	if i < 0 || i >= len(arr) {
		return ""
	}
	return arr[i]
}

func resolveArray(name string, ctx *Context) ([]string, bool) {
	if name == "@" {
		return ctx.Positional, true
	}
	return ctx.Vars.GetArray(name)
}

func substringOp(value string, op *ast.ParamOp, ctx *Context) (string, error) {
	runes := []rune(value)
	off := evalArithOpt(op.Offset, ctx)
	if off < 0 {
		off += int64(len(runes))
		if off < 0 {
			off = 0
		}
	}
	if off > int64(len(runes)) {
		off = int64(len(runes))
	}
	if !op.HasLen {
		return string(runes[off:]), nil
	}
	length := evalArithOpt(op.Length, ctx)
	end := off + length
	if length < 0 {
		end = int64(len(runes)) + length
	}
	if end > int64(len(runes)) {
		end = int64(len(runes))
	}
	if end < off {
		end = off
	}
	return string(runes[off:end]), nil
}

func evalArithOpt(e *ast.ArithExpr, ctx *Context) int64 {
	if e == nil {
		return 0
	}
	v, err := arithEvalSafe(e, ctx)
	if err != nil {
		return 0
	}
	return v
}

func arithEvalSafe(e *ast.ArithExpr, ctx *Context) (int64, error) {
	return evalArith(e, ctx)
}

func removeAffix(value, pattern string, prefix, longest bool) string {
	runes := []rune(value)
	n := len(runes)
	if prefix {
		best := -1
		for end := 0; end <= n; end++ {
			if MatchGlob(pattern, string(runes[:end])) {
				if longest {
					best = end
				} else if best == -1 {
					best = end
					break
				}
			}
		}
		if best >= 0 {
			return string(runes[best:])
		}
		return value
	}
	best := -1
	for start := n; start >= 0; start-- {
		if MatchGlob(pattern, string(runes[start:])) {
			if longest {
				best = start
			} else if best == -1 {
				best = start
				break
			}
		}
	}
	if best >= 0 {
		return string(runes[:best])
	}
	return value
}

func replaceOp(value string, op *ast.ParamOp, ctx *Context) (string, error) {
	pat, err := expandWordOrEmpty(op.ReplacePattern, ctx)
	if err != nil {
		return "", err
	}
	repl, err := expandWordOrEmpty(op.Replacement, ctx)
	if err != nil {
		return "", err
	}
	if pat == "" {
		return value, nil
	}
	if op.AnchorStart {
		if idx := matchLen(value, pat); idx >= 0 {
			return repl + value[idx:], nil
		}
		return value, nil
	}
	if op.AnchorEnd {
		if idx := matchSuffixLen(value, pat); idx >= 0 {
			return value[:len(value)-idx] + repl, nil
		}
		return value, nil
	}
	if op.ReplaceAll {
		return replaceAllSubstrings(value, pat, repl), nil
	}
	return replaceFirstSubstring(value, pat, repl), nil
}

// matchLen finds the longest prefix of value matching pattern anchored at
// the start (for ${x/#pat/rep}), returning the rune-length of the match or
// -1.
func matchLen(value, pattern string) int {
	runes := []rune(value)
	for end := len(runes); end >= 0; end-- {
		if MatchGlob(pattern, string(runes[:end])) {
			return len(string(runes[:end]))
		}
	}
	return -1
}

func matchSuffixLen(value, pattern string) int {
	runes := []rune(value)
	for start := 0; start <= len(runes); start++ {
		if MatchGlob(pattern, string(runes[start:])) {
			return len(string(runes[start:]))
		}
	}
	return -1
}

func replaceFirstSubstring(value, pattern, repl string) string {
	runes := []rune(value)
	for i := 0; i <= len(runes); i++ {
		for j := len(runes); j >= i; j-- {
			if MatchGlob(pattern, string(runes[i:j])) && j > i {
				return string(runes[:i]) + repl + string(runes[j:])
			}
		}
	}
	if strings.Contains(pattern, "*") || strings.Contains(pattern, "?") || strings.Contains(pattern, "[") {
		return value
	}
	return strings.Replace(value, pattern, repl, 1)
}

func replaceAllSubstrings(value, pattern, repl string) string {
	if !strings.ContainsAny(pattern, "*?[") {
		return strings.ReplaceAll(value, pattern, repl)
	}
	var sb strings.Builder
	runes := []rune(value)
	i := 0
	for i < len(runes) {
		matched := false
		for j := len(runes); j > i; j-- {
			if MatchGlob(pattern, string(runes[i:j])) {
				sb.WriteString(repl)
				i = j
				matched = true
				break
			}
		}
		if !matched {
			sb.WriteRune(runes[i])
			i++
		}
	}
	return sb.String()
}

// caseOp implements ${x^}, ${x^^}, ${x,}, ${x,,} (spec.md §4.2). Case
// conversion goes through golang.org/x/text/cases rather than unicode.To*
// so multi-rune case foldings (e.g. German ß→SS under Upper) match what a
// locale-aware shell would produce.
func caseOp(value string, op *ast.ParamOp, ctx *Context) (string, error) {
	if value == "" {
		return value, nil
	}
	var caser cases.Caser
	if op.CaseUpper {
		caser = cases.Upper(language.Und)
	} else {
		caser = cases.Lower(language.Und)
	}
	if op.CaseAll {
		return caser.String(value), nil
	}
	runes := []rune(value)
	return caser.String(string(runes[0])) + string(runes[1:]), nil
}
