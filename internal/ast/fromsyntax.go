package ast

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// FromFile converts a parsed mvdan.cc/sh/v3 *syntax.File into this engine's
// own AST. This is the adapter the package doc describes: everything
// downstream of this function depends only on the types in ast.go.
func FromFile(f *syntax.File) (*Program, error) {
	stmts, err := convertStmtList(f.Stmts)
	if err != nil {
		return nil, err
	}
	return &Program{Statements: stmts}, nil
}

// Parse lexes+parses src with the Bash language variant and converts the
// result. Used both for top-level scripts and for command substitution's
// nested script text.
func Parse(src string) (*Program, error) {
	r := strings.NewReader(src)
	f, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(r, "")
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return FromFile(f)
}

func convertStmtList(stmts []*syntax.Stmt) ([]Statement, error) {
	out := make([]Statement, 0, len(stmts))
	for _, st := range stmts {
		s, err := convertStmt(st)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func convertStmt(st *syntax.Stmt) (Statement, error) {
	inner, err := convertCommand(st.Cmd)
	if err != nil {
		return nil, err
	}
	if len(st.Redirs) > 0 {
		redirs, err := convertRedirects(st.Redirs)
		if err != nil {
			return nil, err
		}
		inner = &RedirectedStatement{Stmt: inner, Redirects: redirs}
	}
	if st.Negated {
		inner = &Pipeline{Commands: []Statement{inner}, Negate: true}
	}
	if st.Background {
		inner = &List{Left: inner, Op: ListBackground}
	}
	return inner, nil
}

func convertCommand(cmd syntax.Command) (Statement, error) {
	switch c := cmd.(type) {
	case *syntax.CallExpr:
		return convertCallExpr(c)
	case *syntax.BinaryCmd:
		return convertBinaryCmd(c)
	case *syntax.IfClause:
		return convertIf(c)
	case *syntax.WhileClause:
		return convertWhile(c)
	case *syntax.ForClause:
		return convertFor(c)
	case *syntax.CaseClause:
		return convertCase(c)
	case *syntax.FuncDecl:
		return convertFuncDecl(c)
	case *syntax.Block:
		body, err := convertStmtList(c.Stmts)
		if err != nil {
			return nil, err
		}
		return &Block{Body: body}, nil
	case *syntax.Subshell:
		body, err := convertStmtList(c.Stmts)
		if err != nil {
			return nil, err
		}
		return &Subshell{Body: body}, nil
	case *syntax.ArithmCmd:
		expr, err := convertArithmExpr(c.X)
		if err != nil {
			return nil, err
		}
		return &ArithStatement{Expr: expr}, nil
	case *syntax.TestClause:
		expr, err := convertTestExpr(c.X)
		if err != nil {
			return nil, err
		}
		return &CondStatement{Expr: expr}, nil
	default:
		return nil, fmt.Errorf("unsupported construct: %T", cmd)
	}
}

func convertBinaryCmd(c *syntax.BinaryCmd) (Statement, error) {
	switch c.Op {
	case syntax.Pipe, syntax.PipeAll:
		cmds, stderrAlso, err := flattenPipe(c)
		if err != nil {
			return nil, err
		}
		return &Pipeline{Commands: cmds, StderrAlso: stderrAlso}, nil
	case syntax.AndStmt, syntax.OrStmt:
		left, err := convertStmt(c.X)
		if err != nil {
			return nil, err
		}
		right, err := convertStmt(c.Y)
		if err != nil {
			return nil, err
		}
		op := ListAnd
		if c.Op == syntax.OrStmt {
			op = ListOr
		}
		return &List{Left: left, Right: right, Op: op}, nil
	default:
		return nil, fmt.Errorf("unsupported binary operator: %v", c.Op)
	}
}

// flattenPipe walks a left-leaning chain of `|`/`|&` BinaryCmd nodes into a
// flat pipeline, recording per-junction whether stderr was also piped.
func flattenPipe(c *syntax.BinaryCmd) ([]Statement, []bool, error) {
	var cmds []Statement
	var stderrAlso []bool

	var walk func(cmd syntax.Command) error
	walk = func(cmd syntax.Command) error {
		bc, ok := cmd.(*syntax.BinaryCmd)
		if !ok || (bc.Op != syntax.Pipe && bc.Op != syntax.PipeAll) {
			st, err := commandToStmt(cmd)
			if err != nil {
				return err
			}
			cmds = append(cmds, st)
			return nil
		}
		if err := walkStmt(bc.X, &cmds, &stderrAlso, bc.Op == syntax.PipeAll); err != nil {
			return err
		}
		return walkStmt(bc.Y, &cmds, &stderrAlso, false)
	}
	_ = walk

	var walkStmt func(st *syntax.Stmt, cmds *[]Statement, also *[]bool, pipeAll bool) error
	walkStmt = func(st *syntax.Stmt, cmds *[]Statement, also *[]bool, pipeAll bool) error {
		if bc, ok := st.Cmd.(*syntax.BinaryCmd); ok && (bc.Op == syntax.Pipe || bc.Op == syntax.PipeAll) && len(st.Redirs) == 0 && !st.Negated {
			if err := walkStmt(bc.X, cmds, also, bc.Op == syntax.PipeAll); err != nil {
				return err
			}
			return walkStmt(bc.Y, cmds, also, pipeAll)
		}
		converted, err := convertStmt(st)
		if err != nil {
			return err
		}
		*cmds = append(*cmds, converted)
		*also = append(*also, pipeAll)
		return nil
	}

	if err := walkStmt(c.X, &cmds, &stderrAlso, c.Op == syntax.PipeAll); err != nil {
		return nil, nil, err
	}
	if err := walkStmt(c.Y, &cmds, &stderrAlso, false); err != nil {
		return nil, nil, err
	}
	// stderrAlso has one entry per command: the flag of the junction AFTER
	// that command. The last command has no junction after it, so drop its
	// (always false) slot.
	if len(stderrAlso) > 0 {
		stderrAlso = stderrAlso[:len(stderrAlso)-1]
	}
	return cmds, stderrAlso, nil
}

func commandToStmt(cmd syntax.Command) (Statement, error) {
	return convertCommand(cmd)
}

func convertCallExpr(c *syntax.CallExpr) (Statement, error) {
	sc := &SimpleCommand{}
	for _, a := range c.Assigns {
		assign, err := convertAssign(a)
		if err != nil {
			return nil, err
		}
		sc.Assignments = append(sc.Assignments, assign)
	}
	for _, w := range c.Args {
		word, err := convertWord(w)
		if err != nil {
			return nil, err
		}
		sc.Words = append(sc.Words, word)
	}
	return sc, nil
}

func convertAssign(a *syntax.Assign) (Assignment, error) {
	assign := Assignment{Name: a.Name.Value}
	if a.Array != nil {
		for _, el := range a.Array.Elems {
			if el.Value == nil {
				continue
			}
			w, err := convertWord(el.Value)
			if err != nil {
				return Assignment{}, err
			}
			assign.Array = append(assign.Array, w)
		}
		return assign, nil
	}
	if a.Index != nil {
		idx, err := convertArithmExpr(a.Index)
		if err != nil {
			return Assignment{}, err
		}
		assign.Index = idx
	}
	if a.Value != nil {
		w, err := convertWord(a.Value)
		if err != nil {
			return Assignment{}, err
		}
		assign.Value = w
	}
	return assign, nil
}

func convertRedirects(rs []*syntax.Redirect) ([]Redirect, error) {
	out := make([]Redirect, 0, len(rs))
	for _, r := range rs {
		red, err := convertRedirect(r)
		if err != nil {
			return nil, err
		}
		out = append(out, red)
	}
	return out, nil
}

func convertRedirect(r *syntax.Redirect) (Redirect, error) {
	var kind RedirectKind
	switch r.Op {
	case syntax.RdrIn:
		kind = RedirectIn
	case syntax.RdrOut, syntax.ClbOut:
		kind = RedirectOut
	case syntax.AppOut:
		kind = RedirectAppend
	case syntax.RdrAll:
		kind = RedirectOutErr
	case syntax.AppAll:
		kind = RedirectOutErr
	case syntax.WordHdoc:
		kind = RedirectHereString
	case syntax.Hdoc, syntax.DashHdoc:
		kind = RedirectHereDoc
	case syntax.DplOut:
		kind = RedirectDupErrToOut
	default:
		kind = RedirectOut
	}
	red := Redirect{Kind: kind}
	// `2>` fd selection folds into RedirectErr here. Every `>&` form was
	// mapped to RedirectDupErrToOut above, whatever its fds.
	if r.N != nil && r.N.Value == "2" {
		if kind == RedirectOut {
			kind = RedirectErr
			red.Kind = kind
		}
	}
	if kind == RedirectHereDoc && r.Hdoc != nil {
		red.HereDoc = literalWordText(r.Hdoc)
		red.HereDocQuoted = hasQuotedPart(r.Hdoc)
		return red, nil
	}
	if r.Word != nil {
		w, err := convertWord(r.Word)
		if err != nil {
			return Redirect{}, err
		}
		red.Target = w
	}
	return red, nil
}

func hasQuotedPart(w *syntax.Word) bool {
	for _, p := range w.Parts {
		if _, ok := p.(*syntax.SglQuoted); ok {
			return true
		}
	}
	return false
}

func literalWordText(w *syntax.Word) string {
	var sb strings.Builder
	for _, p := range w.Parts {
		switch lp := p.(type) {
		case *syntax.Lit:
			sb.WriteString(lp.Value)
		case *syntax.SglQuoted:
			sb.WriteString(lp.Value)
		case *syntax.DblQuoted:
			sb.WriteString(literalWordText(&syntax.Word{Parts: lp.Parts}))
		}
	}
	return sb.String()
}

func convertIf(c *syntax.IfClause) (Statement, error) {
	cond, err := convertStmtList(c.Cond)
	if err != nil {
		return nil, err
	}
	then, err := convertStmtList(c.Then)
	if err != nil {
		return nil, err
	}
	node := &If{Cond: sequenceOf(cond), Then: then}
	cur := c.Else
	for cur != nil && len(cur.Cond) > 0 {
		elifCond, err := convertStmtList(cur.Cond)
		if err != nil {
			return nil, err
		}
		elifBody, err := convertStmtList(cur.Then)
		if err != nil {
			return nil, err
		}
		node.ElifConds = append(node.ElifConds, sequenceOf(elifCond))
		node.ElifBodies = append(node.ElifBodies, elifBody)
		cur = cur.Else
	}
	if cur != nil {
		elseBody, err := convertStmtList(cur.Then)
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}
	return node, nil
}

// sequenceOf folds a list of statements (e.g. an `if` condition's body,
// which may be several statements) into one Statement via `;`.
func sequenceOf(stmts []Statement) Statement {
	if len(stmts) == 0 {
		return &SimpleCommand{}
	}
	result := stmts[0]
	for _, s := range stmts[1:] {
		result = &List{Left: result, Right: s, Op: ListSeq}
	}
	return result
}

func convertWhile(c *syntax.WhileClause) (Statement, error) {
	cond, err := convertStmtList(c.Cond)
	if err != nil {
		return nil, err
	}
	body, err := convertStmtList(c.Do)
	if err != nil {
		return nil, err
	}
	return &While{Cond: sequenceOf(cond), Body: body, Until: c.Until}, nil
}

func convertFor(c *syntax.ForClause) (Statement, error) {
	body, err := convertStmtList(c.Do)
	if err != nil {
		return nil, err
	}
	switch loop := c.Loop.(type) {
	case *syntax.WordIter:
		words := make([]*WordNode, 0, len(loop.Items))
		for _, w := range loop.Items {
			cw, err := convertWord(w)
			if err != nil {
				return nil, err
			}
			words = append(words, cw)
		}
		return &For{Var: loop.Name.Value, Words: words, Body: body}, nil
	case *syntax.CStyleLoop:
		init, err := convertArithmExprOpt(loop.Init)
		if err != nil {
			return nil, err
		}
		cond, err := convertArithmExprOpt(loop.Cond)
		if err != nil {
			return nil, err
		}
		post, err := convertArithmExprOpt(loop.Post)
		if err != nil {
			return nil, err
		}
		return &For{Init: init, Cond: cond, Post: post, Body: body}, nil
	default:
		return nil, fmt.Errorf("unsupported for-loop form: %T", c.Loop)
	}
}

func convertCase(c *syntax.CaseClause) (Statement, error) {
	word, err := convertWord(c.Word)
	if err != nil {
		return nil, err
	}
	node := &Case{Word: word}
	for _, item := range c.Items {
		body, err := convertStmtList(item.Stmts)
		if err != nil {
			return nil, err
		}
		var patterns []*WordNode
		for _, p := range item.Patterns {
			pw, err := convertWord(p)
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, pw)
		}
		clause := CaseBreak
		switch item.Op {
		case syntax.Fallthrough:
			clause = CaseFallthrough
		case syntax.Resume, syntax.ResumeKorn:
			clause = CaseContinue
		}
		node.Items = append(node.Items, CaseItem{Patterns: patterns, Body: body, Clause: clause})
	}
	return node, nil
}

func convertFuncDecl(c *syntax.FuncDecl) (Statement, error) {
	body, err := convertStmt(c.Body)
	if err != nil {
		return nil, err
	}
	bodyList := []Statement{body}
	if blk, ok := body.(*Block); ok {
		bodyList = blk.Body
	}
	return &FuncDecl{Name: c.Name.Value, Body: bodyList}, nil
}

// ---- Words --------------------------------------------------------------

func convertWord(w *syntax.Word) (*WordNode, error) {
	node := &WordNode{}
	for _, p := range w.Parts {
		part, err := convertWordPart(p)
		if err != nil {
			return nil, err
		}
		node.Parts = append(node.Parts, part)
	}
	return node, nil
}

func convertWordPart(p syntax.WordPart) (WordPart, error) {
	switch wp := p.(type) {
	case *syntax.Lit:
		if bp, ok := tryBraceExpansion(wp.Value); ok {
			return bp, nil
		}
		if strings.ContainsAny(wp.Value, "*?[") {
			return Glob{Pattern: wp.Value}, nil
		}
		return Literal{Value: wp.Value}, nil
	case *syntax.SglQuoted:
		return SingleQuoted{Value: wp.Value}, nil
	case *syntax.DblQuoted:
		var parts []WordPart
		for _, inner := range wp.Parts {
			if lit, ok := inner.(*syntax.Lit); ok {
				parts = append(parts, Literal{Value: lit.Value})
				continue
			}
			cp, err := convertWordPart(inner)
			if err != nil {
				return nil, err
			}
			parts = append(parts, cp)
		}
		return DoubleQuoted{Parts: parts}, nil
	case *syntax.ParamExp:
		return convertParamExp(wp)
	case *syntax.CmdSubst:
		return CommandSubst{Script: stmtsSource(wp.Stmts), Backtick: wp.Backquotes}, nil
	case *syntax.ArithmExp:
		expr, err := convertArithmExpr(wp.X)
		if err != nil {
			return nil, err
		}
		return ArithmeticExpansion{Expr: expr}, nil
	case *syntax.ProcSubst:
		return ProcessSubst{Script: stmtsSource(wp.Stmts), Input: wp.Op == syntax.CmdIn}, nil
	case *syntax.ExtGlob:
		return Glob{Pattern: wp.Op.String() + "(" + wp.Pattern.Value + ")"}, nil
	default:
		return nil, fmt.Errorf("unsupported word part: %T", p)
	}
}

// stmtsSource best-effort reprints a nested statement list's source text by
// re-printing it through syntax.Printer; the callback in ExpansionContext
// re-parses this text when the command substitution actually runs.
func stmtsSource(stmts []*syntax.Stmt) string {
	var sb strings.Builder
	printer := syntax.NewPrinter()
	f := &syntax.File{Stmts: stmts}
	_ = printer.Print(&sb, f)
	return sb.String()
}

func convertParamExp(p *syntax.ParamExp) (WordPart, error) {
	pe := ParameterExpansion{Name: p.Param.Value}
	if p.Index != nil {
		switch idx := p.Index.(type) {
		case *syntax.Word:
			text := literalWordText(idx)
			if text == "@" || text == "*" {
				pe.Subscript = &Subscript{All: true, Star: text == "*"}
			} else {
				expr, err := wordArithm(idx)
				if err != nil {
					return nil, err
				}
				pe.Subscript = &Subscript{Index: expr}
			}
		default:
		}
	}
	if p.Repl != nil {
		pattern, err := convertWord(p.Repl.Orig)
		if err != nil {
			return nil, err
		}
		var replacement *WordNode
		if p.Repl.With != nil {
			replacement, err = convertWord(p.Repl.With)
			if err != nil {
				return nil, err
			}
		}
		op := &ParamOp{
			Kind:           ParamOpReplace,
			ReplaceAll:     p.Repl.All,
			ReplacePattern: pattern,
			Replacement:    replacement,
		}
		if pattern != nil && len(pattern.Parts) > 0 {
			if lit, ok := pattern.Parts[0].(Literal); ok {
				switch {
				case strings.HasPrefix(lit.Value, "#"):
					op.AnchorStart = true
					pattern.Parts[0] = Literal{Value: strings.TrimPrefix(lit.Value, "#")}
				case strings.HasPrefix(lit.Value, "%"):
					op.AnchorEnd = true
					pattern.Parts[0] = Literal{Value: strings.TrimPrefix(lit.Value, "%")}
				}
			}
		}
		pe.Op = op
		return pe, nil
	}
	if !p.Excl && p.Exp == nil && p.Slice == nil && !p.Length {
		if pe.Subscript == nil {
			// indirection `${!x}` is modeled via Excl already handled below;
			// plain `${x}` needs no Op.
		}
		return pe, nil
	}
	if p.Excl && p.Exp == nil && p.Slice == nil {
		pe.Op = &ParamOp{Kind: ParamOpIndirect}
		return pe, nil
	}
	if p.Length {
		pe.Op = &ParamOp{Kind: ParamOpLength}
		return pe, nil
	}
	if p.Slice != nil {
		off, err := arithmExprOrNil(p.Slice.Offset)
		if err != nil {
			return nil, err
		}
		op := &ParamOp{Kind: ParamOpSubstring, Offset: off}
		if p.Slice.Length != nil {
			length, err := arithmExprOrNil(p.Slice.Length)
			if err != nil {
				return nil, err
			}
			op.Length = length
			op.HasLen = true
		}
		pe.Op = op
		return pe, nil
	}
	if p.Exp != nil {
		op, err := convertExpansion(p.Exp)
		if err != nil {
			return nil, err
		}
		pe.Op = op
	}
	return pe, nil
}

func convertExpansion(e *syntax.Expansion) (*ParamOp, error) {
	word, err := convertWord(e.Word)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case syntax.AlternateUnset, syntax.AlternateUnsetOrNull:
		return &ParamOp{Kind: ParamOpAltSet, ColonForm: e.Op == syntax.AlternateUnsetOrNull, Word: word}, nil
	case syntax.DefaultUnset, syntax.DefaultUnsetOrNull:
		return &ParamOp{Kind: ParamOpDefaultUnset, ColonForm: e.Op == syntax.DefaultUnsetOrNull, Word: word}, nil
	case syntax.ErrorUnset, syntax.ErrorUnsetOrNull:
		return &ParamOp{Kind: ParamOpErrorUnset, ColonForm: e.Op == syntax.ErrorUnsetOrNull, Word: word}, nil
	case syntax.AssignUnset, syntax.AssignUnsetOrNull:
		return &ParamOp{Kind: ParamOpAssignUnset, ColonForm: e.Op == syntax.AssignUnsetOrNull, Word: word}, nil
	case syntax.RemSmallPrefix:
		return &ParamOp{Kind: ParamOpRemovePrefixShort, Pattern: word}, nil
	case syntax.RemLargePrefix:
		return &ParamOp{Kind: ParamOpRemovePrefixLong, Pattern: word}, nil
	case syntax.RemSmallSuffix:
		return &ParamOp{Kind: ParamOpRemoveSuffixShort, Pattern: word}, nil
	case syntax.RemLargeSuffix:
		return &ParamOp{Kind: ParamOpRemoveSuffixLong, Pattern: word}, nil
	case syntax.UpperFirst:
		return &ParamOp{Kind: ParamOpCase, CaseUpper: true, CasePat: word}, nil
	case syntax.UpperAll:
		return &ParamOp{Kind: ParamOpCase, CaseUpper: true, CaseAll: true, CasePat: word}, nil
	case syntax.LowerFirst:
		return &ParamOp{Kind: ParamOpCase, CaseUpper: false, CasePat: word}, nil
	case syntax.LowerAll:
		return &ParamOp{Kind: ParamOpCase, CaseUpper: false, CaseAll: true, CasePat: word}, nil
	default:
		return &ParamOp{Kind: ParamOpNone}, nil
	}
}

// ---- Brace expansion detection ------------------------------------------

// tryBraceExpansion looks for the common `prefix{item,item,...}suffix` or
// `prefix{a..b[..step]}suffix` shape inside one literal token (the shape
// mvdan's lexer hands us for e.g. `a{1..3}b`: one *syntax.Lit).
func tryBraceExpansion(lit string) (BraceExpansion, bool) {
	start := strings.IndexByte(lit, '{')
	if start < 0 {
		return BraceExpansion{}, false
	}
	depth := 0
	end := -1
	for i := start; i < len(lit); i++ {
		switch lit[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return BraceExpansion{}, false
	}
	body := lit[start+1 : end]
	if body == "" || !strings.ContainsAny(body, ",.") {
		return BraceExpansion{}, false
	}
	prefix, suffix := lit[:start], lit[end+1:]

	be := BraceExpansion{}
	if prefix != "" {
		be.Prefix = &WordNode{Parts: []WordPart{Literal{Value: prefix}}}
	}
	if suffix != "" {
		be.Suffix = &WordNode{Parts: []WordPart{Literal{Value: suffix}}}
	}

	if parts := strings.SplitN(body, "..", 3); len(parts) >= 2 && !strings.Contains(body, ",") {
		item := BraceItem{IsRange: true, Start: parts[0], End: parts[1]}
		if len(parts) == 3 {
			item.Step = parts[2]
		}
		be.Items = []BraceItem{item}
		return be, true
	}

	for _, alt := range strings.Split(body, ",") {
		be.Items = append(be.Items, BraceItem{Word: &WordNode{Parts: []WordPart{Literal{Value: alt}}}})
	}
	return be, true
}

// ---- Arithmetic -----------------------------------------------------------

func convertArithmExprOpt(e syntax.ArithmExpr) (*ArithExpr, error) {
	if e == nil {
		return nil, nil
	}
	return convertArithmExpr(e)
}

func arithmExprOrNil(e syntax.ArithmExpr) (*ArithExpr, error) {
	return convertArithmExprOpt(e)
}

func wordArithm(w *syntax.Word) (*ArithExpr, error) {
	return convertArithmExpr(w)
}

func convertArithmExpr(e syntax.ArithmExpr) (*ArithExpr, error) {
	switch x := e.(type) {
	case *syntax.Word:
		text := literalWordText(x)
		if text == "" {
			// A lone `$name`/`${name}` reads that variable. Any other
			// non-literal word keeps its printed source text, which the
			// evaluator parses as a number (0 unless the text is numeric).
			if len(x.Parts) == 1 {
				if pe, ok := x.Parts[0].(*syntax.ParamExp); ok && !pe.Excl && !pe.Length &&
					pe.Index == nil && pe.Slice == nil && pe.Repl == nil && pe.Exp == nil && pe.Param != nil {
					if c := pe.Param.Value; c != "" && (c[0] == '_' || (c[0] >= 'a' && c[0] <= 'z') || (c[0] >= 'A' && c[0] <= 'Z')) {
						return &ArithExpr{VarName: c}, nil
					}
				}
			}
			return &ArithExpr{VarName: "$" + rawWordSource(x)}, nil
		}
		return &ArithExpr{VarName: text}, nil
	case *syntax.BinaryArithm:
		if x.Op == syntax.Assgn {
			name, ok := x.X.(*syntax.Word)
			if !ok {
				return nil, fmt.Errorf("unsupported assignment target")
			}
			val, err := convertArithmExpr(x.Y)
			if err != nil {
				return nil, err
			}
			return &ArithExpr{Assign: &ArithAssign{Name: literalWordText(name), Op: "=", X: val}}, nil
		}
		if opStr, ok := compoundAssignOps[x.Op]; ok {
			name, ok := x.X.(*syntax.Word)
			if !ok {
				return nil, fmt.Errorf("unsupported assignment target")
			}
			val, err := convertArithmExpr(x.Y)
			if err != nil {
				return nil, err
			}
			return &ArithExpr{Assign: &ArithAssign{Name: literalWordText(name), Op: opStr, X: val}}, nil
		}
		if x.Op == syntax.Comma {
			left, err := convertArithmExpr(x.X)
			if err != nil {
				return nil, err
			}
			right, err := convertArithmExpr(x.Y)
			if err != nil {
				return nil, err
			}
			return &ArithExpr{Comma: &ArithComma{X: left, Y: right}}, nil
		}
		left, err := convertArithmExpr(x.X)
		if err != nil {
			return nil, err
		}
		right, err := convertArithmExpr(x.Y)
		if err != nil {
			return nil, err
		}
		return &ArithExpr{Binary: &ArithBinary{Op: x.Op.String(), X: left, Y: right}}, nil
	case *syntax.UnaryArithm:
		if x.Op == syntax.Inc || x.Op == syntax.Dec {
			name, ok := x.X.(*syntax.Word)
			if !ok {
				return nil, fmt.Errorf("unsupported inc/dec target")
			}
			op := "++"
			if x.Op == syntax.Dec {
				op = "--"
			}
			return &ArithExpr{IncDec: &ArithIncDec{Name: literalWordText(name), Op: op, Pre: !x.Post}}, nil
		}
		operand, err := convertArithmExpr(x.X)
		if err != nil {
			return nil, err
		}
		return &ArithExpr{Unary: &ArithUnary{Op: x.Op.String(), X: operand}}, nil
	case *syntax.ParenArithm:
		inner, err := convertArithmExpr(x.X)
		if err != nil {
			return nil, err
		}
		return &ArithExpr{Grouped: inner}, nil
	default:
		return nil, fmt.Errorf("unsupported arithmetic node: %T", e)
	}
}

var compoundAssignOps = map[syntax.BinAritOperator]string{
	syntax.AddAssgn: "+=", syntax.SubAssgn: "-=", syntax.MulAssgn: "*=",
	syntax.QuoAssgn: "/=", syntax.RemAssgn: "%=", syntax.AndAssgn: "&=",
	syntax.OrAssgn: "|=", syntax.XorAssgn: "^=", syntax.ShlAssgn: "<<=",
	syntax.ShrAssgn: ">>=",
}

func rawWordSource(w *syntax.Word) string {
	var sb strings.Builder
	printer := syntax.NewPrinter()
	_ = printer.Print(&sb, &syntax.File{Stmts: []*syntax.Stmt{{Cmd: &syntax.CallExpr{Args: []*syntax.Word{w}}}}})
	return sb.String()
}

// ---- [[ ... ]] conditional expressions -----------------------------------

func convertTestExpr(e syntax.TestExpr) (*CondExpr, error) {
	switch x := e.(type) {
	case *syntax.Word:
		w, err := convertWord(x)
		if err != nil {
			return nil, err
		}
		return &CondExpr{Op: CondStringNEmpty, Left: w}, nil
	case *syntax.UnaryTest:
		operand, err := convertTestExpr(x.X)
		if err != nil {
			return nil, err
		}
		opStr := x.Op.String()
		if x.Op == syntax.TsNot {
			return &CondExpr{Op: CondNot, Operands: []*CondExpr{operand}}, nil
		}
		return &CondExpr{Op: CondUnaryTest, Test: opStr, Left: operand.Left}, nil
	case *syntax.BinaryTest:
		switch x.Op {
		case syntax.AndTest:
			left, err := convertTestExpr(x.X)
			if err != nil {
				return nil, err
			}
			right, err := convertTestExpr(x.Y)
			if err != nil {
				return nil, err
			}
			return &CondExpr{Op: CondAnd, Operands: []*CondExpr{left, right}}, nil
		case syntax.OrTest:
			left, err := convertTestExpr(x.X)
			if err != nil {
				return nil, err
			}
			right, err := convertTestExpr(x.Y)
			if err != nil {
				return nil, err
			}
			return &CondExpr{Op: CondOr, Operands: []*CondExpr{left, right}}, nil
		default:
			lw, err := wordOperand(x.X)
			if err != nil {
				return nil, err
			}
			rw, err := wordOperand(x.Y)
			if err != nil {
				return nil, err
			}
			op := binTestOp(x.Op)
			return &CondExpr{Op: op, Test: x.Op.String(), Left: lw, Right: rw}, nil
		}
	case *syntax.ParenTest:
		return convertTestExpr(x.X)
	default:
		return nil, fmt.Errorf("unsupported test expr: %T", e)
	}
}

func wordOperand(e syntax.TestExpr) (*WordNode, error) {
	if w, ok := e.(*syntax.Word); ok {
		return convertWord(w)
	}
	inner, err := convertTestExpr(e)
	if err != nil {
		return nil, err
	}
	return inner.Left, nil
}

func binTestOp(op syntax.BinTestOperator) CondOp {
	switch op {
	case syntax.TsMatch:
		return CondStringEq
	case syntax.TsNoMatch:
		return CondStringNe
	case syntax.TsReMatch:
		return CondRegexMatch
	case syntax.TsBefore:
		return CondStringLt
	case syntax.TsAfter:
		return CondStringGt
	case syntax.TsEql, syntax.TsNeq, syntax.TsLt, syntax.TsLe, syntax.TsGt, syntax.TsGe:
		return CondArithEq
	default:
		return CondStringEq
	}
}
