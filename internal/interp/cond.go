package interp

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/expand"
)

// evalCondExpr evaluates a `[[ ... ]]` tree (spec.md §4.4).
func (s *State) evalCondExpr(e *ast.CondExpr) (bool, error) {
	switch e.Op {
	case ast.CondAnd:
		l, err := s.evalCondExpr(e.Operands[0])
		if err != nil || !l {
			return false, err
		}
		return s.evalCondExpr(e.Operands[1])
	case ast.CondOr:
		l, err := s.evalCondExpr(e.Operands[0])
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return s.evalCondExpr(e.Operands[1])
	case ast.CondNot:
		v, err := s.evalCondExpr(e.Operands[0])
		return !v, err
	case ast.CondStringNEmpty:
		v, err := s.condWord(e.Left)
		return v != "", err
	case ast.CondStringEmpty:
		v, err := s.condWord(e.Left)
		return v == "", err
	case ast.CondUnaryTest:
		return s.evalUnaryTest(e)
	case ast.CondStringEq:
		l, r, err := s.condPair(e)
		if err != nil {
			return false, err
		}
		return expand.MatchGlob(r, l), nil
	case ast.CondStringNe:
		l, r, err := s.condPair(e)
		if err != nil {
			return false, err
		}
		return !expand.MatchGlob(r, l), nil
	case ast.CondStringLt:
		l, r, err := s.condPair(e)
		return l < r, err
	case ast.CondStringGt:
		l, r, err := s.condPair(e)
		return l > r, err
	case ast.CondRegexMatch:
		l, r, err := s.condPair(e)
		if err != nil {
			return false, err
		}
		re, err := regexp.Compile(r)
		if err != nil {
			return false, fmt.Errorf("bad regex %q: %w", r, err)
		}
		return re.MatchString(l), nil
	case ast.CondArithEq:
		l, r, err := s.condPair(e)
		if err != nil {
			return false, err
		}
		return evalArithCompare(e.Test, l, r)
	default:
		return false, fmt.Errorf("interp: unsupported conditional operator")
	}
}

func (s *State) condWord(w *ast.WordNode) (string, error) {
	if w == nil {
		return "", nil
	}
	words, err := expand.Words([]*ast.WordNode{w}, s.expandCtx())
	if err != nil {
		return "", err
	}
	if len(words) == 0 {
		return "", nil
	}
	return words[0], nil
}

func (s *State) condPair(e *ast.CondExpr) (string, string, error) {
	l, err := s.condWord(e.Left)
	if err != nil {
		return "", "", err
	}
	r, err := s.condWord(e.Right)
	if err != nil {
		return "", "", err
	}
	return l, r, nil
}

func (s *State) evalUnaryTest(e *ast.CondExpr) (bool, error) {
	v, err := s.condWord(e.Left)
	if err != nil {
		return false, err
	}
	path := resolveAgainst(s.Cwd, v)
	switch e.Test {
	case "-e", "-a":
		return s.VFS.Exists(path), nil
	case "-f":
		st, err := s.VFS.Stat(path)
		return err == nil && st.IsFile, nil
	case "-d":
		st, err := s.VFS.Stat(path)
		return err == nil && st.IsDirectory, nil
	case "-L", "-h":
		_, err := s.VFS.Lstat(path)
		return err == nil, nil
	case "-r", "-w":
		return s.VFS.Exists(path), nil
	case "-x":
		return s.VFS.Exists(path), nil
	case "-s":
		data, err := s.VFS.ReadFile(path)
		return err == nil && len(data) > 0, nil
	case "-z":
		return v == "", nil
	case "-n":
		return v != "", nil
	case "-o":
		return false, nil
	default:
		return false, fmt.Errorf("interp: unsupported unary test %q", e.Test)
	}
}

// fileTest backs the `test`/`[` builtin's -e/-f/-d/... flags, sharing the
// same VFS-facing logic evalUnaryTest uses for `[[ ]]`.
func (s *State) fileTest(flag, operand string) bool {
	e := &ast.CondExpr{Op: ast.CondUnaryTest, Test: flag, Left: &ast.WordNode{Parts: []ast.WordPart{ast.Literal{Value: operand}}}}
	v, err := s.evalUnaryTest(e)
	return err == nil && v
}

func evalArithCompare(op, l, r string) (bool, error) {
	li, err := strconv.ParseInt(l, 10, 64)
	if err != nil {
		li = 0
	}
	ri, err := strconv.ParseInt(r, 10, 64)
	if err != nil {
		ri = 0
	}
	switch op {
	case "-eq":
		return li == ri, nil
	case "-ne":
		return li != ri, nil
	case "-lt":
		return li < ri, nil
	case "-le":
		return li <= ri, nil
	case "-gt":
		return li > ri, nil
	case "-ge":
		return li >= ri, nil
	default:
		return false, fmt.Errorf("interp: unsupported arithmetic comparison %q", op)
	}
}
