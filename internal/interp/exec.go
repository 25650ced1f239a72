package interp

import (
	"fmt"

	"github.com/vercel-labs/just-bash/internal/arith"
	"github.com/vercel-labs/just-bash/internal/ast"
	"github.com/vercel-labs/just-bash/internal/expand"
)

// Run executes prog to completion against s, returning the exit code a top
// level `$?` would see. A bare `exit` unwinds all the way here and is
// absorbed; break/continue escaping every enclosing loop is a script bug
// bash itself treats as a no-op at the top level, so it's absorbed too.
func (s *State) Run(prog *ast.Program) int {
	for _, stmt := range prog.Statements {
		err := s.exec(stmt)
		if sig, ok := asSignal(err); ok {
			if sig.kind == sigExit {
				return sig.exitCode
			}
			continue
		}
		if err != nil {
			fmt.Fprintf(s.Stderr, "bash: %v\n", err)
			s.LastExit = 1
		}
		if s.Options.Errexit && s.LastExit != 0 {
			return s.LastExit
		}
	}
	return s.LastExit
}

func (s *State) exec(stmt ast.Statement) error {
	switch n := stmt.(type) {
	case *ast.SimpleCommand:
		return s.execSimpleCommand(n, nil)
	case *ast.Pipeline:
		return s.execPipeline(n)
	case *ast.List:
		return s.execList(n)
	case *ast.If:
		return s.execIf(n)
	case *ast.For:
		return s.execFor(n)
	case *ast.While:
		return s.execWhile(n)
	case *ast.Case:
		return s.execCase(n)
	case *ast.FuncDecl:
		s.Functions[n.Name] = n
		s.LastExit = 0
		return nil
	case *ast.Subshell:
		return s.execSubshell(n)
	case *ast.Block:
		return s.execBlock(n)
	case *ast.RedirectedStatement:
		return s.execRedirected(n)
	case *ast.CondStatement:
		return s.execCond(n)
	case *ast.ArithStatement:
		return s.execArithStatement(n)
	default:
		return fmt.Errorf("interp: unsupported statement %T", stmt)
	}
}

func (s *State) execList(n *ast.List) error {
	if err := s.exec(n.Left); err != nil {
		return err
	}
	switch n.Op {
	case ast.ListSeq, ast.ListBackground:
		if n.Right == nil {
			return nil
		}
		return s.exec(n.Right)
	case ast.ListAnd:
		if s.LastExit != 0 {
			return nil
		}
		return s.exec(n.Right)
	case ast.ListOr:
		if s.LastExit == 0 {
			return nil
		}
		return s.exec(n.Right)
	default:
		return nil
	}
}

func (s *State) execIf(n *ast.If) error {
	if err := s.exec(n.Cond); err != nil {
		return err
	}
	if s.LastExit == 0 {
		return s.execBody(n.Then)
	}
	for i, elifCond := range n.ElifConds {
		if err := s.exec(elifCond); err != nil {
			return err
		}
		if s.LastExit == 0 {
			return s.execBody(n.ElifBodies[i])
		}
	}
	if n.Else != nil {
		return s.execBody(n.Else)
	}
	s.LastExit = 0
	return nil
}

// execBody runs a compound statement's body (if/for/while/case/function/
// subshell). It applies the same errexit check Run applies between
// top-level statements, so `set -e` aborts at the first failing command
// wherever it runs, not just at the script's outermost level.
func (s *State) execBody(stmts []ast.Statement) error {
	for _, st := range stmts {
		if err := s.exec(st); err != nil {
			return err
		}
		if s.Options.Errexit && s.LastExit != 0 {
			return &ctrlSignal{kind: sigExit, exitCode: s.LastExit}
		}
	}
	return nil
}

func (s *State) execFor(n *ast.For) error {
	if n.Words != nil {
		items, err := expand.Words(n.Words, s.expandCtx())
		if err != nil {
			return err
		}
		for _, item := range items {
			s.Set(n.Var, item)
			if err := s.execBody(n.Body); err != nil {
				brk, _, propagate := consumeLoopSignal(err)
				if propagate != nil {
					return propagate
				}
				if brk {
					break
				}
			}
		}
		s.LastExit = 0
		return nil
	}

	vars := arithVarsOf(s)
	if n.Init != nil {
		if _, err := arith.Eval(n.Init, vars); err != nil {
			return err
		}
	}
	for {
		if n.Cond != nil {
			v, err := arith.Eval(n.Cond, vars)
			if err != nil {
				return err
			}
			if v == 0 {
				break
			}
		}
		if err := s.execBody(n.Body); err != nil {
			brk, _, propagate := consumeLoopSignal(err)
			if propagate != nil {
				return propagate
			}
			if brk {
				break
			}
		}
		if n.Post != nil {
			if _, err := arith.Eval(n.Post, vars); err != nil {
				return err
			}
		}
	}
	s.LastExit = 0
	return nil
}

func (s *State) execWhile(n *ast.While) error {
	for {
		if err := s.exec(n.Cond); err != nil {
			return err
		}
		done := s.LastExit != 0
		if n.Until {
			done = s.LastExit == 0
		}
		if done {
			break
		}
		if err := s.execBody(n.Body); err != nil {
			brk, _, propagate := consumeLoopSignal(err)
			if propagate != nil {
				return propagate
			}
			if brk {
				break
			}
		}
	}
	s.LastExit = 0
	return nil
}

func (s *State) execCase(n *ast.Case) error {
	words, err := expand.Words([]*ast.WordNode{n.Word}, s.expandCtx())
	if err != nil {
		return err
	}
	subject := ""
	if len(words) > 0 {
		subject = words[0]
	}
	for idx := 0; idx < len(n.Items); idx++ {
		item := n.Items[idx]
		if !matchesAnyPattern(subject, item.Patterns, s) {
			continue
		}
		if err := s.execBody(item.Body); err != nil {
			return err
		}
		for idx+1 < len(n.Items) {
			switch item.Clause {
			case ast.CaseFallthrough:
				idx++
				item = n.Items[idx]
				if err := s.execBody(item.Body); err != nil {
					return err
				}
			case ast.CaseContinue:
				next := idx + 1
				for next < len(n.Items) && !matchesAnyPattern(subject, n.Items[next].Patterns, s) {
					next++
				}
				if next >= len(n.Items) {
					return nil
				}
				idx = next
				item = n.Items[idx]
				if err := s.execBody(item.Body); err != nil {
					return err
				}
			default:
				return nil
			}
		}
		return nil
	}
	s.LastExit = 0
	return nil
}

func matchesAnyPattern(subject string, patterns []*ast.WordNode, s *State) bool {
	for _, p := range patterns {
		words, err := expand.Words([]*ast.WordNode{p}, s.expandCtx())
		if err != nil {
			continue
		}
		for _, w := range words {
			if expand.MatchGlob(w, subject) {
				return true
			}
		}
	}
	return false
}

func (s *State) execSubshell(n *ast.Subshell) error {
	snapshot := s.VFS.Snapshot()
	child := s.fork()
	err := child.execBody(n.Body)
	s.LastExit = child.LastExit
	s.VFS.Restore(snapshot)
	if sig, ok := asSignal(err); ok && sig.kind == sigExit {
		return err
	}
	return nil
}

func (s *State) execBlock(n *ast.Block) error {
	return s.execBody(n.Body)
}

func (s *State) execRedirected(n *ast.RedirectedStatement) error {
	streams, cleanup, err := s.applyRedirects(n.Redirects)
	if err != nil {
		s.LastExit = 1
		fmt.Fprintf(s.Stderr, "%v\n", err)
		return nil
	}
	defer cleanup()

	saved := s.swapStreams(streams)
	defer s.restoreStreams(saved)

	return s.exec(n.Stmt)
}

func (s *State) execCond(n *ast.CondStatement) error {
	v, err := s.evalCondExpr(n.Expr)
	if err != nil {
		s.LastExit = 2
		return nil
	}
	if v {
		s.LastExit = 0
	} else {
		s.LastExit = 1
	}
	return nil
}

func (s *State) execArithStatement(n *ast.ArithStatement) error {
	v, err := arith.Eval(n.Expr, arithVarsOf(s))
	if err != nil {
		return err
	}
	if v == 0 {
		s.LastExit = 1
	} else {
		s.LastExit = 0
	}
	return nil
}
