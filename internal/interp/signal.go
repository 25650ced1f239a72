package interp

// signalKind tags the four ways a statement's execution unwinds control
// flow instead of just returning an exit code (spec.md §4.4: break,
// continue, return, exit are shell builtins that raise these, which the
// interpreter's loop/function/top-level handlers catch and stop at).
type signalKind int

const (
	sigNone signalKind = iota
	sigBreak
	sigContinue
	sigReturn
	sigExit
)

// ctrlSignal implements error so it can travel up through ordinary Go
// error returns without every caller needing a second return value; only
// the handler that owns the matching scope (loop, function, top level)
// should ever inspect or swallow one.
type ctrlSignal struct {
	kind     signalKind
	levels   int // break/continue N
	exitCode int // return/exit code
}

func (c *ctrlSignal) Error() string {
	switch c.kind {
	case sigBreak:
		return "break"
	case sigContinue:
		return "continue"
	case sigReturn:
		return "return"
	case sigExit:
		return "exit"
	default:
		return "signal"
	}
}

func asSignal(err error) (*ctrlSignal, bool) {
	sig, ok := err.(*ctrlSignal)
	return sig, ok
}

// consumeLoopSignal lets a for/while/until loop absorb a break/continue
// targeting it, decrementing multi-level break/continue (`break 2`) and
// re-raising anything that should keep propagating outward.
func consumeLoopSignal(err error) (brk bool, cont bool, propagate error) {
	sig, ok := asSignal(err)
	if !ok {
		return false, false, err
	}
	switch sig.kind {
	case sigBreak:
		if sig.levels > 1 {
			return true, false, &ctrlSignal{kind: sigBreak, levels: sig.levels - 1}
		}
		return true, false, nil
	case sigContinue:
		if sig.levels > 1 {
			return false, true, &ctrlSignal{kind: sigContinue, levels: sig.levels - 1}
		}
		return false, true, nil
	default:
		return false, false, err
	}
}
