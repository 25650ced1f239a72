package builtins

import (
	"strconv"

	"github.com/vercel-labs/just-bash/internal/expand"
)

// FileTest is injected by the caller that has VFS access (internal/interp,
// for the `test`/`[` builtin) so this package itself stays
// filesystem-agnostic.
type FileTest func(flag, path string) bool

// Test evaluates a POSIX test(1)/[ expression. name is "test" or "["; for
// "[" a trailing "]" argument is stripped first.
func Test(name string, args []string) int {
	return TestWithFS(name, args, nil)
}

// TestWithFS is Test with a file-test callback for -e/-f/-d/-s/etc.
func TestWithFS(name string, args []string, fileTest FileTest) int {
	if name == "[" && len(args) > 0 && args[len(args)-1] == "]" {
		args = args[:len(args)-1]
	}
	ok, err := evalTest(args, fileTest)
	if err != nil {
		return 2
	}
	if ok {
		return 0
	}
	return 1
}

func evalTest(args []string, fileTest FileTest) (bool, error) {
	switch len(args) {
	case 0:
		return false, nil
	case 1:
		return args[0] != "", nil
	case 2:
		if args[0] == "!" {
			v, err := evalTest(args[1:], fileTest)
			return !v, err
		}
		return unary(args[0], args[1], fileTest), nil
	case 3:
		switch args[1] {
		case "=", "==", "!=", "-eq", "-ne", "-lt", "-le", "-gt", "-ge":
			return binary(args[0], args[1], args[2]), nil
		}
		if args[0] == "!" {
			v, err := evalTest(args[1:], fileTest)
			return !v, err
		}
		return binary(args[0], args[1], args[2]), nil
	default:
		if args[0] == "!" {
			v, err := evalTest(args[1:], fileTest)
			return !v, err
		}
		return false, nil
	}
}

func unary(op, operand string, fileTest FileTest) bool {
	switch op {
	case "-z":
		return operand == ""
	case "-n":
		return operand != ""
	default:
		if fileTest != nil {
			return fileTest(op, operand)
		}
		return false
	}
}

func binary(left, op, right string) bool {
	switch op {
	case "=", "==":
		return expand.MatchGlob(right, left)
	case "!=":
		return !expand.MatchGlob(right, left)
	case "-eq", "-ne", "-lt", "-le", "-gt", "-ge":
		li, _ := strconv.ParseInt(left, 10, 64)
		ri, _ := strconv.ParseInt(right, 10, 64)
		switch op {
		case "-eq":
			return li == ri
		case "-ne":
			return li != ri
		case "-lt":
			return li < ri
		case "-le":
			return li <= ri
		case "-gt":
			return li > ri
		default:
			return li >= ri
		}
	default:
		return false
	}
}
