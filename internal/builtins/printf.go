package builtins

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printf implements a pragmatic subset of POSIX printf: %s %d %i %f %x %o
// %c %% and the width/precision/flag modifiers Go's fmt already
// understands, plus bash's behavior of recycling the format string over
// any extra arguments.
func Printf(w io.Writer, args []string) (int, error) {
	if len(args) == 0 {
		return 2, fmt.Errorf("printf: usage: printf format [arguments]")
	}
	format := interpretEscapes(args[0])
	values := args[1:]

	consumed := 0
	first := true
	for first || consumed < len(values) {
		first = false
		n, err := printfOnce(w, format, values, &consumed)
		if err != nil {
			return 1, err
		}
		if n == 0 {
			break
		}
		if len(values) == 0 {
			break
		}
	}
	return 0, nil
}

func printfOnce(w io.Writer, format string, values []string, consumed *int) (int, error) {
	runes := []rune(format)
	specsUsed := 0
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' {
			fmt.Fprintf(w, "%c", runes[i])
			continue
		}
		j := i + 1
		for j < len(runes) && strings.ContainsRune("-+ 0#", runes[j]) {
			j++
		}
		for j < len(runes) && runes[j] >= '0' && runes[j] <= '9' {
			j++
		}
		if j < len(runes) && runes[j] == '.' {
			j++
			for j < len(runes) && runes[j] >= '0' && runes[j] <= '9' {
				j++
			}
		}
		if j >= len(runes) {
			fmt.Fprint(w, "%")
			break
		}
		verb := runes[j]
		spec := string(runes[i : j+1])
		i = j
		if verb == '%' {
			fmt.Fprint(w, "%")
			continue
		}
		specsUsed++
		arg := nextArg(values, consumed)
		switch verb {
		case 's':
			fmt.Fprintf(w, spec, arg)
		case 'd', 'i':
			n, _ := strconv.ParseInt(strings.TrimSpace(arg), 0, 64)
			fmt.Fprintf(w, strings.Replace(spec, string(verb), "d", 1), n)
		case 'f', 'e', 'g':
			f, _ := strconv.ParseFloat(strings.TrimSpace(arg), 64)
			fmt.Fprintf(w, spec, f)
		case 'x', 'X', 'o':
			n, _ := strconv.ParseInt(strings.TrimSpace(arg), 0, 64)
			fmt.Fprintf(w, spec, n)
		case 'c':
			if len(arg) > 0 {
				fmt.Fprintf(w, spec, arg[0])
			}
		default:
			fmt.Fprint(w, spec)
		}
	}
	return specsUsed, nil
}

func nextArg(values []string, consumed *int) string {
	if *consumed >= len(values) {
		return ""
	}
	v := values[*consumed]
	*consumed++
	return v
}
