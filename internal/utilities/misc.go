package utilities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func init() {
	register("date", cmdDate)
	register("which", cmdWhich)
	register("diff", cmdDiff)
	register("expr", cmdExpr)
	register("sleep", cmdSleep)
	register("fc-list", cmdFcList)
}

// maxSleep bounds sleep's real wall-clock cost: the sandbox has no job
// control to interrupt a runaway `sleep 99999`, so a requested duration
// past this cap is silently truncated.
const maxSleep = 5 * time.Second

func cmdSleep(ctx ExecContext) int {
	if len(ctx.Args) == 0 {
		fmt.Fprintln(ctx.Stderr, "sleep: missing operand")
		return 1
	}
	secs, err := strconv.ParseFloat(ctx.Args[0], 64)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "sleep: invalid time interval '%s'\n", ctx.Args[0])
		return 1
	}
	d := time.Duration(secs * float64(time.Second))
	if d > maxSleep {
		d = maxSleep
	}
	time.Sleep(d)
	return 0
}

// fc-list has no real font store to enumerate in this sandbox; report none
// installed rather than fabricating entries.
func cmdFcList(ctx ExecContext) int {
	return 0
}

func cmdDate(ctx ExecContext) int {
	format := "Mon Jan  2 15:04:05 MST 2006"
	for _, a := range ctx.Args {
		if strings.HasPrefix(a, "+") {
			format = convertDateFormat(strings.TrimPrefix(a, "+"))
		}
	}
	fmt.Fprintln(ctx.Stdout, time.Now().UTC().Format(format))
	return 0
}

// convertDateFormat maps the handful of strftime directives shell scripts
// commonly pass (%Y %m %d %H %M %S) onto Go's reference-time layout.
func convertDateFormat(spec string) string {
	repl := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%Z", "MST", "%%", "%",
	)
	return repl.Replace(spec)
}

func cmdWhich(ctx ExecContext) int {
	status := 0
	for _, name := range ctx.Args {
		if Has(name) {
			fmt.Fprintf(ctx.Stdout, "/usr/bin/%s\n", name)
			continue
		}
		fmt.Fprintf(ctx.Stdout, "%s not found\n", name)
		status = 1
	}
	return status
}

func cmdDiff(ctx ExecContext) int {
	if len(ctx.Args) != 2 {
		fmt.Fprintln(ctx.Stderr, "diff: requires two file operands")
		return 2
	}
	a, errA := ctx.VFS.ReadFile(resolve(ctx, ctx.Args[0]))
	b, errB := ctx.VFS.ReadFile(resolve(ctx, ctx.Args[1]))
	if errA != nil || errB != nil {
		fmt.Fprintln(ctx.Stderr, "diff: file not found")
		return 2
	}
	la := strings.Split(string(a), "\n")
	lb := strings.Split(string(b), "\n")
	if string(a) == string(b) {
		return 0
	}
	maxLen := len(la)
	if len(lb) > maxLen {
		maxLen = len(lb)
	}
	for i := 0; i < maxLen; i++ {
		var av, bv string
		if i < len(la) {
			av = la[i]
		}
		if i < len(lb) {
			bv = lb[i]
		}
		if av != bv {
			fmt.Fprintf(ctx.Stdout, "%dc%d\n< %s\n---\n> %s\n", i+1, i+1, av, bv)
		}
	}
	return 1
}

func cmdExpr(ctx ExecContext) int {
	if len(ctx.Args) != 3 {
		fmt.Fprintln(ctx.Stderr, "expr: syntax error")
		return 2
	}
	a, err1 := strconv.ParseInt(ctx.Args[0], 10, 64)
	b, err2 := strconv.ParseInt(ctx.Args[2], 10, 64)
	if err1 != nil || err2 != nil {
		fmt.Fprintln(ctx.Stderr, "expr: non-numeric argument")
		return 2
	}
	var result int64
	switch ctx.Args[1] {
	case "+":
		result = a + b
	case "-":
		result = a - b
	case "*":
		result = a * b
	case "/":
		if b == 0 {
			fmt.Fprintln(ctx.Stderr, "expr: division by zero")
			return 2
		}
		result = a / b
	case "%":
		if b == 0 {
			fmt.Fprintln(ctx.Stderr, "expr: division by zero")
			return 2
		}
		result = a % b
	default:
		fmt.Fprintln(ctx.Stderr, "expr: unsupported operator")
		return 2
	}
	fmt.Fprintln(ctx.Stdout, result)
	if result == 0 {
		return 1
	}
	return 0
}
