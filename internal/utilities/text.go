package utilities

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func init() {
	register("head", cmdHead)
	register("tail", cmdTail)
	register("wc", cmdWc)
	register("sort", cmdSort)
	register("uniq", cmdUniq)
	register("cut", cmdCut)
	register("tr", cmdTr)
	register("tee", cmdTee)
	register("fold", cmdFold)
	register("rev", cmdRev)
	register("nl", cmdNl)
	register("seq", cmdSeq)
	register("yes", cmdYes)
	register("env", cmdEnv)
}

// linesFromArgsOrStdin reads either the named files (if any non-flag
// argument survives) or ctx.Stdin, joined in argument order.
func linesFromArgsOrStdin(ctx ExecContext, files []string) ([]string, error) {
	var all []string
	if len(files) == 0 {
		sc := bufio.NewScanner(ctx.Stdin)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for sc.Scan() {
			all = append(all, sc.Text())
		}
		return all, nil
	}
	for _, f := range files {
		data, err := ctx.VFS.ReadFile(resolve(ctx, f))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		all = append(all, splitLinesKeepTrailing(string(data))...)
	}
	return all, nil
}

func splitLinesKeepTrailing(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

func cmdHead(ctx ExecContext) int {
	n := 10
	var files []string
	for i := 0; i < len(ctx.Args); i++ {
		a := ctx.Args[i]
		if a == "-n" && i+1 < len(ctx.Args) {
			n, _ = strconv.Atoi(ctx.Args[i+1])
			i++
			continue
		}
		if strings.HasPrefix(a, "-n") && len(a) > 2 {
			n, _ = strconv.Atoi(a[2:])
			continue
		}
		files = append(files, a)
	}
	lines, err := linesFromArgsOrStdin(ctx, files)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "head: %v\n", err)
		return 1
	}
	if n > len(lines) {
		n = len(lines)
	}
	for _, l := range lines[:n] {
		fmt.Fprintln(ctx.Stdout, l)
	}
	return 0
}

func cmdTail(ctx ExecContext) int {
	n := 10
	var files []string
	for i := 0; i < len(ctx.Args); i++ {
		a := ctx.Args[i]
		if a == "-n" && i+1 < len(ctx.Args) {
			n, _ = strconv.Atoi(ctx.Args[i+1])
			i++
			continue
		}
		if strings.HasPrefix(a, "-n") && len(a) > 2 {
			n, _ = strconv.Atoi(a[2:])
			continue
		}
		files = append(files, a)
	}
	lines, err := linesFromArgsOrStdin(ctx, files)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "tail: %v\n", err)
		return 1
	}
	start := len(lines) - n
	if start < 0 {
		start = 0
	}
	for _, l := range lines[start:] {
		fmt.Fprintln(ctx.Stdout, l)
	}
	return 0
}

func cmdWc(ctx ExecContext) int {
	lines, words, chars := false, false, false
	var files []string
	for _, a := range ctx.Args {
		switch a {
		case "-l":
			lines = true
		case "-w":
			words = true
		case "-c", "-m":
			chars = true
		default:
			files = append(files, a)
		}
	}
	if !lines && !words && !chars {
		lines, words, chars = true, true, true
	}
	printOne := func(name string, data []byte) {
		nl := strings.Count(string(data), "\n")
		nw := len(strings.Fields(string(data)))
		nc := len(data)
		var parts []string
		if lines {
			parts = append(parts, fmt.Sprintf("%7d", nl))
		}
		if words {
			parts = append(parts, fmt.Sprintf("%7d", nw))
		}
		if chars {
			parts = append(parts, fmt.Sprintf("%7d", nc))
		}
		if name != "" {
			parts = append(parts, name)
		}
		fmt.Fprintln(ctx.Stdout, strings.Join(parts, " "))
	}
	if len(files) == 0 {
		data, _ := io.ReadAll(ctx.Stdin)
		printOne("", data)
		return 0
	}
	status := 0
	for _, f := range files {
		data, err := ctx.VFS.ReadFile(resolve(ctx, f))
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "wc: %s: %v\n", f, err)
			status = 1
			continue
		}
		printOne(f, data)
	}
	return status
}

func cmdSort(ctx ExecContext) int {
	reverse, numeric, unique := false, false, false
	var files []string
	for _, a := range ctx.Args {
		switch a {
		case "-r":
			reverse = true
		case "-n":
			numeric = true
		case "-u":
			unique = true
		default:
			files = append(files, a)
		}
	}
	lines, err := linesFromArgsOrStdin(ctx, files)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "sort: %v\n", err)
		return 1
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if numeric {
			a, _ := strconv.ParseFloat(strings.TrimSpace(lines[i]), 64)
			b, _ := strconv.ParseFloat(strings.TrimSpace(lines[j]), 64)
			return a < b
		}
		return lines[i] < lines[j]
	})
	if reverse {
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
	}
	if unique {
		lines = dedupAdjacent(lines)
	}
	for _, l := range lines {
		fmt.Fprintln(ctx.Stdout, l)
	}
	return 0
}

func dedupAdjacent(lines []string) []string {
	out := lines[:0:0]
	for i, l := range lines {
		if i == 0 || l != lines[i-1] {
			out = append(out, l)
		}
	}
	return out
}

func cmdUniq(ctx ExecContext) int {
	count := false
	var files []string
	for _, a := range ctx.Args {
		if a == "-c" {
			count = true
			continue
		}
		files = append(files, a)
	}
	lines, err := linesFromArgsOrStdin(ctx, files)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "uniq: %v\n", err)
		return 1
	}
	var prev string
	n := 0
	flush := func() {
		if n == 0 {
			return
		}
		if count {
			fmt.Fprintf(ctx.Stdout, "%7d %s\n", n, prev)
		} else {
			fmt.Fprintln(ctx.Stdout, prev)
		}
	}
	for i, l := range lines {
		if i == 0 || l != prev {
			flush()
			prev = l
			n = 1
		} else {
			n++
		}
	}
	flush()
	return 0
}

func cmdCut(ctx ExecContext) int {
	var delim = "\t"
	var field int
	hasField := false
	var files []string
	for i := 0; i < len(ctx.Args); i++ {
		a := ctx.Args[i]
		switch {
		case a == "-d" && i+1 < len(ctx.Args):
			delim = ctx.Args[i+1]
			i++
		case strings.HasPrefix(a, "-d"):
			delim = strings.TrimPrefix(a, "-d")
		case a == "-f" && i+1 < len(ctx.Args):
			field, _ = strconv.Atoi(ctx.Args[i+1])
			hasField = true
			i++
		case strings.HasPrefix(a, "-f"):
			field, _ = strconv.Atoi(strings.TrimPrefix(a, "-f"))
			hasField = true
		default:
			files = append(files, a)
		}
	}
	lines, err := linesFromArgsOrStdin(ctx, files)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "cut: %v\n", err)
		return 1
	}
	for _, l := range lines {
		if !hasField {
			fmt.Fprintln(ctx.Stdout, l)
			continue
		}
		parts := strings.Split(l, delim)
		if field >= 1 && field <= len(parts) {
			fmt.Fprintln(ctx.Stdout, parts[field-1])
		} else {
			fmt.Fprintln(ctx.Stdout)
		}
	}
	return 0
}

func cmdTr(ctx ExecContext) int {
	deleteMode := false
	var rest []string
	for _, a := range ctx.Args {
		if a == "-d" {
			deleteMode = true
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) == 0 {
		fmt.Fprintln(ctx.Stderr, "tr: missing operand")
		return 1
	}
	if !deleteMode && len(rest) >= 2 && isCaseClassPair(rest[0], rest[1]) {
		data, err := io.ReadAll(ctx.Stdin)
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "tr: %v\n", err)
			return 1
		}
		caser := cases.Lower(language.Und)
		if rest[1] == "[:upper:]" {
			caser = cases.Upper(language.Und)
		}
		fmt.Fprint(ctx.Stdout, caser.String(string(data)))
		return 0
	}

	from := expandTrSet(rest[0])
	var to []rune
	if !deleteMode {
		if len(rest) < 2 {
			fmt.Fprintln(ctx.Stderr, "tr: missing operand after set1")
			return 1
		}
		to = expandTrSet(rest[1])
	}
	data, err := io.ReadAll(ctx.Stdin)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "tr: %v\n", err)
		return 1
	}
	mapping := map[rune]rune{}
	del := map[rune]bool{}
	for i, r := range from {
		if deleteMode {
			del[r] = true
			continue
		}
		if len(to) == 0 {
			continue
		}
		j := i
		if j >= len(to) {
			j = len(to) - 1
		}
		mapping[r] = to[j]
	}
	var out strings.Builder
	for _, r := range string(data) {
		if del[r] {
			continue
		}
		if rep, ok := mapping[r]; ok {
			out.WriteRune(rep)
		} else {
			out.WriteRune(r)
		}
	}
	fmt.Fprint(ctx.Stdout, out.String())
	return 0
}

// isCaseClassPair reports whether set1/set2 is exactly the POSIX
// [:upper:]/[:lower:] pair (in either direction), tr's whole-string
// case-conversion mode (spec.md-adjacent DOMAIN STACK: x/text/cases
// handles the Unicode-aware fold instead of a 26-letter rune table).
func isCaseClassPair(set1, set2 string) bool {
	return (set1 == "[:upper:]" && set2 == "[:lower:]") ||
		(set1 == "[:lower:]" && set2 == "[:upper:]")
}

var posixClasses = map[string]string{
	"[:upper:]": "A-Z",
	"[:lower:]": "a-z",
	"[:digit:]": "0-9",
	"[:alpha:]": "a-zA-Z",
	"[:alnum:]": "a-zA-Z0-9",
	"[:space:]": " \t\n\r\f\v",
	"[:punct:]": "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~",
}

func expandTrSet(s string) []rune {
	if expansion, ok := posixClasses[s]; ok {
		s = expansion
	}
	var out []rune
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && runes[i+1] == '-' {
			for c := runes[i]; c <= runes[i+2]; c++ {
				out = append(out, c)
			}
			i += 2
			continue
		}
		out = append(out, runes[i])
	}
	return out
}

func cmdTee(ctx ExecContext) int {
	append_ := false
	var files []string
	for _, a := range ctx.Args {
		if a == "-a" {
			append_ = true
			continue
		}
		files = append(files, a)
	}
	data, err := io.ReadAll(ctx.Stdin)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "tee: %v\n", err)
		return 1
	}
	ctx.Stdout.Write(data)
	status := 0
	for _, f := range files {
		full := resolve(ctx, f)
		var werr error
		if append_ {
			werr = ctx.VFS.AppendFile(full, data, 0)
		} else {
			werr = ctx.VFS.WriteFile(full, data, 0)
		}
		if werr != nil {
			fmt.Fprintf(ctx.Stderr, "tee: %s: %v\n", f, werr)
			status = 1
		}
	}
	return status
}

func cmdFold(ctx ExecContext) int {
	width := 80
	for i := 0; i < len(ctx.Args); i++ {
		if ctx.Args[i] == "-w" && i+1 < len(ctx.Args) {
			width, _ = strconv.Atoi(ctx.Args[i+1])
			i++
		}
	}
	data, _ := io.ReadAll(ctx.Stdin)
	for _, line := range strings.Split(string(data), "\n") {
		runes := []rune(line)
		for len(runes) > width {
			fmt.Fprintln(ctx.Stdout, string(runes[:width]))
			runes = runes[width:]
		}
		fmt.Fprintln(ctx.Stdout, string(runes))
	}
	return 0
}

func cmdRev(ctx ExecContext) int {
	lines, err := linesFromArgsOrStdin(ctx, ctx.Args)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "rev: %v\n", err)
		return 1
	}
	for _, l := range lines {
		runes := []rune(l)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		fmt.Fprintln(ctx.Stdout, string(runes))
	}
	return 0
}

func cmdNl(ctx ExecContext) int {
	lines, err := linesFromArgsOrStdin(ctx, ctx.Args)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "nl: %v\n", err)
		return 1
	}
	for i, l := range lines {
		fmt.Fprintf(ctx.Stdout, "%6d\t%s\n", i+1, l)
	}
	return 0
}

func cmdSeq(ctx ExecContext) int {
	var nums []int
	for _, a := range ctx.Args {
		n, err := strconv.Atoi(a)
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "seq: invalid argument %q\n", a)
			return 1
		}
		nums = append(nums, n)
	}
	var start, step, end int
	switch len(nums) {
	case 1:
		start, step, end = 1, 1, nums[0]
	case 2:
		start, step, end = nums[0], 1, nums[1]
	case 3:
		start, step, end = nums[0], nums[1], nums[2]
	default:
		fmt.Fprintln(ctx.Stderr, "seq: usage: seq [first [step]] last")
		return 1
	}
	if step == 0 {
		fmt.Fprintln(ctx.Stderr, "seq: zero step")
		return 1
	}
	if step > 0 {
		for i := start; i <= end; i += step {
			fmt.Fprintln(ctx.Stdout, i)
		}
	} else {
		for i := start; i >= end; i += step {
			fmt.Fprintln(ctx.Stdout, i)
		}
	}
	return 0
}

func cmdYes(ctx ExecContext) int {
	// Bounded: an in-process sandbox has no job control to ^C out of a true
	// infinite loop, so yes caps at a large-but-finite line count.
	text := "y"
	if len(ctx.Args) > 0 {
		text = strings.Join(ctx.Args, " ")
	}
	const cap = 100000
	for i := 0; i < cap; i++ {
		fmt.Fprintln(ctx.Stdout, text)
	}
	return 0
}

func cmdEnv(ctx ExecContext) int {
	for _, e := range ctx.Env {
		fmt.Fprintln(ctx.Stdout, e)
	}
	return 0
}
