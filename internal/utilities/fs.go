package utilities

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

func init() {
	register("cat", cmdCat)
	register("ls", cmdLs)
	register("mkdir", cmdMkdir)
	register("rmdir", cmdRmdir)
	register("rm", cmdRm)
	register("cp", cmdCp)
	register("mv", cmdMv)
	register("touch", cmdTouch)
	register("ln", cmdLn)
	register("chmod", cmdChmod)
	register("stat", cmdStat)
	register("file", cmdFile)
	register("basename", cmdBasename)
	register("dirname", cmdDirname)
	register("realpath", cmdRealpath)
	register("pwd", cmdPwd)
}

func resolve(ctx ExecContext, p string) string {
	return ctx.VFS.ResolvePath(ctx.Cwd, p)
}

func cmdCat(ctx ExecContext) int {
	if len(ctx.Args) == 0 {
		fmt.Fprintln(ctx.Stderr, "cat: missing operand")
		return 1
	}
	status := 0
	for _, a := range ctx.Args {
		data, err := ctx.VFS.ReadFile(resolve(ctx, a))
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "cat: %s: %v\n", a, err)
			status = 1
			continue
		}
		ctx.Stdout.Write(data)
	}
	return status
}

func cmdLs(ctx ExecContext) int {
	long := false
	all := false
	var paths []string
	for _, a := range ctx.Args {
		switch {
		case a == "-l":
			long = true
		case a == "-a":
			all = true
		case a == "-la" || a == "-al":
			long, all = true, true
		case strings.HasPrefix(a, "-"):
			// unrecognized flag, ignore
		default:
			paths = append(paths, a)
		}
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}
	status := 0
	for i, p := range paths {
		full := resolve(ctx, p)
		st, err := ctx.VFS.Stat(full)
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "ls: cannot access '%s': No such file or directory\n", p)
			status = 1
			continue
		}
		if len(paths) > 1 {
			if i > 0 {
				fmt.Fprintln(ctx.Stdout)
			}
			fmt.Fprintf(ctx.Stdout, "%s:\n", p)
		}
		if !st.IsDirectory {
			printLsEntry(ctx, p, st, long)
			continue
		}
		names, err := ctx.VFS.Readdir(full)
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "ls: %s: %v\n", p, err)
			status = 1
			continue
		}
		if all {
			names = append([]string{".", ".."}, names...)
		}
		sort.Strings(names)
		for _, n := range names {
			cst, err := ctx.VFS.Stat(full + "/" + n)
			if err != nil {
				continue
			}
			printLsEntry(ctx, n, cst, long)
		}
	}
	return status
}

func printLsEntry(ctx ExecContext, name string, st vfs.Stat, long bool) {
	if !long {
		fmt.Fprintln(ctx.Stdout, name)
		return
	}
	kind := "-"
	if st.IsDirectory {
		kind = "d"
	} else if st.IsSymlink {
		kind = "l"
	}
	fmt.Fprintf(ctx.Stdout, "%s%s %10d %s\n", kind, permString(st.Mode), st.Size, name)
}

func permString(mode uint32) string {
	bits := "rwxrwxrwx"
	out := make([]byte, 9)
	for i := range out {
		if mode&(1<<(8-i)) != 0 {
			out[i] = bits[i]
		} else {
			out[i] = '-'
		}
	}
	return string(out)
}

func cmdMkdir(ctx ExecContext) int {
	recursive := false
	var paths []string
	for _, a := range ctx.Args {
		if a == "-p" {
			recursive = true
			continue
		}
		paths = append(paths, a)
	}
	status := 0
	for _, p := range paths {
		if err := ctx.VFS.Mkdir(resolve(ctx, p), recursive); err != nil {
			fmt.Fprintf(ctx.Stderr, "mkdir: cannot create directory '%s': %v\n", p, err)
			status = 1
		}
	}
	return status
}

func cmdRmdir(ctx ExecContext) int {
	status := 0
	for _, p := range ctx.Args {
		if err := ctx.VFS.Rm(resolve(ctx, p), false, false); err != nil {
			fmt.Fprintf(ctx.Stderr, "rmdir: failed to remove '%s': %v\n", p, err)
			status = 1
		}
	}
	return status
}

func cmdRm(ctx ExecContext) int {
	recursive, force := false, false
	var paths []string
	for _, a := range ctx.Args {
		switch a {
		case "-r", "-R", "--recursive":
			recursive = true
		case "-f", "--force":
			force = true
		case "-rf", "-fr":
			recursive, force = true, true
		default:
			paths = append(paths, a)
		}
	}
	status := 0
	for _, p := range paths {
		if err := ctx.VFS.Rm(resolve(ctx, p), recursive, force); err != nil {
			fmt.Fprintf(ctx.Stderr, "rm: cannot remove '%s': %v\n", p, err)
			status = 1
		}
	}
	return status
}

func cmdCp(ctx ExecContext) int {
	recursive := false
	var paths []string
	for _, a := range ctx.Args {
		if a == "-r" || a == "-R" {
			recursive = true
			continue
		}
		paths = append(paths, a)
	}
	if len(paths) < 2 {
		fmt.Fprintln(ctx.Stderr, "cp: missing destination file operand")
		return 1
	}
	dst := resolve(ctx, paths[len(paths)-1])
	srcs := paths[:len(paths)-1]
	status := 0
	for _, src := range srcs {
		full := resolve(ctx, src)
		st, err := ctx.VFS.Stat(full)
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "cp: cannot stat '%s': %v\n", src, err)
			status = 1
			continue
		}
		if st.IsDirectory && !recursive {
			fmt.Fprintf(ctx.Stderr, "cp: -r not specified; omitting directory '%s'\n", src)
			status = 1
			continue
		}
		target := dst
		if len(srcs) > 1 {
			target = dst + "/" + vfsBase(full)
		}
		if err := copyEntry(ctx, full, target, st); err != nil {
			fmt.Fprintf(ctx.Stderr, "cp: %v\n", err)
			status = 1
		}
	}
	return status
}

func copyEntry(ctx ExecContext, src, dst string, st vfs.Stat) error {
	if !st.IsDirectory {
		return ctx.VFS.CopyFile(src, dst)
	}
	if err := ctx.VFS.Mkdir(dst, true); err != nil {
		return err
	}
	names, err := ctx.VFS.Readdir(src)
	if err != nil {
		return err
	}
	for _, n := range names {
		childSt, err := ctx.VFS.Stat(src + "/" + n)
		if err != nil {
			continue
		}
		if err := copyEntry(ctx, src+"/"+n, dst+"/"+n, childSt); err != nil {
			return err
		}
	}
	return nil
}

func vfsBase(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}

func cmdMv(ctx ExecContext) int {
	if len(ctx.Args) < 2 {
		fmt.Fprintln(ctx.Stderr, "mv: missing destination file operand")
		return 1
	}
	dst := resolve(ctx, ctx.Args[len(ctx.Args)-1])
	srcs := ctx.Args[:len(ctx.Args)-1]
	status := 0
	for _, src := range srcs {
		if err := ctx.VFS.Rename(resolve(ctx, src), dst); err != nil {
			fmt.Fprintf(ctx.Stderr, "mv: cannot move '%s': %v\n", src, err)
			status = 1
		}
	}
	return status
}

func cmdTouch(ctx ExecContext) int {
	status := 0
	for _, p := range ctx.Args {
		if strings.HasPrefix(p, "-") {
			continue
		}
		full := resolve(ctx, p)
		if ctx.VFS.Exists(full) {
			data, _ := ctx.VFS.ReadFile(full)
			if err := ctx.VFS.WriteFile(full, data, 0); err != nil {
				fmt.Fprintf(ctx.Stderr, "touch: %v\n", err)
				status = 1
			}
			continue
		}
		if err := ctx.VFS.WriteFile(full, []byte{}, 0); err != nil {
			fmt.Fprintf(ctx.Stderr, "touch: cannot touch '%s': %v\n", p, err)
			status = 1
		}
	}
	return status
}

func cmdLn(ctx ExecContext) int {
	symbolic := false
	var paths []string
	for _, a := range ctx.Args {
		if a == "-s" {
			symbolic = true
			continue
		}
		paths = append(paths, a)
	}
	if len(paths) != 2 {
		fmt.Fprintln(ctx.Stderr, "ln: missing file operand")
		return 1
	}
	if !symbolic {
		fmt.Fprintln(ctx.Stderr, "ln: hard links are not supported; use -s")
		return 1
	}
	if err := ctx.VFS.Symlink(paths[0], resolve(ctx, paths[1])); err != nil {
		fmt.Fprintf(ctx.Stderr, "ln: %v\n", err)
		return 1
	}
	return 0
}

func cmdChmod(ctx ExecContext) int {
	if len(ctx.Args) < 2 {
		fmt.Fprintln(ctx.Stderr, "chmod: missing operand")
		return 1
	}
	mode, err := parseOctalMode(ctx.Args[0])
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "chmod: invalid mode: '%s'\n", ctx.Args[0])
		return 1
	}
	status := 0
	for _, p := range ctx.Args[1:] {
		if err := ctx.VFS.Chmod(resolve(ctx, p), mode); err != nil {
			fmt.Fprintf(ctx.Stderr, "chmod: cannot access '%s': %v\n", p, err)
			status = 1
		}
	}
	return status
}

func parseOctalMode(s string) (uint32, error) {
	var mode uint32
	for _, c := range s {
		if c < '0' || c > '7' {
			return 0, fmt.Errorf("bad octal digit")
		}
		mode = mode*8 + uint32(c-'0')
	}
	return mode, nil
}

func cmdStat(ctx ExecContext) int {
	status := 0
	for _, p := range ctx.Args {
		st, err := ctx.VFS.Stat(resolve(ctx, p))
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "stat: cannot stat '%s': %v\n", p, err)
			status = 1
			continue
		}
		kind := "regular file"
		if st.IsDirectory {
			kind = "directory"
		} else if st.IsSymlink {
			kind = "symbolic link"
		}
		fmt.Fprintf(ctx.Stdout, "  File: %s\n  Size: %d\t%s\n  Mode: (%04o)\n", p, st.Size, kind, st.Mode)
	}
	return status
}

func cmdFile(ctx ExecContext) int {
	status := 0
	for _, p := range ctx.Args {
		st, err := ctx.VFS.Stat(resolve(ctx, p))
		if err != nil {
			fmt.Fprintf(ctx.Stdout, "%s: cannot open (%v)\n", p, err)
			status = 1
			continue
		}
		switch {
		case st.IsDirectory:
			fmt.Fprintf(ctx.Stdout, "%s: directory\n", p)
		case st.IsSymlink:
			fmt.Fprintf(ctx.Stdout, "%s: symbolic link\n", p)
		default:
			data, _ := ctx.VFS.ReadFile(resolve(ctx, p))
			if len(data) == 0 {
				fmt.Fprintf(ctx.Stdout, "%s: empty\n", p)
			} else if looksBinary(data) {
				fmt.Fprintf(ctx.Stdout, "%s: data\n", p)
			} else {
				fmt.Fprintf(ctx.Stdout, "%s: ASCII text\n", p)
			}
		}
	}
	return status
}

func looksBinary(data []byte) bool {
	limit := len(data)
	if limit > 512 {
		limit = 512
	}
	for _, b := range data[:limit] {
		if b == 0 {
			return true
		}
	}
	return false
}

func cmdBasename(ctx ExecContext) int {
	if len(ctx.Args) == 0 {
		fmt.Fprintln(ctx.Stderr, "basename: missing operand")
		return 1
	}
	name := vfsBase(strings.TrimRight(ctx.Args[0], "/"))
	if len(ctx.Args) > 1 {
		name = strings.TrimSuffix(name, ctx.Args[1])
	}
	fmt.Fprintln(ctx.Stdout, name)
	return 0
}

func cmdDirname(ctx ExecContext) int {
	if len(ctx.Args) == 0 {
		fmt.Fprintln(ctx.Stderr, "dirname: missing operand")
		return 1
	}
	p := strings.TrimRight(ctx.Args[0], "/")
	idx := strings.LastIndexByte(p, '/')
	if idx <= 0 {
		if idx == 0 {
			fmt.Fprintln(ctx.Stdout, "/")
		} else {
			fmt.Fprintln(ctx.Stdout, ".")
		}
		return 0
	}
	fmt.Fprintln(ctx.Stdout, p[:idx])
	return 0
}

func cmdRealpath(ctx ExecContext) int {
	status := 0
	for _, p := range ctx.Args {
		full, err := ctx.VFS.Realpath(resolve(ctx, p))
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "realpath: %s: %v\n", p, err)
			status = 1
			continue
		}
		fmt.Fprintln(ctx.Stdout, full)
	}
	return status
}

func cmdPwd(ctx ExecContext) int {
	fmt.Fprintln(ctx.Stdout, ctx.Cwd)
	return 0
}
