package utilities

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

func init() {
	register("md5sum", sumCmd(func() resetWriter { return md5.New() }))
	register("sha1sum", sumCmd(func() resetWriter { return sha1.New() }))
	register("sha256sum", sumCmd(func() resetWriter { return sha256.New() }))
	register("sha512sum", sumCmd(func() resetWriter { return sha512.New() }))
	register("b2sum", cmdB2sum)
	register("base64", cmdBase64)
}

func sumCmd(newHash func() resetWriter) Func {
	return func(ctx ExecContext) int {
		return runSum(ctx, newHash())
	}
}

func runSum(ctx ExecContext, h resetWriter) int {
	if len(ctx.Args) == 0 {
		data, err := io.ReadAll(ctx.Stdin)
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "sum: %v\n", err)
			return 1
		}
		h.Write(data)
		fmt.Fprintf(ctx.Stdout, "%s  -\n", hex.EncodeToString(h.Sum(nil)))
		return 0
	}
	status := 0
	for _, f := range ctx.Args {
		data, err := ctx.VFS.ReadFile(resolve(ctx, f))
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "sum: %s: %v\n", f, err)
			status = 1
			continue
		}
		h.Reset()
		h.Write(data)
		fmt.Fprintf(ctx.Stdout, "%s  %s\n", hex.EncodeToString(h.Sum(nil)), f)
	}
	return status
}

// resetWriter is the subset of hash.Hash that md5/sha1/sha256/sha512's
// New() constructors satisfy.
type resetWriter interface {
	io.Writer
	Sum([]byte) []byte
	Reset()
}

func cmdB2sum(ctx ExecContext) int {
	h, _ := blake2b.New256(nil)
	if len(ctx.Args) == 0 {
		data, err := io.ReadAll(ctx.Stdin)
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "b2sum: %v\n", err)
			return 1
		}
		h.Write(data)
		fmt.Fprintf(ctx.Stdout, "%s  -\n", hex.EncodeToString(h.Sum(nil)))
		return 0
	}
	status := 0
	for _, f := range ctx.Args {
		data, err := ctx.VFS.ReadFile(resolve(ctx, f))
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "b2sum: %s: %v\n", f, err)
			status = 1
			continue
		}
		h.Reset()
		h.Write(data)
		fmt.Fprintf(ctx.Stdout, "%s  %s\n", hex.EncodeToString(h.Sum(nil)), f)
	}
	return status
}

func cmdBase64(ctx ExecContext) int {
	decode := false
	var files []string
	for _, a := range ctx.Args {
		if a == "-d" || a == "--decode" {
			decode = true
			continue
		}
		files = append(files, a)
	}
	var data []byte
	var err error
	if len(files) > 0 {
		data, err = ctx.VFS.ReadFile(resolve(ctx, files[0]))
	} else {
		data, err = io.ReadAll(ctx.Stdin)
	}
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "base64: %v\n", err)
		return 1
	}
	if decode {
		out, err := base64.StdEncoding.DecodeString(string(trimTrailingNewline(data)))
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "base64: invalid input\n")
			return 1
		}
		ctx.Stdout.Write(out)
		return 0
	}
	fmt.Fprintln(ctx.Stdout, base64.StdEncoding.EncodeToString(data))
	return 0
}

func trimTrailingNewline(data []byte) []byte {
	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}
	return data
}
