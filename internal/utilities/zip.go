package utilities

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// zip/unzip use the stdlib archive/zip container format rather than
// klauspost/compress: klauspost/compress provides the gzip/zstd/flate
// codecs tar and gzip need, but ships no zip *container* implementation of
// its own, so there is nothing in the pack's stack to swap in here.
func init() {
	register("zip", cmdZip)
	register("unzip", cmdUnzip)
}

func cmdZip(ctx ExecContext) int {
	if len(ctx.Args) < 2 {
		fmt.Fprintln(ctx.Stderr, "zip: usage: zip archive.zip file...")
		return 1
	}
	archivePath := resolve(ctx, ctx.Args[0])
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	var addEntry func(p, name string) error
	addEntry = func(p, name string) error {
		st, err := ctx.VFS.Stat(p)
		if err != nil {
			return err
		}
		if st.IsDirectory {
			names, err := ctx.VFS.Readdir(p)
			if err != nil {
				return err
			}
			for _, n := range names {
				child := p
				if child != "/" {
					child += "/"
				}
				if err := addEntry(child+n, name+"/"+n); err != nil {
					return err
				}
			}
			return nil
		}
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		data, err := ctx.VFS.ReadFile(p)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	for _, member := range ctx.Args[1:] {
		full := resolve(ctx, member)
		if err := addEntry(full, strings.TrimPrefix(member, "/")); err != nil {
			fmt.Fprintf(ctx.Stderr, "zip: %s: %v\n", member, err)
			return 1
		}
	}
	zw.Close()
	if err := ctx.VFS.WriteFile(archivePath, buf.Bytes(), 0); err != nil {
		fmt.Fprintf(ctx.Stderr, "zip: %v\n", err)
		return 1
	}
	return 0
}

func cmdUnzip(ctx ExecContext) int {
	if len(ctx.Args) < 1 {
		fmt.Fprintln(ctx.Stderr, "unzip: usage: unzip archive.zip")
		return 1
	}
	data, err := ctx.VFS.ReadFile(resolve(ctx, ctx.Args[0]))
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "unzip: %v\n", err)
		return 1
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "unzip: %v\n", err)
		return 1
	}
	for _, f := range zr.File {
		dst := resolve(ctx, f.Name)
		if f.FileInfo().IsDir() {
			ctx.VFS.Mkdir(dst, true)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "unzip: %v\n", err)
			return 1
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "unzip: %v\n", err)
			return 1
		}
		ctx.VFS.Mkdir(parentPath(dst), true)
		if err := ctx.VFS.WriteFile(dst, content, 0); err != nil {
			fmt.Fprintf(ctx.Stderr, "unzip: %v\n", err)
			return 1
		}
	}
	return 0
}
