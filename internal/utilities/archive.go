package utilities

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

func init() {
	register("gzip", cmdGzip)
	register("gunzip", cmdGunzip)
	register("tar", cmdTar)
}

func cmdGzip(ctx ExecContext) int {
	decompress := false
	var files []string
	for _, a := range ctx.Args {
		if a == "-d" {
			decompress = true
			continue
		}
		files = append(files, a)
	}
	if decompress {
		return gunzip(ctx, files)
	}
	var data []byte
	var err error
	if len(files) > 0 {
		data, err = ctx.VFS.ReadFile(resolve(ctx, files[0]))
	} else {
		data, err = io.ReadAll(ctx.Stdin)
	}
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "gzip: %v\n", err)
		return 1
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write(data)
	w.Close()
	if len(files) > 0 {
		if err := ctx.VFS.WriteFile(resolve(ctx, files[0])+".gz", buf.Bytes(), 0); err != nil {
			fmt.Fprintf(ctx.Stderr, "gzip: %v\n", err)
			return 1
		}
		ctx.VFS.Rm(resolve(ctx, files[0]), false, true)
		return 0
	}
	ctx.Stdout.Write(buf.Bytes())
	return 0
}

func cmdGunzip(ctx ExecContext) int {
	return gunzip(ctx, ctx.Args)
}

func gunzip(ctx ExecContext, files []string) int {
	var data []byte
	var err error
	if len(files) > 0 {
		data, err = ctx.VFS.ReadFile(resolve(ctx, files[0]))
	} else {
		data, err = io.ReadAll(ctx.Stdin)
	}
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "gunzip: %v\n", err)
		return 1
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "gunzip: %v\n", err)
		return 1
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "gunzip: %v\n", err)
		return 1
	}
	if len(files) > 0 && strings.HasSuffix(files[0], ".gz") {
		dst := resolve(ctx, strings.TrimSuffix(files[0], ".gz"))
		if err := ctx.VFS.WriteFile(dst, out, 0); err != nil {
			fmt.Fprintf(ctx.Stderr, "gunzip: %v\n", err)
			return 1
		}
		ctx.VFS.Rm(resolve(ctx, files[0]), false, true)
		return 0
	}
	ctx.Stdout.Write(out)
	return 0
}

// cmdTar supports the common subset: create (-c), extract (-x), list (-t),
// each optionally gzip-filtered (-z), against files rather than a real tty
// device (-f NAME).
func cmdTar(ctx ExecContext) int {
	var mode byte
	gz := false
	var archiveFile string
	var members []string
	for i := 0; i < len(ctx.Args); i++ {
		a := ctx.Args[i]
		switch {
		case strings.ContainsAny(a, "cxtzf") && strings.HasPrefix(a, "-"):
			for _, c := range a[1:] {
				switch c {
				case 'c', 'x', 't':
					mode = byte(c)
				case 'z':
					gz = true
				case 'f':
					if i+1 < len(ctx.Args) {
						archiveFile = ctx.Args[i+1]
						i++
					}
				}
			}
		default:
			members = append(members, a)
		}
	}
	if archiveFile == "" {
		fmt.Fprintln(ctx.Stderr, "tar: -f is required")
		return 1
	}
	full := resolve(ctx, archiveFile)
	switch mode {
	case 'c':
		return tarCreate(ctx, full, members, gz)
	case 'x':
		return tarExtract(ctx, full, gz)
	case 't':
		return tarList(ctx, full, gz)
	default:
		fmt.Fprintln(ctx.Stderr, "tar: one of -c/-x/-t is required")
		return 1
	}
}

func tarCreate(ctx ExecContext, archivePath string, members []string, gz bool) int {
	var buf bytes.Buffer
	var w io.Writer = &buf
	var gzw *gzip.Writer
	if gz {
		gzw = gzip.NewWriter(&buf)
		w = gzw
	}
	tw := tar.NewWriter(w)
	var addEntry func(p string) error
	addEntry = func(p string) error {
		st, err := ctx.VFS.Stat(p)
		if err != nil {
			return err
		}
		hdr := &tar.Header{Name: strings.TrimPrefix(p, "/"), Mode: int64(st.Mode), Size: st.Size}
		if st.IsDirectory {
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
			hdr.Name += "/"
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			names, err := ctx.VFS.Readdir(p)
			if err != nil {
				return err
			}
			for _, n := range names {
				child := p
				if child != "/" {
					child += "/"
				}
				if err := addEntry(child + n); err != nil {
					return err
				}
			}
			return nil
		}
		hdr.Typeflag = tar.TypeReg
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		data, err := ctx.VFS.ReadFile(p)
		if err != nil {
			return err
		}
		_, err = tw.Write(data)
		return err
	}
	for _, m := range members {
		if err := addEntry(resolve(ctx, m)); err != nil {
			fmt.Fprintf(ctx.Stderr, "tar: %s: %v\n", m, err)
			return 1
		}
	}
	tw.Close()
	if gzw != nil {
		gzw.Close()
	}
	if err := ctx.VFS.WriteFile(archivePath, buf.Bytes(), 0); err != nil {
		fmt.Fprintf(ctx.Stderr, "tar: %v\n", err)
		return 1
	}
	return 0
}

func openTarReader(ctx ExecContext, archivePath string, gz bool) (*tar.Reader, error) {
	data, err := ctx.VFS.ReadFile(archivePath)
	if err != nil {
		return nil, err
	}
	var r io.Reader = bytes.NewReader(data)
	if gz {
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		r = gr
	}
	return tar.NewReader(r), nil
}

func tarExtract(ctx ExecContext, archivePath string, gz bool) int {
	tr, err := openTarReader(ctx, archivePath, gz)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "tar: %v\n", err)
		return 1
	}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "tar: %v\n", err)
			return 1
		}
		dst := resolve(ctx, hdr.Name)
		if hdr.Typeflag == tar.TypeDir {
			ctx.VFS.Mkdir(dst, true)
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "tar: %v\n", err)
			return 1
		}
		ctx.VFS.Mkdir(parentPath(dst), true)
		if err := ctx.VFS.WriteFile(dst, data, uint32(hdr.Mode)); err != nil {
			fmt.Fprintf(ctx.Stderr, "tar: %v\n", err)
			return 1
		}
	}
	return 0
}

func parentPath(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}

func tarList(ctx ExecContext, archivePath string, gz bool) int {
	tr, err := openTarReader(ctx, archivePath, gz)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "tar: %v\n", err)
		return 1
	}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "tar: %v\n", err)
			return 1
		}
		fmt.Fprintln(ctx.Stdout, hdr.Name)
	}
	return 0
}
