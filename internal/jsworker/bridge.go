package jsworker

import (
	"fmt"
	"path"
	"strings"

	"github.com/dop251/goja"
	"github.com/vercel-labs/just-bash/internal/vfs"
)

// bridge holds the VFS/cwd every host-bound function closes over. It is the
// in-process stand-in for spec.md §4.6's shared binary region: since there
// is no second OS thread here, "serialize the request, signal, wait, read
// the response" collapses to a plain Go function call.
type bridge struct {
	vfs *vfs.VFS
	cwd string
}

func newBridge(v *vfs.VFS, cwd string) *bridge {
	return &bridge{vfs: v, cwd: cwd}
}

func (b *bridge) resolve(p string) string {
	return b.vfs.ResolvePath(b.cwd, p)
}

func (b *bridge) fsModule(vm *goja.Runtime) *goja.Object {
	obj := vm.NewObject()

	readFile := func(call goja.FunctionCall) goja.Value {
		p := call.Argument(0).String()
		data, err := b.vfs.ReadFile(b.resolve(p))
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(string(data))
	}
	writeFile := func(call goja.FunctionCall) goja.Value {
		p := call.Argument(0).String()
		content := call.Argument(1).String()
		if err := b.vfs.WriteFile(b.resolve(p), []byte(content), 0); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	}
	appendFile := func(call goja.FunctionCall) goja.Value {
		p := call.Argument(0).String()
		content := call.Argument(1).String()
		if err := b.vfs.AppendFile(b.resolve(p), []byte(content), 0); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	}
	exists := func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(b.vfs.Exists(b.resolve(call.Argument(0).String())))
	}
	mkdir := func(call goja.FunctionCall) goja.Value {
		recursive := false
		if opts := call.Argument(1); !goja.IsUndefined(opts) && !goja.IsNull(opts) {
			if o, ok := opts.Export().(map[string]interface{}); ok {
				if r, ok := o["recursive"].(bool); ok {
					recursive = r
				}
			}
		}
		if err := b.vfs.Mkdir(b.resolve(call.Argument(0).String()), recursive); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	}
	rm := func(call goja.FunctionCall) goja.Value {
		recursive := false
		if opts := call.Argument(1); !goja.IsUndefined(opts) && !goja.IsNull(opts) {
			if o, ok := opts.Export().(map[string]interface{}); ok {
				if r, ok := o["recursive"].(bool); ok {
					recursive = r
				}
			}
		}
		if err := b.vfs.Rm(b.resolve(call.Argument(0).String()), recursive, true); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	}
	readdir := func(call goja.FunctionCall) goja.Value {
		names, err := b.vfs.Readdir(b.resolve(call.Argument(0).String()))
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(names)
	}
	statFn := func(resolveFinal bool) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			p := b.resolve(call.Argument(0).String())
			var st vfs.Stat
			var err error
			if resolveFinal {
				st, err = b.vfs.Stat(p)
			} else {
				st, err = b.vfs.Lstat(p)
			}
			if err != nil {
				panic(vm.NewGoError(err))
			}
			out := vm.NewObject()
			out.Set("isFile", st.IsFile)
			out.Set("isDirectory", st.IsDirectory)
			out.Set("isSymbolicLink", st.IsSymlink)
			out.Set("size", st.Size)
			out.Set("mode", st.Mode)
			return out
		}
	}
	symlink := func(call goja.FunctionCall) goja.Value {
		target := call.Argument(0).String()
		linkPath := call.Argument(1).String()
		if err := b.vfs.Symlink(target, b.resolve(linkPath)); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	}
	readlink := func(call goja.FunctionCall) goja.Value {
		target, err := b.vfs.Readlink(b.resolve(call.Argument(0).String()))
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(target)
	}
	chmod := func(call goja.FunctionCall) goja.Value {
		mode := call.Argument(1).ToInteger()
		if err := b.vfs.Chmod(b.resolve(call.Argument(0).String()), uint32(mode)); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	}
	realpath := func(call goja.FunctionCall) goja.Value {
		resolved, err := b.vfs.Realpath(b.resolve(call.Argument(0).String()))
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(resolved)
	}
	rename := func(call goja.FunctionCall) goja.Value {
		if err := b.vfs.Rename(b.resolve(call.Argument(0).String()), b.resolve(call.Argument(1).String())); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	}
	copyFile := func(call goja.FunctionCall) goja.Value {
		if err := b.vfs.CopyFile(b.resolve(call.Argument(0).String()), b.resolve(call.Argument(1).String())); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	}

	obj.Set("readFile", readFile)
	obj.Set("readFileSync", readFile)
	obj.Set("writeFile", writeFile)
	obj.Set("writeFileSync", writeFile)
	obj.Set("appendFile", appendFile)
	obj.Set("appendFileSync", appendFile)
	obj.Set("exists", exists)
	obj.Set("existsSync", exists)
	obj.Set("mkdir", mkdir)
	obj.Set("mkdirSync", mkdir)
	obj.Set("rm", rm)
	obj.Set("rmSync", rm)
	obj.Set("readdir", readdir)
	obj.Set("readdirSync", readdir)
	obj.Set("stat", statFn(true))
	obj.Set("statSync", statFn(true))
	obj.Set("lstat", statFn(false))
	obj.Set("lstatSync", statFn(false))
	obj.Set("symlink", symlink)
	obj.Set("symlinkSync", symlink)
	obj.Set("readlink", readlink)
	obj.Set("readlinkSync", readlink)
	obj.Set("chmod", chmod)
	obj.Set("chmodSync", chmod)
	obj.Set("realpath", realpath)
	obj.Set("realpathSync", realpath)
	obj.Set("rename", rename)
	obj.Set("renameSync", rename)
	obj.Set("copyFile", copyFile)
	obj.Set("copyFileSync", copyFile)

	promises := vm.NewObject()
	promises.Set("readFile", b.promiseWrap(vm, readFile))
	promises.Set("writeFile", b.promiseWrap(vm, writeFile))
	promises.Set("mkdir", b.promiseWrap(vm, mkdir))
	promises.Set("rm", b.promiseWrap(vm, rm))
	promises.Set("readdir", b.promiseWrap(vm, readdir))
	obj.Set("promises", promises)

	return obj
}

// promiseWrap adapts a synchronous host binding into one returning an
// already-settled Promise, for guests that call fs.promises.* with .then().
func (b *bridge) promiseWrap(vm *goja.Runtime, fn func(goja.FunctionCall) goja.Value) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) (result goja.Value) {
		p, resolve, reject := vm.NewPromise()
		func() {
			defer func() {
				if r := recover(); r != nil {
					if gerr, ok := r.(*goja.Object); ok {
						reject(gerr)
						return
					}
					reject(vm.ToValue(fmt.Sprintf("%v", r)))
				}
			}()
			resolve(fn(call))
		}()
		return vm.ToValue(p)
	}
}

func (b *bridge) pathModule(vm *goja.Runtime) *goja.Object {
	obj := vm.NewObject()
	obj.Set("join", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			parts[i] = a.String()
		}
		return vm.ToValue(path.Join(parts...))
	})
	obj.Set("resolve", func(call goja.FunctionCall) goja.Value {
		p := b.cwd
		for _, a := range call.Arguments {
			p = b.vfs.ResolvePath(p, a.String())
		}
		return vm.ToValue(p)
	})
	obj.Set("normalize", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(path.Clean(call.Argument(0).String()))
	})
	obj.Set("isAbsolute", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(strings.HasPrefix(call.Argument(0).String(), "/"))
	})
	obj.Set("dirname", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(path.Dir(call.Argument(0).String()))
	})
	obj.Set("basename", func(call goja.FunctionCall) goja.Value {
		base := path.Base(call.Argument(0).String())
		if ext := call.Argument(1); !goja.IsUndefined(ext) {
			base = strings.TrimSuffix(base, ext.String())
		}
		return vm.ToValue(base)
	})
	obj.Set("extname", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(path.Ext(call.Argument(0).String()))
	})
	obj.Set("relative", func(call goja.FunctionCall) goja.Value {
		from := call.Argument(0).String()
		to := call.Argument(1).String()
		return vm.ToValue(relativePath(from, to))
	})
	obj.Set("parse", func(call goja.FunctionCall) goja.Value {
		p := call.Argument(0).String()
		out := vm.NewObject()
		out.Set("dir", path.Dir(p))
		out.Set("base", path.Base(p))
		out.Set("ext", path.Ext(p))
		out.Set("name", strings.TrimSuffix(path.Base(p), path.Ext(p)))
		return out
	})
	obj.Set("format", func(call goja.FunctionCall) goja.Value {
		o, _ := call.Argument(0).Export().(map[string]interface{})
		dir, _ := o["dir"].(string)
		base, _ := o["base"].(string)
		return vm.ToValue(path.Join(dir, base))
	})
	obj.Set("sep", "/")
	return obj
}

func relativePath(from, to string) string {
	fromParts := strings.Split(strings.Trim(from, "/"), "/")
	toParts := strings.Split(strings.Trim(to, "/"), "/")
	i := 0
	for i < len(fromParts) && i < len(toParts) && fromParts[i] == toParts[i] {
		i++
	}
	var out []string
	for range fromParts[i:] {
		out = append(out, "..")
	}
	out = append(out, toParts[i:]...)
	return path.Join(out...)
}

func (b *bridge) processModule(vm *goja.Runtime, opts Options) *goja.Object {
	obj := vm.NewObject()
	obj.Set("argv", append([]string{"node", "js-exec"}, opts.Args...))
	obj.Set("cwd", func(goja.FunctionCall) goja.Value { return vm.ToValue(b.cwd) })
	obj.Set("platform", "linux")
	obj.Set("arch", "x64")
	obj.Set("version", "v20.0.0-just-bash")
	env := vm.NewObject()
	for k, v := range opts.Env {
		env.Set(k, v)
	}
	obj.Set("env", env)
	obj.Set("exit", func(call goja.FunctionCall) goja.Value {
		code := 0
		if len(call.Arguments) > 0 {
			code = int(call.Argument(0).ToInteger())
		}
		vm.Interrupt(exitSignal{code: code})
		return goja.Undefined()
	})
	return obj
}

func (b *bridge) childProcessModule(vm *goja.Runtime, run RunShellFunc) *goja.Object {
	obj := vm.NewObject()
	execSync := func(call goja.FunctionCall) goja.Value {
		script := call.Argument(0).String()
		if run == nil {
			panic(vm.NewGoError(fmt.Errorf("child_process: shell re-entry is unavailable")))
		}
		out, code := run(script)
		if code != 0 {
			panic(vm.NewGoError(fmt.Errorf("command failed with exit code %d", code)))
		}
		return vm.ToValue(out)
	}
	spawnSync := func(call goja.FunctionCall) goja.Value {
		script := call.Argument(0).String()
		out, code := "", 1
		if run != nil {
			out, code = run(script)
		}
		result := vm.NewObject()
		result.Set("status", code)
		result.Set("stdout", out)
		result.Set("stderr", "")
		return result
	}
	obj.Set("execSync", execSync)
	obj.Set("exec", func(call goja.FunctionCall) goja.Value {
		script := call.Argument(0).String()
		cb := call.Argument(1)
		out, code := "", 1
		if run != nil {
			out, code = run(script)
		}
		if fn, ok := goja.AssertFunction(cb); ok {
			var errVal goja.Value = goja.Null()
			if code != 0 {
				errVal = vm.NewGoError(fmt.Errorf("command failed with exit code %d", code))
			}
			fn(goja.Undefined(), errVal, vm.ToValue(out), vm.ToValue(""))
		}
		return goja.Undefined()
	})
	obj.Set("spawnSync", spawnSync)
	return obj
}

func (b *bridge) fetchFunc(vm *goja.Runtime, fetch FetchFunc) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		url := call.Argument(0).String()
		method := "GET"
		var body string
		if opts := call.Argument(1); !goja.IsUndefined(opts) && !goja.IsNull(opts) {
			if o, ok := opts.Export().(map[string]interface{}); ok {
				if m, ok := o["method"].(string); ok {
					method = m
				}
				if bd, ok := o["body"].(string); ok {
					body = bd
				}
			}
		}
		p, resolve, reject := vm.NewPromise()
		if fetch == nil {
			reject(vm.NewGoError(fmt.Errorf("fetch: network access is disabled")))
			return vm.ToValue(p)
		}
		status, respBody, err := fetch(method, url, body)
		if err != nil {
			reject(vm.NewGoError(err))
			return vm.ToValue(p)
		}
		respObj := vm.NewObject()
		respObj.Set("status", status)
		respObj.Set("ok", status >= 200 && status < 300)
		respObj.Set("text", func(goja.FunctionCall) goja.Value {
			tp, tresolve, _ := vm.NewPromise()
			tresolve(vm.ToValue(respBody))
			return vm.ToValue(tp)
		})
		respObj.Set("json", func(goja.FunctionCall) goja.Value {
			jp, jresolve, jreject := vm.NewPromise()
			parsed, err := vm.RunString("(" + respBody + ")")
			if err != nil {
				jreject(vm.ToValue(err.Error()))
			} else {
				jresolve(parsed)
			}
			return vm.ToValue(jp)
		})
		resolve(respObj)
		return vm.ToValue(p)
	}
}
