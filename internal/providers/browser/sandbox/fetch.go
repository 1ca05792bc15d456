package sandbox

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// fetch is the global fetch(url, init) seen by scripts. The host answers
// synchronously and the returned promise is already settled.
func (r *Runtime) fetch(call goja.FunctionCall) goja.Value {
	promise, resolve, reject := r.vm.NewPromise()

	req := FetchRequest{
		URL:     call.Argument(0).String(),
		Method:  "GET",
		Headers: map[string]string{},
	}
	if init, ok := call.Argument(1).Export().(map[string]interface{}); ok {
		if m, ok := init["method"].(string); ok && m != "" {
			req.Method = strings.ToUpper(m)
		}
		if b, ok := init["body"].(string); ok {
			req.Body = b
		}
		if c, ok := init["credentials"].(string); ok {
			req.Credentials = c
		}
		if h, ok := init["headers"].(map[string]interface{}); ok {
			for k, v := range h {
				req.Headers[strings.ToLower(k)] = fmt.Sprint(v)
			}
		}
	}

	resp, err := r.config.Fetch(r.ctx, req)
	if err != nil {
		reject(r.vm.NewTypeError("Failed to fetch: %v", err))
		return r.vm.ToValue(promise)
	}

	resolve(r.responseObject(resp))
	return r.vm.ToValue(promise)
}

// responseObject builds the subset of the Response API scripts rely on
func (r *Runtime) responseObject(resp FetchResponse) *goja.Object {
	obj := r.vm.NewObject()
	_ = obj.Set("status", resp.Status)
	_ = obj.Set("ok", resp.Status >= 200 && resp.Status < 300)

	_ = obj.Set("text", func(goja.FunctionCall) goja.Value {
		p, resolve, _ := r.vm.NewPromise()
		resolve(resp.Body)
		return r.vm.ToValue(p)
	})

	_ = obj.Set("json", func(goja.FunctionCall) goja.Value {
		p, resolve, reject := r.vm.NewPromise()
		parse, _ := goja.AssertFunction(r.vm.Get("JSON").ToObject(r.vm).Get("parse"))
		v, err := parse(goja.Undefined(), r.vm.ToValue(resp.Body))
		if err != nil {
			reject(r.vm.NewTypeError("Invalid JSON: %v", err))
		} else {
			resolve(v)
		}
		return r.vm.ToValue(p)
	})

	return obj
}
