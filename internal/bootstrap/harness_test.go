// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bootstrap

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/themesync/internal/colorscheme"
	"github.com/olegiv/themesync/internal/document"
)

// browser is the host state a script observes.
type browser struct {
	storage     map[string]string
	denyStorage bool
	dark        bool
	// unsupported makes matchMedia report "not all" like hosts that do not
	// understand the query.
	unsupported bool
}

// run executes src against a fake DOM whose root element is doc.
func (b *browser) run(t *testing.T, doc *document.Memory, src string) {
	t.Helper()

	vm := goja.New()
	root := doc.Root()

	fn := func(f func(goja.FunctionCall) goja.Value) goja.Value { return vm.ToValue(f) }
	undefined := goja.Undefined()

	classList := vm.NewObject()
	require.NoError(t, classList.Set("add", fn(func(call goja.FunctionCall) goja.Value {
		for _, a := range call.Arguments {
			root.AddClass(a.String())
		}
		return undefined
	})))
	require.NoError(t, classList.Set("remove", fn(func(call goja.FunctionCall) goja.Value {
		tokens := make([]string, 0, len(call.Arguments))
		for _, a := range call.Arguments {
			tokens = append(tokens, a.String())
		}
		root.RemoveClass(tokens...)
		return undefined
	})))

	style := vm.NewObject()
	require.NoError(t, style.DefineAccessorProperty("colorScheme",
		fn(func(goja.FunctionCall) goja.Value { return vm.ToValue(root.ColorScheme()) }),
		fn(func(call goja.FunctionCall) goja.Value {
			root.SetColorScheme(call.Argument(0).String())
			return undefined
		}),
		goja.FLAG_TRUE, goja.FLAG_TRUE))

	el := vm.NewObject()
	require.NoError(t, el.Set("classList", classList))
	require.NoError(t, el.Set("style", style))
	require.NoError(t, el.Set("setAttribute", fn(func(call goja.FunctionCall) goja.Value {
		root.SetAttribute(call.Argument(0).String(), call.Argument(1).String())
		return undefined
	})))
	require.NoError(t, el.Set("removeAttribute", fn(func(call goja.FunctionCall) goja.Value {
		root.RemoveAttribute(call.Argument(0).String())
		return undefined
	})))

	dom := vm.NewObject()
	require.NoError(t, dom.Set("documentElement", el))

	deny := func() { panic(vm.NewTypeError("storage access denied")) }
	if b.storage == nil {
		b.storage = make(map[string]string)
	}
	storage := vm.NewObject()
	require.NoError(t, storage.Set("getItem", fn(func(call goja.FunctionCall) goja.Value {
		if b.denyStorage {
			deny()
		}
		v, ok := b.storage[call.Argument(0).String()]
		if !ok {
			return goja.Null()
		}
		return vm.ToValue(v)
	})))
	require.NoError(t, storage.Set("setItem", fn(func(call goja.FunctionCall) goja.Value {
		if b.denyStorage {
			deny()
		}
		b.storage[call.Argument(0).String()] = call.Argument(1).String()
		return undefined
	})))
	require.NoError(t, storage.Set("removeItem", fn(func(call goja.FunctionCall) goja.Value {
		if b.denyStorage {
			deny()
		}
		delete(b.storage, call.Argument(0).String())
		return undefined
	})))

	global := vm.GlobalObject()
	require.NoError(t, global.Set("window", global))
	require.NoError(t, global.Set("document", dom))
	require.NoError(t, global.Set("localStorage", storage))
	require.NoError(t, global.Set("matchMedia", fn(func(call goja.FunctionCall) goja.Value {
		mql := vm.NewObject()
		media := call.Argument(0).String()
		if b.unsupported {
			media = "not all"
		}
		_ = mql.Set("media", media)
		_ = mql.Set("matches", b.dark && !b.unsupported)
		return mql
	})))

	_, err := vm.RunString(src)
	require.NoError(t, err, "bootstrap script must never throw")
}

// mediaQuery is the provider-side view of the same host.
func (b *browser) mediaQuery() colorscheme.MediaQueryList {
	if b.unsupported {
		return notAll{}
	}
	return colorscheme.NewSignal(b.dark)
}

type notAll struct{}

func (notAll) Media() string { return "not all" }
func (notAll) Matches() bool { return false }
