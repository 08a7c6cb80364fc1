//go:build js && wasm
// +build js,wasm

package encryption

import (
	"errors"
	"syscall/js"
)

var errArgs = errors.New("expected value, key and iv arguments")

// Every export builds its own Engine from the text key and IV, so calls from
// JavaScript never share chain state. Failures surface as null (text results)
// or 0 (numeric results), and the reason is kept in SPNCipher.lastError.

func setLastError(obj js.Value, err error) {
	if err != nil {
		obj.Set("lastError", err.Error())
		return
	}
	obj.Set("lastError", js.Null())
}

func argStrings(args []js.Value, n int) ([]string, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if args[i].Type() != js.TypeString {
			return nil, false
		}
		out[i] = args[i].String()
	}
	return out, true
}

func exportText(obj js.Value, fn func(text, key, iv string) (string, error)) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		s, ok := argStrings(args, 3)
		if !ok {
			setLastError(obj, errArgs)
			return js.Null()
		}
		out, err := fn(s[0], s[1], s[2])
		setLastError(obj, err)
		if err != nil {
			return js.Null()
		}
		return out
	})
}

func exportEncryptNumber[T Numeric](obj js.Value) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 3 || args[0].Type() != js.TypeNumber {
			setLastError(obj, errArgs)
			return js.Null()
		}
		e := NewEngineFromText(args[1].String(), args[2].String())
		out, err := EncryptValueHex(e, T(args[0].Float()))
		setLastError(obj, err)
		if err != nil {
			return js.Null()
		}
		return out
	})
}

func exportDecryptNumber[T Numeric](obj js.Value) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		s, ok := argStrings(args, 3)
		if !ok {
			setLastError(obj, errArgs)
			return 0
		}
		v, err := DecryptValueHex[T](NewEngineFromText(s[1], s[2]), s[0])
		setLastError(obj, err)
		if err != nil {
			return 0
		}
		return float64(v)
	})
}

// RegisterWasmFunctions installs the SPNCipher object on the JavaScript global scope
func RegisterWasmFunctions() {
	obj := js.Global().Get("SPNCipher")
	if obj.Type() == js.TypeUndefined {
		obj = js.Global().Get("Object").New()
		js.Global().Set("SPNCipher", obj)
	}
	setLastError(obj, nil)

	obj.Set("encryptString", exportText(obj, EncryptMessage))
	obj.Set("decryptString", exportText(obj, DecryptMessage))
	obj.Set("encryptInt", exportEncryptNumber[int32](obj))
	obj.Set("decryptInt", exportDecryptNumber[int32](obj))
	obj.Set("encryptFloat", exportEncryptNumber[float32](obj))
	obj.Set("decryptFloat", exportDecryptNumber[float32](obj))
	obj.Set("encryptLong", exportEncryptNumber[int64](obj))
	obj.Set("decryptLong", exportDecryptNumber[int64](obj))
}
