//go:build js && wasm
// +build js,wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption"
)

func main() {
	fmt.Println("SPN cipher WASM module initialized")

	encryption.RegisterWasmFunctions()

	// Signal JavaScript that exports are installed
	js.Global().Set("SPNCipherReady", js.ValueOf(true))

	// Keep the Go runtime alive for callbacks
	<-make(chan struct{})
}
