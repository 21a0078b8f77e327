package draftlib

import (
	"log"
	"runtime/debug"
	"sync"
)

// safeGo runs fn in a goroutine with panic recovery so a panicking
// callback can never take down the daemon. scope names the call site for
// the panic log line. If wg is non-nil it is decremented on completion,
// normal or panic. If onPanic is non-nil it receives the recovered value.
func safeGo(l *log.Logger, wg *sync.WaitGroup, scope string, onPanic func(r interface{}), fn func()) {
	go func() {
		if wg != nil {
			defer wg.Done()
		}
		defer func() {
			if r := recover(); r != nil {
				if l != nil {
					l.Printf("PANIC [%s]: %v\n%s", scope, r, debug.Stack())
				}
				if onPanic != nil {
					onPanic(r)
				}
			}
		}()
		fn()
	}()
}
