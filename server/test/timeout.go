package test

import (
	"fmt"
	"os"
	"runtime/pprof"
	"testing"
	"time"
)

// Timeout dumps all goroutines and panics when the test is still running
// after d. Call the returned function when the test is done.
func Timeout(t *testing.T, d time.Duration) (cancel func()) {
	name := t.Name()

	timer := time.AfterFunc(d, func() {
		if err := pprof.Lookup("goroutine").WriteTo(os.Stdout, 1); err != nil {
			fmt.Printf("failed to print goroutines: %v\n", err)
		}

		panic(fmt.Sprintf("test %s timed out after %s", name, d))
	})

	return func() {
		timer.Stop()
	}
}
