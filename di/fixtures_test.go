package di_test

import (
	"runtime"
	"testing"
	"time"
)

// Shared fixture services for the black-box tests. The names mirror the
// usual request-processing cast so scenarios read naturally.

type testConfig struct {
	Port int
	Env  string
}

type testRequestID struct {
	ID string
}

type testDatabase struct {
	DSN string
}

type testLogger struct {
	Level string
}

type testCache struct {
	Size int
}

// eventually retries cond around forced collections, for assertions that
// depend on weak references being cleared.
func eventually(t *testing.T, cond func() bool) bool {
	t.Helper()
	for i := 0; i < 50; i++ {
		runtime.GC()
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
