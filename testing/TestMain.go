package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("ESTIMATOR_TEST_MODE", "1")
		if os.Getenv("HOST_TOKEN_SECRET") == "" {
			_ = os.Setenv("HOST_TOKEN_SECRET", "test-secret")
		}
		if os.Getenv("HOST_API_BASE_URL") == "" {
			_ = os.Setenv("HOST_API_BASE_URL", "http://127.0.0.1:0")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
