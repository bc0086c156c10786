package app

import (
	"os"
	"strconv"
)

const testModeEnv = "ESTIMATOR_TEST_MODE"

// InTestMode reports whether binaries should return before opening
// connections. ESTIMATOR_TEST_MODE accepts any strconv.ParseBool value.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && on
}
