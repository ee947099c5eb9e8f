// Package testing forces test mode for binaries exercised from tests. Import
// it for its side effects.
package testing

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("MANAGE_TEST_MODE", "1")
		if os.Getenv("MANAGE_API_URL") == "" {
			_ = os.Setenv("MANAGE_API_URL", "http://127.0.0.1:1")
		}
		if os.Getenv("TOKEN_FILE") == "" {
			name := "manage-admin-test-" + strconv.Itoa(os.Getpid()) + ".json"
			_ = os.Setenv("TOKEN_FILE", filepath.Join(os.TempDir(), name))
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
