package testutil

import (
	"bytes"
	"testing"

	"github.com/sappho-media/sappho/internal/library"
)

// WriteCovers populates dir with n small cover images through the library
// cover store and returns their filenames.
func WriteCovers(t *testing.T, dir string, n int) []string {
	t.Helper()

	covers := library.NewCoverStore(dir)
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		payload := bytes.Repeat([]byte{byte('a' + i%26)}, 64)
		name, err := covers.Save(bytes.NewReader(payload), ".jpg")
		if err != nil {
			t.Fatalf("testutil.WriteCovers: save cover %d: %v", i, err)
		}
		names = append(names, name)
	}
	return names
}
