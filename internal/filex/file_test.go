package filex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitExt(t *testing.T) {
	tests := []struct {
		in       string
		wantBase string
		wantExt  string
	}{
		{"report.pdf", "report", "pdf"},
		{"archive.tar.gz", "archive.tar", "gz"},
		{"README", "README", ""},
		{".gitignore", "", "gitignore"},
	}

	for _, tc := range tests {
		base, ext := SplitExt(tc.in)
		assert.Equal(t, tc.wantBase, base, tc.in)
		assert.Equal(t, tc.wantExt, ext, tc.in)
	}
}
