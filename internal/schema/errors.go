package schema

import (
	"fmt"
	"sort"
	"strings"

	"recordkeeper/internal/common"
)

// FieldErrors maps a field path ("title", "files.2.url") to a human-readable
// message. It implements error so a failed validation can travel as one value
// while still enumerating every failing field.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	paths := make([]string, 0, len(e))
	for path := range e {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		parts = append(parts, fmt.Sprintf("%s: %s", path, e[path]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, common.ErrValidation) match any FieldErrors value.
func (e FieldErrors) Is(target error) bool {
	return target == common.ErrValidation
}
