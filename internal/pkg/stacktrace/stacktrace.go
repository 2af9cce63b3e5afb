// Package stacktrace trims goroutine dumps to the frames of this module.
package stacktrace

import "strings"

const marker = "/internal/"

// InternalPaths returns "internal/pkg/file.go:123" for every frame of a
// debug.Stack dump that points into the module's internal tree.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		// File lines look like "/abs/path/internal/x/y.go:42 +0x1d".
		file, _, _ := strings.Cut(line, " ")
		if !strings.Contains(file, ".go:") {
			continue
		}
		idx := strings.Index(file, marker)
		if idx == -1 {
			continue
		}
		paths = append(paths, file[idx+1:])
	}

	return paths
}
