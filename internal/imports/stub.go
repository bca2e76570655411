//go:build !cgo

package imports

import "context"

// Available reports whether tree-sitter parsing is compiled in.
// Returns false when CGO is disabled.
func Available() bool {
	return false
}

func extractTree(_ context.Context, _ Language, _ []byte) ([]string, bool) {
	return nil, false
}
