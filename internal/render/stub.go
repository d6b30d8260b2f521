//go:build !cgo

package render

// Without cgo there is no parser; renders degrade to the bare lines of
// interest with no enclosing scope headers.
func buildScopes(fc *fileContext, relPath string, source []byte) error {
	return nil
}
