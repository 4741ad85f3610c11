package engine

import "os"

// fileExists reports whether path exists on disk, used by the context
// bundle's file manifest to distinguish referenced-but-gone files from
// ones still present.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
