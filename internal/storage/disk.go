package storage

import (
	"os"
	"path/filepath"
)

// DiskUsageBytes returns the on-disk size of the database path, including
// SQLite sidecar files (WAL, shared memory). Missing paths contribute 0.
func DiskUsageBytes(dbPath string) (int64, error) {
	var total int64
	matches, err := filepath.Glob(dbPath + "*")
	if err != nil {
		return 0, err
	}
	for _, p := range matches {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}
