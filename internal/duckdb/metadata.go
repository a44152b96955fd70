package duckdb

import (
	"os"
	"strconv"
	"time"
)

// FileFingerprint identifies a source file by its stat data.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile fingerprints the file at path.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// metaLines renders the fingerprint as prefix_key=value meta entries, in a
// fixed order.
func (f FileFingerprint) metaLines(prefix string) [][2]string {
	return [][2]string{
		{prefix + "_path", f.Path},
		{prefix + "_size", strconv.FormatInt(f.Size, 10)},
		{prefix + "_modtime", f.ModTime.UTC().Format(time.RFC3339Nano)},
	}
}
