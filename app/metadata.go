package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fileindex/models"
)

// ExtractMetadata builds a FileRecord for one filesystem entry, everything
// except hash values. Size and all three timestamps come from a single stat
// call so the fields cannot drift against each other. Owner lookup is best
// effort; its failure downgrades the field to empty, it does not fail the
// extraction. An unreadable entry yields ErrAccess.
func ExtractMetadata(path string) (models.FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.FileRecord{}, fmt.Errorf("%w: stat %s: %v", ErrAccess, path, err)
	}

	name := info.Name()
	atime, ctime := statTimes(info)

	rec := models.FileRecord{
		Path:       path,
		Name:       name,
		Dir:        filepath.Dir(path),
		Ext:        strings.ToLower(filepath.Ext(name)),
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		ChangeTime: ctime,
		AccessTime: atime,
		IsReadOnly: !pathWritable(path, info),
		IsHidden:   strings.HasPrefix(name, "."),
		Attributes: info.Mode().String(),
		PathLength: len([]rune(path)),
		PathDepth:  strings.Count(path, string(os.PathSeparator)),
		Owner:      fileOwner(info),
		ScannedAt:  time.Now(),
	}
	return rec, nil
}
