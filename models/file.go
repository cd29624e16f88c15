package models

import "time"

// FileRecord is one scanned filesystem entry. Records are keyed by absolute
// path; re-scanning the same path updates the existing row in place.
type FileRecord struct {
	Path        string
	Name        string
	Dir         string
	Ext         string // lower-cased, including the leading dot
	Size        int64
	ModTime     time.Time
	ChangeTime  time.Time
	AccessTime  time.Time
	IsReadOnly  bool
	IsHidden    bool
	IsSystem    bool
	IsArchive   bool
	Attributes  string
	SHA256      string // lowercase hex, empty when hashing is disabled
	MD5         string
	PathLength  int
	PathDepth   int
	Owner       string // best effort, empty when unresolvable
	FileVersion string // Windows only, empty elsewhere
	ScannedAt   time.Time
}
