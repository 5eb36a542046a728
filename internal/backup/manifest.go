package backup

import (
	"path"
	"strings"
	"time"
)

// Content kinds listed in a manifest's Includes field.
const (
	IncludeDatabase = "database"
	IncludeCovers   = "covers"
)

// manifestVersion is the schema version written into new bundles.
const manifestVersion = "1"

// Manifest is the metadata entry stored at the root of every bundle. Its
// Includes field records what was actually archived, not what was requested.
type Manifest struct {
	Version    string    `json:"version"`
	Includes   []string  `json:"includes"`
	CreatedAt  time.Time `json:"created_at"`
	AppVersion string    `json:"app_version"`
}

// HasCovers reports whether the manifest lists cover images.
func (m *Manifest) HasCovers() bool {
	for _, inc := range m.Includes {
		if inc == IncludeCovers {
			return true
		}
	}
	return false
}

// entryKind tags an archive entry by what the restorer should do with it.
type entryKind int

const (
	entryOther entryKind = iota
	entryManifest
	entryDatabase
	entryCover
)

// classifyEntry decides how a stored entry path is handled during restore.
// For cover entries the returned name is the path relative to the covers
// prefix. Directory placeholders and anything unrecognized classify as
// entryOther and are skipped.
func classifyEntry(stored string) (entryKind, string) {
	name := path.Clean(strings.ReplaceAll(stored, `\`, "/"))

	switch name {
	case manifestEntry:
		return entryManifest, ""
	case databaseEntry:
		return entryDatabase, ""
	}

	if rest, ok := strings.CutPrefix(name, coverEntryPrefix); ok && rest != "" {
		return entryCover, rest
	}

	return entryOther, ""
}
