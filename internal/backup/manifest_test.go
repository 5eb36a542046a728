package backup

import "testing"

func TestClassifyEntry(t *testing.T) {
	cases := []struct {
		stored string
		kind   entryKind
		name   string
	}{
		{"manifest.json", entryManifest, ""},
		{"./manifest.json", entryManifest, ""},
		{"sappho.db", entryDatabase, ""},
		{"covers/art.jpg", entryCover, "art.jpg"},
		{"covers/sub/art.jpg", entryCover, "sub/art.jpg"},
		{`covers\art.jpg`, entryCover, "art.jpg"},
		{"covers/", entryOther, ""},
		{"covers", entryOther, ""},
		{"covers/../../escape.jpg", entryOther, ""},
		{"notes.txt", entryOther, ""},
		{"nested/sappho.db", entryOther, ""},
		{"", entryOther, ""},
	}

	for _, tc := range cases {
		kind, name := classifyEntry(tc.stored)
		if kind != tc.kind {
			t.Errorf("classifyEntry(%q) kind = %d, want %d", tc.stored, kind, tc.kind)
		}
		if name != tc.name {
			t.Errorf("classifyEntry(%q) name = %q, want %q", tc.stored, name, tc.name)
		}
	}
}

func TestManifestHasCovers(t *testing.T) {
	m := &Manifest{Includes: []string{IncludeDatabase}}
	if m.HasCovers() {
		t.Error("database-only manifest must not report covers")
	}

	m.Includes = append(m.Includes, IncludeCovers)
	if !m.HasCovers() {
		t.Error("manifest listing covers must report covers")
	}
}
