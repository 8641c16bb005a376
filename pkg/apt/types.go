package apt

import "path"

// ArchAll is the architecture tag used by packages that are not tied
// to a processor architecture.
const ArchAll = "all"

// Record is a single stanza from a Packages index.
type Record struct {
	Package      string
	Version      string
	Architecture string
	Filename     string

	// Fields holds every key that is not mapped to a struct field
	// above, e.g. Description or Size.
	Fields map[string]string
}

// PoolDir returns the directory holding the record's artifact,
// relative to the repository root.
func (r Record) PoolDir() string {
	return path.Dir(r.Filename)
}

// VersionedRecord ties a record to the (architecture, version) slot it
// occupies within a package entry.
type VersionedRecord struct {
	Version      string
	Architecture string
	Record       Record
}
