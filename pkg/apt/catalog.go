package apt

import (
	"context"
	"sort"

	"github.com/go-logr/logr"
)

// CatalogBuilder accumulates records from any number of sources and
// resolves them into an immutable Catalog. It is not safe for
// concurrent use; feed it from a single goroutine so the duplicate
// policy stays deterministic.
type CatalogBuilder struct {
	suites map[string]map[string]map[string]map[string]Record
}

func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{
		suites: map[string]map[string]map[string]map[string]Record{},
	}
}

// Add inserts one record under the suite of the source it was parsed
// from. A record listing the same (architecture, version) twice
// overwrites the earlier one, last wins.
func (b *CatalogBuilder) Add(ctx context.Context, src Source, rec Record) {
	log := logr.FromContextOrDiscard(ctx).WithValues("suite", src.Suite, "package", rec.Package)

	if err := ValidateVersion(rec.Version); err != nil {
		log.Info("malformed version string, ordering falls back to lexicographic", "version", rec.Version, "error", err)
	}
	arch := rec.Architecture
	if arch == "" {
		arch = src.Architecture
	}

	packages, ok := b.suites[src.Suite]
	if !ok {
		packages = map[string]map[string]map[string]Record{}
		b.suites[src.Suite] = packages
	}
	arches, ok := packages[rec.Package]
	if !ok {
		arches = map[string]map[string]Record{}
		packages[rec.Package] = arches
	}
	versions, ok := arches[arch]
	if !ok {
		versions = map[string]Record{}
		arches[arch] = versions
	}
	if _, ok := versions[rec.Version]; ok {
		log.Info("duplicate package entry, keeping the later one", "arch", arch, "version", rec.Version)
	}
	versions[rec.Version] = rec
}

// Build resolves the accumulated records into a Catalog: per-arch
// version lists sorted newest first, and the newest version across
// all architectures per package. The builder can keep accumulating
// afterwards, the returned Catalog is detached.
func (b *CatalogBuilder) Build(ctx context.Context) *Catalog {
	log := logr.FromContextOrDiscard(ctx)

	cat := &Catalog{suites: map[string]*SuiteEntry{}}
	for suite, packages := range b.suites {
		se := &SuiteEntry{name: suite, packages: map[string]*PackageEntry{}}
		for name, arches := range packages {
			pe := &PackageEntry{name: name, byArch: map[string][]VersionedRecord{}}
			for arch, versions := range arches {
				list := make([]VersionedRecord, 0, len(versions))
				for version, rec := range versions {
					list = append(list, VersionedRecord{
						Version:      version,
						Architecture: arch,
						Record:       rec,
					})
				}
				sort.Slice(list, func(i, j int) bool {
					if c := CompareVersions(list[i].Version, list[j].Version); c != 0 {
						return c > 0
					}
					return list[i].Version > list[j].Version
				})
				pe.byArch[arch] = list
			}
			pe.resolveLatest()
			log.V(5).Info("resolved package", "suite", suite, "package", name, "latest", pe.latest.Version)
			se.packages[name] = pe
		}
		cat.suites[suite] = se
	}
	return cat
}

// Catalog is the fully resolved suite → package → architecture →
// versions hierarchy. It is read-only once built.
type Catalog struct {
	suites map[string]*SuiteEntry
}

// Suites returns the suite names in sorted order.
func (c *Catalog) Suites() []string {
	return sortedKeys(c.suites)
}

func (c *Catalog) Suite(name string) *SuiteEntry {
	return c.suites[name]
}

type SuiteEntry struct {
	name     string
	packages map[string]*PackageEntry
}

func (s *SuiteEntry) Name() string {
	return s.name
}

// Packages returns the package names in sorted order.
func (s *SuiteEntry) Packages() []string {
	return sortedKeys(s.packages)
}

func (s *SuiteEntry) Package(name string) *PackageEntry {
	return s.packages[name]
}

type PackageEntry struct {
	name   string
	byArch map[string][]VersionedRecord
	latest VersionedRecord
}

// resolveLatest picks the newest version across all architectures.
// When several architectures carry the same newest version the
// architecture-independent one wins, then the first architecture in
// sorted order.
func (p *PackageEntry) resolveLatest() {
	var best VersionedRecord
	for _, arch := range p.Architectures() {
		top := p.byArch[arch][0]
		if best.Version == "" {
			best = top
			continue
		}
		switch c := CompareVersions(top.Version, best.Version); {
		case c > 0:
			best = top
		case c == 0 && top.Architecture == ArchAll && best.Architecture != ArchAll:
			best = top
		}
	}
	p.latest = best
}

func (p *PackageEntry) Name() string {
	return p.name
}

// Architectures returns the architecture tags in sorted order.
func (p *PackageEntry) Architectures() []string {
	return sortedKeys(p.byArch)
}

// VersionsFor returns the records for one architecture, newest first.
func (p *PackageEntry) VersionsFor(arch string) []VersionedRecord {
	return p.byArch[arch]
}

// LatestOverall returns the newest version across all architectures.
func (p *PackageEntry) LatestOverall() VersionedRecord {
	return p.latest
}

// NewestRecords returns every record carrying the newest version, one
// per architecture that has it, in architecture order.
func (p *PackageEntry) NewestRecords() []VersionedRecord {
	var out []VersionedRecord
	for _, arch := range p.Architectures() {
		for _, vr := range p.byArch[arch] {
			if vr.Version == p.latest.Version {
				out = append(out, vr)
			}
		}
	}
	return out
}

// Versions returns the distinct versions across all architectures,
// newest first.
func (p *PackageEntry) Versions() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, list := range p.byArch {
		for _, vr := range list {
			if _, ok := seen[vr.Version]; ok {
				continue
			}
			seen[vr.Version] = struct{}{}
			out = append(out, vr.Version)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := CompareVersions(out[i], out[j]); c != 0 {
			return c > 0
		}
		return out[i] > out[j]
	})
	return out
}

// OlderVersions returns every distinct version below the newest,
// newest first.
func (p *PackageEntry) OlderVersions() []string {
	versions := p.Versions()
	for i, v := range versions {
		if v == p.latest.Version {
			return append(versions[:i], versions[i+1:]...)
		}
	}
	return versions
}

// PoolDir returns the pool directory of the newest artifact.
func (p *PackageEntry) PoolDir() string {
	newest := p.NewestRecords()
	if len(newest) == 0 {
		return ""
	}
	return newest[0].Record.PoolDir()
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
