// Package localcatalog is a reference pkg/catalog.Client backed by a
// static catalog descriptor document loaded from disk, rather than a
// network round-trip. It exists for tests and examples; a production
// deployment is expected to back catalog.Client with the real remote
// softcat service instead.
package localcatalog

import (
	"context"
	"os"

	"github.com/armon/go-radix"
	"github.com/pkg/errors"

	"github.com/eazel/eazel-install/pkg/catalog"
	"github.com/eazel/eazel-install/pkg/pid"
	"github.com/eazel/eazel-install/pkg/xmlfmt"
)

// Catalog answers GetInfo from a Categories document parsed once at Load
// time, indexed by name in a radix tree the way pkg/pid.FileIndex indexes
// provided files — the same armon/go-radix dependency, here giving prefix
// lookups across package names for free. Category names are not indexed.
type Catalog struct {
	byName *radix.Tree
}

// Load parses the Categories document at path and returns a ready Catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading catalog descriptor %q", path)
	}

	var cats xmlfmt.Categories
	if err := xmlfmt.Unmarshal(data, &cats); err != nil {
		return nil, errors.Wrapf(err, "parsing catalog descriptor %q", path)
	}

	tree := radix.New()
	for _, cat := range cats.Categories {
		for i := range cat.Packages {
			pkg := cat.Packages[i]
			tree.Insert(pkg.Name, &pkg)
		}
	}
	return &Catalog{byName: tree}, nil
}

// GetInfo implements pkg/catalog.Client.
func (c *Catalog) GetInfo(ctx context.Context, ref *pid.Ref) (*pid.Ref, error) {
	v, ok := c.byName.Get(ref.Name)
	if !ok {
		return nil, &catalog.Error{Kind: catalog.NotFound, Query: ref.Name}
	}
	pkg := v.(*xmlfmt.Package)
	return wireToRef(pkg), nil
}

// wireToRef converts a parsed xmlfmt.Package into a fully-filled pid.Ref
// whose ID is derived from its name, version, minor and arch. Dependency
// children become partial refs (name, version, arch only) that the
// resolver fetches on their own once they re-enter it; modifies entries
// are converted recursively.
func wireToRef(pkg *xmlfmt.Package) *pid.Ref {
	ref := &pid.Ref{
		ID:      pid.ID(pkg.Name + "-" + pkg.Version + "-" + pkg.Minor + "-" + pkg.Arch),
		Name:    pkg.Name,
		Version: pkg.Version,
		Release: pkg.Minor,
		Arch:    pkg.Arch,
		Summary: pkg.Summary,
		Bytesize: pkg.Bytesize(),
		Fill:    pid.MandatoryFill,
		Provides: pid.ProvidesSet{
			Files: []string{},
		},
	}

	for _, dep := range pkg.HardDepend {
		d := dep
		ref.Depends = append(ref.Depends, &pid.Dependency{Child: pid.MakeRef(d.Name, d.Version, d.Arch, "")})
	}
	for _, dep := range pkg.SoftDepend {
		d := dep
		ref.Depends = append(ref.Depends, &pid.Dependency{Child: pid.MakeRef(d.Name, d.Version, d.Arch, "")})
	}
	for _, mod := range pkg.Modifies {
		m := mod
		ref.Modifies = append(ref.Modifies, pid.Modification{Ref: wireToRef(&m)})
	}
	return ref
}

// FileReader is a reference catalog.FileReader that reads a package's
// descriptor from a sidecar "<path>.meta.xml" file holding a single
// xmlfmt.Package element, standing in for parsing an RPM header directly.
type FileReader struct{}

// ReadFile implements pkg/catalog.FileReader.
func (FileReader) ReadFile(ctx context.Context, path string) (*pid.Ref, error) {
	data, err := os.ReadFile(path + ".meta.xml")
	if err != nil {
		return nil, errors.Wrapf(err, "reading local package metadata for %q", path)
	}

	var pkg xmlfmt.Package
	if err := xmlfmt.Unmarshal(data, &pkg); err != nil {
		return nil, errors.Wrapf(err, "parsing local package metadata for %q", path)
	}

	ref := wireToRef(&pkg)
	ref.Filename = path
	return ref, nil
}
