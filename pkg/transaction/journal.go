package transaction

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/eazel/eazel-install/pkg/pid"
	"github.com/eazel/eazel-install/pkg/xmlfmt"
)

// Entry records one applied operation's pre-state, enough to invert it on
// revert.
type Entry struct {
	Ref             *pid.Ref
	ModStatus       pid.ModStatus
	PreviousVersion string // installed version before this operation, if any
}

// Journal is the in-memory form of a written transaction, built up by the
// executor as it applies each package and then serialized with WriteFile.
type Journal struct {
	Entries []Entry
}

// Add appends an entry to the journal.
func (j *Journal) Add(e Entry) {
	j.Entries = append(j.Entries, e)
}

// toWire converts the journal to the wire-format Transaction element.
func (j *Journal) toWire() *xmlfmt.Transaction {
	var tx xmlfmt.Transaction
	for _, e := range j.Entries {
		pkg := xmlfmt.Package{
			Name:      e.Ref.Name,
			Version:   e.Ref.Version,
			Arch:      e.Ref.Arch,
			ModStatus: xmlfmt.StatusCode(e.ModStatus.String()),
		}
		if e.PreviousVersion != "" {
			pkg.Modifies = []xmlfmt.Package{{Name: e.Ref.Name, Version: e.PreviousVersion}}
		}
		tx.Packages.Entries = append(tx.Packages.Entries, pkg)
	}
	return &tx
}

// WriteFile serializes j under dir as transaction-<timestamp>.xml. If a
// file of that name already exists, it is renamed to the first free
// numeric suffix (.1, .2, ...) before the new file is written, rather
// than being overwritten.
func WriteFile(dir string, timestamp int64, j *Journal) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating transaction directory %q", dir)
	}

	name := fmt.Sprintf("transaction-%d.xml", timestamp)
	target := filepath.Join(dir, name)

	if err := rotateExisting(target); err != nil {
		return "", err
	}

	body, err := xmlfmt.Marshal(j.toWire())
	if err != nil {
		return "", errors.Wrap(err, "marshaling journal")
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing journal %q", target)
	}
	return target, nil
}

// rotateExisting moves an existing file at target to the first free
// numeric suffix .1, .2, ...
func rotateExisting(target string) error {
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Wrapf(err, "checking for existing journal %q", target)
	}

	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%d", target, n)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			if err := os.Rename(target, candidate); err != nil {
				return errors.Wrapf(err, "rotating existing journal %q to %q", target, candidate)
			}
			return nil
		}
	}
}

// ReadFile loads a previously written journal back from disk.
func ReadFile(path string) (*Journal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading journal %q", path)
	}

	var tx xmlfmt.Transaction
	if err := xmlfmt.Unmarshal(data, &tx); err != nil {
		return nil, errors.Wrapf(err, "parsing journal %q", path)
	}

	j := &Journal{}
	for _, p := range tx.Packages.Entries {
		e := Entry{
			Ref: &pid.Ref{
				Name:    p.Name,
				Version: p.Version,
				Arch:    p.Arch,
			},
			ModStatus: modStatusFromWire(p.ModStatus),
		}
		if len(p.Modifies) > 0 {
			e.PreviousVersion = p.Modifies[0].Version
		}
		j.Add(e)
	}
	return j, nil
}

func modStatusFromWire(s xmlfmt.StatusCode) pid.ModStatus {
	switch s {
	case "UPGRADED":
		return pid.ModUpgraded
	case "DOWNGRADED":
		return pid.ModDowngraded
	case "UNCHANGED":
		return pid.ModUnchanged
	default:
		return pid.ModUnknown
	}
}
