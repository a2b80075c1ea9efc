package transaction

import (
	"context"

	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

// Revert reads the journal at path and feeds its inverse operations back
// through e as a normal transaction.
//
// An entry with no PreviousVersion was a fresh install, so its inverse is
// an uninstall; an entry that replaced an older version is inverted by
// reinstalling that older version.
func (e *Executor) Revert(ctx context.Context, path string, timestamp int64) (*InstallResult, error) {
	j, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	var toUninstall []*pid.Ref
	var toReinstall []*pid.Ref

	for _, entry := range j.Entries {
		if entry.PreviousVersion == "" {
			toUninstall = append(toUninstall, entry.Ref)
			continue
		}
		prior := *entry.Ref
		prior.Version = entry.PreviousVersion
		toReinstall = append(toReinstall, &prior)
	}

	if len(toUninstall) > 0 {
		if _, err := e.Uninstall(ctx, toUninstall, []lps.UninstallFlag{lps.UninstallForce}, timestamp); err != nil {
			return nil, err
		}
	}
	if len(toReinstall) > 0 {
		return e.Install(ctx, toReinstall, nil, []lps.InstallFlag{lps.InstallDowngrade, lps.InstallForce}, timestamp)
	}
	return &InstallResult{}, nil
}
