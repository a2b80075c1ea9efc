package catalog

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eazel/eazel-install/pkg/pid"
)

// FileReader reads package metadata directly out of a local package file
// (e.g. an RPM header), bypassing the catalog. It is the Go-side contract
// for what eazel-install-rpm-glue.c's header-reading routines did.
type FileReader interface {
	// ReadFile parses the package at path and returns a fully-filled ref.
	// The returned ref's ID is derived from the file's own header.
	ReadFile(ctx context.Context, path string) (*pid.Ref, error)
}

// WithLocalFiles wraps client so that any ref carrying a Filename is read
// from disk via reader instead of being sent to the catalog.
func WithLocalFiles(client Client, reader FileReader) Client {
	return &localFileClient{client: client, reader: reader}
}

type localFileClient struct {
	client Client
	reader FileReader
}

func (c *localFileClient) GetInfo(ctx context.Context, ref *pid.Ref) (*pid.Ref, error) {
	if ref.Filename == "" {
		return c.client.GetInfo(ctx, ref)
	}

	filled, err := c.reader.ReadFile(ctx, ref.Filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading local package file %q", ref.Filename)
	}
	filled.Toplevel = ref.Toplevel
	filled.Filename = ref.Filename
	return filled, nil
}
