package interfaces

import "context"

// -----------------------------------------------------------------------------
// IFileStore defines the contract of a version-controlled remote file store
// keyed by path.
// -----------------------------------------------------------------------------

type IFileStore interface {

	// -----------------------------------------------------------------------------

	// GetFileSHA returns the content descriptor of the file at path.
	// A genuinely absent file yields an error matching helpers.ErrFileNotFound.
	GetFileSHA(ctx context.Context, path string) (string, error)

	// -----------------------------------------------------------------------------

	// CreateFile commits a new file at path.
	CreateFile(ctx context.Context, path, message string, content []byte) error

	// -----------------------------------------------------------------------------

	// UpdateFile commits new content over the file whose current descriptor is sha.
	UpdateFile(ctx context.Context, path, message string, content []byte, sha string) error

	// -----------------------------------------------------------------------------

	// Owner returns the account that owns the repository (organization or authenticated user).
	Owner(ctx context.Context) (string, error)

	// -----------------------------------------------------------------------------

	// RepositoryName returns the bare repository name.
	RepositoryName() string
}
