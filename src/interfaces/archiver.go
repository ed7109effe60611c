package interfaces

import "context"

// IArchiver mirrors local artifacts to long-term storage.
type IArchiver interface {
	ArchiveFile(ctx context.Context, localPath string) (string, error)
}
