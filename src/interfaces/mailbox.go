package interfaces

import (
	"context"

	"traffic-publisher/src/models"
)

// -----------------------------------------------------------------------------
// IMailbox defines the contract of the mail source that delivers report
// attachments.
// -----------------------------------------------------------------------------

type IMailbox interface {

	// -----------------------------------------------------------------------------

	// Connect opens an authenticated session. The caller must Close it.
	Connect(ctx context.Context) (IMailboxSession, error)

	// -----------------------------------------------------------------------------

	// ExtractAttachments returns the attachments of msg in message order.
	ExtractAttachments(msg models.MMessage) ([]models.MAttachment, error)
}

// IMailboxSession is one open mailbox connection.
type IMailboxSession interface {
	Search(ctx context.Context, criteria models.MSearchCriteria) ([]models.MMessage, error)
	Close() error
}
