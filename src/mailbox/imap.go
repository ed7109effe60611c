package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"traffic-publisher/src/helpers"
	"traffic-publisher/src/interfaces"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

const defaultTimeout = 60 * time.Second

// IMAPMailbox reads report messages from an IMAP server over TLS.
type IMAPMailbox struct {
	Addr     string
	Username string
	Password string
	Folder   string
	Timeout  time.Duration
	Logger   *logger.Logger
	Now      func() time.Time

	// TLSConfig overrides the default verification, tests only.
	TLSConfig *tls.Config
}

// -----------------------------------------------------------------------------

func NewIMAPMailbox(cfg models.MMailboxConfig, password string, log *logger.Logger) (*IMAPMailbox, error) {
	if cfg.Host == "" || cfg.Username == "" {
		return nil, helpers.NewConfigurationError("mailbox host and username are required", nil)
	}
	if password == "" {
		return nil, helpers.NewConfigurationError("EMAIL_PASSWORD environment variable is required", nil)
	}

	folder := cfg.Folder
	if folder == "" {
		folder = "INBOX"
	}

	return &IMAPMailbox{
		Addr:     net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		Username: cfg.Username,
		Password: password,
		Folder:   folder,
		Timeout:  defaultTimeout,
		Logger:   log.Named("Mailbox"),
		Now:      time.Now,
	}, nil
}

// -----------------------------------------------------------------------------

// Connect dials, authenticates and selects the configured folder read-only.
func (m *IMAPMailbox) Connect(ctx context.Context) (interfaces.IMailboxSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: m.Timeout}
	c, err := client.DialWithDialerTLS(dialer, m.Addr, m.TLSConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", m.Addr, err)
	}
	c.Timeout = m.Timeout

	if err := c.Login(m.Username, m.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("login as %s: %w", m.Username, err)
	}

	if _, err := c.Select(m.Folder, true); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("select %s: %w", m.Folder, err)
	}

	m.Logger.Info("Connected to %s (%s)", m.Addr, m.Folder)
	return &imapSession{client: c, logger: m.Logger}, nil
}

// -----------------------------------------------------------------------------

// ExtractAttachments parses msg and stamps every attachment with the current time.
func (m *IMAPMailbox) ExtractAttachments(msg models.MMessage) ([]models.MAttachment, error) {
	return ParseMessage(msg.Raw, m.Now())
}

// -----------------------------------------------------------------------------
// Session
// -----------------------------------------------------------------------------

type imapSession struct {
	client *client.Client
	logger *logger.Logger
}

// BuildCriteria maps the search filter onto IMAP SEARCH keys.
func BuildCriteria(criteria models.MSearchCriteria) *imap.SearchCriteria {
	sc := imap.NewSearchCriteria()
	if criteria.Sender != "" {
		sc.Header.Add("From", criteria.Sender)
	}
	if criteria.Subject != "" {
		sc.Header.Add("Subject", criteria.Subject)
	}
	if !criteria.Since.IsZero() {
		sc.Since = criteria.Since
	}
	return sc
}

// Search returns matching messages with full bodies, oldest first.
func (s *imapSession) Search(ctx context.Context, criteria models.MSearchCriteria) ([]models.MMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uids, err := s.client.UidSearch(BuildCriteria(criteria))
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, section.FetchItem()}

	ch := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqset, items, ch)
	}()

	messages := make([]models.MMessage, 0, len(uids))
	for msg := range ch {
		body := msg.GetBody(section)
		if body == nil {
			s.logger.Warning("Message %d has no body, skipping", msg.Uid)
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			s.logger.Warning("Failed to read message %d: %v", msg.Uid, err)
			continue
		}

		out := models.MMessage{UID: msg.Uid, Raw: raw}
		if msg.Envelope != nil {
			out.Subject = msg.Envelope.Subject
			out.Date = msg.Envelope.Date
		}
		messages = append(messages, out)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	s.logger.Info("Found %d matching messages", len(messages))
	return messages, nil
}

// Close logs out and releases the connection.
func (s *imapSession) Close() error {
	return s.client.Logout()
}
