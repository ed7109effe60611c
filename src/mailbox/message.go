package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"traffic-publisher/src/models"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// ParseMessage returns every named attachment of an RFC 5322 message in part
// order. Inline parts and attachments without a filename are ignored.
func ParseMessage(raw []byte, processedAt time.Time) ([]models.MAttachment, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	defer mr.Close()

	subject, _ := mr.Header.Subject()
	date, _ := mr.Header.Date()

	var attachments []models.MAttachment
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			return nil, fmt.Errorf("read message part: %w", err)
		}

		h, ok := p.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, _ := h.Filename()
		if filename == "" {
			continue
		}

		data, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", filename, err)
		}

		attachments = append(attachments, models.MAttachment{
			Filename:      filename,
			Data:          data,
			EmailSubject:  subject,
			EmailDate:     date,
			ProcessedDate: processedAt,
		})
	}

	return attachments, nil
}
