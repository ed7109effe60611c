package models

import "time"

// MSearchCriteria selects candidate report messages.
type MSearchCriteria struct {
	Sender  string
	Subject string
	Since   time.Time // zero means no lower bound
}

// MMessage is a fetched mailbox message with its full RFC 5322 body.
type MMessage struct {
	UID     uint32
	Subject string
	Date    time.Time
	Raw     []byte
}
