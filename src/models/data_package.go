package models

import "time"

// MAttachment is one report attachment taken from a mailbox message.
type MAttachment struct {
	Filename      string
	Data          []byte
	EmailSubject  string
	EmailDate     time.Time
	ProcessedDate time.Time
}

type MSourceEmail struct {
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
}

type MProcessingInfo struct {
	ProcessedDate time.Time `json:"processed_date"`
	Filename      string    `json:"filename"`
}

// MDataPackage is the processed form of one attachment. It is written once and never mutated.
type MDataPackage struct {
	SourceEmail    MSourceEmail     `json:"source_email"`
	ProcessingInfo MProcessingInfo  `json:"processing_info"`
	TrafficData    MTrafficSummary  `json:"traffic_data"`
	RawData        []map[string]any `json:"raw_data"`
}
