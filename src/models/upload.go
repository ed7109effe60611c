package models

import "time"

// MUploadRecord describes one file published to the remote store.
type MUploadRecord struct {
	LocalPath  string    `json:"local_path"`
	RepoPath   string    `json:"repo_path"`
	RawURL     string    `json:"raw_url"`
	UploadTime time.Time `json:"upload_time"`
}

// MUploadSummary is the manifest describing everything published in a run.
type MUploadSummary struct {
	UploadSession time.Time       `json:"upload_session"`
	TotalFiles    int             `json:"total_files"`
	Files         []MUploadRecord `json:"files"`
	Repository    string          `json:"repository"`
}

// MFileMapping pairs a local file with its destination path. Slices of it keep batch order stable.
type MFileMapping struct {
	LocalPath string
	RepoPath  string
}

// PublishBranch is the branch every publish targets and every raw URL points at.
const PublishBranch = "main"
