package models

import "time"

// IngestFile records one physically imported scan file. The
// fingerprint (content hash combined with the capture timestamp from
// the filename) is unique forever: re-submitting the same file is a
// no-op, never a second snapshot.
type IngestFile struct {
	ID          int64
	Kingdom     int
	ScanType    ScanType
	SourceFile  string
	Fingerprint string
	SnapshotID  string // uuid grouping the snapshot rows of this file
	RecordCount int
	ImportedAt  time.Time
}

// GovernorRow is one parsed CSV row from a kingdom scan.
type GovernorRow struct {
	GovernorID    int64
	GovernorName  string
	AllianceName  string
	Power         int64
	KillPoints    int64
	T1Kills       int64
	T2Kills       int64
	T3Kills       int64
	T4Kills       int64
	T5Kills       int64
	Dead          int64
	RssGathered   int64
	RssAssistance int64
	Helps         int64
}

// FileOutcome classifies one file within an import batch.
type FileOutcome string

const (
	FileOK      FileOutcome = "ok"
	FileSkipped FileOutcome = "skipped"
	FileError   FileOutcome = "error"
)

// FileResult is the per-file detail of an import batch.
type FileResult struct {
	File     string      `json:"file"`
	Outcome  FileOutcome `json:"outcome"`
	Imported int         `json:"imported,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// ImportResult aggregates an import batch. A failure on one file
// never aborts the rest of the batch.
type ImportResult struct {
	NewImports int          `json:"new_imports"`
	Skipped    int          `json:"skipped"`
	Errors     int          `json:"errors"`
	PerFile    []FileResult `json:"per_file"`
}
