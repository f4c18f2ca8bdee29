package storage

import "io"

// BlobStore keeps raw submission reports next to the graded records.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}

// ReportKey is where the raw text of a submission is archived.
func ReportKey(labID, submissionID string) string {
	return "labs/" + labID + "/submissions/" + submissionID + "/report.txt"
}
