package storage

import "time"

// ArchiveDoc is one sanitized newsletter ready to be written to disk.
type ArchiveDoc struct {
	messageID  string
	subject    string
	from       string
	receivedAt time.Time
	markdown   string
}

func NewArchiveDoc(
	messageID string,
	subject string,
	from string,
	receivedAt time.Time,
	markdown string,
) ArchiveDoc {
	return ArchiveDoc{
		messageID:  messageID,
		subject:    subject,
		from:       from,
		receivedAt: receivedAt,
		markdown:   markdown,
	}
}

func (d ArchiveDoc) MessageID() string {
	return d.messageID
}

func (d ArchiveDoc) Subject() string {
	return d.subject
}

func (d ArchiveDoc) From() string {
	return d.from
}

func (d ArchiveDoc) ReceivedAt() time.Time {
	return d.receivedAt
}

func (d ArchiveDoc) Markdown() string {
	return d.markdown
}

// Persistence

type WriteResult struct {
	idHash      string // identity (filename without extension)
	path        string
	contentHash string
}

func NewWriteResult(
	idHash string,
	path string,
	contentHash string,
) WriteResult {
	return WriteResult{
		idHash:      idHash,
		path:        path,
		contentHash: contentHash,
	}
}

func (w *WriteResult) IDHash() string {
	return w.idHash
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}
