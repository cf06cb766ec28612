package storage

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"github.com/rohmanhakim/newsletter-triage/pkg/failure"
	"github.com/rohmanhakim/newsletter-triage/pkg/fileutil"
	"github.com/rohmanhakim/newsletter-triage/pkg/hashutil"
)

/*
Responsibilities
- Persist sanitized newsletter Markdown
- Ensure deterministic filenames

Output Characteristics
- One file per message id: <outputDir>/<hash12>.md
- Idempotent writes
- Overwrite-safe reruns
*/

type Sink interface {
	Write(
		outputDir string,
		doc ArchiveDoc,
		hashAlgo hashutil.HashAlgo,
	) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
) LocalSink {
	if metadataSink == nil {
		metadataSink = metadata.NoopSink{}
	}
	return LocalSink{
		metadataSink: metadataSink,
	}
}

func (s *LocalSink) Write(
	outputDir string,
	doc ArchiveDoc,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, storageError := write(outputDir, doc, hashAlgo)
	if storageError != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(storageError),
			storageError.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrMessageID, doc.MessageID()),
				metadata.NewAttr(metadata.AttrWritePath, storageError.Path),
			},
		)
		return WriteResult{}, storageError
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactMarkdown,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrMessageID, doc.MessageID()),
			metadata.NewAttr(metadata.AttrField, writeResult.ContentHash()),
		},
	)
	return writeResult, nil
}

func write(
	outputDir string,
	doc ArchiveDoc,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, *StorageError) {
	if strings.TrimSpace(doc.MessageID()) == "" {
		return WriteResult{}, &StorageError{
			Message: "cannot derive a filename",
			Cause:   ErrCauseMissingIdentity,
		}
	}

	idHashFull, err := hashutil.HashBytes([]byte(doc.MessageID()), hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message: err.Error(),
			Cause:   ErrCauseHashComputationFailed,
		}
	}
	idHash := idHashFull[:12]

	contentHash, err := hashutil.HashBytes([]byte(doc.Markdown()), hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message: err.Error(),
			Cause:   ErrCauseHashComputationFailed,
		}
	}

	if err := fileutil.EnsureDir(outputDir); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: errors.Is(err, syscall.ENOSPC),
			Cause:     ErrCausePathError,
			Path:      outputDir,
		}
	}

	fullPath := filepath.Join(outputDir, idHash+".md")
	if err := fileutil.WriteFileAtomic(fullPath, render(doc), 0o644); err != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      fullPath,
		}
	}

	return NewWriteResult(idHash, fullPath, contentHash), nil
}

// render prefixes the markdown with a frontmatter block. String values are
// double-quoted so subjects containing colons stay valid YAML.
func render(doc ArchiveDoc) []byte {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("subject: " + strconv.Quote(doc.Subject()) + "\n")
	b.WriteString("from: " + strconv.Quote(doc.From()) + "\n")
	if !doc.ReceivedAt().IsZero() {
		b.WriteString("received: " + doc.ReceivedAt().UTC().Format(time.RFC3339) + "\n")
	}
	b.WriteString("message_id: " + strconv.Quote(doc.MessageID()) + "\n")
	b.WriteString("---\n\n")
	b.WriteString(doc.Markdown())
	if !strings.HasSuffix(doc.Markdown(), "\n") {
		b.WriteString("\n")
	}
	return []byte(b.String())
}
