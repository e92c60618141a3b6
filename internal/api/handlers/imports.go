package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dvloznov/spendwise/internal/api/middleware"
	"github.com/dvloznov/spendwise/internal/archive"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/importer"
	"github.com/dvloznov/spendwise/internal/jobs"
	"github.com/rs/zerolog"
)

// DefaultMaxUploadBytes caps statement uploads when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// multipartOverhead allows for the multipart envelope around the file.
const multipartOverhead = 64 << 10

// ImportHandler handles statement uploads.
type ImportHandler struct {
	importer  *importer.Importer
	archive   archive.Archive
	publisher jobs.Publisher
	maxBytes  int64
	log       zerolog.Logger
}

// NewImportHandler creates a new import handler. archive and publisher may
// be nil, in which case every import runs synchronously.
func NewImportHandler(im *importer.Importer, arch archive.Archive, publisher jobs.Publisher, maxBytes int64, log zerolog.Logger) *ImportHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &ImportHandler{importer: im, archive: arch, publisher: publisher, maxBytes: maxBytes, log: log}
}

// Import handles POST /api/transactions/import. The statement comes in the
// multipart field "file". With ?async=true and an archive configured the file
// is archived and a job is returned with 202. ?dryRun=true parses without
// storing.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			middleware.WriteDomainError(w, h.log, err)
			return
		}
		middleware.WriteDomainError(w, h.log, fmt.Errorf("%w: expected multipart form with a file field", domain.ErrInvalidInput))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteDomainError(w, h.log, fmt.Errorf("%w: file is required", domain.ErrInvalidInput))
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		middleware.WriteDomainError(w, h.log, &http.MaxBytesError{Limit: h.maxBytes})
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteDomainError(w, h.log, fmt.Errorf("read upload: %w", err))
		return
	}

	filename := filepath.Base(header.Filename)
	mimeType := importer.ResolveMimeType(filename, header.Header.Get("Content-Type"))
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dryRun"))
	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))

	if async && !dryRun && h.archive != nil && h.publisher != nil {
		h.enqueue(w, r, filename, mimeType, data)
		return
	}

	res, err := h.importer.Import(ctx, importer.Request{
		UserID:   userID(r),
		Filename: filename,
		MimeType: mimeType,
		Data:     data,
		DryRun:   dryRun,
	})
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}

	status, message := http.StatusCreated, fmt.Sprintf("Imported %d transactions", res.Imported)
	if dryRun {
		status, message = http.StatusOK, fmt.Sprintf("Parsed %d transactions", res.Parsed)
	}
	middleware.WriteSuccess(w, status, res, message)
}

func (h *ImportHandler) enqueue(w http.ResponseWriter, r *http.Request, filename, mimeType string, data []byte) {
	ctx := r.Context()

	uri, err := h.archive.Put(ctx, filename, mimeType, data)
	if err != nil {
		middleware.WriteDomainError(w, h.log, fmt.Errorf("archive upload: %w", err))
		return
	}

	job := &jobs.ImportStatementJob{
		UserID:     userID(r),
		ArchiveURI: uri,
		Filename:   filename,
		MimeType:   mimeType,
	}
	if err := h.publisher.PublishImportStatement(ctx, job); err != nil {
		middleware.WriteDomainError(w, h.log, fmt.Errorf("enqueue import: %w", err))
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("archive_uri", uri).Msg("Import job enqueued")
	middleware.WriteSuccess(w, http.StatusAccepted, job, "Import queued")
}
