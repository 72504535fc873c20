package inbound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/usecase"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgerror"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgrouter"
)

//nolint:gochecknoglobals // read-only lookup
var acceptedExtensions = map[string]struct{}{
	".xlsx": {},
	".xlsm": {},
	".xltx": {},
	".xltm": {},
	".csv":  {},
}

type HTTPEndpoint struct {
	uc        uc
	uploadDir string
}

// Submit stores the uploaded workbook in a temporary file and queues a run.
func (h *HTTPEndpoint) Submit(ctx context.Context, r *http.Request) (any, error) {
	mode := entity.Mode(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mode"))))
	if mode == "" {
		mode = entity.ModeFull
	}
	if !mode.Valid() {
		return nil, pkgerror.NewInvalidInput(fmt.Errorf("mode must be %q or %q", entity.ModeFull, entity.ModeIncremental))
	}

	reader, filename, cleanup, err := extractUpload(r)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := acceptedExtensions[ext]; !ok {
		return nil, pkgerror.NewInvalidInput(fmt.Errorf("unsupported file type %q", ext))
	}

	path, size, err := spool(reader, h.uploadDir, filename)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerror.NewInvalidInput(errors.New("upload exceeds the size limit"))
		}
		return nil, pkgerror.NewServer(err)
	}
	cleanupUpload := func() { _ = os.RemoveAll(filepath.Dir(path)) }
	if size == 0 {
		cleanupUpload()
		return nil, pkgerror.NewInvalidInput(errors.New("uploaded file is empty"))
	}

	result, err := h.uc.Submit(ctx, usecase.SubmitRequest{
		Mode:    mode,
		Path:    path,
		Cleanup: cleanupUpload,
	})
	if err != nil {
		cleanupUpload()
		return nil, err
	}

	return SubmitResponse{RunID: result.RunID, Status: result.Status}, nil
}

func (h *HTTPEndpoint) Run(ctx context.Context, r *http.Request) (any, error) {
	runID := strings.TrimSpace(pkgrouter.GetParam(ctx, "id"))
	if runID == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("run id is required"))
	}

	result, err := h.uc.Run(ctx, runID)
	if err != nil {
		return nil, err
	}

	resp := RunResponse{
		RunID:     result.RunID,
		Mode:      result.Mode,
		Status:    result.Status,
		Error:     result.Err,
		StartedAt: result.StartedAt,
		EndedAt:   result.EndedAt,
	}
	if result.Result != nil {
		view := NewResultView(*result.Result)
		resp.Result = &view
	}
	return resp, nil
}

// extractUpload returns the workbook stream and its file name, from either a
// multipart "file" part or a raw body with ?filename=.
func extractUpload(r *http.Request) (io.Reader, string, func(), error) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil && strings.EqualFold(mediaType, "multipart/form-data") {
			return extractMultipartFile(r)
		}
	}

	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil, "", func() {}, pkgerror.NewInvalidInput(errors.New("empty request body"))
	}

	filename := strings.TrimSpace(r.URL.Query().Get("filename"))
	if filename == "" {
		return nil, "", func() {}, pkgerror.NewInvalidInput(errors.New("filename is required for raw uploads"))
	}

	return r.Body, filename, func() {}, nil
}

func extractMultipartFile(r *http.Request) (io.Reader, string, func(), error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, "", func() {}, pkgerror.NewInvalidFormat()
	}

	for {
		part, err := reader.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, "", func() {}, pkgerror.NewInvalidInput(errors.New("file part is required"))
			}
			return nil, "", func() {}, pkgerror.NewInvalidFormat()
		}

		if part.FormName() == "file" {
			return part, part.FileName(), func() { _ = part.Close() }, nil
		}
		_ = part.Close()
	}
}

// spool copies src into a fresh directory under dir, keeping the client's
// base file name: a CSV sheet is named after its file.
func spool(src io.Reader, dir, filename string) (string, int64, error) {
	tmp, err := os.MkdirTemp(dir, "upload-*")
	if err != nil {
		return "", 0, err
	}

	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	f, err := os.Create(filepath.Join(tmp, name))
	if err != nil {
		_ = os.RemoveAll(tmp)
		return "", 0, err
	}

	n, err := io.Copy(f, src)
	if err != nil {
		_ = f.Close()
		_ = os.RemoveAll(tmp)
		return "", 0, err
	}

	if err := f.Close(); err != nil {
		_ = os.RemoveAll(tmp)
		return "", 0, err
	}
	return f.Name(), n, nil
}
