package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/obotesoftech/prisonreturns/internal/catalog"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/services"
	"github.com/obotesoftech/prisonreturns/types"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadBytes     = 25 << 20
	maxJSONBytes       = 1 << 20

	formFieldFile       = "file"
	formFieldFrequency  = "frequency"
	formFieldReturnType = "returnType"
	formFieldStation    = "station"
	formFieldData       = "data"
	formFieldComment    = "comment"

	submittedMessage = "Return submitted successfully"
)

// ReturnHandler provides HTTP handlers for returns.
type ReturnHandler struct {
	returns *services.ReturnService
	log     logging.Logger
}

// NewReturnHandler constructs a handler with the provided service.
func NewReturnHandler(returns *services.ReturnService, log logging.Logger) *ReturnHandler {
	return &ReturnHandler{returns: returns, log: log}
}

// ReturnRouter registers return routes on the given router.
func ReturnRouter(r chi.Router, returns *services.ReturnService, log logging.Logger, authMiddleware func(http.Handler) http.Handler) {
	handler := NewReturnHandler(returns, log)

	r.Get("/catalog", handler.Catalog)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", handler.ListReturns)
		r.Post("/", handler.SubmitReturn)
		r.Get("/export.csv", handler.ExportCSV)
		r.Get("/export.xlsx", handler.ExportXLSX)
		r.Route("/{returnID}", func(r chi.Router) {
			r.Get("/", handler.GetReturn)
			r.Get("/file", handler.DownloadFile)
		})
	})
}

func (h *ReturnHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.All())
}

func (h *ReturnHandler) ListReturns(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	query := r.URL.Query()
	records, err := h.returns.Query(r.Context(), session, strings.TrimSpace(query.Get("q")), strings.TrimSpace(query.Get("sort")))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to list returns")
		return
	}

	writeJSON(w, http.StatusOK, ReturnListResponse{Items: records, Total: len(records)})
}

func (h *ReturnHandler) GetReturn(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseReturnID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.returns.Get(r.Context(), session, id)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to fetch return")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *ReturnHandler) SubmitReturn(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	in, err := parseSubmission(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.returns.Submit(r.Context(), session, in)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to submit return")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// SubmitCompat accepts a JSON submission on the legacy endpoint and replies
// with {success, message}.
func (h *ReturnHandler) SubmitCompat(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, CompatResponse{Message: "unauthorized"})
		return
	}

	in, err := parseSubmission(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, CompatResponse{Message: err.Error()})
		return
	}

	result, err := h.returns.Submit(r.Context(), session, in)
	if err != nil {
		status, message := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error(r.Context(), "failed to submit return", "path", r.URL.Path, "error", err)
			message = "failed to submit return"
		}
		writeJSON(w, status, CompatResponse{Message: message})
		return
	}

	writeJSON(w, http.StatusOK, CompatResponse{
		Success: true,
		Message: submittedMessage,
		Return:  &result.Return,
		Guard:   &result.Guard,
	})
}

func (h *ReturnHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", "text/csv; charset=utf-8", h.returns.ExportCSV)
}

func (h *ReturnHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", h.returns.ExportXLSX)
}

func (h *ReturnHandler) export(
	w http.ResponseWriter,
	r *http.Request,
	ext, contentType string,
	render func(context.Context, types.Session) ([]byte, error),
) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	content, err := render(r.Context(), session)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to export returns")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": h.returns.ExportFileName(ext),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *ReturnHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseReturnID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	meta, body, err := h.returns.OpenAttachment(r.Context(), session, id)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to fetch attachment")
		return
	}
	defer body.Close()

	contentType := meta.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": meta.Name}))
	if meta.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.SizeBytes, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warn(r.Context(), "attachment download interrupted", "id", id, "error", err)
	}
}

// ReturnListResponse is the list response payload.
type ReturnListResponse struct {
	Items []types.ReturnRecord `json:"items"`
	Total int                  `json:"total"`
}

// CompatResponse is the legacy submission reply.
type CompatResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Return  *types.ReturnRecord    `json:"return,omitempty"`
	Guard   *services.GuardVerdict `json:"guard,omitempty"`
}

// parseSubmission reads a JSON body or a multipart form with an optional
// file part.
func parseSubmission(r *http.Request) (services.SubmitInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var in services.SubmitInput
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return services.SubmitInput{}, errors.New("invalid multipart form")
		}
		in = services.SubmitInput{
			Frequency:  types.Frequency(strings.TrimSpace(r.FormValue(formFieldFrequency))),
			ReturnType: r.FormValue(formFieldReturnType),
			Station:    r.FormValue(formFieldStation),
			Data:       r.FormValue(formFieldData),
			Comment:    r.FormValue(formFieldComment),
		}

		files := r.MultipartForm.File[formFieldFile]
		if len(files) > 1 {
			return services.SubmitInput{}, errors.New("only one file is allowed")
		}
		if len(files) == 1 {
			header := files[0]
			file, err := header.Open()
			if err != nil {
				return services.SubmitInput{}, fmt.Errorf("failed to read file: %w", err)
			}
			data, err := readFileLimited(file, maxUploadBytes)
			_ = file.Close()
			if err != nil {
				return services.SubmitInput{}, err
			}
			in.File = &services.Upload{
				Name:     header.Filename,
				MimeType: header.Header.Get("Content-Type"),
				Size:     int64(len(data)),
				Content:  bytes.NewReader(data),
			}
		}
	} else {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes)).Decode(&in); err != nil {
			return services.SubmitInput{}, errors.New("invalid request")
		}
	}

	in.Scope = clientScope(r)
	return in, nil
}
