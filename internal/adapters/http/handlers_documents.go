package http

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/securedocs/document-service/internal/application"
)

type uploadDocumentRequest struct {
	Title       string `json:"title"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Category    string `json:"category"`
	Department  string `json:"department"`
	Description string `json:"description"`
	AccessLevel string `json:"access_level"`
	Content     string `json:"content"`
}

// uploadDocument accepts either multipart/form-data with a "file" part or a
// JSON body carrying base64 content. Browser clients use multipart; service
// clients tend to post JSON.
func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	const operation = "upload_document"
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		writeMissingActorError(ctx, w, operation)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)

	input, err := h.decodeUpload(r)
	if err != nil {
		writeValidationError(ctx, w, operation, err)
		return
	}

	view, err := h.service.UploadDocument(ctx, actor, input)
	if err != nil {
		writeMappedError(ctx, w, operation, err)
		return
	}
	writeSuccess(w, http.StatusCreated, view)
}

func (h *Handler) decodeUpload(r *http.Request) (application.UploadDocumentInput, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return application.UploadDocumentInput{}, errors.New("missing or invalid content type")
	}

	if mediaType == "multipart/form-data" {
		return h.decodeMultipartUpload(r)
	}

	var req uploadDocumentRequest
	if err := decodeBody(r, &req); err != nil {
		return application.UploadDocumentInput{}, err
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		return application.UploadDocumentInput{}, errors.New("content must be base64 encoded")
	}
	return application.UploadDocumentInput{
		Title:       req.Title,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Category:    req.Category,
		Department:  req.Department,
		Description: req.Description,
		AccessLevel: req.AccessLevel,
		Content:     content,
	}, nil
}

func (h *Handler) decodeMultipartUpload(r *http.Request) (application.UploadDocumentInput, error) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return application.UploadDocumentInput{}, fmt.Errorf("invalid multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return application.UploadDocumentInput{}, errors.New("missing file part")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return application.UploadDocumentInput{}, fmt.Errorf("read file part: %w", err)
	}

	return application.UploadDocumentInput{
		Title:       r.FormValue("title"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Category:    r.FormValue("category"),
		Department:  r.FormValue("department"),
		Description: r.FormValue("description"),
		AccessLevel: r.FormValue("access_level"),
		Content:     content,
	}, nil
}

func (h *Handler) listMyDocuments(w http.ResponseWriter, r *http.Request) {
	const operation = "list_my_documents"
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		writeMissingActorError(ctx, w, operation)
		return
	}

	views, err := h.service.ListMyDocuments(ctx, actor, listInputFromQuery(r))
	if err != nil {
		writeMappedError(ctx, w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"documents": views})
}

func (h *Handler) searchDocuments(w http.ResponseWriter, r *http.Request) {
	const operation = "search_documents"
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		writeMissingActorError(ctx, w, operation)
		return
	}

	views, err := h.service.SearchDocuments(ctx, actor, listInputFromQuery(r))
	if err != nil {
		writeMappedError(ctx, w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"documents": views})
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	const operation = "get_document"
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		writeMissingActorError(ctx, w, operation)
		return
	}
	documentID, err := pathUUID(r, "document_id")
	if err != nil {
		writeValidationError(ctx, w, operation, err)
		return
	}

	view, err := h.service.GetDocument(ctx, actor, documentID)
	if err != nil {
		writeMappedError(ctx, w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) viewDocument(w http.ResponseWriter, r *http.Request) {
	h.serveContent(w, r, "view_document", false)
}

func (h *Handler) downloadDocument(w http.ResponseWriter, r *http.Request) {
	h.serveContent(w, r, "download_document", true)
}

// serveContent streams decrypted bytes. View serves inline and counts the
// read; download sets an attachment disposition and does not.
func (h *Handler) serveContent(w http.ResponseWriter, r *http.Request, operation string, attachment bool) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		writeMissingActorError(ctx, w, operation)
		return
	}
	documentID, err := pathUUID(r, "document_id")
	if err != nil {
		writeValidationError(ctx, w, operation, err)
		return
	}

	var content application.DocumentContent
	if attachment {
		content, err = h.service.DownloadDocument(ctx, actor, documentID)
	} else {
		content, err = h.service.ViewDocument(ctx, actor, documentID)
	}
	if err != nil {
		writeMappedError(ctx, w, operation, err)
		return
	}

	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", content.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{
		"filename": content.FileName,
	}))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content.Plaintext)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content.Plaintext)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	const operation = "delete_document"
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		writeMissingActorError(ctx, w, operation)
		return
	}
	documentID, err := pathUUID(r, "document_id")
	if err != nil {
		writeValidationError(ctx, w, operation, err)
		return
	}

	if err := h.service.DeleteDocument(ctx, actor, documentID); err != nil {
		writeMappedError(ctx, w, operation, err)
		return
	}
	writeMessage(w, http.StatusOK, "document deleted")
}

func listInputFromQuery(r *http.Request) application.ListDocumentsInput {
	q := r.URL.Query()
	return application.ListDocumentsInput{
		Query:       strings.TrimSpace(q.Get("q")),
		Category:    strings.TrimSpace(q.Get("category")),
		AccessLevel: strings.TrimSpace(q.Get("access_level")),
		Limit:       parseIntDefault(q.Get("limit"), 0),
		Offset:      parseIntDefault(q.Get("offset"), 0),
	}
}
