package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/securedocs/document-service/internal/application"
	"github.com/securedocs/document-service/internal/ports"
)

// Handler is the HTTP adapter entrypoint for document vault use-cases.
// Keeping only application and verifier dependencies here preserves clean
// adapter boundaries.
type Handler struct {
	service        *application.Service
	verifier       ports.TokenVerifier
	maxUploadBytes int64
}

// NewHandler constructs an HTTP handler bound to the application service.
// maxUploadBytes bounds request bodies before any parsing happens.
func NewHandler(service *application.Service, verifier ports.TokenVerifier, maxUploadBytes int64) *Handler {
	return &Handler{service: service, verifier: verifier, maxUploadBytes: maxUploadBytes}
}

// NewRouter registers the HTTP routes and middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/docs/v1", func(r chi.Router) {
		r.Use(handler.authMiddleware)

		r.Post("/documents", handler.uploadDocument)
		r.Get("/documents", handler.listMyDocuments)
		r.Get("/documents/search", handler.searchDocuments)
		r.Get("/documents/{document_id}", handler.getDocument)
		r.Get("/documents/{document_id}/view", handler.viewDocument)
		r.Get("/documents/{document_id}/download", handler.downloadDocument)
		r.Delete("/documents/{document_id}", handler.deleteDocument)

		r.Post("/documents/{document_id}/access-requests", handler.submitAccessRequest)
		r.Get("/access-requests", handler.listAccessRequests)
		r.Post("/access-requests/{request_id}/approve", handler.approveAccessRequest)
		r.Post("/access-requests/{request_id}/deny", handler.denyAccessRequest)
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}
