package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/quote-intake/pkg/quoteintake"
)

// MaxBodyBytes caps a submission body: six full-size photos plus form
// overhead. Multipart parsing stops at a seventh photo before this cap is
// reached, so too many photos is reported as such.
const MaxBodyBytes = quoteintake.MaxAttachments*quoteintake.MaxAttachmentSize + 1<<20

// MsgMethodNotAllowed is returned for non-POST submissions
const MsgMethodNotAllowed = "Method Not Allowed"

// Response is the JSON body of every submission response and every
// retrieval error
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Handler serves the submission and download endpoints
type Handler struct {
	service *quoteintake.Service
	logger  *slog.Logger
}

// NewHandler creates a handler for service. A nil logger uses slog.Default().
func NewHandler(service *quoteintake.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Routes returns the router for the contact and download endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.HandleFunc("/api/contact", h.Contact)
	r.HandleFunc(h.service.Signer().PathPrefix()+"*", h.Download)
	return r
}

// StatusFor maps an error kind to its HTTP status code
func StatusFor(kind quoteintake.Kind) int {
	switch kind {
	case quoteintake.KindInvalidPayload, quoteintake.KindValidationFailed:
		return http.StatusBadRequest
	case quoteintake.KindForbidden:
		return http.StatusForbidden
	case quoteintake.KindNotFound:
		return http.StatusNotFound
	case quoteintake.KindProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Contact accepts a quote request as multipart/form-data or JSON
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic handling submission", "panic", rec)
			submissionsTotal.WithLabelValues(quoteintake.KindServerError.String()).Inc()
			writeJSON(w, r, http.StatusInternalServerError, Response{Error: quoteintake.MsgServerError})
		}
	}()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, r, http.StatusMethodNotAllowed, Response{Error: MsgMethodNotAllowed})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := parseBody(r)
	if err != nil {
		h.logger.Warn("failed to parse submission", "error", err)
		submissionsTotal.WithLabelValues(quoteintake.KindInvalidPayload.String()).Inc()
		writeJSON(w, r, http.StatusBadRequest, Response{Error: quoteintake.MsgInvalidPayload})
		return
	}
	defer body.cleanup()

	receipt, err := h.service.Submit(r.Context(), &quoteintake.Submission{
		Fields:      body.fields(),
		Attachments: body.attachments(),
		Origin:      requestOrigin(r),
	})
	if err != nil {
		kind := quoteintake.KindOf(err)
		submissionsTotal.WithLabelValues(kind.String()).Inc()
		writeJSON(w, r, StatusFor(kind), Response{Error: quoteintake.MessageOf(err)})
		return
	}

	outcome := "delivered"
	if receipt.Discarded {
		outcome = "discarded"
	}
	submissionsTotal.WithLabelValues(outcome).Inc()
	writeJSON(w, r, http.StatusOK, Response{OK: true})
}

// Download streams an attachment to the holder of a valid signed link
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic handling download", "panic", rec)
			writeJSON(w, r, http.StatusInternalServerError, Response{Error: quoteintake.MsgServerError})
		}
	}()

	key := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(key); err == nil {
			key = unescaped
		}
	}

	query := r.URL.Query()
	obj, err := h.service.Retrieve(r.Context(), key, query.Get("exp"), query.Get("sig"))
	if err != nil {
		writeJSON(w, r, StatusFor(quoteintake.KindOf(err)), Response{Error: quoteintake.MessageOf(err)})
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	} else {
		// nil suppresses content sniffing
		w.Header()["Content-Type"] = nil
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=0")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil && !errors.Is(err, r.Context().Err()) {
		h.logger.Error("failed to stream object", "key", key, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// requestOrigin is scheme://host as the client addressed this server
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host
}
