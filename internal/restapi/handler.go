// Package restapi implements the REST gateway of FileHaven.
package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mtiwari1/filehaven/internal/grpcserver"
	"github.com/mtiwari1/filehaven/internal/ingest"
	"github.com/mtiwari1/filehaven/internal/metrics"
	"github.com/mtiwari1/filehaven/internal/notify"
	"github.com/mtiwari1/filehaven/internal/organizer"
	"github.com/mtiwari1/filehaven/internal/preview"
	"github.com/mtiwari1/filehaven/internal/source"
	pb "github.com/mtiwari1/filehaven/proto"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the upload endpoint.
type Options struct {
	MaxUploadBytes int64
	UploadRate     float64
	UploadBurst    int
}

// Handler holds dependencies for REST endpoints. Reads and category/theme
// changes go through the gRPC implementation so both surfaces share one
// error mapping; uploads are streamed to the spooler and ingested directly.
type Handler struct {
	grpc     pb.OrganizerServer
	org      *organizer.Organizer
	spooler  *source.Spooler
	feed     *notify.Feed
	prefs    Pinger
	limiter  *rate.Limiter
	maxBytes int64
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the REST handler. prefs may be nil when preferences
// are kept in memory.
func NewHandler(
	grpcSrv pb.OrganizerServer,
	org *organizer.Organizer,
	spooler *source.Spooler,
	feed *notify.Feed,
	prefs Pinger,
	opts Options,
	logger *slog.Logger,
) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.UploadRate <= 0 {
		opts.UploadRate = float64(rate.Inf)
	}
	if opts.UploadBurst < 1 {
		opts.UploadBurst = 1
	}
	return &Handler{
		grpc:     grpcSrv,
		org:      org,
		spooler:  spooler,
		feed:     feed,
		prefs:    prefs,
		limiter:  rate.NewLimiter(rate.Limit(opts.UploadRate), opts.UploadBurst),
		maxBytes: opts.MaxUploadBytes,
		validate: validator.New(),
		logger:   logger,
	}
}

// Routes builds the chi router with all REST routes.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Route("/files", func(r chi.Router) {
		r.With(h.rateLimit).Post("/", h.uploadFiles)
		r.Get("/", h.listFiles)
		r.Get("/{id}", h.getFile)
		r.Get("/{id}/content", h.fileContent)
		r.Delete("/{id}", h.deleteFile)
	})
	r.Get("/counts", h.counts)
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.addCategory)
	r.Get("/theme", h.getTheme)
	r.Put("/theme", h.putTheme)
	r.Post("/theme/toggle", h.toggleTheme)
	r.Get("/notifications", h.notifications)
	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// fileView is the REST form of a file: the wire record plus display labels.
type fileView struct {
	pb.File
	SizeLabel   string `json:"sizeLabel"`
	TypeLabel   string `json:"typeLabel"`
	PreviewKind string `json:"previewKind"`
}

func viewOf(f pb.File) fileView {
	return fileView{
		File:        f,
		SizeLabel:   preview.HumanSize(f.Size),
		TypeLabel:   preview.Label(f.ContentType),
		PreviewKind: string(preview.KindFor(f.ContentType)),
	}
}

func viewsOf(files []pb.File) []fileView {
	out := make([]fileView, len(files))
	for i, f := range files {
		out[i] = viewOf(f)
	}
	return out
}

// ---------- POST /files ----------

func (h *Handler) uploadFiles(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), h.logger)
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_multipart", "expected a multipart/form-data body")
		return
	}

	var files []source.File
	release := func() {
		for _, f := range files {
			_ = f.Release()
		}
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			release()
			h.uploadError(w, logger, err)
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			part.Close()
			continue
		}

		declared := part.Header.Get("Content-Type")
		if declared == "application/octet-stream" {
			declared = ""
		}
		f, err := h.spooler.Spool(part, part.FileName(), declared)
		part.Close()
		if err != nil {
			release()
			h.uploadError(w, logger, err)
			return
		}
		files = append(files, f)
	}

	if len(files) == 0 {
		writeJSON(w, http.StatusOK, []fileView{})
		return
	}

	logger.Info("upload spooled", slog.Int("files", len(files)))

	// The batch is not cancelled when the client disconnects.
	records, err := h.org.Ingest(context.WithoutCancel(r.Context()), files)
	if err != nil {
		var batch *ingest.BatchError
		if errors.As(err, &batch) {
			writeError(w, http.StatusInternalServerError, "batch_failed", "There was an error processing your files.")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, viewsOf(grpcserver.FileMessages(records)))
}

func (h *Handler) uploadError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large",
			"upload exceeds "+preview.HumanSize(tooLarge.Limit))
		return
	}
	logger.Error("spool upload", slog.String("error", err.Error()))
	writeError(w, http.StatusBadRequest, "invalid_upload", "failed to read upload")
}

// ---------- GET /files ----------

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	resp, err := h.grpc.ListFiles(r.Context(), &pb.ListFilesRequest{CategoryId: r.URL.Query().Get("category")})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(resp.Files))
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	resp, err := h.grpc.GetFile(r.Context(), &pb.GetFileRequest{Id: chi.URLParam(r, "id")})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(resp.File))
}

// fileContent streams the raw bytes. Previewable kinds are served inline,
// everything else as a download. The reader is closed when the response
// ends.
func (h *Handler) fileContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := h.org.File(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "file not found")
		return
	}

	rc, err := rec.Source.Open()
	if err != nil {
		if errors.Is(err, source.ErrReleased) {
			writeError(w, http.StatusNotFound, "not_found", "file not found")
			return
		}
		loggerFrom(r.Context(), h.logger).Error("open content",
			slog.String("file_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	defer rc.Close()

	ct := rec.Source.ContentType()
	disposition := "attachment"
	if preview.KindFor(ct).Inline() {
		disposition = "inline"
	}

	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.FormatInt(rec.Source.Size(), 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": rec.Source.Name()}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	// Uploaded markup such as SVG must not run script on this origin.
	w.Header().Set("Content-Security-Policy", "sandbox")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		loggerFrom(r.Context(), h.logger).Warn("stream content", slog.String("error", err.Error()))
	}
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	if _, err := h.grpc.DeleteFile(r.Context(), &pb.DeleteFileRequest{Id: chi.URLParam(r, "id")}); err != nil {
		writeGRPCError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) counts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.org.Counts())
}

// ---------- categories ----------

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	resp, err := h.grpc.ListCategories(r.Context(), &pb.ListCategoriesRequest{})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Categories)
}

type addCategoryRequest struct {
	// Name is checked by the organizer so empty names raise a notification.
	Name       string `json:"name" validate:"max=64"`
	Icon       string `json:"icon" validate:"omitempty,max=32"`
	Extensions string `json:"extensions" validate:"max=1024"`
}

func (h *Handler) addCategory(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.grpc.AddCategory(r.Context(), &pb.AddCategoryRequest{
		Name:       req.Name,
		Icon:       req.Icon,
		Extensions: req.Extensions,
	})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	w.Header().Set("Location", "/categories")
	writeJSON(w, http.StatusCreated, resp.Category)
}

// ---------- theme ----------

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

func (h *Handler) getTheme(w http.ResponseWriter, r *http.Request) {
	resp, err := h.grpc.GetTheme(r.Context(), &pb.GetThemeRequest{})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) putTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.grpc.SetTheme(r.Context(), &pb.SetThemeRequest{Theme: req.Theme})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	resp, err := h.grpc.SetTheme(r.Context(), &pb.SetThemeRequest{Toggle: true})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) notifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.feed.Recent())
}

// ---------- GET /healthz ----------

// healthz verifies the preference store and the spool directory.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	result := map[string]string{"status": "ok"}
	httpStatus := http.StatusOK

	switch {
	case h.prefs == nil:
		result["prefs"] = "memory"
	case h.prefs.Ping(ctx) != nil:
		result["status"] = "degraded"
		result["prefs"] = "unreachable"
		httpStatus = http.StatusServiceUnavailable
	default:
		result["prefs"] = "connected"
	}

	if _, err := os.Stat(h.spooler.Dir()); err != nil {
		result["status"] = "degraded"
		result["disk"] = "spool dir inaccessible: " + err.Error()
		httpStatus = http.StatusServiceUnavailable
	} else {
		result["disk"] = "ok"
	}

	writeJSON(w, httpStatus, result)
}

// decode reads a JSON body into dst and validates it, writing a 400 on
// failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return false
	}
	return true
}

// ---------- responses ----------

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, httpStatus int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, httpStatus int, code, message string) {
	writeJSON(w, httpStatus, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeGRPCError(w http.ResponseWriter, err error) {
	st, _ := status.FromError(err)
	writeError(w, grpcToHTTPStatus(err), codeName(st.Code()), st.Message())
}

func codeName(c codes.Code) string {
	switch c {
	case codes.NotFound:
		return "not_found"
	case codes.AlreadyExists:
		return "already_exists"
	case codes.InvalidArgument:
		return "invalid_argument"
	case codes.DeadlineExceeded:
		return "timeout"
	default:
		return "internal"
	}
}

// grpcToHTTPStatus maps gRPC status codes to HTTP status codes.
func grpcToHTTPStatus(err error) int {
	st, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch st.Code() {
	case codes.OK:
		return http.StatusOK
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
