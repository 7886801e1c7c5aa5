// Package grpcserver implements the FileHaven Organizer gRPC service.
package grpcserver

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mtiwari1/filehaven/internal/category"
	"github.com/mtiwari1/filehaven/internal/collection"
	"github.com/mtiwari1/filehaven/internal/ingest"
	"github.com/mtiwari1/filehaven/internal/organizer"
	"github.com/mtiwari1/filehaven/internal/prefs"
	"github.com/mtiwari1/filehaven/internal/source"
	pb "github.com/mtiwari1/filehaven/proto"
)

// Server implements pb.OrganizerServer on top of an Organizer.
// Dependencies are injected via the constructor, no global state.
type Server struct {
	org    *organizer.Organizer
	logger *slog.Logger
}

// NewServer creates the gRPC service implementation.
func NewServer(org *organizer.Organizer, logger *slog.Logger) *Server {
	return &Server{org: org, logger: logger}
}

// IngestFiles classifies and stores the uploaded files as one batch.
func (s *Server) IngestFiles(ctx context.Context, req *pb.IngestFilesRequest) (*pb.IngestFilesResponse, error) {
	s.logger.InfoContext(ctx, "grpc IngestFiles", slog.Int("files", len(req.Files)))

	files := make([]source.File, len(req.Files))
	for i, in := range req.Files {
		if in.Name == "" {
			return nil, status.Errorf(codes.InvalidArgument, "IngestFiles: file %d has no name", i)
		}
		files[i] = source.NewBytes(in.Name, in.ContentType, in.Data)
	}

	// A started batch runs to completion even if the caller goes away.
	records, err := s.org.Ingest(context.WithoutCancel(ctx), files)
	if err != nil {
		return nil, mapError(err, "IngestFiles")
	}
	return &pb.IngestFilesResponse{Files: FileMessages(records)}, nil
}

// ListFiles lists files in insertion order, optionally for one category.
// An id with no files, registered or not, yields an empty list.
func (s *Server) ListFiles(ctx context.Context, req *pb.ListFilesRequest) (*pb.ListFilesResponse, error) {
	s.logger.DebugContext(ctx, "grpc ListFiles", slog.String("category", req.CategoryId))

	files := FileMessages(s.org.Files(req.CategoryId))
	return &pb.ListFilesResponse{Files: files, Total: int32(len(files))}, nil
}

// GetFile returns one file.
func (s *Server) GetFile(ctx context.Context, req *pb.GetFileRequest) (*pb.GetFileResponse, error) {
	s.logger.DebugContext(ctx, "grpc GetFile", slog.String("file_id", req.Id))

	rec, ok := s.org.File(req.Id)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "GetFile: file %q not found", req.Id)
	}
	return &pb.GetFileResponse{File: FileMessage(rec)}, nil
}

// DeleteFile removes a file. Deleting an unknown id succeeds with
// Deleted=false.
func (s *Server) DeleteFile(ctx context.Context, req *pb.DeleteFileRequest) (*pb.DeleteFileResponse, error) {
	s.logger.InfoContext(ctx, "grpc DeleteFile", slog.String("file_id", req.Id))
	return &pb.DeleteFileResponse{Deleted: s.org.DeleteFile(ctx, req.Id)}, nil
}

// ListCategories returns the registry with per-category file counts.
func (s *Server) ListCategories(_ context.Context, _ *pb.ListCategoriesRequest) (*pb.ListCategoriesResponse, error) {
	summaries := s.org.Categories()
	out := make([]pb.Category, len(summaries))
	for i, c := range summaries {
		out[i] = categoryMessage(c)
	}
	return &pb.ListCategoriesResponse{Categories: out}, nil
}

// AddCategory registers a user-defined category.
func (s *Server) AddCategory(ctx context.Context, req *pb.AddCategoryRequest) (*pb.AddCategoryResponse, error) {
	s.logger.InfoContext(ctx, "grpc AddCategory",
		slog.String("name", req.Name),
		slog.String("extensions", req.Extensions),
	)

	c, err := s.org.AddCategory(ctx, req.Name, req.Icon, req.Extensions)
	if err != nil {
		return nil, mapError(err, "AddCategory")
	}
	return &pb.AddCategoryResponse{Category: categoryMessage(organizer.CategorySummary{
		Category: c,
		IconKind: c.IconKind().String(),
	})}, nil
}

func (s *Server) GetTheme(context.Context, *pb.GetThemeRequest) (*pb.ThemeResponse, error) {
	return &pb.ThemeResponse{Theme: string(s.org.Theme())}, nil
}

// SetTheme sets the theme, or flips it when Toggle is set.
func (s *Server) SetTheme(ctx context.Context, req *pb.SetThemeRequest) (*pb.ThemeResponse, error) {
	if req.Toggle {
		return &pb.ThemeResponse{Theme: string(s.org.ToggleTheme(ctx))}, nil
	}
	switch prefs.Theme(req.Theme) {
	case prefs.ThemeLight, prefs.ThemeDark:
	default:
		return nil, status.Errorf(codes.InvalidArgument, "SetTheme: unknown theme %q", req.Theme)
	}
	return &pb.ThemeResponse{Theme: string(s.org.SetTheme(ctx, prefs.Theme(req.Theme)))}, nil
}

// FileMessage converts a record to its wire form.
func FileMessage(rec collection.FileRecord) pb.File {
	return pb.File{
		Id:          rec.ID,
		Name:        rec.Source.Name(),
		Size:        rec.Source.Size(),
		ContentType: rec.Source.ContentType(),
		CategoryId:  rec.CategoryID,
		Preview:     rec.Preview,
		AddedAt:     rec.AddedAt,
	}
}

// FileMessages converts records, never returning nil.
func FileMessages(recs []collection.FileRecord) []pb.File {
	out := make([]pb.File, len(recs))
	for i, r := range recs {
		out[i] = FileMessage(r)
	}
	return out
}

func categoryMessage(c organizer.CategorySummary) pb.Category {
	exts := c.Extensions
	if exts == nil {
		exts = []string{}
	}
	return pb.Category{
		Id:         c.ID,
		Name:       c.Name,
		Icon:       c.Icon,
		IconKind:   c.IconKind,
		Extensions: exts,
		Count:      int32(c.Count),
	}
}

// mapError converts domain errors to gRPC status codes.
func mapError(err error, method string) error {
	var batch *ingest.BatchError
	switch {
	case errors.Is(err, category.ErrEmptyName):
		return status.Errorf(codes.InvalidArgument, "%s: %v", method, err)
	case errors.Is(err, category.ErrDuplicateID):
		return status.Errorf(codes.AlreadyExists, "%s: %v", method, err)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s: timeout", method)
	case errors.As(err, &batch):
		return status.Errorf(codes.Internal, "%s: batch of %d files failed", method, batch.Files)
	default:
		return status.Errorf(codes.Internal, "%s: %v", method, err)
	}
}

// envelopeOverhead covers field names, file names and JSON punctuation
// around the encoded payload.
const envelopeOverhead = 64 << 10

// RecvLimit is the gRPC receive limit that admits uploadBytes of file
// content. The JSON codec carries file data as base64, which grows it by 4/3.
func RecvLimit(uploadBytes int64) int {
	n := int64(base64.StdEncoding.EncodedLen(int(uploadBytes))) + envelopeOverhead
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// UnaryLogger logs every unary call with its status code and latency.
func UnaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "grpc call",
			slog.String("method", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}

var _ pb.OrganizerServer = (*Server)(nil)
