package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"stand-catalog-service/internal/importer"
	"stand-catalog-service/internal/store"
)

// GRPCHandler implements CatalogServiceServer.
type GRPCHandler struct {
	categoryStore store.CategoryStorer
	productStore  store.ProductStorer
	importer      Importer
	logger        *zap.Logger
}

var _ CatalogServiceServer = (*GRPCHandler)(nil)

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(cs store.CategoryStorer, ps store.ProductStorer, imp Importer, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{
		categoryStore: cs,
		productStore:  ps,
		importer:      imp,
		logger:        logger,
	}
}

// --- Helper: Error Mapping ---
func (s *GRPCHandler) statusFromError(err error, resource string, id any) error {
	switch {
	case errors.Is(err, store.ErrCategoryNotFound), errors.Is(err, store.ErrProductNotFound):
		return status.Errorf(codes.NotFound, "%s with ID %v not found", resource, id)
	case errors.Is(err, importer.ErrUnsupportedFormat), errors.Is(err, importer.ErrMalformedFile):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.Error("grpc store operation failed", zap.String("resource", resource), zap.Any("id", id), zap.Error(err))
		return status.Errorf(codes.Internal, "failed to process %s request", resource)
	}
}

// toStruct renders v through its JSON encoding so gRPC callers see the same
// field names as HTTP callers.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func filenameFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(FilenameMetadataKey); len(values) > 0 {
		return values[0]
	}
	return ""
}

// ImportSpreadsheet imports the uploaded bytes. The file name, which decides
// the format, is read from the x-filename metadata entry.
func (s *GRPCHandler) ImportSpreadsheet(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	filename := filenameFromMetadata(ctx)
	if filename == "" {
		return nil, status.Errorf(codes.InvalidArgument, "missing %q metadata", FilenameMetadataKey)
	}
	if len(req.GetValue()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "empty upload")
	}

	outcome, err := s.importer.Import(context.WithoutCancel(ctx), filename, bytes.NewReader(req.GetValue()))
	if err != nil {
		return nil, s.statusFromError(err, "import", filename)
	}
	s.logger.Info("catalog imported over gRPC",
		zap.String("filename", filename),
		zap.Int("total", outcome.Total),
		zap.Int("imported", outcome.Imported),
		zap.Int("errors", outcome.Errors),
		zap.Int("skipped", outcome.Skipped),
	)
	return toStruct(outcome)
}

func (s *GRPCHandler) GetCategory(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := req.GetValue()
	if id <= 0 {
		return nil, status.Error(codes.InvalidArgument, "category ID must be a positive integer")
	}
	category, err := s.categoryStore.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, s.statusFromError(err, "category", id)
	}
	out, err := toStruct(category)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding category %d: %v", id, err)
	}
	return out, nil
}

func (s *GRPCHandler) GetProduct(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := req.GetValue()
	if id <= 0 {
		return nil, status.Error(codes.InvalidArgument, "product ID must be a positive integer")
	}
	product, err := s.productStore.GetProductByID(ctx, id)
	if err != nil {
		return nil, s.statusFromError(err, "product", id)
	}
	out, err := toStruct(product)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding product %d: %v", id, err)
	}
	return out, nil
}

// UnaryLoggingInterceptor logs every unary call with its status code.
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("grpc panic recovered", zap.String("method", info.FullMethod), zap.Any("panic", rec))
				err = status.Error(codes.Internal, "internal error")
			}
			code := status.Code(err)
			fields := []zap.Field{
				zap.String("method", info.FullMethod),
				zap.String("code", code.String()),
				zap.Duration("latency", time.Since(start)),
			}
			switch code {
			case codes.OK:
				logger.Info("grpc call completed", fields...)
			case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
				logger.Error("grpc call completed", append(fields, zap.Error(err))...)
			default:
				logger.Warn("grpc call completed", append(fields, zap.Error(err))...)
			}
		}()
		return handler(ctx, req)
	}
}
