// Package proto defines the Organizer gRPC service of FileHaven.
//
// The service descriptor and client are written by hand in the shape
// protoc-gen-go-grpc produces; messages are plain structs carried by the JSON
// codec registered in codec.go.
package proto

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "filehaven.Organizer"

// OrganizerServer is the server-side interface of the Organizer service.
type OrganizerServer interface {
	IngestFiles(context.Context, *IngestFilesRequest) (*IngestFilesResponse, error)
	ListFiles(context.Context, *ListFilesRequest) (*ListFilesResponse, error)
	GetFile(context.Context, *GetFileRequest) (*GetFileResponse, error)
	DeleteFile(context.Context, *DeleteFileRequest) (*DeleteFileResponse, error)
	ListCategories(context.Context, *ListCategoriesRequest) (*ListCategoriesResponse, error)
	AddCategory(context.Context, *AddCategoryRequest) (*AddCategoryResponse, error)
	GetTheme(context.Context, *GetThemeRequest) (*ThemeResponse, error)
	SetTheme(context.Context, *SetThemeRequest) (*ThemeResponse, error)
}

// OrganizerClient is the client-side interface of the Organizer service.
type OrganizerClient interface {
	IngestFiles(ctx context.Context, in *IngestFilesRequest, opts ...grpc.CallOption) (*IngestFilesResponse, error)
	ListFiles(ctx context.Context, in *ListFilesRequest, opts ...grpc.CallOption) (*ListFilesResponse, error)
	GetFile(ctx context.Context, in *GetFileRequest, opts ...grpc.CallOption) (*GetFileResponse, error)
	DeleteFile(ctx context.Context, in *DeleteFileRequest, opts ...grpc.CallOption) (*DeleteFileResponse, error)
	ListCategories(ctx context.Context, in *ListCategoriesRequest, opts ...grpc.CallOption) (*ListCategoriesResponse, error)
	AddCategory(ctx context.Context, in *AddCategoryRequest, opts ...grpc.CallOption) (*AddCategoryResponse, error)
	GetTheme(ctx context.Context, in *GetThemeRequest, opts ...grpc.CallOption) (*ThemeResponse, error)
	SetTheme(ctx context.Context, in *SetThemeRequest, opts ...grpc.CallOption) (*ThemeResponse, error)
}

// ---- server registration ----

// ServiceDesc is the grpc.ServiceDesc for the Organizer service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*OrganizerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IngestFiles", Handler: unaryHandler("IngestFiles", OrganizerServer.IngestFiles)},
		{MethodName: "ListFiles", Handler: unaryHandler("ListFiles", OrganizerServer.ListFiles)},
		{MethodName: "GetFile", Handler: unaryHandler("GetFile", OrganizerServer.GetFile)},
		{MethodName: "DeleteFile", Handler: unaryHandler("DeleteFile", OrganizerServer.DeleteFile)},
		{MethodName: "ListCategories", Handler: unaryHandler("ListCategories", OrganizerServer.ListCategories)},
		{MethodName: "AddCategory", Handler: unaryHandler("AddCategory", OrganizerServer.AddCategory)},
		{MethodName: "GetTheme", Handler: unaryHandler("GetTheme", OrganizerServer.GetTheme)},
		{MethodName: "SetTheme", Handler: unaryHandler("SetTheme", OrganizerServer.SetTheme)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proto/filehaven.proto",
}

// RegisterOrganizerServer registers the server implementation with a gRPC server.
func RegisterOrganizerServer(s grpc.ServiceRegistrar, srv OrganizerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to a grpc.MethodDesc handler,
// running the server's interceptor chain when one is installed.
func unaryHandler[Req, Resp any](method string, call func(OrganizerServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + serviceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrganizerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrganizerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ---- client implementation ----

type organizerClient struct {
	cc grpc.ClientConnInterface
}

// NewOrganizerClient creates an Organizer client. Calls are sent with the
// JSON content-subtype.
func NewOrganizerClient(cc grpc.ClientConnInterface) OrganizerClient {
	return &organizerClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *organizerClient) IngestFiles(ctx context.Context, in *IngestFilesRequest, opts ...grpc.CallOption) (*IngestFilesResponse, error) {
	return invoke[IngestFilesResponse](ctx, c.cc, "IngestFiles", in, opts)
}

func (c *organizerClient) ListFiles(ctx context.Context, in *ListFilesRequest, opts ...grpc.CallOption) (*ListFilesResponse, error) {
	return invoke[ListFilesResponse](ctx, c.cc, "ListFiles", in, opts)
}

func (c *organizerClient) GetFile(ctx context.Context, in *GetFileRequest, opts ...grpc.CallOption) (*GetFileResponse, error) {
	return invoke[GetFileResponse](ctx, c.cc, "GetFile", in, opts)
}

func (c *organizerClient) DeleteFile(ctx context.Context, in *DeleteFileRequest, opts ...grpc.CallOption) (*DeleteFileResponse, error) {
	return invoke[DeleteFileResponse](ctx, c.cc, "DeleteFile", in, opts)
}

func (c *organizerClient) ListCategories(ctx context.Context, in *ListCategoriesRequest, opts ...grpc.CallOption) (*ListCategoriesResponse, error) {
	return invoke[ListCategoriesResponse](ctx, c.cc, "ListCategories", in, opts)
}

func (c *organizerClient) AddCategory(ctx context.Context, in *AddCategoryRequest, opts ...grpc.CallOption) (*AddCategoryResponse, error) {
	return invoke[AddCategoryResponse](ctx, c.cc, "AddCategory", in, opts)
}

func (c *organizerClient) GetTheme(ctx context.Context, in *GetThemeRequest, opts ...grpc.CallOption) (*ThemeResponse, error) {
	return invoke[ThemeResponse](ctx, c.cc, "GetTheme", in, opts)
}

func (c *organizerClient) SetTheme(ctx context.Context, in *SetThemeRequest, opts ...grpc.CallOption) (*ThemeResponse, error) {
	return invoke[ThemeResponse](ctx, c.cc, "SetTheme", in, opts)
}
