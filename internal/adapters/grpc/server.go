package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/securedocs/document-service/internal/application"
	"github.com/securedocs/document-service/internal/domain"
)

// DocumentAccessService is the internal contract other services call to ask
// whether an actor may perform an operation on a document.
type DocumentAccessService interface {
	CheckAccess(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type DocumentAccessServer struct {
	service *application.Service
}

func NewDocumentAccessServer(service *application.Service) *DocumentAccessServer {
	return &DocumentAccessServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc DocumentAccessService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "securedocs.documents.v1.DocumentAccessService",
		HandlerType: (*DocumentAccessService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "CheckAccess",
				Handler:    checkAccessHandler(svc),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "contracts/proto/documents/v1/document_access.proto",
	}, svc)
}

func (s *DocumentAccessServer) CheckAccess(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	userID, err := uuid.Parse(fields["user_id"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "missing or invalid user_id")
	}
	documentID, err := uuid.Parse(fields["document_id"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "missing or invalid document_id")
	}
	op, err := parseOperation(fields["operation"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	actor := domain.Actor{
		ID:        userID,
		Role:      fields["role"].GetStringValue(),
		Superuser: fields["superuser"].GetBoolValue(),
	}

	allowed, err := s.service.CheckAccess(ctx, actor, documentID, op)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "document not found")
		}
		return nil, status.Error(codes.Internal, "access check failed")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"allowed":     allowed,
		"document_id": documentID.String(),
		"operation":   string(op),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func parseOperation(raw string) (domain.Operation, error) {
	switch raw {
	case "", "read":
		return domain.OpRead, nil
	case "write":
		return domain.OpWrite, nil
	case "delete":
		return domain.OpDelete, nil
	default:
		return "", errors.New("unknown operation")
	}
}

func checkAccessHandler(svc DocumentAccessService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.CheckAccess(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/securedocs.documents.v1.DocumentAccessService/CheckAccess",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.CheckAccess(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
