package auth_interceptor

import (
	"context"

	"github.com/nais/publish/pkg/publishd/identity"
	"github.com/nais/publish/pkg/publishd/metrics"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	resultOK           = "ok"
	resultNoMetadata   = "no_metadata"
	resultMissingToken = "missing_token"
	resultInvalidToken = "invalid_token"
)

// ServerInterceptor requires a valid bearer token on every call and
// makes the authenticated user available through identity.FromContext.
type ServerInterceptor struct {
	Authenticator identity.Authenticator
}

type serverStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *serverStream) Context() context.Context {
	return s.ctx
}

func (s *ServerInterceptor) authenticate(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		metrics.InterceptorRequest(resultNoMetadata)
		return nil, status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		metrics.InterceptorRequest(resultMissingToken)
		return nil, status.Errorf(codes.Unauthenticated, "authorization token is not provided")
	}

	token, err := identity.BearerToken(values[0])
	if err != nil {
		metrics.InterceptorRequest(resultMissingToken)
		return nil, status.Errorf(codes.Unauthenticated, "authorization must be a bearer token")
	}

	user, err := s.Authenticator.Authenticate(ctx, token)
	if err != nil {
		metrics.InterceptorRequest(resultInvalidToken)
		log.Debugf("Rejected bearer token: %s", err)
		return nil, status.Errorf(codes.Unauthenticated, "invalid bearer token")
	}

	metrics.InterceptorRequest(resultOK)
	return identity.WithUser(ctx, user), nil
}

func (s *ServerInterceptor) UnaryServerInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

func (s *ServerInterceptor) StreamServerInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authenticate(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &serverStream{ServerStream: ss, ctx: ctx})
}

func (s *ServerInterceptor) Unary() grpc.UnaryServerInterceptor {
	return s.UnaryServerInterceptor
}

func (s *ServerInterceptor) Stream() grpc.StreamServerInterceptor {
	return s.StreamServerInterceptor
}
