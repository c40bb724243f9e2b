package publishclient

import (
	"crypto/tls"

	auth_interceptor "github.com/nais/publish/pkg/grpc/interceptor/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

func NewGrpcConnection(cfg Config) (*grpc.ClientConn, error) {
	dialOptions := make([]grpc.DialOption, 0)

	if !cfg.GrpcUseTLS {
		dialOptions = append(dialOptions, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		cred := credentials.NewTLS(&tls.Config{})
		dialOptions = append(dialOptions, grpc.WithTransportCredentials(cred))
	}

	interceptor := &auth_interceptor.ClientInterceptor{
		RequireTLS: cfg.GrpcUseTLS,
		Token:      cfg.Token,
	}
	dialOptions = append(dialOptions, grpc.WithPerRPCCredentials(interceptor))

	grpcConnection, err := grpc.NewClient(cfg.GrpcServer, dialOptions...)
	if err != nil {
		return nil, Errorf(ExitInvocationFailure, "connect to status service: %s", err)
	}

	return grpcConnection, nil
}
