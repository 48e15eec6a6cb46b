package api

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs every unary call with a request id
func LoggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		requestID := uuid.NewString()
		timer := metrics.NewTimer()

		resp, err := handler(ctx, req)

		event := logger.Debug()
		if err != nil {
			event = logger.Warn().Err(err)
		}
		event.
			Str("request_id", requestID).
			Str("method", methodName(info.FullMethod)).
			Str("code", status.Code(err).String()).
			Dur("duration", timer.Duration()).
			Msg("API request")

		return resp, err
	}
}

// MetricsInterceptor counts and times every unary call
func MetricsInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		method := methodName(info.FullMethod)
		timer := metrics.NewTimer()

		resp, err := handler(ctx, req)

		timer.ObserveDurationVec(metrics.APIRequestDuration, method)
		metrics.APIRequestsTotal.WithLabelValues(method, status.Code(err).String()).Inc()
		return resp, err
	}
}

// RecoveryInterceptor turns a handler panic into an Internal error
func RecoveryInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("method", methodName(info.FullMethod)).
					Str("panic", fmt.Sprint(r)).
					Msg("API handler panicked")
				err = status.Errorf(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// ReadOnlyInterceptor creates a gRPC unary interceptor that only allows
// read-only operations. It guards the read-only listener used by
// dashboards and local tooling.
func ReadOnlyInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !isReadOnlyMethod(info.FullMethod) {
			return nil, status.Errorf(
				codes.PermissionDenied,
				"write operations not allowed on the read-only listener",
			)
		}
		return handler(ctx, req)
	}
}

// isReadOnlyMethod checks if a gRPC method is read-only
// (e.g. "/burrow.ManagerAPI/ListNodes").
func isReadOnlyMethod(method string) bool {
	name := methodName(method)
	for _, prefix := range []string{"List", "Get"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func methodName(fullMethod string) string {
	return path.Base(fullMethod)
}
