// Package grpcmw provides gRPC server interceptors for the admission
// layer's rate limiter.
//
// Separated from the middleware package so that importing the HTTP
// middleware does not pull in google.golang.org/grpc. There is no CSRF
// interceptor: double-submit cookies are a browser mechanism with no
// gRPC equivalent.
//
// Usage:
//
//	limiter, _ := admission.New(admission.API, admission.WithRedis(client))
//	server := grpc.NewServer(
//	    grpc.ChainUnaryInterceptor(grpcmw.UnaryServerInterceptor(limiter, grpcmw.KeyByPeer)),
//	    grpc.ChainStreamInterceptor(grpcmw.StreamServerInterceptor(limiter, grpcmw.StreamKeyByPeer)),
//	)
package grpcmw

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/courtside/admission"
)

// KeyFunc derives the quota key from a unary RPC context.
type KeyFunc func(ctx context.Context, info *grpc.UnaryServerInfo) string

// StreamKeyFunc derives the quota key from a streaming RPC context.
type StreamKeyFunc func(ctx context.Context, info *grpc.StreamServerInfo) string

// ErrRateLimited is returned to rejected callers.
var ErrRateLimited = status.Error(codes.ResourceExhausted, "rate limit exceeded")

// UnaryServerInterceptor admits or rejects each unary RPC. Rejections
// map to codes.ResourceExhausted; store failures follow the limiter's
// fail-open policy.
func UnaryServerInterceptor(limiter *admission.RateLimiter, keyFunc KeyFunc) grpc.UnaryServerInterceptor {
	if limiter == nil {
		panic("grpcmw: limiter is required")
	}
	if keyFunc == nil {
		keyFunc = KeyByPeer
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !limiter.CheckKey(ctx, keyFunc(ctx, info)) {
			return nil, ErrRateLimited
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor admits or rejects each new stream. One stream
// consumes one quota slot regardless of how many messages it carries.
func StreamServerInterceptor(limiter *admission.RateLimiter, keyFunc StreamKeyFunc) grpc.StreamServerInterceptor {
	if limiter == nil {
		panic("grpcmw: limiter is required")
	}
	if keyFunc == nil {
		keyFunc = StreamKeyByPeer
	}
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !limiter.CheckKey(ss.Context(), keyFunc(ss.Context(), info)) {
			return ErrRateLimited
		}
		return handler(srv, ss)
	}
}

// KeyByPeer keys on (full method, peer address host).
func KeyByPeer(ctx context.Context, info *grpc.UnaryServerInfo) string {
	return admission.Key(info.FullMethod, peerHost(ctx))
}

// StreamKeyByPeer keys on (full method, peer address host).
func StreamKeyByPeer(ctx context.Context, info *grpc.StreamServerInfo) string {
	return admission.Key(info.FullMethod, peerHost(ctx))
}

func peerHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return admission.UnknownClient
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}
