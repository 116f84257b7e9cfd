package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// computeRoutePattern is the REST binding of dateline.v1.RouteService/ComputeRoute
const computeRoutePattern = "/api/v1/route/compute"

// GatewayHandler handles a REST call on the gateway mux. The inbound
// marshaler decodes request bodies; the returned message is written with the
// mux's outbound marshaler.
type GatewayHandler func(ctx context.Context, r *http.Request, inbound runtime.Marshaler) (proto.Message, error)

// RegisterRouteServiceGateway mounts the REST API of the route service on a
// gateway mux
func RegisterRouteServiceGateway(mux *runtime.ServeMux, s *RouteService) error {
	handlers := []struct {
		method  string
		pattern string
		handler GatewayHandler
	}{
		{http.MethodGet, "/api/v1/route", s.GetRoute},
		{http.MethodGet, "/api/v1/presets", s.ListPresets},
		{http.MethodGet, "/api/v1/route/current", s.GetCurrentRoute},
		{http.MethodPost, "/api/v1/route/current", s.UpdateCurrentRoute},
		{http.MethodGet, "/api/v1/cache", s.GetCacheStats},
		{http.MethodDelete, "/api/v1/cache", s.FlushCache},
	}

	for _, h := range handlers {
		if err := mux.HandlePath(h.method, h.pattern, serveGateway(mux, h.handler)); err != nil {
			return fmt.Errorf("failed to register %s %s: %w", h.method, h.pattern, err)
		}
	}
	return nil
}

func serveGateway(mux *runtime.ServeMux, handler GatewayHandler) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		ctx := runtime.NewServerMetadataContext(r.Context(), runtime.ServerMetadata{})
		inbound, outbound := runtime.MarshalerForRequest(mux, r)

		resp, err := handler(ctx, r, inbound)
		if err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, grpcError(err))
			return
		}

		// Rendered documents are written as-is with their own content type
		if _, ok := resp.(*httpbody.HttpBody); ok {
			outbound = &runtime.HTTPBodyMarshaler{Marshaler: outbound}
		}
		runtime.ForwardResponseMessage(ctx, mux, outbound, w, r, resp, mux.GetForwardResponseOptions()...)
	}
}

// RegisterRouteServiceHandlerFromEndpoint dials the gRPC endpoint and mounts
// the ComputeRoute binding on the gateway mux. The connection is closed when
// ctx is done.
func RegisterRouteServiceHandlerFromEndpoint(ctx context.Context, mux *runtime.ServeMux, endpoint string, opts []grpc.DialOption) (err error) {
	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if cerr := conn.Close(); cerr != nil {
				log.Printf("Failed to close conn to %s: %v", endpoint, cerr)
			}
			return
		}
		go func() {
			<-ctx.Done()
			if cerr := conn.Close(); cerr != nil {
				log.Printf("Failed to close conn to %s: %v", endpoint, cerr)
			}
		}()
	}()

	return RegisterRouteServiceHandler(ctx, mux, conn)
}

// RegisterRouteServiceHandler mounts POST /api/v1/route/compute, forwarding
// the request body to ComputeRoute over conn
func RegisterRouteServiceHandler(_ context.Context, mux *runtime.ServeMux, conn grpc.ClientConnInterface) error {
	client := NewRouteServiceClient(conn)

	return mux.HandlePath(http.MethodPost, computeRoutePattern, func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		ctx := r.Context()
		inbound, outbound := runtime.MarshalerForRequest(mux, r)

		annotated, err := runtime.AnnotateContext(ctx, mux, r, computeRouteMethod, runtime.WithHTTPPathPattern(computeRoutePattern))
		if err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}

		in := new(structpb.Struct)
		if err := inbound.NewDecoder(r.Body).Decode(in); err != nil && !errors.Is(err, io.EOF) {
			runtime.HTTPError(annotated, mux, outbound, w, r, status.Errorf(codes.InvalidArgument, "%v", err))
			return
		}

		var md runtime.ServerMetadata
		resp, err := client.ComputeRoute(annotated, in, grpc.Header(&md.HeaderMD), grpc.Trailer(&md.TrailerMD))
		annotated = runtime.NewServerMetadataContext(annotated, md)
		if err != nil {
			runtime.HTTPError(annotated, mux, outbound, w, r, err)
			return
		}

		runtime.ForwardResponseMessage(annotated, mux, outbound, w, r, resp, mux.GetForwardResponseOptions()...)
	})
}
