package grpc

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"

	"github.com/mr1hm/go-food-rescue/internal/metrics"
)

type Server struct {
	broadcaster *Broadcaster
	metrics     *metrics.Metrics
	grpcServer  *grpc.Server
}

func NewServer(broadcaster *Broadcaster, m *metrics.Metrics) *Server {
	s := &Server{
		broadcaster: broadcaster,
		metrics:     m,
		grpcServer:  grpc.NewServer(grpc.ForceServerCodec(jsonCodec{})),
	}
	s.grpcServer.RegisterService(&EventServiceDesc, s)
	return s
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *Server) StreamEvents(req *StreamRequest, stream grpc.ServerStream) error {
	id, ch := s.broadcaster.Subscribe(req.Names...)
	defer s.broadcaster.Unsubscribe(id)

	s.metrics.SubscriberAdded()
	defer s.metrics.SubscriberRemoved()

	slog.Info("client subscribed to event stream", "subscriber_id", id, "names", req.Names)

	for {
		select {
		case <-stream.Context().Done():
			slog.Info("client disconnected from event stream", "subscriber_id", id)
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.SendMsg(e); err != nil {
				slog.Error("failed to send event to stream", "error", err, "subscriber_id", id)
				return err
			}
		}
	}
}
