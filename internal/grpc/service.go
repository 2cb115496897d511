package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mr1hm/go-food-rescue/internal/events"
)

const (
	serviceName      = "foodrescue.v1.EventService"
	streamEventsName = "StreamEvents"
	streamEventsPath = "/" + serviceName + "/" + streamEventsName
)

// StreamRequest selects the event names a subscriber receives. An empty list
// receives everything.
type StreamRequest struct {
	Names []events.Name `json:"names,omitempty"`
}

type EventServiceServer interface {
	StreamEvents(req *StreamRequest, stream grpc.ServerStream) error
}

var EventServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*EventServiceServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    streamEventsName,
			Handler:       streamEventsHandler,
			ServerStreams: true,
		},
	},
}

func streamEventsHandler(srv any, stream grpc.ServerStream) error {
	req := new(StreamRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(EventServiceServer).StreamEvents(req, stream)
}

// Codec returns the call option clients need to talk to the event service.
func Codec() grpc.CallOption {
	return grpc.ForceCodec(jsonCodec{})
}

// EventStream is the client side of StreamEvents. Payloads arrive as decoded
// JSON values.
type EventStream struct {
	stream grpc.ClientStream
}

func (s *EventStream) Recv() (*events.Event, error) {
	e := new(events.Event)
	if err := s.stream.RecvMsg(e); err != nil {
		return nil, err
	}
	return e, nil
}

// StreamEvents opens an event subscription on cc.
func StreamEvents(ctx context.Context, cc grpc.ClientConnInterface, req *StreamRequest) (*EventStream, error) {
	desc := &EventServiceDesc.Streams[0]
	stream, err := cc.NewStream(ctx, desc, streamEventsPath, Codec())
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventStream{stream: stream}, nil
}
