// Command rescue-watch subscribes to the event stream and logs each event.
// Event names given as arguments restrict the subscription.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mr1hm/go-food-rescue/internal/config"
	"github.com/mr1hm/go-food-rescue/internal/events"
	internalgrpc "github.com/mr1hm/go-food-rescue/internal/grpc"
	"github.com/mr1hm/go-food-rescue/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GRPC.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logging.Fatalf("Failed to connect to %s: %v", addr, err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := &internalgrpc.StreamRequest{}
	for _, name := range os.Args[1:] {
		req.Names = append(req.Names, events.Name(name))
	}

	stream, err := internalgrpc.StreamEvents(ctx, conn, req)
	if err != nil {
		logging.Fatalf("Failed to subscribe: %v", err)
	}
	slog.Info("watching events", "addr", addr, "names", req.Names)

	for {
		e, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				slog.Info("stream closed")
				return
			}
			logging.Fatalf("stream error: %v", err)
		}
		slog.Info("event", "name", e.Name, "at", e.At, "payload", e.Payload)
	}
}
