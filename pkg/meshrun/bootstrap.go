package meshrun

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cuemby/meshrun/meshpb"
	"github.com/cuemby/meshrun/pkg/log"
	"github.com/cuemby/meshrun/pkg/metrics"
)

// ConnectionHandle is a cheap-to-share reference to an established
// channel to the mesh broker, plus the identity this process
// presented when it connected.
type ConnectionHandle struct {
	ClientID string
	Conn     *grpc.ClientConn
}

// WaitForServer polls host:port once per cfg.ConnectPollInterval,
// attempting a dial followed by a PlatformService.GetPlatformServer
// identification call, until both succeed. There is no maximum
// attempt count: the caller's context is the only way to give up.
func WaitForServer(ctx context.Context, cfg Config) (*ConnectionHandle, error) {
	logger := log.WithComponent("bootstrap")
	ticker := time.NewTicker(cfg.ConnectPollInterval)
	defer ticker.Stop()

	for {
		metrics.ConnectAttemptsTotal.Inc()
		handle, err := tryConnect(ctx, cfg)
		if err == nil {
			metrics.Connected.Set(1)
			logger.Info().Str("client_id", handle.ClientID).Msg("connected to mesh broker")
			return handle, nil
		}
		logger.Warn().Err(err).Msg("connect attempt failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func tryConnect(ctx context.Context, cfg Config) (*ConnectionHandle, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	platform := meshpb.NewPlatformServiceClient(conn)
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = platform.GetPlatformServer(dialCtx, &meshpb.ClientIdentification{
		ClientID:      cfg.ClientID,
		ComponentName: cfg.ComponentName(),
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("identify to %s: %w", addr, err)
	}

	return &ConnectionHandle{ClientID: cfg.ClientID, Conn: conn}, nil
}

// Close tears down the underlying channel.
func (h *ConnectionHandle) Close() error {
	metrics.Connected.Set(0)
	return h.Conn.Close()
}
