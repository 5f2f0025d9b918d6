// Package client содержит gRPC-клиент сервиса здоровья сервера лицензирования.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthClient опрашивает grpc.health.v1 сервера лицензирования.
type HealthClient struct {
	conn   *grpc.ClientConn
	client grpc_health_v1.HealthClient
}

// NewHealthClient создаёт клиент без TLS. Дополнительные опции передаются в grpc.NewClient.
func NewHealthClient(addr string, opts ...grpc.DialOption) (*HealthClient, error) {
	const op = "client.NewHealthClient"

	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &HealthClient{conn: conn, client: grpc_health_v1.NewHealthClient(conn)}, nil
}

// Close закрывает соединение.
func (c *HealthClient) Close() error {
	return c.conn.Close()
}

// Serving сообщает, обслуживает ли сервер указанный сервис.
func (c *HealthClient) Serving(ctx context.Context, service string) (bool, error) {
	const op = "client.HealthClient.Serving"

	resp, err := c.client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING, nil
}
