// Команда healthcheck опрашивает gRPC health сервера лицензирования
// и завершается с кодом 1, если сервер не обслуживает запросы.
// Используется в HEALTHCHECK контейнера.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/magabrotheeeer/license-server/internal/grpc/client"
	"github.com/magabrotheeeer/license-server/internal/grpc/server"
)

func main() {
	addr := flag.String("addr", "localhost:9090", "адрес gRPC health")
	timeout := flag.Duration("timeout", 3*time.Second, "таймаут проверки")
	flag.Parse()

	if err := run(*addr, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("SERVING")
}

func run(addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c, err := client.NewHealthClient(addr)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ok, err := c.Serving(ctx, server.ServiceName)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("license-server is not serving")
	}
	return nil
}
