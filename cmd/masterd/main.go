// Command masterd runs the game server directory service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/potential-games/mmo-services/internal/app"
	"github.com/potential-games/mmo-services/internal/app/runtime"
	"github.com/potential-games/mmo-services/pkg/logger"
)

func main() {
	application, err := runtime.New(app.RoleMaster)
	if err != nil {
		logger.NewDefault("masterd").WithError(err).Error("failed to initialize")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		os.Exit(1)
	}
}
