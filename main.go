package main

import (
	"context"
	"fmt"
	"time"

	"fashionai/avatar-api/app"
	"fashionai/avatar-api/config"
	"fashionai/avatar-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	err := config.Setup()
	if err != nil {
		panic(err)
	}

	if err := logging.Setup(config.IsProduction(), viper.GetString("app.log_level")); err != nil {
		panic(err)
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if *config.DeactivateUser != "" {
		deactivate(*config.DeactivateUser)
		return
	}

	r, _, err := app.NewRouter()
	if err != nil {
		zap.L().Fatal("Failed to build router", zap.Error(err))
	}

	port := viper.GetInt("host.port")
	zap.L().Info("Server starting", zap.Int("port", port), zap.String("mode", viper.GetString("app.mode")))

	err = r.Run(fmt.Sprintf(":%d", port))
	if err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}

func deactivate(email string) {
	d, err := app.NewDeps()
	if err != nil {
		zap.L().Fatal("Failed to build dependencies", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := d.Users.Deactivate(ctx, email); err != nil {
		zap.L().Fatal("Failed to deactivate user", zap.String("email", email), zap.Error(err))
	}

	zap.L().Info("User deactivated", zap.String("email", email))
}
