package main

import (
	"context"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-xray-sdk-go/xray"
	adapterlogger "account-gateway/internal/adapters/logger"
	"account-gateway/internal/infrastructure"
	"account-gateway/internal/platform/lambda"
	"account-gateway/internal/platform/server"
)

func main() {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		adapterlogger.New("account-gateway").Error(context.Background(), "configuration error", "error", err)
		os.Exit(1)
	}
	logger := adapterlogger.New(cfg.Namespace)
	xray.Configure(xray.Config{LogLevel: "error"})

	e, err := server.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Error(context.Background(), "failed to build server", "error", err)
		os.Exit(1)
	}
	awslambda.Start(lambda.NewHandler(e))
}
