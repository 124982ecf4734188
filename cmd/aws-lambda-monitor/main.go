package main

import (
	"fmt"
	"os"

	"github.com/diillson/aws-lambda-monitoring-go/internal/adapter/driven/aws"
	"github.com/diillson/aws-lambda-monitoring-go/internal/adapter/driven/config"
	"github.com/diillson/aws-lambda-monitoring-go/internal/adapter/driven/export"
	"github.com/diillson/aws-lambda-monitoring-go/internal/adapter/driving/cli"
	"github.com/diillson/aws-lambda-monitoring-go/internal/application/usecase"
	"github.com/diillson/aws-lambda-monitoring-go/pkg/console"
	"github.com/diillson/aws-lambda-monitoring-go/pkg/version"
)

func main() {
	// Inicializa o aplicativo CLI
	app := cli.NewCLIApp(version.Version)

	// Inicializa os repositórios
	awsRepo := aws.NewAWSRepository("")
	exportRepo := export.NewExportRepository()
	configRepo := config.NewConfigRepository()
	consoleImpl := console.NewConsole()

	// Inicializa o caso de uso
	monitorUseCase := usecase.NewMonitorUseCase(
		awsRepo,
		exportRepo,
		configRepo,
		consoleImpl,
	)

	// Define o caso de uso no aplicativo CLI
	app.SetMonitorUseCase(monitorUseCase)

	// Executa o aplicativo
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
