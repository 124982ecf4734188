package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/diillson/aws-lambda-monitoring-go/pkg/version"

	"github.com/diillson/aws-lambda-monitoring-go/internal/application/usecase"
	"github.com/diillson/aws-lambda-monitoring-go/internal/shared/types"
	"github.com/spf13/cobra"
)

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd        *cobra.Command
	monitorUseCase *usecase.MonitorUseCase
	version        string
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string) *CLIApp {
	app := &CLIApp{
		version: versionStr,
	}

	// Obtem a versão formatada
	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:     "aws-lambda-monitor",
		Short:   "AWS Lambda Monitoring provisioner CLI",
		Version: formattedVersion,
	}

	// Personaliza a template para incluir mais informações de versão
	rootCmd.SetVersionTemplate(`{{printf "AWS Lambda Monitoring version: %s\n" .Version}}`)

	// Flags comuns às duas fases
	rootCmd.PersistentFlags().StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "AWS profile to use")
	rootCmd.PersistentFlags().StringP("region", "r", "", "AWS region to provision resources in")
	rootCmd.PersistentFlags().StringP("report-name", "n", "", "Specify the base name for the report file (without extension)")
	rootCmd.PersistentFlags().StringSliceP("report-type", "y", []string{"csv"}, "Specify report types: csv, json, pdf")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "Directory to save the report files (default: current directory)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Show what would change without touching any AWS resource")

	bootstrapCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Provision the shared monitoring resources (policies, role, topic, monitor function)",
		RunE:  app.runBootstrap,
	}
	bootstrapCmd.Flags().String("code-file", "", "Path to the monitor function deployment package (zip)")
	bootstrapCmd.Flags().String("code-s3-bucket", "", "S3 bucket holding the monitor function deployment package")
	bootstrapCmd.Flags().String("code-s3-key", "", "S3 key of the monitor function deployment package")

	enrollCmd := &cobra.Command{
		Use:   "enroll <function>...",
		Short: "Wire one or more Lambda functions into the monitoring fan-out",
		Args:  cobra.MinimumNArgs(1),
		RunE:  app.runEnroll,
	}
	enrollCmd.Flags().StringSliceP("email", "e", nil, "Email addresses to subscribe to the reporting topic (comma-separated)")
	enrollCmd.Flags().StringSlice("statuses", nil, "Run statuses to deliver to subscribers: success, warning, error")
	enrollCmd.Flags().Int("retention-days", 0, "Retention in days for application log groups (0 keeps the AWS default)")

	rootCmd.AddCommand(bootstrapCmd, enrollCmd)

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// parseCommonArgs parses the persistent flags shared by both subcommands.
func (app *CLIApp) parseCommonArgs(cmd *cobra.Command) (*types.CLIArgs, error) {
	configFile, _ := cmd.Flags().GetString("config-file")
	profile, _ := cmd.Flags().GetString("profile")
	region, _ := cmd.Flags().GetString("region")
	reportName, _ := cmd.Flags().GetString("report-name")
	reportType, _ := cmd.Flags().GetStringSlice("report-type")
	dir, _ := cmd.Flags().GetString("dir")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	// Set default directory to current working directory if not specified
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = cwd
	} else {
		// Convert to absolute path
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		dir = absDir
	}

	args := &types.CLIArgs{
		ConfigFile: configFile,
		Profile:    profile,
		Region:     region,
		ReportName: reportName,
		ReportType: reportType,
		Dir:        dir,
		DryRun:     dryRun,
	}

	return args, nil
}

// runBootstrap é o ponto de entrada do subcomando bootstrap.
func (app *CLIApp) runBootstrap(cmd *cobra.Command, args []string) error {
	// Exibe o banner de boas-vindas
	displayWelcomeBanner(app.version)

	// Verifica a versão mais recente disponível
	go version.CheckLatestVersion(app.version)

	cliArgs, err := app.parseCommonArgs(cmd)
	if err != nil {
		return err
	}

	cliArgs.CodeFile, _ = cmd.Flags().GetString("code-file")
	cliArgs.CodeS3Bucket, _ = cmd.Flags().GetString("code-s3-bucket")
	cliArgs.CodeS3Key, _ = cmd.Flags().GetString("code-s3-key")

	ctx := context.Background()
	return app.monitorUseCase.RunBootstrap(ctx, cliArgs)
}

// runEnroll é o ponto de entrada do subcomando enroll.
func (app *CLIApp) runEnroll(cmd *cobra.Command, args []string) error {
	displayWelcomeBanner(app.version)

	go version.CheckLatestVersion(app.version)

	cliArgs, err := app.parseCommonArgs(cmd)
	if err != nil {
		return err
	}

	cliArgs.Applications = args
	cliArgs.Emails, _ = cmd.Flags().GetStringSlice("email")
	cliArgs.Statuses, _ = cmd.Flags().GetStringSlice("statuses")
	cliArgs.RetentionDays, _ = cmd.Flags().GetInt("retention-days")

	ctx := context.Background()
	return app.monitorUseCase.RunEnroll(ctx, cliArgs)
}

// SetMonitorUseCase sets the monitor use case for the CLI app.
func (app *CLIApp) SetMonitorUseCase(useCase *usecase.MonitorUseCase) {
	app.monitorUseCase = useCase
}
