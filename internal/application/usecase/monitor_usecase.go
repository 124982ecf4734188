package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/repository"
	"github.com/diillson/aws-lambda-monitoring-go/internal/shared/types"
)

const (
	// Log groups de funções Lambda seguem essa convenção de nome.
	logGroupPrefix = "/aws/lambda/"

	// Padrão que casa com as linhas END do formato de log padrão do Lambda.
	// É o evento de conclusão que o monitor espera em extractedFields.
	completionFilterPattern = "[type=END, requestId, ...]"

	// Nome do subscription filter criado em cada log group de aplicação.
	subscriptionFilterName = "lambda-monitor-completed-runs"

	// Sid da permissão de invocação concedida ao CloudWatch Logs.
	invokeStatementID = "cloudwatch-logs-invoke"

	// O IAM aceita no máximo 5 versões por managed policy.
	policyVersionLimit = 5

	phaseBootstrap = "bootstrap"
	phaseEnroll    = "enroll"
)

// MonitorUseCase implementa as duas fases de provisionamento do padrão de
// monitoramento fan-out: bootstrap (recursos compartilhados) e enroll
// (fiação por aplicação).
type MonitorUseCase struct {
	awsRepo    repository.AWSRepository
	exportRepo repository.ExportRepository
	configRepo repository.ConfigRepository
	console    types.ConsoleInterface
}

// NewMonitorUseCase creates a new monitor use case.
func NewMonitorUseCase(
	awsRepo repository.AWSRepository,
	exportRepo repository.ExportRepository,
	configRepo repository.ConfigRepository,
	console types.ConsoleInterface,
) *MonitorUseCase {
	return &MonitorUseCase{
		awsRepo:    awsRepo,
		exportRepo: exportRepo,
		configRepo: configRepo,
		console:    console,
	}
}

// buildConfig resolve a configuração efetiva: defaults, arquivo, flags.
func (uc *MonitorUseCase) buildConfig(args *types.CLIArgs) (*types.Config, error) {
	cfg := types.DefaultConfig()

	if args.ConfigFile != "" {
		fileCfg, err := uc.configRepo.LoadConfigFile(args.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	// Flags de linha de comando têm precedência sobre o arquivo.
	cfg.Merge(&types.Config{
		Profile:       args.Profile,
		Region:        args.Region,
		CodeFile:      args.CodeFile,
		CodeS3Bucket:  args.CodeS3Bucket,
		CodeS3Key:     args.CodeS3Key,
		Subscribers:   args.Emails,
		Statuses:      args.Statuses,
		RetentionDays: args.RetentionDays,
	})

	return cfg, nil
}

// resolveProfile determina o profile AWS a usar.
func (uc *MonitorUseCase) resolveProfile(cfg *types.Config) (string, error) {
	availableProfiles := uc.awsRepo.GetAWSProfiles()
	if len(availableProfiles) == 0 {
		return "", types.ErrNoProfilesFound
	}

	if cfg.Profile != "" {
		for _, p := range availableProfiles {
			if p == cfg.Profile {
				return p, nil
			}
		}
		uc.console.LogWarning("Profile '%s' not found in AWS configuration", cfg.Profile)
		return "", types.ErrProfileNotFound
	}

	for _, p := range availableProfiles {
		if p == "default" {
			return p, nil
		}
	}

	uc.console.LogWarning("No default profile found. Using profile '%s'.", availableProfiles[0])
	return availableProfiles[0], nil
}

// newReport inicia o relatório de uma fase, resolvendo conta e região.
func (uc *MonitorUseCase) newReport(ctx context.Context, profile, phase string, dryRun bool) (*entity.ProvisionReport, error) {
	accountID, err := uc.awsRepo.GetAccountID(ctx, profile)
	if err != nil {
		return nil, err
	}
	region, err := uc.awsRepo.GetRegion(ctx, profile)
	if err != nil {
		return nil, err
	}
	return &entity.ProvisionReport{
		Profile:     profile,
		AccountID:   accountID,
		Region:      region,
		Phase:       phase,
		GeneratedAt: time.Now().UTC(),
		DryRun:      dryRun,
	}, nil
}

// actionFor traduz created/updated para a variante de dry-run quando preciso.
func actionFor(action string, dryRun bool) string {
	if !dryRun {
		return action
	}
	switch action {
	case entity.ActionCreated:
		return entity.ActionWouldCreate
	case entity.ActionUpdated:
		return entity.ActionWouldUpdate
	}
	return action
}

// logGroupArn monta o ARN de um log group. O sufixo ":*" cobre os log streams,
// como o template original exigia na lista de resources da policy do monitor.
func logGroupArn(region, accountID, logGroupName string) string {
	return fmt.Sprintf("arn:aws:logs:%s:%s:log-group:%s:*", region, accountID, logGroupName)
}

// buildFilterPolicy monta a filter policy da assinatura SNS, chaveada pelo
// nome da aplicação e pelos status reportados pelo monitor.
func buildFilterPolicy(application string, statuses []string) (string, error) {
	policy := map[string][]string{
		"function": {application},
	}
	if len(statuses) > 0 {
		policy["status"] = statuses
	}
	data, err := json.Marshal(policy)
	if err != nil {
		return "", fmt.Errorf("error building subscription filter policy: %w", err)
	}
	return string(data), nil
}

// oldestRemovableVersion escolhe a versão a descartar quando a policy atinge o
// limite de 5 versões: a mais antiga que não seja a default.
func oldestRemovableVersion(versions []entity.PolicyVersion) (string, bool) {
	candidates := make([]entity.PolicyVersion, 0, len(versions))
	for _, v := range versions {
		if !v.IsDefault {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreateDate.Before(candidates[j].CreateDate)
	})
	return candidates[0].VersionID, true
}

// ensureRolePolicyAttachment anexa a policy à role quando ainda não anexada.
func (uc *MonitorUseCase) ensureRolePolicyAttachment(ctx context.Context, profile, phase, roleName, policyArn string, dryRun bool) (entity.ResourceOutcome, error) {
	outcome := entity.ResourceOutcome{
		Phase: phase,
		Kind:  "iam:role-attachment",
		Name:  roleName,
		Arn:   policyArn,
	}

	attached, err := uc.awsRepo.ListAttachedRolePolicies(ctx, profile, roleName)
	if err != nil {
		return outcome, err
	}
	for _, arn := range attached {
		if arn == policyArn {
			outcome.Action = entity.ActionExists
			return outcome, nil
		}
	}

	if !dryRun {
		if err := uc.awsRepo.AttachRolePolicy(ctx, profile, roleName, policyArn); err != nil {
			return outcome, err
		}
	}
	outcome.Action = actionFor(entity.ActionUpdated, dryRun)
	outcome.Detail = "policy attached"
	return outcome, nil
}

// displayReport renderiza a tabela de resultados da fase.
func (uc *MonitorUseCase) displayReport(report *entity.ProvisionReport) {
	table := uc.console.CreateTable()
	table.AddColumn("Kind")
	table.AddColumn("Name")
	table.AddColumn("Action")
	table.AddColumn("ARN")

	for _, o := range report.Outcomes {
		table.AddRow(o.Kind, o.Name, o.Action, o.Arn)
	}

	uc.console.Print(table.Render())

	changed := report.Changed()
	if report.DryRun {
		uc.console.LogInfo("Dry run: %d change(s) would be applied", changed)
	} else if changed == 0 {
		uc.console.LogSuccess("All resources already in place, nothing to do")
	} else {
		uc.console.LogSuccess("%d change(s) applied", changed)
	}
	for _, e := range report.Errors {
		uc.console.LogError("%s", e)
	}
}

// exportReport exporta o relatório nos formatos pedidos.
func (uc *MonitorUseCase) exportReport(report *entity.ProvisionReport, args *types.CLIArgs) {
	if args.ReportName == "" {
		return
	}
	for _, reportType := range args.ReportType {
		switch reportType {
		case "csv":
			path, err := uc.exportRepo.ExportToCSV(report, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export report to CSV: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported report to CSV: %s", path)
			}
		case "json":
			path, err := uc.exportRepo.ExportToJSON(report, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export report to JSON: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported report to JSON: %s", path)
			}
		case "pdf":
			path, err := uc.exportRepo.ExportToPDF(report, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export report to PDF: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported report to PDF: %s", path)
			}
		default:
			uc.console.LogWarning("Unknown report type: %s", reportType)
		}
	}
}
