package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
	"github.com/diillson/aws-lambda-monitoring-go/internal/shared/types"
)

// RunEnroll liga uma ou mais aplicações ao monitoramento: policy de logging na
// role da aplicação, log group, cobertura na policy do monitor, subscription
// filter e assinaturas de e-mail no tópico de relatórios.
func (uc *MonitorUseCase) RunEnroll(ctx context.Context, args *types.CLIArgs) error {
	cfg, err := uc.buildConfig(args)
	if err != nil {
		return err
	}
	if len(args.Applications) == 0 {
		return fmt.Errorf("no application functions specified")
	}

	profile, err := uc.resolveProfile(cfg)
	if err != nil {
		return err
	}
	uc.awsRepo.SetRegion(cfg.Region)

	report, err := uc.newReport(ctx, profile, phaseEnroll, args.DryRun)
	if err != nil {
		return err
	}

	// Pré-requisitos da fase de bootstrap.
	shared, err := uc.lookupSharedResources(ctx, profile, cfg)
	if err != nil {
		return err
	}

	progress := uc.console.ProgressWithTotal(len(args.Applications))
	for _, application := range args.Applications {
		outcomes, err := uc.enrollApplication(ctx, profile, cfg, application, shared, report, args.DryRun)
		report.Outcomes = append(report.Outcomes, outcomes...)
		if err != nil {
			// Falha em uma aplicação não interrompe as demais.
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", application, err))
		}
		progress.Increment()
	}
	progress.Stop()

	uc.displayReport(report)
	uc.exportReport(report, args)

	if len(report.Errors) == len(args.Applications) {
		return fmt.Errorf("all %d application(s) failed to enroll", len(args.Applications))
	}
	return nil
}

// sharedResources reúne os recursos criados pelo bootstrap dos quais o enroll depende.
type sharedResources struct {
	loggingPolicy *entity.Policy
	monitorPolicy *entity.Policy
	monitorFn     *entity.Function
	topic         *entity.Topic
}

// lookupSharedResources valida que o bootstrap já rodou.
func (uc *MonitorUseCase) lookupSharedResources(ctx context.Context, profile string, cfg *types.Config) (*sharedResources, error) {
	loggingPolicy, err := uc.awsRepo.FindPolicy(ctx, profile, cfg.LoggingPolicy)
	if err != nil {
		return nil, err
	}
	if loggingPolicy == nil {
		return nil, fmt.Errorf("logging policy %s not found, run bootstrap first", cfg.LoggingPolicy)
	}

	monitorPolicy, err := uc.awsRepo.FindPolicy(ctx, profile, cfg.MonitorPolicy)
	if err != nil {
		return nil, err
	}
	if monitorPolicy == nil {
		return nil, fmt.Errorf("monitor policy %s not found, run bootstrap first", cfg.MonitorPolicy)
	}

	monitorFn, err := uc.awsRepo.FindFunction(ctx, profile, cfg.MonitorFunction)
	if err != nil {
		return nil, err
	}
	if monitorFn == nil {
		return nil, fmt.Errorf("monitor function %s not found, run bootstrap first", cfg.MonitorFunction)
	}

	topic, err := uc.awsRepo.FindTopic(ctx, profile, cfg.ReportingTopic)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, fmt.Errorf("reporting topic %s not found, run bootstrap first", cfg.ReportingTopic)
	}

	return &sharedResources{
		loggingPolicy: loggingPolicy,
		monitorPolicy: monitorPolicy,
		monitorFn:     monitorFn,
		topic:         topic,
	}, nil
}

// enrollApplication executa a sequência check-then-create de uma aplicação.
func (uc *MonitorUseCase) enrollApplication(ctx context.Context, profile string, cfg *types.Config, application string, shared *sharedResources, report *entity.ProvisionReport, dryRun bool) ([]entity.ResourceOutcome, error) {
	var outcomes []entity.ResourceOutcome

	// A aplicação precisa existir; sem ela não há role nem log group a fiação.
	appFn, err := uc.awsRepo.FindFunction(ctx, profile, application)
	if err != nil {
		return outcomes, err
	}
	if appFn == nil {
		return outcomes, fmt.Errorf("%w: %s", types.ErrApplicationNotFound, application)
	}

	// Policy de logging na role de execução da aplicação.
	roleName := roleNameFromArn(appFn.RoleArn)
	outcome, err := uc.ensureRolePolicyAttachment(ctx, profile, report.Phase, roleName, shared.loggingPolicy.Arn, dryRun)
	if err != nil {
		return outcomes, err
	}
	outcomes = append(outcomes, outcome)

	// Log group da aplicação. Funções que nunca rodaram ainda não o criaram.
	logGroupName := logGroupPrefix + application
	outcome, err = uc.ensureLogGroup(ctx, profile, cfg, logGroupName, report, dryRun)
	if err != nil {
		return outcomes, err
	}
	outcomes = append(outcomes, outcome)

	// Cobertura do log group na policy de acesso do monitor.
	groupArn := logGroupArn(report.Region, report.AccountID, logGroupName)
	outcome, err = uc.ensureMonitorPolicyCovers(ctx, profile, shared.monitorPolicy, groupArn, report, dryRun)
	if err != nil {
		return outcomes, err
	}
	outcomes = append(outcomes, outcome)

	// Subscription filter roteando eventos END para o monitor.
	outcome, err = uc.ensureSubscriptionFilter(ctx, profile, logGroupName, shared.monitorFn.Arn, report, dryRun)
	if err != nil {
		return outcomes, err
	}
	outcomes = append(outcomes, outcome)

	// Assinaturas de e-mail com filter policy por aplicação e status.
	if len(cfg.Subscribers) == 0 {
		return outcomes, types.ErrNoSubscribers
	}
	subOutcomes, err := uc.ensureSubscriptions(ctx, profile, cfg, application, shared.topic, report, dryRun)
	outcomes = append(outcomes, subOutcomes...)
	if err != nil {
		return outcomes, err
	}

	return outcomes, nil
}

// roleNameFromArn extrai o nome da role de um ARN como
// arn:aws:iam::123456789012:role/service/my-role.
func roleNameFromArn(arn string) string {
	parts := strings.Split(arn, "/")
	return parts[len(parts)-1]
}

// ensureLogGroup cria o log group e ajusta a retenção quando configurada.
func (uc *MonitorUseCase) ensureLogGroup(ctx context.Context, profile string, cfg *types.Config, name string, report *entity.ProvisionReport, dryRun bool) (entity.ResourceOutcome, error) {
	outcome := entity.ResourceOutcome{Phase: report.Phase, Kind: "logs:log-group", Name: name}

	group, err := uc.awsRepo.FindLogGroup(ctx, profile, name)
	if err != nil {
		return outcome, err
	}

	if group == nil {
		outcome.Arn = logGroupArn(report.Region, report.AccountID, name)
		if !dryRun {
			if err := uc.awsRepo.CreateLogGroup(ctx, profile, name); err != nil {
				return outcome, err
			}
			if cfg.RetentionDays > 0 {
				if err := uc.awsRepo.PutLogGroupRetention(ctx, profile, name, cfg.RetentionDays); err != nil {
					return outcome, err
				}
			}
		}
		outcome.Action = actionFor(entity.ActionCreated, dryRun)
		return outcome, nil
	}

	outcome.Arn = group.Arn
	if cfg.RetentionDays > 0 && group.RetentionDays != cfg.RetentionDays {
		if !dryRun {
			if err := uc.awsRepo.PutLogGroupRetention(ctx, profile, name, cfg.RetentionDays); err != nil {
				return outcome, err
			}
		}
		outcome.Action = actionFor(entity.ActionUpdated, dryRun)
		outcome.Detail = fmt.Sprintf("retention set to %d days", cfg.RetentionDays)
		return outcome, nil
	}

	outcome.Action = entity.ActionExists
	return outcome, nil
}

// ensureMonitorPolicyCovers garante que a versão default da policy do monitor
// lista o ARN do log group. Atualizar significa criar uma nova versão default;
// no limite de 5 versões a mais antiga não-default é descartada antes.
func (uc *MonitorUseCase) ensureMonitorPolicyCovers(ctx context.Context, profile string, policy *entity.Policy, groupArn string, report *entity.ProvisionReport, dryRun bool) (entity.ResourceOutcome, error) {
	outcome := entity.ResourceOutcome{
		Phase: report.Phase,
		Kind:  "iam:policy-version",
		Name:  policy.Name,
		Arn:   policy.Arn,
	}

	document, err := uc.awsRepo.GetPolicyDocument(ctx, profile, policy.Arn, policy.DefaultVersionID)
	if err != nil {
		return outcome, err
	}
	doc, err := entity.ParsePolicyDocument(document)
	if err != nil {
		return outcome, err
	}

	statement := doc.FindStatement(entity.SidReadApplicationLogs)
	if statement == nil {
		return outcome, fmt.Errorf("policy %s has no %s statement, was it created by this tool?",
			policy.Name, entity.SidReadApplicationLogs)
	}
	if statement.Covers(groupArn) {
		outcome.Action = entity.ActionExists
		return outcome, nil
	}

	statement.Resource = append(statement.Resource, groupArn)
	updated, err := doc.Render()
	if err != nil {
		return outcome, err
	}

	if !dryRun {
		versions, err := uc.awsRepo.ListPolicyVersions(ctx, profile, policy.Arn)
		if err != nil {
			return outcome, err
		}
		if len(versions) >= policyVersionLimit {
			victim, ok := oldestRemovableVersion(versions)
			if !ok {
				return outcome, fmt.Errorf("policy %s is at the version limit and has no removable version", policy.Name)
			}
			if err := uc.awsRepo.DeletePolicyVersion(ctx, profile, policy.Arn, victim); err != nil {
				return outcome, err
			}
		}
		if err := uc.awsRepo.CreatePolicyVersion(ctx, profile, policy.Arn, updated); err != nil {
			return outcome, err
		}
	}

	outcome.Action = actionFor(entity.ActionUpdated, dryRun)
	outcome.Detail = fmt.Sprintf("added %s", groupArn)
	return outcome, nil
}

// ensureSubscriptionFilter instala o filtro de eventos de conclusão no log
// group da aplicação, apontando para a função de monitoramento.
func (uc *MonitorUseCase) ensureSubscriptionFilter(ctx context.Context, profile, logGroupName, monitorArn string, report *entity.ProvisionReport, dryRun bool) (entity.ResourceOutcome, error) {
	outcome := entity.ResourceOutcome{
		Phase: report.Phase,
		Kind:  "logs:subscription-filter",
		Name:  subscriptionFilterName,
		Arn:   monitorArn,
	}

	want := entity.SubscriptionFilter{
		Name:           subscriptionFilterName,
		LogGroupName:   logGroupName,
		FilterPattern:  completionFilterPattern,
		DestinationArn: monitorArn,
	}

	existing, err := uc.awsRepo.FindSubscriptionFilter(ctx, profile, logGroupName, subscriptionFilterName)
	if err != nil {
		return outcome, err
	}
	if existing != nil {
		if existing.FilterPattern == want.FilterPattern && existing.DestinationArn == want.DestinationArn {
			outcome.Action = entity.ActionExists
			return outcome, nil
		}
		if !dryRun {
			if err := uc.awsRepo.PutSubscriptionFilter(ctx, profile, want); err != nil {
				return outcome, err
			}
		}
		outcome.Action = actionFor(entity.ActionUpdated, dryRun)
		outcome.Detail = "filter pattern or destination corrected"
		return outcome, nil
	}

	if !dryRun {
		if err := uc.awsRepo.PutSubscriptionFilter(ctx, profile, want); err != nil {
			return outcome, err
		}
	}
	outcome.Action = actionFor(entity.ActionCreated, dryRun)
	return outcome, nil
}

// ensureSubscriptions garante uma assinatura de e-mail por assinante
// configurado. Assinaturas novas ficam pendentes até confirmação.
func (uc *MonitorUseCase) ensureSubscriptions(ctx context.Context, profile string, cfg *types.Config, application string, topic *entity.Topic, report *entity.ProvisionReport, dryRun bool) ([]entity.ResourceOutcome, error) {
	existing, err := uc.awsRepo.ListSubscriptions(ctx, profile, topic.Arn)
	if err != nil {
		return nil, err
	}

	subscribed := make(map[string]bool, len(existing))
	for _, s := range existing {
		if s.Protocol == "email" {
			subscribed[s.Endpoint] = true
		}
	}

	var outcomes []entity.ResourceOutcome
	for _, email := range cfg.Subscribers {
		outcome := entity.ResourceOutcome{
			Phase: report.Phase,
			Kind:  "sns:subscription",
			Name:  email,
			Arn:   topic.Arn,
		}

		if subscribed[email] {
			outcome.Action = entity.ActionExists
			outcomes = append(outcomes, outcome)
			continue
		}

		filterPolicy, err := buildFilterPolicy(application, cfg.Statuses)
		if err != nil {
			return outcomes, err
		}
		if !dryRun {
			if _, err := uc.awsRepo.Subscribe(ctx, profile, topic.Arn, "email", email, filterPolicy); err != nil {
				return outcomes, err
			}
		}
		outcome.Action = actionFor(entity.ActionCreated, dryRun)
		outcome.Detail = "pending confirmation"
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
