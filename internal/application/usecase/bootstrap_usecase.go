package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
	"github.com/diillson/aws-lambda-monitoring-go/internal/shared/types"
)

// RunBootstrap provisiona os recursos compartilhados do monitoramento:
// policy de logging, tópico de relatórios, policy de acesso do monitor,
// role do monitor, função de monitoramento e permissão de invocação.
func (uc *MonitorUseCase) RunBootstrap(ctx context.Context, args *types.CLIArgs) error {
	cfg, err := uc.buildConfig(args)
	if err != nil {
		return err
	}

	profile, err := uc.resolveProfile(cfg)
	if err != nil {
		return err
	}
	uc.awsRepo.SetRegion(cfg.Region)

	status := uc.console.Status("Resolving AWS account...")
	report, err := uc.newReport(ctx, profile, phaseBootstrap, args.DryRun)
	if err != nil {
		status.Stop()
		return err
	}

	// Policy de logging, compartilhada entre aplicações e monitor.
	status.Update(fmt.Sprintf("Ensuring logging policy %s...", cfg.LoggingPolicy))
	loggingPolicy, outcome, err := uc.ensurePolicy(ctx, profile, cfg.LoggingPolicy,
		"Allows Lambda functions to write CloudWatch logs",
		entity.NewLoggingPolicyDocument(), report, args.DryRun)
	if err != nil {
		status.Stop()
		return err
	}
	report.Outcomes = append(report.Outcomes, outcome)

	// Tópico SNS que faz o fan-out dos relatórios.
	status.Update(fmt.Sprintf("Ensuring reporting topic %s...", cfg.ReportingTopic))
	topic, outcome, err := uc.ensureTopic(ctx, profile, cfg.ReportingTopic, report, args.DryRun)
	if err != nil {
		status.Stop()
		return err
	}
	report.Outcomes = append(report.Outcomes, outcome)

	// Policy de acesso do monitor. A lista inicial de resources contém apenas
	// o log group do próprio monitor; cada enroll acrescenta o da aplicação.
	status.Update(fmt.Sprintf("Ensuring monitor policy %s...", cfg.MonitorPolicy))
	monitorDoc := entity.NewMonitorPolicyDocument(
		[]string{logGroupArn(report.Region, report.AccountID, logGroupPrefix+cfg.MonitorFunction)},
		topic.Arn,
	)
	monitorPolicy, outcome, err := uc.ensurePolicy(ctx, profile, cfg.MonitorPolicy,
		"Allows the monitor to read application logs and publish reports",
		monitorDoc, report, args.DryRun)
	if err != nil {
		status.Stop()
		return err
	}
	report.Outcomes = append(report.Outcomes, outcome)

	// Role do monitor com as duas policies anexadas.
	status.Update(fmt.Sprintf("Ensuring monitor role %s...", cfg.MonitorRole))
	role, roleOutcomes, err := uc.ensureMonitorRole(ctx, profile, cfg, loggingPolicy, monitorPolicy, report, args.DryRun)
	if err != nil {
		status.Stop()
		return err
	}
	report.Outcomes = append(report.Outcomes, roleOutcomes...)

	monitorFn, err := uc.awsRepo.FindFunction(ctx, profile, cfg.MonitorFunction)
	if err != nil {
		status.Stop()
		return err
	}

	// O IAM é eventualmente consistente: uma role recém-criada pode ainda não
	// ser visível para o Lambda. Espera limitada antes do CreateFunction.
	if monitorFn == nil && !args.DryRun && report.Changed() > 0 && cfg.PropagationWait > 0 {
		status.Update(fmt.Sprintf("Waiting %ds for IAM propagation...", cfg.PropagationWait))
		select {
		case <-time.After(time.Duration(cfg.PropagationWait) * time.Second):
		case <-ctx.Done():
			status.Stop()
			return ctx.Err()
		}
	}

	// Função Lambda de monitoramento.
	status.Update(fmt.Sprintf("Ensuring monitor function %s...", cfg.MonitorFunction))
	outcome, err = uc.ensureMonitorFunction(ctx, profile, cfg, monitorFn, role, topic, report, args.DryRun)
	if err != nil {
		status.Stop()
		return err
	}
	report.Outcomes = append(report.Outcomes, outcome)

	// Permissão para o CloudWatch Logs invocar o monitor.
	status.Update("Ensuring CloudWatch Logs invoke permission...")
	outcome, err = uc.ensureInvokePermission(ctx, profile, cfg, monitorFn != nil, report, args.DryRun)
	if err != nil {
		status.Stop()
		return err
	}
	report.Outcomes = append(report.Outcomes, outcome)

	status.Stop()

	uc.displayReport(report)
	uc.exportReport(report, args)
	return nil
}

// ensurePolicy cria a managed policy quando ausente. O documento de uma policy
// já existente não é alterado aqui; o enroll cuida das atualizações de versão.
func (uc *MonitorUseCase) ensurePolicy(ctx context.Context, profile, name, description string, doc *entity.PolicyDocument, report *entity.ProvisionReport, dryRun bool) (*entity.Policy, entity.ResourceOutcome, error) {
	outcome := entity.ResourceOutcome{Phase: report.Phase, Kind: "iam:policy", Name: name}

	policy, err := uc.awsRepo.FindPolicy(ctx, profile, name)
	if err != nil {
		return nil, outcome, err
	}
	if policy != nil {
		outcome.Arn = policy.Arn
		outcome.Action = entity.ActionExists
		return policy, outcome, nil
	}

	document, err := doc.Render()
	if err != nil {
		return nil, outcome, err
	}

	if dryRun {
		policy = &entity.Policy{
			Name:             name,
			Arn:              fmt.Sprintf("arn:aws:iam::%s:policy/%s", report.AccountID, name),
			DefaultVersionID: "v1",
		}
	} else {
		policy, err = uc.awsRepo.CreatePolicy(ctx, profile, name, description, document)
		if err != nil {
			return nil, outcome, err
		}
	}

	outcome.Arn = policy.Arn
	outcome.Action = actionFor(entity.ActionCreated, dryRun)
	return policy, outcome, nil
}

// ensureTopic cria o tópico de relatórios quando ausente.
func (uc *MonitorUseCase) ensureTopic(ctx context.Context, profile, name string, report *entity.ProvisionReport, dryRun bool) (*entity.Topic, entity.ResourceOutcome, error) {
	outcome := entity.ResourceOutcome{Phase: report.Phase, Kind: "sns:topic", Name: name}

	topic, err := uc.awsRepo.FindTopic(ctx, profile, name)
	if err != nil {
		return nil, outcome, err
	}
	if topic != nil {
		outcome.Arn = topic.Arn
		outcome.Action = entity.ActionExists
		return topic, outcome, nil
	}

	if dryRun {
		topic = &entity.Topic{
			Name: name,
			Arn:  fmt.Sprintf("arn:aws:sns:%s:%s:%s", report.Region, report.AccountID, name),
		}
	} else {
		topic, err = uc.awsRepo.CreateTopic(ctx, profile, name)
		if err != nil {
			return nil, outcome, err
		}
	}

	outcome.Arn = topic.Arn
	outcome.Action = actionFor(entity.ActionCreated, dryRun)
	return topic, outcome, nil
}

// ensureMonitorRole cria a role do monitor e anexa as duas policies.
func (uc *MonitorUseCase) ensureMonitorRole(ctx context.Context, profile string, cfg *types.Config, loggingPolicy, monitorPolicy *entity.Policy, report *entity.ProvisionReport, dryRun bool) (*entity.Role, []entity.ResourceOutcome, error) {
	outcome := entity.ResourceOutcome{Phase: report.Phase, Kind: "iam:role", Name: cfg.MonitorRole}

	role, err := uc.awsRepo.FindRole(ctx, profile, cfg.MonitorRole)
	if err != nil {
		return nil, nil, err
	}

	created := false
	if role == nil {
		trustDoc, err := entity.NewTrustPolicyDocument("lambda.amazonaws.com").Render()
		if err != nil {
			return nil, nil, err
		}
		if dryRun {
			role = &entity.Role{
				Name: cfg.MonitorRole,
				Arn:  fmt.Sprintf("arn:aws:iam::%s:role/%s", report.AccountID, cfg.MonitorRole),
			}
		} else {
			role, err = uc.awsRepo.CreateRole(ctx, profile, cfg.MonitorRole,
				"Execution role of the Lambda run monitor", trustDoc)
			if err != nil {
				return nil, nil, err
			}
		}
		created = true
	}

	outcome.Arn = role.Arn
	if created {
		outcome.Action = actionFor(entity.ActionCreated, dryRun)
	} else {
		outcome.Action = entity.ActionExists
	}
	outcomes := []entity.ResourceOutcome{outcome}

	// Uma role recém-criada em dry-run não existe para o ListAttachedRolePolicies.
	if created && dryRun {
		for _, p := range []*entity.Policy{loggingPolicy, monitorPolicy} {
			outcomes = append(outcomes, entity.ResourceOutcome{
				Phase:  report.Phase,
				Kind:   "iam:role-attachment",
				Name:   cfg.MonitorRole,
				Arn:    p.Arn,
				Action: entity.ActionWouldUpdate,
				Detail: "policy attached",
			})
		}
		return role, outcomes, nil
	}

	for _, p := range []*entity.Policy{loggingPolicy, monitorPolicy} {
		attachOutcome, err := uc.ensureRolePolicyAttachment(ctx, profile, report.Phase, role.Name, p.Arn, dryRun)
		if err != nil {
			return nil, nil, err
		}
		outcomes = append(outcomes, attachOutcome)
	}

	return role, outcomes, nil
}

// ensureMonitorFunction cria a função de monitoramento quando ausente.
func (uc *MonitorUseCase) ensureMonitorFunction(ctx context.Context, profile string, cfg *types.Config, existing *entity.Function, role *entity.Role, topic *entity.Topic, report *entity.ProvisionReport, dryRun bool) (entity.ResourceOutcome, error) {
	outcome := entity.ResourceOutcome{Phase: report.Phase, Kind: "lambda:function", Name: cfg.MonitorFunction}

	if existing != nil {
		outcome.Arn = existing.Arn
		outcome.Action = entity.ActionExists
		return outcome, nil
	}

	spec := entity.FunctionSpec{
		Name:       cfg.MonitorFunction,
		RoleArn:    role.Arn,
		Runtime:    cfg.Runtime,
		Handler:    cfg.Handler,
		MemorySize: cfg.MemorySize,
		Timeout:    cfg.Timeout,
		Environment: map[string]string{
			"REPORTING_TOPIC_ARN": topic.Arn,
			"LOG_LEVEL":           cfg.LogLevel,
			"DRY_RUN":             "false",
		},
	}

	switch {
	case cfg.CodeFile != "":
		zipData, err := os.ReadFile(cfg.CodeFile)
		if err != nil {
			return outcome, fmt.Errorf("error reading deployment package %s: %w", cfg.CodeFile, err)
		}
		spec.ZipFile = zipData
	case cfg.CodeS3Bucket != "" && cfg.CodeS3Key != "":
		exists, err := uc.awsRepo.ObjectExists(ctx, profile, cfg.CodeS3Bucket, cfg.CodeS3Key)
		if err != nil {
			return outcome, err
		}
		if !exists {
			return outcome, fmt.Errorf("deployment package s3://%s/%s not found", cfg.CodeS3Bucket, cfg.CodeS3Key)
		}
		spec.CodeS3Bucket = cfg.CodeS3Bucket
		spec.CodeS3Key = cfg.CodeS3Key
	default:
		return outcome, types.ErrNoCodePackage
	}

	if dryRun {
		outcome.Arn = fmt.Sprintf("arn:aws:lambda:%s:%s:function:%s", report.Region, report.AccountID, cfg.MonitorFunction)
		outcome.Action = entity.ActionWouldCreate
		return outcome, nil
	}

	fn, err := uc.awsRepo.CreateFunction(ctx, profile, spec)
	if err != nil {
		return outcome, err
	}
	outcome.Arn = fn.Arn
	outcome.Action = entity.ActionCreated
	return outcome, nil
}

// ensureInvokePermission concede ao CloudWatch Logs a permissão de invocar o
// monitor a partir de qualquer log group da conta.
func (uc *MonitorUseCase) ensureInvokePermission(ctx context.Context, profile string, cfg *types.Config, functionExists bool, report *entity.ProvisionReport, dryRun bool) (entity.ResourceOutcome, error) {
	outcome := entity.ResourceOutcome{
		Phase: report.Phase,
		Kind:  "lambda:permission",
		Name:  cfg.MonitorFunction,
	}
	sourceArn := fmt.Sprintf("arn:aws:logs:%s:%s:log-group:*:*", report.Region, report.AccountID)
	outcome.Arn = sourceArn

	// Em dry-run sem função ainda criada não há resource policy a consultar.
	if dryRun && !functionExists {
		outcome.Action = entity.ActionWouldCreate
		return outcome, nil
	}

	has, err := uc.awsRepo.HasInvokePermission(ctx, profile, cfg.MonitorFunction, invokeStatementID)
	if err != nil {
		return outcome, err
	}
	if has {
		outcome.Action = entity.ActionExists
		return outcome, nil
	}

	if !dryRun {
		err = uc.awsRepo.AddInvokePermission(ctx, profile, cfg.MonitorFunction, invokeStatementID,
			"logs.amazonaws.com", sourceArn)
		if err != nil {
			return outcome, err
		}
	}
	outcome.Action = actionFor(entity.ActionCreated, dryRun)
	return outcome, nil
}
