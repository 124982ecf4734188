package usecase

import (
	"context"
	"testing"

	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
	"github.com/diillson/aws-lambda-monitoring-go/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bootstrapArgs() *types.CLIArgs {
	return &types.CLIArgs{ConfigFile: "test.yaml"}
}

func TestRunBootstrapCreatesSharedResources(t *testing.T) {
	repo := newFakeAWSRepository()
	repo.s3Objects["deploy-bucket/monitor.zip"] = true
	uc, _, cfg := newTestUseCase(repo)

	err := uc.RunBootstrap(context.Background(), bootstrapArgs())
	require.NoError(t, err)

	assert.NotNil(t, repo.policies[cfg.LoggingPolicy])
	assert.NotNil(t, repo.policies[cfg.MonitorPolicy])
	assert.NotNil(t, repo.topics[cfg.ReportingTopic])
	assert.NotNil(t, repo.roles[cfg.MonitorRole])
	assert.NotNil(t, repo.functions[cfg.MonitorFunction])

	// A role do monitor recebe as duas policies.
	attached := repo.attachments[cfg.MonitorRole]
	require.Len(t, attached, 2)
	assert.Contains(t, attached, repo.policies[cfg.LoggingPolicy].Arn)
	assert.Contains(t, attached, repo.policies[cfg.MonitorPolicy].Arn)

	// A função recebe o ARN do tópico e o log level pelo ambiente.
	spec := repo.functionSpec[cfg.MonitorFunction]
	assert.Equal(t, repo.topics[cfg.ReportingTopic].Arn, spec.Environment["REPORTING_TOPIC_ARN"])
	assert.Equal(t, cfg.LogLevel, spec.Environment["LOG_LEVEL"])
	assert.Equal(t, "deploy-bucket", spec.CodeS3Bucket)

	// O CloudWatch Logs pode invocar o monitor.
	assert.True(t, repo.invokePerms[cfg.MonitorFunction][invokeStatementID])
}

func TestRunBootstrapMonitorPolicyCoversOwnLogGroup(t *testing.T) {
	repo := newFakeAWSRepository()
	repo.s3Objects["deploy-bucket/monitor.zip"] = true
	uc, _, cfg := newTestUseCase(repo)

	require.NoError(t, uc.RunBootstrap(context.Background(), bootstrapArgs()))

	policy := repo.policies[cfg.MonitorPolicy]
	document, err := repo.GetPolicyDocument(context.Background(), "default", policy.Arn, policy.DefaultVersionID)
	require.NoError(t, err)

	doc, err := entity.ParsePolicyDocument(document)
	require.NoError(t, err)

	read := doc.FindStatement(entity.SidReadApplicationLogs)
	require.NotNil(t, read)
	assert.True(t, read.Covers(logGroupArn("us-east-1", "123456789012", "/aws/lambda/"+cfg.MonitorFunction)))

	publish := doc.FindStatement(entity.SidPublishReports)
	require.NotNil(t, publish)
	assert.True(t, publish.Covers(repo.topics[cfg.ReportingTopic].Arn))
}

func TestRunBootstrapIsIdempotent(t *testing.T) {
	repo := newFakeAWSRepository()
	repo.s3Objects["deploy-bucket/monitor.zip"] = true
	uc, _, _ := newTestUseCase(repo)

	require.NoError(t, uc.RunBootstrap(context.Background(), bootstrapArgs()))

	repo.mutations = 0
	require.NoError(t, uc.RunBootstrap(context.Background(), bootstrapArgs()))
	assert.Zero(t, repo.mutations, "second bootstrap must not touch any resource")
}

func TestRunBootstrapDryRunDoesNotMutate(t *testing.T) {
	repo := newFakeAWSRepository()
	repo.s3Objects["deploy-bucket/monitor.zip"] = true
	uc, exportRepo, _ := newTestUseCase(repo)

	args := bootstrapArgs()
	args.DryRun = true
	args.ReportName = "bootstrap"
	args.ReportType = []string{"json"}

	require.NoError(t, uc.RunBootstrap(context.Background(), args))
	assert.Zero(t, repo.mutations)

	require.NotNil(t, exportRepo.lastReport)
	assert.True(t, exportRepo.lastReport.DryRun)
	for _, o := range exportRepo.lastReport.Outcomes {
		assert.NotEqual(t, entity.ActionCreated, o.Action)
		assert.NotEqual(t, entity.ActionUpdated, o.Action)
	}
	assert.Positive(t, exportRepo.lastReport.Changed())
}

func TestRunBootstrapRequiresCodePackage(t *testing.T) {
	repo := newFakeAWSRepository()
	uc, _, cfg := newTestUseCase(repo)
	cfg.CodeS3Bucket = ""
	cfg.CodeS3Key = ""

	err := uc.RunBootstrap(context.Background(), bootstrapArgs())
	assert.ErrorIs(t, err, types.ErrNoCodePackage)
}

func TestRunBootstrapMissingS3Package(t *testing.T) {
	repo := newFakeAWSRepository()
	uc, _, _ := newTestUseCase(repo)

	err := uc.RunBootstrap(context.Background(), bootstrapArgs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://deploy-bucket/monitor.zip")
}
