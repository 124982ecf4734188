package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
	"github.com/diillson/aws-lambda-monitoring-go/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bootstrappedRepo devolve um fake já provisionado pela fase de bootstrap,
// com uma função de aplicação "orders" e o contador de mutações zerado.
func bootstrappedRepo(t *testing.T) (*fakeAWSRepository, *MonitorUseCase, *types.Config) {
	t.Helper()

	repo := newFakeAWSRepository()
	repo.s3Objects["deploy-bucket/monitor.zip"] = true
	uc, _, cfg := newTestUseCase(repo)

	require.NoError(t, uc.RunBootstrap(context.Background(), bootstrapArgs()))

	repo.functions["orders"] = &entity.Function{
		Name:    "orders",
		Arn:     "arn:aws:lambda:us-east-1:123456789012:function:orders",
		RoleArn: "arn:aws:iam::123456789012:role/orders-execution",
	}
	repo.mutations = 0
	return repo, uc, cfg
}

func enrollArgs(applications ...string) *types.CLIArgs {
	return &types.CLIArgs{ConfigFile: "test.yaml", Applications: applications}
}

func TestRunEnrollWiresApplication(t *testing.T) {
	repo, uc, cfg := bootstrappedRepo(t)

	require.NoError(t, uc.RunEnroll(context.Background(), enrollArgs("orders")))

	// A role da aplicação recebe a policy de logging.
	assert.Contains(t, repo.attachments["orders-execution"], repo.policies[cfg.LoggingPolicy].Arn)

	// Log group da aplicação criado.
	group := repo.logGroups["/aws/lambda/orders"]
	require.NotNil(t, group)

	// A policy do monitor passa a cobrir o log group.
	policy := repo.policies[cfg.MonitorPolicy]
	document, err := repo.GetPolicyDocument(context.Background(), "default", policy.Arn, policy.DefaultVersionID)
	require.NoError(t, err)
	doc, err := entity.ParsePolicyDocument(document)
	require.NoError(t, err)
	read := doc.FindStatement(entity.SidReadApplicationLogs)
	require.NotNil(t, read)
	assert.True(t, read.Covers(logGroupArn("us-east-1", "123456789012", "/aws/lambda/orders")))

	// Subscription filter apontando para o monitor.
	filter, ok := repo.filters["/aws/lambda/orders/"+subscriptionFilterName]
	require.True(t, ok)
	assert.Equal(t, completionFilterPattern, filter.FilterPattern)
	assert.Equal(t, repo.functions[cfg.MonitorFunction].Arn, filter.DestinationArn)

	// Assinatura de e-mail com filter policy por aplicação e status.
	topicArn := repo.topics[cfg.ReportingTopic].Arn
	subs := repo.subs[topicArn]
	require.Len(t, subs, 1)
	assert.Equal(t, "email", subs[0].Protocol)
	assert.Equal(t, "ops@example.com", subs[0].Endpoint)
	assert.JSONEq(t, `{"function":["orders"],"status":["error","warning"]}`, repo.subPolicies[subs[0].Arn])
}

func TestRunEnrollIsIdempotent(t *testing.T) {
	repo, uc, cfg := bootstrappedRepo(t)

	require.NoError(t, uc.RunEnroll(context.Background(), enrollArgs("orders")))

	repo.mutations = 0
	require.NoError(t, uc.RunEnroll(context.Background(), enrollArgs("orders")))
	assert.Zero(t, repo.mutations, "second enroll must not touch any resource")

	// A policy do monitor não acumula versões em reexecuções.
	policy := repo.policies[cfg.MonitorPolicy]
	assert.Len(t, repo.versions[policy.Arn], 2)
}

func TestRunEnrollEvictsOldestPolicyVersion(t *testing.T) {
	repo, uc, cfg := bootstrappedRepo(t)
	policy := repo.policies[cfg.MonitorPolicy]

	// Leva a policy ao limite de 5 versões.
	document, err := repo.GetPolicyDocument(context.Background(), "default", policy.Arn, policy.DefaultVersionID)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		require.NoError(t, repo.CreatePolicyVersion(context.Background(), "default", policy.Arn, document))
	}
	require.Len(t, repo.versions[policy.Arn], 5)
	repo.mutations = 0

	require.NoError(t, uc.RunEnroll(context.Background(), enrollArgs("orders")))

	versions := repo.versions[policy.Arn]
	require.Len(t, versions, 5)
	ids := make([]string, 0, len(versions))
	for _, v := range versions {
		ids = append(ids, v.VersionID)
	}
	assert.NotContains(t, ids, "v1", "oldest non-default version must be evicted")
	assert.Contains(t, ids, "v6")
	assert.Equal(t, "v6", policy.DefaultVersionID)
}

func TestRunEnrollContinuesAfterMissingApplication(t *testing.T) {
	repo, uc, _ := bootstrappedRepo(t)

	err := uc.RunEnroll(context.Background(), enrollArgs("ghost", "orders"))
	require.NoError(t, err, "one failed application must not abort the run")

	assert.NotNil(t, repo.logGroups["/aws/lambda/orders"])
	assert.Nil(t, repo.logGroups["/aws/lambda/ghost"])
}

func TestRunEnrollFailsWhenAllApplicationsMissing(t *testing.T) {
	_, uc, _ := bootstrappedRepo(t)

	err := uc.RunEnroll(context.Background(), enrollArgs("ghost"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enroll")
}

func TestRunEnrollRequiresBootstrap(t *testing.T) {
	repo := newFakeAWSRepository()
	uc, _, _ := newTestUseCase(repo)

	err := uc.RunEnroll(context.Background(), enrollArgs("orders"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run bootstrap first")
}

func TestRunEnrollDryRunDoesNotMutate(t *testing.T) {
	repo, uc, _ := bootstrappedRepo(t)

	args := enrollArgs("orders")
	args.DryRun = true
	require.NoError(t, uc.RunEnroll(context.Background(), args))
	assert.Zero(t, repo.mutations)
}

func TestRunEnrollSetsLogGroupRetention(t *testing.T) {
	repo, uc, _ := bootstrappedRepo(t)

	args := enrollArgs("orders")
	args.RetentionDays = 30
	require.NoError(t, uc.RunEnroll(context.Background(), args))

	group := repo.logGroups["/aws/lambda/orders"]
	require.NotNil(t, group)
	assert.Equal(t, 30, group.RetentionDays)
}

func TestOldestRemovableVersion(t *testing.T) {
	versions := []entity.PolicyVersion{
		{VersionID: "v3", IsDefault: true, CreateDate: date(2026, 3)},
		{VersionID: "v2", IsDefault: false, CreateDate: date(2026, 2)},
		{VersionID: "v1", IsDefault: false, CreateDate: date(2026, 1)},
	}

	id, ok := oldestRemovableVersion(versions)
	require.True(t, ok)
	assert.Equal(t, "v1", id)

	_, ok = oldestRemovableVersion([]entity.PolicyVersion{{VersionID: "v1", IsDefault: true}})
	assert.False(t, ok)
}

func TestBuildFilterPolicy(t *testing.T) {
	policy, err := buildFilterPolicy("orders", []string{"error"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"function":["orders"],"status":["error"]}`, policy)

	policy, err = buildFilterPolicy("orders", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"function":["orders"]}`, policy)
}

func date(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}
