package repository

import (
	"context"

	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
)

// AWSRepository defines the interface for AWS API interactions.
// Os métodos Find* retornam (nil, nil) quando o recurso não existe.
type AWSRepository interface {
	// Profile / account operations
	GetAWSProfiles() []string
	SetRegion(region string)
	GetAccountID(ctx context.Context, profile string) (string, error)
	GetRegion(ctx context.Context, profile string) (string, error)

	// IAM managed policies
	FindPolicy(ctx context.Context, profile, name string) (*entity.Policy, error)
	CreatePolicy(ctx context.Context, profile, name, description, document string) (*entity.Policy, error)
	GetPolicyDocument(ctx context.Context, profile, policyArn, versionID string) (string, error)
	ListPolicyVersions(ctx context.Context, profile, policyArn string) ([]entity.PolicyVersion, error)
	CreatePolicyVersion(ctx context.Context, profile, policyArn, document string) error
	DeletePolicyVersion(ctx context.Context, profile, policyArn, versionID string) error

	// IAM roles
	FindRole(ctx context.Context, profile, name string) (*entity.Role, error)
	CreateRole(ctx context.Context, profile, name, description, trustDocument string) (*entity.Role, error)
	ListAttachedRolePolicies(ctx context.Context, profile, roleName string) ([]string, error)
	AttachRolePolicy(ctx context.Context, profile, roleName, policyArn string) error

	// SNS
	FindTopic(ctx context.Context, profile, name string) (*entity.Topic, error)
	CreateTopic(ctx context.Context, profile, name string) (*entity.Topic, error)
	ListSubscriptions(ctx context.Context, profile, topicArn string) ([]entity.Subscription, error)
	Subscribe(ctx context.Context, profile, topicArn, protocol, endpoint, filterPolicy string) (*entity.Subscription, error)

	// Lambda
	FindFunction(ctx context.Context, profile, name string) (*entity.Function, error)
	CreateFunction(ctx context.Context, profile string, spec entity.FunctionSpec) (*entity.Function, error)
	HasInvokePermission(ctx context.Context, profile, functionName, statementID string) (bool, error)
	AddInvokePermission(ctx context.Context, profile, functionName, statementID, principal, sourceArn string) error

	// CloudWatch Logs
	FindLogGroup(ctx context.Context, profile, name string) (*entity.LogGroup, error)
	CreateLogGroup(ctx context.Context, profile, name string) error
	PutLogGroupRetention(ctx context.Context, profile, name string, days int) error
	FindSubscriptionFilter(ctx context.Context, profile, logGroupName, filterName string) (*entity.SubscriptionFilter, error)
	PutSubscriptionFilter(ctx context.Context, profile string, filter entity.SubscriptionFilter) error

	// S3 (pacote de deployment da função de monitoramento)
	ObjectExists(ctx context.Context, profile, bucket, key string) (bool, error)
}
