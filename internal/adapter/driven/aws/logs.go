package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logsTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
)

func (r *AWSRepositoryImpl) logsClient(ctx context.Context, profile string) (*cloudwatchlogs.Client, error) {
	client, err := r.getServiceClient(ctx, profile, "cloudwatchlogs")
	if err != nil {
		return nil, err
	}
	return client.(*cloudwatchlogs.Client), nil
}

// FindLogGroup procura um log group pelo nome exato. Retorna nil quando ausente.
func (r *AWSRepositoryImpl) FindLogGroup(ctx context.Context, profile, name string) (*entity.LogGroup, error) {
	client, err := r.logsClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(client, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(name),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error looking up log group %s: %w", name, err)
		}
		for _, lg := range page.LogGroups {
			if aws.ToString(lg.LogGroupName) != name {
				continue
			}
			group := &entity.LogGroup{
				Name: name,
				Arn:  aws.ToString(lg.Arn),
			}
			if lg.RetentionInDays != nil {
				group.RetentionDays = int(*lg.RetentionInDays)
			}
			return group, nil
		}
	}
	return nil, nil
}

// CreateLogGroup cria o log group da aplicação.
func (r *AWSRepositoryImpl) CreateLogGroup(ctx context.Context, profile, name string) error {
	client, err := r.logsClient(ctx, profile)
	if err != nil {
		return err
	}

	_, err = client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(name),
	})
	if err != nil {
		// criado por outra execução entre o describe e o create
		var exists *logsTypes.ResourceAlreadyExistsException
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("error creating log group %s: %w", name, err)
	}
	return nil
}

// PutLogGroupRetention define a retenção em dias do log group.
func (r *AWSRepositoryImpl) PutLogGroupRetention(ctx context.Context, profile, name string, days int) error {
	client, err := r.logsClient(ctx, profile)
	if err != nil {
		return err
	}

	_, err = client.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    aws.String(name),
		RetentionInDays: aws.Int32(int32(days)),
	})
	if err != nil {
		return fmt.Errorf("error setting retention of %s: %w", name, err)
	}
	return nil
}

// FindSubscriptionFilter procura um subscription filter pelo nome exato.
// Retorna nil quando o filtro (ou o próprio log group) não existe.
func (r *AWSRepositoryImpl) FindSubscriptionFilter(ctx context.Context, profile, logGroupName, filterName string) (*entity.SubscriptionFilter, error) {
	client, err := r.logsClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	out, err := client.DescribeSubscriptionFilters(ctx, &cloudwatchlogs.DescribeSubscriptionFiltersInput{
		LogGroupName:     aws.String(logGroupName),
		FilterNamePrefix: aws.String(filterName),
	})
	if err != nil {
		var notFound *logsTypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error looking up subscription filter %s on %s: %w", filterName, logGroupName, err)
	}

	for _, f := range out.SubscriptionFilters {
		if aws.ToString(f.FilterName) == filterName {
			return &entity.SubscriptionFilter{
				Name:           filterName,
				LogGroupName:   logGroupName,
				FilterPattern:  aws.ToString(f.FilterPattern),
				DestinationArn: aws.ToString(f.DestinationArn),
			}, nil
		}
	}
	return nil, nil
}

// PutSubscriptionFilter cria (ou substitui) o subscription filter que roteia
// os eventos de conclusão da aplicação para a função de monitoramento.
func (r *AWSRepositoryImpl) PutSubscriptionFilter(ctx context.Context, profile string, filter entity.SubscriptionFilter) error {
	client, err := r.logsClient(ctx, profile)
	if err != nil {
		return err
	}

	_, err = client.PutSubscriptionFilter(ctx, &cloudwatchlogs.PutSubscriptionFilterInput{
		LogGroupName:   aws.String(filter.LogGroupName),
		FilterName:     aws.String(filter.Name),
		FilterPattern:  aws.String(filter.FilterPattern),
		DestinationArn: aws.String(filter.DestinationArn),
	})
	if err != nil {
		return fmt.Errorf("error putting subscription filter %s on %s: %w", filter.Name, filter.LogGroupName, err)
	}
	return nil
}
