package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
)

func (r *AWSRepositoryImpl) snsClient(ctx context.Context, profile string) (*sns.Client, error) {
	client, err := r.getServiceClient(ctx, profile, "sns")
	if err != nil {
		return nil, err
	}
	return client.(*sns.Client), nil
}

// FindTopic procura um tópico pelo nome. Retorna nil quando ausente.
func (r *AWSRepositoryImpl) FindTopic(ctx context.Context, profile, name string) (*entity.Topic, error) {
	client, err := r.snsClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	accountID, err := r.GetAccountID(ctx, profile)
	if err != nil {
		return nil, err
	}
	region, err := r.GetRegion(ctx, profile)
	if err != nil {
		return nil, err
	}
	arn := fmt.Sprintf("arn:aws:sns:%s:%s:%s", region, accountID, name)

	_, err = client.GetTopicAttributes(ctx, &sns.GetTopicAttributesInput{
		TopicArn: aws.String(arn),
	})
	if err != nil {
		var notFound *snsTypes.NotFoundException
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error looking up topic %s: %w", name, err)
	}

	return &entity.Topic{Name: name, Arn: arn}, nil
}

// CreateTopic cria o tópico de relatórios.
func (r *AWSRepositoryImpl) CreateTopic(ctx context.Context, profile, name string) (*entity.Topic, error) {
	client, err := r.snsClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	out, err := client.CreateTopic(ctx, &sns.CreateTopicInput{Name: aws.String(name)})
	if err != nil {
		return nil, fmt.Errorf("error creating topic %s: %w", name, err)
	}

	return &entity.Topic{Name: name, Arn: aws.ToString(out.TopicArn)}, nil
}

// ListSubscriptions lista as assinaturas do tópico.
func (r *AWSRepositoryImpl) ListSubscriptions(ctx context.Context, profile, topicArn string) ([]entity.Subscription, error) {
	client, err := r.snsClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	var subscriptions []entity.Subscription
	paginator := sns.NewListSubscriptionsByTopicPaginator(client, &sns.ListSubscriptionsByTopicInput{
		TopicArn: aws.String(topicArn),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing subscriptions of %s: %w", topicArn, err)
		}
		for _, s := range page.Subscriptions {
			subscriptions = append(subscriptions, entity.Subscription{
				Arn:      aws.ToString(s.SubscriptionArn),
				Protocol: aws.ToString(s.Protocol),
				Endpoint: aws.ToString(s.Endpoint),
			})
		}
	}
	return subscriptions, nil
}

// Subscribe cria uma assinatura do tópico com a filter policy informada.
// Assinaturas de e-mail ficam pendentes até o destinatário confirmar.
func (r *AWSRepositoryImpl) Subscribe(ctx context.Context, profile, topicArn, protocol, endpoint, filterPolicy string) (*entity.Subscription, error) {
	client, err := r.snsClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	input := &sns.SubscribeInput{
		TopicArn:              aws.String(topicArn),
		Protocol:              aws.String(protocol),
		Endpoint:              aws.String(endpoint),
		ReturnSubscriptionArn: true,
	}
	if filterPolicy != "" {
		input.Attributes = map[string]string{"FilterPolicy": filterPolicy}
	}

	out, err := client.Subscribe(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("error subscribing %s to %s: %w", endpoint, topicArn, err)
	}

	return &entity.Subscription{
		Arn:      aws.ToString(out.SubscriptionArn),
		Protocol: protocol,
		Endpoint: endpoint,
	}, nil
}
