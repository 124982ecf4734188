package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdaTypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
)

func (r *AWSRepositoryImpl) lambdaClient(ctx context.Context, profile string) (*lambda.Client, error) {
	client, err := r.getServiceClient(ctx, profile, "lambda")
	if err != nil {
		return nil, err
	}
	return client.(*lambda.Client), nil
}

// FindFunction procura uma função pelo nome. Retorna nil quando ausente.
func (r *AWSRepositoryImpl) FindFunction(ctx context.Context, profile, name string) (*entity.Function, error) {
	client, err := r.lambdaClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	out, err := client.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(name),
	})
	if err != nil {
		var notFound *lambdaTypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error looking up function %s: %w", name, err)
	}

	return &entity.Function{
		Name:    aws.ToString(out.Configuration.FunctionName),
		Arn:     aws.ToString(out.Configuration.FunctionArn),
		RoleArn: aws.ToString(out.Configuration.Role),
	}, nil
}

// CreateFunction cria a função Lambda de monitoramento.
func (r *AWSRepositoryImpl) CreateFunction(ctx context.Context, profile string, spec entity.FunctionSpec) (*entity.Function, error) {
	client, err := r.lambdaClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	code := &lambdaTypes.FunctionCode{}
	if len(spec.ZipFile) > 0 {
		code.ZipFile = spec.ZipFile
	} else {
		code.S3Bucket = aws.String(spec.CodeS3Bucket)
		code.S3Key = aws.String(spec.CodeS3Key)
	}

	input := &lambda.CreateFunctionInput{
		FunctionName: aws.String(spec.Name),
		Role:         aws.String(spec.RoleArn),
		Runtime:      lambdaTypes.Runtime(spec.Runtime),
		Handler:      aws.String(spec.Handler),
		MemorySize:   aws.Int32(int32(spec.MemorySize)),
		Timeout:      aws.Int32(int32(spec.Timeout)),
		Code:         code,
	}
	if len(spec.Environment) > 0 {
		input.Environment = &lambdaTypes.Environment{Variables: spec.Environment}
	}

	out, err := client.CreateFunction(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("error creating function %s: %w", spec.Name, err)
	}

	return &entity.Function{
		Name:    aws.ToString(out.FunctionName),
		Arn:     aws.ToString(out.FunctionArn),
		RoleArn: aws.ToString(out.Role),
	}, nil
}

// HasInvokePermission informa se a resource policy da função já contém o
// statement informado.
func (r *AWSRepositoryImpl) HasInvokePermission(ctx context.Context, profile, functionName, statementID string) (bool, error) {
	client, err := r.lambdaClient(ctx, profile)
	if err != nil {
		return false, err
	}

	out, err := client.GetPolicy(ctx, &lambda.GetPolicyInput{
		FunctionName: aws.String(functionName),
	})
	if err != nil {
		// função sem resource policy ainda
		var notFound *lambdaTypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("error getting resource policy of %s: %w", functionName, err)
	}

	doc, err := entity.ParsePolicyDocument(aws.ToString(out.Policy))
	if err != nil {
		return false, err
	}
	return doc.FindStatement(statementID) != nil, nil
}

// AddInvokePermission concede lambda:InvokeFunction ao principal informado.
func (r *AWSRepositoryImpl) AddInvokePermission(ctx context.Context, profile, functionName, statementID, principal, sourceArn string) error {
	client, err := r.lambdaClient(ctx, profile)
	if err != nil {
		return err
	}

	_, err = client.AddPermission(ctx, &lambda.AddPermissionInput{
		FunctionName: aws.String(functionName),
		StatementId:  aws.String(statementID),
		Action:       aws.String("lambda:InvokeFunction"),
		Principal:    aws.String(principal),
		SourceArn:    aws.String(sourceArn),
	})
	if err != nil {
		return fmt.Errorf("error adding invoke permission to %s: %w", functionName, err)
	}
	return nil
}
