package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func (r *AWSRepositoryImpl) s3Client(ctx context.Context, profile string) (*s3.Client, error) {
	client, err := r.getServiceClient(ctx, profile, "s3")
	if err != nil {
		return nil, err
	}
	return client.(*s3.Client), nil
}

// ObjectExists verifica se o pacote de deployment existe no bucket antes de
// referenciá-lo no CreateFunction.
func (r *AWSRepositoryImpl) ObjectExists(ctx context.Context, profile, bucket, key string) (bool, error) {
	client, err := r.s3Client(ctx, profile)
	if err != nil {
		return false, err
	}

	_, err = client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *s3Types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("error checking s3://%s/%s: %w", bucket, key, err)
	}
	return true, nil
}
