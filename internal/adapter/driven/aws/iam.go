package aws

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamTypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
)

func (r *AWSRepositoryImpl) iamClient(ctx context.Context, profile string) (*iam.Client, error) {
	client, err := r.getServiceClient(ctx, profile, "iam")
	if err != nil {
		return nil, err
	}
	return client.(*iam.Client), nil
}

// policyArn monta o ARN de uma managed policy da conta.
func (r *AWSRepositoryImpl) policyArn(ctx context.Context, profile, name string) (string, error) {
	accountID, err := r.GetAccountID(ctx, profile)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("arn:aws:iam::%s:policy/%s", accountID, name), nil
}

// FindPolicy procura uma managed policy pelo nome. Retorna nil quando ausente.
func (r *AWSRepositoryImpl) FindPolicy(ctx context.Context, profile, name string) (*entity.Policy, error) {
	client, err := r.iamClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	arn, err := r.policyArn(ctx, profile, name)
	if err != nil {
		return nil, err
	}

	out, err := client.GetPolicy(ctx, &iam.GetPolicyInput{PolicyArn: aws.String(arn)})
	if err != nil {
		var notFound *iamTypes.NoSuchEntityException
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error looking up policy %s: %w", name, err)
	}

	return &entity.Policy{
		Name:             aws.ToString(out.Policy.PolicyName),
		Arn:              aws.ToString(out.Policy.Arn),
		DefaultVersionID: aws.ToString(out.Policy.DefaultVersionId),
	}, nil
}

// CreatePolicy cria uma managed policy com o documento informado.
func (r *AWSRepositoryImpl) CreatePolicy(ctx context.Context, profile, name, description, document string) (*entity.Policy, error) {
	client, err := r.iamClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	out, err := client.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     aws.String(name),
		PolicyDocument: aws.String(document),
		Description:    aws.String(description),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating policy %s: %w", name, err)
	}

	return &entity.Policy{
		Name:             aws.ToString(out.Policy.PolicyName),
		Arn:              aws.ToString(out.Policy.Arn),
		DefaultVersionID: aws.ToString(out.Policy.DefaultVersionId),
	}, nil
}

// GetPolicyDocument retorna o documento de uma versão da policy.
// O IAM devolve o documento URL-encoded.
func (r *AWSRepositoryImpl) GetPolicyDocument(ctx context.Context, profile, policyArn, versionID string) (string, error) {
	client, err := r.iamClient(ctx, profile)
	if err != nil {
		return "", err
	}

	out, err := client.GetPolicyVersion(ctx, &iam.GetPolicyVersionInput{
		PolicyArn: aws.String(policyArn),
		VersionId: aws.String(versionID),
	})
	if err != nil {
		return "", fmt.Errorf("error getting policy version %s of %s: %w", versionID, policyArn, err)
	}

	document, err := url.QueryUnescape(aws.ToString(out.PolicyVersion.Document))
	if err != nil {
		return "", fmt.Errorf("error decoding policy document: %w", err)
	}
	return document, nil
}

// ListPolicyVersions lista as versões existentes de uma managed policy.
func (r *AWSRepositoryImpl) ListPolicyVersions(ctx context.Context, profile, policyArn string) ([]entity.PolicyVersion, error) {
	client, err := r.iamClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	out, err := client.ListPolicyVersions(ctx, &iam.ListPolicyVersionsInput{
		PolicyArn: aws.String(policyArn),
	})
	if err != nil {
		return nil, fmt.Errorf("error listing versions of %s: %w", policyArn, err)
	}

	versions := make([]entity.PolicyVersion, 0, len(out.Versions))
	for _, v := range out.Versions {
		pv := entity.PolicyVersion{
			VersionID: aws.ToString(v.VersionId),
			IsDefault: v.IsDefaultVersion,
		}
		if v.CreateDate != nil {
			pv.CreateDate = *v.CreateDate
		}
		versions = append(versions, pv)
	}
	return versions, nil
}

// CreatePolicyVersion cria uma nova versão default da policy.
func (r *AWSRepositoryImpl) CreatePolicyVersion(ctx context.Context, profile, policyArn, document string) error {
	client, err := r.iamClient(ctx, profile)
	if err != nil {
		return err
	}

	_, err = client.CreatePolicyVersion(ctx, &iam.CreatePolicyVersionInput{
		PolicyArn:      aws.String(policyArn),
		PolicyDocument: aws.String(document),
		SetAsDefault:   true,
	})
	if err != nil {
		return fmt.Errorf("error creating new version of %s: %w", policyArn, err)
	}
	return nil
}

// DeletePolicyVersion remove uma versão não-default da policy.
func (r *AWSRepositoryImpl) DeletePolicyVersion(ctx context.Context, profile, policyArn, versionID string) error {
	client, err := r.iamClient(ctx, profile)
	if err != nil {
		return err
	}

	_, err = client.DeletePolicyVersion(ctx, &iam.DeletePolicyVersionInput{
		PolicyArn: aws.String(policyArn),
		VersionId: aws.String(versionID),
	})
	if err != nil {
		return fmt.Errorf("error deleting version %s of %s: %w", versionID, policyArn, err)
	}
	return nil
}

// FindRole procura uma role pelo nome. Retorna nil quando ausente.
func (r *AWSRepositoryImpl) FindRole(ctx context.Context, profile, name string) (*entity.Role, error) {
	client, err := r.iamClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	out, err := client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(name)})
	if err != nil {
		var notFound *iamTypes.NoSuchEntityException
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error looking up role %s: %w", name, err)
	}

	return &entity.Role{
		Name: aws.ToString(out.Role.RoleName),
		Arn:  aws.ToString(out.Role.Arn),
	}, nil
}

// CreateRole cria uma role com a trust policy informada.
func (r *AWSRepositoryImpl) CreateRole(ctx context.Context, profile, name, description, trustDocument string) (*entity.Role, error) {
	client, err := r.iamClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	out, err := client.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(name),
		AssumeRolePolicyDocument: aws.String(trustDocument),
		Description:              aws.String(description),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating role %s: %w", name, err)
	}

	return &entity.Role{
		Name: aws.ToString(out.Role.RoleName),
		Arn:  aws.ToString(out.Role.Arn),
	}, nil
}

// ListAttachedRolePolicies lista os ARNs das managed policies anexadas à role.
func (r *AWSRepositoryImpl) ListAttachedRolePolicies(ctx context.Context, profile, roleName string) ([]string, error) {
	client, err := r.iamClient(ctx, profile)
	if err != nil {
		return nil, err
	}

	var arns []string
	paginator := iam.NewListAttachedRolePoliciesPaginator(client, &iam.ListAttachedRolePoliciesInput{
		RoleName: aws.String(roleName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing attached policies of role %s: %w", roleName, err)
		}
		for _, p := range page.AttachedPolicies {
			arns = append(arns, aws.ToString(p.PolicyArn))
		}
	}
	return arns, nil
}

// AttachRolePolicy anexa uma managed policy a uma role.
func (r *AWSRepositoryImpl) AttachRolePolicy(ctx context.Context, profile, roleName, policyArn string) error {
	client, err := r.iamClient(ctx, profile)
	if err != nil {
		return err
	}

	_, err = client.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(roleName),
		PolicyArn: aws.String(policyArn),
	})
	if err != nil {
		return fmt.Errorf("error attaching policy %s to role %s: %w", policyArn, roleName, err)
	}
	return nil
}
