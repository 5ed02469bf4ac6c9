// Package certificates resolves the certificate material of custom domain
// names from ACM, IAM server certificates and Secrets Manager.
package certificates

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsacm "github.com/aws/aws-sdk-go-v2/service/acm"
	acmtypes "github.com/aws/aws-sdk-go-v2/service/acm/types"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	awssm "github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/metrics"
)

var _ ports.CertificateSource = (*Source)(nil)

// Source implements ports.CertificateSource.
type Source struct {
	acm     ports.ACMAPI
	iam     ports.IAMAPI
	secrets ports.SecretsManagerAPI
}

// NewSource builds a Source from explicit clients.
func NewSource(acm ports.ACMAPI, iam ports.IAMAPI, secrets ports.SecretsManagerAPI) *Source {
	return &Source{acm: acm, iam: iam, secrets: secrets}
}

// NewSourceFromConfig builds the SDK clients from an AWS config.
func NewSourceFromConfig(cfg aws.Config) *Source {
	return NewSource(awsacm.NewFromConfig(cfg), awsiam.NewFromConfig(cfg), awssm.NewFromConfig(cfg))
}

func invalid(field string, cause error, format string, args ...any) error {
	e := faults.Wrap(faults.ValidationError, cause, fmt.Sprintf("invalid parameter {%s}: %s", field, fmt.Sprintf(format, args...)))
	return e.WithDetail("field", field)
}

// VerifyCertificate fails unless the ACM certificate exists and is issued.
func (s *Source) VerifyCertificate(ctx context.Context, certificateArn string) error {
	logger := log.FromContext(ctx).WithValues("certificateArn", certificateArn)

	recorder := metrics.NewAWSAPIMetricsRecorder(metrics.ServiceACM, "DescribeCertificate")
	out, err := s.acm.DescribeCertificate(ctx, &awsacm.DescribeCertificateInput{CertificateArn: aws.String(certificateArn)})
	if err != nil {
		recorder.RecordError(err)
		var nf *acmtypes.ResourceNotFoundException
		if errors.As(err, &nf) {
			return invalid("certificateArn", err, "certificate %s does not exist", certificateArn)
		}
		logger.Error(err, "Failed to describe certificate")
		return faults.Wrap(faults.RemoteOther, err, "failed to describe certificate")
	}
	recorder.RecordSuccess()

	if out.Certificate == nil || out.Certificate.Status != acmtypes.CertificateStatusIssued {
		status := "UNKNOWN"
		if out.Certificate != nil {
			status = string(out.Certificate.Status)
		}
		return invalid("certificateArn", nil, "certificate %s is %s, expected ISSUED", certificateArn, status)
	}
	return nil
}

// ServerCertificate returns the PEM body and chain of an IAM server certificate.
func (s *Source) ServerCertificate(ctx context.Context, name string) (string, string, error) {
	recorder := metrics.NewAWSAPIMetricsRecorder(metrics.ServiceIAM, "GetServerCertificate")
	out, err := s.iam.GetServerCertificate(ctx, &awsiam.GetServerCertificateInput{ServerCertificateName: aws.String(name)})
	if err != nil {
		recorder.RecordError(err)
		var nf *iamtypes.NoSuchEntityException
		if errors.As(err, &nf) {
			return "", "", invalid("iamServerCertificateName", err, "server certificate %s does not exist", name)
		}
		log.FromContext(ctx).Error(err, "Failed to get server certificate", "serverCertificateName", name)
		return "", "", faults.Wrap(faults.RemoteOther, err, "failed to get server certificate")
	}
	recorder.RecordSuccess()

	if out.ServerCertificate == nil {
		return "", "", invalid("iamServerCertificateName", nil, "server certificate %s has no body", name)
	}
	return aws.ToString(out.ServerCertificate.CertificateBody), aws.ToString(out.ServerCertificate.CertificateChain), nil
}

// PrivateKey reads a PEM private key stored in Secrets Manager. Neither the
// secret value nor any part of it is ever logged.
func (s *Source) PrivateKey(ctx context.Context, secretID string) (string, error) {
	recorder := metrics.NewAWSAPIMetricsRecorder(metrics.ServiceSecretsManager, "GetSecretValue")
	out, err := s.secrets.GetSecretValue(ctx, &awssm.GetSecretValueInput{SecretId: aws.String(secretID)})
	if err != nil {
		recorder.RecordError(err)
		var nf *smtypes.ResourceNotFoundException
		if errors.As(err, &nf) {
			return "", invalid("certificatePrivateKeySecretId", err, "secret %s does not exist", secretID)
		}
		log.FromContext(ctx).Error(err, "Failed to read private key secret", "secretId", secretID)
		return "", faults.Wrap(faults.RemoteOther, err, "failed to read private key secret")
	}
	recorder.RecordSuccess()

	switch {
	case out.SecretString != nil && *out.SecretString != "":
		return *out.SecretString, nil
	case len(out.SecretBinary) > 0:
		return string(out.SecretBinary), nil
	}
	return "", invalid("certificatePrivateKeySecretId", nil, "secret %s is empty", secretID)
}
