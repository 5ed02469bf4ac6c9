package ports

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/acm"
)

// ACMAPI is the ACM call used to check a domain name certificate reference.
type ACMAPI interface {
	DescribeCertificate(ctx context.Context, in *acm.DescribeCertificateInput, optFns ...func(*acm.Options)) (*acm.DescribeCertificateOutput, error)
}

// CertificateSource resolves the certificate material of a custom domain name.
type CertificateSource interface {
	// VerifyCertificate fails unless the ACM certificate exists and is issued.
	VerifyCertificate(ctx context.Context, certificateArn string) error

	// ServerCertificate returns the PEM body and chain of an IAM server certificate.
	ServerCertificate(ctx context.Context, name string) (body, chain string, err error)

	// PrivateKey reads a PEM private key stored in Secrets Manager.
	PrivateKey(ctx context.Context, secretID string) (string, error)
}
