package apigateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/patch"
)

var (
	ErrMissingDomainName        = errors.New("missing parameter {domainName} in input")
	ErrMissingCertificateSource = errors.New("missing parameter {certificateArn, iamServerCertificateName or certificateBody and certificateChain} in input")
	ErrMissingCertificateBody   = errors.New("missing parameter {certificateBody} in input")
	ErrMissingCertificateChain  = errors.New("missing parameter {certificateChain} in input")
	ErrMissingCertificateName   = errors.New("missing parameter {certificateName} in input")
	ErrMissingPrivateKey        = errors.New("missing parameter {certificatePrivateKey} in input")
)

// RedactedValue stands in for the private key wherever a domain name is emitted.
const RedactedValue = "***"

// DomainNamePolicy lists the certificate fields that can be patched in place.
// The domain name itself is the identity of the object and never patched.
var DomainNamePolicy = patch.Policy{
	AddForReplace: []string{"certificateArn"},
	Replace:       []string{"certificateName", "certificateBody", "certificatePrivateKey", "certificateChain", "certificateArn"},
}

// DomainNameSourcePolicy is used instead of DomainNamePolicy when the
// certificate comes from a different source than before. Every field of the
// new source is written and an ACM certificate that is no longer referenced
// is detached.
var DomainNameSourcePolicy = patch.Policy{
	AddForReplace: []string{"certificateArn", "certificateName", "certificateBody", "certificateChain", "certificatePrivateKey"},
	Remove:        []string{"certificateArn"},
}

// DomainName is a custom domain with either an ACM certificate or an uploaded
// certificate (body, chain, private key).
type DomainName struct {
	DomainName string `mapstructure:"domainName" validate:"required"`

	CertificateArn                string `mapstructure:"certificateArn"`
	IAMServerCertificateName      string `mapstructure:"iamServerCertificateName" patch:"-"`
	CertificateName               string `mapstructure:"certificateName"`
	CertificateBody               string `mapstructure:"certificateBody"`
	CertificateChain              string `mapstructure:"certificateChain"`
	CertificatePrivateKey         string `mapstructure:"certificatePrivateKey"`
	CertificatePrivateKeySecretID string `mapstructure:"certificatePrivateKeySecretId" patch:"-"`

	// Output fields from AWS
	DistributionDomainName   string `mapstructure:"-"`
	DistributionHostedZoneID string `mapstructure:"-"`
	RegionalDomainName       string `mapstructure:"-"`
}

// Validate validates the DomainName fields. An ACM certificate needs nothing
// else; an uploaded certificate needs a name, a private key (inline or as a
// secret reference) and either an IAM server certificate or body and chain.
func (d *DomainName) Validate() error {
	if d.DomainName == "" {
		return ErrMissingDomainName
	}
	if d.CertificateArn != "" {
		return nil
	}

	if d.IAMServerCertificateName == "" {
		if d.CertificateBody == "" && d.CertificateChain == "" {
			return ErrMissingCertificateSource
		}
		if d.CertificateBody == "" {
			return ErrMissingCertificateBody
		}
		if d.CertificateChain == "" {
			return ErrMissingCertificateChain
		}
	}
	if d.CertificateName == "" {
		return ErrMissingCertificateName
	}
	if d.CertificatePrivateKey == "" && d.CertificatePrivateKeySecretID == "" {
		return ErrMissingPrivateKey
	}
	return nil
}

// SetDefaults sets default values for the DomainName
func (d *DomainName) SetDefaults() {
	d.DomainName = strings.ToLower(strings.TrimSuffix(d.DomainName, "."))
}

// NormalizeCertificates rebuilds the PEM parts in place.
func (d *DomainName) NormalizeCertificates() error {
	for _, part := range []struct {
		name  string
		value *string
	}{
		{"certificateBody", &d.CertificateBody},
		{"certificateChain", &d.CertificateChain},
		{"certificatePrivateKey", &d.CertificatePrivateKey},
	} {
		if *part.value == "" {
			continue
		}
		normalized, err := NormalizePEM(*part.value)
		if err != nil {
			// never echo the input
			return fmt.Errorf("invalid parameter {%s}: %w", part.name, ErrInvalidPEM)
		}
		*part.value = normalized
	}
	return nil
}

// UsesUploadedCertificate is true when the certificate material travels with the request.
func (d *DomainName) UsesUploadedCertificate() bool {
	return d.CertificateArn == ""
}

// SameCertificateSource reports whether d takes its certificate from the same
// place as old: both ACM, or both uploaded with the same IAM server
// certificate and private key secret references.
func (d *DomainName) SameCertificateSource(old *DomainName) bool {
	if old == nil || d.UsesUploadedCertificate() != old.UsesUploadedCertificate() {
		return false
	}
	if !d.UsesUploadedCertificate() {
		return true
	}
	return d.IAMServerCertificateName == old.IAMServerCertificateName &&
		d.CertificatePrivateKeySecretID == old.CertificatePrivateKeySecretID
}

// Redacted returns a copy safe to log.
func (d DomainName) Redacted() DomainName {
	if d.CertificatePrivateKey != "" {
		d.CertificatePrivateKey = RedactedValue
	}
	return d
}

var _ logr.Marshaler = DomainName{}

// MarshalLog implements logr.Marshaler.
func (d DomainName) MarshalLog() any {
	r := d.Redacted()
	return map[string]string{
		"domainName":                    r.DomainName,
		"certificateArn":                r.CertificateArn,
		"certificateName":               r.CertificateName,
		"iamServerCertificateName":      r.IAMServerCertificateName,
		"certificatePrivateKey":         r.CertificatePrivateKey,
		"certificatePrivateKeySecretId": r.CertificatePrivateKeySecretID,
	}
}

func (d DomainName) String() string {
	r := d.Redacted()
	return fmt.Sprintf("DomainName{domainName: %s, certificateName: %s, certificateArn: %s, certificatePrivateKey: %s}",
		r.DomainName, r.CertificateName, r.CertificateArn, r.CertificatePrivateKey)
}

func (d DomainName) GoString() string {
	return d.String()
}
