package apigateway

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/patch"
)

var _ ports.DomainNameUseCase = (*DomainNameUseCase)(nil)

// DomainNameUseCase manages custom domain names. The private key of an
// uploaded certificate is only ever logged through DomainName.MarshalLog.
type DomainNameUseCase struct {
	client ports.APIGatewayClient
	certs  ports.CertificateSource
}

func NewDomainNameUseCase(client ports.APIGatewayClient, certs ports.CertificateSource) *DomainNameUseCase {
	return &DomainNameUseCase{client: client, certs: certs}
}

func (uc *DomainNameUseCase) Create(ctx context.Context, params *apigateway.DomainName) (*apigateway.DomainName, error) {
	desired := *params
	if err := uc.resolveCertificate(ctx, &desired); err != nil {
		return nil, err
	}
	logger := log.FromContext(ctx).WithValues("domainName", desired.DomainName)

	input := &awsapigw.CreateDomainNameInput{DomainName: aws.String(desired.DomainName)}
	if desired.UsesUploadedCertificate() {
		input.CertificateName = aws.String(desired.CertificateName)
		input.CertificateBody = aws.String(desired.CertificateBody)
		input.CertificateChain = aws.String(desired.CertificateChain)
		input.CertificatePrivateKey = aws.String(desired.CertificatePrivateKey)
	} else {
		input.CertificateArn = aws.String(desired.CertificateArn)
		if desired.CertificateName != "" {
			input.CertificateName = aws.String(desired.CertificateName)
		}
	}

	out, err := uc.client.CreateDomainName(ctx, input)
	if err != nil {
		logger.Error(err, "Failed to create domain name", "params", desired)
		return nil, err
	}
	logger.Info("Domain name created", "params", desired)

	result := *params
	result.DistributionDomainName = aws.ToString(out.DistributionDomainName)
	result.DistributionHostedZoneID = aws.ToString(out.DistributionHostedZoneId)
	result.RegionalDomainName = aws.ToString(out.RegionalDomainName)
	return &result, nil
}

// Update patches the certificate of the domain. A different domain name is a
// new domain and is created instead.
func (uc *DomainNameUseCase) Update(ctx context.Context, physicalID string, params, old *apigateway.DomainName) (*apigateway.DomainName, error) {
	if params.DomainName != physicalID {
		return uc.Create(ctx, params)
	}
	logger := log.FromContext(ctx).WithValues("domainName", physicalID)

	desired := *params
	if err := uc.resolveCertificate(ctx, &desired); err != nil {
		return nil, err
	}
	previous, policy := previousCertificateState(params, old)

	ops := patch.Diff(patch.StateOf(&desired), patch.StateOf(&previous), policy)
	if len(ops) > 0 {
		logger.Info("Updating domain name", "operations", loggableOps(ops))
		if _, err := uc.client.UpdateDomainName(ctx, &awsapigw.UpdateDomainNameInput{
			DomainName:      aws.String(physicalID),
			PatchOperations: toPatchOperations(ops),
		}); err != nil {
			logger.Error(err, "Failed to update domain name", "params", desired)
			return nil, err
		}
	}

	out, err := uc.client.GetDomainName(ctx, &awsapigw.GetDomainNameInput{DomainName: aws.String(physicalID)})
	if err != nil {
		logger.Error(err, "Failed to get domain name")
		return nil, err
	}

	result := *params
	result.DistributionDomainName = aws.ToString(out.DistributionDomainName)
	result.DistributionHostedZoneID = aws.ToString(out.DistributionHostedZoneId)
	result.RegionalDomainName = aws.ToString(out.RegionalDomainName)
	if name := aws.ToString(out.CertificateName); name != "" {
		result.CertificateName = name
	}
	return &result, nil
}

func (uc *DomainNameUseCase) Delete(ctx context.Context, physicalID string, params *apigateway.DomainName) error {
	name := physicalID
	if name == "" && params != nil {
		name = params.DomainName
	}
	if name == "" {
		return nil
	}

	_, err := uc.client.DeleteDomainName(ctx, &awsapigw.DeleteDomainNameInput{DomainName: aws.String(name)})
	if err = ignoreNotFound(err); err != nil {
		log.FromContext(ctx).Error(err, "Failed to delete domain name", "domainName", name)
		return err
	}
	return nil
}

// previousCertificateState returns the state and policy to diff the desired
// domain against. References of the previous state are not read again: with
// unchanged references the material they point at is taken as unchanged, and
// any other change of source writes the new certificate in full.
func previousCertificateState(desired, old *apigateway.DomainName) (apigateway.DomainName, patch.Policy) {
	if desired.SameCertificateSource(old) {
		previous := *old
		if previous.NormalizeCertificates() == nil {
			return previous, apigateway.DomainNamePolicy
		}
	}

	var previous apigateway.DomainName
	if old != nil {
		previous.CertificateArn = old.CertificateArn
	}
	return previous, apigateway.DomainNameSourcePolicy
}

// resolveCertificate fills d with the certificate material it references and
// normalises the PEM parts.
func (uc *DomainNameUseCase) resolveCertificate(ctx context.Context, d *apigateway.DomainName) error {
	if !d.UsesUploadedCertificate() {
		return uc.certs.VerifyCertificate(ctx, d.CertificateArn)
	}

	if d.IAMServerCertificateName != "" {
		body, chain, err := uc.certs.ServerCertificate(ctx, d.IAMServerCertificateName)
		if err != nil {
			return err
		}
		d.CertificateBody, d.CertificateChain = body, chain
	}
	if d.CertificatePrivateKey == "" && d.CertificatePrivateKeySecretID != "" {
		key, err := uc.certs.PrivateKey(ctx, d.CertificatePrivateKeySecretID)
		if err != nil {
			return err
		}
		d.CertificatePrivateKey = key
	}

	if err := d.NormalizeCertificates(); err != nil {
		return faults.Wrap(faults.ValidationError, err, "invalid certificate")
	}
	return nil
}
