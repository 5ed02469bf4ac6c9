package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/metrics"
)

// MaxDefinitionSize bounds the size of a definition read from S3. API Gateway
// rejects larger import bodies anyway.
const MaxDefinitionSize = 6 << 20

// Repository implements ports.DefinitionSource using AWS SDK
// This is an Adapter in Hexagonal Architecture
type Repository struct {
	client ports.S3API
}

// NewRepository creates a new S3 definition repository
func NewRepository(awsConfig aws.Config) *Repository {
	// Check for custom endpoint (LocalStack)
	var options []func(*awss3.Options)
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		options = append(options, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // LocalStack requires path-style URLs
		})
	}

	return NewRepositoryWithClient(awss3.NewFromConfig(awsConfig, options...))
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client ports.S3API) *Repository {
	return &Repository{client: client}
}

// Load reads the object at location.
func (r *Repository) Load(ctx context.Context, location *apigateway.S3Location) ([]byte, error) {
	input := &awss3.GetObjectInput{
		Bucket: aws.String(location.Bucket),
		Key:    aws.String(location.Key),
	}
	if location.Version != "" {
		input.VersionId = aws.String(location.Version)
	}

	recorder := metrics.NewAWSAPIMetricsRecorder(metrics.ServiceS3, "GetObject")
	output, err := r.client.GetObject(ctx, input)
	if err != nil {
		recorder.RecordError(err)
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			e := faults.Wrap(faults.ValidationError, err, fmt.Sprintf("invalid parameter {apiDefinitionS3Location}: s3://%s/%s not found", location.Bucket, location.Key))
			return nil, e.WithDetail("field", "apiDefinitionS3Location")
		}
		return nil, faults.Wrap(faults.RemoteOther, err, "failed to get API definition")
	}
	recorder.RecordSuccess()
	defer output.Body.Close()

	body, err := io.ReadAll(io.LimitReader(output.Body, MaxDefinitionSize+1))
	if err != nil {
		return nil, faults.Wrap(faults.RemoteOther, err, "failed to read API definition")
	}
	if len(body) > MaxDefinitionSize {
		return nil, faults.Validation("apiDefinitionS3Location", fmt.Sprintf("definition larger than %d bytes for parameter", MaxDefinitionSize))
	}
	return body, nil
}
