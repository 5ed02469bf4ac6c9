package ports

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
)

// S3API is the single S3 call needed to fetch API definitions.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// DefinitionSource loads OpenAPI/Swagger definitions stored outside the event.
// This is a Port in Hexagonal Architecture - defines WHAT we need, not HOW
type DefinitionSource interface {
	Load(ctx context.Context, location *apigateway.S3Location) ([]byte, error)
}
