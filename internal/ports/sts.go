package ports

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSAPI checks that the configured credentials work.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}
