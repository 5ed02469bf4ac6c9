package apigateway

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway/types"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/patch"
)

// DefaultSettleDelay separates the dependent writes of a multi-step create.
const DefaultSettleDelay = 100 * time.Millisecond

// Config holds the knobs shared by the services.
type Config struct {
	// SettleDelay is slept between the steps of a method create.
	SettleDelay time.Duration
}

// Services bundles one use case per resource kind, all sharing one client.
type Services struct {
	RestAPI         *RestAPIUseCase
	Resource        *ResourceUseCase
	Method          *MethodUseCase
	Cors            *CorsUseCase
	DomainName      *DomainNameUseCase
	BasePathMapping *BasePathMappingUseCase
	APIImport       *APIImportUseCase
}

// NewServices wires every use case.
func NewServices(client ports.APIGatewayClient, certs ports.CertificateSource, defs ports.DefinitionSource, cfg Config) *Services {
	cors := NewCorsUseCase(client, cfg)
	return &Services{
		RestAPI:         NewRestAPIUseCase(client, cors),
		Resource:        NewResourceUseCase(client, cors),
		Method:          NewMethodUseCase(client, cors, cfg),
		Cors:            cors,
		DomainName:      NewDomainNameUseCase(client, certs),
		BasePathMapping: NewBasePathMappingUseCase(client),
		APIImport:       NewAPIImportUseCase(client, defs),
	}
}

// resolveRestAPI returns id, or looks the API up by name when no id was given.
func resolveRestAPI(ctx context.Context, lookup ports.RestAPILookup, id, name string) (string, error) {
	if id != "" {
		return id, nil
	}
	if name == "" {
		return "", faults.Validation("restApiId", "missing parameter")
	}
	return lookup.FindByName(ctx, name)
}

// ignoreNotFound turns "already gone" into success.
func ignoreNotFound(err error) error {
	if faults.IsNotFound(err) {
		return nil
	}
	return err
}

func toPatchOperations(ops []patch.Operation) []types.PatchOperation {
	out := make([]types.PatchOperation, 0, len(ops))
	for _, op := range ops {
		p := types.PatchOperation{Op: types.Op(op.Op), Path: aws.String(op.Path)}
		if op.Op != patch.OpRemove {
			p.Value = aws.String(patchValue(op.Value))
		}
		out = append(out, p)
	}
	return out
}

func patchValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// loggableOps renders operations for logs with secret values masked.
func loggableOps(ops []patch.Operation) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		value := patchValue(op.Value)
		if faults.IsSensitiveKey(op.Path) {
			value = faults.Redacted
		}
		if op.Op == patch.OpRemove {
			out = append(out, fmt.Sprintf("%s %s", op.Op, op.Path))
			continue
		}
		out = append(out, fmt.Sprintf("%s %s=%s", op.Op, op.Path, value))
	}
	return out
}
