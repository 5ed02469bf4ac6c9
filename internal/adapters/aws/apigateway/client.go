package apigateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/apigateway/types"
	"github.com/aws/smithy-go"
	"golang.org/x/time/rate"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/metrics"
)

var (
	_ ports.APIGatewayAPI    = (*awsapigw.Client)(nil)
	_ ports.APIGatewayClient = (*Client)(nil)
)

// Config tunes retries and client side throttling.
type Config struct {
	// Backoff bounds the retries of calls rejected because of contention.
	Backoff wait.Backoff
	// RequestsPerSecond and Burst feed the rate limiter in front of every call.
	// A zero RequestsPerSecond disables the limiter.
	RequestsPerSecond float64
	Burst             int
	// PageSize is the page size of GetRestApis and GetResources.
	PageSize int32
}

// DefaultConfig returns the retry and throttling defaults.
func DefaultConfig() Config {
	return Config{
		Backoff: wait.Backoff{
			Steps:    6,
			Duration: 200 * time.Millisecond,
			Factor:   2,
			Jitter:   0.1,
			Cap:      5 * time.Second,
		},
		RequestsPerSecond: 10,
		Burst:             5,
		PageSize:          500,
	}
}

// Client decorates every API Gateway call with contention retries, rate
// limiting, metrics and error classification.
type Client struct {
	api      ports.APIGatewayAPI
	backoff  wait.Backoff
	limiter  *rate.Limiter
	pageSize int32
}

// NewClient wraps api.
func NewClient(api ports.APIGatewayAPI, cfg Config) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	if cfg.Backoff.Steps <= 0 {
		cfg.Backoff.Steps = 1
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	return &Client{
		api:      api,
		backoff:  cfg.Backoff,
		limiter:  rate.NewLimiter(limit, burst),
		pageSize: cfg.PageSize,
	}
}

// NewFromConfig builds the SDK client from an AWS config and wraps it.
func NewFromConfig(awsCfg aws.Config, cfg Config) *Client {
	return NewClient(awsapigw.NewFromConfig(awsCfg), cfg)
}

// IsContention reports whether err is a transient rejection caused by another
// writer on the same API, or by throttling.
func IsContention(err error) bool {
	var conflict *types.ConflictException
	if errors.As(err, &conflict) {
		return strings.Contains(strings.ToLower(conflict.ErrorMessage()), "concurrent modification")
	}
	var tooMany *types.TooManyRequestsException
	if errors.As(err, &tooMany) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ConcurrentModificationException", "TooManyRequestsException":
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means the remote object does not exist.
func IsNotFound(err error) bool {
	if faults.IsNotFound(err) {
		return true
	}
	var notFound *types.NotFoundException
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFoundException"
}

// target joins the identifiers a call addresses into a resource id for errors
// and logs, e.g. "a1b2c3d4e5/x1y2z3/GET".
func target(parts ...*string) string {
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := aws.ToString(p); v != "" {
			ids = append(ids, v)
		}
	}
	return strings.Join(ids, "/")
}

func classify(op, resourceID string, err error) error {
	var fe *faults.Error
	if errors.As(err, &fe) {
		return err
	}
	kind := faults.RemoteOther
	switch {
	case IsNotFound(err):
		kind = faults.RemoteNotFound
	case IsContention(err):
		kind = faults.RemoteContention
	}
	e := faults.Wrap(kind, err, "")
	e.Operation = op
	e.ResourceID = resourceID
	return e
}

func call[I, O any](ctx context.Context, c *Client, op, resourceID string, in I, fn func(context.Context, I, ...func(*awsapigw.Options)) (O, error), optFns []func(*awsapigw.Options)) (O, error) {
	logger := log.FromContext(ctx).WithValues("operation", op, "resourceId", resourceID)

	var out O
	attempt := 0
	err := retry.OnError(c.backoff, IsContention, func() error {
		if attempt > 0 {
			metrics.RecordContentionRetry(op)
			logger.V(1).Info("Retrying after concurrent modification", "attempt", attempt)
		}
		attempt++

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		recorder := metrics.NewAWSAPIMetricsRecorder(metrics.ServiceAPIGateway, op)
		o, err := fn(ctx, in, optFns...)
		if err != nil {
			recorder.RecordError(err)
			return err
		}
		recorder.RecordSuccess()
		out = o
		return nil
	})
	if err != nil {
		if IsContention(err) {
			logger.Info("Giving up after concurrent modification", "attempts", attempt)
		}
		return out, classify(op, resourceID, err)
	}
	return out, nil
}

// FindByName follows GetRestApis pagination until an API named name is found.
func (c *Client) FindByName(ctx context.Context, name string) (string, error) {
	var position *string
	for {
		out, err := c.GetRestApis(ctx, &awsapigw.GetRestApisInput{
			Limit:    aws.Int32(c.pageSize),
			Position: position,
		})
		if err != nil {
			return "", err
		}
		for _, item := range out.Items {
			if aws.ToString(item.Name) == name {
				return aws.ToString(item.Id), nil
			}
		}
		if aws.ToString(out.Position) == "" {
			e := faults.New(faults.RemoteNotFound, fmt.Sprintf("no REST API named %q", name))
			e.Operation = "GetRestApis"
			return "", e
		}
		position = out.Position
	}
}

// RootResourceID follows GetResources pagination until the "/" resource is found.
func (c *Client) RootResourceID(ctx context.Context, restAPIID string) (string, error) {
	var position *string
	for {
		out, err := c.GetResources(ctx, &awsapigw.GetResourcesInput{
			RestApiId: aws.String(restAPIID),
			Limit:     aws.Int32(c.pageSize),
			Position:  position,
		})
		if err != nil {
			return "", err
		}
		for _, item := range out.Items {
			if aws.ToString(item.Path) == apigateway.RootPath {
				return aws.ToString(item.Id), nil
			}
		}
		if aws.ToString(out.Position) == "" {
			e := faults.New(faults.RemoteNotFound, "root resource not found")
			e.Operation = "GetResources"
			e.ResourceID = restAPIID
			return "", e
		}
		position = out.Position
	}
}

func (c *Client) CreateRestApi(ctx context.Context, in *awsapigw.CreateRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.CreateRestApiOutput, error) {
	return call(ctx, c, "CreateRestApi", target(in.Name), in, c.api.CreateRestApi, optFns)
}

func (c *Client) GetRestApi(ctx context.Context, in *awsapigw.GetRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetRestApiOutput, error) {
	return call(ctx, c, "GetRestApi", target(in.RestApiId), in, c.api.GetRestApi, optFns)
}

func (c *Client) GetRestApis(ctx context.Context, in *awsapigw.GetRestApisInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetRestApisOutput, error) {
	return call(ctx, c, "GetRestApis", "", in, c.api.GetRestApis, optFns)
}

func (c *Client) UpdateRestApi(ctx context.Context, in *awsapigw.UpdateRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.UpdateRestApiOutput, error) {
	return call(ctx, c, "UpdateRestApi", target(in.RestApiId), in, c.api.UpdateRestApi, optFns)
}

func (c *Client) DeleteRestApi(ctx context.Context, in *awsapigw.DeleteRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.DeleteRestApiOutput, error) {
	return call(ctx, c, "DeleteRestApi", target(in.RestApiId), in, c.api.DeleteRestApi, optFns)
}

func (c *Client) ImportRestApi(ctx context.Context, in *awsapigw.ImportRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.ImportRestApiOutput, error) {
	return call(ctx, c, "ImportRestApi", "", in, c.api.ImportRestApi, optFns)
}

func (c *Client) PutRestApi(ctx context.Context, in *awsapigw.PutRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.PutRestApiOutput, error) {
	return call(ctx, c, "PutRestApi", target(in.RestApiId), in, c.api.PutRestApi, optFns)
}

func (c *Client) GetResources(ctx context.Context, in *awsapigw.GetResourcesInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetResourcesOutput, error) {
	return call(ctx, c, "GetResources", target(in.RestApiId), in, c.api.GetResources, optFns)
}

func (c *Client) GetResource(ctx context.Context, in *awsapigw.GetResourceInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetResourceOutput, error) {
	return call(ctx, c, "GetResource", target(in.RestApiId, in.ResourceId), in, c.api.GetResource, optFns)
}

func (c *Client) CreateResource(ctx context.Context, in *awsapigw.CreateResourceInput, optFns ...func(*awsapigw.Options)) (*awsapigw.CreateResourceOutput, error) {
	return call(ctx, c, "CreateResource", target(in.RestApiId, in.ParentId), in, c.api.CreateResource, optFns)
}

func (c *Client) UpdateResource(ctx context.Context, in *awsapigw.UpdateResourceInput, optFns ...func(*awsapigw.Options)) (*awsapigw.UpdateResourceOutput, error) {
	return call(ctx, c, "UpdateResource", target(in.RestApiId, in.ResourceId), in, c.api.UpdateResource, optFns)
}

func (c *Client) DeleteResource(ctx context.Context, in *awsapigw.DeleteResourceInput, optFns ...func(*awsapigw.Options)) (*awsapigw.DeleteResourceOutput, error) {
	return call(ctx, c, "DeleteResource", target(in.RestApiId, in.ResourceId), in, c.api.DeleteResource, optFns)
}

func (c *Client) PutMethod(ctx context.Context, in *awsapigw.PutMethodInput, optFns ...func(*awsapigw.Options)) (*awsapigw.PutMethodOutput, error) {
	return call(ctx, c, "PutMethod", target(in.RestApiId, in.ResourceId, in.HttpMethod), in, c.api.PutMethod, optFns)
}

func (c *Client) GetMethod(ctx context.Context, in *awsapigw.GetMethodInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetMethodOutput, error) {
	return call(ctx, c, "GetMethod", target(in.RestApiId, in.ResourceId, in.HttpMethod), in, c.api.GetMethod, optFns)
}

func (c *Client) UpdateMethod(ctx context.Context, in *awsapigw.UpdateMethodInput, optFns ...func(*awsapigw.Options)) (*awsapigw.UpdateMethodOutput, error) {
	return call(ctx, c, "UpdateMethod", target(in.RestApiId, in.ResourceId, in.HttpMethod), in, c.api.UpdateMethod, optFns)
}

func (c *Client) DeleteMethod(ctx context.Context, in *awsapigw.DeleteMethodInput, optFns ...func(*awsapigw.Options)) (*awsapigw.DeleteMethodOutput, error) {
	return call(ctx, c, "DeleteMethod", target(in.RestApiId, in.ResourceId, in.HttpMethod), in, c.api.DeleteMethod, optFns)
}

func (c *Client) PutIntegration(ctx context.Context, in *awsapigw.PutIntegrationInput, optFns ...func(*awsapigw.Options)) (*awsapigw.PutIntegrationOutput, error) {
	return call(ctx, c, "PutIntegration", target(in.RestApiId, in.ResourceId, in.HttpMethod), in, c.api.PutIntegration, optFns)
}

func (c *Client) PutMethodResponse(ctx context.Context, in *awsapigw.PutMethodResponseInput, optFns ...func(*awsapigw.Options)) (*awsapigw.PutMethodResponseOutput, error) {
	return call(ctx, c, "PutMethodResponse", target(in.RestApiId, in.ResourceId, in.HttpMethod), in, c.api.PutMethodResponse, optFns)
}

func (c *Client) PutIntegrationResponse(ctx context.Context, in *awsapigw.PutIntegrationResponseInput, optFns ...func(*awsapigw.Options)) (*awsapigw.PutIntegrationResponseOutput, error) {
	return call(ctx, c, "PutIntegrationResponse", target(in.RestApiId, in.ResourceId, in.HttpMethod), in, c.api.PutIntegrationResponse, optFns)
}

func (c *Client) CreateDomainName(ctx context.Context, in *awsapigw.CreateDomainNameInput, optFns ...func(*awsapigw.Options)) (*awsapigw.CreateDomainNameOutput, error) {
	return call(ctx, c, "CreateDomainName", target(in.DomainName), in, c.api.CreateDomainName, optFns)
}

func (c *Client) GetDomainName(ctx context.Context, in *awsapigw.GetDomainNameInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetDomainNameOutput, error) {
	return call(ctx, c, "GetDomainName", target(in.DomainName), in, c.api.GetDomainName, optFns)
}

func (c *Client) UpdateDomainName(ctx context.Context, in *awsapigw.UpdateDomainNameInput, optFns ...func(*awsapigw.Options)) (*awsapigw.UpdateDomainNameOutput, error) {
	return call(ctx, c, "UpdateDomainName", target(in.DomainName), in, c.api.UpdateDomainName, optFns)
}

func (c *Client) DeleteDomainName(ctx context.Context, in *awsapigw.DeleteDomainNameInput, optFns ...func(*awsapigw.Options)) (*awsapigw.DeleteDomainNameOutput, error) {
	return call(ctx, c, "DeleteDomainName", target(in.DomainName), in, c.api.DeleteDomainName, optFns)
}

func (c *Client) CreateBasePathMapping(ctx context.Context, in *awsapigw.CreateBasePathMappingInput, optFns ...func(*awsapigw.Options)) (*awsapigw.CreateBasePathMappingOutput, error) {
	return call(ctx, c, "CreateBasePathMapping", target(in.DomainName, in.BasePath), in, c.api.CreateBasePathMapping, optFns)
}

func (c *Client) GetBasePathMapping(ctx context.Context, in *awsapigw.GetBasePathMappingInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetBasePathMappingOutput, error) {
	return call(ctx, c, "GetBasePathMapping", target(in.DomainName, in.BasePath), in, c.api.GetBasePathMapping, optFns)
}

func (c *Client) DeleteBasePathMapping(ctx context.Context, in *awsapigw.DeleteBasePathMappingInput, optFns ...func(*awsapigw.Options)) (*awsapigw.DeleteBasePathMappingOutput, error) {
	return call(ctx, c, "DeleteBasePathMapping", target(in.DomainName, in.BasePath), in, c.api.DeleteBasePathMapping, optFns)
}

func (c *Client) GetStage(ctx context.Context, in *awsapigw.GetStageInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetStageOutput, error) {
	return call(ctx, c, "GetStage", target(in.RestApiId, in.StageName), in, c.api.GetStage, optFns)
}

func (c *Client) CreateDeployment(ctx context.Context, in *awsapigw.CreateDeploymentInput, optFns ...func(*awsapigw.Options)) (*awsapigw.CreateDeploymentOutput, error) {
	return call(ctx, c, "CreateDeployment", target(in.RestApiId, in.StageName), in, c.api.CreateDeployment, optFns)
}
