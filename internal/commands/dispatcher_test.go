package commands

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/util/wait"

	apigwadapter "github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/adapters/aws/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/testutil/fakeapigw"
	usecases "github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/usecases/apigateway"
)

type noCertificates struct{}

func (noCertificates) VerifyCertificate(context.Context, string) error { return nil }
func (noCertificates) ServerCertificate(context.Context, string) (string, string, error) {
	return "", "", nil
}
func (noCertificates) PrivateKey(context.Context, string) (string, error) { return "", nil }

type noDefinitions struct{}

func (noDefinitions) Load(context.Context, *apigateway.S3Location) ([]byte, error) {
	return nil, faults.New(faults.ValidationError, "no definitions")
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx        context.Context
		fake       *fakeapigw.API
		dispatcher *Dispatcher
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = fakeapigw.New()
		client := apigwadapter.NewClient(fake, apigwadapter.Config{
			Backoff:  wait.Backoff{Steps: 2, Duration: time.Millisecond, Factor: 1},
			PageSize: 25,
		})
		dispatcher = NewDispatcher(usecases.NewServices(client, noCertificates{}, noDefinitions{}, usecases.Config{}))
	})

	event := func(requestType lifecycle.RequestType, resourceType string, props map[string]any) *lifecycle.Event {
		return &lifecycle.Event{
			RequestType:        requestType,
			RequestID:          "req-1",
			ResourceType:       resourceType,
			LogicalResourceID:  "Logical",
			ResourceProperties: props,
		}
	}

	Context("envelope", func() {
		It("should list every supported resource type", func() {
			Expect(dispatcher.ResourceTypes()).To(ConsistOf(
				lifecycle.ResourceTypeRestAPI,
				lifecycle.ResourceTypeAPIResource,
				lifecycle.ResourceTypeAPIMethod,
				lifecycle.ResourceTypeDomainName,
				lifecycle.ResourceTypeBasePathMapping,
				lifecycle.ResourceTypeAPIImport,
			))
		})

		It("should reject unknown resource types", func() {
			_, err := dispatcher.Dispatch(ctx, event(lifecycle.RequestCreate, "Custom::Nope", nil))
			Expect(faults.KindOf(err)).To(Equal(faults.ValidationError))
		})

		It("should reject unknown request types", func() {
			_, err := dispatcher.Dispatch(ctx, event("Upsert", lifecycle.ResourceTypeRestAPI, nil))
			Expect(faults.KindOf(err)).To(Equal(faults.ValidationError))
		})
	})

	Context("validation", func() {
		It("should name the first missing field and make no remote call", func() {
			_, err := dispatcher.Dispatch(ctx, event(lifecycle.RequestCreate, lifecycle.ResourceTypeRestAPI, map[string]any{
				"description": "no name",
			}))
			Expect(faults.KindOf(err)).To(Equal(faults.ValidationError))
			Expect(err.Error()).To(ContainSubstring("{name}"))
			Expect(fake.Calls()).To(BeEmpty())
		})

		It("should name nested fields", func() {
			_, err := dispatcher.Dispatch(ctx, event(lifecycle.RequestCreate, lifecycle.ResourceTypeAPIMethod, map[string]any{
				"restApiId":  "a1b2c3d4e5",
				"resourceId": "abc123",
			}))
			Expect(faults.KindOf(err)).To(Equal(faults.ValidationError))
			Expect(err.Error()).To(ContainSubstring("{method.httpMethod}"))
			Expect(fake.Calls()).To(BeEmpty())
		})

		It("should report domain rule violations as validation errors", func() {
			_, err := dispatcher.Dispatch(ctx, event(lifecycle.RequestCreate, lifecycle.ResourceTypeAPIResource, map[string]any{
				"restApiId": "a1b2c3d4e5",
				"parentId":  "abc123",
				"pathPart":  "a/b",
			}))
			Expect(faults.KindOf(err)).To(Equal(faults.ValidationError))
			Expect(err).To(MatchError(ContainSubstring("{pathPart}")))
		})

		It("should not validate delete events", func() {
			e := event(lifecycle.RequestDelete, lifecycle.ResourceTypeRestAPI, map[string]any{})
			e.PhysicalResourceID = "a1b2c3d4e5"
			response, err := dispatcher.Dispatch(ctx, e)
			Expect(err).NotTo(HaveOccurred())
			Expect(response.PhysicalResourceID).To(Equal("a1b2c3d4e5"))
		})
	})

	Context("RestApi", func() {
		It("should return the api id as physical id", func() {
			response, err := dispatcher.Dispatch(ctx, event(lifecycle.RequestCreate, lifecycle.ResourceTypeRestAPI, map[string]any{
				"name": "pets",
				"corsConfiguration": map[string]any{
					"allowDefaultHeaders": "true",
				},
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(fake.HasRestAPI(response.PhysicalResourceID)).To(BeTrue())
			Expect(response.Data).To(HaveKeyWithValue("name", "pets"))
			Expect(response.Data).To(HaveKey("parentResourceId"))
		})

		It("should skip the remote update when nothing changed", func() {
			created, err := dispatcher.Dispatch(ctx, event(lifecycle.RequestCreate, lifecycle.ResourceTypeRestAPI, map[string]any{"name": "pets"}))
			Expect(err).NotTo(HaveOccurred())

			update := event(lifecycle.RequestUpdate, lifecycle.ResourceTypeRestAPI, map[string]any{"name": "pets"})
			update.PhysicalResourceID = created.PhysicalResourceID
			update.OldResourceProperties = map[string]any{"name": "pets"}
			response, err := dispatcher.Dispatch(ctx, update)

			Expect(err).NotTo(HaveOccurred())
			Expect(response.PhysicalResourceID).To(Equal(created.PhysicalResourceID))
			Expect(fake.Count("UpdateRestApi")).To(BeZero())
		})

		It("should treat a repeated delete as success", func() {
			created, err := dispatcher.Dispatch(ctx, event(lifecycle.RequestCreate, lifecycle.ResourceTypeRestAPI, map[string]any{"name": "pets"}))
			Expect(err).NotTo(HaveOccurred())

			del := event(lifecycle.RequestDelete, lifecycle.ResourceTypeRestAPI, map[string]any{"name": "pets"})
			del.PhysicalResourceID = created.PhysicalResourceID
			for i := 0; i < 2; i++ {
				response, err := dispatcher.Dispatch(ctx, del)
				Expect(err).NotTo(HaveOccurred())
				Expect(response.PhysicalResourceID).To(Equal(created.PhysicalResourceID))
			}
			Expect(fake.HasRestAPI(created.PhysicalResourceID)).To(BeFalse())
		})
	})

	Context("ApiMethod", func() {
		It("should accept string typed properties and responses keyed by pattern", func() {
			apiID, rootID := fake.SeedRestAPI("pets")
			response, err := dispatcher.Dispatch(ctx, event(lifecycle.RequestCreate, lifecycle.ResourceTypeAPIMethod, map[string]any{
				"restApiName": "pets",
				"resourceId":  rootID,
				"method": map[string]any{
					"httpMethod":     "get",
					"apiKeyRequired": "true",
				},
				"integration": map[string]any{"type": "MOCK"},
				"responses": map[string]any{
					"default": map[string]any{"statusCode": "200"},
					"5\\d{2}": map[string]any{"statusCode": "500"},
				},
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(response.PhysicalResourceID).To(Equal(apiID + "/" + rootID + "/GET"))
			Expect(response.Data).To(HaveKeyWithValue("apiKeyRequired", true))

			method, ok := fake.Method(apiID, rootID, "GET")
			Expect(ok).To(BeTrue())
			Expect(method.MethodIntegration.IntegrationResponses).To(HaveKey("500"))
		})
	})

	Context("ApiBasePathMapping", func() {
		It("should synthesize the physical id from domain and base path", func() {
			apiID, _ := fake.SeedRestAPI("pets")
			_, err := dispatcher.Dispatch(ctx, event(lifecycle.RequestCreate, lifecycle.ResourceTypeDomainName, map[string]any{
				"domainName":     "API.example.com.",
				"certificateArn": "arn:aws:acm:us-east-1:123456789012:certificate/abc",
			}))
			Expect(err).NotTo(HaveOccurred())

			response, err := dispatcher.Dispatch(ctx, event(lifecycle.RequestCreate, lifecycle.ResourceTypeBasePathMapping, map[string]any{
				"domainName": "api.example.com",
				"restApiId":  apiID,
				"basePath":   "v1",
				"stage":      "prod",
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(response.PhysicalResourceID).To(Equal("api.example.com/v1"))
			Expect(fake.Count("CreateDeployment")).To(Equal(1))
		})
	})
})
