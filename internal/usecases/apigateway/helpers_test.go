package apigateway

import (
	"context"
	"testing"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	apigwadapter "github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/adapters/aws/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/testutil/fakeapigw"
)

type stubCertificates struct {
	verifyErr error
	body      string
	chain     string
	key       string
	keyErr    error
	verified  []string
}

func (s *stubCertificates) VerifyCertificate(_ context.Context, arn string) error {
	s.verified = append(s.verified, arn)
	return s.verifyErr
}

func (s *stubCertificates) ServerCertificate(_ context.Context, _ string) (string, string, error) {
	return s.body, s.chain, nil
}

func (s *stubCertificates) PrivateKey(_ context.Context, _ string) (string, error) {
	return s.key, s.keyErr
}

type stubDefinitions struct {
	body []byte
	err  error
}

func (s *stubDefinitions) Load(_ context.Context, _ *apigateway.S3Location) ([]byte, error) {
	return s.body, s.err
}

type fixture struct {
	fake  *fakeapigw.API
	certs *stubCertificates
	defs  *stubDefinitions
	svc   *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := fakeapigw.New()
	client := apigwadapter.NewClient(fake, apigwadapter.Config{
		Backoff:  wait.Backoff{Steps: 3, Duration: time.Millisecond, Factor: 1},
		PageSize: 25,
	})
	certs := &stubCertificates{}
	defs := &stubDefinitions{}
	return &fixture{
		fake:  fake,
		certs: certs,
		defs:  defs,
		svc:   NewServices(client, certs, defs, Config{}),
	}
}

// putOps returns the Put* operations recorded by the fake, in order.
func (f *fixture) putOps() []string {
	var ops []string
	for _, op := range f.fake.Ops() {
		if len(op) > 3 && op[:3] == "Put" {
			ops = append(ops, op)
		}
	}
	return ops
}

func cors(origin string, methods ...string) *apigateway.CorsConfiguration {
	c := &apigateway.CorsConfiguration{AllowOrigin: origin, AllowMethods: methods}
	c.SetDefaults()
	return c
}

func mockMethod(apiID, resourceID, verb string, codes ...string) *apigateway.Method {
	m := &apigateway.Method{
		RestAPIID:  apiID,
		ResourceID: resourceID,
		Settings:   apigateway.MethodSettings{HTTPMethod: verb},
	}
	for _, code := range codes {
		m.Responses = append(m.Responses, apigateway.MethodResponse{
			StatusCode: code,
			Headers:    map[string]string{"X-Request-Id": "integration.response.header.x-request-id"},
		})
	}
	m.SetDefaults()
	return m
}
