//go:build e2e

package e2e_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
)

var _ = Describe("RestApi E2E Tests", func() {
	var (
		apiName string
		apiID   string
		rootID  string
	)

	BeforeEach(func() {
		apiName = generateUniqueName("e2e-api")

		By("creating the REST API")
		resp := create(lifecycle.ResourceTypeRestAPI, map[string]any{
			"name":        apiName,
			"description": "created by e2e",
		})
		apiID = resp.PhysicalResourceID
		rootID, _ = resp.Data["parentResourceId"].(string)
		Expect(rootID).NotTo(BeEmpty())
	})

	AfterEach(func() {
		By("deleting the REST API")
		remove(lifecycle.ResourceTypeRestAPI, apiID, nil)

		By("deleting it again")
		remove(lifecycle.ResourceTypeRestAPI, apiID, nil)
	})

	It("should update the description in place", func() {
		old := map[string]any{"name": apiName, "description": "created by e2e"}
		resp := update(lifecycle.ResourceTypeRestAPI, apiID, map[string]any{
			"name":        apiName,
			"description": "updated by e2e",
		}, old)

		Expect(resp.PhysicalResourceID).To(Equal(apiID))
		Expect(resp.Data["description"]).To(Equal("updated by e2e"))
	})

	It("should build a resource with a mock method", func() {
		By("creating /pets by API name")
		resource := create(lifecycle.ResourceTypeAPIResource, map[string]any{
			"restApiName": apiName,
			"parentId":    rootID,
			"pathPart":    "pets",
		})
		Expect(resource.Data["path"]).To(Equal("/pets"))

		By("creating GET /pets")
		methodProps := map[string]any{
			"restApiId":  apiID,
			"resourceId": resource.PhysicalResourceID,
			"method":     map[string]any{"httpMethod": "GET"},
			"integration": map[string]any{
				"type":             "MOCK",
				"requestTemplates": map[string]any{"application/json": `{"statusCode": 200}`},
			},
			"responses": map[string]any{
				"default": map[string]any{"statusCode": "200"},
			},
		}
		method := create(lifecycle.ResourceTypeAPIMethod, methodProps)
		Expect(method.PhysicalResourceID).To(Equal(apiID + "/" + resource.PhysicalResourceID + "/GET"))

		By("deleting the method and the resource")
		remove(lifecycle.ResourceTypeAPIMethod, method.PhysicalResourceID, methodProps)
		remove(lifecycle.ResourceTypeAPIResource, resource.PhysicalResourceID, map[string]any{"restApiId": apiID})
	})
})
