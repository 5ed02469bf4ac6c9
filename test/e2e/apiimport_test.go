//go:build e2e

package e2e_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
)

var _ = Describe("ApiImport E2E Tests", func() {
	It("should import, overwrite and delete an OpenAPI definition", func() {
		title := generateUniqueName("e2e-import")
		definition := func(version string) map[string]any {
			return map[string]any{
				"openapi": "3.0.1",
				"info":    map[string]any{"title": title, "version": version},
				"paths": map[string]any{
					"/ping": map[string]any{
						"get": map[string]any{
							"responses": map[string]any{"200": map[string]any{"description": "ok"}},
						},
					},
				},
			}
		}

		By("importing the definition")
		props := map[string]any{"apiDefinition": definition("1")}
		resp := create(lifecycle.ResourceTypeAPIImport, props)
		Expect(resp.Data["name"]).To(Equal(title))

		By("overwriting it")
		updated := update(lifecycle.ResourceTypeAPIImport, resp.PhysicalResourceID, map[string]any{
			"apiDefinition": definition("2"),
		}, props)
		Expect(updated.PhysicalResourceID).To(Equal(resp.PhysicalResourceID))

		By("deleting the imported API")
		remove(lifecycle.ResourceTypeAPIImport, resp.PhysicalResourceID, props)
	})
})
