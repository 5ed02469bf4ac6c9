// Package mapper converts CloudFormation resource properties into domain
// models and domain models back into the attributes returned to the stack.
package mapper

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
)

// DefaultSelectionPattern keys the response without selection pattern when
// responses are given as a map.
const DefaultSelectionPattern = "default"

var methodResponsesType = reflect.TypeOf([]apigateway.MethodResponse{})

// PropertiesToDomain decodes resource properties into a domain model.
// CloudFormation sends every scalar as a string, so input is weakly typed:
// "true" decodes into a bool and "300" into an int32.
func PropertiesToDomain[T any](properties map[string]any) (*T, error) {
	out := new(T)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(methodResponsesHook),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(properties); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}
	return out, nil
}

// methodResponsesHook accepts method responses keyed by selection pattern.
// The "default" entry comes first, the others follow in key order.
func methodResponsesHook(from, to reflect.Type, data any) (any, error) {
	if to != methodResponsesType || from.Kind() != reflect.Map {
		return data, nil
	}
	byPattern, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}

	keys := make([]string, 0, len(byPattern))
	for k := range byPattern {
		if k != DefaultSelectionPattern {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := byPattern[DefaultSelectionPattern]; ok {
		keys = append([]string{DefaultSelectionPattern}, keys...)
	}

	responses := make([]any, 0, len(keys))
	for _, k := range keys {
		entry, ok := byPattern[k].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("response %q must be an object", k)
		}
		response := make(map[string]any, len(entry)+1)
		for field, v := range entry {
			response[field] = v
		}
		if _, set := response["selectionPattern"]; !set && k != DefaultSelectionPattern {
			response["selectionPattern"] = k
		}
		responses = append(responses, response)
	}
	return responses, nil
}

func RestAPIToAttributes(api *apigateway.RestAPI) map[string]any {
	attrs := map[string]any{
		"id":               api.ID,
		"name":             api.Name,
		"description":      api.Description,
		"parentResourceId": api.RootResourceID,
	}
	if !api.CreatedDate.IsZero() {
		attrs["createdDate"] = api.CreatedDate.UTC().Format(time.RFC3339)
	}
	return attrs
}

func ResourceToAttributes(r *apigateway.Resource) map[string]any {
	return map[string]any{
		"id":       r.ID,
		"parentId": r.ParentID,
		"pathPart": r.PathPart,
		"path":     r.Path,
	}
}

func MethodToAttributes(m *apigateway.Method) map[string]any {
	return map[string]any{
		"httpMethod":        m.Settings.HTTPMethod,
		"authorizationType": m.Settings.AuthorizationType,
		"apiKeyRequired":    m.Settings.APIKeyRequired,
		"resourceId":        m.ResourceID,
		"restApiId":         m.RestAPIID,
	}
}

// DomainNameToAttributes never includes certificate material.
func DomainNameToAttributes(d *apigateway.DomainName) map[string]any {
	return map[string]any{
		"domainName":               d.DomainName,
		"distributionDomainName":   d.DistributionDomainName,
		"distributionHostedZoneId": d.DistributionHostedZoneID,
		"regionalDomainName":       d.RegionalDomainName,
		"certificateName":          d.CertificateName,
	}
}

func BasePathMappingToAttributes(b *apigateway.BasePathMapping) map[string]any {
	return map[string]any{
		"domainName": b.DomainName,
		"basePath":   b.BasePath,
		"restApiId":  b.RestAPIID,
		"stage":      b.Stage,
	}
}

func APIImportToAttributes(i *apigateway.APIImport) map[string]any {
	return RestAPIToAttributes(&i.API)
}
