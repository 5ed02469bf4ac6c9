// Package fakeapigw is an in-memory API Gateway control plane for tests. It
// records every call and lets a test inject errors per operation.
package fakeapigw

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/apigateway/types"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
)

var _ ports.APIGatewayAPI = (*API)(nil)

// ConcurrentModificationMessage is what API Gateway answers when two writers
// touch the same API at once.
const ConcurrentModificationMessage = "Unable to complete operation due to concurrent modification. Please try again later."

// NotFound builds the error API Gateway returns for a missing object.
func NotFound(format string, args ...any) error {
	return &types.NotFoundException{Message: aws.String(fmt.Sprintf(format, args...))}
}

// ConcurrentModification builds the contention error.
func ConcurrentModification() error {
	return &types.ConflictException{Message: aws.String(ConcurrentModificationMessage)}
}

// BadRequest builds a validation error of the remote API.
func BadRequest(format string, args ...any) error {
	return &types.BadRequestException{Message: aws.String(fmt.Sprintf(format, args...))}
}

// Call is one recorded operation.
type Call struct {
	Op    string
	Input any
}

// Rule injects Err into calls of Op. Match narrows the calls (nil matches all),
// the first Skip matching calls pass through and Times bounds how many calls
// fail (0 fails forever).
type Rule struct {
	Op    string
	Match func(input any) bool
	Skip  int
	Times int
	Err   error

	seen   int
	failed int
}

type restAPI struct {
	api       types.RestApi
	body      []byte
	resources map[string]*resource
	stages    map[string]string
}

type resource struct {
	types.Resource
	methods map[string]*types.Method
}

// API implements ports.APIGatewayAPI in memory.
type API struct {
	mu       sync.Mutex
	calls    []Call
	rules    []*Rule
	seq      int
	apis     map[string]*restAPI
	domains  map[string]*types.DomainName
	mappings map[string]*types.BasePathMapping
}

// New returns an empty fake.
func New() *API {
	return &API{
		apis:     map[string]*restAPI{},
		domains:  map[string]*types.DomainName{},
		mappings: map[string]*types.BasePathMapping{},
	}
}

// Inject adds an error rule.
func (f *API) Inject(r Rule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &r)
}

// Calls returns a copy of the recorded calls.
func (f *API) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Ops returns the recorded operation names in order.
func (f *API) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		ops = append(ops, c.Op)
	}
	return ops
}

// Count returns how many times op was called.
func (f *API) Count(op string) int {
	n := 0
	for _, o := range f.Ops() {
		if o == op {
			n++
		}
	}
	return n
}

// ResetCalls forgets the recorded calls but keeps state and rules.
func (f *API) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// SeedRestAPI creates an API directly and returns its id and root resource id.
func (f *API) SeedRestAPI(name string) (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.newRestAPI(name, "")
	return aws.ToString(a.api.Id), aws.ToString(a.api.RootResourceId)
}

// SeedStage makes a stage exist.
func (f *API) SeedStage(restAPIID, stage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.apis[restAPIID]; ok {
		a.stages[stage] = f.nextID("dep")
	}
}

// HasRestAPI reports whether the API exists.
func (f *API) HasRestAPI(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.apis[id]
	return ok
}

// Method returns a copy of a stored method.
func (f *API) Method(restAPIID, resourceID, httpMethod string) (types.Method, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.resource(restAPIID, resourceID)
	if err != nil {
		return types.Method{}, false
	}
	m, ok := r.methods[httpMethod]
	if !ok {
		return types.Method{}, false
	}
	return *m, true
}

// Body returns the definition last imported into an API.
func (f *API) Body(restAPIID string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.apis[restAPIID]; ok {
		return a.body
	}
	return nil
}

func (f *API) record(op string, input any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Input: input})

	for _, r := range f.rules {
		if r.Op != op || (r.Match != nil && !r.Match(input)) {
			continue
		}
		r.seen++
		if r.seen <= r.Skip {
			continue
		}
		if r.Times > 0 && r.failed >= r.Times {
			continue
		}
		r.failed++
		return r.Err
	}
	return nil
}

func (f *API) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%07d", prefix, f.seq)
}

func (f *API) newRestAPI(name, description string) *restAPI {
	id := f.nextID("api")
	rootID := f.nextID("res")
	a := &restAPI{
		api: types.RestApi{
			Id:             aws.String(id),
			Name:           aws.String(name),
			CreatedDate:    aws.Time(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			RootResourceId: aws.String(rootID),
		},
		resources: map[string]*resource{},
		stages:    map[string]string{},
	}
	if description != "" {
		a.api.Description = aws.String(description)
	}
	a.resources[rootID] = &resource{
		Resource: types.Resource{Id: aws.String(rootID), Path: aws.String("/")},
		methods:  map[string]*types.Method{},
	}
	f.apis[id] = a
	return a
}

func (f *API) restAPI(id *string) (*restAPI, error) {
	a, ok := f.apis[aws.ToString(id)]
	if !ok {
		return nil, NotFound("Invalid API identifier specified %s", aws.ToString(id))
	}
	return a, nil
}

func (f *API) resource(apiID, resourceID string) (*resource, error) {
	a, err := f.restAPI(&apiID)
	if err != nil {
		return nil, err
	}
	r, ok := a.resources[resourceID]
	if !ok {
		return nil, NotFound("Invalid Resource identifier specified")
	}
	return r, nil
}

func (f *API) method(apiID, resourceID, httpMethod *string) (*types.Method, error) {
	r, err := f.resource(aws.ToString(apiID), aws.ToString(resourceID))
	if err != nil {
		return nil, err
	}
	m, ok := r.methods[aws.ToString(httpMethod)]
	if !ok {
		return nil, NotFound("Invalid Method identifier specified")
	}
	return m, nil
}

// page returns keys[start:start+limit] and the next position.
func page(keys []string, position *string, limit *int32) ([]string, *string) {
	sort.Strings(keys)
	start := 0
	if position != nil {
		start, _ = strconv.Atoi(*position)
	}
	size := 25
	if limit != nil && *limit > 0 {
		size = int(*limit)
	}
	if start > len(keys) {
		start = len(keys)
	}
	end := start + size
	if end >= len(keys) {
		return keys[start:], nil
	}
	return keys[start:end], aws.String(strconv.Itoa(end))
}

func patchValue(ops []types.PatchOperation, apply func(path string, value *string) error) error {
	for _, op := range ops {
		value := op.Value
		if op.Op == types.OpRemove {
			value = nil
		}
		if err := apply(aws.ToString(op.Path), value); err != nil {
			return err
		}
	}
	return nil
}

func (f *API) CreateRestApi(_ context.Context, in *awsapigw.CreateRestApiInput, _ ...func(*awsapigw.Options)) (*awsapigw.CreateRestApiOutput, error) {
	if err := f.record("CreateRestApi", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.newRestAPI(aws.ToString(in.Name), aws.ToString(in.Description))
	return &awsapigw.CreateRestApiOutput{
		Id:          a.api.Id,
		Name:        a.api.Name,
		Description: a.api.Description,
		CreatedDate: a.api.CreatedDate,
	}, nil
}

func (f *API) GetRestApi(_ context.Context, in *awsapigw.GetRestApiInput, _ ...func(*awsapigw.Options)) (*awsapigw.GetRestApiOutput, error) {
	if err := f.record("GetRestApi", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.restAPI(in.RestApiId)
	if err != nil {
		return nil, err
	}
	return &awsapigw.GetRestApiOutput{
		Id:             a.api.Id,
		Name:           a.api.Name,
		Description:    a.api.Description,
		CreatedDate:    a.api.CreatedDate,
		RootResourceId: a.api.RootResourceId,
	}, nil
}

func (f *API) GetRestApis(_ context.Context, in *awsapigw.GetRestApisInput, _ ...func(*awsapigw.Options)) (*awsapigw.GetRestApisOutput, error) {
	if err := f.record("GetRestApis", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.apis))
	for id := range f.apis {
		keys = append(keys, id)
	}
	ids, next := page(keys, in.Position, in.Limit)
	out := &awsapigw.GetRestApisOutput{Position: next}
	for _, id := range ids {
		out.Items = append(out.Items, f.apis[id].api)
	}
	return out, nil
}

func (f *API) UpdateRestApi(_ context.Context, in *awsapigw.UpdateRestApiInput, _ ...func(*awsapigw.Options)) (*awsapigw.UpdateRestApiOutput, error) {
	if err := f.record("UpdateRestApi", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.restAPI(in.RestApiId)
	if err != nil {
		return nil, err
	}
	err = patchValue(in.PatchOperations, func(path string, value *string) error {
		switch path {
		case "/name":
			a.api.Name = value
		case "/description":
			a.api.Description = value
		default:
			return BadRequest("Invalid patch path %s", path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &awsapigw.UpdateRestApiOutput{Id: a.api.Id, Name: a.api.Name, Description: a.api.Description}, nil
}

func (f *API) DeleteRestApi(_ context.Context, in *awsapigw.DeleteRestApiInput, _ ...func(*awsapigw.Options)) (*awsapigw.DeleteRestApiOutput, error) {
	if err := f.record("DeleteRestApi", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.restAPI(in.RestApiId); err != nil {
		return nil, err
	}
	delete(f.apis, aws.ToString(in.RestApiId))
	return &awsapigw.DeleteRestApiOutput{}, nil
}

func definitionTitle(body []byte) string {
	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
	}
	if json.Unmarshal(body, &doc) == nil && doc.Info.Title != "" {
		return doc.Info.Title
	}
	return "imported"
}

func (f *API) ImportRestApi(_ context.Context, in *awsapigw.ImportRestApiInput, _ ...func(*awsapigw.Options)) (*awsapigw.ImportRestApiOutput, error) {
	if err := f.record("ImportRestApi", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(in.Body) == 0 {
		return nil, BadRequest("Invalid API definition")
	}
	a := f.newRestAPI(definitionTitle(in.Body), "")
	a.body = in.Body
	return &awsapigw.ImportRestApiOutput{
		Id:          a.api.Id,
		Name:        a.api.Name,
		CreatedDate: a.api.CreatedDate,
	}, nil
}

func (f *API) PutRestApi(_ context.Context, in *awsapigw.PutRestApiInput, _ ...func(*awsapigw.Options)) (*awsapigw.PutRestApiOutput, error) {
	if err := f.record("PutRestApi", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.restAPI(in.RestApiId)
	if err != nil {
		return nil, err
	}
	a.body = in.Body
	if in.Mode != types.PutModeMerge {
		a.api.Name = aws.String(definitionTitle(in.Body))
	}
	return &awsapigw.PutRestApiOutput{
		Id:          a.api.Id,
		Name:        a.api.Name,
		Description: a.api.Description,
		CreatedDate: a.api.CreatedDate,
	}, nil
}

func (f *API) GetResources(_ context.Context, in *awsapigw.GetResourcesInput, _ ...func(*awsapigw.Options)) (*awsapigw.GetResourcesOutput, error) {
	if err := f.record("GetResources", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.restAPI(in.RestApiId)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(a.resources))
	for id := range a.resources {
		keys = append(keys, id)
	}
	ids, next := page(keys, in.Position, in.Limit)
	out := &awsapigw.GetResourcesOutput{Position: next}
	for _, id := range ids {
		out.Items = append(out.Items, a.resources[id].Resource)
	}
	return out, nil
}

func (f *API) GetResource(_ context.Context, in *awsapigw.GetResourceInput, _ ...func(*awsapigw.Options)) (*awsapigw.GetResourceOutput, error) {
	if err := f.record("GetResource", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.resource(aws.ToString(in.RestApiId), aws.ToString(in.ResourceId))
	if err != nil {
		return nil, err
	}
	return &awsapigw.GetResourceOutput{Id: r.Id, ParentId: r.ParentId, PathPart: r.PathPart, Path: r.Path}, nil
}

func childPath(parent *resource, pathPart string) string {
	if aws.ToString(parent.Path) == "/" {
		return "/" + pathPart
	}
	return aws.ToString(parent.Path) + "/" + pathPart
}

func (f *API) CreateResource(_ context.Context, in *awsapigw.CreateResourceInput, _ ...func(*awsapigw.Options)) (*awsapigw.CreateResourceOutput, error) {
	if err := f.record("CreateResource", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, err := f.resource(aws.ToString(in.RestApiId), aws.ToString(in.ParentId))
	if err != nil {
		return nil, err
	}
	a := f.apis[aws.ToString(in.RestApiId)]
	id := f.nextID("res")
	r := &resource{
		Resource: types.Resource{
			Id:       aws.String(id),
			ParentId: in.ParentId,
			PathPart: in.PathPart,
			Path:     aws.String(childPath(parent, aws.ToString(in.PathPart))),
		},
		methods: map[string]*types.Method{},
	}
	a.resources[id] = r
	return &awsapigw.CreateResourceOutput{Id: r.Id, ParentId: r.ParentId, PathPart: r.PathPart, Path: r.Path}, nil
}

func (f *API) UpdateResource(_ context.Context, in *awsapigw.UpdateResourceInput, _ ...func(*awsapigw.Options)) (*awsapigw.UpdateResourceOutput, error) {
	if err := f.record("UpdateResource", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.resource(aws.ToString(in.RestApiId), aws.ToString(in.ResourceId))
	if err != nil {
		return nil, err
	}
	a := f.apis[aws.ToString(in.RestApiId)]
	err = patchValue(in.PatchOperations, func(path string, value *string) error {
		switch path {
		case "/pathPart":
			r.PathPart = value
		case "/parentId":
			if _, ok := a.resources[aws.ToString(value)]; !ok {
				return NotFound("Invalid Resource identifier specified")
			}
			r.ParentId = value
		default:
			return BadRequest("Invalid patch path %s", path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.Path = aws.String(childPath(a.resources[aws.ToString(r.ParentId)], aws.ToString(r.PathPart)))
	return &awsapigw.UpdateResourceOutput{Id: r.Id, ParentId: r.ParentId, PathPart: r.PathPart, Path: r.Path}, nil
}

func (f *API) DeleteResource(_ context.Context, in *awsapigw.DeleteResourceInput, _ ...func(*awsapigw.Options)) (*awsapigw.DeleteResourceOutput, error) {
	if err := f.record("DeleteResource", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.resource(aws.ToString(in.RestApiId), aws.ToString(in.ResourceId)); err != nil {
		return nil, err
	}
	delete(f.apis[aws.ToString(in.RestApiId)].resources, aws.ToString(in.ResourceId))
	return &awsapigw.DeleteResourceOutput{}, nil
}

func (f *API) PutMethod(_ context.Context, in *awsapigw.PutMethodInput, _ ...func(*awsapigw.Options)) (*awsapigw.PutMethodOutput, error) {
	if err := f.record("PutMethod", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.resource(aws.ToString(in.RestApiId), aws.ToString(in.ResourceId))
	if err != nil {
		return nil, err
	}
	verb := aws.ToString(in.HttpMethod)
	if _, exists := r.methods[verb]; exists {
		return nil, &types.ConflictException{Message: aws.String("Method already exists for this resource")}
	}
	m := &types.Method{
		HttpMethod:        in.HttpMethod,
		AuthorizationType: in.AuthorizationType,
		AuthorizerId:      in.AuthorizerId,
		ApiKeyRequired:    aws.Bool(in.ApiKeyRequired),
		RequestParameters: in.RequestParameters,
		RequestModels:     in.RequestModels,
		MethodResponses:   map[string]types.MethodResponse{},
	}
	r.methods[verb] = m
	return &awsapigw.PutMethodOutput{
		HttpMethod:        m.HttpMethod,
		AuthorizationType: m.AuthorizationType,
		AuthorizerId:      m.AuthorizerId,
		ApiKeyRequired:    m.ApiKeyRequired,
	}, nil
}

func (f *API) GetMethod(_ context.Context, in *awsapigw.GetMethodInput, _ ...func(*awsapigw.Options)) (*awsapigw.GetMethodOutput, error) {
	if err := f.record("GetMethod", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.method(in.RestApiId, in.ResourceId, in.HttpMethod)
	if err != nil {
		return nil, err
	}
	return &awsapigw.GetMethodOutput{
		HttpMethod:        m.HttpMethod,
		AuthorizationType: m.AuthorizationType,
		AuthorizerId:      m.AuthorizerId,
		ApiKeyRequired:    m.ApiKeyRequired,
		RequestParameters: m.RequestParameters,
		RequestModels:     m.RequestModels,
		MethodIntegration: m.MethodIntegration,
		MethodResponses:   m.MethodResponses,
	}, nil
}

func (f *API) UpdateMethod(_ context.Context, in *awsapigw.UpdateMethodInput, _ ...func(*awsapigw.Options)) (*awsapigw.UpdateMethodOutput, error) {
	if err := f.record("UpdateMethod", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.method(in.RestApiId, in.ResourceId, in.HttpMethod)
	if err != nil {
		return nil, err
	}
	err = patchValue(in.PatchOperations, func(path string, value *string) error {
		switch path {
		case "/authorizationType":
			m.AuthorizationType = value
		case "/authorizerId":
			m.AuthorizerId = value
		case "/apiKeyRequired":
			m.ApiKeyRequired = aws.Bool(aws.ToString(value) == "true")
		default:
			return BadRequest("Invalid patch path %s", path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &awsapigw.UpdateMethodOutput{
		HttpMethod:        m.HttpMethod,
		AuthorizationType: m.AuthorizationType,
		AuthorizerId:      m.AuthorizerId,
		ApiKeyRequired:    m.ApiKeyRequired,
	}, nil
}

func (f *API) DeleteMethod(_ context.Context, in *awsapigw.DeleteMethodInput, _ ...func(*awsapigw.Options)) (*awsapigw.DeleteMethodOutput, error) {
	if err := f.record("DeleteMethod", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.method(in.RestApiId, in.ResourceId, in.HttpMethod); err != nil {
		return nil, err
	}
	r := f.apis[aws.ToString(in.RestApiId)].resources[aws.ToString(in.ResourceId)]
	delete(r.methods, aws.ToString(in.HttpMethod))
	return &awsapigw.DeleteMethodOutput{}, nil
}

func (f *API) PutIntegration(_ context.Context, in *awsapigw.PutIntegrationInput, _ ...func(*awsapigw.Options)) (*awsapigw.PutIntegrationOutput, error) {
	if err := f.record("PutIntegration", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.method(in.RestApiId, in.ResourceId, in.HttpMethod)
	if err != nil {
		return nil, err
	}
	m.MethodIntegration = &types.Integration{
		Type:                 in.Type,
		HttpMethod:           in.IntegrationHttpMethod,
		Uri:                  in.Uri,
		Credentials:          in.Credentials,
		RequestParameters:    in.RequestParameters,
		RequestTemplates:     in.RequestTemplates,
		PassthroughBehavior:  in.PassthroughBehavior,
		CacheNamespace:       in.CacheNamespace,
		CacheKeyParameters:   in.CacheKeyParameters,
		IntegrationResponses: map[string]types.IntegrationResponse{},
	}
	return &awsapigw.PutIntegrationOutput{Type: in.Type, Uri: in.Uri}, nil
}

func (f *API) PutMethodResponse(_ context.Context, in *awsapigw.PutMethodResponseInput, _ ...func(*awsapigw.Options)) (*awsapigw.PutMethodResponseOutput, error) {
	if err := f.record("PutMethodResponse", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.method(in.RestApiId, in.ResourceId, in.HttpMethod)
	if err != nil {
		return nil, err
	}
	m.MethodResponses[aws.ToString(in.StatusCode)] = types.MethodResponse{
		StatusCode:         in.StatusCode,
		ResponseParameters: in.ResponseParameters,
		ResponseModels:     in.ResponseModels,
	}
	return &awsapigw.PutMethodResponseOutput{StatusCode: in.StatusCode}, nil
}

func (f *API) PutIntegrationResponse(_ context.Context, in *awsapigw.PutIntegrationResponseInput, _ ...func(*awsapigw.Options)) (*awsapigw.PutIntegrationResponseOutput, error) {
	if err := f.record("PutIntegrationResponse", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.method(in.RestApiId, in.ResourceId, in.HttpMethod)
	if err != nil {
		return nil, err
	}
	if m.MethodIntegration == nil {
		return nil, NotFound("No integration defined for method")
	}
	m.MethodIntegration.IntegrationResponses[aws.ToString(in.StatusCode)] = types.IntegrationResponse{
		StatusCode:         in.StatusCode,
		SelectionPattern:   in.SelectionPattern,
		ResponseParameters: in.ResponseParameters,
		ResponseTemplates:  in.ResponseTemplates,
	}
	return &awsapigw.PutIntegrationResponseOutput{StatusCode: in.StatusCode}, nil
}

func (f *API) CreateDomainName(_ context.Context, in *awsapigw.CreateDomainNameInput, _ ...func(*awsapigw.Options)) (*awsapigw.CreateDomainNameOutput, error) {
	if err := f.record("CreateDomainName", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.DomainName)
	if _, ok := f.domains[name]; ok {
		return nil, &types.ConflictException{Message: aws.String("The domain name you provided already exists.")}
	}
	d := &types.DomainName{
		DomainName:               in.DomainName,
		CertificateArn:           in.CertificateArn,
		CertificateName:          in.CertificateName,
		DistributionDomainName:   aws.String(fmt.Sprintf("d%07d.cloudfront.net", f.seq)),
		DistributionHostedZoneId: aws.String("Z2FDTNDATAQYW2"),
	}
	f.seq++
	f.domains[name] = d
	return &awsapigw.CreateDomainNameOutput{
		DomainName:               d.DomainName,
		CertificateArn:           d.CertificateArn,
		CertificateName:          d.CertificateName,
		DistributionDomainName:   d.DistributionDomainName,
		DistributionHostedZoneId: d.DistributionHostedZoneId,
	}, nil
}

func (f *API) GetDomainName(_ context.Context, in *awsapigw.GetDomainNameInput, _ ...func(*awsapigw.Options)) (*awsapigw.GetDomainNameOutput, error) {
	if err := f.record("GetDomainName", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.domains[aws.ToString(in.DomainName)]
	if !ok {
		return nil, NotFound("Invalid domain name identifier specified")
	}
	return &awsapigw.GetDomainNameOutput{
		DomainName:               d.DomainName,
		CertificateArn:           d.CertificateArn,
		CertificateName:          d.CertificateName,
		DistributionDomainName:   d.DistributionDomainName,
		DistributionHostedZoneId: d.DistributionHostedZoneId,
		RegionalDomainName:       d.RegionalDomainName,
	}, nil
}

func (f *API) UpdateDomainName(_ context.Context, in *awsapigw.UpdateDomainNameInput, _ ...func(*awsapigw.Options)) (*awsapigw.UpdateDomainNameOutput, error) {
	if err := f.record("UpdateDomainName", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.domains[aws.ToString(in.DomainName)]
	if !ok {
		return nil, NotFound("Invalid domain name identifier specified")
	}
	err := patchValue(in.PatchOperations, func(path string, value *string) error {
		switch path {
		case "/certificateArn":
			d.CertificateArn = value
		case "/certificateName":
			d.CertificateName = value
		case "/certificateBody", "/certificateChain", "/certificatePrivateKey":
		default:
			return BadRequest("Invalid patch path %s", path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &awsapigw.UpdateDomainNameOutput{DomainName: d.DomainName, CertificateArn: d.CertificateArn}, nil
}

func (f *API) DeleteDomainName(_ context.Context, in *awsapigw.DeleteDomainNameInput, _ ...func(*awsapigw.Options)) (*awsapigw.DeleteDomainNameOutput, error) {
	if err := f.record("DeleteDomainName", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.DomainName)
	if _, ok := f.domains[name]; !ok {
		return nil, NotFound("Invalid domain name identifier specified")
	}
	delete(f.domains, name)
	return &awsapigw.DeleteDomainNameOutput{}, nil
}

func mappingKey(domain, basePath string) string {
	if basePath == "" {
		basePath = "(none)"
	}
	return domain + "/" + basePath
}

func (f *API) CreateBasePathMapping(_ context.Context, in *awsapigw.CreateBasePathMappingInput, _ ...func(*awsapigw.Options)) (*awsapigw.CreateBasePathMappingOutput, error) {
	if err := f.record("CreateBasePathMapping", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.domains[aws.ToString(in.DomainName)]; !ok {
		return nil, NotFound("Invalid domain name identifier specified")
	}
	a, err := f.restAPI(in.RestApiId)
	if err != nil {
		return nil, err
	}
	if _, ok := a.stages[aws.ToString(in.Stage)]; !ok {
		return nil, BadRequest("Invalid stage identifier specified")
	}
	key := mappingKey(aws.ToString(in.DomainName), aws.ToString(in.BasePath))
	if _, ok := f.mappings[key]; ok {
		return nil, &types.ConflictException{Message: aws.String("Base path already exists for this domain name")}
	}
	basePath := aws.ToString(in.BasePath)
	if basePath == "" {
		basePath = "(none)"
	}
	m := &types.BasePathMapping{BasePath: aws.String(basePath), RestApiId: in.RestApiId, Stage: in.Stage}
	f.mappings[key] = m
	return &awsapigw.CreateBasePathMappingOutput{BasePath: m.BasePath, RestApiId: m.RestApiId, Stage: m.Stage}, nil
}

func (f *API) GetBasePathMapping(_ context.Context, in *awsapigw.GetBasePathMappingInput, _ ...func(*awsapigw.Options)) (*awsapigw.GetBasePathMappingOutput, error) {
	if err := f.record("GetBasePathMapping", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.mappings[mappingKey(aws.ToString(in.DomainName), strings.TrimSpace(aws.ToString(in.BasePath)))]
	if !ok {
		return nil, NotFound("Invalid base path mapping identifier specified")
	}
	return &awsapigw.GetBasePathMappingOutput{BasePath: m.BasePath, RestApiId: m.RestApiId, Stage: m.Stage}, nil
}

func (f *API) DeleteBasePathMapping(_ context.Context, in *awsapigw.DeleteBasePathMappingInput, _ ...func(*awsapigw.Options)) (*awsapigw.DeleteBasePathMappingOutput, error) {
	if err := f.record("DeleteBasePathMapping", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := mappingKey(aws.ToString(in.DomainName), aws.ToString(in.BasePath))
	if _, ok := f.mappings[key]; !ok {
		return nil, NotFound("Invalid base path mapping identifier specified")
	}
	delete(f.mappings, key)
	return &awsapigw.DeleteBasePathMappingOutput{}, nil
}

func (f *API) GetStage(_ context.Context, in *awsapigw.GetStageInput, _ ...func(*awsapigw.Options)) (*awsapigw.GetStageOutput, error) {
	if err := f.record("GetStage", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.restAPI(in.RestApiId)
	if err != nil {
		return nil, err
	}
	deployment, ok := a.stages[aws.ToString(in.StageName)]
	if !ok {
		return nil, NotFound("Invalid stage identifier specified")
	}
	return &awsapigw.GetStageOutput{StageName: in.StageName, DeploymentId: aws.String(deployment)}, nil
}

func (f *API) CreateDeployment(_ context.Context, in *awsapigw.CreateDeploymentInput, _ ...func(*awsapigw.Options)) (*awsapigw.CreateDeploymentOutput, error) {
	if err := f.record("CreateDeployment", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.restAPI(in.RestApiId)
	if err != nil {
		return nil, err
	}
	id := f.nextID("dep")
	if stage := aws.ToString(in.StageName); stage != "" {
		a.stages[stage] = id
	}
	return &awsapigw.CreateDeploymentOutput{Id: aws.String(id), Description: in.Description}, nil
}
