package patch

import (
	"encoding/json"
	"testing"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/go-cmp/cmp"
)

var restAPIPolicy = Policy{
	AddForReplace: []string{"description"},
	Replace:       []string{"name", "description"},
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		newState map[string]any
		oldState map[string]any
		policy   Policy
		want     []Operation
	}{
		{
			name:   "both absent",
			policy: restAPIPolicy,
			want:   []Operation{},
		},
		{
			name:     "unchanged state",
			newState: map[string]any{"name": "pets", "description": "Pet store"},
			oldState: map[string]any{"name": "pets", "description": "Pet store"},
			policy:   restAPIPolicy,
			want:     []Operation{},
		},
		{
			name:     "replace changed field",
			newState: map[string]any{"name": "pets-v2", "description": "Pet store"},
			oldState: map[string]any{"name": "pets", "description": "Pet store"},
			policy:   restAPIPolicy,
			want:     []Operation{{Op: OpReplace, Path: "/name", Value: "pets-v2"}},
		},
		{
			name:     "add for replace emits replace for a new field",
			newState: map[string]any{"name": "pets", "description": "Pet store"},
			oldState: map[string]any{"name": "pets"},
			policy:   restAPIPolicy,
			want:     []Operation{{Op: OpReplace, Path: "/description", Value: "Pet store"}},
		},
		{
			name:     "fields outside the policy are ignored",
			newState: map[string]any{"name": "pets", "endpointType": "EDGE", "tags": map[string]any{"a": "b"}},
			oldState: map[string]any{"name": "pets", "endpointType": "REGIONAL"},
			policy:   restAPIPolicy,
			want:     []Operation{},
		},
		{
			name:     "cleared replace field is replaced with its zero value",
			newState: map[string]any{"name": "pets"},
			oldState: map[string]any{"name": "pets", "description": "Pet store"},
			policy:   restAPIPolicy,
			want:     []Operation{{Op: OpReplace, Path: "/description", Value: ""}},
		},
		{
			name:     "cleared field listed in remove is removed",
			newState: map[string]any{"name": "pets"},
			oldState: map[string]any{"name": "pets", "authorizerId": "abc123"},
			policy:   Policy{Replace: []string{"name", "authorizerId"}, Remove: []string{"authorizerId"}},
			want:     []Operation{{Op: OpRemove, Path: "/authorizerId"}},
		},
		{
			name:     "group order is add, replace, remove",
			newState: map[string]any{"name": "b", "description": "d"},
			oldState: map[string]any{"name": "a", "tags": "x"},
			policy: Policy{
				Remove:  []string{"tags"},
				Replace: []string{"name"},
				Add:     []string{"description"},
			},
			want: []Operation{
				{Op: OpAdd, Path: "/description", Value: "d"},
				{Op: OpReplace, Path: "/name", Value: "b"},
				{Op: OpRemove, Path: "/tags"},
			},
		},
		{
			name:     "header maps compared deeply",
			newState: map[string]any{"headers": map[string]string{"X-A": "1", "X-B": "2"}},
			oldState: map[string]any{"headers": map[string]string{"X-B": "2", "X-A": "1"}},
			policy:   Policy{Replace: []string{"headers"}},
			want:     []Operation{},
		},
		{
			name:     "header maps with a changed value",
			newState: map[string]any{"headers": map[string]string{"X-A": "1", "X-B": "3"}},
			oldState: map[string]any{"headers": map[string]string{"X-A": "1", "X-B": "2"}},
			policy:   Policy{Replace: []string{"headers"}},
			want: []Operation{
				{Op: OpReplace, Path: "/headers", Value: map[string]string{"X-A": "1", "X-B": "3"}},
			},
		},
		{
			name:     "false is a value",
			newState: map[string]any{"apiKeyRequired": false},
			oldState: map[string]any{"apiKeyRequired": true},
			policy:   Policy{Replace: []string{"apiKeyRequired"}},
			want:     []Operation{{Op: OpReplace, Path: "/apiKeyRequired", Value: false}},
		},
		{
			name:     "field listed twice is emitted once",
			newState: map[string]any{"parentId": "p2", "pathPart": "pets"},
			oldState: map[string]any{"parentId": "p1", "pathPart": "pets"},
			policy: Policy{
				AddForReplace: []string{"parentId", "pathPart"},
				Replace:       []string{"parentId", "pathPart"},
			},
			want: []Operation{{Op: OpReplace, Path: "/parentId", Value: "p2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.newState, tt.oldState, tt.policy)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestDiffOnlyEmitsPolicyFields checks that no operation ever touches a field the
// policy does not name, however much the states differ.
func TestDiffOnlyEmitsPolicyFields(t *testing.T) {
	policy := Policy{
		Add:           []string{"a"},
		AddForReplace: []string{"b"},
		Replace:       []string{"b", "c"},
		Remove:        []string{"d"},
	}
	allowed := map[string]bool{}
	for _, f := range policy.Fields() {
		allowed[Path(f)] = true
	}

	states := []map[string]any{
		nil,
		{},
		{"a": 1, "b": "x", "c": []string{"1"}, "d": true, "e": "immutable"},
		{"b": "y", "c": []string{"2"}, "e": "changed", "f": map[string]any{"g": 1}},
		{"a": 2, "d": false, "z": 0},
	}

	for i, oldState := range states {
		for j, newState := range states {
			for _, op := range Diff(newState, oldState, policy) {
				if !allowed[op.Path] {
					t.Errorf("states %d->%d: unexpected path %s", i, j, op.Path)
				}
			}
			if i == j {
				if ops := Diff(newState, oldState, policy); len(ops) != 0 {
					t.Errorf("Diff(x, x) for state %d = %v, want empty", i, ops)
				}
			}
		}
	}
}

// TestDiffAppliesAsJSONPatch applies the produced operations to the old document
// and checks the result matches the new document on every policy field.
func TestDiffAppliesAsJSONPatch(t *testing.T) {
	oldState := map[string]any{"name": "a", "tags": map[string]any{"team": "x"}, "immutable": "1"}
	newState := map[string]any{"name": "b", "description": "d", "immutable": "2"}
	policy := Policy{
		Add:     []string{"description"},
		Replace: []string{"name"},
		Remove:  []string{"tags"},
	}

	ops := Diff(newState, oldState, policy)
	raw, err := json.Marshal(ops)
	if err != nil {
		t.Fatalf("marshal ops: %v", err)
	}
	p, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		t.Fatalf("decode patch: %v", err)
	}
	doc, _ := json.Marshal(oldState)
	patched, err := p.Apply(doc)
	if err != nil {
		t.Fatalf("apply patch: %v", err)
	}

	want := []byte(`{"name":"b","description":"d","immutable":"1"}`)
	if !jsonpatch.Equal(want, patched) {
		t.Errorf("patched document = %s, want %s", patched, want)
	}
}

func TestStateOf(t *testing.T) {
	type settings struct {
		Name        string            `mapstructure:"name"`
		Description string            `mapstructure:"description"`
		Enabled     bool              `mapstructure:"enabled"`
		Headers     map[string]string `mapstructure:"headers"`
		Internal    string            `mapstructure:"internal" patch:"-"`
		Ref         *string           `mapstructure:"ref"`
	}
	ref := "r-1"

	got := StateOf(&settings{Name: "pets", Internal: "x", Ref: &ref})
	want := map[string]any{"name": "pets", "enabled": false, "ref": "r-1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StateOf() mismatch (-want +got):\n%s", diff)
	}

	if got := StateOf((*settings)(nil)); len(got) != 0 {
		t.Errorf("StateOf(nil) = %v, want empty", got)
	}
}

func TestPathEscaping(t *testing.T) {
	if got := Path("a/b~c"); got != "/a~1b~0c" {
		t.Errorf("Path() = %q", got)
	}
}
