package declaration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_PreservesOrder(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"z": 1, "a": {"y": true, "b": [1, {"k": "v"}]}, "m": null}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, doc.Keys)

	inner, ok := doc.Values["a"].(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"y", "b"}, inner.Keys)

	plainMap := doc.Map()
	assert.Equal(t, map[string]any{
		"z": 1,
		"a": map[string]any{"y": true, "b": []any{1, map[string]any{"k": "v"}}},
		"m": nil,
	}, plainMap)
}

func TestDecode_RejectsNonObjectRoot(t *testing.T) {
	_, err := Decode(strings.NewReader(`[1, 2]`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`{"a": `))
	assert.Error(t, err)
}

func TestDecode_RejectsDuplicateKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
		key   string
	}{
		{
			name: "RepeatedEntity",
			input: `{"Common": {"class": "Tenant",
  "dc1": {"class": "GSLBDataCenter", "location": "first"},
  "dc1": {"class": "GSLBDataCenter", "location": "second"}}}`,
			key: "dc1",
		},
		{
			name: "RepeatedTenant",
			input: `{"Common": {"class": "Tenant", "v1": {"class": "Vlan"}},
"Common": {"class": "Tenant", "v2": {"class": "Vlan"}}}`,
			key: "Common",
		},
		{
			name:  "RepeatedYAMLAttribute",
			input: "Common:\n  class: Tenant\n  class: Tenant\n",
			key:   "class",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			var dup *DuplicateKeyError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.key, dup.Key)
			assert.Greater(t, dup.Line, dup.FirstLine)
		})
	}
}

func TestDecode_SameKeyInDifferentObjects(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"A": {"class": "Tenant", "dc1": {"class": "GSLBDataCenter"}},
"B": {"class": "Tenant", "dc1": {"class": "GSLBDataCenter"}}}`))
	require.NoError(t, err)

	parsed, err := ParseDocument(doc)
	require.NoError(t, err)
	assert.Len(t, parsed.Entities(ClassGSLBDataCenter), 2)
}

func TestFromMap_SortsKeys(t *testing.T) {
	obj := FromMap(map[string]any{"b": 1, "a": map[string]any{"d": 1, "c": 2}})
	assert.Equal(t, []string{"a", "b"}, obj.Keys)
	assert.Equal(t, []string{"c", "d"}, obj.Values["a"].(*Object).Keys)
}

func TestParseClass(t *testing.T) {
	c, err := ParseClass("GSLBServer")
	require.NoError(t, err)
	assert.Equal(t, ClassGSLBServer, c)
	assert.False(t, c.IsTenant())
	assert.True(t, ClassTenant.IsTenant())

	_, err = ParseClass("gslbserver")
	assert.Error(t, err)
}
