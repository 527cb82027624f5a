package declaration

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const systemDeclaration = `{
  "schemaVersion": "1.0.0",
  "class": "Device",
  "Common": {
    "class": "Tenant",
    "mySystem": {
      "class": "System",
      "hostname": "bigip1.example.com",
      "myLicense": {
        "class": "License",
        "regKey": "ABC-123",
        "addOnKeys": ["A", "B"]
      }
    },
    "myDns": {
      "class": "DNS",
      "nameServers": ["8.8.8.8"]
    }
  }
}`

func mustDecode(t *testing.T, s string) *Object {
	t.Helper()
	doc, err := Decode(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func TestParse_SystemWithNestedLicense(t *testing.T) {
	parsed, err := ParseDocument(mustDecode(t, systemDeclaration))
	require.NoError(t, err)

	assert.Equal(t, []string{"Common"}, parsed.Tenants)

	system := parsed.First(ClassSystem)
	require.NotNil(t, system)
	assert.Equal(t, "bigip1.example.com", system.Attributes["hostname"])
	assert.Equal(t, "Common", system.Tenant)
	assert.NotContains(t, system.Attributes, "myLicense", "lifted children must not stay in parent attributes")
	assert.NotContains(t, system.Attributes, "class")

	license := parsed.First(ClassLicense)
	require.NotNil(t, license)
	assert.Equal(t, "Common", license.Tenant)
	assert.Equal(t, "myLicense", license.Name)
	assert.Equal(t, "ABC-123", license.Attributes["regKey"])
	assert.Equal(t, "/Common/mySystem/myLicense", license.Path)
	require.NotNil(t, license.Parent)
	assert.Equal(t, Ref{Class: ClassSystem, Tenant: "Common", Name: "mySystem"}, *license.Parent)

	assert.Equal(t, []Class{ClassSystem, ClassLicense, ClassDNS}, parsed.ClassOrder())
	assert.Equal(t, 3, parsed.Len())
}

func TestParse_TwoTenantsTagVlans(t *testing.T) {
	// Tenant B is declared first on purpose.
	doc := mustDecode(t, `
tenantB:
  class: Tenant
  vlanB:
    class: Vlan
    tag: 200
tenantA:
  class: Tenant
  vlanA:
    class: Vlan
    tag: 100
`)
	parsed, err := ParseDocument(doc)
	require.NoError(t, err)

	assert.Len(t, parsed.Tenants, 2)
	assert.Equal(t, []string{"tenantB", "tenantA"}, parsed.Tenants)

	vlans := parsed.Entities(ClassVlan)
	require.Len(t, vlans, 2)
	for _, v := range vlans {
		switch v.Name {
		case "vlanA":
			assert.Equal(t, "tenantA", v.Tenant)
			assert.Equal(t, 100, v.Attributes["tag"])
		case "vlanB":
			assert.Equal(t, "tenantB", v.Tenant)
			assert.Equal(t, 200, v.Attributes["tag"])
		default:
			t.Fatalf("unexpected vlan %s", v.Name)
		}
	}
}

func TestParse_DeepContainersKeepTenant(t *testing.T) {
	decl := map[string]any{
		"Common": map[string]any{
			"class": "Tenant",
			"gslb": map[string]any{
				"east": map[string]any{
					"dc1": map[string]any{"class": "GSLBDataCenter", "location": "east"},
				},
			},
		},
	}
	parsed, err := Parse(decl)
	require.NoError(t, err)

	dc := parsed.Lookup(ClassGSLBDataCenter, "Common", "dc1")
	require.NotNil(t, dc)
	assert.Equal(t, "/Common/gslb/east/dc1", dc.Path)
	assert.Nil(t, dc.Parent)
}

func TestParse_Deterministic(t *testing.T) {
	decl := map[string]any{
		"Common": map[string]any{
			"class": "Tenant",
			"b":     map[string]any{"class": "GSLBServer"},
			"a":     map[string]any{"class": "GSLBServer"},
			"c":     map[string]any{"class": "GSLBDataCenter"},
		},
		"Other": map[string]any{
			"class": "Tenant",
			"d":     map[string]any{"class": "GSLBServer"},
		},
	}

	first, err := Parse(decl)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Parse(decl)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	names := []string{}
	for _, e := range first.Entities(ClassGSLBServer) {
		names = append(names, e.Tenant+"/"+e.Name)
	}
	assert.Equal(t, []string{"Common/a", "Common/b", "Other/d"}, names)
}

func TestParse_EmptyDeclaration(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.Len())
	assert.Empty(t, parsed.Tenants)

	parsed, err = ParseDocument(mustDecode(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.Len())
}

func TestParse_UnwrapsDOEnvelope(t *testing.T) {
	doc := mustDecode(t, `{
  "class": "DO",
  "declaration": {
    "class": "Device",
    "Common": {"class": "Tenant", "ntp": {"class": "NTP", "servers": ["0.pool.ntp.org"]}}
  }
}`)
	parsed, err := ParseDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Common"}, parsed.Tenants)
	assert.NotNil(t, parsed.First(ClassNTP))
}

func TestParse_StructuralErrors(t *testing.T) {
	tests := []struct {
		name     string
		decl     string
		wantPath string
	}{
		{
			name:     "orphan entity",
			decl:     `{"dc1": {"class": "GSLBDataCenter"}}`,
			wantPath: "/dc1",
		},
		{
			name:     "orphan container",
			decl:     `{"stuff": {"dc1": {"class": "GSLBDataCenter"}}}`,
			wantPath: "/stuff",
		},
		{
			name:     "nested tenant",
			decl:     `{"Common": {"class": "Tenant", "inner": {"class": "Tenant"}}}`,
			wantPath: "/Common/inner",
		},
		{
			name:     "tenant inside entity",
			decl:     `{"Common": {"class": "Tenant", "sys": {"class": "System", "t": {"class": "Tenant"}}}}`,
			wantPath: "/Common/sys/t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument(mustDecode(t, tt.decl))
			require.Error(t, err)

			var structural *StructuralError
			require.True(t, errors.As(err, &structural))
			assert.Equal(t, tt.wantPath, structural.Path)
			assert.Contains(t, err.Error(), tt.wantPath)
		})
	}
}

func TestParse_UnknownClass(t *testing.T) {
	_, err := ParseDocument(mustDecode(t, `{"Common": {"class": "Tenant", "x": {"class": "Frobnicator"}}}`))
	require.Error(t, err)

	var unknown *UnknownClassError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Frobnicator", unknown.Class)
	assert.Equal(t, "/Common/x", unknown.Path)
}

func TestParse_DuplicateEntity(t *testing.T) {
	doc := mustDecode(t, `{
  "Common": {
    "class": "Tenant",
    "east": {"dc1": {"class": "GSLBDataCenter"}},
    "west": {"dc1": {"class": "GSLBDataCenter"}}
  }
}`)
	_, err := ParseDocument(doc)
	require.Error(t, err)

	var dup *DuplicateEntityError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "/Common/west/dc1", dup.Path)
	assert.Equal(t, "/Common/east/dc1", dup.FirstPath)
}

func TestParse_SameNameDifferentClassOrTenant(t *testing.T) {
	doc := mustDecode(t, `{
  "Common": {"class": "Tenant", "x": {"class": "GSLBDataCenter"}, "y": {"x": {"class": "GSLBServer"}}},
  "Other": {"class": "Tenant", "x": {"class": "GSLBDataCenter"}}
}`)
	parsed, err := ParseDocument(doc)
	require.NoError(t, err)
	assert.Len(t, parsed.Entities(ClassGSLBDataCenter), 2)
	assert.Len(t, parsed.Entities(ClassGSLBServer), 1)
}

func TestParse_ReportsAllErrors(t *testing.T) {
	_, err := ParseDocument(mustDecode(t, `{
  "orphan": {"class": "Vlan"},
  "Common": {"class": "Tenant", "x": {"class": "Nope"}}
}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/orphan")
	assert.Contains(t, err.Error(), "Nope")
}

func TestParse_EveryEntityUnderTenant(t *testing.T) {
	parsed, err := ParseDocument(mustDecode(t, systemDeclaration))
	require.NoError(t, err)

	for class, entities := range parsed.Classes {
		for _, e := range entities {
			assert.Equal(t, "Common", e.Tenant, "%s %s", class, e.Name)
			assert.True(t, strings.HasPrefix(e.Path, "/Common/"))
		}
	}
}
