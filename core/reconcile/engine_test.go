package reconcile

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/device/mocks"
	"declaration-manager/core/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPlan() *Plan {
	return &Plan{
		Stages: []Stage{
			{
				Domain:  "network",
				Upserts: []Upsert{},
				Commands: []device.Command{
					{Method: device.MethodCreate, Path: "/tm/net/vlan", Body: device.Body{"name": "internal"}},
				},
			},
			{
				Domain: "gslb",
				Upserts: []Upsert{
					{Path: "/tm/gtm/global-settings/general", Body: device.Body{"synchronization": "yes"}, Mode: UpsertModify},
				},
				Commands: []device.Command{
					{Method: device.MethodCreate, Path: "/tm/gtm/datacenter", Body: device.Body{"name": "dc1"}},
					{Method: device.MethodCreate, Path: "/tm/gtm/server", Body: device.Body{"name": "s1"}},
				},
			},
			{
				Domain: "system",
				Upserts: []Upsert{
					{Path: "/tm/sys/global-settings", Body: device.Body{"hostname": "bigip1"}, Mode: UpsertModify},
					{Path: "/tm/sys/db/ui.advisory.enabled", Body: device.Body{"value": "true"}, Mode: UpsertCreateOrModify},
				},
			},
		},
		Summary: PlanSummary{Upserts: 3, Creates: 3},
	}
}

func TestEngine_ApplySingleTransaction(t *testing.T) {
	rec := device.NewRecorder()
	engine := NewEngine(rec, zap.NewNop(), Options{})

	result, err := engine.Apply(context.Background(), testPlan())
	require.NoError(t, err)

	assert.Equal(t, 3, result.UpsertsApplied)
	assert.Equal(t, 1, result.TransactionsSubmitted)
	assert.Equal(t, 3, result.CommandsSubmitted)

	var txs []device.Operation
	kinds := map[device.OperationKind]int{}
	for _, op := range rec.Operations() {
		kinds[op.Kind]++
		if op.Kind == device.OpTransaction {
			txs = append(txs, op)
		}
	}
	assert.Equal(t, 2, kinds[device.OpModify])
	assert.Equal(t, 1, kinds[device.OpCreateOrModify])
	require.Len(t, txs, 1)

	paths := []string{}
	for _, c := range txs[0].Commands {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{"/tm/net/vlan", "/tm/gtm/datacenter", "/tm/gtm/server"}, paths)

	// Leaf settings complete before the transaction is submitted
	ops := rec.Operations()
	assert.Equal(t, device.OpTransaction, ops[len(ops)-1].Kind)
}

func TestEngine_ApplyPerDomainTransactions(t *testing.T) {
	rec := device.NewRecorder()
	engine := NewEngine(rec, zap.NewNop(), Options{PerDomainTransactions: true})

	result, err := engine.Apply(context.Background(), testPlan())
	require.NoError(t, err)
	assert.Equal(t, 2, result.TransactionsSubmitted)

	var sizes []int
	for _, op := range rec.Operations() {
		if op.Kind == device.OpTransaction {
			sizes = append(sizes, len(op.Commands))
		}
	}
	assert.Equal(t, []int{1, 2}, sizes)
}

func TestEngine_NoCommandsNoTransaction(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("Modify", mock.Anything, "/tm/sys/global-settings", device.Body{"hostname": "bigip1"}).Return(nil).Once()

	plan := &Plan{
		Stages: []Stage{{
			Domain:  "system",
			Upserts: []Upsert{{Path: "/tm/sys/global-settings", Body: device.Body{"hostname": "bigip1"}, Mode: UpsertModify}},
		}},
		Summary: PlanSummary{Upserts: 1},
	}

	result, err := NewEngine(mockClient, zap.NewNop(), Options{}).Apply(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TransactionsSubmitted)
	mockClient.AssertExpectations(t)
	mockClient.AssertNotCalled(t, "Transaction", mock.Anything, mock.Anything)
}

func TestEngine_DryRunTouchesNothing(t *testing.T) {
	mockClient := new(mocks.Client)

	result, err := NewEngine(mockClient, zap.NewNop(), Options{DryRun: true}).Apply(context.Background(), testPlan())
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 0, result.UpsertsApplied)
	mockClient.AssertExpectations(t)
}

func TestEngine_LeafSettingFailureAbortsCycle(t *testing.T) {
	rec := device.NewRecorder()
	rec.Fail = func(op device.Operation) error {
		if op.Path == "/tm/gtm/global-settings/general" {
			return errors.New("01070734:3: Configuration error")
		}
		return nil
	}

	result, err := NewEngine(rec, zap.NewNop(), Options{Concurrency: 1}).Apply(context.Background(), testPlan())
	require.Error(t, err)

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "gslb", de.Domain)
	assert.Equal(t, OpLeafSettings, de.Op)
	assert.Equal(t, "gslb: leaf settings failed: 01070734:3: Configuration error", err.Error())
	assert.Equal(t, 0, result.TransactionsSubmitted)

	for _, op := range rec.Operations() {
		assert.NotEqual(t, device.OpTransaction, op.Kind)
	}
}

func TestEngine_TransactionFailureNamesDomains(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("Modify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockClient.On("CreateOrModify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockClient.On("Transaction", mock.Anything, mock.Anything).Return(errors.New("transaction failed: server s1 references unknown datacenter")).Once()

	result, err := NewEngine(mockClient, zap.NewNop(), Options{}).Apply(context.Background(), testPlan())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "network,gslb: transaction failed: "))
	assert.Equal(t, 3, result.UpsertsApplied)
	assert.Equal(t, 0, result.TransactionsSubmitted)
}

func TestEngine_ConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	client := &gatedClient{inFlight: &inFlight, peak: &peak}

	plan := &Plan{Summary: PlanSummary{Upserts: 8}}
	stage := Stage{Domain: "system"}
	for i := 0; i < 8; i++ {
		stage.Upserts = append(stage.Upserts, Upsert{Path: "/tm/sys/db/k", Mode: UpsertModify})
	}
	plan.Stages = []Stage{stage}

	result, err := NewEngine(client, zap.NewNop(), Options{Concurrency: 2}).Apply(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 8, result.UpsertsApplied)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

// gatedClient tracks how many Modify calls overlap.
type gatedClient struct {
	device.Recorder
	inFlight *atomic.Int32
	peak     *atomic.Int32
}

func (c *gatedClient) Modify(ctx context.Context, path string, body device.Body) error {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return nil
}

func TestEngine_Run(t *testing.T) {
	doc := declaration.FromMap(map[string]any{
		"Common": map[string]any{
			"class": "Tenant",
			"internal": map[string]any{
				"class": "Vlan",
				"tag":   100,
			},
		},
	})

	h := &vlanHandler{}
	rec := device.NewRecorder()
	engine := NewEngine(rec, zap.NewNop(), Options{}, h)

	snap := snapshot.New()
	snap.Add(declaration.ClassVlan, "Common", "internal")

	result, err := engine.Run(context.Background(), doc, staticSource{snap})
	require.NoError(t, err)
	assert.Equal(t, []string{"Common"}, result.Plan.Tenants)
	assert.Equal(t, 1, result.Plan.Summary.Entities)
	assert.Equal(t, 1, result.CommandsSubmitted)

	ops := rec.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, device.MethodModify, ops[0].Commands[0].Method)
	assert.Equal(t, "/tm/net/vlan/~Common~internal", ops[0].Commands[0].Path)
}

func TestEngine_RunErrors(t *testing.T) {
	engine := NewEngine(device.NewRecorder(), zap.NewNop(), Options{}, &vlanHandler{})

	orphan := declaration.FromMap(map[string]any{"v": map[string]any{"class": "Vlan"}})
	_, err := engine.Run(context.Background(), orphan, staticSource{snapshot.New()})
	var se *declaration.StructuralError
	assert.ErrorAs(t, err, &se)

	ok := declaration.FromMap(map[string]any{})
	_, err = engine.Run(context.Background(), ok, failingSource{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load snapshot")
}

type vlanHandler struct{}

func (vlanHandler) Name() string    { return "network" }
func (vlanHandler) After() []string { return nil }

func (vlanHandler) LeafSettings(parsed *declaration.Parsed) ([]Upsert, error) {
	return nil, nil
}

func (vlanHandler) Commands(parsed *declaration.Parsed, snap snapshot.Snapshot) ([]device.Command, error) {
	var out []device.Command
	for _, e := range parsed.Entities(declaration.ClassVlan) {
		out = append(out, NewCommand(snap, e, "/tm/net/vlan", device.Body{"name": e.Name}))
	}
	return out, nil
}

type staticSource struct{ m *snapshot.Map }

func (s staticSource) Load(ctx context.Context) (*snapshot.Map, error) { return s.m, nil }

type failingSource struct{}

func (failingSource) Load(ctx context.Context) (*snapshot.Map, error) {
	return nil, errors.New("snapshot unreachable")
}
