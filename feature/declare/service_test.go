package declare

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/reconcile"
	"declaration-manager/core/snapshot"
	"declaration-manager/core/storage/mocks"
	"declaration-manager/feature/gslb"
	"declaration-manager/feature/network"
	"declaration-manager/feature/system"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const gslbDeclaration = `{
  "schemaVersion": "1.20.0",
  "class": "Device",
  "Common": {
    "class": "Tenant",
    "internal": {"class": "Vlan", "tag": 100, "interfaces": ["1.1"]},
    "dc1": {"class": "GSLBDataCenter", "location": "Seattle"},
    "mon1": {"class": "GSLBMonitor", "monitorType": "http"}
  }
}`

func newTestService(t *testing.T, client device.Client, snapPath string, archive *Archive) *Service {
	t.Helper()
	logger := zap.NewNop()
	engine := reconcile.NewEngine(client, logger, reconcile.Options{},
		system.NewHandler(logger),
		network.NewHandler(logger, nil),
		gslb.NewHandler(logger),
	)
	var source snapshot.Source = snapshot.Empty{}
	if snapPath != "" {
		source = &snapshot.FileSource{Path: snapPath}
	}
	return NewService(engine, snapshot.NewCache(source, 0), archive, logger)
}

func emptySnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	return path
}

func TestService_Parse(t *testing.T) {
	svc := newTestService(t, device.NewRecorder(), "", nil)

	report, err := svc.Parse([]byte(gslbDeclaration))
	require.NoError(t, err)
	assert.Equal(t, []string{"Common"}, report.Tenants)
	assert.Equal(t, 3, report.Count)
	assert.Len(t, report.Classes[declaration.ClassGSLBDataCenter], 1)
}

func TestService_ParseInvalid(t *testing.T) {
	svc := newTestService(t, device.NewRecorder(), "", nil)

	_, err := svc.Parse([]byte(`{"Common": {"class": "Tenant", "x": {"class": "Bogus"}}}`))
	var invalid *InvalidError
	require.ErrorAs(t, err, &invalid)
	var unknown *declaration.UnknownClassError
	assert.ErrorAs(t, err, &unknown)

	_, err = svc.Parse([]byte(`[1, 2]`))
	assert.ErrorAs(t, err, &invalid)
}

func TestService_DeclareAppliesAndRecords(t *testing.T) {
	rec := device.NewRecorder()
	path := emptySnapshot(t)
	svc := newTestService(t, rec, path, nil)

	report, err := svc.Declare(context.Background(), "id-1", []byte(gslbDeclaration), false)
	require.NoError(t, err)
	assert.Equal(t, "id-1", report.ID)
	require.NotNil(t, report.Result)
	assert.Equal(t, 1, report.Result.TransactionsSubmitted)
	assert.Equal(t, 3, report.Plan.Summary.Creates)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	snap, err := snapshot.Decode(f)
	require.NoError(t, err)
	assert.True(t, snap.Has(declaration.ClassGSLBDataCenter, "Common", "dc1"))
	assert.True(t, snap.Has(declaration.ClassVlan, "Common", "internal"))

	// The second submission modifies what the first created
	rec.Reset()
	report, err = svc.Declare(context.Background(), "id-2", []byte(gslbDeclaration), false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Plan.Summary.Creates)
	assert.Equal(t, 3, report.Plan.Summary.Modifies)
}

func TestService_DeclareDryRun(t *testing.T) {
	rec := device.NewRecorder()
	store := new(mocks.Client)
	svc := newTestService(t, rec, "", NewArchive(store, "declarations", "declarations/", 0))

	report, err := svc.Declare(context.Background(), "id-1", []byte(gslbDeclaration), true)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Nil(t, report.Result)
	assert.Empty(t, rec.Operations())
	store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_DeclareArchives(t *testing.T) {
	store := new(mocks.Client)
	store.On("PutObject", mock.Anything, "declarations", mock.MatchedBy(func(key string) bool {
		return filepath.Ext(key) == ".json"
	}), mock.Anything, int64(len(gslbDeclaration)), mock.Anything).Return(minio.UploadInfo{}, nil).Once()

	svc := newTestService(t, device.NewRecorder(), "", NewArchive(store, "declarations", "declarations/", 0))
	_, err := svc.Declare(context.Background(), "id-1", []byte(gslbDeclaration), false)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestService_DeclareArchiveFailureIsNotFatal(t *testing.T) {
	store := new(mocks.Client)
	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("unreachable"))

	svc := newTestService(t, device.NewRecorder(), "", NewArchive(store, "declarations", "declarations/", 0))
	report, err := svc.Declare(context.Background(), "id-1", []byte(gslbDeclaration), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Result.TransactionsSubmitted)
}

func TestService_DeclarePlanErrorIsInvalid(t *testing.T) {
	svc := newTestService(t, device.NewRecorder(), "", nil)

	body := `{"Common": {"class": "Tenant", "m": {"class": "GSLBMonitor", "monitorType": "ldap"}}}`
	_, err := svc.Declare(context.Background(), "id-1", []byte(body), false)
	var invalid *InvalidError
	require.ErrorAs(t, err, &invalid)
	var de *reconcile.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "gslb", de.Domain)
}

func TestService_DeclareDeviceFailure(t *testing.T) {
	rec := device.NewRecorder()
	rec.Fail = func(op device.Operation) error {
		if op.Kind == device.OpTransaction {
			return errors.New("datacenter dc1 already exists")
		}
		return nil
	}
	path := emptySnapshot(t)
	svc := newTestService(t, rec, path, nil)

	report, err := svc.Declare(context.Background(), "id-1", []byte(gslbDeclaration), false)
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Contains(t, err.Error(), "transaction failed")

	// Nothing is recorded for a failed cycle
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestService_HistoryWithoutArchive(t *testing.T) {
	svc := newTestService(t, device.NewRecorder(), "", nil)

	entries, err := svc.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.Archived(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotArchived)
}

func TestService_ConcurrentDeclaresAreRecorded(t *testing.T) {
	rec := device.NewRecorder()
	path := emptySnapshot(t)
	svc := newTestService(t, rec, path, nil)

	bodies := map[string]string{
		"TenantA": `{"TenantA": {"class": "Tenant", "dc1": {"class": "GSLBDataCenter"}}}`,
		"TenantB": `{"TenantB": {"class": "Tenant", "dc2": {"class": "GSLBDataCenter"}}}`,
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(bodies))
	for tenant, body := range bodies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Declare(context.Background(), tenant, []byte(body), false)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Each tenant now exists, so a resubmission only modifies
	for tenant, body := range bodies {
		report, err := svc.Declare(context.Background(), tenant+"-again", []byte(body), true)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Plan.Summary.Creates, tenant)
		assert.Equal(t, 1, report.Plan.Summary.Modifies, tenant)
	}
}
