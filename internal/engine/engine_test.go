package engine

import (
	"fmt"
	"os"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"

	"github.com/leengari/statusd/internal/catalog"
	"github.com/leengari/statusd/internal/config"
	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/errors"
	"github.com/leengari/statusd/internal/domain/query"
	"github.com/leengari/statusd/internal/state"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixture struct {
	root  *fs.Dir
	store *state.Store
	cfg   *config.Store
	eng   *Engine
	obs   *MockObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := fs.NewDir(t, "statusd",
		fs.WithFile("secret", "root:*:19000:0:99999:7:::"),
		fs.WithDir("inventory",
			fs.WithFile("web01", "inv-web01"),
			fs.WithFile("web01.gz", "gz-web01")),
		fs.WithDir("crashes", fs.WithDir("cmc", fs.WithDir("7f1c",
			fs.WithFile("crash.info", `{"exc_type":"KeyError"}`)))),
		fs.WithDir("license", fs.WithFile("history.json", `{"entries":[]}`)))
	t.Cleanup(root.Remove)

	cfgPath := root.Join("statusd.yaml")
	writeConfig(t, cfgPath, root.Join("inventory"), root)
	cfg, err := config.Load(cfgPath)
	assert.NilError(t, err)
	cfgStore := config.NewStore(cfgPath, cfg)

	st := state.NewStore()
	assert.NilError(t, st.Replace(&state.Snapshot{
		ProgramVersion: "2.3.0",
		Hosts: []*state.Host{
			{Name: "web01", Alias: "Web", State: 0},
			{Name: "db01", Alias: "DB", State: 1},
		},
		Services: []*state.Service{
			{Description: "CPU load", HostName: "web01", State: 2},
			{Description: "Disk IO", HostName: "db01", State: 0},
		},
		CrashReports: []*state.CrashReport{{ID: "7f1c", Component: "cmc"}},
	}))

	db, err := catalog.New(st, cfgStore)
	assert.NilError(t, err)
	eng := New(db)
	obs := &MockObserver{}
	eng.AddObserver(obs)

	return &fixture{root: root, store: st, cfg: cfgStore, eng: eng, obs: obs}
}

func writeConfig(t *testing.T, path, inventory string, root *fs.Dir) {
	t.Helper()
	raw := fmt.Sprintf(`paths:
  inventory: %s
  structured_status: %s
  crash_reports: %s
  license_usage_history: %s
`, inventory, root.Join("structured_status"), root.Join("crashes"), root.Join("license", "history.json"))
	assert.NilError(t, os.WriteFile(path, []byte(raw), 0o644))
}

func (f *fixture) lastEvent() EventType {
	return f.obs.Events[len(f.obs.Events)-1].Type
}

// =============================================================================
// SUITE 1: BLOB COLUMNS THROUGH THE ENGINE
// =============================================================================

func TestSelectHostBlobs(t *testing.T) {
	f := newFixture(t)

	res, err := f.eng.Execute(&query.Request{
		Table:   "hosts",
		Columns: []string{"name", "mk_inventory", "mk_inventory_gz", "structured_status"},
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, res.Columns, []string{"name", "mk_inventory", "mk_inventory_gz", "structured_status"})
	assert.DeepEqual(t, res.Rows, [][]any{
		{"web01", []byte("inv-web01"), []byte("gz-web01"), []byte{}},
		{"db01", []byte{}, []byte{}, []byte{}},
	})
	assert.Assert(t, res.QueryID != "")
	assert.Equal(t, f.lastEvent(), EventExecEnd)
}

func TestSelectHostBlobThroughService(t *testing.T) {
	f := newFixture(t)

	res, err := f.eng.Execute(&query.Request{
		Table:   "services",
		Columns: []string{"description", "host_name", "host_mk_inventory"},
		Filters: []query.Condition{{Column: "state", Operator: "=", Value: "2"}},
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, res.Rows, [][]any{
		{"CPU load", "web01", []byte("inv-web01")},
	})
}

func TestSelectCrashInfoAndLicenseHistory(t *testing.T) {
	f := newFixture(t)

	res, err := f.eng.Execute(&query.Request{
		Table:   "crashreports",
		Columns: []string{"component", "id", "crash_info"},
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, res.Rows, [][]any{{"cmc", "7f1c", []byte(`{"exc_type":"KeyError"}`)}})

	res, err = f.eng.Execute(&query.Request{
		Table:   "status",
		Columns: []string{"num_hosts", "license_usage_history"},
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, res.Rows, [][]any{{int64(2), []byte(`{"entries":[]}`)}})
}

func TestPathEscapeAbortsQuery(t *testing.T) {
	f := newFixture(t)
	assert.NilError(t, f.store.Replace(&state.Snapshot{
		Hosts: []*state.Host{{Name: "web01"}, {Name: "../secret"}},
	}))

	res, err := f.eng.Execute(&query.Request{
		Table:   "hosts",
		Columns: []string{"name", "mk_inventory"},
	})
	assert.ErrorIs(t, err, errors.ErrSecurityViolation)
	assert.ErrorContains(t, err, f.root.Join("secret"))
	assert.ErrorContains(t, err, f.root.Join("inventory"))
	assert.Assert(t, res == nil)
	assert.Equal(t, f.lastEvent(), EventQueryFailed)
}

func TestBlobColumnsRejectFilterAndStats(t *testing.T) {
	f := newFixture(t)

	tests := map[string]*query.Request{
		"filter": {
			Table:   "hosts",
			Filters: []query.Condition{{Column: "mk_inventory", Operator: "=", Value: ""}},
		},
		"stats count": {
			Table: "hosts",
			Stats: []query.Stat{{Condition: query.Condition{Column: "mk_inventory", Operator: "!=", Value: ""}}},
		},
		"stats sum": {
			Table: "services",
			Stats: []query.Stat{{Condition: query.Condition{Column: "host_mk_inventory"}, Aggregate: "sum"}},
		},
	}

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.eng.Execute(req)
			assert.ErrorIs(t, err, errors.ErrUnsupported)
			assert.ErrorContains(t, err, "mk_inventory' not supported")
		})
	}
}

// =============================================================================
// SUITE 2: QUERY ENGINE
// =============================================================================

func TestStats(t *testing.T) {
	f := newFixture(t)

	res, err := f.eng.Execute(&query.Request{
		Table: "services",
		Stats: []query.Stat{
			{Condition: query.Condition{Column: "state", Operator: "=", Value: "0"}},
			{Condition: query.Condition{Column: "state", Operator: ">", Value: "0"}},
			{Condition: query.Condition{Column: "state"}, Aggregate: "max"},
		},
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, res.Columns, []string{"stats_1", "stats_2", "stats_3"})
	assert.DeepEqual(t, res.Rows, [][]any{{int64(1), int64(1), 2.0}})
}

func TestAuthorizedUserSeesOwnHostsOnly(t *testing.T) {
	f := newFixture(t)

	res, err := f.eng.Execute(&query.Request{
		Table:   "services",
		Columns: []string{"host_name", "description"},
		User:    auth.NewContact("alice", "db01"),
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, res.Rows, [][]any{{"db01", "Disk IO"}})
}

func TestUnknownTableAndColumn(t *testing.T) {
	f := newFixture(t)

	_, err := f.eng.Execute(&query.Request{Table: "downtimes"})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = f.eng.Execute(&query.Request{Table: "hosts", Columns: []string{"mk_logwatch"}})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = f.eng.Execute(&query.Request{
		Table:   "hosts",
		Filters: []query.Condition{{Column: "name", Operator: "===", Value: "x"}},
	})
	assert.ErrorContains(t, err, "invalid relational operator")
}

func TestConfigChangeTakesEffect(t *testing.T) {
	f := newFixture(t)
	writeConfig(t, f.root.Join("statusd.yaml"), f.root.Join("nowhere"), f.root)
	assert.NilError(t, f.cfg.Reload())

	res, err := f.eng.Execute(&query.Request{Table: "hosts", Columns: []string{"mk_inventory"}})
	assert.NilError(t, err)
	assert.DeepEqual(t, res.Rows, [][]any{{[]byte{}}, {[]byte{}}})
}
