// Package catalog defines the tables served by statusd and their columns.
package catalog

import (
	"path/filepath"

	"github.com/leengari/statusd/internal/column"
	"github.com/leengari/statusd/internal/config"
	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/data"
	"github.com/leengari/statusd/internal/state"
	"github.com/leengari/statusd/internal/table"
)

// New builds all tables over st. Blob base paths are looked up in cfg on
// every read.
func New(st *state.Store, cfg *config.Store) (*table.Database, error) {
	db := table.NewDatabase()

	hosts, err := hostsTable(st, cfg)
	if err != nil {
		return nil, err
	}
	services, err := servicesTable(st, cfg)
	if err != nil {
		return nil, err
	}
	crashes, err := crashReportsTable(st, cfg)
	if err != nil {
		return nil, err
	}
	status, err := statusTable(st, cfg)
	if err != nil {
		return nil, err
	}

	for _, t := range []*table.Table{hosts, services, crashes, status} {
		db.Register(t)
	}
	return db, nil
}

func addColumns(t *table.Table, cols ...column.Column) (*table.Table, error) {
	for _, c := range cols {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// hostColumns are shared by the hosts table and, with a prefix and an
// extra offset, by the services table
func hostColumns(prefix string, offsets column.Offsets, cfg *config.Store) []column.Column {
	inventory := cfg.Path(func(p config.Paths) string { return p.Inventory })
	structured := cfg.Path(func(p config.Paths) string { return p.StructuredStatus })

	return []column.Column{
		column.NewString(prefix+"name", "Host name", offsets,
			func(h *state.Host) string { return h.Name }),
		column.NewString(prefix+"alias", "An alias name for the host", offsets,
			func(h *state.Host) string { return h.Alias }),
		column.NewString(prefix+"address", "IP address", offsets,
			func(h *state.Host) string { return h.Address }),
		column.NewInt(prefix+"state", "The current state of the host (0: up, 1: down, 2: unreachable)", offsets,
			func(h *state.Host) int64 { return h.State }),
		column.NewBlob(prefix+"mk_inventory", "The file content of the Check_MK HW/SW inventory", offsets,
			column.NewBlobFileReader(inventory,
				func(h *state.Host) string { return h.Name }).Read),
		column.NewBlob(prefix+"mk_inventory_gz", "The gzipped file content of the Check_MK HW/SW inventory", offsets,
			column.NewBlobFileReader(inventory,
				func(h *state.Host) string { return h.Name + ".gz" }).Read),
		column.NewBlob(prefix+"structured_status", "The file content of the structured status of the Check_MK HW/SW inventory", offsets,
			column.NewBlobFileReader(structured,
				func(h *state.Host) string { return h.Name }).Read),
	}
}

func authorizeHost(row data.Row, u auth.User) bool {
	h, ok := row.Record().(*state.Host)
	return ok && u.IsAuthorizedForHost(h.Name)
}

func authorizeService(row data.Row, u auth.User) bool {
	svc, ok := row.Record().(*state.Service)
	return ok && svc.Host != nil && u.IsAuthorizedForHost(svc.Host.Name)
}

func hostsTable(st *state.Store, cfg *config.Store) (*table.Table, error) {
	t := table.New("hosts", st.Hosts()).WithAuthorization(authorizeHost)
	return addColumns(t, hostColumns("", column.Offsets{}, cfg)...)
}

func serviceHost(p any) any {
	if h := p.(*state.Service).Host; h != nil {
		return h
	}
	return nil
}

func servicesTable(st *state.Store, cfg *config.Store) (*table.Table, error) {
	t := table.New("services", st.Services()).WithAuthorization(authorizeService)
	cols := []column.Column{
		column.NewString("description", "Service description", column.Offsets{},
			func(s *state.Service) string { return s.Description }),
		column.NewInt("state", "The current state of the service (0: OK, 1: WARN, 2: CRIT, 3: UNKNOWN)", column.Offsets{},
			func(s *state.Service) int64 { return s.State }),
	}
	cols = append(cols, hostColumns("host_", column.Offsets{}.Add(serviceHost), cfg)...)
	return addColumns(t, cols...)
}

func crashReportsTable(st *state.Store, cfg *config.Store) (*table.Table, error) {
	crashes := cfg.Path(func(p config.Paths) string { return p.CrashReports })
	t := table.New("crashreports", st.CrashReports())
	return addColumns(t,
		column.NewString("id", "The ID of a crash report", column.Offsets{},
			func(c *state.CrashReport) string { return c.ID }),
		column.NewString("component", "The component that crashed (gui, agent, check, etc.)", column.Offsets{},
			func(c *state.CrashReport) string { return c.Component }),
		column.NewBlob("crash_info", "The crash.info file of the crash report", column.Offsets{},
			column.NewBlobFileReader(crashes, func(c *state.CrashReport) string {
				return filepath.Join(c.Component, c.ID, "crash.info")
			}).Read),
	)
}

func statusTable(st *state.Store, cfg *config.Store) (*table.Table, error) {
	history := cfg.Path(func(p config.Paths) string { return p.LicenseUsageHistory })
	t := table.New("status", st.Status())
	return addColumns(t,
		column.NewString("program_version", "The version of the monitoring daemon", column.Offsets{},
			func(s *state.Status) string { return s.ProgramVersion }),
		column.NewInt("num_hosts", "The total number of hosts", column.Offsets{},
			func(s *state.Status) int64 { return s.NumHosts }),
		column.NewInt("num_services", "The total number of services", column.Offsets{},
			func(s *state.Status) int64 { return s.NumServices }),
		column.NewBlob("license_usage_history", "Historic license usage information", column.Offsets{},
			column.NewBlobFileReader(history, func(*state.Status) string {
				return column.BasePathItself
			}).Read),
	)
}
