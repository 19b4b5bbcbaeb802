package state

import (
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/data"
)

// Host is the live record of one monitored host
type Host struct {
	Name     string   `json:"name"`
	Alias    string   `json:"alias"`
	Address  string   `json:"address"`
	State    int64    `json:"state"`
	Contacts []string `json:"contacts,omitempty"`
}

// Service is the live record of one service; it points to its host
type Service struct {
	Description string `json:"description"`
	HostName    string `json:"host_name"`
	State       int64  `json:"state"`
	Host        *Host  `json:"-"`
}

// CrashReport identifies one crash dump directory
type CrashReport struct {
	ID        string `json:"id"`
	Component string `json:"component"`
}

// Status is the single record of the status table
type Status struct {
	ProgramVersion string
	NumHosts       int64
	NumServices    int64
}

// Snapshot is the on-disk form of the live state
type Snapshot struct {
	ProgramVersion string         `json:"program_version"`
	Hosts          []*Host        `json:"hosts"`
	Services       []*Service     `json:"services"`
	CrashReports   []*CrashReport `json:"crash_reports,omitempty"`
}

// Store holds the records served by the tables. Replace swaps the whole
// snapshot; readers iterate over the snapshot current at query start.
type Store struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{snapshot: &Snapshot{}}
}

// Load reads a JSON state file into a new snapshot
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if err := snap.link(); err != nil {
		return nil, err
	}

	slog.Info("state loaded",
		slog.String("path", path),
		slog.Int("hosts", len(snap.Hosts)),
		slog.Int("services", len(snap.Services)),
		slog.Int("crash_reports", len(snap.CrashReports)),
	)
	return &snap, nil
}

// link resolves service host names to host records and rejects null entries
func (s *Snapshot) link() error {
	hosts := make(map[string]*Host, len(s.Hosts))
	for i, h := range s.Hosts {
		if h == nil {
			return fmt.Errorf("hosts[%d] is null", i)
		}
		if _, dup := hosts[h.Name]; dup {
			return fmt.Errorf("duplicate host '%s'", h.Name)
		}
		hosts[h.Name] = h
	}
	for i, svc := range s.Services {
		if svc == nil {
			return fmt.Errorf("services[%d] is null", i)
		}
		h, ok := hosts[svc.HostName]
		if !ok {
			return fmt.Errorf("service '%s' references unknown host '%s'", svc.Description, svc.HostName)
		}
		svc.Host = h
	}
	for i, c := range s.CrashReports {
		if c == nil {
			return fmt.Errorf("crash_reports[%d] is null", i)
		}
	}
	return nil
}

// Replace installs a new snapshot, linking services to their hosts
func (st *Store) Replace(snap *Snapshot) error {
	if err := snap.link(); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snapshot = snap
	return nil
}

func (st *Store) current() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snapshot
}

func rows[T any](items []*T) iter.Seq[data.Row] {
	return func(yield func(data.Row) bool) {
		for _, it := range items {
			if !yield(data.NewRow(it)) {
				return
			}
		}
	}
}

// Hosts iterates over the hosts of the current snapshot
func (st *Store) Hosts() iter.Seq[data.Row] {
	return func(yield func(data.Row) bool) {
		rows(st.current().Hosts)(yield)
	}
}

// Services iterates over the services of the current snapshot
func (st *Store) Services() iter.Seq[data.Row] {
	return func(yield func(data.Row) bool) {
		rows(st.current().Services)(yield)
	}
}

// CrashReports iterates over the crash reports of the current snapshot
func (st *Store) CrashReports() iter.Seq[data.Row] {
	return func(yield func(data.Row) bool) {
		rows(st.current().CrashReports)(yield)
	}
}

// Status yields the single status row
func (st *Store) Status() iter.Seq[data.Row] {
	return func(yield func(data.Row) bool) {
		snap := st.current()
		yield(data.NewRow(&Status{
			ProgramVersion: snap.ProgramVersion,
			NumHosts:       int64(len(snap.Hosts)),
			NumServices:    int64(len(snap.Services)),
		}))
	}
}

// User returns the contact called name, allowed to see the hosts listing
// it as a contact. An empty name means no authorization.
func (st *Store) User(name string) auth.User {
	if name == "" {
		return auth.NoAuth{}
	}
	var hosts []string
	for _, h := range st.current().Hosts {
		if slices.Contains(h.Contacts, name) {
			hosts = append(hosts, h.Name)
		}
	}
	return auth.NewContact(name, hosts...)
}
