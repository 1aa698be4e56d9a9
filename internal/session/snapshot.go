// Package session persists a cross-page snapshot of the current session:
// user, accounts, rules and logs. It is a convenience cache, never a source
// of truth; pages render from fresh reads and consult the snapshot only
// when decorating failures. The store is passed explicitly to its
// consumers, initialized empty at session start and cleared at logout.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/jeffreasy/agenda-dashboard/internal/model"
)

// StorageKey is the fixed snapshot file name inside the state dir, named
// after the browser storage key it replaces.
const StorageKey = "agenda-automator-storage.json"

type Snapshot struct {
	User          *model.User              `json:"user"`
	Accounts      []model.ConnectedAccount `json:"accounts"`
	Rules         []model.AutomationRule   `json:"rules"`
	Logs          []model.AutomationLog    `json:"logs"`
	Authenticated bool                     `json:"isAuthenticated"`
}

type Store struct {
	mu   sync.RWMutex
	path string
	snap Snapshot
}

// Open loads the persisted snapshot, starting empty when none exists or the
// file is unreadable (a stale cache is never worth failing startup over).
func Open(stateDir string) *Store {
	s := &Store{path: filepath.Join(stateDir, StorageKey)}
	if data, err := os.ReadFile(s.path); err == nil {
		_ = json.Unmarshal(data, &s.snap)
	}
	return s
}

// Current returns a copy of the snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Store) SetUser(user *model.User) {
	s.update(func(snap *Snapshot) { snap.User = user })
}

func (s *Store) SetAuthenticated(authenticated bool) {
	s.update(func(snap *Snapshot) { snap.Authenticated = authenticated })
}

func (s *Store) SetAccounts(accounts []model.ConnectedAccount) {
	s.update(func(snap *Snapshot) { snap.Accounts = accounts })
}

func (s *Store) AddAccount(account model.ConnectedAccount) {
	s.update(func(snap *Snapshot) { snap.Accounts = append(snap.Accounts, account) })
}

func (s *Store) DeleteAccount(id uuid.UUID) {
	s.update(func(snap *Snapshot) {
		kept := snap.Accounts[:0]
		for _, a := range snap.Accounts {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		snap.Accounts = kept
	})
}

func (s *Store) SetRules(rules []model.AutomationRule) {
	s.update(func(snap *Snapshot) { snap.Rules = rules })
}

func (s *Store) AddRule(rule model.AutomationRule) {
	s.update(func(snap *Snapshot) { snap.Rules = append(snap.Rules, rule) })
}

// UpdateRule replaces the stored rule with the same id; unknown ids are
// ignored.
func (s *Store) UpdateRule(rule model.AutomationRule) {
	s.update(func(snap *Snapshot) {
		for i := range snap.Rules {
			if snap.Rules[i].ID == rule.ID {
				snap.Rules[i] = rule
				return
			}
		}
	})
}

func (s *Store) DeleteRule(id uuid.UUID) {
	s.update(func(snap *Snapshot) {
		kept := snap.Rules[:0]
		for _, r := range snap.Rules {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		snap.Rules = kept
	})
}

func (s *Store) SetLogs(logs []model.AutomationLog) {
	s.update(func(snap *Snapshot) { snap.Logs = logs })
}

func (s *Store) AddLog(log model.AutomationLog) {
	s.update(func(snap *Snapshot) { snap.Logs = append(snap.Logs, log) })
}

// Clear empties the snapshot and its durable copy. Called at logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{}
	_ = os.Remove(s.path)
}

func (s *Store) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
	s.persistLocked()
}

func (s *Store) persistLocked() {
	data, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return
	}
	_ = os.Rename(tmp, s.path)
}

func (s *Store) copyLocked() Snapshot {
	snap := s.snap
	snap.Accounts = append([]model.ConnectedAccount(nil), s.snap.Accounts...)
	snap.Rules = append([]model.AutomationRule(nil), s.snap.Rules...)
	snap.Logs = append([]model.AutomationLog(nil), s.snap.Logs...)
	if s.snap.User != nil {
		user := *s.snap.User
		snap.User = &user
	}
	return snap
}
