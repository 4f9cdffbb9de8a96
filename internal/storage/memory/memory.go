// Package memory provides in-memory store implementations for development
// and tests. All stores are safe for concurrent use.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/socialscope/tracker/internal/tracker"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store implements every tracker store interface against process memory.
type Store struct {
	mu        sync.Mutex
	nextID    int64
	profiles  map[int64]tracker.Profile
	owners    map[int64]string
	history   []tracker.HistoryRecord
	jobs      map[string]tracker.ScrapeJob
	providers map[string]tracker.ProviderSetting
}

func NewStore() *Store {
	return &Store{
		nextID:    1,
		profiles:  make(map[int64]tracker.Profile),
		owners:    make(map[int64]string),
		history:   nil,
		jobs:      make(map[string]tracker.ScrapeJob),
		providers: make(map[string]tracker.ProviderSetting),
	}
}

// SetOwner registers a user's display name for ListProfiles joins.
func (s *Store) SetOwner(userID int64, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[userID] = username
}

func (s *Store) CreateProfile(_ context.Context, p tracker.Profile) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if existing.Username == p.Username && existing.Platform == p.Platform && existing.UserID == p.UserID {
			return 0, fmt.Errorf("profile %s/%s already tracked", p.Platform, p.Username)
		}
	}
	p.ID = s.nextID
	s.nextID++
	if p.Status == "" {
		p.Status = tracker.StatusPending
	}
	s.profiles[p.ID] = p
	return p.ID, nil
}

func (s *Store) GetProfile(_ context.Context, id int64) (tracker.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return tracker.Profile{}, fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *Store) ListProfiles(_ context.Context, userID int64, all bool) ([]tracker.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tracker.Profile
	for _, p := range s.profiles {
		if all || p.UserID == userID {
			p.Owner = s.owners[p.UserID]
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) DeleteProfile(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	delete(s.profiles, id)
	return nil
}

func (s *Store) ProfileExists(_ context.Context, username, platform string, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Username == username && p.Platform == platform && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateProfileStatus(_ context.Context, id int64, status tracker.ProfileStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	p.Status = status
	s.profiles[id] = p
	return nil
}

func (s *Store) ListHistory(_ context.Context, userID int64, all bool) ([]tracker.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tracker.HistoryRecord
	for _, rec := range s.history {
		if all || rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (s *Store) ListProfileHistory(_ context.Context, profileID int64) ([]tracker.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tracker.HistoryRecord
	for _, rec := range s.history {
		if rec.ProfileID == profileID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (s *Store) CompleteScrape(_ context.Context, profileID int64, status tracker.ProfileStatus, rec *tracker.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[profileID]
	if !ok {
		return fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}
	p.Status = status
	s.profiles[profileID] = p
	if rec != nil {
		stored := *rec
		stored.ID = int64(len(s.history) + 1)
		if stored.Timestamp.IsZero() {
			stored.Timestamp = time.Now().UTC()
		}
		s.history = append(s.history, stored)
	}
	return nil
}

func (s *Store) CreateJob(_ context.Context, job tracker.ScrapeJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *Store) CloseJobs(_ context.Context, profileID int64, status tracker.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.ProfileID == profileID && job.Status == tracker.JobRunning {
			job.Status = status
			s.jobs[id] = job
		}
	}
	return nil
}

func (s *Store) SweepExpired(_ context.Context, now time.Time) ([]tracker.ScrapeJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var swept []tracker.ScrapeJob
	for id, job := range s.jobs {
		if job.Status == tracker.JobRunning && job.Deadline.Before(now) {
			job.Status = tracker.JobExpired
			s.jobs[id] = job
			swept = append(swept, job)
		}
	}
	sort.Slice(swept, func(i, j int) bool { return swept[i].ID < swept[j].ID })
	return swept, nil
}

// Job returns a job by ID, for assertions in tests.
func (s *Store) Job(id string) (tracker.ScrapeJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	return job, ok
}

func (s *Store) DefaultProvider(_ context.Context, platform string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.providers[platform]; ok && st.IsDefault && st.Provider != "" {
		return st.Provider, nil
	}
	return "default", nil
}

func (s *Store) SetDefaultProvider(_ context.Context, platform, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[platform] = tracker.ProviderSetting{Platform: platform, Provider: provider, IsDefault: true}
	return nil
}

func (s *Store) ListSettings(_ context.Context) ([]tracker.ProviderSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tracker.ProviderSetting, 0, len(s.providers))
	for _, st := range s.providers {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}
