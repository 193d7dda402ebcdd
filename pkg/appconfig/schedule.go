package appconfig

import (
	"path/filepath"
	"time"
)

// Sync schedule frequencies.
const (
	FrequencyOnDemand = "on-demand"
	FrequencyOnStart  = "on-start"
	FrequencyHourly   = "hourly"
	FrequencyDaily    = "daily"
)

// SchedulePair is one source/target directory pair to synchronize.
type SchedulePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Mode   string `json:"mode"`
}

// Schedule is the saved synchronization schedule.
type Schedule struct {
	Pairs       []SchedulePair `json:"pairs"`
	Frequency   string         `json:"frequency"`
	LastUpdated time.Time      `json:"last_updated"`
}

// ScheduleStore persists the sync schedule to sync_schedule.json.
type ScheduleStore struct {
	path     string
	schedule Schedule
}

// NewScheduleStore loads (or initializes) the store under dir.
func NewScheduleStore(dir string) (*ScheduleStore, error) {
	s := &ScheduleStore{
		path:     filepath.Join(dir, "sync_schedule.json"),
		schedule: Schedule{Frequency: FrequencyOnDemand},
	}
	if _, err := loadJSON(s.path, &s.schedule); err != nil {
		return nil, err
	}
	if s.schedule.Frequency == "" {
		s.schedule.Frequency = FrequencyOnDemand
	}
	return s, nil
}

// Schedule returns the current schedule.
func (s *ScheduleStore) Schedule() Schedule {
	return s.schedule
}

// SetFrequency updates how often the schedule runs.
func (s *ScheduleStore) SetFrequency(frequency string) error {
	s.schedule.Frequency = frequency
	return s.save()
}

// AddPair appends a directory pair. An existing pair with the same
// source and target has its mode updated instead.
func (s *ScheduleStore) AddPair(pair SchedulePair) error {
	for i, existing := range s.schedule.Pairs {
		if existing.Source == pair.Source && existing.Target == pair.Target {
			s.schedule.Pairs[i].Mode = pair.Mode
			return s.save()
		}
	}
	s.schedule.Pairs = append(s.schedule.Pairs, pair)
	return s.save()
}

// RemovePair drops the pair with the given source and target.
func (s *ScheduleStore) RemovePair(source, target string) error {
	kept := s.schedule.Pairs[:0]
	for _, pair := range s.schedule.Pairs {
		if pair.Source != source || pair.Target != target {
			kept = append(kept, pair)
		}
	}
	s.schedule.Pairs = kept
	return s.save()
}

func (s *ScheduleStore) save() error {
	s.schedule.LastUpdated = time.Now()
	return saveJSON(s.path, &s.schedule)
}
