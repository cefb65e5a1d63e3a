package appointments

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists appointments. Book must check for a conflicting scheduled
// appointment and insert in one atomic step.
type Store interface {
	Book(ctx context.Context, req BookingRequest) (*Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]Appointment, error)
	Cancel(ctx context.Context, id int64) (*Appointment, error)
	BookedTimes(ctx context.Context, date, specialist string) ([]string, error)
}

// MemoryStore is an in-process Store used by the terminal chat and tests.
type MemoryStore struct {
	mu           sync.Mutex
	nextID       int64
	nextPatient  int64
	patients     map[string]int64
	appointments []Appointment
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients: make(map[string]int64),
		now:      time.Now,
	}
}

func (s *MemoryStore) Book(_ context.Context, req BookingRequest) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey(req.Date, req.Time, req.Specialist)
	for _, a := range s.appointments {
		if a.Status == StatusScheduled && slotKey(a.Date, a.Time, a.Specialist) == key {
			return nil, ErrSlotUnavailable
		}
	}

	patientID, ok := s.patients[req.PatientName]
	if !ok {
		s.nextPatient++
		patientID = s.nextPatient
		s.patients[req.PatientName] = patientID
	}
	s.nextID++
	appt := Appointment{
		ID:          s.nextID,
		PatientID:   patientID,
		PatientName: req.PatientName,
		Date:        req.Date,
		Time:        req.Time,
		Specialist:  req.Specialist,
		Reason:      req.Reason,
		Notes:       req.Notes,
		Status:      StatusScheduled,
		CreatedAt:   s.now().UTC(),
	}
	s.appointments = append(s.appointments, appt)
	return &appt, nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := filter.status()
	var out []Appointment
	for _, a := range s.appointments {
		if a.Status != status {
			continue
		}
		if filter.PatientName != "" && a.PatientName != filter.PatientName {
			continue
		}
		if filter.Specialist != "" && a.Specialist != filter.Specialist {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (s *MemoryStore) Cancel(_ context.Context, id int64) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appointments {
		if s.appointments[i].ID == id && s.appointments[i].Status == StatusScheduled {
			s.appointments[i].Status = StatusCancelled
			appt := s.appointments[i]
			return &appt, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) BookedTimes(_ context.Context, date, specialist string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, a := range s.appointments {
		if a.Status == StatusScheduled && a.Date == date && a.Specialist == specialist {
			out = append(out, a.Time)
		}
	}
	return out, nil
}
