package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/sakif/event-logger/internal/apperror"
	"github.com/sakif/event-logger/internal/model"
	"github.com/sakif/event-logger/internal/repository"
	"github.com/sakif/event-logger/internal/validation"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. Each counts its
// writes so tests can assert that a rejected mutation touched nothing, and
// each has an error knob to simulate a database failure.

type fakeUserRepo struct {
	byID       map[string]*model.User
	byGoogleID map[string]*model.User
	nextID     int
	upsertErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:       make(map[string]*model.User),
		byGoogleID: make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.byGoogleID[user.GoogleID]; ok {
		existing.Name = user.Name
		existing.UpdatedAt = time.Now()
		*user = *existing
		return nil
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.byID[user.ID] = &stored
	f.byGoogleID[user.GoogleID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

type fakeStore struct {
	events     map[string]*model.LoggableEvent
	labels     map[string]*model.EventLabel
	links      map[string]map[string]bool // event id → label ids
	nextID     int
	writes     int
	failWrites error
	failReads  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events: make(map[string]*model.LoggableEvent),
		labels: make(map[string]*model.EventLabel),
		links:  make(map[string]map[string]bool),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) Events() *fakeEventRepo { return &fakeEventRepo{f} }
func (f *fakeStore) Labels() *fakeLabelRepo { return &fakeLabelRepo{f} }

type fakeEventRepo struct{ s *fakeStore }

var _ repository.LoggableEventRepository = (*fakeEventRepo)(nil)

func (r *fakeEventRepo) Create(_ context.Context, event *model.LoggableEvent, labelIDs []string) error {
	if r.s.failWrites != nil {
		return r.s.failWrites
	}
	for _, id := range labelIDs {
		if _, ok := r.s.labels[id]; !ok {
			return fmt.Errorf("FOREIGN KEY constraint failed")
		}
	}
	r.s.writes++
	event.ID = r.s.id("event")
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	event.Timestamps = []time.Time{}
	stored := *event
	r.s.events[event.ID] = &stored
	r.s.links[event.ID] = make(map[string]bool)
	for _, id := range labelIDs {
		r.s.links[event.ID][id] = true
	}
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*model.LoggableEvent, error) {
	if r.s.failReads != nil {
		return nil, r.s.failReads
	}
	e, ok := r.s.events[id]
	if !ok {
		return nil, apperror.NotFound("loggable event", id)
	}
	copied := *e
	copied.Timestamps = append([]time.Time{}, e.Timestamps...)
	return &copied, nil
}

func (r *fakeEventRepo) ListByUser(_ context.Context, userID string) ([]model.LoggableEvent, error) {
	if r.s.failReads != nil {
		return nil, r.s.failReads
	}
	out := []model.LoggableEvent{}
	for _, e := range r.s.events {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeEventRepo) ListByLabel(_ context.Context, labelID string) ([]model.LoggableEvent, error) {
	out := []model.LoggableEvent{}
	for eventID, set := range r.s.links {
		if set[labelID] {
			out = append(out, *r.s.events[eventID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeEventRepo) Update(_ context.Context, id string, upd repository.LoggableEventUpdate) (*model.LoggableEvent, error) {
	if r.s.failWrites != nil {
		return nil, r.s.failWrites
	}
	e, ok := r.s.events[id]
	if !ok {
		return nil, apperror.NotFound("loggable event", id)
	}
	r.s.writes++
	if upd.Name != nil {
		e.Name = *upd.Name
	}
	if upd.WarningThresholdInDays != nil {
		e.WarningThresholdInDays = *upd.WarningThresholdInDays
	}
	if upd.LabelIDs != nil {
		r.s.links[id] = make(map[string]bool)
		for _, l := range *upd.LabelIDs {
			r.s.links[id][l] = true
		}
	}
	e.UpdatedAt = time.Now()
	copied := *e
	return &copied, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id string) error {
	if r.s.failWrites != nil {
		return r.s.failWrites
	}
	if _, ok := r.s.events[id]; !ok {
		return apperror.NotFound("loggable event", id)
	}
	r.s.writes++
	delete(r.s.events, id)
	delete(r.s.links, id)
	return nil
}

func (r *fakeEventRepo) AddTimestamp(_ context.Context, id string, at time.Time) (*model.LoggableEvent, error) {
	if r.s.failWrites != nil {
		return nil, r.s.failWrites
	}
	e, ok := r.s.events[id]
	if !ok {
		return nil, apperror.NotFound("loggable event", id)
	}
	r.s.writes++
	e.Timestamps = append(e.Timestamps, at)
	sort.Slice(e.Timestamps, func(i, j int) bool { return e.Timestamps[i].Before(e.Timestamps[j]) })
	copied := *e
	return &copied, nil
}

type fakeLabelRepo struct{ s *fakeStore }

var _ repository.EventLabelRepository = (*fakeLabelRepo)(nil)

func (r *fakeLabelRepo) Create(_ context.Context, label *model.EventLabel) error {
	if r.s.failWrites != nil {
		return r.s.failWrites
	}
	r.s.writes++
	label.ID = r.s.id("label")
	label.CreatedAt = time.Now()
	label.UpdatedAt = label.CreatedAt
	stored := *label
	r.s.labels[label.ID] = &stored
	return nil
}

func (r *fakeLabelRepo) GetByID(_ context.Context, id string) (*model.EventLabel, error) {
	if r.s.failReads != nil {
		return nil, r.s.failReads
	}
	l, ok := r.s.labels[id]
	if !ok {
		return nil, apperror.NotFound("event label", id)
	}
	copied := *l
	return &copied, nil
}

func (r *fakeLabelRepo) GetManyByID(_ context.Context, ids []string) ([]model.EventLabel, error) {
	out := []model.EventLabel{}
	seen := make(map[string]bool)
	for _, id := range ids {
		if l, ok := r.s.labels[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeLabelRepo) ListByUser(_ context.Context, userID string) ([]model.EventLabel, error) {
	out := []model.EventLabel{}
	for _, l := range r.s.labels {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeLabelRepo) ListByEvent(_ context.Context, eventID string) ([]model.EventLabel, error) {
	out := []model.EventLabel{}
	for id := range r.s.links[eventID] {
		if l, ok := r.s.labels[id]; ok {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeLabelRepo) Update(_ context.Context, id string, name string) (*model.EventLabel, error) {
	if r.s.failWrites != nil {
		return nil, r.s.failWrites
	}
	l, ok := r.s.labels[id]
	if !ok {
		return nil, apperror.NotFound("event label", id)
	}
	r.s.writes++
	l.Name = name
	l.UpdatedAt = time.Now()
	copied := *l
	return &copied, nil
}

func (r *fakeLabelRepo) Delete(_ context.Context, id string) error {
	if r.s.failWrites != nil {
		return r.s.failWrites
	}
	if _, ok := r.s.labels[id]; !ok {
		return apperror.NotFound("event label", id)
	}
	r.s.writes++
	delete(r.s.labels, id)
	for _, set := range r.s.links {
		delete(set, id)
	}
	return nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

var (
	userU = &model.User{ID: "user-u", GoogleID: "g-u", Email: "u@example.com", Name: "U"}
	userV = &model.User{ID: "user-v", GoogleID: "g-v", Email: "v@example.com", Name: "V"}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEventService(t *testing.T) (*LoggableEventService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc := NewLoggableEventService(store.Events(), store.Labels(), validation.New(), testLogger())
	return svc, store
}

func newTestLabelService(t *testing.T) (*EventLabelService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc := NewEventLabelService(store.Labels(), store.Events(), validation.New(), testLogger())
	return svc, store
}

// seedLabel stores a label directly, bypassing the service.
func seedLabel(t *testing.T, store *fakeStore, owner *model.User, name string) *model.EventLabel {
	t.Helper()
	l := &model.EventLabel{UserID: owner.ID, Name: name}
	if err := store.Labels().Create(context.Background(), l); err != nil {
		t.Fatalf("seeding label: %v", err)
	}
	return l
}

func seedEvent(t *testing.T, store *fakeStore, owner *model.User, name string) *model.LoggableEvent {
	t.Helper()
	e := &model.LoggableEvent{UserID: owner.ID, Name: name, WarningThresholdInDays: 7}
	if err := store.Events().Create(context.Background(), e, nil); err != nil {
		t.Fatalf("seeding event: %v", err)
	}
	return e
}

// assertFieldErrors checks the payload entries err converts into.
func assertFieldErrors(t *testing.T, err error, want ...apperror.FieldError) {
	t.Helper()
	got := apperror.ToFieldErrors(err)
	if len(got) != len(want) {
		t.Fatalf("got %d errors %+v, want %d %+v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i].Code != want[i].Code {
			t.Errorf("errors[%d].Code = %s, want %s", i, got[i].Code, want[i].Code)
		}
		if fieldOf(got[i]) != fieldOf(want[i]) {
			t.Errorf("errors[%d].Field = %q, want %q", i, fieldOf(got[i]), fieldOf(want[i]))
		}
		if want[i].Message != "" && got[i].Message != want[i].Message {
			t.Errorf("errors[%d].Message = %q, want %q", i, got[i].Message, want[i].Message)
		}
	}
}

func fieldOf(fe apperror.FieldError) string {
	if fe.Field == nil {
		return "<nil>"
	}
	return *fe.Field
}

func field(name string) *string { return &name }

func ptr[T any](v T) *T { return &v }
