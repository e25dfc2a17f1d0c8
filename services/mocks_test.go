package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"leadengine/models"
	"leadengine/store"
	"leadengine/utils"
)

type MockProspectStore struct {
	mock.Mock
}

func (m *MockProspectStore) Upsert(ctx context.Context, p *models.Prospect) (*models.Prospect, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prospect), args.Error(1)
}

func (m *MockProspectStore) Get(ctx context.Context, idOrEmail string) (*models.Prospect, error) {
	args := m.Called(ctx, idOrEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prospect), args.Error(1)
}

func (m *MockProspectStore) AppendHistory(ctx context.Context, entry *models.ScoringHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockProspectStore) History(ctx context.Context, prospectID string) ([]models.ScoringHistory, error) {
	args := m.Called(ctx, prospectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScoringHistory), args.Error(1)
}

func (m *MockProspectStore) Query(ctx context.Context, f store.ProspectFilter) ([]models.Prospect, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Prospect), args.Get(1).(int64), args.Error(2)
}

func (m *MockProspectStore) AddPoints(ctx context.Context, id string, delta int) (int, error) {
	args := m.Called(ctx, id, delta)
	return args.Int(0), args.Error(1)
}

func (m *MockProspectStore) SaveDerived(ctx context.Context, p *models.Prospect) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProspectStore) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockProspectStore) Batch(ctx context.Context, afterID string, limit int) ([]models.Prospect, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Prospect), args.Error(1)
}

func (m *MockProspectStore) Stats(ctx context.Context) (*store.ProspectStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ProspectStats), args.Error(1)
}

type MockAssessmentStore struct {
	mock.Mock
}

func (m *MockAssessmentStore) Save(ctx context.Context, a *models.Assessment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssessmentStore) Get(ctx context.Context, id string) (*models.Assessment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assessment), args.Error(1)
}

func (m *MockAssessmentStore) SetReportEmailID(ctx context.Context, id, emailID string) error {
	args := m.Called(ctx, id, emailID)
	return args.Error(0)
}

func (m *MockAssessmentStore) ForProspect(ctx context.Context, prospectID string) ([]models.Assessment, error) {
	args := m.Called(ctx, prospectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Assessment), args.Error(1)
}

type MockNurtureStore struct {
	mock.Mock
}

func (m *MockNurtureStore) Schedule(ctx context.Context, emails []models.ScheduledEmail) error {
	args := m.Called(ctx, emails)
	return args.Error(0)
}

func (m *MockNurtureStore) Due(ctx context.Context, now time.Time, limit int) ([]models.ScheduledEmail, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScheduledEmail), args.Error(1)
}

func (m *MockNurtureStore) MarkSent(ctx context.Context, id uint, messageID string, at time.Time) error {
	args := m.Called(ctx, id, messageID, at)
	return args.Error(0)
}

func (m *MockNurtureStore) MarkFailed(ctx context.Context, email *models.ScheduledEmail, cause error, maxAttempts int) error {
	args := m.Called(ctx, email, cause, maxAttempts)
	return args.Error(0)
}

func (m *MockNurtureStore) CancelForEmail(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNurtureStore) FindByMessageID(ctx context.Context, messageID string) (*models.ScheduledEmail, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledEmail), args.Error(1)
}

func (m *MockNurtureStore) RecordOpen(ctx context.Context, messageID string, at time.Time) (*models.ScheduledEmail, error) {
	args := m.Called(ctx, messageID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledEmail), args.Error(1)
}

func (m *MockNurtureStore) RecordClick(ctx context.Context, messageID string, at time.Time) (*models.ScheduledEmail, error) {
	args := m.Called(ctx, messageID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledEmail), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg utils.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) ScheduleSequence(ctx context.Context, req SequenceRequest) (int, error) {
	args := m.Called(ctx, req)
	return args.Int(0), args.Error(1)
}

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, req utils.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ScoreEvent
}

func (r *recordingPublisher) Publish(ev ScoreEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}
