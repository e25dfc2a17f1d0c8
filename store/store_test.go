package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"leadengine/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var prospectColumns = []string{"id", "email", "name", "lead_score", "category", "tier", "status", "interests", "source", "utm_data", "created_at"}

func TestMergeProspect(t *testing.T) {
	earlier := time.Now().Add(-time.Hour)
	later := time.Now()
	existing := &models.Prospect{
		ID:               "p-1",
		Email:            "jo@example.com",
		Name:             "Jo",
		LeadScore:        40,
		Category:         models.CategoryEnterpriseAI,
		Tier:             models.TierTwo,
		Interests:        pq.StringArray{"enterprise_ai"},
		Source:           "linkedin",
		UTMData:          datatypes.JSON(`{"utm_source":"linkedin"}`),
		Status:           models.StatusQualified,
		EmailOpened:      true,
		LastEngagementAt: earlier,
	}
	incoming := &models.Prospect{
		Name:             "Joanna",
		Company:          "Acme",
		LeadScore:        15,
		Category:         models.CategoryUndetermined,
		Tier:             models.TierThree,
		Interests:        pq.StringArray{"lead_magnet", "enterprise_ai"},
		Source:           "google",
		UTMData:          datatypes.JSON(`{"utm_source":"google"}`),
		Status:           models.StatusNew,
		LastEngagementAt: later,
	}

	MergeProspect(existing, incoming)

	assert.Equal(t, 40, existing.LeadScore)
	assert.Equal(t, models.CategoryEnterpriseAI, existing.Category)
	assert.Equal(t, models.TierThree, existing.Tier)
	assert.Equal(t, models.StatusNew, existing.Status)
	assert.Equal(t, []string{"enterprise_ai", "lead_magnet"}, []string(existing.Interests))
	assert.Equal(t, "linkedin", existing.Source)
	assert.JSONEq(t, `{"utm_source":"linkedin"}`, string(existing.UTMData))
	assert.Equal(t, "Jo", existing.Name)
	assert.Equal(t, "Acme", existing.Company)
	assert.True(t, existing.EmailOpened)
	assert.Equal(t, later, existing.LastEngagementAt)

	MergeProspect(existing, &models.Prospect{LeadScore: 70, Category: models.CategoryInvestmentFund})
	assert.Equal(t, 70, existing.LeadScore)
	assert.Equal(t, models.CategoryInvestmentFund, existing.Category)
}

func TestProspectStoreGet(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProspectStore(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "prospects" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(prospectColumns))
	p, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, p)

	mock.ExpectQuery(`SELECT \* FROM "prospects" WHERE email = \$1 ORDER BY created_at asc`).
		WithArgs("jo@example.com", 1).
		WillReturnRows(sqlmock.NewRows(prospectColumns).
			AddRow("p-1", "jo@example.com", "Jo", 42, "enterprise_ai", "tier_2", "qualified", "{enterprise_ai}", "web", nil, time.Now()))
	p, err = s.Get(ctx, "Jo@Example.com")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, 42, p.LeadScore)
	assert.Equal(t, []string{"enterprise_ai"}, []string(p.Interests))

	p, err = s.Get(ctx, "  ")
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectStoreUpsertCreates(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProspectStore(db)

	mock.ExpectQuery(`SELECT \* FROM "prospects" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(prospectColumns))
	mock.ExpectExec(`INSERT INTO "prospects"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := s.Upsert(context.Background(), &models.Prospect{Email: " New@Example.com ", LeadScore: 15, Category: models.CategoryUndetermined, Tier: models.TierThree})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", p.Email)
	assert.NotEmpty(t, p.ID)
	assert.NotNil(t, p.Interests)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectStoreUpsertMergesByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProspectStore(db)

	mock.ExpectQuery(`SELECT \* FROM "prospects" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(prospectColumns).
			AddRow("p-1", "jo@example.com", "Jo", 60, "investment_fund", "tier_1", "qualified", "{investment}", "web", nil, time.Now()))
	mock.ExpectExec(`UPDATE "prospects" SET .* WHERE "id" = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := s.Upsert(context.Background(), &models.Prospect{
		ID:        "fresh-id",
		Email:     "jo@example.com",
		LeadScore: 10,
		Category:  models.CategoryUndetermined,
		Tier:      models.TierFour,
		Interests: pq.StringArray{"lead_magnet"},
	})
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, 60, p.LeadScore)
	assert.Equal(t, models.CategoryInvestmentFund, p.Category)
	assert.Equal(t, models.TierFour, p.Tier)
	assert.Equal(t, []string{"investment", "lead_magnet"}, []string(p.Interests))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectStoreUpsertPropagatesErrors(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProspectStore(db)

	mock.ExpectQuery(`SELECT \* FROM "prospects"`).WillReturnError(errors.New("connection reset"))

	_, err := s.Upsert(context.Background(), &models.Prospect{Email: "x@example.com"})
	assert.EqualError(t, err, "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectStoreAppendHistory(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProspectStore(db)

	mock.ExpectQuery(`INSERT INTO "scoring_histories" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	entry := &models.ScoringHistory{ProspectID: "p-1", Delta: 35, NewTotal: 75, Reason: "Booked a call", Event: "calendar_booked"}
	require.NoError(t, s.AppendHistory(context.Background(), entry))
	assert.Equal(t, uint(7), entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectStoreAddPoints(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProspectStore(db)
	ctx := context.Background()

	mock.ExpectQuery(`UPDATE "prospects" SET "lead_score"=lead_score \+ \$1 WHERE id = \$2 RETURNING "lead_score"`).
		WithArgs(15, "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"lead_score"}).AddRow(55))
	total, err := s.AddPoints(ctx, "p-1", 15)
	require.NoError(t, err)
	assert.Equal(t, 55, total)

	mock.ExpectQuery(`UPDATE "prospects" SET "lead_score"`).
		WillReturnRows(sqlmock.NewRows([]string{"lead_score"}))
	_, err = s.AddPoints(ctx, "missing", 5)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectStoreQuery(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProspectStore(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "prospects" WHERE tier = \$1 AND lead_score >= \$2`).
		WithArgs("tier_1", 40).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT \* FROM "prospects" WHERE tier = \$1 AND lead_score >= \$2 ORDER BY lead_score desc,created_at desc LIMIT \$3 OFFSET \$4`).
		WithArgs("tier_1", 40, 2, 2).
		WillReturnRows(sqlmock.NewRows(prospectColumns).
			AddRow("p-3", "c@example.com", "C", 45, "enterprise_ai", "tier_1", "qualified", "{}", "", nil, time.Now()))

	prospects, total, err := s.Query(context.Background(), ProspectFilter{Tier: models.TierOne, MinScore: 40, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, prospects, 1)
	assert.Equal(t, "p-3", prospects[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectFilterPagination(t *testing.T) {
	offset, limit := ProspectFilter{}.pagination()
	assert.Equal(t, 0, offset)
	assert.Equal(t, 20, limit)

	offset, limit = ProspectFilter{Page: 3, Limit: 500}.pagination()
	assert.Equal(t, 40, offset)
	assert.Equal(t, 20, limit)

	f := ProspectFilter{Page: -2, Limit: -1}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.Limit)
}

func TestProspectStoreUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProspectStore(db)

	mock.ExpectExec(`UPDATE "prospects" SET "status"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateStatus(context.Background(), "missing", models.StatusContacted)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNurtureStoreCancelForEmail(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewNurtureStore(db)

	mock.ExpectExec(`UPDATE "scheduled_emails" SET "status"=\$1,"updated_at"=\$2 WHERE \(email = \$3 AND status = \$4\) AND "scheduled_emails"."deleted_at" IS NULL`).
		WithArgs(models.EmailCancelled, sqlmock.AnyArg(), "sam@example.com", models.EmailScheduled).
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := s.CancelForEmail(context.Background(), "Sam@Example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNurtureStoreMarkFailed(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewNurtureStore(db)
	ctx := context.Background()

	email := &models.ScheduledEmail{Status: models.EmailScheduled, Attempts: 1}
	email.ID = 9

	mock.ExpectExec(`UPDATE "scheduled_emails" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.MarkFailed(ctx, email, errors.New("smtp timeout"), 3))
	assert.Equal(t, 2, email.Attempts)
	assert.Equal(t, models.EmailScheduled, email.Status)
	assert.Equal(t, "smtp timeout", email.LastError)

	mock.ExpectExec(`UPDATE "scheduled_emails" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.MarkFailed(ctx, email, errors.New("smtp timeout"), 3))
	assert.Equal(t, 3, email.Attempts)
	assert.Equal(t, models.EmailFailed, email.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNurtureStoreRecordOpenUnknownMessage(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewNurtureStore(db)

	mock.ExpectQuery(`SELECT \* FROM "scheduled_emails" WHERE message_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "message_id"}))

	email, err := s.RecordOpen(context.Background(), "nope", time.Now())
	require.NoError(t, err)
	assert.Nil(t, email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNurtureStoreRecordOpenCountsThisOpen(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewNurtureStore(db)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := at.Add(-time.Hour)
	columns := []string{"id", "message_id", "prospect_id", "email", "open_count", "click_count", "opened_at", "clicked_at"}

	mock.ExpectQuery(`SELECT \* FROM "scheduled_emails" WHERE message_id = \$1`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(4, "m-1", "p-1", "jane@acme.com", 0, 0, nil, nil))
	mock.ExpectExec(`UPDATE "scheduled_emails" SET "open_count"=open_count \+ \$1,"opened_at"=\$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	email, err := s.RecordOpen(ctx, "m-1", at)
	require.NoError(t, err)
	assert.Equal(t, 1, email.OpenCount)
	require.NotNil(t, email.OpenedAt)
	assert.Equal(t, at, *email.OpenedAt)

	mock.ExpectQuery(`SELECT \* FROM "scheduled_emails" WHERE message_id = \$1`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(4, "m-1", "p-1", "jane@acme.com", 1, 0, earlier, nil))
	mock.ExpectExec(`UPDATE "scheduled_emails" SET "open_count"=open_count \+ \$1,"updated_at"=\$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	email, err = s.RecordOpen(ctx, "m-1", at)
	require.NoError(t, err)
	assert.Equal(t, 2, email.OpenCount)
	assert.Equal(t, earlier, *email.OpenedAt)

	mock.ExpectQuery(`SELECT \* FROM "scheduled_emails" WHERE message_id = \$1`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(4, "m-1", "p-1", "jane@acme.com", 2, 0, earlier, nil))
	mock.ExpectExec(`UPDATE "scheduled_emails" SET "click_count"=click_count \+ \$1,"clicked_at"=\$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	email, err = s.RecordClick(ctx, "m-1", at)
	require.NoError(t, err)
	assert.Equal(t, 1, email.ClickCount)
	assert.Equal(t, 2, email.OpenCount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNurtureStoreScheduleEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewNurtureStore(db)

	require.NoError(t, s.Schedule(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentStoreSaveAssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewAssessmentStore(db)

	mock.ExpectExec(`INSERT INTO "assessments"`).WillReturnResult(sqlmock.NewResult(0, 1))

	a := &models.Assessment{Email: "sam@example.com", OverallScore: 62}
	require.NoError(t, s.Save(context.Background(), a))
	assert.NotEmpty(t, a.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
