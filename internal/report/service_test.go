package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pola2025/report-polarad-sub001/internal/models"
	"github.com/pola2025/report-polarad-sub001/internal/notify"
	"github.com/pola2025/report-polarad-sub001/internal/storage"
)

func newTestService(sender notify.Sender) *Service {
	if sender == nil {
		sender = notify.NopSender{}
	}
	return NewService(
		storage.NewInMemoryReportRepo(),
		storage.NewInMemoryCommentRepo(),
		nil,
		sender,
		"#reports",
		nil,
		zap.NewNop(),
	)
}

func monthlyParams(clientID string) CreateParams {
	return CreateParams{
		ClientID:    clientID,
		ReportType:  models.ReportTypeMonthly,
		PeriodStart: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
	}
}

func testSummary() *Summary {
	return &Summary{
		SchemaVersion: summarySchemaVersion,
		ClientID:      "client-1",
		PeriodStart:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateDraft(t *testing.T) {
	svc := newTestService(nil)

	rep, err := svc.Create(context.Background(), monthlyParams("client-1"))
	require.NoError(t, err)

	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, models.StatusDraft, rep.Status)
	assert.Equal(t, 2025, rep.Year)
	require.NotNil(t, rep.Month)
	assert.Equal(t, 7, *rep.Month)
	assert.Nil(t, rep.Week)
	assert.Nil(t, rep.PublishedAt)
}

func TestCreateWeeklySetsWeek(t *testing.T) {
	svc := newTestService(nil)

	rep, err := svc.Create(context.Background(), CreateParams{
		ClientID:    "client-1",
		ReportType:  models.ReportTypeWeekly,
		PeriodStart: time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC), // a Sunday
		PeriodEnd:   time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotNil(t, rep.Week)
	assert.Nil(t, rep.Month)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"missing client", func(p *CreateParams) { p.ClientID = "" }},
		{"bad type", func(p *CreateParams) { p.ReportType = "quarterly" }},
		{"zero period", func(p *CreateParams) { p.PeriodStart = time.Time{} }},
		{"inverted period", func(p *CreateParams) { p.PeriodStart, p.PeriodEnd = p.PeriodEnd, p.PeriodStart }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := monthlyParams("client-1")
			tt.mutate(&p)
			_, err := svc.Create(ctx, p)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestCreateDuplicatePeriod(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, monthlyParams("client-1"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, monthlyParams("client-1"))
	assert.ErrorIs(t, err, storage.ErrDuplicatePeriod)
}

func TestPublishRequiresSummary(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	rep, err := svc.Create(ctx, monthlyParams("client-1"))
	require.NoError(t, err)

	_, err = svc.Publish(ctx, rep.ID)
	assert.True(t, IsValidation(err), "publishing without a summary is a validation error")
}

func TestPublishStampsPublishedAtOnce(t *testing.T) {
	sender := &notify.RecordingSender{}
	svc := newTestService(sender)
	ctx := context.Background()

	p := monthlyParams("client-1")
	p.Summary = testSummary()
	rep, err := svc.Create(ctx, p)
	require.NoError(t, err)

	published, err := svc.Publish(ctx, rep.ID)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	firstStamp := *published.PublishedAt
	assert.Len(t, sender.Messages, 1, "publish sends a notification")

	// Republishing is an accepted no-op.
	again, err := svc.Publish(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, firstStamp, *again.PublishedAt)

	// Archival never clears the stamp.
	archived, err := svc.Archive(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, archived.Status)
	require.NotNil(t, archived.PublishedAt)
	assert.Equal(t, firstStamp, *archived.PublishedAt)
	assert.True(t, archived.HasSummary(), "archival keeps the summary")
}

func TestArchivedIsTerminal(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	rep, err := svc.Create(ctx, monthlyParams("client-1"))
	require.NoError(t, err)

	_, err = svc.Archive(ctx, rep.ID)
	require.NoError(t, err)

	_, err = svc.Publish(ctx, rep.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Re-archiving is idempotent.
	_, err = svc.Archive(ctx, rep.ID)
	assert.NoError(t, err)
}

func TestDraftCanBeArchivedDirectly(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	rep, err := svc.Create(ctx, monthlyParams("client-1"))
	require.NoError(t, err)

	archived, err := svc.Archive(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, archived.Status)
	assert.Nil(t, archived.PublishedAt, "archiving a draft never stamps published_at")
}

func TestPublishSurvivesNotificationFailure(t *testing.T) {
	sender := &notify.RecordingSender{Fail: true}
	svc := newTestService(sender)
	ctx := context.Background()

	p := monthlyParams("client-1")
	p.Summary = testSummary()
	rep, err := svc.Create(ctx, p)
	require.NoError(t, err)

	published, err := svc.Publish(ctx, rep.ID)
	require.NoError(t, err, "notification failure is best-effort, never a publish error")
	assert.Equal(t, models.StatusPublished, published.Status)
}

func TestAttachSummaryAndInsights(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	rep, err := svc.Create(ctx, monthlyParams("client-1"))
	require.NoError(t, err)

	withSummary, err := svc.AttachSummary(ctx, rep.ID, testSummary())
	require.NoError(t, err)
	assert.True(t, withSummary.HasSummary())

	insights := json.RawMessage(`{"narrative":"spend shifted toward naver"}`)
	withInsights, err := svc.AttachInsights(ctx, rep.ID, insights)
	require.NoError(t, err)
	assert.JSONEq(t, string(insights), string(withInsights.AIInsights))
	assert.NotNil(t, withInsights.AIGeneratedAt)

	// Attachment works in published state too.
	_, err = svc.Publish(ctx, rep.ID)
	require.NoError(t, err)
	_, err = svc.AttachInsights(ctx, rep.ID, json.RawMessage(`{"v":2}`))
	assert.NoError(t, err)
}

func TestStatusChangeOnMissingReport(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.Publish(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCommentLifecycle(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	rep, err := svc.Create(ctx, monthlyParams("client-1"))
	require.NoError(t, err)

	_, err = svc.UpsertComment(ctx, rep.ID, "kim", "good month overall")
	require.NoError(t, err)

	replaced, err := svc.UpsertComment(ctx, rep.ID, "kim", "revised after review")
	require.NoError(t, err)
	assert.Equal(t, "revised after review", replaced.Content)

	got, err := svc.GetComment(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, replaced.ID, got.ID)

	require.NoError(t, svc.HideComment(ctx, rep.ID))
	_, err = svc.GetComment(ctx, rep.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCommentOnMissingReport(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.UpsertComment(context.Background(), "nope", "kim", "text")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
