package installments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/app/repository"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar/calendartest"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendarlink"
)

type serviceFixture struct {
	*engineFixture
	service *Service
	retries *fakeRetries
}

func newServiceFixture(t *testing.T, creds calendartest.Credentials) *serviceFixture {
	t.Helper()
	ef := newEngineFixture(t, creds, monthly("sub-1", 15))
	retries := &fakeRetries{}
	ef.deps.Retries = retries
	return &serviceFixture{
		engineFixture: ef,
		service:       NewService(ef.deps, ef.engine),
		retries:       retries,
	}
}

func (f *serviceFixture) add(id string, d time.Time, link string) {
	inst := models.Installment{ID: id, SubscriptionID: "sub-1", Date: d}
	if link != "" {
		inst.Link = &link
	}
	_ = f.installments.CreateMany(context.Background(), []models.Installment{inst})
}

func TestMarkPaidDeletesEvent(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{"user-1": {AccessToken: "at"}})
	f.add("inst-1", day(2024, 2, 15), calendarlink.Encode("https://cal/e?eid=x", "evt42"))

	got, err := f.service.MarkPaid(context.Background(), "inst-1", "user-1")
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.Nil(t, got.Link)
	assert.Equal(t, []string{"evt42"}, f.gateway.Deleted())

	stored, _ := f.installments.GetByID(context.Background(), "inst-1")
	assert.True(t, stored.Paid)
	assert.Nil(t, stored.Link)
}

func TestMarkPaidWithoutLink(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{"user-1": {AccessToken: "at"}})
	f.add("inst-1", day(2024, 2, 15), "")

	got, err := f.service.MarkPaid(context.Background(), "inst-1", "user-1")
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.Empty(t, f.gateway.Deleted())
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{})
	f.add("inst-1", day(2024, 2, 15), "")

	_, err := f.service.MarkPaid(context.Background(), "inst-1", "user-1")
	require.NoError(t, err)
	got, err := f.service.MarkPaid(context.Background(), "inst-1", "user-1")
	require.NoError(t, err)
	assert.True(t, got.Paid)
}

func TestMarkPaidNotFound(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{})
	f.add("inst-1", day(2024, 2, 15), "")

	_, err := f.service.MarkPaid(context.Background(), "missing", "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.service.MarkPaid(context.Background(), "inst-1", "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)

	stored, _ := f.installments.GetByID(context.Background(), "inst-1")
	assert.False(t, stored.Paid)
}

func TestMarkPaidCalendarFailureKeepsLinkAndQueuesRetry(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{"user-1": {AccessToken: "at"}})
	link := calendarlink.Encode("https://cal/e?eid=x", "evt42")
	f.add("inst-1", day(2024, 2, 15), link)
	f.gateway.DeleteErr = calendar.ErrCalendar

	got, err := f.service.MarkPaid(context.Background(), "inst-1", "user-1")
	require.NoError(t, err)
	assert.True(t, got.Paid)
	require.NotNil(t, got.Link)
	assert.Equal(t, link, *got.Link)

	require.Len(t, f.retries.jobs, 1)
	assert.Equal(t, scheduledDelete{UserID: "user-1", EventID: "evt42", InstallmentID: "inst-1", Link: link}, f.retries.jobs[0])
}

func TestMarkPaidWithoutCredentialsKeepsLink(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{})
	f.add("inst-1", day(2024, 2, 15), calendarlink.Encode("https://cal/e?eid=x", "evt42"))

	got, err := f.service.MarkPaid(context.Background(), "inst-1", "user-1")
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.NotNil(t, got.Link)
	assert.Empty(t, f.gateway.Deleted())
	assert.Empty(t, f.retries.jobs)
}

func TestConfirmByLinkExact(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{"user-1": {AccessToken: "at"}})
	link := calendarlink.Encode("https://cal/e?eid=x", "evt42")
	f.add("inst-1", day(2024, 2, 15), link)

	got, err := f.service.ConfirmByLink(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, "inst-1", got.ID)
	assert.True(t, got.Paid)
	assert.Nil(t, got.Link)
	assert.Equal(t, []string{"evt42"}, f.gateway.Deleted())
}

func TestConfirmByLinkPrefix(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{})
	f.add("inst-late", day(2024, 3, 15), "https://cal/e?eid=x|evt2")
	f.add("inst-early", day(2024, 2, 15), "https://cal/e?eid=x|evt1")

	got, err := f.service.ConfirmByLink(context.Background(), "https://cal/e?eid=x")
	require.NoError(t, err)
	assert.Equal(t, "inst-early", got.ID)
	assert.True(t, got.Paid)
}

func TestConfirmByLinkNotFound(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{})
	f.add("inst-1", day(2024, 2, 15), "https://cal/e?eid=x|evt1")

	_, err := f.service.ConfirmByLink(context.Background(), "https://other/link")
	assert.ErrorIs(t, err, ErrNotFound)

	stored, _ := f.installments.GetByID(context.Background(), "inst-1")
	assert.False(t, stored.Paid)
}

func TestConfirmByLinkRequiresLink(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{})
	_, err := f.service.ConfirmByLink(context.Background(), "  ")
	assert.True(t, models.IsValidationError(err))
}

func TestConfirmByLinkLegacyLink(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{"user-1": {AccessToken: "at"}})
	f.add("inst-1", day(2024, 2, 15), "https://cal/e?eid=not-decodable")

	got, err := f.service.ConfirmByLink(context.Background(), "https://cal/e?eid=not-decodable")
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.NotNil(t, got.Link)
	assert.Empty(t, f.gateway.Deleted())
}

func TestListReplenishesAndFilters(t *testing.T) {
	f := newServiceFixture(t, calendartest.Credentials{})
	f.add("old", day(2024, 1, 1), "")

	all, err := f.service.List(context.Background(), "user-1", ListFilter{})
	require.NoError(t, err)
	// One seeded row plus a full batch because the latest row is in the past.
	assert.Len(t, all, 13)

	overdue, err := f.service.List(context.Background(), "user-1", ListFilter{Status: repository.InstallmentsOverdue})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "old", overdue[0].ID)

	upcoming, err := f.service.List(context.Background(), "user-1", ListFilter{Status: repository.InstallmentsUpcoming, Days: 40})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2024, 1, 15), day(2024, 2, 15)}, dates(upcoming))

	_, err = f.service.List(context.Background(), "user-1", ListFilter{Days: -1})
	assert.True(t, models.IsValidationError(err))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("Upcoming")
	require.NoError(t, err)
	assert.Equal(t, repository.InstallmentsUpcoming, st)

	st, err = ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, repository.InstallmentsAll, st)

	_, err = ParseStatus("late")
	assert.True(t, models.IsValidationError(err))
}
