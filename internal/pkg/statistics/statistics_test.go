package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/app/repository/memory"
)

var today = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

type stubReplenisher struct {
	calls []string
}

func (r *stubReplenisher) ReplenishForUser(_ context.Context, userID string) error {
	r.calls = append(r.calls, userID)
	return nil
}

func (r *stubReplenisher) Today() time.Time { return today }

func day(s string) time.Time {
	d, _ := time.Parse(time.DateOnly, s)
	return d
}

func seed(t *testing.T) (*memory.Subscriptions, *memory.Installments) {
	t.Helper()
	subs := memory.NewSubscriptions(
		&models.Subscription{ID: "sub-a", UserID: "user-1", Name: "Spotify", Day: 15, Price: decimal.NewFromInt(100), Type: models.SubscriptionMonthly},
		&models.Subscription{ID: "sub-b", UserID: "user-1", Name: "Netflix", Day: 25, Price: decimal.NewFromInt(300), Type: models.SubscriptionMonthly},
		&models.Subscription{ID: "sub-c", UserID: "user-2", Name: "Other", Day: 12, Price: decimal.NewFromInt(900), Type: models.SubscriptionMonthly},
	)
	insts := memory.NewInstallments(subs)
	require.NoError(t, insts.CreateMany(context.Background(), []models.Installment{
		{ID: "a0", SubscriptionID: "sub-a", Date: day("2023-12-15"), Paid: true},
		{ID: "a1", SubscriptionID: "sub-a", Date: day("2024-01-05")},
		{ID: "a2", SubscriptionID: "sub-a", Date: day("2024-01-15")},
		{ID: "a3", SubscriptionID: "sub-a", Date: day("2024-02-15")},
		{ID: "b1", SubscriptionID: "sub-b", Date: day("2024-01-20"), Paid: true},
		{ID: "b2", SubscriptionID: "sub-b", Date: day("2024-01-25")},
		{ID: "c1", SubscriptionID: "sub-c", Date: day("2024-01-12")},
	}))
	return subs, insts
}

func TestDashboard(t *testing.T) {
	subs, insts := seed(t)
	rep := &stubReplenisher{}
	svc := NewService(subs, insts, rep, nil)

	d, err := svc.Dashboard(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, rep.calls)

	require.Len(t, d.NextPayments, 3)
	assert.Equal(t, day("2024-01-05"), d.NextPayments[0].Date)
	assert.Equal(t, "Spotify", d.NextPayments[0].Subscription.Name)
	assert.Equal(t, day("2024-01-15"), d.NextPayments[1].Date)
	assert.Equal(t, day("2024-01-25"), d.NextPayments[2].Date)
	assert.Equal(t, "Netflix", d.NextPayments[2].Subscription.Name)

	require.Len(t, d.TopSubscriptions, 2)
	assert.Equal(t, "sub-b", d.TopSubscriptions[0].ID)
	assert.Equal(t, "sub-a", d.TopSubscriptions[1].ID)

	assert.Equal(t, Totals{Paid: 2, Overdue: 1, Upcoming: 2, All: 6}, d.Totals)
}

func TestDashboardLimitsNextPayments(t *testing.T) {
	subs := memory.NewSubscriptions(&models.Subscription{ID: "sub-a", UserID: "user-1", Name: "Daily", Day: 1, Price: decimal.NewFromInt(1), Type: models.SubscriptionMonthly})
	insts := memory.NewInstallments(subs)
	var rows []models.Installment
	for i := 1; i <= 15; i++ {
		rows = append(rows, models.Installment{ID: time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC).Format("d-02"), SubscriptionID: "sub-a", Date: time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC)})
	}
	require.NoError(t, insts.CreateMany(context.Background(), rows))

	d, err := NewService(subs, insts, &stubReplenisher{}, nil).Dashboard(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, d.NextPayments, NextPaymentsLimit)
	assert.Equal(t, day("2024-01-01"), d.NextPayments[0].Date)
}

func TestTotalsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	subs, insts := seed(t)
	svc := NewService(subs, insts, &stubReplenisher{}, client)
	ctx := context.Background()

	first, err := svc.Totals(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), first.All)
	assert.True(t, mr.Exists("statistics:user:user-1:totals:2024-01-10"))

	require.NoError(t, insts.CreateMany(ctx, []models.Installment{{ID: "a4", SubscriptionID: "sub-a", Date: day("2024-03-15")}}))

	cached, err := svc.Totals(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	svc.Invalidate(ctx, "user-1")
	assert.False(t, mr.Exists("statistics:user:user-1:totals:2024-01-10"))

	fresh, err := svc.Totals(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), fresh.All)
}

func TestTotalsIgnoresMalformedCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, mr.Set("statistics:user:user-1:totals:2024-01-10", "not json"))

	subs, insts := seed(t)
	totals, err := NewService(subs, insts, &stubReplenisher{}, client).Totals(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), totals.All)
}
