package controllers

import (
	"time"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendarlink"
	"github.com/ManuelReschke/SubTrack/internal/pkg/statistics"
	"github.com/ManuelReschke/SubTrack/internal/pkg/subscriptions"
)

type userResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	AvatarURL   string      `json:"avatar_url"`
	Country     *string     `json:"country"`
	Currency    string      `json:"currency"`
	Birthdate   interface{} `json:"birthdate"`
	Age         *int        `json:"age"`
	LastLoginAt interface{} `json:"last_login_at"`
	CreatedAt   string      `json:"created_at"`
}

func newUserResponse(u *models.User, now time.Time) userResponse {
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		Country:     u.Country,
		Currency:    u.Currency,
		Birthdate:   formatDatePtr(u.Birthdate),
		Age:         u.Age(now),
		LastLoginAt: formatTimePtr(u.LastLoginAt),
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type subscriptionResponse struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   *string     `json:"description"`
	Day           int         `json:"day"`
	Month         *int        `json:"month"`
	Price         string      `json:"price"`
	Type          string      `json:"type"`
	ReminderStart string      `json:"reminder_start"`
	LastDay       interface{} `json:"last_day"`
	Active        bool        `json:"active"`
	CreatedAt     string      `json:"created_at"`
	UpdatedAt     string      `json:"updated_at"`
}

func newSubscriptionResponse(s *models.Subscription, today time.Time) subscriptionResponse {
	return subscriptionResponse{
		ID:            s.ID,
		Name:          s.Name,
		Description:   s.Description,
		Day:           s.Day,
		Month:         s.Month,
		Price:         s.Price.StringFixed(2),
		Type:          string(s.Type),
		ReminderStart: string(s.ReminderStart),
		LastDay:       formatDatePtr(s.LastDay),
		Active:        s.IsActive(today),
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func newSubscriptionResponses(subs []models.Subscription, today time.Time) []subscriptionResponse {
	out := make([]subscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, newSubscriptionResponse(&subs[i], today))
	}
	return out
}

type subscriptionSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Type  string `json:"type,omitempty"`
}

func newSubscriptionSummary(s *models.Subscription, withType bool) subscriptionSummary {
	out := subscriptionSummary{ID: s.ID, Name: s.Name, Price: s.Price.StringFixed(2)}
	if withType {
		out.Type = string(s.Type)
	}
	return out
}

type installmentResponse struct {
	ID             string               `json:"id"`
	SubscriptionID string               `json:"subscription_id"`
	Date           string               `json:"date"`
	Link           *string              `json:"link"`
	Paid           bool                 `json:"paid"`
	Overdue        bool                 `json:"overdue"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
	Subscription   *subscriptionSummary `json:"subscription,omitempty"`
}

// newInstallmentResponse exposes only the browser link of the stored calendar link.
func newInstallmentResponse(i *models.Installment, today time.Time) installmentResponse {
	out := installmentResponse{
		ID:             i.ID,
		SubscriptionID: i.SubscriptionID,
		Date:           formatDate(i.Date),
		Paid:           i.Paid,
		Overdue:        i.IsOverdue(today),
		CreatedAt:      i.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      i.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if i.HasLink() {
		html := calendarlink.HTMLLink(*i.Link)
		out.Link = &html
	}
	if i.Subscription != nil {
		sum := newSubscriptionSummary(i.Subscription, true)
		out.Subscription = &sum
	}
	return out
}

func newInstallmentResponses(insts []models.Installment, today time.Time) []installmentResponse {
	out := make([]installmentResponse, 0, len(insts))
	for i := range insts {
		out = append(out, newInstallmentResponse(&insts[i], today))
	}
	return out
}

type upcomingPaymentResponse struct {
	Subscription subscriptionSummary `json:"subscription"`
	Date         string              `json:"next_payment_date"`
}

func newUpcomingResponses(in []subscriptions.UpcomingPayment) []upcomingPaymentResponse {
	out := make([]upcomingPaymentResponse, 0, len(in))
	for i := range in {
		out = append(out, upcomingPaymentResponse{
			Subscription: newSubscriptionSummary(&in[i].Subscription, true),
			Date:         formatDate(in[i].Date),
		})
	}
	return out
}

type nextPaymentResponse struct {
	Subscription    subscriptionSummary `json:"subscription"`
	NextPaymentDate string              `json:"next_payment_date"`
	ReminderDate    string              `json:"reminder_date"`
}

type dashboardResponse struct {
	NextPayments     []nextPaymentResponse `json:"next_payments"`
	TopSubscriptions []subscriptionSummary `json:"top_subscriptions"`
	Statistics       statistics.Totals     `json:"statistics"`
}

func newDashboardResponse(d *statistics.Dashboard) dashboardResponse {
	out := dashboardResponse{
		NextPayments:     make([]nextPaymentResponse, 0, len(d.NextPayments)),
		TopSubscriptions: make([]subscriptionSummary, 0, len(d.TopSubscriptions)),
		Statistics:       d.Totals,
	}
	for i := range d.NextPayments {
		p := d.NextPayments[i]
		out.NextPayments = append(out.NextPayments, nextPaymentResponse{
			Subscription:    newSubscriptionSummary(&p.Subscription, false),
			NextPaymentDate: formatDate(p.Date),
			ReminderDate:    formatDate(p.Date.AddDate(0, 0, -p.Subscription.ReminderStart.Days())),
		})
	}
	for i := range d.TopSubscriptions {
		out.TopSubscriptions = append(out.TopSubscriptions, newSubscriptionSummary(&d.TopSubscriptions[i], true))
	}
	return out
}
