package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/internal/pkg/subscriptions"
	"github.com/ManuelReschke/SubTrack/internal/pkg/usercontext"
)

type SubscriptionController struct {
	subscriptions *subscriptions.Service
	totals        TotalsInvalidator
}

// NewSubscriptionController creates the controller. totals may be nil.
func NewSubscriptionController(subs *subscriptions.Service, totals TotalsInvalidator) *SubscriptionController {
	return &SubscriptionController{subscriptions: subs, totals: totals}
}

type createSubscriptionRequest struct {
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	Day           int             `json:"day"`
	Month         *int            `json:"month"`
	Price         decimal.Decimal `json:"price"`
	Type          string          `json:"type"`
	ReminderStart string          `json:"reminder_start"`
	LastDay       *string         `json:"last_day"`
}

type updateSubscriptionRequest struct {
	Name          *string                 `json:"name"`
	Description   models.Nullable[string] `json:"description"`
	Day           *int                    `json:"day"`
	Month         models.Nullable[int]    `json:"month"`
	Price         *decimal.Decimal        `json:"price"`
	Type          *string                 `json:"type"`
	ReminderStart *string                 `json:"reminder_start"`
	LastDay       models.Nullable[string] `json:"last_day"`
}

func (sc *SubscriptionController) invalidate(c *fiber.Ctx) {
	if sc.totals != nil {
		sc.totals.Invalidate(c.UserContext(), usercontext.GetUserID(c))
	}
}

// HandleList returns the subscriptions of the user, optionally only active ones.
func (sc *SubscriptionController) HandleList(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("activeOnly", false)
	subs, err := sc.subscriptions.List(c.UserContext(), usercontext.GetUserID(c), activeOnly)
	if err != nil {
		return respondError(c, err, "Failed to load subscriptions")
	}
	return respondData(c, fiber.StatusOK, newSubscriptionResponses(subs, sc.subscriptions.Today()))
}

// HandleUpcoming lists active subscriptions paying within ?days= (default 30).
func (sc *SubscriptionController) HandleUpcoming(c *fiber.Ctx) error {
	days := 30
	if c.Query("days") != "" {
		v, err := queryInt(c, "days")
		if err != nil {
			return respondError(c, err, "")
		}
		days = v
	}
	upcoming, err := sc.subscriptions.Upcoming(c.UserContext(), usercontext.GetUserID(c), days)
	if err != nil {
		return respondError(c, err, "Failed to load upcoming payments")
	}
	return respondData(c, fiber.StatusOK, newUpcomingResponses(upcoming))
}

// HandleCreate stores a subscription and projects its installments.
func (sc *SubscriptionController) HandleCreate(c *fiber.Ctx) error {
	var req createSubscriptionRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "")
	}
	sub := &models.Subscription{
		Name:          req.Name,
		Description:   req.Description,
		Day:           req.Day,
		Month:         req.Month,
		Price:         req.Price,
		Type:          models.SubscriptionType(req.Type),
		ReminderStart: models.ReminderStart(req.ReminderStart),
	}
	if req.LastDay != nil {
		d, err := parseDate("last_day", *req.LastDay)
		if err != nil {
			return respondError(c, err, "")
		}
		sub.LastDay = &d
	}

	created, err := sc.subscriptions.Create(c.UserContext(), usercontext.GetUserID(c), sub)
	if err != nil {
		return respondError(c, err, "Failed to create subscription")
	}
	sc.invalidate(c)
	return respondData(c, fiber.StatusCreated, newSubscriptionResponse(created, sc.subscriptions.Today()))
}

func (sc *SubscriptionController) HandleGet(c *fiber.Ctx) error {
	sub, err := sc.subscriptions.Get(c.UserContext(), usercontext.GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to load subscription")
	}
	return respondData(c, fiber.StatusOK, newSubscriptionResponse(sub, sc.subscriptions.Today()))
}

// HandleUpdate applies a partial update. Existing installments are kept.
func (sc *SubscriptionController) HandleUpdate(c *fiber.Ctx) error {
	var req updateSubscriptionRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "")
	}
	lastDay, err := parseNullableDate("last_day", req.LastDay)
	if err != nil {
		return respondError(c, err, "")
	}
	patch := models.SubscriptionPatch{
		Name:        req.Name,
		Description: req.Description,
		Day:         req.Day,
		Month:       req.Month,
		Price:       req.Price,
		LastDay:     lastDay,
	}
	if req.Type != nil {
		t := models.SubscriptionType(*req.Type)
		patch.Type = &t
	}
	if req.ReminderStart != nil {
		r := models.ReminderStart(*req.ReminderStart)
		patch.ReminderStart = &r
	}

	sub, err := sc.subscriptions.Update(c.UserContext(), usercontext.GetUserID(c), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err, "Failed to update subscription")
	}
	sc.invalidate(c)
	return respondData(c, fiber.StatusOK, newSubscriptionResponse(sub, sc.subscriptions.Today()))
}

// HandleDelete removes the subscription, its installments and their calendar events.
func (sc *SubscriptionController) HandleDelete(c *fiber.Ctx) error {
	if err := sc.subscriptions.Delete(c.UserContext(), usercontext.GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err, "Failed to delete subscription")
	}
	sc.invalidate(c)
	return c.SendStatus(fiber.StatusNoContent)
}
