package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/internal/pkg/installments"
	"github.com/ManuelReschke/SubTrack/internal/pkg/usercontext"
)

type InstallmentController struct {
	installments *installments.Service
	totals       TotalsInvalidator
}

// NewInstallmentController creates the controller. totals may be nil.
func NewInstallmentController(insts *installments.Service, totals TotalsInvalidator) *InstallmentController {
	return &InstallmentController{installments: insts, totals: totals}
}

type confirmRequest struct {
	Link string `json:"link" form:"link"`
}

// HandleList tops up the projection and lists installments by ?status= and ?days=.
func (ic *InstallmentController) HandleList(c *fiber.Ctx) error {
	status, err := installments.ParseStatus(c.Query("status"))
	if err != nil {
		return respondError(c, err, "")
	}
	days, err := queryInt(c, "days")
	if err != nil {
		return respondError(c, err, "")
	}

	list, err := ic.installments.List(c.UserContext(), usercontext.GetUserID(c), installments.ListFilter{Status: status, Days: days})
	if err != nil {
		return respondError(c, err, "Failed to load installments")
	}
	return respondData(c, fiber.StatusOK, newInstallmentResponses(list, ic.installments.Today()))
}

// HandleMarkPaid settles an installment of the authenticated user.
func (ic *InstallmentController) HandleMarkPaid(c *fiber.Ctx) error {
	inst, err := ic.installments.MarkPaid(c.UserContext(), c.Params("id"), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err, "Failed to mark installment as paid")
	}
	ic.invalidate(c, inst)
	return respondData(c, fiber.StatusOK, newInstallmentResponse(inst, ic.installments.Today()))
}

// HandleConfirm settles the installment behind a calendar link. No session is needed.
func (ic *InstallmentController) HandleConfirm(c *fiber.Ctx) error {
	var req confirmRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "")
	}
	inst, err := ic.installments.ConfirmByLink(c.UserContext(), req.Link)
	if err != nil {
		return respondError(c, err, "Failed to confirm payment")
	}
	ic.invalidate(c, inst)
	return respondData(c, fiber.StatusOK, newInstallmentResponse(inst, ic.installments.Today()))
}

// HandleConfirmPage renders the confirmation form opened from a calendar event.
func (ic *InstallmentController) HandleConfirmPage(c *fiber.Ctx) error {
	link := c.Query("link")
	return c.Render("confirm", fiber.Map{
		"Link":    link,
		"Missing": link == "",
		"CSRF":    c.Locals("csrf"),
	})
}

// HandleConfirmForm settles the installment submitted by the confirmation form.
func (ic *InstallmentController) HandleConfirmForm(c *fiber.Ctx) error {
	link := c.FormValue("link")
	inst, err := ic.installments.ConfirmByLink(c.UserContext(), link)
	if err != nil {
		status := fiber.StatusInternalServerError
		message := "The payment could not be confirmed. Please try again later."
		switch {
		case models.IsValidationError(err):
			status, message = fiber.StatusBadRequest, "The confirmation link is missing."
		case errors.Is(err, models.ErrNotFound):
			status, message = fiber.StatusNotFound, "No payment matches this confirmation link."
		default:
			log.Errorf("[API] Confirm form: %v", err)
		}
		return c.Status(status).Render("confirm", fiber.Map{"Link": link, "Error": message, "CSRF": c.Locals("csrf")})
	}
	ic.invalidate(c, inst)

	data := fiber.Map{"Link": link, "Confirmed": true, "Date": formatDate(inst.Date)}
	if inst.Subscription != nil {
		data["Subscription"] = inst.Subscription.Name
	}
	return c.Render("confirm", data)
}

func (ic *InstallmentController) invalidate(c *fiber.Ctx, inst *models.Installment) {
	if ic.totals != nil && inst.Subscription != nil {
		ic.totals.Invalidate(c.UserContext(), inst.Subscription.UserID)
	}
}
