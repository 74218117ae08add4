package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/internal/pkg/usercontext"
	"github.com/ManuelReschke/SubTrack/internal/pkg/users"
)

type UserController struct {
	users *users.Service
}

func NewUserController(usersService *users.Service) *UserController {
	return &UserController{users: usersService}
}

type updateUserRequest struct {
	Name      *string                 `json:"name"`
	AvatarURL *string                 `json:"avatar_url"`
	Country   models.Nullable[string] `json:"country"`
	Currency  *string                 `json:"currency"`
	Birthdate models.Nullable[string] `json:"birthdate"`
}

// HandleGetMe returns the profile of the authenticated user.
func (uc *UserController) HandleGetMe(c *fiber.Ctx) error {
	u, err := uc.users.GetByID(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err, "Failed to load user")
	}
	return respondData(c, fiber.StatusOK, newUserResponse(u, c.Context().Time()))
}

// HandleUpdateMe applies a partial profile update.
func (uc *UserController) HandleUpdateMe(c *fiber.Ctx) error {
	var req updateUserRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "")
	}
	birthdate, err := parseNullableDate("birthdate", req.Birthdate)
	if err != nil {
		return respondError(c, err, "")
	}

	u, err := uc.users.UpdateProfile(c.UserContext(), usercontext.GetUserID(c), models.UserPatch{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		Country:   req.Country,
		Currency:  req.Currency,
		Birthdate: birthdate,
	})
	if err != nil {
		return respondError(c, err, "Failed to update user")
	}
	return respondData(c, fiber.StatusOK, newUserResponse(u, c.Context().Time()))
}
