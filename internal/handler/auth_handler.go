package handler

import (
	"go-utang-ledger/internal/middleware"
	"go-utang-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register mounts the auth routes. They must be registered before the
// generic /:resource routes.
func (h *AuthHandler) Register(router fiber.Router) {
	auth := router.Group("/auth")
	auth.Post("/sign-up", h.SignUp)
	auth.Post("/sign-in", h.SignIn)
	auth.Post("/sign-out", middleware.RequireAuth(), h.SignOut)
	auth.Get("/session", middleware.RequireAuth(), h.Session)
	auth.Post("/change-password", middleware.RequireAuth(), h.ChangePassword)
}

// SignUp creates an account and signs it in
// POST /api/auth/sign-up
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req service.SignUpInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	response, err := h.authService.SignUp(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(response)
}

// SignIn handles user authentication
// POST /api/auth/sign-in
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req service.SignInInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	response, err := h.authService.SignIn(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(response)
}

// SignOut invalidates every token of the caller
// POST /api/auth/sign-out
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if err := h.authService.SignOut(c.UserContext(), getUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Signed out"})
}

// Session returns the signed-in user
// GET /api/auth/session
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	user, err := h.authService.Session(c.UserContext(), getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// ChangePassword handles password change
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req service.ChangePasswordInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	response, err := h.authService.ChangePassword(c.UserContext(), getUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(response)
}
