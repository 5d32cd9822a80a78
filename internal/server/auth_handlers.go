package server

import (
	"picfeed/internal/models"
	"picfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type verifyCodeRequest struct {
	Code string `json:"code"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Register handles user registration
// @Summary Register a new user
// @Description Validate the registration and email a 6-digit verification code. No account exists until the code is verified.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration data"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.Response
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if err := s.authService.Register(c.UserContext(), req); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Verification code sent successfully", nil)
}

// VerifyCode creates the account behind a verification code
// @Summary Verify registration code
// @Description Exchange the emailed 6-digit code for the created user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{code=string} true "Verification code"
// @Success 201 {object} models.Response{data=models.User}
// @Failure 400 {object} models.Response
// @Router /auth/verify-code [post]
func (s *Server) VerifyCode(c *fiber.Ctx) error {
	var req verifyCodeRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.authService.VerifyCode(c.UserContext(), req.Code)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusCreated, "Email verified successfully", user)
}

// Login handles user login
// @Summary Login user
// @Description Authenticate with email and password. A deactivated account is reactivated.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Login credentials"
// @Success 200 {object} models.Response{data=service.LoginResult}
// @Failure 401 {object} models.Response
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	result, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Login successful", result)
}

// RefreshToken issues a new access token
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{refresh=string} true "Refresh token"
// @Success 200 {object} models.Response
// @Failure 401 {object} models.Response
// @Router /auth/token/refresh [post]
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if req.Refresh == "" {
		return s.respondError(c, models.NewFieldValidationError(map[string]string{"refresh": "This field is required."}))
	}
	access, err := s.authService.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Token refreshed successfully", fiber.Map{"access": access})
}

// Logout revokes the current access token and the optional refresh token
// @Summary Logout
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{refresh=string} false "Refresh token to revoke"
// @Success 200 {object} models.Response
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	// The body is optional.
	_ = c.BodyParser(&req)

	if err := s.authService.Logout(c.UserContext(), currentClaims(c), req.Refresh); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Logged out successfully", nil)
}
