package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/middleware"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type registerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Register godoc
// @Summary Register a client account
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} models.User
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /auth/register [post]
func Register(c *fiber.Ctx) error {
	input := new(registerInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Cannot parse JSON",
			Error:   err.Error(),
		})
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || input.Password == "" || input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Missing required fields",
			Error:   "name, email and password are required",
		})
	}
	if len(input.Password) < minPasswordLength {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Password too short",
			Error:   "password must have at least 6 characters",
		})
	}

	var existing models.User
	if db.DB.Where("email = ?", input.Email).Limit(1).Find(&existing).RowsAffected > 0 {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "User with this email already exists",
			Error:   "duplicate email",
		})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to hash password",
			Error:   err.Error(),
		})
	}

	// self sign-up always gets the client role
	var clientRole models.Role
	if err := db.DB.Where("name = ?", models.RoleClient).First(&clientRole).Error; err != nil {
		log.Error().Err(err).Msg("client role missing, were roles seeded?")
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to assign default role",
			Error:   err.Error(),
		})
	}

	user := models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    input.Email,
		Phone:    input.Phone,
		Password: string(hashed),
		RoleID:   clientRole.ID,
		Role:     clientRole,
	}
	if err := db.DB.Omit("Role").Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to create user",
			Error:   err.Error(),
		})
	}
	log.Info().Uint("user_id", user.ID).Msg("user registered")

	user.Password = ""
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login godoc
// @Summary Exchange credentials for an access and refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Cannot parse JSON",
			Error:   err.Error(),
		})
	}

	var user models.User
	err := db.DB.Preload("Role").Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password))
	}
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "Invalid credentials",
			Error:   "Unauthorized",
		})
	}

	token, refreshToken, err := utils.GenerateTokens(user.ID, user.Email, user.Role.Name, deps.JWTSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to generate token",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"token":        token,
		"refreshToken": refreshToken,
		"user": fiber.Map{
			"id":      user.ID,
			"name":    user.Name,
			"email":   user.Email,
			"role":    user.Role.Name,
			"role_id": user.RoleID,
		},
	})
}

// GetUserProfile returns the current user's profile
func GetUserProfile(c *fiber.Ctx) error {
	var user models.User
	if err := db.DB.Preload("Role").First(&user, middleware.CurrentUserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "User not found",
			Error:   err.Error(),
		})
	}

	user.Password = ""
	return c.JSON(user)
}

// Logout doesn't invalidate anything as JWTs are stateless; clients drop the tokens.
func Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Successfully logged out",
	})
}

// RefreshToken issues a new token pair from a valid refresh token. The role is
// re-read so that role changes apply on the next refresh.
func RefreshToken(c *fiber.Ctx) error {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken"`
	}

	input := new(RefreshRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Cannot parse JSON",
			Error:   err.Error(),
		})
	}

	userID, err := utils.ParseRefreshToken(input.RefreshToken, deps.JWTSecret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "Invalid refresh token",
			Error:   err.Error(),
		})
	}

	var user models.User
	if err := db.DB.Preload("Role").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
				Message: "Invalid refresh token",
				Error:   "user no longer exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to load user",
			Error:   err.Error(),
		})
	}

	token, refreshToken, err := utils.GenerateTokens(user.ID, user.Email, user.Role.Name, deps.JWTSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to generate token",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"token":        token,
		"refreshToken": refreshToken,
	})
}
