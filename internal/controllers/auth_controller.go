package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"fleet_portal/internal/middleware"
	"fleet_portal/internal/models"
	"fleet_portal/internal/store"
)

type signupInput struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	LicenseNumber string `json:"license_number"`
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthController handles signup and login.
type AuthController struct {
	Users store.UserStore
	// AllowAdminSignup lets /auth/signup create admin accounts.
	AllowAdminSignup bool
}

func NewAuthController(users store.UserStore, allowAdminSignup bool) *AuthController {
	return &AuthController{Users: users, AllowAdminSignup: allowAdminSignup}
}

func (a *AuthController) SignupUser(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := a.validateAndNormalizeRole(input.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	user := &models.User{
		Name:     input.Name,
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: hashedPassword,
		Phone:    input.Phone,
		Role:     role,
	}
	var driver *models.Driver
	if role == models.RoleDriver {
		driver = &models.Driver{
			FullName:      input.Name,
			Email:         user.Email,
			Phone:         input.Phone,
			LicenseNumber: input.LicenseNumber,
		}
	}

	if err := a.Users.CreateUser(c.Request.Context(), user, driver); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		logrus.WithError(err).WithField("email", user.Email).Error("SignupUser: could not create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": prepareUserResponse(*user)})
}

func (a *AuthController) LoginUser(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := a.Users.FindUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logrus.WithError(err).Error("LoginUser: user lookup failed")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": prepareUserResponse(*user)})
}

func (a *AuthController) validateAndNormalizeRole(roleInput string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(roleInput))
	switch role {
	case "", models.RoleDriver:
		return models.RoleDriver, nil
	case models.RoleAdmin:
		if !a.AllowAdminSignup {
			return "", errors.New("admin signup is disabled")
		}
		return models.RoleAdmin, nil
	default:
		return "", errors.New("invalid role: must be 'driver' or 'admin'")
	}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func prepareUserResponse(user models.User) gin.H {
	resp := gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"phone": user.Phone,
		"role":  user.Role,
	}
	if user.Driver != nil {
		resp["driver_id"] = user.Driver.ID
		resp["license_number"] = user.Driver.LicenseNumber
	}
	return resp
}
