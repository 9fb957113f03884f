package controller

import (
	"net/http"

	"todo-api/internal/apperr"
	"todo-api/internal/auth"
	"todo-api/internal/middleware"
	"todo-api/internal/models"

	"github.com/gin-gonic/gin"
)

// Register creates an account and returns it with a token pair.
func (h *Handler) Register(c *gin.Context) {
	var body auth.Registration
	if err := bind(c, &body, "Registration data is invalid."); err != nil {
		respondError(c, err)
		return
	}
	user, pair, err := h.Accounts.Register(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":    user,
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"message": "User registered successfully.",
	})
}

// Login exchanges email and password for a token pair.
func (h *Handler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := bind(c, &body, "Email and password are required."); err != nil {
		respondError(c, err)
		return
	}
	user, pair, err := h.Accounts.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"message": "Login successful.",
	})
}

type refreshBody struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Logout revokes the caller's refresh token.
func (h *Handler) Logout(c *gin.Context) {
	var body refreshBody
	if err := bind(c, &body, "Logout failed."); err != nil {
		respondError(c, apperr.Validation("Logout failed."))
		return
	}
	if err := h.Accounts.Logout(c.Request.Context(), middleware.UserID(c), body.Refresh); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusResetContent, gin.H{"message": "Logout successful."})
}

// RefreshToken issues a new access token for a valid refresh token.
func (h *Handler) RefreshToken(c *gin.Context) {
	var body refreshBody
	if err := bind(c, &body, "Refresh token is required."); err != nil {
		respondError(c, err)
		return
	}
	access, err := h.Accounts.RefreshAccess(c.Request.Context(), body.Refresh)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// Profile returns the caller's account.
func (h *Handler) Profile(c *gin.Context) {
	user, err := h.Accounts.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile changes the writable profile fields. Any other key in the body is rejected.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var body models.ProfileUpdate
	if err := bindStrict(c, &body, "Profile data is invalid."); err != nil {
		respondError(c, err)
		return
	}
	user, err := h.Accounts.UpdateProfile(c.Request.Context(), middleware.UserID(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword replaces the caller's password after checking the old one.
func (h *Handler) ChangePassword(c *gin.Context) {
	var body auth.PasswordChange
	if err := bind(c, &body, "Password change is invalid."); err != nil {
		respondError(c, err)
		return
	}
	if err := h.Accounts.ChangePassword(c.Request.Context(), middleware.UserID(c), body); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully."})
}
