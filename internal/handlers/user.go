package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ponderdome/ponderdome/internal/middleware"
	"github.com/ponderdome/ponderdome/internal/models"
	"github.com/ponderdome/ponderdome/internal/services"
)

type AuthService interface {
	SignUp(ctx context.Context, req *services.SignUpRequest) (*models.User, error)
	SignIn(ctx context.Context, req *services.SignInRequest) (*models.User, error)
	SignOut(ctx context.Context, viewer services.Viewer, tokenID string, expiresAt time.Time) error
}

type ProfileService interface {
	GetUserStats(ctx context.Context, userID string) (*services.ProfileStats, error)
	UpdateProfile(ctx context.Context, viewer services.Viewer, bio string) error
}

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]services.LeaderboardEntry, error)
}

type UserHandler struct {
	authService        AuthService
	profileService     ProfileService
	leaderboardService LeaderboardService
	jwtSecret          string
	jwtExpire          time.Duration
}

func NewUserHandler(
	authService AuthService,
	profileService ProfileService,
	leaderboardService LeaderboardService,
	jwtSecret string,
	jwtExpire time.Duration,
) *UserHandler {
	return &UserHandler{
		authService:        authService,
		profileService:     profileService,
		leaderboardService: leaderboardService,
		jwtSecret:          jwtSecret,
		jwtExpire:          jwtExpire,
	}
}

func (h *UserHandler) SignUp(c *gin.Context) {
	var req services.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, "User registered successfully", user)
}

func (h *UserHandler) SignIn(c *gin.Context) {
	var req services.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.SignIn(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondWithToken(c, http.StatusOK, "Sign in successful", user)
}

func (h *UserHandler) SignOut(c *gin.Context) {
	tokenID, expiresAt := middleware.GetToken(c)
	if err := h.authService.SignOut(c.Request.Context(), viewer(c), tokenID, expiresAt); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

func (h *UserHandler) respondWithToken(c *gin.Context, status int, message string, user *models.User) {
	username := ""
	if user.Username != nil {
		username = *user.Username
	}

	token, err := middleware.GenerateToken(user.ID.String(), username, h.jwtSecret, h.jwtExpire)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(status, gin.H{
		"message": message,
		"token":   token,
		"user":    user,
	})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profileService.UpdateProfile(c.Request.Context(), viewer(c), req.Bio); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

func (h *UserHandler) GetUserStats(c *gin.Context) {
	stats, err := h.profileService.GetUserStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *UserHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit > 100 {
		limit = 100
	}

	entries, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
