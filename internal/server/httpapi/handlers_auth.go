package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/temten/aexpo/internal/server/models"
	"github.com/temten/aexpo/internal/server/services"
)

type profileResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *API) profileJSON(user *models.User) profileResponse {
	return profileResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		AvatarURL: a.accounts.AvatarURL(user),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (a *API) register(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=6"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password (6+ chars) are required"})
		return
	}

	user, err := a.accounts.Register(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": a.profileJSON(user)})
}

func (a *API) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, err := a.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (a *API) getProfile(c *gin.Context) {
	user, err := a.accounts.GetProfile(c.Request.Context(), currentPrincipal(c).ID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.profileJSON(user))
}

func (a *API) updateProfile(c *gin.Context) {
	var req struct {
		CurrentPassword string  `json:"currentPassword"`
		Password        *string `json:"password"`
		FirstName       *string `json:"firstName"`
		LastName        *string `json:"lastName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, token, err := a.accounts.UpdateProfile(c.Request.Context(), currentPrincipal(c).ID, services.UpdateProfileParams{
		CurrentPassword: req.CurrentPassword,
		Password:        req.Password,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}

	resp := gin.H{"user": a.profileJSON(user)}
	if token != "" {
		resp["token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

func (a *API) deleteAccount(c *gin.Context) {
	if err := a.accounts.DeleteAccount(c.Request.Context(), currentPrincipal(c).ID); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
