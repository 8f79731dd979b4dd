// Package httpapi exposes the account and posts services over a JSON HTTP
// API under /api/v1. Error sentinels from internal/common are mapped onto
// HTTP status codes in one place; handlers never pick status codes ad hoc.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/temten/aexpo/internal/common"
	"github.com/temten/aexpo/internal/logging"
	"github.com/temten/aexpo/internal/server/media"
	"github.com/temten/aexpo/internal/server/services"
)

// immutableCacheControl marks resolved assets as safe to cache for a year.
// Every asset write produces a new URL (or a new avatar payload behind the
// same endpoint after the client re-fetches the profile), so stale reads age
// out naturally.
const immutableCacheControl = "public, max-age=31536000"

// API holds the services behind the HTTP surface.
type API struct {
	accounts *services.AccountService
	posts    *services.PostService
	logger   logging.Logger
}

func NewAPI(accounts *services.AccountService, posts *services.PostService, logger logging.Logger) *API {
	return &API{accounts: accounts, posts: posts, logger: logger.With("module", "httpapi")}
}

// Router builds the gin engine with all routes registered. When
// localMediaDir is non-empty the local asset directory is served statically
// under the media prefix.
func (a *API) Router(localMediaDir string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if localMediaDir != "" {
		router.Static(media.ServedPathPrefix, localMediaDir)
	}

	v1 := router.Group("/api/v1")

	v1.POST("/auth/register", a.register)
	v1.POST("/auth/login", a.login)
	v1.GET("/upload/avatar/:userId", a.getAvatar)
	v1.GET("/posts/:id/media", a.getPostMedia)

	authed := v1.Group("")
	authed.Use(a.authRequired())

	authed.GET("/auth/profile", a.getProfile)
	authed.PATCH("/auth/profile", a.updateProfile)
	authed.DELETE("/auth/account", a.deleteAccount)
	authed.POST("/upload/avatar", a.uploadAvatar)

	authed.POST("/posts", a.createPost)
	authed.GET("/posts", a.listPosts)
	authed.GET("/posts/:id", a.getPost)
	authed.PATCH("/posts/:id", a.updatePost)
	authed.DELETE("/posts/:id", a.deletePost)
	authed.GET("/users/:userId/posts", a.listUserPosts)

	return router
}

// respondError translates service sentinels into HTTP statuses. Unknown
// errors are logged and answered with a bare 500 so internals never leak.
func (a *API) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrInvalidAsset):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrorConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		a.logger.Error(c.Request.Context(), "internal error", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
