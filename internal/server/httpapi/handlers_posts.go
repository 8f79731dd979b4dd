package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/temten/aexpo/internal/server/models"
	"github.com/temten/aexpo/internal/server/services"
)

type postResponse struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"userId"`
	Text      string             `json:"text"`
	Hashtags  []string           `json:"hashtags"`
	Privacy   models.PostPrivacy `json:"privacy"`
	MediaURL  string             `json:"mediaUrl,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (a *API) postJSON(post *models.Post) postResponse {
	hashtags := post.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	return postResponse{
		ID:        post.ID,
		UserID:    post.UserID,
		Text:      post.Text,
		Hashtags:  hashtags,
		Privacy:   post.Privacy,
		MediaURL:  a.posts.MediaURL(post),
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

func (a *API) postListJSON(items []*models.Post) []postResponse {
	out := make([]postResponse, 0, len(items))
	for _, post := range items {
		out = append(out, a.postJSON(post))
	}
	return out
}

func splitFormHashtags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// createPost accepts either a JSON body or, when a media file is attached,
// multipart/form-data with the text fields alongside the file.
func (a *API) createPost(c *gin.Context) {
	var params services.CreatePostParams
	var upload *services.Upload

	if isMultipart(c) {
		params.Text = c.PostForm("text")
		params.Hashtags = splitFormHashtags(c.PostForm("hashtags"))
		params.Privacy = models.PostPrivacy(c.PostForm("privacy"))

		if fh, err := c.FormFile("media"); err == nil {
			upload, err = readUpload(fh)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
				return
			}
		}
	} else {
		var req struct {
			Text     string             `json:"text"`
			Hashtags []string           `json:"hashtags"`
			Privacy  models.PostPrivacy `json:"privacy"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		params = services.CreatePostParams{Text: req.Text, Hashtags: req.Hashtags, Privacy: req.Privacy}
	}

	post, err := a.posts.Create(c.Request.Context(), currentPrincipal(c).ID, params, upload)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, a.postJSON(post))
}

func (a *API) getPost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	post, err := a.posts.Get(c.Request.Context(), postID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.postJSON(post))
}

func (a *API) listPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	result, err := a.posts.List(c.Request.Context(), page, limit)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      a.postListJSON(result.Posts),
		"total":      result.Total,
		"page":       result.Page,
		"totalPages": result.TotalPages,
	})
}

func (a *API) listUserPosts(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	items, err := a.posts.ListByUser(c.Request.Context(), userID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": a.postListJSON(items)})
}

func (a *API) updatePost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var params services.UpdatePostParams
	var upload *services.Upload

	if isMultipart(c) {
		if text, ok := c.GetPostForm("text"); ok {
			params.Text = &text
		}
		if raw, ok := c.GetPostForm("hashtags"); ok {
			tags := splitFormHashtags(raw)
			params.Hashtags = &tags
		}
		if raw, ok := c.GetPostForm("privacy"); ok {
			privacy := models.PostPrivacy(raw)
			params.Privacy = &privacy
		}

		if fh, err := c.FormFile("media"); err == nil {
			upload, err = readUpload(fh)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
				return
			}
		}
	} else {
		var req struct {
			Text     *string             `json:"text"`
			Hashtags *[]string           `json:"hashtags"`
			Privacy  *models.PostPrivacy `json:"privacy"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		params = services.UpdatePostParams{Text: req.Text, Hashtags: req.Hashtags, Privacy: req.Privacy}
	}

	post, err := a.posts.Update(c.Request.Context(), postID, currentPrincipal(c).ID, params, upload)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.postJSON(post))
}

func (a *API) deletePost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	if err := a.posts.Remove(c.Request.Context(), postID, currentPrincipal(c).ID); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
