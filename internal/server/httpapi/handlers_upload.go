package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/temten/aexpo/internal/server/services"
)

// readUpload pulls the bytes and declared content type out of one multipart
// file. The declared type is passed along untrusted; the media pipeline
// verifies it against the actual bytes.
func readUpload(fh *multipart.FileHeader) (*services.Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return &services.Upload{Data: data, MimeType: fh.Header.Get("Content-Type")}, nil
}

func (a *API) uploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}

	upload, err := readUpload(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
		return
	}

	stats, err := a.accounts.UpdateAvatar(c.Request.Context(), currentPrincipal(c).ID, *upload)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"size":             stats.Size,
		"originalSize":     stats.OriginalSize,
		"compressionRatio": stats.CompressionRatio,
	})
}

func (a *API) getAvatar(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	resolved, err := a.accounts.GetAvatar(c.Request.Context(), userID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	if resolved.URL != "" {
		c.Redirect(http.StatusFound, resolved.URL)
		return
	}

	c.Header("Cache-Control", immutableCacheControl)
	c.Data(http.StatusOK, resolved.MimeType, resolved.Data)
}

func (a *API) getPostMedia(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	resolved, err := a.posts.GetMedia(c.Request.Context(), postID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	if resolved.URL != "" {
		c.Redirect(http.StatusFound, resolved.URL)
		return
	}

	c.Header("Cache-Control", immutableCacheControl)
	c.Data(http.StatusOK, resolved.MimeType, resolved.Data)
}
