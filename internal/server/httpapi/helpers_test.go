package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/temten/aexpo/internal/common"
	"github.com/temten/aexpo/internal/dbx"
	"github.com/temten/aexpo/internal/logging"
	"github.com/temten/aexpo/internal/server/auth"
	"github.com/temten/aexpo/internal/server/config"
	"github.com/temten/aexpo/internal/server/media"
	"github.com/temten/aexpo/internal/server/models"
	postsrepo "github.com/temten/aexpo/internal/server/repositories/posts"
	usersrepo "github.com/temten/aexpo/internal/server/repositories/users"
	"github.com/temten/aexpo/internal/server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memUsersRepo struct {
	users  map[int64]*models.User
	nextID int64

	getByIDErr error // injected read failure
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{users: map[int64]*models.User{}, nextID: 1}
}

func (r *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, common.ErrorConflict
		}
	}
	u.ID = r.nextID
	r.nextID++
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = u
	return u, nil
}

func (r *memUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if r.getByIDErr != nil {
		return nil, r.getByIDErr
	}
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) Update(ctx context.Context, u *models.User) (*models.User, error) {
	if _, ok := r.users[u.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	u.UpdatedAt = time.Now()
	r.users[u.ID] = u
	return u, nil
}

func (r *memUsersRepo) UpdateAvatar(ctx context.Context, id int64, ref models.AssetRef) error {
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Avatar = ref
	return nil
}

func (r *memUsersRepo) BumpTokenVersion(ctx context.Context, id int64) (int64, error) {
	u, ok := r.users[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	u.JWTVersion++
	return u.JWTVersion, nil
}

func (r *memUsersRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.users, id)
	return nil
}

type memPostsRepo struct {
	posts  map[int64]*models.Post
	nextID int64
}

func newMemPostsRepo() *memPostsRepo {
	return &memPostsRepo{posts: map[int64]*models.Post{}, nextID: 1}
}

func (r *memPostsRepo) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	p.ID = r.nextID
	r.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.posts[p.ID] = p
	return p, nil
}

func (r *memPostsRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	if p, ok := r.posts[id]; ok {
		return p, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memPostsRepo) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var out []*models.Post
	for _, p := range r.posts {
		out = append(out, p)
	}
	return out, nil
}

func (r *memPostsRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.posts)), nil
}

func (r *memPostsRepo) ListByUser(ctx context.Context, userID int64) ([]*models.Post, error) {
	var out []*models.Post
	for _, p := range r.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPostsRepo) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	if _, ok := r.posts[p.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	p.UpdatedAt = time.Now()
	r.posts[p.ID] = p
	return p, nil
}

func (r *memPostsRepo) UpdateMedia(ctx context.Context, id int64, ref models.AssetRef) error {
	p, ok := r.posts[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.Media = ref
	return nil
}

func (r *memPostsRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.posts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.posts, id)
	return nil
}

type memRepoManager struct {
	u *memUsersRepo
	p *memPostsRepo
}

func (m *memRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *memRepoManager) Posts(db dbx.DBTX) postsrepo.Repository       { return m.p }

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

// testEnv wires the full API over in-memory repositories and the inline
// media backend.
type testEnv struct {
	router *gin.Engine
	users  *memUsersRepo
	posts  *memPostsRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	// profile updates run in a transaction
	mock.MatchExpectationsInOrder(false)
	for range 8 {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer error: %v", err)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	cfg := &config.Config{BaseURL: "http://localhost:5001"}
	rm := &memRepoManager{u: newMemUsersRepo(), p: newMemPostsRepo()}
	mm := media.NewManager(media.NewInlineStore(), logger)

	accounts := services.NewAccountService(db, rm, mm, issuer, cfg)
	posts := services.NewPostService(db, rm, mm, cfg)
	api := NewAPI(accounts, posts, logger)

	return &testEnv{router: api.Router(""), users: rm.u, posts: rm.p}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, method, path, token, bytes.NewBufferString(body), "application/json")
}

// registerAndLogin provisions one account and returns its id and token.
func (e *testEnv) registerAndLogin(t *testing.T, email, password string) (int64, string) {
	t.Helper()

	rec := e.doJSON(t, http.MethodPost, "/api/v1/auth/register", "",
		`{"email":"`+email+`","password":"`+password+`","firstName":"Alice","lastName":"Liddell"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = e.doJSON(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"`+email+`","password":"`+password+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(t, rec, &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	user, err := e.users.GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	return user.ID, resp.Token
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dest any) error {
	t.Helper()
	return json.Unmarshal(rec.Body.Bytes(), dest)
}

func pngUpload(t *testing.T, field, filename string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("png.Encode error: %v", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range extra {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("WriteField error: %v", err)
		}
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart error: %v", err)
	}
	if _, err := part.Write(img.Bytes()); err != nil {
		t.Fatalf("part write error: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer close error: %v", err)
	}

	return &body, writer.FormDataContentType()
}
