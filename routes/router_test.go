package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cppla/inkpost/auth"
	"github.com/cppla/inkpost/config"
	"github.com/cppla/inkpost/repository/repotest"
)

const testSecret = "router-test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t     *testing.T
	store *repotest.Store
	r     *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	codec, err := auth.NewTokenCodec(auth.TokenConfig{Secret: testSecret, Algorithm: "HS256", TTL: 30 * time.Minute})
	require.NoError(t, err)

	store := repotest.NewStore()
	r, err := SetupRouter(Dependencies{
		Config: config.AppConfig{GinMode: "test"},
		Store:  store,
		Hasher: auth.BcryptHasher{Cost: bcrypt.MinCost},
		Codec:  codec,
	})
	require.NoError(t, err)
	return &harness{t: t, store: store, r: r}
}

func (h *harness) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

func (h *harness) login(email, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its id and a fresh token.
func (h *harness) register(name, email string) (uint, string) {
	h.t.Helper()
	w := h.do(http.MethodPost, "/users", map[string]string{
		"name": name, "surname": "Tester", "email": email, "password": "pw-" + name,
	}, "")
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	decodeData(h.t, w, &data)

	lw := h.login(email, "pw-"+name)
	require.Equal(h.t, http.StatusOK, lw.Code, lw.Body.String())
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(h.t, json.Unmarshal(lw.Body.Bytes(), &tok))
	return data.User.ID, tok.AccessToken
}

func (h *harness) createPost(token, title string) uint {
	h.t.Helper()
	w := h.do(http.MethodPost, "/post", map[string]string{"title": title, "body": "hello"}, token)
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Post struct {
			ID uint `json:"id"`
		} `json:"post"`
	}
	decodeData(h.t, w, &data)
	return data.Post.ID
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func postPath(id uint) string {
	return "/post?post_id=" + strconv.FormatUint(uint64(id), 10)
}

func TestTokenResponseShape(t *testing.T) {
	h := newHarness(t)
	h.register("Alice", "alice@example.com")

	w := h.login("ALICE@example.com", "pw-Alice")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body, 2)
	assert.Equal(t, "bearer", body["type_token"])
	assert.NotEmpty(t, body["access_token"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	h.register("Alice", "alice@example.com")

	wrong := h.login("alice@example.com", "nope")
	unknown := h.login("ghost@example.com", "nope")

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, "Bearer", wrong.Header().Get("WWW-Authenticate"))
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestOnlyOwnerDeletesPost(t *testing.T) {
	h := newHarness(t)
	_, tokenA := h.register("Alice", "alice@example.com")
	_, tokenB := h.register("Bob", "bob@example.com")
	postID := h.createPost(tokenA, "first")

	w := h.do(http.MethodDelete, postPath(postID), nil, tokenB)
	assert.Equal(t, http.StatusForbidden, w.Code)
	_, exists := h.store.Post(postID)
	assert.True(t, exists)

	w = h.do(http.MethodDelete, postPath(postID), nil, tokenA)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		ID uint `json:"id"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, postID, data.ID)

	w = h.do(http.MethodGet, postPath(postID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodDelete, postPath(postID), nil, tokenB)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePost(t *testing.T) {
	h := newHarness(t)
	_, tokenA := h.register("Alice", "alice@example.com")
	_, tokenB := h.register("Bob", "bob@example.com")
	postID := h.createPost(tokenA, "first")

	w := h.do(http.MethodPatch, "/post?post_id=999", map[string]any{}, tokenA)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = h.do(http.MethodPatch, postPath(postID), map[string]string{"title": "stolen"}, tokenB)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPatch, postPath(postID), map[string]string{"title": "renamed"}, tokenA)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		ID   uint `json:"id"`
		Post struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		} `json:"post"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, postID, data.ID)
	assert.Equal(t, "renamed", data.Post.Title)
	assert.Equal(t, "hello", data.Post.Body)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	h := newHarness(t)
	h.register("Alice", "alice@example.com")

	past, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret: testSecret,
		TTL:    time.Minute,
		Now:    func() time.Time { return time.Now().Add(-time.Hour) },
	})
	require.NoError(t, err)
	expired, err := past.Issue("alice@example.com", nil, 0)
	require.NoError(t, err)

	other, err := auth.NewTokenCodec(auth.TokenConfig{Secret: "another-secret"})
	require.NoError(t, err)
	forged, err := other.Issue("alice@example.com", nil, 0)
	require.NoError(t, err)

	var bodies []string
	for _, token := range []string{"", "garbage", expired, forged} {
		w := h.do(http.MethodPost, "/post", map[string]string{"title": "t", "body": "b"}, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		bodies = append(bodies, w.Body.String())
	}
	for _, b := range bodies {
		assert.Equal(t, bodies[0], b)
	}
	assert.Equal(t, 0, countPosts(t, h))
}

func TestAuthEndpointReturnsPrincipal(t *testing.T) {
	h := newHarness(t)
	id, token := h.register("Alice", "alice@example.com")

	w := h.do(http.MethodGet, "/login/auth_endpoint", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		User map[string]any `json:"user"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, float64(id), data.User["id"])
	assert.NotContains(t, data.User, "hashed_password")
	assert.NotContains(t, w.Body.String(), "pw-Alice")
}

func TestDeactivatedUserIsLockedOut(t *testing.T) {
	h := newHarness(t)
	id, token := h.register("Alice", "alice@example.com")
	h.createPost(token, "kept")

	w := h.do(http.MethodDelete, "/users", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/login/auth_endpoint", nil, token).Code)
	assert.Equal(t, http.StatusUnauthorized, h.login("alice@example.com", "pw-Alice").Code)

	w = h.do(http.MethodGet, "/users?user_id="+strconv.FormatUint(uint64(id), 10), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		User struct {
			IsActive bool              `json:"is_active"`
			Posts    []json.RawMessage `json:"posts"`
		} `json:"user"`
	}
	decodeData(t, w, &data)
	assert.False(t, data.User.IsActive)
	assert.Len(t, data.User.Posts, 1)
}

func TestUserCannotEditOthers(t *testing.T) {
	h := newHarness(t)
	idA, _ := h.register("Alice", "alice@example.com")
	_, tokenB := h.register("Bob", "bob@example.com")

	path := "/users?user_id=" + strconv.FormatUint(uint64(idA), 10)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPatch, path, map[string]string{"name": "Eve"}, tokenB).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, path, nil, tokenB).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodPatch, "/users", map[string]any{}, tokenB).Code)

	w := h.do(http.MethodPatch, "/users", map[string]string{"name": "Robert"}, tokenB)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, "Robert", data.User.Name)
}

func TestRegistrationErrors(t *testing.T) {
	h := newHarness(t)
	h.register("Alice", "alice@example.com")

	dup := h.do(http.MethodPost, "/users", map[string]string{
		"name": "Alicia", "surname": "Tester", "email": "Alice@Example.com", "password": "x",
	}, "")
	assert.Equal(t, http.StatusConflict, dup.Code)

	bad := h.do(http.MethodPost, "/users", map[string]string{
		"name": "R2D2", "surname": "Tester", "email": "r2@example.com", "password": "x",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)

	missing := h.do(http.MethodPost, "/users", map[string]string{"name": "Carol"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, missing.Code)
}

func TestCommentLifecycle(t *testing.T) {
	h := newHarness(t)
	_, tokenA := h.register("Alice", "alice@example.com")
	idB, tokenB := h.register("Bob", "bob@example.com")
	postID := h.createPost(tokenA, "discuss")

	w := h.do(http.MethodPost, "/comment", map[string]any{"body": "nice", "post_id": postID}, tokenB)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Comment struct {
			ID uint `json:"id"`
		} `json:"comment"`
	}
	decodeData(t, w, &created)

	path := "/comment?comment_id=" + strconv.FormatUint(uint64(created.Comment.ID), 10)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, path, nil, "").Code)

	w = h.do(http.MethodGet, path, nil, tokenA)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		Comment struct {
			PostID uint `json:"post_id"`
			Author struct {
				ID uint `json:"id"`
			} `json:"author"`
		} `json:"comment"`
	}
	decodeData(t, w, &got)
	assert.Equal(t, postID, got.Comment.PostID)
	assert.Equal(t, idB, got.Comment.Author.ID)

	assert.Equal(t, http.StatusNotFound,
		h.do(http.MethodPost, "/comment", map[string]any{"body": "lost", "post_id": 999}, tokenB).Code)
	assert.Equal(t, http.StatusConflict, h.do(http.MethodDelete, postPath(postID), nil, tokenA).Code)
}

func TestStatsAndHealth(t *testing.T) {
	h := newHarness(t)
	_, token := h.register("Alice", "alice@example.com")
	h.createPost(token, "one")

	w := h.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = h.do(http.MethodGet, "/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var st map[string]int64
	decodeData(t, w, &st)
	assert.Equal(t, map[string]int64{"user_count": 1, "post_count": 1, "comment_count": 0}, st)

	w = h.do(http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/health", nil, "")

	w := h.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inkpost_http_requests_total")
}

func TestStorageOutageIsServiceUnavailable(t *testing.T) {
	h := newHarness(t)
	_, token := h.register("Alice", "alice@example.com")

	h.store.Err = errors.New("connection refused")
	w := h.do(http.MethodPost, "/post", map[string]string{"title": "t", "body": "b"}, token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")

	w = h.do(http.MethodGet, "/post?post_id=1", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestQueryValidation(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodGet, "/post", nil, "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodGet, "/post?post_id=abc", nil, "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodGet, "/users?user_id=0", nil, "").Code)
}

func countPosts(t *testing.T, h *harness) int {
	t.Helper()
	w := h.do(http.MethodGet, "/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var st struct {
		PostCount int `json:"post_count"`
	}
	decodeData(t, w, &st)
	return st.PostCount
}
