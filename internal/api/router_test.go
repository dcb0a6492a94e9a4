package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fluffyriot/notbadfeed/internal/api/handlers"
	"github.com/fluffyriot/notbadfeed/internal/commentcache"
	"github.com/fluffyriot/notbadfeed/internal/config"
	"github.com/fluffyriot/notbadfeed/internal/feed"
	"github.com/fluffyriot/notbadfeed/internal/feedapi"
	"github.com/fluffyriot/notbadfeed/internal/session"
	"github.com/fluffyriot/notbadfeed/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream is a tiny in-memory version of the feed API.
type fakeUpstream struct {
	mu          sync.Mutex
	comments    map[int][]feedapi.Comment
	nextID      int
	commentGets int
	failCreate  bool
	failDelete  bool
	failFeed    bool
	hugeToken   bool
	authSeen    []string
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authSeen = append(f.authSeen, r.Header.Get("Authorization"))

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		token := "tok"
		if f.hugeToken {
			token = strings.Repeat("t", 5000)
		}
		fmt.Fprintf(w, `{"token":%q,"expires_at":"2030-01-01T00:00:00Z","id":15}`, token)

	case r.Method == http.MethodGet && r.URL.Path == "/post/feed/15":
		if f.failFeed || r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `[{"id":7,"user_id":2,"image_url":"http://img/7.jpg","caption":"sunset","created_at":"2024-10-01T10:00:00Z","username":"bob","email":"bob@x","profile_image":"http://img/bob.jpg"}]`)

	case r.Method == http.MethodGet && r.URL.Path == "/comment/post/7":
		f.commentGets++
		json.NewEncoder(w).Encode(f.comments[7])

	case r.Method == http.MethodPost && r.URL.Path == "/comment/":
		if f.failCreate {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var nc feedapi.NewComment
		json.NewDecoder(r.Body).Decode(&nc)
		f.nextID++
		c := feedapi.Comment{ID: f.nextID, PostID: nc.PostID, UserID: nc.UserID, Content: nc.Content, CreatedAt: "2024-10-02T10:00:00Z"}
		f.comments[nc.PostID] = append(f.comments[nc.PostID], c)
		json.NewEncoder(w).Encode(c)

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/comment/"):
		if f.failDelete {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)

	default:
		http.NotFound(w, r)
	}
}

type browser struct {
	t       *testing.T
	r       *gin.Engine
	cookies map[string]*http.Cookie
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Referer", "http://localhost/landing")
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	b.r.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		b.cookies[ck.Name] = ck
	}
	return w
}

func setup(t *testing.T) (*browser, *fakeUpstream) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	up := &fakeUpstream{comments: map[int][]feedapi.Comment{
		7: {
			{ID: 1, PostID: 7, UserID: 2, Content: "lovely", CreatedAt: "2024-10-01T11:00:00Z"},
			{ID: 2, PostID: 7, UserID: 15, Content: "thanks", CreatedAt: "2024-10-01T12:00:00Z"},
		},
	}, nextID: 10}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := commentcache.NewMemoryStore(16)
	require.NoError(t, err)
	svc := feed.NewService(feedapi.NewClient(srv.URL, 2*time.Second), store, logger)

	tmpl, err := web.Templates(time.UTC)
	require.NoError(t, err)
	static, err := web.Static()
	require.NoError(t, err)

	r := NewRouter(RouterOptions{
		Handler:   handlers.NewHandler(svc, &config.AppConfig{}, logger),
		Store:     session.NewStore([]byte("0123456789abcdef0123456789abcdef"), nil, false),
		Templates: tmpl,
		Static:    static,
		Logger:    logger,
	})

	return &browser{t: t, r: r, cookies: map[string]*http.Cookie{}}, up
}

func login(t *testing.T, b *browser) {
	t.Helper()
	w := b.do(http.MethodPost, "/login", url.Values{"email": {"a@b.c"}, "password": {"secret"}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/landing", w.Header().Get("Location"))
}

func TestLoginPage(t *testing.T) {
	b, _ := setup(t)

	for _, path := range []string{"/", "/login"} {
		w := b.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Sign In")
		assert.Contains(t, w.Body.String(), "Forgot your password?")
	}
}

func TestLoginFailure(t *testing.T) {
	b, _ := setup(t)

	w := b.do(http.MethodPost, "/login", url.Values{"email": {"a@b.c"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Login failed, please check your credentials.")
}

func TestLoginSessionSaveFailureShowsFixedMessage(t *testing.T) {
	b, up := setup(t)
	up.hugeToken = true

	w := b.do(http.MethodPost, "/login", url.Values{"email": {"a@b.c"}, "password": {"secret"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Login failed, please check your credentials.")
	assert.NotContains(t, w.Body.String(), "securecookie")
}

func TestLoginRedirectsWhenAlreadyLoggedIn(t *testing.T) {
	b, _ := setup(t)
	login(t, b)

	w := b.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/landing", w.Header().Get("Location"))
}

func TestLandingWithoutLoginShowsError(t *testing.T) {
	b, _ := setup(t)

	w := b.do(http.MethodGet, "/landing", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to fetch posts.")
}

func TestLandingShowsFeed(t *testing.T) {
	b, up := setup(t)
	login(t, b)

	w := b.do(http.MethodGet, "/landing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Not Bad Feed")
	assert.Contains(t, body, "sunset")
	assert.Contains(t, body, "bob")
	assert.Contains(t, body, "10/1/2024, 10:00:00 AM")
	assert.NotContains(t, body, "Failed to fetch posts.")
	assert.NotContains(t, body, "lovely")
	assert.Contains(t, up.authSeen, "Bearer tok")
}

func TestCommentsAreFetchedOnceAndToggle(t *testing.T) {
	b, up := setup(t)
	login(t, b)

	w := b.do(http.MethodPost, "/posts/7/toggle-comments", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/landing#post-7", w.Header().Get("Location"))

	body := b.do(http.MethodGet, "/landing", nil).Body.String()
	assert.Contains(t, body, "lovely")
	assert.Contains(t, body, "thanks")
	// only the current user's comment can be deleted
	assert.Contains(t, body, "/posts/7/comments/2/delete")
	assert.NotContains(t, body, "/posts/7/comments/1/delete")

	b.do(http.MethodPost, "/posts/7/toggle-comments", url.Values{})
	assert.NotContains(t, b.do(http.MethodGet, "/landing", nil).Body.String(), "lovely")

	b.do(http.MethodPost, "/posts/7/toggle-comments", url.Values{})
	assert.Contains(t, b.do(http.MethodGet, "/landing", nil).Body.String(), "lovely")

	assert.Equal(t, 1, up.commentGets)
}

func TestCreateComment(t *testing.T) {
	b, _ := setup(t)
	login(t, b)
	b.do(http.MethodPost, "/posts/7/toggle-comments", url.Values{})

	w := b.do(http.MethodPost, "/posts/7/comments", url.Values{"content": {"great shot"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	body := b.do(http.MethodGet, "/landing", nil).Body.String()
	assert.Contains(t, body, "great shot")
	assert.Contains(t, body, "/posts/7/comments/11/delete")
}

func TestCreateComment_Empty(t *testing.T) {
	b, _ := setup(t)
	login(t, b)
	b.do(http.MethodPost, "/posts/7/toggle-comments", url.Values{})

	b.do(http.MethodPost, "/posts/7/comments", url.Values{"content": {"   "}})
	body := b.do(http.MethodGet, "/landing", nil).Body.String()
	assert.Contains(t, body, "Comment cannot be empty.")

	// the flash is shown once
	assert.NotContains(t, b.do(http.MethodGet, "/landing", nil).Body.String(), "Comment cannot be empty.")
}

func TestCreateComment_Failure(t *testing.T) {
	b, up := setup(t)
	login(t, b)
	b.do(http.MethodPost, "/posts/7/toggle-comments", url.Values{})
	up.failCreate = true

	b.do(http.MethodPost, "/posts/7/comments", url.Values{"content": {"hello"}})
	assert.Contains(t, b.do(http.MethodGet, "/landing", nil).Body.String(), "Failed to post comment.")
}

func TestDeleteComment(t *testing.T) {
	b, _ := setup(t)
	login(t, b)
	b.do(http.MethodPost, "/posts/7/toggle-comments", url.Values{})

	w := b.do(http.MethodPost, "/posts/7/comments/2/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	body := b.do(http.MethodGet, "/landing", nil).Body.String()
	assert.NotContains(t, body, "thanks")
	assert.Contains(t, body, "lovely")
}

func TestDeleteComment_Failure(t *testing.T) {
	b, up := setup(t)
	login(t, b)
	b.do(http.MethodPost, "/posts/7/toggle-comments", url.Values{})
	up.failDelete = true

	b.do(http.MethodPost, "/posts/7/comments/2/delete", url.Values{})
	body := b.do(http.MethodGet, "/landing", nil).Body.String()
	assert.Contains(t, body, "Failed to delete comment.")
	assert.Contains(t, body, "thanks")
}

func TestBadPathIDs(t *testing.T) {
	b, _ := setup(t)

	assert.Equal(t, http.StatusBadRequest, b.do(http.MethodPost, "/posts/abc/toggle-comments", url.Values{}).Code)
	assert.Equal(t, http.StatusBadRequest, b.do(http.MethodPost, "/posts/7/comments/x/delete", url.Values{}).Code)
}

func TestThemeToggle(t *testing.T) {
	b, _ := setup(t)

	assert.Contains(t, b.do(http.MethodGet, "/", nil).Body.String(), `data-theme="light"`)

	w := b.do(http.MethodPost, "/theme/toggle", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/landing", w.Header().Get("Location"))

	assert.Contains(t, b.do(http.MethodGet, "/", nil).Body.String(), `data-theme="dark"`)
}

func TestThemeToggleStaysOnSite(t *testing.T) {
	b, _ := setup(t)

	for _, referer := range []string{
		"https://evil.example/%5Cevil.example/x",
		"http://localhost//evil.example/x",
		"https://evil.example/landing/../x",
	} {
		req := httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
		req.Header.Set("Referer", referer)
		w := httptest.NewRecorder()
		b.r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code, referer)
		assert.Equal(t, "/", w.Header().Get("Location"), referer)
	}
}

func TestLogout(t *testing.T) {
	b, up := setup(t)
	login(t, b)
	b.do(http.MethodPost, "/posts/7/toggle-comments", url.Values{})

	w := b.do(http.MethodPost, "/logout", url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/", nil).Code)

	login(t, b)
	b.do(http.MethodPost, "/posts/7/toggle-comments", url.Values{})
	assert.Equal(t, 2, up.commentGets)
}

func TestHealthAndMetrics(t *testing.T) {
	b, _ := setup(t)

	w := b.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"status":"ok","version":%q}`, config.AppVersion), w.Body.String())

	login(t, b)
	b.do(http.MethodGet, "/landing", nil)
	w = b.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "notbadfeed_api_requests_total")
}

func TestStaticAndSecurityHeaders(t *testing.T) {
	b, _ := setup(t)

	w := b.do(http.MethodGet, "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "--primary")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
