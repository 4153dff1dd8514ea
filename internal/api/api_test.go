package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"book_catalog/internal/db"
	"book_catalog/internal/domain"
	"book_catalog/internal/ratings"
	"book_catalog/internal/session"
	"book_catalog/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	fellowship = "0261103571"
	hobbit     = "0547928211"
	purity     = "0000000100"
)

// stubRatings answers every lookup with a fixed summary or error
type stubRatings struct {
	summary *ratings.Summary
	err     error
	calls   int
}

func (s *stubRatings) Lookup(_ context.Context, _ string) (*ratings.Summary, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

type testEnv struct {
	router  *gin.Engine
	store   *store.Store
	ratings *stubRatings
	redis   *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// one connection keeps a single in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	st := store.New(gdb)

	_, err = st.InsertBooks(context.Background(), []domain.Book{
		{ISBN: fellowship, Title: "The Fellowship of the Ring", Author: "J.R.R. Tolkien", Year: 1954},
		{ISBN: hobbit, Title: "The Hobbit", Author: "J.R.R. Tolkien", Year: 1937},
		{ISBN: "0441172717", Title: "Dune", Author: "Frank Herbert", Year: 1965},
		{ISBN: purity, Title: "100% Pure", Author: "A_Writer", Year: 2001},
	}, 10)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	avg, count := 4.25, int64(1200)
	rl := &stubRatings{summary: &ratings.Summary{AverageRating: &avg, RatingsCount: &count}}

	r, err := NewRouter(Dependencies{
		Store:    st,
		Sessions: session.NewManager(rdb, []byte("test-secret"), time.Hour, false),
		Ratings:  rl,
	})
	require.NoError(t, err)
	return &testEnv{router: r, store: st, ratings: rl, redis: mr}
}

// client carries the session cookie between requests like a browser
type client struct {
	env    *testEnv
	cookie *http.Cookie
}

func (e *testEnv) client() *client {
	return &client{env: e}
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.env.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == session.CookieName {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil)
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, path, form)
}

func (c *client) register(t *testing.T, username, password string) {
	t.Helper()
	w := c.post("/register", url.Values{"username": {username}, "password": {password}, "checkPassword": {password}})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	require.Equal(t, "/login", w.Header().Get("Location"))
}

func (c *client) login(t *testing.T, username, password string) {
	t.Helper()
	w := c.post("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	require.Equal(t, "/", w.Header().Get("Location"))
}

func TestProtectedRoutes_RedirectAnonymous(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	for _, path := range []string{"/", "/search?search_value=x", "/books/" + fellowship} {
		w := c.get(path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}
	w := c.post("/review", url.Values{"book_id": {fellowship}, "rating": {"5"}, "review": {"x"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRegister_CreatesUserWithHashedPassword(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	w := c.get("/register")
	assert.Equal(t, http.StatusOK, w.Code)

	c.register(t, "alice", "s3cret")

	u, err := env.store.UserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret")))

	// Registration does not log the user in
	w = c.get("/")
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRegister_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.register(t, "alice", "pw")
	before, err := env.store.UserByUsername(context.Background(), "alice")
	require.NoError(t, err)

	cases := []struct {
		name string
		form url.Values
		want []string
	}{
		{
			name: "empty fields",
			form: url.Values{"username": {""}, "password": {""}, "checkPassword": {""}},
			want: []string{"please enter a valid username", "please enter password"},
		},
		{
			name: "long username and mismatch",
			form: url.Values{"username": {strings.Repeat("a", 31)}, "password": {"a"}, "checkPassword": {"b"}},
			want: []string{"username should not exceed 30 characters", "password doesn&#39;t match"},
		},
		{
			name: "taken username",
			form: url.Values{"username": {"alice"}, "password": {"other"}, "checkPassword": {"other"}},
			want: []string{"user already exists!"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := c.post("/register", tc.form)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			for _, msg := range tc.want {
				assert.Contains(t, w.Body.String(), msg)
			}
		})
	}

	var n int64
	require.NoError(t, env.store.DB().Model(&domain.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	// The existing account keeps its password
	after, err := env.store.UserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, before.Password, after.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(after.Password), []byte("pw")))
}

func TestRegister_UsernameLengthCountsCharacters(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	// 30 two-byte characters fit
	c.register(t, strings.Repeat("é", 30), "pw")
}

func TestRegister_LoggedInRedirectsHome(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.register(t, "alice", "pw")
	c.login(t, "alice", "pw")

	for _, path := range []string{"/register", "/login"} {
		w := c.get(path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/", w.Header().Get("Location"), path)
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.register(t, "alice", "right")

	unknown := env.client().post("/login", url.Values{"username": {"bob"}, "password": {"right"}})
	attacker := env.client()
	wrong := attacker.post("/login", url.Values{"username": {"alice"}, "password": {"wrong"}})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, LoginFailedMessage, unknown.Body.String())
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	assert.Equal(t, unknown.Header().Get("Content-Type"), wrong.Header().Get("Content-Type"))

	// A failed login leaves the caller anonymous
	assert.Nil(t, attacker.cookie)
	w := attacker.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLogin_FlashShownOnce(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.register(t, "alice", "pw")
	c.login(t, "alice", "pw")

	w := c.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome, alice")
	assert.Contains(t, w.Body.String(), "You&#39;ve successfully logged in!")

	w = c.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "successfully logged in")
}

func TestLogin_RenewsSessionID(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.register(t, "alice", "pw")
	c.login(t, "alice", "pw")
	first := c.cookie

	c.login(t, "alice", "pw")
	require.NotEqual(t, first.Value, c.cookie.Value)

	// The pre-login session was deleted
	stale := &client{env: env, cookie: first}
	w := stale.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.register(t, "alice", "pw")
	c.login(t, "alice", "pw")

	w := c.get("/logout")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = c.get("/")
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// Idempotent, with or without a session
	w = c.do(http.MethodDelete, "/logout", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	w = env.client().get("/logout")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestHome_DeletedUserIsLoggedOut(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.register(t, "alice", "pw")
	c.login(t, "alice", "pw")

	require.NoError(t, env.store.DB().Where("username = ?", "alice").Delete(&domain.User{}).Error)

	w := c.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	w = c.get("/search")
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func loggedIn(t *testing.T, env *testEnv, username string) *client {
	t.Helper()
	c := env.client()
	c.register(t, username, "pw")
	c.login(t, username, "pw")
	c.get("/") // consume the login notice
	return c
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	c := loggedIn(t, env, "alice")

	cases := []struct {
		query   string
		want    []string
		notWant []string
	}{
		{query: "Tolkien", want: []string{"The Hobbit", "The Fellowship of the Ring"}, notWant: []string{"Dune"}},
		{query: "%", want: []string{"100% Pure"}, notWant: []string{"Dune", "The Hobbit"}},
		{query: "_", want: []string{"100% Pure"}, notWant: []string{"Dune"}},
		{query: "", want: []string{"Dune", "The Hobbit", "100% Pure"}},
		{query: "0441", want: []string{"Dune"}, notWant: []string{"The Hobbit"}},
		{query: "no such book", notWant: []string{"Dune", "The Hobbit"}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			w := c.get("/search?search_value=" + url.QueryEscape(tc.query))
			require.Equal(t, http.StatusOK, w.Code)
			for _, s := range tc.want {
				assert.Contains(t, w.Body.String(), s)
			}
			for _, s := range tc.notWant {
				assert.NotContains(t, w.Body.String(), s)
			}
		})
	}
}

func TestBookPage(t *testing.T) {
	env := newTestEnv(t)
	c := loggedIn(t, env, "alice")

	w := c.get("/books/" + fellowship)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "The Fellowship of the Ring")
	assert.Contains(t, body, "4.25")
	assert.Contains(t, body, "1200")
	assert.Contains(t, body, "No reviews yet.")
	assert.Contains(t, body, `name="book_id"`)

	w = c.get("/books/9999999999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookPage_RatingFailureIs500(t *testing.T) {
	env := newTestEnv(t)
	c := loggedIn(t, env, "alice")
	env.ratings.err = ratings.ErrUnavailable

	w := c.get("/books/" + fellowship)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReview_OnePerUserAndBook(t *testing.T) {
	env := newTestEnv(t)
	c := loggedIn(t, env, "alice")
	form := url.Values{"book_id": {hobbit}, "rating": {"4"}, "review": {"Lovely"}}

	w := c.post("/review", form)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/books/"+hobbit, w.Header().Get("Location"))

	w = c.get("/books/" + hobbit)
	body := w.Body.String()
	assert.Contains(t, body, "Lovely")
	assert.Contains(t, body, "★★★★☆")
	assert.NotContains(t, body, `name="book_id"`) // Form hidden once reviewed

	form.Set("review", "Changed my mind")
	w = c.post("/review", form)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/books/"+hobbit, w.Header().Get("Location"))

	w = c.get("/books/" + hobbit)
	assert.Contains(t, w.Body.String(), "you have already reviewed this book")
	assert.NotContains(t, w.Body.String(), "Changed my mind")

	reviews, err := env.store.ReviewsForBook(context.Background(), hobbit)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "alice", reviews[0].Username)

	// Another user can still review the same book
	other := loggedIn(t, env, "bob")
	w = other.post("/review", url.Values{"book_id": {hobbit}, "rating": {"2"}, "review": {"Meh"}})
	require.Equal(t, http.StatusFound, w.Code)
	reviews, err = env.store.ReviewsForBook(context.Background(), hobbit)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestReview_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	c := loggedIn(t, env, "alice")

	w := c.post("/review", url.Values{"rating": {"3"}, "review": {"x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.post("/review", url.Values{"book_id": {"9999999999"}, "rating": {"3"}, "review": {"x"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, form := range []url.Values{
		{"book_id": {hobbit}, "rating": {"6"}, "review": {"x"}},
		{"book_id": {hobbit}, "rating": {"0"}, "review": {"x"}},
		{"book_id": {hobbit}, "rating": {"5"}, "review": {strings.Repeat("x", 2001)}},
		{"book_id": {hobbit}, "rating": {"5"}, "review": {""}},
	} {
		w = c.post("/review", form)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/books/"+hobbit, w.Header().Get("Location"))
	}
	w = c.get("/books/" + hobbit)
	assert.Contains(t, w.Body.String(), "rating must be at most 5")

	reviews, err := env.store.ReviewsForBook(context.Background(), hobbit)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestBookAPI(t *testing.T) {
	env := newTestEnv(t)
	c := env.client() // no session needed

	w := c.get("/api/9999999999")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Page not found", w.Body.String())

	w = c.get("/api/" + fellowship)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 6)
	assert.Equal(t, "The Fellowship of the Ring", got["title"])
	assert.Equal(t, "J.R.R. Tolkien", got["author"])
	assert.EqualValues(t, 1954, got["year"])
	assert.Equal(t, fellowship, got["isbn"])
	assert.EqualValues(t, 1200, got["ratings_count"])
	assert.EqualValues(t, 4.25, got["average_rating"])
}

func TestBookAPI_UnratedBookHasNulls(t *testing.T) {
	env := newTestEnv(t)
	env.ratings.summary = &ratings.Summary{}

	w := env.client().get("/api/" + purity)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ratings_count":null`)
	assert.Contains(t, w.Body.String(), `"average_rating":null`)
}

func TestBookAPI_RatingFailure(t *testing.T) {
	env := newTestEnv(t)
	env.ratings.err = errors.New("boom")

	w := env.client().get("/api/" + purity)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBookAPI_StoreFailureIsLogged(t *testing.T) {
	env := newTestEnv(t)
	hook := logtest.NewGlobal()
	t.Cleanup(func() { logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks)) })

	sqlDB, err := env.store.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := env.client().get("/api/" + fellowship)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch book"}`, w.Body.String())

	var logged *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "Failed to fetch book" {
			logged = e
		}
	}
	require.NotNil(t, logged)
	assert.Equal(t, logrus.ErrorLevel, logged.Level)
	assert.Equal(t, fellowship, logged.Data["isbn"])
	assert.NotEmpty(t, logged.Data["error"])
	assert.Zero(t, env.ratings.calls)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.client().get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthz_RedisDown(t *testing.T) {
	env := newTestEnv(t)
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	r, err := NewRouter(Dependencies{
		Store:    env.store,
		Sessions: session.NewManager(rdb, []byte("test-secret"), time.Hour, false),
		Ratings:  env.ratings,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"failed":"redis"`)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.client().get("/api/" + fellowship)

	w := env.client().get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "book_catalog_http_requests_total")
}
