package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gorillasessions "github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
	"github.com/averybrooks/fonezone/internal/remote"
	"github.com/averybrooks/fonezone/internal/session"
	"github.com/averybrooks/fonezone/internal/store"
)

// testApp is a fully wired API surface over an in-memory kv store, without
// the csrf and logging layers that main adds on top.
type testApp struct {
	mux      *http.ServeMux
	sessions *session.Store
	store    *store.Store
	db       *kv.Memory

	// addrSeq gives every request its own remote address, so the
	// per-address rate limiter on credential endpoints stays out of the
	// way unless a test opts in to sharing one.
	addrSeq atomic.Int64
}

func newTestApp(t *testing.T, remoteURL string) *testApp {
	t.Helper()

	db := kv.NewMemory()
	sessStore := session.NewStore(db)
	dataStore := store.NewStore(db)

	cookies := gorillasessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	cookies.Options.HttpOnly = true

	client := remote.NewClient(remoteURL)
	app := &testApp{
		mux: NewMux(
			&AuthHandler{Sessions: sessStore, Cookies: cookies},
			&ShopHandler{Store: dataStore, Remote: client, Searcher: remote.NewSearcher(client)},
			&CustomerHandler{Store: dataStore},
			&EmployeeHandler{Store: dataStore, SupportPollInterval: 5 * time.Second},
			&AdminHandler{Store: dataStore, Sessions: sessStore},
			&Guard{Sessions: sessStore, Cookies: cookies},
		),
		sessions: sessStore,
		store:    dataStore,
		db:       db,
	}
	return app
}

// do sends one request through the mux. Body is marshalled to JSON when
// non-nil; cookies from a previous response carry the session.
func (a *testApp) do(t *testing.T, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = fmt.Sprintf("10.0.0.%d:4000", a.addrSeq.Add(1))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

// registerCustomer signs up a customer through the API and returns the
// session cookies the response set.
func (a *testApp) registerCustomer(t *testing.T, email string) []*http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "secret-pass",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

// registerEmployee registers an actor, promotes them directly through the
// directory, then logs in so the cookie maps to the promoted actor.
func (a *testApp) registerEmployee(t *testing.T, email string, cat models.Category) []*http.Cookie {
	t.Helper()
	a.registerCustomer(t, email)
	_, err := a.sessions.Promote(context.Background(), email, cat)
	require.NoError(t, err)
	return a.login(t, email, "secret-pass")
}

func (a *testApp) loginAdmin(t *testing.T) []*http.Cookie {
	t.Helper()
	require.NoError(t, a.sessions.BootstrapAdmin(context.Background(), "admin@fonezone.lk", "admin123"))
	return a.login(t, "admin@fonezone.lk", "admin123")
}

func (a *testApp) login(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}
