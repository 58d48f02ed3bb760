package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayush/nebula-feed/internal/audit"
	"github.com/ayush/nebula-feed/internal/models"
)

func newTestHandler(t *testing.T) (*Handler, *SessionStore) {
	t.Helper()
	svc, _, _ := newTestService(t)
	sessions, _ := newTestSessions(t, time.Hour)
	return NewHandler(svc, sessions, audit.NewTrail(discardLogger()), discardLogger(), true), sessions
}

func do(h http.HandlerFunc, method, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(r)
	}
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func TestHandler_RegisterLoginMeLogout(t *testing.T) {
	h, sessions := newTestHandler(t)

	w := do(h.Register, "POST", `{"username":"alice","password":"pw1","email":"A@x.io","bio":"hi"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d body=%s", w.Code, w.Body)
	}
	if strings.Contains(w.Body.String(), "pw1") || strings.Contains(w.Body.String(), "$2a$") {
		t.Fatalf("register leaks credential: %s", w.Body)
	}
	var reg models.PublicAccountView
	if err := json.NewDecoder(w.Body).Decode(&reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reg.Email != "a@x.io" {
		t.Fatalf("email = %q", reg.Email)
	}

	w = do(h.Login, "POST", `{"username":"alice","password":"pw1"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body)
	}
	token := w.Header().Get(SessionHeader)
	if token == "" {
		t.Fatalf("missing %s header", SessionHeader)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie || cookies[0].Value != token {
		t.Fatalf("cookies = %+v", cookies)
	}
	if !cookies[0].HttpOnly || !cookies[0].Secure {
		t.Fatalf("cookie flags: %+v", cookies[0])
	}

	id, ok, err := sessions.Resolve(context.Background(), token)
	if err != nil || !ok || id != reg.ID {
		t.Fatalf("Resolve = (%d, %v, %v)", id, ok, err)
	}

	w = do(h.Me, "GET", "", func(r *http.Request) {
		*r = *r.WithContext(WithClaim(r.Context(), Claim{AccountID: id}))
	})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"username":"alice"`) {
		t.Fatalf("me status = %d body=%s", w.Code, w.Body)
	}

	w = do(h.Logout, "POST", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"message"`) {
		t.Fatalf("logout status = %d body=%s", w.Code, w.Body)
	}
	if _, ok, _ := sessions.Resolve(context.Background(), token); ok {
		t.Fatalf("session survived logout")
	}
}

func TestHandler_LoginFailuresAreIndistinguishable(t *testing.T) {
	h, _ := newTestHandler(t)
	do(h.Register, "POST", `{"username":"alice","password":"pw1","email":"a@x.io"}`, nil)

	wrong := do(h.Login, "POST", `{"username":"alice","password":"nope"}`, nil)
	unknown := do(h.Login, "POST", `{"username":"nobody","password":"pw1"}`, nil)

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("status wrong=%d unknown=%d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("bodies differ: %s vs %s", wrong.Body, unknown.Body)
	}
	if wrong.Header().Get(SessionHeader) != "" || len(wrong.Result().Cookies()) != 0 {
		t.Fatalf("failed login issued a session")
	}
}

func TestHandler_RegisterConflictAndBadBody(t *testing.T) {
	h, _ := newTestHandler(t)
	do(h.Register, "POST", `{"username":"alice","password":"pw1","email":"a@x.io"}`, nil)

	w := do(h.Register, "POST", `{"username":"alice","password":"pw2","email":"b@x.io"}`, nil)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"code":"conflict"`) {
		t.Fatalf("conflict status = %d body=%s", w.Code, w.Body)
	}

	w = do(h.Register, "POST", `{"username":`, nil)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"code":"validation_error"`) {
		t.Fatalf("bad body status = %d body=%s", w.Code, w.Body)
	}
}

func TestHandler_LogoutWithoutSession(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(h.Logout, "POST", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", cookies)
	}
}

func TestHandler_MeRequiresSession(t *testing.T) {
	h, _ := newTestHandler(t)
	if w := do(h.Me, "GET", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}
