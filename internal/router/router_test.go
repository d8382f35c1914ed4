package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/docstore"
	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/logging"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/notify"
	"github.com/iliyamo/table-reservation/internal/reservation"
)

const day = "2025-03-28"

type testApp struct {
	t *testing.T
	e *echo.Echo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Config{
		Env:           "test",
		StoreDriver:   config.StoreJSON,
		UploadDir:     t.TempDir(),
		JWTSecret:     "test-secret",
		AccessTTLMin:  60,
		BcryptCost:    4,
		AdminUsername: "admin",
	}
	st, err := docstore.Open("")
	if err != nil {
		t.Fatal(err)
	}
	log := logging.Nop()
	now := time.Date(2025, 3, 28, 12, 0, 0, 0, time.UTC)
	svc := reservation.New(st.Stores(), notify.Nop{}, log, reservation.Options{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
	if err := handler.NewAuthHandler(cfg, st.Stores().Users, nil, log).EnsureAdmin(context.Background(), "adminpass"); err != nil {
		t.Fatal(err)
	}
	e := New(Deps{Cfg: cfg, Stores: st.Stores(), Service: svc, Notifier: notify.Nop{}, Log: log})
	return &testApp{t: t, e: e}
}

func (a *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) expect(rec *httptest.ResponseRecorder, code int) map[string]any {
	a.t.Helper()
	if rec.Code != code {
		a.t.Fatalf("expected %d, got %d: %s", code, rec.Code, rec.Body)
	}
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return out
}

func (a *testApp) register(user, pass string) {
	a.t.Helper()
	a.expect(a.do(http.MethodPost, "/register", "", map[string]string{
		"username": user, "password": pass, "confirm_password": pass,
	}), http.StatusCreated)
}

func (a *testApp) login(user, pass string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/login", "", map[string]string{"username": user, "password": pass})
	body := a.expect(rec, http.StatusOK)
	if !strings.Contains(rec.Header().Get("Set-Cookie"), middleware.SessionCookie+"=") {
		a.t.Fatalf("session cookie not set: %v", rec.Header())
	}
	tok, _ := body["token"].(string)
	if tok == "" {
		a.t.Fatalf("no token in %v", body)
	}
	return tok
}

func (a *testApp) addRestaurant(token, name string, four, two int, photo string) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("name", name)
	_ = w.WriteField("four_table", itoa(four))
	_ = w.WriteField("two_table", itoa(two))
	if photo != "" {
		fw, _ := w.CreateFormFile("photo", photo)
		_, _ = fw.Write([]byte("fake image"))
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin_dashboard/add", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestRegisterValidation(t *testing.T) {
	a := newTestApp(t)

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"short username", map[string]string{"username": "al", "password": "secret", "confirm_password": "secret"}, http.StatusBadRequest},
		{"short password", map[string]string{"username": "alice", "password": "abc", "confirm_password": "abc"}, http.StatusBadRequest},
		{"mismatch", map[string]string{"username": "alice", "password": "secret", "confirm_password": "secreT"}, http.StatusBadRequest},
		{"bad email", map[string]string{"username": "alice", "password": "secret", "confirm_password": "secret", "email": "nope"}, http.StatusBadRequest},
		{"reserved admin", map[string]string{"username": "admin", "password": "secret", "confirm_password": "secret"}, http.StatusConflict},
		{"ok", map[string]string{"username": "alice", "password": "secret", "confirm_password": "secret", "email": "a@example.com"}, http.StatusCreated},
		{"taken", map[string]string{"username": "alice", "password": "secret", "confirm_password": "secret"}, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a.t = t
			a.expect(a.do(http.MethodPost, "/register", "", tc.body), tc.want)
		})
	}
}

func TestLoginAndProfile(t *testing.T) {
	a := newTestApp(t)
	a.register("alice", "secret")

	a.expect(a.do(http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "wrong"}), http.StatusUnauthorized)
	a.expect(a.do(http.MethodPost, "/login", "", map[string]string{"username": "nobody", "password": "secret"}), http.StatusUnauthorized)

	tok := a.login("alice", "secret")
	body := a.expect(a.do(http.MethodGet, "/profile", tok, nil), http.StatusOK)
	user := body["user"].(map[string]any)
	if user["username"] != "alice" || user["role"] != "CUSTOMER" {
		t.Fatalf("unexpected profile: %v", user)
	}
	a.expect(a.do(http.MethodGet, "/profile", "", nil), http.StatusUnauthorized)

	rec := a.do(http.MethodPost, "/logout", "", nil)
	a.expect(rec, http.StatusOK)
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Fatalf("logout must expire the cookie: %v", rec.Header())
	}
}

func TestAdminGuard(t *testing.T) {
	a := newTestApp(t)
	a.register("alice", "secret")
	customer := a.login("alice", "secret")

	if code, _ := a.addRestaurant("", "Luigi's", 2, 3, ""); code != http.StatusUnauthorized {
		t.Fatalf("anonymous add: %d", code)
	}
	if code, _ := a.addRestaurant(customer, "Luigi's", 2, 3, ""); code != http.StatusForbidden {
		t.Fatalf("customer add: %d", code)
	}
	a.expect(a.do(http.MethodGet, "/admin_dashboard", customer, nil), http.StatusForbidden)
	a.expect(a.do(http.MethodPost, "/update_slots", customer, nil), http.StatusForbidden)
	a.expect(a.do(http.MethodPost, "/delete_restaurant/1", customer, nil), http.StatusForbidden)
}

func TestBookingFlow(t *testing.T) {
	a := newTestApp(t)
	admin := a.login("admin", "adminpass")
	a.register("alice", "secret")
	a.register("bob01", "secret")
	alice := a.login("alice", "secret")
	bob := a.login("bob01", "secret")

	code, body := a.addRestaurant(admin, "Luigi's", 2, 3, "front.png")
	if code != http.StatusCreated {
		t.Fatalf("add restaurant: %d %v", code, body)
	}
	r := body["restaurant"].(map[string]any)
	id := int(r["id"].(float64))
	if !strings.HasPrefix(r["photo_url"].(string), handler.UploadsURL+"/restaurants/") {
		t.Fatalf("unexpected photo url: %v", r["photo_url"])
	}
	if code, _ := a.addRestaurant(admin, "Bad", 0, 0, ""); code != http.StatusBadRequest {
		t.Fatalf("zero capacity must be rejected, got %d", code)
	}
	if code, _ := a.addRestaurant(admin, "Bad", 1, 1, "virus.exe"); code != http.StatusBadRequest {
		t.Fatalf("bad photo type must be rejected, got %d", code)
	}

	list := a.expect(a.do(http.MethodGet, "/", "", nil), http.StatusOK)
	if items := list["items"].([]any); len(items) != 1 {
		t.Fatalf("expected 1 restaurant, got %v", items)
	}
	detail := a.expect(a.do(http.MethodGet, "/restaurant/"+itoa(id), "", nil), http.StatusOK)
	if days := detail["days"].([]any); len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	a.expect(a.do(http.MethodGet, "/restaurant/999", "", nil), http.StatusNotFound)
	a.expect(a.do(http.MethodGet, "/restaurant/abc", "", nil), http.StatusBadRequest)

	bookPath := "/restaurant/" + itoa(id) + "/book"
	a.expect(a.do(http.MethodGet, bookPath, "", nil), http.StatusUnauthorized)
	a.expect(a.do(http.MethodGet, bookPath, alice, nil), http.StatusOK)

	booked := a.expect(a.do(http.MethodPost, bookPath, alice, map[string]any{
		"date": day, "slot": "9am-11am", "four_table": 2, "two_table": 1,
	}), http.StatusCreated)
	bookingID := int(booked["booking"].(map[string]any)["id"].(float64))

	a.expect(a.do(http.MethodPost, bookPath, bob, map[string]any{"date": day, "slot": "9am-11am", "four_table": 1}), http.StatusConflict)
	a.expect(a.do(http.MethodPost, bookPath, bob, map[string]any{"date": "2099-01-01", "slot": "9am-11am", "four_table": 1}), http.StatusConflict)
	a.expect(a.do(http.MethodPost, bookPath, bob, map[string]any{"date": "28/03/2025", "slot": "9am-11am", "four_table": 1}), http.StatusBadRequest)
	a.expect(a.do(http.MethodPost, bookPath, bob, map[string]any{"date": day, "slot": "9am-11am"}), http.StatusBadRequest)

	mine := a.expect(a.do(http.MethodGet, "/profile/bookings", alice, nil), http.StatusOK)
	if items := mine["items"].([]any); len(items) != 1 {
		t.Fatalf("expected 1 booking, got %v", items)
	}

	cancelPath := "/cancel_booking/" + itoa(bookingID)
	a.expect(a.do(http.MethodPost, cancelPath, bob, nil), http.StatusForbidden)
	cancelled := a.expect(a.do(http.MethodPost, cancelPath, alice, nil), http.StatusOK)
	if cancelled["booking"].(map[string]any)["status"] != "cancelled" {
		t.Fatalf("unexpected cancel response: %v", cancelled)
	}
	a.expect(a.do(http.MethodPost, cancelPath, alice, nil), http.StatusConflict)

	second := a.expect(a.do(http.MethodPost, bookPath, bob, map[string]any{"date": day, "slot": "9am-11am", "four_table": 2}), http.StatusCreated)
	secondID := itoa(int(second["booking"].(map[string]any)["id"].(float64)))
	a.expect(a.do(http.MethodPost, "/admin_dashboard/bookings/"+secondID+"/complete", admin, nil), http.StatusOK)
	a.expect(a.do(http.MethodPost, "/admin_dashboard/bookings/"+secondID+"/complete", admin, nil), http.StatusConflict)

	dash := a.expect(a.do(http.MethodGet, "/admin_dashboard", admin, nil), http.StatusOK)
	if dash["total_bookings"].(float64) != 2 {
		t.Fatalf("unexpected dashboard: %v", dash)
	}

	rollover := a.expect(a.do(http.MethodPost, "/update_slots", admin, nil), http.StatusOK)
	if rep := rollover["report"].(map[string]any); rep["restaurants"].(float64) != 1 {
		t.Fatalf("unexpected rollover report: %v", rep)
	}

	a.expect(a.do(http.MethodPost, "/delete_restaurant/"+itoa(id), admin, nil), http.StatusNoContent)
	a.expect(a.do(http.MethodGet, "/restaurant/"+itoa(id), "", nil), http.StatusNotFound)
	a.expect(a.do(http.MethodPost, "/delete_restaurant/"+itoa(id), admin, nil), http.StatusNotFound)

	dash = a.expect(a.do(http.MethodGet, "/admin_dashboard", admin, nil), http.StatusOK)
	if orphaned := dash["orphaned_bookings"].([]any); len(orphaned) != 2 {
		t.Fatalf("bookings must outlive their restaurant: %v", dash)
	}
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	body := a.expect(a.do(http.MethodGet, "/healthz", "", nil), http.StatusOK)
	if body["status"] != "ok" || body["store"] != "json" {
		t.Fatalf("unexpected health body: %v", body)
	}
	a.expect(a.do(http.MethodGet, "/no-such-page", "", nil), http.StatusNotFound)
}
