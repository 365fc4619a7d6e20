package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/meletis/propflow/internal/models"
	"github.com/meletis/propflow/internal/scheduling"
	"github.com/meletis/propflow/internal/store"
	"github.com/meletis/propflow/internal/testutil"
)

// testEnv sets up a temp database, uploads directory, service, and
// router. Identity is disabled and the login limiter is effectively
// off unless a test builds its own router.
func testEnv(t *testing.T) (*store.DB, http.Handler) {
	t.Helper()
	return testEnvAuth(t, false)
}

func testEnvAuth(t *testing.T, authEnabled bool) (*store.DB, http.Handler) {
	t.Helper()
	db := testutil.TestDB(t)
	_, files := testutil.TestUploads(t)
	svc := scheduling.NewService(db, files, nil)
	router := NewRouter(svc, db, files, authEnabled, 1000, 1000)
	return db, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func apptBody(title, start, end string) map[string]any {
	return map[string]any{
		"title":     title,
		"startDate": start,
		"endDate":   end,
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	_, router := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/appointments",
		apptBody("Viewing at Elm Street", "2026-03-10T09:00", "2026-03-10T10:00"), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created models.Appointment
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.Status != models.StatusScheduled || created.Revision != 1 {
		t.Fatalf("created = %+v", created)
	}

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/appointments/%d", created.ID), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/appointments/%d", created.ID),
		apptBody("Rescheduled viewing", "2026-03-11T09:00", "2026-03-11T10:00"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/appointments/%d", created.ID), nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/appointments/%d", created.ID), nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", w.Code)
	}
}

func TestAppointmentValidation(t *testing.T) {
	_, router := testEnv(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"title too short", apptBody("ab", "2026-03-10T09:00", "2026-03-10T10:00")},
		{"end before start", apptBody("Backwards", "2026-03-10T10:00", "2026-03-10T09:00")},
		{"end equals start", apptBody("Zero length", "2026-03-10T09:00", "2026-03-10T09:00")},
		{"bad date text", apptBody("Bad date", "tomorrow", "2026-03-10T10:00")},
		{"missing dates", map[string]any{"title": "No dates"}},
		{"unknown status", func() map[string]any {
			m := apptBody("Bad status", "2026-03-10T09:00", "2026-03-10T10:00")
			m["status"] = "tentative"
			return m
		}()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/appointments", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestAppointmentIfMatchConflict(t *testing.T) {
	_, router := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/appointments",
		apptBody("Contended", "2026-03-10T09:00", "2026-03-10T10:00"), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var created models.Appointment
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	path := fmt.Sprintf("/appointments/%d", created.ID)

	// First conditional writer succeeds and bumps the revision.
	w = doJSON(t, router, http.MethodPut, path,
		apptBody("Writer one", "2026-03-10T09:00", "2026-03-10T10:00"),
		map[string]string{"If-Match": `"1"`})
	if w.Code != http.StatusOK {
		t.Fatalf("first update = %d, body = %s", w.Code, w.Body.String())
	}

	// Second writer still holding revision 1 must get a conflict.
	w = doJSON(t, router, http.MethodPut, path,
		apptBody("Writer two", "2026-03-10T09:00", "2026-03-10T10:00"),
		map[string]string{"If-Match": `"1"`})
	if w.Code != http.StatusConflict {
		t.Fatalf("stale update = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "revision") {
		t.Errorf("conflict body = %s, want an explanation", w.Body.String())
	}

	// Garbage If-Match is a client error, not a conflict.
	w = doJSON(t, router, http.MethodPut, path,
		apptBody("Writer three", "2026-03-10T09:00", "2026-03-10T10:00"),
		map[string]string{"If-Match": "latest"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad If-Match = %d", w.Code)
	}
}

func TestCalendarAndDayEndpoints(t *testing.T) {
	_, router := testEnv(t)

	for _, b := range []map[string]any{
		apptBody("On the 10th", "2026-03-10T09:00", "2026-03-10T10:00"),
		apptBody("Late on the 10th", "2026-03-10T23:59", "2026-03-11T01:00"),
		apptBody("On the 11th", "2026-03-11T09:00", "2026-03-11T10:00"),
	} {
		if w := doJSON(t, router, http.MethodPost, "/appointments", b, nil); w.Code != http.StatusCreated {
			t.Fatalf("seed status = %d", w.Code)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/appointments/calendar?view=week", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("calendar status = %d", w.Code)
	}
	var events []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if _, ok := events[0]["resource"]; !ok {
		t.Error("event missing resource payload")
	}

	w = doJSON(t, router, http.MethodGet, "/appointments/calendar?view=fortnight", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad view status = %d", w.Code)
	}

	// Day view narrows to the selected day, late start included.
	w = doJSON(t, router, http.MethodGet, "/appointments/calendar?view=day&date=2026-03-10", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("day view status = %d", w.Code)
	}
	events = nil
	if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("day view: got %d events, want 2", len(events))
	}

	w = doJSON(t, router, http.MethodGet, "/appointments/day?date=2026-03-10", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("day status = %d", w.Code)
	}
	var appts []models.Appointment
	if err := json.Unmarshal(w.Body.Bytes(), &appts); err != nil {
		t.Fatal(err)
	}
	if len(appts) != 2 {
		t.Fatalf("got %d on the 10th, want 2", len(appts))
	}

	w = doJSON(t, router, http.MethodGet, "/appointments/day", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing date status = %d", w.Code)
	}
}

func TestAppointmentListFilters(t *testing.T) {
	_, router := testEnv(t)

	b := apptBody("Confirmed one", "2026-03-10T09:00", "2026-03-10T10:00")
	b["status"] = "confirmed"
	if w := doJSON(t, router, http.MethodPost, "/appointments", b, nil); w.Code != http.StatusCreated {
		t.Fatalf("seed status = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodPost, "/appointments",
		apptBody("Scheduled one", "2026-03-10T11:00", "2026-03-10T12:00"), nil); w.Code != http.StatusCreated {
		t.Fatalf("seed status = %d", w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/appointments?status=confirmed", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var appts []models.Appointment
	_ = json.Unmarshal(w.Body.Bytes(), &appts)
	if len(appts) != 1 || appts[0].Status != models.StatusConfirmed {
		t.Fatalf("got %+v", appts)
	}

	if w := doJSON(t, router, http.MethodGet, "/appointments?status=tentative", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status filter = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/appointments?clientId=xyz", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad clientId filter = %d", w.Code)
	}
}

func TestClientConflict(t *testing.T) {
	_, router := testEnv(t)

	body := map[string]any{"first_name": "Maria", "last_name": "Papas", "email": "maria@example.com"}
	if w := doJSON(t, router, http.MethodPost, "/clients", body, nil); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	w := doJSON(t, router, http.MethodPost, "/clients", body, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", w.Code)
	}
	// The response should say what clashed, not just "conflict".
	if !strings.Contains(w.Body.String(), "email") {
		t.Errorf("conflict body = %s, want the clashing field named", w.Body.String())
	}
	bad := map[string]any{"first_name": "Xena", "last_name": "Yiannis", "email": "not-an-email"}
	if w := doJSON(t, router, http.MethodPost, "/clients", bad, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad email status = %d", w.Code)
	}
}

func TestRequestFieldBounds(t *testing.T) {
	_, router := testEnv(t)

	cases := []struct {
		name string
		path string
		body map[string]any
	}{
		{"one-char first name", "/clients",
			map[string]any{"first_name": "M", "last_name": "Papas", "email": "m@example.com"}},
		{"one-char last name", "/clients",
			map[string]any{"first_name": "Maria", "last_name": "P", "email": "m@example.com"}},
		{"two-char passport", "/clients",
			map[string]any{"first_name": "Maria", "last_name": "Papas", "email": "m@example.com", "passport_number": "AB"}},
		{"one-char full name", "/users",
			map[string]any{"full_name": "A", "email": "a@example.com", "password": "s3cret-pass", "role": "agent"}},
		{"oversized address", "/properties",
			map[string]any{"title": "Flat", "address": strings.Repeat("a", 501), "city": "Athens", "price": 100.0}},
		{"two-char title", "/properties",
			map[string]any{"title": "ab", "address": "1 Rd", "city": "Athens", "price": 100.0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, tc.path, tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
		})
	}

	// The same values one step inside the bounds are accepted.
	ok := map[string]any{"first_name": "Ma", "last_name": "Pa", "email": "ok@example.com", "passport_number": "AB1"}
	if w := doJSON(t, router, http.MethodPost, "/clients", ok, nil); w.Code != http.StatusCreated {
		t.Fatalf("minimal client status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestPropertyEndpoints(t *testing.T) {
	_, router := testEnv(t)

	for _, p := range []map[string]any{
		{"title": "Flat", "address": "1 Rd", "city": "Athens", "price": 250000.0},
		{"title": "Loft", "address": "2 St", "city": "Athens", "price": 410000.0, "status": "reserved"},
		{"title": "House", "address": "3 Ln", "city": "Patras", "price": 180000.0},
	} {
		if w := doJSON(t, router, http.MethodPost, "/properties", p, nil); w.Code != http.StatusCreated {
			t.Fatalf("seed status = %d, body = %s", w.Code, w.Body.String())
		}
	}

	w := doJSON(t, router, http.MethodGet, "/properties?city=Athens&minPrice=300000", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var props []models.Property
	_ = json.Unmarshal(w.Body.Bytes(), &props)
	if len(props) != 1 || props[0].Title != "Loft" {
		t.Fatalf("got %+v", props)
	}

	w = doJSON(t, router, http.MethodGet, "/properties/stats", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var stats store.PropertyStats
	_ = json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.Total != 3 || stats.ByCity["Athens"] != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestLogin(t *testing.T) {
	db, router := testEnv(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	u := &models.User{FullName: "Agent", Email: "agent@example.com", PasswordHash: string(hash), Role: models.RoleAgent, IsActive: true}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	w := doJSON(t, router, http.MethodPost, "/users/login",
		map[string]string{"email": "agent@example.com", "password": "s3cret-pass"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password_hash") || strings.Contains(w.Body.String(), string(hash)) {
		t.Error("password hash leaked in response")
	}

	w = doJSON(t, router, http.MethodPost, "/users/login",
		map[string]string{"email": "agent@example.com", "password": "wrong"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", w.Code)
	}

	u.IsActive = false
	if err := db.UpdateUser(context.Background(), u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	w = doJSON(t, router, http.MethodPost, "/users/login",
		map[string]string{"email": "agent@example.com", "password": "s3cret-pass"}, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("inactive login status = %d", w.Code)
	}
}

func TestLoginRateLimit(t *testing.T) {
	db := testutil.TestDB(t)
	_, files := testutil.TestUploads(t)
	svc := scheduling.NewService(db, files, nil)
	router := NewRouter(svc, db, files, false, 0.1, 2)

	body := map[string]string{"email": "nobody@example.com", "password": "whatever"}
	for i := 0; i < 2; i++ {
		if w := doJSON(t, router, http.MethodPost, "/users/login", body, nil); w.Code == http.StatusTooManyRequests {
			t.Fatalf("throttled too early on attempt %d", i+1)
		}
	}
	if w := doJSON(t, router, http.MethodPost, "/users/login", body, nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
}

func TestHeaderIdentity(t *testing.T) {
	db, router := testEnvAuth(t, true)

	hash, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	admin := &models.User{FullName: "Admin", Email: "admin@example.com", PasswordHash: string(hash), Role: models.RoleAdmin, IsActive: true}
	agent := &models.User{FullName: "Agent", Email: "agent@example.com", PasswordHash: string(hash), Role: models.RoleAgent, IsActive: true}
	inactive := &models.User{FullName: "Gone", Email: "gone@example.com", PasswordHash: string(hash), Role: models.RoleAgent, IsActive: false}
	for _, u := range []*models.User{admin, agent, inactive} {
		if err := db.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	header := func(id int64) map[string]string {
		return map[string]string{"X-User-ID": fmt.Sprint(id)}
	}

	if w := doJSON(t, router, http.MethodGet, "/appointments", nil, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no header = %d, want 401", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/appointments", nil, map[string]string{"X-User-ID": "999"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user = %d, want 401", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/appointments", nil, header(inactive.ID)); w.Code != http.StatusForbidden {
		t.Fatalf("inactive user = %d, want 403", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/appointments", nil, header(agent.ID)); w.Code != http.StatusOK {
		t.Fatalf("agent list = %d, want 200", w.Code)
	}

	// Any authenticated user may read staff accounts; writes are
	// admin-only.
	if w := doJSON(t, router, http.MethodGet, "/users", nil, header(agent.ID)); w.Code != http.StatusOK {
		t.Fatalf("agent list users = %d, want 200", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/users/%d", admin.ID), nil, header(agent.ID)); w.Code != http.StatusOK {
		t.Fatalf("agent get user = %d, want 200", w.Code)
	}
	newUser := map[string]any{"full_name": "Newbie", "email": "new@example.com", "password": "s3cret-pass", "role": "agent"}
	if w := doJSON(t, router, http.MethodPost, "/users", newUser, header(agent.ID)); w.Code != http.StatusForbidden {
		t.Fatalf("agent create user = %d, want 403", w.Code)
	}
	if w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/users/%d", inactive.ID), nil, header(agent.ID)); w.Code != http.StatusForbidden {
		t.Fatalf("agent delete user = %d, want 403", w.Code)
	}
	if w := doJSON(t, router, http.MethodPost, "/users", newUser, header(admin.ID)); w.Code != http.StatusCreated {
		t.Fatalf("admin create user = %d, body = %s", w.Code, w.Body.String())
	}

	// Login works without a header even when identity is enforced.
	w := doJSON(t, router, http.MethodPost, "/users/login",
		map[string]string{"email": "agent@example.com", "password": "pw"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d, want 200", w.Code)
	}
}

func uploadRequest(t *testing.T, path, field, filename, content string, extra map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatal(err)
	}
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDocumentEndpoints(t *testing.T) {
	_, router := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/appointments",
		apptBody("Documented", "2026-03-10T09:00", "2026-03-10T10:00"), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var created models.Appointment
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	base := fmt.Sprintf("/appointments/%d/documents", created.ID)

	// Upload.
	req := uploadRequest(t, base, "file", "contract.pdf", "pdf bytes", map[string]string{"type": "contract"})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc models.Document
	_ = json.Unmarshal(w.Body.Bytes(), &doc)
	if doc.OriginalName != "contract.pdf" || doc.Type != models.DocContract {
		t.Fatalf("doc = %+v", doc)
	}

	// Disallowed extension.
	req = uploadRequest(t, base, "file", "payload.exe", "mz", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("exe upload status = %d", w.Code)
	}

	// Wrong field name.
	req = uploadRequest(t, base, "attachment", "a.pdf", "x", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong field status = %d", w.Code)
	}

	// List.
	w2 := doJSON(t, router, http.MethodGet, base, nil, nil)
	if w2.Code != http.StatusOK {
		t.Fatalf("list status = %d", w2.Code)
	}
	var docs []models.Document
	_ = json.Unmarshal(w2.Body.Bytes(), &docs)
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}

	// Delete by original name.
	w2 = doJSON(t, router, http.MethodDelete, base+"/contract.pdf", nil, nil)
	if w2.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w2.Code)
	}
	w2 = doJSON(t, router, http.MethodDelete, base+"/contract.pdf", nil, nil)
	if w2.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", w2.Code)
	}

	// Unknown appointment.
	w2 = doJSON(t, router, http.MethodGet, "/appointments/999/documents", nil, nil)
	if w2.Code != http.StatusNotFound {
		t.Fatalf("missing appointment status = %d", w2.Code)
	}
}
