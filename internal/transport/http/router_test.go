package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"onsalenow.io/analytics/internal/application"
	"onsalenow.io/analytics/internal/domain"
	"onsalenow.io/analytics/internal/infrastructure/memstore"
	transporthttp "onsalenow.io/analytics/internal/transport/http"
)

const secret = "router-secret"

type okNotifier struct{ sent int }

func (n *okNotifier) Send(context.Context, string, string, string) bool {
	n.sent++
	return true
}

type busyLocker struct{}

func (busyLocker) TryAcquire(context.Context, string) (func(), bool, error) {
	return nil, false, nil
}

func token(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newRouter(store domain.Store, locker application.PassLocker) (*echo.Echo, *okNotifier) {
	notifier := &okNotifier{}
	hub := transporthttp.NewHub()
	svc := application.NewService(store, nil, notifier, nil, locker, hub, application.Options{})
	return transporthttp.NewRouter(transporthttp.NewHandler(svc, hub), secret, "admin"), notifier
}

func do(e *echo.Echo, method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func seed(store domain.Store) {
	ctx := context.Background()
	_ = store.Write(ctx, domain.CollectionSellers, "s1", domain.Record{"email": "s1@example.com", "brandName": "Acme"})
	_ = store.Write(ctx, domain.CollectionProducts, "p1", domain.Record{"sellerId": "s1", "stock": 100, "sold": 70, "brand": "Acme"})
	_ = store.Write(ctx, domain.CollectionProducts, "p2", domain.Record{"sellerId": "s1", "stock": 50, "sold": 35, "brand": "Acme"})
}

func TestPublicEndpoints(t *testing.T) {
	e, _ := newRouter(memstore.New(), nil)

	if rec := do(e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("/health = %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Errorf("/metrics = %d", rec.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	e, _ := newRouter(memstore.New(), nil)

	if rec := do(e, http.MethodGet, "/admin/analytics", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/admin/analytics", token(t, "buyer"), ""); rec.Code != http.StatusForbidden {
		t.Errorf("buyer = %d, want 403", rec.Code)
	}
}

func TestGetAnalytics_RunsPass(t *testing.T) {
	store := memstore.New()
	seed(store)
	e, notifier := newRouter(store, nil)

	rec := do(e, http.MethodGet, "/admin/analytics", token(t, "admin"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var d application.Dashboard
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.Pass == nil || d.Pass.Sent != 1 || d.Pass.Notices[0].Tier != domain.TierSeventy {
		t.Fatalf("pass = %+v", d.Pass)
	}
	if notifier.sent != 1 {
		t.Errorf("sent = %d", notifier.sent)
	}

	// Refresh is a second trigger over unchanged data.
	rec = do(e, http.MethodPost, "/admin/analytics/refresh", token(t, "admin"), "")
	if rec.Code != http.StatusOK || notifier.sent != 1 {
		t.Errorf("refresh status = %d, sent = %d", rec.Code, notifier.sent)
	}
}

func TestEvaluate(t *testing.T) {
	store := memstore.New()
	seed(store)

	e, _ := newRouter(store, nil)
	rec := do(e, http.MethodPost, "/admin/notifications/evaluate", token(t, "admin"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res application.PassResult
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Sent != 1 || res.Trigger != application.TriggerManual {
		t.Errorf("result = %+v", res)
	}

	busy, _ := newRouter(store, busyLocker{})
	if rec := do(busy, http.MethodPost, "/admin/notifications/evaluate", token(t, "admin"), ""); rec.Code != http.StatusConflict {
		t.Errorf("lease held = %d, want 409", rec.Code)
	}
}

func TestTestDataEndpoints(t *testing.T) {
	e, _ := newRouter(memstore.New(), nil)
	admin := token(t, "admin")

	rec := do(e, http.MethodPost, "/admin/test-data/sellers", admin, `{"email":"t@example.com","brandName":"T","percentage":60,"stockPerProduct":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/admin/test-data/sellers", admin, `{"email":"t@example.com","percentage":120,"stockPerProduct":10}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid = %d, want 400", rec.Code)
	}

	rec = do(e, http.MethodGet, "/admin/analytics/sellers", admin, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"percentLabel":"60"`) {
		t.Errorf("sellers = %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(e, http.MethodDelete, "/admin/test-data/sellers/t@example.com", admin, ""); rec.Code != http.StatusOK {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/admin/test-data/sellers/t@example.com", admin, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

func TestStorefront_RecommenderDisabled(t *testing.T) {
	e, _ := newRouter(memstore.New(), nil)

	if rec := do(e, http.MethodGet, "/storefront/recommendations/home", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d", rec.Code)
	}
	rec := do(e, http.MethodGet, "/storefront/recommendations/home", token(t, "buyer"), "")
	if rec.Code != http.StatusBadGateway || !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("home = %d %s", rec.Code, rec.Body.String())
	}
}

func TestHubPublish(t *testing.T) {
	hub := transporthttp.NewHub()
	ch := make(chan []byte, 1)
	client := hub.Register("admin-1", ch)

	hub.Publish(&application.PassResult{Sent: 2, Status: "done"})
	select {
	case msg := <-ch:
		if !strings.HasPrefix(string(msg), "event: pass\ndata: ") || !strings.Contains(string(msg), `"sent":2`) {
			t.Errorf("frame = %q", msg)
		}
	default:
		t.Fatal("no frame delivered")
	}

	hub.Unregister(client)
	if hub.ConnectedCount() != 0 {
		t.Errorf("connected = %d", hub.ConnectedCount())
	}
}
