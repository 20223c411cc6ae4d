package handlers

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/alextreichler/orderdesk/internal/auth"
	"github.com/alextreichler/orderdesk/internal/models"
	"github.com/alextreichler/orderdesk/internal/orders"
	"github.com/alextreichler/orderdesk/web"
)

type memOrders struct {
	mu     sync.Mutex
	orders []models.Order
	err    error
}

func (m *memOrders) CreateOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.orders = append(m.orders, *o)
	return nil
}

func (m *memOrders) ListOrders(context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.Order(nil), m.orders...), nil
}

func (m *memOrders) GetOrder(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			o := m.orders[i]
			return &o, nil
		}
	}
	return nil, orders.ErrNotFound
}

func (m *memOrders) DeleteOrder(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders = append(m.orders[:i], m.orders[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memOrders) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *memOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type memAdmins struct {
	mu     sync.Mutex
	admins map[string]models.Admin
}

func (m *memAdmins) GetAdminByUsername(_ context.Context, username string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[username]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memAdmins) CreateAdmin(_ context.Context, a *models.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[a.Username]; ok {
		return auth.ErrAdminExists
	}
	m.admins[a.Username] = *a
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type deadlinePinger struct{ left time.Duration }

func (p *deadlinePinger) Ping(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		return errors.New("no deadline")
	}
	p.left = time.Until(deadline)
	return nil
}

type testEnv struct {
	server *httptest.Server
	client *http.Client
	orders *memOrders
}

func loadTemplates(t *testing.T) *TemplateCache {
	t.Helper()
	tc := NewTemplateCache()
	require.NoError(t, tc.Load(web.FS, "templates"))
	return tc
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := &memOrders{}
	authn := auth.New(&memAdmins{admins: map[string]models.Admin{}}, auth.WithCost(bcrypt.MinCost))
	_, err := authn.Provision(context.Background(), "admin", "s3cret")
	require.NoError(t, err)

	static, err := fs.Sub(web.FS, "static")
	require.NoError(t, err)

	router := NewRouter(Deps{
		Logger:      zap.NewNop(),
		Orders:      orders.NewService(repo),
		Auth:        authn,
		Health:      stubPinger{},
		Sessions:    &SessionGate{Store: sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))},
		Templates:   loadTemplates(t),
		Static:      static,
		RateLimiter: NewRateLimiter(100, time.Minute),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{server: srv, client: client, orders: repo}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	resp, body := e.post(t, "/loginForm", url.Values{"username": {"admin"}, "password": {"s3cret"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func orderForm() url.Values {
	return url.Values{
		"name":       {"Alice"},
		"email":      {"a@b.com"},
		"customerId": {"A1B-234"},
		"product1":   {"2"},
	}
}

func TestOrderForm(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/contact-form"`)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, _ = env.get(t, "/no-such-page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitOrder(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.post(t, "/contact-form", orderForm())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Thank you, Alice")
	assert.Contains(t, body, "$13.00")
	assert.Contains(t, body, "$14.69")
	assert.Equal(t, 1, env.orders.count())
}

func TestSubmitOrder_NoProducts(t *testing.T) {
	env := newTestEnv(t)
	form := orderForm()
	form.Del("product1")

	resp, body := env.post(t, "/contact-form", form)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No product was selected")
	assert.Zero(t, env.orders.count())
}

func TestSubmitOrder_BlankProducts(t *testing.T) {
	env := newTestEnv(t)
	form := orderForm()
	form.Set("product1", "")
	form.Set("product2", "")
	form.Set("product3", "")

	resp, body := env.post(t, "/contact-form", form)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No product was selected")
	assert.Zero(t, env.orders.count())
}

func TestSubmitOrder_QuantityTooLarge(t *testing.T) {
	env := newTestEnv(t)
	form := orderForm()
	form.Set("product1", "3000000000")

	resp, body := env.post(t, "/contact-form", form)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Quantity for product1 must be a whole number of 0 or more")
	assert.Zero(t, env.orders.count())
}

func TestSubmitOrder_Invalid(t *testing.T) {
	env := newTestEnv(t)
	form := orderForm()
	form.Set("customerId", "a1b234")
	form.Set("product2", "lots")

	resp, body := env.post(t, "/contact-form", form)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Please enter the Customer Id in format")
	assert.Contains(t, body, "Quantity for product2 must be a whole number of 0 or more")
	assert.Contains(t, body, `value="Alice"`)
	assert.Zero(t, env.orders.count())
}

func TestSubmitOrder_StoreError(t *testing.T) {
	env := newTestEnv(t)
	env.orders.fail(errors.New("database is locked"))

	resp, body := env.post(t, "/contact-form", orderForm())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Something went wrong")
}

func TestAdminHome_RequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.post(t, "/contact-form", orderForm())

	for _, path := range []string{"/admin-home", "/details/x", "/delete/x"} {
		resp, body := env.get(t, path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/admin-login", resp.Header.Get("Location"), path)
		assert.NotContains(t, body, "Alice", path)
	}
	assert.Equal(t, 1, env.orders.count())
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.post(t, "/contact-form", orderForm())

	resp, body := env.post(t, "/loginForm", url.Values{"username": {"admin"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Login details not correct")
	assert.Contains(t, body, `value="admin"`)
	assert.NotContains(t, body, "wrong")

	resp, _ = env.get(t, "/admin-home")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	body = env.login(t)
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "Signed in as admin")

	resp, body = env.get(t, "/admin-home")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "A1B-234")
	assert.Contains(t, body, "$14.69")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	resp, _ := env.get(t, "/logout")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin-login", resp.Header.Get("Location"))

	resp, _ = env.get(t, "/admin-home")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestDetailsAndDelete(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.post(t, "/contact-form", orderForm())
	env.login(t)

	list, err := env.orders.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	resp, body := env.get(t, "/details/"+id)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Order for Alice")

	resp, body = env.get(t, "/details/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Order not found")

	resp, existing := env.get(t, "/delete/"+id)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, env.orders.count())

	resp, missing := env.get(t, "/delete/"+id)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, existing, missing)
}

func TestEditThanks(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/edit-thanks")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Thank you")
}

func TestStatic(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/static/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(body, "font-family"))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	rec := httptest.NewRecorder()
	h := &HealthHandler{Store: stubPinger{err: errors.New("down")}}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())

	p := &deadlinePinger{}
	rec = httptest.NewRecorder()
	(&HealthHandler{Store: p}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Positive(t, p.left)
	assert.LessOrEqual(t, p.left, healthTimeout)
}
