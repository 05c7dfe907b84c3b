package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/autobuzz-backend/internal/controller"
	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/service"
)

// --- Mock use cases ---

type MockAuth struct {
	registered []string
}

func (m *MockAuth) Register(ctx context.Context, email, password string) (*model.User, error) {
	for _, e := range m.registered {
		if e == email {
			return nil, appErrors.ErrEmailTaken
		}
	}
	m.registered = append(m.registered, email)
	return &model.User{ID: "user-1", Email: email}, nil
}

func (m *MockAuth) Login(ctx context.Context, email, password string) (string, error) {
	if password != "password123" {
		return "", appErrors.ErrInvalidCredentials
	}
	return "token-for-" + email, nil
}

func (m *MockAuth) Authenticate(ctx context.Context, bearer string) (string, error) {
	if bearer == "valid" {
		return "user-1", nil
	}
	return "", appErrors.NewAuth("認証情報が無効です")
}

type MockAccounts struct {
	lastPlatform model.Platform
}

func (m *MockAccounts) Connect(ctx context.Context, userID string, platform model.Platform, in service.ConnectAccountInput) (*model.SnsAccount, error) {
	m.lastPlatform = platform
	if !platform.Valid() {
		return nil, appErrors.NewValidation("", "対応していないプラットフォームです")
	}
	return &model.SnsAccount{ID: "sns-1", UserID: userID, Platform: platform, AccessToken: in.AccessToken}, nil
}

func (m *MockAccounts) List(ctx context.Context, userID string) ([]model.SnsAccount, error) {
	return nil, nil
}

func (m *MockAccounts) Delete(ctx context.Context, userID, id string) error {
	return appErrors.NewNotFound("sns account", id)
}

type MockPosts struct {
	owner string
}

func (m *MockPosts) List(ctx context.Context, userID string) ([]model.Post, error) {
	m.owner = userID
	return []model.Post{{ID: "p1", Platform: model.PlatformX, Content: "hello", Status: model.PostDraft}}, nil
}

func (m *MockPosts) Get(ctx context.Context, userID, id string) (*model.Post, error) {
	return nil, appErrors.NewNotFound("post", id)
}

func (m *MockPosts) Delete(ctx context.Context, userID, id string) error { return nil }

func (m *MockPosts) Generate(ctx context.Context, userID string, platform model.Platform, genre string) (*model.Post, error) {
	if genre == "boom" {
		return nil, appErrors.NewCollaboratorFailure("generator", errors.New("quota exceeded"))
	}
	return &model.Post{ID: "p2", Platform: platform, Genre: genre, Content: "generated", Status: model.PostDraft}, nil
}

func (m *MockPosts) Trends(ctx context.Context) (*model.TrendData, error) {
	return &model.TrendData{TopKeywords: []string{"AI"}}, nil
}

type MockLinks struct{}

func (MockLinks) Shorten(ctx context.Context, userID, originalURL string) (*model.ShortLink, error) {
	return &model.ShortLink{ID: "l1", OriginalURL: originalURL, ShortCode: "abcd1234"}, nil
}

func (MockLinks) Resolve(ctx context.Context, code string) (*model.ShortLink, error) {
	if code != "abcd1234" {
		return nil, appErrors.NewNotFound("link", code)
	}
	return &model.ShortLink{OriginalURL: "https://example.com/offer"}, nil
}

type MockStatus struct {
	enabled bool
	err     error
}

func (m *MockStatus) Get(ctx context.Context, ownerID string) (*model.AutopilotStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.AutopilotStatus{UserID: ownerID, Enabled: m.enabled}, nil
}

func (m *MockStatus) Toggle(ctx context.Context, ownerID string, enabled bool) (*model.AutopilotStatus, error) {
	m.enabled = enabled
	return &model.AutopilotStatus{UserID: ownerID, Enabled: enabled}, nil
}

type MockRunner struct {
	result *model.RunResult
	err    error
}

func (m *MockRunner) RunNow(ctx context.Context, ownerID string) (*model.RunResult, error) {
	return m.result, m.err
}

type MockDashboard struct{}

func (MockDashboard) Stats(ctx context.Context, userID string) (*model.DashboardStats, error) {
	return &model.DashboardStats{TotalPosts: 4, TotalClicks: 2, CTR: 0.5, RecentPosts: []model.Post{}}, nil
}

type harness struct {
	handler http.Handler
	auth    *MockAuth
	posts   *MockPosts
	sns     *MockAccounts
	status  *MockStatus
	runner  *MockRunner
}

func newHarness() *harness {
	logger := logging.NewTestLogger()
	h := &harness{
		auth:   &MockAuth{},
		posts:  &MockPosts{},
		sns:    &MockAccounts{},
		status: &MockStatus{},
		runner: &MockRunner{},
	}
	h.handler = controller.NewRouter(controller.Controllers{
		Auth:      &controller.AuthController{Auth: h.auth, Logger: logger},
		Sns:       &controller.SnsController{Accounts: h.sns, Logger: logger},
		Genres:    &controller.GenreController{Genres: &service.GenreService{}, Logger: logger},
		Posts:     &controller.PostController{Posts: h.posts, Logger: logger},
		Schedules: &controller.ScheduleController{Schedules: &service.ScheduleService{}, Logger: logger},
		Affiliate: &controller.AffiliateController{Affiliates: &service.AffiliateService{}, Logger: logger},
		Autopilot: &controller.AutopilotController{Store: h.status, Runner: h.runner, Logger: logger},
		Dashboard: &controller.DashboardController{Dashboard: MockDashboard{}, Logger: logger},
		Links:     &controller.LinkController{Links: MockLinks{}, AppURL: "https://autobuzz.example/", Logger: logger},

		Authenticator: h.auth,
		CORSOrigins:   []string{"http://localhost:3000"},
		Logger:        logger,
	})
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Detail
}

// --- Tests ---

func TestHealthIsPublic(t *testing.T) {
	h := newHarness()
	w := h.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness()

	w := h.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "a@example.com", "password": "password123"}, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = h.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "a@example.com", "password": "password123"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrEmailTaken.Error(), detail(t, w))

	w = h.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "not-an-email", "password": "password123"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, "token-for-a@example.com", login["access_token"])

	w = h.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	h := newHarness()

	w := h.do(t, http.MethodGet, "/api/posts/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodGet, "/api/posts/", nil, "expired")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "認証情報が無効です", detail(t, w))

	w = h.do(t, http.MethodGet, "/api/posts/", nil, "valid")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", h.posts.owner)
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	h := newHarness()
	req := httptest.NewRequest(http.MethodPost, "/api/posts/generate", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer valid")
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotFoundDetailsAreLocalized(t *testing.T) {
	h := newHarness()

	w := h.do(t, http.MethodGet, "/api/posts/missing", nil, "valid")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "投稿が見つかりません", detail(t, w))

	w = h.do(t, http.MethodDelete, "/api/sns/accounts/x", nil, "valid")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "アカウントが見つかりません", detail(t, w))
}

func TestConnectUsesPathPlatform(t *testing.T) {
	h := newHarness()

	w := h.do(t, http.MethodPost, "/api/sns/connect/threads", map[string]string{"platform": "x", "access_token": "tok"}, "valid")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, model.PlatformThreads, h.sns.lastPlatform)

	w = h.do(t, http.MethodPost, "/api/sns/connect/instagram", map[string]string{"access_token": "tok"}, "valid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "対応していないプラットフォームです", detail(t, w))
}

func TestGeneratePost(t *testing.T) {
	h := newHarness()

	w := h.do(t, http.MethodPost, "/api/posts/generate", map[string]string{"platform": "x", "genre": "美容"}, "valid")
	require.Equal(t, http.StatusCreated, w.Code)
	var post model.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, model.PostDraft, post.Status)

	w = h.do(t, http.MethodPost, "/api/posts/generate", map[string]string{"platform": "x", "genre": "boom"}, "valid")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = h.do(t, http.MethodGet, "/api/posts/trends", nil, "valid")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"top_keywords":["AI"]`)
}

func TestAutopilotEndpoints(t *testing.T) {
	h := newHarness()

	w := h.do(t, http.MethodGet, "/api/autopilot/status", nil, "valid")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":false`)

	w = h.do(t, http.MethodPost, "/api/autopilot/toggle", map[string]any{}, "valid")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/autopilot/toggle", map[string]any{"enabled": true}, "valid")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, h.status.enabled)

	h.status.err = appErrors.NewPersistence("read autopilot status", errors.New("conn refused"))
	w = h.do(t, http.MethodGet, "/api/autopilot/status", nil, "valid")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "conn refused")
}

func TestRunNowReturnsResult(t *testing.T) {
	h := newHarness()
	h.runner.result = &model.RunResult{
		Message: "1件の組み合わせを処理しました（投稿 1 / 下書き 0 / エラー 0）",
		Items:   []model.RunItem{{Platform: model.PlatformX, Genre: "美容", Status: model.ItemPosted, Content: "hi"}},
		Posted:  1,
	}

	w := h.do(t, http.MethodPost, "/api/autopilot/run-now", nil, "valid")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Message string `json:"message"`
		Results []struct {
			Platform string `json:"platform"`
			Genre    string `json:"genre"`
			Status   string `json:"status"`
			Content  string `json:"content"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, h.runner.result.Message, got.Message)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "posted", got.Results[0].Status)
}

func TestRunNowConflict(t *testing.T) {
	h := newHarness()
	h.runner.err = fmt.Errorf("owner user-1: %w", appErrors.ErrRunInProgress)

	w := h.do(t, http.MethodPost, "/api/autopilot/run-now", nil, "valid")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, detail(t, w))
}

func TestLinkShortenAndRedirect(t *testing.T) {
	h := newHarness()

	w := h.do(t, http.MethodPost, "/api/links/", map[string]string{"original_url": "https://example.com/offer"}, "valid")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"short_url":"https://autobuzz.example/api/links/r/abcd1234"`)

	w = h.do(t, http.MethodPost, "/api/links/", map[string]string{"original_url": "ftp://nope"}, "valid")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodGet, "/api/links/r/abcd1234", nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/offer", w.Header().Get("Location"))

	w = h.do(t, http.MethodGet, "/api/links/r/unknown", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "リンクが見つかりません", detail(t, w))
}

func TestDashboardStats(t *testing.T) {
	h := newHarness()
	w := h.do(t, http.MethodGet, "/api/dashboard/stats", nil, "valid")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ctr":0.5`)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness()
	req := httptest.NewRequest(http.MethodOptions, "/api/posts/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness()
	h.do(t, http.MethodGet, "/api/health", nil, "")

	w := h.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestScheduleValidation(t *testing.T) {
	h := newHarness()
	w := h.do(t, http.MethodPost, "/api/schedules/", map[string]string{"time": "09:00", "frequency": "hourly"}, "valid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
