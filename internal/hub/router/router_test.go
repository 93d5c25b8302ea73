package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/knowledge-hub/internal/hub/biz"
	"github.com/kart-io/knowledge-hub/internal/hub/handler"
	"github.com/kart-io/knowledge-hub/internal/hub/middleware"
	"github.com/kart-io/knowledge-hub/internal/model"
)

const testKey = "test-signing-key-at-least-32-chars!!"

// noopService 以零值实现 biz.Service，仅用于验证路由权限。
type noopService struct{}

var _ biz.Service = (*noopService)(nil)

func (noopService) Upload(ctx context.Context, fileName string, size int64, r io.Reader) (*model.Document, error) {
	return &model.Document{}, nil
}

func (noopService) Get(ctx context.Context, id string) (*model.Document, error) {
	return &model.Document{ID: id}, nil
}

func (noopService) List(ctx context.Context, status string, offset, limit int) (int64, []*model.Document, error) {
	return 0, nil, nil
}

func (noopService) Delete(ctx context.Context, id string) error { return nil }

func (noopService) Reingest(ctx context.Context, id string) (*model.IngestResult, error) {
	return &model.IngestResult{}, nil
}

func (noopService) ReingestFailed(ctx context.Context) ([]*model.IngestResult, error) {
	return nil, nil
}

func (noopService) Query(ctx context.Context, question string, topK int) (*model.QueryResult, error) {
	return &model.QueryResult{Answer: "ok"}, nil
}

func (noopService) Stats(ctx context.Context) (*model.Stats, error) {
	return &model.Stats{}, nil
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	svc := &noopService{}
	Register(engine,
		handler.NewDocumentHandler(svc),
		handler.NewChatHandler(svc),
		&middleware.AuthConfig{Key: testKey},
	)
	return engine
}

func signToken(t *testing.T, role string) string {
	t.Helper()
	claims := &middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testKey))
	require.NoError(t, err)
	return token
}

func doRequest(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var body io.Reader
	if method == http.MethodPost && path == "/v1/chat" {
		body = strings.NewReader(`{"question":"hi"}`)
	}
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	engine.ServeHTTP(w, req)
	return w
}

func TestAdminRoutesRejectNonAdmin(t *testing.T) {
	engine := newTestEngine(t)
	token := signToken(t, "viewer")

	cases := []struct {
		name   string
		method string
		path   string
	}{
		{"列出文档", http.MethodGet, "/v1/documents"},
		{"查询文档", http.MethodGet, "/v1/documents/doc-1"},
		{"上传文档", http.MethodPost, "/v1/documents"},
		{"删除文档", http.MethodDelete, "/v1/documents/doc-1"},
		{"重建文档", http.MethodPost, "/v1/documents/doc-1/reingest"},
		{"重建失败文档", http.MethodPost, "/v1/documents/reingest"},
		{"统计信息", http.MethodGet, "/v1/stats"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(engine, tc.method, tc.path, token)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestAdminRoutesAllowAdmin(t *testing.T) {
	engine := newTestEngine(t)
	token := signToken(t, middleware.RoleAdmin)

	t.Run("列出文档", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/v1/documents", token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("统计信息", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/v1/stats", token)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestChatAllowsAuthenticatedUser(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("普通用户可问答", func(t *testing.T) {
		w := doRequest(engine, http.MethodPost, "/v1/chat", signToken(t, "viewer"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ok")
	})

	t.Run("未认证拒绝", func(t *testing.T) {
		w := doRequest(engine, http.MethodPost, "/v1/chat", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
