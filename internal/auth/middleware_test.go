package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, failures *[]string) (*gin.Engine, *AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	mw := NewMiddleware(svc, func(reason string) { *failures = append(*failures, reason) })

	r := gin.New()
	g := r.Group("/", mw.GinAuth())
	g.GET("/read", mw.GinRequirePermission(ResourceRecord, ActionRead), func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c))
	})
	g.PUT("/write", mw.GinRequirePermission(ResourceRecord, ActionWrite), func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c))
	})
	return r, svc
}

func TestGinAuth(t *testing.T) {
	var failures []string
	r, svc := newTestRouter(t, &failures)
	login, _ := svc.Login(context.Background(), "ali")

	cases := []struct {
		name   string
		method string
		path   string
		header map[string]string
		status int
		body   string
	}{
		{"no credentials", http.MethodGet, "/read", nil, http.StatusUnauthorized, ""},
		{"unknown user header", http.MethodGet, "/read", map[string]string{UserHeader: "bob"}, http.StatusUnauthorized, ""},
		{"view reads", http.MethodGet, "/read", map[string]string{UserHeader: "sara"}, http.StatusOK, "sara"},
		{"view cannot write", http.MethodPut, "/write", map[string]string{UserHeader: "sara"}, http.StatusForbidden, ""},
		{"bearer token writes", http.MethodPut, "/write", map[string]string{"Authorization": "Bearer " + login.Token.Value}, http.StatusOK, "ali"},
		{"garbage token", http.MethodGet, "/read", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.status, w.Body.String())
			}
			if tc.body != "" && w.Body.String() != tc.body {
				t.Fatalf("body = %q, want %q", w.Body.String(), tc.body)
			}
		})
	}

	want := []string{"auth", "auth", "permission", "auth"}
	if len(failures) != len(want) {
		t.Fatalf("failures = %v, want %v", failures, want)
	}
	for i := range want {
		if failures[i] != want[i] {
			t.Fatalf("failures = %v, want %v", failures, want)
		}
	}
}
