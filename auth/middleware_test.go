package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ferdiebergado/goexpress"

	"github.com/fizzify/fizzify/auth"
)

func newProtectedRouter(t *testing.T, a *auth.Auth) http.Handler {
	t.Helper()

	router := goexpress.New()
	router.Get("/profile", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			t.Error("claims missing from request context")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if _, err := w.Write([]byte(claims.Subject)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}, auth.RequireToken(a))

	router.Get("/admin", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, auth.RequireToken(a), auth.RequireScopes(a, "admin"))

	return router
}

func TestRequireToken(t *testing.T) {
	t.Parallel()

	a := newAuth(t, testConfig())
	router := newProtectedRouter(t, a)

	token, err := a.CreateAccessToken("user-1", nil, 0)
	if err != nil {
		t.Fatalf("CreateAccessToken error = %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid token",
			authHeader: "Bearer " + token.AccessToken,
			wantStatus: http.StatusOK,
			wantBody:   "user-1",
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			authHeader: "Bearer not.a.token",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireScopes(t *testing.T) {
	t.Parallel()

	a := newAuth(t, testConfig())
	router := newProtectedRouter(t, a)

	adminToken, err := a.CreateAccessToken("admin-1", []string{"admin", "read"}, 0)
	if err != nil {
		t.Fatalf("CreateAccessToken error = %v", err)
	}

	readToken, err := a.CreateAccessToken("user-1", []string{"read"}, 0)
	if err != nil {
		t.Fatalf("CreateAccessToken error = %v", err)
	}

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "scope granted", token: adminToken.AccessToken, wantStatus: http.StatusOK},
		{name: "scope missing", token: readToken.AccessToken, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireScopes_WithoutRequireToken(t *testing.T) {
	t.Parallel()

	a := newAuth(t, testConfig())

	handler := auth.RequireScopes(a, "read")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid", header: "Bearer abc123", want: "abc123"},
		{name: "case insensitive scheme", header: "bearer abc123", want: "abc123"},
		{name: "empty", header: "", wantErr: true},
		{name: "no token", header: "Bearer ", wantErr: true},
		{name: "wrong scheme", header: "Basic abc123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			got, err := auth.ExtractBearerToken(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractBearerToken error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractBearerToken = %q, want %q", got, tt.want)
			}
		})
	}
}
