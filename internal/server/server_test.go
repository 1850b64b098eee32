package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listsync/internal/shared"
)

func TestBasicRouter(t *testing.T) {
	t.Run("method filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("GET /ping = %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST /ping = %d, want 405", rec.Code)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(tag("first"), tag("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("request logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)

		router := NewBasicRouter()
		router.Use(RequestLogger(logger))
		router.Handle(http.MethodGet, "/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))
		if !strings.Contains(buf.String(), "status=418") {
			t.Errorf("expected status in log, got %q", buf.String())
		}
	})
}

func TestApprovalHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantErr    bool
	}{
		{name: "approved", query: "?request_token=tok&approved=true", wantStatus: http.StatusOK},
		{name: "denied", query: "?request_token=tok&denied=true", wantStatus: http.StatusForbidden, wantErr: true},
		{name: "missing approval", query: "?request_token=tok", wantStatus: http.StatusForbidden, wantErr: true},
		{name: "wrong token", query: "?request_token=other&approved=true", wantStatus: http.StatusBadRequest, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewApprovalHandler("tok")
			router := NewBasicRouter()
			router.Handler(h)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			result := <-h.Result()
			if tt.wantErr {
				if !errors.Is(result.Error(), shared.ErrAuthFailed) {
					t.Errorf("expected ErrAuthFailed, got %v", result.Error())
				}
				return
			}
			if result.Error() != nil || result.RequestToken != "tok" {
				t.Errorf("unexpected result %+v", result)
			}
		})
	}

	t.Run("only first callback counts", func(t *testing.T) {
		h := NewApprovalHandler("tok")

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?request_token=tok&approved=true", nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?request_token=tok&approved=true", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("second callback status = %d, want 400", rec.Code)
		}

		if _, ok := <-h.Result(); !ok {
			t.Fatal("expected a result")
		}
		if _, ok := <-h.Result(); ok {
			t.Error("expected channel to be closed after one result")
		}
	})
}

func TestCallbackServer(t *testing.T) {
	h := NewApprovalHandler("tok")
	router := NewBasicRouter()
	router.Handler(h)

	srv, err := StartCallbackServer("127.0.0.1:0", router)
	if err != nil {
		t.Fatalf("StartCallbackServer() error: %v", err)
	}
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/callback?request_token=tok&approved=true")
	if err != nil {
		t.Fatalf("GET callback error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "approved") {
		t.Errorf("unexpected response %d %s", resp.StatusCode, body)
	}

	select {
	case result := <-h.Result():
		if result.Error() != nil {
			t.Errorf("unexpected error %v", result.Error())
		}
	case err := <-srv.Errors():
		t.Fatalf("server error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback result")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error: %v", err)
	}
}
