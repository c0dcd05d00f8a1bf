package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"runtime"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"default timeout", 0, DefaultCheckTimeout},
		{"negative timeout", -time.Second, DefaultCheckTimeout},
		{"custom timeout", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.timeout)
			if c.checkTimeout != tt.want {
				t.Errorf("checkTimeout = %v, want %v", c.checkTimeout, tt.want)
			}
			if len(c.Names()) != 0 {
				t.Errorf("Names() = %v, want empty", c.Names())
			}
		})
	}
}

func TestRegisterCheck(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("storage", func(context.Context) error { return nil })
	c.RegisterCheck("server", func(context.Context) error { return nil })

	if got, want := c.Names(), []string{"server", "storage"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	c.UnregisterCheck("server")
	if got, want := c.Names(), []string{"storage"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() after unregister = %v, want %v", got, want)
	}
}

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantFailed []string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"server":  func(context.Context) error { return nil },
				"storage": func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"server":  func(context.Context) error { return errors.New("server is not running") },
				"storage": func(context.Context) error { return nil },
			},
			wantStatus: StatusDegraded,
			wantFailed: []string{"server"},
		},
		{
			name: "timeout",
			checks: map[string]CheckFunc{
				"slow": func(ctx context.Context) error {
					time.Sleep(time.Second)
					return nil
				},
			},
			wantStatus: StatusDegraded,
			wantFailed: []string{"slow"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(50 * time.Millisecond)
			for name, fn := range tt.checks {
				c.RegisterCheck(name, fn)
			}

			report := c.CheckReadiness(context.Background())
			if report.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", report.Status, tt.wantStatus)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("len(Checks) = %d, want %d", len(report.Checks), len(tt.checks))
			}
			for _, name := range tt.wantFailed {
				if got := report.Checks[name].Status; got != StatusUnhealthy {
					t.Errorf("Checks[%q].Status = %q, want %q", name, got, StatusUnhealthy)
				}
			}
		})
	}
}

func TestLivenessHandler(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("broken", func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	c.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, LivenessPath, nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var report Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Status != StatusOK {
		t.Errorf("Status = %q, want %q", report.Status, StatusOK)
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		healthy  bool
		wantCode int
	}{
		{"ready", true, http.StatusOK},
		{"degraded", false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			c.RegisterCheck("server", func(context.Context) error {
				if tt.healthy {
					return nil
				}
				return errors.New("server is not running")
			})

			rec := httptest.NewRecorder()
			c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, ReadinessPath, nil))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestHandlers_Methods(t *testing.T) {
	c := New(time.Second)
	h := c.LivenessHandler()

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, LivenessPath, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodHead, LivenessPath, nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD status = %d body = %q, want 200 and empty", rec.Code, rec.Body.String())
	}
}

func TestMount(t *testing.T) {
	mux := http.NewServeMux()
	Mount(mux, New(time.Second), VersionInfo{Version: "1.2.3", Commit: "abc"})

	for _, path := range []string{LivenessPath, ReadinessPath, VersionPath} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, VersionPath, nil))
	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := VersionInfo{Version: "1.2.3", Commit: "abc", GoVersion: runtime.Version()}
	if info != want {
		t.Errorf("version = %+v, want %+v", info, want)
	}
}
