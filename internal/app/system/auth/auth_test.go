package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/usersvc/internal/app/system/auth"
	"go.uber.org/zap"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantOK   bool
		wantUID  string
		wantRole string
	}{
		{"empty", "", false, "", ""},
		{"empty object", "{}", false, "", ""},
		{"malformed", "{uid:", false, "", ""},
		{"role only", `{"role":"cc"}`, false, "", ""},
		{"full", `{"uid":"john.doe","role":"club"}`, true, "john.doe", "club"},
		{"normalizes case", `{"uid":" John.Doe ","role":"CC"}`, true, "john.doe", "cc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := auth.ParseHeader(tt.header)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if c.UID != tt.wantUID {
				t.Errorf("UID: got %q, want %q", c.UID, tt.wantUID)
			}
			if c.Role != tt.wantRole {
				t.Errorf("Role: got %q, want %q", c.Role, tt.wantRole)
			}
		})
	}
}

func TestCaller_NilSafe(t *testing.T) {
	var c *auth.Caller
	if c.HasRole("cc") {
		t.Error("nil caller should have no role")
	}
	if c.Is("anyone") {
		t.Error("nil caller should not match any uid")
	}
}

func TestCaller_Is(t *testing.T) {
	c := &auth.Caller{UID: "jane.doe", Role: "public"}
	if !c.Is("Jane.Doe") {
		t.Error("expected case-insensitive match")
	}
	if c.Is("john.doe") {
		t.Error("expected mismatch for another uid")
	}
	if c.Is("") {
		t.Error("expected empty uid not to match")
	}
}

func TestLoadCaller(t *testing.T) {
	var got *auth.Caller
	var found bool
	h := auth.LoadCaller(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set(auth.HeaderUser, `{"uid":"a.b","role":"slo"}`)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !found {
		t.Fatal("expected caller in context")
	}
	if got.UID != "a.b" || got.Role != "slo" {
		t.Errorf("unexpected caller: %+v", got)
	}
}

func TestLoadCaller_NoHeader(t *testing.T) {
	found := true
	h := auth.LoadCaller(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/graphql", nil))

	if found {
		t.Error("expected no caller without header")
	}
}
