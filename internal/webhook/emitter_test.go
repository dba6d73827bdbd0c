package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

func testEmitter(t *testing.T, handler http.HandlerFunc) *Emitter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "deploy-token", logr.Discard())
}

func TestEmitSuccess_ValidatesEchoedID(t *testing.T) {
	pollID := uuid.New()
	e := testEmitter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer deploy-token" {
			t.Errorf("missing bearer auth header")
		}
		json.NewEncoder(w).Encode(outgoingEnvelope{
			SQL:     &sqlResult{Status: "success", Chall: &challEcho{ID: pollID}},
			Discord: &discordResult{Status: "success"},
		})
	})

	err := e.EmitSuccess(context.Background(), pollID, SuccessDetails{Name: "x"}, nil, "deployed")
	if err != nil {
		t.Fatalf("EmitSuccess() error = %v", err)
	}
}

func TestEmitSuccess_RejectsMismatchedID(t *testing.T) {
	pollID := uuid.New()
	other := uuid.New()
	e := testEmitter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(outgoingEnvelope{
			SQL:     &sqlResult{Status: "success", Chall: &challEcho{ID: other}},
			Discord: &discordResult{Status: "success"},
		})
	})

	if err := e.EmitSuccess(context.Background(), pollID, SuccessDetails{Name: "x"}, nil, "deployed"); err == nil {
		t.Fatal("expected error when echoed id does not match poll id")
	}
}

func TestEmitFailure_DoesNotRequireEchoedID(t *testing.T) {
	e := testEmitter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(outgoingEnvelope{Discord: &discordResult{Status: "success"}})
	})
	if err := e.EmitFailure(context.Background(), uuid.New(), "chall", "build failed"); err != nil {
		t.Fatalf("EmitFailure() error = %v", err)
	}
}

func TestEmitter_401ReturnsSpecificError(t *testing.T) {
	e := testEmitter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	err := e.EmitFailure(context.Background(), uuid.New(), "chall", "oops")
	if err == nil {
		t.Fatal("expected error on 401")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %v, want the 401-specific error", err)
	}
}

func TestEmitFrontendSync_RequiresMatchingID(t *testing.T) {
	pollID := uuid.New()
	e := testEmitter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(outgoingEnvelope{
			Frontend: &frontendResult{Status: "success", Chall: &challEcho{ID: pollID}},
		})
	})
	if err := e.EmitFrontendSync(context.Background(), pollID); err != nil {
		t.Fatalf("EmitFrontendSync() error = %v", err)
	}
}
