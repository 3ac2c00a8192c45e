package assess

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
	"github.com/radheshpai87/aurahealth-core/internal/model"
	"github.com/radheshpai87/aurahealth-core/internal/wire"
)

func TestRemoteClientDisabledWithoutBaseURL(t *testing.T) {
	t.Parallel()
	if c := NewRemoteClient(RemoteConfig{}, zap.NewNop()); c != nil {
		t.Fatal("empty base URL should disable the client")
	}
	if c := NewRemoteClient(RemoteConfig{BaseURL: "   "}, zap.NewNop()); c != nil {
		t.Fatal("blank base URL should disable the client")
	}
}

func TestRemoteClientPredict(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("want /predict, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("want json content type, got %q", ct)
		}
		var req wire.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.CycleVariance == nil {
			t.Error("cycle variance should always be sent")
		}
		_ = json.NewEncoder(w).Encode(wire.PredictResponse{
			RiskLevel:         "LOW",
			Confidence:        0.9,
			RecommendationKey: "CONTINUE_HEALTHY",
			Timestamp:         time.Now(),
		})
	}))
	defer srv.Close()

	c := NewRemoteClient(RemoteConfig{BaseURL: srv.URL + "/"}, zap.NewNop())
	resp, err := c.Predict(context.Background(), model.FeatureSnapshot{
		Age: 25, BMI: 21, Stress: 1, Sleep: 8, Exercise: 5, CycleAvg: 28, CycleVar: 2,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if resp.RiskLevel != "LOW" || resp.RecommendationKey != "CONTINUE_HEALTHY" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRemoteClientPredictErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRemoteClient(RemoteConfig{BaseURL: srv.URL}, zap.NewNop())
	_, err := c.Predict(context.Background(), model.FeatureSnapshot{})
	if !errors.Is(err, errs.ErrTransport) {
		t.Fatalf("want ErrTransport, got %v", err)
	}
}

func TestRemoteClientAvailable(t *testing.T) {
	t.Parallel()

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("want /ping, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	if c := NewRemoteClient(RemoteConfig{BaseURL: ok.URL}, zap.NewNop()); !c.Available(context.Background()) {
		t.Fatal("200 ping should report available")
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()
	if c := NewRemoteClient(RemoteConfig{BaseURL: bad.URL}, zap.NewNop()); c.Available(context.Background()) {
		t.Fatal("non-200 ping should report unavailable")
	}

	gone := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	gone.Close()
	if c := NewRemoteClient(RemoteConfig{BaseURL: gone.URL}, zap.NewNop()); c.Available(context.Background()) {
		t.Fatal("refused connection should report unavailable")
	}
}
