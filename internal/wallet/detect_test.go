package wallet

import (
	"context"
	"testing"
)

func TestDetect_NoEndpoint(t *testing.T) {
	p, ok := Detect(context.Background(), DetectOptions{})
	if ok || p != nil {
		t.Errorf("expected no provider, got %v, %v", p, ok)
	}
}

func TestDetect_HTTPOnly(t *testing.T) {
	p, ok := Detect(context.Background(), DetectOptions{Endpoint: "http://127.0.0.1:1"})
	if !ok || p == nil {
		t.Fatal("expected provider")
	}
	defer p.Close()

	if p.ws != nil {
		t.Error("expected no websocket client")
	}
	if p.pollInterval != DefaultPollInterval {
		t.Errorf("expected default poll interval, got %s", p.pollInterval)
	}
}

func TestDetect_WebSocketUnavailableFallsBackToPolling(t *testing.T) {
	p, ok := Detect(context.Background(), DetectOptions{
		Endpoint:   "http://127.0.0.1:1",
		WSEndpoint: "ws://127.0.0.1:1",
	})
	if !ok || p == nil {
		t.Fatal("expected provider")
	}
	defer p.Close()

	if p.ws != nil {
		t.Error("expected polling provider when websocket dial fails")
	}
}

func TestDetect_WebSocket(t *testing.T) {
	wsURL := newWSServer(t, nil)

	p, ok := Detect(context.Background(), DetectOptions{
		Endpoint:   "http://127.0.0.1:1",
		WSEndpoint: wsURL,
	})
	if !ok || p == nil {
		t.Fatal("expected provider")
	}
	defer p.Close()

	if p.ws == nil {
		t.Error("expected websocket client")
	}
}
