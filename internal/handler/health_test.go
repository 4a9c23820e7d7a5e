package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/blogcaster/api/internal/config"
)

func healthBody(t *testing.T, h *HealthHandler) map[string]interface{} {
	t.Helper()
	app := fiber.New()
	app.Get("/health", h.Check)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	return body
}

func TestHealthReportsCredentials(t *testing.T) {
	up := PingFunc(func(ctx context.Context) error { return nil })
	body := healthBody(t, NewHealthHandler(config.Credentials{FirecrawlAPIKey: "f"}, up, nil, false, false))

	if body["status"] != "degraded" {
		t.Errorf("status = %v", body["status"])
	}
	if body["warning"] == nil {
		t.Error("missing warning")
	}

	creds := body["credentials"].(map[string]interface{})
	if creds[config.EnvFirecrawlAPIKey] != true || creds[config.EnvGeminiAPIKey] != false {
		t.Errorf("credentials = %v", creds)
	}

	services := body["services"].(map[string]interface{})
	if services["redis"] != true || services["database"] != false {
		t.Errorf("services = %v", services)
	}
}

func TestHealthOK(t *testing.T) {
	down := PingFunc(func(ctx context.Context) error { return errors.New("refused") })
	body := healthBody(t, NewHealthHandler(fullCredentials, down, nil, true, true))

	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
	if _, ok := body["warning"]; ok {
		t.Error("unexpected warning")
	}
	services := body["services"].(map[string]interface{})
	if services["redis"] != false || services["r2"] != true {
		t.Errorf("services = %v", services)
	}
}
