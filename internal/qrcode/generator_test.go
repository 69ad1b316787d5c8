package qrcode

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestMarkURL(t *testing.T) {
	id := uuid.MustParse("6f1f8b1e-16ad-4715-92ae-7b3f0a9b2c11")
	got := MarkURL("https://ontime.app", id, "2026-09-01")
	want := "https://ontime.app/markattendance?id=6f1f8b1e-16ad-4715-92ae-7b3f0a9b2c11&date=2026-09-01"
	if got != want {
		t.Fatalf("MarkURL = %q, want %q", got, want)
	}
}

func TestGenerateDataURL(t *testing.T) {
	dataURL, err := Generate("https://ontime.app", uuid.New(), "2026-09-01")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		t.Fatalf("data URL missing prefix: %q", dataURL[:32])
	}

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatalf("payload is not a PNG image")
	}
}
