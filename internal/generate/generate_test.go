package generate

import (
	"context"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/clickwonder/broll-reviewer/internal/assets"
	"github.com/clickwonder/broll-reviewer/internal/media"
	"github.com/clickwonder/broll-reviewer/internal/project"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testStore(t *testing.T) *assets.DiskStore {
	t.Helper()
	store, err := assets.NewDiskStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewDiskStore error: %v", err)
	}
	return store
}

func TestFirstImagePart(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "here is your image"},
						{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{0x89, 0x50}}},
					},
				},
			},
		},
	}

	data, mimeType, err := firstImagePart(resp)
	if err != nil {
		t.Fatalf("firstImagePart error: %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("mimeType = %s, want image/png", mimeType)
	}
	if len(data) != 2 || data[0] != 0x89 {
		t.Errorf("data = %v, want inline blob bytes", data)
	}
}

func TestFirstImagePart_NoCandidates(t *testing.T) {
	_, _, err := firstImagePart(&genai.GenerateContentResponse{})
	if err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestFirstImagePart_TextOnly(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: "I cannot draw that"}},
				},
			},
		},
	}

	_, _, err := firstImagePart(resp)
	if err == nil {
		t.Fatal("expected error when no part carries image data")
	}
}

func TestExtForMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"IMAGE/JPEG", ".jpg"},
		{"image/webp", ".webp"},
		{"application/octet-stream", ".png"},
		{"", ".png"},
	}

	for _, tt := range tests {
		if got := extForMIME(tt.mime); got != tt.want {
			t.Errorf("extForMIME(%q) = %s, want %s", tt.mime, got, tt.want)
		}
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("", "", testStore(t), media.NewStubFFmpeg(testLogger()), testLogger())
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestClient_Generate_UnknownKind(t *testing.T) {
	client, err := NewClient("test-key", "", testStore(t), media.NewStubFFmpeg(testLogger()), testLogger())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.model != DefaultModel {
		t.Errorf("model = %s, want %s", client.model, DefaultModel)
	}

	_, err = client.Generate(context.Background(), "a harbor", "hologram", "asset-1")
	if err == nil || !strings.Contains(err.Error(), "unknown generation kind") {
		t.Errorf("Generate error = %v, want unknown generation kind", err)
	}
}

func TestStub_WritesPlaceholder(t *testing.T) {
	store := testStore(t)
	stub := NewStub(store, testLogger())

	file, err := stub.Generate(context.Background(), "a harbor at dawn", project.GenerateKindImage, "asset-1")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !strings.HasSuffix(file.Path, "asset-1.png") {
		t.Errorf("Path = %s, want asset-1.png suffix", file.Path)
	}
	if file.Width != 16 || file.Height != 9 {
		t.Errorf("dimensions = %dx%d, want 16x9", file.Width, file.Height)
	}

	f, err := os.Open(file.Path)
	if err != nil {
		t.Fatalf("placeholder not written: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("placeholder is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 16 {
		t.Errorf("decoded width = %d, want 16", img.Bounds().Dx())
	}
}

func TestGeneratorInterfaces(t *testing.T) {
	var _ project.Generator = (*Client)(nil)
	var _ project.Generator = (*Stub)(nil)
}
