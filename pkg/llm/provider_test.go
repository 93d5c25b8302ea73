package llm

import (
	"context"
	"testing"
)

type fakeProvider struct{ name string }

func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func (f *fakeProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return []float32{}, nil
}

func (f *fakeProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	return "", nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return "", nil
}

func (f *fakeProvider) Name() string { return f.name }

func TestRegistry(t *testing.T) {
	RegisterProvider("fake", func(config map[string]any) (Provider, error) {
		return &fakeProvider{name: "fake"}, nil
	})

	p, err := NewProvider("fake", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "fake" {
		t.Errorf("expected name fake, got %s", p.Name())
	}

	if _, err := NewProvider("missing", nil); err == nil {
		t.Error("expected error for unregistered provider")
	}

	ep, err := NewEmbeddingProvider("fake", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ep.Name() != "fake" {
		t.Errorf("expected name fake, got %s", ep.Name())
	}
}
