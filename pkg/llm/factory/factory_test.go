package factory

import (
	"testing"

	"dashboard-summarizer/pkg/llm/ollama"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider("ollama", "llama3", "")
	if err != nil {
		t.Fatalf("NewLLMProvider() error = %v", err)
	}
	op, ok := p.(*ollama.OllamaProvider)
	if !ok {
		t.Fatalf("provider type = %T, want *ollama.OllamaProvider", p)
	}
	if op.BaseURL != "http://localhost:11434" || op.ModelName != "llama3" {
		t.Errorf("provider = %+v", op)
	}

	if _, err := NewLLMProvider("gemini", "x", ""); err == nil {
		t.Error("expected error for unsupported provider")
	}
}
