package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/mock/gomock"

	"docchat/internal/llm/mocks"
	"docchat/internal/retrieval"
)

func snippetsNamed(texts ...string) []retrieval.Snippet {
	result := make([]retrieval.Snippet, len(texts))
	for i, text := range texts {
		result[i] = retrieval.Snippet{Text: text}
	}
	return result
}

func textsOf(snippets []retrieval.Snippet) []string {
	texts := make([]string, len(snippets))
	for i, s := range snippets {
		texts[i] = s.Text
	}
	return texts
}

func TestReranker_Rerank(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("[2, 9, 5]", nil)

	reranker := NewReranker(gen, 5, 0)
	got := reranker.Rerank(context.Background(), "question", snippetsNamed("low", "high", "mid"))

	want := []string{"high", "mid", "low"}
	for i, text := range textsOf(got) {
		if text != want[i] {
			t.Fatalf("Rerank() order = %v, want %v", textsOf(got), want)
		}
	}
}

func TestReranker_MalformedScoreCountDegradesBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	// First batch returns 2 scores for 3 snippets: whole batch falls back to 0.
	// Second batch returns valid scores and is unaffected.
	gomock.InOrder(
		gen.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return("[7, 3]", nil),
		gen.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return("[4, 8]", nil),
	)

	reranker := NewReranker(gen, 3, 0)
	got := reranker.Rerank(context.Background(), "q", snippetsNamed("a", "b", "c", "d", "e"))

	// Second batch scores (d=4, e=8) sort above the zeroed first batch, which
	// keeps its original relative order.
	want := []string{"e", "d", "a", "b", "c"}
	for i, text := range textsOf(got) {
		if text != want[i] {
			t.Fatalf("Rerank() order = %v, want %v", textsOf(got), want)
		}
	}
}

func TestReranker_CallErrorDegradesBatchOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gomock.InOrder(
		gen.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("timeout")),
		gen.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return("[9]", nil),
	)

	reranker := NewReranker(gen, 2, 0)
	got := reranker.Rerank(context.Background(), "q", snippetsNamed("a", "b", "c"))

	want := []string{"c", "a", "b"}
	for i, text := range textsOf(got) {
		if text != want[i] {
			t.Fatalf("Rerank() order = %v, want %v", textsOf(got), want)
		}
	}
}

func TestReranker_TiesPreserveOriginalOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("[5, 5, 5]", nil)

	reranker := NewReranker(gen, 5, 0)
	got := reranker.Rerank(context.Background(), "q", snippetsNamed("first", "second", "third"))

	want := []string{"first", "second", "third"}
	for i, text := range textsOf(got) {
		if text != want[i] {
			t.Fatalf("Rerank() tie order = %v, want %v", textsOf(got), want)
		}
	}
}

func TestReranker_SingleSnippetSkipsScoring(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	// No Generate calls expected.

	reranker := NewReranker(gen, 5, 0)
	got := reranker.Rerank(context.Background(), "q", snippetsNamed("only"))
	if len(got) != 1 || got[0].Text != "only" {
		t.Fatalf("Rerank() = %v, want single snippet unchanged", got)
	}
}

func TestBuildScoringPrompt_TruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("ü", snippetPreviewChars+50)
	prompt := buildScoringPrompt("q", snippetsNamed(long))

	if !utf8.ValidString(prompt) {
		t.Fatal("buildScoringPrompt() produced invalid UTF-8")
	}
	want := "[1] " + strings.Repeat("ü", snippetPreviewChars) + "\n"
	if !strings.Contains(prompt, want) {
		t.Errorf("buildScoringPrompt() preview not truncated to %d runes", snippetPreviewChars)
	}
}

func TestParseScores(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"plain array", "[1, 2, 3]", 3, false},
		{"fenced array", "```json\n[4, 5]\n```", 2, false},
		{"bare fence", "```\n[7]\n```", 1, false},
		{"prose response", "The scores are 1, 2, 3", 0, true},
		{"object instead of array", `{"scores": [1]}`, 0, true},
		{"empty string", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := parseScores(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseScores(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !tt.wantErr && len(scores) != tt.want {
				t.Errorf("parseScores(%q) = %v, want %d scores", tt.raw, scores, tt.want)
			}
		})
	}
}
