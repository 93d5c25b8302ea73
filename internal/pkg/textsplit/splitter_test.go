package textsplit

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	s := New(100, 20)

	tests := []struct {
		name string
		text string
	}{
		{name: "空字符串", text: ""},
		{name: "仅空白字符", text: "  \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Split(tt.text)
			assert.Error(t, err)
		})
	}
}

func TestSplitShortText(t *testing.T) {
	s := New(100, 20)

	chunks, err := s.Split("hello world")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplitDeterministic(t *testing.T) {
	s := New(50, 10)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)

	first, err := s.Split(text)
	require.NoError(t, err)
	second, err := s.Split(text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := New(50, 10)
	text := strings.Repeat("A sentence here. Another one follows. ", 30)

	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 50, "chunk %d exceeds size: %q", i, c)
		assert.NotEmpty(t, strings.TrimSpace(c), "chunk %d is blank", i)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := New(40, 0)
	text := "First paragraph is right here.\n\nSecond paragraph follows after."

	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph is right here.", chunks[0])
	assert.Equal(t, "Second paragraph follows after.", chunks[1])
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	s := New(30, 15)
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"

	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// 相邻块共享词，保证上下文连续
	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		lastWord := prevWords[len(prevWords)-1]
		assert.Contains(t, chunks[i], lastWord,
			"chunk %d does not overlap with chunk %d", i, i-1)
	}
}

func TestSplitHardCutWithoutBoundaries(t *testing.T) {
	s := New(10, 2)
	text := strings.Repeat("x", 35)

	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}

	// 去重叠后拼接可还原原文
	step := 10 - 2
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for i := 1; i < len(chunks); i++ {
		runes := []rune(chunks[i])
		overlapLen := len([]rune(chunks[i-1])) - step
		if overlapLen < 0 {
			overlapLen = 0
		}
		rebuilt.WriteString(string(runes[overlapLen:]))
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplitUnicode(t *testing.T) {
	s := New(10, 0)
	text := strings.Repeat("知识库检索服务", 5)

	chunks, err := s.Split(text)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
		assert.True(t, utf8.ValidString(c))
	}
}

func TestNewClampsOverlap(t *testing.T) {
	s := New(100, 200)
	assert.Equal(t, 100, s.ChunkSize())
	assert.Equal(t, 50, s.ChunkOverlap())
}
