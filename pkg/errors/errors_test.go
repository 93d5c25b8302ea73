package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrnoIs(t *testing.T) {
	wrapped := ErrEmbeddingFailed.WithCause(fmt.Errorf("connection refused"))

	assert.True(t, stderrors.Is(wrapped, ErrEmbeddingFailed))
	assert.False(t, stderrors.Is(wrapped, ErrExtractionFailed))
	assert.False(t, stderrors.Is(wrapped, ErrLLMFailed))
}

func TestWithCausePreservesIdentity(t *testing.T) {
	cause := fmt.Errorf("row not found")
	e := ErrDocumentNotFound.WithCause(cause)

	assert.Equal(t, ErrDocumentNotFound.Code, e.Code)
	assert.Equal(t, 404, e.HTTPStatus())
	assert.Equal(t, cause, stderrors.Unwrap(e))
	// 原始错误对象不受影响
	assert.Nil(t, stderrors.Unwrap(ErrDocumentNotFound))
}

func TestWithMessage(t *testing.T) {
	e := ErrInvalidFileType.WithMessagef("unsupported extension %q", ".exe")

	assert.Contains(t, e.Error(), ".exe")
	assert.Equal(t, ErrInvalidFileType.Code, e.Code)
	assert.Equal(t, "Unsupported file type", ErrInvalidFileType.MessageEN)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *Errno
	}{
		{
			name: "直接的 Errno",
			err:  ErrNoResults,
			want: ErrNoResults,
		},
		{
			name: "包装后的 Errno",
			err:  fmt.Errorf("query: %w", ErrDatabase.WithCause(fmt.Errorf("timeout"))),
			want: ErrDatabase,
		},
		{
			name: "普通错误映射为内部错误",
			err:  fmt.Errorf("boom"),
			want: ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want.Code, got.Code)
		})
	}
}

func TestTaxonomyDistinct(t *testing.T) {
	all := []*Errno{
		ErrInvalidRequest, ErrInvalidFileType, ErrFileTooLarge,
		ErrUnauthorized, ErrForbidden,
		ErrDocumentNotFound, ErrNoResults,
		ErrExtractionFailed, ErrEmbeddingFailed, ErrLLMFailed, ErrVectorDimension,
		ErrDatabase, ErrStorage, ErrInternal,
	}
	seen := make(map[int]bool, len(all))
	for _, e := range all {
		assert.False(t, seen[e.Code], "duplicate code %d", e.Code)
		seen[e.Code] = true

		registered, ok := Lookup(e.Code)
		require.True(t, ok)
		assert.Same(t, e, registered)
	}
}

func TestMakeCode(t *testing.T) {
	code := MakeCode(21, CategoryResource, 2)
	assert.Equal(t, 2104002, code)
	assert.Equal(t, CategoryResource, GetCategory(code))
}
