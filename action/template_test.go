package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redirectionio/routecore/action"
)

func TestRenderTemplateSubstitutesPlaceholders(t *testing.T) {
	got, err := action.RenderTemplate("/users/{id}/posts/{slug}", map[string]string{
		"id":   "42",
		"slug": "hello-world",
	})
	require.NoError(t, err)
	assert.Equal(t, "/users/42/posts/hello-world", got)
}

func TestRenderTemplateMissingCaptureRendersEmpty(t *testing.T) {
	got, err := action.RenderTemplate("/users/{id}", nil)
	require.NoError(t, err)
	assert.Equal(t, "/users/", got)
}

func TestRenderTemplateLiteralOnly(t *testing.T) {
	got, err := action.RenderTemplate("/static/path", map[string]string{"unused": "x"})
	require.NoError(t, err)
	assert.Equal(t, "/static/path", got)
}

func TestRenderTemplateUnterminatedPlaceholderErrors(t *testing.T) {
	_, err := action.RenderTemplate("/users/{id", nil)
	assert.Error(t, err)
}

func TestTransformersLowerUpperTrim(t *testing.T) {
	assert.Equal(t, "abc", action.Transformers["lower"]("ABC"))
	assert.Equal(t, "ABC", action.Transformers["upper"]("abc"))
	assert.Equal(t, "abc", action.Transformers["trim"]("  abc  "))
}
