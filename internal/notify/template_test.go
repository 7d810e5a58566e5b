package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateEngineRegisterAndRender(t *testing.T) {
	e := NewTemplateEngine()

	require.NoError(t, e.Register("k1", "{{server.name}} is {{log.status_code}}"))

	out, err := e.Render("k1", map[string]interface{}{
		"server": map[string]interface{}{"name": "api"},
		"log":    map[string]interface{}{"status_code": 500},
	})
	require.NoError(t, err)
	assert.Equal(t, "api is 500", out)
}

func TestTemplateEngineRegisterIsIdempotentReplacement(t *testing.T) {
	e := NewTemplateEngine()

	require.NoError(t, e.Register("k1", "v1: {{log.status_code}}"))
	require.NoError(t, e.Register("k1", "v2: {{log.status_code}}"))

	out, err := e.Render("k1", map[string]interface{}{
		"log": map[string]interface{}{"status_code": 200},
	})
	require.NoError(t, err)
	assert.Equal(t, "v2: 200", out)
}

func TestTemplateEngineRegisterInvalidSourceFails(t *testing.T) {
	e := NewTemplateEngine()
	err := e.Register("bad", "{{#if}}")
	assert.ErrorIs(t, err, ErrTemplateCompileError)
}

func TestTemplateEngineRenderUnknownKeyFails(t *testing.T) {
	e := NewTemplateEngine()
	_, err := e.Render("missing", nil)
	assert.ErrorIs(t, err, ErrTemplateRenderError)
}

func TestTemplateEngineUnregister(t *testing.T) {
	e := NewTemplateEngine()
	require.NoError(t, e.Register("k1", "hello"))
	e.Unregister("k1")

	_, err := e.Render("k1", nil)
	assert.ErrorIs(t, err, ErrTemplateRenderError)
}
