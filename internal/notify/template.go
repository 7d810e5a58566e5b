package notify

import (
	"fmt"
	"sync"

	"github.com/aymerick/raymond"
)

// TemplateEngine is a thread-safe keyed registry of Handlebars-compatible
// templates. Readers (render) may run unbounded and concurrently; writers
// (register) serialize against each other and against readers.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*raymond.Template
}

// NewTemplateEngine returns an empty TemplateEngine.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		templates: make(map[string]*raymond.Template),
	}
}

// Register compiles source and stores it under key, replacing any template
// previously registered under the same key.
func (e *TemplateEngine) Register(key string, source string) error {
	tpl, err := raymond.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: key %q: %v", ErrTemplateCompileError, key, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[key] = tpl
	return nil
}

// Render executes the template registered under key against data and
// returns the resulting string.
func (e *TemplateEngine) Render(key string, data interface{}) (string, error) {
	e.mu.RLock()
	tpl, ok := e.templates[key]
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: unknown key %q", ErrTemplateRenderError, key)
	}

	out, err := tpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("%w: key %q: %v", ErrTemplateRenderError, key, err)
	}
	return out, nil
}

// Unregister removes the template stored under key, if any.
func (e *TemplateEngine) Unregister(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.templates, key)
}
