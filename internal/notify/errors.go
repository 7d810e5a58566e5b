package notify

import "errors"

// Sentinel errors surfaced by TemplateEngine and Manager. Callers compare
// with errors.Is; wrapped context is added with fmt.Errorf("...: %w", ...).
var (
	// ErrUnknownProvider is returned when a notifier names a provider not
	// present in the registry.
	ErrUnknownProvider = errors.New("notify: unknown provider")

	// ErrCredentialsInvalid is returned when a provider constructor rejects
	// a notifier's credentials JSON.
	ErrCredentialsInvalid = errors.New("notify: invalid credentials")

	// ErrTemplateCompileError is returned when register() is given a
	// template source that fails to parse.
	ErrTemplateCompileError = errors.New("notify: template compile error")

	// ErrTemplateRenderError is returned when render() is called against an
	// unknown key, or the template execution itself fails.
	ErrTemplateRenderError = errors.New("notify: template render error")

	// ErrNotifierDispatchError is returned when a transport's Send fails.
	ErrNotifierDispatchError = errors.New("notify: dispatch error")
)
