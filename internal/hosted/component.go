// Package hosted models the provider's card-entry widget as a small
// capability interface, so the checkout flow never depends on the concrete
// hosted implementation (an iframe component living entirely client-side).
package hosted

// Component is the imperative surface of the tokenization widget.
type Component interface {
	// Attach mounts the widget onto the given target element.
	Attach(target string) error
	// Detach unmounts the widget and removes its listeners.
	Detach() error
	// OnValidityChange registers a callback fired whenever the card input
	// becomes valid or invalid.
	OnValidityChange(handler func(valid bool))
}

// BootstrapConfig is what the browser needs to mount the real widget.
type BootstrapConfig struct {
	ProfileID string `json:"profileId"`
	TestMode  bool   `json:"testMode"`
	Locale    string `json:"locale"`
}

// NoopComponent satisfies Component without a widget. It backs tests and
// server-side flows where no card entry happens.
type NoopComponent struct {
	attached bool
	handler  func(bool)
}

func (c *NoopComponent) Attach(target string) error {
	c.attached = true
	return nil
}

func (c *NoopComponent) Detach() error {
	c.attached = false
	return nil
}

func (c *NoopComponent) OnValidityChange(handler func(valid bool)) {
	c.handler = handler
}
