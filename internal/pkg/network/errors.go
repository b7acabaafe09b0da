package network

import "fmt"

// ConfigurationError reports a malformed network. It is fatal for the run
// that encounters it.
type ConfigurationError struct {
	Element string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Element == "" {
		return fmt.Sprintf("network configuration: %s", e.Reason)
	}
	return fmt.Sprintf("network configuration: %s: %s", e.Element, e.Reason)
}
