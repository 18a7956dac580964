package main

import (
	"fmt"
	"strings"
)

// ErrorCollection is an ordered list of diagnostics. Phases append to it
// and keep going; the driver decides what to do once a phase is finished.
type ErrorCollection struct {
	messages []string
}

// Add records a diagnostic. The "error: " prefix is added if missing.
func (ec *ErrorCollection) Add(message string) {
	if !strings.HasPrefix(message, "error: ") && !strings.HasPrefix(message, "warning: ") {
		message = "error: " + message
	}
	ec.messages = append(ec.messages, message)
}

func (ec *ErrorCollection) Addf(format string, args ...any) {
	ec.Add(fmt.Sprintf(format, args...))
}

// Warnf records a non-fatal diagnostic.
func (ec *ErrorCollection) Warnf(format string, args ...any) {
	ec.messages = append(ec.messages, "warning: "+fmt.Sprintf(format, args...))
}

func (ec *ErrorCollection) HasErrors() bool {
	return ec != nil && len(ec.messages) > 0
}

func (ec *ErrorCollection) Count() int {
	if ec == nil {
		return 0
	}
	return len(ec.messages)
}

// Errors returns the diagnostics in the order they were reported.
func (ec *ErrorCollection) Errors() []string {
	if ec == nil {
		return nil
	}
	return ec.messages
}

func (ec *ErrorCollection) String() string {
	if ec == nil {
		return ""
	}
	return strings.Join(ec.messages, "\n")
}
