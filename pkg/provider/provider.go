// Package provider holds the error taxonomy shared by all remote-service
// client packages (stt, chat, tts).
//
// Every client fails with either a [ConfigError] (a required credential is
// missing — non-retryable without operator intervention) or a [ServiceError]
// (the remote dependency answered with a non-2xx status or an undecodable
// body). Callers decide fallback behaviour; clients never retry.
package provider

import (
	"errors"
	"fmt"
)

// ErrNoCredential is wrapped by every [ConfigError]; use errors.Is to detect
// the class without caring which client raised it.
var ErrNoCredential = errors.New("required credential is not configured")

// ConfigError reports a missing credential for a named service.
type ConfigError struct {
	// Service is the client that needs the credential (e.g., "elevenlabs").
	Service string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, ErrNoCredential)
}

func (e *ConfigError) Unwrap() error { return ErrNoCredential }

// ServiceError reports a failed request to a remote dependency. Status is the
// HTTP status code (0 for transport-level failures) and Body carries the
// response body when one was received, truncated by the client.
type ServiceError struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Service, e.Status, e.Body)
	default:
		return fmt.Sprintf("%s: HTTP %d", e.Service, e.Status)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }
