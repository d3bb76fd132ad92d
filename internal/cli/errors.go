package cli

import (
	"errors"
	"fmt"

	"github.com/kuberos/kuberos-cli/internal/auth"
	"github.com/kuberos/kuberos-cli/internal/store"
	"github.com/kuberos/kuberos-cli/pkg/client"
	"github.com/kuberos/kuberos-cli/pkg/manifest"
)

// Describe turns an error returned by a command into the message printed
// to the user. Errors without a known cause are printed as they are.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var missing *store.MissingContextError
	var apiErr *client.APIError

	switch {
	case errors.Is(err, store.ErrConfigNotFound):
		return fmt.Sprintf("%v\nRun 'kuberos config init' to create an empty configuration.", err)
	case errors.Is(err, store.ErrConfigCorrupt):
		return fmt.Sprintf("%v\nFix or remove the file and run 'kuberos config init'.", err)
	case errors.As(err, &missing):
		return fmt.Sprintf("current context %q does not exist; switch to one of %v with 'kuberos config switch'", missing.Name, missing.Available)
	case errors.Is(err, store.ErrNoCurrentContext):
		return "no current context set\nCreate one with 'kuberos config create --name NAME --server URL --user USER'."
	case errors.Is(err, store.ErrActiveContextDeletion):
		return fmt.Sprintf("%v\nSwitch to another context with 'kuberos config switch' first.", err)
	case errors.Is(err, auth.ErrMissingCredentials):
		return err.Error()
	case errors.Is(err, client.ErrAuthFailed):
		return "Username or password is incorrect"
	case errors.Is(err, client.ErrUnauthorized):
		return "Unauthorized, login is required. The previous cached token is expired."
	case errors.Is(err, client.ErrUnreachable):
		return "[ConnectionError] Can not connect to the API server. Please check your network and kuberos config."
	case errors.Is(err, client.ErrServerError):
		return fmt.Sprintf("%v\nServer error. Please contact the administrator.", err)
	case errors.Is(err, manifest.ErrEmpty), errors.Is(err, manifest.ErrInvalid), errors.Is(err, manifest.ErrKindMismatch):
		return fmt.Sprintf("invalid manifest: %v", err)
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	}
	return err.Error()
}
