package store

import "fmt"

// Current resolves the active context.
//
// This is the read-time check of the current-context pointer: files edited
// by hand may name a context that no longer exists, and that is reported
// as ErrCurrentContextMissing together with the names that do exist.
func (f *File) Current() (*Context, error) {
	if f.CurrentContext == "" {
		return nil, ErrNoCurrentContext
	}
	i := f.index(f.CurrentContext)
	if i < 0 {
		return nil, &MissingContextError{Name: f.CurrentContext, Available: f.ContextNames()}
	}
	return &f.Contexts[i], nil
}

// MissingContextError is returned by Current when current-context names an
// unknown entry. It matches ErrCurrentContextMissing.
type MissingContextError struct {
	Name      string
	Available []string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("%v: %q (available contexts: %v)", ErrCurrentContextMissing, e.Name, e.Available)
}

func (e *MissingContextError) Is(target error) bool {
	return target == ErrCurrentContextMissing
}
