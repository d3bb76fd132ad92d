package store

import "fmt"

// ContextNames returns the context names in file order.
func (f *File) ContextNames() []string {
	names := make([]string, 0, len(f.Contexts))
	for _, c := range f.Contexts {
		names = append(names, c.Name)
	}
	return names
}

// Get returns the named context.
func (f *File) Get(name string) (*Context, error) {
	i := f.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrContextNotFound, name)
	}
	return &f.Contexts[i], nil
}

// Has reports whether a context with the given name exists.
func (f *File) Has(name string) bool {
	return f.index(name) >= 0
}

// UpsertContext merges ctx into the context of the same name, or appends it
// when the name is new. Only non-empty fields of ctx overwrite stored ones.
// A non-empty current moves the current-context pointer; it must name a
// context that exists once ctx has been applied.
func (f *File) UpsertContext(ctx Context, current string) error {
	if ctx.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidContext)
	}
	if current != "" && current != ctx.Name && !f.Has(current) {
		return fmt.Errorf("%w: %q", ErrContextNotFound, current)
	}

	if i := f.index(ctx.Name); i >= 0 {
		existing := &f.Contexts[i]
		if ctx.Server != "" {
			existing.Server = ctx.Server
		}
		if ctx.User != "" {
			existing.User = ctx.User
		}
		if ctx.Token != "" {
			existing.Token = ctx.Token
		}
	} else {
		f.Contexts = append(f.Contexts, ctx)
	}

	if current != "" {
		f.CurrentContext = current
	}
	return nil
}

// SetCurrent points current-context at an existing context.
func (f *File) SetCurrent(name string) error {
	if !f.Has(name) {
		return fmt.Errorf("%w: %q", ErrContextNotFound, name)
	}
	f.CurrentContext = name
	return nil
}

// DeleteContext removes the named context. The current context can never
// be removed; switch away from it first. On error f is left untouched.
func (f *File) DeleteContext(name string) error {
	if name == f.CurrentContext && name != "" {
		return fmt.Errorf("%w: %q", ErrActiveContextDeletion, name)
	}
	i := f.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrContextNotFound, name)
	}
	f.Contexts = append(f.Contexts[:i:i], f.Contexts[i+1:]...)
	return nil
}

func (f *File) index(name string) int {
	for i := range f.Contexts {
		if f.Contexts[i].Name == name {
			return i
		}
	}
	return -1
}
