package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed providers/*.cue
var providerFS embed.FS

const definitionsFile = "providers/schema.cue"

// DefaultProvider is the provider the form engine opens dialogs with.
const DefaultProvider = "AWS"

// Source is one CUE file declaring provider schemas.
type Source struct {
	Name string
	Data []byte
}

// Embedded returns the provider sources compiled into the binary.
func Embedded() ([]Source, error) {
	entries, err := fs.ReadDir(providerFS, "providers")
	if err != nil {
		return nil, fmt.Errorf("reading embedded providers: %w", err)
	}
	var out []Source
	for _, e := range entries {
		name := path.Join("providers", e.Name())
		if name == definitionsFile {
			continue
		}
		data, err := providerFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		out = append(out, Source{Name: name, Data: data})
	}
	return out, nil
}

// Parse compiles sources against the schema definitions and decodes every
// provider they declare, in declaration order.
func Parse(sources ...Source) ([]*Provider, error) {
	defs, err := providerFS.ReadFile(definitionsFile)
	if err != nil {
		return nil, fmt.Errorf("reading definitions: %w", err)
	}
	ctx := cuecontext.New()
	val := ctx.CompileBytes(defs, cue.Filename(definitionsFile))
	if val.Err() != nil {
		return nil, fmt.Errorf("compiling definitions: %w", val.Err())
	}
	for _, src := range sources {
		sv := ctx.CompileBytes(src.Data, cue.Filename(src.Name))
		if sv.Err() != nil {
			return nil, fmt.Errorf("compiling %s: %w", src.Name, sv.Err())
		}
		val = val.Unify(sv)
	}

	provs := val.LookupPath(cue.ParsePath("providers"))
	if provs.Err() != nil {
		return nil, fmt.Errorf("no providers declared: %w", provs.Err())
	}
	if err := provs.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating providers: %w", err)
	}

	var out []*Provider
	iter, err := provs.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating providers: %w", err)
	}
	for iter.Next() {
		label := iter.Selector().String()
		p := &Provider{}
		if err := iter.Value().Decode(p); err != nil {
			return nil, fmt.Errorf("decoding provider %s: %w", label, err)
		}
		if err := check(p); err != nil {
			return nil, fmt.Errorf("provider %s: %w", label, err)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no providers declared")
	}
	return out, nil
}

// check enforces what CUE cannot express: unique keys and references to
// declared fields.
func check(p *Provider) error {
	paths := map[string]bool{}
	for _, f := range p.Fields() {
		if paths[f.Key] {
			return fmt.Errorf("duplicate field %q", f.Key)
		}
		if !f.Type.Valid() {
			return fmt.Errorf("field %q: unknown kind %q", f.Key, f.Type)
		}
		if (f.Type == KindSelect || f.Type == KindMultiSelect) && len(f.Options) == 0 {
			return fmt.Errorf("field %q: %s needs options", f.Key, f.Type)
		}
		paths[f.Key] = true
		paths[f.WritePath()] = true
	}
	for _, f := range p.Fields() {
		for _, c := range f.ShowIf {
			if !paths[c.Field] {
				return fmt.Errorf("field %q: condition on undeclared field %q", f.Key, c.Field)
			}
		}
	}
	for _, r := range p.Rules {
		if !paths[r.Field] {
			return fmt.Errorf("rule on undeclared field %q", r.Field)
		}
	}
	return nil
}

// Registry holds the loaded provider schemas by name. Reloads swap the whole
// set; providers already handed out are never modified.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Provider
	names     []string
}

// NewRegistry loads the embedded provider schemas.
func NewRegistry() (*Registry, error) {
	srcs, err := Embedded()
	if err != nil {
		return nil, err
	}
	provs, err := Parse(srcs...)
	if err != nil {
		return nil, err
	}
	r := &Registry{}
	r.swap(provs)
	return r, nil
}

func (r *Registry) swap(provs []*Provider) {
	m := make(map[string]*Provider, len(provs))
	names := make([]string, 0, len(provs))
	for _, p := range provs {
		m[p.Name] = p
		names = append(names, p.Name)
	}
	r.mu.Lock()
	r.providers = m
	r.names = names
	r.mu.Unlock()
}

// Get returns the named provider.
func (r *Registry) Get(name string) (*Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Default returns DefaultProvider, or the first declared provider when an
// override dropped it.
func (r *Registry) Default() *Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[DefaultProvider]; ok {
		return p
	}
	return r.providers[r.names[0]]
}

// Names returns the provider names in declaration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Reload replaces the provider set with the schemas declared in src. On error
// the current set is kept.
func (r *Registry) Reload(src Source) error {
	provs, err := Parse(src)
	if err != nil {
		return err
	}
	r.swap(provs)
	return nil
}

// ReloadFile reloads from a CUE file on disk.
func (r *Registry) ReloadFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading schema override: %w", err)
	}
	return r.Reload(Source{Name: filepath.Base(file), Data: data})
}
