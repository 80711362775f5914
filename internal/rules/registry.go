package rules

import (
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var builtinProfiles []byte

type document struct {
	Default  string    `yaml:"default"`
	Profiles []Profile `yaml:"profiles"`
}

// Parse decodes a profile table and validates every profile in it.
func Parse(data []byte) (map[string]*Profile, string, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("failed to decode profile table: %w", err)
	}
	if len(doc.Profiles) == 0 {
		return nil, "", fmt.Errorf("profile table is empty")
	}

	profiles := make(map[string]*Profile, len(doc.Profiles))
	for i := range doc.Profiles {
		p := &doc.Profiles[i]
		if err := p.Validate(); err != nil {
			return nil, "", err
		}
		if _, dup := profiles[p.Name]; dup {
			return nil, "", fmt.Errorf("duplicate profile %s", p.Name)
		}
		profiles[p.Name] = p
	}
	if _, ok := profiles[doc.Default]; !ok {
		return nil, "", fmt.Errorf("default profile %q is not defined", doc.Default)
	}
	return profiles, doc.Default, nil
}

// Registry resolves rule profiles by name. Built-in profiles come from the
// embedded table; when a registry URL is configured, profiles are fetched
// from it first and the built-in copy is the fallback. Resolved profiles are
// cached for the life of the process.
type Registry struct {
	baseURL     string
	client      *http.Client
	builtin     map[string]*Profile
	defaultName string
	cache       sync.Map
	log         zerolog.Logger
}

// NewRegistry loads the embedded profiles. defaultName overrides the table's
// own default when non-empty.
func NewRegistry(baseURL, defaultName string, log zerolog.Logger) (*Registry, error) {
	builtin, tableDefault, err := Parse(builtinProfiles)
	if err != nil {
		return nil, err
	}
	if defaultName == "" {
		defaultName = tableDefault
	}
	if _, ok := builtin[defaultName]; !ok {
		return nil, fmt.Errorf("unknown default profile %q", defaultName)
	}

	r := &Registry{
		baseURL:     baseURL,
		builtin:     builtin,
		defaultName: defaultName,
		log:         log.With().Str("component", "rules").Logger(),
	}
	if baseURL != "" {
		r.client = &http.Client{
			Timeout: 2 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return r, nil
}

func (r *Registry) DefaultName() string {
	return r.defaultName
}

// Default returns the default profile. It never fails: the built-in copy
// backs it.
func (r *Registry) Default() *Profile {
	p, _ := r.Get(r.defaultName)
	return p
}

// Names lists the built-in profile names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builtin))
	for name := range r.builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get resolves a profile. An empty name means the default profile. Only
// built-in names resolve; the remote registry can override them but not add
// new ones, so the cache holds at most one entry per built-in profile.
func (r *Registry) Get(name string) (*Profile, bool) {
	if name == "" {
		name = r.defaultName
	}
	builtin, ok := r.builtin[name]
	if !ok {
		return nil, false
	}
	if p, ok := r.cache.Load(name); ok {
		return p.(*Profile), true
	}

	p := builtin
	if r.client != nil {
		remote, err := r.fetch(name)
		if err != nil {
			r.log.Warn().Err(err).Str("profile", name).Msg("Falling back to built-in rule profile")
		} else {
			p = remote
		}
	}

	actual, _ := r.cache.LoadOrStore(name, p)
	return actual.(*Profile), true
}

func (r *Registry) fetch(name string) (*Profile, error) {
	resp, err := r.client.Get(r.baseURL + "/profiles/" + url.PathEscape(name))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	p.Name = name
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
