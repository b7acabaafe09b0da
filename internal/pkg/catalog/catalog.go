/*
catalog.go Named equipment templates. Transformers reference a template by name
when they are instantiated; the template parameters are copied onto the element.
*/

package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ElementKind tags the element family a template applies to.
type ElementKind string

// Trafo is the only element family with templates in the catalog.
const Trafo ElementKind = "trafo"

// TrafoType holds the electrical parameters of a two winding transformer.
type TrafoType struct {
	SnMVA       float64 `json:"sn_mva" validate:"gt=0"`
	VnHVKV      float64 `json:"vn_hv_kv" validate:"gt=0,gtfield=VnLVKV"`
	VnLVKV      float64 `json:"vn_lv_kv" validate:"gt=0"`
	VkPercent   float64 `json:"vk_percent" validate:"gt=0"`
	VkrPercent  float64 `json:"vkr_percent" validate:"gte=0,ltfield=VkPercent"`
	PfeKW       float64 `json:"pfe_kw" validate:"gte=0"`
	I0Percent   float64 `json:"i0_percent" validate:"gte=0"`
	ShiftDegree float64 `json:"shift_degree"`
}

// DuplicateTypeError is returned when a name is registered again with
// different parameters.
type DuplicateTypeError struct {
	Name string
	Kind ElementKind
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("catalog: %s type %q already registered with different parameters", e.Kind, e.Name)
}

// UnknownTypeError is returned when a template is not in the catalog.
type UnknownTypeError struct {
	Name string
	Kind ElementKind
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("catalog: unknown %s type %q", e.Kind, e.Name)
}

// Catalog is a registry of equipment templates, safe for concurrent use.
type Catalog struct {
	mux      *sync.RWMutex
	validate *validator.Validate
	trafos   map[string]TrafoType
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{
		mux:      &sync.RWMutex{},
		validate: validator.New(),
		trafos:   make(map[string]TrafoType),
	}
}

// Register adds a template. Registering identical parameters under an
// existing name is a no-op.
func (c *Catalog) Register(name string, kind ElementKind, params TrafoType) error {
	if kind != Trafo {
		return &UnknownTypeError{Name: name, Kind: kind}
	}
	if err := c.validate.Struct(params); err != nil {
		return fmt.Errorf("catalog: invalid %s type %q: %w", kind, name, err)
	}

	c.mux.Lock()
	defer c.mux.Unlock()
	if existing, ok := c.trafos[name]; ok {
		if existing == params {
			return nil
		}
		return &DuplicateTypeError{Name: name, Kind: kind}
	}
	c.trafos[name] = params
	return nil
}

// Get returns the template registered under name.
func (c *Catalog) Get(name string, kind ElementKind) (TrafoType, error) {
	if kind != Trafo {
		return TrafoType{}, &UnknownTypeError{Name: name, Kind: kind}
	}

	c.mux.RLock()
	defer c.mux.RUnlock()
	params, ok := c.trafos[name]
	if !ok {
		return TrafoType{}, &UnknownTypeError{Name: name, Kind: kind}
	}
	return params, nil
}

// Names lists the registered template names of a kind in lexical order.
func (c *Catalog) Names(kind ElementKind) []string {
	if kind != Trafo {
		return []string{}
	}

	c.mux.RLock()
	defer c.mux.RUnlock()
	names := make([]string, 0, len(c.trafos))
	for name := range c.trafos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
