package course

import (
	"strings"

	"github.com/kusoma/backend/core"
)

// Status is the lifecycle state of a module or submodule on a user's
// progress document.
type Status string

const (
	StatusLocked    Status = "locked"
	StatusActive    Status = "active"
	StatusUnlocked  Status = "unlocked"
	StatusCompleted Status = "completed"
)

// StatusGranted is the canonical status written when a purchase unlocks a
// module. Legacy documents may carry "active"; both mean "granted".
const StatusGranted = StatusUnlocked

// Module IDs
const (
	ModuleAlphabet       = "alphabet"
	ModulePhonographism  = "phonographism"
	ModuleReadingFluency = "reading-fluency"
	ModuleComprehension  = "comprehension"
)

type (
	Module struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		Submodules []string `json:"submodules,omitempty"`
	}

	// Catalog is the static course structure plus the purchase wiring:
	// which provider product grants which module(s), and which submodule
	// must be unlocked together with its parent module.
	Catalog struct {
		modules      []Module
		products     map[string]string // product ID -> comma-separated module IDs
		introUnlocks map[string]string // module ID -> submodule ID
	}

	// Update is a single progress-document field update produced by the
	// unlock rule. An empty SubmoduleID targets the module itself.
	Update struct {
		ModuleID    string
		SubmoduleID string
		Status      Status
	}
)

func NewCatalog(modules []Module, products, introUnlocks map[string]string) *Catalog {
	return &Catalog{
		modules:      modules,
		products:     products,
		introUnlocks: introUnlocks,
	}
}

// NewDefaultCatalog builds the production catalog: the built-in module
// structure wired to the configured product table and submodule hooks.
func NewDefaultCatalog(conf *core.Config) *Catalog {
	return NewCatalog(defaultModules(), conf.Billing.Products, conf.Catalog.IntroUnlocks)
}

func defaultModules() []Module {
	return []Module{
		{ID: ModuleAlphabet, Name: "Alphabet Adventures"},
		{ID: ModulePhonographism, Name: "Phonetic Graphism", Submodules: []string{"intro", "syllables", "words"}},
		{ID: ModuleReadingFluency, Name: "Reading Fluency"},
		{ID: ModuleComprehension, Name: "Story Comprehension"},
	}
}

func (c *Catalog) Modules() []Module {
	return c.modules
}

func (c *Catalog) HasModule(moduleID string) bool {
	for _, m := range c.modules {
		if m.ID == moduleID {
			return true
		}
	}
	return false
}

// ModulesForProduct maps a provider product ID to the internal module IDs it
// grants. Unknown products map to nothing; the caller acks and moves on.
func (c *Catalog) ModulesForProduct(productID string) []string {
	mapped, ok := c.products[core.CleanString(productID, true /* lower */)]
	if !ok {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(mapped, ",") {
		if id = core.CleanString(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// UnlockUpdates is the unlock rule: the field updates required to mark the
// module granted. The submodule hook table carries the one special case
// (the phonetic-graphism module also unlocks its intro submodule); the
// submodule ID is fixed configuration, never discovered from the document.
func (c *Catalog) UnlockUpdates(moduleID string) []Update {
	updates := []Update{{ModuleID: moduleID, Status: StatusGranted}}
	if sub, ok := c.introUnlocks[moduleID]; ok && sub != "" {
		updates = append(updates, Update{ModuleID: moduleID, SubmoduleID: sub, Status: StatusGranted})
	}
	return updates
}
