package enroll

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// ModuleList is the set of module IDs attached to a pending purchase.
//
// The wire representation is loosely typed: historical writers stored it as
// a plain array, as a map of id->truthy flag, or as a single bare string.
// All three shapes are accepted on read and normalized into one canonical
// list right at the store boundary, so nothing past this type ever branches
// on representation. It always marshals back as an array.
type ModuleList []string

func (ml *ModuleList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*ml = nil
	case string:
		*ml = ModuleList{v}
	case []interface{}:
		ids := make(ModuleList, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				ids = append(ids, s)
			}
		}
		*ml = ids
	case map[string]interface{}:
		// keep only truthy keys; sort for a deterministic order
		keys := make([]string, 0, len(v))
		for k := range v {
			if truthy(v[k]) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		*ml = keys
	default:
		*ml = nil
	}
	*ml = ml.Normalize()
	return nil
}

func (ml ModuleList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(ml.Normalize()))
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return false
	}
}

// Normalize returns a deduplicated, order-preserving copy with empty IDs
// dropped.
func (ml ModuleList) Normalize() ModuleList {
	out := make(ModuleList, 0, len(ml))
	seen := make(map[string]bool, len(ml))
	for _, id := range ml {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Add returns the list with the module merged in (set semantics).
func (ml ModuleList) Add(moduleID string) ModuleList {
	return append(ml, moduleID).Normalize()
}

func (ml ModuleList) Contains(moduleID string) bool {
	for _, id := range ml {
		if id == moduleID {
			return true
		}
	}
	return false
}

// PendingPurchase records modules purchased before (or without) a matching
// account, keyed by the buyer's normalized email.
type PendingPurchase struct {
	Email     string     `json:"email"`
	Modules   ModuleList `json:"modules"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at"` // UTC
}

// Result is the outcome of a reconciliation run.
type Result struct {
	Applied bool     `json:"applied"`
	Modules []string `json:"modules"`
}

// OrderOutcome is the outcome of processing a paid order notification.
type OrderOutcome struct {
	UnknownProduct bool     `json:"unknown_product,omitempty"`
	Pending        bool     `json:"pending,omitempty"`
	Modules        []string `json:"modules,omitempty"`
	Applied        bool     `json:"applied,omitempty"`
}
