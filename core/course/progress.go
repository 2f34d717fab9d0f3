package course

import (
	"time"
)

type (
	SubmoduleProgress struct {
		Status Status `json:"status"`
	}

	ModuleProgress struct {
		Status     Status                       `json:"status"`
		Submodules map[string]SubmoduleProgress `json:"submodules,omitempty"`
	}

	// Progress maps module IDs to their state on a user's document.
	Progress map[string]ModuleProgress

	// ProgressDoc is a user's course progress document.
	ProgressDoc struct {
		UserID    string    `json:"user_id"`
		Email     string    `json:"email"`
		Progress  Progress  `json:"progress"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}
)

// NewProgress builds the all-locked progress map for a fresh account.
func NewProgress(catalog *Catalog) Progress {
	prog := make(Progress, len(catalog.Modules()))
	for _, m := range catalog.Modules() {
		mp := ModuleProgress{Status: StatusLocked}
		if len(m.Submodules) > 0 {
			mp.Submodules = make(map[string]SubmoduleProgress, len(m.Submodules))
			for _, sub := range m.Submodules {
				mp.Submodules[sub] = SubmoduleProgress{Status: StatusLocked}
			}
		}
		prog[m.ID] = mp
	}
	return prog
}

// Apply writes the updates into the progress map, creating entries that do
// not exist yet. Sibling submodules are left untouched.
func (p Progress) Apply(updates []Update) {
	for _, upd := range updates {
		mp, ok := p[upd.ModuleID]
		if !ok {
			mp = ModuleProgress{Status: StatusLocked}
		}
		if upd.SubmoduleID == "" {
			mp.Status = upd.Status
		} else {
			if mp.Submodules == nil {
				mp.Submodules = make(map[string]SubmoduleProgress, 1)
			}
			sp := mp.Submodules[upd.SubmoduleID]
			sp.Status = upd.Status
			mp.Submodules[upd.SubmoduleID] = sp
		}
		p[upd.ModuleID] = mp
	}
}

// Granted reports whether the module's status means "access granted".
func (p Progress) Granted(moduleID string) bool {
	mp, ok := p[moduleID]
	if !ok {
		return false
	}
	return mp.Status == StatusUnlocked || mp.Status == StatusActive || mp.Status == StatusCompleted
}
