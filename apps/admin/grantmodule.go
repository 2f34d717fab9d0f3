package main

import (
	"context"
	"fmt"

	"github.com/kusoma/backend/core"
)

// grantModules records a manual grant (comp copies, support recoveries) for
// the buyer's email; any matching account is unlocked immediately, otherwise
// the grant waits for signup.
func (cli *commandLine) grantModules(email string, moduleIDs []string) error {
	cleaned := make([]string, 0, len(moduleIDs))
	for _, id := range moduleIDs {
		if id = core.CleanString(id, true /* lower */); id != "" {
			cleaned = append(cleaned, id)
		}
	}

	outcome, err := cli.enrollSvc.GrantModules(context.Background(), email, cleaned...)
	if err != nil {
		return err
	}
	if outcome.Pending {
		fmt.Printf("no account for %s yet; grant recorded as pending\n", email)
	} else {
		fmt.Printf("modules %v unlocked for %s\n", outcome.Modules, email)
	}
	return nil
}
