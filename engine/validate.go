package engine

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// inputCheck is one independent validation predicate over player input.
type inputCheck struct {
	name string
	fn   func(input string) error
}

// inputChecks returns the validation checks applied to every player input,
// in declared order.
func inputChecks(limit int) []inputCheck {
	return []inputCheck{
		{
			name: "non_empty",
			fn: func(input string) error {
				if strings.TrimSpace(input) == "" {
					return fmt.Errorf("input is empty")
				}
				return nil
			},
		},
		{
			name: "length_limit",
			fn: func(input string) error {
				if len(input) > limit {
					return fmt.Errorf("input exceeds %d characters (got %d)", limit, len(input))
				}
				return nil
			},
		},
	}
}

// validateInput runs all checks concurrently and merges their verdicts by
// declared order, never by completion order: the first declared failing
// check wins, so validation outcomes are deterministic for a given input.
func validateInput(ctx context.Context, input string, limit int) *ValidationError {
	checks := inputChecks(limit)
	verdicts := make([]error, len(checks))

	grp, _ := errgroup.WithContext(ctx)
	for i, check := range checks {
		i, check := i, check
		grp.Go(func() error {
			verdicts[i] = check.fn(input)
			return nil
		})
	}
	grp.Wait() //nolint:errcheck // check goroutines never return errors

	for i, verdict := range verdicts {
		if verdict != nil {
			return &ValidationError{Check: checks[i].name, Reason: verdict.Error()}
		}
	}
	return nil
}
