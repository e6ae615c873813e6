package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// PromptClusters asks for the two cluster names, prefilled with defaults.
func PromptClusters(ctx context.Context, defaults []string) ([]string, error) {
	names := make([]string, 2)
	copy(names, defaults)

	notEmpty := func(s string) error {
		if s == "" {
			return errors.New("a cluster name is required")
		}
		return nil
	}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("First cluster").
				Description("Hosts the gateway the smoke request is sent to").
				Value(&names[0]).
				Validate(notEmpty),
			huh.NewInput().
				Title("Second cluster").
				Value(&names[1]).
				Validate(notEmpty),
		),
	).RunWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cluster prompt failed: %w", err)
	}
	return names, nil
}
