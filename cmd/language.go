package main

import (
	"fmt"

	"github.com/shenikar/incident_response_system/internal/language"
	"github.com/spf13/cobra"
)

func languageCommand() *cobra.Command {
	var city, state, country, target string

	cmd := &cobra.Command{
		Use:   "language",
		Short: "Resolve the guidance language for a region",
		Example: `  sentinel language --city Chennai --state "Tamil Nadu" --country India
  sentinel language --country Japan --target Marathi`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), language.Resolve(city, state, country, target))
			return err
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "city name")
	cmd.Flags().StringVar(&state, "state", "", "state or region")
	cmd.Flags().StringVar(&country, "country", "", "country")
	cmd.Flags().StringVar(&target, "target", "", "explicit target language")
	return cmd
}
