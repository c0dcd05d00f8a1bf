package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/cacheproxy/pkg/cli"
	"mercator-hq/cacheproxy/pkg/config"
)

type validationReport struct {
	Config string   `json:"config"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func (r validationReport) String() string {
	if r.Valid {
		return fmt.Sprintf("✓ %s is valid", r.Config)
	}
	return fmt.Sprintf("✗ %s is invalid:\n  - %s", r.Config, strings.Join(r.Errors, "\n  - "))
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration file with environment overrides applied and report
every validation problem. A missing file is checked as the built-in defaults.

Examples:
  cacheproxy validate
  cacheproxy validate --config /etc/cacheproxy/config.yaml --output json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(output)
	if err != nil {
		return err
	}

	report := validationReport{Config: cfgFile, Valid: true}
	_, loadErr := config.LoadConfigOrDefaults(cfgFile)
	if loadErr != nil {
		report.Valid = false
		var verr config.ValidationError
		if errors.As(loadErr, &verr) {
			for _, fe := range verr.Errors {
				report.Errors = append(report.Errors, fe.Error())
			}
		} else {
			report.Errors = []string{loadErr.Error()}
		}
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if loadErr != nil {
		return cli.NewCommandError("validate", loadErr)
	}
	return nil
}
