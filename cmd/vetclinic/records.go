package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"vetclinic/pkg/examination"
)

var errInvalidRecord = errors.New("record failed validation")

func newValidateCmd(a *app) *cobra.Command {
	var rulesPath, locale string
	cmd := &cobra.Command{
		Use:   "validate <record.json>",
		Short: "Check a form record against the configured field rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := readRecord(args[0])
			if err != nil {
				return err
			}
			rules := a.cfg.Validation.Rules
			if rulesPath != "" {
				if rules, err = readRuleSet(rulesPath); err != nil {
					return err
				}
			}
			if err := rules.Compile(); err != nil {
				return err
			}
			if locale == "" {
				locale = a.cfg.Validation.Locale
			}

			errs := examination.NewErrorMap()
			validator := examination.NewValidator(errs, examination.NewMessages(examination.ParseLocale(locale)))
			ok := validator.ValidateForm(examination.NewStore(record), rules)
			a.logger.Debug("validated record",
				zap.String("file", args[0]),
				zap.Int("rules", len(rules)),
				zap.Int("failures", errs.Len()),
			)
			out := cmd.OutOrStdout()
			if ok {
				fmt.Fprintln(out, "valid")
				return nil
			}
			failures := errs.All()
			for _, path := range rules.Paths() {
				if msg, failed := failures[path]; failed {
					fmt.Fprintf(out, "%s: %s\n", path, msg)
				}
			}
			return errInvalidRecord
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML file mapping paths to field rules (overrides config)")
	cmd.Flags().StringVar(&locale, "locale", "", "message locale (overrides config)")
	return cmd
}

func newTransformCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transform <record.json>",
		Short: "Print the submission payload produced from a form record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := readRecord(args[0])
			if err != nil {
				return err
			}
			payload := examination.Transform(record)
			a.logger.Debug("transformed record", zap.String("file", args[0]))
			return writeIndented(cmd.OutOrStdout(), payload)
		},
	}
}

func readRecord(path string) (examination.Record, error) {
	raw, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var record examination.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", path, err)
	}
	if record == nil {
		return nil, fmt.Errorf("record %s is not a JSON object", path)
	}
	return record, nil
}

func readRuleSet(path string) (examination.RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var rules examination.RuleSet
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return rules, nil
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return raw, nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
