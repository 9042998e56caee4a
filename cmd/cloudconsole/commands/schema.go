package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/cloudconsole/internal/fieldpath"
	"github.com/matthewbaird/cloudconsole/internal/schema"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

var (
	schemaProvider string
	schemaOverride string
)

// errInvalidRecord is returned by schema validate when the record fails.
var errInvalidRecord = errors.New("record is invalid")

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect and check provider form schemas",
}

var schemaDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the provider schema as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProvider()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

var schemaValidateCmd = &cobra.Command{
	Use:   "validate <record.json>",
	Short: "Validate a cloud record against the provider schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProvider()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading record: %w", err)
		}
		var rec types.Cloud
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("parsing record: %w", err)
		}
		draft, err := fieldpath.FromStruct(rec)
		if err != nil {
			return err
		}

		errs := p.Validate(p.Normalize(draft))
		out := cmd.OutOrStdout()
		if errs.Empty() {
			fmt.Fprintln(out, "ok")
			return nil
		}
		for _, k := range errs.Keys() {
			fmt.Fprintf(out, "%s: %s\n", k, errs[k])
		}
		return errInvalidRecord
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaDumpCmd, schemaValidateCmd)
	schemaCmd.PersistentFlags().StringVar(&schemaProvider, "provider", "", "provider name (default: the default provider)")
	schemaCmd.PersistentFlags().StringVar(&schemaOverride, "override", "", "CUE file replacing the embedded schemas")
}

func loadProvider() (*schema.Provider, error) {
	reg, err := schema.NewRegistry()
	if err != nil {
		return nil, err
	}
	if schemaOverride != "" {
		if err := reg.ReloadFile(schemaOverride); err != nil {
			return nil, err
		}
	}
	if schemaProvider == "" {
		return reg.Default(), nil
	}
	p, ok := reg.Get(schemaProvider)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (have %v)", schemaProvider, reg.Names())
	}
	return p, nil
}
