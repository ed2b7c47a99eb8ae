package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/mobup/pkg/config"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema operations",
}

var schemaExportOut string

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the manifest JSON Schema",
	RunE:  runSchemaExport,
}

func runSchemaExport(cmd *cobra.Command, args []string) error {
	data, err := config.GenerateJSONSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	// Pretty-print the JSON
	var out json.RawMessage = data
	formatted, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		formatted = data
	}
	if schemaExportOut != "" {
		if err := os.WriteFile(schemaExportOut, append(formatted, '\n'), 0o644); err != nil {
			return fmt.Errorf("write schema: %w", err)
		}
		fmt.Printf("✓ Schema written: %s\n", schemaExportOut)
		return nil
	}
	fmt.Println(string(formatted))
	return nil
}

func init() {
	schemaExportCmd.Flags().StringVar(&schemaExportOut, "out", "", "Write the schema to a file instead of stdout")
	schemaCmd.AddCommand(schemaExportCmd)
	rootCmd.AddCommand(schemaCmd)
}
