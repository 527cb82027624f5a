package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"declaration-manager/core/config"
	"declaration-manager/core/declaration"
	"declaration-manager/core/storage"

	"github.com/spf13/cobra"
)

var parseFile string

// parseCmd prints the class index of a declaration.
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a declaration and print its entities by class",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var store storage.Client
		var bucket string
		if cfg, err := config.LoadConfig("."); err == nil {
			bucket = cfg.Storage.Bucket
			if client, err := storage.NewClient(cfg.Storage); err == nil {
				store = client
			}
		}

		doc, err := readDeclaration(ctx, parseFile, store, bucket)
		if err != nil {
			return err
		}
		parsed, err := declaration.ParseDocument(doc)
		if err != nil {
			return fmt.Errorf("invalid declaration: %w", err)
		}

		fmt.Printf("Tenants: %v\n", parsed.Tenants)
		for _, class := range parsed.ClassOrder() {
			fmt.Printf("\n%s\n", class)
			for _, e := range parsed.Entities(class) {
				attrs, _ := json.Marshal(e.Attributes)
				fmt.Printf("  %-40s %s\n", e.Path, attrs)
			}
		}
		fmt.Printf("\nTotal entities: %d\n", parsed.Len())
		return nil
	},
}

func init() {
	parseCmd.Flags().StringVarP(&parseFile, "file", "f", "", "Declaration file (JSON or YAML), or s3://<object>")
	_ = parseCmd.MarkFlagRequired("file")
	RootCmd.AddCommand(parseCmd)
}
