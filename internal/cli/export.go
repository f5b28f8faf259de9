// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rigzba21/si/internal/dal/pkgimport"
	"github.com/rigzba21/si/internal/dal/schema"
	"github.com/rigzba21/si/pkg/sipkg"
)

// ExportCmd renders a schema variant's live components and edges into
// a package file.
func ExportCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "export <schema name>",
		Short: "Export a schema's components into a package file",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			app, err := appFromCmd(command)
			if err != nil {
				return err
			}
			defer app.Store.Close()

			out, _ := command.Flags().GetString("out")
			variantName, _ := command.Flags().GetString("variant")
			changeSetName, _ := command.Flags().GetString("change-set")

			ctx := command.Context()
			tx, err := app.begin(ctx, changeSetName)
			if err != nil {
				return err
			}
			defer tx.Rollback()

			sch, err := schema.FindByName(ctx, tx, args[0])
			if err != nil {
				return err
			}
			if sch == nil {
				return fmt.Errorf("schema %q not found", args[0])
			}
			variantID := sch.DefaultVariantID
			if variantName != "" {
				v, err := schema.FindVariantByName(ctx, tx, sch.ID, variantName)
				if err != nil {
					return err
				}
				if v == nil {
					return fmt.Errorf("variant %q not found on schema %q", variantName, sch.Name)
				}
				variantID = v.ID
			}
			variant, err := schema.GetVariant(ctx, tx, variantID)
			if err != nil {
				return err
			}

			components, edges, err := pkgimport.ExportVariantComponents(ctx, tx, sch, variant)
			if err != nil {
				return err
			}

			pkg, err := sipkg.New(sipkg.PkgSpec{
				Metadata: sipkg.PkgMetadata{
					Name:      sch.Name,
					Version:   time.Now().UTC().Format("20060102150405"),
					Kind:      sipkg.PkgKindModule,
					CreatedAt: time.Now().UTC(),
				},
				Components: components,
				Edges:      edges,
			})
			if err != nil {
				return err
			}
			if err := pkg.WriteFile(out); err != nil {
				return err
			}
			fmt.Printf("exported %d component(s) and %d edge(s) to %s\n", len(components), len(edges), out)
			return nil
		},
	}

	command.Flags().String("out", "export.sipkg", "Output file path")
	command.Flags().String("variant", "", "Variant name, defaults to the schema's default variant")
	command.Flags().String("change-set", "", "Export the named change set's view instead of head")
	return command
}
