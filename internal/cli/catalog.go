package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/backpressure/internal/catalog"
)

// CatalogView summarizes a validated catalog.
type CatalogView struct {
	Source    string   `json:"source"`
	Valid     bool     `json:"valid"`
	Modules   []string `json:"modules"`
	Protocols []string `json:"protocols"`
	Upgrades  []string `json:"upgrades"`
	Contracts []string `json:"contracts"`
	Perks     []string `json:"perks"`
}

func newCatalogView(source string, c *catalog.Catalog) CatalogView {
	v := CatalogView{Source: source, Valid: true}
	for _, m := range c.Modules() {
		v.Modules = append(v.Modules, m.Kind)
	}
	for _, p := range c.Protocols() {
		v.Protocols = append(v.Protocols, p.ID)
	}
	for _, u := range c.Upgrades() {
		v.Upgrades = append(v.Upgrades, u.ID)
	}
	for _, t := range c.Contracts() {
		v.Contracts = append(v.Contracts, t.ID)
	}
	for _, p := range c.Perks() {
		v.Perks = append(v.Perks, p.ID)
	}
	return v
}

// Text renders the catalog listing.
func (v CatalogView) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Catalog valid (%s)\n", v.Source)
	for _, row := range []struct {
		name string
		ids  []string
	}{
		{"modules", v.Modules},
		{"protocols", v.Protocols},
		{"upgrades", v.Upgrades},
		{"contracts", v.Contracts},
		{"perks", v.Perks},
	} {
		fmt.Fprintf(&b, "  %-10s %s\n", row.name, strings.Join(row.ids, ", "))
	}
	return b.String()
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	var source bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and list the content catalog",
		Long: `Load the content catalog, validate it and list its entries.

Uses --catalog (or BACKPRESSURE_CATALOG) when set, otherwise the built-in
catalog. --source prints the built-in CUE as a starting point for custom
content.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)
			if source {
				_, err := cmd.OutOrStdout().Write(catalog.DefaultSource())
				return err
			}

			name := rootOpts.Catalog
			if name == "" {
				name = "built-in"
			}
			out.VerboseLog("Loading catalog from %s", name)

			c, err := loadCatalog(rootOpts.Catalog)
			if err != nil {
				return out.Fail(ExitFailure, ErrCodeCatalog, "catalog is invalid", err)
			}
			return out.Success(newCatalogView(name, c))
		},
	}

	cmd.Flags().BoolVar(&source, "source", false, "print the built-in catalog source")

	return cmd
}
