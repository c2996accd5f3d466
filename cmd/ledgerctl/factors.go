package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/service"
)

func (o *rootOptions) openCatalog(ctx context.Context) (*service.FactorCatalog, error) {
	path, err := o.resolveCatalogPath()
	if err != nil {
		return nil, err
	}
	c := service.NewFactorCatalog(path)
	c.Warm(ctx)
	if c.Status().Missing {
		return nil, fmt.Errorf("catalog file not found: %s", path)
	}
	return c, nil
}

func searchCmd(opts *rootOptions) *cobra.Command {
	var (
		lang  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Fuzzy search emission factors by name and tags",
		Long: `Search the emission factor catalog. Archived factors are never returned.

Examples:
  ledgerctl search "transport routier"
  ledgerctl search "road freight" --lang en --limit 5
  ledgerctl search béton --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			language := domain.ParseLanguage(strings.ToLower(lang))
			hits, err := c.Search(cmd.Context(), strings.Join(args, " "), language, limit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, hits)
			}
			if len(hits) == 0 {
				fmt.Fprintln(out, "No factors found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSCORE\tFACTOR\tUNIT\tNAME")
			for _, h := range hits {
				fmt.Fprintf(tw, "%s\t%.3f\t%g\t%s\t%s\n",
					h.Factor.ID, h.Score, h.Factor.Value, h.Factor.Unit(language), h.Factor.Name(language))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&lang, "lang", string(domain.LanguageFR), "result language (fr, en)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results")

	return cmd
}

func factorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "factor [id]",
		Short: "Show one emission factor with its gas breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			f, ok := c.GetByID(args[0])
			if !ok {
				return fmt.Errorf("factor %s not found", args[0])
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, f)
			}
			printFactor(out, f)
			return nil
		},
	}
}

func printFactor(w io.Writer, f *domain.Factor) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", label, value)
		}
	}
	row("ID", f.ID)
	row("Name (fr)", f.NameFR)
	row("Name (en)", f.NameEN)
	row("Factor", fmt.Sprintf("%g %s", f.Value, f.UnitFR))
	row("Category", f.Category)
	row("Source", f.Source)
	row("Location", f.GeographicLocation)
	row("Validity", f.ValidityPeriod)
	row("Status", f.StatusLabel)
	gas := func(label string, v *float64) {
		if v != nil {
			row(label, fmt.Sprintf("%g", *v))
		}
	}
	gas("CO2 fossil", f.CO2Fossil)
	gas("CH4 fossil", f.CH4Fossil)
	gas("CH4 bio", f.CH4Bio)
	gas("N2O", f.N2O)
	gas("CO2 bio", f.CO2Bio)
	gas("Other GHG", f.OtherGHG)
	row("Comment", f.CommentFR)
	_ = tw.Flush()
}

func categoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List distinct factor categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), c.Categories(), opts.jsonOutput)
		},
	}
}

func sourcesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List distinct factor sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), c.Sources(), opts.jsonOutput)
		},
	}
}

func printList(w io.Writer, items []string, asJSON bool) error {
	if asJSON {
		return writeJSON(w, items)
	}
	for _, item := range items {
		fmt.Fprintln(w, item)
	}
	return nil
}

func statsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog load statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			status := c.Status()

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, status)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Path:\t%s\n", status.Path)
			fmt.Fprintf(tw, "Factors:\t%d\n", status.Total)
			fmt.Fprintf(tw, "Valid:\t%d\n", status.Valid)
			fmt.Fprintf(tw, "Archived:\t%d\n", status.Archived)
			fmt.Fprintf(tw, "Categories:\t%d\n", status.Categories)
			fmt.Fprintf(tw, "Sources:\t%d\n", status.Sources)
			fmt.Fprintf(tw, "Skipped rows:\t%d\n", status.Skipped)
			fmt.Fprintf(tw, "Duplicate ids:\t%d\n", status.Duplicates)
			return tw.Flush()
		},
	}
}
