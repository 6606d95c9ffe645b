package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/promise"
	"github.com/roach88/storefront/internal/shop"
)

// NewCategoriesCommand creates the categories command.
func NewCategoriesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List root categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session, out *OutputFormatter) error {
				v, err := s.run(cmd.Context(), shop.OpRootCategories, s.actions.RootCategories())
				if err != nil {
					return err
				}
				cats, _ := promise.Result[[]catalog.Category](v)
				return out.Success(cats, func(w io.Writer) {
					for _, c := range cats {
						fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
					}
				})
			})
		},
	}
}

// NewCategoryCommand creates the category command.
func NewCategoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "category <id>",
		Short: "Show a category with its goods and subcategories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session, out *OutputFormatter) error {
				v, err := s.run(cmd.Context(), shop.OpCategoryByID, s.actions.CategoryByID(args[0]))
				if err != nil {
					return err
				}
				cat, _ := promise.Result[catalog.Category](v)
				return out.Success(cat, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%s)\n", cat.Name, cat.ID)
					for _, sub := range cat.SubCategories {
						fmt.Fprintf(w, "  + %s\t%s\n", sub.ID, sub.Name)
					}
					for _, g := range cat.Goods {
						fmt.Fprintf(w, "  %s\t%s\t%.2f\n", g.ID, g.Name, g.Price)
					}
				})
			})
		},
	}
}

// NewGoodCommand creates the good command.
func NewGoodCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "good <id>",
		Short: "Show a good",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session, out *OutputFormatter) error {
				v, err := s.run(cmd.Context(), shop.OpGoodByID, s.actions.GoodByID(args[0]))
				if err != nil {
					return err
				}
				good, _ := promise.Result[catalog.Good](v)
				return out.Success(good, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%s)\n", good.Name, good.ID)
					fmt.Fprintf(w, "price: %.2f\n", good.Price)
					if good.Description != "" {
						fmt.Fprintln(w, good.Description)
					}
					for _, img := range good.Images {
						fmt.Fprintf(w, "image: %s\n", img.URL)
					}
				})
			})
		},
	}
}

// withSession opens a session for the duration of fn. Errors are also
// written through the formatter so json callers get an error envelope.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(s *session, out *OutputFormatter) error) error {
	out := newFormatter(opts, cmd.OutOrStdout())
	s, err := openSession(opts)
	if err != nil {
		_ = out.Error(err)
		return err
	}
	defer s.Close()

	if err := fn(s, out); err != nil {
		_ = out.Error(err)
		return err
	}
	return nil
}
