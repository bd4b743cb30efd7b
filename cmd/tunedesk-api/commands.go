package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/auth"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/config"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/royalties"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/views"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errSQLiteOnly = errors.New("royalty import requires the sqlite source driver")

type renderOptions struct {
	owner    string
	search   string
	filters  []string
	sortKey  string
	desc     bool
	page     int
	pageSize int
	csv      bool
}

func newRenderCommand() *cobra.Command {
	var options renderOptions
	cmd := &cobra.Command{
		Use:   "render <entity>",
		Short: "Render one page of a catalogue table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, closeRuntime, err := openRuntime()
			if err != nil {
				return err
			}
			defer closeRuntime()

			entity, err := catalog.ParseEntity(args[0])
			if err != nil {
				return err
			}
			viewer, err := cliViewer(options.owner)
			if err != nil {
				return err
			}
			tbl, err := rt.factory().NewTable(entity, viewer, options.pageSize)
			if err != nil {
				return err
			}
			defer tbl.Close()
			if err := tbl.Reload(cmd.Context()); err != nil {
				return err
			}

			update, err := options.update()
			if err != nil {
				return err
			}
			if err := tbl.Apply(update); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if options.csv {
				return tbl.ExportCSV(out)
			}
			page := tbl.Render()
			fmt.Fprintln(out, renderPage(page))
			fmt.Fprintf(out, "page %d of %d, %d matching, %d loaded\n", page.State.Page, page.TotalPages, page.Total, page.DatasetSize)
			return nil
		},
	}
	cmd.Flags().StringVar(&options.owner, "owner", "", "Render as this artist instead of as an admin")
	cmd.Flags().StringVar(&options.search, "search", "", "Free-text search")
	cmd.Flags().StringArrayVar(&options.filters, "filter", nil, "Filter as name=value, repeatable")
	cmd.Flags().StringVar(&options.sortKey, "sort", "", "Sort key")
	cmd.Flags().BoolVar(&options.desc, "desc", false, "Sort descending")
	cmd.Flags().IntVar(&options.page, "page", 1, "Page number")
	cmd.Flags().IntVar(&options.pageSize, "rows", 0, "Rows per page (defaults to --page-size)")
	cmd.Flags().BoolVar(&options.csv, "csv", false, "Write every matching row as CSV instead")
	return cmd
}

func (o renderOptions) update() (views.Update, error) {
	update := views.Update{Page: &o.page}
	if o.search != "" {
		update.Search = &o.search
	}
	if len(o.filters) > 0 {
		update.Filters = make(map[string]string, len(o.filters))
		for _, raw := range o.filters {
			name, value, ok := strings.Cut(raw, "=")
			if !ok || strings.TrimSpace(name) == "" {
				return views.Update{}, fmt.Errorf("filter %q must be name=value", raw)
			}
			update.Filters[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}
	if o.sortKey != "" {
		direction := "asc"
		if o.desc {
			direction = "desc"
		}
		update.SortKey = &o.sortKey
		update.SortDirection = &direction
	}
	return update, nil
}

func cliViewer(owner string) (views.Viewer, error) {
	if owner == "" {
		return views.NewViewer("cli", string(views.RoleAdmin))
	}
	return views.NewViewer(owner, string(views.RoleArtist))
}

func newImportRoyaltiesCommand() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "import-royalties <report.csv>",
		Short: "Import a store royalty report for one artist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, closeRuntime, err := openRuntime()
			if err != nil {
				return err
			}
			defer closeRuntime()

			store, ok := rt.source.(*catalog.SQLiteSource)
			if !ok {
				return errSQLiteOnly
			}
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			records, extractErr := royalties.Extract(file, royalties.ExtractConfig{OwnerID: owner})
			if extractErr != nil {
				rt.logger.Warn("royalty rows rejected", zap.String("file", args[0]), zap.Error(extractErr))
				if len(records) == 0 {
					return extractErr
				}
			}
			if err := store.Create(cmd.Context(), &records); err != nil {
				return err
			}
			rt.logger.Info("royalty report imported",
				zap.String("file", args[0]),
				zap.String("owner_id", owner),
				zap.Int("records", len(records)))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d royalty lines for %s\n", len(records), owner)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Artist the report belongs to")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newStatementCommand() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Summarize royalties per store and period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, closeRuntime, err := openRuntime()
			if err != nil {
				return err
			}
			defer closeRuntime()

			var records []catalog.Royalty
			if err := rt.source.List(cmd.Context(), catalog.EntityRoyalties, catalog.Scope{OwnerID: owner}, &records); err != nil {
				return err
			}
			statement := royalties.Summarize(records)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderStatement("Store", statement.Stores, statement.TotalUnits, statement.TotalAmount))
			fmt.Fprintln(out, renderStatement("Period", statement.Periods, statement.TotalUnits, statement.TotalAmount))
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Limit the statement to one artist")
	return cmd
}

func newIssueTokenCommand() *cobra.Command {
	var (
		role  string
		email string
		name  string
	)
	cmd := &cobra.Command{
		Use:   "issue-token <user-id>",
		Short: "Issue a dashboard session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			if _, err := views.ParseRole(role); err != nil {
				return err
			}
			issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
				SigningSecret: []byte(appConfig.SigningSecret),
				Issuer:        appConfig.Issuer,
				TokenTTL:      appConfig.TokenTTL,
			})
			if err != nil {
				return err
			}
			token, expiresIn, err := issuer.IssueSessionToken(auth.Identity{
				UserID:      args[0],
				Email:       email,
				DisplayName: name,
				Roles:       []string{role},
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires in %ds\n", expiresIn)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", auth.RoleArtist, "Session role (artist, admin)")
	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.Flags().StringVar(&name, "name", "", "User display name")
	return cmd
}
