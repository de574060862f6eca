package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/centromex/foodwaste/internal/catalog"
	"github.com/centromex/foodwaste/internal/db"
	"github.com/centromex/foodwaste/internal/listings"
	"github.com/centromex/foodwaste/internal/models"
	"github.com/centromex/foodwaste/internal/render"
)

func addFilterFlags(cmd *cobra.Command, spec *listings.FilterSpec) {
	cmd.Flags().StringVar(&spec.City, "city", listings.Wildcard, "exact listing location")
	cmd.Flags().StringVar(&spec.ProviderName, "provider", listings.Wildcard, "exact provider name")
	cmd.Flags().StringVar(&spec.FoodType, "food", listings.Wildcard, "food type")
	cmd.Flags().StringVar(&spec.MealType, "meal", listings.Wildcard, "meal type")
}

func (a *app) optionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Show the selectable values of each filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.dash.FilterOptions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Options(opts))
			return nil
		},
	}
}

func (a *app) listingsCmd() *cobra.Command {
	var spec listings.FilterSpec
	var withContacts bool
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Show food listings matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := a.dash.Filter(cmd.Context(), spec)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Filtered food listings (%d)\n", len(rows))
			fmt.Fprintln(out, render.Listings(rows))
			if withContacts && len(rows) > 0 {
				contacts, err := a.dash.ContactsFor(cmd.Context(), listings.ProviderIDs(rows))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "Provider contact details")
				fmt.Fprintln(out, render.Contacts(contacts))
			}
			return nil
		},
	}
	addFilterFlags(cmd, &spec)
	cmd.Flags().BoolVar(&withContacts, "contacts", false, "also show provider contact details")
	return cmd
}

func (a *app) contactsCmd() *cobra.Command {
	var spec listings.FilterSpec
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Show provider contacts for the filtered listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, err := a.dash.Contacts(cmd.Context(), spec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Contacts(contacts))
			return nil
		},
	}
	addFilterFlags(cmd, &spec)
	return cmd
}

func (a *app) reportsCmd() *cobra.Command {
	var runAll bool
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List the report catalog, or run every report with --run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !runAll {
				for _, r := range catalog.All() {
					fmt.Fprintf(out, "%-32s %s\n", r.Name, r.Title)
				}
				return nil
			}
			tables, err := a.dash.Reports(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintln(out, render.Report(t))
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&runAll, "run", false, "run every report")
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [name]",
		Short: "Run one report from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.dash.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Report(t))
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var l models.Listing
	var expiry, foodType, mealType string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a food listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if expiry != "" {
				t, err := db.ParseTime(expiry)
				if err != nil {
					return fmt.Errorf("invalid --expiry: %w", err)
				}
				l.ExpiryDate = t
			}
			l.FoodType = models.FoodType(foodType)
			l.MealType = models.MealType(mealType)

			created, err := a.dash.CreateListing(cmd.Context(), l)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "New food listing added: %s\n", render.ListingLine(created))
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&l.FoodID, "id", 0, "food id (required unless the backend is memory)")
	f.StringVar(&l.FoodName, "name", "", "food name")
	f.Int64Var(&l.Quantity, "qty", 1, "quantity")
	f.StringVar(&expiry, "expiry", "", "expiry date, YYYY-MM-DD")
	f.Int64Var(&l.ProviderID, "provider", 0, "provider id")
	f.StringVar(&l.ProviderType, "provider-type", "", "provider type")
	f.StringVar(&l.Location, "location", "", "city")
	f.StringVar(&foodType, "food", string(models.FoodVegetarian), "Vegetarian, Non-Vegetarian or Vegan")
	f.StringVar(&mealType, "meal", string(models.MealLunch), "Breakfast, Lunch, Dinner or Snacks")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [food-id] [quantity]",
		Short: "Set the quantity of a food listing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			foodID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid food id %q", args[0])
			}
			quantity, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			if err := a.dash.UpdateQuantity(cmd.Context(), foodID, quantity); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Food listing %d updated!\n", foodID)
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [food-id]",
		Short: "Delete a food listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			foodID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid food id %q", args[0])
			}
			if err := a.dash.DeleteListing(cmd.Context(), foodID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Food listing %d deleted!\n", foodID)
			return nil
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a CSV dataset into the configured backend",
		Long: `Reads the four CSV tables from --from and replaces every table of the
configured backend with them. Use it to seed the sqlite backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				return errors.New("--from is required")
			}
			src, err := db.NewCSV(from, a.cfg.Storage.Files)
			if err != nil {
				return err
			}
			defer src.Close()

			snap, err := db.Copy(cmd.Context(), a.store, src)
			if err != nil {
				return err
			}
			a.logger.Info("Dataset imported",
				zap.String("from", from),
				zap.String("backend", a.cfg.Storage.Backend),
				zap.Int("providers", len(snap.Providers)),
				zap.Int("receivers", len(snap.Receivers)),
				zap.Int("listings", len(snap.Listings)),
				zap.Int("claims", len(snap.Claims)))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d providers, %d receivers, %d listings, %d claims\n",
				len(snap.Providers), len(snap.Receivers), len(snap.Listings), len(snap.Claims))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "directory holding the CSV dataset")
	return cmd
}
