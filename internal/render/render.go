// Package render turns dashboard results into plain-text tables for the
// chat and terminal shells.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/centromex/foodwaste/internal/catalog"
	"github.com/centromex/foodwaste/internal/listings"
	"github.com/centromex/foodwaste/internal/models"
)

var listingHeaders = []string{
	"Food_ID", "Food_Name", "Quantity", "Expiry_Date", "Provider_ID",
	"Provider_Type", "Location", "Food_Type", "Meal_Type",
}

// Cell formats a single report cell. Floats always show two decimals.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	default:
		return fmt.Sprint(x)
	}
}

func grid(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

// Report renders a catalog table under its title.
func Report(t catalog.Table) string {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		cells := make([]string, len(r))
		for i, v := range r {
			cells[i] = Cell(v)
		}
		rows = append(rows, cells)
	}

	var sb strings.Builder
	sb.WriteString(t.Title)
	sb.WriteString("\n")
	if len(rows) == 0 {
		sb.WriteString("(no rows)")
		return sb.String()
	}
	sb.WriteString(grid(t.Columns, rows))
	return sb.String()
}

// Listings renders listing rows as a table.
func Listings(ls []models.Listing) string {
	if len(ls) == 0 {
		return "No listings match."
	}
	rows := make([][]string, 0, len(ls))
	for _, l := range ls {
		rows = append(rows, []string{
			strconv.FormatInt(l.FoodID, 10),
			l.FoodName,
			strconv.FormatInt(l.Quantity, 10),
			Date(l),
			strconv.FormatInt(l.ProviderID, 10),
			l.ProviderType,
			l.Location,
			string(l.FoodType),
			string(l.MealType),
		})
	}
	return grid(listingHeaders, rows)
}

// Date formats a listing's expiry date.
func Date(l models.Listing) string {
	if l.ExpiryDate.IsZero() {
		return ""
	}
	return l.ExpiryDate.Format("2006-01-02")
}

// ListingLine is a one-line summary used in chat replies.
func ListingLine(l models.Listing) string {
	return fmt.Sprintf("#%d %s • %d • %s • %s/%s • expires %s",
		l.FoodID, l.FoodName, l.Quantity, l.Location, l.FoodType, l.MealType, Date(l))
}

// Contacts renders provider contact details.
func Contacts(cs []models.Contact) string {
	if len(cs) == 0 {
		return "No provider contacts."
	}
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{strconv.FormatInt(c.ProviderID, 10), c.Name, c.Contact})
	}
	return grid([]string{"Provider_ID", "Name", "Contact"}, rows)
}

// Options renders the selectable filter values, wildcard first.
func Options(o listings.FilterOptions) string {
	var sb strings.Builder
	section := func(title string, values []string) {
		sb.WriteString(title)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(append([]string{listings.Wildcard}, values...), ", "))
		sb.WriteString("\n")
	}
	section("City", o.Cities)
	section("Provider", o.ProviderNames)
	section("Food type", o.FoodTypes)
	section("Meal type", o.MealTypes)
	return strings.TrimRight(sb.String(), "\n")
}
