package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/centromex/foodwaste/internal/catalog"
	"github.com/centromex/foodwaste/internal/dashboard"
	"github.com/centromex/foodwaste/internal/db"
	"github.com/centromex/foodwaste/internal/listings"
	"github.com/centromex/foodwaste/internal/models"
	"github.com/centromex/foodwaste/internal/render"
)

// maxMessageLen stays under Telegram's 4096 character limit once the
// <pre> wrapper is added.
const maxMessageLen = 3900

// maxListingLines caps how many listings one /listings reply shows.
const maxListingLines = 40

const helpText = "Food Wastage Dashboard\n\n" +
	"Commands:\n" +
	"/options - Show filter values\n" +
	"/listings [city=..; provider=..; food=..; meal=..] - Filtered listings\n" +
	"/contacts [filters] - Provider contacts for the filtered listings\n" +
	"/reports - List available reports\n" +
	"/report <name> - Run one report\n" +
	"/whoami - Show your Telegram user id\n\n" +
	"Editors:\n" +
	"/add id=..; name=..; qty=..; expiry=YYYY-MM-DD; provider=..; type=..; location=..; food=..; meal=..\n" +
	"/update <food_id> <quantity>\n" +
	"/delete <food_id>"

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api       *tgbotapi.BotAPI
	out       sender
	dash      *dashboard.Service
	editorIDs []int64
	timeout   int
	logger    *zap.Logger
}

type Config struct {
	Token     string
	EditorIDs []int64
	Timeout   int
}

func New(cfg Config, dash *dashboard.Service, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Authorized on account", zap.String("username", api.Self.UserName))

	b := newBot(api, cfg, dash, logger)
	b.api = api
	return b, nil
}

func newBot(out sender, cfg Config, dash *dashboard.Service, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60
	}
	return &Bot{
		out:       out,
		dash:      dash,
		editorIDs: cfg.EditorIDs,
		timeout:   timeout,
		logger:    logger,
	}
}

// Run processes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if !msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, Reply{Text: "Use /help to see available commands."})
		return
	}

	reply := b.Respond(ctx, msg.From.ID, msg.Command(), msg.CommandArguments())
	b.sendMessage(msg.Chat.ID, reply)
}

// Reply is the text answer to one command. Pre replies are sent as
// monospace so tables line up.
type Reply struct {
	Text string
	Pre  bool
}

// Respond executes one command for userID and returns the answer.
func (b *Bot) Respond(ctx context.Context, userID int64, command, args string) Reply {
	switch command {
	case "start", "help":
		return Reply{Text: helpText}
	case "whoami":
		return Reply{Text: fmt.Sprintf("Your user id is %d.", userID)}
	case "options":
		return b.handleOptions(ctx)
	case "listings":
		return b.handleListings(ctx, args)
	case "contacts":
		return b.handleContacts(ctx, args)
	case "reports":
		return b.handleReports()
	case "report":
		return b.handleReport(ctx, args)
	case "add":
		return b.editorOnly(userID, func() Reply { return b.handleAdd(ctx, args) })
	case "update":
		return b.editorOnly(userID, func() Reply { return b.handleQuantity(ctx, args) })
	case "delete":
		return b.editorOnly(userID, func() Reply { return b.handleDelete(ctx, args) })
	default:
		return Reply{Text: "Unknown command. Use /help to see available commands."}
	}
}

func (b *Bot) handleOptions(ctx context.Context) Reply {
	opts, err := b.dash.FilterOptions(ctx)
	if err != nil {
		b.logger.Error("Error loading filter options", zap.Error(err))
		return Reply{Text: "Error loading filter options. Please try again."}
	}
	return Reply{Text: render.Options(opts)}
}

func (b *Bot) handleListings(ctx context.Context, args string) Reply {
	spec, err := parseFilter(args)
	if err != nil {
		return Reply{Text: err.Error()}
	}

	rows, err := b.dash.Filter(ctx, spec)
	if err != nil {
		b.logger.Error("Error filtering listings", zap.Error(err))
		return Reply{Text: "Error fetching listings. Please try again."}
	}
	if len(rows) == 0 {
		return Reply{Text: "No listings match these filters."}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 LISTINGS (%d)\n\n", len(rows)))
	for i, l := range rows {
		if i == maxListingLines {
			sb.WriteString(fmt.Sprintf("...and %d more. Narrow the filters to see them.\n", len(rows)-i))
			break
		}
		sb.WriteString(render.ListingLine(l))
		sb.WriteString("\n")
	}
	return Reply{Text: strings.TrimRight(sb.String(), "\n")}
}

func (b *Bot) handleContacts(ctx context.Context, args string) Reply {
	spec, err := parseFilter(args)
	if err != nil {
		return Reply{Text: err.Error()}
	}

	contacts, err := b.dash.Contacts(ctx, spec)
	if err != nil {
		b.logger.Error("Error fetching contacts", zap.Error(err))
		return Reply{Text: "Error fetching contacts. Please try again."}
	}
	return Reply{Text: render.Contacts(contacts), Pre: true}
}

func (b *Bot) handleReports() Reply {
	var sb strings.Builder
	sb.WriteString("📊 REPORTS\n\n")
	for _, r := range catalog.All() {
		sb.WriteString(fmt.Sprintf("/report %s - %s\n", r.Name, r.Title))
	}
	return Reply{Text: strings.TrimRight(sb.String(), "\n")}
}

func (b *Bot) handleReport(ctx context.Context, args string) Reply {
	name := strings.TrimSpace(args)
	if name == "" {
		return Reply{Text: "Usage: /report <name>\nUse /reports to see the names."}
	}

	table, err := b.dash.Report(ctx, name)
	if errors.Is(err, catalog.ErrUnknownReport) {
		return Reply{Text: fmt.Sprintf("Unknown report %q. Use /reports to see the names.", name)}
	}
	if err != nil {
		b.logger.Error("Error running report", zap.String("report", name), zap.Error(err))
		return Reply{Text: "Error running report. Please try again."}
	}
	return Reply{Text: render.Report(table), Pre: true}
}

func (b *Bot) handleAdd(ctx context.Context, args string) Reply {
	l, err := parseListing(args)
	if err != nil {
		return Reply{Text: err.Error() + "\n\nUsage: /add id=..; name=..; qty=..; expiry=YYYY-MM-DD; provider=..; type=..; location=..; food=..; meal=.."}
	}

	created, err := b.dash.CreateListing(ctx, l)
	if err != nil {
		return Reply{Text: "Could not add listing: " + b.userError(err)}
	}
	return Reply{Text: "✅ Listing added:\n" + render.ListingLine(created)}
}

func (b *Bot) handleQuantity(ctx context.Context, args string) Reply {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return Reply{Text: "Usage: /update <food_id> <quantity>\nExample: /update 42 15"}
	}
	foodID, err := parseID(fields[0])
	if err != nil {
		return Reply{Text: "Usage: /update <food_id> <quantity>\nExample: /update 42 15"}
	}
	quantity, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Reply{Text: "Quantity must be a whole number."}
	}

	if err := b.dash.UpdateQuantity(ctx, foodID, quantity); err != nil {
		return Reply{Text: fmt.Sprintf("Could not update listing #%d: %s", foodID, b.userError(err))}
	}
	return Reply{Text: fmt.Sprintf("✅ Listing #%d quantity set to %d.", foodID, quantity)}
}

func (b *Bot) handleDelete(ctx context.Context, args string) Reply {
	foodID, err := parseID(args)
	if err != nil {
		return Reply{Text: "Usage: /delete <food_id>\nExample: /delete 42"}
	}

	if err := b.dash.DeleteListing(ctx, foodID); err != nil {
		return Reply{Text: fmt.Sprintf("Could not delete listing #%d: %s", foodID, b.userError(err))}
	}
	return Reply{Text: fmt.Sprintf("⚠️ Listing #%d deleted.", foodID)}
}

func (b *Bot) sendMessage(chatID int64, reply Reply) {
	for _, chunk := range splitMessage(reply.Text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if reply.Pre {
			msg.Text = "<pre>" + html.EscapeString(chunk) + "</pre>"
			msg.ParseMode = tgbotapi.ModeHTML
		}
		if _, err := b.out.Send(msg); err != nil {
			b.logger.Warn("Error sending message", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
	}
}

func (b *Bot) isEditor(userID int64) bool {
	return slices.Contains(b.editorIDs, userID)
}

func (b *Bot) editorOnly(userID int64, handle func() Reply) Reply {
	if !b.isEditor(userID) {
		return Reply{Text: "Only editors can change listings."}
	}
	return handle()
}

func (b *Bot) userError(err error) string {
	switch {
	case errors.Is(err, listings.ErrNotFound):
		return "no listing with that id"
	case errors.Is(err, listings.ErrDuplicateKey):
		return "a listing with that id already exists"
	case errors.Is(err, listings.ErrValidation):
		return strings.TrimPrefix(err.Error(), listings.ErrValidation.Error()+": ")
	default:
		b.logger.Error("Listing change failed", zap.Error(err))
		return "storage error, please try again"
	}
}

// Helper functions

func parseID(args string) (int64, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return 0, fmt.Errorf("no ID provided")
	}
	return strconv.ParseInt(args, 10, 64)
}

// parseFields splits "key=value; key=value" arguments. Keys are lowercased.
func parseFields(args string) (map[string]string, error) {
	fields := make(map[string]string)
	for _, part := range strings.Split(args, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", part)
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return fields, nil
}

func parseFilter(args string) (listings.FilterSpec, error) {
	fields, err := parseFields(args)
	if err != nil {
		return listings.FilterSpec{}, err
	}
	var spec listings.FilterSpec
	for key, value := range fields {
		switch key {
		case "city":
			spec.City = value
		case "provider":
			spec.ProviderName = value
		case "food":
			spec.FoodType = value
		case "meal":
			spec.MealType = value
		default:
			return listings.FilterSpec{}, fmt.Errorf("unknown filter %q; use city, provider, food or meal", key)
		}
	}
	return spec, nil
}

func parseListing(args string) (models.Listing, error) {
	fields, err := parseFields(args)
	if err != nil {
		return models.Listing{}, err
	}

	l := models.Listing{
		FoodName:     fields["name"],
		ProviderType: fields["type"],
		Location:     fields["location"],
		FoodType:     models.FoodType(fields["food"]),
		MealType:     models.MealType(fields["meal"]),
	}

	ints := map[string]*int64{"id": &l.FoodID, "qty": &l.Quantity, "provider": &l.ProviderID}
	for key, dst := range ints {
		v, ok := fields[key]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return models.Listing{}, fmt.Errorf("%s must be a whole number, got %q", key, v)
		}
		*dst = n
	}

	if v, ok := fields["expiry"]; ok {
		t, err := db.ParseTime(v)
		if err != nil {
			return models.Listing{}, fmt.Errorf("expiry: %v", err)
		}
		l.ExpiryDate = t
	}

	return l, nil
}

// splitMessage cuts text on line boundaries into chunks of at most limit
// bytes. A single longer line is cut hard.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var sb strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if sb.Len() > 0 {
				chunks = append(chunks, strings.TrimRight(sb.String(), "\n"))
				sb.Reset()
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if sb.Len()+len(line) > limit {
			chunks = append(chunks, strings.TrimRight(sb.String(), "\n"))
			sb.Reset()
		}
		sb.WriteString(line)
	}
	if sb.Len() > 0 {
		chunks = append(chunks, strings.TrimRight(sb.String(), "\n"))
	}
	return chunks
}
