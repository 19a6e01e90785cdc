package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"bargain-bites/internal/config"
	"bargain-bites/internal/grocery"
	"bargain-bites/internal/metrics"
	"bargain-bites/internal/planner"
	"bargain-bites/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackRedo = "redo"
	callbackNext = "next"

	pendingPlanTTL  = 15 * time.Minute
	generateTimeout = 2 * time.Minute
)

// Sender is the part of the Telegram API the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// WeekPlanner generates and stores a plan and returns its shopping list.
type WeekPlanner interface {
	PlanWeek(ctx context.Context, userID, request string, prefs planner.Preferences, week time.Time) (*planner.MealPlan, *shopping.List, error)
}

// ListBuilder builds weekly shopping lists.
type ListBuilder interface {
	BuildList(ctx context.Context, userID string, week time.Time) (*shopping.List, error)
}

// PlanChecker reports whether a user already has a plan for a week.
type PlanChecker interface {
	ExistsForWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error)
}

// UsageReader reads recorded LLM usage.
type UsageReader interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Bot wraps the Telegram API, the meal planner and the shopping lists.
type Bot struct {
	api      Sender
	planner  WeekPlanner
	lists    ListBuilder
	plans    PlanChecker
	sessions *SessionRepository
	usage    UsageReader
	cfg      *config.Config
	logger   *slog.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	weekPlanner WeekPlanner,
	lists ListBuilder,
	plans PlanChecker,
	sessions *SessionRepository,
	usage UsageReader,
	logger *slog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	b := newBot(api, cfg, weekPlanner, lists, plans, sessions, usage, logger)
	b.logger.Info("authorized on telegram", "account", api.Self.UserName)

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		b.logger.Info("webhook set", "description", resp.Description)
	}

	return b, nil
}

func newBot(
	api Sender,
	cfg *config.Config,
	weekPlanner WeekPlanner,
	lists ListBuilder,
	plans PlanChecker,
	sessions *SessionRepository,
	usage UsageReader,
	logger *slog.Logger,
) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:      api,
		planner:  weekPlanner,
		lists:    lists,
		plans:    plans,
		sessions: sessions,
		usage:    usage,
		cfg:      cfg,
		logger:   logger.With("component", "telegram"),
		now:      time.Now,
	}
}

// ServeHTTP handles webhook updates. Telegram only needs a quick 200; the
// update itself is processed in the background.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", "error", err)
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.HandleUpdate(update)
	}()
}

// Wait blocks until in-flight updates are done.
func (b *Bot) Wait() {
	b.wg.Wait()
}

// HandleUpdate dispatches one update from an allowed user.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if !b.allowed(update.CallbackQuery.From) {
			return
		}
		b.handleCallbackQuery(update.CallbackQuery)
	case update.Message != nil:
		if !b.allowed(update.Message.From) {
			return
		}
		b.processMessage(update.Message)
	}
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if !b.cfg.IsAllowedUser(from.ID) {
		b.logger.Warn("unauthorized access attempt", "telegram_user_id", from.ID, "username", from.UserName)
		return false
	}
	return true
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.sendMarkdown(msg.Chat.ID, helpText)
	case "list":
		b.handleListCommand(msg)
	case "usage":
		b.handleUsageRequest(msg)
	case "":
		b.handlePlannerRequest(msg)
	default:
		b.sendMarkdown(msg.Chat.ID, "Unknown command.\n\n"+helpText)
	}
}

const helpText = "🛒 *Bargain Bites*\n\n" +
	"Send me what you feel like eating and I will plan next week around this week's deals.\n\n" +
	"/list - this week's grocery list\n" +
	"/list 2024-03-17 - the list for the week containing that date\n" +
	"/usage - token usage (admin)"

func (b *Bot) handleListCommand(msg *tgbotapi.Message) {
	week, err := planner.ParseWeek(msg.CommandArguments(), b.now())
	if err != nil {
		b.sendMarkdown(msg.Chat.ID, "❌ Use a date like `2024-03-17`.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	list, err := b.lists.BuildList(ctx, userKey(msg.From.ID), week)
	if err != nil {
		b.logger.Error("failed to build list", "error", err)
		b.sendMarkdown(msg.Chat.ID, "❌ Could not load your grocery list.")
		return
	}
	b.sendMarkdown(msg.Chat.ID, formatGroceryListMarkdown(list))
}

func (b *Bot) handleUsageRequest(msg *tgbotapi.Message) {
	if b.cfg.AdminTelegramID == 0 || msg.From.ID != b.cfg.AdminTelegramID {
		b.sendMarkdown(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	usage, err := b.usage.GetDailyUsage(context.Background(), 7)
	if err != nil {
		b.logger.Error("failed to fetch usage", "error", err)
		b.sendMarkdown(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	b.sendMarkdown(msg.Chat.ID, formatUsageMarkdown(usage, metrics.GetSysHealth(b.cfg.DatabasePath)))
}

func (b *Bot) handlePlannerRequest(msg *tgbotapi.Message) {
	request := strings.TrimSpace(msg.Text)
	if request == "" {
		return
	}

	sent, err := b.sendMarkdown(msg.Chat.ID, "🧑‍🍳 *Thinking...*\n(Planning meals around this week's deals)")
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	userID := userKey(msg.From.ID)
	nextWeek := planner.NextWeekStart(b.now())

	exists, err := b.plans.ExistsForWeek(ctx, userID, nextWeek)
	if err != nil {
		b.logger.Warn("failed to check existing plan", "user_id", userID, "error", err)
	}
	if exists {
		b.askWhichWeek(ctx, msg.Chat.ID, sent.MessageID, userID, request, nextWeek)
		return
	}

	b.generateAndSendPlan(ctx, userID, msg.Chat.ID, sent.MessageID, request, nextWeek)
}

func (b *Bot) askWhichWeek(ctx context.Context, chatID int64, messageID int, userID, request string, nextWeek time.Time) {
	_, err := b.sessions.Create(ctx, userID, SessionPendingPlan, "awaiting_week", SessionContextData{
		Request:   request,
		WeekStart: planner.WeekKey(nextWeek),
	}, pendingPlanTTL)
	if err != nil {
		b.logger.Error("failed to store pending request", "user_id", userID, "error", err)
		b.editMarkdown(chatID, messageID, "❌ Something went wrong, please try again.", nil)
		return
	}

	text := fmt.Sprintf("🗓️ A plan already exists for next week (starting *%s*).\nWhat would you like to do?",
		nextWeek.Format("2006-01-02"))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Redo Next Week", callbackRedo),
			tgbotapi.NewInlineKeyboardButtonData("⏭️ Plan Following Week", callbackNext),
		),
	)
	b.editMarkdown(chatID, messageID, text, &keyboard)
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", "error", err)
	}
	if query.Message == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	userID := userKey(query.From.ID)

	session, err := b.sessions.GetActive(ctx, userID, b.now())
	if err != nil || session == nil || session.SessionType != SessionPendingPlan {
		b.editMarkdown(chatID, messageID, "⌛ That request expired, please send it again.", nil)
		return
	}
	data, err := session.GetContextData()
	if err != nil {
		b.logger.Warn("corrupt session data", "session_id", session.ID, "error", err)
		b.editMarkdown(chatID, messageID, "⌛ That request expired, please send it again.", nil)
		return
	}
	if err := b.sessions.Delete(ctx, session.ID); err != nil {
		b.logger.Warn("failed to delete session", "session_id", session.ID, "error", err)
	}

	target, err := planner.ParseWeek(data.WeekStart, b.now())
	if err != nil {
		target = planner.NextWeekStart(b.now())
	}
	if query.Data == callbackNext {
		target = target.AddDate(0, 0, 7)
	}

	b.editMarkdown(chatID, messageID, "🧑‍🍳 *Thinking...*", nil)
	b.generateAndSendPlan(ctx, userID, chatID, messageID, data.Request, target)
}

func (b *Bot) generateAndSendPlan(ctx context.Context, userID string, chatID int64, messageID int, request string, week time.Time) {
	b.logger.Info("generating plan", "user_id", userID, "week", planner.WeekKey(week))

	plan, list, err := b.planner.PlanWeek(ctx, userID, request, planner.Preferences{}, week)
	if err != nil {
		b.logger.Error("error generating plan", "user_id", userID, "error", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		b.editMarkdown(chatID, messageID, fmt.Sprintf("❌ *Error generating plan:*\n```\n%v\n```", safeErr), nil)
		return
	}

	b.editMarkdown(chatID, messageID, b.formatPlanMarkdown(plan), nil)
	if list != nil {
		b.sendMarkdown(chatID, formatGroceryListMarkdown(list))
	}
}

// SendAdminAlert messages the admin, if one is configured.
func (b *Bot) SendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.sendMarkdown(b.cfg.AdminTelegramID, text)
}

func (b *Bot) sendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
	return sent, err
}

func (b *Bot) editMarkdown(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = markup
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("failed to edit message", "chat_id", chatID, "error", err)
	}
}

func userKey(id int64) string {
	return "tg:" + strconv.FormatInt(id, 10)
}

// formatPlanMarkdown lists each day's meal titles.
func (b *Bot) formatPlanMarkdown(plan *planner.MealPlan) string {
	var days map[string]json.RawMessage
	if err := json.Unmarshal(plan.Days, &days); err != nil {
		b.logger.Warn("failed to decode meal plan days", "plan_id", plan.ID, "user_id", plan.UserID, "error", err)
	}

	var pb strings.Builder
	fmt.Fprintf(&pb, "📅 *Meal Plan* - week of %s\n\n", plan.WeekStart.Format("Jan 2"))
	for _, day := range grocery.Weekdays {
		raw, ok := days[day]
		if !ok {
			continue
		}
		titles := mealTitles(raw)
		if len(titles) == 0 {
			continue
		}
		fmt.Fprintf(&pb, "*%s*: %s\n", strings.ToUpper(day[:1])+day[1:], escape(strings.Join(titles, " / ")))
	}
	return pb.String()
}

func mealTitles(raw json.RawMessage) []string {
	var day struct {
		Title  string `json:"title"`
		Lunch  *struct {
			Title string `json:"title"`
		} `json:"lunch"`
		Dinner *struct {
			Title string `json:"title"`
		} `json:"dinner"`
	}
	if err := json.Unmarshal(raw, &day); err != nil {
		return nil
	}
	var titles []string
	if day.Lunch != nil && day.Lunch.Title != "" {
		titles = append(titles, day.Lunch.Title)
	}
	if day.Dinner != nil && day.Dinner.Title != "" {
		titles = append(titles, day.Dinner.Title)
	}
	if len(titles) == 0 && day.Title != "" {
		titles = append(titles, day.Title)
	}
	return titles
}

// formatGroceryListMarkdown wraps the receipt in a pre block so Telegram
// keeps its columns.
func formatGroceryListMarkdown(list *shopping.List) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Grocery List*\n```\n")
	var receipt strings.Builder
	_ = shopping.WriteReceipt(&receipt, list)
	sb.WriteString(strings.ReplaceAll(receipt.String(), "`", "'"))
	sb.WriteString("```")
	if !list.HasPlan {
		sb.WriteString("\n_No meal plan for this week yet. Send me a request to make one._")
	}
	return sb.String()
}

func formatUsageMarkdown(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Database: %s\n", health.DBSize)
	return sb.String()
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
