package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"referral-bot/internal/models"
	"referral-bot/internal/refcode"
	"referral-bot/internal/referral"
	"referral-bot/internal/utils"
)

// Accounts is the slice of the store the router needs.
type Accounts interface {
	GetOrCreateAccount(id, username string) (*models.User, error)
	CountReferrals(accountID string) (int64, error)
}

// Router classifies incoming text as a command, a referral-code candidate or
// free text, and drives the referral engine. The sending account is
// guaranteed to exist before any handling runs.
type Router struct {
	accounts Accounts
	engine   *referral.Engine
	notifier Notifier
	botName  string
}

func NewRouter(accounts Accounts, engine *referral.Engine, notifier Notifier, botName string) *Router {
	return &Router{
		accounts: accounts,
		engine:   engine,
		notifier: notifier,
		botName:  botName,
	}
}

func (r *Router) HandleUpdate(ctx context.Context, update Update) error {
	if update.ChatID == "" || strings.TrimSpace(update.Text) == "" {
		return nil
	}

	username := update.Username
	if username != "" {
		username = utils.SanitizeUsername(username)
	}

	user, err := r.accounts.GetOrCreateAccount(update.ChatID, username)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(update.Text)
	command, args, _ := strings.Cut(text, " ")
	// Commands addressed as /cmd@botname still match.
	command, _, _ = strings.Cut(command, "@")

	switch command {
	case "/start":
		return r.handleStart(ctx, update.ChatID, strings.TrimSpace(args))
	case "/help":
		r.notifier.Notify(ctx, update.ChatID, msgHelp)
		return nil
	case "/ref":
		return r.handleRef(ctx, update.ChatID)
	case "/stats":
		return r.handleStats(ctx, user)
	}

	if refcode.IsValid(text) {
		return r.handleRedeem(ctx, update.ChatID, text)
	}

	r.notifier.Notify(ctx, update.ChatID, fmt.Sprintf(msgEcho, utils.SanitizeMessage(text)))
	return nil
}

// handleStart greets the user; a deep-link payload is treated as a
// redemption attempt before the greeting.
func (r *Router) handleStart(ctx context.Context, chatID, payload string) error {
	if code := refcode.ParseStartPayload(payload); code != "" && refcode.IsValid(code) {
		if err := r.handleRedeem(ctx, chatID, code); err != nil {
			log.Printf("Deep-link redemption failed for %s: %v", chatID, err)
		}
	}

	r.notifier.Notify(ctx, chatID, msgWelcome)
	return nil
}

func (r *Router) handleRef(ctx context.Context, chatID string) error {
	link, err := r.engine.IssueLink(chatID)
	if err != nil {
		r.notifier.Notify(ctx, chatID, msgLinkUnavailable)
		return fmt.Errorf("failed to issue link for %s: %w", chatID, err)
	}

	shareLink := refcode.ShareLink(r.botName, link.Code)
	r.notifier.NotifyMarkdown(ctx, chatID, fmt.Sprintf(msgRefLink, shareLink, link.Code))
	return nil
}

func (r *Router) handleStats(ctx context.Context, user *models.User) error {
	referrals, err := r.accounts.CountReferrals(user.ExternalID)
	if err != nil {
		return fmt.Errorf("failed to count referrals for %s: %w", user.ExternalID, err)
	}

	r.notifier.Notify(ctx, user.ExternalID, fmt.Sprintf(msgStats,
		user.ExternalID, user.Points, referrals, user.JoinedAt.Format("2006-01-02")))
	return nil
}

func (r *Router) handleRedeem(ctx context.Context, chatID, code string) error {
	result, err := r.engine.Redeem(chatID, code)
	if err != nil {
		return fmt.Errorf("failed to redeem code for %s: %w", chatID, err)
	}

	switch result.Outcome {
	case referral.OutcomeCredited:
		r.notifier.Notify(ctx, chatID, fmt.Sprintf(msgCodeAccepted, result.Points))
		log.Printf("Referral credited: %s redeemed %s for %s", chatID, code, result.ReferrerID)
	case referral.OutcomeAlreadyRedeemed:
		r.notifier.Notify(ctx, chatID, msgCodeAlreadyUsed)
	case referral.OutcomeSelfReferral:
		r.notifier.Notify(ctx, chatID, msgCodeOwn)
	case referral.OutcomeCodeNotFound:
		r.notifier.Notify(ctx, chatID, msgCodeNotFound)
	}
	return nil
}

const (
	msgWelcome = "👋 Добро пожаловать!\n\n" +
		"Команды:\n" +
		"/help - справка\n" +
		"/ref - реф-ссылка\n" +
		"/stats - статистика"

	msgHelp = "📖 Справка\n\n" +
		"/start - начать\n" +
		"/help - эта справка\n" +
		"/ref - получить реф-ссылку\n" +
		"/stats - посмотреть статистику\n\n" +
		"Введи реф-код для бонуса!"

	msgRefLink = "🔗 Твоя реф-ссылка:\n\n`%s`\n\n" +
		"Код: `%s`\n\n" +
		"Приглашай друзей и получай баллы!"

	msgLinkUnavailable = "❌ Не удалось получить реф-ссылку. Попробуй позже."

	msgStats = "📊 Твоя статистика:\n\n" +
		"👤 ID: %s\n" +
		"⭐ Баллы: %d\n" +
		"👥 Рефералов: %d\n" +
		"📅 Дата присоединения: %s"

	msgCodeAccepted    = "✅ Код принят! +%d баллов"
	msgCodeAlreadyUsed = "⚠️ Ты уже использовал этот код"
	msgCodeOwn         = "❌ Нельзя использовать свой собственный код"
	msgCodeNotFound    = "❌ Код не найден"
	msgEcho            = "📝 Ты написал: %s"
)
