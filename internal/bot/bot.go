package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/example/recallbot/internal/ai"
	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/internal/stats"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Bot represents the Telegram delivery channel. It walks learners through
// review sessions one item at a time and reports summaries.
type Bot struct {
	api         *tgbotapi.BotAPI
	config      *BotConfig
	chatGPT     *ai.ChatGPT
	adminChatID int64

	learnerRepo *database.LearnerRepository
	itemRepo    *database.ReviewItemRepository
	catalogRepo *database.CatalogRepository

	builder    *review.QueueBuilder
	sm2        *spaced_repetition.SM2
	aggregator *review.Aggregator
	statsSvc   *stats.Service

	mu       sync.Mutex
	sessions map[int64]*review.Session // active session per chat
}

// New creates a new bot instance
func New() (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %v", err)
	}

	config := DefaultConfig()

	var adminChatID int64
	if v := os.Getenv("ADMIN_CHAT_ID"); v != "" {
		adminChatID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_CHAT_ID: %v", err)
		}
	}

	var chatGPT *ai.ChatGPT
	if os.Getenv("OPENAI_API_KEY") != "" {
		chatGPT, err = ai.New()
		if err != nil {
			log.Printf("Warning: unable to initialize OpenAI client: %v", err)
		}
	}

	itemRepo := database.NewReviewItemRepository()
	sm2 := spaced_repetition.NewSM2()
	statsSvc := stats.New(database.NewLearnerStatsRepository(), nil)

	return &Bot{
		api:         api,
		config:      config,
		chatGPT:     chatGPT,
		adminChatID: adminChatID,
		learnerRepo: database.NewLearnerRepository(),
		itemRepo:    itemRepo,
		catalogRepo: database.NewCatalogRepository(),
		builder:     review.NewQueueBuilder(itemRepo, nil),
		sm2:         sm2,
		aggregator:  review.NewAggregator(itemRepo, database.NewSessionResultRepository(), statsSvc, sm2, nil),
		statsSvc:    statsSvc,
		sessions:    make(map[int64]*review.Session),
	}, nil
}

// Start begins processing Telegram updates until the context is cancelled
func (b *Bot) Start(ctx context.Context) error {
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Stop shuts down the update channel
func (b *Bot) Stop(ctx context.Context) error {
	b.api.StopReceivingUpdates()
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.handleCommand(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		log.Printf("Error handling update: %v", err)
	}
}

// SendReminder tells a learner how many topics are waiting. It implements
// scheduler.Notifier.
func (b *Bot) SendReminder(chatID int64, dueCount int) error {
	text := fmt.Sprintf("⏰ You have %d topic(s) due for review. Send /review to start.", dueCount)
	return b.send(chatID, text)
}

func (b *Bot) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %v", err)
	}
	return nil
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %v", err)
	}
	return nil
}

// isAdmin reports whether a chat belongs to the configured administrator.
// With no ADMIN_CHAT_ID set, admin commands are disabled entirely.
func (b *Bot) isAdmin(chatID int64) bool {
	return b.adminChatID != 0 && chatID == b.adminChatID
}

func (b *Bot) session(chatID int64) *review.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

func (b *Bot) setSession(chatID int64, s *review.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s == nil {
		delete(b.sessions, chatID)
		return
	}
	b.sessions[chatID] = s
}
