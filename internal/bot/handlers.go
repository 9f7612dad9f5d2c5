package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/recallbot/internal/excel"
	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data prefix for grade buttons: grade:<topic_id>:<grade>
const callbackGradePrefix = "grade:"

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(ctx, message)
	case "help":
		err = b.handleHelp(message)
	case "due":
		err = b.handleDue(ctx, message)
	case "review":
		err = b.handleReview(ctx, message)
	case "stop":
		err = b.handleStop(ctx, message)
	case "stats":
		err = b.handleStats(ctx, message)
	case "import":
		err = b.handleImport(ctx, message)
	default:
		err = b.send(message.Chat.ID, "Unknown command. Send /help for the list of commands.")
	}
	return err
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	learner, err := b.learnerRepo.GetByTelegramChatID(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	if learner == nil {
		learner = &models.Learner{
			TelegramChatID:      message.Chat.ID,
			Username:            message.From.UserName,
			NotificationEnabled: true,
			NotificationHour:    b.config.DefaultNotificationHour,
		}
		if err := b.learnerRepo.Create(ctx, learner); err != nil {
			return fmt.Errorf("failed to create learner: %w", err)
		}
	}

	seeded, err := b.itemRepo.SeedForLearner(ctx, learner.ID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to seed review items: %w", err)
	}

	text := "Welcome back! Send /due to see what's waiting, or /review to start a session."
	if seeded > 0 {
		text = fmt.Sprintf("Welcome! %d topic(s) added to your review plan. Send /review to start.", seeded)
	}
	return b.send(message.Chat.ID, text)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	help := strings.Join([]string{
		"/due - show how many topics are due",
		"/review - start a review session",
		"/stop - abandon the current session",
		"/stats - show streak and badges",
		"/import - (admin) load the topic catalog from a file",
		"/help - this message",
	}, "\n")
	return b.send(message.Chat.ID, help)
}

func (b *Bot) handleDue(ctx context.Context, message *tgbotapi.Message) error {
	learner, err := b.requireLearner(ctx, message.Chat.ID)
	if err != nil || learner == nil {
		return err
	}

	// A week of look-ahead so the learner sees what is coming.
	queue, err := b.builder.Preview(ctx, learner.ID, 7)
	if err != nil {
		return err
	}

	if queue.DueCount() == 0 {
		if queue.FutureCount() > 0 {
			return b.send(message.Chat.ID, fmt.Sprintf(
				"🎉 All caught up! %d topic(s) coming up within a week.", queue.FutureCount()))
		}
		return b.send(message.Chat.ID, "🎉 All caught up! Nothing is due right now.")
	}

	text := fmt.Sprintf("📚 %d topic(s) due: %d overdue, %d today.",
		queue.DueCount(), queue.OverdueCount(), queue.TodayCount())
	if queue.FutureCount() > 0 {
		text += fmt.Sprintf(" %d more within a week.", queue.FutureCount())
	}
	return b.send(message.Chat.ID, text+" Send /review to start.")
}

func (b *Bot) handleReview(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	if existing := b.session(chatID); existing != nil {
		if existing.State() == review.StateCompleted {
			// An earlier summary save failed; retry it before anything else.
			return b.finishSession(ctx, chatID, existing)
		}
		return b.send(chatID, "A session is already running. Grade the current topic or send /stop.")
	}

	learner, err := b.requireLearner(ctx, chatID)
	if err != nil || learner == nil {
		return err
	}

	queue, err := b.builder.Build(ctx, learner.ID)
	if err != nil {
		return err
	}
	if queue.Len() == 0 {
		return b.send(chatID, "🎉 All caught up! Nothing is due right now.")
	}
	if queue.Len() > b.config.MaxSessionItems {
		queue.Items = queue.Items[:b.config.MaxSessionItems]
	}

	session, err := review.StartSession(queue, b.itemRepo, b.sm2, nil)
	if err != nil {
		return err
	}
	b.setSession(chatID, session)

	if err := b.send(chatID, fmt.Sprintf("Starting a session with %d topic(s). Rate your recall for each.", queue.Len())); err != nil {
		return err
	}
	return b.presentCurrent(ctx, chatID, session)
}

func (b *Bot) handleStop(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	session := b.session(chatID)
	if session == nil {
		return b.send(chatID, "No session is running.")
	}

	graded := len(session.Outcomes())
	if err := session.Abandon(); err != nil {
		if errors.Is(err, review.ErrSessionClosed) {
			b.setSession(chatID, nil)
			return b.send(chatID, "That session already finished. Send /review to start a new one.")
		}
		return err
	}
	b.setSession(chatID, nil)

	// Items graded before stopping keep their updates; the rest stay due.
	return b.send(chatID, fmt.Sprintf(
		"Session stopped. %d graded topic(s) were saved, %d remain due.",
		graded, session.Remaining()))
}

func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) error {
	learner, err := b.requireLearner(ctx, message.Chat.ID)
	if err != nil || learner == nil {
		return err
	}

	st, err := b.statsSvc.Get(ctx, learner.ID)
	if err != nil {
		return err
	}
	dueCount, err := b.itemRepo.CountDue(ctx, learner.ID, time.Now().UTC())
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔥 Streak: %d day(s) (best %d)\n", st.Streak, st.LongestStreak)
	fmt.Fprintf(&sb, "✅ Sessions completed: %d\n", st.SessionsCompleted)
	fmt.Fprintf(&sb, "📖 Items reviewed: %d\n", st.ItemsReviewed)
	fmt.Fprintf(&sb, "📚 Due now: %d\n", dueCount)
	if len(st.Badges) > 0 {
		fmt.Fprintf(&sb, "🏅 Badges: %s", strings.Join(st.Badges, ", "))
	}
	return b.send(message.Chat.ID, sb.String())
}

// handleImport loads the subject/lesson/topic catalog from a file on the bot
// host and schedules the new topics for every registered learner.
func (b *Bot) handleImport(ctx context.Context, message *tgbotapi.Message) error {
	if !b.isAdmin(message.Chat.ID) {
		return b.send(message.Chat.ID, "This command is only available to the administrator.")
	}

	filePath := strings.TrimSpace(message.CommandArguments())
	if filePath == "" {
		return b.send(message.Chat.ID, "Usage: /import <path to .xlsx or .csv file>")
	}

	config := excel.DefaultImportConfig()
	config.FilePath = filePath

	result, err := excel.ImportCatalog(ctx, config)
	if err != nil {
		return b.send(message.Chat.ID, fmt.Sprintf("Import failed: %v", err))
	}

	seeded, err := b.seedAllLearners(ctx)
	if err != nil {
		return fmt.Errorf("failed to schedule imported topics: %w", err)
	}

	text := fmt.Sprintf(
		"Import finished: %d row(s) processed, %d subject(s), %d lesson(s), %d topic(s) created, %d skipped.\n📅 %d review item(s) scheduled.",
		result.TotalProcessed, result.SubjectsCreated, result.LessonsCreated,
		result.TopicsCreated, result.Skipped, seeded)
	if len(result.Errors) > 0 {
		text += fmt.Sprintf("\n⚠️ %d row(s) had errors.", len(result.Errors))
	}
	return b.send(message.Chat.ID, text)
}

// seedAllLearners creates review items for any topics a learner does not
// track yet, so topics imported after registration still reach every queue.
func (b *Bot) seedAllLearners(ctx context.Context) (int, error) {
	learners, err := b.learnerRepo.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	total := 0
	for _, learner := range learners {
		n, err := b.itemRepo.SeedForLearner(ctx, learner.ID, now)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// handleCallback processes grade button presses
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Acknowledge the button press so the client stops its spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		return fmt.Errorf("failed to answer callback: %v", err)
	}

	if !strings.HasPrefix(query.Data, callbackGradePrefix) {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(query.Data, callbackGradePrefix), ":")
	if len(parts) != 2 {
		return fmt.Errorf("malformed grade callback: %q", query.Data)
	}
	topicID := parts[0]
	grade, ok := models.ParseGrade(parts[1])
	if !ok {
		return fmt.Errorf("malformed grade callback: %q", query.Data)
	}

	chatID := query.Message.Chat.ID
	session := b.session(chatID)
	if session == nil {
		return b.send(chatID, "That session is over. Send /review to start a new one.")
	}

	if err := session.Grade(ctx, topicID, grade); err != nil {
		switch {
		case errors.Is(err, review.ErrOutOfOrderGrading):
			// Stale button from an earlier item; ignore.
			return nil
		case errors.Is(err, review.ErrSessionClosed):
			if session.State() == review.StateCompleted {
				// Completed but the summary save failed earlier; retry it.
				return b.finishSession(ctx, chatID, session)
			}
			b.setSession(chatID, nil)
			return b.send(chatID, "That session is over. Send /review to start a new one.")
		default:
			// Persist failure: cursor did not move, the learner can retry.
			return b.send(chatID, "Could not save that grade, please press the button again.")
		}
	}

	if b.config.SarcasmEnabled {
		title := b.topicTitle(ctx, topicID)
		if err := b.send(chatID, b.chatGPT.SarcasticQuipWithFallback(title, grade)); err != nil {
			return err
		}
	}

	if session.State() == review.StateCompleted {
		return b.finishSession(ctx, chatID, session)
	}
	return b.presentCurrent(ctx, chatID, session)
}

func (b *Bot) presentCurrent(ctx context.Context, chatID int64, session *review.Session) error {
	current, err := session.Current()
	if err != nil {
		return err
	}

	title := b.topicTitle(ctx, current.TopicID)
	text := fmt.Sprintf("(%d left) How well do you remember:\n\n📌 %s", session.Remaining(), title)

	keyboard := createKeyboard([][]MenuButton{{
		{Text: "🔁 Again", CallbackData: gradeCallback(current.TopicID, models.GradeAgain)},
		{Text: "😓 Hard", CallbackData: gradeCallback(current.TopicID, models.GradeHard)},
		{Text: "🙂 Good", CallbackData: gradeCallback(current.TopicID, models.GradeGood)},
		{Text: "😎 Easy", CallbackData: gradeCallback(current.TopicID, models.GradeEasy)},
	}})
	return b.sendWithKeyboard(chatID, text, keyboard)
}

func (b *Bot) finishSession(ctx context.Context, chatID int64, session *review.Session) error {
	summary, err := b.aggregator.Complete(ctx, session)
	if err != nil {
		// Keep the session so the summary save can be retried; the grades
		// themselves were already persisted one by one.
		log.Printf("Error completing session %s: %v", session.ID, err)
		return b.send(chatID, "🏁 All topics graded, but saving the summary failed. Send /review to retry.")
	}
	b.setSession(chatID, nil)

	return b.send(chatID, fmt.Sprintf(
		"🏁 Session complete!\n%d/%d correct (%.0f%%), %d lapse(s).\nSend /stats to see your streak.",
		summary.CorrectCount, summary.TotalItems, summary.Percentage, summary.Lapses))
}

// requireLearner looks up the learner behind a chat, prompting for /start
// when there is none. Both return values are nil in that case.
func (b *Bot) requireLearner(ctx context.Context, chatID int64) (*models.Learner, error) {
	learner, err := b.learnerRepo.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if learner == nil {
		return nil, b.send(chatID, "Send /start first so I know who you are.")
	}
	return learner, nil
}

func (b *Bot) topicTitle(ctx context.Context, topicID string) string {
	topic, err := b.catalogRepo.GetTopic(ctx, topicID)
	if err != nil || topic == nil {
		return topicID
	}
	return topic.Title
}

func gradeCallback(topicID string, grade models.Grade) string {
	return callbackGradePrefix + topicID + ":" + grade.String()
}
