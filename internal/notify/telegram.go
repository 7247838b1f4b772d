// Package notify delivers daily digests over Telegram.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lifeboard/internal/repository"
	"lifeboard/internal/service"
)

// Notifier sends digest messages to users that registered a chat id.
type Notifier struct {
	api         *tgbotapi.BotAPI
	userRepo    *repository.UserRepository
	reminderSvc *service.ReminderService
}

func New(token string, userRepo *repository.UserRepository, reminderSvc *service.ReminderService) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] digest bot authorized on account %s", api.Self.UserName)

	return &Notifier{api: api, userRepo: userRepo, reminderSvc: reminderSvc}, nil
}

// SendDailyDigests builds and sends one digest per opted-in user. A failure
// for one user does not stop the rest; the first error is returned.
func (n *Notifier) SendDailyDigests(ctx context.Context) error {
	users, err := n.userRepo.DigestRecipients(ctx)
	if err != nil {
		return fmt.Errorf("list digest recipients: %w", err)
	}

	var firstErr error
	for i := range users {
		user := users[i]
		text, err := n.reminderSvc.DailyDigest(ctx, &user, time.Now())
		if err != nil {
			log.Printf("[warn] digest for user %d: %v", user.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		msg := tgbotapi.NewMessage(user.TelegramChatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := n.api.Send(msg); err != nil {
			log.Printf("[warn] send digest to chat %d: %v", user.TelegramChatID, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("send digest: %w", err)
			}
		}
	}
	return firstErr
}
