package notify

import (
	"context"
	"errors"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Telegram sends digests through the Bot API. The bot is used for
// outbound messages only; the chat-menu machinery lives elsewhere and
// shares the same token.
type Telegram struct {
	bot *tele.Bot
}

func NewTelegram(token string) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: bot}, nil
}

func (t *Telegram) Send(ctx context.Context, userID int64, text string) error {
	_, err := t.bot.Send(&tele.Chat{ID: userID}, text, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	return err
}
