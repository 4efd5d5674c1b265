package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Domenick1991/railwatch/internal/domain"
)

const (
	msgSearching      = "Ищу билеты..."
	msgUnknown        = "Не понял..."
	msgNoTrains       = "По вашему запросу поездов нет"
	msgOnlyFiltered   = "По запросу поездов нет, но есть более дорогие"
	msgNothingFound   = "Ничего не нашёл. Прекращаю работу."
	msgStopping       = "Бот останавливается, поиск прерван."
	msgNoWatches      = "Нет активных запросов."
	msgDuplicateWatch = "Уже слежу за таким запросом."
	msgCancelUsage    = "Укажите номер запроса: /cancel <номер>"
	msgNoSuchWatch    = "Не нашёл запрос с таким номером."
	msgMoreTrains     = "Есть ещё поезда, сократите диапазон дат... "
)

func usageText(now time.Time) string {
	demo := now.AddDate(0, 0, 30)
	next := demo.AddDate(0, 0, 1)
	return fmt.Sprintf(`Привет! Я умею искать билеты на поезд.
Как спросить у меня список билетов:
/search москва, спб, %d.%02d 20:00 - %d.%02d 03:00

Следить за появлением билетов:
/notify мск спб %d<2000#2

Список запросов: /list, отмена: /cancel <номер>`,
		demo.Day(), demo.Month(), next.Day(), next.Month(), demo.Day())
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if err := b.sendText(ctx, chatID, text, ""); err != nil {
		log.Printf("send to chat %d: %v", chatID, err)
	}
}

func (b *Bot) sendHTML(ctx context.Context, chatID int64, text string) {
	if err := b.sendText(ctx, chatID, text, models.ParseModeHTML); err != nil {
		log.Printf("send to chat %d: %v", chatID, err)
	}
}

func (b *Bot) sendError(ctx context.Context, chatID int64, err error) {
	log.Printf("chat %d: %v", chatID, err)
	b.send(ctx, chatID, fmt.Sprintf("Ошибка: %s", err))
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string, parseMode models.ParseMode) error {
	_, err := b.api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	})
	return err
}

// Notifier implementation used by the watch scheduler.

func (b *Bot) Results(ctx context.Context, chatID int64, trains []domain.Train, truncated bool) error {
	return b.sendText(ctx, chatID, formatTrains(trains, truncated), models.ParseModeHTML)
}

func (b *Bot) Progress(ctx context.Context, chatID int64, elapsed time.Duration) error {
	text := fmt.Sprintf("Всё ещё нет билетов. Ищу... (прошло %d секунд)", int(elapsed.Seconds()))
	return b.sendText(ctx, chatID, text, "")
}

func (b *Bot) NothingFound(ctx context.Context, chatID int64) error {
	return b.sendText(ctx, chatID, msgNothingFound, "")
}

func (b *Bot) Failure(ctx context.Context, chatID int64, err error) error {
	return b.sendText(ctx, chatID, fmt.Sprintf("Ошибка: %s", err), "")
}

func (b *Bot) Stopping(ctx context.Context, chatID int64) error {
	return b.sendText(ctx, chatID, msgStopping, "")
}
