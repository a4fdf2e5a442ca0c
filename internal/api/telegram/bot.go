package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"recycle-guide/internal/domain/entity"
	"recycle-guide/internal/domain/port"
)

const (
	msgHelp = `ℹ️ Я показываю, на каком шаге сейчас сортировка:

♻️ 1. Align — выровняйте упаковку перед камерой
✋ 2. Drop — упаковка на позиции, отпускайте
✅ 3. Succeeded — готово

📋 Команды:
/status — текущий шаг
/help — справка`

	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
)

// Telegram ограничивает частоту сообщений в один чат
const sendInterval = time.Second

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot отправляет смену шага в чат и отвечает на /status
type Bot struct {
	api     *tgbotapi.BotAPI
	send    sender
	chatID  int64
	store   port.StateStore
	limiter *rate.Limiter
	latest  chan entity.Snapshot
	log     logrus.FieldLogger
}

// NewBot создаёт нового бота
func NewBot(token string, chatID int64, store port.StateStore, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram api: %w", err)
	}

	b := newBot(api, chatID, store, log)
	b.api = api
	b.log.WithField("account", api.Self.UserName).Info("telegram authorized")
	return b, nil
}

func newBot(s sender, chatID int64, store port.StateStore, log logrus.FieldLogger) *Bot {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bot{
		send:    s,
		chatID:  chatID,
		store:   store,
		limiter: rate.NewLimiter(rate.Every(sendInterval), 1),
		latest:  make(chan entity.Snapshot, 1),
		log:     log.WithField("component", "telegram"),
	}
}

// Run подписывается на состояние и работает до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	unsubscribe := b.store.Subscribe(b.enqueue)
	defer unsubscribe()

	if b.api != nil {
		go b.handleUpdates(ctx)
	}

	lastStep := b.store.Current().Step
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-b.latest:
			if snap.Step == lastStep {
				continue
			}
			if err := b.limiter.Wait(ctx); err != nil {
				return nil
			}
			b.sendMessage(b.chatID, formatStatus(snap))
			lastStep = snap.Step
		}
	}
}

// enqueue хранит только последний снимок, чтобы не тормозить публикацию
func (b *Bot) enqueue(snap entity.Snapshot) {
	select {
	case b.latest <- snap:
		return
	default:
	}
	select {
	case <-b.latest:
	default:
	}
	select {
	case b.latest <- snap:
	default:
	}
}

// handleUpdates обрабатывает входящие команды
func (b *Bot) handleUpdates(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(update.Message)
		}
	}
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "status":
		b.sendMessage(msg.Chat.ID, formatStatus(b.store.Current()))

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// formatStatus строка статуса с иконкой шага
func formatStatus(snap entity.Snapshot) string {
	icon := "♻️"
	switch snap.Step {
	case entity.StepPosition:
		icon = "✋"
	case entity.StepDone:
		icon = "✅"
	}

	text := fmt.Sprintf("%s %s", icon, snap.StatusLine())
	if h := snap.Highlight; h != nil {
		cx, cy := h.Center()
		text += fmt.Sprintf("\n📍 x=%.2f y=%.2f w=%.2f h=%.2f, центр %.2f;%.2f", h.X, h.Y, h.Width, h.Height, cx, cy)
	}
	return text
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.send.Send(msg); err != nil {
		b.log.WithError(err).Warn("error sending message")
	}
}
