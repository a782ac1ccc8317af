package notify

import (
	"context"
	"fmt"
	"strings"

	"bookhive/internal/domain"
	"bookhive/internal/events"
	"bookhive/internal/metrics"
	"bookhive/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	channelTelegram = "telegram"
	channelAMQP     = "amqp"

	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeDropped = "dropped"
)

type telegramMessage struct {
	chatID int64
	text   string
}

// TelegramNotifier forwards booking transitions to admin chats. Messages are
// sent from Start so bus publishers never wait on the Telegram API.
type TelegramNotifier struct {
	bot     domain.TelegramSender
	chatIDs []int64
	queue   chan telegramMessage
	logger  *zerolog.Logger
}

func NewTelegramNotifier(bot domain.TelegramSender, chatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &TelegramNotifier{
		bot:     bot,
		chatIDs: chatIDs,
		queue:   make(chan telegramMessage, models.WorkerQueueSize),
		logger:  logger,
	}
}

// Subscribe registers the notifier for every booking event type.
func (n *TelegramNotifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(n.Handle, events.BookingEventTypes...)
}

// Handle formats the event and queues one message per admin chat.
// A full queue drops the message rather than blocking the publisher.
func (n *TelegramNotifier) Handle(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}

	text := bookingMessage(event.Type, &payload)
	for _, chatID := range n.chatIDs {
		select {
		case n.queue <- telegramMessage{chatID: chatID, text: text}:
		default:
			metrics.IncNotification(channelTelegram, outcomeDropped)
			n.logger.Warn().Int64("chat_id", chatID).Int64("booking_id", payload.BookingID).Msg("telegram queue full, notification dropped")
		}
	}
	return nil
}

// Start sends queued messages until ctx is cancelled.
func (n *TelegramNotifier) Start(ctx context.Context) {
	n.logger.Info().Int("chats", len(n.chatIDs)).Msg("telegram notifier started")
	for {
		select {
		case <-ctx.Done():
			n.logger.Info().Msg("telegram notifier stopped")
			return
		case msg := <-n.queue:
			n.send(msg)
		}
	}
}

func (n *TelegramNotifier) send(msg telegramMessage) {
	if _, err := n.bot.Send(tgbotapi.NewMessage(msg.chatID, msg.text)); err != nil {
		metrics.IncNotification(channelTelegram, outcomeFailed)
		n.logger.Error().Err(err).Int64("chat_id", msg.chatID).Msg("failed to notify admin")
		return
	}
	metrics.IncNotification(channelTelegram, outcomeSent)
}

func bookingMessage(eventType string, p *events.BookingEventPayload) string {
	var title string
	switch eventType {
	case events.EventBookingCreated:
		title = "🆕 New booking"
	case events.EventBookingCancelled:
		title = "❌ Booking cancelled"
	case events.EventBookingStatusChanged:
		title = fmt.Sprintf("🔄 Booking status changed: %s → %s", p.PreviousStatus, p.Status)
	default:
		title = eventType
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "🎫 Reference: %s\n", p.BookingReference)
	fmt.Fprintf(&b, "🎤 Event: %s\n", p.EventTitle)
	if p.CustomerName != "" {
		fmt.Fprintf(&b, "👤 Customer: %s", p.CustomerName)
		if p.CustomerEmail != "" {
			fmt.Fprintf(&b, " <%s>", p.CustomerEmail)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "💺 Seats: %d\n", p.SeatsBooked)
	fmt.Fprintf(&b, "💰 Total: %.2f (%s)\n", p.TotalPrice, p.PaymentStatus)
	fmt.Fprintf(&b, "📊 Seats left: %d", p.AvailableSeats)
	if p.ChangedBy != "" {
		fmt.Fprintf(&b, "\n✍️ By: %s", p.ChangedBy)
	}
	return b.String()
}
