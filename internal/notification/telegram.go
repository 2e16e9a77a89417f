package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbackdata"
	"github.com/Freeeeeet/slotswap_bot/internal/metrics"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const transportTelegram = "telegram"

// MessageSender часть *bot.Bot, которой пользуется нотификатор
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type SlotLookup interface {
	GetSlotsByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Slot, error)
}

// TelegramNotifier отправляет события обмена личным сообщением.
// Отправка идёт в отдельной горутине с таймаутом, Publish не блокируется.
type TelegramNotifier struct {
	sender   MessageSender
	users    UserLookup
	slots    SlotLookup
	timeout  time.Duration
	location *time.Location
	metrics  *metrics.Metrics
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewTelegramNotifier(
	sender MessageSender,
	users UserLookup,
	slots SlotLookup,
	timeout time.Duration,
	location *time.Location,
	m *metrics.Metrics,
	logger *zap.Logger,
) *TelegramNotifier {
	if location == nil {
		location = time.UTC
	}
	return &TelegramNotifier{
		sender:   sender,
		users:    users,
		slots:    slots,
		timeout:  timeout,
		location: location,
		metrics:  m,
		logger:   logger,
	}
}

func (n *TelegramNotifier) Publish(ctx context.Context, userID int64, event model.SwapEvent) {
	if n.sender == nil {
		n.logger.Debug("Notification skipped (bot disabled)",
			zap.Int64("user_id", userID),
			zap.String("kind", string(event.Kind)),
		)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()

		if err := n.send(ctx, userID, event); err != nil {
			n.metrics.NotificationsDropped.WithLabelValues(transportTelegram).Inc()
			n.logger.Warn("Failed to send swap notification",
				zap.Int64("user_id", userID),
				zap.String("kind", string(event.Kind)),
				zap.Stringer("request_id", event.RequestID),
				zap.Error(err),
			)
		}
	}()
}

// Wait дожидается завершения начатых отправок
func (n *TelegramNotifier) Wait() {
	n.wg.Wait()
}

func (n *TelegramNotifier) send(ctx context.Context, userID int64, event model.SwapEvent) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %d not found", userID)
	}

	params := &bot.SendMessageParams{
		ChatID:    user.TelegramID,
		Text:      n.render(ctx, event),
		ParseMode: models.ParseModeHTML,
	}

	if event.Kind == model.SwapEventIncoming {
		params.ReplyMarkup = &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{{
				{Text: "✅ Принять", CallbackData: callbackdata.Build(callbackdata.SwapAccept, event.RequestID)},
				{Text: "❌ Отклонить", CallbackData: callbackdata.Build(callbackdata.SwapReject, event.RequestID)},
			}},
		}
	}

	if _, err := n.sender.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (n *TelegramNotifier) render(ctx context.Context, event model.SwapEvent) string {
	offered, requested := n.describeSlots(ctx, event)

	var sb strings.Builder
	switch event.Kind {
	case model.SwapEventIncoming:
		sb.WriteString("🔄 <b>Новый запрос на обмен</b>\n\n")
		sb.WriteString("Вам предлагают: " + offered + "\n")
		sb.WriteString("В обмен на ваш: " + requested)
	case model.SwapEventAccepted:
		sb.WriteString("✅ <b>Обмен состоялся</b>\n\n")
		sb.WriteString(offered + " ⇄ " + requested)
	case model.SwapEventRejected:
		sb.WriteString("❌ <b>Запрос на обмен отклонён</b>\n\n")
		sb.WriteString("Ваш слот " + offered + " снова доступен для обмена")
	default:
		sb.WriteString("Обновление запроса на обмен")
	}
	return sb.String()
}

// describeSlots возвращает описание слотов; при ошибке поиска - короткие id
func (n *TelegramNotifier) describeSlots(ctx context.Context, event model.SwapEvent) (string, string) {
	offered := shortID(event.OfferedSlotID)
	requested := shortID(event.RequestedSlotID)
	if n.slots == nil {
		return offered, requested
	}

	slots, err := n.slots.GetSlotsByIDs(ctx, []uuid.UUID{event.OfferedSlotID, event.RequestedSlotID})
	if err != nil {
		n.logger.Debug("Failed to load slots for notification", zap.Error(err))
		return offered, requested
	}

	for _, s := range slots {
		desc := fmt.Sprintf("«%s» %s %s-%s",
			escapeHTML(s.Title),
			s.StartTime.In(n.location).Format("02.01.2006"),
			s.StartTime.In(n.location).Format("15:04"),
			s.EndTime.In(n.location).Format("15:04"),
		)
		switch s.ID {
		case event.OfferedSlotID:
			offered = desc
		case event.RequestedSlotID:
			requested = desc
		}
	}
	return offered, requested
}

func shortID(id uuid.UUID) string {
	return "#" + id.String()[:8]
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
