package notify

import (
	"context"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/solewatch/solewatch/internal/core/constants"
	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
	"github.com/solewatch/solewatch/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Webhook posts messages to a Discord compatible webhook service. Each
// message kind resolves its own channel config from the messengers store at
// send time, so config edits apply without a restart. A channel without a
// config stays silent and reports the lookup failure to the caller.
type Webhook struct {
	messengers ports.MessengerSource
	requests   ports.RequestFactory
	logger     logger.StyledLogger
}

func NewWebhook(messengers ports.MessengerSource, requests ports.RequestFactory, log logger.StyledLogger) *Webhook {
	return &Webhook{
		messengers: messengers,
		requests:   requests,
		logger:     log,
	}
}

// Wire shapes of the webhook execute call, see
// https://discord.com/developers/docs/resources/webhook#execute-webhook
type message struct {
	Username string  `json:"username"`
	Content  string  `json:"content"`
	Embeds   []embed `json:"embeds,omitempty"`
}

type embed struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url,omitempty"`
	Thumbnail   *thumbnail `json:"thumbnail,omitempty"`
	Fields      []field    `json:"fields,omitempty"`
	Footer      *footer    `json:"footer,omitempty"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type footer struct {
	Text string `json:"text"`
}

// SendProduct announces a changed product as an embed with price, in-stock
// sizes and the preview image.
func (w *Webhook) SendProduct(ctx context.Context, product *domain.Product, shop *domain.Shop) error {
	if product == nil {
		return domain.NewValidationError("product", product, "product message needs a product")
	}

	if shop == nil {
		return domain.NewValidationError("shop", shop, "product message needs the product's shop")
	}

	settings, err := w.messengers.ProductMessageSettings(ctx)
	if err != nil {
		return err
	}

	return w.send(ctx, settings, productMessage(settings.Username, product, shop))
}

// SendLog posts a plain notice on the log channel.
func (w *Webhook) SendLog(ctx context.Context, msg string) error {
	settings, err := w.messengers.LogMessageSettings(ctx)
	if err != nil {
		return err
	}

	payload := message{
		Username: settings.Username,
		Content:  constants.LogMessagePrefix + msg,
	}

	return w.send(ctx, settings, payload)
}

// SendError posts a plain notice on the error channel.
func (w *Webhook) SendError(ctx context.Context, msg string) error {
	settings, err := w.messengers.ErrorMessageSettings(ctx)
	if err != nil {
		return err
	}

	payload := message{
		Username: settings.Username,
		Content:  constants.ErrorMessagePrefix + msg,
	}

	return w.send(ctx, settings, payload)
}

func (w *Webhook) send(ctx context.Context, settings domain.MessengerSettings, payload message) error {
	endpoint, err := w.messengers.WebhookEndpoint(ctx)
	if err != nil {
		return err
	}

	url := strings.TrimRight(endpoint, "/") + "/" + settings.User + "/" + settings.Token

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	headers := map[string]string{constants.ContentTypeHeader: constants.ContentTypeJSON}

	w.logger.Debug("Sending webhook message", "channel", settings.ConfigName)

	request := w.requests.NewRequest(settings.RequestSettings())

	if _, err := request.Post(ctx, url, headers, body); err != nil {
		w.logger.Warn("Webhook message failed", "channel", settings.ConfigName, "error", err)
		return err
	}

	return nil
}

func productMessage(username string, product *domain.Product, shop *domain.Shop) message {
	var fields []field

	if product.BasePrice != nil && *product.BasePrice != 0 {
		fields = append(fields, field{Name: "Price", Value: product.PriceWithCurrency()})
	}

	if sizes := product.InStockSizes(); len(sizes) > 0 {
		fields = append(fields, field{Name: "Sizes", Value: strings.Join(sizes, "\n")})
	}

	item := embed{
		Title:       product.Name,
		Description: shop.Name,
		URL:         product.URL,
		Fields:      fields,
		Footer:      &footer{Text: constants.EmbedFooterText},
	}

	if product.URLThumb != nil && *product.URLThumb != "" {
		item.Thumbnail = &thumbnail{URL: *product.URLThumb}
	}

	return message{Username: username, Embeds: []embed{item}}
}
