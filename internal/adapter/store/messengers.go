package store

import (
	"context"

	"github.com/solewatch/solewatch/internal/core/constants"
	"github.com/solewatch/solewatch/internal/core/domain"
)

// Messengers reads webhook routing and per-channel message settings from the
// messengers table. Unlike scraper settings there is no rescue fallback: a
// missing channel config means that channel stays silent.
type Messengers struct {
	doc *Document
}

func NewMessengers(doc *Document) *Messengers {
	return &Messengers{doc: doc}
}

// WebhookEndpoint returns the API endpoint of the webhook service record.
func (m *Messengers) WebhookEndpoint(ctx context.Context) (string, error) {
	records, err := m.doc.Where(constants.TableMessengers, "apiType", constants.APITypeWebhook)
	if err != nil {
		return "", err
	}

	if len(records) == 0 {
		return "", domain.NewLookupError("messenger endpoint", constants.APITypeWebhook, nil)
	}

	var record struct {
		APIEndpoint string `json:"apiEndpoint"`
	}

	if err := json.Unmarshal(records[0], &record); err != nil {
		return "", domain.NewStorageError("decode", m.doc.Path(), err)
	}

	if record.APIEndpoint == "" {
		return "", domain.NewLookupError("messenger endpoint", constants.APITypeWebhook, nil)
	}

	return record.APIEndpoint, nil
}

func (m *Messengers) ProductMessageSettings(ctx context.Context) (domain.MessengerSettings, error) {
	return m.settingsByName(constants.MessengerConfigProduct)
}

func (m *Messengers) LogMessageSettings(ctx context.Context) (domain.MessengerSettings, error) {
	return m.settingsByName(constants.MessengerConfigLog)
}

func (m *Messengers) ErrorMessageSettings(ctx context.Context) (domain.MessengerSettings, error) {
	return m.settingsByName(constants.MessengerConfigError)
}

func (m *Messengers) settingsByName(name string) (domain.MessengerSettings, error) {
	var settings domain.MessengerSettings

	records, err := m.doc.Where(constants.TableMessengers, "configName", name)
	if err != nil {
		return settings, err
	}

	if len(records) == 0 {
		return settings, domain.NewLookupError("messenger settings", name, nil)
	}

	if err := json.Unmarshal(records[0], &settings); err != nil {
		return settings, domain.NewStorageError("decode", m.doc.Path(), err)
	}

	if settings.Username == "" {
		settings.Username = constants.DefaultMessengerUsername
	}

	return settings, nil
}
