package store

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/solewatch/solewatch/internal/core/constants"
	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/logger"
)

// Settings reads runtime settings from the Config table. Every lookup falls
// back along byUrl -> common -> rescue, so callers always get something
// usable; fallbacks are warned, never returned as errors.
type Settings struct {
	doc    *Document
	logger logger.StyledLogger
}

func NewSettings(doc *Document, log logger.StyledLogger) *Settings {
	return &Settings{doc: doc, logger: log}
}

func (s *Settings) LoggerSettings(ctx context.Context) domain.LoggerSettings {
	var record struct {
		Logger *domain.LoggerSettings `json:"logger"`
	}

	if s.firstRecordWithKey(constants.ConfigNameLogger, &record) && record.Logger != nil {
		return *record.Logger
	}

	s.logger.Warn("No logger settings found, falling back to rescue settings")

	return domain.RescueLoggerSettings()
}

func (s *Settings) ScraperSettings(ctx context.Context) domain.ScraperSettings {
	var record struct {
		Common *domain.ScraperSettings `json:"scraperCommon"`
	}

	if s.firstRecordWithKey(constants.ConfigNameScraperCommon, &record) && record.Common != nil {
		return *record.Common
	}

	s.logger.Warn("No common scraper settings found, falling back to rescue settings")

	return domain.RescueScraperSettings()
}

func (s *Settings) ScraperSettingsByURL(ctx context.Context, url string) domain.ScraperSettings {
	var record struct {
		ByURL map[string]domain.ScraperSettings `json:"scraperByUrl"`
	}

	if s.firstRecordWithKey(constants.ConfigNameScraperByURL, &record) {
		if settings, found := record.ByURL[url]; found {
			return settings
		}
	}

	s.logger.WarnWithShop("No scraper settings for shop, falling back to common settings", url)

	return s.ScraperSettings(ctx)
}

// firstRecordWithKey decodes the first Config record carrying the given
// top-level key into target. Store errors count as a miss; the fallback
// chain absorbs them.
func (s *Settings) firstRecordWithKey(key string, target interface{}) bool {
	records, err := s.doc.All(constants.TableConfig)
	if err != nil {
		s.logger.Warn("Config table unreadable", "error", err)
		return false
	}

	for _, record := range records {
		if !gjson.GetBytes(record, key).Exists() {
			continue
		}

		if err := json.Unmarshal(record, target); err != nil {
			s.logger.Warn("Config record undecodable", "key", key, "error", err)
			return false
		}

		return true
	}

	return false
}
