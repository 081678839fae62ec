package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/dto"
	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
)

type settingRepository interface {
	ListAll(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

type settingsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const (
	settingsCacheKey = "config:settings"
	settingsCacheTTL = 5 * time.Minute
)

// defaultSettings is the closed set of configurable keys. GET /api/config
// returns exactly these when nothing has been stored; unknown keys are
// rejected on update.
var defaultSettings = map[string]models.Setting{
	"documents.max_file_size_mb": {Key: "documents.max_file_size_mb", Value: "50", Type: models.SettingTypeNumber},
	"documents.lock_ttl_minutes": {Key: "documents.lock_ttl_minutes", Value: "30", Type: models.SettingTypeNumber},
	"alerts.enabled":             {Key: "alerts.enabled", Value: "false", Type: models.SettingTypeBoolean},
	"alerts.notice_days":         {Key: "alerts.notice_days", Value: "7", Type: models.SettingTypeNumber},
	"backups.retention_days":     {Key: "backups.retention_days", Value: "30", Type: models.SettingTypeNumber},
	"backups.auto_enabled":       {Key: "backups.auto_enabled", Value: "true", Type: models.SettingTypeBoolean},
	"branding.primary_color":     {Key: "branding.primary_color", Value: "#1f6feb", Type: models.SettingTypeString},
}

// CompanyInfo holds the static company identity merged into config responses.
type CompanyInfo struct {
	Name string
	CNPJ string
}

// SettingsService serves the merged application configuration and persists
// admin overrides. Reads degrade to the hardcoded defaults when the store is
// unavailable; configuration must never take the application down.
type SettingsService struct {
	repo      settingRepository
	cache     settingsCache
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	company   CompanyInfo
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingRepository, cache settingsCache, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, company CompanyInfo) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger, company: company}
}

// GetConfig returns defaults with stored overrides merged on top.
func (s *SettingsService) GetConfig(ctx context.Context) *dto.ConfigResponse {
	merged := s.mergedSettings(ctx)

	values := make(map[string]string, len(merged))
	for key, setting := range merged {
		values[key] = setting.Value
	}

	return &dto.ConfigResponse{
		Settings: values,
		Company:  dto.CompanyInfo{Name: s.company.Name, CNPJ: s.company.CNPJ},
	}
}

// Update validates and persists admin overrides. Every change lands in the
// audit trail individually.
func (s *SettingsService) Update(ctx context.Context, principal *models.Principal, req dto.UpdateSettingsRequest) (*dto.ConfigResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	// Validate everything before writing anything.
	for key, value := range req.Settings {
		def, ok := defaultSettings[key]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown setting key: "+key)
		}
		if err := validateSettingValue(def.Type, value); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid value for "+key)
		}
	}

	keys := make([]string, 0, len(req.Settings))
	for key := range req.Settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := time.Now().UTC()
	for _, key := range keys {
		def := defaultSettings[key]
		setting := &models.Setting{
			Key:       key,
			Value:     req.Settings[key],
			Type:      def.Type,
			UpdatedBy: &principal.UserID,
			UpdatedAt: now,
		}
		if err := s.repo.Upsert(ctx, setting); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store setting "+key)
		}

		s.audit.Record(models.AuditLog{
			UserID:     &principal.UserID,
			Action:     models.AuditActionConfigUpdate,
			EntityType: "setting",
			EntityID:   &setting.Key,
			Details:    []byte(`{"value":` + strconv.Quote(setting.Value) + `}`),
		})
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, settingsCacheKey); err != nil {
			s.logger.Warn("failed to invalidate settings cache", zap.Error(err))
		}
	}

	return s.GetConfig(ctx), nil
}

func (s *SettingsService) mergedSettings(ctx context.Context) map[string]models.Setting {
	merged := make(map[string]models.Setting, len(defaultSettings))
	for key, setting := range defaultSettings {
		merged[key] = setting
	}

	var stored []models.Setting
	if s.cache != nil {
		if err := s.cache.Get(ctx, settingsCacheKey, &stored); err == nil {
			return overlay(merged, stored)
		}
	}

	stored, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Warn("failed to load stored settings, serving defaults", zap.Error(err))
		return merged
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, settingsCacheKey, stored, settingsCacheTTL); err != nil {
			s.logger.Warn("failed to cache settings", zap.Error(err))
		}
	}

	return overlay(merged, stored)
}

// overlay merges stored overrides over the defaults, ignoring keys that are
// no longer part of the closed set.
func overlay(base map[string]models.Setting, stored []models.Setting) map[string]models.Setting {
	for _, setting := range stored {
		if _, ok := base[setting.Key]; ok {
			base[setting.Key] = setting
		}
	}
	return base
}

func validateSettingValue(kind models.SettingType, value string) error {
	switch kind {
	case models.SettingTypeBoolean:
		if value != "true" && value != "false" {
			return appErrors.Clone(appErrors.ErrValidation, "expected true or false")
		}
	case models.SettingTypeNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "expected a number")
		}
	}
	return nil
}
