package app

import (
	"errors"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/poskit/billingd/internal/domain"
	"github.com/poskit/billingd/internal/invoice"
	"github.com/poskit/billingd/pkg/common"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettingsManager caches register-level settings (invoice branding and
// similar) backed by the app_setting table.
type SettingsManager struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache map[string]map[string]string
}

func NewSettingsManager(db *gorm.DB) *SettingsManager {
	m := &SettingsManager{db: db, cache: map[string]map[string]string{}}
	m.reload()
	return m
}

func (m *SettingsManager) reload() {
	var rows []domain.AppSetting
	if err := m.db.Find(&rows).Error; err != nil {
		zap.L().Warn("failed to load settings", zap.Error(err))
		return
	}
	cache := map[string]map[string]string{}
	for _, row := range rows {
		if cache[row.Category] == nil {
			cache[row.Category] = map[string]string{}
		}
		cache[row.Category][row.Name] = row.Value
	}
	m.mu.Lock()
	m.cache = cache
	m.mu.Unlock()
}

func (m *SettingsManager) GetString(category, name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache[category][name]
}

func (m *SettingsManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.GetString(category, name))
}

func (m *SettingsManager) GetBool(category, name string) bool {
	return cast.ToBool(m.GetString(category, name))
}

// Save upserts a setting row and refreshes the cache.
func (m *SettingsManager) Save(category, name, value string) error {
	var row domain.AppSetting
	err := m.db.Where("category = ? AND name = ?", category, name).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = domain.AppSetting{
			ID:        common.UUIDint64(),
			Category:  category,
			Name:      name,
			Value:     value,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := m.db.Create(&row).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := m.db.Model(&domain.AppSetting{}).Where("id = ?", row.ID).
			Updates(map[string]interface{}{"value": value, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
	}
	m.reload()
	return nil
}

// Branding decodes the billing settings category into the renderer's
// branding block.
func (m *SettingsManager) Branding() invoice.Branding {
	m.mu.RLock()
	values := map[string]string{}
	for k, v := range m.cache["billing"] {
		values[k] = v
	}
	m.mu.RUnlock()

	branding := invoice.Branding{
		StoreName:  "BILLING SYSTEM",
		TagLine:    "Tax Invoice",
		Currency:   "INR",
		FooterNote: "Thank you for your business!",
	}
	if err := mapstructure.Decode(values, &branding); err != nil {
		zap.L().Warn("failed to decode branding settings", zap.Error(err))
	}
	return branding
}

// checkDefaults seeds the billing settings on first run.
func (m *SettingsManager) checkDefaults() {
	defaults := map[string]string{
		"store_name":  "BILLING SYSTEM",
		"tag_line":    "Tax Invoice",
		"currency":    "INR",
		"footer_note": "Thank you for your business!",
	}
	for name, value := range defaults {
		if m.GetString("billing", name) == "" {
			if err := m.Save("billing", name, value); err != nil {
				zap.L().Warn("failed to seed setting", zap.String("name", name), zap.Error(err))
			}
		}
	}
}
