package service

import (
	"testing"

	"github.com/partnerdesk/internal/constants"
)

func TestNormalizeSiteSettingFillsDefaults(t *testing.T) {
	normalized := normalizeSettingValueByKey(constants.SettingKeySiteConfig, map[string]interface{}{
		"brand": map[string]interface{}{"site_name": "  PartnerDesk  "},
	})

	brand, ok := normalized["brand"].(map[string]interface{})
	if !ok {
		t.Fatalf("brand should be a map, got %T", normalized["brand"])
	}
	if brand["site_name"] != "PartnerDesk" {
		t.Fatalf("site_name should be trimmed, got %v", brand["site_name"])
	}

	contact, ok := normalized["contact"].(map[string]interface{})
	if !ok {
		t.Fatalf("contact should be a map, got %T", normalized["contact"])
	}
	if contact["telegram"] != "" || contact["whatsapp"] != "" {
		t.Fatalf("contact defaults should be empty, got %v", contact)
	}
}

func TestNormalizeSiteSettingLanguages(t *testing.T) {
	normalized := normalizeSettingValueByKey(constants.SettingKeySiteConfig, map[string]interface{}{
		"languages": []interface{}{"en-US", "", "en-US", "zh-CN"},
	})

	languages, ok := normalized["languages"].([]string)
	if !ok {
		t.Fatalf("languages should be []string, got %T", normalized["languages"])
	}
	if len(languages) != 2 || languages[0] != "en-US" || languages[1] != "zh-CN" {
		t.Fatalf("languages should dedupe and keep order, got %v", languages)
	}
}

func TestNormalizePayoutSettingCurrency(t *testing.T) {
	normalized := normalizeSettingValueByKey(constants.SettingKeyPayoutConfig, map[string]interface{}{
		constants.SettingFieldPayoutCurrency: " eur ",
	})
	if normalized[constants.SettingFieldPayoutCurrency] != "EUR" {
		t.Fatalf("currency should be upper-cased, got %v", normalized[constants.SettingFieldPayoutCurrency])
	}

	normalized = normalizeSettingValueByKey(constants.SettingKeyPayoutConfig, map[string]interface{}{
		constants.SettingFieldPayoutCurrency: "not-a-currency",
	})
	if normalized[constants.SettingFieldPayoutCurrency] != constants.SiteCurrencyDefault {
		t.Fatalf("invalid currency should fall back to default, got %v", normalized[constants.SettingFieldPayoutCurrency])
	}
}

func TestNormalizePayoutSettingDelayClamp(t *testing.T) {
	normalized := normalizeSettingValueByKey(constants.SettingKeyPayoutConfig, map[string]interface{}{
		"processing_delay_minutes": 99999,
	})
	if normalized["processing_delay_minutes"] != 10080 {
		t.Fatalf("delay should clamp to 10080, got %v", normalized["processing_delay_minutes"])
	}

	normalized = normalizeSettingValueByKey(constants.SettingKeyPayoutConfig, map[string]interface{}{
		"processing_delay_minutes": "bad",
	})
	if normalized["processing_delay_minutes"] != 0 {
		t.Fatalf("invalid delay should fall back to 0, got %v", normalized["processing_delay_minutes"])
	}
}
