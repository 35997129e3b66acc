package main

import (
	"github.com/partnerdesk/internal/config"
	"github.com/partnerdesk/internal/constants"
	"github.com/partnerdesk/internal/logger"
	"github.com/partnerdesk/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	// 等级表
	tiers := []models.Tier{
		{
			Name:           "Bronze",
			Level:          1,
			Description:    "入门等级，开通即有",
			CommissionRate: money("5"),
			Benefits:       models.StringArray{"基础佣金 5%"},
			Color:          "#cd7f32",
			Status:         constants.TierStatusActive,
		},
		{
			Name:           "Silver",
			Level:          2,
			Description:    "进阶等级",
			CommissionRate: money("8"),
			MinClicks:      500,
			MinConversions: 20,
			MinEarnings:    money("200"),
			Benefits:       models.StringArray{"佣金 8%", "月度结算"},
			Color:          "#c0c0c0",
			Status:         constants.TierStatusActive,
		},
		{
			Name:           "Gold",
			Level:          3,
			Description:    "顶级等级",
			CommissionRate: money("12"),
			MinClicks:      5000,
			MinConversions: 200,
			MinEarnings:    money("2000"),
			Benefits:       models.StringArray{"佣金 12%", "周结算", "专属客服"},
			Color:          "#ffd700",
			Status:         constants.TierStatusActive,
		},
	}

	for _, tier := range tiers {
		var existing models.Tier
		if err := models.DB.Where("name = ?", tier.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&tier).Error; err != nil {
				stdLog.Printf("Failed to create tier %s: %v", tier.Name, err)
			} else {
				stdLog.Printf("Created tier: %s (level %d)", tier.Name, tier.Level)
			}
		} else {
			stdLog.Printf("Tier already exists: %s", tier.Name)
		}
	}

	// 支付方式
	methods := []models.PaymentMethod{
		{
			Name:                "PayPal",
			Code:                "paypal",
			Status:              constants.PaymentMethodStatusActive,
			SupportedCurrencies: models.StringArray{"USD", "EUR"},
			MinAmount:           money("10"),
			MaxAmount:           money("5000"),
			FixedFee:            money("0.30"),
			PercentFee:          money("2.9"),
			MinFee:              money("0.30"),
			MaxFee:              money("20"),
			DailyLimit:          money("10000"),
			MonthlyLimit:        money("100000"),
			RequireKYC:          true,
			ProcessingDays:      1,
			Description:         "PayPal 提现，单笔 1 个工作日内到账",
		},
		{
			Name:                "Bank Transfer",
			Code:                "bank_transfer",
			Status:              constants.PaymentMethodStatusActive,
			SupportedCurrencies: models.StringArray{"USD", "EUR", "GBP", "CNY"},
			MinAmount:           money("100"),
			FixedFee:            money("15"),
			RequireKYC:          true,
			RequireBankAccount:  true,
			RequireTaxID:        true,
			RequireAddress:      true,
			ProcessingDays:      5,
			Description:         "银行电汇，适合大额提现",
		},
		{
			Name:                "Wise",
			Code:                "wise",
			Status:              constants.PaymentMethodStatusActive,
			SupportedCurrencies: models.StringArray{"USD", "EUR", "GBP"},
			MinAmount:           money("20"),
			MaxAmount:           money("10000"),
			FixedFee:            money("1.20"),
			PercentFee:          money("0.5"),
			MaxFee:              money("15"),
			RequireKYC:          true,
			RequireBankAccount:  true,
			ProcessingDays:      2,
			Description:         "Wise 跨境转账",
		},
	}

	for _, method := range methods {
		var existing models.PaymentMethod
		if err := models.DB.Where("code = ?", method.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&method).Error; err != nil {
				stdLog.Printf("Failed to create payment method %s: %v", method.Code, err)
			} else {
				stdLog.Printf("Created payment method: %s", method.Code)
			}
		} else {
			stdLog.Printf("Payment method already exists: %s", method.Code)
		}
	}

	stdLog.Printf("Seed finished")
}

func money(value string) models.Money {
	m, err := models.NewMoneyFromString(value)
	if err != nil {
		panic(err)
	}
	return m
}
