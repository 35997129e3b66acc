package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/partnerdesk/internal/constants"
	"github.com/partnerdesk/internal/models"
	"github.com/partnerdesk/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestCalculateFeesChargesFixedFeeOnly(t *testing.T) {
	svc, db := setupMethodServiceTest(t)

	method := createMethodTestMethod(t, db, "paypal", func(m *models.PaymentMethod) {
		m.FixedFee = methodTestMoney("0.30")
		m.PercentFee = methodTestMoney("2.9")
		m.MaxFee = methodTestMoney("20")
	})

	fees, err := svc.CalculateFees(method.ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("calculate fees failed: %v", err)
	}
	if !fees.TotalFee.Decimal.Equal(decimal.RequireFromString("0.30")) {
		t.Fatalf("expected total fee 0.30, got %s", fees.TotalFee.Decimal)
	}
	if !fees.PercentFee.Decimal.Equal(decimal.RequireFromString("2.90")) {
		t.Fatalf("expected percent breakdown 2.90, got %s", fees.PercentFee.Decimal)
	}
	if !fees.NetAmount.Decimal.Equal(decimal.RequireFromString("99.70")) {
		t.Fatalf("expected net amount 99.70, got %s", fees.NetAmount.Decimal)
	}
}

func TestCalculateFeesMaxFeeZeroCapsToZero(t *testing.T) {
	svc, db := setupMethodServiceTest(t)

	method := createMethodTestMethod(t, db, "bank_transfer", func(m *models.PaymentMethod) {
		m.FixedFee = methodTestMoney("15")
	})

	fees, err := svc.CalculateFees(method.ID, decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("calculate fees failed: %v", err)
	}
	if !fees.TotalFee.Decimal.Equal(decimal.Zero) {
		t.Fatalf("expected zero max fee to cap the total at 0, got %s", fees.TotalFee.Decimal)
	}
	if !fees.NetAmount.Decimal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected full net amount, got %s", fees.NetAmount.Decimal)
	}
}

func TestCalculateFeesAppliesMinFeeFloor(t *testing.T) {
	svc, db := setupMethodServiceTest(t)

	method := createMethodTestMethod(t, db, "wise", func(m *models.PaymentMethod) {
		m.FixedFee = methodTestMoney("0.10")
		m.MinFee = methodTestMoney("1")
		m.MaxFee = methodTestMoney("50")
	})

	fees, err := svc.CalculateFees(method.ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("calculate fees failed: %v", err)
	}
	if !fees.TotalFee.Decimal.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected min fee floor 1, got %s", fees.TotalFee.Decimal)
	}
}

func TestCalculateFeesMinFeeFloorSkipsMaxCap(t *testing.T) {
	svc, db := setupMethodServiceTest(t)

	method := createMethodTestMethod(t, db, "payoneer", func(m *models.PaymentMethod) {
		m.FixedFee = methodTestMoney("0.10")
		m.MinFee = methodTestMoney("0.30")
	})

	fees, err := svc.CalculateFees(method.ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("calculate fees failed: %v", err)
	}
	if !fees.TotalFee.Decimal.Equal(methodTestMoney("0.30").Decimal) {
		t.Fatalf("expected min fee floor to win over zero max cap, got %s", fees.TotalFee.Decimal)
	}
	if !fees.NetAmount.Decimal.Equal(methodTestMoney("99.70").Decimal) {
		t.Fatalf("expected net amount 99.70, got %s", fees.NetAmount.Decimal)
	}
}

func TestCalculateFeesRejectsNonPositiveAmount(t *testing.T) {
	svc, db := setupMethodServiceTest(t)

	method := createMethodTestMethod(t, db, "paypal", nil)
	if _, err := svc.CalculateFees(method.ID, decimal.Zero); !errors.Is(err, ErrPayoutAmountInvalid) {
		t.Fatalf("expected ErrPayoutAmountInvalid, got %v", err)
	}
}

func TestValidatePaymentAggregatesAllIssues(t *testing.T) {
	svc, db := setupMethodServiceTest(t)

	user := createMethodTestUser(t, db, "validate-all@example.com")
	profile := createMethodTestProfile(t, db, user.ID, "PAYM0001", func(p *models.AffiliateProfile) {})
	method := createMethodTestMethod(t, db, "strict", func(m *models.PaymentMethod) {
		m.Status = constants.PaymentMethodStatusInactive
		m.MinAmount = methodTestMoney("50")
		m.RequireKYC = true
		m.RequireBankAccount = true
		m.RequireTaxID = true
		m.RequireAddress = true
		m.RequirePhone = true
	})

	result, err := svc.ValidatePayment(profile.ID, method.ID, decimal.NewFromInt(10), "JPY")
	if err != nil {
		t.Fatalf("validate payment failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected validation failure, got valid result")
	}
	if result.Fees == nil {
		t.Fatalf("expected fee breakdown even on failure")
	}

	got := make(map[string]bool, len(result.Issues))
	for _, issue := range result.Issues {
		got[issue.Code] = true
	}
	for _, code := range []string{
		"method_inactive",
		"currency_unsupported",
		"amount_below_minimum",
		"kyc_required",
		"bank_account_required",
		"tax_id_required",
		"address_required",
		"phone_required",
	} {
		if !got[code] {
			t.Fatalf("expected issue %q in %+v", code, result.Issues)
		}
	}
}

func TestValidatePaymentPassesForCompliantProfile(t *testing.T) {
	svc, db := setupMethodServiceTest(t)

	user := createMethodTestUser(t, db, "validate-ok@example.com")
	profile := createMethodTestProfile(t, db, user.ID, "PAYM0002", func(p *models.AffiliateProfile) {
		p.KYCVerified = true
		p.BankAccount = "DE02120300000000202051"
		p.TaxID = "TAX-1"
		p.Address = "1 Main St"
		p.Phone = "+4912345678"
	})
	method := createMethodTestMethod(t, db, "strict", func(m *models.PaymentMethod) {
		m.MinAmount = methodTestMoney("10")
		m.MaxAmount = methodTestMoney("5000")
		m.RequireKYC = true
		m.RequireBankAccount = true
		m.RequireTaxID = true
		m.RequireAddress = true
		m.RequirePhone = true
	})

	result, err := svc.ValidatePayment(profile.ID, method.ID, decimal.NewFromInt(100), "usd")
	if err != nil {
		t.Fatalf("validate payment failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result, got issues %+v", result.Issues)
	}
}

func TestValidatePaymentDailyWindowCountsInFlightPayouts(t *testing.T) {
	svc, db := setupMethodServiceTest(t)

	user := createMethodTestUser(t, db, "validate-daily@example.com")
	profile := createMethodTestProfile(t, db, user.ID, "PAYM0003", nil)
	method := createMethodTestMethod(t, db, "paypal", func(m *models.PaymentMethod) {
		m.DailyLimit = methodTestMoney("100")
	})

	now := time.Now().UTC()
	createMethodTestPayout(t, db, profile.ID, method.ID, "80", constants.PayoutStatusPending, now.Add(-time.Hour))
	createMethodTestPayout(t, db, profile.ID, method.ID, "40", constants.PayoutStatusCancelled, now.Add(-time.Hour))

	result, err := svc.ValidatePayment(profile.ID, method.ID, decimal.NewFromInt(30), "USD")
	if err != nil {
		t.Fatalf("validate payment failed: %v", err)
	}
	if result.Valid || !hasIssueCode(result.Issues, "daily_limit_exceeded") {
		t.Fatalf("expected daily limit exceeded with pending payout counted, got %+v", result.Issues)
	}

	// 取消的流水不计入窗口：80+19 仍在当日限额内
	pass, err := svc.ValidatePayment(profile.ID, method.ID, decimal.NewFromInt(19), "USD")
	if err != nil {
		t.Fatalf("validate payment failed: %v", err)
	}
	if !pass.Valid {
		t.Fatalf("expected amount within daily window to pass, got %+v", pass.Issues)
	}
}

func TestValidatePaymentMonthlyWindowExcludesPriorMonth(t *testing.T) {
	svc, db := setupMethodServiceTest(t)

	user := createMethodTestUser(t, db, "validate-monthly@example.com")
	profile := createMethodTestProfile(t, db, user.ID, "PAYM0004", nil)
	method := createMethodTestMethod(t, db, "paypal", func(m *models.PaymentMethod) {
		m.MonthlyLimit = methodTestMoney("1000")
	})

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	createMethodTestPayout(t, db, profile.ID, method.ID, "900", constants.PayoutStatusCompleted, monthStart.Add(time.Minute))
	createMethodTestPayout(t, db, profile.ID, method.ID, "900", constants.PayoutStatusCompleted, monthStart.Add(-time.Hour))

	result, err := svc.ValidatePayment(profile.ID, method.ID, decimal.NewFromInt(200), "USD")
	if err != nil {
		t.Fatalf("validate payment failed: %v", err)
	}
	if result.Valid || !hasIssueCode(result.Issues, "monthly_limit_exceeded") {
		t.Fatalf("expected monthly limit exceeded, got %+v", result.Issues)
	}

	pass, err := svc.ValidatePayment(profile.ID, method.ID, decimal.NewFromInt(100), "USD")
	if err != nil {
		t.Fatalf("validate payment failed: %v", err)
	}
	if !pass.Valid {
		t.Fatalf("expected prior-month payout excluded from window, got %+v", pass.Issues)
	}
}

func TestValidatePaymentZeroLimitMeansUnlimited(t *testing.T) {
	svc, db := setupMethodServiceTest(t)

	user := createMethodTestUser(t, db, "validate-unlimited@example.com")
	profile := createMethodTestProfile(t, db, user.ID, "PAYM0005", nil)
	method := createMethodTestMethod(t, db, "paypal", nil)

	createMethodTestPayout(t, db, profile.ID, method.ID, "999999", constants.PayoutStatusCompleted, time.Now().UTC().Add(-time.Hour))

	result, err := svc.ValidatePayment(profile.ID, method.ID, decimal.NewFromInt(500), "USD")
	if err != nil {
		t.Fatalf("validate payment failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected zero limits to mean unlimited, got %+v", result.Issues)
	}
}

func TestRecordUsageRefreshesWeightedAverages(t *testing.T) {
	svc, db := setupMethodServiceTest(t)

	user := createMethodTestUser(t, db, "usage@example.com")
	profile := createMethodTestProfile(t, db, user.ID, "PAYM0006", nil)
	method := createMethodTestMethod(t, db, "paypal", nil)

	if err := svc.RecordUsage(profile.ID, method.ID, decimal.NewFromInt(100), true, decimal.NewFromInt(2)); err != nil {
		t.Fatalf("first record usage failed: %v", err)
	}
	if err := svc.RecordUsage(profile.ID, method.ID, decimal.NewFromInt(50), false, decimal.NewFromInt(4)); err != nil {
		t.Fatalf("second record usage failed: %v", err)
	}

	var usage models.PaymentMethodUsage
	if err := db.Where("profile_id = ? AND method_id = ?", profile.ID, method.ID).First(&usage).Error; err != nil {
		t.Fatalf("load usage failed: %v", err)
	}
	if usage.TxCount != 2 {
		t.Fatalf("expected 2 transactions, got %d", usage.TxCount)
	}
	if !usage.SuccessRate.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected success rate 50, got %s", usage.SuccessRate.Decimal)
	}
	if !usage.AvgProcessingHours.Decimal.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected avg processing hours 3, got %s", usage.AvgProcessingHours.Decimal)
	}
	if !usage.TotalAmount.Decimal.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected total amount 150, got %s", usage.TotalAmount.Decimal)
	}
	if usage.LastUsedAt == nil {
		t.Fatalf("expected last used timestamp set")
	}
}

func TestCreateMethodRejectsDuplicateCode(t *testing.T) {
	svc, _ := setupMethodServiceTest(t)

	input := PaymentMethodUpsertInput{
		Name:                "PayPal",
		Code:                "PayPal",
		SupportedCurrencies: []string{"usd", "USD", "eur"},
	}
	created, err := svc.CreateMethod(input)
	if err != nil {
		t.Fatalf("create method failed: %v", err)
	}
	if created.Code != "paypal" {
		t.Fatalf("expected lowercase code, got %q", created.Code)
	}
	if len(created.SupportedCurrencies) != 2 {
		t.Fatalf("expected deduplicated uppercase currencies, got %+v", created.SupportedCurrencies)
	}

	if _, err := svc.CreateMethod(input); !errors.Is(err, ErrPaymentMethodCodeExists) {
		t.Fatalf("expected ErrPaymentMethodCodeExists, got %v", err)
	}
}

func hasIssueCode(issues []ValidationIssue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func setupMethodServiceTest(t *testing.T) (*PaymentMethodService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:payment_method_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.AffiliateProfile{},
		&models.PaymentMethod{},
		&models.PaymentMethodUsage{},
		&models.Payout{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	return NewPaymentMethodService(
		repository.NewPaymentMethodRepository(db),
		repository.NewPayoutRepository(db),
		repository.NewAffiliateRepository(db),
	), db
}

func createMethodTestUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()

	row := models.User{
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  "tester",
		Status:       constants.UserStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return row
}

func createMethodTestProfile(t *testing.T, db *gorm.DB, userID uint, code string, mutate func(*models.AffiliateProfile)) models.AffiliateProfile {
	t.Helper()

	row := models.AffiliateProfile{
		UserID:        userID,
		AffiliateCode: code,
		Status:        constants.AffiliateProfileStatusActive,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if mutate != nil {
		mutate(&row)
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create affiliate profile failed: %v", err)
	}
	return row
}

func createMethodTestMethod(t *testing.T, db *gorm.DB, code string, mutate func(*models.PaymentMethod)) models.PaymentMethod {
	t.Helper()

	row := models.PaymentMethod{
		Name:                code,
		Code:                code,
		Status:              constants.PaymentMethodStatusActive,
		SupportedCurrencies: models.StringArray{"USD", "EUR"},
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
	if mutate != nil {
		mutate(&row)
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create payment method failed: %v", err)
	}
	return row
}

func createMethodTestPayout(t *testing.T, db *gorm.DB, profileID, methodID uint, amount, status string, requestedAt time.Time) models.Payout {
	t.Helper()

	row := models.Payout{
		ProfileID:   profileID,
		MethodID:    methodID,
		Amount:      methodTestMoney(amount),
		Currency:    "USD",
		Status:      status,
		RequestedAt: requestedAt,
		CreatedAt:   requestedAt,
		UpdatedAt:   requestedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create payout failed: %v", err)
	}
	return row
}

func methodTestMoney(value string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(value))
}
