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

func TestRequestPayoutCreatesPendingPayoutWithFees(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)

	user := createPayoutTestUser(t, db, "payout-ok@example.com")
	profile := createPayoutTestProfile(t, db, user.ID, "PO000001")
	method := createPayoutTestMethod(t, db, "paypal", func(m *models.PaymentMethod) {
		m.FixedFee = payoutTestMoney("0.30")
		m.PercentFee = payoutTestMoney("2.9")
		m.MaxFee = payoutTestMoney("20")
	})

	result, err := svc.RequestPayout(profile.ID, method.ID, decimal.NewFromInt(100), "usd")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	payout := result.Payout
	if payout == nil || payout.Status != constants.PayoutStatusPending {
		t.Fatalf("expected pending payout, got %+v", payout)
	}
	if payout.Currency != "USD" {
		t.Fatalf("expected normalized currency USD, got %q", payout.Currency)
	}
	if !payout.Fee.Decimal.Equal(decimal.RequireFromString("0.30")) {
		t.Fatalf("expected fee 0.30, got %s", payout.Fee.Decimal)
	}
	if !payout.NetAmount.Decimal.Equal(decimal.RequireFromString("99.70")) {
		t.Fatalf("expected net amount 99.70, got %s", payout.NetAmount.Decimal)
	}

	var count int64
	if err := db.Model(&models.Payout{}).Where("profile_id = ?", profile.ID).Count(&count).Error; err != nil {
		t.Fatalf("count payouts failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one payout row, got %d", count)
	}
}

func TestRequestPayoutValidationFailureWritesNothing(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)

	user := createPayoutTestUser(t, db, "payout-invalid@example.com")
	profile := createPayoutTestProfile(t, db, user.ID, "PO000002")
	method := createPayoutTestMethod(t, db, "strict", func(m *models.PaymentMethod) {
		m.MinAmount = payoutTestMoney("50")
		m.RequireKYC = true
	})

	result, err := svc.RequestPayout(profile.ID, method.ID, decimal.NewFromInt(10), "USD")
	if !errors.Is(err, ErrPayoutValidationFailed) {
		t.Fatalf("expected ErrPayoutValidationFailed, got %v", err)
	}
	if result == nil || result.Validation == nil || result.Validation.Valid {
		t.Fatalf("expected failed validation details, got %+v", result)
	}
	if result.Payout != nil {
		t.Fatalf("expected no payout on validation failure, got %+v", result.Payout)
	}
	if !hasIssueCode(result.Validation.Issues, "amount_below_minimum") || !hasIssueCode(result.Validation.Issues, "kyc_required") {
		t.Fatalf("expected aggregated issues, got %+v", result.Validation.Issues)
	}

	var count int64
	if err := db.Model(&models.Payout{}).Where("profile_id = ?", profile.ID).Count(&count).Error; err != nil {
		t.Fatalf("count payouts failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty payout table, got %d rows", count)
	}
}

func TestRequestPayoutWindowIncludesEarlierPendingRequest(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)

	user := createPayoutTestUser(t, db, "payout-window@example.com")
	profile := createPayoutTestProfile(t, db, user.ID, "PO000003")
	method := createPayoutTestMethod(t, db, "paypal", func(m *models.PaymentMethod) {
		m.DailyLimit = payoutTestMoney("100")
	})

	if _, err := svc.RequestPayout(profile.ID, method.ID, decimal.NewFromInt(80), "USD"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	result, err := svc.RequestPayout(profile.ID, method.ID, decimal.NewFromInt(30), "USD")
	if !errors.Is(err, ErrPayoutValidationFailed) {
		t.Fatalf("expected daily limit rejection, got %v", err)
	}
	if !hasIssueCode(result.Validation.Issues, "daily_limit_exceeded") {
		t.Fatalf("expected daily_limit_exceeded, got %+v", result.Validation.Issues)
	}
}

func TestRequestPayoutRejectsDisabledProfile(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)

	user := createPayoutTestUser(t, db, "payout-disabled@example.com")
	profile := createPayoutTestProfile(t, db, user.ID, "PO000004")
	if err := db.Model(&models.AffiliateProfile{}).Where("id = ?", profile.ID).
		Update("status", constants.AffiliateProfileStatusDisabled).Error; err != nil {
		t.Fatalf("disable profile failed: %v", err)
	}
	method := createPayoutTestMethod(t, db, "paypal", nil)

	if _, err := svc.RequestPayout(profile.ID, method.ID, decimal.NewFromInt(10), "USD"); !errors.Is(err, ErrAffiliateDisabled) {
		t.Fatalf("expected ErrAffiliateDisabled, got %v", err)
	}
}

func TestPayoutLifecycleTransitions(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)

	user := createPayoutTestUser(t, db, "payout-lifecycle@example.com")
	profile := createPayoutTestProfile(t, db, user.ID, "PO000005")
	method := createPayoutTestMethod(t, db, "paypal", nil)

	result, err := svc.RequestPayout(profile.ID, method.ID, decimal.NewFromInt(100), "USD")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	payoutID := result.Payout.ID

	if err := svc.MarkProcessing(payoutID); err != nil {
		t.Fatalf("mark processing failed: %v", err)
	}
	if err := svc.CancelPayout(payoutID); !errors.Is(err, ErrPayoutStatusInvalid) {
		t.Fatalf("expected cancel rejected once processing, got %v", err)
	}
	if err := svc.CompletePayout(payoutID); err != nil {
		t.Fatalf("complete payout failed: %v", err)
	}
	if err := svc.CompletePayout(payoutID); !errors.Is(err, ErrPayoutStatusInvalid) {
		t.Fatalf("expected repeat completion rejected, got %v", err)
	}

	payout, err := svc.GetPayout(payoutID)
	if err != nil {
		t.Fatalf("load payout failed: %v", err)
	}
	if payout.Status != constants.PayoutStatusCompleted || payout.CompletedAt == nil {
		t.Fatalf("expected completed payout with timestamp, got %+v", payout)
	}

	// 完成回写使用统计
	var usage models.PaymentMethodUsage
	if err := db.Where("profile_id = ? AND method_id = ?", profile.ID, method.ID).First(&usage).Error; err != nil {
		t.Fatalf("load usage failed: %v", err)
	}
	if usage.TxCount != 1 || !usage.SuccessRate.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected successful usage sample, got %+v", usage)
	}
}

func TestFailPayoutRecordsReasonAndUsage(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)

	user := createPayoutTestUser(t, db, "payout-fail@example.com")
	profile := createPayoutTestProfile(t, db, user.ID, "PO000006")
	method := createPayoutTestMethod(t, db, "paypal", nil)

	result, err := svc.RequestPayout(profile.ID, method.ID, decimal.NewFromInt(100), "USD")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	if err := svc.FailPayout(result.Payout.ID, "  account closed  "); err != nil {
		t.Fatalf("fail payout failed: %v", err)
	}

	payout, err := svc.GetPayout(result.Payout.ID)
	if err != nil {
		t.Fatalf("load payout failed: %v", err)
	}
	if payout.Status != constants.PayoutStatusFailed || payout.FailReason != "account closed" {
		t.Fatalf("expected failed payout with trimmed reason, got %+v", payout)
	}

	var usage models.PaymentMethodUsage
	if err := db.Where("profile_id = ? AND method_id = ?", profile.ID, method.ID).First(&usage).Error; err != nil {
		t.Fatalf("load usage failed: %v", err)
	}
	if !usage.SuccessRate.Decimal.Equal(decimal.Zero) {
		t.Fatalf("expected failure sample, got %+v", usage)
	}
}

func TestCancelPayoutSkipsUsageStats(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)

	user := createPayoutTestUser(t, db, "payout-cancel@example.com")
	profile := createPayoutTestProfile(t, db, user.ID, "PO000007")
	method := createPayoutTestMethod(t, db, "paypal", nil)

	result, err := svc.RequestPayout(profile.ID, method.ID, decimal.NewFromInt(100), "USD")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	if err := svc.CancelPayout(result.Payout.ID); err != nil {
		t.Fatalf("cancel payout failed: %v", err)
	}

	payout, err := svc.GetPayout(result.Payout.ID)
	if err != nil {
		t.Fatalf("load payout failed: %v", err)
	}
	if payout.Status != constants.PayoutStatusCancelled {
		t.Fatalf("expected cancelled payout, got %+v", payout)
	}

	var usageCount int64
	if err := db.Model(&models.PaymentMethodUsage{}).Where("profile_id = ?", profile.ID).Count(&usageCount).Error; err != nil {
		t.Fatalf("count usage failed: %v", err)
	}
	if usageCount != 0 {
		t.Fatalf("expected no usage rows after cancel, got %d", usageCount)
	}
}

func setupPayoutServiceTest(t *testing.T) (*PayoutService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:payout_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	payoutRepo := repository.NewPayoutRepository(db)
	methodRepo := repository.NewPaymentMethodRepository(db)
	affiliateRepo := repository.NewAffiliateRepository(db)
	methodService := NewPaymentMethodService(methodRepo, payoutRepo, affiliateRepo)
	return NewPayoutService(payoutRepo, methodRepo, affiliateRepo, methodService, nil, nil, 0), db
}

func createPayoutTestUser(t *testing.T, db *gorm.DB, email string) models.User {
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

func createPayoutTestProfile(t *testing.T, db *gorm.DB, userID uint, code string) models.AffiliateProfile {
	t.Helper()

	row := models.AffiliateProfile{
		UserID:        userID,
		AffiliateCode: code,
		Status:        constants.AffiliateProfileStatusActive,
		KYCVerified:   true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create affiliate profile failed: %v", err)
	}
	return row
}

func createPayoutTestMethod(t *testing.T, db *gorm.DB, code string, mutate func(*models.PaymentMethod)) models.PaymentMethod {
	t.Helper()

	row := models.PaymentMethod{
		Name:                code,
		Code:                code,
		Status:              constants.PaymentMethodStatusActive,
		SupportedCurrencies: models.StringArray{"USD"},
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

func payoutTestMoney(value string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(value))
}
