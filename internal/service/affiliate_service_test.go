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

func TestOpenAffiliateCreatesActiveProfile(t *testing.T) {
	svc, db := setupAffiliateServiceTest(t)

	user := createAffiliateTestUser(t, db, "open@example.com")
	profile, err := svc.OpenAffiliate(user.ID)
	if err != nil {
		t.Fatalf("open affiliate failed: %v", err)
	}
	if profile.Status != constants.AffiliateProfileStatusActive {
		t.Fatalf("expected active profile, got %q", profile.Status)
	}
	if profile.AffiliateCode == "" {
		t.Fatalf("expected generated affiliate code")
	}

	if _, err := svc.OpenAffiliate(user.ID); !errors.Is(err, ErrAffiliateAlreadyOpened) {
		t.Fatalf("expected ErrAffiliateAlreadyOpened, got %v", err)
	}
}

func TestOpenAffiliateRejectsDisabledUser(t *testing.T) {
	svc, db := setupAffiliateServiceTest(t)

	user := createAffiliateTestUser(t, db, "open-disabled@example.com")
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}

	if _, err := svc.OpenAffiliate(user.ID); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestRecordClickIncrementsCounter(t *testing.T) {
	svc, db := setupAffiliateServiceTest(t)

	user := createAffiliateTestUser(t, db, "click@example.com")
	profile := createAffiliateTestProfile(t, db, user.ID, "AFFC0001", constants.AffiliateProfileStatusActive)

	for i := 0; i < 3; i++ {
		if err := svc.RecordClick(profile.AffiliateCode); err != nil {
			t.Fatalf("record click failed: %v", err)
		}
	}

	reloaded, err := svc.GetProfile(profile.ID)
	if err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if reloaded.TotalClicks != 3 {
		t.Fatalf("expected 3 clicks, got %d", reloaded.TotalClicks)
	}
}

func TestRecordConversionAccumulatesEarnings(t *testing.T) {
	svc, db := setupAffiliateServiceTest(t)

	user := createAffiliateTestUser(t, db, "conversion@example.com")
	profile := createAffiliateTestProfile(t, db, user.ID, "AFFC0002", constants.AffiliateProfileStatusActive)

	if err := svc.RecordConversion(profile.AffiliateCode, decimal.RequireFromString("12.50")); err != nil {
		t.Fatalf("record conversion failed: %v", err)
	}
	if err := svc.RecordConversion(profile.AffiliateCode, decimal.RequireFromString("7.25")); err != nil {
		t.Fatalf("record conversion failed: %v", err)
	}

	reloaded, err := svc.GetProfile(profile.ID)
	if err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if reloaded.TotalConversions != 2 {
		t.Fatalf("expected 2 conversions, got %d", reloaded.TotalConversions)
	}
	if !reloaded.TotalEarnings.Decimal.Equal(decimal.RequireFromString("19.75")) {
		t.Fatalf("expected earnings 19.75, got %s", reloaded.TotalEarnings.Decimal)
	}
}

func TestRecordConversionRejectsNegativeEarnings(t *testing.T) {
	svc, db := setupAffiliateServiceTest(t)

	user := createAffiliateTestUser(t, db, "conversion-neg@example.com")
	profile := createAffiliateTestProfile(t, db, user.ID, "AFFC0003", constants.AffiliateProfileStatusActive)

	err := svc.RecordConversion(profile.AffiliateCode, decimal.NewFromInt(-5))
	if !errors.Is(err, ErrAffiliateEarningsInvalid) {
		t.Fatalf("expected ErrAffiliateEarningsInvalid, got %v", err)
	}
}

func TestRecordReferralIncrementsCounter(t *testing.T) {
	svc, db := setupAffiliateServiceTest(t)

	user := createAffiliateTestUser(t, db, "referral@example.com")
	profile := createAffiliateTestProfile(t, db, user.ID, "AFFC0004", constants.AffiliateProfileStatusActive)

	if err := svc.RecordReferral(profile.AffiliateCode); err != nil {
		t.Fatalf("record referral failed: %v", err)
	}

	reloaded, err := svc.GetProfile(profile.ID)
	if err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if reloaded.TotalReferrals != 1 {
		t.Fatalf("expected 1 referral, got %d", reloaded.TotalReferrals)
	}
}

func TestTrackingRejectsUnknownOrDisabledCode(t *testing.T) {
	svc, db := setupAffiliateServiceTest(t)

	user := createAffiliateTestUser(t, db, "tracking-disabled@example.com")
	disabled := createAffiliateTestProfile(t, db, user.ID, "AFFC0005", constants.AffiliateProfileStatusDisabled)

	if err := svc.RecordClick("NOPE0000"); !errors.Is(err, ErrAffiliateNotOpened) {
		t.Fatalf("expected ErrAffiliateNotOpened for unknown code, got %v", err)
	}
	if err := svc.RecordClick(disabled.AffiliateCode); !errors.Is(err, ErrAffiliateDisabled) {
		t.Fatalf("expected ErrAffiliateDisabled, got %v", err)
	}

	reloaded, err := svc.GetProfile(disabled.ID)
	if err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if reloaded.TotalClicks != 0 {
		t.Fatalf("expected no clicks recorded on disabled profile, got %d", reloaded.TotalClicks)
	}
}

func TestUpdateProfileStatusValidatesInput(t *testing.T) {
	svc, db := setupAffiliateServiceTest(t)

	user := createAffiliateTestUser(t, db, "status@example.com")
	profile := createAffiliateTestProfile(t, db, user.ID, "AFFC0006", constants.AffiliateProfileStatusActive)

	updated, err := svc.UpdateProfileStatus(profile.ID, constants.AffiliateProfileStatusDisabled)
	if err != nil {
		t.Fatalf("disable profile failed: %v", err)
	}
	if updated.Status != constants.AffiliateProfileStatusDisabled {
		t.Fatalf("expected disabled status, got %q", updated.Status)
	}

	if _, err := svc.UpdateProfileStatus(profile.ID, "banned"); !errors.Is(err, ErrAffiliateProfileStatusInvalid) {
		t.Fatalf("expected ErrAffiliateProfileStatusInvalid, got %v", err)
	}
}

func TestUpdateComplianceWritesOnlySubmittedFields(t *testing.T) {
	svc, db := setupAffiliateServiceTest(t)

	user := createAffiliateTestUser(t, db, "compliance@example.com")
	profile := createAffiliateTestProfile(t, db, user.ID, "AFFC0007", constants.AffiliateProfileStatusActive)

	kyc := true
	bank := "  DE02120300000000202051  "
	updated, err := svc.UpdateCompliance(profile.ID, AffiliateComplianceInput{
		KYCVerified: &kyc,
		BankAccount: &bank,
	})
	if err != nil {
		t.Fatalf("update compliance failed: %v", err)
	}
	if !updated.KYCVerified {
		t.Fatalf("expected KYC verified")
	}
	if updated.BankAccount != "DE02120300000000202051" {
		t.Fatalf("expected trimmed bank account, got %q", updated.BankAccount)
	}

	phone := "+4912345678"
	updated, err = svc.UpdateCompliance(profile.ID, AffiliateComplianceInput{Phone: &phone})
	if err != nil {
		t.Fatalf("update compliance failed: %v", err)
	}
	if !updated.KYCVerified || updated.BankAccount == "" {
		t.Fatalf("expected earlier fields untouched, got %+v", updated)
	}
	if updated.Phone != phone {
		t.Fatalf("expected phone %q, got %q", phone, updated.Phone)
	}
}

func TestGetDashboardReturnsTierAndRecentPayouts(t *testing.T) {
	svc, db := setupAffiliateServiceTest(t)

	user := createAffiliateTestUser(t, db, "dashboard@example.com")
	profile := createAffiliateTestProfile(t, db, user.ID, "AFFC0008", constants.AffiliateProfileStatusActive)
	tier := createTierTestTier(t, db, "Bronze", 1, tierTestRequirements{})

	if _, err := svc.tierService.AssignTier(profile.ID, tier.ID, constants.TierAssignReasonManual); err != nil {
		t.Fatalf("assign tier failed: %v", err)
	}

	dashboard, err := svc.GetDashboard(profile.ID)
	if err != nil {
		t.Fatalf("get dashboard failed: %v", err)
	}
	if dashboard.Profile == nil || dashboard.Profile.ID != profile.ID {
		t.Fatalf("expected profile in dashboard, got %+v", dashboard.Profile)
	}
	if dashboard.ActiveTier == nil || dashboard.ActiveTier.ID != tier.ID {
		t.Fatalf("expected active tier in dashboard, got %+v", dashboard.ActiveTier)
	}
	if len(dashboard.RecentPayouts) != 0 {
		t.Fatalf("expected no recent payouts, got %+v", dashboard.RecentPayouts)
	}
	if dashboard.Progress == nil || !dashboard.Progress.OverallProgress.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected top-tier progress snapshot, got %+v", dashboard.Progress)
	}
}

func TestListProfilesFiltersByUserAndCode(t *testing.T) {
	svc, db := setupAffiliateServiceTest(t)

	first := createAffiliateTestUser(t, db, "list-a@example.com")
	second := createAffiliateTestUser(t, db, "list-b@example.com")
	profileA := createAffiliateTestProfile(t, db, first.ID, "AFFL0001", constants.AffiliateProfileStatusActive)
	profileB := createAffiliateTestProfile(t, db, second.ID, "AFFL0002", constants.AffiliateProfileStatusActive)

	rows, total, err := svc.ListProfiles(repository.AffiliateProfileListFilter{UserID: first.ID})
	if err != nil {
		t.Fatalf("list by user failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != profileA.ID {
		t.Fatalf("expected only first user's profile, got total=%d rows=%+v", total, rows)
	}

	rows, total, err = svc.ListProfiles(repository.AffiliateProfileListFilter{Code: " AFFL0002 "})
	if err != nil {
		t.Fatalf("list by code failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != profileB.ID {
		t.Fatalf("expected exact code match, got total=%d rows=%+v", total, rows)
	}

	rows, total, err = svc.ListProfiles(repository.AffiliateProfileListFilter{UserID: first.ID, Code: "AFFL0002"})
	if err != nil {
		t.Fatalf("list with mixed filter failed: %v", err)
	}
	if total != 0 || len(rows) != 0 {
		t.Fatalf("expected no rows for mismatched filter, got total=%d rows=%+v", total, rows)
	}
}

func setupAffiliateServiceTest(t *testing.T) (*AffiliateService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:affiliate_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.AffiliateProfile{},
		&models.Tier{},
		&models.TierAssignment{},
		&models.TierProgress{},
		&models.Payout{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	affiliateRepo := repository.NewAffiliateRepository(db)
	tierService := NewTierService(repository.NewTierRepository(db), affiliateRepo)
	return NewAffiliateService(
		affiliateRepo,
		repository.NewUserRepository(db),
		repository.NewPayoutRepository(db),
		tierService,
		nil,
	), db
}

func createAffiliateTestUser(t *testing.T, db *gorm.DB, email string) models.User {
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

func createAffiliateTestProfile(t *testing.T, db *gorm.DB, userID uint, code, status string) models.AffiliateProfile {
	t.Helper()

	row := models.AffiliateProfile{
		UserID:        userID,
		AffiliateCode: code,
		Status:        status,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create affiliate profile failed: %v", err)
	}
	return row
}
