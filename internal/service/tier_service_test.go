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

func TestCreateTierRejectsDuplicateNameAndLevel(t *testing.T) {
	svc, _ := setupTierServiceTest(t)

	if _, err := svc.CreateTier(TierUpsertInput{Name: "Bronze", Level: 1}); err != nil {
		t.Fatalf("create tier failed: %v", err)
	}
	if _, err := svc.CreateTier(TierUpsertInput{Name: "Bronze", Level: 2}); !errors.Is(err, ErrTierNameExists) {
		t.Fatalf("expected ErrTierNameExists, got %v", err)
	}
	if _, err := svc.CreateTier(TierUpsertInput{Name: "Silver", Level: 1}); !errors.Is(err, ErrTierLevelExists) {
		t.Fatalf("expected ErrTierLevelExists, got %v", err)
	}
	if _, err := svc.CreateTier(TierUpsertInput{Name: "", Level: 3}); !errors.Is(err, ErrTierLevelInvalid) {
		t.Fatalf("expected ErrTierLevelInvalid for empty name, got %v", err)
	}
}

func TestAssignTierKeepsSingleActiveAssignment(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-single@example.com")
	profile := createTierTestProfile(t, db, user.ID, "TIER0001", 0, 0, 0, "0")
	bronze := createTierTestTier(t, db, "Bronze", 1, tierTestRequirements{})
	silver := createTierTestTier(t, db, "Silver", 2, tierTestRequirements{})

	first, err := svc.AssignTier(profile.ID, bronze.ID, constants.TierAssignReasonManual)
	if err != nil {
		t.Fatalf("assign bronze failed: %v", err)
	}
	second, err := svc.AssignTier(profile.ID, silver.ID, constants.TierAssignReasonManual)
	if err != nil {
		t.Fatalf("assign silver failed: %v", err)
	}
	if second.TierID != silver.ID || second.Status != constants.TierAssignmentStatusActive {
		t.Fatalf("expected active silver assignment, got %+v", second)
	}

	var activeCount int64
	if err := db.Model(&models.TierAssignment{}).
		Where("profile_id = ? AND status = ?", profile.ID, constants.TierAssignmentStatusActive).
		Count(&activeCount).Error; err != nil {
		t.Fatalf("count active assignments failed: %v", err)
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly one active assignment, got %d", activeCount)
	}

	var expired models.TierAssignment
	if err := db.First(&expired, first.ID).Error; err != nil {
		t.Fatalf("load first assignment failed: %v", err)
	}
	if expired.Status != constants.TierAssignmentStatusExpired || expired.ExpiredAt == nil {
		t.Fatalf("expected first assignment expired with timestamp, got %+v", expired)
	}
}

func TestAssignTierSameTierIsIdempotent(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-idem@example.com")
	profile := createTierTestProfile(t, db, user.ID, "TIER0002", 0, 0, 0, "0")
	bronze := createTierTestTier(t, db, "Bronze", 1, tierTestRequirements{})

	first, err := svc.AssignTier(profile.ID, bronze.ID, constants.TierAssignReasonManual)
	if err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	second, err := svc.AssignTier(profile.ID, bronze.ID, constants.TierAssignReasonManual)
	if err != nil {
		t.Fatalf("repeat assign failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the existing assignment %d, got %d", first.ID, second.ID)
	}

	var total int64
	if err := db.Model(&models.TierAssignment{}).Where("profile_id = ?", profile.ID).Count(&total).Error; err != nil {
		t.Fatalf("count assignments failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected a single assignment row, got %d", total)
	}
}

func TestAssignTierRejectsInactiveTier(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-inactive@example.com")
	profile := createTierTestProfile(t, db, user.ID, "TIER0003", 0, 0, 0, "0")
	retired := createTierTestTier(t, db, "Retired", 1, tierTestRequirements{status: constants.TierStatusInactive})

	if _, err := svc.AssignTier(profile.ID, retired.ID, constants.TierAssignReasonManual); !errors.Is(err, ErrTierInactive) {
		t.Fatalf("expected ErrTierInactive, got %v", err)
	}
}

func TestDeleteTierWithActiveAssignments(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-delete@example.com")
	profile := createTierTestProfile(t, db, user.ID, "TIER0004", 0, 0, 0, "0")
	bronze := createTierTestTier(t, db, "Bronze", 1, tierTestRequirements{})

	if _, err := svc.AssignTier(profile.ID, bronze.ID, constants.TierAssignReasonManual); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if err := svc.DeleteTier(bronze.ID); !errors.Is(err, ErrTierInUse) {
		t.Fatalf("expected ErrTierInUse, got %v", err)
	}
}

func TestCalculateTierProgressZeroRequirementCountsAsMet(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-progress@example.com")
	profile := createTierTestProfile(t, db, user.ID, "TIER0005", 50, 0, 0, "0")
	bronze := createTierTestTier(t, db, "Bronze", 1, tierTestRequirements{})
	createTierTestTier(t, db, "Silver", 2, tierTestRequirements{minClicks: 100})

	if _, err := svc.AssignTier(profile.ID, bronze.ID, constants.TierAssignReasonManual); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	result, err := svc.CalculateTierProgress(profile.ID)
	if err != nil {
		t.Fatalf("calculate progress failed: %v", err)
	}
	if result.Next == nil || result.Next.Name != "Silver" {
		t.Fatalf("expected Silver as next tier, got %+v", result.Next)
	}
	progress := result.Progress
	if !progress.ClicksRatio.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected clicks ratio 50, got %s", progress.ClicksRatio.Decimal)
	}
	for name, ratio := range map[string]decimal.Decimal{
		"referrals":   progress.ReferralsRatio.Decimal,
		"conversions": progress.ConversionsRatio.Decimal,
		"earnings":    progress.EarningsRatio.Decimal,
	} {
		if !ratio.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("expected %s ratio 100 for zero requirement, got %s", name, ratio)
		}
	}
	if !progress.OverallProgress.Decimal.Equal(decimal.RequireFromString("87.5")) {
		t.Fatalf("expected overall 87.5, got %s", progress.OverallProgress.Decimal)
	}
}

func TestCalculateTierProgressAtHighestTier(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-top@example.com")
	profile := createTierTestProfile(t, db, user.ID, "TIER0006", 10, 1, 0, "5")
	gold := createTierTestTier(t, db, "Gold", 3, tierTestRequirements{minClicks: 5000})

	if _, err := svc.AssignTier(profile.ID, gold.ID, constants.TierAssignReasonManual); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	result, err := svc.CalculateTierProgress(profile.ID)
	if err != nil {
		t.Fatalf("calculate progress failed: %v", err)
	}
	if result.Next != nil {
		t.Fatalf("expected no next tier at the top level, got %+v", result.Next)
	}
	if !result.Progress.OverallProgress.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected overall 100 at highest tier, got %s", result.Progress.OverallProgress.Decimal)
	}
	if !result.Progress.ClicksRatio.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected clicks ratio 100 at highest tier, got %s", result.Progress.ClicksRatio.Decimal)
	}
}

func TestCalculateTierProgressCapsRatiosAtHundred(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-cap@example.com")
	profile := createTierTestProfile(t, db, user.ID, "TIER0007", 500, 0, 0, "0")
	bronze := createTierTestTier(t, db, "Bronze", 1, tierTestRequirements{})
	createTierTestTier(t, db, "Silver", 2, tierTestRequirements{minClicks: 100, minConversions: 10})

	if _, err := svc.AssignTier(profile.ID, bronze.ID, constants.TierAssignReasonManual); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	result, err := svc.CalculateTierProgress(profile.ID)
	if err != nil {
		t.Fatalf("calculate progress failed: %v", err)
	}
	if !result.Progress.ClicksRatio.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected overshoot clamped to 100, got %s", result.Progress.ClicksRatio.Decimal)
	}
	if !result.Progress.ConversionsRatio.Decimal.Equal(decimal.Zero) {
		t.Fatalf("expected conversions ratio 0, got %s", result.Progress.ConversionsRatio.Decimal)
	}
}

func TestCheckTierEligibilityPicksHighestQualifyingTier(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-eligible@example.com")
	profile := createTierTestProfile(t, db, user.ID, "TIER0008", 6000, 300, 0, "2500")
	createTierTestTier(t, db, "Bronze", 1, tierTestRequirements{})
	createTierTestTier(t, db, "Silver", 2, tierTestRequirements{minClicks: 500, minConversions: 20, minEarnings: "200"})
	gold := createTierTestTier(t, db, "Gold", 3, tierTestRequirements{minClicks: 5000, minConversions: 200, minEarnings: "2000"})

	eligibility, err := svc.CheckTierEligibility(profile.ID)
	if err != nil {
		t.Fatalf("check eligibility failed: %v", err)
	}
	if !eligibility.Eligible || eligibility.Tier == nil || eligibility.Tier.ID != gold.ID {
		t.Fatalf("expected Gold (%d) as highest qualifying tier, got %+v", gold.ID, eligibility)
	}
	if eligibility.Reason != "" {
		t.Fatalf("expected empty reason for qualifying profile, got %q", eligibility.Reason)
	}
}

func TestCheckTierEligibilityIgnoresReferralRequirement(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-referrals@example.com")
	profile := createTierTestProfile(t, db, user.ID, "TIER0009", 600, 25, 0, "300")
	silver := createTierTestTier(t, db, "Silver", 2, tierTestRequirements{
		minClicks:      500,
		minConversions: 20,
		minEarnings:    "200",
		minReferrals:   9999,
	})

	eligibility, err := svc.CheckTierEligibility(profile.ID)
	if err != nil {
		t.Fatalf("check eligibility failed: %v", err)
	}
	if !eligibility.Eligible || eligibility.Tier == nil || eligibility.Tier.ID != silver.ID {
		t.Fatalf("expected referral shortfall to be ignored, got %+v", eligibility)
	}
}

func TestCheckTierEligibilitySkipsCurrentAndLowerTiers(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-nodemote@example.com")
	profile := createTierTestProfile(t, db, user.ID, "TIER0010", 600, 25, 0, "300")
	createTierTestTier(t, db, "Bronze", 1, tierTestRequirements{})
	silver := createTierTestTier(t, db, "Silver", 2, tierTestRequirements{minClicks: 500, minConversions: 20, minEarnings: "200"})
	createTierTestTier(t, db, "Gold", 3, tierTestRequirements{minClicks: 5000, minConversions: 200, minEarnings: "2000"})

	if _, err := svc.AssignTier(profile.ID, silver.ID, constants.TierAssignReasonManual); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	eligibility, err := svc.CheckTierEligibility(profile.ID)
	if err != nil {
		t.Fatalf("check eligibility failed: %v", err)
	}
	if eligibility.Eligible || eligibility.Tier != nil {
		t.Fatalf("expected no promotion candidate at or below current level, got %+v", eligibility)
	}
	if eligibility.Reason != "requirements not met" {
		t.Fatalf("expected reason for rejection, got %q", eligibility.Reason)
	}
}

func TestCheckTierEligibilityExcludesInactiveTiers(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-onlyactive@example.com")
	profile := createTierTestProfile(t, db, user.ID, "TIER0011", 6000, 300, 0, "2500")
	silver := createTierTestTier(t, db, "Silver", 2, tierTestRequirements{minClicks: 500, minConversions: 20, minEarnings: "200"})
	createTierTestTier(t, db, "Gold", 3, tierTestRequirements{
		minClicks: 5000, minConversions: 200, minEarnings: "2000",
		status: constants.TierStatusInactive,
	})

	eligibility, err := svc.CheckTierEligibility(profile.ID)
	if err != nil {
		t.Fatalf("check eligibility failed: %v", err)
	}
	if !eligibility.Eligible || eligibility.Tier == nil || eligibility.Tier.ID != silver.ID {
		t.Fatalf("expected inactive Gold skipped in favor of Silver, got %+v", eligibility)
	}
}

func TestAutoAssignTiersPromotesEligibleProfiles(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	userA := createTierTestUser(t, db, "tier-batch-a@example.com")
	userB := createTierTestUser(t, db, "tier-batch-b@example.com")
	eligible := createTierTestProfile(t, db, userA.ID, "TIER0012", 800, 30, 0, "400")
	laggard := createTierTestProfile(t, db, userB.ID, "TIER0013", 10, 0, 0, "0")
	silver := createTierTestTier(t, db, "Silver", 2, tierTestRequirements{minClicks: 500, minConversions: 20, minEarnings: "200"})

	result, err := svc.AutoAssignTiers(10)
	if err != nil {
		t.Fatalf("auto assign failed: %v", err)
	}
	if result.Scanned != 2 {
		t.Fatalf("expected 2 profiles scanned, got %d", result.Scanned)
	}
	if result.Assigned != 1 {
		t.Fatalf("expected 1 promotion, got %d", result.Assigned)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("expected no failures, got %+v", result.Failures)
	}

	assignment, err := svc.GetActiveAssignment(eligible.ID)
	if err != nil {
		t.Fatalf("load assignment failed: %v", err)
	}
	if assignment == nil || assignment.TierID != silver.ID || assignment.Reason != constants.TierAssignReasonAuto {
		t.Fatalf("expected auto assignment to Silver, got %+v", assignment)
	}

	if other, err := svc.GetActiveAssignment(laggard.ID); err != nil || other != nil {
		t.Fatalf("expected laggard left unassigned, got %+v err=%v", other, err)
	}
}

func TestAutoAssignTiersIsIdempotentAcrossRuns(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	user := createTierTestUser(t, db, "tier-rerun@example.com")
	createTierTestProfile(t, db, user.ID, "TIER0014", 800, 30, 0, "400")
	createTierTestTier(t, db, "Silver", 2, tierTestRequirements{minClicks: 500, minConversions: 20, minEarnings: "200"})

	if _, err := svc.AutoAssignTiers(10); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := svc.AutoAssignTiers(10)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.Assigned != 0 {
		t.Fatalf("expected no new promotions on rerun, got %d", second.Assigned)
	}
}

func TestAutoAssignTiersIsolatesPerProfileFailures(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	userA := createTierTestUser(t, db, "tier-isolate-a@example.com")
	userB := createTierTestUser(t, db, "tier-isolate-b@example.com")
	broken := createTierTestProfile(t, db, userA.ID, "TIER0015", 800, 30, 0, "400")
	healthy := createTierTestProfile(t, db, userB.ID, "TIER0016", 800, 30, 0, "400")
	silver := createTierTestTier(t, db, "Silver", 2, tierTestRequirements{minClicks: 500, minConversions: 20, minEarnings: "200"})

	// 人为破坏一条档案的金额列，使该档案读取报错
	if err := db.Exec("UPDATE affiliate_profiles SET total_earnings = 'not-a-number' WHERE id = ?", broken.ID).Error; err != nil {
		t.Fatalf("corrupt profile row failed: %v", err)
	}

	result, err := svc.AutoAssignTiers(10)
	if err != nil {
		t.Fatalf("auto assign failed: %v", err)
	}
	if result.Scanned != 2 {
		t.Fatalf("expected 2 profiles scanned, got %d", result.Scanned)
	}
	if result.Assigned != 1 {
		t.Fatalf("expected the healthy profile promoted, got %d", result.Assigned)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("expected exactly one failure, got %+v", result.Failures)
	}
	if result.Failures[0].ProfileID != broken.ID || result.Failures[0].Error == "" {
		t.Fatalf("expected failure recorded for broken profile, got %+v", result.Failures[0])
	}

	assignment, err := svc.GetActiveAssignment(healthy.ID)
	if err != nil {
		t.Fatalf("load assignment failed: %v", err)
	}
	if assignment == nil || assignment.TierID != silver.ID {
		t.Fatalf("expected healthy profile assigned to Silver, got %+v", assignment)
	}
}

func TestGetTierLeaderboardOrdersByProgress(t *testing.T) {
	svc, db := setupTierServiceTest(t)

	userA := createTierTestUser(t, db, "tier-board-a@example.com")
	userB := createTierTestUser(t, db, "tier-board-b@example.com")
	closer := createTierTestProfile(t, db, userA.ID, "TIER0017", 90, 0, 0, "500")
	richer := createTierTestProfile(t, db, userB.ID, "TIER0018", 10, 0, 0, "900")
	silver := createTierTestTier(t, db, "Silver", 1, tierTestRequirements{})
	createTierTestTier(t, db, "Gold", 2, tierTestRequirements{minClicks: 100})

	for _, profileID := range []uint{closer.ID, richer.ID} {
		if _, err := svc.AssignTier(profileID, silver.ID, constants.TierAssignReasonManual); err != nil {
			t.Fatalf("assign failed: %v", err)
		}
		if _, err := svc.CalculateTierProgress(profileID); err != nil {
			t.Fatalf("calculate progress failed: %v", err)
		}
	}

	rows, err := svc.GetTierLeaderboard(silver.ID, 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// 点击进度更高者靠前，即便累计收益更低
	if rows[0].ID != closer.ID || rows[1].ID != richer.ID {
		t.Fatalf("expected progress ordering [%d %d], got [%d %d]", closer.ID, richer.ID, rows[0].ID, rows[1].ID)
	}
}

func setupTierServiceTest(t *testing.T) (*TierService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:tier_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	return NewTierService(repository.NewTierRepository(db), repository.NewAffiliateRepository(db)), db
}

func createTierTestUser(t *testing.T, db *gorm.DB, email string) models.User {
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

func createTierTestProfile(t *testing.T, db *gorm.DB, userID uint, code string, clicks, conversions, referrals int64, earnings string) models.AffiliateProfile {
	t.Helper()

	row := models.AffiliateProfile{
		UserID:           userID,
		AffiliateCode:    code,
		Status:           constants.AffiliateProfileStatusActive,
		TotalClicks:      clicks,
		TotalConversions: conversions,
		TotalReferrals:   referrals,
		TotalEarnings:    models.NewMoneyFromDecimal(decimal.RequireFromString(earnings)),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create affiliate profile failed: %v", err)
	}
	return row
}

// tierTestRequirements 建档用晋升门槛；零值表示该维度无要求
type tierTestRequirements struct {
	minClicks      int64
	minConversions int64
	minReferrals   int64
	minEarnings    string
	status         string
}

func createTierTestTier(t *testing.T, db *gorm.DB, name string, level int, req tierTestRequirements) models.Tier {
	t.Helper()

	earnings := decimal.Zero
	if req.minEarnings != "" {
		earnings = decimal.RequireFromString(req.minEarnings)
	}
	status := req.status
	if status == "" {
		status = constants.TierStatusActive
	}
	row := models.Tier{
		Name:           name,
		Level:          level,
		CommissionRate: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		MinClicks:      req.minClicks,
		MinConversions: req.minConversions,
		MinReferrals:   req.minReferrals,
		MinEarnings:    models.NewMoneyFromDecimal(earnings),
		Status:         status,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create tier failed: %v", err)
	}
	return row
}
