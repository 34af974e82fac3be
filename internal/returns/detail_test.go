package returns

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
)

func historyEntry(to enums.ReturnStatus, at time.Time) models.ReturnStatusUpdate {
	return models.ReturnStatusUpdate{ID: uuid.New(), ToStatus: to, CreatedAt: at}
}

func TestBuildDetailDerivesStageLatencies(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ret := &models.Return{
		ID:        uuid.New(),
		Status:    enums.ReturnStatusCompleted,
		CreatedAt: created,
		StatusUpdates: []models.ReturnStatusUpdate{
			historyEntry(enums.ReturnStatusAdminReview, created.Add(2*time.Hour)),
			historyEntry(enums.ReturnStatusApproved, created.Add(4*time.Hour)),
			historyEntry(enums.ReturnStatusPickupScheduled, created.Add(10*time.Hour)),
			historyEntry(enums.ReturnStatusPickedUp, created.Add(26*time.Hour)),
			historyEntry(enums.ReturnStatusQualityChecked, created.Add(50*time.Hour)),
			historyEntry(enums.ReturnStatusCompleted, created.Add(74*time.Hour)),
		},
	}

	detail := buildDetail(ret, created.Add(100*time.Hour))
	m := detail.Metrics

	assertHours := func(name string, got *int64, want int64) {
		t.Helper()
		if got == nil {
			t.Fatalf("%s: expected %d hours, got nil", name, want)
		}
		if *got != want {
			t.Fatalf("%s: expected %d hours got %d", name, want, *got)
		}
	}
	assertHours("pickup latency", m.PickupLatencyHours, 26)
	assertHours("assessment latency", m.AssessmentLatencyHours, 24)
	assertHours("settlement latency", m.SettlementLatencyHours, 24)
	assertHours("total processing", m.TotalProcessingHours, 74)
}

func TestBuildDetailLeavesUnreachedStagesNil(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ret := &models.Return{
		ID:        uuid.New(),
		Status:    enums.ReturnStatusPickedUp,
		CreatedAt: created,
		StatusUpdates: []models.ReturnStatusUpdate{
			historyEntry(enums.ReturnStatusAdminReview, created.Add(time.Hour)),
			historyEntry(enums.ReturnStatusPickupScheduled, created.Add(3*time.Hour)),
			historyEntry(enums.ReturnStatusPickupFailed, created.Add(5*time.Hour)),
			historyEntry(enums.ReturnStatusPickupRescheduled, created.Add(6*time.Hour)),
			historyEntry(enums.ReturnStatusPickedUp, created.Add(12*time.Hour)),
		},
	}

	detail := buildDetail(ret, created.Add(20*time.Hour))
	m := detail.Metrics

	if m.PickupLatencyHours == nil || *m.PickupLatencyHours != 12 {
		t.Fatalf("expected pickup latency 12h, got %v", m.PickupLatencyHours)
	}
	if m.AssessmentLatencyHours != nil || m.SettlementLatencyHours != nil || m.TotalProcessingHours != nil {
		t.Fatal("expected later stage latencies to stay nil")
	}
	if m.FailedPickups != 1 {
		t.Fatalf("expected one failed pickup got %d", m.FailedPickups)
	}
	if m.HoursInStatus != 8 {
		t.Fatalf("expected 8 hours in status got %d", m.HoursInStatus)
	}
}
