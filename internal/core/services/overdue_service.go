package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"bookmarket-api/internal/adapters/persistence/repositories"
	"bookmarket-api/internal/core/domain"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultOverdueSchedule runs the scan once a day
const DefaultOverdueSchedule = "@every 24h"

// OverdueScanner finds ACTIVE loans past their due date and emits one event per loan.
// It does not remember what it already reported; every run re-emits.
type OverdueScanner struct {
	loans  repositories.LoanRepository
	sink   NotificationSink
	now    func() time.Time
	tracer trace.Tracer
	cron   *cron.Cron
}

// NewOverdueScanner creates a new overdue scanner
func NewOverdueScanner(loans repositories.LoanRepository, sink NotificationSink, now func() time.Time) *OverdueScanner {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &OverdueScanner{
		loans:  loans,
		sink:   sink,
		now:    now,
		tracer: otel.Tracer("bookmarket-api/overdue"),
	}
}

// ScanOnce emits an event for each overdue loan and returns how many were found.
// A failing delivery is logged and does not stop the remaining events.
func (s *OverdueScanner) ScanOnce(ctx context.Context) (n int, err error) {
	ctx, span := s.tracer.Start(ctx, "loans.overdue_scan")
	defer func() { endSpan(span, err) }()

	now := s.now()
	today := domain.StartOfDay(now.UTC())

	rows, err := s.loans.FindOverdue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("find overdue loans: %w", err)
	}

	failed := 0
	for _, row := range rows {
		event := domain.OverdueEvent{
			LoanID:      row.ID,
			AccountID:   row.AccountID,
			Username:    row.Username,
			BookID:      row.BookID,
			BookTitle:   row.BookTitle,
			DueDate:     row.DueDate,
			DaysOverdue: domain.DaysBetween(row.DueDate.UTC(), today),
			DetectedAt:  now,
		}
		if err := s.sink.Notify(ctx, event); err != nil {
			failed++
			log.Printf("❌ Overdue notification failed for loan %d: %v", row.ID, err)
		}
	}

	span.SetAttributes(
		attribute.Int("overdue.count", len(rows)),
		attribute.Int("overdue.failed", failed),
	)
	log.Printf("📋 Overdue scan: %d overdue loan(s), %d notification failure(s)", len(rows), failed)
	return len(rows), nil
}

// Start schedules ScanOnce with a cron spec such as "@every 24h" or "0 8 * * *"
func (s *OverdueScanner) Start(spec string) error {
	if spec == "" {
		spec = DefaultOverdueSchedule
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.ScanOnce(ctx); err != nil {
			log.Printf("❌ Overdue scan error: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid overdue schedule %q: %w", spec, err)
	}

	s.cron = c
	c.Start()
	log.Printf("🚀 Overdue scanner started (%s)", spec)
	return nil
}

// Stop waits for a running scan to finish
func (s *OverdueScanner) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Println("🛑 Overdue scanner stopped")
}
