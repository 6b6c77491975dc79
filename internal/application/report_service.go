package application

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// StatusCount is one row of the status breakdown.
type StatusCount struct {
	Status BookingStatus
	Count  int
}

// RoomUsage is the approved booking volume of one room.
type RoomUsage struct {
	RoomID       string
	RoomName     string
	BookingCount int
	Hours        float64
}

// HourCount is the number of approved bookings starting in an hour of day.
type HourCount struct {
	Hour  int
	Count int
}

// Report summarizes bookings over a date range.
type Report struct {
	From            time.Time
	To              time.Time
	TotalBookings   int
	StatusBreakdown []StatusCount
	RoomUsage       []RoomUsage
	PeakHours       []HourCount
}

// BuildReport aggregates bookings. Every list is sorted by count descending
// with a stable sort, so ties keep the order in which keys first appear in
// bookings. Room usage and peak hours count approved bookings only; peak
// hours are bucketed in loc.
func BuildReport(bookings []Booking, rooms []Room, loc *time.Location) Report {
	if loc == nil {
		loc = time.UTC
	}
	names := make(map[string]string, len(rooms))
	for _, r := range rooms {
		names[r.ID] = r.Name
	}

	report := Report{TotalBookings: len(bookings)}

	statusIndex := make(map[BookingStatus]int)
	roomIndex := make(map[string]int)
	hourIndex := make(map[int]int)

	for _, b := range bookings {
		if i, ok := statusIndex[b.Status]; ok {
			report.StatusBreakdown[i].Count++
		} else {
			statusIndex[b.Status] = len(report.StatusBreakdown)
			report.StatusBreakdown = append(report.StatusBreakdown, StatusCount{Status: b.Status, Count: 1})
		}

		if b.Status != BookingApproved {
			continue
		}

		hours := b.End.Sub(b.Start).Hours()
		if i, ok := roomIndex[b.RoomID]; ok {
			report.RoomUsage[i].BookingCount++
			report.RoomUsage[i].Hours += hours
		} else {
			roomIndex[b.RoomID] = len(report.RoomUsage)
			report.RoomUsage = append(report.RoomUsage, RoomUsage{
				RoomID:       b.RoomID,
				RoomName:     names[b.RoomID],
				BookingCount: 1,
				Hours:        hours,
			})
		}

		hour := b.Start.In(loc).Hour()
		if i, ok := hourIndex[hour]; ok {
			report.PeakHours[i].Count++
		} else {
			hourIndex[hour] = len(report.PeakHours)
			report.PeakHours = append(report.PeakHours, HourCount{Hour: hour, Count: 1})
		}
	}

	sort.SliceStable(report.StatusBreakdown, func(i, j int) bool {
		return report.StatusBreakdown[i].Count > report.StatusBreakdown[j].Count
	})
	sort.SliceStable(report.RoomUsage, func(i, j int) bool {
		return report.RoomUsage[i].BookingCount > report.RoomUsage[j].BookingCount
	})
	sort.SliceStable(report.PeakHours, func(i, j int) bool {
		return report.PeakHours[i].Count > report.PeakHours[j].Count
	})
	return report
}

// LocationProvider resolves the organisation timezone.
type LocationProvider interface {
	Location(ctx context.Context) *time.Location
}

// ReportService builds usage reports.
type ReportService struct {
	bookings  BookingRepository
	rooms     RoomCatalog
	locations LocationProvider
	logger    *slog.Logger
	timeout   time.Duration
}

// NewReportService constructs a ReportService.
func NewReportService(bookings BookingRepository, rooms RoomCatalog, locations LocationProvider, logger *slog.Logger) *ReportService {
	return &ReportService{
		bookings:  bookings,
		rooms:     rooms,
		locations: locations,
		logger:    defaultLogger(logger),
		timeout:   DefaultUpstreamTimeout,
	}
}

// WithTimeout bounds the repository reads behind a report.
func (s *ReportService) WithTimeout(d time.Duration) *ReportService {
	s.timeout = d
	return s
}

// Generate reports on bookings overlapping [from, to).
func (s *ReportService) Generate(ctx context.Context, principal Principal, from, to time.Time) (report Report, err error) {
	if s == nil {
		err = errServiceNil("ReportService")
		return
	}

	logger := serviceLogger(ctx, s.logger, "ReportService", "Generate",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to build report", err)
			return
		}
		logger.With("total_bookings", report.TotalBookings).InfoContext(ctx, "report built")
	}()

	if err = require(principal, CapViewReports); err != nil {
		return
	}
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		vErr := &ValidationError{}
		vErr.add("to", msgStartBeforeEnd)
		err = vErr
		return
	}
	if s.bookings == nil {
		report = Report{From: from, To: to}
		return
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var bookings []Booking
	bookings, err = s.bookings.ListBookings(callCtx, BookingFilter{StartsBefore: &to, EndsAfter: &from})
	if err != nil {
		err = mapRepoError(err)
		return
	}
	var rooms []Room
	if s.rooms != nil {
		rooms, err = s.rooms.ListRooms(callCtx, RoomFilter{})
		if err != nil {
			err = mapRepoError(err)
			return
		}
	}

	loc := time.UTC
	if s.locations != nil {
		loc = s.locations.Location(ctx)
	}
	report = BuildReport(bookings, rooms, loc)
	report.From, report.To = from, to
	return
}
