package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shiptrack/internal/domain"
	"shiptrack/internal/geo"
	"shiptrack/internal/repository"
)

// ReportService generates delivery reports for completed orders.
type ReportService struct {
	orderRepo           repository.OrderRepository
	routeRepo           repository.RouteRepository
	timelineRepo        repository.TimelineRepository
	notificationService *NotificationService
}

// NewReportService creates a new ReportService.
func NewReportService(
	orderRepo repository.OrderRepository,
	routeRepo repository.RouteRepository,
	timelineRepo repository.TimelineRepository,
	notificationService *NotificationService,
) *ReportService {
	return &ReportService{
		orderRepo:           orderRepo,
		routeRepo:           routeRepo,
		timelineRepo:        timelineRepo,
		notificationService: notificationService,
	}
}

// DeliveryReport summarizes one order's delivery.
type DeliveryReport struct {
	ID               string                  `json:"id"`
	OrderID          string                  `json:"order_id"`
	OrderNo          string                  `json:"order_no"`
	Status           string                  `json:"status"`
	Logistics        string                  `json:"logistics"`
	Origin           domain.GeoPoint         `json:"origin"`
	Destination      domain.GeoPoint         `json:"destination"`
	DistanceKm       float64                 `json:"distance_km"`
	EstimatedSeconds float64                 `json:"estimated_seconds"`
	ShippedAt        time.Time               `json:"shipped_at"`
	DeliveredAt      time.Time               `json:"delivered_at,omitempty"`
	Milestones       []*domain.TimelineEntry `json:"milestones"`
	CreatedAt        time.Time               `json:"created_at"`
}

// GenerateDeliveryReport builds a report for an order. Available for any
// order that has been shipped; fields that only exist after delivery stay
// zero until then.
func (s *ReportService) GenerateDeliveryReport(ctx context.Context, orderID string) (*DeliveryReport, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	report := &DeliveryReport{
		ID:               uuid.New().String(),
		OrderID:          order.ID,
		OrderNo:          order.OrderNo,
		Status:           string(order.Status),
		Logistics:        order.Logistics,
		Origin:           order.Origin,
		Destination:      order.Destination,
		EstimatedSeconds: order.EstimatedTime,
		ShippedAt:        order.CreatedAt,
		DeliveredAt:      order.ActualTime,
		CreatedAt:        time.Now(),
	}

	// Route distance is the sum over consecutive points, not the crow-flies
	// origin-to-destination distance.
	if route, err := s.routeRepo.GetByOrderID(ctx, orderID); err == nil {
		report.DistanceKm = routeDistanceKm(route.Points)
	} else {
		report.DistanceKm = geo.Haversine(order.Origin, order.Destination)
	}

	milestones, err := s.timelineRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	report.Milestones = milestones

	if s.notificationService != nil && order.Status == domain.OrderStatusDelivered {
		_ = s.notificationService.NotifyReportReady(ctx, report)
	}

	return report, nil
}

func routeDistanceKm(points []domain.GeoPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += geo.Haversine(points[i-1], points[i])
	}
	return total
}

// FormatReport formats the report as a string (for email/print).
func (s *ReportService) FormatReport(report *DeliveryReport) string {
	delivered := "in progress"
	if !report.DeliveredAt.IsZero() {
		delivered = report.DeliveredAt.Format("Jan 02, 2006 3:04 PM")
	}

	out := `
=====================================
        DELIVERY REPORT
=====================================
Report ID: ` + report.ID + `
Order No:  ` + report.OrderNo + `
Date:      ` + report.CreatedAt.Format("Jan 02, 2006 3:04 PM") + `

SHIPMENT DETAILS
-------------------------------------
Carrier:     ` + report.Logistics + `
Origin:      (` + formatFloat(report.Origin.Lng) + `, ` + formatFloat(report.Origin.Lat) + `)
Destination: (` + formatFloat(report.Destination.Lng) + `, ` + formatFloat(report.Destination.Lat) + `)
Distance:    ` + formatFloat(report.DistanceKm) + ` km
Status:      ` + report.Status + `
Delivered:   ` + delivered + `

MILESTONES
-------------------------------------
`
	for _, m := range report.Milestones {
		out += m.CreatedAt.Format("Jan 02 15:04:05") + "  " + m.Status + "  " + m.Description + "\n"
	}
	out += `=====================================
`
	return out
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
