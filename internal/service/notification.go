package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"shiptrack/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationOrderShipped   NotificationType = "ORDER_SHIPPED"
	NotificationOrderDelivered NotificationType = "ORDER_DELIVERED"
	NotificationOrderCancelled NotificationType = "ORDER_CANCELLED"
	NotificationReportReady    NotificationType = "REPORT_READY"
)

// Notification represents a notification to be sent.
type Notification struct {
	ID        string
	Type      NotificationType
	OrderNo   string
	Title     string
	Message   string
	Data      map[string]interface{}
	CreatedAt time.Time
}

// NotificationService handles notification delivery to package recipients.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - Email client (SendGrid)
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyOrderShipped notifies the recipient that their package is on the way.
func (s *NotificationService) NotifyOrderShipped(ctx context.Context, order *domain.Order) error {
	notification := Notification{
		Type:    NotificationOrderShipped,
		OrderNo: order.OrderNo,
		Title:   "Package Shipped",
		Message: fmt.Sprintf("Your package %s has been shipped via %s", order.OrderNo, order.Logistics),
		Data: map[string]interface{}{
			"order_id":       order.ID,
			"logistics":      order.Logistics,
			"estimated_time": order.EstimatedTime,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyOrderDelivered notifies the recipient that their package has arrived.
func (s *NotificationService) NotifyOrderDelivered(ctx context.Context, order *domain.Order) error {
	notification := Notification{
		Type:    NotificationOrderDelivered,
		OrderNo: order.OrderNo,
		Title:   "Package Delivered",
		Message: fmt.Sprintf("Your package %s has been delivered", order.OrderNo),
		Data: map[string]interface{}{
			"order_id":     order.ID,
			"delivered_at": order.ActualTime,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyOrderCancelled notifies the recipient about an order cancellation.
func (s *NotificationService) NotifyOrderCancelled(ctx context.Context, order *domain.Order) error {
	notification := Notification{
		Type:    NotificationOrderCancelled,
		OrderNo: order.OrderNo,
		Title:   "Order Cancelled",
		Message: fmt.Sprintf("Order %s was cancelled: %s", order.OrderNo, order.CancelReason),
		Data: map[string]interface{}{
			"order_id":     order.ID,
			"cancelled_at": order.CancelledAt,
			"reason":       order.CancelReason,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyReportReady notifies the recipient that a delivery report is available.
func (s *NotificationService) NotifyReportReady(ctx context.Context, report *DeliveryReport) error {
	notification := Notification{
		Type:    NotificationReportReady,
		OrderNo: report.OrderNo,
		Title:   "Delivery Report Ready",
		Message: fmt.Sprintf("Delivery report for %s is ready (%.1f km)", report.OrderNo, report.DistanceKm),
		Data: map[string]interface{}{
			"report_id": report.ID,
			"order_id":  report.OrderID,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// In a real implementation, this would:
	// 1. Store notification in database
	// 2. Send push notification via FCM/APNS
	// 3. Send SMS if enabled
	// 4. Send email if enabled

	log.Printf("[NOTIFICATION] Type=%s, OrderNo=%s, Title=%s, Message=%s",
		notification.Type, notification.OrderNo, notification.Title, notification.Message)

	return nil
}
