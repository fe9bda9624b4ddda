package enums

import "fmt"

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationTypeOrderUpdate  NotificationType = "ORDER_UPDATE"
	NotificationTypeReturnUpdate NotificationType = "RETURN_UPDATE"
	NotificationTypeRefundUpdate NotificationType = "REFUND_UPDATE"
	NotificationTypeSystem       NotificationType = "SYSTEM"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderUpdate,
	NotificationTypeReturnUpdate,
	NotificationTypeRefundUpdate,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationAudience marks which surface renders a notification.
type NotificationAudience string

const (
	NotificationAudienceCustomer NotificationAudience = "CUSTOMER"
	NotificationAudienceVendor   NotificationAudience = "VENDOR"
	NotificationAudienceAdmin    NotificationAudience = "ADMIN"
)

var validNotificationAudiences = []NotificationAudience{
	NotificationAudienceCustomer,
	NotificationAudienceVendor,
	NotificationAudienceAdmin,
}

// IsValid reports whether the value is a known NotificationAudience.
func (n NotificationAudience) IsValid() bool {
	for _, candidate := range validNotificationAudiences {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationAudience converts raw input into a NotificationAudience.
func ParseNotificationAudience(value string) (NotificationAudience, error) {
	for _, candidate := range validNotificationAudiences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification audience %q", value)
}
