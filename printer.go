package epsonconnect

import (
	"context"
	"fmt"
	"net/http"
)

const (
	notificationsEndpoint = "/api/1/printing/printers/%s/settings/notifications"
	maxCallbackURILength  = 1024
)

// Printer provides the printing operations of the device a Client is bound to.
type Printer struct {
	client *Client
}

// PrinterInfo represents the device information returned by the API.
type PrinterInfo struct {
	PrinterName string `json:"printer_name"`
	SerialNo    string `json:"serial_no"`
	ECConnected bool   `json:"ec_connected"`
}

// NotificationSettings represents the job completion callback configuration.
type NotificationSettings struct {
	Notification bool   `json:"notification"`
	CallbackURI  string `json:"callback_uri,omitempty"`
}

// Info retrieves details for the device.
func (p *Printer) Info(ctx context.Context) (*PrinterInfo, error) {
	subject, err := p.client.subjectSegment(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.doRequest(ctx, http.MethodGet, fmt.Sprintf(printerEndpoint, subject), nil)
	if err != nil {
		return nil, fmt.Errorf("getting printer info: %w", err)
	}

	var info PrinterInfo
	if err := resp.Decode(&info); err != nil {
		return nil, fmt.Errorf("parsing printer info: %w", err)
	}

	return &info, nil
}

// SetNotification enables or disables job completion callbacks. The callback
// URI is required when enabling.
func (p *Printer) SetNotification(ctx context.Context, enabled bool, callbackURI string) error {
	if enabled && callbackURI == "" {
		return &ValidationError{Field: "callback_uri", Reason: "required when notifications are enabled"}
	}
	if len(callbackURI) > maxCallbackURILength {
		return &ValidationError{Field: "callback_uri", Reason: fmt.Sprintf("longer than %d characters", maxCallbackURILength)}
	}

	subject, err := p.client.subjectSegment(ctx)
	if err != nil {
		return err
	}

	settings := NotificationSettings{Notification: enabled, CallbackURI: callbackURI}
	if _, err := p.client.doRequest(ctx, http.MethodPost, fmt.Sprintf(notificationsEndpoint, subject), settings); err != nil {
		return fmt.Errorf("updating notification settings: %w", err)
	}

	return nil
}
