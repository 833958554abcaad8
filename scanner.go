package epsonconnect

import (
	"context"
	"fmt"
	"net/http"
	"unicode/utf8"
)

const destinationsEndpoint = "/api/1/scanning/scanners/%s/destinations"

// Scan destination types.
const (
	DestinationTypeMail = "mail"
	DestinationTypeURL  = "url"
)

// Scanner provides the scan destination operations of the device a Client is
// bound to.
type Scanner struct {
	client *Client
}

// Destination represents a scan destination registered on the device.
type Destination struct {
	ID          string `json:"id,omitempty"`
	AliasName   string `json:"alias_name"`
	Type        string `json:"type"`
	Destination string `json:"destination"`
}

// DestinationsResponse represents the response from listing scan destinations.
type DestinationsResponse struct {
	Destinations []Destination `json:"destinations"`
}

// List retrieves the scan destinations of the device.
func (s *Scanner) List(ctx context.Context) ([]Destination, error) {
	subject, err := s.client.subjectSegment(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.doRequest(ctx, http.MethodGet, fmt.Sprintf(destinationsEndpoint, subject), nil)
	if err != nil {
		return nil, fmt.Errorf("listing scan destinations: %w", err)
	}

	if resp.NoContent() {
		return nil, nil
	}

	var destResp DestinationsResponse
	if err := resp.Decode(&destResp); err != nil {
		return nil, fmt.Errorf("parsing destinations response: %w", err)
	}

	return destResp.Destinations, nil
}

// Add registers a new scan destination. destType defaults to mail.
func (s *Scanner) Add(ctx context.Context, name, destination, destType string) (*Destination, error) {
	if destType == "" {
		destType = DestinationTypeMail
	}
	if err := validateDestination(name, destination, destType); err != nil {
		return nil, err
	}

	subject, err := s.client.subjectSegment(ctx)
	if err != nil {
		return nil, err
	}

	dest := Destination{AliasName: name, Type: destType, Destination: destination}
	resp, err := s.client.doRequest(ctx, http.MethodPost, fmt.Sprintf(destinationsEndpoint, subject), dest)
	if err != nil {
		return nil, fmt.Errorf("adding scan destination: %w", err)
	}

	if !resp.NoContent() {
		if err := resp.Decode(&dest); err != nil {
			return nil, fmt.Errorf("parsing destination response: %w", err)
		}
	}

	return &dest, nil
}

// Update changes an existing scan destination.
func (s *Scanner) Update(ctx context.Context, id, name, destination, destType string) error {
	if id == "" {
		return &ValidationError{Field: "id", Reason: "cannot be empty"}
	}
	if destType == "" {
		destType = DestinationTypeMail
	}
	if err := validateDestination(name, destination, destType); err != nil {
		return err
	}

	subject, err := s.client.subjectSegment(ctx)
	if err != nil {
		return err
	}

	dest := Destination{ID: id, AliasName: name, Type: destType, Destination: destination}
	if _, err := s.client.doRequest(ctx, http.MethodPut, fmt.Sprintf(destinationsEndpoint, subject), dest); err != nil {
		return fmt.Errorf("updating scan destination: %w", err)
	}

	return nil
}

// Remove deletes a scan destination.
func (s *Scanner) Remove(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Field: "id", Reason: "cannot be empty"}
	}

	subject, err := s.client.subjectSegment(ctx)
	if err != nil {
		return err
	}

	if _, err := s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf(destinationsEndpoint, subject), map[string]string{"id": id}); err != nil {
		return fmt.Errorf("removing scan destination: %w", err)
	}

	return nil
}

func validateDestination(name, destination, destType string) error {
	if n := utf8.RuneCountInString(name); n < 1 || n > 32 {
		return &ValidationError{Field: "alias_name", Reason: "must be 1 to 32 characters"}
	}
	if n := utf8.RuneCountInString(destination); n < 4 || n > 544 {
		return &ValidationError{Field: "destination", Reason: "must be 4 to 544 characters"}
	}
	if destType != DestinationTypeMail && destType != DestinationTypeURL {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("invalid scan destination type %s", destType)}
	}
	return nil
}
