package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/voyago/travel-booking/internal/models"
)

// BookingOutcome is the normalised result of one remote booking call.
type BookingOutcome struct {
	ItemType         models.ItemType `json:"item_type"`
	Success          bool            `json:"success"`
	BookingID        string          `json:"booking_id,omitempty"`
	BookingReference string          `json:"booking_reference,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// RemoteBookingRequest is what the trip service asks a domain service to book.
type RemoteBookingRequest struct {
	Item      models.ItemType
	Payload   json.RawMessage
	Insurance *models.Insurance
	Total     float64
	TripID    string
}

// BookingClient books and cancels items in the domain services.
// Book never fails: errors come back as an outcome with Success false.
// Cancel reports true only when the domain service confirmed the deletion.
type BookingClient interface {
	Book(ctx context.Context, req RemoteBookingRequest, token string) BookingOutcome
	Cancel(ctx context.Context, item models.ItemType, idOrRef, token string) bool
}

// HTTPBookingClient talks to the car, hotel and flight services over HTTP.
type HTTPBookingClient struct {
	baseURLs map[models.ItemType]string
	client   *http.Client
	timeout  time.Duration
	clientID string
	log      *zap.Logger
}

func NewHTTPBookingClient(baseURLs map[models.ItemType]string, timeout time.Duration, clientID string, log *zap.Logger) *HTTPBookingClient {
	return &HTTPBookingClient{
		baseURLs: baseURLs,
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		clientID: clientID,
		log:      log.With(zap.String("component", "booking_client")),
	}
}

type bookResponse struct {
	BookingID        string `json:"booking_id"`
	BookingReference string `json:"booking_reference"`
}

func (c *HTTPBookingClient) Book(ctx context.Context, req RemoteBookingRequest, token string) BookingOutcome {
	outcome := BookingOutcome{ItemType: req.Item}
	fail := func(format string, args ...interface{}) BookingOutcome {
		outcome.Error = fmt.Sprintf("%s booking failed: %s", req.Item, fmt.Sprintf(format, args...))
		c.log.Warn("remote booking failed", zap.String("item", req.Item.Slug()), zap.String("error", outcome.Error))
		return outcome
	}

	base, ok := c.baseURLs[req.Item]
	if !ok || base == "" {
		return fail("no service configured")
	}

	body := map[string]interface{}{
		req.Item.Slug(): req.Payload,
		"total":         req.Total,
	}
	if req.Insurance != nil {
		body["insurance"] = req.Insurance
	}
	if req.TripID != "" {
		body["trip_id"] = req.TripID
	}

	resp, err := c.do(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/"+req.Item.Slug()+"/book", body, token)
	if err != nil {
		return fail("%v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail("read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fail("HTTP %d: %s", resp.StatusCode, errorMessage(raw))
	}

	var decoded bookResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fail("decode response: %v", err)
	}
	if decoded.BookingID == "" {
		return fail("response carried no booking_id")
	}

	outcome.Success = true
	outcome.BookingID = decoded.BookingID
	outcome.BookingReference = decoded.BookingReference
	return outcome
}

func (c *HTTPBookingClient) Cancel(ctx context.Context, item models.ItemType, idOrRef, token string) bool {
	base, ok := c.baseURLs[item]
	if !ok || base == "" {
		c.log.Error("cancel failed: no service configured", zap.String("item", item.Slug()), zap.String("booking", idOrRef))
		return false
	}

	body := map[string]string{item.Slug() + "id": idOrRef}
	resp, err := c.do(ctx, http.MethodDelete, strings.TrimRight(base, "/")+"/"+item.Slug()+"s/delete", body, token)
	if err != nil {
		c.log.Error("cancel failed", zap.String("item", item.Slug()), zap.String("booking", idOrRef), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		c.log.Error("cancel failed",
			zap.String("item", item.Slug()),
			zap.String("booking", idOrRef),
			zap.Int("status", resp.StatusCode),
			zap.String("error", errorMessage(raw)),
		)
		return false
	}
	return true
}

func (c *HTTPBookingClient) do(ctx context.Context, method, url string, body interface{}, token string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if c.clientID != "" {
		req.Header.Set("X-Client-ID", c.clientID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// errorMessage pulls a readable message out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Detail != "" {
			return body.Detail
		}
	}
	msg := strings.TrimSpace(string(raw))
	return truncateRunes(msg, maxErrorMessageRunes)
}

const maxErrorMessageRunes = 200

// truncateRunes cuts s to at most n runes so multi-byte characters stay whole.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
