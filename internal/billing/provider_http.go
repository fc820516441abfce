package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPProvider talks JSON to the hosted payment API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := p.post(ctx, "/v1/customers", map[string]string{"email": email, "name": name}, &out)
	if err != nil {
		return "", fmt.Errorf("creating provider customer: %w", err)
	}
	return out.ID, nil
}

func (p *HTTPProvider) CreateSubscription(ctx context.Context, customerID, plan string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := p.post(ctx, "/v1/subscriptions", map[string]string{"customer": customerID, "plan": plan}, &out)
	if err != nil {
		return "", fmt.Errorf("creating subscription: %w", err)
	}
	return out.ID, nil
}

func (p *HTTPProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if err := p.post(ctx, "/v1/subscriptions/"+subscriptionID+"/cancel", struct{}{}, nil); err != nil {
		return fmt.Errorf("cancelling subscription: %w", err)
	}
	return nil
}

func (p *HTTPProvider) Refund(ctx context.Context, paymentRef string, amount decimal.Decimal) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	body := map[string]string{"payment": paymentRef, "amount": amount.String()}
	if err := p.post(ctx, "/v1/refunds", body, &out); err != nil {
		return "", fmt.Errorf("issuing refund: %w", err)
	}
	return out.ID, nil
}

func (p *HTTPProvider) DeleteCustomer(ctx context.Context, customerID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.baseURL+"/v1/customers/"+customerID, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("deleting provider customer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("deleting provider customer: status %d", resp.StatusCode)
	}
	return nil
}

func (p *HTTPProvider) post(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("provider returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("provider returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
