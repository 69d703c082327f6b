package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tms-load-service/internal/domain"
	"tms-load-service/internal/platform/obs"

	"github.com/shopspring/decimal"
)

// RemoteLoadRepository implements LoadRepository against the order backend's
// REST API. The backend owns the loads; this service only reads them and
// writes status changes guarded by If-Match.
//
// The repository is safe for concurrent use.
type RemoteLoadRepository struct {
	session     *http.Client
	baseURL     string
	token       string
	maxAttempts int
	backoff     time.Duration
}

type Option func(*RemoteLoadRepository)

// WithHTTPClient replaces the default client with a 10s timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(r *RemoteLoadRepository) { r.session = c }
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(r *RemoteLoadRepository) { r.token = token }
}

// WithRetry sets how many times reads are attempted and the first backoff.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(r *RemoteLoadRepository) {
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		r.maxAttempts = maxAttempts
		r.backoff = backoff
	}
}

func NewRemoteLoadRepository(baseURL string, opts ...Option) (*RemoteLoadRepository, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote load repository: base url is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("remote load repository: base url: %w", err)
	}

	r := &RemoteLoadRepository{
		session:     &http.Client{Timeout: 10 * time.Second},
		baseURL:     baseURL,
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// loadPayload is the backend's JSON shape of a load.
type loadPayload struct {
	ID                  string           `json:"id"`
	TenantID            string           `json:"tenant_id"`
	OrderNumber         string           `json:"order_number"`
	Status              string           `json:"status"`
	EquipmentID         string           `json:"equipment_id,omitempty"`
	ConfirmedRate       *decimal.Decimal `json:"confirmed_rate"`
	TotalCost           *decimal.Decimal `json:"total_cost"`
	PickupTimePlanned   *time.Time       `json:"pickup_time_planned"`
	PickupTimeActual    *time.Time       `json:"pickup_time_actual"`
	DeliveryTimePlanned *time.Time       `json:"delivery_time_planned"`
	DeliveryTimeActual  *time.Time       `json:"delivery_time_actual"`
	InvoicedAt          *time.Time       `json:"invoiced_at"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	Version             int64            `json:"version"`
}

func (p loadPayload) toDomain() domain.Load {
	return domain.Load{
		ID:                  p.ID,
		TenantID:            p.TenantID,
		OrderNumber:         p.OrderNumber,
		Status:              domain.LoadStatus(p.Status),
		EquipmentID:         p.EquipmentID,
		ConfirmedRate:       p.ConfirmedRate,
		TotalCost:           p.TotalCost,
		PickupTimePlanned:   p.PickupTimePlanned,
		PickupTimeActual:    p.PickupTimeActual,
		DeliveryTimePlanned: p.DeliveryTimePlanned,
		DeliveryTimeActual:  p.DeliveryTimeActual,
		InvoicedAt:          p.InvoicedAt,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
		Version:             p.Version,
	}
}

func fromDomain(l domain.Load) loadPayload {
	return loadPayload{
		ID:                  l.ID,
		TenantID:            l.TenantID,
		OrderNumber:         l.OrderNumber,
		Status:              string(l.Status),
		EquipmentID:         l.EquipmentID,
		ConfirmedRate:       l.ConfirmedRate,
		TotalCost:           l.TotalCost,
		PickupTimePlanned:   l.PickupTimePlanned,
		PickupTimeActual:    l.PickupTimeActual,
		DeliveryTimePlanned: l.DeliveryTimePlanned,
		DeliveryTimeActual:  l.DeliveryTimeActual,
		InvoicedAt:          l.InvoicedAt,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
		Version:             l.Version,
	}
}

func (r *RemoteLoadRepository) loadsURL(tenantID string) string {
	return r.baseURL + "/tenants/" + url.PathEscape(tenantID) + "/loads"
}

func (r *RemoteLoadRepository) ListLoads(ctx context.Context, tenantID string, scope domain.Scope) (_ []domain.Load, err error) {
	defer obs.Time(ctx, "backend.ListLoads")(&err)

	u := r.loadsURL(tenantID) + "?scope=" + url.QueryEscape(string(scope))
	resp, err := r.doWithRetry(ctx, func() (*http.Request, error) {
		return r.newRequest(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, r.mapError("list loads", "", err)
	}
	defer resp.Body.Close()

	var body struct {
		Loads []loadPayload `json:"loads"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.NewRepositoryError("list loads", fmt.Errorf("decode response: %w", err))
	}

	out := make([]domain.Load, 0, len(body.Loads))
	for _, p := range body.Loads {
		out = append(out, p.toDomain())
	}
	return out, nil
}

func (r *RemoteLoadRepository) GetLoad(ctx context.Context, tenantID string, loadID string) (_ domain.Load, err error) {
	defer obs.Time(ctx, "backend.GetLoad")(&err)

	u := r.loadsURL(tenantID) + "/" + url.PathEscape(loadID)
	resp, err := r.doWithRetry(ctx, func() (*http.Request, error) {
		return r.newRequest(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return domain.Load{}, r.mapError("get load", loadID, err)
	}
	defer resp.Body.Close()

	var p loadPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return domain.Load{}, domain.NewRepositoryError("get load", fmt.Errorf("decode response: %w", err))
	}
	return p.toDomain(), nil
}

// UpdateLoadStatus sends the new state once with If-Match set to the expected
// version. A 409 or 412 reply is a lost race.
func (r *RemoteLoadRepository) UpdateLoadStatus(ctx context.Context, next domain.Load, expectedVersion int64) (err error) {
	defer obs.Time(ctx, "backend.UpdateLoadStatus")(&err)

	payload, err := json.Marshal(fromDomain(next))
	if err != nil {
		return domain.NewRepositoryError("update load status", fmt.Errorf("encode load: %w", err))
	}

	u := r.loadsURL(next.TenantID) + "/" + url.PathEscape(next.ID)
	req, err := r.newRequest(ctx, http.MethodPut, u, bytes.NewReader(payload))
	if err != nil {
		return domain.NewRepositoryError("update load status", err)
	}
	req.Header.Set("If-Match", strconv.Quote(strconv.FormatInt(expectedVersion, 10)))

	resp, err := r.do(req)
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && (he.Code == http.StatusConflict || he.Code == http.StatusPreconditionFailed) {
			return &domain.VersionConflictError{LoadID: next.ID, Expected: expectedVersion, Actual: currentVersion(he.Body)}
		}
		return r.mapError("update load status", next.ID, err)
	}
	resp.Body.Close()
	return nil
}

func (r *RemoteLoadRepository) mapError(op, loadID string, err error) error {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return domain.ErrNotFound
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return &domain.ValidationError{Reason: he.Body}
		}
	}
	if loadID != "" {
		err = fmt.Errorf("load %s: %w", loadID, err)
	}
	return domain.NewRepositoryError(op, err)
}

// currentVersion reads {"current_version": n} from a conflict reply; 0 when
// the backend did not say.
func currentVersion(body string) int64 {
	var v struct {
		CurrentVersion int64 `json:"current_version"`
	}
	_ = json.Unmarshal([]byte(body), &v)
	return v.CurrentVersion
}
