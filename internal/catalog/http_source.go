package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultHTTPTimeout = 15 * time.Second

var errMissingBaseURL = errors.New("source base url is required")

// envelope is the upstream response shape {success, data, message}.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// HTTPSource serves the catalogue from the upstream REST backend.
type HTTPSource struct {
	client *resty.Client
	logger *zap.Logger
}

// HTTPSourceConfig describes how to reach the upstream REST backend.
type HTTPSourceConfig struct {
	BaseURL   string
	Timeout   time.Duration
	AuthToken string
	Logger    *zap.Logger
	// Client overrides the HTTP transport, mainly for tests.
	Client *http.Client
}

// NewHTTPSource constructs a Source backed by resty. Requests are never retried.
func NewHTTPSource(cfg HTTPSourceConfig) (*HTTPSource, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, newServiceError("catalog.http_source.new", "missing_base_url", errMissingBaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var client *resty.Client
	if cfg.Client != nil {
		client = resty.NewWithClient(cfg.Client)
	} else {
		client = resty.New()
	}
	client.
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if token := strings.TrimSpace(cfg.AuthToken); token != "" {
		client.SetAuthToken(token)
	}

	return &HTTPSource{client: client, logger: logger}, nil
}

// List issues GET /{entity} and decodes the envelope's data into into.
func (s *HTTPSource) List(ctx context.Context, entity Entity, scope Scope, into any) error {
	if _, err := entity.model(); err != nil {
		return newServiceError(opList, reasonUnknownEntity, err)
	}
	request := s.client.R().SetContext(ctx)
	if scope.OwnerID != "" {
		request.SetQueryParam("owner_id", scope.OwnerID)
	}
	body, err := s.do(request, http.MethodGet, "/"+entity.String(), opList, entity)
	if err != nil {
		return err
	}
	data := body.Data
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage("[]")
	}
	if err := json.Unmarshal(data, into); err != nil {
		s.logError(opList, reasonDecodeFailed, err, zap.String("entity", entity.String()))
		return newServiceError(opList, reasonDecodeFailed, err)
	}
	return nil
}

// Owner issues GET /{entity}/{id} and reads the record's owner_id.
func (s *HTTPSource) Owner(ctx context.Context, entity Entity, id string) (string, error) {
	if _, err := entity.model(); err != nil {
		return "", newServiceError(opOwner, reasonUnknownEntity, err)
	}
	request := s.client.R().SetContext(ctx).SetPathParam("id", id)
	body, err := s.do(request, http.MethodGet, "/"+entity.String()+"/{id}", opOwner, entity)
	if err != nil {
		return "", err
	}
	var record struct {
		OwnerID string `json:"owner_id"`
	}
	if err := json.Unmarshal(body.Data, &record); err != nil {
		s.logError(opOwner, reasonDecodeFailed, err, zap.String("entity", entity.String()))
		return "", newServiceError(opOwner, reasonDecodeFailed, err)
	}
	return record.OwnerID, nil
}

// UpdateStatus issues PATCH /{entity}/{id}/status.
func (s *HTTPSource) UpdateStatus(ctx context.Context, entity Entity, id, status string) error {
	if _, err := entity.model(); err != nil {
		return newServiceError(opUpdateStatus, reasonUnknownEntity, err)
	}
	normalized, err := entity.ValidateStatus(status)
	if err != nil {
		return newServiceError(opUpdateStatus, reasonInvalidStatus, err)
	}
	request := s.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(map[string]string{"status": normalized})
	_, err = s.do(request, http.MethodPatch, "/"+entity.String()+"/{id}/status", opUpdateStatus, entity)
	return err
}

// Delete issues DELETE /{entity}/{id}.
func (s *HTTPSource) Delete(ctx context.Context, entity Entity, id string) error {
	if _, err := entity.model(); err != nil {
		return newServiceError(opDelete, reasonUnknownEntity, err)
	}
	request := s.client.R().SetContext(ctx).SetPathParam("id", id)
	_, err := s.do(request, http.MethodDelete, "/"+entity.String()+"/{id}", opDelete, entity)
	return err
}

// do executes the request and treats a transport failure, a non-2xx status and
// success=false identically.
func (s *HTTPSource) do(request *resty.Request, method, path, operation string, entity Entity) (envelope, error) {
	var body envelope
	response, err := request.SetResult(&body).SetError(&body).Execute(method, path)
	if err != nil {
		s.logError(operation, reasonRequestFailed, err, zap.String("entity", entity.String()))
		return envelope{}, newServiceError(operation, reasonRequestFailed, err)
	}
	if response.StatusCode() == http.StatusNotFound {
		return envelope{}, newServiceError(operation, reasonNotFound, ErrRecordNotFound)
	}
	if response.IsError() || !body.Success {
		message := strings.TrimSpace(body.Message)
		if message == "" {
			message = fmt.Sprintf("failed to %s %s", verbFor(operation), entity)
		}
		upstreamErr := errors.New(message)
		s.logError(operation, reasonUpstreamFailed, upstreamErr,
			zap.String("entity", entity.String()),
			zap.Int("status", response.StatusCode()))
		return envelope{}, newServiceError(operation, reasonUpstreamFailed, upstreamErr)
	}
	return body, nil
}

func verbFor(operation string) string {
	switch operation {
	case opUpdateStatus:
		return "update"
	case opDelete:
		return "delete"
	default:
		return "load"
	}
}

func (s *HTTPSource) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("catalog source error", attrs...)
}
