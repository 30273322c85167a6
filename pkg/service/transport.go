package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/textremind/pkg/domain"
	"github.com/aretw0/textremind/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

var _ ports.Transport = (*Service)(nil)

// failureText is the generic message returned for unexpected errors, per endpoint.
var failureText = map[string]string{
	domain.EndpointCheck:             "Something went wrong while checking if phone number is verified.",
	domain.EndpointSendVerification:  "Something went wrong while sending verification code.",
	domain.EndpointCheckVerification: "Something went wrong while checking verification code.",
	domain.EndpointCheckPassword:     "Something went wrong while checking password.",
	domain.EndpointSetPassword:       "Something went wrong while setting password.",
	domain.EndpointSchedule:          "Something went wrong while scheduling the message.",
}

type numberRequest struct {
	Number   string `mapstructure:"number"`
	Code     string `mapstructure:"code"`
	Password string `mapstructure:"password"`
}

// decode maps a loosely typed payload onto out. Numbers and strings convert
// into each other, so {"time": "1792488600"} and {"time": 1792488600} both work.
func decode(payload map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

// Send runs endpoint with payload. Errors are always *domain.APIError, shaped
// the way the HTTP API reports them.
func (s *Service) Send(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error) {
	resp, err := s.dispatch(ctx, endpoint, payload)
	if err != nil {
		apiErr := ToAPIError(endpoint, err)
		if apiErr.Status >= http.StatusInternalServerError {
			s.logger.Error("request failed", "endpoint", endpoint, "error", err)
		} else {
			s.logger.Debug("request rejected", "endpoint", endpoint, "error", err)
		}
		return nil, apiErr
	}
	return resp, nil
}

func (s *Service) dispatch(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error) {
	if endpoint == domain.EndpointSchedule {
		var req ScheduleRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		msg, err := s.Schedule(ctx, req)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": msg.ID, "time": msg.DeliverAt.Unix()}, nil
	}

	var req numberRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}

	switch endpoint {
	case domain.EndpointCheck:
		ok, err := s.Check(ctx, req.Number)
		if err != nil {
			return nil, err
		}
		return map[string]any{"verified": ok}, nil

	case domain.EndpointSendVerification:
		if err := s.SendVerification(ctx, req.Number); err != nil {
			return nil, err
		}
		return map[string]any{}, nil

	case domain.EndpointCheckVerification:
		ok, err := s.CheckVerification(ctx, req.Number, req.Code)
		if err != nil {
			return nil, err
		}
		return map[string]any{"valid": ok}, nil

	case domain.EndpointCheckPassword:
		ok, err := s.CheckPassword(ctx, req.Number, req.Password)
		if err != nil {
			return nil, err
		}
		return map[string]any{"matches": ok}, nil

	case domain.EndpointSetPassword:
		if err := s.SetPassword(ctx, req.Number, req.Password); err != nil {
			return nil, err
		}
		return map[string]any{}, nil

	default:
		return nil, &domain.APIError{
			Status:  http.StatusNotFound,
			Type:    domain.ErrorTypeInvalid,
			Message: fmt.Sprintf("Unknown endpoint %q.", endpoint),
		}
	}
}

// ToAPIError maps err to the wire error of endpoint. Request problems become 400
// invalid_request errors with their own message; anything else is a 500
// api_error with a generic message.
func ToAPIError(endpoint string, err error) *domain.APIError {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, domain.ErrNotVerified):
		return &domain.APIError{Status: http.StatusBadRequest, Type: domain.ErrorTypeInvalid,
			Message: "This number has not been verified."}
	case errors.Is(err, domain.ErrPastTime):
		return &domain.APIError{Status: http.StatusBadRequest, Type: domain.ErrorTypeInvalid,
			Message: "Specified time is not valid or is in the past. Please try a different format."}
	case errors.Is(err, domain.ErrInvalidRequest):
		msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidRequest.Error()+": ")
		return &domain.APIError{Status: http.StatusBadRequest, Type: domain.ErrorTypeInvalid, Message: msg}
	}

	msg, ok := failureText[endpoint]
	if !ok {
		msg = "Something went wrong."
	}
	return &domain.APIError{Status: http.StatusInternalServerError, Type: domain.ErrorTypeAPI, Message: msg}
}
