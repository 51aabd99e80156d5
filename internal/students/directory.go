// Package students wraps the external student-identity service. The
// reservation core only needs {id, role, status}; registration, OTP and
// approval workflows live on the other side of this boundary.
package students

import (
	"context"
	"net/http"

	"slotdesk/pkg/client"
	apperrors "slotdesk/pkg/errors"
	"slotdesk/pkg/logger"
	"slotdesk/pkg/model"
)

type Directory interface {
	Lookup(ctx context.Context, id string) (*model.Student, error)
}

type httpDirectory struct {
	client *client.HttpClient
	log    *logger.Logger
}

func NewHTTPDirectory(baseURL string, log *logger.Logger) Directory {
	return &httpDirectory{
		client: client.NewHttpClient(baseURL),
		log:    log,
	}
}

func (d *httpDirectory) Lookup(ctx context.Context, id string) (*model.Student, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("requester ID cannot be empty")
	}

	resp, err := d.client.GET(ctx, "/api/v1/students/id/"+id)
	if err != nil {
		d.log.Error("Student directory unreachable", "student_id", id, "error", err)
		return nil, apperrors.Internal("failed to reach student directory", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, apperrors.NotFoundWithID("Student", id)
	default:
		return nil, apperrors.Internal("student directory returned unexpected status", nil).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	var body struct {
		Data model.Student `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, apperrors.Internal("failed to decode student directory response", err)
	}

	return &body.Data, nil
}
