package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
)

// HandlersClient reads and toggles the server's active handler set.
type HandlersClient struct {
	client *Client
}

// List returns every handler with its priority and state.
func (h *HandlersClient) List(ctx context.Context) (*apitypes.HandlerList, error) {
	var res apitypes.HandlerList
	if err := h.client.do(ctx, http.MethodGet, "/api/v1/handlers", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Enable activates the handler id.
func (h *HandlersClient) Enable(ctx context.Context, id string) (*apitypes.HandlerList, error) {
	return h.toggle(ctx, http.MethodPut, id)
}

// Disable deactivates the handler id.
func (h *HandlersClient) Disable(ctx context.Context, id string) (*apitypes.HandlerList, error) {
	return h.toggle(ctx, http.MethodDelete, id)
}

func (h *HandlersClient) toggle(ctx context.Context, method, id string) (*apitypes.HandlerList, error) {
	if id == "" {
		return nil, errors.InvalidParam("handler id is required")
	}
	var res apitypes.HandlerList
	if err := h.client.do(ctx, method, "/api/v1/handlers/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

//Personal.AI order the ending
