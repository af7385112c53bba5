package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"deskbook/pkg/model"
)

const reservationsPath = "/api/v1/reservations"

// ReservationClient talks to the reservations HTTP API on behalf of one identity.
type ReservationClient struct {
	httpClient *HttpClient
}

func NewReservationClient(baseURL string, identity model.Identity) (*ReservationClient, error) {
	header, err := json.Marshal(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to encode identity: %w", err)
	}

	hc := NewHttpClient(baseURL)
	hc.Headers["X-User-Info"] = string(header)
	return &ReservationClient{httpClient: hc}, nil
}

type proposeBody struct {
	SeatID    int64     `json:"seat_id"`
	BeginTime time.Time `json:"begin_time"`
	EndTime   time.Time `json:"end_time"`
}

type PageResult struct {
	Data       []*model.Reservation `json:"data"`
	TotalCount int64                `json:"total_count"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
}

func (c *ReservationClient) Propose(ctx context.Context, seatID int64, begin, end time.Time) (*model.Reservation, error) {
	resp, err := c.httpClient.POST(ctx, reservationsPath, proposeBody{SeatID: seatID, BeginTime: begin, EndTime: end})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("reservation refused (%d): %s", resp.StatusCode, GetErrorMessage(resp))
	}

	var out struct {
		Data *model.Reservation `json:"data"`
	}
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("failed to decode reservation: %w", err)
	}
	return out.Data, nil
}

func (c *ReservationClient) List(ctx context.Context, limit int, offset int64) (*PageResult, error) {
	return c.page(ctx, reservationsPath, limit, offset)
}

func (c *ReservationClient) Mine(ctx context.Context, limit int, offset int64) (*PageResult, error) {
	return c.page(ctx, reservationsPath+"/me", limit, offset)
}

func (c *ReservationClient) Delete(ctx context.Context, id int64) error {
	resp, err := c.httpClient.DELETE(ctx, reservationsPath+"/id/"+strconv.FormatInt(id, 10))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete failed (%d): %s", resp.StatusCode, GetErrorMessage(resp))
	}
	return nil
}

func (c *ReservationClient) page(ctx context.Context, path string, limit int, offset int64) (*PageResult, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.FormatInt(offset, 10))

	resp, err := c.httpClient.GET(ctx, path+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list failed (%d): %s", resp.StatusCode, GetErrorMessage(resp))
	}

	var out PageResult
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	return &out, nil
}
