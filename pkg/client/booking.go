package client

import (
	"context"
	"net/url"
	"staybook/pkg/model"
	"staybook/pkg/session"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(httpClient *HttpClient) *BookingClient {
	return &BookingClient{httpClient: httpClient}
}

type Availability struct {
	HotelID   string `json:"hotel_id"`
	Date      string `json:"date"`
	RoomType  string `json:"room_type"`
	Available bool   `json:"available"`
}

func (c *BookingClient) IsAvailable(ctx context.Context, hotelID, date, roomType string) (bool, error) {
	q := url.Values{}
	q.Set("hotel_id", hotelID)
	q.Set("date", date)
	q.Set("room_type", roomType)

	resp, err := c.httpClient.GET(ctx, "/api/v1/availability?"+q.Encode())
	if err != nil {
		return false, err
	}
	if err := resp.Err(); err != nil {
		return false, err
	}

	var availability Availability
	if err := resp.DecodeData(&availability); err != nil {
		return false, err
	}
	return availability.Available, nil
}

func (c *BookingClient) Reserve(ctx context.Context, offering *model.Offering) (*model.BookingRecord, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/bookings", offering)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var record model.BookingRecord
	if err := resp.DecodeData(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *BookingClient) ListBookings(ctx context.Context, refresh bool) ([]*model.BookingRecord, error) {
	path := "/api/v1/bookings"
	if refresh {
		path += "?refresh=true"
	}

	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var records []*model.BookingRecord
	if err := resp.DecodeData(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *BookingClient) Cancel(ctx context.Context, key string) error {
	resp, err := c.httpClient.DELETE(ctx, "/api/v1/bookings/key/"+url.PathEscape(key))
	if err != nil {
		return err
	}
	return resp.Err()
}

// API groups the typed staybook clients over one HTTP connection.
type API struct {
	http      *HttpClient
	Bookings  *BookingClient
	Offerings *OfferingClient
	Auth      *AuthClient
}

func NewAPI(baseURL string) *API {
	httpClient := NewHttpClient(baseURL)
	return &API{
		http:      httpClient,
		Bookings:  NewBookingClient(httpClient),
		Offerings: NewOfferingClient(httpClient),
		Auth:      NewAuthClient(httpClient),
	}
}

// SetUserEmail sends email as the asserted identity on every later request.
func (a *API) SetUserEmail(email string) {
	if email == "" {
		delete(a.http.Headers, session.HeaderUserEmail)
		return
	}
	a.http.Headers[session.HeaderUserEmail] = email
}

func (a *API) WaitForHealthy(ctx context.Context) error {
	return a.http.WaitForHealthy(ctx, a.http.HTTPClient.Timeout)
}
