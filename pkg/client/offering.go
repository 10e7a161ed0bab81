package client

import (
	"context"
	"net/url"
	"staybook/pkg/model"
)

type OfferingClient struct {
	httpClient *HttpClient
}

func NewOfferingClient(httpClient *HttpClient) *OfferingClient {
	return &OfferingClient{httpClient: httpClient}
}

func (c *OfferingClient) GetAll(ctx context.Context) ([]*model.Offering, error) {
	return c.offerings(ctx, "/api/v1/offerings?limit=200")
}

func (c *OfferingClient) Search(ctx context.Context, location, roomType, date string) ([]*model.Offering, error) {
	q := url.Values{}
	q.Set("location", location)
	q.Set("room_type", roomType)
	q.Set("date", date)
	return c.offerings(ctx, "/api/v1/offerings/search?"+q.Encode())
}

func (c *OfferingClient) Locations(ctx context.Context) ([]string, error) {
	return c.values(ctx, "/api/v1/offerings/locations")
}

func (c *OfferingClient) RoomTypes(ctx context.Context) ([]string, error) {
	return c.values(ctx, "/api/v1/offerings/room-types")
}

func (c *OfferingClient) offerings(ctx context.Context, path string) ([]*model.Offering, error) {
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var offerings []*model.Offering
	if err := resp.DecodeData(&offerings); err != nil {
		return nil, err
	}
	return offerings, nil
}

func (c *OfferingClient) values(ctx context.Context, path string) ([]string, error) {
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var values []string
	if err := resp.DecodeData(&values); err != nil {
		return nil, err
	}
	return values, nil
}
