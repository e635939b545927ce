package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Vaibhavsh0120/Connect2Give/pkg/geo"

	"github.com/joho/godotenv"
)

// Client talks to an OSRM routing server. Road geometry is cosmetic; route
// ordering and distances always come from the haversine planner.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClientFromEnv returns nil when OSRM_BASE_URL is unset. A nil client
// means routes are served without road geometry.
func NewClientFromEnv() *Client {
	_ = godotenv.Load()

	baseURL := os.Getenv("OSRM_BASE_URL")
	if baseURL == "" {
		return nil
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Polyline fetches the encoded road geometry through the waypoints, in
// visiting order.
func (c *Client) Polyline(ctx context.Context, waypoints []geo.Coordinates) (string, error) {
	if len(waypoints) < 2 {
		return "", fmt.Errorf("polyline needs at least two waypoints, got %d", len(waypoints))
	}

	pairs := make([]string, 0, len(waypoints))
	for _, point := range waypoints {
		pairs = append(pairs, fmt.Sprintf("%f,%f", point.Longitude, point.Latitude))
	}
	url := fmt.Sprintf("%s/route/v1/driving/%s?overview=full&geometries=polyline",
		c.baseURL, strings.Join(pairs, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("osrm returned %s", resp.Status)
	}

	var response routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", err
	}
	if response.Code != "Ok" || len(response.Routes) == 0 {
		return "", fmt.Errorf("osrm found no route (code: %s)", response.Code)
	}

	return response.Routes[0].Geometry, nil
}
