// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package sensor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/uradlab/urad-ingester/lib/netutil"
	"github.com/uradlab/urad-ingester/lib/reading"
)

// DefaultTimeout bounds one fetch end to end: connect, headers and
// body.
const DefaultTimeout = 3 * time.Second

// Fetcher obtains one reading. The poller depends on this interface so
// tests can script fetch outcomes.
type Fetcher interface {
	Fetch(ctx context.Context) (reading.Reading, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// URL is the device's JSON endpoint, e.g. "http://192.168.2.106/j".
	// Required.
	URL string

	// Timeout bounds each fetch. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport. Its own Timeout is left
	// alone; the per-fetch deadline comes from Timeout above.
	HTTPClient *http.Client
}

// Client fetches readings from one device.
type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a Client. Panics if URL is empty.
func NewClient(config ClientConfig) *Client {
	if config.URL == "" {
		panic("sensor.NewClient: URL is required")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		url:        config.URL,
		timeout:    timeout,
		httpClient: httpClient,
	}
}

// Fetch issues one GET to the device and decodes the reading. Every
// failure is a *FetchError.
func (c *Client) Fetch(ctx context.Context) (reading.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return reading.Reading{}, &FetchError{Kind: KindConnect, URL: c.url, Err: err}
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return reading.Reading{}, c.transportError(err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return reading.Reading{}, &FetchError{
			Kind:       KindStatus,
			URL:        c.url,
			StatusCode: response.StatusCode,
			Err:        errors.New(netutil.ErrorBody(response.Body)),
		}
	}

	var envelope wireEnvelope
	if err := netutil.DecodeResponse(response.Body, netutil.DeviceResponseLimit, &envelope); err != nil {
		// A deadline hit while streaming the body surfaces here.
		if ctx.Err() != nil {
			return reading.Reading{}, c.transportError(err)
		}
		return reading.Reading{}, &FetchError{Kind: KindDecode, URL: c.url, Err: err}
	}
	result, err := envelope.reading()
	if err != nil {
		return reading.Reading{}, &FetchError{Kind: KindDecode, URL: c.url, Err: err}
	}
	return result, nil
}

func (c *Client) transportError(err error) *FetchError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{Kind: KindTimeout, URL: c.url, Err: err}
	}
	return &FetchError{Kind: KindConnect, URL: c.url, Err: err}
}

// wireEnvelope mirrors the device response. Pointer fields distinguish
// a missing field from a zero value.
type wireEnvelope struct {
	Data *wireData `json:"data"`
}

type wireData struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	VOC         *int32   `json:"voc"`
	CO2         *int32   `json:"co2"`
	CH2O        *int32   `json:"ch2o"`
	O3          *float64 `json:"o3"`
	PM1         *float64 `json:"pm1"`
	PM25        *float64 `json:"pm25"`
	PM10        *float64 `json:"pm10"`
	Noise       *float64 `json:"noise"`
}

func (e wireEnvelope) reading() (reading.Reading, error) {
	if e.Data == nil {
		return reading.Reading{}, errors.New(`missing "data" object`)
	}
	d := e.Data
	var missing []string
	check := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	check("temperature", d.Temperature != nil)
	check("humidity", d.Humidity != nil)
	check("voc", d.VOC != nil)
	check("co2", d.CO2 != nil)
	check("ch2o", d.CH2O != nil)
	check("o3", d.O3 != nil)
	check("pm1", d.PM1 != nil)
	check("pm25", d.PM25 != nil)
	check("pm10", d.PM10 != nil)
	check("noise", d.Noise != nil)
	if len(missing) > 0 {
		return reading.Reading{}, fmt.Errorf("missing fields %v", missing)
	}
	return reading.Reading{
		Temperature: *d.Temperature,
		Humidity:    *d.Humidity,
		VOC:         *d.VOC,
		CO2:         *d.CO2,
		CH2O:        *d.CH2O,
		O3:          *d.O3,
		PM1:         *d.PM1,
		PM25:        *d.PM25,
		PM10:        *d.PM10,
		Noise:       *d.Noise,
	}, nil
}
