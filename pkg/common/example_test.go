package common_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/common"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/logging"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/ratelimit"
)

func ExampleNewHTTPClient() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"serverTime":1700000000000}`)
	}))
	defer server.Close()

	client := common.NewHTTPClient(&common.ClientConfig{
		Timeout: 10 * time.Second,
		RateLimit: ratelimit.Rate{
			Limit:    20,
			Interval: time.Second,
		},
		Logger: logging.NewNopLogger(),
	})

	resp, err := client.Get(context.Background(), server.URL+"/fapi/v1/time")
	if err != nil {
		fmt.Println("request failed:", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println(resp.StatusCode)
	// Output: 200
}

func ExampleNewDebugHTTPClient() {
	// The debug client dumps every request and response at debug level with
	// API keys and signatures redacted.
	client := common.NewDebugHTTPClient(&common.DebugClientConfig{
		ClientConfig: &common.ClientConfig{
			Timeout: 10 * time.Second,
			Logger:  logging.NewNopLogger(),
		},
		LogRequestBody:  true,
		LogResponseBody: true,
		MaxBodyLogSize:  8192,
	})
	_ = client
	// Output:
}
