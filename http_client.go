package main

import (
	"net/http"
	"time"
)

// One shared client for simulation-service calls. The timeout bounds a
// single attempt; the retry schedule bounds the whole call.
const serviceHTTPTimeout = 60 * time.Second

var serviceHTTPClient = &http.Client{
	Timeout: serviceHTTPTimeout,
}
