package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

// params holds query parameters in insertion order. Binance signs the
// exact byte string that is sent, so the serialization both here and in
// sign must be stable; keeping caller order avoids any re-sort surprises
// between signing and sending.
type params struct {
	keys   []string
	values []string
}

func newParams() *params {
	return &params{}
}

// Add appends a key/value pair. Values are escaped at encode time, keys
// are expected to be plain identifiers.
func (p *params) Add(key, value string) *params {
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return p
}

func (p *params) AddInt(key string, value int64) *params {
	return p.Add(key, strconv.FormatInt(value, 10))
}

// Encode serializes the pairs as key=value&key=value in insertion order.
func (p *params) Encode() string {
	if p == nil || len(p.keys) == 0 {
		return ""
	}
	var b []byte
	for i, key := range p.keys {
		if i > 0 {
			b = append(b, '&')
		}
		b = append(b, key...)
		b = append(b, '=')
		b = append(b, url.QueryEscape(p.values[i])...)
	}
	return string(b)
}

// sign returns the lowercase hex HMAC-SHA256 of payload under secret.
// Deterministic: identical payload and secret always produce the same
// signature.
func sign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// signQuery attaches recvWindow and a fresh millisecond timestamp to the
// encoded parameters and appends the signature as the final parameter.
// The signature covers everything before it, timestamp included, which is
// why each retry attempt must rebuild the query rather than resend bytes.
func (c *Connector) signQuery(p *params) string {
	query := p.Encode()
	auth := "recvWindow=" + strconv.FormatInt(c.options.RecvWindow.Milliseconds(), 10) +
		"&timestamp=" + strconv.FormatInt(timestampMs(), 10)
	if query == "" {
		query = auth
	} else {
		query += "&" + auth
	}
	return query + "&signature=" + sign(query, c.options.APISecret)
}

func timestampMs() int64 {
	return time.Now().UnixMilli()
}
