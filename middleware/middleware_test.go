package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"centromedico/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()
}

func okEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	handler := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/api/calls", handler)
	r.POST("/webhook/voice", handler)
	return r
}

func TestAdminAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"valid", "s3cret", "Bearer s3cret", http.StatusOK},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"not bearer", "s3cret", "Basic s3cret", http.StatusUnauthorized},
		{"disabled", "", "Bearer ", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := okEngine(AdminAuthMiddleware(tt.token))
			req := httptest.NewRequest(http.MethodGet, "/api/calls", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

// sign computes the provider's webhook signature: HMAC-SHA1 over the URL
// followed by every POST parameter sorted by name.
func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k + form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestTwilioSignatureMiddleware(t *testing.T) {
	const (
		token = "auth-token"
		base  = "https://voice.example.com"
	)
	form := url.Values{"CallSid": {"CA123"}, "From": {"+39333111222"}}
	r := okEngine(TwilioSignatureMiddleware(token, base))

	post := func(signature string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhook/voice", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Twilio-Signature", signature)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := post(sign(token, base+"/webhook/voice", form)); code != http.StatusOK {
		t.Errorf("valid signature: status = %d", code)
	}
	if code := post(sign("other-token", base+"/webhook/voice", form)); code != http.StatusForbidden {
		t.Errorf("wrong token: status = %d", code)
	}
	if code := post(""); code != http.StatusForbidden {
		t.Errorf("missing signature: status = %d", code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := okEngine(RateLimitMiddleware(2))
	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/calls", nil)
		req.RemoteAddr = ip + ":5060"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, code)
		}
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("over limit: status = %d", code)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client limited: status = %d", code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "54.172.60.1, 10.0.0.5"}, "54.172.60.1"},
		{"real ip", map[string]string{"X-Real-IP": " 54.172.60.2 "}, "54.172.60.2"},
		{"garbage header", map[string]string{"X-Forwarded-For": "unknown"}, "192.0.2.10"},
		{"remote addr", nil, "192.0.2.10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = "192.0.2.10:1234"
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			if got := clientIP(c); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := okEngine(RequestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/calls", nil)
	req.Header.Set("X-Request-Id", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-Id"); got != "req-1" {
		t.Errorf("request id = %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/calls", nil))
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("no request id generated")
	}
}

func TestTwilioSignatureWithoutBaseURL(t *testing.T) {
	const token = "auth-token"
	form := url.Values{"CallSid": {"CA123"}, "From": {"+39333111222"}}
	signed := sign(token, "https://voice.example.com/webhook/voice", form)
	r := okEngine(TwilioSignatureMiddleware(token, ""))

	tests := []struct {
		name    string
		target  string
		headers map[string]string
		want    int
	}{
		{"direct tls", "https://voice.example.com/webhook/voice", nil, http.StatusOK},
		{"behind proxy", "http://10.0.0.5:8080/webhook/voice", map[string]string{
			"X-Forwarded-Proto": "https",
			"X-Forwarded-Host":  "voice.example.com",
		}, http.StatusOK},
		{"other host", "https://attacker.example.com/webhook/voice", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("X-Twilio-Signature", signed)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
