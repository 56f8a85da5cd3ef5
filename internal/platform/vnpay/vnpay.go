// Package vnpay builds signed VNPay payment URLs and verifies the query
// strings VNPay sends back on the return redirect and the IPN callback.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/shopfront-backend/internal/platform/envutil"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

const (
	Version       = "2.1.0"
	CommandPay    = "pay"
	CurrencyVND   = "VND"
	OrderTypeMisc = "other"
	DateLayout    = "20060102150405"

	ParamSecureHash     = "vnp_SecureHash"
	ParamSecureHashType = "vnp_SecureHashType"

	SandboxPayURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
)

// Vietnam has no DST, so a fixed zone avoids depending on tzdata.
var Location = time.FixedZone("ICT", 7*60*60)

var ErrNotConfigured = errors.New("vnpay: missing VNPAY_TMN_CODE or VNPAY_HASH_SECRET")

type Config struct {
	TmnCode     string
	HashSecret  string
	PayURL      string
	ReturnURL   string
	ExpireAfter time.Duration
	Locale      string
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		TmnCode:     envutil.String("VNPAY_TMN_CODE", "", log),
		HashSecret:  envutil.String("VNPAY_HASH_SECRET", "", nil),
		PayURL:      envutil.String("VNPAY_PAY_URL", SandboxPayURL, log),
		ReturnURL:   envutil.String("VNPAY_RETURN_URL", "http://localhost:8080/api/payments/vnpay/return", log),
		ExpireAfter: envutil.Minutes("VNPAY_EXPIRE_MINUTES", 15*time.Minute),
		Locale:      envutil.String("VNPAY_LOCALE", "vn", log),
	}
}

type Client struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.TmnCode) == "" || strings.TrimSpace(cfg.HashSecret) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.PayURL == "" {
		cfg.PayURL = SandboxPayURL
	}
	if cfg.ExpireAfter <= 0 {
		cfg.ExpireAfter = 15 * time.Minute
	}
	if cfg.Locale == "" {
		cfg.Locale = "vn"
	}
	return &Client{cfg: cfg, now: time.Now}, nil
}

type PaymentRequest struct {
	TxnRef    string
	Amount    int64 // VND
	OrderInfo string
	IPAddr    string
	BankCode  string
	ReturnURL string
}

// PaymentURL returns the redirect URL for a new payment attempt.
func (c *Client) PaymentURL(req PaymentRequest) (string, error) {
	if req.TxnRef == "" {
		return "", fmt.Errorf("vnpay: txn ref required")
	}
	if req.Amount <= 0 {
		return "", fmt.Errorf("vnpay: amount must be positive")
	}
	ip := strings.TrimSpace(req.IPAddr)
	if ip == "" || ip == "::1" {
		ip = "127.0.0.1"
	}
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = c.cfg.ReturnURL
	}
	info := strings.TrimSpace(req.OrderInfo)
	if info == "" {
		info = "Thanh toan don hang " + req.TxnRef
	}

	created := c.now().In(Location)
	params := url.Values{}
	params.Set("vnp_Version", Version)
	params.Set("vnp_Command", CommandPay)
	params.Set("vnp_TmnCode", c.cfg.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Set("vnp_CurrCode", CurrencyVND)
	params.Set("vnp_TxnRef", req.TxnRef)
	params.Set("vnp_OrderInfo", info)
	params.Set("vnp_OrderType", OrderTypeMisc)
	params.Set("vnp_Locale", c.cfg.Locale)
	params.Set("vnp_ReturnUrl", returnURL)
	params.Set("vnp_IpAddr", ip)
	params.Set("vnp_CreateDate", created.Format(DateLayout))
	params.Set("vnp_ExpireDate", created.Add(c.cfg.ExpireAfter).Format(DateLayout))
	if b := strings.TrimSpace(req.BankCode); b != "" {
		params.Set("vnp_BankCode", b)
	}

	signData := SignData(params)
	return c.cfg.PayURL + "?" + signData + "&" + ParamSecureHash + "=" + Sign(c.cfg.HashSecret, signData), nil
}

// Verify checks vnp_SecureHash against the remaining vnp_ parameters.
func (c *Client) Verify(params url.Values) bool {
	got := strings.TrimSpace(params.Get(ParamSecureHash))
	if got == "" {
		return false
	}
	want := Sign(c.cfg.HashSecret, SignData(params))
	return hmac.Equal([]byte(strings.ToLower(got)), []byte(want))
}

// SignData sorts keys ascending and joins escaped k=v pairs with '&'. The
// hash parameters and empty values are left out.
func SignData(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == ParamSecureHash || k == ParamSecureHashType {
			continue
		}
		if params.Get(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}
	return b.String()
}

// Sign is hex(HMAC-SHA512(secret, data)).
func Sign(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
