package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(Config{
		TmnCode:     "TESTTMN1",
		HashSecret:  "SECRETKEY",
		PayURL:      "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:   "http://localhost:8080/api/payments/vnpay/return",
		ExpireAfter: 15 * time.Minute,
	})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2025, 5, 1, 3, 4, 5, 0, time.UTC) }
	return c
}

func TestSignDataSortsAndEscapes(t *testing.T) {
	params := url.Values{}
	params.Set("vnp_TxnRef", "ORD1")
	params.Set("vnp_Amount", "100")
	params.Set("vnp_OrderInfo", "Thanh toan don hang")
	params.Set("vnp_SecureHash", "ignored")
	params.Set("vnp_BankCode", "")

	assert.Equal(t, "vnp_Amount=100&vnp_OrderInfo=Thanh+toan+don+hang&vnp_TxnRef=ORD1", SignData(params))
}

func TestPaymentURLRoundTrip(t *testing.T) {
	c := newTestClient(t)

	raw, err := c.PaymentURL(PaymentRequest{TxnRef: "ORD250501123456", Amount: 280000, IPAddr: "10.0.0.1", BankCode: "NCB"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(raw, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?"))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "28000000", q.Get("vnp_Amount"))
	assert.Equal(t, "2.1.0", q.Get("vnp_Version"))
	assert.Equal(t, "pay", q.Get("vnp_Command"))
	assert.Equal(t, "VND", q.Get("vnp_CurrCode"))
	assert.Equal(t, "NCB", q.Get("vnp_BankCode"))
	assert.Equal(t, "20250501100405", q.Get("vnp_CreateDate"))
	assert.Equal(t, "20250501101905", q.Get("vnp_ExpireDate"))
	assert.Len(t, q.Get("vnp_SecureHash"), 128)
	assert.True(t, c.Verify(q))

	q.Set("vnp_Amount", "1")
	assert.False(t, c.Verify(q))
}

func TestVerifyAcceptsUppercaseHash(t *testing.T) {
	c := newTestClient(t)
	params := url.Values{}
	params.Set("vnp_TxnRef", "ORD1")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_SecureHash", strings.ToUpper(Sign("SECRETKEY", SignData(params))))
	params.Set("vnp_SecureHashType", "HmacSHA512")
	assert.True(t, c.Verify(params))

	params.Del("vnp_SecureHash")
	assert.False(t, c.Verify(params))
}

func TestParseResult(t *testing.T) {
	params := url.Values{}
	params.Set("vnp_TxnRef", "ORD1")
	params.Set("vnp_Amount", "28000000")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_TransactionStatus", "00")
	params.Set("vnp_TransactionNo", "14000000")
	params.Set("vnp_PayDate", "20250501100405")
	params.Set("vnp_SecureHash", "abc")

	res := ParseResult(params)
	assert.True(t, res.Success())
	assert.EqualValues(t, 280000, res.Amount)
	require.NotNil(t, res.PayDate)
	assert.Equal(t, time.Date(2025, 5, 1, 3, 4, 5, 0, time.UTC), *res.PayDate)
	assert.NotContains(t, res.Raw, "vnp_SecureHash")

	params.Set("vnp_TransactionStatus", "02")
	assert.False(t, ParseResult(params).Success())

	params.Set("vnp_Amount", "abc")
	assert.EqualValues(t, -1, ParseResult(params).Amount)
	params.Set("vnp_Amount", "18000099")
	assert.EqualValues(t, -1, ParseResult(params).Amount)
	params.Set("vnp_Amount", "-18000000")
	assert.EqualValues(t, -1, ParseResult(params).Amount)
}

func TestNewIPNResponse(t *testing.T) {
	assert.Equal(t, IPNResponse{RspCode: "97", Message: "Invalid signature"}, NewIPNResponse(RspInvalidSignature))
	assert.Equal(t, "99", NewIPNResponse("zz").RspCode)
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{TmnCode: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
