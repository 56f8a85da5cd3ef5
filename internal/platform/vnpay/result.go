package vnpay

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// IPN response codes expected by VNPay.
const (
	RspConfirmSuccess   = "00"
	RspOrderNotFound    = "01"
	RspAlreadyConfirmed = "02"
	RspInvalidAmount    = "04"
	RspInvalidSignature = "97"
	RspUnknownError     = "99"
)

type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

func NewIPNResponse(code string) IPNResponse {
	msg, ok := ipnMessages[code]
	if !ok {
		code, msg = RspUnknownError, ipnMessages[RspUnknownError]
	}
	return IPNResponse{RspCode: code, Message: msg}
}

var ipnMessages = map[string]string{
	RspConfirmSuccess:   "Confirm Success",
	RspOrderNotFound:    "Order not found",
	RspAlreadyConfirmed: "Order already confirmed",
	RspInvalidAmount:    "Invalid amount",
	RspInvalidSignature: "Invalid signature",
	RspUnknownError:     "Unknow error",
}

// Result is the parsed content of a return/IPN query string.
type Result struct {
	TxnRef            string
	Amount            int64 // VND, already divided by 100; -1 when unusable
	ResponseCode      string
	TransactionStatus string
	TransactionNo     string
	BankCode          string
	PayDate           *time.Time
	Raw               map[string]string
}

// Success requires both the response code and the transaction status to be 00.
func (r Result) Success() bool {
	return r.ResponseCode == "00" && r.TransactionStatus == "00"
}

func ParseResult(params url.Values) Result {
	res := Result{
		TxnRef:            params.Get("vnp_TxnRef"),
		ResponseCode:      params.Get("vnp_ResponseCode"),
		TransactionStatus: params.Get("vnp_TransactionStatus"),
		TransactionNo:     params.Get("vnp_TransactionNo"),
		BankCode:          params.Get("vnp_BankCode"),
		Raw:               make(map[string]string, len(params)),
	}
	// vnp_Amount is VND x 100; a fractional or malformed value matches no order.
	if v, err := strconv.ParseInt(params.Get("vnp_Amount"), 10, 64); err == nil && v >= 0 && v%100 == 0 {
		res.Amount = v / 100
	} else {
		res.Amount = -1
	}
	if ts := params.Get("vnp_PayDate"); ts != "" {
		if t, err := time.ParseInLocation(DateLayout, ts, Location); err == nil {
			utc := t.UTC()
			res.PayDate = &utc
		}
	}
	for k := range params {
		if k == ParamSecureHash || k == ParamSecureHashType {
			continue
		}
		if strings.HasPrefix(k, "vnp_") {
			res.Raw[k] = params.Get(k)
		}
	}
	return res
}

var responseMessages = map[string]string{
	"00": "Transaction successful",
	"07": "Amount deducted; transaction flagged as suspicious",
	"09": "Card/account not registered for internet banking",
	"10": "Card/account authentication failed more than 3 times",
	"11": "Payment window expired",
	"12": "Card/account is locked",
	"13": "Wrong OTP",
	"24": "Customer cancelled the transaction",
	"51": "Insufficient balance",
	"65": "Daily transaction limit exceeded",
	"75": "Bank under maintenance",
	"79": "Wrong payment password too many times",
	"99": "Unknown error",
}

// ResponseMessage explains a vnp_ResponseCode.
func ResponseMessage(code string) string {
	if m, ok := responseMessages[code]; ok {
		return m
	}
	return "Transaction failed"
}
