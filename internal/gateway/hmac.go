package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

const (
	ParamOrderCode     = "order_code"
	ParamAmount        = "amount"
	ParamResponseCode  = "response_code"
	ParamTransactionNo = "transaction_no"
	ParamPayDate       = "pay_date"
	ParamReturnURL     = "return_url"
	ParamSecureHash    = "secure_hash"

	ResponseApproved = "00"
)

// HMACSigner signs and verifies query-encoded payloads with HMAC-SHA512
// over the sorted key=value pairs, excluding the hash itself.
type HMACSigner struct {
	Secret []byte
}

func (s HMACSigner) Sign(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == ParamSecureHash {
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
		b.WriteString(url.QueryEscape(values.Get(k)))
	}

	mac := hmac.New(sha512.New, s.Secret)
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s HMACSigner) Verify(raw RawCallback) (*Notification, error) {
	values := raw.Query
	if len(values) == 0 && len(raw.Body) > 0 {
		parsed, err := url.ParseQuery(string(raw.Body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		values = parsed
	}

	given, err := hex.DecodeString(values.Get(ParamSecureHash))
	if err != nil || len(given) == 0 {
		return nil, ErrBadSignature
	}
	want, _ := hex.DecodeString(s.Sign(values))
	if !hmac.Equal(given, want) {
		return nil, ErrBadSignature
	}

	code := values.Get(ParamOrderCode)
	if code == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, ParamOrderCode)
	}
	amount, err := strconv.ParseInt(values.Get(ParamAmount), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrMalformed, err)
	}

	outcome := models.OutcomeFailure
	if values.Get(ParamResponseCode) == ResponseApproved {
		outcome = models.OutcomeSuccess
	}
	return &Notification{
		OrderCode:     code,
		Amount:        amount,
		Outcome:       outcome,
		TransactionNo: values.Get(ParamTransactionNo),
	}, nil
}

// PaymentURL builds the signed redirect the customer follows to pay.
func (s HMACSigner) PaymentURL(base, returnURL, orderCode string, amount int64) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set(ParamOrderCode, orderCode)
	q.Set(ParamAmount, strconv.FormatInt(amount, 10))
	if returnURL != "" {
		q.Set(ParamReturnURL, returnURL)
	}
	q.Set(ParamSecureHash, s.Sign(q))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
