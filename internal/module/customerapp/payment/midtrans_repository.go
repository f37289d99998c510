package payment

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type MidtransRepository interface {
	Charge(ctx context.Context, req AuthorizeRequest) (Authorization, error)
	VerifyNotification(n MidtransNotification) bool
}

type midtransRepository struct {
	baseURL      string
	basicAuthKey string
	serverKey    string
	logger       *logrus.Logger
	hc           *http.Client
}

func NewMidtransRepository(baseURL, basicAuthKey, serverKey string, logger *logrus.Logger, hc *http.Client) MidtransRepository {
	return &midtransRepository{
		baseURL:      baseURL,
		basicAuthKey: basicAuthKey,
		serverKey:    serverKey,
		logger:       logger,
		hc:           hc,
	}
}

func upstreamError(gateway string) error {
	return errors.New(http.StatusBadGateway, status.UPSTREAM_PAYMENT_ERROR, fmt.Sprintf("an error occurred while authorizing payment through %s", gateway))
}

// midtrans bank transfers settle in whole currency units only.
func midtransGrossAmount(req AuthorizeRequest) (int64, error) {
	if req.AmountMinor <= 0 || req.AmountMinor%100 != 0 {
		return 0, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("amount %d.%02d %s cannot be paid by bank transfer, it must be a whole amount", req.AmountMinor/100, req.AmountMinor%100, req.Currency))
	}
	return req.AmountMinor / 100, nil
}

func newMidtransChargeRequest(req AuthorizeRequest, gross int64) MidtransChargeRequest {

	charge := MidtransChargeRequest{
		PaymentType:  midtransBankTransferType,
		BankTransfer: midtransBankTransfer{Bank: req.Method},
		TransactionDetails: midtransTransactionDetails{
			OrderID:     req.Reference,
			GrossAmount: gross,
		},
		CustomerDetails: midtransCustomerDetails{
			FirstName: req.Customer.Name,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
		},
		ItemDetails: []midtransItemDetails{
			{ID: req.Reference, Price: gross, Quantity: 1, Name: req.Description},
		},
	}

	if !req.ExpiresAt.IsZero() {
		minutes := int64(math.Ceil(time.Until(req.ExpiresAt).Minutes()))
		if minutes > 0 {
			charge.CustomExpiry = &midtransCustomExpiry{ExpiryDuration: minutes, Unit: "minute"}
		}
	}

	return charge
}

// Charge implements MidtransRepository.
func (r *midtransRepository) Charge(ctx context.Context, req AuthorizeRequest) (Authorization, error) {
	gross, err := midtransGrossAmount(req)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("order_id", req.Reference).Warn()
		return Authorization{}, err
	}

	reqBuff, _ := json.Marshal(newMidtransChargeRequest(req, gross))
	url := fmt.Sprintf("%s/v2/charge", r.baseURL)

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBuff))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Authorization{}, upstreamError(GatewayMidtrans)
	}

	hr.Header.Add("Content-Type", "application/json")
	hr.Header.Add("Accept", "application/json")
	hr.Header.Add("Authorization", fmt.Sprintf("Basic %s", r.basicAuthKey))

	hresp, err := r.hc.Do(hr)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Authorization{}, upstreamError(GatewayMidtrans)
	}
	defer hresp.Body.Close()

	respBody, err := io.ReadAll(hresp.Body)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Authorization{}, upstreamError(GatewayMidtrans)
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		r.logger.WithContext(ctx).WithField("status_code", hresp.StatusCode).Error(string(respBody))
		return Authorization{}, upstreamError(GatewayMidtrans)
	}

	var resp MidtransChargeResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Authorization{}, upstreamError(GatewayMidtrans)
	}

	// midtrans answers 200 with the real status code in the body.
	if len(resp.StatusCode) > 0 && resp.StatusCode[0] != '2' {
		r.logger.WithContext(ctx).WithField("status_code", resp.StatusCode).Error(resp.StatusMessage)
		return Authorization{}, upstreamError(GatewayMidtrans)
	}

	if len(resp.VaNumbers) == 0 {
		r.logger.WithContext(ctx).Error("midtrans charge response carries no virtual account")
		return Authorization{}, upstreamError(GatewayMidtrans)
	}

	return Authorization{
		Gateway:          GatewayMidtrans,
		TransactionID:    resp.TransactionID,
		PaymentReference: resp.VaNumbers[0].VaNumber,
		Status:           resp.TransactionStatus,
	}, nil
}

func midtransSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifyNotification implements MidtransRepository.
func (r *midtransRepository) VerifyNotification(n MidtransNotification) bool {
	expected := midtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, r.serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}
