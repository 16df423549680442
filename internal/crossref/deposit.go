package crossref

import (
	"context"
	"fmt"
	"time"
)

// Operation name the deposit servlet expects for metadata uploads.
const operationUpload = "doMDUpload"

// DepositResponse is the raw reply of the deposit servlet.
type DepositResponse struct {
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

// Depositor uploads records to the Crossref deposit servlet.
type Depositor struct {
	client
	login    string
	password string
}

func NewDepositor(url, login, password string, timeout time.Duration, stats *LatencyStats) *Depositor {
	return &Depositor{
		client:   newClient(url, timeout, stats),
		login:    login,
		password: password,
	}
}

// Deposit uploads record under filename. Crossref processes deposits
// asynchronously and mails the outcome to the depositor; a 2xx reply only
// means the upload was queued.
func (d *Depositor) Deposit(ctx context.Context, filename, record string) (*DepositResponse, error) {
	if d.login == "" || d.password == "" {
		return nil, fmt.Errorf("deposit: login and password are required")
	}
	fields := map[string]string{
		"login_id":     d.login,
		"login_passwd": d.password,
		"operation":    operationUpload,
	}
	status, body, err := d.postFile(ctx, fields, filename, record)
	if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Endpoint: "deposit", StatusCode: status, Body: string(body)}
	}
	return &DepositResponse{StatusCode: status, Body: string(body)}, nil
}
