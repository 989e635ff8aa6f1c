package main

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type transactionData struct {
	Reference     string `json:"reference"`
	ServiceType   string `json:"service_type"`
	Direction     string `json:"direction"`
	Amount        int64  `json:"amount"`
	Fee           int64  `json:"fee"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
}

type lowBalanceData struct {
	AccountID    string `json:"account_id"`
	AccountType  string `json:"account_type"`
	Balance      int64  `json:"balance"`
	MinThreshold int64  `json:"min_threshold"`
}

// render returns the recipient and text for an event, or ok=false when
// the event does not produce a message.
func render(eventType string, data json.RawMessage) (to, text string, ok bool) {
	switch eventType {
	case "transaction.created":
		var t transactionData
		if err := json.Unmarshal(data, &t); err != nil || t.CustomerPhone == "" {
			return "", "", false
		}
		return t.CustomerPhone, fmt.Sprintf("Dear %s, your %s %s of GHS %s was successful. Fee: GHS %s. Ref: %s",
			customerName(t.CustomerName), t.ServiceType, t.Direction, cedis(t.Amount), cedis(t.Fee), t.Reference), true

	case "transaction.deleted":
		var t transactionData
		if err := json.Unmarshal(data, &t); err != nil || t.CustomerPhone == "" {
			return "", "", false
		}
		return t.CustomerPhone, fmt.Sprintf("Your transaction %s of GHS %s has been reversed.", t.Reference, cedis(t.Amount)), true

	case "float.low_balance":
		var l lowBalanceData
		if err := json.Unmarshal(data, &l); err != nil {
			return "", "", false
		}
		return "branch-manager", fmt.Sprintf("Low float alert: %s account %s is at GHS %s, below GHS %s.",
			l.AccountType, l.AccountID, cedis(l.Balance), cedis(l.MinThreshold)), true
	}
	return "", "", false
}

func customerName(name string) string {
	if name == "" {
		return "Customer"
	}
	return name
}

func cedis(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
