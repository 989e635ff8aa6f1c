package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	created, err := json.Marshal(transactionData{
		Reference:     "MOMO-20261016-ABCD1234",
		ServiceType:   "momo",
		Direction:     "cash_in",
		Amount:        10000,
		Fee:           200,
		CustomerName:  "Ama",
		CustomerPhone: "0241234567",
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		eventType string
		data      json.RawMessage
		wantTo    string
		wantText  string
		wantOK    bool
	}{
		{
			name:      "deposit receipt",
			eventType: "transaction.created",
			data:      created,
			wantTo:    "0241234567",
			wantText:  "Dear Ama, your momo cash_in of GHS 100.00 was successful. Fee: GHS 2.00. Ref: MOMO-20261016-ABCD1234",
			wantOK:    true,
		},
		{
			name:      "no phone, no message",
			eventType: "transaction.created",
			data:      json.RawMessage(`{"reference":"X","amount":100}`),
		},
		{
			name:      "low balance alert",
			eventType: "float.low_balance",
			data:      json.RawMessage(`{"account_id":"a1","account_type":"momo","balance":150000,"min_threshold":500000}`),
			wantTo:    "branch-manager",
			wantText:  "Low float alert: momo account a1 is at GHS 1500.00, below GHS 5000.00.",
			wantOK:    true,
		},
		{
			name:      "commission events are silent",
			eventType: "commission.approved",
			data:      json.RawMessage(`{}`),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			to, text, ok := render(tc.eventType, tc.data)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantTo, to)
			assert.Equal(t, tc.wantText, text)
		})
	}
}
