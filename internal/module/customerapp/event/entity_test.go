package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

func TestBookingRuleCheck(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	testCases := []struct {
		name     string
		rule     BookingRule
		quantity int64
		wantErr  bool
	}{
		{name: "no rule", rule: BookingRule{}, quantity: 50},
		{name: "inside window", rule: BookingRule{StartDate: &before, EndDate: &after, MaximumTicket: 4}, quantity: 4},
		{name: "not opened", rule: BookingRule{StartDate: &after}, quantity: 1, wantErr: true},
		{name: "closed", rule: BookingRule{EndDate: &before}, quantity: 1, wantErr: true},
		{name: "above maximum", rule: BookingRule{MaximumTicket: 2}, quantity: 3, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Check(now, tc.quantity)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.HasStatus(err, status.BAD_REQUEST))
		})
	}
}
