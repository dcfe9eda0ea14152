package dashboard

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-traffic-service/internal/model"
)

func TestRenderStatusLines(t *testing.T) {
	for status, want := range map[Status]string{
		StatusConnected:         "[connected]",
		StatusDisconnected:      "[disconnected]",
		StatusOfflineSimulation: "[OFFLINE SIMULATION]",
	} {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, Snapshot{Status: status, StoreID: 10}))
		assert.Contains(t, buf.String(), want)
		assert.Contains(t, buf.String(), "Store ID: 10")
	}
}

func TestRenderTables(t *testing.T) {
	var buf bytes.Buffer
	snap := Snapshot{
		Status:  StatusConnected,
		StoreID: 10,
		Total:   7,
		Live: []model.TrafficEvent{
			{StoreID: 10, CustomersIn: 2, CustomersOut: 1, TimeStamp: time.Now()},
		},
		Hourly: []model.HourlyBucket{
			{Hour: "03 PM", CustomersIn: 5, CustomersOut: 2, NetChange: 3},
			{Hour: "04 PM", CustomersIn: 0, CustomersOut: 4, NetChange: -4},
		},
	}

	require.NoError(t, Render(&buf, snap))
	out := buf.String()

	assert.Contains(t, out, "Total customers in store: 7")
	assert.Contains(t, out, "LIVE")
	assert.Contains(t, out, "LAST 24 HOURS")
	assert.Regexp(t, `03 PM\s+5\s+2\s+\+3`, out)
	assert.Regexp(t, `04 PM\s+0\s+4\s+-4`, out)
}

func TestRenderServerDatabase(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Snapshot{Status: StatusConnected, Database: "disconnected"}))
	assert.Contains(t, buf.String(), "server database: disconnected")

	buf.Reset()
	require.NoError(t, Render(&buf, Snapshot{Status: StatusOfflineSimulation}))
	assert.NotContains(t, buf.String(), "server database")
}
