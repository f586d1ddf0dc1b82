// AngelaMos | 2026
// log_test.go

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The log notifier must satisfy the full interface so it can stand in
// for SMTP when no relay is configured.
var _ Notifier = (*LogNotifier)(nil)

func TestLogNotifierNeverFailsAndNeverLogsPasswords(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := context.Background()

	require.NoError(t, n.SendCredentials(ctx, Credentials{
		Email:       "ops@acme.example",
		CompanyName: "Acme Analytics",
		Username:    "acme_analytics_1a2b3c4d",
		Password:    "super-secret",
	}))
	require.NoError(t, n.SendWarning(ctx, Warning{
		Email:        "ops@acme.example",
		CompanyName:  "Acme Analytics",
		Status:       "warning_2",
		DaysInactive: 31,
	}))
	require.NoError(t, n.SendDeletionNotice(ctx, DeletionNotice{
		Email:       "ops@acme.example",
		CompanyName: "Acme Analytics",
		Reason:      "removed by an administrator",
	}))
	require.NoError(t, n.SendAccuracyWarning(ctx, AccuracyWarning{
		Email:       "ops@acme.example",
		CompanyName: "Acme Analytics",
		Accuracy:    0.55,
	}))

	out := buf.String()
	assert.Contains(t, out, "acme_analytics_1a2b3c4d")
	assert.Contains(t, out, "warning_2")
	assert.NotContains(t, out, "super-secret")

	// every line is valid structured JSON
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		assert.NoError(t, json.Unmarshal(line, &entry))
	}
}
