package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medledger/claimguard/pkg/client"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"patients", "claims", "admin", "score", "sweep", "migrate"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestFormatTable(t *testing.T) {
	out := FormatTable(
		[]string{"ID", "STATUS"},
		[][]string{
			{"claim-1", "PENDING_PROVIDER"},
			{"claim-2", "APPROVED"},
		},
	)

	assert.Contains(t, out, "ID       STATUS")
	assert.Contains(t, out, "claim-1  PENDING_PROVIDER")
	assert.Contains(t, out, "claim-2  APPROVED")
}

func TestFormatTableEmptyHeaders(t *testing.T) {
	assert.Empty(t, FormatTable(nil, nil))
}

func TestClaimsSubmitCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/claims", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(client.SubmitClaimResponse{
			Claim: &client.Claim{ID: "claim-1", Status: "PENDING_PROVIDER", RiskLevel: "LOW"},
		})
	}))
	defer srv.Close()

	payload := filepath.Join(t.TempDir(), "claim.json")
	require.NoError(t, os.WriteFile(payload, []byte(`{
		"patientId": "patient-1",
		"providerId": "provider-1",
		"type": "OUTPATIENT",
		"amount": 900
	}`), 0o600))

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"claims", "submit", "-f", payload, "--server", srv.URL, "-o", "json"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"id": "claim-1"`)
	assert.Contains(t, out.String(), "PENDING_PROVIDER")
}

func TestClaimsSubmitMissingFile(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"claims", "submit", "-f", "/does/not/exist.json", "--server", "http://localhost:1"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read claim payload")
}

func TestSweepRequiresDatabaseConfig(t *testing.T) {
	// Client commands run without infrastructure settings, but sweep opens its
	// own database connection and must demand them up front.
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"sweep"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.postgres")
}

func TestAdminStatsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/admin/stats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(client.Stats{
			ByStatus:      map[string]int{"APPROVED": 3},
			TotalClaims:   3,
			AvgFraudScore: 18.5,
		})
	}))
	defer srv.Close()

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"admin", "stats", "--server", srv.URL, "-o", "json"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"totalClaims": 3`)
}
