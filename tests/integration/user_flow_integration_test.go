//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// The journey runs against a live server whose roster was loaded with
// `growpoint seed`. Identities come from the environment:
//
//	GROWPOINT_TEST_EMPLOYEE=Engineering,Ada,1
//	GROWPOINT_TEST_HR=People,Hana,3,<access code>   (optional)
func baseURL() string {
	if v := os.Getenv("GROWPOINT_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

type identity struct {
	Department   string `json:"department"`
	EmployeeName string `json:"employeeName"`
	EmployeeID   int    `json:"employeeId"`
	AccessCode   string `json:"accessCode,omitempty"`
}

func identityFromEnv(t *testing.T, key string) (identity, bool) {
	t.Helper()
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return identity{}, false
	}
	parts := strings.Split(raw, ",")
	if len(parts) < 3 {
		t.Fatalf("%s must be department,name,id[,code]", key)
	}
	id, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		t.Fatalf("%s: bad employee id: %v", key, err)
	}
	ident := identity{Department: parts[0], EmployeeName: parts[1], EmployeeID: id}
	if len(parts) > 3 {
		ident.AccessCode = parts[3]
	}
	return ident, true
}

func lookup(t *testing.T, client *http.Client, base string, who identity) string {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/auth/lookup", "", who, &resp)
	if resp.Token == "" {
		t.Fatalf("lookup for %s returned no token", who.EmployeeName)
	}
	return resp.Token
}

func TestSurveyJourneyIntegration(t *testing.T) {
	employee, ok := identityFromEnv(t, "GROWPOINT_TEST_EMPLOYEE")
	if !ok {
		t.Skip("GROWPOINT_TEST_EMPLOYEE not set")
	}
	client := &http.Client{Timeout: 10 * time.Second}
	base := baseURL()

	var before struct {
		ResponseCount int `json:"responseCount"`
	}
	token := lookup(t, client, base, employee)
	doJSON(t, client, http.MethodGet, base+"/api/dashboard/employee", token, nil, &before)

	var submitResp struct {
		ID     string `json:"id"`
		Scores struct {
			EngagementScore float64 `json:"engagementScore"`
		} `json:"scores"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/surveys", token, map[string]any{
		"responses": map[string]int{"0": 4, "1": 5, "2": 4, "3": 3, "4": 4, "5": 5, "6": 4},
		"teamGoal":  "Improve",
		"comments":  []string{"integration run " + time.Now().UTC().Format(time.RFC3339)},
	}, &submitResp)
	if submitResp.ID == "" {
		t.Fatalf("submission returned no id")
	}

	var after struct {
		HasData       bool `json:"hasData"`
		ResponseCount int  `json:"responseCount"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/dashboard/employee", token, nil, &after)
	if !after.HasData || after.ResponseCount != before.ResponseCount+1 {
		t.Fatalf("dashboard did not pick up submission: before=%d after=%+v", before.ResponseCount, after)
	}

	hr, ok := identityFromEnv(t, "GROWPOINT_TEST_HR")
	if !ok {
		return
	}
	hrToken := lookup(t, client, base, hr)
	var org struct {
		HasData     bool `json:"hasData"`
		Departments []struct {
			Department string `json:"department"`
		} `json:"departments"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/dashboard/hr", hrToken, nil, &org)
	if !org.HasData || len(org.Departments) == 0 {
		t.Fatalf("organisation dashboard empty after submission: %+v", org)
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/export?scope=workbook", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+hrToken)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("export status %d body %s", resp.StatusCode, string(body))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read export data: %v", err)
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("export is not an xlsx workbook")
	}
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, out any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
