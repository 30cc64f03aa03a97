package diffserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCSV(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestCreateAndPollJob(t *testing.T) {
	aPath := writeCSV(t, "a.csv", "id,name\n1,alice\n2,bob\n")
	bPath := writeCSV(t, "b.csv", "id,name\n1,alice\n2,bobby\n3,carol\n")

	srv := NewServer()
	handler := srv.recoveryMiddleware(srv.loggingMiddleware(srv.mux))
	ts := httptest.NewServer(handler)
	defer ts.Close()

	reqBody, _ := json.Marshal(JobRequest{APath: aPath, BPath: bPath, KeyColumns: []string{"id"}})
	resp, err := http.Post(ts.URL+"/jobs", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		t.Fatalf("POST /jobs: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var created JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.JobID == "" {
		t.Fatalf("expected non-empty job id")
	}

	var final JobStatus
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		getResp, err := http.Get(ts.URL + "/jobs/" + created.JobID)
		if err != nil {
			t.Fatalf("GET /jobs/%s: %v", created.JobID, err)
		}
		err = json.NewDecoder(getResp.Body).Decode(&final)
		getResp.Body.Close()
		if err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if final.Status == "finished" || final.Status == "error" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if final.Status != "finished" {
		t.Fatalf("final status = %q, error=%q", final.Status, final.Error)
	}
	if len(final.Events) == 0 {
		t.Fatalf("expected events in final status")
	}
}

func TestGetUnknownJobReturns404(t *testing.T) {
	srv := NewServer()
	handler := srv.recoveryMiddleware(srv.loggingMiddleware(srv.mux))
	ts := httptest.NewServer(handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/jobs/does-not-exist")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateJobMissingPathsReturns400(t *testing.T) {
	srv := NewServer()
	handler := srv.recoveryMiddleware(srv.loggingMiddleware(srv.mux))
	ts := httptest.NewServer(handler)
	defer ts.Close()

	reqBody, _ := json.Marshal(JobRequest{})
	resp, err := http.Post(ts.URL+"/jobs", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCancelJobMarksCancelFlag(t *testing.T) {
	srv := NewServer()
	entry := &jobEntry{status: &JobStatus{JobID: "job-1", Status: "queued"}, cancelled: newCancelFlag()}
	srv.jobs["job-1"] = entry

	handler := srv.recoveryMiddleware(srv.loggingMiddleware(srv.mux))
	ts := httptest.NewServer(handler)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/jobs/job-1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if !entry.cancelled.Cancelled() {
		t.Fatalf("expected cancel flag tripped")
	}
}
