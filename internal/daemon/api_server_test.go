package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"subfix/internal/api"
	"subfix/internal/daemon"
	"subfix/internal/jobs"
	"subfix/internal/testsupport"
)

func startDaemon(t *testing.T, d *daemon.Daemon) string {
	t.Helper()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)
	return "http://" + d.Addr()
}

func uploadFile(t *testing.T, base, fileName, userContext string) *api.JobView {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("fake audio payload")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if userContext != "" {
		if err := writer.WriteField("context", userContext); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp, err := http.Post(base+"/api/jobs", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/jobs: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body %s", resp.StatusCode, payload)
	}
	var view api.JobView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &view
}

func awaitStatus(t *testing.T, base, jobID string, want jobs.Status) *api.JobView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/api/jobs/" + jobID)
		if err != nil {
			t.Fatalf("GET job: %v", err)
		}
		var view api.JobView
		err = json.NewDecoder(resp.Body).Decode(&view)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode job: %v", err)
		}
		if view.Status == string(want) || view.Status == string(jobs.StatusFailed) {
			if view.Status != string(want) {
				t.Fatalf("job reached %s (%s), want %s", view.Status, view.ErrorMessage, want)
			}
			return &view
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %s, want %s", view.Status, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestUploadProcessCorrectExport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	segments := []jobs.Segment{
		{ID: 1, Start: "00:00:00,000", End: "00:00:02,000", Text: "the wether is nice", OriginalText: "the wether is nice"},
	}
	anomalies := []jobs.Anomaly{
		{ID: "a1", SegmentID: 1, Category: jobs.CategorySimilarSounding, FlaggedText: "wether", Suggestion: "weather", Confidence: 0.85},
	}
	d, _ := newTestDaemon(t, cfg, segments, anomalies)
	base := startDaemon(t, d)

	created := uploadFile(t, base, "forecast.wav", "morning weather report")
	if created.Status != string(jobs.StatusPending) {
		t.Errorf("created status = %s", created.Status)
	}

	completed := awaitStatus(t, base, created.ID, jobs.StatusCompleted)
	if completed.UnresolvedCount != 1 {
		t.Fatalf("UnresolvedCount = %d, want 1", completed.UnresolvedCount)
	}

	// Accept the suggestion.
	reqBody := `{"anomalyId":"a1","correction":"weather"}`
	resp, err := http.Post(base+"/api/jobs/"+created.ID+"/corrections", "application/json", strings.NewReader(reqBody))
	if err != nil {
		t.Fatalf("POST corrections: %v", err)
	}
	var correction struct {
		Affected int          `json:"affected"`
		Job      *api.JobView `json:"job"`
	}
	err = json.NewDecoder(resp.Body).Decode(&correction)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode correction: %v", err)
	}
	if correction.Affected != 1 || correction.Job.UnresolvedCount != 0 {
		t.Fatalf("correction = %+v", correction)
	}

	// Export reflects the corrected text.
	resp, err = http.Get(base + "/api/jobs/" + created.ID + "/export")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, body %s", resp.StatusCode, payload)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "forecast.srt") {
		t.Errorf("Content-Disposition = %q", got)
	}
	want := "1\n00:00:00,000 --> 00:00:02,000\nthe weather is nice\n"
	if string(payload) != want {
		t.Errorf("export = %q, want %q", payload, want)
	}
}

func TestSegmentUpdateEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	segments := []jobs.Segment{{ID: 1, Start: "00:00:00,000", End: "00:00:01,000", Text: "orignal text"}}
	d, _ := newTestDaemon(t, cfg, segments, nil)
	base := startDaemon(t, d)

	created := uploadFile(t, base, "talk.wav", "")
	awaitStatus(t, base, created.ID, jobs.StatusCompleted)

	req, err := http.NewRequest(http.MethodPut, base+"/api/jobs/"+created.ID+"/segments/1", strings.NewReader(`{"text":"original text"}`))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT segment: %v", err)
	}
	var view api.JobView
	err = json.NewDecoder(resp.Body).Decode(&view)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Segments[0].Text != "original text" {
		t.Errorf("segment text = %q", view.Segments[0].Text)
	}

	// Unknown segment id maps to 404.
	req, _ = http.NewRequest(http.MethodPut, base+"/api/jobs/"+created.ID+"/segments/42", strings.NewReader(`{"text":"x"}`))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT segment: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRejectsInvalidUpload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newTestDaemon(t, cfg, nil, nil)
	base := startDaemon(t, d)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", "notes.txt")
	fmt.Fprint(part, "not media")
	writer.Close()

	resp, err := http.Post(base+"/api/jobs", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUnknownJobReturns404(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newTestDaemon(t, cfg, nil, nil)
	base := startDaemon(t, d)

	resp, err := http.Get(base + "/api/jobs/no-such-job")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestBearerTokenRequired(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = "sekrit"
	d, _ := newTestDaemon(t, cfg, nil, nil)
	base := startDaemon(t, d)

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, base+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with token: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", resp.StatusCode)
	}
	var status daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running {
		t.Error("status.Running = false")
	}
}
