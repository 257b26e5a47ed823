package uploadcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"time"
)

// client is one browser-like session: it keeps the session cookie issued
// on its first upload.
type client struct {
	http *http.Client
	base string
}

func newClient(baseURL string, timeout time.Duration) (*client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &client{
		http: &http.Client{Timeout: timeout, Jar: jar},
		base: baseURL,
	}, nil
}

// multipartBody renders u as a single file part of filler bytes.
func multipartBody(u Upload) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, u.Name))
	h.Set("Content-Type", u.MIMEType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.CopyN(part, zeroReader{}, u.Size); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &body, mw.FormDataContentType(), nil
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

// upload posts u and decodes either the job body or the error body.
func (c *client) upload(ctx context.Context, u Upload) (int, jobStatus, apiError, error) {
	var (
		job    jobStatus
		apiErr apiError
	)
	body, contentType, err := multipartBody(u)
	if err != nil {
		return 0, job, apiErr, fmt.Errorf("build upload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/uploads", body)
	if err != nil {
		return 0, job, apiErr, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, job, apiErr, fmt.Errorf("post upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusAccepted {
		err = json.NewDecoder(resp.Body).Decode(&job)
	} else {
		err = json.NewDecoder(resp.Body).Decode(&apiErr)
	}
	if err != nil {
		return resp.StatusCode, job, apiErr, fmt.Errorf("decode upload response: %w", err)
	}
	return resp.StatusCode, job, apiErr, nil
}

func (c *client) getJSON(ctx context.Context, path string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

// waitForJob polls the job until it is complete or failed.
func (c *client) waitForJob(ctx context.Context, id string, interval, limit time.Duration) (jobStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	path := "/api/jobs/" + url.PathEscape(id)
	for {
		var job jobStatus
		status, err := c.getJSON(ctx, path, &job)
		if err != nil {
			return job, err
		}
		if status != http.StatusOK {
			return job, fmt.Errorf("job %s: status %d", id, status)
		}
		if job.State == "complete" || job.State == "failed" {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, fmt.Errorf("job %s stuck at %d%%: %w", id, job.Progress, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *client) report(ctx context.Context, id string) (scoreReport, error) {
	var rep scoreReport
	status, err := c.getJSON(ctx, "/api/jobs/"+url.PathEscape(id)+"/report", &rep)
	if err != nil {
		return rep, err
	}
	if status != http.StatusOK {
		return rep, fmt.Errorf("report %s: status %d", id, status)
	}
	return rep, nil
}
