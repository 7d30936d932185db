package docapi

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ListDocuments fetches the full document list.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := c.getJSON(ctx, "/v1/docs", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// SearchDocuments runs a full-text search, optionally scoped to a folder.
func (c *Client) SearchDocuments(ctx context.Context, query, scope string) ([]Document, error) {
	q := url.Values{}
	q.Set("q", query)
	if scope != "" {
		q.Set("scope", scope)
	}
	var docs []Document
	if err := c.getJSON(ctx, "/v1/docs/search", q, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListFolders fetches the folder aggregates.
func (c *Client) ListFolders(ctx context.Context) ([]Folder, error) {
	var folders []Folder
	if err := c.getJSON(ctx, "/v1/folders", nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// FolderDocuments fetches the documents whose primary tag matches the
// folder name.
func (c *Client) FolderDocuments(ctx context.Context, name string) ([]Document, error) {
	var docs []Document
	path := "/v1/folders/" + url.PathEscape(name) + "/docs"
	if err := c.getJSON(ctx, path, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// UploadDocument submits a plain upload. Tag metadata travels as query
// parameters on this endpoint, never as multipart fields.
func (c *Client) UploadDocument(ctx context.Context, filename string, file io.Reader, primaryTag, secondaryTags string) (*UploadResult, error) {
	q := url.Values{}
	q.Set("primaryTag", primaryTag)
	q.Set("secondaryTags", secondaryTags)

	body, contentType, err := multipartFile(filename, file, nil)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/docs", q, body, contentType)
	if err != nil {
		return nil, err
	}
	var result UploadResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OCRScan submits an upload for OCR classification. Tag metadata travels
// as optional multipart fields on this endpoint, never as query parameters.
func (c *Client) OCRScan(ctx context.Context, filename string, file io.Reader, primaryTag, secondaryTags string) (*OCRResult, error) {
	fields := map[string]string{}
	if primaryTag != "" {
		fields["primaryTag"] = primaryTag
	}
	if secondaryTags != "" {
		fields["secondaryTags"] = secondaryTags
	}

	body, contentType, err := multipartFile(filename, file, fields)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/docs/ocr-scan", nil, body, contentType)
	if err != nil {
		return nil, err
	}
	var result OCRResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// multipartFile builds a multipart body with a single "file" part plus any
// extra form fields.
func multipartFile(filename string, file io.Reader, fields map[string]string) (io.Reader, string, error) {
	var buf strings.Builder
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copy file: %w", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return strings.NewReader(buf.String()), w.FormDataContentType(), nil
}

// DownloadDocument fetches a document's binary payload into dir. The
// filename comes from the Content-Disposition header, falling back to
// "download.bin". A partially written file is removed on error.
func (c *Client) DownloadDocument(ctx context.Context, id, dir string) (string, error) {
	return c.download(ctx, "/v1/docs/"+url.PathEscape(id)+"/download", dir, "download.bin")
}

// DownloadFile fetches a server URI (an AI action artifact) into dir
// under the given fallback name. Relative URIs resolve against the
// client's base URL; absolute URIs must point at the same service.
func (c *Client) DownloadFile(ctx context.Context, uri, dir, fallback string) (string, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		if !strings.HasPrefix(uri, c.baseURL+"/") {
			return "", fmt.Errorf("refusing download from a different host: %s", uri)
		}
		uri = strings.TrimPrefix(uri, c.baseURL)
	}
	return c.download(ctx, uri, dir, fallback)
}

func (c *Client) download(ctx context.Context, path, dir, fallback string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{
			Status: resp.StatusCode,
			Detail: normalizeError(body, http.StatusText(resp.StatusCode)),
		}
	}

	name := dispositionFilename(resp.Header.Get("Content-Disposition"), fallback)
	target := filepath.Join(dir, filepath.Base(name))

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("close file: %w", err)
	}
	return target, nil
}

// dispositionFilename extracts the filename from a Content-Disposition
// header, accepting both quoted and bare values.
func dispositionFilename(disposition, fallback string) string {
	if disposition == "" {
		return fallback
	}
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	// Malformed header; take whatever follows "filename=".
	if idx := strings.Index(disposition, "filename="); idx >= 0 {
		name := strings.Trim(disposition[idx+len("filename="):], `"`)
		if name != "" {
			return name
		}
	}
	return fallback
}
