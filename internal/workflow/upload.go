package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/user/docdash/internal/permissions"
	"github.com/user/docdash/internal/session"
	"github.com/user/docdash/pkg/docapi"
)

// ErrUploadNotPermitted is returned when the session's role lacks the
// upload capability.
var ErrUploadNotPermitted = errors.New("your role cannot upload documents")

// ErrNoFile is returned when an upload is attempted without a file.
var ErrNoFile = errors.New("no file selected")

// ErrTagsRequired is returned when a plain upload has no primary tag.
// The OCR endpoint accepts untagged files; the plain endpoint does not.
var ErrTagsRequired = errors.New("a primary tag is required")

// UploadRequest describes one upload. OCR routes the file through the
// scan endpoint instead of the plain upload endpoint.
type UploadRequest struct {
	Path          string
	PrimaryTag    string
	SecondaryTags string
	OCR           bool
}

// Uploader runs the document upload workflow. Preconditions are checked
// in a fixed order (capability, file, authentication) so the failure
// message always names the first missing requirement.
type Uploader struct {
	api     *docapi.Client
	session *session.Manager
	hooks   RefreshHooks

	mu   sync.Mutex
	last *Run
}

// NewUploader creates an Uploader. Hooks fire only after a successful
// upload.
func NewUploader(api *docapi.Client, sess *session.Manager, hooks RefreshHooks) *Uploader {
	return &Uploader{api: api, session: sess, hooks: hooks}
}

// Last returns a copy of the most recent run, or a zero idle run when
// nothing has been submitted yet.
func (u *Uploader) Last() Run {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.last == nil {
		return Run{Status: StatusIdle}
	}
	return *u.last
}

// Upload validates the request and submits the file. The returned run is
// the same record Last reports; its Err is also returned for callers that
// only care about the outcome.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (Run, error) {
	run := newRun()
	u.mu.Lock()
	u.last = run
	u.mu.Unlock()

	if !permissions.Can(u.session.Current().Role(), permissions.CanUpload) {
		run.fail(ErrUploadNotPermitted)
		return *run, run.Err
	}
	if req.Path == "" {
		run.fail(ErrNoFile)
		return *run, run.Err
	}
	file, err := os.Open(req.Path)
	if err != nil {
		run.fail(fmt.Errorf("%w: %s", ErrNoFile, req.Path))
		return *run, run.Err
	}
	defer file.Close()
	if u.session.Token() == "" {
		run.fail(session.ErrNotAuthenticated)
		return *run, run.Err
	}
	if !req.OCR && req.PrimaryTag == "" {
		run.fail(ErrTagsRequired)
		return *run, run.Err
	}

	run.Status = StatusSubmitting
	if req.OCR {
		result, err := u.api.OCRScan(ctx, req.Path, file, req.PrimaryTag, req.SecondaryTags)
		if err != nil {
			run.fail(err)
			return *run, run.Err
		}
		classification := result.Classification
		if classification == "" {
			classification = "ok"
		}
		run.succeed(fmt.Sprintf("OCR processed (%s)", classification))
	} else {
		if _, err := u.api.UploadDocument(ctx, req.Path, file, req.PrimaryTag, req.SecondaryTags); err != nil {
			run.fail(err)
			return *run, run.Err
		}
		run.succeed("Uploaded successfully")
	}

	slog.Info("upload complete", "file", req.Path, "ocr", req.OCR)
	u.hooks.run(ctx)
	return *run, nil
}
