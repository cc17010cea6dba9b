package googleDriveApi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	downloadLinkTemplate = "https://drive.google.com/file/d/%s/view"
	// only report files uploaded by this app are considered for cleanup
	reportsQuery = "name contains 'portfolio_' and trashed = false"
)

type GoogleDriveApi struct {
	srv *drive.Service
	cfg *config.Config
	now func() time.Time
}

// New connects to Drive with the configured service account credentials.
// Extra opts are appended after the credentials option.
func New(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) *GoogleDriveApi {
	clientOpts := make([]option.ClientOption, 0, len(opts)+1)
	if cfg.GoogleDrive.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.GoogleDrive.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	srv, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		slog.Error("failed on drive.NewService", slog.String("err", err.Error()))
		panic(err)
	}
	return &GoogleDriveApi{srv: srv, cfg: cfg, now: time.Now}
}

func (a *GoogleDriveApi) UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoogleDriveApi.UploadFile"

	slog.Debug("UploadFile start", slog.String("rqID", rqID), slog.String("op", op), slog.String("filename", filename))

	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	fileMeta := &drive.File{
		Name:     filename,
		MimeType: mimeType,
	}

	uploadedFile, err := a.srv.Files.
		Create(fileMeta).
		Media(reader). // чанки по 16МБ, сетевые ошибки ретраятся автоматически
		Context(ctx).
		Do()
	if err != nil {
		slog.Error("failed on uploading file to google drive", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	perm := &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}

	_, err = a.srv.Permissions.Create(uploadedFile.Id, perm).Context(ctx).Do()
	if err != nil {
		slog.Error("failed on creating permission to uploaded file in google drive", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	slog.Debug("UploadFile completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("fileID", uploadedFile.Id))

	return fmt.Sprintf(downloadLinkTemplate, uploadedFile.Id), nil
}

// DeleteOldFiles removes uploaded reports older than GoogleDrive.FileTTL and empties the trash.
// Failing to delete a single file is logged and skipped.
func (a *GoogleDriveApi) DeleteOldFiles(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoogleDriveApi.DeleteOldFiles"

	slog.Debug("DeleteOldFiles start", slog.String("rqID", rqID), slog.String("op", op))

	deadline := a.now().Add(-1 * a.cfg.GoogleDrive.FileTTL)
	expired := make([]string, 0)
	totalFiles := 0

	err := a.srv.Files.List().
		Q(reportsQuery).
		Fields("nextPageToken, files(id, name, createdTime)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				totalFiles++
				createdTime, err := time.Parse(time.RFC3339, f.CreatedTime)
				if err != nil {
					slog.Error(
						"failed parse time",
						slog.String("rqID", rqID),
						slog.String("op", op),
						slog.String("err", err.Error()),
						slog.String("fileID", f.Id),
						slog.String("createdTime", f.CreatedTime),
					)
					continue
				}
				if createdTime.Before(deadline) {
					expired = append(expired, f.Id)
				}
			}
			return nil
		})
	if err != nil {
		slog.Error("failed on getting files", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	deletedFiles := 0
	for _, id := range expired {
		err = a.srv.Files.Delete(id).Context(ctx).Do()
		if err != nil {
			slog.Error(
				"failed delete file",
				slog.String("rqID", rqID),
				slog.String("op", op),
				slog.String("err", err.Error()),
				slog.String("fileID", id),
			)
			continue
		}
		deletedFiles++
	}

	err = a.srv.Files.EmptyTrash().Context(ctx).Do()
	if err != nil {
		slog.Error("failed empty trash", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	slog.Info("delete old files done", slog.String("rqID", rqID), slog.Int("deletedFiles", deletedFiles), slog.Int("remaining files", totalFiles-deletedFiles))

	return nil
}
