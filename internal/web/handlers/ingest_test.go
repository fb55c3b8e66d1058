package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backup-media-sync/pkg/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHandlers_IngestAttachment(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		setup    func(env *testEnv)
		wantCode int
	}{
		{
			name: "attachment with owner",
			body: `{"attachment":{"media_name":"abc123","content_type":"image/jpeg","unencrypted_byte_count":2048},
				"reference":{"owner_type":"message","owner_id":9,"owner_timestamp":1700000000000}}`,
			setup: func(env *testEnv) {
				gomock.InOrder(
					env.store.EXPECT().UpsertAttachment(gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, a *models.Attachment) error {
							a.ID = 42
							return nil
						}),
					env.store.EXPECT().AddReference(gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, ref *models.AttachmentReference) error {
							require.Equal(t, int64(42), ref.AttachmentID)
							require.Equal(t, models.OwnerMessage, ref.OwnerType)
							return nil
						}),
					env.uploads.EXPECT().EnqueueIfNeeded(gomock.Any(), gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, a *models.Attachment, ref *models.AttachmentReference) error {
							require.Equal(t, int64(42), a.ID)
							require.Equal(t, int64(9), ref.OwnerID)
							return nil
						}),
					env.uploads.EXPECT().Kick(),
				)
			},
			wantCode: http.StatusCreated,
		},
		{
			name: "attachment without owner",
			body: `{"attachment":{"media_name":"abc123"}}`,
			setup: func(env *testEnv) {
				env.store.EXPECT().UpsertAttachment(gomock.Any(), gomock.Any()).Return(nil)
				env.uploads.EXPECT().EnqueueIfNeeded(gomock.Any(), gomock.Any(), nil).Return(nil)
				env.uploads.EXPECT().Kick()
			},
			wantCode: http.StatusCreated,
		},
		{
			name:     "invalid json",
			body:     `{"attachment":`,
			setup:    func(env *testEnv) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing attachment",
			body:     `{}`,
			setup:    func(env *testEnv) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing media name",
			body:     `{"attachment":{"content_type":"image/png"}}`,
			setup:    func(env *testEnv) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown owner type",
			body:     `{"attachment":{"media_name":"abc123"},"reference":{"owner_type":"sticker"}}`,
			setup:    func(env *testEnv) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "store error",
			body: `{"attachment":{"media_name":"abc123"}}`,
			setup: func(env *testEnv) {
				env.store.EXPECT().UpsertAttachment(gomock.Any(), gomock.Any()).Return(errors.New("disk I/O error"))
			},
			wantCode: http.StatusInternalServerError,
		},
		{
			name: "scheduling error",
			body: `{"attachment":{"media_name":"abc123"}}`,
			setup: func(env *testEnv) {
				env.store.EXPECT().UpsertAttachment(gomock.Any(), gomock.Any()).Return(nil)
				env.uploads.EXPECT().EnqueueIfNeeded(gomock.Any(), gomock.Any(), nil).Return(errors.New("no upload era"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(env)

			req := httptest.NewRequest(http.MethodPost, "/api/attachments", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			env.handlers.IngestAttachment(w, req)

			require.Equal(t, tt.wantCode, w.Code)
			require.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestHandlers_IngestAttachmentEchoesIDs(t *testing.T) {
	env := newTestEnv(t)
	env.store.EXPECT().UpsertAttachment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a *models.Attachment) error {
			a.ID = 7
			return nil
		})
	env.store.EXPECT().AddReference(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ref *models.AttachmentReference) error {
			ref.ID = 3
			return nil
		})
	env.uploads.EXPECT().EnqueueIfNeeded(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	env.uploads.EXPECT().Kick()

	body := `{"attachment":{"media_name":"abc123"},"reference":{"owner_type":"thread_wallpaper","owner_id":1}}`
	req := httptest.NewRequest(http.MethodPost, "/api/attachments", strings.NewReader(body))
	w := httptest.NewRecorder()
	env.handlers.IngestAttachment(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var got AttachmentRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, int64(7), got.Attachment.ID)
	require.Equal(t, int64(3), got.Reference.ID)
	require.Equal(t, int64(7), got.Reference.AttachmentID)
}

func TestHandlers_RestoreAttachments(t *testing.T) {
	startedAt := time.Date(2024, 2, 28, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		body     string
		setup    func(env *testEnv)
		wantCode int
	}{
		{
			name: "schedules every attachment",
			body: `{"attachments":[
				{"attachment":{"media_name":"aaa"},"reference":{"owner_type":"message","owner_id":1,"owner_timestamp":1700000000000}},
				{"attachment":{"media_name":"bbb"}}
			],"restore_started_at":"2024-02-28T08:30:00Z"}`,
			setup: func(env *testEnv) {
				env.store.EXPECT().UpsertAttachment(gomock.Any(), gomock.Any()).Return(nil).Times(2)
				env.store.EXPECT().AddReference(gomock.Any(), gomock.Any()).Return(nil)
				env.downloads.EXPECT().EnqueueFromBackupIfNeeded(gomock.Any(), gomock.Any(), gomock.Not(gomock.Nil()), startedAt).Return(nil)
				env.downloads.EXPECT().EnqueueFromBackupIfNeeded(gomock.Any(), gomock.Any(), nil, startedAt).Return(nil)
				env.downloads.EXPECT().Kick()
			},
			wantCode: http.StatusAccepted,
		},
		{
			name: "restore start defaults to now",
			body: `{"attachments":[{"attachment":{"media_name":"aaa"}}]}`,
			setup: func(env *testEnv) {
				env.store.EXPECT().UpsertAttachment(gomock.Any(), gomock.Any()).Return(nil)
				env.downloads.EXPECT().EnqueueFromBackupIfNeeded(gomock.Any(), gomock.Any(), nil, testNow).Return(nil)
				env.downloads.EXPECT().Kick()
			},
			wantCode: http.StatusAccepted,
		},
		{
			name:     "empty batch",
			body:     `{"attachments":[]}`,
			setup:    func(env *testEnv) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid item rejects batch",
			body:     `{"attachments":[{"attachment":{"media_name":"aaa"}},{"attachment":{}}]}`,
			setup:    func(env *testEnv) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "scheduling error",
			body: `{"attachments":[{"attachment":{"media_name":"aaa"}}]}`,
			setup: func(env *testEnv) {
				env.store.EXPECT().UpsertAttachment(gomock.Any(), gomock.Any()).Return(nil)
				env.downloads.EXPECT().EnqueueFromBackupIfNeeded(gomock.Any(), gomock.Any(), nil, testNow).
					Return(errors.New("failed to read backup plan"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(env)

			req := httptest.NewRequest(http.MethodPost, "/api/restore/attachments", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			env.handlers.RestoreAttachments(w, req)

			require.Equal(t, tt.wantCode, w.Code)
		})
	}
}
