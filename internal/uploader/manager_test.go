package uploader

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"backup-media-sync/internal/database"
	"backup-media-sync/internal/events"
	"backup-media-sync/internal/listmedia"
	"backup-media-sync/internal/transfer"
	"backup-media-sync/internal/uploader/mocks"
	"backup-media-sync/pkg/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testNow = time.UnixMilli(1_700_000_000_000)

const testEra = "era-2"

var paidAuth = transfer.Auth{Level: transfer.AuthLevelPaid, Credential: "paid-credential"}

type testEnv struct {
	db        *database.DB
	bus       *events.Bus
	uploader  *mocks.MockUploader
	auth      *mocks.MockAuthProvider
	status    *mocks.MockStatusManager
	progress  *mocks.MockProgressTracker
	listMedia *mocks.MockListMediaManager
	isPrimary bool
	logger    *slog.Logger
}

func newTestEnv(t *testing.T, isPrimary bool) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.SetUploadEra(context.Background(), testEra))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewBus(logger)
	t.Cleanup(bus.Close)

	return &testEnv{
		db:        db,
		bus:       bus,
		uploader:  mocks.NewMockUploader(ctrl),
		auth:      mocks.NewMockAuthProvider(ctrl),
		status:    mocks.NewMockStatusManager(ctrl),
		progress:  mocks.NewMockProgressTracker(ctrl),
		listMedia: mocks.NewMockListMediaManager(ctrl),
		isPrimary: isPrimary,
		logger:    logger,
	}
}

func (e *testEnv) newManager() *Manager {
	return New(Options{
		Store:                e.db,
		Uploader:             e.uploader,
		Auth:                 e.auth,
		Status:               e.status,
		Progress:             e.progress,
		ListMedia:            e.listMedia,
		Bus:                  e.bus,
		IsPrimaryDevice:      e.isPrimary,
		FullsizeConcurrency:  1,
		ThumbnailConcurrency: 2,
		MaxRetries:           50,
		Clock:                func() time.Time { return testNow },
		Logger:               e.logger,
	})
}

func (e *testEnv) newRunner(stop func()) *runner {
	if stop == nil {
		stop = func() {}
	}
	return &runner{
		store:    e.db,
		uploader: e.uploader,
		auth:     e.auth,
		status:   e.status,
		progress: e.progress,
		bus:      e.bus,
		clock:    func() time.Time { return testNow },
		logger:   e.logger,
		stop:     stop,
	}
}

// allowRunning lets every status and progress call succeed
func (e *testEnv) allowRunning() {
	e.status.EXPECT().Status(gomock.Any()).Return(models.QueueRunning).AnyTimes()
	e.status.EXPECT().BeginObservingIfNecessary(gomock.Any(), gomock.Any()).Return(models.QueueRunning, nil).AnyTimes()
	e.status.EXPECT().DidEmptyQueue(gomock.Any()).AnyTimes()
	e.progress.EXPECT().WillBeginUploading(gomock.Any(), gomock.Any()).Return(transfer.NopSink).AnyTimes()
	e.progress.EXPECT().DidFinish(gomock.Any()).AnyTimes()
	e.progress.EXPECT().DidEmptyUploadQueue().AnyTimes()
	e.auth.EXPECT().FetchServiceAuth(gomock.Any(), gomock.Any()).Return(paidAuth, nil).AnyTimes()
	e.listMedia.EXPECT().QueryIfNeeded(gomock.Any()).Return(listmedia.Result{}, nil).AnyTimes()
}

func (e *testEnv) setPlan(t *testing.T, plan models.BackupPlan) {
	t.Helper()
	require.NoError(t, e.db.SetBackupPlan(context.Background(), plan))
}

func (e *testEnv) addAttachment(t *testing.T, att *models.Attachment, refs ...*models.AttachmentReference) *models.Attachment {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.db.UpsertAttachment(ctx, att))
	for _, ref := range refs {
		ref.AttachmentID = att.ID
		require.NoError(t, e.db.AddReference(ctx, ref))
	}
	return att
}

func (e *testEnv) uploadRecords(t *testing.T, attachmentID int64) map[bool]*models.UploadRecord {
	t.Helper()
	records, err := e.db.UploadRecordsForAttachment(context.Background(), attachmentID)
	require.NoError(t, err)
	byFullsize := make(map[bool]*models.UploadRecord, len(records))
	for _, record := range records {
		byFullsize[record.IsFullsize] = record
	}
	return byFullsize
}

func msPtr(t time.Time) *int64 {
	v := t.UnixMilli()
	return &v
}

func intPtr(v int) *int { return &v }

func localAttachment() *models.Attachment {
	return &models.Attachment{
		MediaName:            "0123abcdef",
		ContentType:          "image/png",
		CanBeThumbnailed:     true,
		UnencryptedByteCount: 2048,
		LocalFullsize:        &models.LocalFile{Path: "/data/attachments/0123abcdef", ByteCount: 2048},
	}
}

func messageRef(ts time.Time) *models.AttachmentReference {
	return &models.AttachmentReference{OwnerType: models.OwnerMessage, OwnerID: 1, OwnerTimestamp: msPtr(ts)}
}

func TestManager_EnqueueIfNeeded(t *testing.T) {
	paid := models.BackupPlan{Kind: models.PlanPaid}

	tests := []struct {
		name          string
		plan          models.BackupPlan
		attachment    func() *models.Attachment
		ref           *models.AttachmentReference
		wantFullsize  bool
		wantThumbnail bool
	}{
		{
			name:          "paid plan queues both halves",
			plan:          paid,
			attachment:    localAttachment,
			ref:           messageRef(testNow.Add(-time.Hour)),
			wantFullsize:  true,
			wantThumbnail: true,
		},
		{
			name: "no thumbnail for unthumbnailable media",
			plan: paid,
			attachment: func() *models.Attachment {
				att := localAttachment()
				att.CanBeThumbnailed = false
				return att
			},
			ref:          messageRef(testNow.Add(-time.Hour)),
			wantFullsize: true,
		},
		{
			name: "already uploaded this era",
			plan: paid,
			attachment: func() *models.Attachment {
				att := localAttachment()
				att.MediaTier = &models.MediaTierInfo{CDNNumber: intPtr(3), UploadEra: testEra}
				return att
			},
			ref:           messageRef(testNow.Add(-time.Hour)),
			wantThumbnail: true,
		},
		{
			name: "upload from an older era is redone",
			plan: paid,
			attachment: func() *models.Attachment {
				att := localAttachment()
				att.MediaTier = &models.MediaTierInfo{CDNNumber: intPtr(3), UploadEra: "era-1"}
				att.ThumbnailMediaTier = &models.MediaTierInfo{CDNNumber: intPtr(3), UploadEra: "era-1"}
				return att
			},
			ref:           messageRef(testNow.Add(-time.Hour)),
			wantFullsize:  true,
			wantThumbnail: true,
		},
		{
			name:       "free plan never uploads",
			plan:       models.BackupPlan{Kind: models.PlanFree},
			attachment: localAttachment,
			ref:        messageRef(testNow.Add(-time.Hour)),
		},
		{
			name:       "expiring plan never uploads",
			plan:       models.BackupPlan{Kind: models.PlanPaidExpiringSoon},
			attachment: localAttachment,
			ref:        messageRef(testNow.Add(-time.Hour)),
		},
		{
			name: "no local copy",
			plan: paid,
			attachment: func() *models.Attachment {
				att := localAttachment()
				att.LocalFullsize = nil
				return att
			},
			ref: messageRef(testNow.Add(-time.Hour)),
		},
		{
			name:       "stories are not backed up",
			plan:       paid,
			attachment: localAttachment,
			ref:        &models.AttachmentReference{OwnerType: models.OwnerStory, OwnerTimestamp: msPtr(testNow)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t, true)
			env.setPlan(t, tt.plan)
			att := env.addAttachment(t, tt.attachment())

			m := env.newManager()
			require.NoError(t, m.EnqueueIfNeeded(ctx, att, tt.ref))

			records := env.uploadRecords(t, att.ID)
			_, hasFullsize := records[true]
			_, hasThumbnail := records[false]
			require.Equal(t, tt.wantFullsize, hasFullsize)
			require.Equal(t, tt.wantThumbnail, hasThumbnail)

			if hasFullsize {
				require.Equal(t, int64(2048), records[true].EstimatedByteCount)
				require.Equal(t, models.StateReady, records[true].State)
			}
			if hasThumbnail {
				require.Equal(t, models.EstimatedThumbnailBytes, records[false].EstimatedByteCount)
			}
		})
	}
}

func TestManager_EnqueueUsingHighestPriorityOwner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	env.setPlan(t, models.BackupPlan{Kind: models.PlanPaid})

	older := testNow.Add(-48 * time.Hour)
	newer := testNow.Add(-time.Hour)
	att := env.addAttachment(t, localAttachment(),
		&models.AttachmentReference{OwnerType: models.OwnerThreadWallpaper, OwnerID: 9, OwnerTimestamp: msPtr(newer)},
		&models.AttachmentReference{OwnerType: models.OwnerMessage, OwnerID: 1, OwnerTimestamp: msPtr(older)},
		&models.AttachmentReference{OwnerType: models.OwnerMessage, OwnerID: 2, OwnerTimestamp: msPtr(newer)},
		&models.AttachmentReference{OwnerType: models.OwnerStory, OwnerID: 3, OwnerTimestamp: msPtr(testNow)},
	)

	m := env.newManager()
	require.NoError(t, m.EnqueueUsingHighestPriorityOwnerIfNeeded(ctx, att, models.ModeFullsize))

	records := env.uploadRecords(t, att.ID)
	require.Len(t, records, 1)
	fullsize := records[true]
	require.NotNil(t, fullsize)
	require.Equal(t, models.OwnerMessage, fullsize.OwnerType)
	require.Equal(t, newer.UnixMilli(), *fullsize.MaxOwnerTimestamp)
	require.Equal(t, time.Hour.Milliseconds(), fullsize.MinRetryTimestamp)
}

func TestHighestPriorityOwner(t *testing.T) {
	older := msPtr(testNow.Add(-time.Hour))
	newer := msPtr(testNow)

	tests := []struct {
		name string
		refs []*models.AttachmentReference
		want int64
	}{
		{
			name: "none backed up",
			refs: []*models.AttachmentReference{{OwnerID: 1, OwnerType: models.OwnerStory}},
		},
		{
			name: "message beats wallpaper",
			refs: []*models.AttachmentReference{
				{OwnerID: 1, OwnerType: models.OwnerThreadWallpaper, OwnerTimestamp: newer},
				{OwnerID: 2, OwnerType: models.OwnerMessage, OwnerTimestamp: older},
			},
			want: 2,
		},
		{
			name: "newer owner breaks ties",
			refs: []*models.AttachmentReference{
				{OwnerID: 1, OwnerType: models.OwnerMessage, OwnerTimestamp: older},
				{OwnerID: 2, OwnerType: models.OwnerMessage, OwnerTimestamp: newer},
			},
			want: 2,
		},
		{
			name: "undated owner is newest",
			refs: []*models.AttachmentReference{
				{OwnerID: 1, OwnerType: models.OwnerThreadWallpaper},
				{OwnerID: 2, OwnerType: models.OwnerThreadWallpaper, OwnerTimestamp: newer},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best := highestPriorityOwner(tt.refs)
			if tt.want == 0 {
				require.Nil(t, best)
				return
			}
			require.NotNil(t, best)
			require.Equal(t, tt.want, best.OwnerID)
		})
	}
}

func TestManager_EnqueueAllEligibleAttachments(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	env.setPlan(t, models.BackupPlan{Kind: models.PlanPaid})

	first := env.addAttachment(t, localAttachment(), messageRef(testNow.Add(-time.Hour)))
	second := localAttachment()
	second.MediaName = "fedcba9876"
	second.CanBeThumbnailed = false
	second = env.addAttachment(t, second, messageRef(testNow.Add(-2*time.Hour)))
	orphan := localAttachment()
	orphan.MediaName = "00000000aa"
	orphan = env.addAttachment(t, orphan)

	// A stale record for an attachment that is already uploaded goes away
	uploaded := localAttachment()
	uploaded.MediaName = "1111111111"
	uploaded.MediaTier = &models.MediaTierInfo{UploadEra: testEra}
	uploaded.ThumbnailMediaTier = &models.MediaTierInfo{UploadEra: testEra}
	uploaded = env.addAttachment(t, uploaded, messageRef(testNow))
	_, err := env.db.EnqueueUpload(ctx, &models.UploadRecord{AttachmentID: uploaded.ID, IsFullsize: true, OwnerType: models.OwnerMessage}, testNow.UnixMilli())
	require.NoError(t, err)

	m := env.newManager()
	require.NoError(t, m.EnqueueAllEligibleAttachments(ctx))

	require.Len(t, env.uploadRecords(t, first.ID), 2)
	require.Len(t, env.uploadRecords(t, second.ID), 1)
	require.Empty(t, env.uploadRecords(t, orphan.ID))
	require.Empty(t, env.uploadRecords(t, uploaded.ID))
}

func TestManager_EnqueueAllEligibleAttachmentsRequiresPaidPlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	env.setPlan(t, models.BackupPlan{Kind: models.PlanFree})

	att := env.addAttachment(t, localAttachment(), messageRef(testNow))
	_, err := env.db.EnqueueUpload(ctx, &models.UploadRecord{AttachmentID: att.ID, IsFullsize: true, OwnerType: models.OwnerMessage}, testNow.UnixMilli())
	require.NoError(t, err)

	m := env.newManager()
	require.NoError(t, m.EnqueueAllEligibleAttachments(ctx))
	require.Len(t, env.uploadRecords(t, att.ID), 1)
}

func TestManager_BackUpAllAttachments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newTestEnv(t, true)
	env.allowRunning()
	env.setPlan(t, models.BackupPlan{Kind: models.PlanPaid})
	att := env.addAttachment(t, localAttachment(), messageRef(testNow.Add(-time.Hour)))

	m := env.newManager()
	require.NoError(t, m.EnqueueIfNeeded(ctx, att, messageRef(testNow.Add(-time.Hour))))

	drained := env.bus.Subscribe(ctx, events.KindQueueDrained)

	env.uploader.EXPECT().
		Upload(gomock.Any(), gomock.Any(), false, testEra, paidAuth, gomock.Any()).
		Return(&models.MediaTierInfo{CDNNumber: intPtr(3)}, nil)
	env.uploader.EXPECT().
		Upload(gomock.Any(), gomock.Any(), true, testEra, paidAuth, gomock.Any()).
		Return(&models.MediaTierInfo{CDNNumber: intPtr(3), UnencryptedByteCount: 2048}, nil)

	require.NoError(t, m.BackUpAllAttachments(ctx))

	stored, err := env.db.GetAttachment(ctx, att.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.MediaTier)
	require.Equal(t, testEra, stored.MediaTier.UploadEra)
	require.NotNil(t, stored.ThumbnailMediaTier)
	require.Equal(t, testEra, stored.ThumbnailMediaTier.UploadEra)

	// Done markers are swept once the queue drains
	require.Empty(t, env.uploadRecords(t, att.ID))

	select {
	case e := <-drained:
		require.Equal(t, events.QueueDrained{Queue: models.QueueUpload}, e)
	case <-time.After(time.Second):
		t.Fatal("expected a drained event")
	}
}

func TestManager_BackUpAllAttachmentsSkips(t *testing.T) {
	tests := []struct {
		name      string
		isPrimary bool
		plan      models.BackupPlan
		setup     func(env *testEnv)
		wantErr   bool
	}{
		{
			name:      "linked device",
			isPrimary: false,
			plan:      models.BackupPlan{Kind: models.PlanPaid},
			setup:     func(env *testEnv) {},
		},
		{
			name:      "free plan",
			isPrimary: true,
			plan:      models.BackupPlan{Kind: models.PlanFree},
			setup:     func(env *testEnv) {},
		},
		{
			name:      "free credential",
			isPrimary: true,
			plan:      models.BackupPlan{Kind: models.PlanPaid},
			setup: func(env *testEnv) {
				env.auth.EXPECT().FetchServiceAuth(gomock.Any(), true).
					Return(transfer.Auth{Level: transfer.AuthLevelFree}, nil)
			},
		},
		{
			name:      "credential failure",
			isPrimary: true,
			plan:      models.BackupPlan{Kind: models.PlanPaid},
			setup: func(env *testEnv) {
				env.auth.EXPECT().FetchServiceAuth(gomock.Any(), true).
					Return(transfer.Auth{}, transfer.HTTPError(500, 0))
			},
			wantErr: true,
		},
		{
			name:      "gated queue",
			isPrimary: true,
			plan:      models.BackupPlan{Kind: models.PlanPaidAsTester},
			setup: func(env *testEnv) {
				env.auth.EXPECT().FetchServiceAuth(gomock.Any(), true).Return(paidAuth, nil)
				env.listMedia.EXPECT().QueryIfNeeded(gomock.Any()).Return(listmedia.Result{}, nil)
				env.status.EXPECT().BeginObservingIfNecessary(gomock.Any(), models.ModeFullsize).
					Return(models.QueueNoWifiReachability, nil)
			},
		},
		{
			name:      "empty queue",
			isPrimary: true,
			plan:      models.BackupPlan{Kind: models.PlanPaid},
			setup: func(env *testEnv) {
				env.auth.EXPECT().FetchServiceAuth(gomock.Any(), true).Return(paidAuth, nil)
				env.listMedia.EXPECT().QueryIfNeeded(gomock.Any()).Return(listmedia.Result{}, nil)
				env.status.EXPECT().BeginObservingIfNecessary(gomock.Any(), models.ModeFullsize).
					Return(models.QueueEmpty, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.isPrimary)
			env.setPlan(t, tt.plan)
			tt.setup(env)

			err := env.newManager().BackUpAllAttachments(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestManager_CancelPendingUploads(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	env.setPlan(t, models.BackupPlan{Kind: models.PlanPaid})
	att := env.addAttachment(t, localAttachment())

	m := env.newManager()
	require.NoError(t, m.EnqueueIfNeeded(ctx, att, messageRef(testNow)))
	require.Len(t, env.uploadRecords(t, att.ID), 2)

	env.status.EXPECT().DidEmptyQueue(models.ModeFullsize)
	env.status.EXPECT().DidEmptyQueue(models.ModeThumbnail)

	require.NoError(t, m.CancelPendingUploads(ctx))
	require.Empty(t, env.uploadRecords(t, att.ID))
}

func TestManager_SetSuspended(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)

	gomock.InOrder(
		env.status.EXPECT().SetSuspended(true),
		env.status.EXPECT().SetSuspended(false),
	)

	m := env.newManager()
	require.NoError(t, m.SetSuspended(ctx, true))
	suspended, err := env.db.IsQueueSuspended(ctx, models.QueueUpload)
	require.NoError(t, err)
	require.True(t, suspended)

	require.NoError(t, m.SetSuspended(ctx, false))
	suspended, err = env.db.IsQueueSuspended(ctx, models.QueueUpload)
	require.NoError(t, err)
	require.False(t, suspended)
}

func TestManager_StartRunsOnStatusChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newTestEnv(t, true)
	env.setPlan(t, models.BackupPlan{Kind: models.PlanPaid})

	ran := make(chan struct{}, 1)
	env.auth.EXPECT().FetchServiceAuth(gomock.Any(), true).DoAndReturn(
		func(context.Context, bool) (transfer.Auth, error) {
			select {
			case ran <- struct{}{}:
			default:
			}
			return transfer.Auth{Level: transfer.AuthLevelFree}, nil
		}).MinTimes(1)

	m := env.newManager()
	m.Start(ctx)

	// Download status changes are not ours
	env.bus.Publish(events.StatusChanged{Queue: models.QueueDownload, Mode: models.ModeFullsize, Status: models.QueueRunning})
	env.bus.Publish(events.StatusChanged{Queue: models.QueueUpload, Mode: models.ModeFullsize, Status: models.QueueRunning})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("expected the queue to run after the status turned running")
	}
}

func TestManager_ScheduledRetryKicks(t *testing.T) {
	env := newTestEnv(t, true)
	manager := env.newManager()

	manager.scheduleRetry(testNow.Add(-time.Minute))

	select {
	case <-manager.kick:
	case <-time.After(time.Second):
		t.Fatal("expected an overdue retry to kick immediately")
	}

	manager.scheduleRetry(testNow.Add(time.Hour))
	manager.Stop()
	manager.retryMu.Lock()
	require.Nil(t, manager.retryTimer)
	manager.retryMu.Unlock()
}
