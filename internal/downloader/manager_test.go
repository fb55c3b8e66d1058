package downloader

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"backup-media-sync/internal/database"
	"backup-media-sync/internal/downloader/mocks"
	"backup-media-sync/internal/events"
	"backup-media-sync/internal/listmedia"
	"backup-media-sync/internal/progress"
	"backup-media-sync/internal/status"
	"backup-media-sync/internal/transfer"
	"backup-media-sync/pkg/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testNow = time.UnixMilli(1_700_000_000_000)

var testRemoteConfig = models.RemoteConfig{
	OffloadingThreshold: 30 * 24 * time.Hour,
	TransitTierMaxAge:   45 * 24 * time.Hour,
	RecencyWindow:       7 * 24 * time.Hour,
}

type testEnv struct {
	db         *database.DB
	bus        *events.Bus
	downloader *mocks.MockDownloader
	status     *mocks.MockStatusManager
	progress   *mocks.MockProgressTracker
	listMedia  *mocks.MockListMediaManager
	uploads    *mocks.MockUploadScheduler
	isPrimary  bool
	logger     *slog.Logger
}

func newTestEnv(t *testing.T, isPrimary bool) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewBus(logger)
	t.Cleanup(bus.Close)

	return &testEnv{
		db:         db,
		bus:        bus,
		downloader: mocks.NewMockDownloader(ctrl),
		status:     mocks.NewMockStatusManager(ctrl),
		progress:   mocks.NewMockProgressTracker(ctrl),
		listMedia:  mocks.NewMockListMediaManager(ctrl),
		uploads:    mocks.NewMockUploadScheduler(ctrl),
		isPrimary:  isPrimary,
		logger:     logger,
	}
}

func (e *testEnv) newManager() *Manager {
	return New(Options{
		Store:                e.db,
		Downloader:           e.downloader,
		Status:               e.status,
		Progress:             e.progress,
		ListMedia:            e.listMedia,
		Uploads:              e.uploads,
		Bus:                  e.bus,
		IsPrimaryDevice:      e.isPrimary,
		RemoteConfig:         testRemoteConfig,
		FullsizeConcurrency:  2,
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
		store:        e.db,
		downloader:   e.downloader,
		status:       e.status,
		progress:     e.progress,
		listMedia:    e.listMedia,
		uploads:      e.uploads,
		bus:          e.bus,
		isPrimary:    e.isPrimary,
		remoteConfig: testRemoteConfig,
		clock:        func() time.Time { return testNow },
		logger:       e.logger,
		stop:         stop,
	}
}

// allowRunning lets every status call report a running queue
func (e *testEnv) allowRunning() {
	e.status.EXPECT().QuickCheckDiskSpace().AnyTimes()
	e.status.EXPECT().StatusAndToken(gomock.Any()).Return(models.QueueRunning, status.Token{}).AnyTimes()
	e.status.EXPECT().BeginObservingIfNecessary(gomock.Any(), gomock.Any()).Return(models.QueueRunning, nil).AnyTimes()
	e.status.EXPECT().JobDidSucceed(gomock.Any()).AnyTimes()
	e.status.EXPECT().JobDidExperienceError(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.QueueRunning).AnyTimes()
	e.status.EXPECT().DidEmptyQueue(gomock.Any()).AnyTimes()
	e.status.EXPECT().SetSuspended(gomock.Any()).AnyTimes()
	e.listMedia.EXPECT().NeedsQuery(gomock.Any()).Return(false, nil).AnyTimes()
	e.listMedia.EXPECT().QueryIfNeeded(gomock.Any()).Return(listmedia.Result{}, nil).AnyTimes()
}

func (e *testEnv) setPlan(t *testing.T, plan models.BackupPlan) {
	t.Helper()
	require.NoError(t, e.db.SetBackupPlan(context.Background(), plan))
}

func (e *testEnv) addAttachment(t *testing.T, att *models.Attachment) *models.Attachment {
	t.Helper()
	require.NoError(t, e.db.UpsertAttachment(context.Background(), att))
	return att
}

func msPtr(t time.Time) *int64 {
	v := t.UnixMilli()
	return &v
}

func intPtr(v int) *int { return &v }

func mediaTierAttachment() *models.Attachment {
	return &models.Attachment{
		MediaName:            "abcdef0123",
		ContentType:          "image/jpeg",
		CanBeThumbnailed:     true,
		UnencryptedByteCount: 4096,
		MediaTier:            &models.MediaTierInfo{CDNNumber: intPtr(3), UploadEra: "era-1", UnencryptedByteCount: 4096},
		ThumbnailMediaTier:   &models.MediaTierInfo{CDNNumber: intPtr(3), UploadEra: "era-1"},
	}
}

func TestManager_EnqueueFromBackupIfNeeded(t *testing.T) {
	paid := models.BackupPlan{Kind: models.PlanPaid}
	recent := &models.AttachmentReference{OwnerType: models.OwnerMessage, OwnerTimestamp: msPtr(testNow.Add(-time.Hour))}

	tests := []struct {
		name          string
		plan          models.BackupPlan
		attachment    func() *models.Attachment
		ref           *models.AttachmentReference
		wantThumbnail *models.QueueRecordState
		wantFullsize  *models.QueueRecordState
		wantProgress  bool
	}{
		{
			name:          "paid plan queues both halves",
			plan:          paid,
			attachment:    mediaTierAttachment,
			ref:           recent,
			wantThumbnail: models.StatePtr(models.StateReady),
			wantFullsize:  models.StatePtr(models.StateReady),
			wantProgress:  true,
		},
		{
			name: "thumbnail only",
			plan: paid,
			attachment: func() *models.Attachment {
				att := mediaTierAttachment()
				att.MediaTier = nil
				return att
			},
			ref:           recent,
			wantThumbnail: models.StatePtr(models.StateReady),
		},
		{
			name:          "disabled plan parks media tier downloads",
			plan:          models.BackupPlan{Kind: models.PlanDisabled},
			attachment:    mediaTierAttachment,
			ref:           recent,
			wantThumbnail: models.StatePtr(models.StateIneligible),
			wantFullsize:  models.StatePtr(models.StateIneligible),
		},
		{
			name:       "optimize storage parks old fullsize",
			plan:       models.BackupPlan{Kind: models.PlanPaid, OptimizeLocalStorage: true},
			attachment: mediaTierAttachment,
			ref: &models.AttachmentReference{
				OwnerType:      models.OwnerMessage,
				OwnerTimestamp: msPtr(testNow.Add(-90 * 24 * time.Hour)),
			},
			wantThumbnail: models.StatePtr(models.StateReady),
			wantFullsize:  models.StatePtr(models.StateIneligible),
		},
		{
			name: "already local",
			plan: paid,
			attachment: func() *models.Attachment {
				att := mediaTierAttachment()
				att.LocalFullsize = &models.LocalFile{Path: "/tmp/a", ByteCount: 4096}
				return att
			},
			ref: recent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t, true)
			env.setPlan(t, tt.plan)
			if tt.wantProgress {
				env.progress.EXPECT().DidEnqueue(gomock.Any(), int64(4096)).Return(nil)
			}
			manager := env.newManager()

			att := env.addAttachment(t, tt.attachment())
			require.NoError(t, manager.EnqueueFromBackupIfNeeded(ctx, att, tt.ref, testNow))

			records, err := env.db.DownloadRecordsForAttachment(ctx, att.ID)
			require.NoError(t, err)

			var thumbnail, fullsize *models.QueueRecordState
			for _, record := range records {
				state := record.State
				if record.IsThumbnail {
					thumbnail = &state
				} else {
					fullsize = &state
				}
			}
			require.Equal(t, tt.wantThumbnail, thumbnail)
			require.Equal(t, tt.wantFullsize, fullsize)
		})
	}
}

func TestManager_EnqueueMergesOwners(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	env.setPlan(t, models.BackupPlan{Kind: models.PlanPaid})
	env.progress.EXPECT().DidEnqueue(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	manager := env.newManager()

	att := mediaTierAttachment()
	att.CanBeThumbnailed = false
	att.ThumbnailMediaTier = nil
	env.addAttachment(t, att)

	older := &models.AttachmentReference{OwnerTimestamp: msPtr(testNow.Add(-48 * time.Hour))}
	newer := &models.AttachmentReference{OwnerTimestamp: msPtr(testNow.Add(-time.Hour))}

	require.NoError(t, manager.EnqueueFromBackupIfNeeded(ctx, att, older, testNow))
	require.NoError(t, manager.EnqueueFromBackupIfNeeded(ctx, att, newer, testNow))
	require.NoError(t, manager.EnqueueFromBackupIfNeeded(ctx, att, older, testNow))

	records, err := env.db.DownloadRecordsForAttachment(ctx, att.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, *newer.OwnerTimestamp, *records[0].MaxOwnerTimestamp)
	require.Equal(t, time.Hour.Milliseconds(), records[0].MinRetryTimestamp)
}

func TestManager_EnqueueJudgesMergedOwner(t *testing.T) {
	recent := &models.AttachmentReference{OwnerTimestamp: msPtr(testNow.Add(-24 * time.Hour))}
	old := &models.AttachmentReference{OwnerTimestamp: msPtr(testNow.Add(-40 * 24 * time.Hour))}

	tests := []struct {
		name  string
		order []*models.AttachmentReference
	}{
		{name: "recent then old", order: []*models.AttachmentReference{recent, old}},
		{name: "old then recent", order: []*models.AttachmentReference{old, recent}},
		{name: "recent between olds", order: []*models.AttachmentReference{old, recent, old}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t, true)
			env.setPlan(t, models.BackupPlan{Kind: models.PlanPaid, OptimizeLocalStorage: true})
			env.progress.EXPECT().DidEnqueue(gomock.Any(), int64(4096)).Return(nil).Times(1)
			manager := env.newManager()

			att := mediaTierAttachment()
			att.CanBeThumbnailed = false
			att.ThumbnailMediaTier = nil
			env.addAttachment(t, att)

			for _, ref := range tt.order {
				require.NoError(t, manager.EnqueueFromBackupIfNeeded(ctx, att, ref, testNow))
			}

			records, err := env.db.DownloadRecordsForAttachment(ctx, att.ID)
			require.NoError(t, err)
			require.Len(t, records, 1)
			require.Equal(t, *recent.OwnerTimestamp, *records[0].MaxOwnerTimestamp)
			require.Equal(t, models.StateReady, records[0].State)
		})
	}
}

func TestManager_RestoreThumbnailOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	env.setPlan(t, models.BackupPlan{Kind: models.PlanPaid})
	env.allowRunning()

	att := mediaTierAttachment()
	att.MediaTier = nil
	env.addAttachment(t, att)

	manager := env.newManager()
	require.NoError(t, manager.EnqueueFromBackupIfNeeded(ctx, att, nil, testNow))

	drained := env.bus.Subscribe(ctx, events.KindQueueDrained)

	env.progress.EXPECT().BeginObserving(gomock.Any()).Return(progress.Snapshot{}, nil)
	env.progress.EXPECT().DidEmpty(gomock.Any()).Return(nil)
	env.downloader.EXPECT().
		Download(gomock.Any(), gomock.Any(), models.SourceMediaTierThumbnail, gomock.Any()).
		Return(&models.LocalFile{Path: "/media/ab/abcdef0123.thumb", ByteCount: 512}, nil)

	require.NoError(t, manager.RestoreAttachmentsIfNeeded(ctx))

	got, err := env.db.GetAttachment(ctx, att.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LocalThumbnail)
	require.Equal(t, "/media/ab/abcdef0123.thumb", got.LocalThumbnail.Path)
	require.Nil(t, got.LocalFullsize)

	records, err := env.db.DownloadRecordsForAttachment(ctx, att.ID)
	require.NoError(t, err)
	require.Empty(t, records)

	select {
	case e := <-drained:
		require.Equal(t, events.QueueDrained{Queue: models.QueueDownload}, e)
	case <-time.After(time.Second):
		t.Fatal("expected a drained event")
	}
}

func TestManager_RestoreFullsizeReportsProgress(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	env.setPlan(t, models.BackupPlan{Kind: models.PlanPaid})
	env.allowRunning()

	att := mediaTierAttachment()
	att.CanBeThumbnailed = false
	att.ThumbnailMediaTier = nil
	env.addAttachment(t, att)

	env.progress.EXPECT().DidEnqueue(gomock.Any(), int64(4096)).Return(nil)
	manager := env.newManager()
	require.NoError(t, manager.EnqueueFromBackupIfNeeded(ctx, att, nil, testNow))

	records, err := env.db.DownloadRecordsForAttachment(ctx, att.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	recordID := records[0].ID

	env.progress.EXPECT().BeginObserving(gomock.Any()).Return(progress.Snapshot{}, nil)
	env.progress.EXPECT().WillBeginDownloading(recordID, int64(4096)).Return(transfer.NopSink)
	env.progress.EXPECT().DidFinish(recordID)
	env.progress.EXPECT().DidEmpty(gomock.Any()).Return(nil)
	env.downloader.EXPECT().
		Download(gomock.Any(), gomock.Any(), models.SourceMediaTierFullsize, gomock.Any()).
		Return(&models.LocalFile{Path: "/media/ab/abcdef0123", ByteCount: 4096}, nil)

	require.NoError(t, manager.RestoreAttachmentsIfNeeded(ctx))

	got, err := env.db.GetAttachment(ctx, att.ID)
	require.NoError(t, err)
	require.Equal(t, &models.LocalFile{Path: "/media/ab/abcdef0123", ByteCount: 4096}, got.LocalFullsize)
}

func TestManager_RestoreReturnsWhileRetryParked(t *testing.T) {
	env := newTestEnv(t, true)
	env.setPlan(t, models.BackupPlan{Kind: models.PlanPaid})
	env.allowRunning()

	att := env.addAttachment(t, mediaTierAttachment())
	record, err := env.db.EnqueueDownload(context.Background(), &models.DownloadRecord{
		AttachmentID:             att.ID,
		CanDownloadFromMediaTier: true,
		State:                    models.StateReady,
		EstimatedByteCount:       4096,
	}, testNow.UnixMilli())
	require.NoError(t, err)
	tomorrow := testNow.Add(24 * time.Hour)
	require.NoError(t, env.db.UpdateDownloadRetry(context.Background(), record.ID, tomorrow.UnixMilli(), 1))

	env.progress.EXPECT().BeginObserving(gomock.Any()).Return(progress.Snapshot{}, nil)

	manager := env.newManager()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, manager.RestoreAttachmentsIfNeeded(ctx))
	require.NoError(t, ctx.Err())
	require.False(t, manager.IsRunning())

	manager.retryMu.Lock()
	require.NotNil(t, manager.retryTimer)
	manager.retryMu.Unlock()

	records, err := env.db.DownloadRecordsForAttachment(context.Background(), att.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, tomorrow.UnixMilli(), records[0].MinRetryTimestamp)

	manager.Stop()
	manager.retryMu.Lock()
	require.Nil(t, manager.retryTimer)
	manager.retryMu.Unlock()
}

func TestManager_ScheduledRetryKicks(t *testing.T) {
	env := newTestEnv(t, true)
	manager := env.newManager()

	manager.scheduleRetry(testNow.Add(24 * time.Hour))
	manager.scheduleRetry(testNow.Add(10 * time.Millisecond))

	select {
	case <-manager.kick:
	case <-time.After(time.Second):
		t.Fatal("expected a kick once the retry came due")
	}
	manager.Stop()
}

func TestManager_RestoreSkipsWhenGated(t *testing.T) {
	tests := []struct {
		name   string
		status models.QueueStatus
	}{
		{name: "empty", status: models.QueueEmpty},
		{name: "suspended", status: models.QueueSuspended},
		{name: "low battery", status: models.QueueLowBattery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, true)
			env.listMedia.EXPECT().QueryIfNeeded(gomock.Any()).Return(listmedia.Result{}, nil)
			env.status.EXPECT().BeginObservingIfNecessary(gomock.Any(), models.ModeFullsize).Return(tt.status, nil)
			env.status.EXPECT().StatusAndToken(models.ModeThumbnail).Return(tt.status, status.Token{})

			manager := env.newManager()
			require.NoError(t, manager.RestoreAttachmentsIfNeeded(context.Background()))
			require.False(t, manager.IsRunning())
		})
	}
}

func TestManager_BackupPlanDidChange(t *testing.T) {
	oldOwner := msPtr(testNow.Add(-90 * 24 * time.Hour))
	newOwner := msPtr(testNow.Add(-time.Hour))

	type seeded struct {
		old, recent, done, parked int64
	}

	tests := []struct {
		name          string
		isPrimary     bool
		oldPlan       models.BackupPlan
		newPlan       models.BackupPlan
		wantErr       error
		wantOld       models.QueueRecordState
		wantRecent    models.QueueRecordState
		wantParked    models.QueueRecordState
		wantDoneGone  bool
		wantSuspended bool
	}{
		{
			name:         "enabling optimize parks old media tier downloads",
			isPrimary:    true,
			oldPlan:      models.BackupPlan{Kind: models.PlanPaid},
			newPlan:      models.BackupPlan{Kind: models.PlanPaid, OptimizeLocalStorage: true},
			wantOld:      models.StateIneligible,
			wantRecent:   models.StateReady,
			wantParked:   models.StateIneligible,
			wantDoneGone: true,
		},
		{
			name:          "disabling optimize readies parked downloads and suspends",
			isPrimary:     true,
			oldPlan:       models.BackupPlan{Kind: models.PlanPaid, OptimizeLocalStorage: true},
			newPlan:       models.BackupPlan{Kind: models.PlanPaid},
			wantOld:       models.StateReady,
			wantRecent:    models.StateReady,
			wantParked:    models.StateReady,
			wantSuspended: true,
		},
		{
			name:          "disabled parks everything",
			isPrimary:     true,
			oldPlan:       models.BackupPlan{Kind: models.PlanDisabling},
			newPlan:       models.BackupPlan{Kind: models.PlanDisabled},
			wantOld:       models.StateIneligible,
			wantRecent:    models.StateIneligible,
			wantParked:    models.StateIneligible,
			wantDoneGone:  true,
			wantSuspended: true,
		},
		{
			name:         "free to disabling cancels leftover downloads",
			isPrimary:    true,
			oldPlan:      models.BackupPlan{Kind: models.PlanFree},
			newPlan:      models.BackupPlan{Kind: models.PlanDisabling},
			wantOld:      models.StateIneligible,
			wantRecent:   models.StateIneligible,
			wantParked:   models.StateIneligible,
			wantDoneGone: true,
		},
		{
			name:         "paid to disabling pulls everything down",
			isPrimary:    true,
			oldPlan:      models.BackupPlan{Kind: models.PlanPaid, OptimizeLocalStorage: true},
			newPlan:      models.BackupPlan{Kind: models.PlanDisabling},
			wantOld:      models.StateReady,
			wantRecent:   models.StateReady,
			wantParked:   models.StateReady,
			wantDoneGone: true,
		},
		{
			name:       "disabling can only become disabled",
			isPrimary:  true,
			oldPlan:    models.BackupPlan{Kind: models.PlanDisabling},
			newPlan:    models.BackupPlan{Kind: models.PlanFree},
			wantErr:    ErrUnexpectedPlanTransition,
			wantOld:    models.StateReady,
			wantRecent: models.StateReady,
			wantParked: models.StateIneligible,
		},
		{
			name:       "linked devices ignore plan changes",
			isPrimary:  false,
			oldPlan:    models.BackupPlan{Kind: models.PlanPaid},
			newPlan:    models.BackupPlan{Kind: models.PlanDisabled},
			wantOld:    models.StateReady,
			wantRecent: models.StateReady,
			wantParked: models.StateIneligible,
		},
		{
			name:       "same free plan is a no-op",
			isPrimary:  true,
			oldPlan:    models.BackupPlan{Kind: models.PlanFree},
			newPlan:    models.BackupPlan{Kind: models.PlanFree},
			wantOld:    models.StateReady,
			wantRecent: models.StateReady,
			wantParked: models.StateIneligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t, tt.isPrimary)
			env.status.EXPECT().SetSuspended(gomock.Any()).AnyTimes()
			manager := env.newManager()

			enqueue := func(owner *int64, state models.QueueRecordState) int64 {
				att := env.addAttachment(t, mediaTierAttachment())
				record, err := env.db.EnqueueDownload(ctx, &models.DownloadRecord{
					AttachmentID:             att.ID,
					CanDownloadFromMediaTier: true,
					MaxOwnerTimestamp:        owner,
					State:                    state,
				}, testNow.UnixMilli())
				require.NoError(t, err)
				return record.ID
			}

			ids := seeded{
				old:    enqueue(oldOwner, models.StateReady),
				recent: enqueue(newOwner, models.StateReady),
				done:   enqueue(newOwner, models.StateDone),
				parked: enqueue(oldOwner, models.StateIneligible),
			}

			err := manager.BackupPlanDidChange(ctx, tt.oldPlan, tt.newPlan)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			stateOf := func(id int64) models.QueueRecordState {
				record, err := env.db.GetDownloadRecord(ctx, id)
				require.NoError(t, err)
				return record.State
			}
			require.Equal(t, tt.wantOld, stateOf(ids.old))
			require.Equal(t, tt.wantRecent, stateOf(ids.recent))
			require.Equal(t, tt.wantParked, stateOf(ids.parked))

			_, err = env.db.GetDownloadRecord(ctx, ids.done)
			if tt.wantDoneGone {
				require.ErrorIs(t, err, database.ErrNotFound)
			} else {
				require.NoError(t, err)
			}

			suspended, err := env.db.IsQueueSuspended(ctx, models.QueueDownload)
			require.NoError(t, err)
			require.Equal(t, tt.wantSuspended, suspended)
		})
	}
}

func TestManager_SetSuspended(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	gomock.InOrder(
		env.status.EXPECT().SetSuspended(true),
		env.status.EXPECT().SetSuspended(false),
	)
	manager := env.newManager()

	require.NoError(t, manager.SetSuspended(ctx, true))
	suspended, err := env.db.IsQueueSuspended(ctx, models.QueueDownload)
	require.NoError(t, err)
	require.True(t, suspended)

	require.NoError(t, manager.SetSuspended(ctx, false))
	suspended, err = env.db.IsQueueSuspended(ctx, models.QueueDownload)
	require.NoError(t, err)
	require.False(t, suspended)
}

func TestManager_StartRunsOnKick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newTestEnv(t, true)
	ran := make(chan struct{}, 1)
	env.listMedia.EXPECT().QueryIfNeeded(gomock.Any()).DoAndReturn(func(context.Context) (listmedia.Result, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return listmedia.Result{}, nil
	}).MinTimes(1)
	env.status.EXPECT().BeginObservingIfNecessary(gomock.Any(), models.ModeFullsize).Return(models.QueueEmpty, nil).AnyTimes()
	env.status.EXPECT().StatusAndToken(models.ModeThumbnail).Return(models.QueueEmpty, status.Token{}).AnyTimes()

	manager := env.newManager()
	manager.Start(ctx)
	manager.Kick()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("expected the queue to run after a kick")
	}
}
