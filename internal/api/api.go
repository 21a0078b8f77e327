package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/internal/scheduler"
	"github.com/draftsync/draftsync/internal/server"
	"github.com/draftsync/draftsync/pkg/draftlib"
)

// Config carries the daemon-level settings shared by every session.
type Config struct {
	// SaveURL is the document persistence endpoint.
	SaveURL string
	// UploadURL is the asset upload endpoint.
	UploadURL string
	// Token authenticates against both endpoints.
	Token string
	// SaveTimeout bounds each save request; zero uses the library default.
	SaveTimeout time.Duration
	Version     string
	Commit      string
	BuildType   string
}

type Api struct {
	log      *log.Logger
	cfg      *Config
	client   *http.Client
	store    *draftlib.FallbackStore
	sessions draftlib.VMap[string, *session]
	pool     *server.Pool
	notifier *server.RPCNotifier
	scans    *scheduler.Scheduler
}

func NewApi(l *log.Logger, cfg *Config, client *http.Client) (*Api, error) {
	store, err := draftlib.OpenFallbackStore("")
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Api{
		log:      l,
		cfg:      cfg,
		client:   client,
		store:    store,
		sessions: draftlib.NewVMap[string, *session](),
	}, nil
}

// SetNotifier attaches the JSON-RPC push notifier. Sessions created
// afterwards mirror their broadcast updates to it.
func (s *Api) SetNotifier(n *server.RPCNotifier) {
	s.notifier = n
}

// StartScheduler starts the recurring-scan scheduler. Scheduled events
// rerun the owning session's last scan; sessions that vanished in the
// meantime are dropped silently.
func (s *Api) StartScheduler(ctx context.Context) {
	s.scans = scheduler.New(ctx, func(sessionId string) {
		if err := s.rescan(sessionId); err != nil {
			s.log.Printf("scheduled scan for %s: %s", sessionId, err.Error())
		}
	})
}

func (s *Api) RegisterHandlers(serv *server.Server) {
	s.pool = serv.Pool()

	// editing session methods
	serv.RegisterHandler(common.UPDATE_EDIT_OPEN, s.editOpenHandler)
	serv.RegisterHandler(common.UPDATE_EDIT_MARK, s.editMarkHandler)
	serv.RegisterHandler(common.UPDATE_EDIT_SAVE, s.editSaveHandler)
	serv.RegisterHandler(common.UPDATE_EDIT_STATUS, s.editStatusHandler)
	serv.RegisterHandler(common.UPDATE_EDIT_CLOSE, s.editCloseHandler)
	serv.RegisterHandler(common.UPDATE_ATTACH, s.attachHandler)

	// asset upload methods
	serv.RegisterHandler(common.UPDATE_UPLOAD, s.uploadHandler)
	serv.RegisterHandler(common.UPDATE_UPLOAD_RETRY, s.uploadRetryHandler)
	serv.RegisterHandler(common.UPDATE_UPLOAD_DROP, s.uploadRemoveHandler)
	serv.RegisterHandler(common.UPDATE_UPLOAD_CLEAR, s.uploadClearHandler)
	serv.RegisterHandler(common.UPDATE_UPLOAD_LIST, s.uploadListHandler)

	// resource health scan methods
	serv.RegisterHandler(common.UPDATE_SCAN, s.scanHandler)
	serv.RegisterHandler(common.UPDATE_SCAN_RESET, s.scanResetHandler)
	serv.RegisterHandler(common.UPDATE_SCAN_CRON, s.scanCronHandler)

	serv.RegisterHandler(common.UPDATE_VERSION, s.versionHandler)
}

// Close flushes every open session and releases the fallback store.
func (s *Api) Close() error {
	s.sessions.Range(func(_ string, sess *session) bool {
		sess.close()
		return true
	})
	return s.store.Close()
}

func (s *Api) getSession(id string) (*session, bool) {
	return s.sessions.Get(id)
}
