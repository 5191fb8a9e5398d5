package tools

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hiteshgeek/query-builder-sub002/config"
)

// Audit actions recorded for destructive and account operations.
const (
	AuditExecuteDelete   = "execute_delete"
	AuditAccountCreate   = "account_create"
	AuditAccountLock     = "account_lock"
	AuditAccountUnlock   = "account_unlock"
	AuditAccountPassword = "account_password"
	AuditAccountDelete   = "account_delete"
)

// Audit outcomes.
const (
	OutcomeExecuted  = "executed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// AuditEntry is a single audit record.
type AuditEntry struct {
	Time         time.Time
	Action       string
	Target       string // table or account name
	Statement    string // executed SQL, when applicable
	Outcome      string
	RowsAffected int64
	RequestID    string
	Detail       string
}

// auditLogger batches audit entries and writes them to a separate SQLite
// database so audit writes never contend with the managed database.
type auditLogger struct {
	db         *sql.DB
	insertStmt *sql.Stmt

	mu        sync.Mutex
	batch     []AuditEntry
	batchSize int
	debounce  time.Duration
	timer     *time.Timer
	closed    bool

	wg sync.WaitGroup
}

var (
	audit     *auditLogger
	auditOnce sync.Once
)

// InitAuditLogger initializes the audit logger if enabled.
func InitAuditLogger() error {
	if !config.Cfg.AuditLogEnabled {
		return nil
	}

	var initErr error
	auditOnce.Do(func() {
		initErr = initAuditLoggerInternal()
	})
	return initErr
}

func initAuditLoggerInternal() error {
	dir := filepath.Dir(config.Cfg.AuditLogPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", "file:"+config.Cfg.AuditLogPath)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;
	`)
	if err != nil {
		db.Close()
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY,
			created_at TEXT NOT NULL,
			action TEXT NOT NULL,
			target TEXT NOT NULL,
			statement TEXT,
			outcome TEXT NOT NULL,
			rows_affected INTEGER NOT NULL DEFAULT 0,
			request_id TEXT,
			detail TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_log(created_at);
		CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action);
	`)
	if err != nil {
		db.Close()
		return err
	}

	stmt, err := db.Prepare(`
		INSERT INTO audit_log
		(created_at, action, target, statement, outcome, rows_affected, request_id, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		db.Close()
		return err
	}

	audit = &auditLogger{
		db:         db,
		insertStmt: stmt,
		batchSize:  100,
		debounce:   3 * time.Second,
	}
	return nil
}

// Audit records an entry. A no-op when the audit log is disabled. Entries
// are batched; a full batch flushes immediately, otherwise a short debounce
// timer flushes in the background.
func Audit(entry AuditEntry) {
	if audit == nil {
		return
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}
	audit.record(entry)
}

func (a *auditLogger) record(entry AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	a.batch = append(a.batch, entry)
	if len(a.batch) >= a.batchSize {
		a.flushLocked()
		return
	}

	if a.timer == nil {
		a.timer = time.AfterFunc(a.debounce, func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.flushLocked()
		})
	} else {
		a.timer.Reset(a.debounce)
	}
}

// flushLocked writes the batch in the background. Callers must hold a.mu.
func (a *auditLogger) flushLocked() {
	if len(a.batch) == 0 {
		return
	}
	batch := a.batch
	a.batch = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for _, e := range batch {
			_, err := a.insertStmt.Exec(
				e.Time.Format(time.RFC3339Nano),
				e.Action, e.Target, e.Statement, e.Outcome,
				e.RowsAffected, e.RequestID, e.Detail,
			)
			if err != nil {
				Logger.Error("audit write failed", "error", err, "action", e.Action)
			}
		}
	}()
}

// CloseAuditLogger flushes outstanding entries and closes the database.
func CloseAuditLogger() {
	if audit == nil {
		return
	}

	audit.mu.Lock()
	audit.closed = true
	audit.flushLocked()
	audit.mu.Unlock()

	audit.wg.Wait()
	audit.insertStmt.Close()
	audit.db.Close()
}
