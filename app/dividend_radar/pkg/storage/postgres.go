package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/config"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("workflow run not found")

const runsTable = "workflow_runs"

var runColumns = []string{"id", "input_type", "status", "error", "request", "report", "trace", "created_at"}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Run 一次工作流执行的持久化记录
type Run struct {
	ID        string          `json:"id"`
	InputType string          `json:"inputType"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Request   json.RawMessage `json:"request,omitempty"`
	Report    json.RawMessage `json:"report,omitempty"`
	Trace     []string        `json:"trace,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type runRequest struct {
	UserInput       *string                `json:"userInput,omitempty"`
	ResearchRequest *model.ResearchRequest `json:"researchRequest,omitempty"`
}

// RunFromState 将工作流最终状态转为记录
func RunFromState(s workflow.State, createdAt time.Time) (Run, error) {
	req, err := json.Marshal(runRequest{UserInput: s.UserInput, ResearchRequest: s.ResearchRequest})
	if err != nil {
		return Run{}, fmt.Errorf("encode request: %w", err)
	}
	run := Run{
		ID:        s.RunID,
		InputType: string(s.InputType),
		Status:    s.Status.String(),
		Error:     s.Error,
		Request:   stripNullEscapes(req),
		Trace:     s.Trace,
		CreatedAt: createdAt,
	}
	if s.Report != nil {
		report, err := json.Marshal(s.Report)
		if err != nil {
			return Run{}, fmt.Errorf("encode report: %w", err)
		}
		run.Report = stripNullEscapes(report)
	}
	return run, nil
}

// DecodeReport 解析记录中的报告，没有报告时返回 nil
func (r Run) DecodeReport() (*model.SummaryReport, error) {
	if len(r.Report) == 0 {
		return nil, nil
	}
	var report model.SummaryReport
	if err := json.Unmarshal(r.Report, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

// Storage 基于 Postgres 的运行记录存储
type Storage struct {
	db *sql.DB
}

// NewStorage 连接数据库并初始化表结构
func NewStorage(cfg config.DBConfig) (*Storage, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := New(db)
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// New 使用已有连接
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS workflow_runs (
		id TEXT PRIMARY KEY,
		input_type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		request JSONB,
		report JSONB,
		trace TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS workflow_runs_created_at_idx ON workflow_runs (created_at DESC)`,
}

func (s *Storage) initSchema(ctx context.Context) error {
	for _, q := range schema {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun 写入记录，同一 ID 重复写入时更新结果
func (s *Storage) SaveRun(ctx context.Context, run Run) error {
	query, args, err := saveRunQuery(run)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun 按 ID 查询
func (s *Storage) GetRun(ctx context.Context, id string) (*Run, error) {
	query, args, err := getRunQuery(id)
	if err != nil {
		return nil, err
	}
	run, err := scanRun(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns 按创建时间倒序分页查询，inputType 为空时不过滤
func (s *Storage) ListRuns(ctx context.Context, inputType string, limit, offset uint64) ([]Run, error) {
	query, args, err := listRunsQuery(inputType, limit, offset)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func saveRunQuery(run Run) (string, []any, error) {
	trace := run.Trace
	if trace == nil {
		// nil 数组会写入 NULL
		trace = []string{}
	}
	return psql.Insert(runsTable).
		Columns(runColumns...).
		Values(run.ID, run.InputType, run.Status, removeNullBytes(run.Error),
			nullableJSON(run.Request), nullableJSON(run.Report), pq.StringArray(trace), run.CreatedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, error = EXCLUDED.error, " +
			"report = EXCLUDED.report, trace = EXCLUDED.trace").
		ToSql()
}

func getRunQuery(id string) (string, []any, error) {
	return psql.Select(runColumns...).From(runsTable).Where(sq.Eq{"id": id}).ToSql()
}

func listRunsQuery(inputType string, limit, offset uint64) (string, []any, error) {
	if limit == 0 {
		limit = 20
	}
	b := psql.Select(runColumns...).From(runsTable).OrderBy("created_at DESC").Limit(limit).Offset(offset)
	if inputType != "" {
		b = b.Where(sq.Eq{"input_type": inputType})
	}
	return b.ToSql()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run             Run
		request, report []byte
		trace           pq.StringArray
	)
	if err := row.Scan(&run.ID, &run.InputType, &run.Status, &run.Error, &request, &report, &trace, &run.CreatedAt); err != nil {
		return nil, err
	}
	run.Request = request
	run.Report = report
	run.Trace = trace
	return &run, nil
}

// nullableJSON 空值写为 NULL，JSONB 以字符串形式传入
func nullableJSON(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// removeNullBytes PostgreSQL 文本字段不支持 NULL 字节
func removeNullBytes(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// stripNullEscapes 删除 JSON 中的 \u0000 转义，JSONB 不接受该字符
func stripNullEscapes(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u0000`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if bytes.HasPrefix(b[i+1:], []byte("u0000")) {
			i += 5
			continue
		}
		// 其他转义原样保留，跳过被转义的字符
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}
