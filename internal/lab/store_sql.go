package lab

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-vlab/internal/grading"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutLab(ctx context.Context, l Lab) error {
	cj := ""
	if l.Criteria != nil {
		buf, err := json.Marshal(l.Criteria)
		if err != nil {
			return errors.Wrap(err, "encode criteria")
		}
		cj = string(buf)
	}
	createdAt := l.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO labs (id,title,description,lab_type,criteria_json,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			lab_type=EXCLUDED.lab_type, criteria_json=EXCLUDED.criteria_json`,
		l.ID, l.Title, l.Description, l.LabType, cj, l.CreatedBy, createdAt)
	return errors.Wrapf(err, "put lab %s", l.ID)
}

func (s *SQLStore) GetLab(ctx context.Context, id string) (Lab, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,description,lab_type,criteria_json,created_by,created_at FROM labs WHERE id=$1`, id)
	var (
		l  Lab
		cj string
	)
	if err := row.Scan(&l.ID, &l.Title, &l.Description, &l.LabType, &cj, &l.CreatedBy, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lab{}, ErrNotFound
		}
		return Lab{}, errors.Wrapf(err, "get lab %s", id)
	}
	if cj != "" {
		var c grading.Criteria
		if err := json.Unmarshal([]byte(cj), &c); err != nil {
			return Lab{}, errors.Wrapf(err, "decode criteria of lab %s", id)
		}
		l.Criteria = &c
	}
	return l, nil
}

func (s *SQLStore) ListLabs(ctx context.Context, opts ListOpts) ([]Lab, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(opts.Q); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		where = append(where, "LOWER(title) LIKE $"+strconv.Itoa(len(args)))
	}
	if opts.LabType != "" {
		args = append(args, opts.LabType)
		where = append(where, "lab_type=$"+strconv.Itoa(len(args)))
	}
	sqlStr := `SELECT id,title,description,lab_type,created_by,created_at FROM labs`
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, normLimit(opts.Limit), max(opts.Offset, 0))
	sqlStr += ` ORDER BY created_at DESC, id LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list labs")
	}
	defer rows.Close()
	out := make([]Lab, 0)
	for rows.Next() {
		var l Lab
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.LabType, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan lab")
		}
		out = append(out, l)
	}
	return out, errors.Wrap(rows.Err(), "list labs")
}

func (s *SQLStore) CreateSubmission(ctx context.Context, sub Submission) error {
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM labs WHERE id=$1`, sub.LabID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return errors.Wrap(err, "check lab")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO submissions (id,lab_id,user_id,content,status,score,max_score,percentage,result_json,report_key,submitted_at)
		VALUES ($1,$2,$3,$4,$5,0,0,0,'',$6,$7)`,
		sub.ID, sub.LabID, sub.UserID, sub.Content, sub.Status, sub.ReportKey, sub.SubmittedAt)
	return errors.Wrapf(err, "insert submission %s", sub.ID)
}

func (s *SQLStore) SaveResult(ctx context.Context, id string, res grading.Result, reportKey string) (Submission, error) {
	buf, err := json.Marshal(res)
	if err != nil {
		return Submission{}, errors.Wrap(err, "encode result")
	}
	r, err := s.db.ExecContext(ctx, `UPDATE submissions
		SET status=$1, score=$2, max_score=$3, percentage=$4, result_json=$5, graded_at=$6,
			report_key=COALESCE(NULLIF($7, ''), report_key)
		WHERE id=$8`,
		StatusGraded, res.Score, res.MaxScore, res.Percentage, string(buf), res.GradedAt.Unix(), reportKey, id)
	if err != nil {
		return Submission{}, errors.Wrapf(err, "save result %s", id)
	}
	if n, err := r.RowsAffected(); err == nil && n == 0 {
		return Submission{}, ErrNotFound
	}
	return s.GetSubmission(ctx, id)
}

const submissionCols = `id,lab_id,user_id,content,status,score,max_score,percentage,result_json,report_key,submitted_at,graded_at`

func scanSubmission(sc interface{ Scan(...any) error }) (Submission, error) {
	var (
		sub      Submission
		rj       string
		gradedAt sql.NullInt64
	)
	if err := sc.Scan(&sub.ID, &sub.LabID, &sub.UserID, &sub.Content, &sub.Status, &sub.Score,
		&sub.MaxScore, &sub.Percentage, &rj, &sub.ReportKey, &sub.SubmittedAt, &gradedAt); err != nil {
		return Submission{}, err
	}
	sub.GradedAt = gradedAt.Int64
	if rj != "" {
		var res grading.Result
		if err := json.Unmarshal([]byte(rj), &res); err == nil {
			sub.Result = &res
		}
	}
	return sub, nil
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM submissions WHERE id=$1`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, errors.Wrapf(err, "get submission %s", id)
	}
	return sub, nil
}

func (s *SQLStore) ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error) {
	var (
		where []string
		args  []any
	)
	add := func(col, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		where = append(where, col+"=$"+strconv.Itoa(len(args)))
	}
	add("lab_id", opts.LabID)
	add("user_id", opts.UserID)
	add("status", opts.Status)

	sqlStr := `SELECT ` + submissionCols + ` FROM submissions`
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, normLimit(opts.Limit), max(opts.Offset, 0))
	sqlStr += ` ORDER BY submitted_at DESC, id LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list submissions")
	}
	defer rows.Close()
	out := make([]Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan submission")
		}
		out = append(out, sub)
	}
	return out, errors.Wrap(rows.Err(), "list submissions")
}
