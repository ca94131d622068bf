package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres
)

type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo создает репозиторий поверх общего пула соединений.
// Пул долгоживущий и разделяется всеми запросами: откат одной вставки
// не должен блокировать соседние (за это отвечает database/sql).
func NewAuditRepo(connString string, maxOpen, maxIdle int, maxLifetime time.Duration) *AuditRepo {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		// В main мы проверим соединение через Ping
		log.Fatal(err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
	return &AuditRepo{db: db}
}

// Insert пишет одну запись аудита как атомарную единицу.
// details сериализуются в JSONB; ошибка вставки отдается наверх как есть.
func (r *AuditRepo) Insert(ctx context.Context, rec domain.AuditRecord) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode details: %w", err)
	}

	query := `
		INSERT INTO audit_log (id, action, entity, entity_id, details, user_id, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Action, rec.Entity, rec.EntityID, details, rec.UserID, rec.Timestamp,
	); err != nil {
		return fmt.Errorf("postgres: failed to insert audit record: %w", err)
	}
	return nil
}

// buildFetchQuery собирает SELECT с опциональными AND-предикатами.
// Вынесено из Fetch, чтобы сборку плейсхолдеров можно было проверить без базы.
func buildFetchQuery(f domain.AuditFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, action, entity, entity_id, details, user_id, timestamp FROM audit_log WHERE 1=1`)
	args := make([]any, 0, 4)

	// Диапазон дат применяется только парой — одиночная граница игнорируется
	if f.StartDate != nil && f.EndDate != nil {
		sb.WriteString(fmt.Sprintf(" AND timestamp BETWEEN $%d AND $%d", len(args)+1, len(args)+2))
		args = append(args, *f.StartDate, *f.EndDate)
	}
	if f.Action != "" {
		sb.WriteString(fmt.Sprintf(" AND action = $%d", len(args)+1))
		args = append(args, f.Action)
	}
	if f.UserID != "" {
		sb.WriteString(fmt.Sprintf(" AND user_id = $%d", len(args)+1))
		args = append(args, f.UserID)
	}

	return sb.String(), args
}

// Fetch возвращает записи по фильтру одним запросом (point-in-time снимок).
func (r *AuditRepo) Fetch(ctx context.Context, f domain.AuditFilter) ([]domain.AuditRecord, error) {
	query, args := buildFetchQuery(f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch audit records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AuditRecord, 0)
	for rows.Next() {
		var rec domain.AuditRecord
		var details []byte
		if err := rows.Scan(
			&rec.ID, &rec.Action, &rec.Entity, &rec.EntityID, &details, &rec.UserID, &rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan audit record: %w", err)
		}
		if err := json.Unmarshal(details, &rec.Details); err != nil {
			// Битый JSONB в базе — отдаем сырую строку, а не роняем всю выборку
			rec.Details = string(details)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: audit rows iteration failed: %w", err)
	}

	return records, nil
}

// ActionStats считает записи по действиям для сводного отчета.
// Диапазон дат опционален (оба указателя либо nil, либо заданы).
func (r *AuditRepo) ActionStats(ctx context.Context, start, end *time.Time) ([]domain.ActionStat, error) {
	query := `SELECT action, COUNT(*) FROM audit_log`
	args := make([]any, 0, 2)
	if start != nil && end != nil {
		query += ` WHERE timestamp BETWEEN $1 AND $2`
		args = append(args, *start, *end)
	}
	query += ` GROUP BY action ORDER BY COUNT(*) DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch action stats: %w", err)
	}
	defer rows.Close()

	stats := make([]domain.ActionStat, 0)
	for rows.Next() {
		var s domain.ActionStat
		if err := rows.Scan(&s.Action, &s.Count); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan action stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Ping проверяет доступность базы при старте
func (r *AuditRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close отдается main при graceful shutdown
func (r *AuditRepo) Close() error {
	return r.db.Close()
}
