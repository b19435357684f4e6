// internal/adapters/db/medicine_gateway.go
package db

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/time/rate"

	"github.com/medkitapp/medkit-be/internal/core/domain"
	"github.com/medkitapp/medkit-be/internal/core/ports"
)

// MedicinesChannel is the default channel carrying change notifications for
// the medicines collection.
const MedicinesChannel = "medicines.changed"

// aisleRecomputeInterval is the default bound on how often the aisle
// aggregation re-queries the collection under a burst of change notifications.
const aisleRecomputeInterval = 250 * time.Millisecond

// GatewayConfig holds store gateway configuration
type GatewayConfig struct {
	Channel              string
	AisleRefreshInterval time.Duration
}

// DefaultGatewayConfig returns default gateway configuration
func DefaultGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		Channel:              MedicinesChannel,
		AisleRefreshInterval: aisleRecomputeInterval,
	}
}

// medicineGateway implements ports.StoreGateway on Postgres. Every mutation
// publishes a change notification so aisle subscribers in any process can
// recompute their aggregation.
type medicineGateway struct {
	db       *Database
	notifier ports.Notifier
	config   *GatewayConfig
	logger   *slog.Logger
}

// Statically assert that *medicineGateway implements the StoreGateway interface.
var _ ports.StoreGateway = (*medicineGateway)(nil)

// NewMedicineGateway creates a new Postgres-backed store gateway.
func NewMedicineGateway(db *Database, notifier ports.Notifier, config *GatewayConfig, logger *slog.Logger) ports.StoreGateway {
	if config == nil {
		config = DefaultGatewayConfig()
	}
	if config.Channel == "" {
		config.Channel = MedicinesChannel
	}
	if config.AisleRefreshInterval <= 0 {
		config.AisleRefreshInterval = aisleRecomputeInterval
	}
	return &medicineGateway{
		db:       db,
		notifier: notifier,
		config:   config,
		logger:   logger.With(slog.String("gateway", "medicine")),
	}
}

// cursorToken is the keyset position encoded into the opaque cursor: the
// sort-column value and row id of the last item of the previous page.
type cursorToken struct {
	Value string `json:"v,omitempty"`
	ID    string `json:"id"`
}

func encodeCursor(t cursorToken) string {
	data, _ := json.Marshal(t)
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(s string) (cursorToken, error) {
	var t cursorToken
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return t, fmt.Errorf("malformed cursor: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("malformed cursor: %w", err)
	}
	return t, nil
}

// FetchMedicineBatch returns one keyset-paginated page of medicines, ordered
// by the sort option then id. The optional filter constrains name_lc to the
// half-open range [prefix, prefix+sentinel).
func (g *medicineGateway) FetchMedicineBatch(ctx context.Context, q ports.MedicineQuery) (ports.MedicineBatch, error) {
	qb := squirrel.Select("id", "name", "name_lc", "stock", "aisle").
		From("medicines").
		PlaceholderFormat(squirrel.Dollar)

	if q.FilterText != "" {
		qb = qb.Where("name_lc >= ? AND name_lc < ?", q.FilterText, q.FilterText+domain.PrefixSentinel)
	}

	if q.Cursor != "" {
		cur, err := decodeCursor(q.Cursor)
		if err != nil {
			return ports.MedicineBatch{}, err
		}
		switch q.Sort {
		case domain.SortName:
			qb = qb.Where("(name_lc, id) > (?, ?::uuid)", cur.Value, cur.ID)
		case domain.SortStock:
			qb = qb.Where("(stock, id) > (?::int, ?::uuid)", cur.Value, cur.ID)
		default:
			qb = qb.Where("id > ?::uuid", cur.ID)
		}
	}

	switch q.Sort {
	case domain.SortName:
		qb = qb.OrderBy("name_lc ASC", "id ASC")
	case domain.SortStock:
		qb = qb.OrderBy("stock ASC", "id ASC")
	default:
		qb = qb.OrderBy("id ASC")
	}

	if q.PageSize > 0 {
		qb = qb.Limit(uint64(q.PageSize))
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return ports.MedicineBatch{}, fmt.Errorf("failed to build batch query: %w", err)
	}

	rows, err := g.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return ports.MedicineBatch{}, fmt.Errorf("failed to query medicines: %w", err)
	}
	defer rows.Close()

	var medicines []domain.Medicine
	for rows.Next() {
		var m domain.Medicine
		if err := rows.Scan(&m.ID, &m.Name, &m.NameLC, &m.Stock, &m.Aisle); err != nil {
			return ports.MedicineBatch{}, fmt.Errorf("failed to scan medicine: %w", err)
		}
		medicines = append(medicines, m)
	}
	if err := rows.Err(); err != nil {
		return ports.MedicineBatch{}, fmt.Errorf("error iterating medicines: %w", err)
	}

	batch := ports.MedicineBatch{Medicines: medicines}
	if len(medicines) > 0 {
		last := medicines[len(medicines)-1]
		token := cursorToken{ID: last.ID}
		switch q.Sort {
		case domain.SortName:
			token.Value = last.NameLC
		case domain.SortStock:
			token.Value = strconv.Itoa(last.Stock)
		}
		batch.NextCursor = encodeCursor(token)
	}
	return batch, nil
}

// AddMedicine persists the medicine, assigning an identifier if absent.
func (g *medicineGateway) AddMedicine(ctx context.Context, m domain.Medicine) (domain.Medicine, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	query := `
		INSERT INTO medicines (id, name, name_lc, stock, aisle)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := g.db.QueryRow(ctx, query, m.ID, m.Name, m.NameLC, m.Stock, m.Aisle).Scan(&m.ID)
	if err != nil {
		return domain.Medicine{}, fmt.Errorf("failed to add medicine: %w", err)
	}

	g.notifyChanged(ctx)
	g.logger.DebugContext(ctx, "medicine added", slog.String("id", m.ID))
	return m, nil
}

// UpdateMedicine writes the full record.
func (g *medicineGateway) UpdateMedicine(ctx context.Context, m domain.Medicine) error {
	query := `
		UPDATE medicines
		SET name = $2, name_lc = $3, stock = $4, aisle = $5
		WHERE id = $1`

	tag, err := g.db.Exec(ctx, query, m.ID, m.Name, m.NameLC, m.Stock, m.Aisle)
	if err != nil {
		return fmt.Errorf("failed to update medicine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("medicine not found %s: %w", m.ID, pgx.ErrNoRows)
	}

	g.notifyChanged(ctx)
	return nil
}

// UpdateStock writes only the stock column.
func (g *medicineGateway) UpdateStock(ctx context.Context, id string, newStock int) error {
	tag, err := g.db.Exec(ctx, `UPDATE medicines SET stock = $2 WHERE id = $1`, id, newStock)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("medicine not found %s: %w", id, pgx.ErrNoRows)
	}

	g.notifyChanged(ctx)
	return nil
}

// DeleteMedicines removes the given ids and returns those actually deleted.
func (g *medicineGateway) DeleteMedicines(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := g.db.Query(ctx, `DELETE FROM medicines WHERE id = ANY($1::uuid[]) RETURNING id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to delete medicines: %w", err)
	}
	defer rows.Close()

	var deleted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deleted id: %w", err)
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deleted ids: %w", err)
	}

	g.notifyChanged(ctx)
	g.logger.InfoContext(ctx, "medicines deleted", slog.Int("count", len(deleted)))
	return deleted, nil
}

// AddHistory persists a history row, keeping the client-generated id and
// timestamp.
func (g *medicineGateway) AddHistory(ctx context.Context, e domain.HistoryEntry) (domain.HistoryEntry, error) {
	query := `
		INSERT INTO history (id, medicine_id, user_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := g.db.QueryRow(ctx, query,
		e.ID, e.MedicineID, e.UserID, string(e.Action), e.Details, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("failed to add history entry: %w", err)
	}
	return e, nil
}

// DeleteHistory removes all history rows belonging to the given medicines.
func (g *medicineGateway) DeleteHistory(ctx context.Context, medicineIDs []string) error {
	if len(medicineIDs) == 0 {
		return nil
	}
	if _, err := g.db.Exec(ctx, `DELETE FROM history WHERE medicine_id = ANY($1::uuid[])`, medicineIDs); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

// FetchHistoryBatch returns one keyset-paginated page of a medicine's
// history, newest first.
func (g *medicineGateway) FetchHistoryBatch(ctx context.Context, medicineID string, pageSize int, cursor string) (ports.HistoryBatch, error) {
	qb := squirrel.Select("id", "medicine_id", "user_id", "action", "details", "created_at").
		From("history").
		Where(squirrel.Eq{"medicine_id": medicineID}).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar)

	if cursor != "" {
		cur, err := decodeCursor(cursor)
		if err != nil {
			return ports.HistoryBatch{}, err
		}
		qb = qb.Where("(created_at, id) < (?::timestamptz, ?::uuid)", cur.Value, cur.ID)
	}
	if pageSize > 0 {
		qb = qb.Limit(uint64(pageSize))
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return ports.HistoryBatch{}, fmt.Errorf("failed to build history query: %w", err)
	}

	rows, err := g.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return ports.HistoryBatch{}, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var action string
		if err := rows.Scan(&e.ID, &e.MedicineID, &e.UserID, &action, &e.Details, &e.CreatedAt); err != nil {
			return ports.HistoryBatch{}, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Action = domain.HistoryAction(action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return ports.HistoryBatch{}, fmt.Errorf("error iterating history: %w", err)
	}

	batch := ports.HistoryBatch{Entries: entries}
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		batch.NextCursor = encodeCursor(cursorToken{
			Value: last.CreatedAt.Format(time.RFC3339Nano),
			ID:    last.ID,
		})
	}
	return batch, nil
}

// SubscribeAisles delivers the distinct aisle names of the full collection,
// once on subscription and again after every change notification.
// Recomputation is rate-limited so notification bursts collapse into one
// re-query.
func (g *medicineGateway) SubscribeAisles(ctx context.Context, onUpdate ports.AisleUpdateFunc) (ports.Subscription, error) {
	subCtx, cancel := context.WithCancel(context.Background())

	trigger := make(chan struct{}, 1)
	sub, err := g.notifier.Subscribe(ctx, g.config.Channel,
		func(string) {
			select {
			case trigger <- struct{}{}:
			default:
			}
		},
		func(err error) {
			onUpdate(nil, err)
		})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", g.config.Channel, err)
	}

	limiter := rate.NewLimiter(rate.Every(g.config.AisleRefreshInterval), 1)
	go func() {
		for {
			if err := limiter.Wait(subCtx); err != nil {
				return
			}
			aisles, err := g.fetchAisles(subCtx)
			if err != nil {
				onUpdate(nil, err)
			} else {
				onUpdate(aisles, nil)
			}
			select {
			case <-subCtx.Done():
				return
			case <-trigger:
			}
		}
	}()

	var once sync.Once
	return ports.SubscriptionFunc(func() {
		once.Do(func() {
			sub.Cancel()
			cancel()
		})
	}), nil
}

func (g *medicineGateway) fetchAisles(ctx context.Context) ([]string, error) {
	rows, err := g.db.Query(ctx, `SELECT DISTINCT aisle FROM medicines WHERE aisle <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to query aisles: %w", err)
	}
	defer rows.Close()

	var aisles []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("failed to scan aisle: %w", err)
		}
		aisles = append(aisles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aisles: %w", err)
	}
	return aisles, nil
}

// CreateUser records the auth identity in the users collection.
func (g *medicineGateway) CreateUser(ctx context.Context, u domain.AppUser) error {
	query := `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email`

	if _, err := g.db.Exec(ctx, query, u.ID, u.Email); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetEmail looks up the email recorded for a user id. A missing row or a
// blank column both come back as the empty string with no error.
func (g *medicineGateway) GetEmail(ctx context.Context, uid string) (string, error) {
	var email string
	err := g.db.QueryRow(ctx, `SELECT COALESCE(email, '') FROM users WHERE id = $1`, uid).Scan(&email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up email: %w", err)
	}
	return email, nil
}

func (g *medicineGateway) notifyChanged(ctx context.Context) {
	if err := g.notifier.Publish(ctx, g.config.Channel, "changed"); err != nil {
		g.logger.WarnContext(ctx, "failed to publish change notification",
			slog.String("channel", g.config.Channel),
			slog.String("error", err.Error()))
	}
}
