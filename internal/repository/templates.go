package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deckforge/cardscript-engine-go/internal/board"
	"github.com/deckforge/cardscript-engine-go/internal/cardset"
)

// TemplateRepository reads and writes card templates. It satisfies the script
// runtime's template source, so spawn effects can resolve templates straight
// from the database.
type TemplateRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTemplateRepository creates a template repository backed by db.
func NewTemplateRepository(db *DB, logger *zap.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

// Template returns the template stored under name.
func (r *TemplateRepository) Template(ctx context.Context, name string) (board.CardTemplate, error) {
	var (
		tpl       board.CardTemplate
		tokensRaw []byte
	)
	err := r.db.pool.QueryRow(ctx,
		`SELECT name, card_type, faceup, tokens FROM card_templates WHERE name = $1`,
		name,
	).Scan(&tpl.Name, &tpl.CardType, &tpl.FaceUp, &tokensRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		return board.CardTemplate{}, fmt.Errorf("%w: %s", cardset.ErrTemplateNotFound, name)
	}
	if err != nil {
		return board.CardTemplate{}, fmt.Errorf("repository: query template %s: %w", name, err)
	}
	if len(tokensRaw) > 0 {
		if err := json.Unmarshal(tokensRaw, &tpl.Tokens); err != nil {
			return board.CardTemplate{}, fmt.Errorf("repository: decode tokens for %s: %w", name, err)
		}
	}
	return tpl, nil
}

// Upsert stores a template, replacing any existing row with the same name.
func (r *TemplateRepository) Upsert(ctx context.Context, setName string, tpl board.CardTemplate) error {
	tokens := tpl.Tokens
	if tokens == nil {
		tokens = map[string]int{}
	}
	tokensRaw, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("repository: encode tokens for %s: %w", tpl.Name, err)
	}
	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO card_templates (name, card_type, faceup, tokens, set_name, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (name) DO UPDATE SET
			card_type = EXCLUDED.card_type,
			faceup = EXCLUDED.faceup,
			tokens = EXCLUDED.tokens,
			set_name = EXCLUDED.set_name,
			updated_at = now()`,
		tpl.Name, tpl.CardType, tpl.FaceUp, tokensRaw, setName)
	if err != nil {
		return fmt.Errorf("repository: upsert template %s: %w", tpl.Name, err)
	}
	return nil
}

// UpsertSet stores every template in a set inside one transaction.
func (r *TemplateRepository) UpsertSet(ctx context.Context, set cardset.Set) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, tpl := range set.Templates {
		tokens := tpl.Tokens
		if tokens == nil {
			tokens = map[string]int{}
		}
		tokensRaw, err := json.Marshal(tokens)
		if err != nil {
			return fmt.Errorf("repository: encode tokens for %s: %w", tpl.Name, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO card_templates (name, card_type, faceup, tokens, set_name, updated_at)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (name) DO UPDATE SET
				card_type = EXCLUDED.card_type,
				faceup = EXCLUDED.faceup,
				tokens = EXCLUDED.tokens,
				set_name = EXCLUDED.set_name,
				updated_at = now()`,
			tpl.Name, tpl.CardType, tpl.FaceUp, tokensRaw, set.Name); err != nil {
			return fmt.Errorf("repository: upsert template %s: %w", tpl.Name, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: commit: %w", err)
	}
	r.logger.Info("card set stored",
		zap.String("set", set.Name),
		zap.Int("templates", len(set.Templates)),
	)
	return nil
}

// List returns every stored template in name order.
func (r *TemplateRepository) List(ctx context.Context) ([]board.CardTemplate, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT name, card_type, faceup, tokens FROM card_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("repository: list templates: %w", err)
	}
	defer rows.Close()

	var templates []board.CardTemplate
	for rows.Next() {
		var (
			tpl       board.CardTemplate
			tokensRaw []byte
		)
		if err := rows.Scan(&tpl.Name, &tpl.CardType, &tpl.FaceUp, &tokensRaw); err != nil {
			return nil, fmt.Errorf("repository: scan template: %w", err)
		}
		if len(tokensRaw) > 0 {
			if err := json.Unmarshal(tokensRaw, &tpl.Tokens); err != nil {
				return nil, fmt.Errorf("repository: decode tokens for %s: %w", tpl.Name, err)
			}
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: list templates: %w", err)
	}
	return templates, nil
}

// Count returns the number of stored templates.
func (r *TemplateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM card_templates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: count templates: %w", err)
	}
	return count, nil
}
