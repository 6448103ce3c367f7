package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

type pgRepository struct {
	db *sql.DB
}

// NewPostgresRepository opens the archive database and verifies the
// connection before returning.
func NewPostgresRepository(databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &pgRepository{db: db}, nil
}

func (r *pgRepository) SaveResult(ctx context.Context, res *Result) error {
	if res == nil {
		return fmt.Errorf("nil archive result")
	}
	const q = `INSERT INTO chess_results (
	    game_id, white_call, black_call, result, result_method, final_fen, ended_at
	  ) VALUES ($1,$2,$3,$4,$5,$6,$7)
	  ON CONFLICT (game_id) DO UPDATE SET
	    white_call=EXCLUDED.white_call,
	    black_call=EXCLUDED.black_call,
	    result=EXCLUDED.result,
	    result_method=EXCLUDED.result_method,
	    final_fen=EXCLUDED.final_fen,
	    ended_at=EXCLUDED.ended_at`

	ended := res.EndedAt
	if ended.IsZero() {
		ended = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		res.GameID,
		res.White, res.Black,
		res.Result, strings.TrimSpace(res.Method),
		res.FinalFEN,
		ended,
	)
	if err != nil {
		return fmt.Errorf("insert chess result: %w", err)
	}
	return nil
}
